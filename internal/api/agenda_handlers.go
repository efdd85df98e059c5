package api

import (
	"encoding/json"
	"net/http"
	"time"

	"ambudispatch/internal/auth"
	"ambudispatch/internal/service"

	"github.com/gorilla/mux"
)

type AgendaHandler struct {
	Agenda        *service.AgendaService
	Participation *service.ParticipationService
}

func NewAgendaHandler(agenda *service.AgendaService, participation *service.ParticipationService) *AgendaHandler {
	return &AgendaHandler{Agenda: agenda, Participation: participation}
}

// GetAgenda returns the professional's dashboard: occurrences they are
// confirmed on and occurrences still open for their role.
func (h *AgendaHandler) GetAgenda(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.FromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	asOf := time.Now().Truncate(24 * time.Hour)
	if v := r.URL.Query().Get("date"); v != "" {
		parsed, err := time.Parse("2006-01-02", v)
		if err != nil {
			http.Error(w, "date must be YYYY-MM-DD", http.StatusBadRequest)
			return
		}
		asOf = parsed
	}
	agenda, err := h.Agenda.ListForProfessional(identity.ProfessionalID, identity.Role, asOf)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, agenda)
}

// ConfirmParticipation claims one open slot on the occurrence for the
// authenticated professional.
func (h *AgendaHandler) ConfirmParticipation(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.FromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		http.Error(w, "Invalid occurrence id", http.StatusBadRequest)
		return
	}
	role := identity.Role
	if r.Body != nil && r.ContentLength > 0 {
		var req ConfirmParticipationRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request", http.StatusBadRequest)
			return
		}
		if req.Role != "" {
			role = req.Role
		}
	}
	slot, err := h.Participation.ConfirmParticipation(id, identity.ProfessionalID, role)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, slot)
}

func (h *AgendaHandler) SetUnavailability(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.FromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	var req UnavailabilityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}
	if err := h.Agenda.SetUnavailable(identity.ProfessionalID, req.Date); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Unavailability recorded"})
}

func (h *AgendaHandler) ClearUnavailability(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.FromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	date := mux.Vars(r)["date"]
	if err := h.Agenda.ClearUnavailable(identity.ProfessionalID, date); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Unavailability cleared"})
}
