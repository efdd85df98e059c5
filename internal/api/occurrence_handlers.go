package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"ambudispatch/internal/auth"
	"ambudispatch/internal/db"
	"ambudispatch/internal/entities"
	"ambudispatch/internal/service"

	"github.com/gorilla/mux"
)

type OccurrenceHandler struct {
	Service *service.OccurrenceService
}

func NewOccurrenceHandler(svc *service.OccurrenceService) *OccurrenceHandler {
	return &OccurrenceHandler{Service: svc}
}

func (h *OccurrenceHandler) CreateOccurrence(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.FromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	var req entities.OccurrenceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}
	occ, err := h.Service.CreateOccurrenceWithCrew(&req, identity.ProfessionalID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, occ)
}

func (h *OccurrenceHandler) GetOccurrence(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		http.Error(w, "Invalid occurrence id", http.StatusBadRequest)
		return
	}
	occ, err := h.Service.GetOccurrence(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, occ)
}

// DispatchOccurrence moves a confirmed occurrence to in_progress with a
// vehicle and driver assignment.
func (h *OccurrenceHandler) DispatchOccurrence(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, db.StatusInProgress, true)
}

// CompleteOccurrence moves an in_progress occurrence to completed.
func (h *OccurrenceHandler) CompleteOccurrence(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, db.StatusCompleted, false)
}

func (h *OccurrenceHandler) transition(w http.ResponseWriter, r *http.Request, target db.Status, needsPayload bool) {
	id, err := pathID(r, "id")
	if err != nil {
		http.Error(w, "Invalid occurrence id", http.StatusBadRequest)
		return
	}
	var payload *entities.DispatchRequest
	if needsPayload {
		var req TransitionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request", http.StatusBadRequest)
			return
		}
		payload = &entities.DispatchRequest{VehicleID: req.VehicleID, DriverID: req.DriverID}
	}
	occ, err := h.Service.TransitionStatus(id, target, payload)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, occ)
}

func pathID(r *http.Request, name string) (int64, error) {
	return strconv.ParseInt(mux.Vars(r)[name], 10, 64)
}
