package service

import (
	"time"

	"ambudispatch/internal/db"
	"ambudispatch/internal/entities"
	apperrors "ambudispatch/internal/errors"
)

type AgendaService struct {
	Occurrences   OccurrenceStore
	Professionals ProfessionalStore
}

func NewAgendaService(occurrences OccurrenceStore, professionals ProfessionalStore) *AgendaService {
	return &AgendaService{Occurrences: occurrences, Professionals: professionals}
}

// ListForProfessional partitions eligible occurrences for one professional:
// those they are already confirmed on, and those still open with at least
// one unclaimed slot matching their role. Days the professional has marked
// unavailable are excluded from the available list only; confirmed
// commitments are always shown.
func (s *AgendaService) ListForProfessional(professionalID int64, role db.Role, asOf time.Time) (*entities.AgendaResponse, error) {
	if !role.Valid() {
		return nil, apperrors.Validation("unknown role %q", role)
	}

	eligible, err := s.Occurrences.ListEligible(asOf)
	if err != nil {
		return nil, err
	}
	unavailable, err := s.Professionals.UnavailableDates(professionalID, asOf)
	if err != nil {
		return nil, err
	}

	resp := &entities.AgendaResponse{
		Confirmed: []entities.AgendaItem{},
		Available: []entities.AgendaItem{},
	}
	for _, ows := range eligible {
		if holdsConfirmedSlot(ows.Slots, professionalID) {
			resp.Confirmed = append(resp.Confirmed, entities.AgendaItem{
				OccurrenceResponse: entities.NewOccurrenceResponse(ows.Occurrence, ows.Slots),
			})
			continue
		}
		if _, off := unavailable[ows.Occurrence.Date.Format("2006-01-02")]; off {
			continue
		}
		if ows.Occurrence.Status != db.StatusOpen {
			continue
		}
		open := countOpenForRole(ows.Slots, role)
		if open == 0 {
			continue
		}
		resp.Available = append(resp.Available, entities.AgendaItem{
			OccurrenceResponse: entities.NewOccurrenceResponse(ows.Occurrence, ows.Slots),
			OpenSlots:          open,
		})
	}
	return resp, nil
}

func holdsConfirmedSlot(slots []db.OccurrenceSlot, professionalID int64) bool {
	for _, s := range slots {
		if s.Confirmed && s.HolderID.Valid && s.HolderID.Int64 == professionalID {
			return true
		}
	}
	return false
}

func countOpenForRole(slots []db.OccurrenceSlot, role db.Role) int {
	count := 0
	for _, s := range slots {
		if s.Role == role && !s.HolderID.Valid && !s.Confirmed {
			count++
		}
	}
	return count
}

// SetUnavailable marks a day off for the professional.
func (s *AgendaService) SetUnavailable(professionalID int64, date string) error {
	d, err := parseDate(date)
	if err != nil {
		return err
	}
	return s.Professionals.SetUnavailable(professionalID, d)
}

// ClearUnavailable removes a day-off marker.
func (s *AgendaService) ClearUnavailable(professionalID int64, date string) error {
	d, err := parseDate(date)
	if err != nil {
		return err
	}
	return s.Professionals.ClearUnavailable(professionalID, d)
}

func parseDate(date string) (time.Time, error) {
	d, err := time.Parse("2006-01-02", date)
	if err != nil {
		return time.Time{}, apperrors.Validation("date must be YYYY-MM-DD, got %q", date)
	}
	return d, nil
}
