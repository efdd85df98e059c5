package service

import (
	"time"

	"ambudispatch/internal/db"
	"ambudispatch/internal/entities"
	apperrors "ambudispatch/internal/errors"
	"ambudispatch/internal/eventbus"
	"ambudispatch/internal/metrics"

	"github.com/rs/zerolog"
)

type ParticipationService struct {
	Repo OccurrenceStore
	Bus  eventbus.EventBus
	Log  zerolog.Logger
	Now  func() time.Time
}

func NewParticipationService(repo OccurrenceStore, bus eventbus.EventBus, log zerolog.Logger) *ParticipationService {
	return &ParticipationService{Repo: repo, Bus: bus, Log: log, Now: time.Now}
}

// ConfirmParticipation assigns the professional to exactly one open slot on
// the occurrence, or confirms their pre-assigned slot. The claim itself is a
// conditional write on the slot row, so two professionals racing for the
// same slot cannot both win: the loser gets one retry against a different
// candidate row, then a conflict.
func (s *ParticipationService) ConfirmParticipation(occurrenceID, professionalID int64, role db.Role) (*entities.SlotResponse, error) {
	if !role.Valid() {
		return nil, apperrors.Validation("unknown role %q", role)
	}

	occ, err := s.Repo.GetOccurrence(occurrenceID)
	if err != nil {
		return nil, err
	}
	now := s.Now()

	slot, err := s.claim(occ, professionalID, role, now)
	if err != nil {
		return nil, err
	}
	metrics.ClaimsWon.Inc()
	s.Bus.Publish(eventbus.SlotClaimed{
		OccurrenceID:   occurrenceID,
		SlotID:         slot.ID,
		ProfessionalID: professionalID,
		Role:           slot.Role,
		ConfirmedAt:    now,
	})
	s.Log.Info().
		Str("number", occ.Number).
		Int64("slot_id", slot.ID).
		Int64("professional_id", professionalID).
		Msg("slot confirmed")

	if err := s.promoteIfFull(occ, now); err != nil {
		return nil, err
	}

	resp := entities.NewSlotResponse(*slot)
	return &resp, nil
}

func (s *ParticipationService) claim(occ *db.Occurrence, professionalID int64, role db.Role, now time.Time) (*db.OccurrenceSlot, error) {
	// A professional already holding a slot never claims a second one:
	// either they are confirmed (conflict) or they were pre-assigned and
	// this call confirms that exact row.
	existing, err := s.Repo.SlotForProfessional(occ.ID, professionalID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		if existing.Confirmed {
			metrics.ClaimConflicts.Inc()
			return nil, apperrors.Conflict("professional %d is already confirmed on occurrence %s", professionalID, occ.Number)
		}
		ok, err := s.Repo.ConfirmPreAssignedSlot(existing.ID, now)
		if err != nil {
			return nil, err
		}
		if !ok {
			metrics.ClaimConflicts.Inc()
			return nil, apperrors.Conflict("professional %d is already confirmed on occurrence %s", professionalID, occ.Number)
		}
		existing.Confirmed = true
		existing.ConfirmedAt.Time = now
		existing.ConfirmedAt.Valid = true
		return existing, nil
	}

	candidates, err := s.Repo.OpenSlots(occ.ID, role)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		metrics.ClaimConflicts.Inc()
		return nil, apperrors.Conflict("no %s slot available on occurrence %s", role, occ.Number)
	}

	// One retry against a different row when the first candidate is lost
	// to a concurrent claimer.
	for attempt, candidate := range candidates {
		if attempt > 1 {
			break
		}
		won, err := s.Repo.ClaimSlot(candidate.ID, professionalID, now)
		if err != nil {
			return nil, err
		}
		if won {
			candidate.HolderID.Int64 = professionalID
			candidate.HolderID.Valid = true
			candidate.Confirmed = true
			candidate.ConfirmedAt.Time = now
			candidate.ConfirmedAt.Valid = true
			return &candidate, nil
		}
	}
	metrics.ClaimConflicts.Inc()
	return nil, apperrors.Conflict("all %s slots on occurrence %s were claimed concurrently", role, occ.Number)
}

// promoteIfFull re-reads the slots and moves the occurrence from open to
// confirmed once every slot is confirmed.
func (s *ParticipationService) promoteIfFull(occ *db.Occurrence, now time.Time) error {
	slots, err := s.Repo.ListSlots(occ.ID)
	if err != nil {
		return err
	}
	if !allConfirmed(slots) {
		return nil
	}
	ok, err := s.Repo.UpdateStatus(occ.ID, db.StatusOpen, db.StatusConfirmed, now)
	if err != nil {
		return err
	}
	if ok {
		metrics.StatusTransitions.WithLabelValues(string(db.StatusConfirmed)).Inc()
		s.Bus.Publish(eventbus.OccurrenceConfirmed{OccurrenceID: occ.ID, Number: occ.Number})
		s.Log.Info().Str("number", occ.Number).Msg("occurrence fully staffed, promoted to confirmed")
	}
	return nil
}
