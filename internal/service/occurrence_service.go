package service

import (
	"database/sql"
	"time"

	"ambudispatch/internal/db"
	"ambudispatch/internal/entities"
	apperrors "ambudispatch/internal/errors"
	"ambudispatch/internal/eventbus"
	"ambudispatch/internal/metrics"
	"ambudispatch/internal/utils"

	"github.com/rs/zerolog"
)

type OccurrenceService struct {
	Repo     OccurrenceStore
	Vehicles VehicleStore
	Bus      eventbus.EventBus
	Log      zerolog.Logger
	Now      func() time.Time
}

func NewOccurrenceService(repo OccurrenceStore, vehicles VehicleStore, bus eventbus.EventBus, log zerolog.Logger) *OccurrenceService {
	return &OccurrenceService{
		Repo:     repo,
		Vehicles: vehicles,
		Bus:      bus,
		Log:      log,
		Now:      time.Now,
	}
}

// ComposeCrew derives the ambulance class from the role requests and builds
// one slot spec per eventual slot row. The class is never chosen by the
// caller: any physician in the crew forces the advanced class. A caller that
// does send a class must agree with the derivation.
func ComposeCrew(req *entities.OccurrenceRequest) (db.AmbulanceClass, []entities.SlotSpec, error) {
	if !req.Kind.Valid() {
		return "", nil, apperrors.Validation("unknown work kind %q", req.Kind)
	}
	if len(req.Crew) == 0 {
		return "", nil, apperrors.Validation("an occurrence must have at least one crew member")
	}
	if req.ExtraNurses < 0 {
		return "", nil, apperrors.Validation("extra_nurses must not be negative")
	}
	if req.Location == "" {
		return "", nil, apperrors.Validation("location is required")
	}
	if req.DepartureTime == "" {
		return "", nil, apperrors.Validation("departure_time is required")
	}
	switch req.Kind {
	case db.WorkKindEvent:
		if req.EndTime == "" {
			return "", nil, apperrors.Validation("end_time is required for event occurrences")
		}
	case db.WorkKindTransfer:
		if req.EndTime == "" {
			return "", nil, apperrors.Validation("end_time is required for transfer occurrences")
		}
		if req.Destination == "" {
			return "", nil, apperrors.Validation("destination is required for transfer occurrences")
		}
	}

	class := db.AmbulanceClassBasic
	specs := make([]entities.SlotSpec, 0, len(req.Crew)+req.ExtraNurses)
	for i, member := range req.Crew {
		if !member.Role.Valid() {
			return "", nil, apperrors.Validation("crew member %d has unknown role %q", i, member.Role)
		}
		if member.ProfessionalID != nil && *member.ProfessionalID <= 0 {
			return "", nil, apperrors.Validation("crew member %d has invalid professional id", i)
		}
		if member.Role == db.RolePhysician {
			class = db.AmbulanceClassAdvanced
		}
		specs = append(specs, entities.SlotSpec{
			Role:         member.Role,
			HolderID:     member.ProfessionalID,
			PaymentCents: rateFor(member.Role, req.Rates),
		})
	}
	for i := 0; i < req.ExtraNurses; i++ {
		specs = append(specs, entities.SlotSpec{
			Role:         db.RoleNurse,
			PaymentCents: req.Rates.NurseCents,
		})
	}

	if req.AmbulanceClass != "" && req.AmbulanceClass != class {
		return "", nil, apperrors.Validation(
			"ambulance class %q does not match class %q derived from crew", req.AmbulanceClass, class)
	}
	return class, specs, nil
}

func rateFor(role db.Role, rates entities.CrewRates) int {
	if role == db.RolePhysician {
		return rates.PhysicianCents
	}
	return rates.NurseCents
}

// CreateOccurrenceWithCrew provisions a new occurrence together with all its
// slots. Pre-assigned slots are created confirmed; if that leaves no open
// slot the occurrence is promoted to confirmed immediately.
func (s *OccurrenceService) CreateOccurrenceWithCrew(req *entities.OccurrenceRequest, createdBy int64) (*entities.OccurrenceResponse, error) {
	class, specs, err := ComposeCrew(req)
	if err != nil {
		return nil, err
	}
	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		return nil, apperrors.Validation("date must be YYYY-MM-DD, got %q", req.Date)
	}

	now := s.Now()
	occ := &db.Occurrence{
		Kind:           req.Kind,
		AmbulanceClass: class,
		Status:         db.StatusOpen,
		Date:           date,
		DepartureTime:  req.DepartureTime,
		ArrivalTime:    nullString(req.ArrivalTime),
		EndTime:        nullString(req.EndTime),
		Location:       req.Location,
		Destination:    nullString(req.Destination),
		CreatedBy:      createdBy,
	}
	slots, err := s.Repo.CreateOccurrenceWithSlots(occ, specs, now)
	if err != nil {
		return nil, err
	}
	metrics.OccurrencesCreated.WithLabelValues(string(occ.Kind)).Inc()
	s.Log.Info().
		Str("number", occ.Number).
		Str("kind", string(occ.Kind)).
		Int("slots", len(slots)).
		Msg("occurrence created")

	if allConfirmed(slots) {
		if err := s.promote(occ, now); err != nil {
			return nil, err
		}
	}

	resp := entities.NewOccurrenceResponse(*occ, slots)
	return &resp, nil
}

func (s *OccurrenceService) GetOccurrence(id int64) (*entities.OccurrenceResponse, error) {
	occ, err := s.Repo.GetOccurrence(id)
	if err != nil {
		return nil, err
	}
	slots, err := s.Repo.ListSlots(id)
	if err != nil {
		return nil, err
	}
	resp := entities.NewOccurrenceResponse(*occ, slots)
	return &resp, nil
}

// TransitionStatus applies an externally triggered transition. The switch is
// exhaustive over the closed status set: only dispatch (-> in_progress) and
// completion (-> completed) may be requested from outside; open and
// confirmed are reached automatically.
func (s *OccurrenceService) TransitionStatus(id int64, target db.Status, payload *entities.DispatchRequest) (*entities.OccurrenceResponse, error) {
	switch target {
	case db.StatusInProgress:
		return s.dispatch(id, payload)
	case db.StatusCompleted:
		return s.complete(id)
	case db.StatusOpen, db.StatusConfirmed:
		return nil, apperrors.Validation("status %q cannot be requested externally", target)
	default:
		return nil, apperrors.Validation("unknown status %q", target)
	}
}

func (s *OccurrenceService) dispatch(id int64, payload *entities.DispatchRequest) (*entities.OccurrenceResponse, error) {
	if payload == nil || payload.VehicleID <= 0 || payload.DriverID <= 0 {
		return nil, apperrors.Validation("dispatch requires vehicle_id and driver_id")
	}
	occ, err := s.Repo.GetOccurrence(id)
	if err != nil {
		return nil, err
	}
	if occ.Status != db.StatusConfirmed {
		return nil, apperrors.Validation("cannot dispatch occurrence %s in status %q", occ.Number, occ.Status)
	}
	vehicle, err := s.Vehicles.GetVehicle(payload.VehicleID)
	if err != nil {
		return nil, err
	}
	if !utils.VehicleServesClass(vehicle.Class, occ.AmbulanceClass) {
		return nil, apperrors.Validation(
			"vehicle %s is class %q, occurrence %s requires %q", vehicle.Plate, vehicle.Class, occ.Number, occ.AmbulanceClass)
	}

	now := s.Now()
	ok, err := s.Repo.MarkInProgress(id, payload.VehicleID, payload.DriverID, now)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperrors.Conflict("occurrence %s changed status concurrently", occ.Number)
	}
	return s.finishTransition(id, occ.Status, db.StatusInProgress, now)
}

func (s *OccurrenceService) complete(id int64) (*entities.OccurrenceResponse, error) {
	occ, err := s.Repo.GetOccurrence(id)
	if err != nil {
		return nil, err
	}
	if occ.Status != db.StatusInProgress {
		return nil, apperrors.Validation("cannot complete occurrence %s in status %q", occ.Number, occ.Status)
	}

	now := s.Now()
	ok, err := s.Repo.MarkCompleted(id, now)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperrors.Conflict("occurrence %s changed status concurrently", occ.Number)
	}
	if occ.StartedAt.Valid {
		s.Log.Info().
			Str("number", occ.Number).
			Dur("elapsed", now.Sub(occ.StartedAt.Time)).
			Msg("occurrence completed")
	}
	return s.finishTransition(id, occ.Status, db.StatusCompleted, now)
}

func (s *OccurrenceService) finishTransition(id int64, from, to db.Status, now time.Time) (*entities.OccurrenceResponse, error) {
	metrics.StatusTransitions.WithLabelValues(string(to)).Inc()
	occ, err := s.Repo.GetOccurrence(id)
	if err != nil {
		return nil, err
	}
	slots, err := s.Repo.ListSlots(id)
	if err != nil {
		return nil, err
	}
	s.Bus.Publish(eventbus.OccurrenceStatusChanged{
		OccurrenceID: id,
		Number:       occ.Number,
		From:         from,
		To:           to,
		At:           now,
	})
	resp := entities.NewOccurrenceResponse(*occ, slots)
	return &resp, nil
}

// promote moves a fully pre-assigned occurrence straight to confirmed.
func (s *OccurrenceService) promote(occ *db.Occurrence, now time.Time) error {
	ok, err := s.Repo.UpdateStatus(occ.ID, db.StatusOpen, db.StatusConfirmed, now)
	if err != nil {
		return err
	}
	if ok {
		occ.Status = db.StatusConfirmed
		metrics.StatusTransitions.WithLabelValues(string(db.StatusConfirmed)).Inc()
		s.Bus.Publish(eventbus.OccurrenceConfirmed{OccurrenceID: occ.ID, Number: occ.Number})
	}
	return nil
}

func allConfirmed(slots []db.OccurrenceSlot) bool {
	for _, s := range slots {
		if !s.Confirmed {
			return false
		}
	}
	return len(slots) > 0
}

func nullString(s string) (out sql.NullString) {
	if s != "" {
		out.String = s
		out.Valid = true
	}
	return out
}
