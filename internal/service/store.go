package service

import (
	"time"

	"ambudispatch/internal/db"
	"ambudispatch/internal/entities"
)

// OccurrenceStore is the persistence surface the dispatch services depend
// on. Implemented by repository.OccurrenceRepository.
type OccurrenceStore interface {
	CreateOccurrenceWithSlots(occ *db.Occurrence, specs []entities.SlotSpec, now time.Time) ([]db.OccurrenceSlot, error)
	GetOccurrence(id int64) (*db.Occurrence, error)
	ListSlots(occurrenceID int64) ([]db.OccurrenceSlot, error)
	GetSlot(slotID int64) (*db.OccurrenceSlot, error)
	SlotForProfessional(occurrenceID, professionalID int64) (*db.OccurrenceSlot, error)
	OpenSlots(occurrenceID int64, role db.Role) ([]db.OccurrenceSlot, error)
	ClaimSlot(slotID, professionalID int64, now time.Time) (bool, error)
	ConfirmPreAssignedSlot(slotID int64, now time.Time) (bool, error)
	UpdateStatus(occurrenceID int64, from, to db.Status, now time.Time) (bool, error)
	MarkInProgress(occurrenceID, vehicleID, driverID int64, now time.Time) (bool, error)
	MarkCompleted(occurrenceID int64, now time.Time) (bool, error)
	ListEligible(asOf time.Time) ([]entities.OccurrenceWithSlots, error)
	MarkSlotPaid(slotID int64, transferID string, now time.Time) (bool, error)
}

// ProfessionalStore is the read surface over professionals and their
// day-off calendars. Implemented by repository.ProfessionalRepository.
type ProfessionalStore interface {
	GetByEmail(email string) (*db.Professional, error)
	GetByID(id int64) (*db.Professional, error)
	ListByIDs(ids []int64) ([]db.Professional, error)
	UnavailableDates(professionalID int64, asOf time.Time) (map[string]struct{}, error)
	SetUnavailable(professionalID int64, date time.Time) error
	ClearUnavailable(professionalID int64, date time.Time) error
}

// VehicleStore resolves vehicles for dispatch validation. Implemented by
// repository.VehicleRepository.
type VehicleStore interface {
	GetVehicle(id int64) (*db.Vehicle, error)
}
