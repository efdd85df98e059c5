package service

import (
	"database/sql"
	"sort"
	"sync"
	"time"

	"ambudispatch/internal/db"
	"ambudispatch/internal/entities"
	apperrors "ambudispatch/internal/errors"
	"ambudispatch/internal/utils"
)

// fakeStore is an in-memory OccurrenceStore/ProfessionalStore/VehicleStore.
// All mutating operations take the mutex, so the conditional writes behave
// like the real store's compare-and-set under concurrent callers.
type fakeStore struct {
	mu            sync.Mutex
	occurrences   map[int64]*db.Occurrence
	slots         map[int64]*db.OccurrenceSlot
	professionals map[int64]*db.Professional
	vehicles      map[int64]*db.Vehicle
	unavailable   map[int64]map[string]struct{}
	nextOccID     int64
	nextSlotID    int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		occurrences:   map[int64]*db.Occurrence{},
		slots:         map[int64]*db.OccurrenceSlot{},
		professionals: map[int64]*db.Professional{},
		vehicles:      map[int64]*db.Vehicle{},
		unavailable:   map[int64]map[string]struct{}{},
	}
}

func (f *fakeStore) CreateOccurrenceWithSlots(occ *db.Occurrence, specs []entities.SlotSpec, now time.Time) ([]db.OccurrenceSlot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	prefix := utils.OccurrenceNumberPrefix(now)
	latest := ""
	for _, existing := range f.occurrences {
		if len(existing.Number) >= len(prefix) && existing.Number[:len(prefix)] == prefix && existing.Number > latest {
			latest = existing.Number
		}
	}
	number, err := utils.NextOccurrenceNumber(prefix, latest)
	if err != nil {
		return nil, err
	}

	f.nextOccID++
	occ.ID = f.nextOccID
	occ.Number = number
	occ.CreatedAt = now
	occ.UpdatedAt = now
	stored := *occ
	f.occurrences[occ.ID] = &stored

	var created []db.OccurrenceSlot
	for _, spec := range specs {
		f.nextSlotID++
		slot := db.OccurrenceSlot{
			ID:           f.nextSlotID,
			OccurrenceID: occ.ID,
			Role:         spec.Role,
			PaymentCents: spec.PaymentCents,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if spec.HolderID != nil {
			slot.HolderID = sql.NullInt64{Int64: *spec.HolderID, Valid: true}
			slot.Confirmed = true
			slot.ConfirmedAt = sql.NullTime{Time: now, Valid: true}
		}
		storedSlot := slot
		f.slots[slot.ID] = &storedSlot
		created = append(created, slot)
	}
	return created, nil
}

func (f *fakeStore) GetOccurrence(id int64) (*db.Occurrence, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	occ, ok := f.occurrences[id]
	if !ok {
		return nil, apperrors.NotFound("occurrence %d not found", id)
	}
	copy := *occ
	return &copy, nil
}

func (f *fakeStore) ListSlots(occurrenceID int64) ([]db.OccurrenceSlot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.slotsLocked(occurrenceID), nil
}

func (f *fakeStore) slotsLocked(occurrenceID int64) []db.OccurrenceSlot {
	var slots []db.OccurrenceSlot
	for _, s := range f.slots {
		if s.OccurrenceID == occurrenceID {
			slots = append(slots, *s)
		}
	}
	sort.Slice(slots, func(i, j int) bool { return slots[i].ID < slots[j].ID })
	return slots
}

func (f *fakeStore) GetSlot(slotID int64) (*db.OccurrenceSlot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.slots[slotID]
	if !ok {
		return nil, apperrors.NotFound("slot %d not found", slotID)
	}
	copy := *s
	return &copy, nil
}

func (f *fakeStore) SlotForProfessional(occurrenceID, professionalID int64) (*db.OccurrenceSlot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.slots {
		if s.OccurrenceID == occurrenceID && s.HolderID.Valid && s.HolderID.Int64 == professionalID {
			copy := *s
			return &copy, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) OpenSlots(occurrenceID int64, role db.Role) ([]db.OccurrenceSlot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var slots []db.OccurrenceSlot
	for _, s := range f.slots {
		if s.OccurrenceID == occurrenceID && s.Role == role && !s.HolderID.Valid && !s.Confirmed {
			slots = append(slots, *s)
		}
	}
	sort.Slice(slots, func(i, j int) bool { return slots[i].ID < slots[j].ID })
	return slots, nil
}

func (f *fakeStore) ClaimSlot(slotID, professionalID int64, now time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.slots[slotID]
	if !ok || s.HolderID.Valid || s.Confirmed {
		return false, nil
	}
	s.HolderID = sql.NullInt64{Int64: professionalID, Valid: true}
	s.Confirmed = true
	s.ConfirmedAt = sql.NullTime{Time: now, Valid: true}
	s.UpdatedAt = now
	return true, nil
}

func (f *fakeStore) ConfirmPreAssignedSlot(slotID int64, now time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.slots[slotID]
	if !ok || s.Confirmed {
		return false, nil
	}
	s.Confirmed = true
	s.ConfirmedAt = sql.NullTime{Time: now, Valid: true}
	s.UpdatedAt = now
	return true, nil
}

func (f *fakeStore) UpdateStatus(occurrenceID int64, from, to db.Status, now time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	occ, ok := f.occurrences[occurrenceID]
	if !ok || occ.Status != from {
		return false, nil
	}
	occ.Status = to
	occ.UpdatedAt = now
	return true, nil
}

func (f *fakeStore) MarkInProgress(occurrenceID, vehicleID, driverID int64, now time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	occ, ok := f.occurrences[occurrenceID]
	if !ok || occ.Status != db.StatusConfirmed {
		return false, nil
	}
	occ.Status = db.StatusInProgress
	occ.VehicleID = sql.NullInt64{Int64: vehicleID, Valid: true}
	occ.DriverID = sql.NullInt64{Int64: driverID, Valid: true}
	occ.StartedAt = sql.NullTime{Time: now, Valid: true}
	occ.UpdatedAt = now
	return true, nil
}

func (f *fakeStore) MarkCompleted(occurrenceID int64, now time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	occ, ok := f.occurrences[occurrenceID]
	if !ok || occ.Status != db.StatusInProgress {
		return false, nil
	}
	occ.Status = db.StatusCompleted
	occ.CompletedAt = sql.NullTime{Time: now, Valid: true}
	occ.UpdatedAt = now
	return true, nil
}

func (f *fakeStore) ListEligible(asOf time.Time) ([]entities.OccurrenceWithSlots, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []entities.OccurrenceWithSlots
	for _, occ := range f.occurrences {
		if occ.Status != db.StatusOpen && occ.Status != db.StatusConfirmed {
			continue
		}
		if occ.Date.Before(asOf) {
			continue
		}
		result = append(result, entities.OccurrenceWithSlots{
			Occurrence: *occ,
			Slots:      f.slotsLocked(occ.ID),
		})
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].Occurrence.Date.Equal(result[j].Occurrence.Date) {
			return result[i].Occurrence.Date.Before(result[j].Occurrence.Date)
		}
		return result[i].Occurrence.DepartureTime < result[j].Occurrence.DepartureTime
	})
	return result, nil
}

func (f *fakeStore) MarkSlotPaid(slotID int64, transferID string, now time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.slots[slotID]
	if !ok || s.Paid {
		return false, nil
	}
	s.Paid = true
	s.PaymentDate = sql.NullTime{Time: now, Valid: true}
	s.TransferID = sql.NullString{String: transferID, Valid: true}
	s.UpdatedAt = now
	return true, nil
}

func (f *fakeStore) GetByEmail(email string) (*db.Professional, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.professionals {
		if p.Email == email {
			copy := *p
			return &copy, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) GetByID(id int64) (*db.Professional, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.professionals[id]
	if !ok {
		return nil, apperrors.NotFound("professional %d not found", id)
	}
	copy := *p
	return &copy, nil
}

func (f *fakeStore) ListByIDs(ids []int64) ([]db.Professional, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []db.Professional
	for _, id := range ids {
		if p, ok := f.professionals[id]; ok {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (f *fakeStore) UnavailableDates(professionalID int64, asOf time.Time) (map[string]struct{}, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := map[string]struct{}{}
	for date := range f.unavailable[professionalID] {
		out[date] = struct{}{}
	}
	return out, nil
}

func (f *fakeStore) SetUnavailable(professionalID int64, date time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.unavailable[professionalID] == nil {
		f.unavailable[professionalID] = map[string]struct{}{}
	}
	f.unavailable[professionalID][date.Format("2006-01-02")] = struct{}{}
	return nil
}

func (f *fakeStore) ClearUnavailable(professionalID int64, date time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.unavailable[professionalID], date.Format("2006-01-02"))
	return nil
}

func (f *fakeStore) GetVehicle(id int64) (*db.Vehicle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.vehicles[id]
	if !ok {
		return nil, apperrors.NotFound("vehicle %d not found", id)
	}
	copy := *v
	return &copy, nil
}
