package service

import (
	"sync"
	"testing"
	"time"

	"ambudispatch/internal/db"
	"ambudispatch/internal/entities"
	apperrors "ambudispatch/internal/errors"
	"ambudispatch/internal/eventbus"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestParticipationService(store *fakeStore, bus eventbus.EventBus) *ParticipationService {
	svc := NewParticipationService(store, bus, zerolog.Nop())
	svc.Now = func() time.Time { return testNow }
	return svc
}

func createOpenOccurrence(t *testing.T, store *fakeStore, bus eventbus.EventBus) *entities.OccurrenceResponse {
	t.Helper()
	occSvc := newTestOccurrenceService(store, bus)
	resp, err := occSvc.CreateOccurrenceWithCrew(validRequest(), 42)
	require.NoError(t, err)
	return resp
}

func TestConfirmParticipation_ClaimsOpenSlot(t *testing.T) {
	store := newFakeStore()
	bus := eventbus.New()
	occ := createOpenOccurrence(t, store, bus)
	svc := newTestParticipationService(store, bus)

	slot, err := svc.ConfirmParticipation(occ.ID, 101, db.RoleNurse)
	require.NoError(t, err)
	require.NotNil(t, slot.HolderID)
	assert.Equal(t, int64(101), *slot.HolderID)
	assert.True(t, slot.Confirmed)
	require.NotNil(t, slot.ConfirmedAt)
	assert.Equal(t, testNow, *slot.ConfirmedAt)

	// The physician slot is still open, so the occurrence stays open.
	stored, err := store.GetOccurrence(occ.ID)
	require.NoError(t, err)
	assert.Equal(t, db.StatusOpen, stored.Status)
}

func TestConfirmParticipation_LastSlotPromotesOccurrence(t *testing.T) {
	store := newFakeStore()
	bus := eventbus.New()
	sub := bus.Subscribe()
	occ := createOpenOccurrence(t, store, bus)
	svc := newTestParticipationService(store, bus)

	_, err := svc.ConfirmParticipation(occ.ID, 101, db.RoleNurse)
	require.NoError(t, err)
	_, err = svc.ConfirmParticipation(occ.ID, 202, db.RolePhysician)
	require.NoError(t, err)

	stored, err := store.GetOccurrence(occ.ID)
	require.NoError(t, err)
	assert.Equal(t, db.StatusConfirmed, stored.Status)

	var sawConfirmed bool
	for i := 0; i < 3 && !sawConfirmed; i++ {
		ev := <-sub
		if confirmed, ok := ev.(eventbus.OccurrenceConfirmed); ok {
			assert.Equal(t, occ.ID, confirmed.OccurrenceID)
			sawConfirmed = true
		}
	}
	assert.True(t, sawConfirmed)
}

func TestConfirmParticipation_AlreadyConfirmedIsConflict(t *testing.T) {
	store := newFakeStore()
	bus := eventbus.New()
	occ := createOpenOccurrence(t, store, bus)
	svc := newTestParticipationService(store, bus)

	_, err := svc.ConfirmParticipation(occ.ID, 101, db.RoleNurse)
	require.NoError(t, err)

	_, err = svc.ConfirmParticipation(occ.ID, 101, db.RoleNurse)
	assert.True(t, apperrors.IsConflict(err))
}

func TestConfirmParticipation_NoMatchingSlotIsConflict(t *testing.T) {
	store := newFakeStore()
	bus := eventbus.New()
	occ := createOpenOccurrence(t, store, bus)
	svc := newTestParticipationService(store, bus)

	_, err := svc.ConfirmParticipation(occ.ID, 101, db.RoleNurse)
	require.NoError(t, err)

	// The only nurse slot is taken.
	_, err = svc.ConfirmParticipation(occ.ID, 102, db.RoleNurse)
	assert.True(t, apperrors.IsConflict(err))
}

func TestConfirmParticipation_PreAssignedSlotIsConfirmedInPlace(t *testing.T) {
	store := newFakeStore()
	bus := eventbus.New()
	svc := newTestParticipationService(store, bus)

	nurse := int64(101)
	occSvc := newTestOccurrenceService(store, bus)
	req := validRequest()
	req.Crew = []entities.RoleRequest{
		{Role: db.RolePhysician},
		{Role: db.RoleNurse, ProfessionalID: &nurse},
	}
	occ, err := occSvc.CreateOccurrenceWithCrew(req, 42)
	require.NoError(t, err)

	// Pre-assigned slots are created confirmed; reset the flag to model a
	// roster import that assigns without confirming.
	var nurseSlotID int64
	for _, slot := range occ.Slots {
		if slot.Role == db.RoleNurse {
			nurseSlotID = slot.ID
		}
	}
	store.mu.Lock()
	store.slots[nurseSlotID].Confirmed = false
	store.slots[nurseSlotID].ConfirmedAt.Valid = false
	store.mu.Unlock()

	slot, err := svc.ConfirmParticipation(occ.ID, nurse, db.RoleNurse)
	require.NoError(t, err)
	assert.Equal(t, nurseSlotID, slot.ID)
	assert.True(t, slot.Confirmed)
}

func TestConfirmParticipation_UnknownOccurrenceIsNotFound(t *testing.T) {
	store := newFakeStore()
	svc := newTestParticipationService(store, eventbus.New())

	_, err := svc.ConfirmParticipation(999, 101, db.RoleNurse)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestConfirmParticipation_UnknownRoleIsValidation(t *testing.T) {
	store := newFakeStore()
	svc := newTestParticipationService(store, eventbus.New())

	_, err := svc.ConfirmParticipation(1, 101, "driver")
	assert.True(t, apperrors.IsValidation(err))
}

func TestConfirmParticipation_ConcurrentClaimsSingleWinner(t *testing.T) {
	store := newFakeStore()
	bus := eventbus.New()
	svc := newTestParticipationService(store, bus)

	occSvc := newTestOccurrenceService(store, bus)
	req := validRequest()
	req.Crew = []entities.RoleRequest{{Role: db.RoleNurse}}
	occ, err := occSvc.CreateOccurrenceWithCrew(req, 42)
	require.NoError(t, err)

	const claimers = 8
	var wg sync.WaitGroup
	results := make(chan error, claimers)
	for i := 0; i < claimers; i++ {
		wg.Add(1)
		go func(professionalID int64) {
			defer wg.Done()
			_, err := svc.ConfirmParticipation(occ.ID, professionalID, db.RoleNurse)
			results <- err
		}(int64(100 + i))
	}
	wg.Wait()
	close(results)

	var wins, conflicts int
	for err := range results {
		if err == nil {
			wins++
		} else {
			require.True(t, apperrors.IsConflict(err))
			conflicts++
		}
	}
	assert.Equal(t, 1, wins)
	assert.Equal(t, claimers-1, conflicts)

	slots, err := store.ListSlots(occ.ID)
	require.NoError(t, err)
	confirmed := 0
	for _, s := range slots {
		if s.Confirmed {
			confirmed++
		}
	}
	assert.Equal(t, 1, confirmed)
}
