package eventbus

import (
	"time"

	"ambudispatch/internal/db"
)

// SlotClaimed is published when a professional wins or confirms a slot.
type SlotClaimed struct {
	OccurrenceID   int64
	SlotID         int64
	ProfessionalID int64
	Role           db.Role
	ConfirmedAt    time.Time
}

// OccurrenceConfirmed is published when the last open slot of an occurrence
// is confirmed and the occurrence is promoted from open to confirmed.
type OccurrenceConfirmed struct {
	OccurrenceID int64
	Number       string
}

// OccurrenceStatusChanged is published on every externally triggered status
// transition (dispatch, completion).
type OccurrenceStatusChanged struct {
	OccurrenceID int64
	Number       string
	From         db.Status
	To           db.Status
	At           time.Time
}
