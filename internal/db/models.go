package db

import (
	"database/sql"
	"time"
)

// WorkKind classifies what an occurrence is dispatched for.
type WorkKind string

const (
	WorkKindEvent       WorkKind = "event"
	WorkKindDomiciliary WorkKind = "domiciliary"
	WorkKindEmergency   WorkKind = "emergency"
	WorkKindTransfer    WorkKind = "transfer"
)

func (k WorkKind) Valid() bool {
	switch k {
	case WorkKindEvent, WorkKindDomiciliary, WorkKindEmergency, WorkKindTransfer:
		return true
	}
	return false
}

// AmbulanceClass is derived from crew composition: a crew with at least one
// physician requires the advanced class, otherwise basic is enough.
type AmbulanceClass string

const (
	AmbulanceClassBasic    AmbulanceClass = "basic"
	AmbulanceClassAdvanced AmbulanceClass = "advanced"
)

// Role is a crew role on an occurrence slot.
type Role string

const (
	RolePhysician Role = "physician"
	RoleNurse     Role = "nurse"
)

func (r Role) Valid() bool {
	return r == RolePhysician || r == RoleNurse
}

// Status is the occurrence lifecycle state. Transitions only move forward:
// open -> confirmed -> in_progress -> completed.
type Status string

const (
	StatusOpen       Status = "open"
	StatusConfirmed  Status = "confirmed"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
)

type Occurrence struct {
	ID             int64
	Number         string
	Kind           WorkKind
	AmbulanceClass AmbulanceClass
	Status         Status
	Date           time.Time
	DepartureTime  string
	ArrivalTime    sql.NullString
	EndTime        sql.NullString
	Location       string
	Destination    sql.NullString
	VehicleID      sql.NullInt64
	DriverID       sql.NullInt64
	CreatedBy      int64
	StartedAt      sql.NullTime
	CompletedAt    sql.NullTime
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type OccurrenceSlot struct {
	ID           int64
	OccurrenceID int64
	Role         Role
	HolderID     sql.NullInt64
	Confirmed    bool
	ConfirmedAt  sql.NullTime
	PaymentCents int
	PaymentDate  sql.NullTime
	Paid         bool
	TransferID   sql.NullString
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type Professional struct {
	ID              int64
	Name            string
	Email           string
	Phone           string
	Role            Role
	Active          bool
	PasswordHash    string
	StripeAccountID sql.NullString
}

type AvailabilityEntry struct {
	ID             int64
	ProfessionalID int64
	Date           time.Time
	Unavailable    bool
}

type Vehicle struct {
	ID    int64
	Plate string
	Class AmbulanceClass
}
