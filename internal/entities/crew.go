package entities

import "ambudispatch/internal/db"

// RoleRequest is one requested crew member: either an open slot for a role or
// a slot pre-assigned to a specific professional acting in that role.
type RoleRequest struct {
	Role           db.Role `json:"role"`
	ProfessionalID *int64  `json:"professional_id,omitempty"`
}

// CrewRates carries the per-role payment amounts the caller quotes for this
// occurrence. Physician rate applies only to physician slots, nurse rate to
// nurse slots.
type CrewRates struct {
	PhysicianCents int `json:"physician_cents"`
	NurseCents     int `json:"nurse_cents"`
}

// SlotSpec describes one slot row to provision.
type SlotSpec struct {
	Role         db.Role
	HolderID     *int64
	PaymentCents int
}
