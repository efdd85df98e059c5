package api

import "ambudispatch/internal/db"

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token string `json:"token"`
}

// ConfirmParticipationRequest optionally overrides the role to claim; when
// empty the authenticated professional's own role is used.
type ConfirmParticipationRequest struct {
	Role db.Role `json:"role,omitempty"`
}

type TransitionRequest struct {
	VehicleID int64 `json:"vehicle_id,omitempty"`
	DriverID  int64 `json:"driver_id,omitempty"`
}

type UnavailabilityRequest struct {
	Date string `json:"date"`
}
