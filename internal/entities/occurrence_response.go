package entities

import (
	"time"

	"ambudispatch/internal/db"
)

// OccurrenceWithSlots is the read model the repository returns for the
// availability and detail paths: one occurrence plus all of its slots.
type OccurrenceWithSlots struct {
	Occurrence db.Occurrence
	Slots      []db.OccurrenceSlot
}

type SlotResponse struct {
	ID           int64      `json:"id"`
	OccurrenceID int64      `json:"occurrence_id"`
	Role         db.Role    `json:"role"`
	HolderID     *int64     `json:"holder_id,omitempty"`
	Confirmed    bool       `json:"confirmed"`
	ConfirmedAt  *time.Time `json:"confirmed_at,omitempty"`
	PaymentCents int        `json:"payment_cents"`
	PaymentDate  *time.Time `json:"payment_date,omitempty"`
	Paid         bool       `json:"paid"`
}

type OccurrenceResponse struct {
	ID             int64             `json:"id"`
	Number         string            `json:"number"`
	Kind           db.WorkKind       `json:"kind"`
	AmbulanceClass db.AmbulanceClass `json:"ambulance_class"`
	Status         db.Status         `json:"status"`
	Date           string            `json:"date"`
	DepartureTime  string            `json:"departure_time"`
	ArrivalTime    string            `json:"arrival_time,omitempty"`
	EndTime        string            `json:"end_time,omitempty"`
	Location       string            `json:"location"`
	Destination    string            `json:"destination,omitempty"`
	VehicleID      *int64            `json:"vehicle_id,omitempty"`
	DriverID       *int64            `json:"driver_id,omitempty"`
	StartedAt      *time.Time        `json:"started_at,omitempty"`
	CompletedAt    *time.Time        `json:"completed_at,omitempty"`
	Slots          []SlotResponse    `json:"slots,omitempty"`
}

// NewSlotResponse converts a slot row into its API shape.
func NewSlotResponse(s db.OccurrenceSlot) SlotResponse {
	resp := SlotResponse{
		ID:           s.ID,
		OccurrenceID: s.OccurrenceID,
		Role:         s.Role,
		Confirmed:    s.Confirmed,
		PaymentCents: s.PaymentCents,
		Paid:         s.Paid,
	}
	if s.HolderID.Valid {
		id := s.HolderID.Int64
		resp.HolderID = &id
	}
	if s.ConfirmedAt.Valid {
		t := s.ConfirmedAt.Time
		resp.ConfirmedAt = &t
	}
	if s.PaymentDate.Valid {
		t := s.PaymentDate.Time
		resp.PaymentDate = &t
	}
	return resp
}

// NewOccurrenceResponse converts an occurrence row and its slots into the
// API shape.
func NewOccurrenceResponse(occ db.Occurrence, slots []db.OccurrenceSlot) OccurrenceResponse {
	resp := OccurrenceResponse{
		ID:             occ.ID,
		Number:         occ.Number,
		Kind:           occ.Kind,
		AmbulanceClass: occ.AmbulanceClass,
		Status:         occ.Status,
		Date:           occ.Date.Format("2006-01-02"),
		DepartureTime:  occ.DepartureTime,
		ArrivalTime:    occ.ArrivalTime.String,
		EndTime:        occ.EndTime.String,
		Location:       occ.Location,
		Destination:    occ.Destination.String,
	}
	if occ.VehicleID.Valid {
		id := occ.VehicleID.Int64
		resp.VehicleID = &id
	}
	if occ.DriverID.Valid {
		id := occ.DriverID.Int64
		resp.DriverID = &id
	}
	if occ.StartedAt.Valid {
		t := occ.StartedAt.Time
		resp.StartedAt = &t
	}
	if occ.CompletedAt.Valid {
		t := occ.CompletedAt.Time
		resp.CompletedAt = &t
	}
	for _, s := range slots {
		resp.Slots = append(resp.Slots, NewSlotResponse(s))
	}
	return resp
}
