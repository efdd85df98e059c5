package entities

import "ambudispatch/internal/db"

// OccurrenceRequest is the dispatch-creation payload. Date is "2006-01-02",
// times are "15:04". AmbulanceClass is optional; when present it must match
// the class derived from the crew or the request is rejected.
type OccurrenceRequest struct {
	Kind           db.WorkKind       `json:"kind"`
	AmbulanceClass db.AmbulanceClass `json:"ambulance_class,omitempty"`
	Date           string            `json:"date"`
	DepartureTime  string            `json:"departure_time"`
	ArrivalTime    string            `json:"arrival_time,omitempty"`
	EndTime        string            `json:"end_time,omitempty"`
	Location       string            `json:"location"`
	Destination    string            `json:"destination,omitempty"`
	Crew           []RoleRequest     `json:"crew"`
	ExtraNurses    int               `json:"extra_nurses"`
	Rates          CrewRates         `json:"rates"`
}

// DispatchRequest carries the external dispatch event that moves a confirmed
// occurrence to in_progress.
type DispatchRequest struct {
	VehicleID int64 `json:"vehicle_id"`
	DriverID  int64 `json:"driver_id"`
}
