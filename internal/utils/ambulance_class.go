package utils

import "ambudispatch/internal/db"

// VehicleServesClass reports whether a vehicle of the given class can be
// dispatched for an occurrence of the required class. An advanced vehicle
// covers basic occurrences, a basic one cannot cover advanced.
func VehicleServesClass(vehicleClass, required db.AmbulanceClass) bool {
	if vehicleClass == db.AmbulanceClassAdvanced {
		return true
	}
	return required == db.AmbulanceClassBasic
}
