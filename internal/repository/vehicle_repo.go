package repository

import (
	"database/sql"
	"errors"

	"ambudispatch/internal/db"
	apperrors "ambudispatch/internal/errors"
)

type VehicleRepository struct {
	DB *sql.DB
}

func NewVehicleRepository(database *sql.DB) *VehicleRepository {
	return &VehicleRepository{DB: database}
}

func (r *VehicleRepository) GetVehicle(id int64) (*db.Vehicle, error) {
	var v db.Vehicle
	err := r.DB.QueryRow(`SELECT id, plate, class FROM vehicles WHERE id = $1`, id).
		Scan(&v.ID, &v.Plate, &v.Class)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFound("vehicle %d not found", id)
		}
		return nil, apperrors.Transient("query vehicle", err)
	}
	return &v, nil
}

func (r *VehicleRepository) ListVehicles() ([]db.Vehicle, error) {
	rows, err := r.DB.Query(`SELECT id, plate, class FROM vehicles ORDER BY plate`)
	if err != nil {
		return nil, apperrors.Transient("query vehicles", err)
	}
	defer rows.Close()

	var vehicles []db.Vehicle
	for rows.Next() {
		var v db.Vehicle
		if err := rows.Scan(&v.ID, &v.Plate, &v.Class); err != nil {
			return nil, apperrors.Transient("scan vehicle", err)
		}
		vehicles = append(vehicles, v)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Transient("iterate vehicles", err)
	}
	return vehicles, nil
}
