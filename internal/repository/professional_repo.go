package repository

import (
	"database/sql"
	"errors"
	"time"

	"ambudispatch/internal/db"
	apperrors "ambudispatch/internal/errors"

	"github.com/lib/pq"
)

type ProfessionalRepository struct {
	DB *sql.DB
}

func NewProfessionalRepository(database *sql.DB) *ProfessionalRepository {
	return &ProfessionalRepository{DB: database}
}

const professionalColumns = `id, name, email, phone, role, active, password_hash, stripe_account_id`

func scanProfessional(row interface{ Scan(...any) error }, p *db.Professional) error {
	return row.Scan(&p.ID, &p.Name, &p.Email, &p.Phone, &p.Role, &p.Active, &p.PasswordHash, &p.StripeAccountID)
}

// GetByEmail returns nil, nil when no professional matches, so the login
// path can answer with a uniform invalid-credentials error.
func (r *ProfessionalRepository) GetByEmail(email string) (*db.Professional, error) {
	var p db.Professional
	row := r.DB.QueryRow(`SELECT `+professionalColumns+` FROM professionals WHERE email = $1`, email)
	if err := scanProfessional(row, &p); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, apperrors.Transient("query professional by email", err)
	}
	return &p, nil
}

func (r *ProfessionalRepository) GetByID(id int64) (*db.Professional, error) {
	var p db.Professional
	row := r.DB.QueryRow(`SELECT `+professionalColumns+` FROM professionals WHERE id = $1`, id)
	if err := scanProfessional(row, &p); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFound("professional %d not found", id)
		}
		return nil, apperrors.Transient("query professional", err)
	}
	return &p, nil
}

func (r *ProfessionalRepository) ListByIDs(ids []int64) ([]db.Professional, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := r.DB.Query(`SELECT `+professionalColumns+` FROM professionals WHERE id = ANY($1)`, pq.Array(ids))
	if err != nil {
		return nil, apperrors.Transient("query professionals", err)
	}
	defer rows.Close()

	var professionals []db.Professional
	for rows.Next() {
		var p db.Professional
		if err := scanProfessional(rows, &p); err != nil {
			return nil, apperrors.Transient("scan professional", err)
		}
		professionals = append(professionals, p)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Transient("iterate professionals", err)
	}
	return professionals, nil
}

// UnavailableDates returns the dates from asOf onward the professional has
// marked unavailable, keyed "2006-01-02". Absence of an entry means available.
func (r *ProfessionalRepository) UnavailableDates(professionalID int64, asOf time.Time) (map[string]struct{}, error) {
	rows, err := r.DB.Query(
		`SELECT date FROM availability_entries
		 WHERE professional_id = $1 AND unavailable = TRUE AND date >= $2`,
		professionalID, asOf,
	)
	if err != nil {
		return nil, apperrors.Transient("query availability entries", err)
	}
	defer rows.Close()

	dates := map[string]struct{}{}
	for rows.Next() {
		var d time.Time
		if err := rows.Scan(&d); err != nil {
			return nil, apperrors.Transient("scan availability entry", err)
		}
		dates[d.Format("2006-01-02")] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Transient("iterate availability entries", err)
	}
	return dates, nil
}

func (r *ProfessionalRepository) SetUnavailable(professionalID int64, date time.Time) error {
	_, err := r.DB.Exec(
		`INSERT INTO availability_entries (professional_id, date, unavailable)
		 VALUES ($1, $2, TRUE)
		 ON CONFLICT (professional_id, date) DO UPDATE SET unavailable = TRUE`,
		professionalID, date,
	)
	if err != nil {
		return apperrors.Transient("set unavailability", err)
	}
	return nil
}

func (r *ProfessionalRepository) ClearUnavailable(professionalID int64, date time.Time) error {
	_, err := r.DB.Exec(
		`DELETE FROM availability_entries WHERE professional_id = $1 AND date = $2`,
		professionalID, date,
	)
	if err != nil {
		return apperrors.Transient("clear unavailability", err)
	}
	return nil
}
