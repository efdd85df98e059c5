package repository

import (
	"database/sql"
	"errors"
	"time"

	"ambudispatch/internal/db"
	"ambudispatch/internal/entities"
	apperrors "ambudispatch/internal/errors"
	"ambudispatch/internal/utils"

	"github.com/lib/pq"
)

const uniqueViolation = "23505"

// numberAttempts bounds the regenerate-and-retry loop when two creations race
// for the same occurrence number within a month.
const numberAttempts = 3

type OccurrenceRepository struct {
	DB *sql.DB
}

func NewOccurrenceRepository(database *sql.DB) *OccurrenceRepository {
	return &OccurrenceRepository{DB: database}
}

const slotColumns = `id, occurrence_id, role, holder_id, confirmed, confirmed_at, payment_cents, payment_date, paid, transfer_id, created_at, updated_at`

const occurrenceColumns = `id, number, kind, ambulance_class, status, date, departure_time, arrival_time, end_time, location, destination, vehicle_id, driver_id, created_by, started_at, completed_at, created_at, updated_at`

func scanSlot(row interface{ Scan(...any) error }, s *db.OccurrenceSlot) error {
	return row.Scan(
		&s.ID, &s.OccurrenceID, &s.Role, &s.HolderID, &s.Confirmed, &s.ConfirmedAt,
		&s.PaymentCents, &s.PaymentDate, &s.Paid, &s.TransferID, &s.CreatedAt, &s.UpdatedAt,
	)
}

func scanOccurrence(row interface{ Scan(...any) error }, o *db.Occurrence) error {
	return row.Scan(
		&o.ID, &o.Number, &o.Kind, &o.AmbulanceClass, &o.Status, &o.Date,
		&o.DepartureTime, &o.ArrivalTime, &o.EndTime, &o.Location, &o.Destination,
		&o.VehicleID, &o.DriverID, &o.CreatedBy, &o.StartedAt, &o.CompletedAt,
		&o.CreatedAt, &o.UpdatedAt,
	)
}

// CreateOccurrenceWithSlots persists the occurrence and all its slots in one
// transaction. The occurrence number is generated inside the transaction from
// the greatest existing number for the month; the UNIQUE constraint on
// occurrences.number catches concurrent generations, in which case the whole
// transaction is retried with a fresh number. occ is filled in place; the
// created slot rows are returned.
func (r *OccurrenceRepository) CreateOccurrenceWithSlots(occ *db.Occurrence, specs []entities.SlotSpec, now time.Time) ([]db.OccurrenceSlot, error) {
	prefix := utils.OccurrenceNumberPrefix(now)

	var lastErr error
	for attempt := 0; attempt < numberAttempts; attempt++ {
		slots, err := r.createOnce(occ, specs, prefix, now)
		if err == nil {
			return slots, nil
		}
		if !isUniqueViolation(err) {
			return nil, err
		}
		lastErr = err
	}
	return nil, apperrors.Transient("could not allocate a unique occurrence number", lastErr)
}

func (r *OccurrenceRepository) createOnce(occ *db.Occurrence, specs []entities.SlotSpec, prefix string, now time.Time) ([]db.OccurrenceSlot, error) {
	tx, err := r.DB.Begin()
	if err != nil {
		return nil, apperrors.Transient("begin transaction", err)
	}
	defer tx.Rollback()

	var latest sql.NullString
	err = tx.QueryRow(
		`SELECT number FROM occurrences WHERE number LIKE $1 ORDER BY number DESC LIMIT 1`,
		prefix+"%",
	).Scan(&latest)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.Transient("query latest occurrence number", err)
	}

	number, err := utils.NextOccurrenceNumber(prefix, latest.String)
	if err != nil {
		return nil, apperrors.Transient("generate occurrence number", err)
	}
	occ.Number = number

	err = tx.QueryRow(`
		INSERT INTO occurrences
			(number, kind, ambulance_class, status, date, departure_time, arrival_time, end_time, location, destination, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $12)
		RETURNING id, created_at, updated_at`,
		occ.Number, occ.Kind, occ.AmbulanceClass, occ.Status, occ.Date,
		occ.DepartureTime, occ.ArrivalTime, occ.EndTime, occ.Location, occ.Destination,
		occ.CreatedBy, now,
	).Scan(&occ.ID, &occ.CreatedAt, &occ.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, err
		}
		return nil, apperrors.Transient("insert occurrence", err)
	}

	slots := make([]db.OccurrenceSlot, 0, len(specs))
	for _, spec := range specs {
		slot := db.OccurrenceSlot{
			OccurrenceID: occ.ID,
			Role:         spec.Role,
			PaymentCents: spec.PaymentCents,
		}
		if spec.HolderID != nil {
			slot.HolderID = sql.NullInt64{Int64: *spec.HolderID, Valid: true}
			slot.Confirmed = true
			slot.ConfirmedAt = sql.NullTime{Time: now, Valid: true}
		}
		err = tx.QueryRow(`
			INSERT INTO occurrence_slots
				(occurrence_id, role, holder_id, confirmed, confirmed_at, payment_cents, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
			RETURNING id, created_at, updated_at`,
			slot.OccurrenceID, slot.Role, slot.HolderID, slot.Confirmed, slot.ConfirmedAt,
			slot.PaymentCents, now,
		).Scan(&slot.ID, &slot.CreatedAt, &slot.UpdatedAt)
		if err != nil {
			return nil, apperrors.Transient("insert occurrence slot", err)
		}
		slots = append(slots, slot)
	}

	if err := tx.Commit(); err != nil {
		return nil, apperrors.Transient("commit occurrence creation", err)
	}
	return slots, nil
}

func (r *OccurrenceRepository) GetOccurrence(id int64) (*db.Occurrence, error) {
	var occ db.Occurrence
	row := r.DB.QueryRow(`SELECT `+occurrenceColumns+` FROM occurrences WHERE id = $1`, id)
	if err := scanOccurrence(row, &occ); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFound("occurrence %d not found", id)
		}
		return nil, apperrors.Transient("query occurrence", err)
	}
	return &occ, nil
}

func (r *OccurrenceRepository) ListSlots(occurrenceID int64) ([]db.OccurrenceSlot, error) {
	rows, err := r.DB.Query(
		`SELECT `+slotColumns+` FROM occurrence_slots WHERE occurrence_id = $1 ORDER BY id`,
		occurrenceID,
	)
	if err != nil {
		return nil, apperrors.Transient("query occurrence slots", err)
	}
	defer rows.Close()

	var slots []db.OccurrenceSlot
	for rows.Next() {
		var s db.OccurrenceSlot
		if err := scanSlot(rows, &s); err != nil {
			return nil, apperrors.Transient("scan occurrence slot", err)
		}
		slots = append(slots, s)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Transient("iterate occurrence slots", err)
	}
	return slots, nil
}

func (r *OccurrenceRepository) GetSlot(slotID int64) (*db.OccurrenceSlot, error) {
	var s db.OccurrenceSlot
	row := r.DB.QueryRow(`SELECT `+slotColumns+` FROM occurrence_slots WHERE id = $1`, slotID)
	if err := scanSlot(row, &s); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFound("slot %d not found", slotID)
		}
		return nil, apperrors.Transient("query slot", err)
	}
	return &s, nil
}

// SlotForProfessional returns the slot the professional holds on the
// occurrence, claimed or pre-assigned, or nil when they hold none.
func (r *OccurrenceRepository) SlotForProfessional(occurrenceID, professionalID int64) (*db.OccurrenceSlot, error) {
	var s db.OccurrenceSlot
	row := r.DB.QueryRow(
		`SELECT `+slotColumns+` FROM occurrence_slots WHERE occurrence_id = $1 AND holder_id = $2`,
		occurrenceID, professionalID,
	)
	if err := scanSlot(row, &s); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, apperrors.Transient("query professional slot", err)
	}
	return &s, nil
}

// OpenSlots returns the unclaimed, unconfirmed slots for the role, oldest
// first, so concurrent claimers mostly target the same row and the
// conditional update decides the winner.
func (r *OccurrenceRepository) OpenSlots(occurrenceID int64, role db.Role) ([]db.OccurrenceSlot, error) {
	rows, err := r.DB.Query(
		`SELECT `+slotColumns+` FROM occurrence_slots
		 WHERE occurrence_id = $1 AND role = $2 AND holder_id IS NULL AND confirmed = FALSE
		 ORDER BY id`,
		occurrenceID, role,
	)
	if err != nil {
		return nil, apperrors.Transient("query open slots", err)
	}
	defer rows.Close()

	var slots []db.OccurrenceSlot
	for rows.Next() {
		var s db.OccurrenceSlot
		if err := scanSlot(rows, &s); err != nil {
			return nil, apperrors.Transient("scan open slot", err)
		}
		slots = append(slots, s)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Transient("iterate open slots", err)
	}
	return slots, nil
}

// ClaimSlot performs the compare-and-set claim: the write only succeeds if
// the row is still unclaimed. Returns false when another caller won the race.
func (r *OccurrenceRepository) ClaimSlot(slotID, professionalID int64, now time.Time) (bool, error) {
	result, err := r.DB.Exec(
		`UPDATE occurrence_slots
		 SET holder_id = $2, confirmed = TRUE, confirmed_at = $3, updated_at = $3
		 WHERE id = $1 AND holder_id IS NULL AND confirmed = FALSE`,
		slotID, professionalID, now,
	)
	if err != nil {
		return false, apperrors.Transient("claim slot", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, apperrors.Transient("claim slot rows affected", err)
	}
	return affected == 1, nil
}

// ConfirmPreAssignedSlot confirms a slot that was provisioned with a holder
// but not yet confirmed. Conditioned on confirmed = FALSE so a double confirm
// reports false instead of silently rewriting the timestamp.
func (r *OccurrenceRepository) ConfirmPreAssignedSlot(slotID int64, now time.Time) (bool, error) {
	result, err := r.DB.Exec(
		`UPDATE occurrence_slots SET confirmed = TRUE, confirmed_at = $2, updated_at = $2
		 WHERE id = $1 AND confirmed = FALSE`,
		slotID, now,
	)
	if err != nil {
		return false, apperrors.Transient("confirm pre-assigned slot", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, apperrors.Transient("confirm slot rows affected", err)
	}
	return affected == 1, nil
}

// UpdateStatus moves the occurrence from one status to another, conditioned
// on the current status so transitions can never skip or move backward.
func (r *OccurrenceRepository) UpdateStatus(occurrenceID int64, from, to db.Status, now time.Time) (bool, error) {
	result, err := r.DB.Exec(
		`UPDATE occurrences SET status = $3, updated_at = $4 WHERE id = $1 AND status = $2`,
		occurrenceID, from, to, now,
	)
	if err != nil {
		return false, apperrors.Transient("update occurrence status", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, apperrors.Transient("update status rows affected", err)
	}
	return affected == 1, nil
}

// MarkInProgress applies the external dispatch event: vehicle and driver
// assignment plus the start timestamp, conditioned on status = confirmed.
func (r *OccurrenceRepository) MarkInProgress(occurrenceID, vehicleID, driverID int64, now time.Time) (bool, error) {
	result, err := r.DB.Exec(
		`UPDATE occurrences
		 SET status = $2, vehicle_id = $3, driver_id = $4, started_at = $5, updated_at = $5
		 WHERE id = $1 AND status = $6`,
		occurrenceID, db.StatusInProgress, vehicleID, driverID, now, db.StatusConfirmed,
	)
	if err != nil {
		return false, apperrors.Transient("mark occurrence in progress", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, apperrors.Transient("mark in progress rows affected", err)
	}
	return affected == 1, nil
}

// MarkCompleted applies the external completion event, conditioned on
// status = in_progress.
func (r *OccurrenceRepository) MarkCompleted(occurrenceID int64, now time.Time) (bool, error) {
	result, err := r.DB.Exec(
		`UPDATE occurrences SET status = $2, completed_at = $3, updated_at = $3
		 WHERE id = $1 AND status = $4`,
		occurrenceID, db.StatusCompleted, now, db.StatusInProgress,
	)
	if err != nil {
		return false, apperrors.Transient("mark occurrence completed", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, apperrors.Transient("mark completed rows affected", err)
	}
	return affected == 1, nil
}

// ListEligible returns open and confirmed occurrences dated on or after asOf,
// each with its slots, ordered by date then departure time. This is the read
// path behind every professional dashboard.
func (r *OccurrenceRepository) ListEligible(asOf time.Time) ([]entities.OccurrenceWithSlots, error) {
	rows, err := r.DB.Query(
		`SELECT `+occurrenceColumns+` FROM occurrences
		 WHERE status IN ($1, $2) AND date >= $3
		 ORDER BY date, departure_time, id`,
		db.StatusOpen, db.StatusConfirmed, asOf,
	)
	if err != nil {
		return nil, apperrors.Transient("query eligible occurrences", err)
	}
	defer rows.Close()

	var result []entities.OccurrenceWithSlots
	index := map[int64]int{}
	var ids []int64
	for rows.Next() {
		var occ db.Occurrence
		if err := scanOccurrence(rows, &occ); err != nil {
			return nil, apperrors.Transient("scan eligible occurrence", err)
		}
		index[occ.ID] = len(result)
		ids = append(ids, occ.ID)
		result = append(result, entities.OccurrenceWithSlots{Occurrence: occ})
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Transient("iterate eligible occurrences", err)
	}
	if len(ids) == 0 {
		return result, nil
	}

	slotRows, err := r.DB.Query(
		`SELECT `+slotColumns+` FROM occurrence_slots WHERE occurrence_id = ANY($1) ORDER BY id`,
		pq.Array(ids),
	)
	if err != nil {
		return nil, apperrors.Transient("query eligible slots", err)
	}
	defer slotRows.Close()

	for slotRows.Next() {
		var s db.OccurrenceSlot
		if err := scanSlot(slotRows, &s); err != nil {
			return nil, apperrors.Transient("scan eligible slot", err)
		}
		if i, ok := index[s.OccurrenceID]; ok {
			result[i].Slots = append(result[i].Slots, s)
		}
	}
	if err := slotRows.Err(); err != nil {
		return nil, apperrors.Transient("iterate eligible slots", err)
	}
	return result, nil
}

// MarkSlotPaid records the payout on a slot. Conditioned on paid = FALSE so a
// repeated request cannot double-pay.
func (r *OccurrenceRepository) MarkSlotPaid(slotID int64, transferID string, now time.Time) (bool, error) {
	result, err := r.DB.Exec(
		`UPDATE occurrence_slots SET paid = TRUE, payment_date = $2, transfer_id = $3, updated_at = $2
		 WHERE id = $1 AND paid = FALSE`,
		slotID, now, transferID,
	)
	if err != nil {
		return false, apperrors.Transient("mark slot paid", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, apperrors.Transient("mark slot paid rows affected", err)
	}
	return affected == 1, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == uniqueViolation
	}
	return false
}
