package repository

import (
	"database/sql"
	"time"

	apperrors "ambudispatch/internal/errors"

	"github.com/lib/pq"
)

type JobRepository struct {
	DB *sql.DB
}

func NewJobRepository(database *sql.DB) *JobRepository {
	return &JobRepository{DB: database}
}

// SlotIDsAwaitingPaymentDate finds confirmed slots on completed occurrences
// that have no payment date yet.
func (r *JobRepository) SlotIDsAwaitingPaymentDate() ([]int64, error) {
	rows, err := r.DB.Query(`
		SELECT s.id
		FROM occurrence_slots s
		JOIN occurrences o ON o.id = s.occurrence_id
		WHERE o.status = 'completed' AND s.confirmed = TRUE AND s.payment_date IS NULL`)
	if err != nil {
		return nil, apperrors.Transient("query slots awaiting payment date", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, apperrors.Transient("scan slot id", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Transient("iterate slot ids", err)
	}
	return ids, nil
}

// SchedulePayments stamps the payment date on the given slots.
func (r *JobRepository) SchedulePayments(ids []int64, payDate time.Time) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	result, err := r.DB.Exec(
		`UPDATE occurrence_slots SET payment_date = $1, updated_at = NOW() WHERE id = ANY($2)`,
		payDate, pq.Array(ids),
	)
	if err != nil {
		return 0, apperrors.Transient("schedule slot payments", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, apperrors.Transient("schedule payments rows affected", err)
	}
	return affected, nil
}
