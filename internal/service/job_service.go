package service

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"ambudispatch/internal/repository"

	"github.com/rs/zerolog"
)

// defaultPaymentNetDays is how far after completion slot payments fall due
// when PAYMENT_NET_DAYS is not configured.
const defaultPaymentNetDays = 30

type JobService struct {
	Repo *repository.JobRepository
	Log  zerolog.Logger
}

func NewJobService(repo *repository.JobRepository, log zerolog.Logger) *JobService {
	return &JobService{Repo: repo, Log: log}
}

// SchedulePayments stamps a payment due date on confirmed slots of completed
// occurrences that have none yet. Run nightly from cron.
func (s *JobService) SchedulePayments() error {
	ids, err := s.Repo.SlotIDsAwaitingPaymentDate()
	if err != nil {
		return fmt.Errorf("payment sweep: list slots: %w", err)
	}
	if len(ids) == 0 {
		s.Log.Debug().Msg("payment sweep: nothing to schedule")
		return nil
	}

	netDays := defaultPaymentNetDays
	if v := os.Getenv("PAYMENT_NET_DAYS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			netDays = n
		}
	}
	payDate := time.Now().AddDate(0, 0, netDays)

	updated, err := s.Repo.SchedulePayments(ids, payDate)
	if err != nil {
		return fmt.Errorf("payment sweep: schedule: %w", err)
	}
	s.Log.Info().Int64("slots", updated).Time("pay_date", payDate).Msg("payment sweep: payments scheduled")
	return nil
}
