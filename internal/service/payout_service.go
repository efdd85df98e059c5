package service

import (
	"os"
	"time"

	"ambudispatch/internal/entities"
	apperrors "ambudispatch/internal/errors"

	"github.com/rs/zerolog"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/transfer"
)

// PayoutService pays a confirmed slot's holder via a Stripe transfer to
// their connected account, then records the payout on the slot row.
type PayoutService struct {
	Slots         OccurrenceStore
	Professionals ProfessionalStore
	Log           zerolog.Logger
	Now           func() time.Time
}

func NewPayoutService(slots OccurrenceStore, professionals ProfessionalStore, log zerolog.Logger) *PayoutService {
	return &PayoutService{Slots: slots, Professionals: professionals, Log: log, Now: time.Now}
}

func (s *PayoutService) MarkSlotPaid(slotID int64) (*entities.SlotResponse, error) {
	slot, err := s.Slots.GetSlot(slotID)
	if err != nil {
		return nil, err
	}
	if slot.Paid {
		return nil, apperrors.Conflict("slot %d is already paid", slotID)
	}
	if !slot.Confirmed || !slot.HolderID.Valid {
		return nil, apperrors.Validation("slot %d has no confirmed holder to pay", slotID)
	}
	if slot.PaymentCents <= 0 {
		return nil, apperrors.Validation("slot %d has no payment amount", slotID)
	}

	professional, err := s.Professionals.GetByID(slot.HolderID.Int64)
	if err != nil {
		return nil, err
	}
	if !professional.StripeAccountID.Valid {
		return nil, apperrors.Validation("professional %d has no payout account", professional.ID)
	}

	currency := os.Getenv("PAYOUT_CURRENCY")
	if currency == "" {
		currency = "eur"
	}
	params := &stripe.TransferParams{
		Amount:      stripe.Int64(int64(slot.PaymentCents)),
		Currency:    stripe.String(currency),
		Destination: stripe.String(professional.StripeAccountID.String),
	}
	t, err := transfer.New(params)
	if err != nil {
		return nil, apperrors.Transient("create stripe transfer", err)
	}

	now := s.Now()
	ok, err := s.Slots.MarkSlotPaid(slotID, t.ID, now)
	if err != nil {
		// The transfer went through but the row did not update; surface
		// the transfer id so the operator can reconcile.
		s.Log.Error().Err(err).Int64("slot_id", slotID).Str("transfer_id", t.ID).
			Msg("transfer created but slot not marked paid")
		return nil, err
	}
	if !ok {
		s.Log.Error().Int64("slot_id", slotID).Str("transfer_id", t.ID).
			Msg("transfer created but slot was already paid")
		return nil, apperrors.Conflict("slot %d was paid concurrently", slotID)
	}

	slot.Paid = true
	slot.PaymentDate = sqlTime(now)
	slot.TransferID.String = t.ID
	slot.TransferID.Valid = true
	s.Log.Info().Int64("slot_id", slotID).Int("amount_cents", slot.PaymentCents).
		Str("transfer_id", t.ID).Msg("slot paid")

	resp := entities.NewSlotResponse(*slot)
	return &resp, nil
}
