package api

import (
	"net/http"

	"ambudispatch/internal/service"
)

type PaymentHandler struct {
	Payouts *service.PayoutService
}

func NewPaymentHandler(payouts *service.PayoutService) *PaymentHandler {
	return &PaymentHandler{Payouts: payouts}
}

// MarkSlotPaid transfers the slot's payment amount to its holder and records
// the payout.
func (h *PaymentHandler) MarkSlotPaid(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		http.Error(w, "Invalid slot id", http.StatusBadRequest)
		return
	}
	slot, err := h.Payouts.MarkSlotPaid(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, slot)
}
