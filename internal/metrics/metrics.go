package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	OccurrencesCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ambudispatch_occurrences_created_total",
		Help: "Occurrences created, by work kind.",
	}, []string{"kind"})

	ClaimsWon = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ambudispatch_slot_claims_won_total",
		Help: "Slot claims that succeeded.",
	})

	ClaimConflicts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ambudispatch_slot_claim_conflicts_total",
		Help: "Slot claims rejected with a conflict.",
	})

	StatusTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ambudispatch_status_transitions_total",
		Help: "Occurrence status transitions, by target state.",
	}, []string{"to"})
)
