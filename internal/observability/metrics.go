package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HoldsGranted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "vbb_holds_granted_total",
			Help: "Total number of slot holds granted",
		},
	)

	SlotConflicts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "vbb_slot_conflicts_total",
			Help: "Total number of hold/book attempts lost to a conflicting exception",
		},
	)

	BookingsConfirmed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "vbb_bookings_confirmed_total",
			Help: "Total number of bookings confirmed",
		},
	)

	PaymentVerifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vbb_payment_verifications_total",
			Help: "Total number of payment verification calls by outcome",
		},
		[]string{"outcome"},
	)

	PaymentAuditFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "vbb_payment_audit_failures_total",
			Help: "Total number of failed payment audit writes",
		},
	)
)
