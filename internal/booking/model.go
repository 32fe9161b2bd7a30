package booking

import (
	"net/http"
	"strings"
	"time"

	"github.com/venuepass/venue-booking-backend/internal/pkg/apperror"
)

var (
	ErrNotFound         = apperror.New(http.StatusNotFound, "booking not found")
	ErrNotPayable       = apperror.New(http.StatusConflict, "booking is not awaiting payment")
	ErrPermissionDenied = apperror.New(http.StatusForbidden, "permission denied")
	ErrInvalidStatus    = apperror.New(http.StatusBadRequest, "invalid booking status")
)

// Status is the booking lifecycle state. pending_payment is the initial
// state; every other state is terminal.
type Status string

const (
	StatusPendingPayment Status = "pending_payment"
	StatusConfirmed      Status = "confirmed"
	StatusCancelled      Status = "cancelled"
	StatusExpired        Status = "expired"
	StatusPaymentFailed  Status = "payment_failed"
	StatusNotFound       Status = "not_found"
)

// legacyStatuses maps status spellings observed in historical data to the
// canonical enumeration. Normalization happens once at the boundary instead
// of case-insensitive comparisons scattered through the engine.
var legacyStatuses = map[string]Status{
	"pending":        StatusPendingPayment,
	"pendingpayment": StatusPendingPayment,
	"complete":       StatusConfirmed,
	"canceled":       StatusCancelled,
	"failed":         StatusPaymentFailed,
}

// NormalizeStatus maps a raw status string to the canonical Status.
func NormalizeStatus(raw string) (Status, bool) {
	folded := strings.ToLower(strings.TrimSpace(raw))
	switch Status(folded) {
	case StatusPendingPayment, StatusConfirmed, StatusCancelled,
		StatusExpired, StatusPaymentFailed, StatusNotFound:
		return Status(folded), true
	}
	if s, ok := legacyStatuses[strings.ReplaceAll(folded, "_", "")]; ok {
		return s, true
	}
	return "", false
}

// CanTransition reports whether the state machine permits from -> to.
// Only pending_payment has outgoing edges.
func CanTransition(from, to Status) bool {
	if from != StatusPendingPayment {
		return false
	}
	switch to {
	case StatusConfirmed, StatusCancelled, StatusExpired, StatusPaymentFailed, StatusNotFound:
		return true
	}
	return false
}

// Booking is the canonical reservation entity. One row per reservation
// attempt; rows are never deleted, cancellation is a status transition.
type Booking struct {
	ID                   string
	VenueID              string
	UserID               string // empty for manager-entered physical bookings
	Date                 string
	StartTime            string
	EndTime              string
	Amount               int64
	AdvanceAmount        int64
	Status               Status
	HoldExpiresAt        *time.Time
	PaymentTransactionID string
	GatewayRefID         string
	FailureReason        string
	CreatedAt            time.Time
	VerifiedAt           *time.Time
}

// HoldElapsed reports whether the booking's hold TTL has passed.
func (b *Booking) HoldElapsed(now time.Time) bool {
	return b.HoldExpiresAt != nil && !b.HoldExpiresAt.After(now)
}

// Filter defines parameters for listing bookings.
type Filter struct {
	UserID   string
	VenueID  string
	Status   string
	Page     int
	PageSize int
}
