package payment

import (
	"net/http"
	"strings"
	"time"

	"github.com/venuepass/venue-booking-backend/internal/pkg/apperror"
)

var (
	ErrSecretMissing      = apperror.New(http.StatusInternalServerError, "payment signing secret is not configured")
	ErrAmountMissing      = apperror.New(http.StatusBadRequest, "booking has no server-computed amount")
	ErrGatewayUnavailable = apperror.New(http.StatusBadRequest, "payment gateway could not be reached")
)

// GatewayStatus is the payment state reported by the gateway.
type GatewayStatus string

const (
	GatewayComplete  GatewayStatus = "COMPLETE"
	GatewayPending   GatewayStatus = "PENDING"
	GatewayInitiated GatewayStatus = "INITIATED"
	GatewayFailed    GatewayStatus = "FAILED"
	GatewayCanceled  GatewayStatus = "CANCELED"
	GatewayNotFound  GatewayStatus = "NOT_FOUND"
)

// NormalizeGatewayStatus folds the mixed-case spellings seen in the wild
// into the canonical enumeration. Unrecognized statuses stay as reported,
// uppercased, and are treated as non-terminal.
func NormalizeGatewayStatus(raw string) GatewayStatus {
	s := GatewayStatus(strings.ToUpper(strings.TrimSpace(raw)))
	switch s {
	case "CANCELLED":
		return GatewayCanceled
	case "":
		return GatewayNotFound
	}
	return s
}

// Terminal reports whether no further transition is expected from this
// status. The resolver only ever mutates state on terminal signals.
func (s GatewayStatus) Terminal() bool {
	switch s {
	case GatewayComplete, GatewayFailed, GatewayCanceled:
		return true
	}
	return false
}

// AuditEntry is one append-only record of a payment event. Entries are
// written even when booking reconciliation fails, so a confirmed payment is
// never silently lost.
type AuditEntry struct {
	TransactionID          string                 `bson:"transaction_id"`
	BookingID              string                 `bson:"booking_id,omitempty"`
	UserID                 string                 `bson:"user_id,omitempty"`
	VenueID                string                 `bson:"venue_id,omitempty"`
	Amount                 int64                  `bson:"amount,omitempty"`
	Status                 string                 `bson:"status"`
	GatewayRefID           string                 `bson:"gateway_ref_id,omitempty"`
	RequiresReconciliation bool                   `bson:"requires_reconciliation,omitempty"`
	Metadata               map[string]interface{} `bson:"metadata,omitempty"`
	Timestamp              time.Time              `bson:"timestamp"`
}

// InitiateResult carries everything the client needs for the signed gateway
// redirect.
type InitiateResult struct {
	TransactionUUID string
	Signature       string
	Amount          int64
	TotalAmount     int64
	ProductCode     string
	SuccessURL      string
	FailureURL      string
}

// VerifyResult is the outcome of reconciling one gateway status report.
type VerifyResult struct {
	Verified bool
	Status   GatewayStatus
	RefID    string

	BookingID                    string
	BookingFound                 bool
	BookingConfirmed             bool
	AlreadyConfirmed             bool
	BookingUpdateFailed          bool
	RequiresManualReconciliation bool
}
