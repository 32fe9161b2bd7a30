package payment

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/venuepass/venue-booking-backend/internal/booking"
	"github.com/venuepass/venue-booking-backend/internal/events"
	"github.com/venuepass/venue-booking-backend/internal/observability"
	"github.com/venuepass/venue-booking-backend/internal/slot"
)

// Options carries the gateway-side constants for initiation.
type Options struct {
	ProductCode string
	SuccessURL  string
	FailureURL  string
}

type Service interface {
	// Initiate prepares a signed gateway redirect for the booking's
	// server-computed advance amount.
	Initiate(ctx context.Context, bookingID string) (*InitiateResult, error)
	// Verify reconciles one gateway status report against the bookings,
	// idempotently. It only mutates state on terminal gateway statuses.
	Verify(ctx context.Context, transactionUUID string) (*VerifyResult, error)
}

type service struct {
	bookings  booking.Service
	repo      booking.Repository
	manager   slot.Manager
	gateway   Gateway
	signer    *Signer
	audit     AuditLog
	publisher *events.Publisher
	logger    observability.Logger
	clock     slot.Clock
	opts      Options
}

func NewService(
	bookings booking.Service,
	repo booking.Repository,
	manager slot.Manager,
	gateway Gateway,
	signer *Signer,
	audit AuditLog,
	publisher *events.Publisher,
	logger observability.Logger,
	clock slot.Clock,
	opts Options,
) Service {
	if clock == nil {
		clock = slot.SystemClock()
	}
	return &service{
		bookings:  bookings,
		repo:      repo,
		manager:   manager,
		gateway:   gateway,
		signer:    signer,
		audit:     audit,
		publisher: publisher,
		logger:    logger,
		clock:     clock,
		opts:      opts,
	}
}

func (s *service) Initiate(ctx context.Context, bookingID string) (*InitiateResult, error) {
	if s.signer == nil {
		return nil, ErrSecretMissing
	}

	b, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if b.Status != booking.StatusPendingPayment {
		return nil, booking.ErrNotPayable
	}
	if b.AdvanceAmount <= 0 {
		return nil, ErrAmountMissing
	}

	transactionUUID := b.ID + "_" + strconv.FormatInt(s.clock.Now().UnixMilli(), 10)

	if err := s.repo.SetPaymentTransaction(ctx, b.ID, transactionUUID); err != nil {
		return nil, err
	}

	// Best effort: the hold may already have lapsed; the transaction id on
	// the booking row is the record that matters.
	key := slot.Key{VenueID: b.VenueID, Date: b.Date, StartTime: b.StartTime}
	if err := s.manager.AttachHoldTransaction(ctx, key, transactionUUID); err != nil {
		s.logger.WithError(err).
			WithField("booking_id", b.ID).
			Warn("could not record transaction id on held slot")
	}

	return &InitiateResult{
		TransactionUUID: transactionUUID,
		Signature:       s.signer.SignInitiation(b.AdvanceAmount, transactionUUID, s.opts.ProductCode),
		Amount:          b.AdvanceAmount,
		TotalAmount:     b.AdvanceAmount,
		ProductCode:     s.opts.ProductCode,
		SuccessURL:      s.opts.SuccessURL,
		FailureURL:      s.opts.FailureURL,
	}, nil
}

func (s *service) Verify(ctx context.Context, transactionUUID string) (*VerifyResult, error) {
	if s.signer == nil {
		return nil, ErrSecretMissing
	}
	b, rerr := s.resolve(ctx, transactionUUID)
	if rerr != nil {
		return nil, rerr
	}

	var totalAmount int64
	if b != nil {
		totalAmount = b.AdvanceAmount
	}

	resp, err := s.gateway.CheckStatus(ctx, s.opts.ProductCode, transactionUUID, totalAmount)
	if err != nil {
		s.logger.WithError(err).
			WithField("transaction_uuid", transactionUUID).
			Error("payment gateway unreachable")
		observability.PaymentVerifications.WithLabelValues("gateway_error").Inc()
		return nil, ErrGatewayUnavailable
	}

	status := NormalizeGatewayStatus(resp.Status)
	result := &VerifyResult{Status: status, RefID: resp.RefID}

	switch {
	case status == GatewayComplete:
		s.handleComplete(ctx, transactionUUID, b, resp, result)
	case status.Terminal():
		s.handleFailure(ctx, transactionUUID, b, resp, status, result)
	default:
		// Non-terminal: never guess, touch nothing, report what we saw.
		observability.PaymentVerifications.WithLabelValues("pending").Inc()
	}

	return result, nil
}

func (s *service) handleComplete(ctx context.Context, transactionUUID string, b *booking.Booking, resp *GatewayResponse, result *VerifyResult) {
	// A COMPLETE status is money in hand: the response always reports
	// verified, and an audit entry is always written, whatever happens to
	// the local bookkeeping below.
	result.Verified = true

	entry := AuditEntry{
		TransactionID: transactionUUID,
		Status:        string(GatewayComplete),
		GatewayRefID:  resp.RefID,
		Timestamp:     s.clock.Now(),
	}

	switch {
	case b == nil:
		entry.RequiresReconciliation = true
		entry.Metadata = map[string]interface{}{"reason": "no booking matched transaction"}
		result.RequiresManualReconciliation = true
		observability.PaymentVerifications.WithLabelValues("unmatched").Inc()

	case b.Status == booking.StatusConfirmed:
		// Duplicate verification: append an audit entry, leave slot state
		// alone, return the existing confirmation data.
		fillEntry(&entry, b)
		entry.Metadata = map[string]interface{}{"duplicate": true}
		result.BookingID = b.ID
		result.BookingFound = true
		result.BookingConfirmed = true
		result.AlreadyConfirmed = true
		observability.PaymentVerifications.WithLabelValues("duplicate").Inc()

	default:
		fillEntry(&entry, b)
		result.BookingID = b.ID
		result.BookingFound = true

		key := slot.Key{VenueID: b.VenueID, Date: b.Date, StartTime: b.StartTime}
		if err := s.manager.ConfirmBooking(ctx, key, b.ID, resp.RefID); err != nil {
			// The gateway has the money but the slot could not be
			// converted. The booking stays unconfirmed, the audit entry
			// still lands, and a human sorts it out.
			s.logger.WithError(err).
				WithField("booking_id", b.ID).
				Error("payment confirmed but slot conversion failed")
			entry.RequiresReconciliation = true
			entry.Metadata = map[string]interface{}{"reason": "slot conversion failed: " + err.Error()}
			result.BookingUpdateFailed = true
			result.RequiresManualReconciliation = true
			observability.PaymentVerifications.WithLabelValues("update_failed").Inc()
		} else {
			result.BookingConfirmed = true
			observability.PaymentVerifications.WithLabelValues("confirmed").Inc()
		}
		s.publishPaid(ctx, b, transactionUUID, resp.RefID)
	}

	if err := s.audit.Append(ctx, entry); err != nil {
		// Already logged and counted by the audit log itself.
		result.RequiresManualReconciliation = true
	}
}

func (s *service) handleFailure(ctx context.Context, transactionUUID string, b *booking.Booking, resp *GatewayResponse, status GatewayStatus, result *VerifyResult) {
	entry := AuditEntry{
		TransactionID: transactionUUID,
		Status:        string(status),
		GatewayRefID:  resp.RefID,
		Timestamp:     s.clock.Now(),
	}

	if b != nil {
		fillEntry(&entry, b)
		result.BookingID = b.ID
		result.BookingFound = true

		// The slot exception is deliberately left in place; a human decides
		// whether to release it.
		if _, err := s.repo.SetFailure(ctx, b.ID, string(status)); err != nil {
			s.logger.WithError(err).
				WithField("booking_id", b.ID).
				Error("failed to record payment failure")
		}
		s.publishFailed(ctx, b, transactionUUID, status)
	}

	observability.PaymentVerifications.WithLabelValues("failed").Inc()
	_ = s.audit.Append(ctx, entry)
}

// resolve locates the booking for a transaction identifier. Strategies, in
// order: exact id match, id with the trailing _<timestamp> suffix stripped,
// then the stored transaction-id field. First match wins.
func (s *service) resolve(ctx context.Context, transactionUUID string) (*booking.Booking, error) {
	b, err := s.repo.GetByID(ctx, transactionUUID)
	if err == nil {
		return b, nil
	}
	if !errors.Is(err, booking.ErrNotFound) {
		return nil, err
	}

	if base, ok := stripTimestampSuffix(transactionUUID); ok {
		b, err = s.repo.GetByID(ctx, base)
		if err == nil {
			return b, nil
		}
		if !errors.Is(err, booking.ErrNotFound) {
			return nil, err
		}
	}

	b, err = s.repo.GetByTransactionID(ctx, transactionUUID)
	if err == nil {
		return b, nil
	}
	if !errors.Is(err, booking.ErrNotFound) {
		return nil, err
	}
	return nil, nil
}

// stripTimestampSuffix removes a trailing _<digits> from the identifier.
func stripTimestampSuffix(id string) (string, bool) {
	idx := strings.LastIndex(id, "_")
	if idx <= 0 || idx == len(id)-1 {
		return "", false
	}
	for _, r := range id[idx+1:] {
		if r < '0' || r > '9' {
			return "", false
		}
	}
	return id[:idx], true
}

func fillEntry(entry *AuditEntry, b *booking.Booking) {
	entry.BookingID = b.ID
	entry.UserID = b.UserID
	entry.VenueID = b.VenueID
	entry.Amount = b.AdvanceAmount
}

func (s *service) publishPaid(ctx context.Context, b *booking.Booking, transactionUUID, refID string) {
	err := s.publisher.PublishJSON(ctx, "payment.paid", map[string]interface{}{
		"booking_id":       b.ID,
		"venue_id":         b.VenueID,
		"transaction_uuid": transactionUUID,
		"ref_id":           refID,
		"amount":           b.AdvanceAmount,
	})
	if err != nil {
		s.logger.WithError(err).Warn("failed to publish payment.paid")
	}
}

func (s *service) publishFailed(ctx context.Context, b *booking.Booking, transactionUUID string, status GatewayStatus) {
	err := s.publisher.PublishJSON(ctx, "payment.failed", map[string]interface{}{
		"booking_id":       b.ID,
		"venue_id":         b.VenueID,
		"transaction_uuid": transactionUUID,
		"status":           string(status),
	})
	if err != nil {
		s.logger.WithError(err).Warn("failed to publish payment.failed")
	}
}
