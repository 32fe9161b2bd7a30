package slot

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/venuepass/venue-booking-backend/internal/observability"
)

const defaultHoldTTL = 10 * time.Minute

// HoldRequest asks for a time-limited exclusive claim on one slot. Amounts
// are server-computed by the caller from the venue's pricing; they are stored
// on the pending booking created alongside the hold.
type HoldRequest struct {
	Key
	UserID        string
	EndTime       string
	Amount        int64
	AdvanceAmount int64
}

// HoldResult reports the granted hold and its pending booking.
type HoldResult struct {
	BookingID     string
	HoldExpiresAt time.Time
}

// BookRequest inserts a booked exception directly, used for manager-entered
// physical bookings.
type BookRequest struct {
	Key
	EndTime       string
	UserID        string
	CustomerName  string
	CustomerPhone string
	Amount        int64
	AdvanceAmount int64
}

// Manager is the hold and booking transaction manager. Every operation is a
// single atomic read-modify-write transaction against the venue's exception
// aggregate; losing a race reports ErrSlotUnavailable or ErrAlreadyBooked,
// never a silent overwrite.
type Manager interface {
	HoldSlot(ctx context.Context, req HoldRequest) (*HoldResult, error)
	BookSlot(ctx context.Context, req BookRequest) (*HoldResult, error)
	// ConfirmBooking converts the held exception into a booked one and
	// transitions the booking row to confirmed in the same transaction.
	ConfirmBooking(ctx context.Context, key Key, bookingID, gatewayRefID string) error
	// CancelBooking removes the held or booked exception belonging to the
	// booking and marks the booking cancelled, atomically.
	CancelBooking(ctx context.Context, key Key, bookingID string) error
	// AttachHoldTransaction records the payment transaction id on the held
	// exception, if one still exists for the key.
	AttachHoldTransaction(ctx context.Context, key Key, transactionID string) error

	ReleaseHold(ctx context.Context, key Key) error
	UnbookSlot(ctx context.Context, key Key) error
	BlockSlot(ctx context.Context, key Key, blockedBy, reason string) error
	UnblockSlot(ctx context.Context, key Key) error
	ReserveSlot(ctx context.Context, key Key, reservedBy, note string) error
	UnreserveSlot(ctx context.Context, key Key) error
}

type manager struct {
	store   Store
	clock   Clock
	cache   *AvailabilityCache
	logger  observability.Logger
	holdTTL time.Duration
}

type ManagerOption func(*manager)

// WithHoldTTL overrides the default TTL for new holds.
func WithHoldTTL(d time.Duration) ManagerOption {
	return func(m *manager) {
		if d > 0 {
			m.holdTTL = d
		}
	}
}

// WithClock overrides the wall clock, used by tests.
func WithClock(c Clock) ManagerOption {
	return func(m *manager) {
		m.clock = c
	}
}

func NewManager(store Store, cache *AvailabilityCache, logger observability.Logger, opts ...ManagerOption) Manager {
	m := &manager{
		store:   store,
		clock:   SystemClock(),
		cache:   cache,
		logger:  logger,
		holdTTL: defaultHoldTTL,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// current returns the live exception for the key, treating an expired hold as
// absent, plus any expired hold occupying the key.
func current(exceptions []Exception, key Key, now time.Time) (live, expired *Exception) {
	for i := range exceptions {
		e := exceptions[i]
		if e.Date != key.Date || e.StartTime != key.StartTime {
			continue
		}
		if e.HoldExpired(now) {
			expired = &exceptions[i]
			continue
		}
		live = &exceptions[i]
	}
	return live, expired
}

// reapExpiredHold removes an expired hold occupying the key and marks its
// pending booking expired, inside the caller's transaction.
func reapExpiredHold(ctx context.Context, tx Tx, key Key, expired *Exception) error {
	if expired == nil {
		return nil
	}
	if _, err := tx.Remove(ctx, key, KindHeld); err != nil {
		return err
	}
	if expired.BookingID != "" {
		if _, err := tx.SetBookingStatus(ctx, expired.BookingID, "expired"); err != nil {
			return err
		}
	}
	return nil
}

func (m *manager) HoldSlot(ctx context.Context, req HoldRequest) (*HoldResult, error) {
	now := m.clock.Now()
	result := &HoldResult{
		BookingID:     uuid.NewString(),
		HoldExpiresAt: now.Add(m.holdTTL),
	}

	err := m.store.InVenueTx(ctx, req.VenueID, func(tx Tx) error {
		exceptions, err := tx.ExceptionsFor(ctx, req.Date)
		if err != nil {
			return err
		}

		live, expired := current(exceptions, req.Key, now)
		if live != nil {
			// An unexpired hold by the same user is superseded by the new
			// one; anything else means the slot is taken.
			if live.Kind != KindHeld || live.UserID != req.UserID {
				return ErrSlotUnavailable
			}
			if err := reapExpiredHold(ctx, tx, req.Key, live); err != nil {
				return err
			}
		}
		if err := reapExpiredHold(ctx, tx, req.Key, expired); err != nil {
			return err
		}

		if err := tx.Insert(ctx, &Exception{
			Key:           req.Key,
			Kind:          KindHeld,
			UserID:        req.UserID,
			BookingID:     result.BookingID,
			HoldExpiresAt: result.HoldExpiresAt,
		}); err != nil {
			return err
		}

		// The pending booking is created in the same transaction so the hold
		// and its booking either both exist or neither does.
		expiresAt := result.HoldExpiresAt
		return tx.InsertBooking(ctx, &BookingRow{
			ID:            result.BookingID,
			VenueID:       req.VenueID,
			UserID:        req.UserID,
			Date:          req.Date,
			StartTime:     req.StartTime,
			EndTime:       req.EndTime,
			Amount:        req.Amount,
			AdvanceAmount: req.AdvanceAmount,
			Status:        "pending_payment",
			HoldExpiresAt: &expiresAt,
		})
	})
	if err != nil {
		if err == ErrSlotUnavailable {
			observability.SlotConflicts.Inc()
		}
		return nil, err
	}

	observability.HoldsGranted.Inc()
	m.logger.WithField("booking_id", result.BookingID).
		WithField("venue_id", req.VenueID).
		Debug("hold granted")
	m.cache.Invalidate(ctx, req.VenueID)
	return result, nil
}

func (m *manager) BookSlot(ctx context.Context, req BookRequest) (*HoldResult, error) {
	now := m.clock.Now()
	result := &HoldResult{BookingID: uuid.NewString()}

	err := m.store.InVenueTx(ctx, req.VenueID, func(tx Tx) error {
		exceptions, err := tx.ExceptionsFor(ctx, req.Date)
		if err != nil {
			return err
		}

		live, expired := current(exceptions, req.Key, now)
		if live != nil {
			switch live.Kind {
			case KindBooked:
				return ErrAlreadyBooked
			case KindHeld:
				// A manager booking overrides the hold; the superseded
				// pending booking expires.
				if err := reapExpiredHold(ctx, tx, req.Key, live); err != nil {
					return err
				}
			default:
				return ErrSlotUnavailable
			}
		}
		if err := reapExpiredHold(ctx, tx, req.Key, expired); err != nil {
			return err
		}

		if err := tx.Insert(ctx, &Exception{
			Key:           req.Key,
			Kind:          KindBooked,
			BookingID:     result.BookingID,
			BookingType:   BookingTypePhysical,
			BookingStatus: "confirmed",
			CustomerName:  req.CustomerName,
			CustomerPhone: req.CustomerPhone,
			UserID:        req.UserID,
		}); err != nil {
			return err
		}

		return tx.InsertBooking(ctx, &BookingRow{
			ID:            result.BookingID,
			VenueID:       req.VenueID,
			UserID:        req.UserID,
			Date:          req.Date,
			StartTime:     req.StartTime,
			EndTime:       req.EndTime,
			Amount:        req.Amount,
			AdvanceAmount: req.AdvanceAmount,
			Status:        "confirmed",
		})
	})
	if err != nil {
		if err == ErrSlotUnavailable || err == ErrAlreadyBooked {
			observability.SlotConflicts.Inc()
		}
		return nil, err
	}

	observability.BookingsConfirmed.Inc()
	m.cache.Invalidate(ctx, req.VenueID)
	return result, nil
}

func (m *manager) ConfirmBooking(ctx context.Context, key Key, bookingID, gatewayRefID string) error {
	now := m.clock.Now()

	err := m.store.InVenueTx(ctx, key.VenueID, func(tx Tx) error {
		exceptions, err := tx.ExceptionsFor(ctx, key.Date)
		if err != nil {
			return err
		}

		live, expired := current(exceptions, key, now)

		// An expired hold can still convert, but only the booking that
		// placed it may claim the slot that way.
		var held *Exception
		if expired != nil {
			if expired.BookingID != bookingID {
				return ErrSlotUnavailable
			}
			held = expired
		}
		if live != nil {
			switch live.Kind {
			case KindBooked:
				if live.BookingID == bookingID {
					// Already converted; make sure the row agrees.
					_, err := tx.ConfirmBookingRow(ctx, bookingID, gatewayRefID, now)
					return err
				}
				return ErrAlreadyBooked
			case KindHeld:
				if live.BookingID != bookingID {
					// Someone else holds the slot now; the paying booking
					// lost it (likely cancelled in the meantime) and must
					// not take the slot back.
					m.logger.WithField("booking_id", bookingID).
						Warn("paid booking cannot convert, slot held by another booking")
					return ErrSlotUnavailable
				}
				held = live
			default:
				// Blocked or reserved in the meantime; the payment is real
				// but the slot cannot be converted. The resolver flags this
				// for manual reconciliation.
				m.logger.WithField("booking_id", bookingID).
					Warn("paid booking cannot convert, slot occupied")
				return ErrSlotUnavailable
			}
		}

		if held != nil {
			if _, err := tx.Remove(ctx, key, KindHeld); err != nil {
				return err
			}
		}

		var userID string
		if held != nil {
			userID = held.UserID
		}
		if err := tx.Insert(ctx, &Exception{
			Key:           key,
			Kind:          KindBooked,
			BookingID:     bookingID,
			BookingType:   BookingTypeOnline,
			BookingStatus: "confirmed",
			UserID:        userID,
		}); err != nil {
			return err
		}

		ok, err := tx.ConfirmBookingRow(ctx, bookingID, gatewayRefID, now)
		if err != nil {
			return err
		}
		if !ok {
			// The booking row left pending_payment in the meantime
			// (cancelled, most likely); rolling back keeps the slot as it
			// was instead of booking it for a dead booking.
			return ErrBookingNotPending
		}
		return nil
	})
	if err != nil {
		return err
	}

	observability.BookingsConfirmed.Inc()
	m.cache.Invalidate(ctx, key.VenueID)
	return nil
}

func (m *manager) CancelBooking(ctx context.Context, key Key, bookingID string) error {
	err := m.store.InVenueTx(ctx, key.VenueID, func(tx Tx) error {
		exceptions, err := tx.ExceptionsFor(ctx, key.Date)
		if err != nil {
			return err
		}

		for _, e := range exceptions {
			if e.Date != key.Date || e.StartTime != key.StartTime {
				continue
			}
			if (e.Kind == KindHeld || e.Kind == KindBooked) && e.BookingID == bookingID {
				if _, err := tx.Remove(ctx, key, e.Kind); err != nil {
					return err
				}
			}
		}

		_, err = tx.SetBookingStatus(ctx, bookingID, "cancelled")
		return err
	})
	if err != nil {
		return err
	}

	m.cache.Invalidate(ctx, key.VenueID)
	return nil
}

func (m *manager) AttachHoldTransaction(ctx context.Context, key Key, transactionID string) error {
	return m.store.InVenueTx(ctx, key.VenueID, func(tx Tx) error {
		// Best effort: a missing hold (already expired and reaped) is fine,
		// the transaction id still lives on the booking row.
		_, err := tx.SetHoldTransaction(ctx, key, transactionID)
		return err
	})
}

func (m *manager) ReleaseHold(ctx context.Context, key Key) error {
	return m.remove(ctx, key, KindHeld)
}

func (m *manager) UnbookSlot(ctx context.Context, key Key) error {
	return m.remove(ctx, key, KindBooked)
}

func (m *manager) UnblockSlot(ctx context.Context, key Key) error {
	return m.remove(ctx, key, KindBlocked)
}

func (m *manager) UnreserveSlot(ctx context.Context, key Key) error {
	return m.remove(ctx, key, KindReserved)
}

// remove deletes one exception variant for the key. Removing an exception
// that does not exist is an idempotent no-op.
func (m *manager) remove(ctx context.Context, key Key, kind Kind) error {
	err := m.store.InVenueTx(ctx, key.VenueID, func(tx Tx) error {
		_, err := tx.Remove(ctx, key, kind)
		return err
	})
	if err != nil {
		return err
	}
	m.cache.Invalidate(ctx, key.VenueID)
	return nil
}

func (m *manager) BlockSlot(ctx context.Context, key Key, blockedBy, reason string) error {
	return m.insert(ctx, key, Exception{
		Key:       key,
		Kind:      KindBlocked,
		BlockedBy: blockedBy,
		Reason:    reason,
	})
}

func (m *manager) ReserveSlot(ctx context.Context, key Key, reservedBy, note string) error {
	return m.insert(ctx, key, Exception{
		Key:        key,
		Kind:       KindReserved,
		ReservedBy: reservedBy,
		Note:       note,
	})
}

func (m *manager) insert(ctx context.Context, key Key, e Exception) error {
	now := m.clock.Now()
	err := m.store.InVenueTx(ctx, key.VenueID, func(tx Tx) error {
		exceptions, err := tx.ExceptionsFor(ctx, key.Date)
		if err != nil {
			return err
		}

		live, expired := current(exceptions, key, now)
		if live != nil {
			if live.Kind == e.Kind {
				// Target state already holds.
				return nil
			}
			return ErrSlotUnavailable
		}
		if err := reapExpiredHold(ctx, tx, key, expired); err != nil {
			return err
		}

		return tx.Insert(ctx, &e)
	})
	if err != nil {
		if err == ErrSlotUnavailable {
			observability.SlotConflicts.Inc()
		}
		return err
	}

	m.cache.Invalidate(ctx, key.VenueID)
	return nil
}
