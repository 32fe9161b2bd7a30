package booking

import (
	"context"

	"github.com/venuepass/venue-booking-backend/internal/slot"
	"github.com/venuepass/venue-booking-backend/internal/venue"
)

// HoldRequest reserves one slot for online payment.
type HoldRequest struct {
	VenueID   string
	UserID    string
	Date      string
	StartTime string
}

// HoldResponse reports the granted hold with its server-computed pricing.
type HoldResponse struct {
	Booking *Booking
}

// AmountRequest is the compute-amount input. Slots is the number of
// consecutive slots starting at StartTime.
type AmountRequest struct {
	VenueID   string
	Date      string
	StartTime string
	Slots     int
}

// AmountResult is the compute-amount output, including conflict tags for any
// slot in the run that is not currently available.
type AmountResult struct {
	Available     bool
	Conflicts     []string
	TotalAmount   int64
	AdvanceAmount int64
	SlotDuration  int
	SlotsCount    int
}

type Service interface {
	// CreateHold grants a hold on the slot and creates the pending booking,
	// pricing the slot from the venue's configuration.
	CreateHold(ctx context.Context, req HoldRequest) (*Booking, error)
	GetByID(ctx context.Context, id string) (*Booking, error)
	List(ctx context.Context, filter Filter) ([]*Booking, int, error)
	// Cancel transitions a pending booking to cancelled and releases its
	// slot exception.
	Cancel(ctx context.Context, id, requesterUserID string) (*Booking, error)
	ComputeAmount(ctx context.Context, req AmountRequest) (*AmountResult, error)
	// SweepExpired expires every overdue pending booking. Invoked on
	// demand, never by a timer.
	SweepExpired(ctx context.Context, requesterUserID string) (int, error)
}

type service struct {
	repo    Repository
	venues  venue.Service
	slots   slot.Service
	manager slot.Manager
	clock   slot.Clock
}

func NewService(repo Repository, venues venue.Service, slots slot.Service, manager slot.Manager, clock slot.Clock) Service {
	if clock == nil {
		clock = slot.SystemClock()
	}
	return &service{
		repo:    repo,
		venues:  venues,
		slots:   slots,
		manager: manager,
		clock:   clock,
	}
}

func (s *service) CreateHold(ctx context.Context, req HoldRequest) (*Booking, error) {
	v, err := s.venues.GetByID(ctx, req.VenueID)
	if err != nil {
		return nil, err
	}
	cfg, err := s.venues.GetSlotConfig(ctx, req.VenueID)
	if err != nil {
		return nil, err
	}

	endTime, err := slot.SlotEnd(req.StartTime, cfg.SlotDurationMinutes)
	if err != nil {
		return nil, err
	}
	total, advance := venue.ComputeAmounts(v, 1)

	result, err := s.manager.HoldSlot(ctx, slot.HoldRequest{
		Key: slot.Key{
			VenueID:   req.VenueID,
			Date:      req.Date,
			StartTime: req.StartTime,
		},
		UserID:        req.UserID,
		EndTime:       endTime,
		Amount:        total,
		AdvanceAmount: advance,
	})
	if err != nil {
		return nil, err
	}

	return s.repo.GetByID(ctx, result.BookingID)
}

// GetByID returns the booking, lazily expiring it when its hold TTL elapsed
// without a confirmed payment. The guarded transition means a concurrent
// confirmation always wins over expiry.
func (s *service) GetByID(ctx context.Context, id string) (*Booking, error) {
	b, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if b.Status == StatusPendingPayment && b.HoldElapsed(s.clock.Now()) {
		ok, err := s.repo.TransitionStatus(ctx, id, StatusPendingPayment, StatusExpired)
		if err != nil {
			return nil, err
		}
		if ok {
			b.Status = StatusExpired
		} else {
			// Someone transitioned it meanwhile; re-read the truth.
			return s.repo.GetByID(ctx, id)
		}
	}

	return b, nil
}

func (s *service) List(ctx context.Context, filter Filter) ([]*Booking, int, error) {
	return s.repo.List(ctx, filter)
}

func (s *service) Cancel(ctx context.Context, id, requesterUserID string) (*Booking, error) {
	b, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !s.mayManage(ctx, b, requesterUserID) {
		return nil, ErrPermissionDenied
	}
	if !CanTransition(b.Status, StatusCancelled) {
		return nil, ErrNotPayable
	}

	key := slot.Key{VenueID: b.VenueID, Date: b.Date, StartTime: b.StartTime}
	if err := s.manager.CancelBooking(ctx, key, b.ID); err != nil {
		return nil, err
	}

	return s.repo.GetByID(ctx, id)
}

// mayManage reports whether the requester owns the booking or the venue.
func (s *service) mayManage(ctx context.Context, b *Booking, userID string) bool {
	if userID == "" {
		return false
	}
	if b.UserID == userID {
		return true
	}
	v, err := s.venues.GetByID(ctx, b.VenueID)
	if err != nil {
		return false
	}
	return v.OwnerID == userID
}

func (s *service) ComputeAmount(ctx context.Context, req AmountRequest) (*AmountResult, error) {
	if req.Slots < 1 {
		req.Slots = 1
	}

	v, err := s.venues.GetByID(ctx, req.VenueID)
	if err != nil {
		return nil, err
	}

	check, err := s.slots.CheckSlots(ctx, req.VenueID, req.Date, req.StartTime, req.Slots)
	if err != nil {
		return nil, err
	}

	total, advance := venue.ComputeAmounts(v, req.Slots)
	return &AmountResult{
		Available:     check.Available,
		Conflicts:     check.Conflicts,
		TotalAmount:   total,
		AdvanceAmount: advance,
		SlotDuration:  check.SlotDuration,
		SlotsCount:    check.SlotsCount,
	}, nil
}

func (s *service) SweepExpired(ctx context.Context, requesterUserID string) (int, error) {
	return s.repo.SweepExpired(ctx, s.clock.Now())
}
