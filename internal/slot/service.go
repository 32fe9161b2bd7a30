package slot

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/venuepass/venue-booking-backend/internal/venue"
)

// SlotCheck reports availability of a run of consecutive slots, used by the
// compute-amount flow.
type SlotCheck struct {
	Available    bool
	Conflicts    []string
	SlotDuration int
	SlotsCount   int
	EndTime      string
}

// Service is the read side: reconstructing availability from configuration
// plus exceptions.
type Service interface {
	GetAvailability(ctx context.Context, venueID, fromDate, toDate string) ([]ReconstructedSlot, error)
	// CheckSlots evaluates `count` consecutive slots starting at startTime
	// on date, returning conflict tags for any that are not available.
	CheckSlots(ctx context.Context, venueID, date, startTime string, count int) (*SlotCheck, error)
}

type service struct {
	venues venue.Service
	store  Store
	cache  *AvailabilityCache
	clock  Clock
}

func NewService(venues venue.Service, store Store, cache *AvailabilityCache, clock Clock) Service {
	if clock == nil {
		clock = SystemClock()
	}
	return &service{venues: venues, store: store, cache: cache, clock: clock}
}

func (s *service) GetAvailability(ctx context.Context, venueID, fromDate, toDate string) ([]ReconstructedSlot, error) {
	if slots, ok := s.cache.Get(ctx, venueID, fromDate, toDate); ok {
		return slots, nil
	}

	var cfg *venue.SlotConfig
	var exceptions []Exception

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		cfg, err = s.venues.GetSlotConfig(gctx, venueID)
		return err
	})
	g.Go(func() error {
		var err error
		exceptions, err = s.store.ListRange(gctx, venueID, fromDate, toDate)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	slots, err := Reconstruct(cfg, exceptions, fromDate, toDate, s.clock.Now())
	if err != nil {
		return nil, err
	}

	s.cache.Set(ctx, venueID, fromDate, toDate, slots)
	return slots, nil
}

func (s *service) CheckSlots(ctx context.Context, venueID, date, startTime string, count int) (*SlotCheck, error) {
	if count < 1 {
		count = 1
	}

	cfg, err := s.venues.GetSlotConfig(ctx, venueID)
	if err != nil {
		return nil, err
	}
	exceptions, err := s.store.ListRange(ctx, venueID, date, date)
	if err != nil {
		return nil, err
	}

	slots, err := Reconstruct(cfg, exceptions, date, date, s.clock.Now())
	if err != nil {
		return nil, err
	}

	start := -1
	for i, slot := range slots {
		if slot.StartTime == startTime {
			start = i
			break
		}
	}
	if start < 0 || start+count > len(slots) {
		// Requested run does not exist on the venue's grid (wrong start,
		// inactive day, or already in the past).
		return nil, ErrInvalidSlot
	}

	check := &SlotCheck{
		Available:    true,
		Conflicts:    []string{},
		SlotDuration: cfg.SlotDurationMinutes,
		SlotsCount:   count,
		EndTime:      slots[start+count-1].EndTime,
	}
	for _, slot := range slots[start : start+count] {
		if slot.Status != StatusAvailable {
			check.Available = false
			check.Conflicts = append(check.Conflicts, slot.Status.ConflictTag())
		}
	}
	return check, nil
}

// SlotEnd computes the wall-clock end of a slot starting at startTime.
func SlotEnd(startTime string, durationMinutes int) (string, error) {
	t, err := time.Parse(timeLayout, startTime)
	if err != nil {
		return "", ErrInvalidSlot
	}
	return t.Add(time.Duration(durationMinutes) * time.Minute).Format(timeLayout), nil
}
