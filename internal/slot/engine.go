package slot

import (
	"time"

	"github.com/venuepass/venue-booking-backend/internal/venue"
)

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04"
)

// kindPrecedence orders exception kinds for status resolution:
// Blocked > Booked > Held (unexpired) > Reserved > Available.
var kindPrecedence = []Kind{KindBlocked, KindBooked, KindHeld, KindReserved}

// Reconstruct generates every theoretical slot of the venue between fromDate
// and toDate inclusive (both "2006-01-02", interpreted in the config's
// timezone) and overlays the exception list to produce each slot's status.
//
// The function is pure: identical inputs and the same now yield identical
// output. It never mutates exceptions; a held exception whose TTL elapsed is
// simply reported as available. Slots whose start time is before now are
// omitted entirely.
func Reconstruct(cfg *venue.SlotConfig, exceptions []Exception, fromDate, toDate string, now time.Time) ([]ReconstructedSlot, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	from, err := time.ParseInLocation(dateLayout, fromDate, loc)
	if err != nil {
		return nil, ErrInvalidSlot
	}
	to, err := time.ParseInLocation(dateLayout, toDate, loc)
	if err != nil {
		return nil, ErrInvalidSlot
	}

	open, err := time.Parse(timeLayout, cfg.StartTime)
	if err != nil {
		return nil, ErrInvalidSlot
	}
	close, err := time.Parse(timeLayout, cfg.EndTime)
	if err != nil {
		return nil, ErrInvalidSlot
	}
	step := time.Duration(cfg.SlotDurationMinutes) * time.Minute

	// Index exceptions by (date, start) for the overlay pass.
	index := make(map[[2]string][]Exception, len(exceptions))
	for _, e := range exceptions {
		k := [2]string{e.Date, e.StartTime}
		index[k] = append(index[k], e)
	}

	var slots []ReconstructedSlot
	for day := from; !day.After(to); day = day.AddDate(0, 0, 1) {
		if !cfg.HasDay(day.Weekday()) {
			continue
		}

		dateStr := day.Format(dateLayout)
		for t := open; !t.Add(step).After(close); t = t.Add(step) {
			start := time.Date(day.Year(), day.Month(), day.Day(), t.Hour(), t.Minute(), 0, 0, loc)
			if start.Before(now) {
				// Past slots are implicitly unavailable regardless of state.
				continue
			}

			s := ReconstructedSlot{
				Date:      dateStr,
				StartTime: t.Format(timeLayout),
				EndTime:   t.Add(step).Format(timeLayout),
				Status:    StatusAvailable,
			}
			overlay(&s, index[[2]string{dateStr, s.StartTime}], now)
			slots = append(slots, s)
		}
	}

	return slots, nil
}

// overlay applies the winning exception, if any, to the slot.
func overlay(s *ReconstructedSlot, candidates []Exception, now time.Time) {
	for _, kind := range kindPrecedence {
		for _, e := range candidates {
			if e.Kind != kind {
				continue
			}
			if e.HoldExpired(now) {
				// Lazy expiry: visible as available, not yet removed.
				continue
			}
			apply(s, e)
			return
		}
	}
}

func apply(s *ReconstructedSlot, e Exception) {
	switch e.Kind {
	case KindBlocked:
		s.Status = StatusBlocked
		s.Reason = e.Reason
	case KindBooked:
		s.Status = StatusBooked
		s.BookingID = e.BookingID
		s.BookingType = e.BookingType
		s.CustomerName = e.CustomerName
		s.UserID = e.UserID
	case KindHeld:
		s.Status = StatusHeld
		s.BookingID = e.BookingID
		s.UserID = e.UserID
		expires := e.HoldExpiresAt
		s.HoldExpiresAt = &expires
	case KindReserved:
		s.Status = StatusReserved
		s.Note = e.Note
		s.ReservedBy = e.ReservedBy
	}
}
