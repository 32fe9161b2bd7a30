package venue

import (
	"net/http"
	"time"

	"github.com/venuepass/venue-booking-backend/internal/pkg/apperror"
)

var (
	ErrNotFound         = apperror.New(http.StatusNotFound, "venue not found")
	ErrConfigNotFound   = apperror.New(http.StatusNotFound, "slot configuration not found")
	ErrNotOwner         = apperror.New(http.StatusForbidden, "only the venue owner may do this")
	ErrInvalidTimeRange = apperror.New(http.StatusBadRequest, "opening time must be before closing time")
	ErrInvalidDuration  = apperror.New(http.StatusBadRequest, "slot duration must be between 15 and 240 minutes")
	ErrDurationTooLong  = apperror.New(http.StatusBadRequest, "slot duration does not fit the operating window")
	ErrNoDays           = apperror.New(http.StatusBadRequest, "at least one active weekday is required")
	ErrInvalidDay       = apperror.New(http.StatusBadRequest, "weekdays must be between 0 (Sunday) and 6 (Saturday)")
	ErrInvalidTimezone  = apperror.New(http.StatusBadRequest, "unknown timezone")
	ErrEmptyName        = apperror.New(http.StatusBadRequest, "name cannot be empty")
)

const (
	MinSlotDuration = 15
	MaxSlotDuration = 240
)

// Venue is a bookable facility owned by a manager account.
type Venue struct {
	ID             string
	Name           string
	OwnerID        string
	PricePerSlot   int64 // price of one slot in the smallest currency unit
	AdvancePercent int   // share of the total collected up front, 0-100
	CreatedAt      time.Time
}

// SlotConfig is the compact per-venue schedule from which the full set of
// theoretical slots is reconstructed.
type SlotConfig struct {
	VenueID             string
	StartTime           string // local wall-clock "15:04"
	EndTime             string // local wall-clock "15:04"
	SlotDurationMinutes int
	DaysOfWeek          []int // 0 = Sunday .. 6 = Saturday
	Timezone            string
	UpdatedAt           time.Time
}

// HasDay reports whether the given weekday is active.
func (c SlotConfig) HasDay(d time.Weekday) bool {
	for _, day := range c.DaysOfWeek {
		if day == int(d) {
			return true
		}
	}
	return false
}

// Location loads the config's timezone.
func (c SlotConfig) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, ErrInvalidTimezone
	}
	return loc, nil
}

// ComputeAmounts returns the server-side total and advance amounts for
// booking the given number of slots at this venue. Client-supplied amounts
// are never trusted; this is the single source of pricing truth.
func ComputeAmounts(v *Venue, slots int) (total, advance int64) {
	total = v.PricePerSlot * int64(slots)
	advance = total * int64(v.AdvancePercent) / 100
	return total, advance
}
