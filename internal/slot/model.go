package slot

import (
	"net/http"
	"time"

	"github.com/venuepass/venue-booking-backend/internal/pkg/apperror"
)

var (
	ErrSlotUnavailable   = apperror.New(http.StatusConflict, "slot is not available")
	ErrAlreadyBooked     = apperror.New(http.StatusConflict, "slot is already booked")
	ErrBookingNotPending = apperror.New(http.StatusConflict, "booking is not awaiting payment")
	ErrVenueNotFound     = apperror.New(http.StatusNotFound, "venue not found")
	ErrInvalidSlot       = apperror.New(http.StatusBadRequest, "not a valid slot for this venue")
	ErrPastSlot          = apperror.New(http.StatusBadRequest, "slot is in the past")
)

// Kind discriminates the slot exception union.
type Kind string

const (
	KindBlocked  Kind = "blocked"
	KindBooked   Kind = "booked"
	KindHeld     Kind = "held"
	KindReserved Kind = "reserved"
)

// Booking types carried on a booked exception.
const (
	BookingTypePhysical = "physical"
	BookingTypeOnline   = "online"
)

// Key identifies one slot of one venue. Date is "2006-01-02", StartTime is
// wall-clock "15:04" in the venue's timezone.
type Key struct {
	VenueID   string
	Date      string
	StartTime string
}

// Exception is one deviation from default availability. At most one
// exception may exist per Key; the store enforces this with a unique
// constraint and the manager never inserts without re-reading first.
type Exception struct {
	Key
	Kind Kind

	// blocked
	Reason    string
	BlockedBy string

	// booked
	BookingID     string
	BookingType   string // physical | online
	BookingStatus string // confirmed | pending_payment
	CustomerName  string
	CustomerPhone string

	// held (BookingID is shared with the booked variant)
	UserID        string
	HoldExpiresAt time.Time
	TransactionID string

	// reserved
	Note       string
	ReservedBy string

	CreatedAt time.Time
}

// HoldExpired reports whether this is a held exception whose TTL has
// elapsed. Expired holds are treated as absent everywhere; they are only
// physically removed by the next mutation against the same key.
func (e Exception) HoldExpired(now time.Time) bool {
	return e.Kind == KindHeld && !e.HoldExpiresAt.After(now)
}

// Status is the user-visible state of a reconstructed slot.
type Status string

const (
	StatusAvailable Status = "AVAILABLE"
	StatusBlocked   Status = "BLOCKED"
	StatusBooked    Status = "BOOKED"
	StatusHeld      Status = "HELD"
	StatusReserved  Status = "RESERVED"
)

// ConflictTag returns the lowercase conflict tag for a non-available status.
func (s Status) ConflictTag() string {
	switch s {
	case StatusBlocked:
		return "blocked"
	case StatusBooked:
		return "booked"
	case StatusHeld:
		return "held"
	case StatusReserved:
		return "reserved"
	}
	return ""
}

// ReconstructedSlot is computed on read and never persisted.
type ReconstructedSlot struct {
	Date      string `json:"date"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Status    Status `json:"status"`

	Reason        string     `json:"reason,omitempty"`
	BookingID     string     `json:"booking_id,omitempty"`
	BookingType   string     `json:"booking_type,omitempty"`
	CustomerName  string     `json:"customer_name,omitempty"`
	UserID        string     `json:"user_id,omitempty"`
	HoldExpiresAt *time.Time `json:"hold_expires_at,omitempty"`
	Note          string     `json:"note,omitempty"`
	ReservedBy    string     `json:"reserved_by,omitempty"`
}

// BookingRow is the bookings-table write the transaction manager performs in
// the same transaction as a slot mutation. The booking package owns reads and
// status bookkeeping; writes that must be atomic with an exception change
// happen here.
type BookingRow struct {
	ID            string
	VenueID       string
	UserID        string
	Date          string
	StartTime     string
	EndTime       string
	Amount        int64
	AdvanceAmount int64
	Status        string
	HoldExpiresAt *time.Time
	CreatedAt     time.Time
}

// Clock abstracts time.Now so reconstruction and expiry are deterministic
// under test.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock returns the wall clock.
func SystemClock() Clock { return systemClock{} }
