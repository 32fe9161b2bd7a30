package http

import (
	"time"

	"github.com/venuepass/venue-booking-backend/internal/booking"
)

// ComputeAmountBody accepts either the flat form or a legacy nested
// booking-preview payload; the nested form is normalized before use.
type ComputeAmountBody struct {
	VenueID   string `json:"venue_id"`
	Date      string `json:"date"`
	StartTime string `json:"start_time"`
	Slots     int    `json:"slots"`

	Booking *struct {
		VenueID   string `json:"venue_id"`
		Date      string `json:"date"`
		StartTime string `json:"start_time"`
		Slots     int    `json:"slots"`
	} `json:"booking"`
}

// Normalize folds the legacy nested payload into the flat fields.
func (b *ComputeAmountBody) Normalize() {
	if b.Booking == nil {
		return
	}
	if b.VenueID == "" {
		b.VenueID = b.Booking.VenueID
	}
	if b.Date == "" {
		b.Date = b.Booking.Date
	}
	if b.StartTime == "" {
		b.StartTime = b.Booking.StartTime
	}
	if b.Slots == 0 {
		b.Slots = b.Booking.Slots
	}
}

// BookingResponse is the public booking representation.
type BookingResponse struct {
	ID                   string         `json:"id"`
	VenueID              string         `json:"venue_id"`
	UserID               string         `json:"user_id,omitempty"`
	Date                 string         `json:"date"`
	StartTime            string         `json:"start_time"`
	EndTime              string         `json:"end_time"`
	Amount               int64          `json:"amount"`
	AdvanceAmount        int64          `json:"advance_amount"`
	Status               booking.Status `json:"status"`
	HoldExpiresAt        *time.Time     `json:"hold_expires_at,omitempty"`
	PaymentTransactionID string         `json:"payment_transaction_id,omitempty"`
	CreatedAt            time.Time      `json:"created_at"`
	VerifiedAt           *time.Time     `json:"verified_at,omitempty"`
}

func NewBookingResponse(b *booking.Booking) BookingResponse {
	return BookingResponse{
		ID:                   b.ID,
		VenueID:              b.VenueID,
		UserID:               b.UserID,
		Date:                 b.Date,
		StartTime:            b.StartTime,
		EndTime:              b.EndTime,
		Amount:               b.Amount,
		AdvanceAmount:        b.AdvanceAmount,
		Status:               b.Status,
		HoldExpiresAt:        b.HoldExpiresAt,
		PaymentTransactionID: b.PaymentTransactionID,
		CreatedAt:            b.CreatedAt,
		VerifiedAt:           b.VerifiedAt,
	}
}

// AmountResponse is the compute-amount reply.
type AmountResponse struct {
	Available    bool          `json:"available"`
	Conflicts    []string      `json:"conflicts"`
	Computed     ComputedBlock `json:"computed"`
	SlotDuration int           `json:"slotDuration"`
	SlotsCount   int           `json:"slotsCount"`
}

type ComputedBlock struct {
	TotalAmount   int64 `json:"totalAmount"`
	AdvanceAmount int64 `json:"advanceAmount"`
}

func NewAmountResponse(r *booking.AmountResult) AmountResponse {
	return AmountResponse{
		Available: r.Available,
		Conflicts: r.Conflicts,
		Computed: ComputedBlock{
			TotalAmount:   r.TotalAmount,
			AdvanceAmount: r.AdvanceAmount,
		},
		SlotDuration: r.SlotDuration,
		SlotsCount:   r.SlotsCount,
	}
}
