package http

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/venuepass/venue-booking-backend/internal/auth"
	"github.com/venuepass/venue-booking-backend/internal/booking"
	"github.com/venuepass/venue-booking-backend/internal/pkg/response"
	"github.com/venuepass/venue-booking-backend/internal/slot"
	"github.com/venuepass/venue-booking-backend/internal/venue"
)

type Handler struct {
	slots    slot.Service
	manager  slot.Manager
	bookings booking.Service
	venues   venue.Service
}

func NewHandler(slots slot.Service, manager slot.Manager, bookings booking.Service, venues venue.Service) *Handler {
	return &Handler{
		slots:    slots,
		manager:  manager,
		bookings: bookings,
		venues:   venues,
	}
}

func (h *Handler) venueID(c *gin.Context) (string, bool) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid UUID"})
		return "", false
	}
	return id, true
}

// requireOwner aborts unless the authenticated user owns the venue.
func (h *Handler) requireOwner(c *gin.Context, venueID string) bool {
	v, err := h.venues.GetByID(c.Request.Context(), venueID)
	if err != nil {
		response.Error(c, err)
		return false
	}
	if v.OwnerID != auth.GetUserID(c) {
		c.JSON(http.StatusForbidden, gin.H{"error": "only the venue owner may do this"})
		return false
	}
	return true
}

func (h *Handler) GetAvailability(c *gin.Context) {
	venueID, ok := h.venueID(c)
	if !ok {
		return
	}

	var q AvailabilityQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid query parameters", "details": err.Error()})
		return
	}
	if q.From > q.To {
		c.JSON(http.StatusBadRequest, gin.H{"error": "from must not be after to"})
		return
	}

	slots, err := h.slots.GetAvailability(c.Request.Context(), venueID, q.From, q.To)
	if err != nil {
		response.Error(c, err)
		return
	}

	if slots == nil {
		slots = []slot.ReconstructedSlot{}
	}
	c.JSON(http.StatusOK, gin.H{"slots": slots})
}

func (h *Handler) Hold(c *gin.Context) {
	venueID, ok := h.venueID(c)
	if !ok {
		return
	}

	var body SlotKeyBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	userID := auth.GetUserID(c)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	b, err := h.bookings.CreateHold(c.Request.Context(), booking.HoldRequest{
		VenueID:   venueID,
		UserID:    userID,
		Date:      body.Date,
		StartTime: body.StartTime,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"booking_id":      b.ID,
		"date":            b.Date,
		"start_time":      b.StartTime,
		"end_time":        b.EndTime,
		"status":          b.Status,
		"amount":          b.Amount,
		"advance_amount":  b.AdvanceAmount,
		"hold_expires_at": b.HoldExpiresAt,
	})
}

func (h *Handler) Book(c *gin.Context) {
	venueID, ok := h.venueID(c)
	if !ok {
		return
	}
	if !h.requireOwner(c, venueID) {
		return
	}

	var body BookBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	v, err := h.venues.GetByID(c.Request.Context(), venueID)
	if err != nil {
		response.Error(c, err)
		return
	}
	cfg, err := h.venues.GetSlotConfig(c.Request.Context(), venueID)
	if err != nil {
		response.Error(c, err)
		return
	}
	endTime, err := slot.SlotEnd(body.StartTime, cfg.SlotDurationMinutes)
	if err != nil {
		response.Error(c, err)
		return
	}
	total, advance := venue.ComputeAmounts(v, 1)

	result, err := h.manager.BookSlot(c.Request.Context(), slot.BookRequest{
		Key: slot.Key{
			VenueID:   venueID,
			Date:      body.Date,
			StartTime: body.StartTime,
		},
		EndTime:       endTime,
		CustomerName:  body.CustomerName,
		CustomerPhone: body.CustomerPhone,
		Amount:        total,
		AdvanceAmount: advance,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"booking_id": result.BookingID})
}

func (h *Handler) Unbook(c *gin.Context) {
	h.ownerKeyOp(c, h.manager.UnbookSlot)
}

func (h *Handler) Release(c *gin.Context) {
	h.ownerKeyOp(c, h.manager.ReleaseHold)
}

func (h *Handler) Unblock(c *gin.Context) {
	h.ownerKeyOp(c, h.manager.UnblockSlot)
}

func (h *Handler) Unreserve(c *gin.Context) {
	h.ownerKeyOp(c, h.manager.UnreserveSlot)
}

// ownerKeyOp runs a single-exception manager operation after the owner check.
func (h *Handler) ownerKeyOp(c *gin.Context, op func(ctx context.Context, key slot.Key) error) {
	venueID, ok := h.venueID(c)
	if !ok {
		return
	}
	if !h.requireOwner(c, venueID) {
		return
	}

	var body SlotKeyBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	err := op(c.Request.Context(), slot.Key{
		VenueID:   venueID,
		Date:      body.Date,
		StartTime: body.StartTime,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *Handler) Block(c *gin.Context) {
	venueID, ok := h.venueID(c)
	if !ok {
		return
	}
	if !h.requireOwner(c, venueID) {
		return
	}

	var body BlockBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	key := slot.Key{VenueID: venueID, Date: body.Date, StartTime: body.StartTime}
	if err := h.manager.BlockSlot(c.Request.Context(), key, auth.GetUserID(c), body.Reason); err != nil {
		response.Error(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *Handler) Reserve(c *gin.Context) {
	venueID, ok := h.venueID(c)
	if !ok {
		return
	}
	if !h.requireOwner(c, venueID) {
		return
	}

	var body ReserveBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	key := slot.Key{VenueID: venueID, Date: body.Date, StartTime: body.StartTime}
	if err := h.manager.ReserveSlot(c.Request.Context(), key, auth.GetUserID(c), body.Note); err != nil {
		response.Error(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
