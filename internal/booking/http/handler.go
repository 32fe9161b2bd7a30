package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/venuepass/venue-booking-backend/internal/auth"
	"github.com/venuepass/venue-booking-backend/internal/booking"
	"github.com/venuepass/venue-booking-backend/internal/pkg/response"
)

type Handler struct {
	service booking.Service
}

func NewHandler(service booking.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	status := c.Query("status")
	if status != "" {
		normalized, ok := booking.NormalizeStatus(status)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid booking status"})
			return
		}
		status = string(normalized)
	}

	// Users only ever see their own bookings.
	filter := booking.Filter{
		UserID:   auth.GetUserID(c),
		VenueID:  c.Query("venue_id"),
		Status:   status,
		Page:     page,
		PageSize: pageSize,
	}

	bookings, total, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list bookings"})
		return
	}

	items := make([]BookingResponse, len(bookings))
	for i, b := range bookings {
		items[i] = NewBookingResponse(b)
	}

	c.JSON(http.StatusOK, response.NewPageResponse(items, page, pageSize, total))
}

func (h *Handler) Get(c *gin.Context) {
	b, err := h.service.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, NewBookingResponse(b))
}

func (h *Handler) Cancel(c *gin.Context) {
	b, err := h.service.Cancel(c.Request.Context(), c.Param("id"), auth.GetUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, NewBookingResponse(b))
}

func (h *Handler) ComputeAmount(c *gin.Context) {
	var body ComputeAmountBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}
	body.Normalize()

	if body.VenueID == "" || body.Date == "" || body.StartTime == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "venue_id, date and start_time are required"})
		return
	}

	result, err := h.service.ComputeAmount(c.Request.Context(), booking.AmountRequest{
		VenueID:   body.VenueID,
		Date:      body.Date,
		StartTime: body.StartTime,
		Slots:     body.Slots,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, NewAmountResponse(result))
}

func (h *Handler) SweepExpired(c *gin.Context) {
	count, err := h.service.SweepExpired(c.Request.Context(), auth.GetUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"expired": count})
}
