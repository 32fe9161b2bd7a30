package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/venuepass/venue-booking-backend/internal/payment"
	"github.com/venuepass/venue-booking-backend/internal/pkg/response"
)

type Handler struct {
	service payment.Service
}

func NewHandler(service payment.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) Initiate(c *gin.Context) {
	var body InitiateBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "booking_id is required"})
		return
	}

	result, err := h.service.Initiate(c.Request.Context(), body.BookingID)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, NewInitiateResponse(result))
}

func (h *Handler) Verify(c *gin.Context) {
	var body VerifyBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "transaction_uuid is required"})
		return
	}

	result, err := h.service.Verify(c.Request.Context(), body.TransactionUUID)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, NewVerifyResponse(result))
}
