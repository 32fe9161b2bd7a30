package http

import (
	"time"

	"github.com/venuepass/venue-booking-backend/internal/venue"
)

// CreateVenueBody is the request body for creating a venue.
type CreateVenueBody struct {
	Name           string `json:"name" binding:"required"`
	PricePerSlot   int64  `json:"price_per_slot" binding:"required,gt=0"`
	AdvancePercent int    `json:"advance_percent" binding:"omitempty,gte=0,lte=100"`
}

// UpdateConfigBody is the request body for replacing a venue's slot
// configuration.
type UpdateConfigBody struct {
	StartTime           string `json:"start_time" binding:"required"`
	EndTime             string `json:"end_time" binding:"required"`
	SlotDurationMinutes int    `json:"slot_duration_minutes" binding:"required"`
	DaysOfWeek          []int  `json:"days_of_week" binding:"required"`
	Timezone            string `json:"timezone" binding:"required"`
}

// VenueResponse is the public venue representation.
type VenueResponse struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	OwnerID        string    `json:"owner_id"`
	PricePerSlot   int64     `json:"price_per_slot"`
	AdvancePercent int       `json:"advance_percent"`
	CreatedAt      time.Time `json:"created_at"`
}

func NewVenueResponse(v *venue.Venue) VenueResponse {
	return VenueResponse{
		ID:             v.ID,
		Name:           v.Name,
		OwnerID:        v.OwnerID,
		PricePerSlot:   v.PricePerSlot,
		AdvancePercent: v.AdvancePercent,
		CreatedAt:      v.CreatedAt,
	}
}

// ConfigResponse is the public slot configuration representation.
type ConfigResponse struct {
	VenueID             string `json:"venue_id"`
	StartTime           string `json:"start_time"`
	EndTime             string `json:"end_time"`
	SlotDurationMinutes int    `json:"slot_duration_minutes"`
	DaysOfWeek          []int  `json:"days_of_week"`
	Timezone            string `json:"timezone"`
}

func NewConfigResponse(cfg *venue.SlotConfig) ConfigResponse {
	return ConfigResponse{
		VenueID:             cfg.VenueID,
		StartTime:           cfg.StartTime,
		EndTime:             cfg.EndTime,
		SlotDurationMinutes: cfg.SlotDurationMinutes,
		DaysOfWeek:          cfg.DaysOfWeek,
		Timezone:            cfg.Timezone,
	}
}
