package venue

import (
	"context"
	"time"
)

type CreateRequest struct {
	Name           string
	OwnerID        string
	PricePerSlot   int64
	AdvancePercent int
}

type UpdateConfigRequest struct {
	StartTime           string
	EndTime             string
	SlotDurationMinutes int
	DaysOfWeek          []int
	Timezone            string
}

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Venue, error)
	GetByID(ctx context.Context, id string) (*Venue, error)
	List(ctx context.Context, page, pageSize int) ([]*Venue, int, error)
	GetSlotConfig(ctx context.Context, venueID string) (*SlotConfig, error)
	UpdateSlotConfig(ctx context.Context, venueID, updaterUserID string, req UpdateConfigRequest) (*SlotConfig, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) Create(ctx context.Context, req CreateRequest) (*Venue, error) {
	if req.Name == "" {
		return nil, ErrEmptyName
	}

	v := &Venue{
		Name:           req.Name,
		OwnerID:        req.OwnerID,
		PricePerSlot:   req.PricePerSlot,
		AdvancePercent: req.AdvancePercent,
	}

	if err := s.repo.Create(ctx, v); err != nil {
		return nil, err
	}

	return v, nil
}

func (s *service) GetByID(ctx context.Context, id string) (*Venue, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) List(ctx context.Context, page, pageSize int) ([]*Venue, int, error) {
	return s.repo.List(ctx, page, pageSize)
}

func (s *service) GetSlotConfig(ctx context.Context, venueID string) (*SlotConfig, error) {
	return s.repo.GetSlotConfig(ctx, venueID)
}

func (s *service) UpdateSlotConfig(ctx context.Context, venueID, updaterUserID string, req UpdateConfigRequest) (*SlotConfig, error) {
	v, err := s.repo.GetByID(ctx, venueID)
	if err != nil {
		return nil, err
	}
	// Only the owning manager may change the schedule.
	if v.OwnerID != updaterUserID {
		return nil, ErrNotOwner
	}

	cfg := &SlotConfig{
		VenueID:             venueID,
		StartTime:           req.StartTime,
		EndTime:             req.EndTime,
		SlotDurationMinutes: req.SlotDurationMinutes,
		DaysOfWeek:          req.DaysOfWeek,
		Timezone:            req.Timezone,
	}

	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	if err := s.repo.UpsertSlotConfig(ctx, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func validateConfig(cfg *SlotConfig) error {
	start, err := time.Parse("15:04", cfg.StartTime)
	if err != nil {
		return ErrInvalidTimeRange
	}
	end, err := time.Parse("15:04", cfg.EndTime)
	if err != nil {
		return ErrInvalidTimeRange
	}
	if !start.Before(end) {
		return ErrInvalidTimeRange
	}

	if cfg.SlotDurationMinutes < MinSlotDuration || cfg.SlotDurationMinutes > MaxSlotDuration {
		return ErrInvalidDuration
	}
	if end.Sub(start) < time.Duration(cfg.SlotDurationMinutes)*time.Minute {
		return ErrDurationTooLong
	}

	if len(cfg.DaysOfWeek) == 0 {
		return ErrNoDays
	}
	for _, d := range cfg.DaysOfWeek {
		if d < 0 || d > 6 {
			return ErrInvalidDay
		}
	}

	if _, err := time.LoadLocation(cfg.Timezone); err != nil {
		return ErrInvalidTimezone
	}

	return nil
}
