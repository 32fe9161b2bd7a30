package venue

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repository interface {
	Create(ctx context.Context, v *Venue) error
	GetByID(ctx context.Context, id string) (*Venue, error)
	List(ctx context.Context, page, pageSize int) ([]*Venue, int, error)
	GetSlotConfig(ctx context.Context, venueID string) (*SlotConfig, error)
	UpsertSlotConfig(ctx context.Context, cfg *SlotConfig) error
}

type pgxRepository struct {
	pool *pgxpool.Pool
}

func NewPgxRepository(pool *pgxpool.Pool) Repository {
	return &pgxRepository{pool: pool}
}

func (r *pgxRepository) Create(ctx context.Context, v *Venue) error {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Insert("public.venues").
		Columns("name", "owner_id", "price_per_slot", "advance_percent").
		Values(v.Name, v.OwnerID, v.PricePerSlot, v.AdvancePercent).
		Suffix("RETURNING id, created_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build create venue query failed: %w", err)
	}

	return r.pool.QueryRow(ctx, query, args...).
		Scan(&v.ID, &v.CreatedAt)
}

func (r *pgxRepository) GetByID(ctx context.Context, id string) (*Venue, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Select(
		"id", "name", "owner_id", "price_per_slot", "advance_percent", "created_at",
	).
		From("public.venues").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get venue query failed: %w", err)
	}

	var v Venue
	if err := r.pool.QueryRow(ctx, query, args...).Scan(
		&v.ID, &v.Name, &v.OwnerID, &v.PricePerSlot, &v.AdvancePercent, &v.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get venue failed: %w", err)
	}
	return &v, nil
}

func (r *pgxRepository) List(ctx context.Context, page, pageSize int) ([]*Venue, int, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Select(
		"id", "name", "owner_id", "price_per_slot", "advance_percent", "created_at",
		"count(*) OVER() as total_count",
	).
		From("public.venues").
		OrderBy("created_at DESC").
		Limit(uint64(pageSize)).Offset(uint64(offset)).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build list venues query failed: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list venues failed: %w", err)
	}
	defer rows.Close()

	var venues []*Venue
	var total int

	for rows.Next() {
		var v Venue
		if err := rows.Scan(
			&v.ID, &v.Name, &v.OwnerID, &v.PricePerSlot, &v.AdvancePercent, &v.CreatedAt, &total,
		); err != nil {
			return nil, 0, fmt.Errorf("scan venue failed: %w", err)
		}
		venues = append(venues, &v)
	}

	return venues, total, nil
}

func (r *pgxRepository) GetSlotConfig(ctx context.Context, venueID string) (*SlotConfig, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Select(
		"venue_id", "start_time", "end_time", "slot_duration_minutes", "days_of_week", "timezone", "updated_at",
	).
		From("public.slot_configs").
		Where(squirrel.Eq{"venue_id": venueID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get slot config query failed: %w", err)
	}

	var cfg SlotConfig
	if err := r.pool.QueryRow(ctx, query, args...).Scan(
		&cfg.VenueID, &cfg.StartTime, &cfg.EndTime, &cfg.SlotDurationMinutes,
		&cfg.DaysOfWeek, &cfg.Timezone, &cfg.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrConfigNotFound
		}
		return nil, fmt.Errorf("get slot config failed: %w", err)
	}
	return &cfg, nil
}

func (r *pgxRepository) UpsertSlotConfig(ctx context.Context, cfg *SlotConfig) error {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Insert("public.slot_configs").
		Columns("venue_id", "start_time", "end_time", "slot_duration_minutes", "days_of_week", "timezone").
		Values(cfg.VenueID, cfg.StartTime, cfg.EndTime, cfg.SlotDurationMinutes, cfg.DaysOfWeek, cfg.Timezone).
		Suffix(`ON CONFLICT (venue_id) DO UPDATE SET
			start_time = EXCLUDED.start_time,
			end_time = EXCLUDED.end_time,
			slot_duration_minutes = EXCLUDED.slot_duration_minutes,
			days_of_week = EXCLUDED.days_of_week,
			timezone = EXCLUDED.timezone,
			updated_at = now()
		RETURNING updated_at`).
		ToSql()
	if err != nil {
		return fmt.Errorf("build upsert slot config query failed: %w", err)
	}

	return r.pool.QueryRow(ctx, query, args...).Scan(&cfg.UpdatedAt)
}
