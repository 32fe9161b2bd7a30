package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repository interface {
	GetByID(ctx context.Context, id string) (*Booking, error)
	GetByTransactionID(ctx context.Context, transactionID string) (*Booking, error)
	List(ctx context.Context, filter Filter) ([]*Booking, int, error)
	SetPaymentTransaction(ctx context.Context, id, transactionID string) error
	// TransitionStatus updates the status only when the current status
	// matches `from`, so concurrent transitions can never clobber a
	// terminal state. ok reports whether the guarded update applied.
	TransitionStatus(ctx context.Context, id string, from, to Status) (bool, error)
	SetFailure(ctx context.Context, id, reason string) (bool, error)
	// SweepExpired transitions every pending_payment booking whose hold TTL
	// elapsed before now to expired, returning how many rows changed.
	SweepExpired(ctx context.Context, now time.Time) (int, error)
}

type pgxRepository struct {
	pool *pgxpool.Pool
}

func NewPgxRepository(pool *pgxpool.Pool) Repository {
	return &pgxRepository{pool: pool}
}

const bookingColumns = `id, venue_id, user_id, date, start_time, end_time,
	amount, advance_amount, status, hold_expires_at,
	payment_transaction_id, gateway_ref_id, failure_reason, created_at, verified_at`

func scanBooking(row pgx.Row) (*Booking, error) {
	var b Booking
	var date time.Time
	if err := row.Scan(
		&b.ID, &b.VenueID, &b.UserID, &date, &b.StartTime, &b.EndTime,
		&b.Amount, &b.AdvanceAmount, &b.Status, &b.HoldExpiresAt,
		&b.PaymentTransactionID, &b.GatewayRefID, &b.FailureReason, &b.CreatedAt, &b.VerifiedAt,
	); err != nil {
		return nil, err
	}
	b.Date = date.Format("2006-01-02")
	return &b, nil
}

func (r *pgxRepository) GetByID(ctx context.Context, id string) (*Booking, error) {
	row := r.pool.QueryRow(ctx,
		"SELECT "+bookingColumns+" FROM public.bookings WHERE id = $1", id)

	b, err := scanBooking(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get booking failed: %w", err)
	}
	return b, nil
}

func (r *pgxRepository) GetByTransactionID(ctx context.Context, transactionID string) (*Booking, error) {
	row := r.pool.QueryRow(ctx,
		"SELECT "+bookingColumns+" FROM public.bookings WHERE payment_transaction_id = $1", transactionID)

	b, err := scanBooking(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get booking by transaction failed: %w", err)
	}
	return b, nil
}

func (r *pgxRepository) List(ctx context.Context, filter Filter) ([]*Booking, int, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query := psql.Select(bookingColumns + ", count(*) OVER() as total_count").
		From("public.bookings")

	if filter.UserID != "" {
		query = query.Where(squirrel.Eq{"user_id": filter.UserID})
	}
	if filter.VenueID != "" {
		query = query.Where(squirrel.Eq{"venue_id": filter.VenueID})
	}
	if filter.Status != "" {
		query = query.Where(squirrel.Eq{"status": filter.Status})
	}

	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 {
		filter.PageSize = 20
	}
	offset := (filter.Page - 1) * filter.PageSize

	query = query.OrderBy("created_at DESC").
		Limit(uint64(filter.PageSize)).Offset(uint64(offset))

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build list bookings query failed: %w", err)
	}

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list bookings failed: %w", err)
	}
	defer rows.Close()

	var bookings []*Booking
	var total int

	for rows.Next() {
		var b Booking
		var date time.Time
		if err := rows.Scan(
			&b.ID, &b.VenueID, &b.UserID, &date, &b.StartTime, &b.EndTime,
			&b.Amount, &b.AdvanceAmount, &b.Status, &b.HoldExpiresAt,
			&b.PaymentTransactionID, &b.GatewayRefID, &b.FailureReason, &b.CreatedAt, &b.VerifiedAt,
			&total,
		); err != nil {
			return nil, 0, fmt.Errorf("scan booking failed: %w", err)
		}
		b.Date = date.Format("2006-01-02")
		bookings = append(bookings, &b)
	}

	return bookings, total, nil
}

func (r *pgxRepository) SetPaymentTransaction(ctx context.Context, id, transactionID string) error {
	ct, err := r.pool.Exec(ctx,
		"UPDATE public.bookings SET payment_transaction_id = $2 WHERE id = $1",
		id, transactionID,
	)
	if err != nil {
		return fmt.Errorf("set payment transaction failed: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *pgxRepository) TransitionStatus(ctx context.Context, id string, from, to Status) (bool, error) {
	ct, err := r.pool.Exec(ctx,
		"UPDATE public.bookings SET status = $3 WHERE id = $1 AND status = $2",
		id, from, to,
	)
	if err != nil {
		return false, fmt.Errorf("transition booking status failed: %w", err)
	}
	return ct.RowsAffected() > 0, nil
}

func (r *pgxRepository) SetFailure(ctx context.Context, id, reason string) (bool, error) {
	ct, err := r.pool.Exec(ctx, `
		UPDATE public.bookings SET status = $2, failure_reason = $3
		WHERE id = $1 AND status = $4`,
		id, StatusPaymentFailed, reason, StatusPendingPayment,
	)
	if err != nil {
		return false, fmt.Errorf("set booking failure failed: %w", err)
	}
	return ct.RowsAffected() > 0, nil
}

func (r *pgxRepository) SweepExpired(ctx context.Context, now time.Time) (int, error) {
	ct, err := r.pool.Exec(ctx, `
		UPDATE public.bookings SET status = $1
		WHERE status = $2 AND hold_expires_at IS NOT NULL AND hold_expires_at < $3`,
		StatusExpired, StatusPendingPayment, now,
	)
	if err != nil {
		return 0, fmt.Errorf("sweep expired bookings failed: %w", err)
	}
	return int(ct.RowsAffected()), nil
}
