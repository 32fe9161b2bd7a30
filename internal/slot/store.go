package slot

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Tx exposes the per-venue operations available inside a slot transaction.
// Every mutating decision the manager makes is based on reads taken through
// the same Tx, never on state read outside it.
type Tx interface {
	// ExceptionsFor returns all exceptions of the venue for one date.
	ExceptionsFor(ctx context.Context, date string) ([]Exception, error)
	Insert(ctx context.Context, e *Exception) error
	// Remove deletes the exception of the given kind for the key. Removing
	// an absent exception is not an error; ok reports whether a row went.
	Remove(ctx context.Context, key Key, kind Kind) (bool, error)
	// SetHoldTransaction records the payment transaction id on a held
	// exception.
	SetHoldTransaction(ctx context.Context, key Key, transactionID string) (bool, error)

	// Booking-row writes that must commit atomically with a slot mutation.
	InsertBooking(ctx context.Context, b *BookingRow) error
	SetBookingStatus(ctx context.Context, bookingID, status string) (bool, error)
	// ConfirmBookingRow moves a booking to confirmed. Only rows still in
	// pending_payment (or lazily expired) move; ok reports whether one did.
	ConfirmBookingRow(ctx context.Context, bookingID, gatewayRefID string, at time.Time) (bool, error)
}

// Store is the slot exception store. InVenueTx runs fn inside a serializable
// transaction that holds the venue's row lock, so all slot mutations against
// one venue serialize while different venues proceed independently.
type Store interface {
	InVenueTx(ctx context.Context, venueID string, fn func(tx Tx) error) error
	// ListRange reads exceptions for reconstruction, outside any lock.
	ListRange(ctx context.Context, venueID, fromDate, toDate string) ([]Exception, error)
}

type pgxStore struct {
	pool *pgxpool.Pool
}

func NewPgxStore(pool *pgxpool.Pool) Store {
	return &pgxStore{pool: pool}
}

func (s *pgxStore) InVenueTx(ctx context.Context, venueID string, fn func(tx Tx) error) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return fmt.Errorf("begin slot tx failed: %w", err)
	}
	defer tx.Rollback(ctx)

	// The venue row is the aggregate lock: holders of it serialize every
	// slot mutation for the venue.
	var id string
	err = tx.QueryRow(ctx, "SELECT id FROM public.venues WHERE id = $1 FOR UPDATE", venueID).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrVenueNotFound
		}
		return fmt.Errorf("lock venue failed: %w", err)
	}

	if err := fn(&pgxTx{tx: tx, venueID: venueID}); err != nil {
		return translatePgErr(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return translatePgErr(err)
	}
	return nil
}

// translatePgErr maps races surfaced by Postgres to the conflict sentinel:
// a serialization failure means another transaction won, and a unique
// violation on the exception key is the no-double-booking backstop firing.
func translatePgErr(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgerrcode.SerializationFailure, pgerrcode.UniqueViolation:
			return ErrSlotUnavailable
		}
	}
	return err
}

const exceptionColumns = `venue_id, date, start_time, kind, reason, blocked_by,
	booking_id, booking_type, booking_status, customer_name, customer_phone,
	user_id, hold_expires_at, transaction_id, note, reserved_by, created_at`

func scanException(row pgx.Row) (Exception, error) {
	var e Exception
	var date time.Time
	var expires *time.Time
	err := row.Scan(
		&e.VenueID, &date, &e.StartTime, &e.Kind, &e.Reason, &e.BlockedBy,
		&e.BookingID, &e.BookingType, &e.BookingStatus, &e.CustomerName, &e.CustomerPhone,
		&e.UserID, &expires, &e.TransactionID, &e.Note, &e.ReservedBy, &e.CreatedAt,
	)
	if err != nil {
		return Exception{}, err
	}
	e.Date = date.Format(dateLayout)
	if expires != nil {
		e.HoldExpiresAt = *expires
	}
	return e, nil
}

type pgxTx struct {
	tx      pgx.Tx
	venueID string
}

func (t *pgxTx) ExceptionsFor(ctx context.Context, date string) ([]Exception, error) {
	rows, err := t.tx.Query(ctx,
		"SELECT "+exceptionColumns+" FROM public.slot_exceptions WHERE venue_id = $1 AND date = $2",
		t.venueID, date,
	)
	if err != nil {
		return nil, fmt.Errorf("list exceptions failed: %w", err)
	}
	defer rows.Close()

	var exceptions []Exception
	for rows.Next() {
		e, err := scanException(rows)
		if err != nil {
			return nil, fmt.Errorf("scan exception failed: %w", err)
		}
		exceptions = append(exceptions, e)
	}
	return exceptions, rows.Err()
}

func (t *pgxTx) Insert(ctx context.Context, e *Exception) error {
	var expires *time.Time
	if !e.HoldExpiresAt.IsZero() {
		expires = &e.HoldExpiresAt
	}
	err := t.tx.QueryRow(ctx, `
		INSERT INTO public.slot_exceptions (
			venue_id, date, start_time, kind, reason, blocked_by,
			booking_id, booking_type, booking_status, customer_name, customer_phone,
			user_id, hold_expires_at, transaction_id, note, reserved_by
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)
		RETURNING created_at`,
		t.venueID, e.Date, e.StartTime, e.Kind, e.Reason, e.BlockedBy,
		e.BookingID, e.BookingType, e.BookingStatus, e.CustomerName, e.CustomerPhone,
		e.UserID, expires, e.TransactionID, e.Note, e.ReservedBy,
	).Scan(&e.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert exception failed: %w", err)
	}
	return nil
}

func (t *pgxTx) Remove(ctx context.Context, key Key, kind Kind) (bool, error) {
	ct, err := t.tx.Exec(ctx,
		"DELETE FROM public.slot_exceptions WHERE venue_id = $1 AND date = $2 AND start_time = $3 AND kind = $4",
		t.venueID, key.Date, key.StartTime, kind,
	)
	if err != nil {
		return false, fmt.Errorf("remove exception failed: %w", err)
	}
	return ct.RowsAffected() > 0, nil
}

func (t *pgxTx) SetHoldTransaction(ctx context.Context, key Key, transactionID string) (bool, error) {
	ct, err := t.tx.Exec(ctx, `
		UPDATE public.slot_exceptions SET transaction_id = $4
		WHERE venue_id = $1 AND date = $2 AND start_time = $3 AND kind = 'held'`,
		t.venueID, key.Date, key.StartTime, transactionID,
	)
	if err != nil {
		return false, fmt.Errorf("set hold transaction failed: %w", err)
	}
	return ct.RowsAffected() > 0, nil
}

func (t *pgxTx) InsertBooking(ctx context.Context, b *BookingRow) error {
	err := t.tx.QueryRow(ctx, `
		INSERT INTO public.bookings (
			id, venue_id, user_id, date, start_time, end_time,
			amount, advance_amount, status, hold_expires_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		RETURNING created_at`,
		b.ID, b.VenueID, b.UserID, b.Date, b.StartTime, b.EndTime,
		b.Amount, b.AdvanceAmount, b.Status, b.HoldExpiresAt,
	).Scan(&b.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert booking failed: %w", err)
	}
	return nil
}

func (t *pgxTx) SetBookingStatus(ctx context.Context, bookingID, status string) (bool, error) {
	ct, err := t.tx.Exec(ctx,
		"UPDATE public.bookings SET status = $2 WHERE id = $1",
		bookingID, status,
	)
	if err != nil {
		return false, fmt.Errorf("set booking status failed: %w", err)
	}
	return ct.RowsAffected() > 0, nil
}

func (t *pgxTx) ConfirmBookingRow(ctx context.Context, bookingID, gatewayRefID string, at time.Time) (bool, error) {
	ct, err := t.tx.Exec(ctx, `
		UPDATE public.bookings
		SET status = 'confirmed', gateway_ref_id = $2, verified_at = $3
		WHERE id = $1 AND status IN ('pending_payment', 'expired')`,
		bookingID, gatewayRefID, at,
	)
	if err != nil {
		return false, fmt.Errorf("confirm booking row failed: %w", err)
	}
	return ct.RowsAffected() > 0, nil
}

func (s *pgxStore) ListRange(ctx context.Context, venueID, fromDate, toDate string) ([]Exception, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Select(exceptionColumns).
		From("public.slot_exceptions").
		Where(squirrel.Eq{"venue_id": venueID}).
		Where(squirrel.GtOrEq{"date": fromDate}).
		Where(squirrel.LtOrEq{"date": toDate}).
		OrderBy("date", "start_time").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list exceptions query failed: %w", err)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list exceptions failed: %w", err)
	}
	defer rows.Close()

	var exceptions []Exception
	for rows.Next() {
		e, err := scanException(rows)
		if err != nil {
			return nil, fmt.Errorf("scan exception failed: %w", err)
		}
		exceptions = append(exceptions, e)
	}
	return exceptions, rows.Err()
}
