package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS public.venues (
	id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	name TEXT NOT NULL,
	owner_id TEXT NOT NULL,
	price_per_slot BIGINT NOT NULL DEFAULT 0,
	advance_percent INT NOT NULL DEFAULT 0,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS public.slot_configs (
	venue_id UUID PRIMARY KEY REFERENCES public.venues(id) ON DELETE CASCADE,
	start_time TEXT NOT NULL,
	end_time TEXT NOT NULL,
	slot_duration_minutes INT NOT NULL,
	days_of_week INT[] NOT NULL,
	timezone TEXT NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

-- Bookings use app-generated TEXT ids so gateway transaction ids of the
-- form <booking_id>_<millis> can be traced back to the row they belong to.
CREATE TABLE IF NOT EXISTS public.bookings (
	id TEXT PRIMARY KEY,
	venue_id UUID NOT NULL REFERENCES public.venues(id) ON DELETE CASCADE,
	user_id TEXT NOT NULL,
	date DATE NOT NULL,
	start_time TEXT NOT NULL,
	end_time TEXT NOT NULL,
	amount BIGINT NOT NULL DEFAULT 0,
	advance_amount BIGINT NOT NULL DEFAULT 0,
	status TEXT NOT NULL DEFAULT 'pending_payment',
	hold_expires_at TIMESTAMPTZ,
	payment_transaction_id TEXT NOT NULL DEFAULT '',
	gateway_ref_id TEXT NOT NULL DEFAULT '',
	failure_reason TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	verified_at TIMESTAMPTZ
);

-- One row per slot that deviates from the generated weekly grid.
-- The unique key doubles as the last line of defense against two
-- transactions claiming the same slot.
CREATE TABLE IF NOT EXISTS public.slot_exceptions (
	id BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
	venue_id UUID NOT NULL REFERENCES public.venues(id) ON DELETE CASCADE,
	date DATE NOT NULL,
	start_time TEXT NOT NULL,
	kind TEXT NOT NULL,
	reason TEXT NOT NULL DEFAULT '',
	blocked_by TEXT NOT NULL DEFAULT '',
	booking_id TEXT NOT NULL DEFAULT '',
	booking_type TEXT NOT NULL DEFAULT '',
	booking_status TEXT NOT NULL DEFAULT '',
	customer_name TEXT NOT NULL DEFAULT '',
	customer_phone TEXT NOT NULL DEFAULT '',
	user_id TEXT NOT NULL DEFAULT '',
	hold_expires_at TIMESTAMPTZ,
	transaction_id TEXT NOT NULL DEFAULT '',
	note TEXT NOT NULL DEFAULT '',
	reserved_by TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (venue_id, date, start_time)
);

CREATE INDEX IF NOT EXISTS idx_bookings_user ON public.bookings(user_id, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_bookings_venue_date ON public.bookings(venue_id, date);
CREATE INDEX IF NOT EXISTS idx_bookings_payment_tx ON public.bookings(payment_transaction_id);
CREATE INDEX IF NOT EXISTS idx_bookings_expiry ON public.bookings(status, hold_expires_at);
CREATE INDEX IF NOT EXISTS idx_slot_exceptions_range ON public.slot_exceptions(venue_id, date, start_time);
`

// Migrate creates the schema if it does not exist yet.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, schemaSQL)
	return err
}
