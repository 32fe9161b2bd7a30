package slot

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/venuepass/venue-booking-backend/internal/observability"
)

// fakeStore serializes transactions with a mutex and enforces the same
// one-exception-per-key rule the database's unique constraint does.
type fakeStore struct {
	mu         sync.Mutex
	exceptions []Exception
	bookings   map[string]*BookingRow
}

func newFakeStore() *fakeStore {
	return &fakeStore{bookings: map[string]*BookingRow{}}
}

func (s *fakeStore) InVenueTx(ctx context.Context, venueID string, fn func(tx Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &fakeTx{
		store:      s,
		venueID:    venueID,
		exceptions: append([]Exception(nil), s.exceptions...),
		bookings:   map[string]*BookingRow{},
	}
	for id, b := range s.bookings {
		copied := *b
		tx.bookings[id] = &copied
	}

	if err := fn(tx); err != nil {
		return err
	}

	// Commit
	s.exceptions = tx.exceptions
	s.bookings = tx.bookings
	return nil
}

func (s *fakeStore) ListRange(ctx context.Context, venueID, fromDate, toDate string) ([]Exception, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []Exception
	for _, e := range s.exceptions {
		if e.VenueID == venueID && e.Date >= fromDate && e.Date <= toDate {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *fakeStore) booking(id string) *BookingRow {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bookings[id]
}

func (s *fakeStore) exceptionAt(key Key) (Exception, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.exceptions {
		if e.VenueID == key.VenueID && e.Date == key.Date && e.StartTime == key.StartTime {
			return e, true
		}
	}
	return Exception{}, false
}

type fakeTx struct {
	store      *fakeStore
	venueID    string
	exceptions []Exception
	bookings   map[string]*BookingRow
}

func (t *fakeTx) ExceptionsFor(ctx context.Context, date string) ([]Exception, error) {
	var out []Exception
	for _, e := range t.exceptions {
		if e.VenueID == t.venueID && e.Date == date {
			out = append(out, e)
		}
	}
	return out, nil
}

func (t *fakeTx) Insert(ctx context.Context, e *Exception) error {
	for _, existing := range t.exceptions {
		if existing.VenueID == e.VenueID && existing.Date == e.Date && existing.StartTime == e.StartTime {
			return ErrSlotUnavailable
		}
	}
	e.CreatedAt = time.Now()
	t.exceptions = append(t.exceptions, *e)
	return nil
}

func (t *fakeTx) Remove(ctx context.Context, key Key, kind Kind) (bool, error) {
	for i, e := range t.exceptions {
		if e.VenueID == key.VenueID && e.Date == key.Date && e.StartTime == key.StartTime && e.Kind == kind {
			t.exceptions = append(t.exceptions[:i], t.exceptions[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (t *fakeTx) SetHoldTransaction(ctx context.Context, key Key, transactionID string) (bool, error) {
	for i, e := range t.exceptions {
		if e.VenueID == key.VenueID && e.Date == key.Date && e.StartTime == key.StartTime && e.Kind == KindHeld {
			t.exceptions[i].TransactionID = transactionID
			return true, nil
		}
	}
	return false, nil
}

func (t *fakeTx) InsertBooking(ctx context.Context, b *BookingRow) error {
	b.CreatedAt = time.Now()
	copied := *b
	t.bookings[b.ID] = &copied
	return nil
}

func (t *fakeTx) SetBookingStatus(ctx context.Context, bookingID, status string) (bool, error) {
	b, ok := t.bookings[bookingID]
	if !ok {
		return false, nil
	}
	b.Status = status
	return true, nil
}

func (t *fakeTx) ConfirmBookingRow(ctx context.Context, bookingID, gatewayRefID string, at time.Time) (bool, error) {
	b, ok := t.bookings[bookingID]
	if !ok {
		return false, nil
	}
	if b.Status != "pending_payment" && b.Status != "expired" {
		return false, nil
	}
	b.Status = "confirmed"
	return true, nil
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func testKey() Key {
	return Key{VenueID: "venue-1", Date: "2025-06-02", StartTime: "09:00"}
}

func newTestManager(store Store, clock Clock) Manager {
	return NewManager(store, nil, observability.NewLogger(),
		WithHoldTTL(10*time.Minute),
		WithClock(clock),
	)
}

func TestHoldSlot(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	t.Run("grants a hold and creates a pending booking", func(t *testing.T) {
		store := newFakeStore()
		clock := &fakeClock{now: base}
		m := newTestManager(store, clock)

		result, err := m.HoldSlot(ctx, HoldRequest{
			Key:           testKey(),
			UserID:        "user-1",
			EndTime:       "10:00",
			Amount:        1500,
			AdvanceAmount: 300,
		})
		require.NoError(t, err)
		require.NotEmpty(t, result.BookingID)
		assert.True(t, result.HoldExpiresAt.Equal(base.Add(10*time.Minute)))

		e, ok := store.exceptionAt(testKey())
		require.True(t, ok)
		assert.Equal(t, KindHeld, e.Kind)
		assert.Equal(t, "user-1", e.UserID)
		assert.Equal(t, result.BookingID, e.BookingID)

		b := store.booking(result.BookingID)
		require.NotNil(t, b)
		assert.Equal(t, "pending_payment", b.Status)
		assert.EqualValues(t, 1500, b.Amount)
		assert.EqualValues(t, 300, b.AdvanceAmount)
		require.NotNil(t, b.HoldExpiresAt)
	})

	t.Run("rejects a second user while the hold is live", func(t *testing.T) {
		store := newFakeStore()
		clock := &fakeClock{now: base}
		m := newTestManager(store, clock)

		_, err := m.HoldSlot(ctx, HoldRequest{Key: testKey(), UserID: "user-1"})
		require.NoError(t, err)

		_, err = m.HoldSlot(ctx, HoldRequest{Key: testKey(), UserID: "user-2"})
		assert.ErrorIs(t, err, ErrSlotUnavailable)
	})

	t.Run("same user re-holding supersedes the old hold", func(t *testing.T) {
		store := newFakeStore()
		clock := &fakeClock{now: base}
		m := newTestManager(store, clock)

		first, err := m.HoldSlot(ctx, HoldRequest{Key: testKey(), UserID: "user-1"})
		require.NoError(t, err)

		clock.Advance(2 * time.Minute)
		second, err := m.HoldSlot(ctx, HoldRequest{Key: testKey(), UserID: "user-1"})
		require.NoError(t, err)
		assert.NotEqual(t, first.BookingID, second.BookingID)

		// Old pending booking expires, the new one takes the slot.
		assert.Equal(t, "expired", store.booking(first.BookingID).Status)
		e, ok := store.exceptionAt(testKey())
		require.True(t, ok)
		assert.Equal(t, second.BookingID, e.BookingID)
	})

	t.Run("expired hold is reaped and the slot granted to the next user", func(t *testing.T) {
		store := newFakeStore()
		clock := &fakeClock{now: base}
		m := newTestManager(store, clock)

		first, err := m.HoldSlot(ctx, HoldRequest{Key: testKey(), UserID: "user-1"})
		require.NoError(t, err)

		clock.Advance(11 * time.Minute)
		second, err := m.HoldSlot(ctx, HoldRequest{Key: testKey(), UserID: "user-2"})
		require.NoError(t, err)

		assert.Equal(t, "expired", store.booking(first.BookingID).Status)
		e, ok := store.exceptionAt(testKey())
		require.True(t, ok)
		assert.Equal(t, "user-2", e.UserID)
		assert.Equal(t, second.BookingID, e.BookingID)
	})

	t.Run("at most one of many concurrent holds wins", func(t *testing.T) {
		store := newFakeStore()
		clock := &fakeClock{now: base}
		m := newTestManager(store, clock)

		const attempts = 16
		results := make(chan error, attempts)
		var wg sync.WaitGroup
		for i := 0; i < attempts; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, err := m.HoldSlot(ctx, HoldRequest{
					Key:    testKey(),
					UserID: string(rune('a' + i)),
				})
				results <- err
			}(i)
		}
		wg.Wait()
		close(results)

		var granted, conflicts int
		for err := range results {
			if err == nil {
				granted++
			} else {
				require.ErrorIs(t, err, ErrSlotUnavailable)
				conflicts++
			}
		}
		assert.Equal(t, 1, granted)
		assert.Equal(t, attempts-1, conflicts)
	})
}

func TestBookSlot(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	t.Run("books a free slot with a confirmed booking row", func(t *testing.T) {
		store := newFakeStore()
		m := newTestManager(store, &fakeClock{now: base})

		result, err := m.BookSlot(ctx, BookRequest{
			Key:          testKey(),
			CustomerName: "Walk In",
			Amount:       1000,
		})
		require.NoError(t, err)

		e, ok := store.exceptionAt(testKey())
		require.True(t, ok)
		assert.Equal(t, KindBooked, e.Kind)
		assert.Equal(t, BookingTypePhysical, e.BookingType)
		assert.Equal(t, "Walk In", e.CustomerName)
		assert.Equal(t, "confirmed", store.booking(result.BookingID).Status)
	})

	t.Run("rejects booking an already booked slot", func(t *testing.T) {
		store := newFakeStore()
		m := newTestManager(store, &fakeClock{now: base})

		_, err := m.BookSlot(ctx, BookRequest{Key: testKey()})
		require.NoError(t, err)

		_, err = m.BookSlot(ctx, BookRequest{Key: testKey()})
		assert.ErrorIs(t, err, ErrAlreadyBooked)
	})

	t.Run("overrides a live hold and expires its pending booking", func(t *testing.T) {
		store := newFakeStore()
		clock := &fakeClock{now: base}
		m := newTestManager(store, clock)

		hold, err := m.HoldSlot(ctx, HoldRequest{Key: testKey(), UserID: "user-1"})
		require.NoError(t, err)

		_, err = m.BookSlot(ctx, BookRequest{Key: testKey(), CustomerName: "Phone Booking"})
		require.NoError(t, err)

		assert.Equal(t, "expired", store.booking(hold.BookingID).Status)
		e, _ := store.exceptionAt(testKey())
		assert.Equal(t, KindBooked, e.Kind)
	})

	t.Run("rejects booking a blocked slot", func(t *testing.T) {
		store := newFakeStore()
		m := newTestManager(store, &fakeClock{now: base})

		require.NoError(t, m.BlockSlot(ctx, testKey(), "owner-1", "maintenance"))

		_, err := m.BookSlot(ctx, BookRequest{Key: testKey()})
		assert.ErrorIs(t, err, ErrSlotUnavailable)
	})
}

func TestConfirmBooking(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	t.Run("converts a live hold into an online booking", func(t *testing.T) {
		store := newFakeStore()
		clock := &fakeClock{now: base}
		m := newTestManager(store, clock)

		hold, err := m.HoldSlot(ctx, HoldRequest{Key: testKey(), UserID: "user-1"})
		require.NoError(t, err)

		require.NoError(t, m.ConfirmBooking(ctx, testKey(), hold.BookingID, "ref-1"))

		e, ok := store.exceptionAt(testKey())
		require.True(t, ok)
		assert.Equal(t, KindBooked, e.Kind)
		assert.Equal(t, BookingTypeOnline, e.BookingType)
		assert.Equal(t, "user-1", e.UserID)
		assert.Equal(t, "confirmed", store.booking(hold.BookingID).Status)
	})

	t.Run("converts even after the hold expired", func(t *testing.T) {
		store := newFakeStore()
		clock := &fakeClock{now: base}
		m := newTestManager(store, clock)

		hold, err := m.HoldSlot(ctx, HoldRequest{Key: testKey(), UserID: "user-1"})
		require.NoError(t, err)

		clock.Advance(time.Hour)
		require.NoError(t, m.ConfirmBooking(ctx, testKey(), hold.BookingID, "ref-1"))

		e, _ := store.exceptionAt(testKey())
		assert.Equal(t, KindBooked, e.Kind)
		assert.Equal(t, "confirmed", store.booking(hold.BookingID).Status)
	})

	t.Run("idempotent for the same booking id", func(t *testing.T) {
		store := newFakeStore()
		clock := &fakeClock{now: base}
		m := newTestManager(store, clock)

		hold, err := m.HoldSlot(ctx, HoldRequest{Key: testKey(), UserID: "user-1"})
		require.NoError(t, err)

		require.NoError(t, m.ConfirmBooking(ctx, testKey(), hold.BookingID, "ref-1"))
		require.NoError(t, m.ConfirmBooking(ctx, testKey(), hold.BookingID, "ref-1"))
	})

	t.Run("cancelled booking cannot steal a newer hold", func(t *testing.T) {
		store := newFakeStore()
		clock := &fakeClock{now: base}
		m := newTestManager(store, clock)

		first, err := m.HoldSlot(ctx, HoldRequest{Key: testKey(), UserID: "user-1"})
		require.NoError(t, err)
		require.NoError(t, m.CancelBooking(ctx, testKey(), first.BookingID))

		second, err := m.HoldSlot(ctx, HoldRequest{Key: testKey(), UserID: "user-2"})
		require.NoError(t, err)

		err = m.ConfirmBooking(ctx, testKey(), first.BookingID, "ref-late")
		assert.ErrorIs(t, err, ErrSlotUnavailable)

		e, ok := store.exceptionAt(testKey())
		require.True(t, ok)
		assert.Equal(t, KindHeld, e.Kind)
		assert.Equal(t, second.BookingID, e.BookingID)
		assert.Equal(t, "cancelled", store.booking(first.BookingID).Status)
	})

	t.Run("cancelled booking cannot claim a free slot", func(t *testing.T) {
		store := newFakeStore()
		clock := &fakeClock{now: base}
		m := newTestManager(store, clock)

		hold, err := m.HoldSlot(ctx, HoldRequest{Key: testKey(), UserID: "user-1"})
		require.NoError(t, err)
		require.NoError(t, m.CancelBooking(ctx, testKey(), hold.BookingID))

		err = m.ConfirmBooking(ctx, testKey(), hold.BookingID, "ref-late")
		assert.ErrorIs(t, err, ErrBookingNotPending)

		_, ok := store.exceptionAt(testKey())
		assert.False(t, ok)
		assert.Equal(t, "cancelled", store.booking(hold.BookingID).Status)
	})

	t.Run("another booking's expired hold does not convert", func(t *testing.T) {
		store := newFakeStore()
		clock := &fakeClock{now: base}
		m := newTestManager(store, clock)

		_, err := m.HoldSlot(ctx, HoldRequest{Key: testKey(), UserID: "user-2"})
		require.NoError(t, err)
		clock.Advance(time.Hour)

		err = m.ConfirmBooking(ctx, testKey(), "other-booking", "ref-1")
		assert.ErrorIs(t, err, ErrSlotUnavailable)
	})

	t.Run("rejects conversion when another booking owns the slot", func(t *testing.T) {
		store := newFakeStore()
		m := newTestManager(store, &fakeClock{now: base})

		_, err := m.BookSlot(ctx, BookRequest{Key: testKey()})
		require.NoError(t, err)

		err = m.ConfirmBooking(ctx, testKey(), "other-booking", "ref-1")
		assert.ErrorIs(t, err, ErrAlreadyBooked)
	})

	t.Run("rejects conversion into a blocked slot", func(t *testing.T) {
		store := newFakeStore()
		m := newTestManager(store, &fakeClock{now: base})

		require.NoError(t, m.BlockSlot(ctx, testKey(), "owner-1", "flooded"))

		err := m.ConfirmBooking(ctx, testKey(), "bk-1", "ref-1")
		assert.ErrorIs(t, err, ErrSlotUnavailable)
	})
}

func TestCancelBooking(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	store := newFakeStore()
	clock := &fakeClock{now: base}
	m := newTestManager(store, clock)

	hold, err := m.HoldSlot(ctx, HoldRequest{Key: testKey(), UserID: "user-1"})
	require.NoError(t, err)

	require.NoError(t, m.CancelBooking(ctx, testKey(), hold.BookingID))

	_, ok := store.exceptionAt(testKey())
	assert.False(t, ok)
	assert.Equal(t, "cancelled", store.booking(hold.BookingID).Status)
}

func TestBlockAndReserve(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	t.Run("blocking an already blocked slot is a no-op", func(t *testing.T) {
		store := newFakeStore()
		m := newTestManager(store, &fakeClock{now: base})

		require.NoError(t, m.BlockSlot(ctx, testKey(), "owner-1", "maintenance"))
		require.NoError(t, m.BlockSlot(ctx, testKey(), "owner-1", "maintenance"))

		e, ok := store.exceptionAt(testKey())
		require.True(t, ok)
		assert.Equal(t, "maintenance", e.Reason)
	})

	t.Run("reserving a blocked slot conflicts", func(t *testing.T) {
		store := newFakeStore()
		m := newTestManager(store, &fakeClock{now: base})

		require.NoError(t, m.BlockSlot(ctx, testKey(), "owner-1", "maintenance"))
		err := m.ReserveSlot(ctx, testKey(), "owner-1", "league night")
		assert.ErrorIs(t, err, ErrSlotUnavailable)
	})

	t.Run("blocking claims a slot with an expired hold", func(t *testing.T) {
		store := newFakeStore()
		clock := &fakeClock{now: base}
		m := newTestManager(store, clock)

		hold, err := m.HoldSlot(ctx, testHoldReq("user-1"))
		require.NoError(t, err)

		clock.Advance(time.Hour)
		require.NoError(t, m.BlockSlot(ctx, testKey(), "owner-1", "maintenance"))

		assert.Equal(t, "expired", store.booking(hold.BookingID).Status)
		e, _ := store.exceptionAt(testKey())
		assert.Equal(t, KindBlocked, e.Kind)
	})

	t.Run("removing an absent exception is a no-op", func(t *testing.T) {
		store := newFakeStore()
		m := newTestManager(store, &fakeClock{now: base})

		assert.NoError(t, m.UnblockSlot(ctx, testKey()))
		assert.NoError(t, m.ReleaseHold(ctx, testKey()))
		assert.NoError(t, m.UnbookSlot(ctx, testKey()))
		assert.NoError(t, m.UnreserveSlot(ctx, testKey()))
	})
}

func testHoldReq(userID string) HoldRequest {
	return HoldRequest{Key: testKey(), UserID: userID}
}

func TestAttachHoldTransaction(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	store := newFakeStore()
	m := newTestManager(store, &fakeClock{now: base})

	_, err := m.HoldSlot(ctx, testHoldReq("user-1"))
	require.NoError(t, err)

	require.NoError(t, m.AttachHoldTransaction(ctx, testKey(), "tx-123"))

	e, ok := store.exceptionAt(testKey())
	require.True(t, ok)
	assert.Equal(t, "tx-123", e.TransactionID)

	// A missing hold is tolerated; the id lives on the booking row.
	require.NoError(t, m.ReleaseHold(ctx, testKey()))
	assert.NoError(t, m.AttachHoldTransaction(ctx, testKey(), "tx-456"))
}
