package slot

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/venuepass/venue-booking-backend/internal/venue"
)

func testConfig() *venue.SlotConfig {
	return &venue.SlotConfig{
		VenueID:             "venue-1",
		StartTime:           "09:00",
		EndTime:             "11:00",
		SlotDurationMinutes: 60,
		DaysOfWeek:          []int{0, 1, 2, 3, 4, 5, 6},
		Timezone:            "UTC",
	}
}

func TestReconstruct(t *testing.T) {
	// 2025-06-02 is a Monday.
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	t.Run("generates the full grid with no exceptions", func(t *testing.T) {
		slots, err := Reconstruct(testConfig(), nil, "2025-06-02", "2025-06-02", now)
		require.NoError(t, err)
		require.Len(t, slots, 2)

		assert.Equal(t, "09:00", slots[0].StartTime)
		assert.Equal(t, "10:00", slots[0].EndTime)
		assert.Equal(t, StatusAvailable, slots[0].Status)
		assert.Equal(t, "10:00", slots[1].StartTime)
		assert.Equal(t, "11:00", slots[1].EndTime)
		assert.Equal(t, StatusAvailable, slots[1].Status)
	})

	t.Run("skips inactive days", func(t *testing.T) {
		cfg := testConfig()
		cfg.DaysOfWeek = []int{2} // Tuesday only

		slots, err := Reconstruct(cfg, nil, "2025-06-02", "2025-06-04", now)
		require.NoError(t, err)
		require.Len(t, slots, 2)
		for _, s := range slots {
			assert.Equal(t, "2025-06-03", s.Date)
		}
	})

	t.Run("does not emit a slot that overruns closing time", func(t *testing.T) {
		cfg := testConfig()
		cfg.EndTime = "10:30"

		slots, err := Reconstruct(cfg, nil, "2025-06-02", "2025-06-02", now)
		require.NoError(t, err)
		require.Len(t, slots, 1)
		assert.Equal(t, "09:00", slots[0].StartTime)
	})

	t.Run("omits slots that already started", func(t *testing.T) {
		midMorning := time.Date(2025, 6, 2, 9, 30, 0, 0, time.UTC)

		slots, err := Reconstruct(testConfig(), nil, "2025-06-02", "2025-06-02", midMorning)
		require.NoError(t, err)
		require.Len(t, slots, 1)
		assert.Equal(t, "10:00", slots[0].StartTime)
	})

	t.Run("overlays exceptions onto the grid", func(t *testing.T) {
		exceptions := []Exception{
			{
				Key:    Key{VenueID: "venue-1", Date: "2025-06-02", StartTime: "09:00"},
				Kind:   KindBlocked,
				Reason: "maintenance",
			},
		}

		slots, err := Reconstruct(testConfig(), exceptions, "2025-06-02", "2025-06-02", now)
		require.NoError(t, err)
		require.Len(t, slots, 2)

		assert.Equal(t, StatusBlocked, slots[0].Status)
		assert.Equal(t, "maintenance", slots[0].Reason)
		assert.Equal(t, StatusAvailable, slots[1].Status)
	})

	t.Run("blocked wins over booked on the same key", func(t *testing.T) {
		key := Key{VenueID: "venue-1", Date: "2025-06-02", StartTime: "09:00"}
		exceptions := []Exception{
			{Key: key, Kind: KindBooked, BookingID: "bk-1"},
			{Key: key, Kind: KindBlocked, Reason: "flooded"},
		}

		slots, err := Reconstruct(testConfig(), exceptions, "2025-06-02", "2025-06-02", now)
		require.NoError(t, err)
		assert.Equal(t, StatusBlocked, slots[0].Status)
	})

	t.Run("unexpired hold shows as held with expiry", func(t *testing.T) {
		expires := now.Add(10 * time.Minute)
		exceptions := []Exception{
			{
				Key:           Key{VenueID: "venue-1", Date: "2025-06-02", StartTime: "10:00"},
				Kind:          KindHeld,
				UserID:        "user-1",
				BookingID:     "bk-1",
				HoldExpiresAt: expires,
			},
		}

		slots, err := Reconstruct(testConfig(), exceptions, "2025-06-02", "2025-06-02", now)
		require.NoError(t, err)
		require.Len(t, slots, 2)

		held := slots[1]
		assert.Equal(t, StatusHeld, held.Status)
		assert.Equal(t, "user-1", held.UserID)
		assert.Equal(t, "bk-1", held.BookingID)
		require.NotNil(t, held.HoldExpiresAt)
		assert.True(t, held.HoldExpiresAt.Equal(expires))
	})

	t.Run("expired hold reads as available without mutation", func(t *testing.T) {
		exceptions := []Exception{
			{
				Key:           Key{VenueID: "venue-1", Date: "2025-06-02", StartTime: "10:00"},
				Kind:          KindHeld,
				UserID:        "user-1",
				HoldExpiresAt: now.Add(-time.Minute),
			},
		}

		slots, err := Reconstruct(testConfig(), exceptions, "2025-06-02", "2025-06-02", now)
		require.NoError(t, err)
		assert.Equal(t, StatusAvailable, slots[1].Status)
		assert.Nil(t, slots[1].HoldExpiresAt)
	})

	t.Run("deterministic for identical inputs", func(t *testing.T) {
		exceptions := []Exception{
			{Key: Key{VenueID: "venue-1", Date: "2025-06-02", StartTime: "09:00"}, Kind: KindReserved, Note: "league"},
		}

		first, err := Reconstruct(testConfig(), exceptions, "2025-06-02", "2025-06-08", now)
		require.NoError(t, err)
		second, err := Reconstruct(testConfig(), exceptions, "2025-06-02", "2025-06-08", now)
		require.NoError(t, err)
		assert.Equal(t, first, second)
	})

	t.Run("rejects malformed dates", func(t *testing.T) {
		_, err := Reconstruct(testConfig(), nil, "06/02/2025", "2025-06-02", now)
		assert.ErrorIs(t, err, ErrInvalidSlot)
	})
}

func TestSlotEnd(t *testing.T) {
	end, err := SlotEnd("09:00", 90)
	require.NoError(t, err)
	assert.Equal(t, "10:30", end)

	_, err = SlotEnd("9am", 60)
	assert.ErrorIs(t, err, ErrInvalidSlot)
}
