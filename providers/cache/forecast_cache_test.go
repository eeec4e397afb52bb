package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestForecastCache_RoundTrip(t *testing.T) {
	c := NewForecastCache(10 * time.Minute)

	c.Set("open-meteo", 45.1234, 6.5678, 3, "forecast-a")

	got, ok := c.Get("open-meteo", 45.1234, 6.5678, 3)
	require.True(t, ok)
	assert.Equal(t, "forecast-a", got)
}

func TestForecastCache_KeyDiscrimination(t *testing.T) {
	c := NewForecastCache(10 * time.Minute)
	c.Set("open-meteo", 45.1234, 6.5678, 3, "forecast-a")

	t.Run("DifferentProvider", func(t *testing.T) {
		_, ok := c.Get("nws", 45.1234, 6.5678, 3)
		assert.False(t, ok)
	})

	t.Run("DifferentDays", func(t *testing.T) {
		_, ok := c.Get("open-meteo", 45.1234, 6.5678, 5)
		assert.False(t, ok)
	})

	t.Run("NearDuplicateCoordinatesCollapse", func(t *testing.T) {
		// Differences beyond 4 decimal places round to the same key.
		got, ok := c.Get("open-meteo", 45.12341, 6.56779, 3)
		require.True(t, ok)
		assert.Equal(t, "forecast-a", got)
	})
}

func TestForecastCache_TTLExpiry(t *testing.T) {
	c := NewForecastCache(10 * time.Minute)

	base := time.Now()
	c.now = func() time.Time { return base }
	c.Set("open-meteo", 45.0, 6.0, 2, "forecast-a")

	c.now = func() time.Time { return base.Add(9 * time.Minute) }
	_, ok := c.Get("open-meteo", 45.0, 6.0, 2)
	assert.True(t, ok)

	c.now = func() time.Time { return base.Add(11 * time.Minute) }
	_, ok = c.Get("open-meteo", 45.0, 6.0, 2)
	assert.False(t, ok)

	// Expired entries stay until an explicit sweep.
	assert.Equal(t, 1, c.Len())
	c.CleanupExpired()
	assert.Equal(t, 0, c.Len())
}

func TestForecastCache_Invalidate(t *testing.T) {
	c := NewForecastCache(10 * time.Minute)
	c.Set("open-meteo", 45.0, 6.0, 2, "two-days")
	c.Set("open-meteo", 45.0, 6.0, 5, "five-days")
	c.Set("open-meteo", 46.0, 6.0, 2, "other-point")

	c.Invalidate("open-meteo", 45.0, 6.0)

	_, ok := c.Get("open-meteo", 45.0, 6.0, 2)
	assert.False(t, ok)
	_, ok = c.Get("open-meteo", 45.0, 6.0, 5)
	assert.False(t, ok)
	_, ok = c.Get("open-meteo", 46.0, 6.0, 2)
	assert.True(t, ok)
}

func TestForecastCache_Clear(t *testing.T) {
	c := NewForecastCache(10 * time.Minute)
	c.Set("open-meteo", 45.0, 6.0, 2, "a")
	c.Set("nws", 40.0, -105.0, 2, "b")

	c.Clear()

	assert.Equal(t, 0, c.Len())
}

func TestForecastCache_LastWriterWins(t *testing.T) {
	c := NewForecastCache(10 * time.Minute)
	c.Set("open-meteo", 45.0, 6.0, 2, "first")
	c.Set("open-meteo", 45.0, 6.0, 2, "second")

	got, ok := c.Get("open-meteo", 45.0, 6.0, 2)
	require.True(t, ok)
	assert.Equal(t, "second", got)
}
