package domestic

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"trailweather.app/config"
	apperrors "trailweather.app/errors"
	"trailweather.app/models"
)

func meteoFranceTestConfig(baseURL, token string) *config.MeteoFranceConfig {
	return &config.MeteoFranceConfig{
		BaseURL:        baseURL,
		Token:          token,
		TimeoutSeconds: 5,
	}
}

func TestMeteoFranceClient_Fetch(t *testing.T) {
	t.Run("MissingTokenIsMisconfigured", func(t *testing.T) {
		var called bool
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			called = true
		}))
		defer server.Close()

		client := NewMeteoFranceClient(meteoFranceTestConfig(server.URL, ""))
		defer client.Close()

		_, err := client.Fetch(context.Background(), "u0huspe3", models.ResolutionDaily, 2)
		require.Error(t, err)
		assert.True(t, apperrors.IsType(err, apperrors.ProviderMisconfigured))
		assert.False(t, called, "missing token must be detected before any network call")
	})

	t.Run("HourlyWithWind", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/forecast/hourly", r.URL.Path)
			assert.Equal(t, "u0huspe3", r.URL.Query().Get("id"))
			assert.Equal(t, "secret", r.URL.Query().Get("token"))
			w.Write([]byte(`{
				"metadata": {"region": "Auvergne-Rhône-Alpes", "timezone": "Europe/Paris"},
				"periods": [
					{"time": "2026-03-10T14:00:00+01:00",
					 "temperature": {"min": 3.0, "max": 5.0},
					 "rain": {"chance": 60, "amount": {"min": 0.5, "max": 2.0}},
					 "snow": {"amount": {"min": 0.0, "max": 0.0}},
					 "wind": {"speed": 20.0, "gust": 55.0, "direction": 225.0},
					 "cloud_cover": 75, "icon": "p12j"}
				]
			}`))
		}))
		defer server.Close()

		client := NewMeteoFranceClient(meteoFranceTestConfig(server.URL, "secret"))
		defer client.Close()

		forecast, err := client.Fetch(context.Background(), "u0huspe3", models.ResolutionHourly, 1)
		require.NoError(t, err)
		assert.Equal(t, "Auvergne-Rhône-Alpes", forecast.Region)
		require.Len(t, forecast.Periods, 1)

		p := forecast.Periods[0]
		assert.Equal(t, "14h", p.Label)
		assert.Equal(t, 3.0, p.TempMin)
		assert.Equal(t, 5.0, p.TempMax)
		assert.Equal(t, 60, p.RainChance)
		assert.Equal(t, 0.5, p.RainMin)
		assert.Equal(t, 2.0, p.RainMax)
		assert.True(t, p.HasWind)
		assert.Equal(t, 20.0, p.WindAvg)
		assert.Equal(t, 55.0, p.WindMax)
		assert.Equal(t, "SW", p.WindDirection)
		assert.Equal(t, 75, p.CloudCover)
		assert.Equal(t, "p12j", p.Icon)
		// Domestic period times stay zoned to the location.
		assert.Equal(t, 14, p.Start.Hour())
	})

	t.Run("DailyOmitsWind", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/forecast/daily", r.URL.Path)
			w.Write([]byte(`{
				"metadata": {"region": "Provence-Alpes-Côte d'Azur", "timezone": "Europe/Paris"},
				"periods": [
					{"time": "2026-03-10T13:00:00+01:00",
					 "temperature": {"min": 2.0, "max": 11.0},
					 "rain": {"chance": 10, "amount": {"min": 0.0, "max": 0.0}},
					 "snow": {"amount": {"min": 0.0, "max": 0.0}},
					 "cloud_cover": 20, "icon": "p1j"}
				]
			}`))
		}))
		defer server.Close()

		client := NewMeteoFranceClient(meteoFranceTestConfig(server.URL, "secret"))
		defer client.Close()

		forecast, err := client.Fetch(context.Background(), "spey61yh", models.ResolutionDaily, 1)
		require.NoError(t, err)
		require.Len(t, forecast.Periods, 1)

		p := forecast.Periods[0]
		assert.False(t, p.HasWind)
		assert.Zero(t, p.WindAvg)
		assert.Zero(t, p.WindMax)
		assert.Equal(t, models.PeriodAfternoon, p.Label)
	})

	t.Run("EmptyPeriodsIsUnavailable", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"metadata": {}, "periods": []}`))
		}))
		defer server.Close()

		client := NewMeteoFranceClient(meteoFranceTestConfig(server.URL, "secret"))
		defer client.Close()

		_, err := client.Fetch(context.Background(), "u0huspe3", models.ResolutionSixHourly, 1)
		require.Error(t, err)
		assert.True(t, apperrors.IsType(err, apperrors.ProviderUnavailable))
	})

	t.Run("UnknownResolution", func(t *testing.T) {
		client := NewMeteoFranceClient(meteoFranceTestConfig("https://example.test", "secret"))
		_, err := client.Fetch(context.Background(), "u0huspe3", models.Resolution("weekly"), 1)
		require.Error(t, err)
		assert.True(t, apperrors.IsType(err, apperrors.ValidationError))
	})
}

func TestPeriodLabel(t *testing.T) {
	paris, err := time.LoadLocation("Europe/Paris")
	require.NoError(t, err)

	tests := []struct {
		hour       int
		resolution models.Resolution
		want       string
	}{
		{8, models.ResolutionHourly, "08h"},
		{14, models.ResolutionHourly, "14h"},
		{2, models.ResolutionSixHourly, models.PeriodNight},
		{8, models.ResolutionSixHourly, models.PeriodMorning},
		{14, models.ResolutionSixHourly, models.PeriodAfternoon},
		{20, models.ResolutionSixHourly, models.PeriodNight},
		{13, models.ResolutionDaily, models.PeriodAfternoon},
	}
	for _, tt := range tests {
		start := time.Date(2026, 3, 10, tt.hour, 0, 0, 0, paris)
		assert.Equal(t, tt.want, periodLabel(start, tt.resolution), "%02dh %s", tt.hour, tt.resolution)
	}
}
