package providers

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"trailweather.app/config"
	apperrors "trailweather.app/errors"
)

func nwsTestConfig(baseURL string) *config.NWSConfig {
	return &config.NWSConfig{
		BaseURL:        baseURL,
		UserAgent:      "trailweather.app test",
		TimeoutSeconds: 5,
	}
}

func TestNWSProvider_GetForecast(t *testing.T) {
	t.Run("TwoStepAcquisition", func(t *testing.T) {
		var server *httptest.Server
		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "trailweather.app test", r.Header.Get("User-Agent"))

			switch r.URL.Path {
			case "/points/39.7392,-104.9903":
				fmt.Fprintf(w, `{"properties": {"forecast": "%s/gridpoints/BOU/62,61/forecast", "gridId": "BOU"}}`, server.URL)
			case "/gridpoints/BOU/62,61/forecast":
				w.Write([]byte(`{"properties": {"periods": [
					{"name": "Today", "startTime": "2026-03-10T06:00:00-06:00", "isDaytime": true,
					 "temperature": 59, "temperatureUnit": "F",
					 "windSpeed": "10 to 15 mph", "windDirection": "NW",
					 "probabilityOfPrecipitation": {"value": 30},
					 "shortForecast": "Mostly Sunny"},
					{"name": "Tonight", "startTime": "2026-03-10T18:00:00-06:00", "isDaytime": false,
					 "temperature": 32, "temperatureUnit": "F",
					 "windSpeed": "5 mph", "windDirection": "N",
					 "probabilityOfPrecipitation": {"value": null},
					 "shortForecast": "Partly Cloudy"}
				]}}`))
			default:
				w.WriteHeader(http.StatusNotFound)
			}
		}))
		defer server.Close()

		provider := NewNWSProvider(nwsTestConfig(server.URL))
		defer provider.Close()

		forecast, err := provider.GetForecast(context.Background(), 39.7392, -104.9903, 1)
		require.NoError(t, err)
		require.Len(t, forecast.Periods, 2)

		day := forecast.Periods[0]
		assert.Equal(t, "afternoon", day.Label)
		assert.InDelta(t, 15.0, day.TempMax, 0.01) // 59F
		assert.InDelta(t, 16.1, day.WindAvg, 0.5)
		assert.InDelta(t, 24.1, day.WindMax, 0.5)
		assert.Equal(t, "NW", day.WindDirection)
		assert.Equal(t, 30, day.RainChance)
		assert.Equal(t, 25, day.CloudCover)
		assert.Greater(t, day.FreezingLevel, 2000.0)

		night := forecast.Periods[1]
		assert.Equal(t, "night", night.Label)
		assert.InDelta(t, 0.0, night.TempMax, 0.01) // 32F
		// T <= 0 clamps freezing level to the base elevation.
		assert.Equal(t, 0.0, night.FreezingLevel)
		assert.Zero(t, night.RainChance)
	})

	t.Run("UnsupportedLocation", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer server.Close()

		provider := NewNWSProvider(nwsTestConfig(server.URL))
		defer provider.Close()

		_, err := provider.GetForecast(context.Background(), 48.8566, 2.3522, 1)
		require.Error(t, err)
		assert.True(t, apperrors.IsType(err, apperrors.ProviderUnsupportedLocation))
	})

	t.Run("ServerErrorIsUnavailable", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer server.Close()

		cfg := nwsTestConfig(server.URL)
		provider := NewNWSProvider(cfg)
		// Skip backoff waits in tests.
		provider.client.cfg.Backoff.MaxRetries = 0
		defer provider.Close()

		_, err := provider.GetForecast(context.Background(), 39.7392, -104.9903, 1)
		require.Error(t, err)
		assert.True(t, apperrors.IsType(err, apperrors.ProviderUnavailable))
	})
}

func TestNWSProvider_GetAlerts(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/alerts/active", r.URL.Path)
		assert.Equal(t, "39.7392,-104.9903", r.URL.Query().Get("point"))
		w.Write([]byte(`{"features": [
			{"properties": {"event": "Winter Storm Warning",
			 "headline": "Winter Storm Warning until Tuesday",
			 "severity": "Severe", "urgency": "Expected",
			 "expires": "2026-03-11T06:00:00-06:00"}}
		]}`))
	}))
	defer server.Close()

	provider := NewNWSProvider(nwsTestConfig(server.URL))
	defer provider.Close()

	alerts, err := provider.GetAlerts(context.Background(), 39.7392, -104.9903)
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, "Winter Storm Warning", alerts[0].Event)
	assert.Equal(t, "Severe", alerts[0].Severity)
	require.NotNil(t, alerts[0].Expires)
	assert.Equal(t, time.Date(2026, 3, 11, 12, 0, 0, 0, time.UTC), alerts[0].Expires.UTC())
}

func TestNWSProvider_SupportsAlerts(t *testing.T) {
	provider := NewNWSProvider(nwsTestConfig("https://api.weather.gov"))
	assert.True(t, provider.SupportsAlerts())
	assert.Equal(t, "nws", provider.Name())
}
