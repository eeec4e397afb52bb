package providers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"trailweather.app/config"
	apperrors "trailweather.app/errors"
)

func metOfficeTestConfig(baseURL, apiKey string) *config.MetOfficeConfig {
	return &config.MetOfficeConfig{
		BaseURL:        baseURL,
		APIKey:         apiKey,
		TimeoutSeconds: 5,
	}
}

func TestMetOfficeProvider_GetForecast(t *testing.T) {
	t.Run("MissingKeyIsMisconfigured", func(t *testing.T) {
		var called bool
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			called = true
		}))
		defer server.Close()

		provider := NewMetOfficeProvider(metOfficeTestConfig(server.URL, ""))
		defer provider.Close()

		_, err := provider.GetForecast(context.Background(), 54.4609, -3.0886, 2)
		require.Error(t, err)
		assert.True(t, apperrors.IsType(err, apperrors.ProviderMisconfigured))
		assert.False(t, called, "misconfiguration must be detected before any network call")
	})

	t.Run("ParsesTimeSeries", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "test-key", r.Header.Get("apikey"))
			w.Write([]byte(`{"features": [{"properties": {
				"location": {"elevation": 120.0},
				"timeSeries": [
					{"time": "2026-03-10T00:00Z",
					 "dayMaxScreenTemperature": 9.0, "nightMinScreenTemperature": 2.0,
					 "midday10MWindSpeed": 5.0, "midday10MWindGust": 12.0,
					 "midday10MWindDirection": 270.0,
					 "dayProbabilityOfPrecipitation": 40,
					 "middayPrecipitationRate": 0.4,
					 "dayTotalSnowAmount": 0.0,
					 "middayVisibility": 20000,
					 "daySignificantWeatherCode": 7}
				]
			}}]}`))
		}))
		defer server.Close()

		provider := NewMetOfficeProvider(metOfficeTestConfig(server.URL, "test-key"))
		defer provider.Close()

		forecast, err := provider.GetForecast(context.Background(), 54.4609, -3.0886, 1)
		require.NoError(t, err)
		require.Len(t, forecast.Periods, 1)

		p := forecast.Periods[0]
		assert.Equal(t, 2.0, p.TempMin)
		assert.Equal(t, 9.0, p.TempMax)
		// 5 m/s -> 18 km/h, 12 m/s gust -> 43.2 km/h
		assert.InDelta(t, 18.0, p.WindAvg, 0.01)
		assert.InDelta(t, 43.2, p.WindMax, 0.01)
		assert.Equal(t, "W", p.WindDirection)
		assert.Equal(t, 40, p.RainChance)
		assert.Equal(t, 80, p.CloudCover) // code 7: Cloudy
		assert.Greater(t, p.FreezingLevel, 120.0)
		assert.Greater(t, p.CloudBase, 120.0)
	})

	t.Run("EmptyTimeSeriesIsUnavailable", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"features": []}`))
		}))
		defer server.Close()

		provider := NewMetOfficeProvider(metOfficeTestConfig(server.URL, "test-key"))
		defer provider.Close()

		_, err := provider.GetForecast(context.Background(), 54.0, -3.0, 1)
		require.Error(t, err)
		assert.True(t, apperrors.IsType(err, apperrors.ProviderUnavailable))
	})
}

func TestMetOfficeProvider_NoAlerts(t *testing.T) {
	provider := NewMetOfficeProvider(metOfficeTestConfig("https://example.test", "k"))
	assert.False(t, provider.SupportsAlerts())

	alerts, err := provider.GetAlerts(context.Background(), 54.0, -3.0)
	require.NoError(t, err)
	assert.Empty(t, alerts)
}

func TestWeatherDescription(t *testing.T) {
	assert.Equal(t, "Sunny day", WeatherDescription(1))
	assert.Equal(t, "Heavy snow", WeatherDescription(27))
	assert.Equal(t, "Unknown", WeatherDescription(99))
}
