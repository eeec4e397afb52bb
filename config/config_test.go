package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	apperrors "trailweather.app/errors"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 30*time.Minute, cfg.Cache.TTL())
	assert.Equal(t, 15*time.Minute, cfg.Cache.SweepInterval())
	assert.Equal(t, "FR", cfg.Domestic.HomeCountry)
	assert.Equal(t, 0.65, cfg.Domestic.LapseRate)
	assert.False(t, cfg.Domestic.SyntheticEnabled)
	assert.Equal(t, "meteofrance_seamless", cfg.OpenMeteo.Model)

	// Domestic calls get a longer timeout than international ones.
	assert.Greater(t, cfg.MeteoFrance.TimeoutSeconds, cfg.OpenMeteo.TimeoutSeconds)
}

func TestLoadConfig_Overrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("CACHE_TTL_MINUTES", "5")
	t.Setenv("DOMESTIC_SYNTHETIC_ENABLED", "true")
	t.Setenv("OPEN_METEO_MODEL", "icon_seamless")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 5*time.Minute, cfg.Cache.TTL())
	assert.True(t, cfg.Domestic.SyntheticEnabled)
	assert.Equal(t, "icon_seamless", cfg.OpenMeteo.Model)
}

func TestLoadConfig_Invalid(t *testing.T) {
	t.Run("BadPort", func(t *testing.T) {
		t.Setenv("SERVER_PORT", "70000")

		_, err := LoadConfig()
		require.Error(t, err)
		assert.True(t, apperrors.IsType(err, apperrors.ConfigurationError))
	})

	t.Run("BadBaseURL", func(t *testing.T) {
		t.Setenv("NWS_BASE_URL", "ftp://api.weather.gov")

		_, err := LoadConfig()
		require.Error(t, err)
		assert.True(t, apperrors.IsType(err, apperrors.ConfigurationError))
	})

	t.Run("BadHomeCountry", func(t *testing.T) {
		t.Setenv("DOMESTIC_HOME_COUNTRY", "FRA")

		_, err := LoadConfig()
		require.Error(t, err)
		assert.True(t, apperrors.IsType(err, apperrors.ConfigurationError))
	})

	t.Run("ZeroCacheTTL", func(t *testing.T) {
		t.Setenv("CACHE_TTL_MINUTES", "0")

		_, err := LoadConfig()
		require.Error(t, err)
		assert.True(t, apperrors.IsType(err, apperrors.ConfigurationError))
	})
}
