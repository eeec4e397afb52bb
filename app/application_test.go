package app

import (
	"os"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withCleanEnv(t *testing.T, fn func()) {
	t.Helper()
	originalEnv := os.Environ()
	defer func() {
		os.Clearenv()
		for _, env := range originalEnv {
			parts := strings.SplitN(env, "=", 2)
			if len(parts) == 2 && parts[0] != "" {
				_ = os.Setenv(parts[0], parts[1])
			}
		}
	}()

	os.Clearenv()
	fn()
}

func TestNewApplication(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("DefaultsAreSufficient", func(t *testing.T) {
		withCleanEnv(t, func() {
			application, err := NewApplication()
			require.NoError(t, err)
			require.NotNil(t, application)
			defer func() { _ = application.Shutdown() }()

			cfg := application.Config()
			assert.Equal(t, "FR", cfg.Domestic.HomeCountry)
			assert.Equal(t, 8080, cfg.Server.Port)
			assert.False(t, cfg.Domestic.SyntheticEnabled)
		})
	})

	t.Run("InvalidPortFailsValidation", func(t *testing.T) {
		withCleanEnv(t, func() {
			require.NoError(t, os.Setenv("SERVER_PORT", "99999"))

			application, err := NewApplication()
			assert.Error(t, err)
			assert.Nil(t, application)
		})
	})

	t.Run("InvalidHomeCountryFailsValidation", func(t *testing.T) {
		withCleanEnv(t, func() {
			require.NoError(t, os.Setenv("DOMESTIC_HOME_COUNTRY", "FRA"))

			application, err := NewApplication()
			assert.Error(t, err)
			assert.Nil(t, application)
		})
	})
}
