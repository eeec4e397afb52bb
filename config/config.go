package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"trailweather.app/errors"
)

// Config represents the application configuration structure
type Config struct {
	Server      ServerConfig      `split_words:"true"`
	Cache       CacheConfig       `split_words:"true"`
	Elevation   ElevationConfig   `split_words:"true"`
	OpenMeteo   OpenMeteoConfig   `split_words:"true"`
	NWS         NWSConfig         `split_words:"true"`
	EnvCanada   EnvCanadaConfig   `split_words:"true"`
	MetOffice   MetOfficeConfig   `split_words:"true"`
	MeteoFrance MeteoFranceConfig `split_words:"true"`
	Domestic    DomesticConfig    `split_words:"true"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port int `envconfig:"SERVER_PORT" default:"8080"`
}

// CacheConfig contains forecast cache settings
type CacheConfig struct {
	TTLMinutes           int `envconfig:"CACHE_TTL_MINUTES" default:"30"`
	SweepIntervalMinutes int `envconfig:"CACHE_SWEEP_INTERVAL_MINUTES" default:"15"`
}

// TTL returns the cache entry lifetime as a duration.
func (c CacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLMinutes) * time.Minute
}

// SweepInterval returns how often expired entries are removed.
func (c CacheConfig) SweepInterval() time.Duration {
	return time.Duration(c.SweepIntervalMinutes) * time.Minute
}

// ElevationConfig contains settings for the elevation lookup service
type ElevationConfig struct {
	BaseURL        string `envconfig:"ELEVATION_BASE_URL" default:"https://api.open-meteo.com/v1/elevation"`
	TimeoutSeconds int    `envconfig:"ELEVATION_TIMEOUT_SECONDS" default:"10"`
}

// OpenMeteoConfig contains settings for the generic global fallback provider
type OpenMeteoConfig struct {
	BaseURL        string `envconfig:"OPEN_METEO_BASE_URL" default:"https://api.open-meteo.com/v1/forecast"`
	Model          string `envconfig:"OPEN_METEO_MODEL" default:"meteofrance_seamless"`
	TimeoutSeconds int    `envconfig:"OPEN_METEO_TIMEOUT_SECONDS" default:"10"`
}

// NWSConfig contains settings for the US grid provider. NWS rejects
// requests without a descriptive User-Agent.
type NWSConfig struct {
	BaseURL        string `envconfig:"NWS_BASE_URL" default:"https://api.weather.gov"`
	UserAgent      string `envconfig:"NWS_USER_AGENT" default:"trailweather.app (contact@trailweather.app)"`
	TimeoutSeconds int    `envconfig:"NWS_TIMEOUT_SECONDS" default:"10"`
}

// EnvCanadaConfig contains settings for the Canadian provider
type EnvCanadaConfig struct {
	BaseURL        string `envconfig:"ENV_CANADA_BASE_URL" default:"https://weather.gc.ca/api"`
	TimeoutSeconds int    `envconfig:"ENV_CANADA_TIMEOUT_SECONDS" default:"10"`
}

// MetOfficeConfig contains settings for the UK provider
type MetOfficeConfig struct {
	BaseURL        string `envconfig:"MET_OFFICE_BASE_URL" default:"https://data.hub.api.metoffice.gov.uk/sitespecific/v0/point"`
	APIKey         string `envconfig:"MET_OFFICE_API_KEY"`
	TimeoutSeconds int    `envconfig:"MET_OFFICE_TIMEOUT_SECONDS" default:"10"`
}

// MeteoFranceConfig contains settings for the domestic primary provider.
// The default timeout is longer than the international providers': the
// domestic API is measurably slower when called from outside France.
type MeteoFranceConfig struct {
	BaseURL        string `envconfig:"METEO_FRANCE_BASE_URL" default:"https://webservice.meteofrance.com"`
	Token          string `envconfig:"METEO_FRANCE_TOKEN"`
	TimeoutSeconds int    `envconfig:"METEO_FRANCE_TIMEOUT_SECONDS" default:"20"`
}

// DomesticConfig contains settings for the domestic acquisition pipeline
type DomesticConfig struct {
	HomeCountry      string  `envconfig:"DOMESTIC_HOME_COUNTRY" default:"FR"`
	SyntheticEnabled bool    `envconfig:"DOMESTIC_SYNTHETIC_ENABLED" default:"false"`
	LapseRate        float64 `envconfig:"DOMESTIC_LAPSE_RATE" default:"0.65"`
}

// LoadConfig loads and validates application configuration from environment variables
func LoadConfig() (*Config, error) {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		return nil, errors.NewConfigurationError("error processing config", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if err := c.Server.Validate(); err != nil {
		return err
	}
	if err := c.Cache.Validate(); err != nil {
		return err
	}
	if err := c.Domestic.Validate(); err != nil {
		return err
	}
	for name, baseURL := range map[string]string{
		"ELEVATION_BASE_URL":    c.Elevation.BaseURL,
		"OPEN_METEO_BASE_URL":   c.OpenMeteo.BaseURL,
		"NWS_BASE_URL":          c.NWS.BaseURL,
		"ENV_CANADA_BASE_URL":   c.EnvCanada.BaseURL,
		"MET_OFFICE_BASE_URL":   c.MetOffice.BaseURL,
		"METEO_FRANCE_BASE_URL": c.MeteoFrance.BaseURL,
	} {
		if err := validateBaseURL(name, baseURL); err != nil {
			return err
		}
	}
	return nil
}

func validateBaseURL(name, baseURL string) error {
	if baseURL == "" {
		return errors.NewConfigurationError(fmt.Sprintf("%s cannot be empty", name), nil)
	}
	if !strings.HasPrefix(baseURL, "http://") && !strings.HasPrefix(baseURL, "https://") {
		return errors.NewConfigurationError(fmt.Sprintf("%s must start with http:// or https://", name), nil)
	}
	return nil
}

// Validate checks server configuration
func (s *ServerConfig) Validate() error {
	if s.Port < 1 || s.Port > 65535 {
		return errors.NewConfigurationError("SERVER_PORT must be between 1 and 65535", nil)
	}
	return nil
}

// Validate checks cache configuration
func (c *CacheConfig) Validate() error {
	if c.TTLMinutes < 1 {
		return errors.NewConfigurationError("CACHE_TTL_MINUTES must be at least 1", nil)
	}
	if c.SweepIntervalMinutes < 1 {
		return errors.NewConfigurationError("CACHE_SWEEP_INTERVAL_MINUTES must be at least 1", nil)
	}
	return nil
}

// Validate checks domestic pipeline configuration
func (d *DomesticConfig) Validate() error {
	if len(d.HomeCountry) != 2 {
		return errors.NewConfigurationError("DOMESTIC_HOME_COUNTRY must be a two-letter ISO code", nil)
	}
	if d.LapseRate <= 0 {
		return errors.NewConfigurationError("DOMESTIC_LAPSE_RATE must be positive", nil)
	}
	return nil
}
