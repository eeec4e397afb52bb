package app

import (
	"log"
	"os"
	"sort"
	"strings"

	"trailweather.app/config"
)

// ConfigDisplayer handles configuration and environment variable display
type ConfigDisplayer struct{}

// NewConfigDisplayer creates a new configuration displayer
func NewConfigDisplayer() *ConfigDisplayer {
	return &ConfigDisplayer{}
}

// PrintConfig prints all fields in the configuration
func (cd *ConfigDisplayer) PrintConfig(cfg *config.Config) {
	log.Println("==== APPLICATION CONFIGURATION ====")

	log.Printf("SERVER:\n")
	log.Printf("  Port: %d\n", cfg.Server.Port)

	log.Printf("\nCACHE:\n")
	log.Printf("  TTL: %s\n", cfg.Cache.TTL())
	log.Printf("  Sweep Interval: %s\n", cfg.Cache.SweepInterval())

	log.Printf("\nDOMESTIC:\n")
	log.Printf("  Home Country: %s\n", cfg.Domestic.HomeCountry)
	log.Printf("  Synthetic Enabled: %t\n", cfg.Domestic.SyntheticEnabled)
	log.Printf("  Lapse Rate: %.2f\n", cfg.Domestic.LapseRate)

	log.Printf("\nMETEO FRANCE:\n")
	log.Printf("  Base URL: %s\n", cfg.MeteoFrance.BaseURL)
	log.Printf("  Token: %s\n", cd.maskString(cfg.MeteoFrance.Token))
	log.Printf("  Timeout: %ds\n", cfg.MeteoFrance.TimeoutSeconds)

	log.Printf("\nOPEN METEO:\n")
	log.Printf("  Base URL: %s\n", cfg.OpenMeteo.BaseURL)
	log.Printf("  Model: %s\n", cfg.OpenMeteo.Model)

	log.Printf("\nNWS:\n")
	log.Printf("  Base URL: %s\n", cfg.NWS.BaseURL)
	log.Printf("  User Agent: %s\n", cfg.NWS.UserAgent)

	log.Printf("\nENVIRONMENT CANADA:\n")
	log.Printf("  Base URL: %s\n", cfg.EnvCanada.BaseURL)

	log.Printf("\nMET OFFICE:\n")
	log.Printf("  Base URL: %s\n", cfg.MetOffice.BaseURL)
	log.Printf("  API Key: %s\n", cd.maskString(cfg.MetOffice.APIKey))

	log.Printf("\nELEVATION:\n")
	log.Printf("  Base URL: %s\n", cfg.Elevation.BaseURL)

	log.Println("==== END CONFIGURATION ====")
}

// PrintAllEnvVars prints all environment variables sorted by name
func (cd *ConfigDisplayer) PrintAllEnvVars() {
	log.Println("==== ENVIRONMENT VARIABLES ====")

	envVars := os.Environ()
	sort.Strings(envVars)

	for _, envVar := range envVars {
		parts := strings.SplitN(envVar, "=", 2)
		if len(parts) != 2 {
			continue
		}
		name, value := parts[0], parts[1]
		if cd.isSensitive(name) {
			value = cd.maskString(value)
		}
		log.Printf("  %s=%s\n", name, value)
	}

	log.Println("==== END ENVIRONMENT VARIABLES ====")
}

func (cd *ConfigDisplayer) isSensitive(name string) bool {
	upper := strings.ToUpper(name)
	return strings.Contains(upper, "TOKEN") ||
		strings.Contains(upper, "KEY") ||
		strings.Contains(upper, "SECRET") ||
		strings.Contains(upper, "PASSWORD")
}

func (cd *ConfigDisplayer) maskString(s string) string {
	if s == "" {
		return "(not set)"
	}
	if len(s) <= 4 {
		return "****"
	}
	return s[:2] + strings.Repeat("*", len(s)-4) + s[len(s)-2:]
}
