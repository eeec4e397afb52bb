package providers

import (
	"context"

	"trailweather.app/models"
)

// ForecastProvider is the capability-typed contract every upstream weather
// service is normalized behind. Implementations convert foreign units and
// fill fields the upstream omits; downstream renderers assume full records.
type ForecastProvider interface {
	Name() string
	GetForecast(ctx context.Context, lat, lon float64, days int) (*models.InternationalForecast, error)
	// GetAlerts is best-effort. Providers whose SupportsAlerts is false
	// return an empty list without making a network call.
	GetAlerts(ctx context.Context, lat, lon float64) ([]models.WeatherAlert, error)
	SupportsAlerts() bool
}

// Closer is implemented by providers holding an HTTP connection pool.
type Closer interface {
	Close()
}
