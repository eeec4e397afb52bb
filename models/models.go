// Package models defines data structures used throughout the application
package models

import "time"

// Resolution selects the time granularity of a domestic forecast request.
type Resolution string

const (
	ResolutionHourly    Resolution = "hourly"
	ResolutionSixHourly Resolution = "sixhourly"
	ResolutionDaily     Resolution = "daily"
)

// Coarse period labels used by daily-resolution forecasts. Hourly periods
// carry an "HHh" label instead.
const (
	PeriodNight     = "night"
	PeriodMorning   = "morning"
	PeriodAfternoon = "afternoon"
)

// Forecast source tags for domestic results.
const (
	SourcePrimary   = "primary"
	SourceFallback  = "fallback"
	SourceSynthetic = "synthetic"
)

// ForecastPeriod is one time bucket of normalized weather. All heights are
// meters above sea level; speeds are km/h; temperatures are Celsius.
type ForecastPeriod struct {
	Start         time.Time `json:"start"`
	Label         string    `json:"label"`
	TempMin       float64   `json:"temp_min"`
	TempMax       float64   `json:"temp_max"`
	RainChance    int       `json:"rain_chance"`
	RainMin       float64   `json:"rain_min_mm"`
	RainMax       float64   `json:"rain_max_mm"`
	SnowMin       float64   `json:"snow_min_cm"`
	SnowMax       float64   `json:"snow_max_cm"`
	WindAvg       float64   `json:"wind_avg_kmh"`
	WindMax       float64   `json:"wind_max_kmh"`
	WindDirection string    `json:"wind_direction"`
	CloudCover    int       `json:"cloud_cover"`
	CloudBase     float64   `json:"cloud_base_m"`
	FreezingLevel float64   `json:"freezing_level_m"`
	CAPE          float64   `json:"cape"`
	DewPoint      *float64  `json:"dew_point,omitempty"`
}

// OrderBounds restores the min <= max invariant on every populated pair.
func (p *ForecastPeriod) OrderBounds() {
	if p.TempMin > p.TempMax {
		p.TempMin, p.TempMax = p.TempMax, p.TempMin
	}
	if p.RainMin > p.RainMax {
		p.RainMin, p.RainMax = p.RainMax, p.RainMin
	}
	if p.SnowMin > p.SnowMax {
		p.SnowMin, p.SnowMax = p.SnowMax, p.SnowMin
	}
	if p.WindAvg > p.WindMax {
		p.WindAvg, p.WindMax = p.WindMax, p.WindAvg
	}
}

// RecentPrecipitation carries trailing rain (mm) and snow (cm) totals for a
// point, attached to domestic forecasts for trail-condition context.
type RecentPrecipitation struct {
	Rain24 float64 `json:"rain_24h_mm"`
	Rain48 float64 `json:"rain_48h_mm"`
	Rain72 float64 `json:"rain_72h_mm"`
	Snow24 float64 `json:"snow_24h_cm"`
	Snow48 float64 `json:"snow_48h_cm"`
	Snow72 float64 `json:"snow_72h_cm"`
}

// WeatherAlert is a best-effort advisory attached to international results.
type WeatherAlert struct {
	Event    string     `json:"event"`
	Headline string     `json:"headline"`
	Severity string     `json:"severity"`
	Urgency  string     `json:"urgency"`
	Expires  *time.Time `json:"expires,omitempty"`
}

// DomesticForecast is the high-fidelity result shape produced by the
// domestic acquisition pipeline for home-country coordinates.
type DomesticForecast struct {
	GridCell      string              `json:"grid_cell"`
	LocationKey   string              `json:"location_key"`
	Latitude      float64             `json:"latitude"`
	Longitude     float64             `json:"longitude"`
	BaseElevation float64             `json:"base_elevation_m"`
	Periods       []ForecastPeriod    `json:"periods"`
	Recent        RecentPrecipitation `json:"recent_precipitation"`
	FetchedAt     time.Time           `json:"fetched_at"`
	ExpiresAt     time.Time           `json:"expires_at"`
	Cached        bool                `json:"cached"`
	Source        string              `json:"source"`
}

// InternationalForecast is the result shape produced by the router for
// non-home coordinates. Period times are UTC.
type InternationalForecast struct {
	Provider   string           `json:"provider"`
	Latitude   float64          `json:"latitude"`
	Longitude  float64          `json:"longitude"`
	Country    string           `json:"country"`
	Periods    []ForecastPeriod `json:"periods"`
	Alerts     []WeatherAlert   `json:"alerts"`
	FetchedAt  time.Time        `json:"fetched_at"`
	IsFallback bool             `json:"is_fallback"`
}

// ForecastResult is the common view downstream renderers consume; both
// result shapes satisfy it and are interchangeable past this point.
type ForecastResult interface {
	ForecastPeriods() []ForecastPeriod
	SourceName() string
}

func (f *DomesticForecast) ForecastPeriods() []ForecastPeriod { return f.Periods }
func (f *DomesticForecast) SourceName() string                { return f.Source }

func (f *InternationalForecast) ForecastPeriods() []ForecastPeriod { return f.Periods }
func (f *InternationalForecast) SourceName() string                { return f.Provider }

// ErrorResponse represents an error message structure for API responses
type ErrorResponse struct {
	Error string `json:"error"`
}
