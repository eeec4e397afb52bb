package providers

import (
	"context"
	"fmt"
	"time"

	"trailweather.app/config"
	"trailweather.app/derive"
	"trailweather.app/errors"
	"trailweather.app/models"
)

// Environment Canada only serves points inside this bounding box; the
// check runs before any network call.
const (
	canadaLatMin = 41.0
	canadaLatMax = 84.0
	canadaLonMin = -141.0
	canadaLonMax = -52.0
)

// EnvCanadaProvider implements ForecastProvider for Environment Canada.
// The upstream is coordinate-keyed and exposes daily forecasts with
// free-text summaries plus an alerts structure keyed by alert type.
type EnvCanadaProvider struct {
	baseURL string
	client  *Client
}

func NewEnvCanadaProvider(cfg *config.EnvCanadaConfig) *EnvCanadaProvider {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	return &EnvCanadaProvider{
		baseURL: cfg.BaseURL,
		client:  NewClient("env-canada", DefaultClientConfig(timeout)),
	}
}

func (p *EnvCanadaProvider) Name() string { return "env-canada" }

func (p *EnvCanadaProvider) SupportsAlerts() bool { return true }

func inCanada(lat, lon float64) bool {
	return lat >= canadaLatMin && lat <= canadaLatMax &&
		lon >= canadaLonMin && lon <= canadaLonMax
}

type envCanadaResponse struct {
	DailyForecasts []struct {
		Date          string  `json:"date"`
		Period        string  `json:"period"`
		Temperature   float64 `json:"temperature"`
		PrecipChance  int     `json:"precip_probability"`
		TextSummary   string  `json:"text_summary"`
		WindDirection string  `json:"wind_direction"`
	} `json:"daily_forecasts"`
	Alerts map[string][]struct {
		Title  string `json:"title"`
		Text   string `json:"text"`
		Expiry string `json:"expiry"`
	} `json:"alerts"`
}

func (p *EnvCanadaProvider) fetch(ctx context.Context, lat, lon float64) (*envCanadaResponse, error) {
	url := fmt.Sprintf("%s/forecast?lat=%.4f&lon=%.4f", p.baseURL, lat, lon)
	var resp envCanadaResponse
	if err := p.client.GetJSON(ctx, url, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (p *EnvCanadaProvider) GetForecast(ctx context.Context, lat, lon float64, days int) (*models.InternationalForecast, error) {
	if days < 1 {
		return nil, errors.NewValidationError("days must be at least 1")
	}
	if !inCanada(lat, lon) {
		return nil, errors.NewProviderUnsupportedLocation(
			fmt.Sprintf("env-canada: %.4f,%.4f outside Canadian bounding box", lat, lon))
	}

	resp, err := p.fetch(ctx, lat, lon)
	if err != nil {
		return nil, err
	}
	if len(resp.DailyForecasts) == 0 {
		return nil, errors.NewProviderUnavailable("env-canada: empty daily_forecasts", nil)
	}

	// The upstream alternates day and night entries, two per calendar day.
	limit := days * 2
	raw := resp.DailyForecasts
	if len(raw) > limit {
		raw = raw[:limit]
	}

	periods := make([]models.ForecastPeriod, 0, len(raw))
	for _, df := range raw {
		start, err := time.Parse("2006-01-02", df.Date)
		if err != nil {
			continue
		}

		label := models.PeriodAfternoon
		if df.Period == "night" {
			label = models.PeriodNight
		}

		period := models.ForecastPeriod{
			Start:      start.UTC(),
			Label:      label,
			TempMin:    df.Temperature,
			TempMax:    df.Temperature,
			RainChance: df.PrecipChance,
		}
		period.RainMin, period.RainMax = EstimatePrecipRange(df.PrecipChance, df.TextSummary)
		if avg, max, ok := ParseWindRange(df.TextSummary); ok {
			period.WindAvg, period.WindMax = avg, max
		} else {
			period.WindAvg, period.WindMax = derive.WindBandFromIcon(df.TextSummary)
		}
		period.WindDirection = NormalizeCompass(df.WindDirection)
		period.CloudCover = CloudCoverFromText(df.TextSummary)
		period.FreezingLevel = derive.FreezingLevel(0, df.Temperature, derive.DefaultLapseRate)
		period.CloudBase = derive.CloudBase(0, df.Temperature, nil, period.CloudCover)
		period.OrderBounds()

		periods = append(periods, period)
	}

	return &models.InternationalForecast{
		Provider:  p.Name(),
		Latitude:  lat,
		Longitude: lon,
		Periods:   periods,
		Alerts:    []models.WeatherAlert{},
		FetchedAt: time.Now().UTC(),
	}, nil
}

// GetAlerts flattens the type-keyed alerts structure. The alert type
// ("warnings", "watches", ...) becomes the event name.
func (p *EnvCanadaProvider) GetAlerts(ctx context.Context, lat, lon float64) ([]models.WeatherAlert, error) {
	if !inCanada(lat, lon) {
		return nil, errors.NewProviderUnsupportedLocation(
			fmt.Sprintf("env-canada: %.4f,%.4f outside Canadian bounding box", lat, lon))
	}

	resp, err := p.fetch(ctx, lat, lon)
	if err != nil {
		return nil, err
	}

	alerts := make([]models.WeatherAlert, 0)
	for alertType, entries := range resp.Alerts {
		for _, e := range entries {
			alert := models.WeatherAlert{
				Event:    alertType,
				Headline: e.Title,
				Severity: severityForAlertType(alertType),
				Urgency:  "Expected",
			}
			if expiry, err := time.Parse(time.RFC3339, e.Expiry); err == nil {
				utc := expiry.UTC()
				alert.Expires = &utc
			}
			alerts = append(alerts, alert)
		}
	}
	return alerts, nil
}

func severityForAlertType(alertType string) string {
	switch alertType {
	case "warnings":
		return "Severe"
	case "watches":
		return "Moderate"
	default:
		return "Minor"
	}
}

// Close releases the provider's connection pool.
func (p *EnvCanadaProvider) Close() { p.client.Close() }
