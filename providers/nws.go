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

// NWSProvider implements ForecastProvider for the US National Weather
// Service. Acquisition is two-step: resolve the office/grid for a point,
// then fetch the day/night period forecast from the URL the first step
// returns. NWS reports Fahrenheit, free-text wind ranges, and free-text
// forecast strings; probability, cloud cover, and accumulations are
// inferred from those.
type NWSProvider struct {
	baseURL   string
	userAgent string
	client    *Client
}

func NewNWSProvider(cfg *config.NWSConfig) *NWSProvider {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	return &NWSProvider{
		baseURL:   cfg.BaseURL,
		userAgent: cfg.UserAgent,
		client:    NewClient("nws", DefaultClientConfig(timeout)),
	}
}

func (p *NWSProvider) Name() string { return "nws" }

func (p *NWSProvider) SupportsAlerts() bool { return true }

type nwsPointResponse struct {
	Properties struct {
		Forecast string `json:"forecast"`
		GridID   string `json:"gridId"`
	} `json:"properties"`
}

type nwsForecastResponse struct {
	Properties struct {
		Periods []struct {
			Name                       string  `json:"name"`
			StartTime                  string  `json:"startTime"`
			IsDaytime                  bool    `json:"isDaytime"`
			Temperature                float64 `json:"temperature"`
			TemperatureUnit            string  `json:"temperatureUnit"`
			WindSpeed                  string  `json:"windSpeed"`
			WindDirection              string  `json:"windDirection"`
			ProbabilityOfPrecipitation struct {
				Value *int `json:"value"`
			} `json:"probabilityOfPrecipitation"`
			ShortForecast    string `json:"shortForecast"`
			DetailedForecast string `json:"detailedForecast"`
		} `json:"periods"`
	} `json:"properties"`
}

func (p *NWSProvider) headers() map[string]string {
	return map[string]string{
		"User-Agent": p.userAgent,
		"Accept":     "application/geo+json",
	}
}

func (p *NWSProvider) GetForecast(ctx context.Context, lat, lon float64, days int) (*models.InternationalForecast, error) {
	if days < 1 {
		return nil, errors.NewValidationError("days must be at least 1")
	}

	pointURL := fmt.Sprintf("%s/points/%.4f,%.4f", p.baseURL, lat, lon)
	var point nwsPointResponse
	if err := p.client.GetJSON(ctx, pointURL, p.headers(), &point); err != nil {
		return nil, err
	}
	if point.Properties.Forecast == "" {
		return nil, errors.NewProviderUnsupportedLocation("nws: point resolves to no forecast grid")
	}

	var forecast nwsForecastResponse
	if err := p.client.GetJSON(ctx, point.Properties.Forecast, p.headers(), &forecast); err != nil {
		return nil, err
	}

	// Day/night periods: two per calendar day.
	limit := days * 2
	raw := forecast.Properties.Periods
	if len(raw) > limit {
		raw = raw[:limit]
	}

	periods := make([]models.ForecastPeriod, 0, len(raw))
	for _, rp := range raw {
		start, err := time.Parse(time.RFC3339, rp.StartTime)
		if err != nil {
			continue
		}

		temp := rp.Temperature
		if rp.TemperatureUnit == "F" {
			temp = FahrenheitToCelsius(temp)
		}

		label := models.PeriodNight
		if rp.IsDaytime {
			label = models.PeriodAfternoon
		}

		period := models.ForecastPeriod{
			Start:   start.UTC(),
			Label:   label,
			TempMin: temp,
			TempMax: temp,
		}

		if rp.ProbabilityOfPrecipitation.Value != nil {
			period.RainChance = *rp.ProbabilityOfPrecipitation.Value
		}
		period.RainMin, period.RainMax = EstimatePrecipRange(period.RainChance, rp.ShortForecast)

		if avg, max, ok := ParseWindRange(rp.WindSpeed); ok {
			period.WindAvg, period.WindMax = avg, max
		} else {
			period.WindAvg, period.WindMax = derive.WindBandFromIcon(rp.ShortForecast)
		}
		period.WindDirection = NormalizeCompass(rp.WindDirection)
		period.CloudCover = CloudCoverFromText(rp.ShortForecast)
		// NWS gives no surface elevation for the grid; sea level is the
		// reference, so derived heights are lower bounds.
		period.FreezingLevel = derive.FreezingLevel(0, temp, derive.DefaultLapseRate)
		period.CloudBase = derive.CloudBase(0, temp, nil, period.CloudCover)
		period.OrderBounds()

		periods = append(periods, period)
	}

	if len(periods) == 0 {
		return nil, errors.NewProviderUnavailable("nws: forecast returned no periods", nil)
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

type nwsAlertsResponse struct {
	Features []struct {
		Properties struct {
			Event    string `json:"event"`
			Headline string `json:"headline"`
			Severity string `json:"severity"`
			Urgency  string `json:"urgency"`
			Expires  string `json:"expires"`
		} `json:"properties"`
	} `json:"features"`
}

// GetAlerts fetches active alerts filtered by point.
func (p *NWSProvider) GetAlerts(ctx context.Context, lat, lon float64) ([]models.WeatherAlert, error) {
	alertURL := fmt.Sprintf("%s/alerts/active?point=%.4f,%.4f", p.baseURL, lat, lon)

	var resp nwsAlertsResponse
	if err := p.client.GetJSON(ctx, alertURL, p.headers(), &resp); err != nil {
		return nil, err
	}

	alerts := make([]models.WeatherAlert, 0, len(resp.Features))
	for _, f := range resp.Features {
		alert := models.WeatherAlert{
			Event:    f.Properties.Event,
			Headline: f.Properties.Headline,
			Severity: f.Properties.Severity,
			Urgency:  f.Properties.Urgency,
		}
		if expires, err := time.Parse(time.RFC3339, f.Properties.Expires); err == nil {
			utc := expires.UTC()
			alert.Expires = &utc
		}
		alerts = append(alerts, alert)
	}
	return alerts, nil
}

// Close releases the provider's connection pool.
func (p *NWSProvider) Close() { p.client.Close() }
