package domestic

import (
	"context"
	"fmt"
	"time"

	"trailweather.app/config"
	"trailweather.app/errors"
	"trailweather.app/models"
	"trailweather.app/providers"
)

// PrimaryPeriod is one normalized time bucket from the domestic
// endpoint. HasWind is false for the daily resolution, which omits wind
// entirely; the pipeline fills the gap from the fallback provider.
type PrimaryPeriod struct {
	Start         time.Time
	Label         string
	TempMin       float64
	TempMax       float64
	RainChance    int
	RainMin       float64
	RainMax       float64
	SnowMin       float64
	SnowMax       float64
	WindAvg       float64
	WindMax       float64
	WindDirection string
	CloudCover    int
	Icon          string
	HasWind       bool
}

// PrimaryForecast is the domestic endpoint's response after
// normalization, before enrichment and derivation.
type PrimaryForecast struct {
	Region   string
	Timezone string
	Periods  []PrimaryPeriod
}

// PrimarySource is the domestic upstream the pipeline composites over.
type PrimarySource interface {
	Fetch(ctx context.Context, locationKey string, resolution models.Resolution, days int) (*PrimaryForecast, error)
}

// MeteoFranceClient fetches forecasts from the Météo-France web service.
// Endpoints are keyed by the provider's geocoded location hash, one path
// per resolution. Period times arrive zoned to the location's timezone.
type MeteoFranceClient struct {
	baseURL string
	token   string
	client  *providers.Client
}

func NewMeteoFranceClient(cfg *config.MeteoFranceConfig) *MeteoFranceClient {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	return &MeteoFranceClient{
		baseURL: cfg.BaseURL,
		token:   cfg.Token,
		client:  providers.NewClient("meteofrance", providers.DefaultClientConfig(timeout)),
	}
}

type meteoFranceResponse struct {
	Metadata struct {
		Region   string `json:"region"`
		Timezone string `json:"timezone"`
	} `json:"metadata"`
	Periods []struct {
		Time        string `json:"time"`
		Temperature struct {
			Min float64 `json:"min"`
			Max float64 `json:"max"`
		} `json:"temperature"`
		Rain struct {
			Chance int `json:"chance"`
			Amount struct {
				Min float64 `json:"min"`
				Max float64 `json:"max"`
			} `json:"amount"`
		} `json:"rain"`
		Snow struct {
			Amount struct {
				Min float64 `json:"min"`
				Max float64 `json:"max"`
			} `json:"amount"`
		} `json:"snow"`
		Wind *struct {
			Speed     float64 `json:"speed"`
			Gust      float64 `json:"gust"`
			Direction float64 `json:"direction"`
		} `json:"wind,omitempty"`
		CloudCover int    `json:"cloud_cover"`
		Icon       string `json:"icon"`
	} `json:"periods"`
}

func resolutionPath(resolution models.Resolution) (string, error) {
	switch resolution {
	case models.ResolutionHourly:
		return "forecast/hourly", nil
	case models.ResolutionSixHourly:
		return "forecast/sixhourly", nil
	case models.ResolutionDaily:
		return "forecast/daily", nil
	default:
		return "", errors.NewValidationError(fmt.Sprintf("unknown resolution %q", resolution))
	}
}

// periodLabel maps a period start to the coarse label scheme for the
// six-hourly and daily resolutions, or an hour-of-day label for hourly.
func periodLabel(start time.Time, resolution models.Resolution) string {
	if resolution == models.ResolutionHourly {
		return fmt.Sprintf("%02dh", start.Hour())
	}
	switch h := start.Hour(); {
	case h >= 6 && h < 12:
		return models.PeriodMorning
	case h >= 12 && h < 18:
		return models.PeriodAfternoon
	default:
		return models.PeriodNight
	}
}

func (c *MeteoFranceClient) Fetch(ctx context.Context, locationKey string, resolution models.Resolution, days int) (*PrimaryForecast, error) {
	if c.token == "" {
		return nil, errors.NewProviderMisconfigured("meteofrance: METEO_FRANCE_TOKEN is not set")
	}
	path, err := resolutionPath(resolution)
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/%s?id=%s&days=%d&token=%s", c.baseURL, path, locationKey, days, c.token)
	var resp meteoFranceResponse
	if err := c.client.GetJSON(ctx, url, nil, &resp); err != nil {
		return nil, err
	}
	if len(resp.Periods) == 0 {
		return nil, errors.NewProviderUnavailable("meteofrance: empty period list", nil)
	}

	loc, err := time.LoadLocation(resp.Metadata.Timezone)
	if err != nil {
		if loc, err = time.LoadLocation("Europe/Paris"); err != nil {
			loc = time.UTC
		}
	}

	forecast := &PrimaryForecast{
		Region:   resp.Metadata.Region,
		Timezone: resp.Metadata.Timezone,
		Periods:  make([]PrimaryPeriod, 0, len(resp.Periods)),
	}
	for _, raw := range resp.Periods {
		start, err := time.Parse(time.RFC3339, raw.Time)
		if err != nil {
			continue
		}
		start = start.In(loc)

		period := PrimaryPeriod{
			Start:      start,
			Label:      periodLabel(start, resolution),
			TempMin:    raw.Temperature.Min,
			TempMax:    raw.Temperature.Max,
			RainChance: raw.Rain.Chance,
			RainMin:    raw.Rain.Amount.Min,
			RainMax:    raw.Rain.Amount.Max,
			SnowMin:    raw.Snow.Amount.Min,
			SnowMax:    raw.Snow.Amount.Max,
			CloudCover: raw.CloudCover,
			Icon:       raw.Icon,
		}
		if raw.Wind != nil {
			period.HasWind = true
			period.WindAvg = raw.Wind.Speed
			period.WindMax = raw.Wind.Gust
			period.WindDirection = providers.DegreesToCompass(raw.Wind.Direction)
		}
		forecast.Periods = append(forecast.Periods, period)
	}
	return forecast, nil
}

// Close releases the client's connection pool.
func (c *MeteoFranceClient) Close() { c.client.Close() }
