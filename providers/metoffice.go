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

// MetOfficeProvider implements ForecastProvider for the UK Met Office
// site-specific DataHub API. The upstream carries metric fields directly;
// wind arrives in m/s and needs conversion, direction in degrees, and
// conditions as a numeric significant-weather code. The free tier has no
// alerts.
type MetOfficeProvider struct {
	baseURL string
	apiKey  string
	client  *Client
}

func NewMetOfficeProvider(cfg *config.MetOfficeConfig) *MetOfficeProvider {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	return &MetOfficeProvider{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		client:  NewClient("met-office", DefaultClientConfig(timeout)),
	}
}

func (p *MetOfficeProvider) Name() string { return "met-office" }

func (p *MetOfficeProvider) SupportsAlerts() bool { return false }

// GetAlerts returns an empty list without a network call; the free tier
// exposes no alert feed.
func (p *MetOfficeProvider) GetAlerts(ctx context.Context, lat, lon float64) ([]models.WeatherAlert, error) {
	return []models.WeatherAlert{}, nil
}

// significantWeather maps the Met Office significant-weather codes (1-30)
// to condition descriptions and an estimated cloud cover.
var significantWeather = map[int]struct {
	description string
	cloudCover  int
}{
	1:  {"Sunny day", 5},
	2:  {"Partly cloudy", 45},
	3:  {"Partly cloudy", 45},
	5:  {"Mist", 90},
	6:  {"Fog", 100},
	7:  {"Cloudy", 80},
	8:  {"Overcast", 95},
	9:  {"Light rain shower", 70},
	10: {"Light rain shower", 70},
	11: {"Drizzle", 85},
	12: {"Light rain", 85},
	13: {"Heavy rain shower", 80},
	14: {"Heavy rain shower", 80},
	15: {"Heavy rain", 95},
	16: {"Sleet shower", 85},
	17: {"Sleet shower", 85},
	18: {"Sleet", 90},
	19: {"Hail shower", 80},
	20: {"Hail shower", 80},
	21: {"Hail", 90},
	22: {"Light snow shower", 80},
	23: {"Light snow shower", 80},
	24: {"Light snow", 90},
	25: {"Heavy snow shower", 85},
	26: {"Heavy snow shower", 85},
	27: {"Heavy snow", 95},
	28: {"Thunder shower", 75},
	29: {"Thunder shower", 75},
	30: {"Thunder", 85},
}

type metOfficeResponse struct {
	Features []struct {
		Properties struct {
			Location struct {
				Elevation float64 `json:"elevation"`
			} `json:"location"`
			TimeSeries []struct {
				Time               string  `json:"time"`
				MaxTemp            float64 `json:"dayMaxScreenTemperature"`
				MinTemp            float64 `json:"nightMinScreenTemperature"`
				WindSpeed          float64 `json:"midday10MWindSpeed"`
				WindGust           float64 `json:"midday10MWindGust"`
				WindDirection      float64 `json:"midday10MWindDirection"`
				PrecipProbability  int     `json:"dayProbabilityOfPrecipitation"`
				PrecipitationRate  float64 `json:"middayPrecipitationRate"`
				SnowAmount         float64 `json:"dayTotalSnowAmount"`
				Visibility         float64 `json:"middayVisibility"`
				SignificantWeather int     `json:"daySignificantWeatherCode"`
			} `json:"timeSeries"`
		} `json:"properties"`
	} `json:"features"`
}

func (p *MetOfficeProvider) GetForecast(ctx context.Context, lat, lon float64, days int) (*models.InternationalForecast, error) {
	if days < 1 {
		return nil, errors.NewValidationError("days must be at least 1")
	}
	if p.apiKey == "" {
		return nil, errors.NewProviderMisconfigured("met-office: MET_OFFICE_API_KEY is required")
	}

	url := fmt.Sprintf("%s/daily?latitude=%.4f&longitude=%.4f", p.baseURL, lat, lon)
	headers := map[string]string{"apikey": p.apiKey}

	var resp metOfficeResponse
	if err := p.client.GetJSON(ctx, url, headers, &resp); err != nil {
		return nil, err
	}
	if len(resp.Features) == 0 || len(resp.Features[0].Properties.TimeSeries) == 0 {
		return nil, errors.NewProviderUnavailable("met-office: empty timeSeries", nil)
	}

	props := resp.Features[0].Properties
	elevation := props.Location.Elevation

	series := props.TimeSeries
	if len(series) > days {
		series = series[:days]
	}

	periods := make([]models.ForecastPeriod, 0, len(series))
	for _, ts := range series {
		// Upstream timestamps carry no seconds field.
		start, err := time.Parse("2006-01-02T15:04Z07:00", ts.Time)
		if err != nil {
			continue
		}

		period := models.ForecastPeriod{
			Start:      start.UTC(),
			Label:      "day",
			TempMin:    ts.MinTemp,
			TempMax:    ts.MaxTemp,
			RainChance: ts.PrecipProbability,
			// Rate (mm/h) at midday scaled to a plausible daily band.
			RainMin:       ts.PrecipitationRate,
			RainMax:       ts.PrecipitationRate * 6,
			SnowMin:       ts.SnowAmount / 10, // mm of snow to cm
			SnowMax:       ts.SnowAmount / 10,
			WindAvg:       MsToKmh(ts.WindSpeed),
			WindMax:       MsToKmh(ts.WindGust),
			WindDirection: DegreesToCompass(ts.WindDirection),
		}

		if sw, ok := significantWeather[ts.SignificantWeather]; ok {
			period.CloudCover = sw.cloudCover
		} else {
			period.CloudCover = 50
		}
		period.FreezingLevel = derive.FreezingLevel(elevation, ts.MaxTemp, derive.DefaultLapseRate)
		period.CloudBase = derive.CloudBase(elevation, ts.MaxTemp, nil, period.CloudCover)
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

// WeatherDescription returns the text for a significant-weather code.
func WeatherDescription(code int) string {
	if sw, ok := significantWeather[code]; ok {
		return sw.description
	}
	return "Unknown"
}

// Close releases the provider's connection pool.
func (p *MetOfficeProvider) Close() { p.client.Close() }
