package providers

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"trailweather.app/config"
	"trailweather.app/derive"
	"trailweather.app/errors"
	"trailweather.app/models"
)

// OpenMeteoProvider is the generic multi-model global provider used as the
// router's default and as the fallback target. It supplies freezing-level
// height, snowfall, and cloud cover directly, so less derivation is needed
// than for the other providers.
type OpenMeteoProvider struct {
	baseURL string
	model   string
	name    string
	client  *Client
}

func NewOpenMeteoProvider(cfg *config.OpenMeteoConfig) *OpenMeteoProvider {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	return &OpenMeteoProvider{
		baseURL: cfg.BaseURL,
		model:   cfg.Model,
		name:    openMeteoName(cfg.Model),
		client:  NewClient("open-meteo", DefaultClientConfig(timeout)),
	}
}

// openMeteoName derives the reported provider identity from the selected
// numerical model, so a regional model shows up in the source tag.
func openMeteoName(model string) string {
	m := strings.ToLower(model)
	switch {
	case strings.Contains(m, "meteofrance"):
		return "open-meteo/meteofrance"
	case strings.Contains(m, "icon"):
		return "open-meteo/icon"
	case strings.Contains(m, "gfs"):
		return "open-meteo/gfs"
	case model == "":
		return "open-meteo"
	default:
		return "open-meteo/" + m
	}
}

func (p *OpenMeteoProvider) Name() string { return p.name }

func (p *OpenMeteoProvider) SupportsAlerts() bool { return false }

// GetAlerts returns an empty list without a network call; Open-Meteo has
// no alert feed.
func (p *OpenMeteoProvider) GetAlerts(ctx context.Context, lat, lon float64) ([]models.WeatherAlert, error) {
	return []models.WeatherAlert{}, nil
}

type openMeteoResponse struct {
	Elevation float64 `json:"elevation"`
	Daily     struct {
		Time                  []string  `json:"time"`
		TemperatureMax        []float64 `json:"temperature_2m_max"`
		TemperatureMin        []float64 `json:"temperature_2m_min"`
		PrecipProbabilityMax  []int     `json:"precipitation_probability_max"`
		PrecipitationSum      []float64 `json:"precipitation_sum"`
		SnowfallSum           []float64 `json:"snowfall_sum"`
		WindSpeedMax          []float64 `json:"windspeed_10m_max"`
		WindDirectionDominant []float64 `json:"winddirection_10m_dominant"`
		CloudCoverMean        []int     `json:"cloudcover_mean"`
	} `json:"daily"`
	Hourly struct {
		Time                []string  `json:"time"`
		FreezingLevelHeight []float64 `json:"freezing_level_height"`
		Cape                []float64 `json:"cape"`
		DewPoint            []float64 `json:"dewpoint_2m"`
		CloudCover          []int     `json:"cloudcover"`
	} `json:"hourly"`
}

func (p *OpenMeteoProvider) GetForecast(ctx context.Context, lat, lon float64, days int) (*models.InternationalForecast, error) {
	if days < 1 {
		return nil, errors.NewValidationError("days must be at least 1")
	}

	values := url.Values{}
	values.Set("latitude", fmt.Sprintf("%.4f", lat))
	values.Set("longitude", fmt.Sprintf("%.4f", lon))
	values.Set("forecast_days", fmt.Sprintf("%d", days))
	values.Set("timezone", "UTC")
	values.Set("daily", strings.Join([]string{
		"temperature_2m_max", "temperature_2m_min",
		"precipitation_probability_max", "precipitation_sum", "snowfall_sum",
		"windspeed_10m_max", "winddirection_10m_dominant", "cloudcover_mean",
	}, ","))
	values.Set("hourly", strings.Join([]string{
		"freezing_level_height", "cape", "dewpoint_2m", "cloudcover",
	}, ","))
	if p.model != "" {
		values.Set("models", p.model)
	}

	var resp openMeteoResponse
	if err := p.client.GetJSON(ctx, p.baseURL+"?"+values.Encode(), nil, &resp); err != nil {
		return nil, err
	}

	if len(resp.Daily.Time) == 0 {
		return nil, errors.NewProviderUnavailable("open-meteo: empty daily series", nil)
	}

	periods := make([]models.ForecastPeriod, 0, len(resp.Daily.Time))
	for i, day := range resp.Daily.Time {
		start, err := time.Parse("2006-01-02", day)
		if err != nil {
			continue
		}

		period := models.ForecastPeriod{
			Start:   start.UTC(),
			Label:   "day",
			TempMin: floatAt(resp.Daily.TemperatureMin, i),
			TempMax: floatAt(resp.Daily.TemperatureMax, i),
		}
		period.RainChance = intAt(resp.Daily.PrecipProbabilityMax, i)
		rain := floatAt(resp.Daily.PrecipitationSum, i)
		period.RainMin, period.RainMax = rain, rain
		snow := floatAt(resp.Daily.SnowfallSum, i)
		period.SnowMin, period.SnowMax = snow, snow

		windMax := floatAt(resp.Daily.WindSpeedMax, i)
		period.WindMax = windMax
		// Daily series only reports the peak; sustained speed estimated
		// at 65% of it.
		period.WindAvg = windMax * 0.65
		period.WindDirection = DegreesToCompass(floatAt(resp.Daily.WindDirectionDominant, i))
		period.CloudCover = intAt(resp.Daily.CloudCoverMean, i)

		// Midday hourly sample carries the atmospheric quantities.
		if h := p.middayIndex(resp.Hourly.Time, day); h >= 0 {
			period.FreezingLevel = floatAt(resp.Hourly.FreezingLevelHeight, h)
			period.CAPE = floatAt(resp.Hourly.Cape, h)
			if h < len(resp.Hourly.DewPoint) {
				dp := resp.Hourly.DewPoint[h]
				period.DewPoint = &dp
			}
		}
		if period.FreezingLevel == 0 {
			period.FreezingLevel = derive.FreezingLevel(resp.Elevation, period.TempMax, derive.DefaultLapseRate)
		}
		period.CloudBase = derive.CloudBase(resp.Elevation, period.TempMax, period.DewPoint, period.CloudCover)

		period.OrderBounds()
		periods = append(periods, period)
	}

	return &models.InternationalForecast{
		Provider:  p.name,
		Latitude:  lat,
		Longitude: lon,
		Periods:   periods,
		Alerts:    []models.WeatherAlert{},
		FetchedAt: time.Now().UTC(),
	}, nil
}

func (p *OpenMeteoProvider) middayIndex(hourly []string, day string) int {
	target := day + "T12:00"
	for i, h := range hourly {
		if h == target {
			return i
		}
	}
	return -1
}

// WindSample is a supplemental daily wind reading keyed by date.
type WindSample struct {
	Avg       float64
	Max       float64
	Direction string
}

// AtmoSample is a supplemental atmospheric reading keyed by hour.
type AtmoSample struct {
	DewPoint float64
	CAPE     float64
}

// DailyWind fetches wind speed/direction per date for the domestic
// pipeline's daily resolution, which omits wind entirely. The series is
// requested in the caller's timezone so its date keys match period
// starts zoned to the forecast location.
func (p *OpenMeteoProvider) DailyWind(ctx context.Context, lat, lon float64, days int, timezone string) (map[string]WindSample, error) {
	values := url.Values{}
	values.Set("latitude", fmt.Sprintf("%.4f", lat))
	values.Set("longitude", fmt.Sprintf("%.4f", lon))
	values.Set("forecast_days", fmt.Sprintf("%d", days))
	values.Set("timezone", seriesTimezone(timezone))
	values.Set("daily", "windspeed_10m_max,winddirection_10m_dominant")

	var resp openMeteoResponse
	if err := p.client.GetJSON(ctx, p.baseURL+"?"+values.Encode(), nil, &resp); err != nil {
		return nil, err
	}

	samples := make(map[string]WindSample, len(resp.Daily.Time))
	for i, day := range resp.Daily.Time {
		max := floatAt(resp.Daily.WindSpeedMax, i)
		samples[day] = WindSample{
			Avg:       max * 0.65,
			Max:       max,
			Direction: DegreesToCompass(floatAt(resp.Daily.WindDirectionDominant, i)),
		}
	}
	return samples, nil
}

// HourlyAtmosphere fetches dew point and CAPE per hour; no domestic
// endpoint supplies either. Keyed in the caller's timezone like DailyWind.
func (p *OpenMeteoProvider) HourlyAtmosphere(ctx context.Context, lat, lon float64, days int, timezone string) (map[string]AtmoSample, error) {
	values := url.Values{}
	values.Set("latitude", fmt.Sprintf("%.4f", lat))
	values.Set("longitude", fmt.Sprintf("%.4f", lon))
	values.Set("forecast_days", fmt.Sprintf("%d", days))
	values.Set("timezone", seriesTimezone(timezone))
	values.Set("hourly", "dewpoint_2m,cape")

	var resp openMeteoResponse
	if err := p.client.GetJSON(ctx, p.baseURL+"?"+values.Encode(), nil, &resp); err != nil {
		return nil, err
	}

	samples := make(map[string]AtmoSample, len(resp.Hourly.Time))
	for i, hour := range resp.Hourly.Time {
		samples[hour] = AtmoSample{
			DewPoint: floatAt(resp.Hourly.DewPoint, i),
			CAPE:     floatAt(resp.Hourly.Cape, i),
		}
	}
	return samples, nil
}

// seriesTimezone falls back to Open-Meteo's coordinate-resolved zone when
// the caller has none.
func seriesTimezone(timezone string) string {
	if timezone == "" {
		return "auto"
	}
	return timezone
}

// RecentPrecipitation fetches the trailing 24/48/72 h rain and snow totals.
func (p *OpenMeteoProvider) RecentPrecipitation(ctx context.Context, lat, lon float64) (models.RecentPrecipitation, error) {
	values := url.Values{}
	values.Set("latitude", fmt.Sprintf("%.4f", lat))
	values.Set("longitude", fmt.Sprintf("%.4f", lon))
	values.Set("past_days", "3")
	values.Set("forecast_days", "1")
	values.Set("timezone", "UTC")
	values.Set("daily", "precipitation_sum,snowfall_sum")

	var resp openMeteoResponse
	if err := p.client.GetJSON(ctx, p.baseURL+"?"+values.Encode(), nil, &resp); err != nil {
		return models.RecentPrecipitation{}, err
	}

	// With past_days=3 the last entry is today; the three before it are
	// the trailing full days, most recent last.
	n := len(resp.Daily.Time)
	if n < 4 {
		return models.RecentPrecipitation{}, errors.NewProviderUnavailable("open-meteo: short precipitation history", nil)
	}

	var recent models.RecentPrecipitation
	for back := 1; back <= 3; back++ {
		idx := n - 1 - back
		rain := floatAt(resp.Daily.PrecipitationSum, idx)
		snow := floatAt(resp.Daily.SnowfallSum, idx)
		recent.Rain72 += rain
		recent.Snow72 += snow
		if back <= 2 {
			recent.Rain48 += rain
			recent.Snow48 += snow
		}
		if back == 1 {
			recent.Rain24 = rain
			recent.Snow24 = snow
		}
	}
	return recent, nil
}

// Close releases the provider's connection pool.
func (p *OpenMeteoProvider) Close() { p.client.Close() }

func floatAt(s []float64, i int) float64 {
	if i < 0 || i >= len(s) {
		return 0
	}
	return s[i]
}

func intAt(s []int, i int) int {
	if i < 0 || i >= len(s) {
		return 0
	}
	return s[i]
}
