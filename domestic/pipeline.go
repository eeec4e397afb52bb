// Package domestic implements the high-fidelity acquisition pipeline for
// home-country coordinates. It composites the authoritative domestic
// source with the global fallback provider for fields the domestic
// endpoints omit, and switches to the fallback wholesale when the
// primary is unreachable.
package domestic

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"trailweather.app/config"
	"trailweather.app/derive"
	"trailweather.app/errors"
	"trailweather.app/metrics"
	"trailweather.app/models"
	"trailweather.app/providers"
	"trailweather.app/providers/cache"
)

const primaryName = "meteofrance"

// FallbackSource is the slice of the global provider the pipeline needs:
// the full forecast for the outright-fallback path plus the supplemental
// reads used for enrichment.
type FallbackSource interface {
	Name() string
	GetForecast(ctx context.Context, lat, lon float64, days int) (*models.InternationalForecast, error)
	DailyWind(ctx context.Context, lat, lon float64, days int, timezone string) (map[string]providers.WindSample, error)
	HourlyAtmosphere(ctx context.Context, lat, lon float64, days int, timezone string) (map[string]providers.AtmoSample, error)
	RecentPrecipitation(ctx context.Context, lat, lon float64) (models.RecentPrecipitation, error)
}

// ElevationSource resolves the two elevation bases the pipeline needs.
// Domestic temperatures are valid at the model's coarse terrain height;
// fallback temperatures are already resolved to the exact point. Mixing
// the two bases produces wrong lapse-rate corrections.
type ElevationSource interface {
	PointElevation(ctx context.Context, lat, lon float64) (float64, error)
	ModelTerrain(ctx context.Context, lat, lon float64) (float64, error)
}

// Pipeline produces domestic forecasts. One instance per process.
type Pipeline struct {
	primary   PrimarySource
	fallback  FallbackSource
	elevation ElevationSource
	cache     *cache.ForecastCache
	metrics   *metrics.ProviderMetrics
	cfg       config.DomesticConfig
	ttl       time.Duration
}

func NewPipeline(
	primary PrimarySource,
	fallback FallbackSource,
	elevation ElevationSource,
	forecastCache *cache.ForecastCache,
	providerMetrics *metrics.ProviderMetrics,
	cfg config.DomesticConfig,
	ttl time.Duration,
) *Pipeline {
	return &Pipeline{
		primary:   primary,
		fallback:  fallback,
		elevation: elevation,
		cache:     forecastCache,
		metrics:   providerMetrics,
		cfg:       cfg,
		ttl:       ttl,
	}
}

// cacheName folds the resolution into the cache's provider dimension so
// hourly and daily requests for the same point don't collide.
func cacheName(resolution models.Resolution) string {
	return primaryName + ":" + string(resolution)
}

// GetForecast runs the acquisition sequence: cache, primary with
// enrichment, full fallback, then (only when enabled) synthetic.
func (p *Pipeline) GetForecast(ctx context.Context, lat, lon float64, days int, resolution models.Resolution) (*models.DomesticForecast, error) {
	if days < 1 {
		return nil, errors.NewValidationError("days must be at least 1")
	}
	if _, err := resolutionPath(resolution); err != nil {
		return nil, err
	}

	name := cacheName(resolution)
	if value, ok := p.cache.Get(name, lat, lon, days); ok {
		if forecast, ok := value.(*models.DomesticForecast); ok {
			p.metrics.RecordCacheHit(name)
			hit := *forecast
			hit.Cached = true
			return &hit, nil
		}
	}
	p.metrics.RecordCacheMiss(name)

	locationKey := LocationKey(lat, lon)
	gridCell := GridCell(lat, lon)

	start := time.Now()
	p.metrics.RecordRequest(primaryName)
	primary, err := p.primary.Fetch(ctx, locationKey, resolution, days)
	p.metrics.RecordLatency(primaryName, time.Since(start).Seconds())
	if err != nil {
		p.metrics.RecordFailure(primaryName, errorLabel(err))
		if errors.IsType(err, errors.ProviderMisconfigured) {
			return nil, err
		}
		slog.Warn("domestic primary failed, switching to fallback",
			"provider", primaryName, "fallback", p.fallback.Name(), "error", err)
		p.metrics.RecordFallback(primaryName, p.fallback.Name())
		return p.fallbackForecast(ctx, lat, lon, days, resolution, locationKey, gridCell)
	}

	baseElevation, err := p.elevation.ModelTerrain(ctx, lat, lon)
	if err != nil {
		slog.Warn("model terrain lookup failed, derived heights use sea level",
			"lat", lat, "lon", lon, "error", err)
		baseElevation = 0
	}

	forecast := p.assemble(primary, lat, lon, days, baseElevation, locationKey, gridCell)
	p.enrich(ctx, forecast, primary, lat, lon, days, resolution, baseElevation)

	p.cache.Set(name, lat, lon, days, forecast)
	return forecast, nil
}

// assemble converts the normalized primary periods into the result shape
// before enrichment. Derived heights are filled in by enrich once dew
// points are known.
func (p *Pipeline) assemble(primary *PrimaryForecast, lat, lon float64, days int, baseElevation float64, locationKey, gridCell string) *models.DomesticForecast {
	now := time.Now().UTC()
	forecast := &models.DomesticForecast{
		GridCell:      gridCell,
		LocationKey:   locationKey,
		Latitude:      lat,
		Longitude:     lon,
		BaseElevation: baseElevation,
		Periods:       make([]models.ForecastPeriod, 0, len(primary.Periods)),
		FetchedAt:     now,
		ExpiresAt:     now.Add(p.ttl),
		Source:        models.SourcePrimary,
	}
	for _, pp := range primary.Periods {
		forecast.Periods = append(forecast.Periods, models.ForecastPeriod{
			Start:         pp.Start,
			Label:         pp.Label,
			TempMin:       pp.TempMin,
			TempMax:       pp.TempMax,
			RainChance:    pp.RainChance,
			RainMin:       pp.RainMin,
			RainMax:       pp.RainMax,
			SnowMin:       pp.SnowMin,
			SnowMax:       pp.SnowMax,
			WindAvg:       pp.WindAvg,
			WindMax:       pp.WindMax,
			WindDirection: pp.WindDirection,
			CloudCover:    pp.CloudCover,
		})
	}
	return forecast
}

// enrich issues the supplemental reads concurrently, merges them in, and
// computes the derived heights. Each read degrades independently: wind
// falls back to the icon heuristic, atmosphere to the cloud-cover band,
// recent precipitation to all-zero totals.
func (p *Pipeline) enrich(ctx context.Context, forecast *models.DomesticForecast, primary *PrimaryForecast, lat, lon float64, days int, resolution models.Resolution, baseElevation float64) {
	needWind := false
	for _, pp := range primary.Periods {
		if !pp.HasWind {
			needWind = true
			break
		}
	}

	var (
		wg     sync.WaitGroup
		wind   map[string]providers.WindSample
		atmo   map[string]providers.AtmoSample
		recent models.RecentPrecipitation
	)

	// Supplemental series are requested in the forecast location's
	// timezone so their date/hour keys line up with the locally zoned
	// period starts. A UTC-keyed series would shift every key back a
	// day for periods starting at local midnight.
	timezone := primary.Timezone

	if needWind {
		wg.Add(1)
		go func() {
			defer wg.Done()
			samples, err := p.fallback.DailyWind(ctx, lat, lon, days, timezone)
			if err != nil {
				slog.Warn("supplemental wind fetch failed, using icon heuristic", "error", err)
				return
			}
			wind = samples
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		samples, err := p.fallback.HourlyAtmosphere(ctx, lat, lon, days, timezone)
		if err != nil {
			slog.Warn("supplemental atmosphere fetch failed, cloud base uses cover band", "error", err)
			return
		}
		atmo = samples
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		totals, err := p.fallback.RecentPrecipitation(ctx, lat, lon)
		if err != nil {
			slog.Warn("recent precipitation fetch failed, totals degrade to zero", "error", err)
			return
		}
		recent = totals
	}()

	wg.Wait()

	forecast.Recent = recent
	for i := range forecast.Periods {
		period := &forecast.Periods[i]
		pp := primary.Periods[i]

		if !pp.HasWind {
			if sample, ok := wind[period.Start.Format("2006-01-02")]; ok {
				period.WindAvg = sample.Avg
				period.WindMax = sample.Max
				period.WindDirection = sample.Direction
			} else {
				period.WindAvg, period.WindMax = derive.WindBandFromIcon(pp.Icon)
			}
		}

		if sample, ok := atmo[atmoKey(period.Start, resolution)]; ok {
			dp := sample.DewPoint
			period.DewPoint = &dp
			period.CAPE = sample.CAPE
		}

		period.FreezingLevel = derive.FreezingLevel(baseElevation, period.TempMax, p.cfg.LapseRate)
		period.CloudBase = derive.CloudBase(baseElevation, period.TempMax, period.DewPoint, period.CloudCover)
		period.OrderBounds()
	}
}

// atmoKey maps a period start to the hour the supplemental atmosphere
// series is keyed by, in the period's own zone. Coarse resolutions
// sample midday.
func atmoKey(start time.Time, resolution models.Resolution) string {
	if resolution == models.ResolutionHourly {
		return start.Format("2006-01-02T15:00")
	}
	return start.Format("2006-01-02") + "T12:00"
}

// fallbackForecast runs the full-switch path: the fallback provider's
// forecast resolved against the exact point elevation, with recent
// precipitation still attached best-effort.
func (p *Pipeline) fallbackForecast(ctx context.Context, lat, lon float64, days int, resolution models.Resolution, locationKey, gridCell string) (*models.DomesticForecast, error) {
	intl, err := p.fallback.GetForecast(ctx, lat, lon, days)
	if err != nil {
		if p.cfg.SyntheticEnabled {
			slog.Warn("fallback provider failed, generating synthetic forecast",
				"provider", p.fallback.Name(), "error", err)
			return p.synthetic(lat, lon, days, resolution, locationKey, gridCell), nil
		}
		return nil, errors.NewAllProvidersExhausted(
			fmt.Sprintf("domestic primary and fallback %s both failed", p.fallback.Name()), err)
	}

	baseElevation, err := p.elevation.PointElevation(ctx, lat, lon)
	if err != nil {
		slog.Warn("point elevation lookup failed, derived heights use sea level",
			"lat", lat, "lon", lon, "error", err)
		baseElevation = 0
	}

	var recent models.RecentPrecipitation
	if totals, err := p.fallback.RecentPrecipitation(ctx, lat, lon); err == nil {
		recent = totals
	} else {
		slog.Warn("recent precipitation fetch failed, totals degrade to zero", "error", err)
	}

	now := time.Now().UTC()
	forecast := &models.DomesticForecast{
		GridCell:      gridCell,
		LocationKey:   locationKey,
		Latitude:      lat,
		Longitude:     lon,
		BaseElevation: baseElevation,
		Periods:       intl.Periods,
		Recent:        recent,
		FetchedAt:     now,
		ExpiresAt:     now.Add(p.ttl),
		Source:        models.SourceFallback,
	}

	p.cache.Set(cacheName(resolution), lat, lon, days, forecast)
	return forecast, nil
}

// Reset clears the pipeline's cache. Intended for tests.
func (p *Pipeline) Reset() {
	p.cache.Clear()
}

func errorLabel(err error) string {
	if t := errors.TypeOf(err); t != "" {
		return string(t)
	}
	return "unknown"
}
