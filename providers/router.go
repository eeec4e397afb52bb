package providers

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"trailweather.app/errors"
	"trailweather.app/metrics"
	"trailweather.app/models"
	"trailweather.app/providers/cache"
)

// Router owns one provider per supported country plus a designated
// catch-all fallback that doubles as the default for unmapped countries.
// It selects, calls, caches, and falls back exactly one level.
type Router struct {
	providers map[string]ForecastProvider
	fallback  ForecastProvider
	cache     *cache.ForecastCache
	metrics   *metrics.ProviderMetrics
}

func NewRouter(fallback ForecastProvider, forecastCache *cache.ForecastCache, m *metrics.ProviderMetrics) *Router {
	return &Router{
		providers: make(map[string]ForecastProvider),
		fallback:  fallback,
		cache:     forecastCache,
		metrics:   m,
	}
}

// Register maps an ISO country code to a provider.
func (r *Router) Register(country string, provider ForecastProvider) {
	r.providers[normalizeCountry(country)] = provider
}

func normalizeCountry(country string) string {
	return strings.ToUpper(strings.TrimSpace(country))
}

// Resolve returns the provider serving the country, or the fallback for
// unmapped codes.
func (r *Router) Resolve(country string) ForecastProvider {
	if provider, ok := r.providers[normalizeCountry(country)]; ok {
		return provider
	}
	return r.fallback
}

// GetForecast serves a forecast from cache or the resolved provider,
// degrading once to the fallback. A failing fallback is terminal: the
// router never recurses into it, so a persistently broken default cannot
// mask itself behind an infinite retry loop.
func (r *Router) GetForecast(ctx context.Context, lat, lon float64, country string, days int) (*models.InternationalForecast, error) {
	country = normalizeCountry(country)
	provider := r.Resolve(country)

	if cached, ok := r.lookupCache(provider.Name(), lat, lon, days); ok {
		return stamped(cached, country, false), nil
	}

	forecast, err := r.call(ctx, provider, lat, lon, days)
	if err == nil {
		forecast.Country = country
		forecast.IsFallback = false
		r.cache.Set(provider.Name(), lat, lon, days, forecast)
		return forecast, nil
	}

	// Misconfiguration is not recoverable by retrying elsewhere.
	if errors.IsType(err, errors.ProviderMisconfigured) {
		return nil, err
	}

	if provider == r.fallback {
		return nil, errors.NewAllProvidersExhausted(
			fmt.Sprintf("fallback provider %s failed", provider.Name()), err)
	}

	slog.Info("provider failed, trying fallback",
		"provider", provider.Name(), "fallback", r.fallback.Name(), "error", err)

	if cached, ok := r.lookupCache(r.fallback.Name(), lat, lon, days); ok {
		return stamped(cached, country, true), nil
	}

	forecast, fbErr := r.call(ctx, r.fallback, lat, lon, days)
	if fbErr != nil {
		return nil, errors.NewAllProvidersExhausted(
			fmt.Sprintf("both %s and fallback %s failed", provider.Name(), r.fallback.Name()), fbErr)
	}

	r.metrics.RecordFallback(provider.Name(), r.fallback.Name())
	forecast.Country = country
	forecast.IsFallback = true
	// Cached under the fallback's own identity, not the original
	// provider's, so a recovered primary is not shadowed by stale
	// fallback data.
	r.cache.Set(r.fallback.Name(), lat, lon, days, forecast)
	return forecast, nil
}

// stamped copies a cached forecast with the current request's country and
// fallback tag. An entry cached on one request's fallback path can serve a
// later request for which the fallback is the selected provider; the tags
// belong to the request, not the stored value.
func stamped(forecast *models.InternationalForecast, country string, isFallback bool) *models.InternationalForecast {
	hit := *forecast
	hit.Country = country
	hit.IsFallback = isFallback
	return &hit
}

func (r *Router) lookupCache(providerName string, lat, lon float64, days int) (*models.InternationalForecast, bool) {
	value, ok := r.cache.Get(providerName, lat, lon, days)
	if !ok {
		r.metrics.RecordCacheMiss(providerName)
		return nil, false
	}
	forecast, ok := value.(*models.InternationalForecast)
	if !ok {
		r.metrics.RecordCacheMiss(providerName)
		return nil, false
	}
	r.metrics.RecordCacheHit(providerName)
	return forecast, true
}

func (r *Router) call(ctx context.Context, provider ForecastProvider, lat, lon float64, days int) (*models.InternationalForecast, error) {
	r.metrics.RecordRequest(provider.Name())
	start := time.Now()
	forecast, err := provider.GetForecast(ctx, lat, lon, days)
	r.metrics.RecordLatency(provider.Name(), time.Since(start).Seconds())
	if err != nil {
		r.metrics.RecordFailure(provider.Name(), errorType(err))
		return nil, err
	}
	return forecast, nil
}

func errorType(err error) string {
	switch {
	case errors.IsType(err, errors.ProviderUnsupportedLocation):
		return string(errors.ProviderUnsupportedLocation)
	case errors.IsType(err, errors.ProviderMisconfigured):
		return string(errors.ProviderMisconfigured)
	default:
		return string(errors.ProviderUnavailable)
	}
}

// GetAlerts resolves the same provider as GetForecast. Alerts are
// supplementary: any failure degrades to an empty list and a log line and
// must never abort a forecast request.
func (r *Router) GetAlerts(ctx context.Context, lat, lon float64, country string) []models.WeatherAlert {
	provider := r.Resolve(country)
	if !provider.SupportsAlerts() {
		return []models.WeatherAlert{}
	}

	alerts, err := provider.GetAlerts(ctx, lat, lon)
	if err != nil {
		slog.Warn("alert fetch failed", "provider", provider.Name(), "error", err)
		return []models.WeatherAlert{}
	}
	return alerts
}

// Reset clears cached state; a teardown hook for tests.
func (r *Router) Reset() {
	r.cache.Clear()
}

// Close releases every provider's connection pool.
func (r *Router) Close() {
	seen := make(map[ForecastProvider]bool)
	for _, provider := range r.providers {
		if closer, ok := provider.(Closer); ok && !seen[provider] {
			closer.Close()
			seen[provider] = true
		}
	}
	if closer, ok := r.fallback.(Closer); ok && !seen[r.fallback] {
		closer.Close()
	}
}
