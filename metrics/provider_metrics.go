package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type ProviderMetricsCollector struct {
	Requests      *prometheus.CounterVec
	Failures      *prometheus.CounterVec
	Latency       *prometheus.HistogramVec
	Fallbacks     *prometheus.CounterVec
	CacheHits     *prometheus.CounterVec
	CacheMisses   *prometheus.CounterVec
	CacheHitRatio *prometheus.GaugeVec
}

var (
	globalCollector *ProviderMetricsCollector
	collectorOnce   sync.Once
)

func getCollector() *ProviderMetricsCollector {
	collectorOnce.Do(func() {
		globalCollector = &ProviderMetricsCollector{
			Requests: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "forecast_provider_requests_total",
					Help: "The total number of upstream forecast requests",
				},
				[]string{"provider"},
			),
			Failures: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "forecast_provider_failures_total",
					Help: "The total number of failed upstream forecast requests",
				},
				[]string{"provider", "error_type"},
			),
			Latency: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "forecast_provider_duration_seconds",
					Help:    "Upstream forecast request duration in seconds",
					Buckets: prometheus.DefBuckets,
				},
				[]string{"provider"},
			),
			Fallbacks: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "forecast_fallbacks_total",
					Help: "The total number of requests served by the fallback provider",
				},
				[]string{"from", "to"},
			),
			CacheHits: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "forecast_cache_hits_total",
					Help: "The total number of forecast cache hits",
				},
				[]string{"provider"},
			),
			CacheMisses: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "forecast_cache_misses_total",
					Help: "The total number of forecast cache misses",
				},
				[]string{"provider"},
			),
			CacheHitRatio: promauto.NewGaugeVec(
				prometheus.GaugeOpts{
					Name: "forecast_cache_hit_ratio",
					Help: "Forecast cache hit ratio (hits/total requests)",
				},
				[]string{"provider"},
			),
		}
	})
	return globalCollector
}

// ProviderMetrics records acquisition metrics for one process instance.
type ProviderMetrics struct {
	collector *ProviderMetricsCollector
	mu        sync.RWMutex
	hits      map[string]int64
	total     map[string]int64
}

func NewProviderMetrics() *ProviderMetrics {
	return &ProviderMetrics{
		collector: getCollector(),
		hits:      make(map[string]int64),
		total:     make(map[string]int64),
	}
}

func (m *ProviderMetrics) RecordRequest(provider string) {
	m.collector.Requests.WithLabelValues(provider).Inc()
}

func (m *ProviderMetrics) RecordFailure(provider, errorType string) {
	m.collector.Failures.WithLabelValues(provider, errorType).Inc()
}

func (m *ProviderMetrics) RecordLatency(provider string, seconds float64) {
	m.collector.Latency.WithLabelValues(provider).Observe(seconds)
}

func (m *ProviderMetrics) RecordFallback(from, to string) {
	m.collector.Fallbacks.WithLabelValues(from, to).Inc()
}

func (m *ProviderMetrics) RecordCacheHit(provider string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.hits[provider]++
	m.total[provider]++
	m.collector.CacheHits.WithLabelValues(provider).Inc()
	m.updateHitRatio(provider)
}

func (m *ProviderMetrics) RecordCacheMiss(provider string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.total[provider]++
	m.collector.CacheMisses.WithLabelValues(provider).Inc()
	m.updateHitRatio(provider)
}

// updateHitRatio updates the Prometheus hit ratio gauge.
// Must be called while holding the mutex.
func (m *ProviderMetrics) updateHitRatio(provider string) {
	if m.total[provider] > 0 {
		ratio := float64(m.hits[provider]) / float64(m.total[provider])
		m.collector.CacheHitRatio.WithLabelValues(provider).Set(ratio)
	}
}

// GetStats returns a point-in-time snapshot of cache counters per provider.
func (m *ProviderMetrics) GetStats() map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stats := make(map[string]interface{}, len(m.total))
	for provider, total := range m.total {
		var ratio float64
		if total > 0 {
			ratio = float64(m.hits[provider]) / float64(total)
		}
		stats[provider] = map[string]interface{}{
			"hits":      m.hits[provider],
			"total":     total,
			"hit_ratio": ratio,
		}
	}
	return stats
}
