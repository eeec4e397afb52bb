package elevation

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"sync"
	"time"

	"trailweather.app/config"
	"trailweather.app/errors"
	"trailweather.app/providers"
)

// terrainStep is the sampling spacing in degrees for the 3x3 grid used
// by ModelTerrain. Roughly 1 km in latitude, which approximates the
// footprint of the domestic model's grid cell. The averaged value is an
// approximation of the model's true terrain height, not a guarantee.
const terrainStep = 0.01

// Service resolves elevations through the Open-Meteo elevation API.
// Terrain does not change, so results are cached indefinitely, keyed by
// the coordinate rounded to three decimal places (about 110 m).
type Service struct {
	baseURL string
	client  *providers.Client

	mu    sync.RWMutex
	cache map[string]float64
}

func NewService(cfg *config.ElevationConfig) *Service {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	return &Service{
		baseURL: cfg.BaseURL,
		client:  providers.NewClient("elevation", providers.DefaultClientConfig(timeout)),
		cache:   make(map[string]float64),
	}
}

// cacheKey buckets by truncation rather than rounding: coordinates that
// agree in their first three decimals must share an entry even when they
// straddle a rounding boundary (45.83251 and 45.83249 both key 45.832).
func cacheKey(kind string, lat, lon float64) string {
	return fmt.Sprintf("%s:%.3f:%.3f", kind, truncCoord(lat), truncCoord(lon))
}

func truncCoord(v float64) float64 {
	return math.Floor(v*1000) / 1000
}

func (s *Service) cached(key string) (float64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.cache[key]
	return v, ok
}

func (s *Service) store(key string, v float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache[key] = v
}

type elevationResponse struct {
	Elevation []float64 `json:"elevation"`
}

// fetch resolves elevations for one or more coordinate pairs in a
// single upstream call.
func (s *Service) fetch(ctx context.Context, lats, lons []float64) ([]float64, error) {
	latParts := make([]string, len(lats))
	lonParts := make([]string, len(lons))
	for i := range lats {
		latParts[i] = fmt.Sprintf("%.4f", lats[i])
		lonParts[i] = fmt.Sprintf("%.4f", lons[i])
	}

	url := fmt.Sprintf("%s?latitude=%s&longitude=%s",
		s.baseURL, strings.Join(latParts, ","), strings.Join(lonParts, ","))

	var resp elevationResponse
	if err := s.client.GetJSON(ctx, url, nil, &resp); err != nil {
		return nil, err
	}
	if len(resp.Elevation) != len(lats) {
		return nil, errors.NewProviderUnavailable(
			fmt.Sprintf("elevation: expected %d values, got %d", len(lats), len(resp.Elevation)), nil)
	}
	return resp.Elevation, nil
}

// PointElevation returns the elevation at the exact coordinate.
func (s *Service) PointElevation(ctx context.Context, lat, lon float64) (float64, error) {
	key := cacheKey("point", lat, lon)
	if v, ok := s.cached(key); ok {
		return v, nil
	}

	values, err := s.fetch(ctx, []float64{lat}, []float64{lon})
	if err != nil {
		return 0, err
	}

	s.store(key, values[0])
	return values[0], nil
}

// ModelTerrain returns the elevation averaged over a 3x3 sample grid
// centered on the coordinate. Gridded forecast models resolve their
// temperatures against this coarse terrain height rather than the exact
// point, so domestic lapse-rate corrections must start from it.
func (s *Service) ModelTerrain(ctx context.Context, lat, lon float64) (float64, error) {
	key := cacheKey("terrain", lat, lon)
	if v, ok := s.cached(key); ok {
		return v, nil
	}

	lats := make([]float64, 0, 9)
	lons := make([]float64, 0, 9)
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			lats = append(lats, lat+float64(dy)*terrainStep)
			lons = append(lons, lon+float64(dx)*terrainStep)
		}
	}

	values, err := s.fetch(ctx, lats, lons)
	if err != nil {
		return 0, err
	}

	var sum float64
	for _, v := range values {
		sum += v
	}
	avg := sum / float64(len(values))

	slog.Debug("resolved model terrain elevation",
		"lat", lat, "lon", lon, "samples", len(values), "elevation", avg)

	s.store(key, avg)
	return avg, nil
}

// Reset clears the elevation cache. Intended for tests.
func (s *Service) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache = make(map[string]float64)
}

// Close releases the underlying connection pool.
func (s *Service) Close() { s.client.Close() }
