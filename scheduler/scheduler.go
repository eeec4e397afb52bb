// Package scheduler runs the application's periodic background jobs.
package scheduler

import (
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"
	"trailweather.app/providers/cache"
)

// Scheduler sweeps expired forecast entries on a fixed interval. The
// cache expires entries lazily on read; the sweep keeps memory bounded
// for locations nobody asks about again.
type Scheduler struct {
	scheduler     *gocron.Scheduler
	forecastCache *cache.ForecastCache
	sweepInterval time.Duration
}

func NewScheduler(forecastCache *cache.ForecastCache, sweepInterval time.Duration) *Scheduler {
	return &Scheduler{
		scheduler:     gocron.NewScheduler(time.UTC),
		forecastCache: forecastCache,
		sweepInterval: sweepInterval,
	}
}

// Start begins the sweep job in the background.
func (s *Scheduler) Start() error {
	if _, err := s.scheduler.Every(s.sweepInterval).Do(s.sweep); err != nil {
		return err
	}
	s.scheduler.StartAsync()
	return nil
}

func (s *Scheduler) sweep() {
	before := s.forecastCache.Len()
	s.forecastCache.CleanupExpired()
	if removed := before - s.forecastCache.Len(); removed > 0 {
		slog.Debug("swept expired forecast cache entries", "removed", removed)
	}
}

// Stop halts the background jobs and waits for a running sweep to finish.
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}
