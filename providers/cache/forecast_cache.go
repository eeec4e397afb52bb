// Package cache implements the time-bounded in-process forecast cache.
//
// Each process instance owns its own cache; this is deliberately not a
// cross-process or cross-replica store. Last writer for a key wins.
package cache

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// Coordinates are rounded to 4 decimal places (~11 m) so near-duplicate
// requests collapse to one entry.
const coordPrecision = "%.4f"

type entry struct {
	value     interface{}
	writtenAt time.Time
}

// ForecastCache stores forecast results keyed by provider identity,
// rounded coordinates, and day count. Entries expire lazily: Get stops
// returning them after the TTL, CleanupExpired removes them.
type ForecastCache struct {
	ttl   time.Duration
	mutex sync.RWMutex
	data  map[string]entry
	now   func() time.Time
}

func NewForecastCache(ttl time.Duration) *ForecastCache {
	return &ForecastCache{
		ttl:  ttl,
		data: make(map[string]entry),
		now:  time.Now,
	}
}

func key(provider string, lat, lon float64, days int) string {
	return fmt.Sprintf("%s:"+coordPrecision+":"+coordPrecision+":%d", provider, lat, lon, days)
}

func locationPrefix(provider string, lat, lon float64) string {
	return fmt.Sprintf("%s:"+coordPrecision+":"+coordPrecision+":", provider, lat, lon)
}

// Get returns the stored value for the key, or false once the TTL has
// elapsed since the write. Expired entries are left in place for the
// next sweep.
func (c *ForecastCache) Get(provider string, lat, lon float64, days int) (interface{}, bool) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	e, exists := c.data[key(provider, lat, lon, days)]
	if !exists {
		return nil, false
	}
	if c.now().Sub(e.writtenAt) > c.ttl {
		return nil, false
	}
	return e.value, true
}

// Set stores value under the key, replacing any previous entry wholesale.
func (c *ForecastCache) Set(provider string, lat, lon float64, days int, value interface{}) {
	if value == nil {
		return
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.data[key(provider, lat, lon, days)] = entry{
		value:     value,
		writtenAt: c.now(),
	}
}

// Invalidate removes every day-count variant stored for the location.
func (c *ForecastCache) Invalidate(provider string, lat, lon float64) {
	prefix := locationPrefix(provider, lat, lon)

	c.mutex.Lock()
	defer c.mutex.Unlock()

	for k := range c.data {
		if strings.HasPrefix(k, prefix) {
			delete(c.data, k)
		}
	}
}

// CleanupExpired removes entries past their TTL.
func (c *ForecastCache) CleanupExpired() {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	now := c.now()
	for k, e := range c.data {
		if now.Sub(e.writtenAt) > c.ttl {
			delete(c.data, k)
		}
	}
}

// Clear drops every entry.
func (c *ForecastCache) Clear() {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.data = make(map[string]entry)
}

// Len reports the number of entries, expired ones included.
func (c *ForecastCache) Len() int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	return len(c.data)
}
