package domestic

import (
	"math"
	"math/rand"
	"time"

	"trailweather.app/derive"
	"trailweather.app/models"
)

var compassPoints = []string{"N", "NE", "E", "SE", "S", "SW", "W", "NW"}

// syntheticSeed makes the generated forecast deterministic per rounded
// coordinate, so repeated offline runs for the same point agree.
func syntheticSeed(lat, lon float64) int64 {
	return int64(math.Round(lat*1e4))<<32 ^ int64(math.Round(lon*1e4))&0xFFFFFFFF
}

// seasonalBaseTemp approximates a temperate-climate monthly mean, shifted
// colder with latitude. Plausibility is the goal, not accuracy.
func seasonalBaseTemp(month time.Month, lat float64) float64 {
	// Peaks in July, troughs in January.
	seasonal := 10 - 12*math.Cos(2*math.Pi*float64(month-1)/12)
	latShift := (math.Abs(lat) - 45) * 0.6
	return seasonal - latShift
}

func periodsPerDay(resolution models.Resolution) (int, time.Duration) {
	switch resolution {
	case models.ResolutionHourly:
		return 24, time.Hour
	case models.ResolutionSixHourly:
		return 4, 6 * time.Hour
	default:
		return 1, 24 * time.Hour
	}
}

// Synthesize builds a seeded, climate-plausible forecast with no network
// access at all. Last resort for offline and test use; every field is
// populated so downstream renderers see a complete record.
func Synthesize(lat, lon float64, days int, resolution models.Resolution, locationKey, gridCell string, ttl time.Duration) *models.DomesticForecast {
	rng := rand.New(rand.NewSource(syntheticSeed(lat, lon)))
	now := time.Now().UTC()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	perDay, step := periodsPerDay(resolution)
	base := seasonalBaseTemp(now.Month(), lat)

	periods := make([]models.ForecastPeriod, 0, days*perDay)
	for d := 0; d < days; d++ {
		dayTemp := base + rng.Float64()*6 - 3
		rainChance := rng.Intn(101)
		cloudCover := rng.Intn(101)
		windMax := 10 + rng.Float64()*40
		direction := compassPoints[rng.Intn(len(compassPoints))]

		for i := 0; i < perDay; i++ {
			start := dayStart.Add(time.Duration(d)*24*time.Hour + time.Duration(i)*step)

			// Simple diurnal swing: coldest at 03h, warmest at 15h.
			hourShift := -4 * math.Cos(2*math.Pi*float64(start.Hour()-15)/24)
			temp := dayTemp + hourShift

			period := models.ForecastPeriod{
				Start:         start,
				Label:         periodLabel(start, resolution),
				TempMin:       temp - 1.5,
				TempMax:       temp + 1.5,
				RainChance:    rainChance,
				WindAvg:       windMax * 0.65,
				WindMax:       windMax,
				WindDirection: direction,
				CloudCover:    cloudCover,
			}
			if rainChance > 40 {
				period.RainMax = float64(rainChance) / 20
				period.RainMin = period.RainMax / 3
				if temp < 1 {
					period.SnowMax = period.RainMax
					period.SnowMin = period.RainMin
				}
			}

			dp := temp - float64(100-cloudCover)*0.15
			period.DewPoint = &dp
			period.CAPE = rng.Float64() * 300
			period.FreezingLevel = derive.FreezingLevel(0, period.TempMax, derive.DefaultLapseRate)
			period.CloudBase = derive.CloudBase(0, period.TempMax, period.DewPoint, cloudCover)
			period.OrderBounds()

			periods = append(periods, period)
		}
	}

	return &models.DomesticForecast{
		GridCell:      gridCell,
		LocationKey:   locationKey,
		Latitude:      lat,
		Longitude:     lon,
		BaseElevation: 0,
		Periods:       periods,
		FetchedAt:     now,
		ExpiresAt:     now.Add(ttl),
		Source:        models.SourceSynthetic,
	}
}

func (p *Pipeline) synthetic(lat, lon float64, days int, resolution models.Resolution, locationKey, gridCell string) *models.DomesticForecast {
	return Synthesize(lat, lon, days, resolution, locationKey, gridCell, p.ttl)
}
