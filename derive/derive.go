// Package derive computes physically meaningful quantities that upstreams
// omit: freezing level from surface temperature and cloud base from the
// lifted-condensation-level approximation.
package derive

import "strings"

// DefaultLapseRate is the assumed temperature decrease in °C per 100 m.
const DefaultLapseRate = 0.65

// FreezingLevel returns the altitude (m ASL) at which the temperature
// crosses 0 °C, from a surface reading valid at baseElevation. A reading
// at or below freezing clamps to the base elevation.
func FreezingLevel(baseElevation, surfaceTemp, lapseRate float64) float64 {
	if lapseRate <= 0 {
		lapseRate = DefaultLapseRate
	}
	if surfaceTemp <= 0 {
		return baseElevation
	}
	return baseElevation + surfaceTemp/lapseRate*100
}

// CloudBase approximates the cloud base (m ASL) via the LCL spread formula
// when the dew point is known, with a 100 m floor above the surface.
// Without a dew point it falls back to a coarse band keyed to cloud cover.
func CloudBase(baseElevation, surfaceTemp float64, dewPoint *float64, cloudCover int) float64 {
	if dewPoint != nil {
		spread := (surfaceTemp - *dewPoint) * 125
		if spread < 100 {
			spread = 100
		}
		return baseElevation + spread
	}

	switch {
	case cloudCover >= 90:
		return baseElevation + 300
	case cloudCover >= 70:
		return baseElevation + 800
	case cloudCover >= 40:
		return baseElevation + 1500
	case cloudCover >= 15:
		return baseElevation + 2500
	default:
		return baseElevation + 4000
	}
}

// WindBandFromIcon estimates an average/max wind band (km/h) from a
// condition icon name, for periods where no wind data could be fetched.
// Stormy conditions imply stronger wind; the mapping is a rough heuristic.
func WindBandFromIcon(icon string) (avg, max float64) {
	c := strings.ToLower(icon)
	switch {
	case strings.Contains(c, "storm"), strings.Contains(c, "thunder"):
		return 30, 60
	case strings.Contains(c, "rain"), strings.Contains(c, "shower"):
		return 20, 40
	case strings.Contains(c, "snow"):
		return 15, 35
	case strings.Contains(c, "wind"):
		return 35, 55
	case strings.Contains(c, "cloud"), strings.Contains(c, "overcast"):
		return 12, 25
	default:
		return 8, 18
	}
}
