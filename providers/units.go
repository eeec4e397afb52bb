package providers

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

const (
	mphToKmhFactor = 1.60934
	msToKmhFactor  = 3.6
)

// FahrenheitToCelsius converts a Fahrenheit reading to Celsius.
func FahrenheitToCelsius(f float64) float64 {
	return (f - 32) * 5 / 9
}

// MphToKmh converts miles per hour to km/h.
func MphToKmh(mph float64) float64 {
	return mph * mphToKmhFactor
}

// MsToKmh converts meters per second to km/h.
func MsToKmh(ms float64) float64 {
	return ms * msToKmhFactor
}

var windRangePattern = regexp.MustCompile(`(\d+(?:\.\d+)?)`)

// ParseWindRange converts a free-text wind speed such as "10 to 15 mph" or
// "12 mph" into an average/max pair in km/h. The low bound of a range is
// the sustained speed, the high bound the peak. Returns ok=false when no
// number is present.
func ParseWindRange(text string) (avg, max float64, ok bool) {
	matches := windRangePattern.FindAllString(text, -1)
	if len(matches) == 0 {
		return 0, 0, false
	}

	lo, err := strconv.ParseFloat(matches[0], 64)
	if err != nil {
		return 0, 0, false
	}
	hi := lo
	if len(matches) > 1 {
		if v, err := strconv.ParseFloat(matches[len(matches)-1], 64); err == nil {
			hi = v
		}
	}
	if hi < lo {
		lo, hi = hi, lo
	}

	factor := mphToKmhFactor
	lowered := strings.ToLower(text)
	switch {
	case strings.Contains(lowered, "km/h") || strings.Contains(lowered, "kph"):
		factor = 1
	case strings.Contains(lowered, "m/s"):
		factor = msToKmhFactor
	}

	return lo * factor, hi * factor, true
}

var compassDegrees = map[string]float64{
	"N": 0, "NNE": 22.5, "NE": 45, "ENE": 67.5,
	"E": 90, "ESE": 112.5, "SE": 135, "SSE": 157.5,
	"S": 180, "SSW": 202.5, "SW": 225, "WSW": 247.5,
	"W": 270, "WNW": 292.5, "NW": 315, "NNW": 337.5,
}

var compassPoints = []string{
	"N", "NNE", "NE", "ENE", "E", "ESE", "SE", "SSE",
	"S", "SSW", "SW", "WSW", "W", "WNW", "NW", "NNW",
}

// NormalizeCompass maps a free-text compass string to the 16-point
// standard form, or "" when unrecognized.
func NormalizeCompass(text string) string {
	key := strings.ToUpper(strings.TrimSpace(text))
	if _, ok := compassDegrees[key]; ok {
		return key
	}
	return ""
}

// DegreesToCompass maps a wind direction in degrees to the nearest
// 16-point compass label.
func DegreesToCompass(deg float64) string {
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	idx := int(math.Round(deg/22.5)) % 16
	return compassPoints[idx]
}

// CloudCoverFromText estimates cloud cover percentage from a free-text
// condition string. The mapping is a documented heuristic for upstreams
// that never report cover numerically.
func CloudCoverFromText(condition string) int {
	c := strings.ToLower(condition)
	switch {
	case strings.Contains(c, "fog"):
		return 100
	case strings.Contains(c, "overcast"):
		return 95
	case strings.Contains(c, "mostly cloudy"):
		return 80
	case strings.Contains(c, "partly sunny"):
		return 60
	case strings.Contains(c, "partly cloudy"), strings.Contains(c, "scattered"):
		return 45
	case strings.Contains(c, "mostly sunny"), strings.Contains(c, "mostly clear"):
		return 25
	case strings.Contains(c, "sunny"), strings.Contains(c, "clear"):
		return 5
	case strings.Contains(c, "cloud"):
		return 70
	case strings.Contains(c, "rain"), strings.Contains(c, "snow"),
		strings.Contains(c, "shower"), strings.Contains(c, "storm"):
		return 85
	default:
		return 50
	}
}

// EstimatePrecipRange estimates a min/max precipitation accumulation (mm)
// from a probability and intensity keywords in the condition text, for
// upstreams that report no amounts. Heuristic, biased low.
func EstimatePrecipRange(probability int, condition string) (min, max float64) {
	if probability <= 10 {
		return 0, 0
	}

	c := strings.ToLower(condition)
	base := 1.0
	switch {
	case strings.Contains(c, "heavy"), strings.Contains(c, "storm"):
		base = 5.0
	case strings.Contains(c, "light"), strings.Contains(c, "drizzle"), strings.Contains(c, "chance"):
		base = 0.5
	case strings.Contains(c, "shower"):
		base = 2.0
	}

	scale := float64(probability) / 100
	min = roundTo(base*scale, 1)
	max = roundTo(base*scale*3, 1)
	return min, max
}

func roundTo(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
