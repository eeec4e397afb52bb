package domestic

import (
	"fmt"
	"math"
)

// geohashBase32 is the standard geohash alphabet.
const geohashBase32 = "0123456789bcdefghjkmnpqrstuvwxyz"

// locationKeyPrecision gives roughly 19 m resolution, comfortably finer
// than the upstream's forecast grid.
const locationKeyPrecision = 8

// LocationKey derives the upstream provider's geocoded hash for a
// coordinate. This is the key the domestic endpoints are addressed by.
func LocationKey(lat, lon float64) string {
	latRange := [2]float64{-90, 90}
	lonRange := [2]float64{-180, 180}

	var (
		key  []byte
		bits uint
		ch   int
		even = true
	)

	for len(key) < locationKeyPrecision {
		if even {
			mid := (lonRange[0] + lonRange[1]) / 2
			if lon >= mid {
				ch |= 1 << (4 - bits)
				lonRange[0] = mid
			} else {
				lonRange[1] = mid
			}
		} else {
			mid := (latRange[0] + latRange[1]) / 2
			if lat >= mid {
				ch |= 1 << (4 - bits)
				latRange[0] = mid
			} else {
				latRange[1] = mid
			}
		}
		even = !even

		bits++
		if bits == 5 {
			key = append(key, geohashBase32[ch])
			bits = 0
			ch = 0
		}
	}
	return string(key)
}

// GridCell derives this application's own coarse cell identifier, used
// for grouping nearby points in caching and logs. It is a 0.1 degree
// bucket and deliberately has nothing to do with LocationKey: the two
// addressing schemes must never be conflated.
func GridCell(lat, lon float64) string {
	return fmt.Sprintf("cell:%d:%d",
		int(math.Floor(lat*10)), int(math.Floor(lon*10)))
}
