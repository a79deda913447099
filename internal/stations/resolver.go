package stations

import (
	"errors"
	"math"
)

const earthRadiusMeters = 6371000

// ErrNoStations is returned when nearest-station resolution runs against an
// empty directory.
var ErrNoStations = errors.New("no stations available")

// Nearest returns the station closest to the given point by great-circle
// distance. Equidistant stations resolve to the lowest station id, so the
// same coordinates always pick the same station.
func (d *Directory) Nearest(lat, lon float64) (Station, error) {
	if len(d.allStations) == 0 {
		return Station{}, ErrNoStations
	}

	best := d.allStations[0]
	bestDist := Haversine(lat, lon, best.Latitude, best.Longitude)

	for _, s := range d.allStations[1:] {
		dist := Haversine(lat, lon, s.Latitude, s.Longitude)
		if dist < bestDist || (dist == bestDist && s.ID < best.ID) {
			best = s
			bestDist = dist
		}
	}

	return best, nil
}

// Haversine calculates the distance in meters between two lat/lng points
func Haversine(lat1, lng1, lat2, lng2 float64) float64 {
	lat1Rad := lat1 * math.Pi / 180
	lat2Rad := lat2 * math.Pi / 180
	deltaLat := (lat2 - lat1) * math.Pi / 180
	deltaLng := (lng2 - lng1) * math.Pi / 180

	a := math.Sin(deltaLat/2)*math.Sin(deltaLat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*
			math.Sin(deltaLng/2)*math.Sin(deltaLng/2)

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusMeters * c
}
