package planner

import (
	"errors"

	"tripplanner.org/internal/gtfs"
	"tripplanner.org/internal/utils"
)

// ErrNoCandidateStops is returned when no located stop is available to snap
// a coordinate to.
var ErrNoCandidateStops = errors.New("no candidate stops")

// NearestMatch is the closest stop to a point.
type NearestMatch struct {
	Stop       *gtfs.Stop
	DistanceKm float64
}

// Nearest returns the stop closest to (lat, lon) by great-circle distance.
// On an exact tie the stop earlier in stops wins. Stops without coordinates
// are ignored.
func Nearest(stops []*gtfs.Stop, lat, lon float64) (NearestMatch, error) {
	var best NearestMatch
	found := false
	for _, stop := range stops {
		if stop == nil || !stop.HasLocation() {
			continue
		}
		d := utils.HaversineKm(lat, lon, stop.Lat, stop.Lon)
		if !found || d < best.DistanceKm {
			best = NearestMatch{Stop: stop, DistanceKm: d}
			found = true
		}
	}
	if !found {
		return NearestMatch{}, ErrNoCandidateStops
	}
	return best, nil
}

// PickNearestStop searches primary first and falls back to fallback when
// primary has no located stop.
func PickNearestStop(primary, fallback []*gtfs.Stop, lat, lon float64) (NearestMatch, error) {
	match, err := Nearest(primary, lat, lon)
	if err == nil {
		return match, nil
	}
	return Nearest(fallback, lat, lon)
}
