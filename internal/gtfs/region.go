package gtfs

import "tripplanner.org/internal/utils"

// RegionBounds is the centre and span of the area the feed serves.
type RegionBounds struct {
	Lat     float64
	Lon     float64
	LatSpan float64
	LonSpan float64
}

// Box returns the bounds as a min/max box.
func (r RegionBounds) Box() utils.CoordinateBounds {
	return utils.CalculateBoundsFromSpan(r.Lat, r.Lon, r.LatSpan/2, r.LonSpan/2)
}

// ComputeRegionBounds calculates the geographic boundaries of the feed from
// its located stops. Returns nil if no stop has coordinates.
func ComputeRegionBounds(stops []*Stop) *RegionBounds {
	var minLat, maxLat, minLon, maxLon float64
	first := true

	for _, stop := range stops {
		if !stop.HasLocation() {
			continue
		}
		if first {
			minLat, maxLat = stop.Lat, stop.Lat
			minLon, maxLon = stop.Lon, stop.Lon
			first = false
			continue
		}
		minLat = min(minLat, stop.Lat)
		maxLat = max(maxLat, stop.Lat)
		minLon = min(minLon, stop.Lon)
		maxLon = max(maxLon, stop.Lon)
	}
	if first {
		return nil
	}

	return &RegionBounds{
		Lat:     (minLat + maxLat) / 2,
		Lon:     (minLon + maxLon) / 2,
		LatSpan: maxLat - minLat,
		LonSpan: maxLon - minLon,
	}
}
