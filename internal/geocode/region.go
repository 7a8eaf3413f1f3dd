package geocode

import (
	"strings"

	"tripplanner.org/internal/utils"
)

// RegionFilter keeps results inside the service area. A nil Bounds or an
// empty Localities list does not restrict.
type RegionFilter struct {
	Bounds     *utils.CoordinateBounds
	Localities []string
}

func (f RegionFilter) contains(c Coordinate) bool {
	return f.Bounds == nil || f.Bounds.Contains(c.Lat, c.Lon)
}

// AllowsPlace reports whether the place is inside the bounds and, when
// localities are configured, names one of them among its components.
func (f RegionFilter) AllowsPlace(p Place) bool {
	if !f.contains(p.Coordinate) {
		return false
	}
	if len(f.Localities) == 0 {
		return true
	}
	for _, component := range p.Components {
		for _, locality := range f.Localities {
			if strings.EqualFold(strings.TrimSpace(component), strings.TrimSpace(locality)) {
				return true
			}
		}
	}
	return false
}

// Filter returns the places the region allows, in order.
func (f RegionFilter) Filter(places []Place) []Place {
	out := make([]Place, 0, len(places))
	for _, p := range places {
		if f.AllowsPlace(p) {
			out = append(out, p)
		}
	}
	return out
}

// FilterSuggestions applies the bounding box only; suggestions carry no
// locality data until resolved.
func (f RegionFilter) FilterSuggestions(suggestions []Suggestion) []Suggestion {
	out := make([]Suggestion, 0, len(suggestions))
	for _, s := range suggestions {
		if f.contains(s.Coordinate) {
			out = append(out, s)
		}
	}
	return out
}
