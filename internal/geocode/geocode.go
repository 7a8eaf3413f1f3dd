// Package geocode maps free-text queries and coordinates to places inside
// the feed's service region.
package geocode

import (
	"context"
	"errors"

	"tripplanner.org/internal/utils"
)

var (
	ErrEmptyQuery = errors.New("empty geocode query")
	ErrNotFound   = errors.New("place not found")
	// ErrSuperseded is returned to a session caller whose request was
	// overtaken by a newer one. Its result, if any, was discarded.
	ErrSuperseded = errors.New("geocode request superseded")
)

type Coordinate struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Suggestion is one autocomplete match for a query.
type Suggestion struct {
	Description string     `json:"description"`
	Coordinate  Coordinate `json:"coordinate"`
	PlaceID     string     `json:"placeId"`
}

// Place is a resolved address. Components holds the locality names the
// address belongs to (city, town, suburb, county...), most specific first.
type Place struct {
	FormattedAddress string     `json:"formattedAddress"`
	Coordinate       Coordinate `json:"coordinate"`
	Components       []string   `json:"components,omitempty"`
}

// ResolveRequest identifies a place by id or by coordinate. PlaceID wins
// when both are set.
type ResolveRequest struct {
	PlaceID string
	Coord   *Coordinate
}

// Geocoder is implemented by every provider. bounds may be nil.
type Geocoder interface {
	Search(ctx context.Context, query string, bounds *utils.CoordinateBounds) ([]Suggestion, error)
	Resolve(ctx context.Context, req ResolveRequest) (Place, error)
}
