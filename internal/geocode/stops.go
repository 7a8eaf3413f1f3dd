package geocode

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"tripplanner.org/internal/gtfs"
	"tripplanner.org/internal/metrics"
	"tripplanner.org/internal/planner"
	"tripplanner.org/internal/utils"
)

const stopPlacePrefix = "stop:"

// StopSource returns the schedule currently being served.
type StopSource func() *gtfs.Index

// StopGeocoder answers queries from stop names and codes in the schedule. It
// needs no network and is used when no external provider is configured.
type StopGeocoder struct {
	source  StopSource
	limit   int
	metrics *metrics.Metrics
}

// NewStopGeocoder returns a StopGeocoder yielding at most limit suggestions
// (0 means 8). m may be nil.
func NewStopGeocoder(source StopSource, limit int, m *metrics.Metrics) *StopGeocoder {
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	return &StopGeocoder{source: source, limit: limit, metrics: m}
}

type stopMatch struct {
	stop *gtfs.Stop
	rank int
}

func (g *StopGeocoder) Search(ctx context.Context, query string, bounds *utils.CoordinateBounds) ([]Suggestion, error) {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return nil, ErrEmptyQuery
	}
	idx := g.source()
	if idx == nil {
		return nil, nil
	}

	var matches []stopMatch
	for _, stop := range idx.Stops() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !stop.HasLocation() {
			continue
		}
		if bounds != nil && !bounds.Contains(stop.Lat, stop.Lon) {
			continue
		}
		name := strings.ToLower(stop.Name)
		switch {
		case strings.ToLower(stop.Code) == query:
			matches = append(matches, stopMatch{stop, 0})
		case strings.HasPrefix(name, query):
			matches = append(matches, stopMatch{stop, 1})
		case strings.Contains(name, query):
			matches = append(matches, stopMatch{stop, 2})
		}
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].rank < matches[j].rank
	})
	if len(matches) > g.limit {
		matches = matches[:g.limit]
	}

	suggestions := make([]Suggestion, 0, len(matches))
	for _, m := range matches {
		suggestions = append(suggestions, stopSuggestion(m.stop))
	}
	g.metrics.RecordGeocode("stops", "ok")
	return suggestions, nil
}

func (g *StopGeocoder) Resolve(ctx context.Context, req ResolveRequest) (Place, error) {
	idx := g.source()
	if idx == nil {
		return Place{}, ErrNotFound
	}
	switch {
	case req.PlaceID != "":
		id, ok := strings.CutPrefix(req.PlaceID, stopPlacePrefix)
		if !ok {
			return Place{}, fmt.Errorf("%w: %s", ErrNotFound, req.PlaceID)
		}
		stop, found := idx.StopByID(id)
		if !found || !stop.HasLocation() {
			return Place{}, fmt.Errorf("%w: %s", ErrNotFound, req.PlaceID)
		}
		return stopPlace(stop), nil
	case req.Coord != nil:
		match, err := planner.Nearest(idx.Stops(), req.Coord.Lat, req.Coord.Lon)
		if err != nil {
			return Place{}, fmt.Errorf("%w: %v", ErrNotFound, err)
		}
		place := stopPlace(match.Stop)
		place.Coordinate = *req.Coord
		return place, nil
	default:
		return Place{}, ErrEmptyQuery
	}
}

func stopSuggestion(stop *gtfs.Stop) Suggestion {
	description := stop.Name
	if stop.Code != "" {
		description = fmt.Sprintf("%s (%s)", stop.Name, stop.Code)
	}
	return Suggestion{
		Description: description,
		Coordinate:  Coordinate{Lat: stop.Lat, Lon: stop.Lon},
		PlaceID:     stopPlacePrefix + stop.ID,
	}
}

func stopPlace(stop *gtfs.Stop) Place {
	return Place{
		FormattedAddress: stop.Name,
		Coordinate:       Coordinate{Lat: stop.Lat, Lon: stop.Lon},
	}
}
