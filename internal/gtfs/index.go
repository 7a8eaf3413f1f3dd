package gtfs

import (
	"fmt"
	"log/slog"
	"sort"

	"tripplanner.org/internal/logging"
)

// maxLoggedWarnings caps how many individual data warnings are written to the
// log during index construction. All of them stay available via Warnings().
const maxLoggedWarnings = 20

// Index is the read-only schedule built once from loaded tables. It owns the
// Stop, Route and Trip values; everything handed out points into it.
type Index struct {
	stops  []*Stop
	routes []*Route
	trips  []*Trip

	stopByID        map[string]*Stop
	routeByID       map[string]*Route
	tripByID        map[string]*Trip
	stopTimesByTrip map[string][]StopTime

	warnings []string
}

// BuildIndex groups stop times per trip, parses their clock times once and
// builds id lookups. It never fails on a bad row: duplicates and dangling
// references are skipped and recorded as warnings.
func BuildIndex(tables *Tables) *Index {
	logger := slog.Default().With(slog.String("component", "schedule_index"))

	idx := &Index{
		stopByID:        make(map[string]*Stop, len(tables.Stops)),
		routeByID:       make(map[string]*Route, len(tables.Routes)),
		tripByID:        make(map[string]*Trip, len(tables.Trips)),
		stopTimesByTrip: make(map[string][]StopTime, len(tables.Trips)),
	}
	idx.warnings = append(idx.warnings, tables.Warnings...)

	stops := make([]Stop, len(tables.Stops))
	copy(stops, tables.Stops)
	for i := range stops {
		s := &stops[i]
		if _, dup := idx.stopByID[s.ID]; dup || s.ID == "" {
			idx.warnf("duplicate or empty stop id %q skipped", s.ID)
			continue
		}
		if !s.HasLocation() {
			idx.warnf("stop %s has no usable coordinates; excluded from spatial queries", s.ID)
		}
		idx.stopByID[s.ID] = s
		idx.stops = append(idx.stops, s)
	}

	routes := make([]Route, len(tables.Routes))
	copy(routes, tables.Routes)
	for i := range routes {
		r := &routes[i]
		if _, dup := idx.routeByID[r.ID]; dup || r.ID == "" {
			idx.warnf("duplicate or empty route id %q skipped", r.ID)
			continue
		}
		idx.routeByID[r.ID] = r
		idx.routes = append(idx.routes, r)
	}

	trips := make([]Trip, len(tables.Trips))
	copy(trips, tables.Trips)
	for i := range trips {
		t := &trips[i]
		if _, dup := idx.tripByID[t.ID]; dup || t.ID == "" {
			idx.warnf("duplicate or empty trip id %q skipped", t.ID)
			continue
		}
		idx.tripByID[t.ID] = t
		idx.trips = append(idx.trips, t)
	}

	for _, st := range tables.StopTimes {
		if _, ok := idx.tripByID[st.TripID]; !ok {
			idx.warnf("stop time for unknown trip %s dropped", st.TripID)
			continue
		}
		if _, ok := idx.stopByID[st.StopID]; !ok {
			idx.warnf("stop time on trip %s references unknown stop %s; dropped", st.TripID, st.StopID)
			continue
		}
		st.parseClock()
		idx.stopTimesByTrip[st.TripID] = append(idx.stopTimesByTrip[st.TripID], st)
	}

	for tripID, sts := range idx.stopTimesByTrip {
		sortStopTimes(sts)
		if ties := countSequenceTies(sts); ties > 0 {
			idx.warnf("trip %s has %d tied stop_sequence values; file order kept", tripID, ties)
		}
	}

	for i, w := range idx.warnings {
		if i == maxLoggedWarnings {
			break
		}
		logging.LogWarning(logger, "gtfs data warning", slog.String("detail", w))
	}
	logging.LogOperation(logger, "schedule_index_built",
		slog.Int("stops", len(idx.stops)),
		slog.Int("routes", len(idx.routes)),
		slog.Int("trips", len(idx.trips)),
		slog.Int("trips_with_stop_times", len(idx.stopTimesByTrip)),
		slog.Int("warnings", len(idx.warnings)))

	return idx
}

// sortStopTimes orders by stop sequence, stable on ties. Rows with an
// unparseable sequence go last.
func sortStopTimes(sts []StopTime) {
	sort.SliceStable(sts, func(i, j int) bool {
		a, b := sts[i], sts[j]
		if a.SequenceValid != b.SequenceValid {
			return a.SequenceValid
		}
		return a.StopSequence < b.StopSequence
	})
}

func countSequenceTies(sts []StopTime) int {
	ties := 0
	for i := 1; i < len(sts); i++ {
		if sts[i].SequenceValid && sts[i-1].SequenceValid && sts[i].StopSequence == sts[i-1].StopSequence {
			ties++
		}
	}
	return ties
}

func (idx *Index) warnf(format string, args ...any) {
	idx.warnings = append(idx.warnings, fmt.Sprintf(format, args...))
}

func (idx *Index) StopByID(id string) (*Stop, bool) {
	s, ok := idx.stopByID[id]
	return s, ok
}

func (idx *Index) RouteByID(id string) (*Route, bool) {
	r, ok := idx.routeByID[id]
	return r, ok
}

func (idx *Index) TripByID(id string) (*Trip, bool) {
	t, ok := idx.tripByID[id]
	return t, ok
}

// StopTimesByTrip returns the trip's stop times in sequence order. The slice
// is shared and must not be modified.
func (idx *Index) StopTimesByTrip(tripID string) []StopTime {
	return idx.stopTimesByTrip[tripID]
}

// Stops returns every stop in load order.
func (idx *Index) Stops() []*Stop {
	return idx.stops
}

// Routes returns every route in load order.
func (idx *Index) Routes() []*Route {
	return idx.routes
}

// Trips returns every trip in load order.
func (idx *Index) Trips() []*Trip {
	return idx.trips
}

// Warnings lists the data-quality problems found while loading and indexing.
func (idx *Index) Warnings() []string {
	return idx.warnings
}
