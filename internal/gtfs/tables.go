package gtfs

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

// Stop is a row of stops.txt. Lat and Lon are NaN when the source value is
// missing or unparseable.
type Stop struct {
	ID   string
	Code string
	Name string
	Lat  float64
	Lon  float64
}

// HasLocation reports whether both coordinates parsed.
func (s *Stop) HasLocation() bool {
	return !math.IsNaN(s.Lat) && !math.IsNaN(s.Lon)
}

// Route is a row of routes.txt.
type Route struct {
	ID        string
	ShortName string
	LongName  string
}

// DisplayName prefers the short name, the way rider-facing signage does.
func (r *Route) DisplayName() string {
	if r.ShortName != "" {
		return r.ShortName
	}
	return r.LongName
}

// Trip is a row of trips.txt.
type Trip struct {
	ID        string
	RouteID   string
	Headsign  string
	ShortName string
}

// StopTime is a row of stop_times.txt. Times stay in their "HH:MM:SS" form
// and may exceed 24:00:00 for service past midnight.
type StopTime struct {
	TripID        string
	StopID        string
	ArrivalTime   string
	DepartureTime string
	StopSequence  int
	// SequenceValid is false when stop_sequence did not parse. Such rows sort
	// after every valid row of their trip.
	SequenceValid bool

	// Minutes parsed once by BuildIndex; rows built elsewhere parse on demand.
	arrivalMinutes   float64
	departureMinutes float64
	clockParsed      bool
}

// ArrivalMinutes returns the arrival in minutes since service-day midnight,
// NaN when the time is malformed.
func (st *StopTime) ArrivalMinutes() float64 {
	if st.clockParsed {
		return st.arrivalMinutes
	}
	return ParseClock(st.ArrivalTime)
}

// DepartureMinutes returns the departure in minutes since service-day
// midnight, NaN when the time is malformed.
func (st *StopTime) DepartureMinutes() float64 {
	if st.clockParsed {
		return st.departureMinutes
	}
	return ParseClock(st.DepartureTime)
}

func (st *StopTime) parseClock() {
	st.arrivalMinutes = ParseClock(st.ArrivalTime)
	st.departureMinutes = ParseClock(st.DepartureTime)
	st.clockParsed = true
}

// Tables holds the four parsed tables plus a record of every row that was
// skipped or coerced along the way.
type Tables struct {
	Stops     []Stop
	Routes    []Route
	Trips     []Trip
	StopTimes []StopTime
	Warnings  []string
}

// TableReaders supplies the raw contents of each table. A nil reader is
// treated as an empty table.
type TableReaders struct {
	Stops     io.Reader
	Routes    io.Reader
	Trips     io.Reader
	StopTimes io.Reader
}

// ErrMissingColumn is returned when a table lacks a required header.
var ErrMissingColumn = errors.New("missing required column")

// ParseTables reads comma-delimited GTFS tables with header rows.
func ParseTables(readers TableReaders) (*Tables, error) {
	tables := &Tables{}

	if err := parseTable(readers.Stops, "stops.txt", []string{"stop_id"}, tables, func(row csvRow) {
		tables.Stops = append(tables.Stops, Stop{
			ID:   row.get("stop_id"),
			Code: row.get("stop_code"),
			Name: row.get("stop_name"),
			Lat:  parseCoordinate(row.get("stop_lat")),
			Lon:  parseCoordinate(row.get("stop_lon")),
		})
	}); err != nil {
		return nil, err
	}

	if err := parseTable(readers.Routes, "routes.txt", []string{"route_id"}, tables, func(row csvRow) {
		tables.Routes = append(tables.Routes, Route{
			ID:        row.get("route_id"),
			ShortName: row.get("route_short_name"),
			LongName:  row.get("route_long_name"),
		})
	}); err != nil {
		return nil, err
	}

	if err := parseTable(readers.Trips, "trips.txt", []string{"trip_id", "route_id"}, tables, func(row csvRow) {
		tables.Trips = append(tables.Trips, Trip{
			ID:        row.get("trip_id"),
			RouteID:   row.get("route_id"),
			Headsign:  row.get("trip_headsign"),
			ShortName: row.get("trip_short_name"),
		})
	}); err != nil {
		return nil, err
	}

	required := []string{"trip_id", "stop_id", "stop_sequence"}
	if err := parseTable(readers.StopTimes, "stop_times.txt", required, tables, func(row csvRow) {
		st := StopTime{
			TripID:        row.get("trip_id"),
			StopID:        row.get("stop_id"),
			ArrivalTime:   row.get("arrival_time"),
			DepartureTime: row.get("departure_time"),
		}
		seq, err := strconv.Atoi(strings.TrimSpace(row.get("stop_sequence")))
		if err != nil {
			tables.warnf("stop_times.txt line %d: invalid stop_sequence %q for trip %s", row.line, row.get("stop_sequence"), st.TripID)
		} else {
			st.StopSequence = seq
			st.SequenceValid = true
		}
		tables.StopTimes = append(tables.StopTimes, st)
	}); err != nil {
		return nil, err
	}

	return tables, nil
}

func (t *Tables) warnf(format string, args ...any) {
	t.Warnings = append(t.Warnings, fmt.Sprintf(format, args...))
}

type csvRow struct {
	line    int
	columns map[string]int
	record  []string
}

// get returns "" for columns the header does not carry.
func (r csvRow) get(column string) string {
	idx, ok := r.columns[column]
	if !ok || idx >= len(r.record) {
		return ""
	}
	return strings.TrimSpace(r.record[idx])
}

func parseTable(r io.Reader, name string, required []string, tables *Tables, emit func(csvRow)) error {
	if r == nil {
		return nil
	}

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading %s header: %w", name, err)
	}

	columns := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.TrimSpace(h)
		if i == 0 {
			h = strings.TrimPrefix(h, "\ufeff")
		}
		columns[h] = i
	}
	for _, col := range required {
		if _, ok := columns[col]; !ok {
			return fmt.Errorf("%s: %w %q", name, ErrMissingColumn, col)
		}
	}

	line := 1
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		line++
		if err != nil {
			tables.warnf("%s line %d: %v", name, line, err)
			continue
		}
		if len(record) != len(header) {
			tables.warnf("%s line %d: expected %d fields, got %d", name, line, len(header), len(record))
			continue
		}
		emit(csvRow{line: line, columns: columns, record: record})
	}
}

func parseCoordinate(raw string) float64 {
	if raw == "" {
		return math.NaN()
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return math.NaN()
	}
	return v
}
