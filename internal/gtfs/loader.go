package gtfs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	gogtfs "github.com/OneBusAway/go-gtfs"
	"tripplanner.org/internal/logging"
)

const maxStaticSize = 200 * 1024 * 1024

// LoadSource loads tables from a local directory, a local zip file, or an
// http(s) URL serving a zip.
func LoadSource(ctx context.Context, source string, config Config) (*Tables, error) {
	if source == "" {
		return nil, errors.New("no GTFS source configured")
	}

	if !isRemoteSource(source) {
		info, err := os.Stat(source)
		if err != nil {
			return nil, fmt.Errorf("error reading local GTFS source: %w", err)
		}
		if info.IsDir() {
			return LoadDir(source)
		}
	}

	b, err := rawGtfsData(ctx, source, config)
	if err != nil {
		return nil, fmt.Errorf("error reading GTFS data: %w", err)
	}
	return LoadZip(b)
}

func rawGtfsData(ctx context.Context, source string, config Config) ([]byte, error) {
	if !isRemoteSource(source) {
		b, err := os.ReadFile(source)
		if err != nil {
			return nil, fmt.Errorf("error reading local GTFS file: %w", err)
		}
		return b, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return nil, fmt.Errorf("error creating GTFS request: %w", err)
	}
	if config.StaticAuthHeaderKey != "" && config.StaticAuthHeaderValue != "" {
		req.Header.Set(config.StaticAuthHeaderKey, config.StaticAuthHeaderValue)
	}

	client := &http.Client{
		Timeout: 5 * time.Minute,
		Transport: &http.Transport{
			TLSHandshakeTimeout:   10 * time.Second,
			ResponseHeaderTimeout: 30 * time.Second,
			IdleConnTimeout:       90 * time.Second,
		}}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error downloading GTFS data: %w", err)
	}
	defer logging.SafeCloseWithLogging(resp.Body,
		slog.Default().With(slog.String("component", "gtfs_downloader")),
		"http_response_body")

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download GTFS data: received HTTP status %s", resp.Status)
	}
	b, err := io.ReadAll(io.LimitReader(resp.Body, maxStaticSize+1))
	if err != nil {
		return nil, fmt.Errorf("error reading GTFS data: %w", err)
	}
	if int64(len(b)) > maxStaticSize {
		return nil, fmt.Errorf("static GTFS response exceeds size limit of %d bytes", maxStaticSize)
	}
	return b, nil
}

// LoadDir reads stops.txt, routes.txt, trips.txt and stop_times.txt from dir.
// routes.txt may be absent; trips then resolve no route.
func LoadDir(dir string) (*Tables, error) {
	logger := slog.Default().With(slog.String("component", "gtfs_loader"))

	open := func(name string, optional bool) (*os.File, error) {
		f, err := os.Open(filepath.Join(dir, name))
		if err != nil {
			if optional && errors.Is(err, os.ErrNotExist) {
				return nil, nil
			}
			return nil, fmt.Errorf("opening %s: %w", name, err)
		}
		return f, nil
	}

	var readers TableReaders
	files := []struct {
		name     string
		optional bool
		target   *io.Reader
	}{
		{"stops.txt", false, &readers.Stops},
		{"routes.txt", true, &readers.Routes},
		{"trips.txt", false, &readers.Trips},
		{"stop_times.txt", false, &readers.StopTimes},
	}
	for _, table := range files {
		f, err := open(table.name, table.optional)
		if err != nil {
			return nil, err
		}
		if f == nil {
			logging.LogWarning(logger, "optional GTFS table missing", slog.String("file", table.name))
			continue
		}
		defer logging.SafeCloseWithLogging(f, logger, table.name)
		*table.target = f
	}

	tables, err := ParseTables(readers)
	if err != nil {
		return nil, err
	}
	logTableCounts(logger, dir, tables)
	return tables, nil
}

// LoadZip parses a zipped feed with go-gtfs and flattens it into rows.
func LoadZip(b []byte) (*Tables, error) {
	static, err := gogtfs.ParseStatic(b, gogtfs.ParseStaticOptions{})
	if err != nil {
		return nil, fmt.Errorf("error parsing GTFS data: %w", err)
	}
	tables := tablesFromStatic(static)
	logTableCounts(slog.Default().With(slog.String("component", "gtfs_loader")), "zip", tables)
	return tables, nil
}

func tablesFromStatic(static *gogtfs.Static) *Tables {
	tables := &Tables{
		Stops:  make([]Stop, 0, len(static.Stops)),
		Routes: make([]Route, 0, len(static.Routes)),
		Trips:  make([]Trip, 0, len(static.Trips)),
	}

	for _, s := range static.Stops {
		tables.Stops = append(tables.Stops, Stop{
			ID:   s.Id,
			Code: s.Code,
			Name: s.Name,
			Lat:  floatOrNaN(s.Latitude),
			Lon:  floatOrNaN(s.Longitude),
		})
	}

	for _, r := range static.Routes {
		tables.Routes = append(tables.Routes, Route{
			ID:        r.Id,
			ShortName: r.ShortName,
			LongName:  r.LongName,
		})
	}

	for _, trip := range static.Trips {
		routeID := ""
		if trip.Route != nil {
			routeID = trip.Route.Id
		}
		tables.Trips = append(tables.Trips, Trip{
			ID:        trip.ID,
			RouteID:   routeID,
			Headsign:  trip.Headsign,
			ShortName: trip.ShortName,
		})
		for _, st := range trip.StopTimes {
			if st.Stop == nil {
				tables.warnf("trip %s: stop time at sequence %d has no stop", trip.ID, st.StopSequence)
				continue
			}
			tables.StopTimes = append(tables.StopTimes, StopTime{
				TripID:        trip.ID,
				StopID:        st.Stop.Id,
				ArrivalTime:   durationToClock(st.ArrivalTime),
				DepartureTime: durationToClock(st.DepartureTime),
				StopSequence:  st.StopSequence,
				SequenceValid: true,
			})
		}
	}

	return tables
}

func floatOrNaN(v *float64) float64 {
	if v == nil {
		return math.NaN()
	}
	return *v
}

func logTableCounts(logger *slog.Logger, source string, tables *Tables) {
	logging.LogOperation(logger, "gtfs_tables_loaded",
		slog.String("source", strings.TrimSpace(source)),
		slog.Int("stops", len(tables.Stops)),
		slog.Int("routes", len(tables.Routes)),
		slog.Int("trips", len(tables.Trips)),
		slog.Int("stop_times", len(tables.StopTimes)),
		slog.Int("warnings", len(tables.Warnings)))
}
