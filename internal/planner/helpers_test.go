package planner

import (
	"testing"

	"github.com/stretchr/testify/require"
	"tripplanner.org/internal/gtfs"
	"tripplanner.org/internal/models"
)

// row is a compact stop_times.txt line: arrival and departure are equal.
type row struct {
	trip string
	stop string
	at   string
	seq  int
}

func rows(rs ...row) []gtfs.StopTime {
	out := make([]gtfs.StopTime, 0, len(rs))
	for _, r := range rs {
		out = append(out, gtfs.StopTime{
			TripID:        r.trip,
			StopID:        r.stop,
			ArrivalTime:   r.at,
			DepartureTime: r.at,
			StopSequence:  r.seq,
			SequenceValid: true,
		})
	}
	return out
}

// gridStops places stops on a line of latitude, 0.01 degrees apart.
func gridStops(ids ...string) []gtfs.Stop {
	stops := make([]gtfs.Stop, 0, len(ids))
	for i, id := range ids {
		stops = append(stops, gtfs.Stop{ID: id, Name: "Stop " + id, Lat: 47.6 + float64(i)*0.01, Lon: -122.3})
	}
	return stops
}

func tripsFor(routeID string, ids ...string) []gtfs.Trip {
	trips := make([]gtfs.Trip, 0, len(ids))
	for _, id := range ids {
		trips = append(trips, gtfs.Trip{ID: id, RouteID: routeID, Headsign: "to " + id})
	}
	return trips
}

func buildIndex(stops []gtfs.Stop, trips []gtfs.Trip, stopTimes []gtfs.StopTime) *gtfs.Index {
	return gtfs.BuildIndex(&gtfs.Tables{
		Stops:     stops,
		Routes:    []gtfs.Route{{ID: "R", ShortName: "7", LongName: "Seventh"}},
		Trips:     trips,
		StopTimes: stopTimes,
	})
}

func mustStop(t *testing.T, sched Schedule, id string) *gtfs.Stop {
	t.Helper()
	stop, ok := sched.StopByID(id)
	require.True(t, ok, "stop %s", id)
	return stop
}

// metroIndex loads testdata/metro. Expected A to D transfers in order:
// 08:00 via T with 10 min layover (55 min), 08:00 waiting 70 min (115 min),
// 09:00 via T with 10 min layover (55 min).
func metroIndex(t *testing.T) *gtfs.Index {
	t.Helper()
	tables, err := gtfs.LoadDir(models.GetFixturePath(t, "metro"))
	require.NoError(t, err)
	return gtfs.BuildIndex(tables)
}

func request(t *testing.T, sched Schedule, from, to string, now float64) Request {
	t.Helper()
	return Request{Origin: mustStop(t, sched, from), Destination: mustStop(t, sched, to), NowMinutes: now}
}
