package planner

import (
	"tripplanner.org/internal/gtfs"
	"tripplanner.org/internal/utils"
)

func indexOfStop(sts []gtfs.StopTime, stopID string, from int) int {
	for i := from; i < len(sts); i++ {
		if sts[i].StopID == stopID {
			return i
		}
	}
	return -1
}

func lastIndexOfStop(sts []gtfs.StopTime, stopID string) int {
	for i := len(sts) - 1; i >= 0; i-- {
		if sts[i].StopID == stopID {
			return i
		}
	}
	return -1
}

// newLeg builds the ride from sts[board] to sts[alight] on trip. It fails when
// either stop is unknown or the sequences are not strictly increasing.
func newLeg(sched Schedule, trip *gtfs.Trip, sts []gtfs.StopTime, board, alight int) (CandidateTrip, bool) {
	b, a := &sts[board], &sts[alight]
	if !b.SequenceValid || !a.SequenceValid || b.StopSequence >= a.StopSequence {
		return CandidateTrip{}, false
	}
	boardStop, ok := sched.StopByID(b.StopID)
	if !ok {
		return CandidateTrip{}, false
	}
	alightStop, ok := sched.StopByID(a.StopID)
	if !ok {
		return CandidateTrip{}, false
	}
	route, _ := sched.RouteByID(trip.RouteID)

	return CandidateTrip{
		Trip:          trip,
		Route:         route,
		Board:         b,
		Alight:        a,
		BoardStop:     boardStop,
		AlightStop:    alightStop,
		BoardMinutes:  b.DepartureMinutes(),
		AlightMinutes: a.ArrivalMinutes(),
	}, true
}

// directCandidates yields at most one leg per trip that serves the origin and
// then the destination. Boarding is at the trip's first visit to the origin.
func directCandidates(sched Schedule, req Request, opts Options) []CandidateTrip {
	var candidates []CandidateTrip
	for _, trip := range sched.Trips() {
		sts := sched.StopTimesByTrip(trip.ID)
		board := indexOfStop(sts, req.Origin.ID, 0)
		if board < 0 {
			continue
		}
		boardMinutes := sts[board].DepartureMinutes()

		alight := -1
		if exact := indexOfStop(sts, req.Destination.ID, board+1); exact >= 0 {
			if sts[exact].ArrivalMinutes() > boardMinutes {
				alight = exact
			}
		} else if opts.ProximityAlighting && req.DestinationCoord != nil {
			alight = closestAlighting(sched, sts, board, boardMinutes, *req.DestinationCoord, opts.ProximityRadiusKm)
		}
		if alight < 0 {
			continue
		}

		if leg, ok := newLeg(sched, trip, sts, board, alight); ok {
			candidates = append(candidates, leg)
		}
	}
	return candidates
}

// closestAlighting approximates "get off as close as possible" for a
// destination given as a coordinate that this trip does not serve exactly.
// It returns the index of the later stop nearest to coord, first one on a
// tie, or -1. A positive radiusKm rejects stops farther than that.
func closestAlighting(sched Schedule, sts []gtfs.StopTime, board int, boardMinutes float64, coord Coordinate, radiusKm float64) int {
	best := -1
	bestKm := 0.0
	for i := board + 1; i < len(sts); i++ {
		if !(sts[i].ArrivalMinutes() > boardMinutes) {
			continue
		}
		stop, ok := sched.StopByID(sts[i].StopID)
		if !ok || !stop.HasLocation() {
			continue
		}
		d := utils.HaversineKm(coord.Lat, coord.Lon, stop.Lat, stop.Lon)
		if radiusKm > 0 && d > radiusKm {
			continue
		}
		if best < 0 || d < bestKm {
			best, bestKm = i, d
		}
	}
	return best
}
