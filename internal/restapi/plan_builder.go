package restapi

import (
	"github.com/twpayne/go-polyline"
	"tripplanner.org/internal/gtfs"
	"tripplanner.org/internal/models"
	"tripplanner.org/internal/planner"
)

func legModel(sched planner.Schedule, c planner.CandidateTrip) models.Leg {
	stopCount, encoded := legPath(sched, c)
	return models.Leg{
		TripID:        c.Trip.ID,
		TripShortName: c.Trip.ShortName,
		Headsign:      c.Trip.Headsign,
		Route:         routeModel(c.Route),
		From:          stopModel(c.BoardStop),
		To:            stopModel(c.AlightStop),
		BoardTime:     c.BoardTime(),
		AlightTime:    c.AlightTime(),
		BoardDisplay:  gtfs.FormatClock(c.BoardMinutes),
		AlightDisplay: gtfs.FormatClock(c.AlightMinutes),
		Minutes:       c.DurationMinutes(),
		StopCount:     stopCount,
		Polyline:      encoded,
	}
}

// legPath walks the trip from the boarding row to the alighting row and
// encodes the located stops it passes. stopCount is the number of hops.
func legPath(sched planner.Schedule, c planner.CandidateTrip) (int, string) {
	sts := sched.StopTimesByTrip(c.Trip.ID)
	board, alight := -1, -1
	for i := range sts {
		switch &sts[i] {
		case c.Board:
			board = i
		case c.Alight:
			alight = i
		}
	}

	var coords [][]float64
	appendStop := func(stop *gtfs.Stop) {
		if stop != nil && stop.HasLocation() {
			coords = append(coords, []float64{stop.Lat, stop.Lon})
		}
	}

	if board < 0 || alight < board {
		appendStop(c.BoardStop)
		appendStop(c.AlightStop)
		return 1, encodeCoords(coords)
	}
	for _, st := range sts[board : alight+1] {
		stop, _ := sched.StopByID(st.StopID)
		appendStop(stop)
	}
	return alight - board, encodeCoords(coords)
}

func encodeCoords(coords [][]float64) string {
	if len(coords) < 2 {
		return ""
	}
	return string(polyline.EncodeCoords(coords))
}

func directItinerary(sched planner.Schedule, c planner.CandidateTrip) models.Itinerary {
	return models.Itinerary{
		Legs:          []models.Leg{legModel(sched, c)},
		TotalMinutes:  c.DurationMinutes(),
		DepartureTime: gtfs.FormatClock(c.BoardMinutes),
		ArrivalTime:   gtfs.FormatClock(c.AlightMinutes),
	}
}

func transferItinerary(sched planner.Schedule, p planner.TransferPlan) models.Itinerary {
	transferStop := stopModel(p.TransferStop)
	layover := p.LayoverMinutes
	return models.Itinerary{
		Legs:           []models.Leg{legModel(sched, p.FirstLeg), legModel(sched, p.SecondLeg)},
		TransferStop:   &transferStop,
		LayoverMinutes: &layover,
		TotalMinutes:   p.TotalMinutes,
		DepartureTime:  gtfs.FormatClock(p.FirstLeg.BoardMinutes),
		ArrivalTime:    gtfs.FormatClock(p.SecondLeg.AlightMinutes),
	}
}

func endpointModel(stop *gtfs.Stop, distanceKm float64, snapped bool) *models.Endpoint {
	if stop == nil {
		return nil
	}
	ep := &models.Endpoint{Stop: stopModel(stop)}
	if snapped {
		d := distanceKm
		ep.DistanceKm = &d
	}
	return ep
}

// planEntry flattens a planner result into the response model.
func planEntry(sched planner.Schedule, res planner.Result, ep planner.Endpoints, origin, destination planner.EndpointQuery, nowMinutes float64) models.PlanEntry {
	entry := models.PlanEntry{
		Kind:         res.Kind(),
		Origin:       endpointModel(ep.Origin, ep.OriginDistanceKm, origin.StopID == ""),
		Destination:  endpointModel(ep.Destination, ep.DestinationDistanceKm, destination.StopID == ""),
		NowMinutes:   nowMinutes,
		Alternatives: []models.Itinerary{},
	}

	switch r := res.(type) {
	case planner.ErrorResult:
		entry.Message = r.Message
	case planner.DirectResult:
		next := directItinerary(sched, r.Next)
		entry.Next = &next
		entry.ServiceNote = r.ServiceNote
		for _, alt := range r.Alternatives {
			entry.Alternatives = append(entry.Alternatives, directItinerary(sched, alt))
		}
	case planner.TransferResult:
		next := transferItinerary(sched, r.Next)
		entry.Next = &next
		entry.ServiceNote = r.ServiceNote
		for _, alt := range r.Alternatives {
			entry.Alternatives = append(entry.Alternatives, transferItinerary(sched, alt))
		}
	}
	return entry
}
