package planner

import (
	"errors"
	"fmt"

	"tripplanner.org/internal/gtfs"
)

var (
	// ErrUnknownStop is returned for a stop id the schedule does not have.
	ErrUnknownStop = errors.New("unknown stop")
	// ErrMissingEndpoint is returned when a query has neither a stop id nor
	// a coordinate.
	ErrMissingEndpoint = errors.New("missing endpoint")
)

// EndpointQuery names one end of a trip by stop id or by coordinate. StopID
// wins when both are set.
type EndpointQuery struct {
	StopID string
	Coord  *Coordinate
}

func (q EndpointQuery) IsZero() bool {
	return q.StopID == "" && q.Coord == nil
}

// Endpoints are the stops a query resolved to. The distances are zero for
// endpoints given by stop id.
type Endpoints struct {
	Origin                *gtfs.Stop
	Destination           *gtfs.Stop
	DestinationCoord      *Coordinate
	OriginDistanceKm      float64
	DestinationDistanceKm float64
}

// eligibleFunc computes the origins that can reach a destination.
type eligibleFunc func(destinationID string, sched Schedule) map[string]struct{}

// ResolveEndpoints turns two queries into stops. A destination coordinate
// snaps to the nearest stop overall and is kept for proximity alighting. An
// origin coordinate snaps to the nearest stop that can reach the destination,
// or to the nearest stop overall when none can.
func ResolveEndpoints(sched Schedule, origin, destination EndpointQuery) (Endpoints, error) {
	return resolveEndpoints(sched, origin, destination, EligibleOrigins)
}

func resolveEndpoints(sched Schedule, origin, destination EndpointQuery, eligible eligibleFunc) (Endpoints, error) {
	var ep Endpoints

	switch {
	case destination.StopID != "":
		stop, ok := sched.StopByID(destination.StopID)
		if !ok {
			return Endpoints{}, fmt.Errorf("destination %q: %w", destination.StopID, ErrUnknownStop)
		}
		ep.Destination = stop
	case destination.Coord != nil:
		match, err := Nearest(sched.Stops(), destination.Coord.Lat, destination.Coord.Lon)
		if err != nil {
			return Endpoints{}, fmt.Errorf("destination: %w", err)
		}
		ep.Destination = match.Stop
		ep.DestinationDistanceKm = match.DistanceKm
		coord := *destination.Coord
		ep.DestinationCoord = &coord
	default:
		return Endpoints{}, fmt.Errorf("destination: %w", ErrMissingEndpoint)
	}

	switch {
	case origin.StopID != "":
		stop, ok := sched.StopByID(origin.StopID)
		if !ok {
			return Endpoints{}, fmt.Errorf("origin %q: %w", origin.StopID, ErrUnknownStop)
		}
		ep.Origin = stop
	case origin.Coord != nil:
		reachable := eligible(ep.Destination.ID, sched)
		all := sched.Stops()
		primary := make([]*gtfs.Stop, 0, len(reachable))
		for _, stop := range all {
			if _, ok := reachable[stop.ID]; ok {
				primary = append(primary, stop)
			}
		}
		match, err := PickNearestStop(primary, all, origin.Coord.Lat, origin.Coord.Lon)
		if err != nil {
			return Endpoints{}, fmt.Errorf("origin: %w", err)
		}
		ep.Origin = match.Stop
		ep.OriginDistanceKm = match.DistanceKm
	default:
		return Endpoints{}, fmt.Errorf("origin: %w", ErrMissingEndpoint)
	}

	return ep, nil
}

// ResolveEndpoints is ResolveEndpoints backed by the planner's cache.
func (p *Planner) ResolveEndpoints(sched Schedule, origin, destination EndpointQuery) (Endpoints, error) {
	return resolveEndpoints(sched, origin, destination, p.EligibleOrigins)
}

// Query resolves both endpoints and plans between them at nowMinutes.
func (p *Planner) Query(sched Schedule, origin, destination EndpointQuery, nowMinutes float64) (Result, Endpoints, error) {
	ep, err := p.ResolveEndpoints(sched, origin, destination)
	if err != nil {
		return nil, Endpoints{}, err
	}
	res := p.Plan(Request{
		Origin:           ep.Origin,
		Destination:      ep.Destination,
		NowMinutes:       nowMinutes,
		DestinationCoord: ep.DestinationCoord,
	}, sched)
	return res, ep, nil
}
