// Package planner finds the best upcoming direct or one-transfer itinerary
// between two stops of a static schedule.
package planner

import (
	"tripplanner.org/internal/gtfs"
)

// Schedule is the read-only view of the index the planner needs.
// *gtfs.Index satisfies it.
type Schedule interface {
	Trips() []*gtfs.Trip
	Stops() []*gtfs.Stop
	StopTimesByTrip(tripID string) []gtfs.StopTime
	StopByID(id string) (*gtfs.Stop, bool)
	RouteByID(id string) (*gtfs.Route, bool)
}

// Coordinate is a WGS84 point in degrees.
type Coordinate struct {
	Lat float64
	Lon float64
}

// CandidateTrip is one ride on a single trip. Every pointer refers into the
// schedule that produced it; Route is nil when routes.txt has no entry.
type CandidateTrip struct {
	Trip       *gtfs.Trip
	Route      *gtfs.Route
	Board      *gtfs.StopTime
	Alight     *gtfs.StopTime
	BoardStop  *gtfs.Stop
	AlightStop *gtfs.Stop

	BoardMinutes  float64
	AlightMinutes float64
}

// BoardTime is the raw departure time at the boarding stop.
func (c CandidateTrip) BoardTime() string {
	return c.Board.DepartureTime
}

// AlightTime is the raw arrival time at the alighting stop.
func (c CandidateTrip) AlightTime() string {
	return c.Alight.ArrivalTime
}

func (c CandidateTrip) DurationMinutes() float64 {
	return c.AlightMinutes - c.BoardMinutes
}

// TransferPlan joins two legs at a shared stop.
type TransferPlan struct {
	FirstLeg       CandidateTrip
	SecondLeg      CandidateTrip
	TransferStop   *gtfs.Stop
	LayoverMinutes float64
	TotalMinutes   float64
}

// Result is one of ErrorResult, DirectResult or TransferResult.
type Result interface {
	// Kind is "error", "direct" or "transfer".
	Kind() string
	isResult()
}

// ErrorResult carries a rider-facing message when no itinerary is usable.
type ErrorResult struct {
	Message string
}

// DirectResult is the next single-trip ride plus the other options in
// departure order. ServiceNote is set when every departure has already left
// and Next is the first trip of the following service day.
type DirectResult struct {
	Next         CandidateTrip
	Alternatives []CandidateTrip
	ServiceNote  string
}

// TransferResult is DirectResult's one-transfer counterpart, ordered by first
// leg departure and then total duration.
type TransferResult struct {
	Next         TransferPlan
	Alternatives []TransferPlan
	ServiceNote  string
}

func (ErrorResult) Kind() string    { return "error" }
func (DirectResult) Kind() string   { return "direct" }
func (TransferResult) Kind() string { return "transfer" }

func (ErrorResult) isResult()    {}
func (DirectResult) isResult()   {}
func (TransferResult) isResult() {}
