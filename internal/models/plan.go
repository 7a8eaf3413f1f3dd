package models

// PlanEntry is the body of a plan response. Kind is "error", "direct" or
// "transfer"; Message is only set for errors.
type PlanEntry struct {
	Kind         string      `json:"kind"`
	Message      string      `json:"message,omitempty"`
	ServiceNote  string      `json:"serviceNote,omitempty"`
	Origin       *Endpoint   `json:"origin,omitempty"`
	Destination  *Endpoint   `json:"destination,omitempty"`
	NowMinutes   float64     `json:"nowMinutes"`
	Next         *Itinerary  `json:"next,omitempty"`
	Alternatives []Itinerary `json:"alternatives"`
}

// Endpoint is the stop a query resolved to and, for coordinate queries, how
// far the stop is from the requested point.
type Endpoint struct {
	Stop       Stop     `json:"stop"`
	DistanceKm *float64 `json:"distanceKm,omitempty"`
}

type Itinerary struct {
	Legs           []Leg    `json:"legs"`
	TransferStop   *Stop    `json:"transferStop,omitempty"`
	LayoverMinutes *float64 `json:"layoverMinutes,omitempty"`
	TotalMinutes   float64  `json:"totalMinutes"`
	DepartureTime  string   `json:"departureTime"`
	ArrivalTime    string   `json:"arrivalTime"`
}

// Leg is one ride. BoardTime and AlightTime are the raw schedule values and
// may exceed 24:00:00; the Display fields wrap into a 24-hour clock.
type Leg struct {
	TripID        string `json:"tripId"`
	TripShortName string `json:"tripShortName,omitempty"`
	Headsign      string `json:"headsign,omitempty"`
	Route         *Route `json:"route,omitempty"`
	From          Stop   `json:"from"`
	To            Stop   `json:"to"`

	BoardTime     string  `json:"boardTime"`
	AlightTime    string  `json:"alightTime"`
	BoardDisplay  string  `json:"boardDisplay"`
	AlightDisplay string  `json:"alightDisplay"`
	Minutes       float64 `json:"minutes"`
	StopCount     int     `json:"stopCount"`
	Polyline      string  `json:"polyline,omitempty"`
}
