package models

import "math"

type Stop struct {
	ID   string   `json:"id"`
	Code string   `json:"code,omitempty"`
	Name string   `json:"name"`
	Lat  *float64 `json:"lat"`
	Lon  *float64 `json:"lon"`
}

// NewStop builds the API form of a stop. Missing coordinates are passed as
// NaN and rendered as null.
func NewStop(id, code, name string, lat, lon float64) Stop {
	s := Stop{ID: id, Code: code, Name: name}
	if !math.IsNaN(lat) && !math.IsNaN(lon) {
		s.Lat, s.Lon = &lat, &lon
	}
	return s
}

type StopWithDistance struct {
	Stop
	DistanceMeters float64 `json:"distanceMeters"`
}

type Route struct {
	ID          string `json:"id"`
	ShortName   string `json:"shortName,omitempty"`
	LongName    string `json:"longName,omitempty"`
	DisplayName string `json:"displayName"`
}

type EligibleOrigins struct {
	DestinationID string   `json:"destinationId"`
	StopIDs       []string `json:"stopIds"`
	// Unfiltered is true when nothing can reach the destination and callers
	// should consider every stop.
	Unfiltered bool `json:"unfiltered"`
}
