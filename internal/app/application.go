// Package app wires the long-lived dependencies shared by the HTTP handlers.
package app

import (
	"log/slog"
	"time"

	"tripplanner.org/internal/appconf"
	"tripplanner.org/internal/clock"
	"tripplanner.org/internal/geocode"
	"tripplanner.org/internal/gtfs"
	"tripplanner.org/internal/metrics"
	"tripplanner.org/internal/planner"
)

// Application holds the dependencies for our HTTP handlers, helpers,
// and middleware.
type Application struct {
	Config      appconf.Config
	GtfsConfig  gtfs.Config
	Logger      *slog.Logger
	GtfsManager *gtfs.Manager
	Planner     *planner.Planner
	Geocoder    geocode.Geocoder
	Sessions    *geocode.Sessions
	Region      geocode.RegionFilter
	Clock       clock.Clock
	// Location is the feed timezone used to turn the clock into service
	// minutes.
	Location *time.Location
	Metrics  *metrics.Metrics
}

// ServiceMinutes is the planner's "now".
func (app *Application) ServiceMinutes() float64 {
	return clock.ServiceMinutes(app.Clock, app.Location)
}

// Now returns the clock time in the feed timezone.
func (app *Application) Now() time.Time {
	if app.Location == nil {
		return app.Clock.Now()
	}
	return app.Clock.Now().In(app.Location)
}
