package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tripplanner.org/internal/app"
	"tripplanner.org/internal/appconf"
	"tripplanner.org/internal/clock"
	"tripplanner.org/internal/geocode"
	"tripplanner.org/internal/gtfs"
	"tripplanner.org/internal/logging"
	"tripplanner.org/internal/metrics"
	"tripplanner.org/internal/planner"
	"tripplanner.org/internal/restapi"
	"tripplanner.org/internal/webui"
)

const (
	geocodeSessionCacheSize = 1024
	geocodeSessionIdle      = 10 * time.Minute
	dbStatsInterval         = 15 * time.Second
)

// ParseAPIKeys splits a comma-separated string of API keys and trims whitespace from each key.
// Returns an empty slice if the input is empty.
func ParseAPIKeys(apiKeysFlag string) []string {
	return appconf.SplitList(apiKeysFlag)
}

// BuildApplication loads the feed and wires the planner, the geocoder and
// metrics around it. It fails if the feed cannot be loaded.
func BuildApplication(cfg appconf.Config, gtfsCfg gtfs.Config) (*app.Application, error) {
	level := slog.LevelInfo
	if cfg.Verbose {
		level = slog.LevelDebug
	}
	logger := logging.NewStructuredLogger(os.Stdout, level)

	location, err := clock.LoadLocation(cfg.Timezone)
	if err != nil {
		logging.LogWarning(logger, "falling back to UTC", slog.String("timezone", cfg.Timezone),
			slog.String("error", err.Error()))
	}

	m := metrics.NewWithLogger(logger)

	gtfsManager, err := gtfs.InitGTFSManager(gtfsCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize GTFS manager: %w", err)
	}

	opts := planner.DefaultOptions()
	opts.MaxAlternatives = cfg.MaxAlternatives
	opts.ProximityRadiusKm = cfg.ProximityRadiusKm
	tripPlanner := planner.New(opts, m)

	gtfsManager.OnUpdate(func(*gtfs.Index) {
		tripPlanner.Purge()
		m.FeedLastLoaded.Set(float64(time.Now().Unix()))
	})
	m.FeedLastLoaded.Set(float64(gtfsManager.LastUpdated().Unix()))

	if gtfsManager.RoutesDB != nil {
		m.StartDBStatsCollector(gtfsManager.RoutesDB.DB, dbStatsInterval)
	}

	geocoder := newGeocoder(cfg, gtfsManager, m)

	coreApp := &app.Application{
		Config:      cfg,
		GtfsConfig:  gtfsCfg,
		Logger:      logger,
		GtfsManager: gtfsManager,
		Planner:     tripPlanner,
		Geocoder:    geocoder,
		Sessions:    geocode.NewSessions(geocoder, geocodeSessionCacheSize, geocodeSessionIdle),
		Region:      regionFilter(cfg, gtfsManager),
		Clock:       createClock(cfg.Env, location),
		Location:    location,
		Metrics:     m,
	}

	return coreApp, nil
}

func newGeocoder(cfg appconf.Config, manager *gtfs.Manager, m *metrics.Metrics) geocode.Geocoder {
	if cfg.Geocoder == "nominatim" {
		return geocode.NewNominatimClient(geocode.NominatimConfig{
			BaseURL:   cfg.NominatimURL,
			UserAgent: cfg.GeocoderUserAgent,
		}, m)
	}
	return geocode.NewStopGeocoder(manager.Snapshot, 0, m)
}

// regionFilter limits geocoder results to the feed's bounding box and the
// configured localities.
func regionFilter(cfg appconf.Config, manager *gtfs.Manager) geocode.RegionFilter {
	filter := geocode.RegionFilter{Localities: cfg.RegionLocalities}
	if bounds := manager.RegionBounds(); bounds != nil {
		box := bounds.Box()
		filter.Bounds = &box
	}
	return filter
}

// createClock returns the appropriate Clock implementation based on environment.
// - Production/Development: RealClock (uses actual system time)
// - Test: EnvironmentClock (reads from FAKETIME env var or file, fallback to system time)
func createClock(env appconf.Environment, location *time.Location) clock.Clock {
	switch env {
	case appconf.Test:
		return clock.NewEnvironmentClock("FAKETIME", "/etc/faketimerc", location)
	default:
		return clock.RealClock{}
	}
}

// CreateServer creates and configures the HTTP server with routes and middleware.
// Sets up both REST API routes and WebUI routes, applies security headers, and adds request logging.
func CreateServer(coreApp *app.Application, cfg appconf.Config) (*http.Server, *restapi.RestAPI) {
	api := restapi.NewRestAPI(coreApp)

	webUI := &webui.WebUI{
		Application: coreApp,
	}

	mux := http.NewServeMux()

	api.SetRoutes(mux)
	webUI.SetWebUIRoutes(mux)

	// Wrap with security middleware
	secureHandler := api.WithSecurityHeaders(mux)
	corsHandler := restapi.NewCORSMiddleware(cfg.AllowedOrigins)(secureHandler)
	measured := restapi.MetricsHandler(coreApp.Metrics)(corsHandler)

	// Add request logging middleware, then request ids (outermost)
	requestLogger := logging.NewStructuredLogger(os.Stdout, slog.LevelInfo)
	requestLogMiddleware := restapi.NewRequestLoggingMiddleware(requestLogger)
	handler := restapi.RequestIDMiddleware(requestLogMiddleware(measured))

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      handler,
		IdleTimeout:  time.Minute,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 15 * time.Second,
		ErrorLog:     slog.NewLogLogger(coreApp.Logger.Handler(), slog.LevelError),
	}

	return srv, api
}

// Run manages the server lifecycle with graceful shutdown.
// Starts the server in a goroutine, waits for shutdown signals (SIGINT, SIGTERM) or context cancellation,
// and performs graceful shutdown with a 30-second timeout.
// Returns an error if the server fails to start or shutdown fails.
func Run(ctx context.Context, srv *http.Server, coreApp *app.Application, api *restapi.RestAPI, logger *slog.Logger) error {
	logger.Info("starting server", "addr", srv.Addr)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	serverErrors := make(chan error, 1)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrors <- err
		}
	}()

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server failed to start: %w", err)
	case <-ctx.Done():
		logger.Info("shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	// Request-side goroutines first, then the feed refresher and its store.
	if api != nil {
		api.Shutdown()
	}
	if coreApp != nil {
		if coreApp.Metrics != nil {
			coreApp.Metrics.Shutdown()
		}
		if coreApp.GtfsManager != nil {
			coreApp.GtfsManager.Shutdown()
		}
	}

	logger.Info("server exited")
	return nil
}

// dumpConfigJSON prints the effective configuration with secrets masked.
func dumpConfigJSON(cfg appconf.Config, gtfsCfg gtfs.Config) {
	staticFeed := map[string]string{
		"url": gtfsCfg.GtfsURL,
	}
	if gtfsCfg.StaticAuthHeaderKey != "" {
		staticFeed["auth-header-name"] = gtfsCfg.StaticAuthHeaderKey
		staticFeed["auth-header-value"] = "***REDACTED***"
	}

	jsonConfig := map[string]any{
		"port":                cfg.Port,
		"env":                 cfg.Env.String(),
		"api-keys":            cfg.ApiKeys,
		"exempt-api-keys":     cfg.ExemptApiKeys,
		"rate-limit":          cfg.RateLimit,
		"allowed-origins":     cfg.AllowedOrigins,
		"max-alternatives":    cfg.MaxAlternatives,
		"timezone":            cfg.Timezone,
		"geocoder":            cfg.Geocoder,
		"nominatim-url":       cfg.NominatimURL,
		"region-localities":   cfg.RegionLocalities,
		"proximity-radius-km": cfg.ProximityRadiusKm,
		"gtfs-static-feed":    staticFeed,
		"data-path":           gtfsCfg.GTFSDataPath,
	}

	output, err := json.MarshalIndent(jsonConfig, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error marshaling config to JSON: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(string(output))
}
