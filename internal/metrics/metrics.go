// Package metrics provides Prometheus metrics for the trip planner.
package metrics

import (
	"context"
	"database/sql"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Registry is the Prometheus registry for this metrics instance
	Registry *prometheus.Registry

	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Database metrics
	DBConnectionsOpen  prometheus.Gauge
	DBConnectionsInUse prometheus.Gauge
	DBConnectionsIdle  prometheus.Gauge
	DBWaitSecondsTotal prometheus.Counter

	// Planner metrics
	PlanRequestsTotal *prometheus.CounterVec
	PlanDuration      prometheus.Histogram
	PlanCacheLookups  *prometheus.CounterVec

	// Geocoder metrics
	GeocodeRequestsTotal *prometheus.CounterVec

	// Feed metrics
	FeedLastLoaded prometheus.Gauge

	// logger for error reporting
	logger *slog.Logger

	// collectorStarted prevents spawning multiple collector goroutines
	collectorStarted atomic.Bool

	// cancel stops the DB stats collector goroutine
	cancel context.CancelFunc

	// wg tracks the DB stats collector goroutine for graceful shutdown
	wg sync.WaitGroup
}

// New creates and registers all application metrics with a new registry.
func New() *Metrics {
	return NewWithLogger(nil)
}

// NewWithLogger creates metrics with a logger for error reporting.
func NewWithLogger(logger *slog.Logger) *Metrics {
	registry := prometheus.NewRegistry()

	httpRequestsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tripplanner_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tripplanner_http_request_duration_seconds",
			Help:    "HTTP request latency distribution",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	dbConnectionsOpen := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "tripplanner_db_connections_open",
		Help: "Number of open database connections",
	})

	dbConnectionsInUse := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "tripplanner_db_connections_in_use",
		Help: "Number of database connections currently in use",
	})

	dbConnectionsIdle := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "tripplanner_db_connections_idle",
		Help: "Number of idle database connections",
	})

	dbWaitSecondsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "tripplanner_db_wait_seconds_total",
		Help: "Total time blocked waiting for a database connection",
	})

	planRequestsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tripplanner_plan_requests_total",
			Help: "Itinerary searches by outcome",
		},
		[]string{"outcome"},
	)

	planDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "tripplanner_plan_duration_seconds",
		Help:    "Itinerary search latency",
		Buckets: []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
	})

	planCacheLookups := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tripplanner_plan_cache_lookups_total",
			Help: "Candidate cache lookups by result",
		},
		[]string{"result"},
	)

	geocodeRequestsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tripplanner_geocode_requests_total",
			Help: "Geocoder calls by provider and status",
		},
		[]string{"provider", "status"},
	)

	feedLastLoaded := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "tripplanner_feed_last_loaded_timestamp_seconds",
		Help: "Unix time of the last successful schedule load",
	})

	// Register all metrics with the custom registry
	registry.MustRegister(
		httpRequestsTotal,
		httpRequestDuration,
		dbConnectionsOpen,
		dbConnectionsInUse,
		dbConnectionsIdle,
		dbWaitSecondsTotal,
		planRequestsTotal,
		planDuration,
		planCacheLookups,
		geocodeRequestsTotal,
		feedLastLoaded,
	)

	return &Metrics{
		Registry:            registry,
		HTTPRequestsTotal:   httpRequestsTotal,
		HTTPRequestDuration: httpRequestDuration,
		DBConnectionsOpen:   dbConnectionsOpen,
		DBConnectionsInUse:  dbConnectionsInUse,
		DBConnectionsIdle:   dbConnectionsIdle,
		DBWaitSecondsTotal:  dbWaitSecondsTotal,

		PlanRequestsTotal:    planRequestsTotal,
		PlanDuration:         planDuration,
		PlanCacheLookups:     planCacheLookups,
		GeocodeRequestsTotal: geocodeRequestsTotal,
		FeedLastLoaded:       feedLastLoaded,
		logger:               logger,
	}
}

// StartDBStatsCollector starts a goroutine that periodically collects database
// connection pool statistics and updates the corresponding metrics.
// The interval specifies how often to collect stats.
// This method is idempotent - calling it multiple times has no effect after the first call.
// Call Shutdown() to stop the collector.
func (m *Metrics) StartDBStatsCollector(db *sql.DB, interval time.Duration) {
	if db == nil {
		return
	}

	// Prevent spawning multiple collectors
	if !m.collectorStarted.CompareAndSwap(false, true) {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())

	var lastWaitDuration time.Duration

	// Add to WaitGroup BEFORE exposing cancel to avoid race with Shutdown
	m.wg.Add(1)
	m.cancel = cancel

	go func() {
		defer m.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				if m.logger != nil {
					m.logger.Error("panic in DB stats collector", "error", r)
				}
			}
		}()

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				stats := db.Stats()
				m.DBConnectionsOpen.Set(float64(stats.OpenConnections))
				m.DBConnectionsInUse.Set(float64(stats.InUse))
				m.DBConnectionsIdle.Set(float64(stats.Idle))

				// Add the delta of wait duration since last check
				waitDelta := stats.WaitDuration - lastWaitDuration
				if waitDelta > 0 {
					m.DBWaitSecondsTotal.Add(waitDelta.Seconds())
				}
				lastWaitDuration = stats.WaitDuration

			case <-ctx.Done():
				return
			}
		}
	}()
}

// RecordPlan counts one itinerary search. Safe on a nil receiver.
func (m *Metrics) RecordPlan(outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.PlanRequestsTotal.WithLabelValues(outcome).Inc()
	m.PlanDuration.Observe(elapsed.Seconds())
}

// RecordPlanCache counts a candidate cache hit or miss. Safe on a nil receiver.
func (m *Metrics) RecordPlanCache(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.PlanCacheLookups.WithLabelValues(result).Inc()
}

// RecordGeocode counts one geocoder call. Safe on a nil receiver.
func (m *Metrics) RecordGeocode(provider, status string) {
	if m == nil {
		return
	}
	m.GeocodeRequestsTotal.WithLabelValues(provider, status).Inc()
}

// Shutdown stops the DB stats collector goroutine and waits for it to exit.
// This method is safe to call multiple times.
func (m *Metrics) Shutdown() {
	if m.cancel != nil {
		m.cancel()
	}
	m.wg.Wait()
}
