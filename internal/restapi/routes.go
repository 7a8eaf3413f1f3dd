package restapi

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type handlerFunc func(w http.ResponseWriter, r *http.Request)

// rateLimitAndValidateAPIKey combines rate limiting, API key validation, and compression
func rateLimitAndValidateAPIKey(api *RestAPI, finalHandler handlerFunc) http.Handler {
	// Create the handler chain: API key validation -> rate limiting -> compression -> final handler
	finalHandlerHttp := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		finalHandler(w, r)
	})

	// Apply compression first (innermost)
	compressedHandler := CompressionMiddleware(finalHandlerHttp)

	var rateLimitedHandler http.Handler
	if api.rateLimiter != nil {
		rateLimitedHandler = api.rateLimiter.Handler()(compressedHandler)
	} else {
		// Fallback for tests that don't use NewRestAPI constructor
		rateLimitedHandler = compressedHandler
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if api.RequestHasInvalidAPIKey(r) {
			api.invalidAPIKeyResponse(w, r)
			return
		}
		rateLimitedHandler.ServeHTTP(w, r)
	})
}

// withID applies id validation before the standard auth and rate limits.
func withID(api *RestAPI, handler http.HandlerFunc) http.Handler {
	return rateLimitAndValidateAPIKey(api, handlerFunc(api.ValidateIDMiddleware(handler)))
}

// SetRoutes registers the API on mux. Every /api route passes the key check,
// the rate limiter and compression; id routes validate {id} first.
func (api *RestAPI) SetRoutes(mux *http.ServeMux) {
	// Probes and scrapes stay unauthenticated
	mux.HandleFunc("GET /healthz", api.healthHandler)
	if api.Metrics != nil {
		mux.Handle("GET /metrics", promhttp.HandlerFor(api.Metrics.Registry, promhttp.HandlerOpts{}))
	}

	keyed := []struct {
		pattern string
		policy  cachePolicy
		handler handlerFunc
	}{
		{"GET /api/current-time.json", shortCache, api.currentTimeHandler},
		{"GET /api/config.json", longCache, api.configHandler},
		{"GET /api/plan.json", noCache, api.planHandler},
		{"GET /api/stops-for-location.json", longCache, api.stopsForLocationHandler},
		{"GET /api/routes.json", longCache, api.routesHandler},
		{"GET /api/geocode/search.json", noCache, api.geocodeSearchHandler},
		{"GET /api/geocode/resolve.json", noCache, api.geocodeResolveHandler},
	}
	for _, route := range keyed {
		mux.Handle(route.pattern, route.policy.wrap(rateLimitAndValidateAPIKey(api, route.handler)))
	}

	mux.Handle("GET /api/stops/{id}", longCache.wrap(withID(api, api.stopHandler)))
	mux.Handle("GET /api/eligible-origins/{id}", longCache.wrap(withID(api, api.eligibleOriginsHandler)))
}

// SetupAPIRoutes creates and configures the API router with all middleware applied globally
func (api *RestAPI) SetupAPIRoutes() http.Handler {
	mux := http.NewServeMux()
	api.SetRoutes(mux)
	return CompressionMiddleware(mux)
}
