package restapi

import (
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"tripplanner.org/internal/logging"
)

// NewRequestLoggingMiddleware writes one http_request line per request and
// hands downstream handlers a context logger tagged with the request id.
func NewRequestLoggingMiddleware(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			reqID := RequestIDFromContext(r.Context())

			scoped := logger
			if reqID != "" {
				scoped = logger.With(slog.String("request_id", reqID))
			}
			r = r.WithContext(logging.WithLogger(r.Context(), scoped))

			rec := newStatusRecorder(w)
			next.ServeHTTP(rec, r)

			logging.LogHTTPRequest(logger,
				r.Method,
				r.URL.Path,
				rec.status,
				float64(time.Since(start).Microseconds())/1000,
				slog.String("request_id", reqID),
				slog.String("query", redactedQuery(r.URL)),
				slog.Int("bytes", rec.bytes),
				slog.String("user_agent", r.UserAgent()),
				slog.String("component", "http_server"))
		})
	}
}

// redactedQuery masks the API key so it never reaches the logs.
func redactedQuery(u *url.URL) string {
	if u.RawQuery == "" {
		return ""
	}
	q := u.Query()
	if q.Has("key") {
		q.Set("key", "REDACTED")
	}
	return q.Encode()
}
