package restapi

import (
	"net/http"
	"strconv"

	"tripplanner.org/internal/models"
)

const noStoreCacheControl = "no-cache, no-store, must-revalidate"

// cachePolicy is how long a successful response may be reused, in seconds.
// Zero disables caching.
type cachePolicy int

var (
	longCache  = cachePolicy(models.CacheDurationLong)
	shortCache = cachePolicy(models.CacheDurationShort)
	noCache    = cachePolicy(models.CacheDurationNone)
)

// header is the Cache-Control value for a response with the given status.
// Errors are never cached, whatever the route.
func (p cachePolicy) header(status int) string {
	if p <= 0 || status < 200 || status >= 300 {
		return noStoreCacheControl
	}
	return "public, max-age=" + strconv.Itoa(int(p))
}

// wrap sets Cache-Control just before the status line goes out.
func (p cachePolicy) wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(&cacheControlWriter{ResponseWriter: w, policy: p}, r)
	})
}

type cacheControlWriter struct {
	http.ResponseWriter
	policy  cachePolicy
	written bool
}

func (w *cacheControlWriter) WriteHeader(code int) {
	if !w.written {
		w.written = true
		w.Header().Set("Cache-Control", w.policy.header(code))
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *cacheControlWriter) Write(b []byte) (int, error) {
	if !w.written {
		w.WriteHeader(http.StatusOK)
	}
	return w.ResponseWriter.Write(b)
}

func (w *cacheControlWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
