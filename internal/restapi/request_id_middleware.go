package restapi

import (
	"context"
	"net/http"
	"regexp"

	"github.com/google/uuid"
)

const (
	requestIDHeader    = "X-Request-ID"
	maxRequestIDLength = 128
)

type contextKey string

// RequestIDKey is the context key carrying the request id.
const RequestIDKey contextKey = "request_id"

var requestIDPattern = regexp.MustCompile(`^[A-Za-z0-9._:-]+$`)

// RequestIDMiddleware keeps a caller supplied X-Request-ID when it is short
// and made of safe characters, otherwise mints a UUID. The id is echoed on
// the response and stored in the request context.
func RequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := acceptRequestID(r.Header.Get(requestIDHeader))
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), RequestIDKey, id)))
	})
}

func acceptRequestID(candidate string) string {
	if candidate == "" || len(candidate) > maxRequestIDLength || !requestIDPattern.MatchString(candidate) {
		return uuid.NewString()
	}
	return candidate
}

// RequestIDFromContext returns "" outside RequestIDMiddleware.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(RequestIDKey).(string)
	return id
}
