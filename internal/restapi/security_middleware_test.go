package restapi

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWithSecurityHeaders(t *testing.T) {
	api := &RestAPI{}
	rec := serve(api.WithSecurityHeaders(okHandler()), newRequest(t, "/healthz"))

	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.Equal(t, "strict-origin-when-cross-origin", rec.Header().Get("Referrer-Policy"))
}

func TestCORSMiddleware(t *testing.T) {
	t.Run("no origins configured", func(t *testing.T) {
		r := newRequest(t, "/api/plan.json")
		r.Header.Set("Origin", "https://planner.example")
		rec := serve(NewCORSMiddleware(nil)(okHandler()), r)

		assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("allowed origin", func(t *testing.T) {
		r := newRequest(t, "/api/plan.json")
		r.Header.Set("Origin", "https://planner.example")
		rec := serve(NewCORSMiddleware([]string{"https://planner.example"})(okHandler()), r)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "https://planner.example", rec.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("other origin", func(t *testing.T) {
		r := newRequest(t, "/api/plan.json")
		r.Header.Set("Origin", "https://elsewhere.example")
		rec := serve(NewCORSMiddleware([]string{"https://planner.example"})(okHandler()), r)

		assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	})
}
