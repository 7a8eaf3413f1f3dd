package restapi

import (
	"compress/gzip"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompressionMiddleware(t *testing.T) {
	payload := strings.Repeat(`{"stopId":"T","name":"Transit Center"}`, 200)
	handler := CompressionMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, payload)
	}))

	t.Run("gzip when accepted", func(t *testing.T) {
		r := newRequest(t, "/api/routes.json")
		r.Header.Set("Accept-Encoding", "gzip")
		rec := serve(handler, r)

		require.Equal(t, "gzip", rec.Header().Get("Content-Encoding"))
		zr, err := gzip.NewReader(rec.Body)
		require.NoError(t, err)
		raw, err := io.ReadAll(zr)
		require.NoError(t, err)
		assert.Equal(t, payload, string(raw))
	})

	t.Run("identity otherwise", func(t *testing.T) {
		rec := serve(handler, newRequest(t, "/api/routes.json"))
		assert.Empty(t, rec.Header().Get("Content-Encoding"))
		assert.Equal(t, payload, rec.Body.String())
	})
}
