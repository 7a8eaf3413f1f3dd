package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingCloser struct{ closed bool }

func (f *failingCloser) Close() error {
	f.closed = true
	return errors.New("boom")
}

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	return entry
}

func TestLogErrorIncludesErrorAndAttrs(t *testing.T) {
	var buf bytes.Buffer
	logger := NewStructuredLogger(&buf, slog.LevelDebug)

	LogError(logger, "load failed", errors.New("bad zip"), slog.String("source", "feed.zip"))

	entry := decodeLine(t, &buf)
	assert.Equal(t, "load failed", entry["msg"])
	assert.Equal(t, "bad zip", entry["error"])
	assert.Equal(t, "feed.zip", entry["source"])
	assert.Equal(t, "ERROR", entry["level"])
}

func TestLogHTTPRequest(t *testing.T) {
	var buf bytes.Buffer
	logger := NewStructuredLogger(&buf, slog.LevelInfo)

	LogHTTPRequest(logger, "GET", "/api/plan.json", 200, 1.5, slog.String("request_id", "abc"))

	entry := decodeLine(t, &buf)
	assert.Equal(t, "http_request", entry["msg"])
	assert.Equal(t, "GET", entry["method"])
	assert.Equal(t, float64(200), entry["status"])
	assert.Equal(t, "abc", entry["request_id"])
}

func TestContextLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewStructuredLogger(&buf, slog.LevelInfo)

	ctx := WithLogger(context.Background(), logger)
	assert.Same(t, logger, FromContext(ctx))
	assert.Same(t, slog.Default(), FromContext(context.Background()))
}

func TestSafeCloseWithLogging(t *testing.T) {
	var buf bytes.Buffer
	logger := NewStructuredLogger(&buf, slog.LevelInfo)
	closer := &failingCloser{}

	SafeCloseWithLogging(closer, logger, "rows")

	assert.True(t, closer.closed)
	entry := decodeLine(t, &buf)
	assert.Equal(t, "rows", entry["resource"])

	// nil closers are ignored
	SafeCloseWithLogging(nil, logger, "nothing")
}
