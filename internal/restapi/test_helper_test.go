package restapi

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"tripplanner.org/gtfsdb"
	"tripplanner.org/internal/app"
	"tripplanner.org/internal/appconf"
	"tripplanner.org/internal/clock"
	"tripplanner.org/internal/geocode"
	"tripplanner.org/internal/gtfs"
	"tripplanner.org/internal/metrics"
	"tripplanner.org/internal/models"
	"tripplanner.org/internal/planner"
)

// testNow is 08:05 on a service day, UTC.
var testNow = time.Date(2024, 1, 15, 8, 5, 0, 0, time.UTC)

// createTestApi serves testdata/metro with an in-memory routes store, the
// stop geocoder and a clock frozen at testNow.
func createTestApi(t *testing.T) *RestAPI {
	t.Helper()

	tables, err := gtfs.LoadDir(models.GetFixturePath(t, "metro"))
	require.NoError(t, err)
	db, err := gtfsdb.NewClient(gtfsdb.NewConfig(":memory:", appconf.Test, false))
	require.NoError(t, err)
	manager, err := gtfs.NewManagerFromTables(tables, db)
	require.NoError(t, err)

	m := metrics.New()
	pl := planner.New(planner.DefaultOptions(), m)
	manager.OnUpdate(func(*gtfs.Index) { pl.Purge() })
	geocoder := geocode.NewStopGeocoder(manager.Snapshot, 0, m)

	application := &app.Application{
		Config: appconf.Config{
			Env:       appconf.Test,
			ApiKeys:   []string{"TEST"},
			RateLimit: 100,
		},
		Logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		GtfsManager: manager,
		Planner:     pl,
		Geocoder:    geocoder,
		Sessions:    geocode.NewSessions(geocoder, 16, time.Minute),
		Clock:       clock.NewMockClock(testNow),
		Location:    time.UTC,
		Metrics:     m,
	}

	api := NewRestAPI(application)
	t.Cleanup(func() {
		api.Shutdown()
		manager.Shutdown()
	})
	return api
}

// serveApiAndRetrieveEndpoint runs one GET through the full route table and
// decodes the JSON envelope.
func serveApiAndRetrieveEndpoint(t *testing.T, api *RestAPI, endpoint string) (*http.Response, map[string]any) {
	t.Helper()

	mux := http.NewServeMux()
	api.SetRoutes(mux)
	server := httptest.NewServer(mux)
	defer server.Close()

	resp, err := http.Get(server.URL + endpoint)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	var body map[string]any
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &body), "body: %s", raw)
	}
	return resp, body
}

func entryOf(t *testing.T, body map[string]any) map[string]any {
	t.Helper()
	data, ok := body["data"].(map[string]any)
	require.True(t, ok, "missing data in %v", body)
	entry, ok := data["entry"].(map[string]any)
	require.True(t, ok, "missing entry in %v", data)
	return entry
}

func listOf(t *testing.T, body map[string]any) ([]any, bool) {
	t.Helper()
	data, ok := body["data"].(map[string]any)
	require.True(t, ok, "missing data in %v", body)
	list, ok := data["list"].([]any)
	require.True(t, ok, "missing list in %v", data)
	limitExceeded, _ := data["limitExceeded"].(bool)
	return list, limitExceeded
}

type testingFatalf interface {
	Fatalf(format string, args ...any)
}

// collectAllIdsFromObjects extracts the string at key from every object in
// list, in order.
func collectAllIdsFromObjects(t testingFatalf, list []any, key string) (ids []string) {
	for i, item := range list {
		object, ok := item.(map[string]any)
		if !ok {
			t.Fatalf("item %d is not a map[string]any", i)
		}
		value, ok := object[key]
		if !ok {
			t.Fatalf("item %d missing key %q", i, key)
		}
		id, ok := value.(string)
		if !ok {
			t.Fatalf("item %d key %q is not a string: %T", i, key, value)
		}
		ids = append(ids, id)
	}
	return ids
}

func newRequest(t *testing.T, target string) *http.Request {
	t.Helper()
	return httptest.NewRequest(http.MethodGet, target, nil)
}

func serve(handler http.Handler, r *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, r)
	return rec
}
