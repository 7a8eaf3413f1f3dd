package gtfs

import (
	"archive/zip"
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"tripplanner.org/internal/models"
)

// zipFixture packs every file of a testdata feed directory into a zip.
func zipFixture(t *testing.T, name string) []byte {
	t.Helper()
	dir := models.GetFixturePath(t, name)
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, e := range entries {
		data, err := os.ReadFile(filepath.Join(dir, e.Name()))
		require.NoError(t, err)
		w, err := zw.Create(e.Name())
		require.NoError(t, err)
		_, err = w.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestLoadDir(t *testing.T) {
	tables, err := LoadDir(models.GetFixturePath(t, "metro"))
	require.NoError(t, err)

	assert.Len(t, tables.Stops, 7)
	assert.Len(t, tables.Routes, 3)
	assert.Len(t, tables.Trips, 5)
	assert.Len(t, tables.StopTimes, 14)

	var unmapped Stop
	for _, s := range tables.Stops {
		if s.ID == "X" {
			unmapped = s
		}
	}
	assert.False(t, unmapped.HasLocation())
}

func TestLoadDir_RoutesOptional(t *testing.T) {
	dir := t.TempDir()
	src := models.GetFixturePath(t, "metro")
	for _, name := range []string{"stops.txt", "trips.txt", "stop_times.txt"} {
		data, err := os.ReadFile(filepath.Join(src, name))
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), data, 0o600))
	}

	tables, err := LoadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, tables.Routes)
	assert.Len(t, tables.Trips, 5)
}

func TestLoadDir_MissingRequiredFile(t *testing.T) {
	_, err := LoadDir(t.TempDir())
	assert.Error(t, err)
}

func TestLoadZip(t *testing.T) {
	tables, err := LoadZip(zipFixture(t, "metro"))
	require.NoError(t, err)

	assert.Len(t, tables.Stops, 7)
	assert.Len(t, tables.Routes, 3)
	assert.Len(t, tables.Trips, 5)
	assert.Len(t, tables.StopTimes, 14)

	idx := BuildIndex(tables)
	night := idx.StopTimesByTrip("t3_night")
	require.Len(t, night, 2)
	assert.Equal(t, "23:50:00", night[0].DepartureTime)
	assert.Equal(t, "24:10:00", night[1].ArrivalTime, "post-midnight times are not wrapped")

	trip, ok := idx.TripByID("t1_0800")
	require.True(t, ok)
	assert.Equal(t, "R1", trip.RouteID)
	assert.Equal(t, "Transit Center", trip.Headsign)
}

func TestLoadZip_InvalidBytes(t *testing.T) {
	_, err := LoadZip([]byte("not a zip"))
	assert.Error(t, err)
}

func TestLoadSource(t *testing.T) {
	zipBytes := zipFixture(t, "metro")
	zipPath := filepath.Join(t.TempDir(), "metro.zip")
	require.NoError(t, os.WriteFile(zipPath, zipBytes, 0o600))

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Api-Key") != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write(zipBytes)
	}))
	defer server.Close()

	tests := []struct {
		name    string
		source  string
		config  Config
		wantErr bool
	}{
		{name: "directory", source: models.GetFixturePath(t, "metro")},
		{name: "zip file", source: zipPath},
		{name: "url with auth", source: server.URL, config: Config{StaticAuthHeaderKey: "X-Api-Key", StaticAuthHeaderValue: "secret"}},
		{name: "url without auth", source: server.URL, wantErr: true},
		{name: "missing path", source: filepath.Join(t.TempDir(), "nope"), wantErr: true},
		{name: "empty source", source: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tables, err := LoadSource(context.Background(), tt.source, tt.config)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Len(t, tables.Trips, 5)
		})
	}
}
