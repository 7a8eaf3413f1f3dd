package restapi

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"tripplanner.org/internal/geocode"
	"tripplanner.org/internal/utils"
)

func TestGeocodeSearchHandler(t *testing.T) {
	api := createTestApi(t)

	resp, body := serveApiAndRetrieveEndpoint(t, api, "/api/geocode/search.json?key=TEST&q=transit")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	list, _ := listOf(t, body)
	require.Len(t, list, 1)
	suggestion := list[0].(map[string]any)
	assert.Equal(t, "stop:T", suggestion["placeId"])
	assert.Equal(t, "Transit Center (103)", suggestion["description"])
}

func TestGeocodeSearchHandler_RegionBounds(t *testing.T) {
	api := createTestApi(t)
	api.Region = geocode.RegionFilter{Bounds: &utils.CoordinateBounds{
		MinLat: 47.59, MaxLat: 47.615, MinLon: -122.34, MaxLon: -122.31,
	}}

	_, body := serveApiAndRetrieveEndpoint(t, api, "/api/geocode/search.json?key=TEST&q=a")
	list, _ := listOf(t, body)
	assert.Equal(t, []string{"stop:A", "stop:B"}, collectAllIdsFromObjects(t, list, "placeId"))
}

func TestGeocodeSearchHandler_EmptyQuery(t *testing.T) {
	api := createTestApi(t)

	resp, _ := serveApiAndRetrieveEndpoint(t, api, "/api/geocode/search.json?key=TEST&q=%20")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGeocodeResolveHandler(t *testing.T) {
	api := createTestApi(t)

	resp, body := serveApiAndRetrieveEndpoint(t, api, "/api/geocode/resolve.json?key=TEST&placeId=stop:D")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	entry := entryOf(t, body)
	assert.Equal(t, "Dogwood Rd", entry["formattedAddress"])

	_, body = serveApiAndRetrieveEndpoint(t, api, "/api/geocode/resolve.json?key=TEST&lat=47.6302&lon=-122.3001")
	entry = entryOf(t, body)
	assert.Equal(t, "Transit Center", entry["formattedAddress"])
	coordinate := entry["coordinate"].(map[string]any)
	assert.InDelta(t, 47.6302, coordinate["lat"], 1e-9)
}

func TestGeocodeResolveHandler_Errors(t *testing.T) {
	api := createTestApi(t)

	tests := []struct {
		name   string
		query  string
		status int
	}{
		{"unknown place", "placeId=stop:NOPE", http.StatusNotFound},
		{"foreign place id", "placeId=osm:N123", http.StatusNotFound},
		{"nothing given", "", http.StatusBadRequest},
		{"bad coordinate", "lat=abc&lon=1", http.StatusBadRequest},
		{"out of range", "lat=100&lon=1", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, _ := serveApiAndRetrieveEndpoint(t, api, "/api/geocode/resolve.json?key=TEST&"+tt.query)
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}
}

func TestGeocodeResolveHandler_OutsideServiceArea(t *testing.T) {
	api := createTestApi(t)
	api.Region = geocode.RegionFilter{Localities: []string{"Springfield"}}

	resp, body := serveApiAndRetrieveEndpoint(t, api, "/api/geocode/resolve.json?key=TEST&placeId=stop:D")
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Equal(t, "place is outside the service area", body["text"])
}

type failingGeocoder struct{ err error }

func (f failingGeocoder) Search(context.Context, string, *utils.CoordinateBounds) ([]geocode.Suggestion, error) {
	return nil, f.err
}

func (f failingGeocoder) Resolve(context.Context, geocode.ResolveRequest) (geocode.Place, error) {
	return geocode.Place{}, f.err
}

func TestGeocodeFailureMapping(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{geocode.ErrSuperseded, http.StatusConflict},
		{geocode.ErrNotFound, http.StatusNotFound},
		{geocode.ErrEmptyQuery, http.StatusBadRequest},
		{errors.New("upstream 503"), http.StatusBadGateway},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			api := createTestApi(t)
			api.Geocoder = failingGeocoder{err: tt.err}
			api.Sessions = nil

			resp, _ := serveApiAndRetrieveEndpoint(t, api, "/api/geocode/search.json?key=TEST&q=anything")
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}
}

func TestGeocodeSessionKey(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/api/geocode/search.json?session=abc", nil)
	assert.Equal(t, "abc", geocodeSessionKey(r))

	r.Header.Set(GeocodeSessionHeader, "from-header")
	assert.Equal(t, "from-header", geocodeSessionKey(r))
}

func TestGeocodeHandlers_NoGeocoder(t *testing.T) {
	api := createTestApi(t)
	api.Geocoder = nil

	resp, _ := serveApiAndRetrieveEndpoint(t, api, "/api/geocode/search.json?key=TEST&q=a")
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}
