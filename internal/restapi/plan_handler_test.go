package restapi

import (
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-polyline"
	"tripplanner.org/internal/planner"
)

func planEndpoint(params url.Values) string {
	params.Set("key", "TEST")
	return "/api/plan.json?" + params.Encode()
}

func legsOf(t *testing.T, itinerary map[string]any) []map[string]any {
	t.Helper()
	raw, ok := itinerary["legs"].([]any)
	require.True(t, ok)
	legs := make([]map[string]any, 0, len(raw))
	for _, l := range raw {
		legs = append(legs, l.(map[string]any))
	}
	return legs
}

func TestPlanHandler_Direct(t *testing.T) {
	api := createTestApi(t)

	resp, body := serveApiAndRetrieveEndpoint(t, api, planEndpoint(url.Values{
		"from": {"A"}, "to": {"T"}, "now": {"07:00"},
	}))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "no-cache, no-store, must-revalidate", resp.Header.Get("Cache-Control"))

	entry := entryOf(t, body)
	assert.Equal(t, "direct", entry["kind"])
	assert.Equal(t, float64(420), entry["nowMinutes"])
	assert.NotContains(t, entry, "serviceNote")

	origin := entry["origin"].(map[string]any)
	assert.Equal(t, "A", origin["stop"].(map[string]any)["id"])
	assert.NotContains(t, origin, "distanceKm")

	next := entry["next"].(map[string]any)
	assert.Equal(t, "08:00", next["departureTime"])
	assert.Equal(t, "08:30", next["arrivalTime"])
	assert.Equal(t, float64(30), next["totalMinutes"])

	legs := legsOf(t, next)
	require.Len(t, legs, 1)
	leg := legs[0]
	assert.Equal(t, "t1_0800", leg["tripId"])
	assert.Equal(t, "101", leg["tripShortName"])
	assert.Equal(t, "Transit Center", leg["headsign"])
	assert.Equal(t, "08:00:00", leg["boardTime"])
	assert.Equal(t, "08:30:00", leg["alightTime"])
	assert.Equal(t, "08:00", leg["boardDisplay"])
	assert.Equal(t, float64(3), leg["stopCount"])
	assert.Equal(t, "1", leg["route"].(map[string]any)["displayName"])
	assert.Equal(t, "T", leg["to"].(map[string]any)["id"])

	coords, _, err := polyline.DecodeCoords([]byte(leg["polyline"].(string)))
	require.NoError(t, err)
	require.Len(t, coords, 4)
	assert.InDelta(t, 47.600, coords[0][0], 1e-5)
	assert.InDelta(t, -122.300, coords[3][1], 1e-5)

	alternatives := entry["alternatives"].([]any)
	require.Len(t, alternatives, 1)
	assert.Equal(t, "09:00", alternatives[0].(map[string]any)["departureTime"])
}

func TestPlanHandler_DefaultsNowToClock(t *testing.T) {
	api := createTestApi(t)

	_, body := serveApiAndRetrieveEndpoint(t, api, planEndpoint(url.Values{"from": {"A"}, "to": {"T"}}))

	entry := entryOf(t, body)
	assert.Equal(t, float64(485), entry["nowMinutes"])
	next := entry["next"].(map[string]any)
	assert.Equal(t, "09:00", next["departureTime"])
	assert.Empty(t, entry["alternatives"])
}

func TestPlanHandler_Transfer(t *testing.T) {
	api := createTestApi(t)

	_, body := serveApiAndRetrieveEndpoint(t, api, planEndpoint(url.Values{
		"from": {"A"}, "to": {"D"}, "now": {"420"},
	}))

	entry := entryOf(t, body)
	require.Equal(t, "transfer", entry["kind"])

	next := entry["next"].(map[string]any)
	assert.Equal(t, "T", next["transferStop"].(map[string]any)["id"])
	assert.Equal(t, float64(10), next["layoverMinutes"])
	assert.Equal(t, float64(55), next["totalMinutes"])
	assert.Equal(t, "08:00", next["departureTime"])
	assert.Equal(t, "08:55", next["arrivalTime"])

	legs := legsOf(t, next)
	require.Len(t, legs, 2)
	assert.Equal(t, "t1_0800", legs[0]["tripId"])
	assert.Equal(t, "t2_0830", legs[1]["tripId"])
	assert.Equal(t, "Dogwood", legs[1]["headsign"])

	alternatives := entry["alternatives"].([]any)
	require.Len(t, alternatives, 2)
	assert.Equal(t, float64(115), alternatives[0].(map[string]any)["totalMinutes"])
	assert.Equal(t, "09:00", alternatives[1].(map[string]any)["departureTime"])
}

func TestPlanHandler_RolloverAndPostMidnight(t *testing.T) {
	api := createTestApi(t)

	_, body := serveApiAndRetrieveEndpoint(t, api, planEndpoint(url.Values{
		"from": {"B"}, "to": {"C"}, "now": {"23:55"},
	}))
	entry := entryOf(t, body)
	assert.Equal(t, "direct", entry["kind"])
	assert.Equal(t, planner.NoteNoMoreDepartures, entry["serviceNote"])
	assert.Equal(t, "08:10", entry["next"].(map[string]any)["departureTime"])

	_, body = serveApiAndRetrieveEndpoint(t, api, planEndpoint(url.Values{
		"from": {"B"}, "to": {"C"}, "now": {"23:00"},
	}))
	entry = entryOf(t, body)
	leg := legsOf(t, entry["next"].(map[string]any))[0]
	assert.Equal(t, "t3_night", leg["tripId"])
	assert.Equal(t, "24:10:00", leg["alightTime"])
	assert.Equal(t, "00:10", leg["alightDisplay"])
	assert.Equal(t, float64(20), leg["minutes"])
	assert.NotContains(t, leg["route"].(map[string]any), "shortName")
	assert.Equal(t, "Night Owl", leg["route"].(map[string]any)["displayName"])
}

func TestPlanHandler_RiderFacingErrors(t *testing.T) {
	api := createTestApi(t)

	tests := []struct {
		name    string
		params  url.Values
		message string
	}{
		{"same stop", url.Values{"from": {"A"}, "to": {"A"}}, planner.MsgSameStop},
		{"no origin", url.Values{"to": {"D"}}, planner.MsgMissingEndpoint},
		{"no destination", url.Values{"from": {"A"}}, planner.MsgMissingEndpoint},
		{"no coverage", url.Values{"from": {"A"}, "to": {"Z"}}, planner.MsgNoTrips},
		{"wrong direction", url.Values{"from": {"T"}, "to": {"A"}}, planner.MsgNoTrips},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := serveApiAndRetrieveEndpoint(t, api, planEndpoint(tt.params))
			require.Equal(t, http.StatusOK, resp.StatusCode)
			entry := entryOf(t, body)
			assert.Equal(t, "error", entry["kind"])
			assert.Equal(t, tt.message, entry["message"])
			assert.NotContains(t, entry, "next")
		})
	}
}

func TestPlanHandler_BadRequests(t *testing.T) {
	api := createTestApi(t)

	tests := []struct {
		name   string
		params url.Values
		status int
		field  string
	}{
		{"unknown stop", url.Values{"from": {"NOPE"}, "to": {"D"}}, http.StatusNotFound, ""},
		{"bad now", url.Values{"from": {"A"}, "to": {"D"}, "now": {"soon"}}, http.StatusBadRequest, "now"},
		{"half coordinate", url.Values{"fromLat": {"47.6"}, "to": {"D"}}, http.StatusBadRequest, "from"},
		{"bad coordinate", url.Values{"from": {"A"}, "toLat": {"x"}, "toLon": {"-122.3"}}, http.StatusBadRequest, "toLat"},
		{"out of range", url.Values{"from": {"A"}, "toLat": {"95"}, "toLon": {"-122.3"}}, http.StatusBadRequest, "to"},
		{"bad id", url.Values{"from": {"A<b>"}, "to": {"D"}}, http.StatusBadRequest, "from"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := serveApiAndRetrieveEndpoint(t, api, planEndpoint(tt.params))
			assert.Equal(t, tt.status, resp.StatusCode)
			if tt.field != "" {
				fieldErrors := body["data"].(map[string]any)["fieldErrors"].(map[string]any)
				assert.Contains(t, fieldErrors, tt.field)
			}
		})
	}
}

func TestPlanHandler_CoordinateEndpoints(t *testing.T) {
	api := createTestApi(t)

	t.Run("destination coordinate alights nearby", func(t *testing.T) {
		_, body := serveApiAndRetrieveEndpoint(t, api, planEndpoint(url.Values{
			"from": {"A"}, "toLat": {"47.640"}, "toLon": {"-122.290"}, "now": {"07:00"},
		}))
		entry := entryOf(t, body)
		assert.Equal(t, "direct", entry["kind"])

		destination := entry["destination"].(map[string]any)
		assert.Equal(t, "D", destination["stop"].(map[string]any)["id"])
		assert.InDelta(t, 0, destination["distanceKm"], 1e-9)

		leg := legsOf(t, entry["next"].(map[string]any))[0]
		assert.Equal(t, "T", leg["to"].(map[string]any)["id"])
	})

	t.Run("origin coordinate snaps to a reachable stop", func(t *testing.T) {
		_, body := serveApiAndRetrieveEndpoint(t, api, planEndpoint(url.Values{
			"fromLat": {"47.6001"}, "fromLon": {"-122.3301"}, "to": {"D"}, "now": {"07:00"},
		}))
		entry := entryOf(t, body)
		assert.Equal(t, "transfer", entry["kind"])

		origin := entry["origin"].(map[string]any)
		assert.Equal(t, "A", origin["stop"].(map[string]any)["id"])
		assert.Greater(t, origin["distanceKm"], float64(0))
	})
}

func TestPlanHandler_RecordsMetrics(t *testing.T) {
	api := createTestApi(t)

	serveApiAndRetrieveEndpoint(t, api, planEndpoint(url.Values{"from": {"A"}, "to": {"T"}}))
	serveApiAndRetrieveEndpoint(t, api, planEndpoint(url.Values{"from": {"A"}, "to": {"T"}, "now": {"07:00"}}))

	rec := serve(api.SetupAPIRoutes(), newRequest(t, "/metrics"))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `tripplanner_plan_requests_total{outcome="direct"} 2`)
	assert.Contains(t, rec.Body.String(), `tripplanner_plan_cache_lookups_total{result="hit"} 1`)
}
