package models

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"tripplanner.org/internal/clock"
)

func TestNewStop(t *testing.T) {
	located := NewStop("A", "100", "Alder", 47.6, -122.3)
	require.NotNil(t, located.Lat)
	assert.Equal(t, 47.6, *located.Lat)

	unlocated := NewStop("X", "", "Nowhere", math.NaN(), 1)
	assert.Nil(t, unlocated.Lat)
	assert.Nil(t, unlocated.Lon)

	data, err := json.Marshal(unlocated)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"X","name":"Nowhere","lat":null,"lon":null}`, string(data))
}

func TestResponses(t *testing.T) {
	c := clock.NewMockClock(time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC))

	entry := NewEntryResponse(Route{ID: "R1", DisplayName: "1"}, c)
	assert.Equal(t, 200, entry.Code)
	assert.Equal(t, "OK", entry.Text)
	assert.Equal(t, 2, entry.Version)
	assert.Equal(t, c.Now().UnixMilli(), entry.CurrentTime)

	data, err := json.Marshal(NewListResponse([]string{"a"}, true, c))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"data":{"list":["a"],"limitExceeded":true}`)
}

func TestNewCurrentTimeData(t *testing.T) {
	loc := time.FixedZone("PST", -8*3600)
	now := time.Date(2026, 3, 1, 8, 30, 0, 0, loc)

	data := NewCurrentTimeData(now, 510)
	assert.Equal(t, now.UnixMilli(), data.Time)
	assert.Equal(t, "2026-03-01T08:30:00-08:00", data.ReadableTime)
	assert.Equal(t, 510.0, data.ServiceMinutes)
	assert.Equal(t, "PST", data.Timezone)
}
