package gtfs

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTables_ReadsColumnsByHeaderName(t *testing.T) {
	tables, err := ParseTables(TableReaders{
		Stops: strings.NewReader("stop_name,stop_id,stop_lon,stop_lat,wheelchair_boarding\n" +
			"Alder St,A,-122.33,47.6,1\n"),
		Routes: strings.NewReader("route_id,route_short_name\nR1,1\n"),
		Trips:  strings.NewReader("trip_id,route_id,trip_headsign\nt1,R1,Downtown\n"),
		StopTimes: strings.NewReader("trip_id,arrival_time,departure_time,stop_id,stop_sequence\n" +
			"t1,08:00:00,08:00:30,A,1\n"),
	})
	require.NoError(t, err)

	require.Len(t, tables.Stops, 1)
	assert.Equal(t, Stop{ID: "A", Name: "Alder St", Lat: 47.6, Lon: -122.33}, tables.Stops[0])

	require.Len(t, tables.Routes, 1)
	assert.Equal(t, "", tables.Routes[0].LongName, "missing optional column reads as empty")

	require.Len(t, tables.Trips, 1)
	assert.Equal(t, Trip{ID: "t1", RouteID: "R1", Headsign: "Downtown"}, tables.Trips[0])

	require.Len(t, tables.StopTimes, 1)
	assert.Equal(t, StopTime{
		TripID: "t1", StopID: "A", ArrivalTime: "08:00:00", DepartureTime: "08:00:30",
		StopSequence: 1, SequenceValid: true,
	}, tables.StopTimes[0])
	assert.Empty(t, tables.Warnings)
}

func TestParseTables_CoercesMalformedValues(t *testing.T) {
	tables, err := ParseTables(TableReaders{
		Stops: strings.NewReader("stop_id,stop_name,stop_lat,stop_lon\n" +
			"A,Good,47.6,-122.3\n" +
			"B,No Lat,,-122.3\n" +
			"C,Junk,north,west\n"),
		StopTimes: strings.NewReader("trip_id,arrival_time,departure_time,stop_id,stop_sequence\n" +
			"t1,08:00:00,08:00:00,A,one\n"),
	})
	require.NoError(t, err)

	require.Len(t, tables.Stops, 3)
	assert.True(t, tables.Stops[0].HasLocation())
	assert.True(t, math.IsNaN(tables.Stops[1].Lat))
	assert.False(t, tables.Stops[1].HasLocation())
	assert.True(t, math.IsNaN(tables.Stops[2].Lat))
	assert.True(t, math.IsNaN(tables.Stops[2].Lon))

	require.Len(t, tables.StopTimes, 1, "bad sequence keeps the row")
	assert.False(t, tables.StopTimes[0].SequenceValid)
	assert.Len(t, tables.Warnings, 1)
}

func TestParseTables_SkipsRowsWithWrongFieldCount(t *testing.T) {
	tables, err := ParseTables(TableReaders{
		Stops: strings.NewReader("stop_id,stop_name\nA,Alder\nB\nC,Cedar,extra\nD,Dogwood\n"),
	})
	require.NoError(t, err)

	var ids []string
	for _, s := range tables.Stops {
		ids = append(ids, s.ID)
	}
	assert.Equal(t, []string{"A", "D"}, ids)
	assert.Len(t, tables.Warnings, 2)
	assert.Contains(t, tables.Warnings[0], "stops.txt line 3")
}

func TestParseTables_MissingRequiredColumn(t *testing.T) {
	tests := []struct {
		name    string
		readers TableReaders
	}{
		{"stops without stop_id", TableReaders{Stops: strings.NewReader("stop_name\nAlder\n")}},
		{"trips without route_id", TableReaders{Trips: strings.NewReader("trip_id\nt1\n")}},
		{"stop_times without stop_sequence", TableReaders{StopTimes: strings.NewReader("trip_id,stop_id\nt1,A\n")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseTables(tt.readers)
			assert.ErrorIs(t, err, ErrMissingColumn)
		})
	}
}

func TestParseTables_EmptyAndNilReaders(t *testing.T) {
	tables, err := ParseTables(TableReaders{Stops: strings.NewReader("")})
	require.NoError(t, err)
	assert.Empty(t, tables.Stops)
	assert.Empty(t, tables.StopTimes)
}

func TestParseTables_ByteOrderMarkAndQuotes(t *testing.T) {
	tables, err := ParseTables(TableReaders{
		Stops: strings.NewReader("\ufeffstop_id,stop_name\n\"A\",\"Alder St, North\"\n"),
	})
	require.NoError(t, err)
	require.Len(t, tables.Stops, 1)
	assert.Equal(t, "A", tables.Stops[0].ID)
	assert.Equal(t, "Alder St, North", tables.Stops[0].Name)
}

func TestRouteDisplayName(t *testing.T) {
	assert.Equal(t, "1", (&Route{ShortName: "1", LongName: "Long"}).DisplayName())
	assert.Equal(t, "Long", (&Route{LongName: "Long"}).DisplayName())
}
