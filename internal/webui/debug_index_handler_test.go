package webui

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"tripplanner.org/gtfsdb"
	"tripplanner.org/internal/app"
	"tripplanner.org/internal/appconf"
	"tripplanner.org/internal/gtfs"
	"tripplanner.org/internal/models"
)

func metroManager(t *testing.T) *gtfs.Manager {
	t.Helper()
	tables, err := gtfs.LoadDir(models.GetFixturePath(t, "metro"))
	require.NoError(t, err)
	manager, err := gtfs.NewManagerFromTables(tables, nil)
	require.NoError(t, err)
	t.Cleanup(manager.Shutdown)
	return manager
}

func TestDebugIndexHandler_ProductionReturns404(t *testing.T) {
	webUI := &WebUI{
		Application: &app.Application{
			Config: appconf.Config{Env: appconf.Production},
		},
	}

	req := httptest.NewRequest("GET", "/debug/?dataType=stops", nil)
	rr := httptest.NewRecorder()

	webUI.debugIndexHandler(rr, req)

	assert.Equal(t, http.StatusNotFound, rr.Code, "Should return 404 in Production")
}

func TestDebugIndexHandler_NoScheduleReturns503(t *testing.T) {
	webUI := &WebUI{
		Application: &app.Application{
			Config: appconf.Config{Env: appconf.Development},
		},
	}

	rr := httptest.NewRecorder()
	webUI.debugIndexHandler(rr, httptest.NewRequest("GET", "/debug/?dataType=stops", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}

func TestDebugIndexHandler_DumpsData(t *testing.T) {
	webUI := &WebUI{
		Application: &app.Application{
			Config:      appconf.Config{Env: appconf.Development},
			GtfsManager: metroManager(t),
		},
	}

	tests := []struct {
		dataType string
		title    string
		contains string
	}{
		{"stops", "Schedule - Stops", "Transit Center"},
		{"routes", "Schedule - Routes", "Night Owl"},
		{"trips", "Schedule - Trips", "t2_0930"},
		{"warnings", "Schedule - Load Warnings", "X"},
		{"bounds", "Schedule - Region Bounds", "LatSpan"},
		{"store", "Routes Store - Table Counts", "no routes store configured"},
		{"", "Choose a data type", "Please use one of the following"},
	}

	for _, tt := range tests {
		t.Run(tt.dataType, func(t *testing.T) {
			rr := httptest.NewRecorder()
			webUI.debugIndexHandler(rr, httptest.NewRequest("GET", "/debug/?dataType="+tt.dataType, nil))

			assert.Equal(t, http.StatusOK, rr.Code)
			assert.Equal(t, "text/html", rr.Header().Get("Content-Type"))
			body := rr.Body.String()
			assert.Contains(t, body, tt.title)
			assert.Contains(t, body, tt.contains)
		})
	}
}

func TestDebugIndexHandler_StoreCounts(t *testing.T) {
	tables, err := gtfs.LoadDir(models.GetFixturePath(t, "metro"))
	require.NoError(t, err)
	db, err := gtfsdb.NewClient(gtfsdb.NewConfig(":memory:", appconf.Test, false))
	require.NoError(t, err)
	manager, err := gtfs.NewManagerFromTables(tables, db)
	require.NoError(t, err)
	t.Cleanup(manager.Shutdown)

	webUI := &WebUI{
		Application: &app.Application{
			Config:      appconf.Config{Env: appconf.Development},
			GtfsManager: manager,
		},
	}

	rr := httptest.NewRecorder()
	webUI.debugIndexHandler(rr, httptest.NewRequest("GET", "/debug/?dataType=store", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "(int) 3")
}
