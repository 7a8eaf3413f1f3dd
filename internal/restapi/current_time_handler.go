package restapi

import (
	"net/http"

	"tripplanner.org/internal/models"
)

// currentTimeHandler reports the clock as the planner sees it, including
// the service minutes a plan request without "now" would use.
func (api *RestAPI) currentTimeHandler(w http.ResponseWriter, r *http.Request) {
	if !api.GtfsManager.IsHealthy() {
		api.sendError(w, r, http.StatusServiceUnavailable, "schedule unavailable")
		return
	}

	timeData := models.NewCurrentTimeData(api.Now(), api.ServiceMinutes())
	api.sendResponse(w, r, models.NewEntryResponse(timeData, api.Clock))
}
