package restapi

import (
	"net/http"
	"slices"

	"tripplanner.org/internal/models"
	"tripplanner.org/internal/utils"
)

// eligibleOriginsHandler lists the stops that can reach the destination
// directly or with one transfer. When none can, every stop is returned and
// the entry is flagged unfiltered, matching what an origin picker should show.
func (api *RestAPI) eligibleOriginsHandler(w http.ResponseWriter, r *http.Request) {
	id, _ := utils.GetValidatedIDFromContext(r.Context())

	idx := api.GtfsManager.Snapshot()
	if idx == nil {
		api.sendError(w, r, http.StatusServiceUnavailable, "schedule unavailable")
		return
	}
	if _, ok := idx.StopByID(id); !ok {
		api.sendNotFound(w, r)
		return
	}

	eligible := api.Planner.EligibleOrigins(id, idx)
	entry := models.EligibleOrigins{DestinationID: id}
	if len(eligible) == 0 {
		entry.Unfiltered = true
		for _, stop := range idx.Stops() {
			entry.StopIDs = append(entry.StopIDs, stop.ID)
		}
	} else {
		entry.StopIDs = make([]string, 0, len(eligible))
		for stopID := range eligible {
			entry.StopIDs = append(entry.StopIDs, stopID)
		}
		slices.Sort(entry.StopIDs)
	}

	api.sendResponse(w, r, models.NewEntryResponse(entry, api.Clock))
}
