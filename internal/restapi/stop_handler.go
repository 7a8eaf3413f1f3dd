package restapi

import (
	"net/http"

	"tripplanner.org/internal/gtfs"
	"tripplanner.org/internal/models"
	"tripplanner.org/internal/utils"
)

func stopModel(stop *gtfs.Stop) models.Stop {
	return models.NewStop(stop.ID, stop.Code, stop.Name, stop.Lat, stop.Lon)
}

func routeModel(route *gtfs.Route) *models.Route {
	if route == nil {
		return nil
	}
	return &models.Route{
		ID:          route.ID,
		ShortName:   route.ShortName,
		LongName:    route.LongName,
		DisplayName: route.DisplayName(),
	}
}

func (api *RestAPI) stopHandler(w http.ResponseWriter, r *http.Request) {
	id, _ := utils.GetValidatedIDFromContext(r.Context())

	idx := api.GtfsManager.Snapshot()
	if idx == nil {
		api.sendError(w, r, http.StatusServiceUnavailable, "schedule unavailable")
		return
	}

	stop, ok := idx.StopByID(id)
	if !ok {
		api.sendNotFound(w, r)
		return
	}

	api.sendResponse(w, r, models.NewEntryResponse(stopModel(stop), api.Clock))
}
