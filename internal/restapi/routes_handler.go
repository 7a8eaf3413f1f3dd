package restapi

import (
	"net/http"
	"strings"

	"tripplanner.org/gtfsdb"
	"tripplanner.org/internal/gtfs"
	"tripplanner.org/internal/models"
	"tripplanner.org/internal/utils"
)

// routesHandler lists routes from the SQLite store, optionally filtered by
// q. Without a store it falls back to the in-memory schedule.
func (api *RestAPI) routesHandler(w http.ResponseWriter, r *http.Request) {
	queryParams := r.URL.Query()
	query := strings.TrimSpace(queryParams.Get("q"))
	maxCount, fieldErrors := utils.ParseMaxCount(queryParams, models.DefaultMaxCountForRoutes, models.MaxAllowedCount, nil)
	if len(fieldErrors) > 0 {
		api.validationErrorResponse(w, r, fieldErrors)
		return
	}

	var routes []models.Route
	if db := api.GtfsManager.RoutesDB; db != nil {
		var (
			rows []gtfsdb.Route
			err  error
		)
		if query != "" {
			rows, err = db.SearchRoutes(r.Context(), query, maxCount+1)
		} else {
			rows, err = db.ListRoutes(r.Context())
		}
		if err != nil {
			api.serverErrorResponse(w, r, err)
			return
		}
		routes = make([]models.Route, 0, len(rows))
		for _, row := range rows {
			route := gtfs.Route{ID: row.ID, ShortName: row.ShortName, LongName: row.LongName}
			routes = append(routes, *routeModel(&route))
		}
	} else {
		idx := api.GtfsManager.Snapshot()
		if idx == nil {
			api.sendError(w, r, http.StatusServiceUnavailable, "schedule unavailable")
			return
		}
		routes = make([]models.Route, 0, len(idx.Routes()))
		needle := strings.ToLower(query)
		for _, route := range idx.Routes() {
			if needle != "" &&
				!strings.HasPrefix(strings.ToLower(route.ShortName), needle) &&
				!strings.Contains(strings.ToLower(route.LongName), needle) {
				continue
			}
			routes = append(routes, *routeModel(route))
		}
	}

	limitExceeded := len(routes) > maxCount
	if limitExceeded {
		routes = routes[:maxCount]
	}
	api.sendResponse(w, r, models.NewListResponse(routes, limitExceeded, api.Clock))
}
