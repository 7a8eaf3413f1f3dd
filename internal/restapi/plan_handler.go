package restapi

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"tripplanner.org/internal/models"
	"tripplanner.org/internal/planner"
	"tripplanner.org/internal/utils"
)

// parseEndpoint reads <prefix> as a stop id or <prefix>Lat/<prefix>Lon as a
// coordinate. Neither is not an error here; the planner reports it.
func parseEndpoint(params url.Values, prefix string, fieldErrors map[string][]string) (planner.EndpointQuery, map[string][]string) {
	addError := func(key, msg string) {
		if fieldErrors == nil {
			fieldErrors = make(map[string][]string)
		}
		fieldErrors[key] = append(fieldErrors[key], msg)
	}

	if id := strings.TrimSpace(params.Get(prefix)); id != "" {
		if err := utils.ValidateID(id); err != nil {
			addError(prefix, err.Error())
			return planner.EndpointQuery{}, fieldErrors
		}
		return planner.EndpointQuery{StopID: id}, fieldErrors
	}

	latKey, lonKey := prefix+"Lat", prefix+"Lon"
	hasLat, hasLon := params.Get(latKey) != "", params.Get(lonKey) != ""
	if !hasLat && !hasLon {
		return planner.EndpointQuery{}, fieldErrors
	}
	if hasLat != hasLon {
		addError(prefix, "both "+latKey+" and "+lonKey+" are required")
		return planner.EndpointQuery{}, fieldErrors
	}

	before := len(fieldErrors)
	lat, fieldErrors := utils.ParseFloatParam(params, latKey, fieldErrors)
	lon, fieldErrors := utils.ParseFloatParam(params, lonKey, fieldErrors)
	if len(fieldErrors) > before {
		return planner.EndpointQuery{}, fieldErrors
	}
	if coordErrors := utils.ValidateCoordinate(lat, lon); len(coordErrors) > 0 {
		addError(prefix, "coordinate out of range")
		return planner.EndpointQuery{}, fieldErrors
	}
	return planner.EndpointQuery{Coord: &planner.Coordinate{Lat: lat, Lon: lon}}, fieldErrors
}

// planHandler resolves from/to and answers with the next itinerary. Rider
// facing failures (same stop, no trips) are 200 responses of kind "error".
func (api *RestAPI) planHandler(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()

	origin, fieldErrors := parseEndpoint(params, "from", nil)
	destination, fieldErrors := parseEndpoint(params, "to", fieldErrors)

	nowMinutes := api.ServiceMinutes()
	if raw := params.Get("now"); raw != "" {
		v, err := utils.ParseServiceTime(raw)
		if err != nil {
			if fieldErrors == nil {
				fieldErrors = make(map[string][]string)
			}
			fieldErrors["now"] = append(fieldErrors["now"], err.Error())
		} else {
			nowMinutes = v
		}
	}

	if len(fieldErrors) > 0 {
		api.validationErrorResponse(w, r, fieldErrors)
		return
	}

	idx := api.GtfsManager.Snapshot()
	if idx == nil {
		api.sendError(w, r, http.StatusServiceUnavailable, "schedule unavailable")
		return
	}

	res, ep, err := api.Planner.Query(idx, origin, destination, nowMinutes)
	switch {
	case errors.Is(err, planner.ErrMissingEndpoint):
		res = planner.ErrorResult{Message: planner.MsgMissingEndpoint}
	case errors.Is(err, planner.ErrNoCandidateStops):
		res = planner.ErrorResult{Message: planner.MsgNoTrips}
	case errors.Is(err, planner.ErrUnknownStop):
		api.sendError(w, r, http.StatusNotFound, err.Error())
		return
	case err != nil:
		api.serverErrorResponse(w, r, err)
		return
	}

	entry := planEntry(idx, res, ep, origin, destination, nowMinutes)
	api.sendResponse(w, r, models.NewEntryResponse(entry, api.Clock))
}
