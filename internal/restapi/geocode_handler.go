package restapi

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"tripplanner.org/internal/geocode"
	"tripplanner.org/internal/logging"
	"tripplanner.org/internal/models"
	"tripplanner.org/internal/utils"
)

// GeocodeSessionHeader scopes last-request-wins to one client. The
// "session" query parameter works too.
const GeocodeSessionHeader = "X-Geocode-Session"

func geocodeSessionKey(r *http.Request) string {
	if key := r.Header.Get(GeocodeSessionHeader); key != "" {
		return key
	}
	return r.URL.Query().Get("session")
}

func (api *RestAPI) geocodeSession(r *http.Request) geocode.Geocoder {
	if api.Sessions == nil {
		return api.Geocoder
	}
	return api.Sessions.Get(geocodeSessionKey(r))
}

// geocodeFailure maps geocoder errors onto responses.
func (api *RestAPI) geocodeFailure(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, geocode.ErrEmptyQuery):
		api.badRequestResponse(w, r, err.Error())
	case errors.Is(err, geocode.ErrSuperseded):
		api.sendError(w, r, http.StatusConflict, "superseded by a newer request")
	case errors.Is(err, geocode.ErrNotFound):
		api.sendNotFound(w, r)
	case errors.Is(err, context.Canceled):
		// Client went away; nobody is listening.
		logging.FromContext(r.Context()).Debug("geocode request canceled", slog.String("path", r.URL.Path))
	default:
		logging.LogError(api.Logger, "geocoder failed", err, slog.String("path", r.URL.Path))
		api.sendError(w, r, http.StatusBadGateway, "geocoder unavailable")
	}
}

func (api *RestAPI) geocodeSearchHandler(w http.ResponseWriter, r *http.Request) {
	if api.Geocoder == nil {
		api.sendError(w, r, http.StatusServiceUnavailable, "geocoder not configured")
		return
	}
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		api.validationErrorResponse(w, r, map[string][]string{"q": {"query is required"}})
		return
	}

	suggestions, err := api.geocodeSession(r).Search(r.Context(), query, api.Region.Bounds)
	if err != nil {
		api.geocodeFailure(w, r, err)
		return
	}

	suggestions = api.Region.FilterSuggestions(suggestions)
	if suggestions == nil {
		suggestions = []geocode.Suggestion{}
	}
	api.sendResponse(w, r, models.NewListResponse(suggestions, false, api.Clock))
}

func (api *RestAPI) geocodeResolveHandler(w http.ResponseWriter, r *http.Request) {
	if api.Geocoder == nil {
		api.sendError(w, r, http.StatusServiceUnavailable, "geocoder not configured")
		return
	}
	params := r.URL.Query()

	req := geocode.ResolveRequest{PlaceID: strings.TrimSpace(params.Get("placeId"))}
	if req.PlaceID == "" {
		if params.Get("lat") == "" || params.Get("lon") == "" {
			api.validationErrorResponse(w, r, map[string][]string{
				"placeId": {"placeId or lat and lon are required"},
			})
			return
		}
		lat, fieldErrors := utils.ParseFloatParam(params, "lat", nil)
		lon, fieldErrors := utils.ParseFloatParam(params, "lon", fieldErrors)
		if len(fieldErrors) == 0 {
			fieldErrors = utils.ValidateCoordinate(lat, lon)
		}
		if len(fieldErrors) > 0 {
			api.validationErrorResponse(w, r, fieldErrors)
			return
		}
		req.Coord = &geocode.Coordinate{Lat: lat, Lon: lon}
	}

	place, err := api.geocodeSession(r).Resolve(r.Context(), req)
	if err != nil {
		api.geocodeFailure(w, r, err)
		return
	}
	if !api.Region.AllowsPlace(place) {
		api.sendError(w, r, http.StatusUnprocessableEntity, "place is outside the service area")
		return
	}

	api.sendResponse(w, r, models.NewEntryResponse(place, api.Clock))
}
