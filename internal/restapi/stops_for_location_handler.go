package restapi

import (
	"net/http"

	"tripplanner.org/internal/models"
	"tripplanner.org/internal/utils"
)

func (api *RestAPI) stopsForLocationHandler(w http.ResponseWriter, r *http.Request) {
	queryParams := r.URL.Query()

	var fieldErrors map[string][]string
	if queryParams.Get("lat") == "" || queryParams.Get("lon") == "" {
		fieldErrors = map[string][]string{"lat": {"lat and lon are required"}}
	}
	lat, fieldErrors := utils.ParseFloatParam(queryParams, "lat", fieldErrors)
	lon, fieldErrors := utils.ParseFloatParam(queryParams, "lon", fieldErrors)
	radius, fieldErrors := utils.ParseFloatParam(queryParams, "radius", fieldErrors)
	maxCount, fieldErrors := utils.ParseMaxCount(queryParams, models.DefaultMaxCountForStops, models.MaxAllowedCount, fieldErrors)

	if len(fieldErrors) > 0 {
		api.validationErrorResponse(w, r, fieldErrors)
		return
	}
	if locationErrors := utils.ValidateCoordinate(lat, lon); len(locationErrors) > 0 {
		api.validationErrorResponse(w, r, locationErrors)
		return
	}
	if radius < 0 || radius > models.MaxSearchRadiusInMeters {
		api.validationErrorResponse(w, r, map[string][]string{
			"radius": {"radius must be between 0 and 10000 meters"},
		})
		return
	}
	if radius == 0 {
		radius = models.DefaultSearchRadiusInMeters
	}

	ctx := r.Context()
	if ctx.Err() != nil {
		api.serverErrorResponse(w, r, ctx.Err())
		return
	}

	// Ask for one extra so truncation can be reported.
	nearby := api.GtfsManager.StopsNear(ctx, lat, lon, radius, maxCount+1)
	limitExceeded := len(nearby) > maxCount
	if limitExceeded {
		nearby = nearby[:maxCount]
	}

	results := make([]models.StopWithDistance, 0, len(nearby))
	for _, s := range nearby {
		results = append(results, models.StopWithDistance{
			Stop:           stopModel(s.Stop),
			DistanceMeters: s.Distance,
		})
	}

	api.sendResponse(w, r, models.NewListResponse(results, limitExceeded, api.Clock))
}
