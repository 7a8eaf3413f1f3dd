package restapi

import (
	"log/slog"
	"net/http"
	"slices"
	"strings"

	"tripplanner.org/internal/logging"
	"tripplanner.org/internal/models"
)

func (api *RestAPI) serverErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	logging.LogError(api.Logger, "internal server error", err,
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.String("request_id", RequestIDFromContext(r.Context())))
	api.sendError(w, r, http.StatusInternalServerError, "internal server error")
}

func (api *RestAPI) invalidAPIKeyResponse(w http.ResponseWriter, r *http.Request) {
	api.sendUnauthorized(w, r)
}

func (api *RestAPI) badRequestResponse(w http.ResponseWriter, r *http.Request, message string) {
	api.sendError(w, r, http.StatusBadRequest, message)
}

// validationErrorResponse reports per-field problems. The field map rides
// along as data so clients can highlight the offending inputs.
func (api *RestAPI) validationErrorResponse(w http.ResponseWriter, r *http.Request, fieldErrors map[string][]string) {
	parts := make([]string, 0, len(fieldErrors))
	for field, errs := range fieldErrors {
		parts = append(parts, field+": "+strings.Join(errs, ", "))
	}
	slices.Sort(parts)

	api.writeJSON(w, r, http.StatusBadRequest, models.ResponseModel{
		Code:        http.StatusBadRequest,
		CurrentTime: models.ResponseCurrentTime(api.Clock),
		Data:        map[string]any{"fieldErrors": fieldErrors},
		Text:        "invalid request: " + strings.Join(parts, "; "),
		Version:     2,
	})
}
