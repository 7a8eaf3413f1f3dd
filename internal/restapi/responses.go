package restapi

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"tripplanner.org/internal/logging"
	"tripplanner.org/internal/models"
)

func (api *RestAPI) sendResponse(w http.ResponseWriter, r *http.Request, response models.ResponseModel) {
	api.writeJSON(w, r, http.StatusOK, response)
}

func (api *RestAPI) sendNotFound(w http.ResponseWriter, r *http.Request) {
	api.sendError(w, r, http.StatusNotFound, "resource not found")
}

func (api *RestAPI) sendUnauthorized(w http.ResponseWriter, r *http.Request) {
	api.sendError(w, r, http.StatusUnauthorized, "permission denied")
}

func setJSONResponseType(w *http.ResponseWriter) {
	(*w).Header().Set("Content-Type", "application/json")
}

func (api *RestAPI) sendError(w http.ResponseWriter, r *http.Request, code int, message string) {
	api.writeJSON(w, r, code, models.ResponseModel{
		Code:        code,
		CurrentTime: models.ResponseCurrentTime(api.Clock),
		Text:        message,
		Version:     2,
	})
}

// writeJSON encodes response with the given status. Once the header is out
// an encoding failure can only be logged.
func (api *RestAPI) writeJSON(w http.ResponseWriter, r *http.Request, status int, response models.ResponseModel) {
	body, err := json.Marshal(response)
	if err != nil {
		logging.LogError(api.Logger, "failed to encode response", err,
			slog.String("path", r.URL.Path))
		setJSONResponseType(&w)
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"code":500,"text":"internal server error","version":2}`))
		return
	}
	setJSONResponseType(&w)
	w.WriteHeader(status)
	if _, err := w.Write(append(body, '\n')); err != nil {
		logging.LogError(api.Logger, "failed to write response", err,
			slog.String("path", r.URL.Path))
	}
}
