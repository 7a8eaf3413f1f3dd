// Package webui serves the browser planner's static assets and a debug
// dump of the loaded schedule.
package webui

import (
	"net/http"

	"tripplanner.org/internal/app"
)

// WebDir holds the browser UI, relative to the working directory.
const WebDir = "web"

type WebUI struct {
	*app.Application
}

func (webUI *WebUI) SetWebUIRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /debug/", webUI.debugIndexHandler)
	mux.HandleFunc("GET /{$}", webUI.staticHandler)
	mux.HandleFunc("GET /web/", webUI.staticHandler)
}
