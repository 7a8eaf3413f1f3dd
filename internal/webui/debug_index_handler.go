package webui

import (
	"embed"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/davecgh/go-spew/spew"
	"tripplanner.org/internal/appconf"
	"tripplanner.org/internal/gtfs"
)

//go:embed debug_index.html
var templateFS embed.FS

type debugData struct {
	Title string
	Pre   string
}

func writeDebugData(w http.ResponseWriter, title string, data interface{}) {
	content := spew.Sdump(data)
	w.Header().Set("Content-Type", "text/html")
	tmpl, err := template.ParseFS(templateFS, "debug_index.html")
	if err != nil {
		slog.Error("failed to parse debug template", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	err = tmpl.Execute(w, debugData{Title: title, Pre: content})
	if err != nil {
		slog.Error("failed to execute debug template", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

// debugIndexHandler dumps one slice of the loaded schedule. Never served in
// production.
func (webUI *WebUI) debugIndexHandler(w http.ResponseWriter, r *http.Request) {
	if webUI.Config.Env == appconf.Production {
		http.NotFound(w, r)
		return
	}
	dataType := r.URL.Query().Get("dataType")

	var snapshot *gtfs.Index
	if webUI.GtfsManager != nil {
		snapshot = webUI.GtfsManager.Snapshot()
	}
	if snapshot == nil {
		http.Error(w, "Schedule not loaded", http.StatusServiceUnavailable)
		return
	}

	var data interface{}
	var title string

	switch dataType {
	case "warnings":
		data = snapshot.Warnings()
		title = "Schedule - Load Warnings"
	case "stops":
		data = snapshot.Stops()
		title = "Schedule - Stops"
	case "routes":
		data = snapshot.Routes()
		title = "Schedule - Routes"
	case "trips":
		data = snapshot.Trips()
		title = "Schedule - Trips"
	case "bounds":
		data = webUI.GtfsManager.RegionBounds()
		title = "Schedule - Region Bounds"
	case "store":
		if webUI.GtfsManager.RoutesDB == nil {
			data = map[string]string{"error": "no routes store configured"}
		} else if counts, err := webUI.GtfsManager.RoutesDB.TableCounts(r.Context()); err != nil {
			data = map[string]string{"error": err.Error()}
		} else {
			data = counts
		}
		title = "Routes Store - Table Counts"
	default:
		data = map[string]string{
			"error": "Please use one of the following: warnings, stops, routes, trips, bounds, store.",
		}
		title = "Choose a data type"
	}

	writeDebugData(w, title, data)
}
