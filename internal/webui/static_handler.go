package webui

import (
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"path"
	"strings"
)

// assetTypes lists the extensions the planner UI ships with.
var assetTypes = map[string]string{
	".html": "text/html; charset=utf-8",
	".css":  "text/css; charset=utf-8",
	".js":   "text/javascript; charset=utf-8",
	".svg":  "image/svg+xml",
	".png":  "image/png",
	".ico":  "image/x-icon",
}

// staticHandler serves top-level files of WebDir through an os.Root, so no
// name can escape it. "/" and "/web/" map to index.html; nested paths and
// unknown extensions are a 404.
func (webUI *WebUI) staticHandler(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimPrefix(r.URL.Path, "/web/")
	if name == "" || name == "/" {
		name = "index.html"
	}

	contentType, known := assetTypes[strings.ToLower(path.Ext(name))]
	if !known || !fs.ValidPath(name) || strings.ContainsAny(name, "/\\\x00") {
		if strings.Contains(name, "..") {
			slog.Warn("path traversal attempt blocked", "path", r.URL.Path)
		}
		http.NotFound(w, r)
		return
	}

	root, err := os.OpenRoot(WebDir)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	defer func() { _ = root.Close() }()

	f, err := root.Open(name)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	defer func() { _ = f.Close() }()

	info, err := f.Stat()
	if err != nil || info.IsDir() {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", contentType)
	http.ServeContent(w, r, name, info.ModTime(), f)
}
