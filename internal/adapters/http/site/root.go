// Package site serves the dashboard's embedded static assets.
package site

import (
	"context"
	"net/http"
	"strings"
)

// Prefix is the URL path the assets are mounted under.
const Prefix = "/static/"

const cacheControl = "public, max-age=3600"

// Register attaches the embedded asset routes to mux.
func Register(_ context.Context, mux *http.ServeMux) {
	if mux == nil {
		panic("mux is nil")
	}
	mux.Handle(Prefix, NewAssetHandler())
}

// AssetHandler serves files from the embedded static directory. Directory
// listings are not exposed.
type AssetHandler struct {
	files http.Handler
}

// NewAssetHandler creates a new asset handler.
func NewAssetHandler() *AssetHandler {
	return &AssetHandler{files: http.StripPrefix(strings.TrimSuffix(Prefix, "/"), http.FileServer(FS()))}
}

// ServeHTTP handles GET /static/{file} requests.
func (h *AssetHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.NotFound(w, r)
		return
	}
	if strings.HasSuffix(r.URL.Path, "/") {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Cache-Control", cacheControl)
	h.files.ServeHTTP(w, r)
}
