package handlers

import (
	"net/http"

	"rbx-extract/internal/startup"
)

// VersionResponse is the build information plus the cache sources this
// build was started with, in lookup order.
type VersionResponse struct {
	startup.BuildInfo
	Sources []string `json:"sources"`
}

// GetVersion returns the build information and registered source origins.
func (h *Handlers) GetVersion(w http.ResponseWriter, _ *http.Request) {
	resp := VersionResponse{
		BuildInfo: startup.GetBuildInfo(),
		Sources:   make([]string, 0, len(h.engine.Sources())),
	}
	for _, src := range h.engine.Sources() {
		resp.Sources = append(resp.Sources, src.Origin().String())
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache")
	writeJSON(w, resp)
}
