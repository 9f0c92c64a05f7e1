package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
)

// RegisterRoutes mounts every handler on r.
func (h *Handlers) RegisterRoutes(r *mux.Router) {
	// Health check endpoints
	r.HandleFunc("/health", h.HealthCheck).Methods(http.MethodGet)
	r.HandleFunc("/healthz", h.HealthCheck).Methods(http.MethodGet)
	r.HandleFunc("/livez", h.LivenessCheck).Methods(http.MethodGet, http.MethodHead)
	r.HandleFunc("/version", h.GetVersion).Methods(http.MethodGet)
	r.Handle("/metrics", h.MetricsHandler()).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/status", h.GetStatus).Methods(http.MethodGet)

	api.HandleFunc("/assets", h.ListAssets).Methods(http.MethodGet)
	api.HandleFunc("/assets/refresh", h.RefreshAssets).Methods(http.MethodPost)
	api.HandleFunc("/assets/extract", h.ExtractCategory).Methods(http.MethodPost)
	api.HandleFunc("/assets/extract-all", h.ExtractAll).Methods(http.MethodPost)
	api.HandleFunc("/assets/clear", h.ClearCache).Methods(http.MethodPost)
	api.HandleFunc("/assets/swap", h.SwapAssets).Methods(http.MethodPost)
	api.HandleFunc("/assets/copy", h.CopyAssets).Methods(http.MethodPost)
	api.HandleFunc("/assets/{id}", h.GetAsset).Methods(http.MethodGet)
	api.HandleFunc("/assets/{id}/preview", h.GetPreview).Methods(http.MethodGet)

	api.HandleFunc("/aliases", h.ListAliases).Methods(http.MethodGet)
	api.HandleFunc("/aliases/{name}", h.SetAlias).Methods(http.MethodPut)
}
