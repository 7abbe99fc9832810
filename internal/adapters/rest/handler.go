// Package rest serves the dashboard shell over HTTP.
package rest

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/ewilliams-labs/chartwatch/internal/adapters/echarts"
	"github.com/ewilliams-labs/chartwatch/internal/core/services"
)

// Handler manages the HTTP interface for the dashboard.
type Handler struct {
	library   *services.Library
	refresher *services.Refresher
	pipeline  services.PipelineConfig
	chart     echarts.Options
	router    *http.ServeMux

	mu  sync.Mutex
	run *refreshRun
}

// NewHandler initializes the HTTP adapter and sets up routes.
func NewHandler(library *services.Library, refresher *services.Refresher, pipeline services.PipelineConfig, chart echarts.Options) *Handler {
	h := &Handler{
		library:   library,
		refresher: refresher,
		pipeline:  pipeline,
		chart:     chart,
		router:    http.NewServeMux(),
	}

	h.routes()

	return h
}

// ServeHTTP satisfies the http.Handler interface.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

func (h *Handler) routes() {
	h.router.HandleFunc("GET /health", h.HealthCheck)
	h.router.HandleFunc("GET /{$}", h.Dashboard)
	h.router.HandleFunc("GET /chart", h.Chart)
	h.router.HandleFunc("GET /api/songs", h.Songs)
	h.router.HandleFunc("POST /api/refresh", h.StartRefresh)
	h.router.HandleFunc("GET /api/refresh/status", h.RefreshStatus)
}

// HealthCheck is a simple endpoint to verify the API is running.
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}
