package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
)

// Register mounts every endpoint on r.
func (h *Handlers) Register(r *mux.Router) {
	// Health and metadata
	r.HandleFunc("/health", h.HealthCheck).Methods(http.MethodGet)
	r.HandleFunc("/healthz", h.HealthCheck).Methods(http.MethodGet)
	r.HandleFunc("/livez", h.LivenessCheck).Methods(http.MethodGet, http.MethodHead)
	r.HandleFunc("/readyz", h.ReadinessCheck).Methods(http.MethodGet)
	r.HandleFunc("/version", h.GetVersion).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/stats", h.GetStats).Methods(http.MethodGet)

	api.HandleFunc("/scan", h.StartScan).Methods(http.MethodPost)
	api.HandleFunc("/scan/stop", h.StopScan).Methods(http.MethodPost)
	api.HandleFunc("/scan/status", h.ScanStatus).Methods(http.MethodGet)

	api.HandleFunc("/phash", h.StartPhash).Methods(http.MethodPost)
	api.HandleFunc("/phash/stop", h.StopPhash).Methods(http.MethodPost)
	api.HandleFunc("/phash/status", h.PhashStatus).Methods(http.MethodGet)
}
