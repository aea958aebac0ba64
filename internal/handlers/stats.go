package handlers

import (
	"net/http"

	"media-indexer/internal/logging"
)

// StatsResponse summarizes the indexed library.
type StatsResponse struct {
	Total       int            `json:"total"`
	ByCategory  map[string]int `json:"byCategory"`
	QuickHashed int            `json:"quickHashed"`
	Phashed     int            `json:"phashed"`
}

// GetStats returns per-category file counts and hash coverage.
func (h *Handlers) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.store.LibraryStats(r.Context())
	if err != nil {
		logging.Error("Failed to load library stats: %v", err)
		writeJSONError(w, "failed to load stats", http.StatusInternalServerError)
		return
	}

	resp := StatsResponse{
		ByCategory:  stats.ByCategory,
		QuickHashed: stats.QuickHashed,
		Phashed:     stats.Phashed,
	}
	for _, n := range stats.ByCategory {
		resp.Total += n
	}
	writeJSONCode(w, resp, http.StatusOK)
}
