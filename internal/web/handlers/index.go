package handlers

import (
	"log/slog"
	"net/http"

	"github.com/kozaktomas/face-finder/internal/facematch"
)

// IndexHandler handles embedding index maintenance
type IndexHandler struct {
	engine *facematch.Engine
	stats  *StatsHandler
	logger *slog.Logger
}

// NewIndexHandler creates a new index handler
func NewIndexHandler(engine *facematch.Engine, stats *StatsHandler, logger *slog.Logger) *IndexHandler {
	return &IndexHandler{
		engine: engine,
		stats:  stats,
		logger: logger,
	}
}

// ReloadResponse represents the result of an index reload
type ReloadResponse struct {
	Success       bool  `json:"success"`
	TotalFaces    int   `json:"total_faces"`
	TotalPhotos   int   `json:"total_photos"`
	SourceMissing bool  `json:"source_missing,omitempty"`
	DurationMs    int64 `json:"duration_ms"`
}

// Reload rebuilds the in-memory index from the persistent source.
// Call it after the indexer has written new photos.
func (h *IndexHandler) Reload(w http.ResponseWriter, r *http.Request) {
	result, err := h.engine.Reload(r.Context())
	if err != nil {
		h.logger.Error("index reload failed", "error", err)
		respondError(w, http.StatusServiceUnavailable, "failed to reload embeddings")
		return
	}

	if h.stats != nil {
		h.stats.InvalidateCache()
	}

	respondJSON(w, http.StatusOK, ReloadResponse{
		Success:       true,
		TotalFaces:    result.Total,
		TotalPhotos:   result.Photos,
		SourceMissing: result.SourceMissing,
		DurationMs:    result.Duration.Milliseconds(),
	})
}
