package handlers

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/kozaktomas/face-finder/internal/database"
	"github.com/kozaktomas/face-finder/internal/facematch"
)

const statsCacheTTL = time.Minute

// statsCache holds cached source stats with expiry
type statsCache struct {
	mu        sync.RWMutex
	data      *database.SourceStats
	expiresAt time.Time
}

func (c *statsCache) get() (*database.SourceStats, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.data == nil || time.Now().After(c.expiresAt) {
		return nil, false
	}
	return c.data, true
}

func (c *statsCache) set(data *database.SourceStats) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data = data
	c.expiresAt = time.Now().Add(statsCacheTTL)
}

func (c *statsCache) invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data = nil
}

// StatsHandler handles statistics endpoints
type StatsHandler struct {
	engine *facematch.Engine
	source database.StatsReader
	logger *slog.Logger
	cache  statsCache
}

// NewStatsHandler creates a new stats handler
func NewStatsHandler(engine *facematch.Engine, source database.StatsReader, logger *slog.Logger) *StatsHandler {
	return &StatsHandler{
		engine: engine,
		source: source,
		logger: logger,
	}
}

// InvalidateCache clears the cached stats so the next request fetches fresh data
func (h *StatsHandler) InvalidateCache() {
	h.cache.invalidate()
}

// StatsResponse represents the statistics response
type StatsResponse struct {
	TotalPhotos  int        `json:"total_photos"`
	TotalFaces   int        `json:"total_faces"`
	LastIndexed  *time.Time `json:"last_indexed"`
	IndexedFaces int        `json:"indexed_faces"` // faces currently loaded in memory
	TempFaces    int        `json:"temp_faces"`
}

// Get returns source statistics together with the live index counters
func (h *StatsHandler) Get(w http.ResponseWriter, r *http.Request) {
	src, ok := h.cache.get()
	if !ok {
		var err error
		src, err = h.source.Stats(r.Context())
		if err != nil {
			h.logger.Error("failed to read source stats", "error", err)
			respondError(w, http.StatusInternalServerError, "failed to get stats")
			return
		}
		h.cache.set(src)
	}

	live := h.engine.Stats()
	respondJSON(w, http.StatusOK, StatsResponse{
		TotalPhotos:  src.TotalPhotos,
		TotalFaces:   src.TotalFaces,
		LastIndexed:  src.LastIndexed,
		IndexedFaces: live.TotalEmbeddings,
		TempFaces:    live.TotalTempEntries,
	})
}
