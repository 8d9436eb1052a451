package facematch

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Defaults used when an Engine is built without explicit options.
const (
	DefaultThreshold   = 0.5
	DefaultLimit       = 50
	DefaultTempFaceTTL = 30 * time.Minute
)

// Stats is a point-in-time view of the engine for observability.
type Stats struct {
	TotalEmbeddings  int `json:"total_embeddings"`
	TotalTempEntries int `json:"total_temp_entries"`
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// WithSearchDefaults sets the threshold and limit used by SearchDefault.
func WithSearchDefaults(threshold float64, limit int) Option {
	return func(e *Engine) {
		e.threshold = threshold
		e.limit = limit
	}
}

// WithTempFaceTTL sets the TTL used by PurgeExpiredDefault and the janitor.
func WithTempFaceTTL(ttl time.Duration) Option {
	return func(e *Engine) { e.ttl = ttl }
}

// WithClock replaces the clock used to timestamp and expire temp faces.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.temp.now = now }
}

// Engine stores temp query faces and searches them against the embedding store.
type Engine struct {
	store  *Store
	temp   *TempFaceCache
	logger *slog.Logger

	threshold float64
	limit     int
	ttl       time.Duration
}

// NewEngine creates an engine over store with an empty temp-face cache.
func NewEngine(store *Store, opts ...Option) *Engine {
	e := &Engine{
		store:     store,
		temp:      NewTempFaceCache(),
		logger:    slog.Default(),
		threshold: DefaultThreshold,
		limit:     DefaultLimit,
		ttl:       DefaultTempFaceTTL,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// StoreTempFace keeps a copy of a raw embedding and returns the key to search it by.
func (e *Engine) StoreTempFace(embedding []float32) (string, error) {
	if len(embedding) != e.store.Dim() {
		return "", fmt.Errorf("%w: got %d values, expected %d",
			ErrDimensionMismatch, len(embedding), e.store.Dim())
	}
	return e.temp.Put(embedding), nil
}

// GetTempEmbedding returns the raw embedding stored under key, if it has not expired.
func (e *Engine) GetTempEmbedding(key string) ([]float32, bool) {
	return e.temp.Get(key)
}

// PurgeExpired removes temp faces at least ttl old and returns the count.
func (e *Engine) PurgeExpired(ttl time.Duration) int {
	n := e.temp.PurgeExpired(ttl)
	if n > 0 {
		e.logger.Info("purged expired temp faces", "count", n, "remaining", e.temp.Len())
	}
	return n
}

// PurgeExpiredDefault purges with the configured TTL.
func (e *Engine) PurgeExpiredDefault() int {
	return e.PurgeExpired(e.ttl)
}

// Search ranks stored faces against the temp face under key. Results are
// ordered by similarity descending with one entry per photo. An unknown or
// expired key yields no results.
func (e *Engine) Search(key string, threshold float64, limit int) ([]SearchResult, error) {
	raw, ok := e.temp.Get(key)
	if !ok {
		return []SearchResult{}, nil
	}

	snap := e.store.Snapshot()
	if snap.Len() == 0 {
		return []SearchResult{}, nil
	}

	return rank(snap, Normalize(raw), threshold, limit)
}

// SearchDefault searches with the configured threshold and limit.
func (e *Engine) SearchDefault(key string) ([]SearchResult, error) {
	return e.Search(key, e.threshold, e.limit)
}

// Defaults returns the configured search threshold and limit.
func (e *Engine) Defaults() (threshold float64, limit int) {
	return e.threshold, e.limit
}

// Reload rebuilds the embedding index from its source.
func (e *Engine) Reload(ctx context.Context) (ReloadResult, error) {
	return e.store.Reload(ctx)
}

// Stats returns the index size and the number of pending temp faces.
func (e *Engine) Stats() Stats {
	return Stats{
		TotalEmbeddings:  e.store.Size(),
		TotalTempEntries: e.temp.Len(),
	}
}

// RunJanitor purges expired temp faces every interval until ctx is done.
func (e *Engine) RunJanitor(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			e.PurgeExpiredDefault()
		}
	}
}
