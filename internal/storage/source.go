package storage

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/pable/go-raid-metrics/internal/cache"
	"github.com/pable/go-raid-metrics/internal/model"
)

// Source is the one data operation the analytics views need.
type Source interface {
	FetchRaidEvents(ctx context.Context, f Filter) ([]model.RaidEventRecord, error)
}

var _ Source = (*DB)(nil)
var _ Source = (*CachedSource)(nil)

const fetchOp = "FetchRaidEvents"

// CachedSource memoizes another Source by (operation, canonical filter).
// Callers must not modify the returned slices: they are shared between hits.
type CachedSource struct {
	src    Source
	cache  *cache.Cache
	logger zerolog.Logger
}

// NewCachedSource wraps src with c.
func NewCachedSource(src Source, c *cache.Cache, logger zerolog.Logger) *CachedSource {
	return &CachedSource{src: src, cache: c, logger: logger}
}

func cacheKey(op string, f Filter) string {
	return op + "|" + f.CacheKey()
}

// FetchRaidEvents returns the cached result for f or fetches and caches it.
func (s *CachedSource) FetchRaidEvents(ctx context.Context, f Filter) ([]model.RaidEventRecord, error) {
	key := cacheKey(fetchOp, f)
	records, hit, err := cache.GetOrFetch(s.cache, key, func() ([]model.RaidEventRecord, error) {
		return s.src.FetchRaidEvents(ctx, f)
	})
	if err != nil {
		return nil, err
	}
	s.logger.Debug().Bool("hit", hit).Str("key", key).Int("rows", len(records)).Msg("cached fetch")
	return records, nil
}

// Invalidate drops the cached result for f.
func (s *CachedSource) Invalidate(f Filter) {
	s.cache.Invalidate(cacheKey(fetchOp, f))
}

// InvalidateAll drops every cached result.
func (s *CachedSource) InvalidateAll() {
	s.cache.Clear()
}
