package scrape

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"scavengarr/internal/cache"
	"scavengarr/models"
)

// SearchCache memoizes per-plugin search results. Each plugin may override
// the global TTL through its CacheTTL.
type SearchCache struct {
	cache      cache.Cache
	defaultTTL time.Duration
}

// NewSearchCache wraps a cache backend with the global search TTL.
func NewSearchCache(c cache.Cache, defaultTTL time.Duration) *SearchCache {
	return &SearchCache{cache: c, defaultTTL: defaultTTL}
}

func searchKey(plugin, query string, params SearchParams) string {
	return fmt.Sprintf("search:%s:%s:%d:%d:%d", plugin, query, params.Category, params.Season, params.Episode)
}

// Get returns cached results for one plugin/query combination.
func (s *SearchCache) Get(ctx context.Context, plugin, query string, params SearchParams) ([]models.RawSearchResult, bool) {
	payload, ok := s.cache.Get(ctx, searchKey(plugin, query, params))
	if !ok {
		return nil, false
	}
	var results []models.RawSearchResult
	if err := json.Unmarshal(payload, &results); err != nil {
		log.Printf("[searchcache] corrupt entry for %s %q: %v", plugin, query, err)
		return nil, false
	}
	return results, true
}

// Set stores results, honoring the plugin's TTL override when non-zero.
func (s *SearchCache) Set(ctx context.Context, plugin, query string, params SearchParams, ttlOverride time.Duration, results []models.RawSearchResult) {
	payload, err := json.Marshal(results)
	if err != nil {
		log.Printf("[searchcache] marshal failed for %s %q: %v", plugin, query, err)
		return
	}
	ttl := s.defaultTTL
	if ttlOverride > 0 {
		ttl = ttlOverride
	}
	s.cache.Set(ctx, searchKey(plugin, query, params), payload, ttl)
}
