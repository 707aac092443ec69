// Package linkstore keeps the opaque-id → embed-URL mapping behind the
// /play/{id} proxy endpoint.
package linkstore

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log"
	"time"

	"scavengarr/internal/cache"
	"scavengarr/models"
)

const keyPrefix = "streamlink:"

// Store persists stream links with a TTL. The opaque id is a stable hash of
// the embed URL, so saving the same link twice is idempotent.
type Store struct {
	cache cache.Cache
	ttl   time.Duration
}

// New creates a store on top of the given cache backend.
func New(c cache.Cache, ttl time.Duration) *Store {
	return &Store{cache: c, ttl: ttl}
}

// OpaqueID derives the stable id for an embed URL.
func OpaqueID(embedURL string) string {
	sum := sha256.Sum256([]byte(embedURL))
	return hex.EncodeToString(sum[:])[:20]
}

// Save stores the link and returns its opaque id. Failures are logged and
// swallowed; the caller still gets a valid id.
func (s *Store) Save(ctx context.Context, embedURL, title, hoster string) string {
	id := OpaqueID(embedURL)
	link := models.CachedStreamLink{
		OpaqueID: id,
		EmbedURL: embedURL,
		Title:    title,
		Hoster:   hoster,
	}
	payload, err := json.Marshal(link)
	if err != nil {
		log.Printf("[linkstore] marshal failed for %q: %v", embedURL, err)
		return id
	}
	s.cache.Set(ctx, keyPrefix+id, payload, s.ttl)
	return id
}

// Lookup returns the cached link for an opaque id, if still present.
func (s *Store) Lookup(ctx context.Context, opaqueID string) (models.CachedStreamLink, bool) {
	payload, ok := s.cache.Get(ctx, keyPrefix+opaqueID)
	if !ok {
		return models.CachedStreamLink{}, false
	}
	var link models.CachedStreamLink
	if err := json.Unmarshal(payload, &link); err != nil {
		log.Printf("[linkstore] corrupt entry %q: %v", opaqueID, err)
		return models.CachedStreamLink{}, false
	}
	return link, true
}
