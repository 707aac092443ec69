// Package resolver turns hoster embed URLs into directly playable video
// URLs. Resolvers are registered per normalized hoster name; unresolvable
// hosters fall back to the proxy-play route.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"

	"scavengarr/models"
	"scavengarr/utils/releaseparse"
)

var (
	// ErrNoResolver means no function is registered for the hoster.
	ErrNoResolver = errors.New("no resolver for hoster")
	// ErrNotPlayable means the resolver produced nothing a player can use.
	ErrNotPlayable = errors.New("resolved stream is not playable")
)

// ResolveFunc extracts the playable URL behind one embed URL.
type ResolveFunc func(ctx context.Context, embedURL string) (models.ResolvedStream, error)

// Registry maps normalized hoster names to resolver functions.
type Registry struct {
	mu        sync.RWMutex
	resolvers map[string]ResolveFunc
}

func NewRegistry() *Registry {
	return &Registry{resolvers: make(map[string]ResolveFunc)}
}

// Register installs fn for hoster, replacing any previous function.
func (r *Registry) Register(hoster string, fn ResolveFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.resolvers[releaseparse.NormalizeHoster(hoster)] = fn
}

// Has reports whether a resolver is registered for hoster.
func (r *Registry) Has(hoster string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.resolvers[releaseparse.NormalizeHoster(hoster)]
	return ok
}

// Empty reports whether no resolver is registered at all. An empty registry
// switches the orchestrator to proxy-play mode.
func (r *Registry) Empty() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.resolvers) == 0
}

// Resolve runs the hoster's resolver and applies the playability filter.
// Some XFS-family hosters answer an embed request with the embed URL itself;
// those echoes would leave the player spinning, so they are rejected here.
func (r *Registry) Resolve(ctx context.Context, hoster, embedURL string) (models.ResolvedStream, error) {
	r.mu.RLock()
	fn, ok := r.resolvers[releaseparse.NormalizeHoster(hoster)]
	r.mu.RUnlock()
	if !ok {
		return models.ResolvedStream{}, fmt.Errorf("%w: %q", ErrNoResolver, hoster)
	}

	resolved, err := fn(ctx, embedURL)
	if err != nil {
		return models.ResolvedStream{}, err
	}
	if !Playable(resolved, embedURL) {
		log.Printf("[resolver] %s echoed or returned unplayable url for %s", hoster, embedURL)
		return models.ResolvedStream{}, ErrNotPlayable
	}
	return resolved, nil
}

var videoExtensions = []string{".mp4", ".m3u8", ".mkv", ".ts", ".webm"}

// Playable decides whether a resolved stream can actually be handed to a
// player: an HLS flag, a recognized video extension, or a URL that differs
// from the embed plus playback headers.
func Playable(resolved models.ResolvedStream, embedURL string) bool {
	if resolved.VideoURL == "" {
		return false
	}
	if resolved.IsHLS {
		return true
	}
	lower := strings.ToLower(resolved.VideoURL)
	if i := strings.IndexAny(lower, "?#"); i >= 0 {
		lower = lower[:i]
	}
	for _, ext := range videoExtensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return resolved.VideoURL != embedURL && len(resolved.Headers) > 0
}
