package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/gorilla/mux"

	"scavengarr/internal/linkstore"
	"scavengarr/models"
	"scavengarr/services/resolver"
)

// LinkLookup is the stream-link cache port, satisfied by linkstore.Store.
type LinkLookup interface {
	Lookup(ctx context.Context, opaqueID string) (models.CachedStreamLink, bool)
}

var _ LinkLookup = (*linkstore.Store)(nil)

// PlayHandler serves /play/{id}: it resolves the cached embed URL at call
// time and redirects the player to the fresh CDN URL. Hoster URLs expire
// quickly, so resolution cannot happen earlier.
type PlayHandler struct {
	Links     LinkLookup
	Resolvers *resolver.Registry
}

func NewPlayHandler(links LinkLookup, resolvers *resolver.Registry) *PlayHandler {
	return &PlayHandler{Links: links, Resolvers: resolvers}
}

func (h *PlayHandler) Play(w http.ResponseWriter, r *http.Request) {
	opaqueID := mux.Vars(r)["id"]

	link, ok := h.Links.Lookup(r.Context(), opaqueID)
	if !ok {
		http.Error(w, "unknown stream id", http.StatusNotFound)
		return
	}

	if h.Resolvers == nil || h.Resolvers.Empty() || !h.Resolvers.Has(link.Hoster) {
		http.Error(w, "no resolver configured for "+link.Hoster, http.StatusServiceUnavailable)
		return
	}

	resolved, err := h.Resolvers.Resolve(r.Context(), link.Hoster, link.EmbedURL)
	if err != nil {
		if errors.Is(err, resolver.ErrNoResolver) {
			http.Error(w, "no resolver configured for "+link.Hoster, http.StatusServiceUnavailable)
			return
		}
		log.Printf("[play] resolve %s (%s) failed: %v", opaqueID, link.Hoster, err)
		http.Error(w, "resolver failed", http.StatusBadGateway)
		return
	}

	http.Redirect(w, r, resolved.VideoURL, http.StatusFound)
}
