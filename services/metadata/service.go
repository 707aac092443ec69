package metadata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"regexp"
	"strings"
	"time"

	"scavengarr/internal/cache"
	"scavengarr/models"
)

// ErrNotFound marks ids the metadata provider does not know.
var ErrNotFound = errors.New("title not found")

// ErrBadID marks external ids the service cannot parse at all.
var ErrBadID = errors.New("unrecognized external id")

// Title is a provider-level lookup result.
type Title struct {
	Name string `json:"name"`
	Year int    `json:"year"`
}

// Provider is the metadata backend contract, satisfied by TMDBClient.
type Provider interface {
	MovieByID(ctx context.Context, tmdbID string) (Title, error)
	SeriesByID(ctx context.Context, tmdbID string) (Title, error)
	ByIMDbID(ctx context.Context, imdbID string, wantSeries bool) (Title, error)
}

var (
	reIMDbID = regexp.MustCompile(`^tt\d+$`)
	reTMDBID = regexp.MustCompile(`^tmdb:(\d+)$`)
)

// Service resolves external ids into reference titles, caching lookups for
// ttl since canonical titles effectively never change.
type Service struct {
	provider Provider
	cache    cache.Cache
	ttl      time.Duration
}

func NewService(provider Provider, c cache.Cache, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Service{provider: provider, cache: c, ttl: ttl}
}

// Resolve turns the request's external id into the canonical localized title.
// Supported id forms: "tt<digits>" (IMDb) and "tmdb:<digits>".
func (s *Service) Resolve(ctx context.Context, req models.StreamRequest) (models.ReferenceTitle, error) {
	id := strings.TrimSpace(req.ExternalID)
	if id == "" {
		return models.ReferenceTitle{}, ErrBadID
	}

	cacheKey := fmt.Sprintf("reftitle:%s:%s", req.Kind, id)
	if s.cache != nil {
		if raw, ok := s.cache.Get(ctx, cacheKey); ok {
			var ref models.ReferenceTitle
			if err := json.Unmarshal(raw, &ref); err == nil {
				return ref, nil
			}
		}
	}

	title, err := s.lookup(ctx, id, req.Kind)
	if err != nil {
		return models.ReferenceTitle{}, err
	}

	ref := models.ReferenceTitle{Title: title.Name, Year: title.Year, Kind: req.Kind}
	if s.cache != nil {
		if raw, err := json.Marshal(ref); err == nil {
			s.cache.Set(ctx, cacheKey, raw, s.ttl)
		}
	}
	log.Printf("[metadata] resolved %s -> %q (%d)", id, ref.Title, ref.Year)
	return ref, nil
}

func (s *Service) lookup(ctx context.Context, id string, kind models.MediaKind) (Title, error) {
	switch {
	case reIMDbID.MatchString(id):
		return s.provider.ByIMDbID(ctx, id, kind == models.MediaKindSeries)
	case reTMDBID.MatchString(id):
		tmdbID := reTMDBID.FindStringSubmatch(id)[1]
		if kind == models.MediaKindSeries {
			return s.provider.SeriesByID(ctx, tmdbID)
		}
		return s.provider.MovieByID(ctx, tmdbID)
	default:
		return Title{}, fmt.Errorf("%w: %q", ErrBadID, id)
	}
}
