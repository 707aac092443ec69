package metadata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
)

const tmdbBaseURL = "https://api.themoviedb.org/3"

// TMDBClient looks up canonical titles from TMDB. Only the localized title
// and release year are consumed; posters and overviews stay with TMDB.
type TMDBClient struct {
	apiKey   string
	language string
	baseURL  string
	httpc    *http.Client
}

func NewTMDBClient(apiKey, language string, httpc *http.Client) *TMDBClient {
	if httpc == nil {
		httpc = &http.Client{Timeout: 15 * time.Second}
	}
	if language == "" {
		language = "de-DE"
	}
	return &TMDBClient{
		apiKey:   strings.TrimSpace(apiKey),
		language: language,
		baseURL:  tmdbBaseURL,
		httpc:    httpc,
	}
}

func (c *TMDBClient) IsConfigured() bool {
	return c != nil && c.apiKey != ""
}

type tmdbTitleResponse struct {
	Title        string `json:"title"`
	Name         string `json:"name"`
	ReleaseDate  string `json:"release_date"`
	FirstAirDate string `json:"first_air_date"`
}

type tmdbFindResponse struct {
	MovieResults []tmdbTitleResponse `json:"movie_results"`
	TVResults    []tmdbTitleResponse `json:"tv_results"`
}

// MovieByID fetches the localized movie title by its TMDB id.
func (c *TMDBClient) MovieByID(ctx context.Context, tmdbID string) (Title, error) {
	var out tmdbTitleResponse
	if err := c.doGET(ctx, fmt.Sprintf("/movie/%s", url.PathEscape(tmdbID)), &out); err != nil {
		return Title{}, err
	}
	return titleFromResponse(out)
}

// SeriesByID fetches the localized series name by its TMDB id.
func (c *TMDBClient) SeriesByID(ctx context.Context, tmdbID string) (Title, error) {
	var out tmdbTitleResponse
	if err := c.doGET(ctx, fmt.Sprintf("/tv/%s", url.PathEscape(tmdbID)), &out); err != nil {
		return Title{}, err
	}
	return titleFromResponse(out)
}

// ByIMDbID resolves an IMDb id through TMDB's find endpoint. The endpoint
// returns movie and TV buckets; wantSeries picks which one to trust.
func (c *TMDBClient) ByIMDbID(ctx context.Context, imdbID string, wantSeries bool) (Title, error) {
	var out tmdbFindResponse
	endpoint := fmt.Sprintf("/find/%s?external_source=imdb_id", url.PathEscape(imdbID))
	if err := c.doGET(ctx, endpoint, &out); err != nil {
		return Title{}, err
	}
	bucket := out.MovieResults
	if wantSeries {
		bucket = out.TVResults
	}
	if len(bucket) == 0 {
		return Title{}, fmt.Errorf("%w: %s", ErrNotFound, imdbID)
	}
	return titleFromResponse(bucket[0])
}

func titleFromResponse(r tmdbTitleResponse) (Title, error) {
	name := r.Title
	if name == "" {
		name = r.Name
	}
	if name == "" {
		return Title{}, ErrNotFound
	}
	date := r.ReleaseDate
	if date == "" {
		date = r.FirstAirDate
	}
	year := 0
	if len(date) >= 4 {
		fmt.Sscanf(date[:4], "%d", &year) //nolint:errcheck
	}
	return Title{Name: name, Year: year}, nil
}

func (c *TMDBClient) doGET(ctx context.Context, endpoint string, v any) error {
	if !c.IsConfigured() {
		return fmt.Errorf("tmdb api key not configured")
	}
	sep := "?"
	if strings.Contains(endpoint, "?") {
		sep = "&"
	}
	fullURL := fmt.Sprintf("%s%s%sapi_key=%s&language=%s", c.baseURL, endpoint, sep, url.QueryEscape(c.apiKey), url.QueryEscape(c.language))

	return retry.Do(
		func() error {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
			if err != nil {
				return retry.Unrecoverable(err)
			}
			resp, err := c.httpc.Do(req)
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			if resp.StatusCode == http.StatusNotFound {
				io.Copy(io.Discard, resp.Body) //nolint:errcheck
				return retry.Unrecoverable(ErrNotFound)
			}
			if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
				io.Copy(io.Discard, resp.Body) //nolint:errcheck
				return fmt.Errorf("tmdb: %s", resp.Status)
			}
			if resp.StatusCode >= 400 {
				io.Copy(io.Discard, resp.Body) //nolint:errcheck
				return retry.Unrecoverable(fmt.Errorf("tmdb: %s", resp.Status))
			}
			return json.NewDecoder(resp.Body).Decode(v)
		},
		retry.Attempts(3),
		retry.Delay(300*time.Millisecond),
		retry.DelayType(retry.BackOffDelay),
		retry.Context(ctx),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			log.Printf("[tmdb] retry %d for %s: %v", n+1, endpoint, err)
		}),
	)
}
