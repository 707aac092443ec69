package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"scavengarr/models"
	"scavengarr/services/indexer"
)

type fixedIndexer struct {
	items    []indexer.Item
	err      error
	lastOpts indexer.SearchOptions
}

func (f *fixedIndexer) Search(_ context.Context, opts indexer.SearchOptions) ([]indexer.Item, error) {
	f.lastOpts = opts
	return f.items, f.err
}

func TestTorznabCaps(t *testing.T) {
	h := NewTorznabHandler(&fixedIndexer{}, false)
	rec := httptest.NewRecorder()
	h.API(rec, httptest.NewRequest(http.MethodGet, "/torznab/api?t=caps", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Header().Get("Content-Type"), "application/xml")
	body := rec.Body.String()
	require.Contains(t, body, "<caps>")
	require.Contains(t, body, `id="2000"`)
	require.Contains(t, body, `id="5000"`)
	require.Contains(t, body, "tv-search")
}

func TestTorznabSearchFeed(t *testing.T) {
	idx := &fixedIndexer{items: []indexer.Item{{
		Title:     "Iron.Man.2008.German.1080p",
		Link:      "https://voe.sx/e/abc",
		Category:  models.CategoryMovies,
		SizeBytes: 2 << 30,
		Source:    "megakino",
		Published: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
	}}}
	h := NewTorznabHandler(idx, false)

	rec := httptest.NewRecorder()
	h.API(rec, httptest.NewRequest(http.MethodGet, "/torznab/api?t=search&q=iron+man", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	require.Contains(t, body, "Iron.Man.2008.German.1080p")
	require.Contains(t, body, `xmlns:torznab="http://torznab.com/schemas/2015/feed"`)
	require.Contains(t, body, `<torznab:attr name="site" value="megakino"`)
	require.Contains(t, body, "https://voe.sx/e/abc")
	require.Equal(t, "iron man", idx.lastOpts.Query)
}

func TestTorznabTVSearchParams(t *testing.T) {
	idx := &fixedIndexer{}
	h := NewTorznabHandler(idx, false)

	rec := httptest.NewRecorder()
	h.API(rec, httptest.NewRequest(http.MethodGet, "/torznab/api?t=tvsearch&imdbid=5753856&season=1&ep=5", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "tt5753856", idx.lastOpts.IMDbID)
	require.Equal(t, 1, idx.lastOpts.Season)
	require.Equal(t, 5, idx.lastOpts.Episode)
	require.Equal(t, models.CategoryTV, idx.lastOpts.Category)
}

func TestTorznabEpisodeAttrs(t *testing.T) {
	idx := &fixedIndexer{items: []indexer.Item{{
		Title:     "Dark.S01E05.German.720p",
		Link:      "https://voe.sx/e/dark",
		Category:  models.CategoryTV,
		Source:    "megakino",
		Published: time.Now(),
	}}}
	h := NewTorznabHandler(idx, false)

	rec := httptest.NewRecorder()
	h.API(rec, httptest.NewRequest(http.MethodGet, "/torznab/api?t=tvsearch&q=dark", nil))

	body := rec.Body.String()
	require.Contains(t, body, `<torznab:attr name="season" value="1"`)
	require.Contains(t, body, `<torznab:attr name="episode" value="5"`)
}

func TestTorznabUpstreamFailureDevMode(t *testing.T) {
	idx := &fixedIndexer{err: errors.New("all sites down")}

	rec := httptest.NewRecorder()
	NewTorznabHandler(idx, true).API(rec, httptest.NewRequest(http.MethodGet, "/torznab/api?t=search&q=x", nil))
	require.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestTorznabUpstreamFailureProdIsEmptyFeed(t *testing.T) {
	idx := &fixedIndexer{err: errors.New("all sites down")}

	rec := httptest.NewRecorder()
	NewTorznabHandler(idx, false).API(rec, httptest.NewRequest(http.MethodGet, "/torznab/api?t=search&q=x", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "<channel>")
	require.NotContains(t, rec.Body.String(), "<item>")
}

func TestTorznabUnknownFunction(t *testing.T) {
	rec := httptest.NewRecorder()
	NewTorznabHandler(&fixedIndexer{}, false).API(rec, httptest.NewRequest(http.MethodGet, "/torznab/api?t=music", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "<error")
}
