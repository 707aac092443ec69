package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/require"

	"scavengarr/models"
)

type fixedResolver struct {
	streams []models.ClientStream
	lastReq models.StreamRequest
	called  bool
}

func (f *fixedResolver) Resolve(_ context.Context, req models.StreamRequest) []models.ClientStream {
	f.called = true
	f.lastReq = req
	return f.streams
}

func stremioRouter(h *StremioHandler) *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/manifest.json", h.Manifest)
	r.HandleFunc("/stream/{type}/{id}", h.Stream)
	return r
}

func TestParseStreamID(t *testing.T) {
	tests := []struct {
		raw     string
		ok      bool
		id      string
		season  int
		episode int
	}{
		{"tt0371746", true, "tt0371746", -1, -1},
		{"tmdb:1726", true, "tmdb:1726", -1, -1},
		{"tt5753856:1:5", true, "tt5753856", 1, 5},
		{"tmdb:70523:1:5", true, "tmdb:70523", 1, 5},
		{"tt5753856:0:0", true, "tt5753856", 0, 0},
		{"tt5753856:1", false, "", 0, 0},
		{"tt5753856:1:5:9", false, "", 0, 0},
		{"tt5753856:a:b", false, "", 0, 0},
		{"imdb:123", false, "", 0, 0},
		{"tmdb:", false, "", 0, 0},
		{"", false, "", 0, 0},
	}
	for _, tt := range tests {
		req, ok := ParseStreamID(tt.raw, models.MediaKindSeries)
		require.Equal(t, tt.ok, ok, "raw %q", tt.raw)
		if !ok {
			continue
		}
		require.Equal(t, tt.id, req.ExternalID, "raw %q", tt.raw)
		require.Equal(t, tt.season, req.Season, "raw %q", tt.raw)
		require.Equal(t, tt.episode, req.Episode, "raw %q", tt.raw)
	}
}

func TestManifest(t *testing.T) {
	h := NewStremioHandler(&fixedResolver{}, "1.2.3")
	rec := httptest.NewRecorder()
	stremioRouter(h).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/manifest.json", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var m manifest
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &m))
	require.Equal(t, "community.scavengarr", m.ID)
	require.Equal(t, "1.2.3", m.Version)
	require.Contains(t, m.Resources, "stream")
	require.ElementsMatch(t, []string{"movie", "series"}, m.Types)
	require.NotNil(t, m.Catalogs)
}

func TestStreamEndpointHappyPath(t *testing.T) {
	resolver := &fixedResolver{streams: []models.ClientStream{
		{DisplayName: "Iron Man (2008) HD 1080P", URL: "https://cdn.example/master.m3u8"},
	}}
	h := NewStremioHandler(resolver, "1.0.0")

	rec := httptest.NewRecorder()
	stremioRouter(h).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/stream/movie/tt0371746.json", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp streamResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Streams, 1)
	require.Equal(t, "tt0371746", resolver.lastReq.ExternalID)
	require.Equal(t, models.MediaKindMovie, resolver.lastReq.Kind)
}

func TestStreamEndpointSeriesSuffix(t *testing.T) {
	resolver := &fixedResolver{}
	h := NewStremioHandler(resolver, "1.0.0")

	rec := httptest.NewRecorder()
	stremioRouter(h).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/stream/series/tt5753856:1:5.json", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, 1, resolver.lastReq.Season)
	require.Equal(t, 5, resolver.lastReq.Episode)
}

func TestStreamEndpointBadIDIsEmptyNotError(t *testing.T) {
	resolver := &fixedResolver{}
	h := NewStremioHandler(resolver, "1.0.0")

	rec := httptest.NewRecorder()
	stremioRouter(h).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/stream/movie/garbage-id.json", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp streamResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Empty(t, resp.Streams)
	require.False(t, resolver.called)
}

func TestStreamEndpointUnknownTypeIsEmpty(t *testing.T) {
	resolver := &fixedResolver{}
	h := NewStremioHandler(resolver, "1.0.0")

	rec := httptest.NewRecorder()
	stremioRouter(h).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/stream/channel/tt0371746.json", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.False(t, resolver.called)
}
