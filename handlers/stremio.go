package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"scavengarr/models"
)

// StreamResolver is the pipeline port, satisfied by stream.Orchestrator.
type StreamResolver interface {
	Resolve(ctx context.Context, req models.StreamRequest) []models.ClientStream
}

// StremioHandler serves the addon manifest and the stream endpoint.
type StremioHandler struct {
	Resolver StreamResolver
	Version  string
}

func NewStremioHandler(resolver StreamResolver, version string) *StremioHandler {
	return &StremioHandler{Resolver: resolver, Version: version}
}

type manifest struct {
	ID          string   `json:"id"`
	Version     string   `json:"version"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Resources   []string `json:"resources"`
	Types       []string `json:"types"`
	Catalogs    []string `json:"catalogs"`
	IDPrefixes  []string `json:"idPrefixes"`
}

func (h *StremioHandler) Manifest(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, manifest{
		ID:          "community.scavengarr",
		Version:     h.Version,
		Name:        "Scavengarr",
		Description: "Streams from German streaming sites",
		Resources:   []string{"stream"},
		Types:       []string{"movie", "series"},
		Catalogs:    []string{},
		IDPrefixes:  []string{"tt", "tmdb:"},
	})
}

type streamResponse struct {
	Streams []models.ClientStream `json:"streams"`
}

// Stream handles /stream/{type}/{id}.json. Malformed ids yield an empty
// stream list, never an error status; Stremio treats non-200 as addon
// breakage.
func (h *StremioHandler) Stream(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	mediaType := vars["type"]
	rawID := strings.TrimSuffix(vars["id"], ".json")

	var kind models.MediaKind
	switch mediaType {
	case "movie":
		kind = models.MediaKindMovie
	case "series":
		kind = models.MediaKindSeries
	default:
		writeJSON(w, streamResponse{Streams: []models.ClientStream{}})
		return
	}

	req, ok := ParseStreamID(rawID, kind)
	if !ok {
		log.Printf("[stremio] unparseable id %q", rawID)
		writeJSON(w, streamResponse{Streams: []models.ClientStream{}})
		return
	}

	streams := h.Resolver.Resolve(r.Context(), req)
	if streams == nil {
		streams = []models.ClientStream{}
	}
	writeJSON(w, streamResponse{Streams: streams})
}

var reStreamExternalID = regexp.MustCompile(`^(tt\d+|tmdb:\d+)$`)

// ParseStreamID splits a Stremio id into external id plus optional
// ":season:episode" suffix. Recognized forms: "tt123", "tmdb:123",
// "tt123:1:5", "tmdb:123:1:5". Anything else reports false.
func ParseStreamID(raw string, kind models.MediaKind) (models.StreamRequest, bool) {
	parts := strings.Split(raw, ":")

	// tmdb ids carry one colon of their own
	externalParts := 1
	if parts[0] == "tmdb" {
		externalParts = 2
	}
	if len(parts) < externalParts {
		return models.StreamRequest{}, false
	}
	externalID := strings.Join(parts[:externalParts], ":")
	if !reStreamExternalID.MatchString(externalID) {
		return models.StreamRequest{}, false
	}

	req := models.NewStreamRequest(externalID, kind)
	rest := parts[externalParts:]
	switch len(rest) {
	case 0:
		return req, true
	case 2:
		season, err1 := strconv.Atoi(rest[0])
		episode, err2 := strconv.Atoi(rest[1])
		if err1 != nil || err2 != nil || season < 0 || episode < 0 {
			return models.StreamRequest{}, false
		}
		req.Season = season
		req.Episode = episode
		return req, true
	default:
		return models.StreamRequest{}, false
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[http] write response: %v", err)
	}
}
