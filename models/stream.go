package models

import "strings"

// MediaKind distinguishes movie and series requests.
type MediaKind string

const (
	MediaKindMovie  MediaKind = "movie"
	MediaKindSeries MediaKind = "series"
)

// StreamRequest is the boundary input that carries one resolution pipeline.
// Season/Episode use -1 for "unset"; 0 is a valid season/episode number.
type StreamRequest struct {
	ExternalID string    `json:"externalId"`
	Kind       MediaKind `json:"kind"`
	Season     int       `json:"season"`
	Episode    int       `json:"episode"`
}

// NewStreamRequest returns a request with season/episode marked unset.
func NewStreamRequest(externalID string, kind MediaKind) StreamRequest {
	return StreamRequest{ExternalID: externalID, Kind: kind, Season: -1, Episode: -1}
}

// ReferenceTitle is the canonical title looked up from the metadata provider.
type ReferenceTitle struct {
	Title string    `json:"title"`
	Year  int       `json:"year,omitempty"` // 0 = unknown
	Kind  MediaKind `json:"kind"`
}

// HosterLink is a single hoster embed reference inside a scraped result.
// Label may carry season/episode hints such as "1x5" or "S02E10".
type HosterLink struct {
	HosterName string `json:"hosterName"`
	URL        string `json:"url"`
	Label      string `json:"label,omitempty"`
	Language   string `json:"language,omitempty"`
	Quality    string `json:"quality,omitempty"`
	SizeBytes  int64  `json:"sizeBytes,omitempty"`
}

// RawSearchResult is what a site plugin produces before any filtering.
type RawSearchResult struct {
	Title       string            `json:"title"`
	Category    int               `json:"category"`
	PrimaryLink string            `json:"primaryLink"`
	Links       []HosterLink      `json:"links"`
	SizeBytes   int64             `json:"sizeBytes,omitempty"`
	ReleaseName string            `json:"releaseName,omitempty"`
	Attributes  map[string]string `json:"attributes,omitempty"`
}

// Usable reports whether the result carries enough data to survive normalization.
func (r RawSearchResult) Usable() bool {
	return strings.TrimSpace(r.Title) != "" && len(r.Links) > 0
}

// Quality is a fixed ordinal scale used by the scorer.
type Quality int

const (
	QualityUnknown Quality = iota
	QualitySD
	QualityHD720
	QualityHD1080
	QualityUHD4K
)

func (q Quality) String() string {
	switch q {
	case QualitySD:
		return "SD"
	case QualityHD720:
		return "HD 720P"
	case QualityHD1080:
		return "HD 1080P"
	case QualityUHD4K:
		return "UHD 4K"
	default:
		return "UNKNOWN"
	}
}

// Language describes the audio language of a stream.
type Language struct {
	Code     string `json:"code"`  // e.g. "de"
	Label    string `json:"label"` // e.g. "Deutsch"
	IsDubbed bool   `json:"isDubbed"`
}

// RankedStream is the canonical normalized stream. URL is always the hoster
// embed URL at this stage, never a CDN URL.
type RankedStream struct {
	URL           string   `json:"url"`
	Hoster        string   `json:"hoster"` // normalized, may be empty
	Quality       Quality  `json:"quality"`
	Language      Language `json:"language"`
	SizeBytes     int64    `json:"sizeBytes,omitempty"`
	SizeLabel     string   `json:"sizeLabel,omitempty"`
	Title         string   `json:"title,omitempty"`
	ReleaseName   string   `json:"releaseName,omitempty"`
	SourceAdapter string   `json:"sourceAdapter"`
	Score         int      `json:"score"`
}

// ResolvedStream is a hoster embed resolved to a directly playable URL.
type ResolvedStream struct {
	VideoURL string            `json:"videoUrl"`
	Headers  map[string]string `json:"headers,omitempty"`
	IsHLS    bool              `json:"isHls"`
}

// BehaviorHints map to Stremio stream behaviorHints.
type BehaviorHints struct {
	NotWebReady   bool               `json:"notWebReady,omitempty"`
	ProxyHeaders  map[string]string  `json:"proxyHeaders,omitempty"`
	BingeGroup    string             `json:"bingeGroup,omitempty"`
}

// ClientStream is the final client-facing stream entry.
type ClientStream struct {
	DisplayName   string         `json:"name"`
	Description   string         `json:"description,omitempty"`
	URL           string         `json:"url"`
	BehaviorHints *BehaviorHints `json:"behaviorHints,omitempty"`
}

// CachedStreamLink is the payload behind a /play/{id} opaque id.
type CachedStreamLink struct {
	OpaqueID string `json:"opaqueId"`
	EmbedURL string `json:"embedUrl"`
	Title    string `json:"title"`
	Hoster   string `json:"hoster"`
}
