package handlers

import (
	"context"
	"encoding/xml"
	"log"
	"net/http"
	"strconv"
	"strings"

	"scavengarr/models"
	"scavengarr/services/indexer"
	"scavengarr/utils/releaseparse"
)

// IndexerSearcher is the feed port, satisfied by indexer.Service.
type IndexerSearcher interface {
	Search(ctx context.Context, opts indexer.SearchOptions) ([]indexer.Item, error)
}

// TorznabHandler serves the Torznab api endpoint consumed by *arr clients.
// DevMode surfaces upstream failures as 502; production hides them behind
// an empty feed so Prowlarr does not disable the indexer.
type TorznabHandler struct {
	Service IndexerSearcher
	DevMode bool
}

func NewTorznabHandler(service IndexerSearcher, devMode bool) *TorznabHandler {
	return &TorznabHandler{Service: service, DevMode: devMode}
}

func (h *TorznabHandler) API(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Query().Get("t") {
	case "caps":
		h.caps(w)
	case "search", "tvsearch", "movie":
		h.search(w, r)
	default:
		writeTorznabError(w, 202, "no such function")
	}
}

func (h *TorznabHandler) search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	opts := indexer.SearchOptions{
		Query:   strings.TrimSpace(q.Get("q")),
		IMDbID:  normalizeIMDbID(q.Get("imdbid")),
		Season:  intParam(q.Get("season"), -1),
		Episode: intParam(q.Get("ep"), -1),
		Limit:   intParam(q.Get("limit"), 100),
	}
	if cats := q.Get("cat"); cats != "" {
		// multiple categories arrive comma-separated; the first decides
		opts.Category = intParam(strings.Split(cats, ",")[0], 0)
	}
	if q.Get("t") == "movie" && opts.Category == 0 {
		opts.Category = models.CategoryMovies
	}
	if q.Get("t") == "tvsearch" && opts.Category == 0 {
		opts.Category = models.CategoryTV
	}

	items, err := h.Service.Search(r.Context(), opts)
	if err != nil {
		log.Printf("[torznab] search failed: %v", err)
		if h.DevMode {
			http.Error(w, err.Error(), http.StatusBadGateway)
			return
		}
		items = nil
	}
	h.writeFeed(w, items)
}

// Clients send imdb ids both as "tt0371746" and as bare "0371746".
func normalizeIMDbID(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if !strings.HasPrefix(raw, "tt") {
		raw = "tt" + raw
	}
	return raw
}

func intParam(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}

type torznabAttr struct {
	XMLName xml.Name `xml:"torznab:attr"`
	Name    string   `xml:"name,attr"`
	Value   string   `xml:"value,attr"`
}

type rssEnclosure struct {
	URL    string `xml:"url,attr"`
	Length int64  `xml:"length,attr"`
	Type   string `xml:"type,attr"`
}

type rssItem struct {
	Title     string       `xml:"title"`
	GUID      string       `xml:"guid"`
	Link      string       `xml:"link"`
	Category  int          `xml:"category"`
	Size      int64        `xml:"size,omitempty"`
	PubDate   string       `xml:"pubDate"`
	Enclosure rssEnclosure `xml:"enclosure"`
	Attrs     []torznabAttr
}

type rssChannel struct {
	Title       string    `xml:"title"`
	Description string    `xml:"description"`
	Items       []rssItem `xml:"item"`
}

type rssFeed struct {
	XMLName xml.Name   `xml:"rss"`
	Version string     `xml:"version,attr"`
	NSAttr  string     `xml:"xmlns:torznab,attr"`
	Channel rssChannel `xml:"channel"`
}

func (h *TorznabHandler) writeFeed(w http.ResponseWriter, items []indexer.Item) {
	feed := rssFeed{
		Version: "2.0",
		NSAttr:  "http://torznab.com/schemas/2015/feed",
		Channel: rssChannel{
			Title:       "Scavengarr",
			Description: "Aggregated German streaming-site releases",
		},
	}
	for _, item := range items {
		entry := rssItem{
			Title:    item.Title,
			GUID:     item.Link,
			Link:     item.Link,
			Category: item.Category,
			Size:     item.SizeBytes,
			PubDate:  item.Published.UTC().Format(http.TimeFormat),
			Enclosure: rssEnclosure{
				URL:    item.Link,
				Length: item.SizeBytes,
				Type:   "application/x-hoster-embed",
			},
			Attrs: []torznabAttr{
				{Name: "category", Value: strconv.Itoa(item.Category)},
				{Name: "site", Value: item.Source},
			},
		}
		if item.SizeBytes > 0 {
			entry.Attrs = append(entry.Attrs, torznabAttr{Name: "size", Value: strconv.FormatInt(item.SizeBytes, 10)})
		}
		if episode, ok := releaseparse.ParseEpisode(item.Title); ok {
			entry.Attrs = append(entry.Attrs,
				torznabAttr{Name: "season", Value: strconv.Itoa(episode.Season)},
				torznabAttr{Name: "episode", Value: strconv.Itoa(episode.Episode)},
			)
		}
		feed.Channel.Items = append(feed.Channel.Items, entry)
	}
	writeXML(w, feed)
}

type capsCategory struct {
	ID   int            `xml:"id,attr"`
	Name string         `xml:"name,attr"`
	Subs []capsCategory `xml:"subcat,omitempty"`
}

type capsSearching struct {
	Search   capsSearchMode `xml:"search"`
	TVSearch capsSearchMode `xml:"tv-search"`
	Movie    capsSearchMode `xml:"movie-search"`
}

type capsSearchMode struct {
	Available       string `xml:"available,attr"`
	SupportedParams string `xml:"supportedParams,attr"`
}

type capsDoc struct {
	XMLName    xml.Name       `xml:"caps"`
	Searching  capsSearching  `xml:"searching"`
	Categories []capsCategory `xml:"categories>category"`
}

func (h *TorznabHandler) caps(w http.ResponseWriter) {
	writeXML(w, capsDoc{
		Searching: capsSearching{
			Search:   capsSearchMode{Available: "yes", SupportedParams: "q"},
			TVSearch: capsSearchMode{Available: "yes", SupportedParams: "q,imdbid,season,ep"},
			Movie:    capsSearchMode{Available: "yes", SupportedParams: "q,imdbid"},
		},
		Categories: []capsCategory{
			{ID: models.CategoryMovies, Name: "Movies"},
			{ID: models.CategoryTV, Name: "TV", Subs: []capsCategory{
				{ID: models.CategoryTVAnime, Name: "TV/Anime"},
				{ID: models.CategoryTVDocu, Name: "TV/Documentary"},
			}},
		},
	})
}

type torznabError struct {
	XMLName xml.Name `xml:"error"`
	Code    int      `xml:"code,attr"`
	Desc    string   `xml:"description,attr"`
}

func writeTorznabError(w http.ResponseWriter, code int, desc string) {
	writeXML(w, torznabError{Code: code, Desc: desc})
}

func writeXML(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/xml; charset=utf-8")
	if _, err := w.Write([]byte(xml.Header)); err != nil {
		return
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(v); err != nil {
		log.Printf("[http] write xml: %v", err)
	}
}
