package scrape

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/html"

	"scavengarr/models"
)

// StreamkistePlugin scrapes a site that assembles its hoster list with
// client-side JavaScript, so every page goes through the shared headless
// browser.
type StreamkistePlugin struct {
	baseURL  string
	browsers *BrowserPool
	language string
	cacheTTL time.Duration
}

func NewStreamkistePlugin(baseURL string, browsers *BrowserPool, language string, cacheTTL time.Duration) *StreamkistePlugin {
	if language == "" {
		language = "de"
	}
	return &StreamkistePlugin{
		baseURL:  strings.TrimRight(baseURL, "/"),
		browsers: browsers,
		language: language,
		cacheTTL: cacheTTL,
	}
}

func (p *StreamkistePlugin) Name() string            { return "streamkiste" }
func (p *StreamkistePlugin) Provides() Provides      { return ProvidesStream }
func (p *StreamkistePlugin) Kind() Kind              { return KindExpensive }
func (p *StreamkistePlugin) DefaultLanguage() string { return p.language }
func (p *StreamkistePlugin) CacheTTL() time.Duration { return p.cacheTTL }

// Rendering is slow, so fewer detail pages per query than the cheap plugins.
const streamkisteDetailLimit = 5

func (p *StreamkistePlugin) Search(ctx context.Context, query string, params SearchParams) ([]models.RawSearchResult, error) {
	browser, err := p.browsers.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("streamkiste browser: %w", err)
	}

	searchURL := fmt.Sprintf("%s/?s=%s", p.baseURL, url.QueryEscape(query))
	rendered, err := browser.FetchRendered(ctx, searchURL)
	if err != nil {
		return nil, fmt.Errorf("streamkiste search: %w", err)
	}
	doc, err := html.Parse(strings.NewReader(rendered))
	if err != nil {
		return nil, fmt.Errorf("streamkiste parse: %w", err)
	}

	hits := findAll(doc, func(n *html.Node) bool {
		return elementIs(n, "div") && hasClass(n, "movie-item")
	})

	var results []models.RawSearchResult
	for _, hit := range hits {
		if len(results) >= streamkisteDetailLimit {
			break
		}
		anchors := findAll(hit, func(n *html.Node) bool { return elementIs(n, "a") })
		if len(anchors) == 0 {
			continue
		}
		href := strings.TrimSpace(attr(anchors[0], "href"))
		title := strings.TrimSpace(attr(anchors[0], "title"))
		if title == "" {
			title = textContent(anchors[0])
		}
		if href == "" || title == "" {
			continue
		}
		if !strings.HasPrefix(href, "http") {
			href = p.baseURL + "/" + strings.TrimLeft(href, "/")
		}

		result, err := p.fetchDetail(ctx, browser, href, title, params)
		if err != nil {
			continue
		}
		if result.Usable() {
			results = append(results, result)
		}
	}
	return results, nil
}

func (p *StreamkistePlugin) fetchDetail(ctx context.Context, browser Browser, pageURL, title string, params SearchParams) (models.RawSearchResult, error) {
	rendered, err := browser.FetchRendered(ctx, pageURL)
	if err != nil {
		return models.RawSearchResult{}, err
	}
	doc, err := html.Parse(strings.NewReader(rendered))
	if err != nil {
		return models.RawSearchResult{}, err
	}

	category := models.CategoryMovies
	if params.Season >= 0 || params.Episode >= 0 {
		category = models.CategoryTV
	}

	// The JS player writes one <li class="stream-link" data-url=...> per
	// mirror once it has decoded its link table.
	var links []models.HosterLink
	for _, li := range findAll(doc, func(n *html.Node) bool {
		return elementIs(n, "li") && hasClass(n, "stream-link")
	}) {
		href := strings.TrimSpace(attr(li, "data-url"))
		if !strings.HasPrefix(href, "http") {
			continue
		}
		links = append(links, models.HosterLink{
			HosterName: hostFromURL(href),
			URL:        href,
			Label:      textContent(li),
		})
	}
	if len(links) == 0 {
		return models.RawSearchResult{}, fmt.Errorf("no stream links on %s", pageURL)
	}

	return models.RawSearchResult{
		Title:       title,
		Category:    category,
		PrimaryLink: links[0].URL,
		Links:       links,
	}, nil
}
