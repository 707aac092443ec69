package scrape

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/html"

	"scavengarr/models"
	"scavengarr/utils/releaseparse"
)

// MegakinoPlugin scrapes a DLE-style German streaming index over plain HTTP.
// Search hits land on a result list; each detail page carries the hoster
// iframes.
type MegakinoPlugin struct {
	baseURL  string
	client   *SiteClient
	language string
	cacheTTL time.Duration
}

// NewMegakinoPlugin wires the plugin against baseURL.
func NewMegakinoPlugin(baseURL string, client *SiteClient, language string, cacheTTL time.Duration) *MegakinoPlugin {
	if language == "" {
		language = "de"
	}
	return &MegakinoPlugin{
		baseURL:  strings.TrimRight(baseURL, "/"),
		client:   client,
		language: language,
		cacheTTL: cacheTTL,
	}
}

func (p *MegakinoPlugin) Name() string            { return "megakino" }
func (p *MegakinoPlugin) Provides() Provides      { return ProvidesStream }
func (p *MegakinoPlugin) Kind() Kind              { return KindCheap }
func (p *MegakinoPlugin) DefaultLanguage() string { return p.language }
func (p *MegakinoPlugin) CacheTTL() time.Duration { return p.cacheTTL }

// detail pages are fetched for at most this many search hits per query
const megakinoDetailLimit = 10

func (p *MegakinoPlugin) Search(ctx context.Context, query string, params SearchParams) ([]models.RawSearchResult, error) {
	searchURL := fmt.Sprintf("%s/index.php?do=search&subaction=search&story=%s", p.baseURL, url.QueryEscape(query))
	body, err := p.client.Get(ctx, searchURL)
	if err != nil {
		return nil, fmt.Errorf("megakino search: %w", err)
	}

	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("megakino parse: %w", err)
	}

	items := findAll(doc, func(n *html.Node) bool {
		return elementIs(n, "a") && hasClass(n, "poster")
	})

	var results []models.RawSearchResult
	for _, item := range items {
		if len(results) >= megakinoDetailLimit {
			break
		}
		href := p.absoluteURL(attr(item, "href"))
		title := strings.TrimSpace(attr(item, "title"))
		if title == "" {
			title = textContent(item)
		}
		if href == "" || title == "" {
			continue
		}

		result, err := p.fetchDetail(ctx, href, title, params)
		if err != nil {
			// One broken detail page must not sink the whole query.
			continue
		}
		if result.Usable() {
			results = append(results, result)
		}
	}
	return results, nil
}

// fetchDetail pulls the hoster iframes off one title page.
func (p *MegakinoPlugin) fetchDetail(ctx context.Context, pageURL, title string, params SearchParams) (models.RawSearchResult, error) {
	body, err := p.client.Get(ctx, pageURL)
	if err != nil {
		return models.RawSearchResult{}, err
	}
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return models.RawSearchResult{}, err
	}

	category := models.CategoryMovies
	if params.Season >= 0 || params.Episode >= 0 {
		category = models.CategoryTV
	}

	var links []models.HosterLink
	for _, frame := range findAll(doc, func(n *html.Node) bool { return elementIs(n, "iframe") }) {
		src := strings.TrimSpace(attr(frame, "data-src"))
		if src == "" {
			src = strings.TrimSpace(attr(frame, "src"))
		}
		if !strings.HasPrefix(src, "http") {
			continue
		}
		links = append(links, models.HosterLink{
			HosterName: hostFromURL(src),
			URL:        src,
			Label:      strings.TrimSpace(attr(frame, "title")),
		})
	}

	// Episode lists label their mirror anchors "1x5" style.
	for _, a := range findAll(doc, func(n *html.Node) bool {
		return elementIs(n, "a") && hasClass(n, "mirror")
	}) {
		href := strings.TrimSpace(attr(a, "data-link"))
		if href == "" {
			href = strings.TrimSpace(attr(a, "href"))
		}
		if !strings.HasPrefix(href, "http") {
			continue
		}
		links = append(links, models.HosterLink{
			HosterName: hostFromURL(href),
			URL:        href,
			Label:      textContent(a),
		})
	}

	if len(links) == 0 {
		return models.RawSearchResult{}, fmt.Errorf("no hoster links on %s", pageURL)
	}

	result := models.RawSearchResult{
		Title:       title,
		Category:    category,
		PrimaryLink: links[0].URL,
		Links:       links,
	}
	if size := releaseparse.ParseSize(title); size > 0 {
		result.SizeBytes = size
	}
	return result, nil
}

func (p *MegakinoPlugin) absoluteURL(href string) string {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "http") {
		return href
	}
	return p.baseURL + "/" + strings.TrimLeft(href, "/")
}

// hostFromURL extracts the bare host name of an embed URL for hoster tagging.
func hostFromURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return ""
	}
	return strings.TrimPrefix(u.Host, "www.")
}
