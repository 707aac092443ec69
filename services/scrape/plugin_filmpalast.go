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

// FilmpalastPlugin scrapes a German streaming index whose detail pages embed
// their hoster links inside player tabs.
type FilmpalastPlugin struct {
	baseURL  string
	client   *SiteClient
	language string
	cacheTTL time.Duration
}

func NewFilmpalastPlugin(baseURL string, client *SiteClient, language string, cacheTTL time.Duration) *FilmpalastPlugin {
	if language == "" {
		language = "de"
	}
	return &FilmpalastPlugin{
		baseURL:  strings.TrimRight(baseURL, "/"),
		client:   client,
		language: language,
		cacheTTL: cacheTTL,
	}
}

func (p *FilmpalastPlugin) Name() string            { return "filmpalast" }
func (p *FilmpalastPlugin) Provides() Provides      { return ProvidesStream }
func (p *FilmpalastPlugin) Kind() Kind              { return KindCheap }
func (p *FilmpalastPlugin) DefaultLanguage() string { return p.language }
func (p *FilmpalastPlugin) CacheTTL() time.Duration { return p.cacheTTL }

const filmpalastDetailLimit = 10

func (p *FilmpalastPlugin) Search(ctx context.Context, query string, params SearchParams) ([]models.RawSearchResult, error) {
	searchURL := fmt.Sprintf("%s/search/title/%s", p.baseURL, url.PathEscape(query))
	body, err := p.client.Get(ctx, searchURL)
	if err != nil {
		return nil, fmt.Errorf("filmpalast search: %w", err)
	}

	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("filmpalast parse: %w", err)
	}

	// Result rows: <article class="liste"> with an <a class="rb"> title link.
	rows := findAll(doc, func(n *html.Node) bool {
		return elementIs(n, "article") && hasClass(n, "liste")
	})

	var results []models.RawSearchResult
	for _, row := range rows {
		if len(results) >= filmpalastDetailLimit {
			break
		}
		anchors := findAll(row, func(n *html.Node) bool { return elementIs(n, "a") })
		if len(anchors) == 0 {
			continue
		}
		link := anchors[0]
		href := p.absoluteURL(attr(link, "href"))
		title := strings.TrimSpace(attr(link, "title"))
		if title == "" {
			title = textContent(link)
		}
		if href == "" || title == "" {
			continue
		}

		result, err := p.fetchDetail(ctx, href, title, params)
		if err != nil {
			continue
		}
		if result.Usable() {
			results = append(results, result)
		}
	}
	return results, nil
}

func (p *FilmpalastPlugin) fetchDetail(ctx context.Context, pageURL, title string, params SearchParams) (models.RawSearchResult, error) {
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
	for _, a := range findAll(doc, func(n *html.Node) bool {
		return elementIs(n, "a") && hasClass(n, "hostBtn")
	}) {
		href := strings.TrimSpace(attr(a, "data-player-url"))
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

func (p *FilmpalastPlugin) absoluteURL(href string) string {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "http") {
		return href
	}
	return p.baseURL + "/" + strings.TrimLeft(href, "/")
}
