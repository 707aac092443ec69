package resolver

import (
	"context"
	"encoding/base64"
	"fmt"
	"regexp"
	"strings"

	"scavengarr/models"
	"scavengarr/services/scrape"
)

var (
	// 'hls': 'https://...' or "hls": "base64..."
	reVOEHLS = regexp.MustCompile(`['"]hls['"]\s*:\s*['"]([^'"]+)['"]`)
	// newer pages redirect to a mirror domain via window.location.href
	reVOERedirect = regexp.MustCompile(`window\.location\.href\s*=\s*'(https://[^']+)'`)
)

// NewVOEResolver extracts the HLS master URL out of a VOE embed page.
// The page inlines it either verbatim or base64-encoded; newer pages
// first bounce to a mirror domain, which is followed exactly once.
func NewVOEResolver(client *scrape.SiteClient) ResolveFunc {
	return func(ctx context.Context, embedURL string) (models.ResolvedStream, error) {
		page, err := fetchPage(ctx, client, embedURL)
		if err != nil {
			return models.ResolvedStream{}, err
		}
		if m := reVOERedirect.FindStringSubmatch(page); m != nil && m[1] != embedURL {
			page, err = fetchPage(ctx, client, m[1])
			if err != nil {
				return models.ResolvedStream{}, err
			}
		}

		m := reVOEHLS.FindStringSubmatch(page)
		if m == nil {
			return models.ResolvedStream{}, fmt.Errorf("voe: no hls source in %s", embedURL)
		}
		source := m[1]
		if !strings.HasPrefix(source, "http") {
			decoded, err := base64.StdEncoding.DecodeString(source)
			if err != nil {
				return models.ResolvedStream{}, fmt.Errorf("voe hls decode: %w", err)
			}
			source = string(decoded)
		}
		return models.ResolvedStream{
			VideoURL: source,
			Headers:  map[string]string{"Referer": embedURL},
			IsHLS:    true,
		}, nil
	}
}

func fetchPage(ctx context.Context, client *scrape.SiteClient, url string) (string, error) {
	body, err := client.Get(ctx, url)
	if err != nil {
		return "", fmt.Errorf("voe fetch: %w", err)
	}
	return string(body), nil
}
