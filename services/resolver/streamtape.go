package resolver

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"scavengarr/models"
	"scavengarr/services/scrape"
)

// The final video link is assembled in JS from two halves around the
// "robotlink" node; the second half carries the access token.
var reStreamtapeLink = regexp.MustCompile(`document\.getElementById\('robotlink'\)\.innerHTML\s*=\s*'([^']*)'\s*\+\s*\('([^']*)'\)`)

// NewStreamtapeResolver stitches the tokenized download URL out of a
// streamtape embed page.
func NewStreamtapeResolver(client *scrape.SiteClient) ResolveFunc {
	return func(ctx context.Context, embedURL string) (models.ResolvedStream, error) {
		body, err := client.Get(ctx, embedURL)
		if err != nil {
			return models.ResolvedStream{}, fmt.Errorf("streamtape fetch: %w", err)
		}

		m := reStreamtapeLink.FindStringSubmatch(string(body))
		if m == nil {
			return models.ResolvedStream{}, fmt.Errorf("streamtape: no video link in %s", embedURL)
		}
		// The page prepends a fake token in the first half and skips the
		// first characters of the second half; dropping 4 matches the JS.
		second := m[2]
		if len(second) > 4 {
			second = second[4:]
		}
		videoURL := m[1] + second
		if strings.HasPrefix(videoURL, "//") {
			videoURL = "https:" + videoURL
		}
		return models.ResolvedStream{
			VideoURL: videoURL + "&stream=1",
			Headers:  map[string]string{"Referer": embedURL},
		}, nil
	}
}
