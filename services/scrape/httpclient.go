package scrape

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"

// SiteClient is the shared HTTP client used by cheap plugins. It rate-limits
// per upstream host so a fan-out of queries does not hammer a single site.
type SiteClient struct {
	client *http.Client

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	perHost  rate.Limit
	burst    int
}

// NewSiteClient builds a client allowing requestsPerSecond sustained requests
// per host with a small burst.
func NewSiteClient(timeout time.Duration, requestsPerSecond float64) *SiteClient {
	if requestsPerSecond <= 0 {
		requestsPerSecond = 4
	}
	return &SiteClient{
		client: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return fmt.Errorf("too many redirects for %s", req.URL)
				}
				return nil
			},
		},
		limiters: make(map[string]*rate.Limiter),
		perHost:  rate.Limit(requestsPerSecond),
		burst:    3,
	}
}

func (c *SiteClient) limiterFor(host string) *rate.Limiter {
	c.mu.Lock()
	defer c.mu.Unlock()
	l, ok := c.limiters[host]
	if !ok {
		l = rate.NewLimiter(c.perHost, c.burst)
		c.limiters[host] = l
	}
	return l
}

// Get fetches rawURL and returns the body. Non-2xx responses are errors.
func (c *SiteClient) Get(ctx context.Context, rawURL string) ([]byte, error) {
	resp, err := c.Do(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		io.Copy(io.Discard, resp.Body) //nolint:errcheck
		return nil, fmt.Errorf("GET %s: status %d", rawURL, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rawURL, err)
	}
	return body, nil
}

// Head issues a HEAD request and reports the status code. The body is never
// downloaded; used by the liveness probe.
func (c *SiteClient) Head(ctx context.Context, rawURL string) (int, error) {
	resp, err := c.Do(ctx, http.MethodHead, rawURL, nil)
	if err != nil {
		return 0, err
	}
	io.Copy(io.Discard, resp.Body) //nolint:errcheck
	resp.Body.Close()
	return resp.StatusCode, nil
}

// Do performs a rate-limited request. Status handling is left to callers;
// transport errors and rate-limit cancellation are the only error cases.
func (c *SiteClient) Do(ctx context.Context, method, rawURL string, headers map[string]string) (*http.Response, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse %q: %w", rawURL, err)
	}
	if err := c.limiterFor(u.Host).Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", defaultUserAgent)
	req.Header.Set("Accept-Language", "de-DE,de;q=0.9,en;q=0.5")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return c.client.Do(req)
}
