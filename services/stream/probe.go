package stream

import (
	"context"
	"log"
	"net/http"
	"time"

	"golang.org/x/sync/semaphore"

	"scavengarr/config"
	"scavengarr/models"
)

// HeadClient issues the liveness HEAD requests, satisfied by scrape.SiteClient.
type HeadClient interface {
	Head(ctx context.Context, url string) (int, error)
}

// Prober drops dead embeds from the top of the ranked list. Only the first
// maxProbeCount streams are probed; the rest pass unprobed. Survivor order
// matches the incoming order.
type Prober struct {
	client  HeadClient
	slots   *semaphore.Weighted
	maxN    int
	timeout time.Duration
}

func NewProber(client HeadClient, cfg config.ProbeSettings) *Prober {
	concurrency := cfg.ProbeConcurrency
	if concurrency < 1 {
		concurrency = 1
	}
	timeout := time.Duration(cfg.ProbeTimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Prober{
		client:  client,
		slots:   semaphore.NewWeighted(int64(concurrency)),
		maxN:    cfg.MaxProbeCount,
		timeout: timeout,
	}
}

// Probe returns streams with dead probed entries removed.
func (p *Prober) Probe(ctx context.Context, streams []models.RankedStream) []models.RankedStream {
	n := p.maxN
	if n <= 0 || n > len(streams) {
		n = len(streams)
	}

	alive := make([]bool, len(streams))
	done := make(chan struct{})
	pending := n

	for i := 0; i < n; i++ {
		go func(i int) {
			defer func() {
				done <- struct{}{}
			}()
			if err := p.slots.Acquire(ctx, 1); err != nil {
				// Cancellation mid-probe: let the stream through.
				alive[i] = true
				return
			}
			defer p.slots.Release(1)
			alive[i] = p.isAlive(ctx, streams[i].URL)
		}(i)
	}
	for ; pending > 0; pending-- {
		<-done
	}

	survivors := make([]models.RankedStream, 0, len(streams))
	for i, rs := range streams {
		if i >= n || alive[i] {
			survivors = append(survivors, rs)
		}
	}
	return survivors
}

func (p *Prober) isAlive(ctx context.Context, url string) bool {
	probeCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	status, err := p.client.Head(probeCtx, url)
	if err != nil {
		log.Printf("[probe] %s unreachable: %v", url, err)
		return false
	}
	// Hosters answer embeds with all sorts of 2xx/3xx; only hard failures
	// mark a stream dead.
	if status >= 400 && status != http.StatusMethodNotAllowed {
		log.Printf("[probe] %s dead: status %d", url, status)
		return false
	}
	return true
}
