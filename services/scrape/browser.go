package scrape

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"
)

// Browser is the headless-browser collaborator used by expensive plugins.
// Navigation and rendering live outside the core; plugins only consume the
// rendered document.
type Browser interface {
	// FetchRendered navigates to url and returns the rendered HTML.
	FetchRendered(ctx context.Context, url string) (string, error)
	// Connected reports whether the underlying instance is still usable.
	Connected() bool
	Close() error
}

// BrowserLauncher starts (or reconnects) a browser instance. Cold starts
// take around a second, which is why the instance is shared.
type BrowserLauncher func(ctx context.Context) (Browser, error)

// BrowserPool shares one browser instance across all expensive plugins.
// Warm-up is idempotent and concurrent-safe: the first caller launches, all
// concurrent callers await that launch. A disconnected instance is relaunched
// on the next Get.
type BrowserPool struct {
	launcher BrowserLauncher

	mu      sync.Mutex
	browser Browser
	warming chan struct{}
	warmErr error
}

// NewBrowserPool creates a pool around the launcher. The pool does not
// launch eagerly; the first Get pays the cold start.
func NewBrowserPool(launcher BrowserLauncher) *BrowserPool {
	return &BrowserPool{launcher: launcher}
}

// Get returns the shared, warmed-up browser. Concurrency is already capped
// by the expensive semaphore, so Get itself does not limit callers.
func (p *BrowserPool) Get(ctx context.Context) (Browser, error) {
	if p.launcher == nil {
		return nil, errors.New("no browser launcher configured")
	}

	p.mu.Lock()
	if p.browser != nil && p.browser.Connected() {
		b := p.browser
		p.mu.Unlock()
		return b, nil
	}
	if p.warming == nil {
		p.warming = make(chan struct{})
		go p.warmUp()
	}
	warming := p.warming
	p.mu.Unlock()

	select {
	case <-warming:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.warmErr != nil {
		return nil, p.warmErr
	}
	if p.browser == nil || !p.browser.Connected() {
		return nil, errors.New("browser disconnected during warm-up")
	}
	return p.browser, nil
}

func (p *BrowserPool) warmUp() {
	start := time.Now()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	browser, err := p.launcher(ctx)

	p.mu.Lock()
	defer p.mu.Unlock()
	if err != nil {
		log.Printf("[browser] warm-up failed: %v", err)
		p.warmErr = err
		p.browser = nil
	} else {
		log.Printf("[browser] warmed up in %s", time.Since(start).Round(10*time.Millisecond))
		p.warmErr = nil
		p.browser = browser
	}
	close(p.warming)
	p.warming = nil
}

// Close shuts the shared instance down.
func (p *BrowserPool) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.browser == nil {
		return nil
	}
	err := p.browser.Close()
	p.browser = nil
	return err
}
