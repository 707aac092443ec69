// Package scrape contains the adapter plumbing: the site plugin contract,
// the concurrency governor, the per-plugin circuit breaker and the invoker
// that ties them together for one plugin call.
package scrape

import (
	"context"
	"log"
	"sort"
	"strings"
	"sync"
	"time"

	"scavengarr/models"
)

// Kind classifies a plugin by its per-request cost.
type Kind string

const (
	KindCheap     Kind = "cheap"     // plain HTTP scraping
	KindExpensive Kind = "expensive" // headless browser
)

// Provides describes what a plugin's results are good for.
type Provides string

const (
	ProvidesStream   Provides = "stream"
	ProvidesDownload Provides = "download"
	ProvidesBoth     Provides = "both"
)

// SearchParams carry the structured part of a search. Season/Episode use -1
// for "unset"; 0 is a valid value.
type SearchParams struct {
	Category int
	Season   int
	Episode  int
}

// Plugin is the contract every site adapter implements.
type Plugin interface {
	// Name is unique and lowercased.
	Name() string
	Provides() Provides
	Kind() Kind
	// DefaultLanguage is applied to links that carry no language label.
	DefaultLanguage() string
	// CacheTTL overrides the global search cache TTL; 0 keeps the global.
	CacheTTL() time.Duration
	Search(ctx context.Context, query string, params SearchParams) ([]models.RawSearchResult, error)
}

// Cleaner is implemented by plugins that hold releasable resources.
type Cleaner interface {
	Cleanup() error
}

// Registry holds the active plugin set, keyed by name. The set can be
// swapped at runtime when the configuration changes.
type Registry struct {
	mu      sync.RWMutex
	plugins map[string]Plugin
}

// NewRegistry creates a registry from an initial plugin set. Plugins with
// duplicate or empty names are dropped with a log line.
func NewRegistry(plugins ...Plugin) *Registry {
	r := &Registry{plugins: make(map[string]Plugin)}
	r.Reload(plugins)
	return r
}

// Reload replaces the active plugin set.
func (r *Registry) Reload(plugins []Plugin) {
	next := make(map[string]Plugin, len(plugins))
	for _, p := range plugins {
		if p == nil {
			continue
		}
		name := strings.ToLower(strings.TrimSpace(p.Name()))
		if name == "" {
			log.Printf("[scrape] dropping plugin with empty name")
			continue
		}
		if _, dup := next[name]; dup {
			log.Printf("[scrape] dropping duplicate plugin %q", name)
			continue
		}
		next[name] = p
	}

	r.mu.Lock()
	r.plugins = next
	r.mu.Unlock()
	log.Printf("[scrape] registry loaded %d plugin(s)", len(next))
}

// Get returns the plugin registered under name.
func (r *Registry) Get(name string) (Plugin, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.plugins[strings.ToLower(name)]
	return p, ok
}

// StreamProviders returns all plugins that produce playable streams, in
// stable name order.
func (r *Registry) StreamProviders() []Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Plugin, 0, len(r.plugins))
	for _, p := range r.plugins {
		if p.Provides() == ProvidesStream || p.Provides() == ProvidesBoth {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out
}

// All returns every registered plugin in stable name order.
func (r *Registry) All() []Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Plugin, 0, len(r.plugins))
	for _, p := range r.plugins {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out
}

// Cleanup calls Cleanup on every plugin that has one.
func (r *Registry) Cleanup() {
	for _, p := range r.All() {
		if c, ok := p.(Cleaner); ok {
			if err := c.Cleanup(); err != nil {
				log.Printf("[scrape] cleanup of %q failed: %v", p.Name(), err)
			}
		}
	}
}
