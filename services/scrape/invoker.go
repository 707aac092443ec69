package scrape

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"scavengarr/models"
)

// Invoker runs one plugin search under the governor, the circuit breaker and
// the per-plugin timeout. A failing plugin yields an empty result set, a
// breaker update and an error the caller may surface or drop.
type Invoker struct {
	breakers   *BreakerRegistry
	timeout    time.Duration
	maxResults int
	cache      *SearchCache // nil disables search-result caching
}

// NewInvoker wires an invoker. maxResults caps each plugin's output before
// later pipeline stages see it.
func NewInvoker(breakers *BreakerRegistry, timeout time.Duration, maxResults int, cache *SearchCache) *Invoker {
	if maxResults < 1 {
		maxResults = 50
	}
	return &Invoker{breakers: breakers, timeout: timeout, maxResults: maxResults, cache: cache}
}

// ErrCircuitOpen marks a call skipped because the plugin's circuit was open.
var ErrCircuitOpen = errors.New("circuit open")

// Invoke performs one isolated plugin call. The returned slice is empty on
// any failure. Plugin failures come back as errors so callers can decide
// whether to surface them; they never reach end clients as an HTTP error on
// the stream path.
func (inv *Invoker) Invoke(ctx context.Context, plugin Plugin, budget *Budget, query string, params SearchParams) ([]models.RawSearchResult, error) {
	name := plugin.Name()

	if inv.cache != nil {
		if results, ok := inv.cache.Get(ctx, name, query, params); ok {
			metricSearchCache.WithLabelValues("hit").Inc()
			return results, nil
		}
		metricSearchCache.WithLabelValues("miss").Inc()
	}

	if !inv.breakers.Allow(name) {
		metricBreakerSkips.WithLabelValues(name).Inc()
		log.Printf("[invoke] %s skipped, circuit open", name)
		return nil, fmt.Errorf("plugin %s: %w", name, ErrCircuitOpen)
	}

	release, err := budget.Acquire(ctx, plugin.Kind())
	if err != nil {
		// Cancellation is not a plugin failure, but a half-open probe slot
		// must not stay reserved for a call that never ran.
		inv.breakers.Abort(name)
		return nil, err
	}
	defer release()

	callCtx, cancel := context.WithTimeout(ctx, inv.timeout)
	defer cancel()

	start := time.Now()
	results, err := inv.search(callCtx, plugin, query, params)
	metricPluginDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())

	if err != nil {
		if ctx.Err() != nil {
			// The whole request went away; don't punish the plugin.
			inv.breakers.Abort(name)
			return nil, ctx.Err()
		}
		inv.breakers.OnFailure(name)
		metricPluginCalls.WithLabelValues(name, "failure").Inc()
		log.Printf("[invoke] %s failed after %s: %v", name, time.Since(start).Round(10*time.Millisecond), err)
		return nil, fmt.Errorf("plugin %s: %w", name, err)
	}

	inv.breakers.OnSuccess(name)
	metricPluginCalls.WithLabelValues(name, "success").Inc()

	if len(results) > inv.maxResults {
		results = results[:inv.maxResults]
	}

	// Drop results the pipeline could never use.
	usable := results[:0]
	for _, r := range results {
		if r.Usable() {
			usable = append(usable, r)
		}
	}
	results = usable

	if inv.cache != nil {
		inv.cache.Set(ctx, name, query, params, plugin.CacheTTL(), results)
	}
	log.Printf("[invoke] %s produced %d result(s) for %q in %s", name, len(results), query, time.Since(start).Round(10*time.Millisecond))
	return results, nil
}

// search shields the pipeline from panicking plugin code.
func (inv *Invoker) search(ctx context.Context, plugin Plugin, query string, params SearchParams) (results []models.RawSearchResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			results = nil
			err = fmt.Errorf("plugin %s panicked: %v", plugin.Name(), r)
		}
	}()
	return plugin.Search(ctx, query, params)
}
