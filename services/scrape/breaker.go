package scrape

import (
	"log"
	"sync"
	"time"
)

// BreakerState is the lifecycle of one plugin's circuit.
type BreakerState string

const (
	BreakerClosed   BreakerState = "closed"
	BreakerOpen     BreakerState = "open"
	BreakerHalfOpen BreakerState = "half_open"
)

// breaker is the per-plugin state machine. Only adapter-level failures
// (timeouts, transport errors, panics) count; empty results are a success.
type breaker struct {
	mu       sync.Mutex
	state    BreakerState
	failures int
	openedAt time.Time
	probing  bool // a half-open probe call is in flight
}

// BreakerRegistry tracks one breaker per plugin name. The registry map is
// read-mostly; each breaker mutates under its own mutex.
type BreakerRegistry struct {
	mu        sync.RWMutex
	breakers  map[string]*breaker
	threshold int
	cooldown  time.Duration
}

// NewBreakerRegistry creates a registry that opens a circuit after
// threshold consecutive failures and probes again after cooldown.
func NewBreakerRegistry(threshold int, cooldown time.Duration) *BreakerRegistry {
	if threshold < 1 {
		threshold = 1
	}
	return &BreakerRegistry{
		breakers:  make(map[string]*breaker),
		threshold: threshold,
		cooldown:  cooldown,
	}
}

func (r *BreakerRegistry) get(name string) *breaker {
	r.mu.RLock()
	b, ok := r.breakers[name]
	r.mu.RUnlock()
	if ok {
		return b
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if b, ok = r.breakers[name]; ok {
		return b
	}
	b = &breaker{state: BreakerClosed}
	r.breakers[name] = b
	return b
}

// Allow reports whether the plugin may run now. An open circuit whose
// cooldown has elapsed moves to half-open and admits exactly one probe call
// until its outcome is recorded.
func (r *BreakerRegistry) Allow(name string) bool {
	b := r.get(name)
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case BreakerClosed:
		return true
	case BreakerOpen:
		if time.Since(b.openedAt) < r.cooldown {
			return false
		}
		b.state = BreakerHalfOpen
		b.probing = true
		log.Printf("[breaker] %s: open -> half_open", name)
		return true
	case BreakerHalfOpen:
		if b.probing {
			return false
		}
		b.probing = true
		return true
	}
	return false
}

// Abort records that an admitted call ended without an outcome, e.g. the
// surrounding request was cancelled before the plugin ran to completion.
// It frees the half-open probe slot so the next caller may probe again.
func (r *BreakerRegistry) Abort(name string) {
	b := r.get(name)
	b.mu.Lock()
	defer b.mu.Unlock()
	b.probing = false
}

// OnSuccess records a successful plugin call.
func (r *BreakerRegistry) OnSuccess(name string) {
	b := r.get(name)
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == BreakerHalfOpen {
		log.Printf("[breaker] %s: half_open -> closed", name)
	}
	b.state = BreakerClosed
	b.failures = 0
	b.probing = false
}

// OnFailure records a failed plugin call and opens the circuit once the
// threshold is reached.
func (r *BreakerRegistry) OnFailure(name string) {
	b := r.get(name)
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == BreakerHalfOpen {
		b.state = BreakerOpen
		b.openedAt = time.Now()
		b.probing = false
		log.Printf("[breaker] %s: half_open -> open", name)
		return
	}

	b.failures++
	if b.state == BreakerClosed && b.failures >= r.threshold {
		b.state = BreakerOpen
		b.openedAt = time.Now()
		log.Printf("[breaker] %s: closed -> open after %d failure(s)", name, b.failures)
	}
}

// Snapshot describes one plugin's breaker for the health endpoint.
type Snapshot struct {
	Name     string       `json:"name"`
	State    BreakerState `json:"state"`
	Failures int          `json:"failures"`
}

// Snapshots returns the current state of every known breaker.
func (r *BreakerRegistry) Snapshots() []Snapshot {
	r.mu.RLock()
	names := make([]string, 0, len(r.breakers))
	for name := range r.breakers {
		names = append(names, name)
	}
	r.mu.RUnlock()

	out := make([]Snapshot, 0, len(names))
	for _, name := range names {
		b := r.get(name)
		b.mu.Lock()
		out = append(out, Snapshot{Name: name, State: b.state, Failures: b.failures})
		b.mu.Unlock()
	}
	return out
}
