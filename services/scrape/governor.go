package scrape

import (
	"context"
	"fmt"

	"golang.org/x/sync/semaphore"
)

// Governor owns the two process-wide adapter pools: one for cheap HTTP
// plugins, one for expensive browser-backed plugins. Separate pools keep the
// slow class from starving the fast one.
type Governor struct {
	cheap     *semaphore.Weighted
	expensive *semaphore.Weighted
}

// NewGovernor sizes the two pools. Sizes below 1 are raised to 1.
func NewGovernor(cheapSlots, expensiveSlots int) *Governor {
	if cheapSlots < 1 {
		cheapSlots = 1
	}
	if expensiveSlots < 1 {
		expensiveSlots = 1
	}
	return &Governor{
		cheap:     semaphore.NewWeighted(int64(cheapSlots)),
		expensive: semaphore.NewWeighted(int64(expensiveSlots)),
	}
}

// Budget is the per-request handle onto both pools. A single budget hands
// out at most one slot per Acquire call; callers release via the returned
// function on every exit path.
type Budget struct {
	gov *Governor
}

// AcquireRequestBudget grants a request its handle. The handle itself is
// free; slots are taken per plugin call.
func (g *Governor) AcquireRequestBudget() *Budget {
	return &Budget{gov: g}
}

// Acquire blocks until a slot of the given kind is free or ctx is done.
// The returned release function is idempotent.
func (b *Budget) Acquire(ctx context.Context, kind Kind) (func(), error) {
	sem := b.gov.cheap
	if kind == KindExpensive {
		sem = b.gov.expensive
	}
	if err := sem.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("acquire %s slot: %w", kind, err)
	}

	released := false
	return func() {
		if released {
			return
		}
		released = true
		sem.Release(1)
	}, nil
}
