package scrape

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
)

type fakeBrowser struct {
	connected atomic.Bool
}

func (b *fakeBrowser) FetchRendered(ctx context.Context, url string) (string, error) {
	return "<html></html>", nil
}
func (b *fakeBrowser) Connected() bool { return b.connected.Load() }
func (b *fakeBrowser) Close() error {
	b.connected.Store(false)
	return nil
}

func TestBrowserPoolWarmUpOnce(t *testing.T) {
	var launches atomic.Int32
	pool := NewBrowserPool(func(ctx context.Context) (Browser, error) {
		launches.Add(1)
		b := &fakeBrowser{}
		b.connected.Store(true)
		return b, nil
	})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := pool.Get(context.Background()); err != nil {
				t.Errorf("get: %v", err)
			}
		}()
	}
	wg.Wait()

	if n := launches.Load(); n != 1 {
		t.Fatalf("expected a single warm-up, got %d", n)
	}
}

func TestBrowserPoolRelaunchAfterDisconnect(t *testing.T) {
	var launches atomic.Int32
	pool := NewBrowserPool(func(ctx context.Context) (Browser, error) {
		launches.Add(1)
		b := &fakeBrowser{}
		b.connected.Store(true)
		return b, nil
	})

	b1, err := pool.Get(context.Background())
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	b1.Close() // simulate disconnect

	b2, err := pool.Get(context.Background())
	if err != nil {
		t.Fatalf("get after disconnect: %v", err)
	}
	if b2 == b1 && !b2.Connected() {
		t.Fatal("expected a fresh instance after disconnect")
	}
	if launches.Load() != 2 {
		t.Fatalf("expected relaunch, got %d launches", launches.Load())
	}
}

func TestBrowserPoolLaunchFailure(t *testing.T) {
	pool := NewBrowserPool(func(ctx context.Context) (Browser, error) {
		return nil, errors.New("no chromium")
	})
	if _, err := pool.Get(context.Background()); err == nil {
		t.Fatal("expected launch error")
	}
}

func TestBrowserPoolNoLauncher(t *testing.T) {
	pool := NewBrowserPool(nil)
	if _, err := pool.Get(context.Background()); err == nil {
		t.Fatal("expected error without launcher")
	}
}
