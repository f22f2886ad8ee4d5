package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"material-search-be/internal/pkg/logger"
	"material-search-be/pkg/store"

	"github.com/google/uuid"
)

func envelope(mode store.Mode) *store.ResponseEnvelope {
	return &store.ResponseEnvelope{
		Mode:          mode,
		BackendStatus: map[store.Backend]store.BackendState{store.BackendChunk: store.BackendOK},
	}
}

func TestGetOrComputeCachesResult(t *testing.T) {
	c := NewResponseCache(NewMemoryStore(time.Minute), time.Minute, logger.NewNopLogger())
	wsId := uuid.New()
	computeCalls := 0

	compute := func(context.Context) (*store.ResponseEnvelope, error) {
		computeCalls++
		return envelope(store.ModeQuick), nil
	}

	_, fromCache, err := c.GetOrCompute(context.Background(), "key-1", wsId, compute)
	if err != nil {
		t.Fatalf("first call: %v", err)
	}
	if fromCache {
		t.Error("first call unexpectedly served from cache")
	}

	_, fromCache, err = c.GetOrCompute(context.Background(), "key-1", wsId, compute)
	if err != nil {
		t.Fatalf("second call: %v", err)
	}
	if !fromCache {
		t.Error("second call not served from cache")
	}
	if computeCalls != 1 {
		t.Errorf("compute ran %d times, want 1", computeCalls)
	}
}

func TestGetOrComputeSingleflight(t *testing.T) {
	c := NewResponseCache(NewMemoryStore(time.Minute), time.Minute, logger.NewNopLogger())
	wsId := uuid.New()

	var computeCalls int64
	release := make(chan struct{})
	compute := func(context.Context) (*store.ResponseEnvelope, error) {
		atomic.AddInt64(&computeCalls, 1)
		<-release
		return envelope(store.ModeQuick), nil
	}

	const callers = 8
	var wg sync.WaitGroup
	started := make(chan struct{}, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			started <- struct{}{}
			if _, _, err := c.GetOrCompute(context.Background(), "hot-key", wsId, compute); err != nil {
				t.Errorf("caller failed: %v", err)
			}
		}()
	}

	for i := 0; i < callers; i++ {
		<-started
	}
	// Give the stragglers a beat to join the in-flight computation.
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	if n := atomic.LoadInt64(&computeCalls); n != 1 {
		t.Errorf("compute ran %d times for %d concurrent callers, want 1", n, callers)
	}
}

func TestGetOrComputePropagatesComputeError(t *testing.T) {
	c := NewResponseCache(NewMemoryStore(time.Minute), time.Minute, logger.NewNopLogger())
	wsId := uuid.New()
	wantErr := errors.New("backend exploded")

	_, _, err := c.GetOrCompute(context.Background(), "key-err", wsId, func(context.Context) (*store.ResponseEnvelope, error) {
		return nil, wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("err = %v, want %v", err, wantErr)
	}

	// Errors are not cached: the next call computes again.
	env, fromCache, err := c.GetOrCompute(context.Background(), "key-err", wsId, func(context.Context) (*store.ResponseEnvelope, error) {
		return envelope(store.ModeQuick), nil
	})
	if err != nil || env == nil || fromCache {
		t.Fatalf("recovery call = (%v, %v, %v), want fresh envelope", env, fromCache, err)
	}
}

func TestInvalidateWorkspaceIsScoped(t *testing.T) {
	memStore := NewMemoryStore(time.Minute)
	c := NewResponseCache(memStore, time.Minute, logger.NewNopLogger())
	wsA := uuid.New()
	wsB := uuid.New()

	seed := func(key string, ws uuid.UUID) {
		_, _, err := c.GetOrCompute(context.Background(), key, ws, func(context.Context) (*store.ResponseEnvelope, error) {
			return envelope(store.ModeQuick), nil
		})
		if err != nil {
			t.Fatalf("seed %s: %v", key, err)
		}
	}
	seed("a-1", wsA)
	seed("a-2", wsA)
	seed("b-1", wsB)

	if err := c.InvalidateWorkspace(context.Background(), wsA); err != nil {
		t.Fatalf("invalidate: %v", err)
	}

	for _, key := range []string{"a-1", "a-2"} {
		if _, found, _ := memStore.Get(context.Background(), key); found {
			t.Errorf("key %s survived workspace invalidation", key)
		}
	}
	if _, found, _ := memStore.Get(context.Background(), "b-1"); !found {
		t.Error("workspace B entry was wrongly invalidated")
	}
}

type failingStore struct {
	getErr error
	setErr error
}

func (f *failingStore) Get(context.Context, string) (*store.ResponseEnvelope, bool, error) {
	return nil, false, f.getErr
}

func (f *failingStore) Set(context.Context, string, uuid.UUID, *store.ResponseEnvelope, time.Duration) error {
	return f.setErr
}

func (f *failingStore) InvalidateWorkspace(context.Context, uuid.UUID) error {
	return nil
}

func TestStoreFailuresAreNonFatal(t *testing.T) {
	c := NewResponseCache(&failingStore{
		getErr: errors.New("read failed"),
		setErr: errors.New("write failed"),
	}, time.Minute, logger.NewNopLogger())

	env, fromCache, err := c.GetOrCompute(context.Background(), "key", uuid.New(), func(context.Context) (*store.ResponseEnvelope, error) {
		return envelope(store.ModeQuick), nil
	})
	if err != nil {
		t.Fatalf("store failure surfaced as request failure: %v", err)
	}
	if env == nil || fromCache {
		t.Errorf("expected fresh computation, got (%v, %v)", env, fromCache)
	}
}

func TestFingerprintStability(t *testing.T) {
	wsId := uuid.New()
	avail := true
	min, max := 10.0, 50.0

	a := Fingerprint(wsId, "taupe tile", store.ModeQuick, store.Filters{
		MaterialTypes: []string{"Porcelain", "ceramic"},
		Availability:  &avail,
		PriceMin:      &min,
		PriceMax:      &max,
	}, 10)
	b := Fingerprint(wsId, "taupe tile", store.ModeQuick, store.Filters{
		MaterialTypes: []string{"ceramic", "porcelain"},
		Availability:  &avail,
		PriceMin:      &min,
		PriceMax:      &max,
	}, 10)
	if a != b {
		t.Error("logically identical filter sets produced different fingerprints")
	}

	variants := []string{
		Fingerprint(uuid.New(), "taupe tile", store.ModeQuick, store.Filters{}, 10),
		Fingerprint(wsId, "taupe tiles", store.ModeQuick, store.Filters{}, 10),
		Fingerprint(wsId, "taupe tile", store.ModeDetailed, store.Filters{}, 10),
		Fingerprint(wsId, "taupe tile", store.ModeQuick, store.Filters{}, 20),
	}
	base := Fingerprint(wsId, "taupe tile", store.ModeQuick, store.Filters{}, 10)
	for i, v := range variants {
		if v == base {
			t.Errorf("variant %d collided with base fingerprint", i)
		}
	}
	if base != Fingerprint(wsId, "taupe tile", store.ModeQuick, store.Filters{}, 10) {
		t.Error("identical inputs produced different fingerprints")
	}
}
