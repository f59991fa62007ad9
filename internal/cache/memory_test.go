package cache

import (
	"context"
	"errors"
	"testing"
	"time"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time            { return c.now }
func (c *fakeClock) Advance(d time.Duration)   { c.now = c.now.Add(d) }

func newClockedStore() (*MemoryStore, *fakeClock) {
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	return newMemoryStoreWithClock(clock.Now), clock
}

func TestGetAfterSetReturnsValue(t *testing.T) {
	store, _ := newClockedStore()
	ctx := context.Background()

	if err := store.Set(ctx, IdeaKey("u1", "i1"), []byte("payload"), time.Minute); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	data, ok, err := store.Get(ctx, IdeaKey("u1", "i1"))
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !ok || string(data) != "payload" {
		t.Fatalf("expected cached payload, got ok=%v data=%q", ok, data)
	}
}

func TestGetAfterTTLExpiresAndEvicts(t *testing.T) {
	store, clock := newClockedStore()
	ctx := context.Background()

	if err := store.Set(ctx, "k", []byte("v"), 50*time.Millisecond); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	clock.Advance(51 * time.Millisecond)

	if _, ok, _ := store.Get(ctx, "k"); ok {
		t.Fatal("expected expired entry to report absent")
	}
	if store.len() != 0 {
		t.Fatalf("expected lazy eviction to remove entry, %d remain", store.len())
	}
}

func TestEntryFreshJustBeforeTTL(t *testing.T) {
	store, clock := newClockedStore()
	ctx := context.Background()

	_ = store.Set(ctx, "k", []byte("v"), 100*time.Millisecond)
	clock.Advance(100 * time.Millisecond)

	if _, ok, _ := store.Get(ctx, "k"); !ok {
		t.Fatal("entry at exactly its ttl should still be fresh")
	}
}

func TestCleanupSweepsPerEntryTTL(t *testing.T) {
	store, clock := newClockedStore()
	ctx := context.Background()

	_ = store.Set(ctx, "short", []byte("a"), 10*time.Millisecond)
	_ = store.Set(ctx, "long", []byte("b"), time.Hour)

	clock.Advance(time.Minute)
	store.Cleanup()

	if _, ok, _ := store.Get(ctx, "short"); ok {
		t.Fatal("expected short-ttl entry swept")
	}
	if _, ok, _ := store.Get(ctx, "long"); !ok {
		t.Fatal("expected long-ttl entry kept")
	}
}

func TestDeleteAndClear(t *testing.T) {
	store, _ := newClockedStore()
	ctx := context.Background()

	_ = store.Set(ctx, "a", []byte("1"), time.Minute)
	_ = store.Set(ctx, "b", []byte("2"), time.Minute)
	_ = store.Set(ctx, "c", []byte("3"), time.Minute)

	if err := store.Delete(ctx, "a", "b"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, ok, _ := store.Get(ctx, "a"); ok {
		t.Fatal("expected a deleted")
	}
	if _, ok, _ := store.Get(ctx, "c"); !ok {
		t.Fatal("expected c kept")
	}

	if err := store.Clear(ctx); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if store.len() != 0 {
		t.Fatal("expected empty store after Clear")
	}
}

func TestWithCacheFetchesOnceWhileFresh(t *testing.T) {
	store, _ := newClockedStore()
	ctx := context.Background()

	calls := 0
	fetcher := func() ([]byte, error) {
		calls++
		return []byte("fetched"), nil
	}

	for i := 0; i < 3; i++ {
		data, err := WithCache(ctx, store, "k", time.Minute, fetcher)
		if err != nil {
			t.Fatalf("WithCache failed: %v", err)
		}
		if string(data) != "fetched" {
			t.Fatalf("unexpected data %q", data)
		}
	}
	if calls != 1 {
		t.Fatalf("expected 1 fetch, got %d", calls)
	}
}

func TestWithCacheFetchErrorNotCached(t *testing.T) {
	store, _ := newClockedStore()
	ctx := context.Background()

	fetchErr := errors.New("upstream down")
	if _, err := WithCache(ctx, store, "k", time.Minute, func() ([]byte, error) {
		return nil, fetchErr
	}); !errors.Is(err, fetchErr) {
		t.Fatalf("expected fetch error, got %v", err)
	}
	if store.len() != 0 {
		t.Fatal("failed fetch must not populate the cache")
	}
}

func TestIdeaRelatedKeysCoverResearchTypes(t *testing.T) {
	keys := IdeaRelatedKeys("u1", "i1")
	want := map[string]bool{
		"idea:u1:i1":              false,
		"ideas:u1":                false,
		"research:i1:competitor":  false,
		"research:i1:monetization": false,
		"research:i1:naming":      false,
	}
	for _, key := range keys {
		if _, ok := want[key]; ok {
			want[key] = true
		}
	}
	for key, seen := range want {
		if !seen {
			t.Fatalf("expected related keys to include %s", key)
		}
	}
}
