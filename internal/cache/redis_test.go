package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

func setupTestRedis(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	s := miniredis.RunT(t)
	store, err := NewRedisStore("redis://" + s.Addr())
	if err != nil {
		t.Fatalf("failed to create redis cache: %v", err)
	}
	return store, s
}

func TestRedisGetAfterSet(t *testing.T) {
	store, s := setupTestRedis(t)
	defer store.Close()
	defer s.Close()

	ctx := context.Background()
	if err := store.Set(ctx, ChatKey("i1"), []byte("transcript"), time.Minute); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	data, ok, err := store.Get(ctx, ChatKey("i1"))
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !ok || string(data) != "transcript" {
		t.Fatalf("expected cached transcript, got ok=%v data=%q", ok, data)
	}
}

func TestRedisTTLExpiry(t *testing.T) {
	store, s := setupTestRedis(t)
	defer store.Close()
	defer s.Close()

	ctx := context.Background()
	if err := store.Set(ctx, "k", []byte("v"), 100*time.Millisecond); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	s.FastForward(101 * time.Millisecond)

	if _, ok, _ := store.Get(ctx, "k"); ok {
		t.Fatal("expected expired key to report absent")
	}
}

func TestRedisDeleteAndClearScopedToPrefix(t *testing.T) {
	store, s := setupTestRedis(t)
	defer store.Close()
	defer s.Close()

	ctx := context.Background()
	_ = store.Set(ctx, "a", []byte("1"), time.Minute)
	_ = store.Set(ctx, "b", []byte("2"), time.Minute)
	s.Set("unrelated", "keep")

	if err := store.Delete(ctx, "a"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, ok, _ := store.Get(ctx, "a"); ok {
		t.Fatal("expected a deleted")
	}

	if err := store.Clear(ctx); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if _, ok, _ := store.Get(ctx, "b"); ok {
		t.Fatal("expected b cleared")
	}
	if _, err := s.Get("unrelated"); err != nil {
		t.Fatal("Clear must not touch keys outside the cache prefix")
	}
}
