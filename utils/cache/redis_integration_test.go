package cache

import (
	"context"
	"os"
	"testing"
	"time"
)

// TestRedisCacheRoundTrip exercises the cache against a real Redis instance.
// This test requires:
// 1. RUN_INTEGRATION_TESTS=true
// 2. REDIS_URL to be set (or Redis running locally on :6379)
func TestRedisCacheRoundTrip(t *testing.T) {
	if os.Getenv("RUN_INTEGRATION_TESTS") != "true" {
		t.Skip("Skipping integration test. Set RUN_INTEGRATION_TESTS=true to run")
	}

	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		redisURL = "redis://localhost:6379/0"
	}

	cache, err := NewRedisCache(redisURL)
	if err != nil {
		t.Fatalf("failed to connect to Redis: %v", err)
	}
	defer cache.Close()

	ctx := context.Background()
	key := "test:cache:roundtrip"
	defer cache.Delete(ctx, key)

	type payload struct {
		IDs map[uint]bool `json:"ids"`
	}
	want := payload{IDs: map[uint]bool{1: true, 2: false, 7: true}}

	if err := cache.SetJSON(ctx, key, want, time.Minute); err != nil {
		t.Fatalf("SetJSON failed: %v", err)
	}

	var got payload
	if err := cache.GetJSON(ctx, key, &got); err != nil {
		t.Fatalf("GetJSON failed: %v", err)
	}
	if len(got.IDs) != len(want.IDs) {
		t.Errorf("got %d entries, want %d", len(got.IDs), len(want.IDs))
	}
	for id, visible := range want.IDs {
		if got.IDs[id] != visible {
			t.Errorf("IDs[%d] = %v, want %v", id, got.IDs[id], visible)
		}
	}

	if err := cache.Delete(ctx, key); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if err := cache.GetJSON(ctx, key, &got); err != ErrNotFound {
		t.Errorf("GetJSON after delete = %v, want ErrNotFound", err)
	}
}
