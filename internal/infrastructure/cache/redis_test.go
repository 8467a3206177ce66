package cache

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})

	t.Cleanup(func() {
		client.Close()
		mr.Close()
	})

	return mr, client
}

func TestRedisResponseCache_GetSet(t *testing.T) {
	_, client := setupTestRedis(t)

	c := NewRedisResponseCache(client, time.Hour)
	ctx := context.Background()

	key := "https://maps.googleapis.com/maps/api/place/details/json?place_id=P1&key=k"
	body := []byte(`{"reviews":[{"rating":5}]}`)

	got, err := c.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got != nil {
		t.Fatalf("expected miss on empty cache, got %q", got)
	}

	if err := c.Set(ctx, key, body); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	got, err = c.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !bytes.Equal(got, body) {
		t.Errorf("Get = %q, want byte-identical %q", got, body)
	}
}

func TestRedisResponseCache_TTLExpiry(t *testing.T) {
	mr, client := setupTestRedis(t)

	c := NewRedisResponseCache(client, time.Hour)
	ctx := context.Background()

	if err := c.Set(ctx, "k", []byte("v")); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	mr.FastForward(time.Hour + time.Second)

	got, err := c.Get(ctx, "k")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got != nil {
		t.Errorf("expected miss after TTL, got %q", got)
	}
}

func TestRedisResponseCache_KeysIsolatedByURL(t *testing.T) {
	_, client := setupTestRedis(t)

	c := NewRedisResponseCache(client, time.Hour)
	ctx := context.Background()

	if err := c.Set(ctx, "url-a", []byte("a")); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	got, err := c.Get(ctx, "url-b")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got != nil {
		t.Errorf("expected miss for different URL key, got %q", got)
	}
}
