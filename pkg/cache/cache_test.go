package cache

import (
	"context"
	"strings"
	"testing"
	"time"
)

func TestFileCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}
	defer c.Close()

	payload := []byte(`<svg width="100" height="100"></svg>`)
	if err := c.Set(ctx, "stage:convert:abc", payload, time.Hour); err != nil {
		t.Fatalf("Set error: %v", err)
	}

	data, hit, err := c.Get(ctx, "stage:convert:abc")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if !hit {
		t.Fatal("expected cache hit")
	}
	if string(data) != string(payload) {
		t.Errorf("payload mismatch: %q", data)
	}

	// Unknown key is a miss, not an error.
	_, hit, err = c.Get(ctx, "stage:convert:other")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if hit {
		t.Error("unknown key should miss")
	}
}

func TestFileCacheExpiry(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}
	defer c.Close()

	if err := c.Set(ctx, "key", []byte("stale"), -time.Second); err != nil {
		t.Fatalf("Set error: %v", err)
	}
	if _, hit, _ := c.Get(ctx, "key"); hit {
		t.Error("expired entry should miss")
	}

	// Zero TTL means no expiration.
	if err := c.Set(ctx, "forever", []byte("fresh"), 0); err != nil {
		t.Fatalf("Set error: %v", err)
	}
	if _, hit, _ := c.Get(ctx, "forever"); !hit {
		t.Error("zero-TTL entry should hit")
	}
}

func TestFileCacheDelete(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}
	defer c.Close()

	if err := c.Set(ctx, "key", []byte("value"), time.Hour); err != nil {
		t.Fatalf("Set error: %v", err)
	}
	if err := c.Delete(ctx, "key"); err != nil {
		t.Fatalf("Delete error: %v", err)
	}
	if _, hit, _ := c.Get(ctx, "key"); hit {
		t.Error("deleted entry should miss")
	}

	// Deleting a missing key is not an error.
	if err := c.Delete(ctx, "missing"); err != nil {
		t.Errorf("Delete of missing key: %v", err)
	}
}

func TestNullCache(t *testing.T) {
	ctx := context.Background()
	c := NewNullCache()
	defer c.Close()

	// Get always returns miss
	data, hit, err := c.Get(ctx, "key")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if hit {
		t.Error("NullCache.Get should always return miss")
	}
	if data != nil {
		t.Error("NullCache.Get should return nil data")
	}

	// Set does nothing (no error)
	if err := c.Set(ctx, "key", []byte("value"), time.Hour); err != nil {
		t.Errorf("Set error: %v", err)
	}

	// Still a miss after Set
	_, hit, _ = c.Get(ctx, "key")
	if hit {
		t.Error("NullCache should not store data")
	}

	// Delete does nothing (no error)
	if err := c.Delete(ctx, "key"); err != nil {
		t.Errorf("Delete error: %v", err)
	}
}

func TestHash(t *testing.T) {
	// Test determinism
	h1 := Hash([]byte("hello"))
	h2 := Hash([]byte("hello"))
	if h1 != h2 {
		t.Error("Hash should be deterministic")
	}

	// Test different inputs produce different hashes
	h3 := Hash([]byte("world"))
	if h1 == h3 {
		t.Error("Different inputs should produce different hashes")
	}

	// Test hash length (SHA-256 produces 64 hex chars)
	if len(h1) != 64 {
		t.Errorf("Hash length should be 64, got %d", len(h1))
	}
}

func TestDefaultKeyer(t *testing.T) {
	k := NewDefaultKeyer()

	type smoothOpts struct {
		Tightness float64
	}

	key := k.StageKey("smooth", "hash123", smoothOpts{Tightness: 0.5})
	if !strings.HasPrefix(key, "stage:smooth:") {
		t.Errorf("StageKey should carry the stage prefix: %s", key)
	}

	// Same inputs produce the same key
	again := k.StageKey("smooth", "hash123", smoothOpts{Tightness: 0.5})
	if key != again {
		t.Error("StageKey should be deterministic")
	}

	// Differing options produce differing keys
	other := k.StageKey("smooth", "hash123", smoothOpts{Tightness: 0.8})
	if key == other {
		t.Error("Different options should produce different keys")
	}

	// Differing input hashes produce differing keys
	other = k.StageKey("smooth", "hash456", smoothOpts{Tightness: 0.5})
	if key == other {
		t.Error("Different input hashes should produce different keys")
	}

	// Differing stages produce differing keys
	other = k.StageKey("outset", "hash123", smoothOpts{Tightness: 0.5})
	if key == other {
		t.Error("Different stages should produce different keys")
	}
}

func TestScopedKeyer(t *testing.T) {
	inner := NewDefaultKeyer()
	scoped := NewScopedKeyer(inner, "project:demo:")

	key := scoped.StageKey("convert", "hash123", nil)
	if !strings.HasPrefix(key, "project:demo:stage:convert:") {
		t.Errorf("ScopedKeyer StageKey should be prefixed: %s", key)
	}
	if key != "project:demo:"+inner.StageKey("convert", "hash123", nil) {
		t.Error("ScopedKeyer should delegate to the inner keyer")
	}
}

func TestScopedKeyerNilInner(t *testing.T) {
	// Should use DefaultKeyer when inner is nil
	scoped := NewScopedKeyer(nil, "prefix:")
	key := scoped.StageKey("compose", "hash", nil)
	if !strings.HasPrefix(key, "prefix:stage:compose:") {
		t.Errorf("Unexpected key with nil inner: %s", key)
	}
}
