package cache

import (
	"testing"
	"time"

	"go.uber.org/zap"
)

func newTestCache(t *testing.T) *RistrettoCache {
	t.Helper()

	c, err := NewRistrettoCache(&RistrettoConfig{
		NumCounters: 1000,
		MaxCost:     100,
		BufferItems: 64,
		Logger:      zap.NewNop(),
	})
	if err != nil {
		t.Fatalf("create cache: %v", err)
	}
	t.Cleanup(c.Close)

	rc, ok := c.(*RistrettoCache)
	if !ok {
		t.Fatalf("unexpected cache type %T", c)
	}
	return rc
}

func TestRistrettoCache_SetGet(t *testing.T) {
	c := newTestCache(t)

	ok := c.Set("key", "value", time.Minute)
	if !ok {
		t.Fatal("set rejected")
	}
	c.Wait()

	got, found := c.Get("key")
	if !found {
		t.Fatal("key not found after set")
	}
	if got != "value" {
		t.Errorf("got %v, want value", got)
	}
}

func TestRistrettoCache_GetMissing(t *testing.T) {
	c := newTestCache(t)

	_, found := c.Get("missing")
	if found {
		t.Error("expected miss for absent key")
	}
}

func TestRistrettoCache_Delete(t *testing.T) {
	c := newTestCache(t)

	c.Set("key", "value", time.Minute)
	c.Wait()

	c.Delete("key")
	c.Wait()

	_, found := c.Get("key")
	if found {
		t.Error("key still present after delete")
	}
}

func TestRistrettoCache_TTLExpiry(t *testing.T) {
	c := newTestCache(t)

	c.Set("key", "value", 50*time.Millisecond)
	c.Wait()

	time.Sleep(150 * time.Millisecond)

	_, found := c.Get("key")
	if found {
		t.Error("key still present after TTL expiry")
	}
}

func TestRistrettoCache_Clear(t *testing.T) {
	c := newTestCache(t)

	c.Set("a", 1, time.Minute)
	c.Set("b", 2, time.Minute)
	c.Wait()

	c.Clear()

	if _, found := c.Get("a"); found {
		t.Error("key a survived clear")
	}
	if _, found := c.Get("b"); found {
		t.Error("key b survived clear")
	}
}
