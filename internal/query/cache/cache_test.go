package cache

import (
	"context"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/msmarco-bm25/internal/config"
	"github.com/Adithya-Monish-Kumar-K/msmarco-bm25/internal/query/exec"
)

func TestNewReturnsNilCacheWhenDisabled(t *testing.T) {
	c, err := New(config.RedisConfig{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if c != nil {
		t.Fatal("expected a nil Cache when Redis is not configured")
	}
}

func TestNilCacheAlwaysCallsCompute(t *testing.T) {
	var c *Cache
	calls := 0
	want := []exec.Result{{DocID: 1, Score: 0.5}}
	results, hit, err := c.GetOrCompute(context.Background(), "fox dog", 0, 10, func() ([]exec.Result, error) {
		calls++
		return want, nil
	})
	if err != nil {
		t.Fatalf("GetOrCompute: %v", err)
	}
	if hit {
		t.Error("a nil cache should never report a hit")
	}
	if calls != 1 {
		t.Errorf("compute called %d times, want 1", calls)
	}
	if len(results) != 1 || results[0].DocID != 1 {
		t.Errorf("results = %v, want %v", results, want)
	}
}

func TestNilCacheStatsAreZero(t *testing.T) {
	var c *Cache
	hits, misses := c.Stats()
	if hits != 0 || misses != 0 {
		t.Errorf("Stats() = (%d, %d), want (0, 0)", hits, misses)
	}
}

func TestBuildKeyIsCaseAndWhitespaceInsensitive(t *testing.T) {
	c := &Cache{}
	k1 := c.buildKey("Fox   Dog", 0, 10)
	k2 := c.buildKey("fox dog", 0, 10)
	if k1 != k2 {
		t.Errorf("buildKey should normalize case/whitespace: %q != %q", k1, k2)
	}
	k3 := c.buildKey("fox dog", 1, 10)
	if k1 == k3 {
		t.Error("buildKey should differ across modes")
	}
}
