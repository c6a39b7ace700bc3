package catalog

import (
	"context"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/msmarco-bm25/internal/config"
)

func TestOpenReturnsNilClientWhenDisabled(t *testing.T) {
	c, err := Open(config.PostgresConfig{})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if c != nil {
		t.Fatal("expected a nil Client when Postgres is not configured")
	}
}

func TestNilClientMethodsAreNoOps(t *testing.T) {
	var c *Client
	ctx := context.Background()
	if err := c.EnsureSchema(ctx); err != nil {
		t.Errorf("EnsureSchema on nil Client: %v", err)
	}
	id, err := c.StartRun(ctx, "parse", "input.tsv")
	if err != nil || id != 0 {
		t.Errorf("StartRun on nil Client = (%d, %v), want (0, nil)", id, err)
	}
	if err := c.FinishRun(ctx, 0, 10, 20, nil); err != nil {
		t.Errorf("FinishRun on nil Client: %v", err)
	}
	runs, err := c.RecentRuns(ctx, "parse", 5)
	if err != nil || runs != nil {
		t.Errorf("RecentRuns on nil Client = (%v, %v), want (nil, nil)", runs, err)
	}
	if err := c.Close(); err != nil {
		t.Errorf("Close on nil Client: %v", err)
	}
}
