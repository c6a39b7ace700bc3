package health

import (
	"context"
	"net/http/httptest"
	"testing"
)

func TestRunAggregatesWorstStatus(t *testing.T) {
	c := NewChecker()
	c.Register("index", func(ctx context.Context) ComponentHealth {
		return ComponentHealth{Status: StatusUp}
	})
	c.Register("cache", func(ctx context.Context) ComponentHealth {
		return ComponentHealth{Status: StatusDegraded, Message: "redis unreachable"}
	})
	report := c.Run(context.Background())
	if report.Status != StatusDegraded {
		t.Errorf("Status = %v, want %v", report.Status, StatusDegraded)
	}
	if len(report.Components) != 2 {
		t.Errorf("got %d components, want 2", len(report.Components))
	}
}

func TestRunReportsDownWhenAnyComponentIsDown(t *testing.T) {
	c := NewChecker()
	c.Register("index", func(ctx context.Context) ComponentHealth {
		return ComponentHealth{Status: StatusDown, Message: "missing final_index.bin"}
	})
	report := c.Run(context.Background())
	if report.Status != StatusDown {
		t.Errorf("Status = %v, want %v", report.Status, StatusDown)
	}
}

func TestLiveHandlerAlwaysReturns200(t *testing.T) {
	c := NewChecker()
	req := httptest.NewRequest("GET", "/health/live", nil)
	rec := httptest.NewRecorder()
	c.LiveHandler()(rec, req)
	if rec.Code != 200 {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

func TestReadyHandlerReflectsCheckStatus(t *testing.T) {
	c := NewChecker()
	c.Register("index", func(ctx context.Context) ComponentHealth {
		return ComponentHealth{Status: StatusDown}
	})
	req := httptest.NewRequest("GET", "/health/ready", nil)
	rec := httptest.NewRecorder()
	c.ReadyHandler()(rec, req)
	if rec.Code != 503 {
		t.Errorf("status = %d, want 503", rec.Code)
	}
}
