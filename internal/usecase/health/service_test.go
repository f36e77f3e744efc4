package health

import (
	"context"
	"errors"
	"testing"
	"time"
)

// --- Mocks ---

type mockPinger struct {
	err   error
	delay time.Duration
}

func (m *mockPinger) Ping(ctx context.Context) error {
	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return m.err
}

// --- Tests ---

func TestCheck_AllHealthy(t *testing.T) {
	r := New(&mockPinger{}).WithComponent("launchpad", &mockPinger{}).Check(context.Background())

	if r.Status != Healthy {
		t.Errorf("expected %q, got %q", Healthy, r.Status)
	}
	if r.Checks["database"] != CheckOK || r.Checks["launchpad"] != CheckOK {
		t.Errorf("checks = %v", r.Checks)
	}
}

func TestCheck_OneFails(t *testing.T) {
	r := New(&mockPinger{}).
		WithComponent("launchpad", &mockPinger{err: errors.New("conn refused")}).
		Check(context.Background())

	if r.Status != Degraded {
		t.Errorf("expected %q, got %q", Degraded, r.Status)
	}
	if r.Checks["launchpad"] != CheckError {
		t.Errorf("expected launchpad %q, got %q", CheckError, r.Checks["launchpad"])
	}
}

func TestCheck_AllFail(t *testing.T) {
	r := New(&mockPinger{err: errors.New("db down")}).Check(context.Background())

	if r.Status != Unhealthy {
		t.Errorf("expected %q, got %q", Unhealthy, r.Status)
	}
}

func TestCheck_Timeout(t *testing.T) {
	r := New(&mockPinger{delay: time.Second}).
		WithTimeout(10 * time.Millisecond).
		Check(context.Background())

	if r.Checks["database"] != CheckError {
		t.Errorf("expected slow check to fail, got %q", r.Checks["database"])
	}
}

func TestWithComponent_NilIgnored(t *testing.T) {
	r := New(&mockPinger{}).WithComponent("launchpad", nil).Check(context.Background())
	if _, ok := r.Checks["launchpad"]; ok {
		t.Error("nil component should be absent")
	}
}
