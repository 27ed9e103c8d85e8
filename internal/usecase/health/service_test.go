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

type mockEmbeddingChecker struct {
	err error
}

func (m *mockEmbeddingChecker) HealthCheck(_ context.Context) error { return m.err }

// --- Tests ---

func TestCheck_AllHealthy(t *testing.T) {
	svc := New(&mockPinger{}, &mockPinger{}, &mockEmbeddingChecker{})
	r := svc.Check(context.Background())

	if r.Status != Healthy {
		t.Errorf("expected %q, got %q", Healthy, r.Status)
	}
	for _, name := range []string{ComponentDatabase, ComponentCache, ComponentEmbedding} {
		if r.Checks[name] != CheckOK {
			t.Errorf("expected %s %q, got %q", name, CheckOK, r.Checks[name])
		}
	}
}

func TestCheck_DatabaseDown(t *testing.T) {
	svc := New(&mockPinger{err: errors.New("refused")}, nil, &mockEmbeddingChecker{})
	r := svc.Check(context.Background())

	if r.Status != Unhealthy {
		t.Errorf("expected %q, got %q", Unhealthy, r.Status)
	}
	if r.Checks[ComponentDatabase] != CheckError {
		t.Errorf("expected database %q, got %q", CheckError, r.Checks[ComponentDatabase])
	}
}

func TestCheck_OptionalComponentsDegrade(t *testing.T) {
	tests := []struct {
		name  string
		cache Pinger
		emb   EmbeddingChecker
	}{
		{"cache down", &mockPinger{err: errors.New("refused")}, &mockEmbeddingChecker{}},
		{"embedding down", nil, &mockEmbeddingChecker{err: errors.New("401")}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := New(&mockPinger{}, tc.cache, tc.emb).Check(context.Background())
			if r.Status != Degraded {
				t.Errorf("expected %q, got %q", Degraded, r.Status)
			}
		})
	}
}

func TestCheck_NilOptionalComponents(t *testing.T) {
	r := New(&mockPinger{}, nil, nil).Check(context.Background())
	if r.Status != Healthy {
		t.Errorf("expected %q, got %q", Healthy, r.Status)
	}
	if len(r.Checks) != 1 {
		t.Errorf("expected only the database check, got %v", r.Checks)
	}
}

func TestCheck_Timeout(t *testing.T) {
	svc := New(&mockPinger{delay: time.Second}, nil, nil).WithTimeout(20 * time.Millisecond)

	start := time.Now()
	r := svc.Check(context.Background())
	if time.Since(start) > 500*time.Millisecond {
		t.Errorf("check did not honor the timeout")
	}
	if r.Status != Unhealthy {
		t.Errorf("expected %q, got %q", Unhealthy, r.Status)
	}
}
