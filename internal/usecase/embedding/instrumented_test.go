package embedding

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/kailas-cloud/esmemory/internal/domain"
)

type mockEmbedder struct {
	result    domain.EmbeddingResult
	err       error
	healthErr error
	calls     int
}

func (m *mockEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	m.calls++
	return m.result, m.err
}

func (m *mockEmbedder) HealthCheck(_ context.Context) error {
	return m.healthErr
}

// plainEmbedder has no HealthCheck method.
type plainEmbedder struct{}

func (plainEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	return domain.EmbeddingResult{Embedding: []float32{1}}, nil
}

func TestInstrumentedEmbedder_Success(t *testing.T) {
	inner := &mockEmbedder{result: domain.EmbeddingResult{
		Embedding:    []float32{0.1, 0.2, 0.3},
		PromptTokens: 100,
		TotalTokens:  100,
	}}
	p := NewInstrumentedEmbedder(inner, "test", "test-model", zap.NewNop())

	result, err := p.Embed(context.Background(), "hello")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Embedding) != 3 {
		t.Fatalf("expected 3 dimensions, got %d", len(result.Embedding))
	}
	if result.TotalTokens != 100 {
		t.Errorf("expected TotalTokens=100, got %d", result.TotalTokens)
	}
}

func TestInstrumentedEmbedder_BlankText(t *testing.T) {
	inner := &mockEmbedder{}
	p := NewInstrumentedEmbedder(inner, "test", "test-model", zap.NewNop())

	for _, text := range []string{"", "   ", "\n\t"} {
		if _, err := p.Embed(context.Background(), text); !errors.Is(err, domain.ErrInvalidQuery) {
			t.Errorf("Embed(%q): expected ErrInvalidQuery, got %v", text, err)
		}
	}
	if inner.calls != 0 {
		t.Errorf("inner called %d times", inner.calls)
	}
}

func TestInstrumentedEmbedder_ErrorLogged(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	inner := &mockEmbedder{err: domain.ErrEmbeddingProviderError}
	p := NewInstrumentedEmbedder(inner, "test", "test-model", zap.New(core))

	_, err := p.Embed(context.Background(), "hello")
	if !errors.Is(err, domain.ErrEmbeddingProviderError) {
		t.Fatalf("expected ErrEmbeddingProviderError, got %v", err)
	}
	if logs.Len() != 1 {
		t.Errorf("expected 1 error log, got %d", logs.Len())
	}
}

func TestInstrumentedEmbedder_CanceledNotLogged(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	inner := &mockEmbedder{err: context.Canceled}
	p := NewInstrumentedEmbedder(inner, "test", "test-model", zap.New(core))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := p.Embed(ctx, "hello"); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if logs.Len() != 0 {
		t.Errorf("cancellation must not be logged as an error, got %d entries", logs.Len())
	}
}

func TestInstrumentedEmbedder_HealthCheck(t *testing.T) {
	boom := errors.New("down")
	p := NewInstrumentedEmbedder(&mockEmbedder{healthErr: boom}, "test", "m", zap.NewNop())
	if err := p.HealthCheck(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("expected forwarded error, got %v", err)
	}

	plain := NewInstrumentedEmbedder(plainEmbedder{}, "test", "m", zap.NewNop())
	if err := plain.HealthCheck(context.Background()); err != nil {
		t.Fatalf("embedder without health check must report healthy: %v", err)
	}
}
