package embcache

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"

	"github.com/kailas-cloud/esmemory/internal/db"
	"github.com/kailas-cloud/esmemory/internal/domain"
)

func TestEmbed_CacheMiss(t *testing.T) {
	inner := &mockEmbedder{result: domain.EmbeddingResult{
		Embedding:    []float32{0.1, 0.2, 0.3},
		PromptTokens: 10,
		TotalTokens:  10,
	}}
	ce, ms := newTestCachedEmbedder(t, inner, Options{Model: "m", TTL: time.Hour})
	ctx := context.Background()

	var setKey string
	var setTTL time.Duration
	ms.setFn = func(_ context.Context, key string, _ []byte, ttl time.Duration) error {
		setKey, setTTL = key, ttl
		return nil
	}

	result, err := ce.Embed(ctx, "test text")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Embedding) != 3 || result.Embedding[0] != 0.1 {
		t.Fatalf("unexpected vector: %v", result.Embedding)
	}
	if result.TotalTokens != 10 {
		t.Fatalf("expected TotalTokens=10, got %d", result.TotalTokens)
	}
	if !strings.HasPrefix(setKey, DefaultKeyPrefix) {
		t.Fatalf("expected SET with prefixed key, got %q", setKey)
	}
	if setTTL != time.Hour {
		t.Errorf("ttl = %v, want 1h", setTTL)
	}
}

func TestEmbed_CacheHit(t *testing.T) {
	inner := &mockEmbedder{result: domain.EmbeddingResult{
		Embedding: []float32{0.1, 0.2, 0.3},
	}}
	ce, ms := newTestCachedEmbedder(t, inner, Options{})
	ctx := context.Background()

	cached := vectorToCacheBytes([]float32{0.4, 0.5, 0.6})
	ms.getFn = func(_ context.Context, _ string) ([]byte, error) {
		return cached, nil
	}

	result, err := ce.Embed(ctx, "test text")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Embedding) != 3 || result.Embedding[0] != 0.4 {
		t.Fatalf("expected cached vector, got: %v", result.Embedding)
	}
	if result.TotalTokens != 0 {
		t.Fatalf("expected TotalTokens=0 on cache hit, got %d", result.TotalTokens)
	}
	if inner.calls != 0 {
		t.Errorf("inner called %d times", inner.calls)
	}
}

func TestEmbed_InnerError(t *testing.T) {
	inner := &mockEmbedder{err: errors.New("provider down")}
	ce, _ := newTestCachedEmbedder(t, inner, Options{})

	_, err := ce.Embed(context.Background(), "test text")
	if err == nil {
		t.Fatal("expected error from inner embedder")
	}
}

func TestEmbed_StoreErrorsDegradeToMiss(t *testing.T) {
	inner := &mockEmbedder{result: domain.EmbeddingResult{Embedding: []float32{1}}}
	ce, ms := newTestCachedEmbedder(t, inner, Options{})
	ms.getFn = func(_ context.Context, _ string) ([]byte, error) {
		return nil, &db.Error{Op: db.OpGet, Err: errors.New("connection refused")}
	}
	ms.setFn = func(_ context.Context, _ string, _ []byte, _ time.Duration) error {
		return errors.New("connection refused")
	}

	if _, err := ce.Embed(context.Background(), "x"); err != nil {
		t.Fatalf("cache failures must not fail Embed: %v", err)
	}
	if inner.calls != 1 {
		t.Errorf("inner calls = %d", inner.calls)
	}
}

func TestEmbed_CorruptEntryIsMiss(t *testing.T) {
	inner := &mockEmbedder{result: domain.EmbeddingResult{Embedding: []float32{1}}}
	ce, ms := newTestCachedEmbedder(t, inner, Options{})
	ms.getFn = func(_ context.Context, _ string) ([]byte, error) { return []byte{1, 2, 3}, nil }

	if _, err := ce.Embed(context.Background(), "x"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inner.calls != 1 {
		t.Errorf("inner calls = %d, want 1", inner.calls)
	}
}

func TestEmbed_LocalTier(t *testing.T) {
	inner := &mockEmbedder{result: domain.EmbeddingResult{Embedding: []float32{0.7}, TotalTokens: 3}}
	counter := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "test_cache_total"}, []string{"result"})
	ce := New(inner, nil, Options{LocalSize: 4}, counter, zap.NewNop())
	ctx := context.Background()

	for range 3 {
		res, err := ce.Embed(ctx, "same")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if res.Embedding[0] != 0.7 {
			t.Fatalf("vector = %v", res.Embedding)
		}
	}
	if inner.calls != 1 {
		t.Errorf("inner calls = %d, want 1", inner.calls)
	}
	if got := testutil.ToFloat64(counter.WithLabelValues("local_hit")); got != 2 {
		t.Errorf("local hits = %v, want 2", got)
	}
	if got := testutil.ToFloat64(counter.WithLabelValues("miss")); got != 1 {
		t.Errorf("misses = %v, want 1", got)
	}
}

func TestCacheKey_IncludesModel(t *testing.T) {
	a := New(&mockEmbedder{}, nil, Options{Model: "small"}, nil, zap.NewNop())
	b := New(&mockEmbedder{}, nil, Options{Model: "large"}, nil, zap.NewNop())
	if a.cacheKey("text") == b.cacheKey("text") {
		t.Error("keys must differ across models")
	}
	if a.cacheKey("text") != a.cacheKey("text") {
		t.Error("keys must be deterministic")
	}
	if a.cacheKey("text") == a.cacheKey("other") {
		t.Error("keys must differ across texts")
	}
}

func TestVectorBytes_Roundtrip(t *testing.T) {
	in := []float32{0, -1.5, 3.25, 1e-7}
	out, err := bytesToVector(vectorToCacheBytes(in))
	if err != nil {
		t.Fatalf("bytesToVector: %v", err)
	}
	for i := range in {
		if in[i] != out[i] {
			t.Fatalf("roundtrip %v -> %v", in, out)
		}
	}
	if _, err := bytesToVector([]byte{1}); err == nil {
		t.Error("expected error for truncated data")
	}
}
