package domain

import "context"

type embeddingUsageKey struct{}

// EmbeddingUsage accumulates query embedding cost for one request.
// Handlers attach it with NewContextWithUsage; the memory service records into it.
type EmbeddingUsage struct {
	Calls        int
	PromptTokens int
	TotalTokens  int
}

// NewContextWithUsage returns a context carrying an empty usage collector.
func NewContextWithUsage(ctx context.Context) (context.Context, *EmbeddingUsage) {
	u := &EmbeddingUsage{}
	return context.WithValue(ctx, embeddingUsageKey{}, u), u
}

// UsageFromContext returns the collector, or nil when none is attached.
func UsageFromContext(ctx context.Context) *EmbeddingUsage {
	u, _ := ctx.Value(embeddingUsageKey{}).(*EmbeddingUsage)
	return u
}

// Record adds one embedding call. A nil collector ignores it.
func (u *EmbeddingUsage) Record(res EmbeddingResult) {
	if u == nil {
		return
	}
	u.Calls++
	u.PromptTokens += res.PromptTokens
	u.TotalTokens += res.TotalTokens
}

// Used reports whether the embedder was called, cache hits with zero tokens included.
func (u *EmbeddingUsage) Used() bool {
	return u != nil && u.Calls > 0
}
