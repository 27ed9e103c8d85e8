package esmemory

import (
	"context"
	"fmt"
)

// SearchBuilder is a fluent builder for similarity queries against one index.
type SearchBuilder struct {
	client *Client
	index  string
	query  string
	opts   SimilarOptions
	where  Filter
}

// Search starts a similarity query against index.
func (c *Client) Search(index string) *SearchBuilder {
	return &SearchBuilder{client: c, index: index}
}

// Query sets the text to embed.
func (b *SearchBuilder) Query(text string) *SearchBuilder {
	b.query = text
	return b
}

// Where requires a tag key with one of values. No values requires the key to be present.
// Where clauses accumulate into one filter.
func (b *SearchBuilder) Where(key string, values ...string) *SearchBuilder {
	if b.where == nil {
		b.where = Filter{}
	}
	b.where[key] = append(b.where[key], values...)
	return b
}

// Filter adds a separate filter that must also hold.
func (b *SearchBuilder) Filter(f Filter) *SearchBuilder {
	b.opts.Filters = append(b.opts.Filters, f)
	return b
}

// MinRelevance drops hits scoring below r, in [0, 1].
func (b *SearchBuilder) MinRelevance(r float64) *SearchBuilder {
	b.opts.MinRelevance = r
	return b
}

// Limit sets the maximum number of results.
func (b *SearchBuilder) Limit(n int) *SearchBuilder {
	b.opts.Limit = n
	return b
}

// WithEmbeddings returns stored vectors with each hit.
func (b *SearchBuilder) WithEmbeddings() *SearchBuilder {
	b.opts.WithEmbeddings = true
	return b
}

// Do executes the search and collects the hits, best first.
func (b *SearchBuilder) Do(ctx context.Context) ([]ScoredRecord, error) {
	opts := b.opts
	if len(b.where) > 0 {
		opts.Filters = append([]Filter{b.where}, opts.Filters...)
	}

	seq, err := b.client.GetSimilarList(ctx, b.index, b.query, &opts)
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", b.index, err)
	}

	var hits []ScoredRecord
	for hit, err := range seq {
		if err != nil {
			return hits, fmt.Errorf("search %q: %w", b.index, err)
		}
		hits = append(hits, hit)
	}
	return hits, nil
}
