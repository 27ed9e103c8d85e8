package memory

import (
	"fmt"

	"github.com/kailas-cloud/esmemory/internal/db"
)

// TagValueType selects how tag values are mapped.
type TagValueType string

const (
	// TagValueKeyword maps values as exact-match keywords.
	TagValueKeyword TagValueType = "keyword"
	// TagValueText maps values as analyzed text with a ".keyword" sub-field used for filtering.
	TagValueText TagValueType = "text"
)

// ValueField returns the field filters must target for exact value matching.
func (t TagValueType) ValueField() string {
	if t == TagValueText {
		return FieldTagValue + ".keyword"
	}
	return FieldTagValue
}

// BuildMapping creates the index definition for a memory index of the given dimensionality.
func BuildMapping(name string, dims int, opts Options) (*db.IndexDefinition, error) {
	b := db.NewIndex(name).
		Keyword(FieldID).
		DenseVector(FieldEmbedding, dims, db.SimilarityCosine).
		Nested(FieldTags, func(sub *db.MappingBuilder) {
			sub.Keyword("name")
			if opts.TagValue == TagValueText {
				sub.TextWithKeyword("value")
			} else {
				sub.Keyword("value")
			}
		}).
		NonIndexedText(FieldPayload)

	if opts.Shards > 0 {
		b.Shards(opts.Shards)
	}
	if opts.Replicas >= 0 {
		b.Replicas(opts.Replicas)
	}

	def, err := b.Build()
	if err != nil {
		return nil, fmt.Errorf("build mapping for %s: %w", name, err)
	}
	return def, nil
}
