package db

import (
	"maps"
	"slices"
	"strconv"
	"strings"
)

// MappingBuilder is a fluent builder for index definitions.
type MappingBuilder struct {
	def   IndexDefinition
	props map[string]Property
}

// NewIndex starts building an index definition with engine-default settings.
func NewIndex(name string) *MappingBuilder {
	return &MappingBuilder{
		def:   IndexDefinition{Name: name, Replicas: -1},
		props: make(map[string]Property),
	}
}

// Shards sets the primary shard count.
func (b *MappingBuilder) Shards(n int) *MappingBuilder {
	b.def.Shards = n
	return b
}

// Replicas sets the replica count.
func (b *MappingBuilder) Replicas(n int) *MappingBuilder {
	b.def.Replicas = n
	return b
}

// Keyword adds an exact-match field.
func (b *MappingBuilder) Keyword(name string) *MappingBuilder {
	b.props[name] = Property{Type: FieldKeyword}
	return b
}

// Text adds an analyzed full-text field.
func (b *MappingBuilder) Text(name string) *MappingBuilder {
	b.props[name] = Property{Type: FieldText}
	return b
}

// TextWithKeyword adds a text field with an exact-match "keyword" sub-field.
func (b *MappingBuilder) TextWithKeyword(name string) *MappingBuilder {
	b.props[name] = Property{
		Type:   FieldText,
		Fields: map[string]Property{"keyword": {Type: FieldKeyword}},
	}
	return b
}

// NonIndexedText adds a text field that is stored but not searchable.
func (b *MappingBuilder) NonIndexedText(name string) *MappingBuilder {
	off := false
	b.props[name] = Property{Type: FieldText, Index: &off}
	return b
}

// DenseVector adds an indexed vector field usable by k-NN search.
func (b *MappingBuilder) DenseVector(name string, dims int, sim Similarity) *MappingBuilder {
	on := true
	b.props[name] = Property{
		Type:       FieldDenseVector,
		Index:      &on,
		Dims:       dims,
		Similarity: sim,
	}
	return b
}

// Nested adds a nested field whose sub-fields are declared by fn.
func (b *MappingBuilder) Nested(name string, fn func(sub *MappingBuilder)) *MappingBuilder {
	sub := &MappingBuilder{props: make(map[string]Property)}
	fn(sub)
	b.props[name] = Property{Type: FieldNested, Properties: sub.props}
	return b
}

// Build validates and returns the index definition.
func (b *MappingBuilder) Build() (*IndexDefinition, error) {
	def := b.def
	def.Mapping = Mapping{Properties: maps.Clone(b.props)}
	if err := def.Validate(); err != nil {
		return nil, err
	}
	return &def, nil
}

// MustBuild calls Build and panics on error.
func (b *MappingBuilder) MustBuild() *IndexDefinition {
	def, err := b.Build()
	if err != nil {
		panic(err)
	}
	return def
}

// String returns a compact debug representation of the definition.
func (idx *IndexDefinition) String() string {
	parts := []string{"INDEX", idx.Name}
	if idx.Shards > 0 {
		parts = append(parts, "SHARDS", strconv.Itoa(idx.Shards))
	}
	if idx.Replicas >= 0 {
		parts = append(parts, "REPLICAS", strconv.Itoa(idx.Replicas))
	}
	parts = append(parts, "MAPPING")
	parts = append(parts, describeProperties(idx.Mapping.Properties)...)
	return strings.Join(parts, " ")
}

func describeProperties(props map[string]Property) []string {
	var parts []string
	for _, name := range slices.Sorted(maps.Keys(props)) {
		p := props[name]
		switch p.Type {
		case FieldDenseVector:
			parts = append(parts, name, "DENSE_VECTOR", strconv.Itoa(p.Dims), strings.ToUpper(string(p.Similarity)))
		case FieldNested:
			parts = append(parts, name, "NESTED", "(")
			parts = append(parts, describeProperties(p.Properties)...)
			parts = append(parts, ")")
		default:
			parts = append(parts, name, strings.ToUpper(string(p.Type)))
		}
		if !p.Indexed() && p.Type != FieldDenseVector {
			parts = append(parts, "NOINDEX")
		}
	}
	return parts
}
