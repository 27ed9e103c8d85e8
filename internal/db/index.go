package db

import (
	"encoding/json"
	"errors"
	"strconv"
)

// MaxVectorDims is the largest dense_vector dimensionality the engine indexes.
const MaxVectorDims = 4096

// FieldType is a mapping field type.
type FieldType string

const (
	// FieldKeyword is an exact-match string field.
	FieldKeyword FieldType = "keyword"
	// FieldText is an analyzed full-text field.
	FieldText FieldType = "text"
	// FieldDenseVector is a fixed-size float vector field.
	FieldDenseVector FieldType = "dense_vector"
	// FieldNested is an array of sub-objects queried as units.
	FieldNested FieldType = "nested"
)

// Similarity is the vector similarity function used by k-NN search.
type Similarity string

const (
	// SimilarityCosine is cosine similarity.
	SimilarityCosine Similarity = "cosine"
	// SimilarityDotProduct is dot product similarity over unit vectors.
	SimilarityDotProduct Similarity = "dot_product"
	// SimilarityL2 is Euclidean distance.
	SimilarityL2 Similarity = "l2_norm"
)

// Property describes a single mapped field.
type Property struct {
	Type       FieldType           `json:"type"`
	Index      *bool               `json:"index,omitempty"`
	Dims       int                 `json:"dims,omitempty"`
	Similarity Similarity          `json:"similarity,omitempty"`
	Properties map[string]Property `json:"properties,omitempty"`
	Fields     map[string]Property `json:"fields,omitempty"` // multi-fields, e.g. text + .keyword
}

// Indexed reports whether the field is searchable. Fields are indexed unless disabled explicitly.
func (p Property) Indexed() bool {
	return p.Index == nil || *p.Index
}

// Mapping is the document mapping of an index.
type Mapping struct {
	Properties map[string]Property `json:"properties"`
}

// IndexDefinition is a complete index definition used by CreateIndex.
type IndexDefinition struct {
	Name     string
	Shards   int // 0 keeps the engine default
	Replicas int // negative keeps the engine default
	Mapping  Mapping
}

// Validate checks that the index definition is well-formed.
func (idx *IndexDefinition) Validate() error {
	if idx.Name == "" {
		return errors.New("index name is required")
	}
	if idx.Shards < 0 {
		return errors.New("shards must be non-negative")
	}
	if len(idx.Mapping.Properties) == 0 {
		return errors.New("at least one field is required")
	}
	return validateProperties("", idx.Mapping.Properties)
}

func validateProperties(parent string, props map[string]Property) error {
	for name, p := range props {
		if name == "" {
			return errors.New("field name is required under " + strconv.Quote(parent))
		}
		path := name
		if parent != "" {
			path = parent + "." + name
		}
		switch p.Type {
		case FieldKeyword, FieldText:
		case FieldDenseVector:
			if p.Dims <= 0 || p.Dims > MaxVectorDims {
				return errors.New("dense_vector field " + path + " requires dims in [1, " + strconv.Itoa(MaxVectorDims) + "]")
			}
		case FieldNested:
			if len(p.Properties) == 0 {
				return errors.New("nested field " + path + " requires properties")
			}
			if err := validateProperties(path, p.Properties); err != nil {
				return err
			}
		default:
			return errors.New("unsupported field type " + strconv.Quote(string(p.Type)) + " for " + path)
		}
		if len(p.Fields) > 0 {
			if err := validateProperties(path, p.Fields); err != nil {
				return err
			}
		}
	}
	return nil
}

type indexSettings struct {
	Shards   int  `json:"number_of_shards,omitempty"`
	Replicas *int `json:"number_of_replicas,omitempty"`
}

type createIndexBody struct {
	Settings *indexSettings `json:"settings,omitempty"`
	Mappings Mapping        `json:"mappings"`
}

// Body renders the indices.create request body.
func (idx *IndexDefinition) Body() ([]byte, error) {
	body := createIndexBody{Mappings: idx.Mapping}
	if idx.Shards > 0 || idx.Replicas >= 0 {
		s := &indexSettings{Shards: idx.Shards}
		if idx.Replicas >= 0 {
			r := idx.Replicas
			s.Replicas = &r
		}
		body.Settings = s
	}
	return json.Marshal(body)
}
