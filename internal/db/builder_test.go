package db

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestMappingBuilder_Simple(t *testing.T) {
	idx := NewIndex("test-idx").
		Keyword("id").
		Text("body").
		MustBuild()

	if idx.Name != "test-idx" {
		t.Errorf("name = %q, want test-idx", idx.Name)
	}
	if len(idx.Mapping.Properties) != 2 {
		t.Fatalf("fields count = %d, want 2", len(idx.Mapping.Properties))
	}
	if idx.Mapping.Properties["id"].Type != FieldKeyword {
		t.Errorf("id = %+v, want keyword", idx.Mapping.Properties["id"])
	}
	if idx.Replicas != -1 || idx.Shards != 0 {
		t.Errorf("settings = %d/%d, want engine defaults", idx.Shards, idx.Replicas)
	}
}

func TestMappingBuilder_DenseVector(t *testing.T) {
	idx := NewIndex("vec-idx").
		DenseVector("embedding", 1536, SimilarityCosine).
		MustBuild()

	f := idx.Mapping.Properties["embedding"]
	if f.Type != FieldDenseVector {
		t.Errorf("type = %q, want dense_vector", f.Type)
	}
	if f.Dims != 1536 {
		t.Errorf("dims = %d, want 1536", f.Dims)
	}
	if f.Similarity != SimilarityCosine {
		t.Errorf("similarity = %q, want cosine", f.Similarity)
	}
	if !f.Indexed() {
		t.Error("vector must be indexed for k-NN")
	}
}

func TestMappingBuilder_Nested(t *testing.T) {
	idx := NewIndex("nested-idx").
		Nested("tags", func(sub *MappingBuilder) {
			sub.Keyword("name").TextWithKeyword("value")
		}).
		NonIndexedText("payload").
		MustBuild()

	tags := idx.Mapping.Properties["tags"]
	if tags.Type != FieldNested || len(tags.Properties) != 2 {
		t.Fatalf("tags = %+v", tags)
	}
	if tags.Properties["value"].Fields["keyword"].Type != FieldKeyword {
		t.Errorf("value must carry a keyword sub-field: %+v", tags.Properties["value"])
	}
	if idx.Mapping.Properties["payload"].Indexed() {
		t.Error("payload must not be indexed")
	}
}

func TestMappingBuilder_ValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		builder func() (*IndexDefinition, error)
		wantErr string
	}{
		{
			name: "empty name",
			builder: func() (*IndexDefinition, error) {
				return NewIndex("").Keyword("x").Build()
			},
			wantErr: "index name is required",
		},
		{
			name: "no fields",
			builder: func() (*IndexDefinition, error) {
				return NewIndex("idx").Build()
			},
			wantErr: "at least one field",
		},
		{
			name: "vector without dims",
			builder: func() (*IndexDefinition, error) {
				return NewIndex("idx").DenseVector("v", 0, SimilarityCosine).Build()
			},
			wantErr: "requires dims",
		},
		{
			name: "vector too wide",
			builder: func() (*IndexDefinition, error) {
				return NewIndex("idx").DenseVector("v", MaxVectorDims+1, SimilarityCosine).Build()
			},
			wantErr: "requires dims",
		},
		{
			name: "empty nested",
			builder: func() (*IndexDefinition, error) {
				return NewIndex("idx").Nested("tags", func(*MappingBuilder) {}).Build()
			},
			wantErr: "requires properties",
		},
		{
			name: "negative shards",
			builder: func() (*IndexDefinition, error) {
				return NewIndex("idx").Shards(-1).Keyword("x").Build()
			},
			wantErr: "shards",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.builder()
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("got error %q, want containing %q", err.Error(), tt.wantErr)
			}
		})
	}
}

func TestIndexDefinition_UnsupportedType(t *testing.T) {
	idx := &IndexDefinition{
		Name:    "bad-idx",
		Mapping: Mapping{Properties: map[string]Property{"geo": {Type: "geo_point"}}},
	}
	if err := idx.Validate(); err == nil {
		t.Fatal("expected error for unsupported type")
	}
}

func TestIndexDefinition_Body(t *testing.T) {
	idx := NewIndex("body-idx").
		Shards(2).
		Replicas(0).
		Keyword("id").
		DenseVector("embedding", 3, SimilarityCosine).
		MustBuild()

	raw, err := idx.Body()
	if err != nil {
		t.Fatalf("body: %v", err)
	}

	var got struct {
		Settings struct {
			Shards   int  `json:"number_of_shards"`
			Replicas *int `json:"number_of_replicas"`
		} `json:"settings"`
		Mappings struct {
			Properties map[string]map[string]any `json:"properties"`
		} `json:"mappings"`
	}
	if err := json.Unmarshal(raw, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.Settings.Shards != 2 || got.Settings.Replicas == nil || *got.Settings.Replicas != 0 {
		t.Errorf("settings = %+v", got.Settings)
	}
	emb := got.Mappings.Properties["embedding"]
	if emb["type"] != "dense_vector" || emb["dims"] != float64(3) || emb["index"] != true || emb["similarity"] != "cosine" {
		t.Errorf("embedding mapping = %v", emb)
	}
}

func TestIndexDefinition_BodyDefaultSettings(t *testing.T) {
	raw, err := NewIndex("plain").Keyword("id").MustBuild().Body()
	if err != nil {
		t.Fatalf("body: %v", err)
	}
	if strings.Contains(string(raw), "settings") {
		t.Errorf("default settings must be omitted: %s", raw)
	}
}

func TestIndexDefinition_String(t *testing.T) {
	idx := NewIndex("my-idx").
		Keyword("id").
		DenseVector("vec", 512, SimilarityCosine).
		Nested("tags", func(sub *MappingBuilder) { sub.Keyword("name") }).
		MustBuild()

	s := idx.String()
	if !strings.HasPrefix(s, "INDEX my-idx ") {
		t.Errorf("expected INDEX prefix, got %q", s)
	}
	if !strings.Contains(s, "vec DENSE_VECTOR 512 COSINE") {
		t.Errorf("missing vector in %q", s)
	}
	if !strings.Contains(s, "tags NESTED ( name KEYWORD )") {
		t.Errorf("missing nested in %q", s)
	}
}
