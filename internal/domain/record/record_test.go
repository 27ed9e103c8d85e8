package record

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/kailas-cloud/esmemory/internal/domain"
)

func TestRecord_Validate(t *testing.T) {
	tests := []struct {
		name    string
		rec     Record
		wantErr bool
	}{
		{"valid", Record{ID: "doc/1"}, false},
		{"empty id", Record{}, true},
		{"empty tag key", Record{ID: "x", Tags: TagsFromMap(map[string][]string{"": {"v"}})}, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.rec.Validate()
			if tc.wantErr {
				if !errors.Is(err, domain.ErrInvalidRecord) {
					t.Fatalf("expected ErrInvalidRecord, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestRecord_CheckVectorSize(t *testing.T) {
	r := Record{ID: "a", Vector: []float32{1, 2, 3}}
	if err := r.CheckVectorSize(3); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := r.CheckVectorSize(0); err != nil {
		t.Fatalf("size 0 must skip check: %v", err)
	}
	if err := r.CheckVectorSize(4); !errors.Is(err, domain.ErrVectorDimMismatch) {
		t.Fatalf("expected ErrVectorDimMismatch, got %v", err)
	}
}

func TestRecord_JSON(t *testing.T) {
	in := `{"id":"doc/1","vector":[1,2,3],"tags":{"user":["alice","bob"],"featured":[]},"payload":{"title":"x"}}`
	var r Record
	if err := json.Unmarshal([]byte(in), &r); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if r.ID != "doc/1" || len(r.Vector) != 3 || r.Payload["title"] != "x" {
		t.Fatalf("unexpected record: %+v", r)
	}
	if !r.Tags.Has("featured") || len(r.Tags.Values("user")) != 2 {
		t.Fatalf("unexpected tags: %v", r.Tags.ToMap())
	}
}

func TestFilter_DebugString(t *testing.T) {
	f := NewFilter().ByTag("type", "news", "fact").ByTag("user", "alice")
	if got := f.DebugString(); got != "(type=news|fact) & (user=alice)" {
		t.Fatalf("DebugString = %q", got)
	}

	var nilFilter *Filter
	if nilFilter.DebugString() != "" {
		t.Fatal("nil filter must render empty")
	}

	all := FiltersDebugString([]Filter{*f, *NewFilter(), *NewFilter().ByTag("k", "v")})
	if all != "(type=news|fact) & (user=alice) & (k=v)" {
		t.Fatalf("FiltersDebugString = %q", all)
	}
}

func TestFilter_JSON(t *testing.T) {
	var filters []Filter
	if err := json.Unmarshal([]byte(`[{"type":["news"]},{"user":["a","b"]}]`), &filters); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(filters) != 2 || filters[1].Values("user")[1] != "b" {
		t.Fatalf("unexpected filters: %+v", filters)
	}
}
