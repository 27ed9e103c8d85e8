package memory

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/kailas-cloud/esmemory/internal/domain"
	"github.com/kailas-cloud/esmemory/internal/domain/record"
)

func TestEncodeID_Roundtrip(t *testing.T) {
	ids := []string{
		"",
		"doc/1",
		"a=b_c",
		"with spaces and ?query=1&x",
		"日本語のドキュメント",
		"emoji 🚀",
		"\x00\xff\xfe binary",
		"a", "ab", "abc", // every padding length
	}
	for _, id := range ids {
		token := EncodeID(id)
		if strings.ContainsAny(token, "/+=") {
			t.Errorf("EncodeID(%q) = %q contains unsafe characters", id, token)
		}
		got, err := DecodeID(token)
		if err != nil {
			t.Errorf("DecodeID(%q): %v", token, err)
			continue
		}
		if got != id {
			t.Errorf("roundtrip %q -> %q -> %q", id, token, got)
		}
	}
}

func TestEncodeID_Padding(t *testing.T) {
	if got := EncodeID("a"); got != "YQ.." {
		t.Errorf("EncodeID(a) = %q, want YQ..", got)
	}
}

func TestDecodeID_Invalid(t *testing.T) {
	_, err := DecodeID("not*base64")
	if !errors.Is(err, domain.ErrInvalidRecord) {
		t.Fatalf("expected ErrInvalidRecord, got %v", err)
	}
}

func TestEngineTags_Expansion(t *testing.T) {
	tags := record.NewTags()
	tags.Add("user", "alice", "bob")
	tags.Add("featured")
	tags.Add("empty-value", "")

	entries := ToEngineTags(tags)
	if len(entries) != 4 {
		t.Fatalf("entries = %d, want 4", len(entries))
	}
	if entries[0].Name != "user" || *entries[0].Value != "alice" || *entries[1].Value != "bob" {
		t.Errorf("user entries = %+v %+v", entries[0], entries[1])
	}
	if entries[2].Name != "featured" || entries[2].Value != nil {
		t.Errorf("presence entry = %+v", entries[2])
	}
	if entries[3].Value == nil || *entries[3].Value != "" {
		t.Errorf("empty-string value must be kept: %+v", entries[3])
	}
}

func TestEngineTags_Roundtrip(t *testing.T) {
	cases := []map[string][]string{
		{},
		{"featured": nil},
		{"user": {"alice", "bob"}, "featured": nil},
		{"k": {""}, "x": {"a|b", "c=d", "ü"}},
	}
	for _, m := range cases {
		in := record.TagsFromMap(m)
		out := FromEngineTags(ToEngineTags(in))
		if !out.Equal(in) {
			t.Errorf("roundtrip %v -> %v", in.ToMap(), out.ToMap())
		}
	}
}

func TestFromEngineTags_ValuesWinOverPresence(t *testing.T) {
	v := "x"
	for _, entries := range [][]Tag{
		{{Name: "k"}, {Name: "k", Value: &v}},
		{{Name: "k", Value: &v}, {Name: "k"}},
	} {
		tags := FromEngineTags(entries)
		if got := tags.Values("k"); len(got) != 1 || got[0] != "x" {
			t.Errorf("values = %v, want [x]", got)
		}
	}
}

func TestDocument_Roundtrip(t *testing.T) {
	tags := record.NewTags()
	tags.Add("user", "alice", "bob")
	tags.Add("featured")
	rec := record.Record{
		ID:      "doc/1",
		Vector:  []float32{1, 2, 3},
		Tags:    tags,
		Payload: map[string]any{"title": "x", "page": float64(3)},
	}

	doc, err := FromRecord(&rec)
	if err != nil {
		t.Fatalf("FromRecord: %v", err)
	}
	if doc.ID == rec.ID || strings.Contains(doc.ID, "/") {
		t.Errorf("id not encoded: %q", doc.ID)
	}
	if doc.Payload != `{"page":3,"title":"x"}` {
		t.Errorf("payload = %s", doc.Payload)
	}

	back, err := doc.ToRecord(true)
	if err != nil {
		t.Fatalf("ToRecord: %v", err)
	}
	if back.ID != "doc/1" || len(back.Vector) != 3 || !back.Tags.Equal(tags) {
		t.Errorf("roundtrip = %+v", back)
	}
	if back.Payload["title"] != "x" || back.Payload["page"] != json.Number("3") {
		t.Errorf("payload = %v", back.Payload)
	}

	noVec, err := doc.ToRecord(false)
	if err != nil {
		t.Fatalf("ToRecord: %v", err)
	}
	if noVec.Vector != nil {
		t.Error("vector must be omitted without embeddings")
	}
}

func TestDocument_PayloadKeepsLargeIntegers(t *testing.T) {
	const big = "9007199254740993" // 2^53 + 1
	doc := Document{ID: EncodeID("a"), Payload: `{"n":` + big + `,"f":0.5,"nested":{"m":` + big + `}}`}

	back, err := doc.ToRecord(false)
	if err != nil {
		t.Fatalf("ToRecord: %v", err)
	}
	if back.Payload["n"] != json.Number(big) || back.Payload["f"] != json.Number("0.5") {
		t.Errorf("payload = %v", back.Payload)
	}
	if nested, _ := back.Payload["nested"].(map[string]any); nested["m"] != json.Number(big) {
		t.Errorf("nested = %v", back.Payload["nested"])
	}

	again, err := FromRecord(&back)
	if err != nil {
		t.Fatalf("FromRecord: %v", err)
	}
	if again.Payload != `{"f":0.5,"n":`+big+`,"nested":{"m":`+big+`}}` {
		t.Errorf("re-encoded payload = %s", again.Payload)
	}
}

func TestDocument_NilPayload(t *testing.T) {
	doc, err := FromRecord(&record.Record{ID: "a"})
	if err != nil {
		t.Fatalf("FromRecord: %v", err)
	}
	if doc.Payload != "" {
		t.Errorf("payload = %q", doc.Payload)
	}
	back, _ := doc.ToRecord(true)
	if back.Payload != nil {
		t.Errorf("payload = %v, want nil", back.Payload)
	}
}

func TestFromRecord_Invalid(t *testing.T) {
	tests := []struct {
		name string
		rec  record.Record
	}{
		{"empty id", record.Record{}},
		{"empty tag key", record.Record{ID: "a", Tags: record.TagsFromMap(map[string][]string{"": nil})}},
		{"id too long", record.Record{ID: strings.Repeat("x", 400)}},
		{"unencodable payload", record.Record{ID: "a", Payload: map[string]any{"ch": make(chan int)}}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := FromRecord(&tc.rec); !errors.Is(err, domain.ErrInvalidRecord) {
				t.Fatalf("expected ErrInvalidRecord, got %v", err)
			}
		})
	}
}

func TestToRecord_BadPayload(t *testing.T) {
	doc := Document{ID: EncodeID("a"), Payload: "{not json"}
	if _, err := doc.ToRecord(false); !errors.Is(err, domain.ErrInvalidRecord) {
		t.Fatalf("expected ErrInvalidRecord, got %v", err)
	}
}
