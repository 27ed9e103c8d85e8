package record

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
)

// Tags is a multi-valued tag collection: each key maps to zero or more distinct values.
// A key with zero values is a presence tag. Key insertion order is preserved.
// The zero value is an empty, usable collection.
type Tags struct {
	keys   []string
	values map[string][]string
}

// NewTags creates an empty tag collection.
func NewTags() Tags {
	return Tags{values: make(map[string][]string)}
}

// TagsFromMap builds a collection from a plain map. Keys are added in sorted order.
func TagsFromMap(m map[string][]string) Tags {
	t := NewTags()
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		t.Add(k, m[k]...)
	}
	return t
}

// Add registers key and appends values not already present for it.
// Add(key) with no values records a presence tag.
func (t *Tags) Add(key string, values ...string) {
	if t.values == nil {
		t.values = make(map[string][]string)
	}
	existing, ok := t.values[key]
	if !ok {
		t.keys = append(t.keys, key)
		existing = []string{}
	}
	for _, v := range values {
		if !slices.Contains(existing, v) {
			existing = append(existing, v)
		}
	}
	t.values[key] = existing
}

// Has reports whether key is present, with or without values.
func (t Tags) Has(key string) bool {
	_, ok := t.values[key]
	return ok
}

// Values returns the values of key in insertion order (nil if the key is absent).
func (t Tags) Values(key string) []string {
	return t.values[key]
}

// Keys returns keys in insertion order.
func (t Tags) Keys() []string {
	return slices.Clone(t.keys)
}

// Len returns the number of keys.
func (t Tags) Len() int { return len(t.keys) }

// IsEmpty reports whether the collection has no keys.
func (t Tags) IsEmpty() bool { return len(t.keys) == 0 }

// Clone returns a deep copy.
func (t Tags) Clone() Tags {
	c := NewTags()
	for _, k := range t.keys {
		c.Add(k, t.values[k]...)
	}
	return c
}

// Equal reports whether both collections have the same keys and the same value set per key.
// Ordering is ignored.
func (t Tags) Equal(other Tags) bool {
	if t.Len() != other.Len() {
		return false
	}
	for _, k := range t.keys {
		if !other.Has(k) {
			return false
		}
		a := slices.Clone(t.values[k])
		b := slices.Clone(other.values[k])
		if len(a) != len(b) {
			return false
		}
		slices.Sort(a)
		slices.Sort(b)
		if !slices.Equal(a, b) {
			return false
		}
	}
	return true
}

// ToMap returns a plain map copy.
func (t Tags) ToMap() map[string][]string {
	m := make(map[string][]string, len(t.keys))
	for _, k := range t.keys {
		m[k] = slices.Clone(t.values[k])
	}
	return m
}

// MarshalJSON encodes the collection as an object of arrays, keeping key order.
func (t Tags) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range t.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(k)
		if err != nil {
			return nil, fmt.Errorf("marshal tag key: %w", err)
		}
		vals, err := json.Marshal(t.values[k])
		if err != nil {
			return nil, fmt.Errorf("marshal tag values: %w", err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(vals)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes an object of arrays (or null), keeping key order from the input.
func (t *Tags) UnmarshalJSON(data []byte) error {
	*t = NewTags()
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("decode tags: %w", err)
	}
	if tok == nil {
		return nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("decode tags: expected object, got %v", tok)
	}

	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("decode tag key: %w", err)
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("decode tags: unexpected key %v", keyTok)
		}
		var values []string
		if err := dec.Decode(&values); err != nil {
			return fmt.Errorf("decode values of tag %q: %w", key, err)
		}
		t.Add(key, values...)
	}

	if _, err := dec.Token(); err != nil {
		return fmt.Errorf("decode tags: %w", err)
	}
	return nil
}
