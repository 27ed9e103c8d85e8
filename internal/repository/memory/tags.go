package memory

import "github.com/kailas-cloud/esmemory/internal/domain/record"

// Tag is one nested {name, value} entry. A nil Value marks a presence tag.
type Tag struct {
	Name  string  `json:"name"`
	Value *string `json:"value,omitempty"`
}

// ToEngineTags expands a tag collection: one entry per value, and one
// value-less entry for each key without values. Key order is preserved.
func ToEngineTags(tags record.Tags) []Tag {
	out := make([]Tag, 0, tags.Len())
	for _, key := range tags.Keys() {
		values := tags.Values(key)
		if len(values) == 0 {
			out = append(out, Tag{Name: key})
			continue
		}
		for _, v := range values {
			out = append(out, Tag{Name: key, Value: &v})
		}
	}
	return out
}

// FromEngineTags groups entries by name. When a name has both a value-less
// entry and valued entries, the values win.
func FromEngineTags(entries []Tag) record.Tags {
	tags := record.NewTags()
	for _, e := range entries {
		if e.Value == nil {
			tags.Add(e.Name)
			continue
		}
		tags.Add(e.Name, *e.Value)
	}
	return tags
}
