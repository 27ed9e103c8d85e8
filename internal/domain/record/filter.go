package record

import "strings"

// Filter is a set of tag constraints: for every key, the record must carry that key
// with one of the listed values. A key listed without values only requires presence.
type Filter struct {
	Tags
}

// NewFilter creates an empty filter.
func NewFilter() *Filter {
	return &Filter{Tags: NewTags()}
}

// ByTag adds an accepted value for key and returns the filter for chaining.
func (f *Filter) ByTag(key string, values ...string) *Filter {
	f.Add(key, values...)
	return f
}

// DebugString renders the filter as "(k=v1|v2) & (k2=v)".
func (f *Filter) DebugString() string {
	if f == nil {
		return ""
	}
	parts := make([]string, 0, f.Len())
	for _, k := range f.Keys() {
		parts = append(parts, "("+k+"="+strings.Join(f.Values(k), "|")+")")
	}
	return strings.Join(parts, " & ")
}

// FiltersDebugString renders a filter list joined with " & ".
func FiltersDebugString(filters []Filter) string {
	parts := make([]string, 0, len(filters))
	for i := range filters {
		if s := filters[i].DebugString(); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, " & ")
}
