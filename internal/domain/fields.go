package domain

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
)

// Fields is a flat snapshot of an entity as stored by the tabular and
// document backends.
type Fields map[string]any

// ToFields converts a JSON-tagged struct into Fields. Zero values tagged
// omitempty are left out.
func ToFields(v any) (Fields, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal fields: %w", err)
	}
	var f Fields
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("unmarshal fields: %w", err)
	}
	return f, nil
}

// Decode fills a JSON-tagged struct from Fields.
func (f Fields) Decode(v any) error {
	data, err := json.Marshal(f)
	if err != nil {
		return fmt.Errorf("marshal fields: %w", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode fields: %w", err)
	}
	return nil
}

// Merge returns a copy of f with every key of patch applied on top.
func (f Fields) Merge(patch Fields) Fields {
	out := make(Fields, len(f)+len(patch))
	for k, v := range f {
		out[k] = v
	}
	for k, v := range patch {
		out[k] = v
	}
	return out
}

// String returns the value of key formatted as a string, or "" if absent.
func (f Fields) String(key string) string {
	v, ok := f[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// Diff lists the keys whose values differ between previous and next,
// sorted for stable output.
func Diff(previous, next Fields) []string {
	var changed []string
	for k, v := range next {
		old, ok := previous[k]
		if !ok || !reflect.DeepEqual(normalize(old), normalize(v)) {
			changed = append(changed, k)
		}
	}
	sort.Strings(changed)
	return changed
}

// normalize maps numeric types onto float64 so 50 and 50.0 compare equal
// after a JSON round trip.
func normalize(v any) any {
	switch n := v.(type) {
	case int:
		return float64(n)
	case int32:
		return float64(n)
	case int64:
		return float64(n)
	case float32:
		return float64(n)
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return n.String()
		}
		return f
	}
	return v
}
