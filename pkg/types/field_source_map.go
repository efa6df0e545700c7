package types

import (
	"maps"
	"slices"
)

// FieldSourceMap maps a logical field name to a dotted generator path such as
// "person.full_name".
type FieldSourceMap map[string]string

// DefaultFieldSourceMap returns a fresh copy of the built-in mapping. Callers
// may modify the result freely.
func DefaultFieldSourceMap() FieldSourceMap {
	return FieldSourceMap{
		"name":       "finance.company",
		"full_name":  "person.full_name",
		"first_name": "person.first_name",
		"last_name":  "person.last_name",
		"email":      "person.email",
	}
}

// Clone returns an independent copy of m. A nil map clones to an empty map.
func (m FieldSourceMap) Clone() FieldSourceMap {
	out := make(FieldSourceMap, len(m))
	maps.Copy(out, m)
	return out
}

// Merge returns a new map holding every entry of m and overrides. On a key
// collision the entry from overrides wins. Neither input is modified.
func (m FieldSourceMap) Merge(overrides FieldSourceMap) FieldSourceMap {
	out := m.Clone()
	maps.Copy(out, overrides)
	return out
}

// Path returns the generator path mapped to field.
func (m FieldSourceMap) Path(field string) (string, bool) {
	p, ok := m[field]
	return p, ok
}

// Fields returns the mapped field names in sorted order.
func (m FieldSourceMap) Fields() []string {
	return slices.Sorted(maps.Keys(m))
}

// MergeFieldSourceMaps layers maps left to right; later maps win on key
// collisions. The inputs are not modified.
func MergeFieldSourceMaps(layers ...FieldSourceMap) FieldSourceMap {
	out := FieldSourceMap{}
	for _, l := range layers {
		maps.Copy(out, l)
	}
	return out
}
