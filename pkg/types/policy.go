package types

import (
	mapset "github.com/deckarep/golang-set/v2"
)

// DefaultFieldKinds are the kinds eligible for replacement when the
// configuration does not say otherwise.
func DefaultFieldKinds() []FieldKind {
	return []FieldKind{KindChar, KindEmail}
}

// DefaultFieldNames are the field names eligible for replacement when the
// configuration does not say otherwise.
func DefaultFieldNames() []string {
	return []string{"name", "full_name", "first_name", "last_name", "email"}
}

// ClassificationPolicy holds the field kinds and field names eligible for
// replacement. Both are exact set membership tests.
type ClassificationPolicy struct {
	Kinds mapset.Set[FieldKind]
	Names mapset.Set[string]
}

// NewClassificationPolicy builds a policy from kind and name lists.
// Duplicates collapse.
func NewClassificationPolicy(kinds []FieldKind, names []string) ClassificationPolicy {
	return ClassificationPolicy{
		Kinds: mapset.NewThreadUnsafeSet(kinds...),
		Names: mapset.NewThreadUnsafeSet(names...),
	}
}

// Allows reports whether f qualifies for replacement: its kind and its name
// must both be members of the policy.
func (p ClassificationPolicy) Allows(f Field) bool {
	if p.Kinds == nil || p.Names == nil {
		return false
	}
	return p.Kinds.Contains(f.Kind) && p.Names.Contains(f.Name)
}
