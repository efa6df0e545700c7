// Package classify selects the fields of a record type that qualify for
// replacement.
package classify

import (
	"slices"

	"github.com/mesh-intelligence/depersonalizer/pkg/types"
)

// FieldsToUpdate returns the names of the fields in schema whose kind and name
// are both allowed by policy, sorted and without duplicates. An empty result
// means there is nothing to replace; it is not an error.
func FieldsToUpdate(schema types.RecordSchema, policy types.ClassificationPolicy) []string {
	var names []string
	for _, f := range schema.Fields {
		if f.Name == schema.Key {
			continue
		}
		if policy.Allows(f) {
			names = append(names, f.Name)
		}
	}
	slices.Sort(names)
	return slices.Compact(names)
}
