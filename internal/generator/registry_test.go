package generator

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/depersonalizer/pkg/types"
)

func testRegistry() *Registry {
	root := NewNamespace("")
	root.Sub("person").
		Add("full_name", func() any { return "Jane Roe" }).
		Add("email", func() any { return "jane@example.org" })
	root.Sub("finance").Sub("bank").
		Add("swift", func() any { return "DEUTDEFF" })
	return NewRegistry("en", root)
}

func TestRegistryResolve(t *testing.T) {
	r := testRegistry()

	tests := []struct {
		name        string
		path        string
		want        any
		wantSegment string
	}{
		{name: "two segments", path: "person.full_name", want: "Jane Roe"},
		{name: "three segments", path: "finance.bank.swift", want: "DEUTDEFF"},
		{name: "unknown namespace", path: "vehicle.plate", wantSegment: "vehicle"},
		{name: "unknown leaf", path: "person.ssn", wantSegment: "ssn"},
		{name: "namespace used as leaf", path: "finance.bank", wantSegment: "bank"},
		{name: "leaf used as namespace", path: "person.email.domain", wantSegment: "email"},
		{name: "empty path", path: "", wantSegment: ""},
		{name: "trailing dot", path: "person.", wantSegment: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := r.Resolve(tt.path)
			if tt.want != nil {
				require.NoError(t, err)
				assert.Equal(t, tt.want, g())
				return
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, types.ErrUnknownGeneratorPath))
			var pathErr *types.UnknownGeneratorPathError
			require.ErrorAs(t, err, &pathErr)
			assert.Equal(t, tt.path, pathErr.Path)
			assert.Equal(t, tt.wantSegment, pathErr.Segment)
		})
	}
}

func TestRegistryResolveDoesNotMutate(t *testing.T) {
	r := testRegistry()
	before := r.Paths()

	_, _ = r.Resolve("person.unknown")
	_, _ = r.Resolve("newspace.leaf")
	g, err := r.Resolve("person.full_name")
	require.NoError(t, err)
	g()

	assert.Equal(t, before, r.Paths())
}

func TestRegistryPaths(t *testing.T) {
	assert.Equal(t,
		[]string{"finance.bank.swift", "person.email", "person.full_name"},
		testRegistry().Paths())
}

func TestNamespaceConflictsPanic(t *testing.T) {
	root := NewNamespace("")
	root.Add("leaf", func() any { return nil })
	assert.Panics(t, func() { root.Sub("leaf") })

	root.Sub("ns")
	assert.Panics(t, func() { root.Add("ns", func() any { return nil }) })
}
