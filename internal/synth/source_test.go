package synth

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/depersonalizer/internal/generator"
	"github.com/mesh-intelligence/depersonalizer/pkg/types"
)

var uniqueSuffix = regexp.MustCompile(`^(.*) \(([0-9a-f-]{36})\)$`)

// constRegistry returns a registry whose generators always return the same
// value, so that only the uniqueness token can tell values apart.
func constRegistry() *generator.Registry {
	root := generator.NewNamespace("")
	root.Sub("person").
		Add("full_name", func() any { return "John Doe" }).
		Add("email", func() any { return "john@example.org" })
	return generator.NewRegistry("en", root)
}

func TestValueFor(t *testing.T) {
	src := NewSource(constRegistry(), types.FieldSourceMap{
		"name":  "person.full_name",
		"email": "person.email",
	}, []string{"email"})

	name, err := src.ValueFor("name")
	require.NoError(t, err)
	assert.Equal(t, "John Doe", name)

	email, err := src.ValueFor("email")
	require.NoError(t, err)
	m := uniqueSuffix.FindStringSubmatch(email.(string))
	require.NotNil(t, m, "unique value %q should carry a token", email)
	assert.Equal(t, "john@example.org", m[1])
}

func TestValueForMissingFieldSource(t *testing.T) {
	src := NewSource(constRegistry(), types.FieldSourceMap{}, nil)

	_, err := src.ValueFor("nickname")
	require.ErrorIs(t, err, types.ErrMissingFieldSource)
	var missing *types.MissingFieldSourceError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "nickname", missing.Field)
}

func TestValueForUnknownGeneratorPath(t *testing.T) {
	src := NewSource(constRegistry(), types.FieldSourceMap{"name": "person.nope"}, nil)

	_, err := src.ValueFor("name")
	assert.ErrorIs(t, err, types.ErrUnknownGeneratorPath)
}

func TestValueForUniqueAcrossManyRecords(t *testing.T) {
	const n = 100_000
	src := NewSource(constRegistry(), types.FieldSourceMap{"email": "person.email"}, []string{"email"})

	seen := make(map[string]struct{}, n)
	for range n {
		v, err := src.ValueFor("email")
		require.NoError(t, err)
		seen[v.(string)] = struct{}{}
	}
	assert.Len(t, seen, n)
}

func TestNewSourceCopiesSourceMap(t *testing.T) {
	m := types.FieldSourceMap{"name": "person.full_name"}
	src := NewSource(constRegistry(), m, nil)

	m["name"] = "person.nope"
	delete(m, "name")

	v, err := src.ValueFor("name")
	require.NoError(t, err)
	assert.Equal(t, "John Doe", v)
}

func TestWithTokenFunc(t *testing.T) {
	src := NewSource(constRegistry(), types.FieldSourceMap{"name": "person.full_name"}, []string{"name"},
		WithTokenFunc(func() string { return "t1" }))

	v, err := src.ValueFor("name")
	require.NoError(t, err)
	assert.Equal(t, "John Doe (t1)", v)
	assert.True(t, src.IsUnique("name"))
	assert.False(t, src.IsUnique("email"))
}
