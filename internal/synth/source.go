// Package synth produces synthetic replacement values for named fields.
package synth

import (
	"fmt"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/google/uuid"

	"github.com/mesh-intelligence/depersonalizer/internal/generator"
	"github.com/mesh-intelligence/depersonalizer/pkg/types"
)

// Resolver looks up generators by dotted path.
type Resolver interface {
	Resolve(path string) (generator.Generator, error)
}

// Source produces values for fields through a field source map and a
// generator registry. Fields in the unique set get a fresh token appended so
// that their values never repeat within a run.
type Source struct {
	registry  Resolver
	sourceMap types.FieldSourceMap
	unique    mapset.Set[string]
	token     func() string
}

// Option configures a Source.
type Option func(*Source)

// WithTokenFunc replaces the uniqueness token generator.
func WithTokenFunc(fn func() string) Option {
	return func(s *Source) {
		s.token = fn
	}
}

// NewSource returns a Source over registry. sourceMap is copied; later
// changes by the caller are not observed.
func NewSource(registry Resolver, sourceMap types.FieldSourceMap, uniqueFields []string, opts ...Option) *Source {
	s := &Source{
		registry:  registry,
		sourceMap: sourceMap.Clone(),
		unique:    mapset.NewThreadUnsafeSet(uniqueFields...),
		token:     newToken,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ValueFor generates a value for field.
func (s *Source) ValueFor(field string) (any, error) {
	path, ok := s.sourceMap.Path(field)
	if !ok {
		return nil, &types.MissingFieldSourceError{Field: field}
	}
	gen, err := s.registry.Resolve(path)
	if err != nil {
		return nil, fmt.Errorf("field %q: %w", field, err)
	}
	value := gen()
	if s.unique.Contains(field) {
		return MakeUnique(value, s.token()), nil
	}
	return value, nil
}

// IsUnique reports whether values for field carry a uniqueness token.
func (s *Source) IsUnique(field string) bool {
	return s.unique.Contains(field)
}

// MakeUnique appends token to value as "<value> (<token>)".
func MakeUnique(value any, token string) string {
	return fmt.Sprintf("%v (%s)", value, token)
}

// newToken returns a random 128-bit identifier.
func newToken() string {
	return uuid.NewString()
}
