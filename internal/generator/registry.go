// Package generator implements the registry of synthetic value generators.
// Generators live in a tree of namespaces and are addressed by dotted paths
// such as "person.full_name".
package generator

import (
	"fmt"
	"slices"
	"strings"

	"github.com/mesh-intelligence/depersonalizer/pkg/types"
)

// Generator produces one synthetic value per call.
type Generator func() any

// Namespace is one node of the generator tree. It holds child namespaces and
// leaf generators; a name is either a namespace or a leaf, never both.
type Namespace struct {
	name     string
	children map[string]*Namespace
	leaves   map[string]Generator
}

// NewNamespace returns an empty namespace.
func NewNamespace(name string) *Namespace {
	return &Namespace{
		name:     name,
		children: make(map[string]*Namespace),
		leaves:   make(map[string]Generator),
	}
}

// Sub returns the child namespace called name, creating it if needed.
// It panics if name is already registered as a leaf.
func (n *Namespace) Sub(name string) *Namespace {
	if _, ok := n.leaves[name]; ok {
		panic(fmt.Sprintf("generator: %s.%s is a leaf", n.name, name))
	}
	child, ok := n.children[name]
	if !ok {
		child = NewNamespace(name)
		n.children[name] = child
	}
	return child
}

// Add registers a leaf generator and returns n for chaining.
// It panics if name is already registered as a namespace.
func (n *Namespace) Add(name string, g Generator) *Namespace {
	if _, ok := n.children[name]; ok {
		panic(fmt.Sprintf("generator: %s.%s is a namespace", n.name, name))
	}
	n.leaves[name] = g
	return n
}

// Registry is a read-only generator tree. Build the tree with Namespace
// before handing it to NewRegistry; the registry never modifies it.
type Registry struct {
	locale string
	root   *Namespace
}

// NewRegistry wraps root as a registry for locale.
func NewRegistry(locale string, root *Namespace) *Registry {
	return &Registry{locale: locale, root: root}
}

// Locale returns the locale the registry was built for.
func (r *Registry) Locale() string {
	return r.locale
}

// Resolve walks path left to right. Every segment but the last must name a
// namespace and the last must name a generator. Otherwise it returns an
// *types.UnknownGeneratorPathError naming the first segment that failed.
func (r *Registry) Resolve(path string) (Generator, error) {
	segments := strings.Split(path, ".")
	node := r.root
	for i, seg := range segments {
		if seg == "" {
			return nil, &types.UnknownGeneratorPathError{Path: path, Segment: seg}
		}
		if i == len(segments)-1 {
			g, ok := node.leaves[seg]
			if !ok {
				return nil, &types.UnknownGeneratorPathError{Path: path, Segment: seg}
			}
			return g, nil
		}
		child, ok := node.children[seg]
		if !ok {
			return nil, &types.UnknownGeneratorPathError{Path: path, Segment: seg}
		}
		node = child
	}
	return nil, &types.UnknownGeneratorPathError{Path: path}
}

// Paths lists every generator path in the registry, sorted.
func (r *Registry) Paths() []string {
	var out []string
	var walk func(prefix string, n *Namespace)
	walk = func(prefix string, n *Namespace) {
		for name := range n.leaves {
			out = append(out, prefix+name)
		}
		for name, child := range n.children {
			walk(prefix+name+".", child)
		}
	}
	walk("", r.root)
	slices.Sort(out)
	return out
}
