package orchestrator

import (
	"github.com/mesh-intelligence/depersonalizer/internal/synth"
	"github.com/mesh-intelligence/depersonalizer/pkg/types"
)

// Validate checks, without touching any store, that every field name that
// can be selected for a configured record type has a generator mapping that
// resolves in the registry. The first defect is returned as a
// *types.ConfigurationError.
//
// The run-wide check compares the union of eligible names with the merged
// map of every layer. The per-type check then repeats it with each type's
// own effective map, so that one type's override cannot cover a name for a
// sibling that would not see it at run time.
func Validate(cfg types.Config, registry synth.Resolver) error {
	merged := cfg.MergedSourceMap()
	for _, name := range cfg.AllEligibleFieldNames() {
		if _, ok := merged.Path(name); !ok {
			return &types.ConfigurationError{Field: name}
		}
	}

	for _, rt := range cfg.RecordTypes {
		effective := cfg.SourceMap(rt)
		for _, name := range cfg.EligibleFieldNames(rt) {
			path, ok := effective.Path(name)
			if !ok {
				return &types.ConfigurationError{RecordType: rt.Name, Field: name}
			}
			if _, err := registry.Resolve(path); err != nil {
				return &types.ConfigurationError{RecordType: rt.Name, Field: name, Err: err}
			}
		}
	}
	return nil
}
