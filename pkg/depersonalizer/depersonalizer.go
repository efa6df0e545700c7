// Package depersonalizer is the public entry point: it replaces personal data
// in configured record types with generated values.
//
// Example:
//
//	cfg := types.DefaultConfig()
//	cfg.DSN = "app.db"
//	cfg.RecordTypes = []types.RecordTypeConfig{{Name: "app.User", UniqueFields: []string{"email"}}}
//	report, err := depersonalizer.RunDepersonalization(ctx, cfg, depersonalizer.SQLOpener(cfg))
package depersonalizer

import (
	"context"

	"github.com/mesh-intelligence/depersonalizer/internal/generator"
	"github.com/mesh-intelligence/depersonalizer/internal/orchestrator"
	"github.com/mesh-intelligence/depersonalizer/internal/sqlstore"
	"github.com/mesh-intelligence/depersonalizer/pkg/types"
)

type options struct {
	seed uint64
}

// Option tunes a run.
type Option func(*options)

// WithSeed seeds the generators so that runs over the same data produce the
// same values, apart from uniqueness tokens. Zero picks a random seed.
func WithSeed(seed uint64) Option {
	return func(o *options) { o.seed = seed }
}

// RunDepersonalization validates cfg and processes every configured record
// type on stores from open. Configuration errors are returned before any
// store is opened.
func RunDepersonalization(ctx context.Context, cfg types.Config, open types.StoreOpener, opts ...Option) (types.RunReport, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	registry, err := generator.Builtin(cfg.Locale, o.seed)
	if err != nil {
		return types.RunReport{}, &types.ConfigurationError{Err: err}
	}
	return orchestrator.New(cfg, registry, open).Run(ctx)
}

// Check runs the pre-flight validation of RunDepersonalization without
// opening a store.
func Check(cfg types.Config) error {
	if err := cfg.Validate(); err != nil {
		return &types.ConfigurationError{Err: err}
	}
	registry, err := generator.Builtin(cfg.Locale, 0)
	if err != nil {
		return &types.ConfigurationError{Err: err}
	}
	return orchestrator.Validate(cfg, registry)
}

// SQLOpener returns a StoreOpener for cfg's driver and DSN. Each call of the
// opener establishes a new connection pool.
func SQLOpener(cfg types.Config) types.StoreOpener {
	return sqlstore.Opener(cfg.Driver, cfg.DSN)
}
