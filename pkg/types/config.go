package types

import (
	"errors"
	"fmt"

	"github.com/samber/lo"
)

// Config holds the resolved configuration for one depersonalization run.
type Config struct {
	Driver string `mapstructure:"driver" yaml:"driver" json:"driver"`
	DSN    string `mapstructure:"dsn" yaml:"dsn" json:"-"`
	Locale string `mapstructure:"locale" yaml:"locale" json:"locale"`

	BatchSize int  `mapstructure:"batch_size" yaml:"batch_size" json:"batch_size"`
	Workers   int  `mapstructure:"workers" yaml:"workers" json:"workers"`
	FailFast  bool `mapstructure:"fail_fast" yaml:"fail_fast" json:"fail_fast"`

	FieldKinds               []FieldKind    `mapstructure:"field_kinds" yaml:"field_kinds" json:"field_kinds"`
	FieldNames               []string       `mapstructure:"field_names" yaml:"field_names" json:"field_names"`
	FieldSourceMap           FieldSourceMap `mapstructure:"field_source_map" yaml:"field_source_map" json:"field_source_map"`
	AdditionalFieldSourceMap FieldSourceMap `mapstructure:"additional_field_source_map" yaml:"additional_field_source_map" json:"additional_field_source_map"`

	RecordTypes []RecordTypeConfig `mapstructure:"record_types" yaml:"record_types" json:"record_types"`
}

// Supported store drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
)

// Defaults applied by DefaultConfig.
const (
	DefaultDriver    = DriverSQLite
	DefaultLocale    = "en"
	DefaultBatchSize = 1000
	DefaultWorkers   = 1
)

// Config validation errors.
var (
	ErrDriverEmpty         = errors.New("driver must not be empty")
	ErrDriverUnknown       = errors.New("unknown driver")
	ErrBatchSizeInvalid    = errors.New("batch size must be positive")
	ErrWorkersInvalid      = errors.New("workers must be positive")
	ErrNoRecordTypes       = errors.New("no record types configured")
	ErrRecordTypeNameEmpty = errors.New("record type name must not be empty")
	ErrDuplicateRecordType = errors.New("record type configured more than once")
	ErrFieldKindUnknown    = errors.New("unknown field kind")
)

// knownDrivers lists the drivers that Validate accepts.
var knownDrivers = map[string]bool{
	DriverSQLite:   true,
	DriverPostgres: true,
	DriverMySQL:    true,
}

// DefaultConfig returns a Config populated with the built-in defaults. Every
// call returns independent maps and slices.
func DefaultConfig() Config {
	return Config{
		Driver:                   DefaultDriver,
		Locale:                   DefaultLocale,
		BatchSize:                DefaultBatchSize,
		Workers:                  DefaultWorkers,
		FieldKinds:               DefaultFieldKinds(),
		FieldNames:               DefaultFieldNames(),
		FieldSourceMap:           DefaultFieldSourceMap(),
		AdditionalFieldSourceMap: FieldSourceMap{},
	}
}

// Validate checks that the Config is well-formed. It returns a sentinel error
// from this package, wrapped with context where useful. Field source
// completeness is checked separately by the orchestrator's pre-flight.
func (c Config) Validate() error {
	if c.Driver == "" {
		return ErrDriverEmpty
	}
	if !knownDrivers[c.Driver] {
		return fmt.Errorf("%w: %q", ErrDriverUnknown, c.Driver)
	}
	if c.BatchSize <= 0 {
		return ErrBatchSizeInvalid
	}
	if c.Workers <= 0 {
		return ErrWorkersInvalid
	}
	for _, k := range c.FieldKinds {
		if !k.Valid() {
			return fmt.Errorf("%w: %q", ErrFieldKindUnknown, k)
		}
	}
	if len(c.RecordTypes) == 0 {
		return ErrNoRecordTypes
	}
	seen := make(map[string]bool, len(c.RecordTypes))
	for _, rt := range c.RecordTypes {
		if rt.Name == "" {
			return ErrRecordTypeNameEmpty
		}
		if seen[rt.Name] {
			return fmt.Errorf("%w: %s", ErrDuplicateRecordType, rt.Name)
		}
		seen[rt.Name] = true
	}
	return nil
}

// EligibleFieldNames returns the global field names followed by the extra
// names of rt, without duplicates.
func (c Config) EligibleFieldNames(rt RecordTypeConfig) []string {
	return lo.Uniq(append(append([]string{}, c.FieldNames...), rt.ExtraFieldNames...))
}

// AllEligibleFieldNames returns the union of field names that may be selected
// for any configured record type, in configuration order.
func (c Config) AllEligibleFieldNames() []string {
	names := append([]string{}, c.FieldNames...)
	for _, rt := range c.RecordTypes {
		names = append(names, rt.ExtraFieldNames...)
	}
	return lo.Uniq(names)
}

// Policy returns the classification policy for rt.
func (c Config) Policy(rt RecordTypeConfig) ClassificationPolicy {
	return NewClassificationPolicy(c.FieldKinds, c.EligibleFieldNames(rt))
}

// SourceMap returns the field source map in effect for rt: the base map, then
// the run-wide additions, then rt's own overrides. Other record types'
// overrides do not take part.
func (c Config) SourceMap(rt RecordTypeConfig) FieldSourceMap {
	return MergeFieldSourceMaps(c.FieldSourceMap, c.AdditionalFieldSourceMap, rt.ExtraFieldSourceMap)
}

// MergedSourceMap returns the base map layered with the run-wide additions
// and every record type's overrides.
func (c Config) MergedSourceMap() FieldSourceMap {
	layers := []FieldSourceMap{c.FieldSourceMap, c.AdditionalFieldSourceMap}
	for _, rt := range c.RecordTypes {
		layers = append(layers, rt.ExtraFieldSourceMap)
	}
	return MergeFieldSourceMaps(layers...)
}

// RecordType returns the configuration for the named record type.
func (c Config) RecordType(name string) (RecordTypeConfig, bool) {
	return lo.Find(c.RecordTypes, func(rt RecordTypeConfig) bool {
		return rt.Name == name
	})
}
