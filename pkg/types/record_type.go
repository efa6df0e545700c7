package types

import (
	"strings"

	mapset "github.com/deckarep/golang-set/v2"
)

// RecordTypeConfig identifies one record type to depersonalize and carries
// its per-type options. Name is a stable "app.Model" identifier.
type RecordTypeConfig struct {
	Name string `mapstructure:"name" yaml:"name" json:"name"`

	// Table overrides the storage table; when empty TableName derives it
	// from Name.
	Table string `mapstructure:"table" yaml:"table,omitempty" json:"table,omitempty"`

	UniqueFields        []string       `mapstructure:"unique_fields" yaml:"unique_fields,omitempty" json:"unique_fields,omitempty"`
	ExtraFieldNames     []string       `mapstructure:"field_names" yaml:"field_names,omitempty" json:"field_names,omitempty"`
	ExtraFieldSourceMap FieldSourceMap `mapstructure:"field_source_map" yaml:"field_source_map,omitempty" json:"field_source_map,omitempty"`
}

// TableName returns the storage table for this record type. Without an
// explicit Table, "app.Model" maps to "app_model".
func (c RecordTypeConfig) TableName() string {
	if c.Table != "" {
		return c.Table
	}
	return strings.ToLower(strings.ReplaceAll(c.Name, ".", "_"))
}

// UniqueFieldSet returns the fields whose generated values must be pairwise
// distinct within a run.
func (c RecordTypeConfig) UniqueFieldSet() mapset.Set[string] {
	return mapset.NewThreadUnsafeSet(c.UniqueFields...)
}
