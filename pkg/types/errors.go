package types

import (
	"errors"
	"fmt"
)

// Depersonalization errors. Typed errors below match these with errors.Is.
var (
	ErrConfiguration        = errors.New("configuration error")
	ErrUnknownGeneratorPath = errors.New("unknown generator path")
	ErrMissingFieldSource   = errors.New("field has no generator mapping")
	ErrUnknownLocale        = errors.New("unknown locale")
	ErrStore                = errors.New("store error")
	ErrStoreClosed          = errors.New("store is closed")
	ErrRecordTypeNotFound   = errors.New("record type not found in store")
	ErrNoRecordKey          = errors.New("record type has no usable key")
	ErrRunFailed            = errors.New("depersonalization failed for one or more record types")
)

// ConfigurationError reports a configuration defect found before any record
// is mutated. Field names the first offending field.
type ConfigurationError struct {
	RecordType string // empty when the defect is run-wide
	Field      string
	Err        error
}

func (e *ConfigurationError) Error() string {
	if e.Field == "" && e.Err != nil {
		return fmt.Sprintf("configuration error: %v", e.Err)
	}
	msg := fmt.Sprintf("field %q", e.Field)
	if e.RecordType != "" {
		msg = fmt.Sprintf("%s of %s", msg, e.RecordType)
	}
	if e.Err != nil {
		return fmt.Sprintf("configuration error: %s: %v", msg, e.Err)
	}
	return fmt.Sprintf("configuration error: %s doesn't have a source", msg)
}

func (e *ConfigurationError) Is(target error) bool {
	return target == ErrConfiguration
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// UnknownGeneratorPathError reports a generator path with a segment that does
// not resolve in the registry.
type UnknownGeneratorPathError struct {
	Path    string
	Segment string
}

func (e *UnknownGeneratorPathError) Error() string {
	return fmt.Sprintf("unknown generator path %q: no segment %q", e.Path, e.Segment)
}

func (e *UnknownGeneratorPathError) Is(target error) bool {
	return target == ErrUnknownGeneratorPath
}

// MissingFieldSourceError reports a lookup of a field that has no entry in
// the field source map.
type MissingFieldSourceError struct {
	Field string
}

func (e *MissingFieldSourceError) Error() string {
	return fmt.Sprintf("field %q has no generator mapping", e.Field)
}

func (e *MissingFieldSourceError) Is(target error) bool {
	return target == ErrMissingFieldSource
}

// Store operation names used in StoreError.
const (
	OpSchema = "schema"
	OpStream = "stream"
	OpUpdate = "bulk_update"
	OpOpen   = "open"
	OpList   = "list"
)

// StoreError wraps a store collaborator failure with the record type,
// operation, and batch it happened in. Batch is 1-based; zero means the
// failure was outside any batch.
type StoreError struct {
	RecordType string
	Op         string
	Batch      int
	Err        error
}

func (e *StoreError) Error() string {
	if e.Batch > 0 {
		return fmt.Sprintf("store %s failed for %s at batch %d: %v", e.Op, e.RecordType, e.Batch, e.Err)
	}
	return fmt.Sprintf("store %s failed for %s: %v", e.Op, e.RecordType, e.Err)
}

func (e *StoreError) Is(target error) bool {
	return target == ErrStore
}

func (e *StoreError) Unwrap() error {
	return e.Err
}
