package types

import (
	"context"
	"iter"
)

// Store is the narrow view of the record store used by the engine. A Store
// is not safe for use by concurrent workers; each worker opens its own
// through a StoreOpener.
type Store interface {
	// SchemaOf describes the fields of rt. Returns ErrRecordTypeNotFound if
	// the store has no such record type.
	SchemaOf(ctx context.Context, rt RecordTypeConfig) (RecordSchema, error)

	// StreamRecords yields the records of schema's record type one at a time
	// without materializing the whole set. Each yielded record carries its
	// key and the values of fields. Every call restarts the iteration.
	StreamRecords(ctx context.Context, schema RecordSchema, fields []string) iter.Seq2[*Record, error]

	// BulkUpdate writes the values of fields for every record back to the
	// store. batchSizeHint bounds the records written per statement group.
	BulkUpdate(ctx context.Context, schema RecordSchema, records []*Record, fields []string, batchSizeHint int) error

	// Close releases the store's connection. Idempotent.
	Close() error
}

// Catalog enumerates the record types a store knows about.
type Catalog interface {
	// RecordTables returns the names of the tables present in the store.
	RecordTables(ctx context.Context) ([]string, error)
}

// StoreOpener establishes a fresh store connection. Each call must return a
// Store that shares no connection with previously opened ones.
type StoreOpener func(ctx context.Context) (Store, error)
