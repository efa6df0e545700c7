// Package memstore provides an in-memory Store and Catalog used as a test
// double. It records every call so tests can assert on store traffic. It is
// not a supported backend; the CLI and facade only open sqlstore.
package memstore

import (
	"context"
	"iter"
	"maps"
	"slices"
	"sync"

	"github.com/mesh-intelligence/depersonalizer/pkg/types"
)

// Table is one in-memory record type. Rows are kept in insertion order.
type Table struct {
	Schema types.RecordSchema
	Rows   []map[string]any
}

// Calls counts store operations.
type Calls struct {
	Schema     int
	Stream     int
	BulkUpdate int
	Updated    int // records passed to BulkUpdate across all calls
	Opens      int
	Closes     int
}

// DB is the shared backing state. Each Open returns a new Store handle over
// it, mirroring separate connections to one database.
type DB struct {
	mu     sync.Mutex
	tables map[string]*Table
	calls  Calls

	// Fail injects errors: the key is "<op>:<table>", the value is returned
	// by the matching operation. For bulk_update the error is returned from
	// the FailAfter-th call onward (1-based, default first call).
	Fail      map[string]error
	FailAfter int

	updatesByTable map[string]int
	updated        map[string][]any
}

// New returns an empty DB.
func New() *DB {
	return &DB{
		tables:         make(map[string]*Table),
		Fail:           make(map[string]error),
		updatesByTable: make(map[string]int),
		updated:        make(map[string][]any),
	}
}

// AddTable registers a table. The schema's Table field is the lookup key.
func (db *DB) AddTable(schema types.RecordSchema, rows ...map[string]any) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.tables[schema.Table] = &Table{Schema: schema, Rows: rows}
}

// Rows returns a copy of the rows of table.
func (db *DB) Rows(table string) []map[string]any {
	db.mu.Lock()
	defer db.mu.Unlock()
	t, ok := db.tables[table]
	if !ok {
		return nil
	}
	out := make([]map[string]any, len(t.Rows))
	for i, r := range t.Rows {
		out[i] = maps.Clone(r)
	}
	return out
}

// Calls returns a snapshot of the call counters.
func (db *DB) Calls() Calls {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.calls
}

// UpdatedKeys returns the keys passed to BulkUpdate for table, in call order.
func (db *DB) UpdatedKeys(table string) []any {
	db.mu.Lock()
	defer db.mu.Unlock()
	return slices.Clone(db.updated[table])
}

// Open returns a new Store handle.
func (db *DB) Open(ctx context.Context) (types.Store, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.calls.Opens++
	if err := db.Fail[types.OpOpen]; err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

// Store is a handle over a DB.
type Store struct {
	db     *DB
	closed bool
}

// RecordTables lists the table names, sorted.
func (s *Store) RecordTables(ctx context.Context) ([]string, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if s.closed {
		return nil, types.ErrStoreClosed
	}
	if err := s.db.Fail[types.OpList]; err != nil {
		return nil, err
	}
	return slices.Sorted(maps.Keys(s.db.tables)), nil
}

// SchemaOf returns the schema of rt's table.
func (s *Store) SchemaOf(ctx context.Context, rt types.RecordTypeConfig) (types.RecordSchema, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	s.db.calls.Schema++
	if s.closed {
		return types.RecordSchema{}, types.ErrStoreClosed
	}
	if err := s.db.Fail[types.OpSchema+":"+rt.TableName()]; err != nil {
		return types.RecordSchema{}, err
	}
	t, ok := s.db.tables[rt.TableName()]
	if !ok {
		return types.RecordSchema{}, types.ErrRecordTypeNotFound
	}
	schema := t.Schema
	schema.RecordType = rt.Name
	schema.Fields = slices.Clone(t.Schema.Fields)
	return schema, nil
}

// StreamRecords yields copies of the rows of schema's table one at a time.
func (s *Store) StreamRecords(ctx context.Context, schema types.RecordSchema, fields []string) iter.Seq2[*types.Record, error] {
	return func(yield func(*types.Record, error) bool) {
		s.db.mu.Lock()
		s.db.calls.Stream++
		closed := s.closed
		failErr := s.db.Fail[types.OpStream+":"+schema.Table]
		t, ok := s.db.tables[schema.Table]
		s.db.mu.Unlock()

		switch {
		case closed:
			yield(nil, types.ErrStoreClosed)
			return
		case failErr != nil:
			yield(nil, failErr)
			return
		case !ok:
			yield(nil, types.ErrRecordTypeNotFound)
			return
		}

		for i := 0; ; i++ {
			s.db.mu.Lock()
			if i >= len(t.Rows) {
				s.db.mu.Unlock()
				return
			}
			row := t.Rows[i]
			rec := types.NewRecord(row[schema.Key])
			for _, f := range fields {
				rec.Set(f, row[f])
			}
			s.db.mu.Unlock()
			if !yield(rec, nil) {
				return
			}
		}
	}
}

// BulkUpdate writes fields of records back into the rows with matching keys.
func (s *Store) BulkUpdate(ctx context.Context, schema types.RecordSchema, records []*types.Record, fields []string, batchSizeHint int) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	s.db.calls.BulkUpdate++
	s.db.updatesByTable[schema.Table]++
	if s.closed {
		return types.ErrStoreClosed
	}
	if err := s.db.Fail[types.OpUpdate+":"+schema.Table]; err != nil {
		after := max(s.db.FailAfter, 1)
		if s.db.updatesByTable[schema.Table] >= after {
			return err
		}
	}
	t, ok := s.db.tables[schema.Table]
	if !ok {
		return types.ErrRecordTypeNotFound
	}
	index := make(map[any]int, len(t.Rows))
	for i, row := range t.Rows {
		index[row[schema.Key]] = i
	}
	for _, rec := range records {
		i, ok := index[rec.Key]
		if !ok {
			continue
		}
		for _, f := range fields {
			t.Rows[i][f] = rec.Values[f]
		}
		s.db.updated[schema.Table] = append(s.db.updated[schema.Table], rec.Key)
	}
	s.db.calls.Updated += len(records)
	return nil
}

// Close marks the handle closed. Idempotent.
func (s *Store) Close() error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if !s.closed {
		s.closed = true
		s.db.calls.Closes++
	}
	return nil
}
