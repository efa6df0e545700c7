// Package sqlstore implements the record store over database/sql for SQLite,
// PostgreSQL and MySQL.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"iter"
	"strings"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/mesh-intelligence/depersonalizer/pkg/types"
)

// DefaultPageSize is the number of records fetched per streaming query.
const DefaultPageSize = 500

// Store implements types.Store and types.Catalog over one *sql.DB.
type Store struct {
	mu       sync.RWMutex
	closed   bool
	db       *sql.DB
	dialect  dialect
	pageSize int
}

// Option configures a Store.
type Option func(*Store)

// WithPageSize sets how many records each streaming query fetches.
func WithPageSize(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.pageSize = n
		}
	}
}

// Open connects to the database named by dsn using driver (one of the
// types.Driver* names) and verifies the connection.
func Open(ctx context.Context, driver, dsn string, opts ...Option) (*Store, error) {
	d, err := lookupDialect(driver)
	if err != nil {
		return nil, err
	}
	if d.name == types.DriverSQLite {
		dsn = sqliteDSN(dsn)
	}
	db, err := sql.Open(d.driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	if d.name == types.DriverSQLite {
		// One connection serializes writers and avoids SQLITE_BUSY.
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect %s: %w", driver, err)
	}
	return newStore(db, d, opts...), nil
}

// sqliteBusyTimeout lets concurrent workers wait for the database write lock
// instead of failing with SQLITE_BUSY.
const sqliteBusyTimeout = "_pragma=busy_timeout(10000)"

func sqliteDSN(dsn string) string {
	if strings.Contains(dsn, "busy_timeout") {
		return dsn
	}
	if strings.Contains(dsn, "?") {
		return dsn + "&" + sqliteBusyTimeout
	}
	return dsn + "?" + sqliteBusyTimeout
}

// NewWithDB wraps an existing connection pool. The Store takes ownership of
// db and closes it on Close.
func NewWithDB(db *sql.DB, driver string, opts ...Option) (*Store, error) {
	d, err := lookupDialect(driver)
	if err != nil {
		return nil, err
	}
	return newStore(db, d, opts...), nil
}

func newStore(db *sql.DB, d dialect, opts ...Option) *Store {
	s := &Store{db: db, dialect: d, pageSize: DefaultPageSize}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Opener returns a types.StoreOpener that opens a new connection on every
// call, so that concurrent workers never share one.
func Opener(driver, dsn string, opts ...Option) types.StoreOpener {
	return func(ctx context.Context) (types.Store, error) {
		s, err := Open(ctx, driver, dsn, opts...)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
}

// Close releases the connection pool. Idempotent.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

// RecordTables lists the base tables visible to the connection.
func (s *Store) RecordTables(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, types.ErrStoreClosed
	}

	rows, err := s.db.QueryContext(ctx, s.dialect.tablesQuery)
	if err != nil {
		return nil, fmt.Errorf("listing tables: %w", err)
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scanning table name: %w", err)
		}
		tables = append(tables, name)
	}
	return tables, rows.Err()
}

// SchemaOf introspects rt's table. The key is the single-column primary key,
// or the dialect's implicit row key when there is none.
func (s *Store) SchemaOf(ctx context.Context, rt types.RecordTypeConfig) (types.RecordSchema, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return types.RecordSchema{}, types.ErrStoreClosed
	}

	table := rt.TableName()
	rows, err := s.db.QueryContext(ctx, s.dialect.columnsQuery, table)
	if err != nil {
		return types.RecordSchema{}, fmt.Errorf("describing %s: %w", table, err)
	}
	defer rows.Close()

	schema := types.RecordSchema{RecordType: rt.Name, Table: table}
	var primary []string
	for rows.Next() {
		var name, declared string
		var isPrimary bool
		if err := rows.Scan(&name, &declared, &isPrimary); err != nil {
			return types.RecordSchema{}, fmt.Errorf("scanning column of %s: %w", table, err)
		}
		schema.Fields = append(schema.Fields, types.Field{Name: name, Kind: kindOf(name, declared)})
		if isPrimary {
			primary = append(primary, name)
		}
	}
	if err := rows.Err(); err != nil {
		return types.RecordSchema{}, fmt.Errorf("describing %s: %w", table, err)
	}
	if len(schema.Fields) == 0 {
		return types.RecordSchema{}, fmt.Errorf("%w: %s (table %s)", types.ErrRecordTypeNotFound, rt.Name, table)
	}

	switch {
	case len(primary) == 1:
		schema.Key = primary[0]
	case s.dialect.implicitKey != "":
		schema.Key = s.dialect.implicitKey
	default:
		return types.RecordSchema{}, fmt.Errorf("%w: %s has %d primary key columns", types.ErrNoRecordKey, table, len(primary))
	}
	return schema, nil
}

// StreamRecords pages through the table in key order, holding at most one
// page in memory. No cursor stays open while the caller handles a record,
// so updates may be issued between yields.
func (s *Store) StreamRecords(ctx context.Context, schema types.RecordSchema, fields []string) iter.Seq2[*types.Record, error] {
	return func(yield func(*types.Record, error) bool) {
		var last any
		first := true
		for {
			if err := ctx.Err(); err != nil {
				yield(nil, err)
				return
			}
			page, err := s.fetchPage(ctx, schema, fields, last, first)
			if err != nil {
				yield(nil, err)
				return
			}
			for _, rec := range page {
				if !yield(rec, nil) {
					return
				}
			}
			if len(page) < s.pageSize {
				return
			}
			last = page[len(page)-1].Key
			first = false
		}
	}
}

func (s *Store) fetchPage(ctx context.Context, schema types.RecordSchema, fields []string, after any, first bool) ([]*types.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, types.ErrStoreClosed
	}

	query := s.dialect.selectPage(schema.Table, schema.Key, fields, !first)
	args := []any{s.pageSize}
	if !first {
		args = []any{after, s.pageSize}
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", schema.Table, err)
	}
	defer rows.Close()

	page := make([]*types.Record, 0, s.pageSize)
	dest := make([]any, len(fields)+1)
	values := make([]any, len(fields)+1)
	for rows.Next() {
		for i := range values {
			dest[i] = &values[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scanning %s: %w", schema.Table, err)
		}
		rec := types.NewRecord(normalize(values[0]))
		for i, f := range fields {
			rec.Set(f, normalize(values[i+1]))
		}
		page = append(page, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", schema.Table, err)
	}
	return page, nil
}

// normalize turns driver byte slices into strings so records hold plain
// values.
func normalize(v any) any {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}

// BulkUpdate rewrites fields for records, committing one transaction per
// group of batchSizeHint records. Groups committed before a failure stay
// applied.
func (s *Store) BulkUpdate(ctx context.Context, schema types.RecordSchema, records []*types.Record, fields []string, batchSizeHint int) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return types.ErrStoreClosed
	}
	if len(records) == 0 || len(fields) == 0 {
		return nil
	}
	if batchSizeHint <= 0 {
		batchSizeHint = len(records)
	}

	stmt := s.dialect.updateRecord(schema.Table, schema.Key, fields)
	for start := 0; start < len(records); start += batchSizeHint {
		end := min(start+batchSizeHint, len(records))
		if err := s.updateGroup(ctx, stmt, records[start:end], fields); err != nil {
			return fmt.Errorf("updating %s records %d-%d: %w", schema.Table, start+1, end, err)
		}
	}
	log.WithFields(log.Fields{"table": schema.Table, "records": len(records)}).Trace("bulk update applied")
	return nil
}

func (s *Store) updateGroup(ctx context.Context, query string, records []*types.Record, fields []string) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				err = errors.Join(err, rbErr)
			}
		}
	}()

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("preparing update: %w", err)
	}
	defer stmt.Close()

	args := make([]any, len(fields)+1)
	for _, rec := range records {
		for i, f := range fields {
			args[i] = rec.Values[f]
		}
		args[len(fields)] = rec.Key
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("updating record %v: %w", rec.Key, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing: %w", err)
	}
	return nil
}
