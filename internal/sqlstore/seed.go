package sqlstore

import (
	"context"
	"fmt"
	"strings"

	"github.com/mesh-intelligence/depersonalizer/internal/generator"
	"github.com/mesh-intelligence/depersonalizer/pkg/types"
)

// Resolver looks up generators by dotted path.
type Resolver interface {
	Resolve(path string) (generator.Generator, error)
}

// demoColumn describes one column of a demo table. source is the generator
// path used to fill it; empty means the column is the key.
type demoColumn struct {
	name   string
	decl   string
	source string
}

// demoTable describes a table created by Seed.
type demoTable struct {
	name    string
	columns []demoColumn
}

// demoTables mirror typical application tables holding personal data.
var demoTables = []demoTable{
	{
		name: "app_user",
		columns: []demoColumn{
			{"id", "INTEGER PRIMARY KEY", ""},
			{"username", "VARCHAR(150)", "person.username"},
			{"first_name", "VARCHAR(150)", "person.first_name"},
			{"last_name", "VARCHAR(150)", "person.last_name"},
			{"email", "VARCHAR(254)", "person.email"},
			{"city", "VARCHAR(100)", "address.city"},
		},
	},
	{
		name: "app_customer",
		columns: []demoColumn{
			{"id", "INTEGER PRIMARY KEY", ""},
			{"name", "VARCHAR(200)", "finance.company"},
			{"full_name", "VARCHAR(200)", "person.full_name"},
			{"email", "VARCHAR(254)", "person.email"},
			{"notes", "TEXT", "text.word"},
		},
	},
}

// DemoTables returns the names of the tables Seed creates.
func DemoTables() []string {
	names := make([]string, len(demoTables))
	for i, t := range demoTables {
		names[i] = t.name
	}
	return names
}

// Seed creates the demo tables when missing and appends n rows to each,
// filled from reg. Each table is seeded in one transaction.
func (s *Store) Seed(ctx context.Context, reg Resolver, n int) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return types.ErrStoreClosed
	}

	for _, t := range demoTables {
		if err := s.seedTable(ctx, reg, t, n); err != nil {
			return fmt.Errorf("seeding %s: %w", t.name, err)
		}
	}
	return nil
}

func (s *Store) seedTable(ctx context.Context, reg Resolver, t demoTable, n int) error {
	d := s.dialect
	defs := make([]string, len(t.columns))
	cols := make([]string, len(t.columns))
	marks := make([]string, len(t.columns))
	gens := make([]generator.Generator, len(t.columns))
	for i, c := range t.columns {
		defs[i] = d.quote(c.name) + " " + c.decl
		cols[i] = d.quote(c.name)
		marks[i] = d.placeholder(i + 1)
		if c.source == "" {
			continue
		}
		g, err := reg.Resolve(c.source)
		if err != nil {
			return err
		}
		gens[i] = g
	}

	create := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", d.quote(t.name), strings.Join(defs, ", "))
	if _, err := s.db.ExecContext(ctx, create); err != nil {
		return fmt.Errorf("creating table: %w", err)
	}

	var next int64
	maxQuery := fmt.Sprintf("SELECT COALESCE(MAX(%s), 0) FROM %s", d.quote(t.columns[0].name), d.quote(t.name))
	if err := s.db.QueryRowContext(ctx, maxQuery).Scan(&next); err != nil {
		return fmt.Errorf("reading max key: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	insert := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", d.quote(t.name), strings.Join(cols, ", "), strings.Join(marks, ", "))
	stmt, err := tx.PrepareContext(ctx, insert)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	args := make([]any, len(t.columns))
	for range n {
		next++
		for i, g := range gens {
			if g == nil {
				args[i] = next
				continue
			}
			args[i] = g()
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("inserting row %d: %w", next, err)
		}
	}
	return tx.Commit()
}
