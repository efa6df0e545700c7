package sqlstore

import (
	"fmt"
	"strings"

	"github.com/mesh-intelligence/depersonalizer/pkg/types"
)

// dialect captures the SQL differences between supported databases.
type dialect struct {
	name   string
	driver string // database/sql driver name

	// placeholder returns the bind marker for the n-th argument (1-based).
	placeholder func(n int) string
	quote       func(ident string) string

	// tablesQuery lists base tables of the current schema, one name per row.
	tablesQuery string

	// columnsQuery takes the table name and returns (name, type, primary)
	// rows in declaration order.
	columnsQuery string

	// implicitKey is used when a table has no single-column primary key.
	// Empty means such tables cannot be updated.
	implicitKey string
}

func questionMark(int) string { return "?" }

func dollar(n int) string { return fmt.Sprintf("$%d", n) }

func doubleQuote(ident string) string {
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}

func backtick(ident string) string {
	return "`" + strings.ReplaceAll(ident, "`", "``") + "`"
}

var dialects = map[string]dialect{
	types.DriverSQLite: {
		name:         types.DriverSQLite,
		driver:       "sqlite",
		placeholder:  questionMark,
		quote:        doubleQuote,
		tablesQuery:  `SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name`,
		columnsQuery: `SELECT name, type, pk > 0 FROM pragma_table_info(?) ORDER BY cid`,
		implicitKey:  "rowid",
	},
	types.DriverPostgres: {
		name:        types.DriverPostgres,
		driver:      "pgx",
		placeholder: dollar,
		quote:       doubleQuote,
		tablesQuery: `SELECT table_name FROM information_schema.tables
WHERE table_schema = current_schema() AND table_type = 'BASE TABLE'
ORDER BY table_name`,
		columnsQuery: `SELECT c.column_name, c.data_type, EXISTS (
    SELECT 1 FROM information_schema.table_constraints tc
    JOIN information_schema.key_column_usage k
      ON k.constraint_name = tc.constraint_name
     AND k.table_schema = tc.table_schema
     AND k.table_name = tc.table_name
    WHERE tc.constraint_type = 'PRIMARY KEY'
      AND tc.table_schema = c.table_schema
      AND tc.table_name = c.table_name
      AND k.column_name = c.column_name
) AS is_primary
FROM information_schema.columns c
WHERE c.table_schema = current_schema() AND c.table_name = $1
ORDER BY c.ordinal_position`,
	},
	types.DriverMySQL: {
		name:        types.DriverMySQL,
		driver:      "mysql",
		placeholder: questionMark,
		quote:       backtick,
		tablesQuery: `SELECT table_name FROM information_schema.tables
WHERE table_schema = DATABASE() AND table_type = 'BASE TABLE'
ORDER BY table_name`,
		columnsQuery: `SELECT column_name, data_type, column_key = 'PRI'
FROM information_schema.columns
WHERE table_schema = DATABASE() AND table_name = ?
ORDER BY ordinal_position`,
	},
}

func lookupDialect(name string) (dialect, error) {
	d, ok := dialects[name]
	if !ok {
		return dialect{}, fmt.Errorf("%w: %q", types.ErrDriverUnknown, name)
	}
	return d, nil
}

// selectPage builds the keyset query for one page of records. With after set
// it continues past the previous page's last key.
func (d dialect) selectPage(table, key string, fields []string, after bool) string {
	cols := make([]string, 0, len(fields)+1)
	cols = append(cols, d.quote(key))
	for _, f := range fields {
		cols = append(cols, d.quote(f))
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "SELECT %s FROM %s", strings.Join(cols, ", "), d.quote(table))
	n := 1
	if after {
		fmt.Fprintf(&sb, " WHERE %s > %s", d.quote(key), d.placeholder(n))
		n++
	}
	fmt.Fprintf(&sb, " ORDER BY %s LIMIT %s", d.quote(key), d.placeholder(n))
	return sb.String()
}

// updateRecord builds the statement that rewrites fields of one record.
func (d dialect) updateRecord(table, key string, fields []string) string {
	sets := make([]string, len(fields))
	for i, f := range fields {
		sets[i] = fmt.Sprintf("%s = %s", d.quote(f), d.placeholder(i+1))
	}
	return fmt.Sprintf("UPDATE %s SET %s WHERE %s = %s",
		d.quote(table), strings.Join(sets, ", "), d.quote(key), d.placeholder(len(fields)+1))
}

// kindOf maps a declared column type to a field kind. Short text columns
// named email, or ending in _email, are email-like.
func kindOf(name, declared string) types.FieldKind {
	t := strings.ToUpper(strings.TrimSpace(declared))
	if i := strings.IndexByte(t, '('); i >= 0 {
		t = strings.TrimSpace(t[:i])
	}
	switch {
	case strings.Contains(t, "CHAR"):
		lower := strings.ToLower(name)
		if lower == "email" || strings.HasSuffix(lower, "_email") {
			return types.KindEmail
		}
		return types.KindChar
	case strings.Contains(t, "TEXT"), strings.Contains(t, "CLOB"):
		return types.KindText
	case strings.Contains(t, "INT"):
		return types.KindInteger
	default:
		return types.KindOther
	}
}
