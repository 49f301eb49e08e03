// Package access reads from and deletes rows in a Microsoft Access database.
//
// On Windows the database is opened through the ACE OLE DB automation
// provider exposed as a database/sql driver (mattn/go-adodb). Reads use a
// shared-mode connection; deletes require an exclusive-mode connection, which
// fails if any other client currently has the file open. That exclusivity is
// the only concurrency contract in the system: it prevents a delete from
// racing another session.
//
// SQL generation follows Access conventions: identifiers are bracketed
// ([table], [field]) and date bounds are rendered as #MM/DD/YYYY# literals.
// The builders are pure functions so they are unit-testable without a driver;
// the row-reading code runs against any database/sql handle, which the tests
// exercise with SQLite.
package access

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"tkexport/internal/dates"
)

// ErrProviderUnavailable is returned by Open/OpenExclusive when no Access
// automation provider exists on this platform (non-Windows builds, or Windows
// without the ACE OLE DB provider installed).
var ErrProviderUnavailable = errors.New("access: automation provider unavailable")

// Handle wraps an open connection to an Access database.
type Handle struct {
	db   *sql.DB
	path string
}

// NewHandle wraps an already-open database/sql handle. It exists for tests
// and for callers that manage the connection themselves; Open and
// OpenExclusive are the normal constructors.
func NewHandle(db *sql.DB) *Handle { return &Handle{db: db} }

// Close releases the underlying connection.
func (h *Handle) Close() error {
	if h.db == nil {
		return nil
	}
	return h.db.Close()
}

// Path returns the database file path the handle was opened with, if any.
func (h *Handle) Path() string { return h.path }

// Filter restricts the rows a read or delete touches. The zero value matches
// every row of the table.
type Filter struct {
	// DateField, Start, End express an inclusive date range on a column.
	// Either bound may be nil for a half-open range; both nil (or an empty
	// DateField) disables date filtering.
	DateField string
	Start     *time.Time
	End       *time.Time

	// KeyColumn and KeyValues express an IN (...) restriction, used by the
	// project cascade to reduce related tables to referenced rows.
	KeyColumn string
	KeyValues []any
}

func (f Filter) hasDateRange() bool {
	return f.DateField != "" && (f.Start != nil || f.End != nil)
}

// Describe renders the filter for log and prompt text, e.g.
// "date between 01/01/2024 and 12/31/2024", or "all rows" for a zero filter.
func (f Filter) Describe() string {
	switch {
	case f.hasDateRange() && f.Start != nil && f.End != nil:
		return fmt.Sprintf("%s between %s and %s", f.DateField, dates.Access(*f.Start), dates.Access(*f.End))
	case f.hasDateRange() && f.Start != nil:
		return fmt.Sprintf("%s >= %s", f.DateField, dates.Access(*f.Start))
	case f.hasDateRange():
		return fmt.Sprintf("%s <= %s", f.DateField, dates.Access(*f.End))
	case f.KeyColumn != "":
		return fmt.Sprintf("%s in %d listed values", f.KeyColumn, len(f.KeyValues))
	default:
		return "all rows"
	}
}

// Table holds everything read from one source table: the column names in
// their source order and the rows as driver values.
type Table struct {
	Name    string
	Columns []string
	Rows    [][]any
}

// DistinctValues returns the distinct non-nil values of the named column, in
// first-seen order. It returns nil when the column does not exist.
func (t *Table) DistinctValues(column string) []any {
	idx := -1
	for i, c := range t.Columns {
		if strings.EqualFold(c, column) {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil
	}
	seen := make(map[string]bool)
	var out []any
	for _, row := range t.Rows {
		v := row[idx]
		if v == nil {
			continue
		}
		key := fmt.Sprintf("%v", v)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, v)
	}
	return out
}

// ReadTable reads all rows of table matching f, preserving source column
// order. Driver byte slices are normalized to strings so downstream staging
// and report code sees stable value types.
func (h *Handle) ReadTable(ctx context.Context, table string, f Filter) (*Table, error) {
	query, err := buildSelect(table, f)
	if err != nil {
		return nil, err
	}
	rows, err := h.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("access: query %s: %w", table, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("access: columns of %s: %w", table, err)
	}

	t := &Table{Name: table, Columns: cols}
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("access: scan %s: %w", table, err)
		}
		for i, v := range vals {
			if b, ok := v.([]byte); ok {
				vals[i] = string(b)
			}
		}
		t.Rows = append(t.Rows, vals)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("access: read %s: %w", table, err)
	}
	return t, nil
}

// DeleteRows deletes the rows of table matching f and returns the count the
// driver reports as affected. The handle must have been opened in exclusive
// mode; a shared handle may succeed against some providers but the tooling
// never calls it that way.
func (h *Handle) DeleteRows(ctx context.Context, table string, f Filter) (int64, error) {
	stmt, err := buildDelete(table, f)
	if err != nil {
		return 0, err
	}
	res, err := h.db.ExecContext(ctx, stmt)
	if err != nil {
		return 0, fmt.Errorf("access: delete from %s: %w", table, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		// Some drivers cannot report the count; the delete still happened.
		return 0, nil
	}
	return n, nil
}

// bracket quotes an identifier in Access style. Closing brackets inside the
// name are doubled.
func bracket(ident string) string {
	return "[" + strings.ReplaceAll(ident, "]", "]]") + "]"
}

// buildSelect renders the SELECT for table restricted by f.
func buildSelect(table string, f Filter) (string, error) {
	where, err := buildWhere(f)
	if err != nil {
		return "", err
	}
	q := "SELECT * FROM " + bracket(table)
	if where != "" {
		q += " WHERE " + where
	}
	return q, nil
}

// buildDelete renders the DELETE for table restricted by f.
func buildDelete(table string, f Filter) (string, error) {
	where, err := buildWhere(f)
	if err != nil {
		return "", err
	}
	q := "DELETE FROM " + bracket(table)
	if where != "" {
		q += " WHERE " + where
	}
	return q, nil
}

func buildWhere(f Filter) (string, error) {
	var conds []string

	if f.hasDateRange() {
		field := bracket(f.DateField)
		if f.Start != nil {
			conds = append(conds, field+" >= "+dates.AccessLiteral(*f.Start))
		}
		if f.End != nil {
			conds = append(conds, field+" <= "+dates.AccessLiteral(*f.End))
		}
	}

	if f.KeyColumn != "" {
		if len(f.KeyValues) == 0 {
			// An IN () with nothing in it is invalid SQL; the caller decided
			// to filter on keys, so an empty key set matches no rows.
			conds = append(conds, "1 = 0")
		} else {
			lits := make([]string, 0, len(f.KeyValues))
			for _, v := range f.KeyValues {
				lit, err := sqlLiteral(v)
				if err != nil {
					return "", err
				}
				lits = append(lits, lit)
			}
			conds = append(conds, bracket(f.KeyColumn)+" IN ("+strings.Join(lits, ", ")+")")
		}
	}

	return strings.Join(conds, " AND "), nil
}

// sqlLiteral renders a key value for an IN list. Keys in this schema are
// numeric ids; strings are accepted and single-quoted for completeness.
func sqlLiteral(v any) (string, error) {
	switch x := v.(type) {
	case int, int32, int64, uint, uint32, uint64:
		return fmt.Sprintf("%d", x), nil
	case float64:
		return fmt.Sprintf("%v", x), nil
	case string:
		return "'" + strings.ReplaceAll(x, "'", "''") + "'", nil
	default:
		return "", fmt.Errorf("access: unsupported key value type %T", v)
	}
}
