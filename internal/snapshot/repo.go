// SQLite plumbing for snapshot databases. Batched INSERTs run inside a single
// transaction; SQLite has no dedicated bulk-load API, but a transaction keeps
// staging fast enough for the volumes a timekeeping database sees.
package snapshot

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// Repository wraps a snapshot's database handle.
type Repository struct {
	db *sql.DB
}

// Open opens (or creates) the SQLite database at dsn. Pass ":memory:" for an
// in-memory database (used by tests).
func Open(dsn string) (*Repository, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("snapshot: dsn must not be empty")
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("snapshot: open: %w", err)
	}
	// One writer, sequential program; avoids "database is locked".
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("snapshot: ping: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("snapshot: pragma: %w", err)
	}
	return &Repository{db: db}, nil
}

// New wraps an already-open handle; tests use it.
func New(db *sql.DB) *Repository { return &Repository{db: db} }

// Close closes the underlying connection.
func (r *Repository) Close() error { return r.db.Close() }

// DB exposes the handle for the query runner.
func (r *Repository) DB() *sql.DB { return r.db }

// CreateTable drops any prior table of the same name and creates it fresh
// from cols. Staging overwrites; there is no incremental merge.
func (r *Repository) CreateTable(ctx context.Context, table string, cols []Column) error {
	if _, err := r.db.ExecContext(ctx, "DROP TABLE IF EXISTS "+quoteIdent(table)); err != nil {
		return fmt.Errorf("snapshot: drop %s: %w", table, err)
	}
	stmt, err := BuildCreateTableSQL(table, cols)
	if err != nil {
		return err
	}
	if _, err := r.db.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("snapshot: create %s: %w", table, err)
	}
	return nil
}

// InsertRows bulk-inserts rows into table inside one transaction using a
// prepared statement. Every row must have len(columns) values. It returns the
// number of rows inserted.
func (r *Repository) InsertRows(ctx context.Context, table string, columns []string, rows [][]any) (int64, error) {
	if len(columns) == 0 {
		return 0, fmt.Errorf("snapshot: insert into %s: no columns", table)
	}
	if len(rows) == 0 {
		return 0, nil
	}

	quoted := make([]string, len(columns))
	placeholders := make([]string, len(columns))
	for i, c := range columns {
		quoted[i] = quoteIdent(c)
		placeholders[i] = "?"
	}
	stmtSQL := fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s)",
		quoteIdent(table),
		strings.Join(quoted, ", "),
		strings.Join(placeholders, ", "),
	)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("snapshot: begin tx: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, stmtSQL)
	if err != nil {
		_ = tx.Rollback()
		return 0, fmt.Errorf("snapshot: prepare insert: %w", err)
	}
	defer stmt.Close()

	var inserted int64
	for _, row := range rows {
		if len(row) != len(columns) {
			_ = tx.Rollback()
			return 0, fmt.Errorf("snapshot: row length %d != columns length %d", len(row), len(columns))
		}
		vals := make([]any, len(row))
		for i, v := range row {
			vals[i] = normalizeValue(v)
		}
		if _, err := stmt.ExecContext(ctx, vals...); err != nil {
			_ = tx.Rollback()
			return inserted, fmt.Errorf("snapshot: insert into %s: %w", table, err)
		}
		inserted++
	}

	if err := tx.Commit(); err != nil {
		return inserted, fmt.Errorf("snapshot: commit: %w", err)
	}
	return inserted, nil
}

// Tables lists user tables in name order.
func (r *Repository) Tables(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT name FROM sqlite_master WHERE type = 'table' ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("snapshot: list tables: %w", err)
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("snapshot: scan table name: %w", err)
		}
		out = append(out, name)
	}
	return out, rows.Err()
}

// Count returns the row count of table.
func (r *Repository) Count(ctx context.Context, table string) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+quoteIdent(table)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("snapshot: count %s: %w", table, err)
	}
	return n, nil
}

// Dump writes a human-readable summary of the snapshot to w: per table the
// declared columns, the row count, and up to sampleRows sample rows.
func (r *Repository) Dump(ctx context.Context, w io.Writer, sampleRows int) error {
	tables, err := r.Tables(ctx)
	if err != nil {
		return err
	}
	if len(tables) == 0 {
		fmt.Fprintln(w, "no tables in snapshot")
		return nil
	}
	for _, table := range tables {
		fmt.Fprintf(w, "\nTable: %s\n", table)

		cols, err := r.columnInfo(ctx, table)
		if err != nil {
			return err
		}
		fmt.Fprintln(w, "  columns:")
		for _, c := range cols {
			fmt.Fprintf(w, "    - %s %s\n", c.Name, c.SQLType)
		}

		n, err := r.Count(ctx, table)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "  rows: %d\n", n)

		if n == 0 || sampleRows <= 0 {
			continue
		}
		rows, err := r.db.QueryContext(ctx,
			fmt.Sprintf("SELECT * FROM %s LIMIT %d", quoteIdent(table), sampleRows))
		if err != nil {
			return fmt.Errorf("snapshot: sample %s: %w", table, err)
		}
		names, _ := rows.Columns()
		i := 0
		for rows.Next() {
			vals := make([]any, len(names))
			ptrs := make([]any, len(names))
			for j := range vals {
				ptrs[j] = &vals[j]
			}
			if err := rows.Scan(ptrs...); err != nil {
				rows.Close()
				return fmt.Errorf("snapshot: sample %s: %w", table, err)
			}
			i++
			fmt.Fprintf(w, "  sample %d:\n", i)
			for j, name := range names {
				fmt.Fprintf(w, "    %s: %v\n", name, vals[j])
			}
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return fmt.Errorf("snapshot: sample %s: %w", table, err)
		}
	}
	return nil
}

func (r *Repository) columnInfo(ctx context.Context, table string) ([]Column, error) {
	rows, err := r.db.QueryContext(ctx, "PRAGMA table_info("+quoteIdent(table)+")")
	if err != nil {
		return nil, fmt.Errorf("snapshot: table_info %s: %w", table, err)
	}
	defer rows.Close()
	var out []Column
	for rows.Next() {
		var (
			cid     int
			name    string
			ctype   string
			notNull int
			dflt    sql.NullString
			pk      int
		)
		if err := rows.Scan(&cid, &name, &ctype, &notNull, &dflt, &pk); err != nil {
			return nil, fmt.Errorf("snapshot: table_info %s: %w", table, err)
		}
		out = append(out, Column{Name: name, SQLType: ctype})
	}
	return out, rows.Err()
}

// normalizeValue converts driver values from the Access read into stable
// SQLite representations: timestamps become text, booleans become 0/1.
func normalizeValue(v any) any {
	switch x := v.(type) {
	case time.Time:
		return x.Format("2006-01-02 15:04:05")
	case bool:
		if x {
			return int64(1)
		}
		return int64(0)
	default:
		return v
	}
}
