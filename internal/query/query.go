// Package query executes SQL against a snapshot database: the report query
// whose result set becomes the results CSV, and the ordered transformation
// scripts run between staging and reporting.
package query

import (
	"context"
	"database/sql"
	"fmt"
	"os"
)

// Result is a fully materialized query result set.
type Result struct {
	Columns []string
	Rows    [][]any
}

// Run executes q against db and materializes the result set. Column order is
// preserved exactly as the query produced it.
func Run(ctx context.Context, db *sql.DB, q string) (*Result, error) {
	rows, err := db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("query: execute: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("query: columns: %w", err)
	}

	res := &Result{Columns: cols}
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("query: scan: %w", err)
		}
		for i, v := range vals {
			if b, ok := v.([]byte); ok {
				vals[i] = string(b)
			}
		}
		res.Rows = append(res.Rows, vals)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query: read: %w", err)
	}
	return res, nil
}

// RunFile reads the SQL in path and executes it via Run.
func RunFile(ctx context.Context, db *sql.DB, path string) (*Result, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("query: read %s: %w", path, err)
	}
	return Run(ctx, db, string(b))
}
