// DDL helpers: infer SQLite column types from the values read out of Access
// and render CREATE TABLE statements with quoted identifiers.
package snapshot

import (
	"fmt"
	"strings"
	"time"
)

// Column describes one destination column.
type Column struct {
	Name    string
	SQLType string
}

// InferColumns derives a column list for the given source columns by scanning
// the row values:
//
//	int64 / bool  -> INTEGER
//	float64       -> REAL
//	time.Time     -> TEXT (stored as "2006-01-02 15:04:05")
//	anything else -> TEXT
//
// Columns whose values are all nil fall back to TEXT. A column with mixed
// numeric widths (int64 and float64) widens to REAL.
func InferColumns(columns []string, rows [][]any) []Column {
	out := make([]Column, len(columns))
	for i, name := range columns {
		out[i] = Column{Name: name, SQLType: inferType(rows, i)}
	}
	return out
}

func inferType(rows [][]any, idx int) string {
	sawInt := false
	sawFloat := false
	for _, row := range rows {
		if idx >= len(row) || row[idx] == nil {
			continue
		}
		switch row[idx].(type) {
		case int64, int32, int, bool:
			sawInt = true
		case float64, float32:
			sawFloat = true
		case time.Time:
			return "TEXT"
		default:
			return "TEXT"
		}
	}
	switch {
	case sawFloat:
		return "REAL"
	case sawInt:
		return "INTEGER"
	default:
		return "TEXT"
	}
}

// BuildCreateTableSQL returns a CREATE TABLE IF NOT EXISTS statement of the
// form:
//
//	CREATE TABLE IF NOT EXISTS "table" (
//	  "col1" TYPE,
//	  "col2" TYPE
//	);
func BuildCreateTableSQL(table string, cols []Column) (string, error) {
	if strings.TrimSpace(table) == "" {
		return "", fmt.Errorf("snapshot: table name must not be empty")
	}
	if len(cols) == 0 {
		return "", fmt.Errorf("snapshot: table %s needs at least one column", table)
	}

	defs := make([]string, 0, len(cols))
	for _, c := range cols {
		name := strings.TrimSpace(c.Name)
		if name == "" {
			return "", fmt.Errorf("snapshot: column with empty name in table %s", table)
		}
		typ := strings.TrimSpace(c.SQLType)
		if typ == "" {
			typ = "TEXT"
		}
		defs = append(defs, quoteIdent(name)+" "+typ)
	}

	return fmt.Sprintf(
		"CREATE TABLE IF NOT EXISTS %s (\n  %s\n);",
		quoteIdent(table),
		strings.Join(defs, ",\n  "),
	), nil
}

func quoteIdent(id string) string {
	return `"` + strings.ReplaceAll(id, `"`, `""`) + `"`
}
