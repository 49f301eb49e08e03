// Package report writes query result sets and table exports to timestamped
// CSV and Excel files. Values pass through untransformed: the header row is
// the column list exactly, NULL renders as an empty cell, and timestamps use
// the same "2006-01-02 15:04:05" text form the snapshot stores.
package report

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"tkexport/internal/dates"
)

// ResultsFileName returns the standard results CSV name for a run, e.g.
// results_20240425_143009.csv.
func ResultsFileName(now time.Time) string {
	return "results_" + dates.Timestamp(now) + ".csv"
}

// ExportFileName returns the Excel export name for a table, encoding the
// filter bounds when present, e.g.
// tblClientBilling_export_from_01-01-2024_to_12-31-2024_20240425_143009.xlsx.
func ExportFileName(table string, start, end *time.Time, now time.Time) string {
	name := table + "_export"
	if start != nil {
		name += "_from_" + dates.FileFragment(*start)
	}
	if end != nil {
		name += "_to_" + dates.FileFragment(*end)
	}
	return name + "_" + dates.Timestamp(now) + ".xlsx"
}

// WriteCSV writes columns as the header row followed by rows to path,
// creating parent directories as needed.
func WriteCSV(path string, columns []string, rows [][]any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("report: create dir for %s: %w", path, err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("report: create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(columns); err != nil {
		return fmt.Errorf("report: write header: %w", err)
	}
	record := make([]string, len(columns))
	for _, row := range rows {
		for i := range columns {
			if i < len(row) {
				record[i] = cellString(row[i])
			} else {
				record[i] = ""
			}
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("report: write row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("report: flush %s: %w", path, err)
	}
	return f.Close()
}

// cellString renders a driver value as CSV cell text.
func cellString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case []byte:
		return string(x)
	case time.Time:
		return x.Format("2006-01-02 15:04:05")
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case int64:
		return strconv.FormatInt(x, 10)
	default:
		return fmt.Sprintf("%v", x)
	}
}
