// Package csvutil reads and reshapes the CSV reports produced by the
// export pipeline. Input files are frequently exported from Excel, so
// the reader tolerates UTF-8 BOMs, bare quotes, and Windows-1252 bytes.
package csvutil

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// File holds a fully materialized CSV file.
type File struct {
	Header []string
	Rows   [][]string
}

// Read loads a CSV file. Files that are not valid UTF-8 are decoded as
// Windows-1252, which covers the Latin-1 exports Access and Excel emit.
func Read(path string) (*File, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("csvutil: read %s: %w", path, err)
	}
	raw = bytes.TrimPrefix(raw, utf8BOM)

	if !utf8.Valid(raw) {
		decoded, err := charmap.Windows1252.NewDecoder().Bytes(raw)
		if err != nil {
			return nil, fmt.Errorf("csvutil: decode %s: %w", path, err)
		}
		raw = decoded
	}

	r := csv.NewReader(bytes.NewReader(raw))
	r.LazyQuotes = true
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("csvutil: parse %s: %w", path, err)
	}
	if len(records) == 0 {
		return &File{}, nil
	}
	return &File{Header: records[0], Rows: records[1:]}, nil
}

// Write stores header and rows at path, creating parent directories.
func Write(path string, header []string, rows [][]string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("csvutil: mkdir for %s: %w", path, err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("csvutil: create %s: %w", path, err)
	}
	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		f.Close()
		return fmt.Errorf("csvutil: write header to %s: %w", path, err)
	}
	if err := w.WriteAll(rows); err != nil {
		f.Close()
		return fmt.Errorf("csvutil: write rows to %s: %w", path, err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return fmt.Errorf("csvutil: flush %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("csvutil: close %s: %w", path, err)
	}
	return nil
}

// ColumnIndex returns the position of name in header, matching
// case-insensitively, or -1 when absent.
func ColumnIndex(header []string, name string) int {
	for i, h := range header {
		if strings.EqualFold(strings.TrimSpace(h), strings.TrimSpace(name)) {
			return i
		}
	}
	return -1
}

// FindLatest returns the lexically greatest file in dir matching the
// results_*.csv naming scheme. Because the names embed a
// YYYYMMDD_HHMMSS timestamp, lexical order is chronological order.
func FindLatest(dir string) (string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "results_*.csv"))
	if err != nil {
		return "", fmt.Errorf("csvutil: glob %s: %w", dir, err)
	}
	if len(matches) == 0 {
		return "", fmt.Errorf("csvutil: no results CSV in %s", dir)
	}
	sort.Strings(matches)
	return matches[len(matches)-1], nil
}
