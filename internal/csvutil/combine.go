package csvutil

import (
	"fmt"
	"strings"

	"github.com/zeebo/xxh3"
)

// CombineOptions controls how Combine merges input files.
type CombineOptions struct {
	// Deduplicate drops rows whose key has already been seen.
	Deduplicate bool
	// KeyColumns names the columns forming the dedup key. Empty means
	// the whole row.
	KeyColumns []string
}

// CombineStats reports what Combine did.
type CombineStats struct {
	Files      int
	RowsIn     int
	RowsOut    int
	Duplicates int
}

// Combine merges the given CSV files into one. The output header is
// the union of all input headers in first-seen order; rows from files
// missing a column get an empty cell there.
func Combine(paths []string, out string, opts CombineOptions) (*CombineStats, error) {
	if len(paths) == 0 {
		return nil, fmt.Errorf("csvutil: no input files to combine")
	}

	files := make([]*File, 0, len(paths))
	var header []string
	seen := map[string]int{}
	for _, p := range paths {
		f, err := Read(p)
		if err != nil {
			return nil, err
		}
		for _, col := range f.Header {
			key := strings.ToLower(strings.TrimSpace(col))
			if _, ok := seen[key]; !ok {
				seen[key] = len(header)
				header = append(header, col)
			}
		}
		files = append(files, f)
	}

	keyIdx := make([]int, 0, len(opts.KeyColumns))
	for _, name := range opts.KeyColumns {
		idx := ColumnIndex(header, name)
		if idx < 0 {
			return nil, fmt.Errorf("csvutil: dedup key column %q not found in any input", name)
		}
		keyIdx = append(keyIdx, idx)
	}

	stats := &CombineStats{Files: len(paths)}
	dedup := map[uint64]struct{}{}
	var rows [][]string
	for _, f := range files {
		// Map this file's column positions onto the union header.
		pos := make([]int, len(f.Header))
		for i, col := range f.Header {
			pos[i] = seen[strings.ToLower(strings.TrimSpace(col))]
		}
		for _, in := range f.Rows {
			stats.RowsIn++
			row := make([]string, len(header))
			for i, cell := range in {
				if i < len(pos) {
					row[pos[i]] = cell
				}
			}
			if opts.Deduplicate {
				h := rowKey(row, keyIdx)
				if _, dup := dedup[h]; dup {
					stats.Duplicates++
					continue
				}
				dedup[h] = struct{}{}
			}
			rows = append(rows, row)
		}
	}
	stats.RowsOut = len(rows)

	if err := Write(out, header, rows); err != nil {
		return nil, err
	}
	return stats, nil
}

// rowKey hashes the key cells with a field separator so that
// ("ab","c") and ("a","bc") hash differently.
func rowKey(row []string, keyIdx []int) uint64 {
	h := xxh3.New()
	write := func(s string) {
		_, _ = h.WriteString(s)
		_, _ = h.Write([]byte{0x1f})
	}
	if len(keyIdx) == 0 {
		for _, cell := range row {
			write(cell)
		}
	} else {
		for _, i := range keyIdx {
			write(row[i])
		}
	}
	return h.Sum64()
}
