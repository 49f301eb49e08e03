package csvutil

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Split partitions a CSV file into one file per distinct value of
// column, written under outDir as <base>_<value>.csv. Rows with an
// empty value go to <base>_blank.csv. It returns the written paths in
// first-seen order of the values.
func Split(path, column, outDir string) ([]string, error) {
	f, err := Read(path)
	if err != nil {
		return nil, err
	}
	idx := ColumnIndex(f.Header, column)
	if idx < 0 {
		return nil, fmt.Errorf("csvutil: column %q not found in %s", column, path)
	}

	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	groups := map[string][][]string{}
	var order []string
	for _, row := range f.Rows {
		val := ""
		if idx < len(row) {
			val = strings.TrimSpace(row[idx])
		}
		if _, ok := groups[val]; !ok {
			order = append(order, val)
		}
		groups[val] = append(groups[val], row)
	}

	var written []string
	for _, val := range order {
		name := sanitizeFileName(val)
		if name == "" {
			name = "blank"
		}
		out := filepath.Join(outDir, fmt.Sprintf("%s_%s.csv", base, name))
		if err := Write(out, f.Header, groups[val]); err != nil {
			return nil, err
		}
		written = append(written, out)
	}
	return written, nil
}

// sanitizeFileName keeps letters, digits, dash and underscore, mapping
// everything else to underscore so values are safe as path segments.
func sanitizeFileName(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return strings.Trim(b.String(), "_")
}
