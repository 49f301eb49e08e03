package csvutil

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"tkexport/internal/config"
	"tkexport/internal/dates"
)

// Violation records one failed validation check. Row is 1-based over
// the data rows, matching how a reader counts lines below the header.
type Violation struct {
	Row     int
	Column  string
	Rule    string
	Message string
}

// Validate applies the configured rules to the file and returns every
// violation found. A rule whose column is absent from the header
// yields a single row-0 violation instead of one per row.
func Validate(f *File, rules []config.ValidationRule) []Violation {
	var out []Violation
	for _, rule := range rules {
		idx := ColumnIndex(f.Header, rule.Column)
		if idx < 0 {
			out = append(out, Violation{
				Column:  rule.Column,
				Rule:    rule.Rule,
				Message: "column not present in file",
			})
			continue
		}
		for i, row := range f.Rows {
			val := ""
			if idx < len(row) {
				val = strings.TrimSpace(row[idx])
			}
			if msg := checkCell(val, rule.Rule); msg != "" {
				out = append(out, Violation{
					Row:     i + 1,
					Column:  rule.Column,
					Rule:    rule.Rule,
					Message: msg,
				})
			}
		}
	}
	return out
}

func checkCell(val, rule string) string {
	switch rule {
	case "required", "non_empty":
		if val == "" {
			return "value is empty"
		}
	case "numeric":
		if val == "" {
			return ""
		}
		if _, err := strconv.ParseFloat(val, 64); err != nil {
			return fmt.Sprintf("%q is not numeric", val)
		}
	case "date":
		if val == "" {
			return ""
		}
		if _, err := dates.Parse(val); err != nil {
			return fmt.Sprintf("%q is not a recognized date", val)
		}
	}
	return ""
}

// WriteReport renders violations as a readable text report.
func WriteReport(w io.Writer, path string, total int, violations []Violation) error {
	if _, err := fmt.Fprintf(w, "validation report for %s\nrows checked: %d\n", path, total); err != nil {
		return fmt.Errorf("csvutil: write report: %w", err)
	}
	if len(violations) == 0 {
		_, err := fmt.Fprintln(w, "no violations")
		return err
	}
	fmt.Fprintf(w, "violations: %d\n", len(violations))
	for _, v := range violations {
		if v.Row == 0 {
			fmt.Fprintf(w, "  column %s (%s): %s\n", v.Column, v.Rule, v.Message)
			continue
		}
		fmt.Fprintf(w, "  row %d, column %s (%s): %s\n", v.Row, v.Column, v.Rule, v.Message)
	}
	return nil
}
