// This file adds a lightweight linter for Config values. It performs static
// checks over a decoded Config and returns a list of issues (errors and
// warnings) that callers surface in the CLI before doing any work.
package config

import (
	"fmt"
	"strings"

	"tkexport/internal/dates"
)

// IssueSeverity represents the severity of a configuration issue.
type IssueSeverity string

const (
	// SeverityError indicates a configuration error that blocks execution.
	SeverityError IssueSeverity = "error"
	// SeverityWarning indicates a finding surfaced to the user that does not
	// block execution.
	SeverityWarning IssueSeverity = "warning"
)

// Issue describes a single validation finding.
//
// Path is a dotted path into the config (e.g. "main_table",
// "csv_validation_rules[1].rule"). Message is human-readable.
type Issue struct {
	Severity IssueSeverity
	Path     string
	Message  string
}

// Error implements the error interface so an Issue can be treated as a single
// error where convenient.
func (i Issue) Error() string {
	return fmt.Sprintf("%s at %s: %s", i.Severity, i.Path, i.Message)
}

// HasErrors reports whether any issue in the slice is of error severity.
func HasErrors(issues []Issue) bool {
	for _, iss := range issues {
		if iss.Severity == SeverityError {
			return true
		}
	}
	return false
}

// knownRules enumerates the ValidationRule.Rule values validatecsv implements.
var knownRules = map[string]bool{
	"required":  true,
	"non_empty": true,
	"numeric":   true,
	"date":      true,
}

// Validate performs static validation of a Config. It does not touch the
// filesystem, so existence of the Access file or script paths is checked by
// the step that needs them. Callers decide whether warnings are fatal.
func Validate(c Config) []Issue {
	var issues []Issue

	if strings.TrimSpace(c.AccessDB) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "path_to_access_db",
			Message:  "must not be empty",
		})
	}
	if strings.TrimSpace(c.MainTable) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "main_table",
			Message:  "must not be empty; it is the table staged and optionally purged",
		})
	}
	for i, t := range c.RelatedTables {
		if strings.TrimSpace(t) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     fmt.Sprintf("related_tables[%d]", i),
				Message:  "table name must not be empty",
			})
		}
		if t == c.MainTable {
			issues = append(issues, Issue{
				Severity: SeverityWarning,
				Path:     fmt.Sprintf("related_tables[%d]", i),
				Message:  "duplicates main_table; it will be staged twice",
			})
		}
	}

	for _, f := range []struct{ path, val string }{
		{"start_date", c.StartDate},
		{"end_date", c.EndDate},
	} {
		if strings.TrimSpace(f.val) == "" {
			continue
		}
		if _, err := dates.Parse(f.val); err != nil {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     f.path,
				Message:  err.Error(),
			})
		}
	}

	if len(c.TransformationScripts) == 0 {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "transformation_scripts",
			Message:  "empty; the transform step will be a no-op",
		})
	}
	for i, p := range c.TransformationScripts {
		if strings.TrimSpace(p) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     fmt.Sprintf("transformation_scripts[%d]", i),
				Message:  "script path must not be empty",
			})
		}
	}

	for i, r := range c.ValidationRules {
		if strings.TrimSpace(r.Column) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     fmt.Sprintf("csv_validation_rules[%d].column", i),
				Message:  "column must not be empty",
			})
		}
		if !knownRules[r.Rule] {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     fmt.Sprintf("csv_validation_rules[%d].rule", i),
				Message:  fmt.Sprintf("unknown rule %q (want required, non_empty, numeric, or date)", r.Rule),
			})
		}
	}

	return issues
}
