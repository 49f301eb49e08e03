// Package dates parses the handful of human date formats accepted on the
// command line and in config.yaml, and renders parsed dates in the forms the
// rest of the program needs (Access SQL date literals, filename fragments).
//
// The accepted layouts are tried in order, mirroring the operator-facing
// contract: an ambiguous value such as "03/04/2024" resolves as MM/DD/YYYY
// because that layout is tried first; DD/MM/YYYY only matches values that are
// impossible as MM/DD (e.g. "25/04/2024").
package dates

import (
	"fmt"
	"strings"
	"time"
)

// Layouts lists the accepted input layouts, in resolution order.
var Layouts = []string{
	"01-02-2006", // MM-DD-YYYY
	"2006-01-02", // YYYY-MM-DD
	"01/02/2006", // MM/DD/YYYY
	"02/01/2006", // DD/MM/YYYY
	"02-01-2006", // DD-MM-YYYY
}

// Parse parses s against Layouts in order and returns the first match.
// Whitespace around s is ignored. An empty string is an error; callers that
// treat empty as "no filter" should check before calling.
func Parse(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("dates: empty date")
	}
	for _, layout := range Layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("dates: unrecognized date %q (use YYYY-MM-DD, MM/DD/YYYY or DD/MM/YYYY)", s)
}

// ParseOptional parses s unless it is empty, in which case it returns nil.
func ParseOptional(s string) (*time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	t, err := Parse(s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// Access renders t in the MM/DD/YYYY form Access expects inside date literals.
func Access(t time.Time) string {
	return t.Format("01/02/2006")
}

// AccessLiteral renders t as an Access SQL date literal, e.g. #04/25/2024#.
func AccessLiteral(t time.Time) string {
	return "#" + Access(t) + "#"
}

// FileFragment renders t for use inside a filename, e.g. 04-25-2024.
// It is the Access form with slashes replaced, matching export file naming.
func FileFragment(t time.Time) string {
	return t.Format("01-02-2006")
}

// Timestamp renders t as the compact YYYYMMDD_HHMMSS stamp used in snapshot
// directory and report file names.
func Timestamp(t time.Time) string {
	return t.Format("20060102_150405")
}
