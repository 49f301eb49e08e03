// Transformation-script runner. Scripts are plain SQL files listed in
// config.yaml and executed in order against the latest snapshot. Every
// statement's outcome is written to an execution log; a failed statement does
// not stop the run, so the log reports all failures at once, but the caller
// exits nonzero when any statement failed.
package query

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"strings"
	"time"
)

// StatementResult records the outcome of one SQL statement.
type StatementResult struct {
	SQL          string
	RowsAffected int64
	Err          error
}

// ScriptResult records the outcome of one script file.
type ScriptResult struct {
	Path       string
	ReadErr    error
	Statements []StatementResult
}

// Failed reports whether reading the script or any statement in it failed.
func (r ScriptResult) Failed() bool {
	if r.ReadErr != nil {
		return true
	}
	for _, s := range r.Statements {
		if s.Err != nil {
			return true
		}
	}
	return false
}

// RunScripts executes each script path in order against db, writing an
// execution log to logW. It returns the per-script results and the number of
// scripts that had at least one failure.
func RunScripts(ctx context.Context, db *sql.DB, paths []string, logW io.Writer) ([]ScriptResult, int) {
	fmt.Fprintln(logW, "SQL TRANSFORMATION EXECUTION LOG")
	fmt.Fprintf(logW, "started: %s\n", time.Now().Format("2006-01-02 15:04:05"))
	fmt.Fprintf(logW, "scripts: %d\n\n", len(paths))

	results := make([]ScriptResult, 0, len(paths))
	failed := 0

	for i, path := range paths {
		fmt.Fprintf(logW, "[%d/%d] %s\n", i+1, len(paths), path)
		res := runScript(ctx, db, path, logW)
		if res.Failed() {
			failed++
		}
		results = append(results, res)
		fmt.Fprintln(logW)
	}

	fmt.Fprintf(logW, "finished: %s (%d of %d scripts failed)\n",
		time.Now().Format("2006-01-02 15:04:05"), failed, len(paths))
	return results, failed
}

func runScript(ctx context.Context, db *sql.DB, path string, logW io.Writer) ScriptResult {
	res := ScriptResult{Path: path}

	b, err := os.ReadFile(path)
	if err != nil {
		res.ReadErr = fmt.Errorf("query: read script %s: %w", path, err)
		fmt.Fprintf(logW, "  read failed: %v\n", err)
		return res
	}

	stmts := SplitStatements(string(b))
	if len(stmts) == 0 {
		fmt.Fprintln(logW, "  no statements (empty script)")
		return res
	}
	fmt.Fprintf(logW, "  statements: %d\n", len(stmts))

	for j, stmt := range stmts {
		sr := StatementResult{SQL: stmt}
		r, err := db.ExecContext(ctx, stmt)
		if err != nil {
			sr.Err = err
			fmt.Fprintf(logW, "  [%d] FAILED: %s\n      %v\n", j+1, summarize(stmt), err)
		} else {
			if n, err := r.RowsAffected(); err == nil {
				sr.RowsAffected = n
			}
			fmt.Fprintf(logW, "  [%d] ok (%d rows): %s\n", j+1, sr.RowsAffected, summarize(stmt))
		}
		res.Statements = append(res.Statements, sr)
	}
	return res
}

// SplitStatements splits a SQL script into executable statements. It strips
// line comments, respects single-quoted strings (so a ';' inside a literal
// does not split), and drops empty statements.
func SplitStatements(script string) []string {
	var (
		out     []string
		sb      strings.Builder
		inQuote bool
	)
	lines := strings.Split(script, "\n")
	for _, line := range lines {
		if !inQuote {
			if idx := strings.Index(line, "--"); idx >= 0 && !insideQuote(line[:idx]) {
				line = line[:idx]
			}
		}
		for _, r := range line {
			switch {
			case r == '\'':
				inQuote = !inQuote
				sb.WriteRune(r)
			case r == ';' && !inQuote:
				if s := strings.TrimSpace(sb.String()); s != "" {
					out = append(out, s)
				}
				sb.Reset()
			default:
				sb.WriteRune(r)
			}
		}
		sb.WriteByte('\n')
	}
	if s := strings.TrimSpace(sb.String()); s != "" {
		out = append(out, s)
	}
	return out
}

// insideQuote reports whether s ends inside a single-quoted literal.
func insideQuote(s string) bool {
	return strings.Count(s, "'")%2 == 1
}

// summarize truncates a statement for log lines.
func summarize(stmt string) string {
	s := strings.Join(strings.Fields(stmt), " ")
	if len(s) > 80 {
		return s[:80] + "..."
	}
	return s
}
