package query

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"strings"
	"testing"

	_ "modernc.org/sqlite"
)

func newDB(tb testing.TB) *sql.DB {
	tb.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		tb.Fatalf("open sqlite: %v", err)
	}
	tb.Cleanup(func() { _ = db.Close() })
	db.SetMaxOpenConns(1)

	stmts := []string{
		`CREATE TABLE billing (project TEXT, hours REAL)`,
		`INSERT INTO billing VALUES ('Alpha', 7.5), ('Alpha', 2.5), ('Beta', 4.0)`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			tb.Fatalf("seed: %v", err)
		}
	}
	return db
}

func TestRun_GroupBy(t *testing.T) {
	t.Parallel()

	db := newDB(t)
	res, err := Run(context.Background(), db,
		`SELECT project, SUM(hours) AS total FROM billing GROUP BY project ORDER BY project`)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(res.Columns) != 2 || res.Columns[0] != "project" || res.Columns[1] != "total" {
		t.Fatalf("columns = %v", res.Columns)
	}
	if len(res.Rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(res.Rows))
	}
	if res.Rows[0][0] != "Alpha" {
		t.Errorf("row 0 = %v", res.Rows[0])
	}
	if got := res.Rows[0][1].(float64); got != 10.0 {
		t.Errorf("Alpha total = %v", got)
	}
}

func TestRun_BadSQL(t *testing.T) {
	t.Parallel()

	db := newDB(t)
	if _, err := Run(context.Background(), db, "SELECT nope FROM nothing"); err == nil {
		t.Fatal("expected error")
	}
}

func TestRunFile(t *testing.T) {
	t.Parallel()

	db := newDB(t)
	path := filepath.Join(t.TempDir(), "report.sql")
	if err := os.WriteFile(path, []byte("SELECT COUNT(*) AS n FROM billing"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	res, err := RunFile(context.Background(), db, path)
	if err != nil {
		t.Fatalf("RunFile: %v", err)
	}
	if len(res.Rows) != 1 || res.Rows[0][0].(int64) != 3 {
		t.Errorf("result = %+v", res)
	}

	if _, err := RunFile(context.Background(), db, filepath.Join(t.TempDir(), "nope.sql")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestSplitStatements(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		script string
		want   []string
	}{
		{
			name:   "two statements",
			script: "CREATE TABLE a (x);\nINSERT INTO a VALUES (1);",
			want:   []string{"CREATE TABLE a (x)", "INSERT INTO a VALUES (1)"},
		},
		{
			name:   "comments stripped",
			script: "-- header comment\nSELECT 1; -- trailing\n",
			want:   []string{"SELECT 1"},
		},
		{
			name:   "semicolon in literal",
			script: "INSERT INTO a VALUES ('x;y');",
			want:   []string{"INSERT INTO a VALUES ('x;y')"},
		},
		{
			name:   "empty",
			script: "\n  \n;;\n",
			want:   nil,
		},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := SplitStatements(tc.script)
			if len(got) != len(tc.want) {
				t.Fatalf("got %d statements %q, want %d", len(got), got, len(tc.want))
			}
			for i := range got {
				if got[i] != tc.want[i] {
					t.Errorf("stmt[%d] = %q, want %q", i, got[i], tc.want[i])
				}
			}
		})
	}
}

func TestRunScripts(t *testing.T) {
	t.Parallel()

	db := newDB(t)
	dir := t.TempDir()

	good := filepath.Join(dir, "01_good.sql")
	if err := os.WriteFile(good, []byte(
		"UPDATE billing SET hours = hours * 2 WHERE project = 'Beta';\nDELETE FROM billing WHERE hours < 0;"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	bad := filepath.Join(dir, "02_bad.sql")
	if err := os.WriteFile(bad, []byte("UPDATE nothing SET x = 1;"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	missing := filepath.Join(dir, "03_missing.sql")

	var log strings.Builder
	results, failed := RunScripts(context.Background(), db, []string{good, bad, missing}, &log)

	if failed != 2 {
		t.Errorf("failed = %d, want 2", failed)
	}
	if len(results) != 3 {
		t.Fatalf("results = %d", len(results))
	}
	if results[0].Failed() {
		t.Errorf("good script reported failed: %+v", results[0])
	}
	if results[0].Statements[0].RowsAffected != 1 {
		t.Errorf("rows affected = %d, want 1", results[0].Statements[0].RowsAffected)
	}
	if !results[1].Failed() || !results[2].Failed() {
		t.Error("bad and missing scripts should fail")
	}

	out := log.String()
	for _, want := range []string{"[1/3]", "ok (1 rows)", "FAILED", "2 of 3 scripts failed"} {
		if !strings.Contains(out, want) {
			t.Errorf("log missing %q:\n%s", want, out)
		}
	}

	// The good script's effect persisted despite later failures.
	var beta float64
	if err := db.QueryRow("SELECT hours FROM billing WHERE project = 'Beta'").Scan(&beta); err != nil {
		t.Fatalf("check: %v", err)
	}
	if beta != 8.0 {
		t.Errorf("Beta hours = %v, want 8", beta)
	}
}
