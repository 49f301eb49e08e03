package access

import (
	"context"
	"database/sql"
	"testing"
	"time"

	_ "modernc.org/sqlite"
)

/*
SQL builder tests. The builders are pure, so date-literal and bracket behavior
is checked as text; reader/deleter behavior is covered below against SQLite,
which accepts the same bracketed identifiers as Access.
*/

func datePtr(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func TestBuildSelect(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		table  string
		filter Filter
		want   string
	}{
		{
			name:  "no filter",
			table: "tblClientBilling",
			want:  "SELECT * FROM [tblClientBilling]",
		},
		{
			name:   "date range",
			table:  "tblClientBilling",
			filter: Filter{DateField: "date", Start: datePtr(2024, 1, 1), End: datePtr(2024, 12, 31)},
			want:   "SELECT * FROM [tblClientBilling] WHERE [date] >= #01/01/2024# AND [date] <= #12/31/2024#",
		},
		{
			name:   "start only",
			table:  "tblClientBilling",
			filter: Filter{DateField: "date", Start: datePtr(2024, 1, 1)},
			want:   "SELECT * FROM [tblClientBilling] WHERE [date] >= #01/01/2024#",
		},
		{
			name:   "end only",
			table:  "tblClientBilling",
			filter: Filter{DateField: "date", End: datePtr(2024, 12, 31)},
			want:   "SELECT * FROM [tblClientBilling] WHERE [date] <= #12/31/2024#",
		},
		{
			name:   "in list",
			table:  "tblProject",
			filter: Filter{KeyColumn: "projectid", KeyValues: []any{int64(3), int64(7)}},
			want:   "SELECT * FROM [tblProject] WHERE [projectid] IN (3, 7)",
		},
		{
			name:   "empty in list matches nothing",
			table:  "tblProject",
			filter: Filter{KeyColumn: "projectid"},
			want:   "SELECT * FROM [tblProject] WHERE 1 = 0",
		},
		{
			name:   "date field without bounds is ignored",
			table:  "t",
			filter: Filter{DateField: "date"},
			want:   "SELECT * FROM [t]",
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, err := buildSelect(tc.table, tc.filter)
			if err != nil {
				t.Fatalf("buildSelect: %v", err)
			}
			if got != tc.want {
				t.Errorf("buildSelect = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestBuildDelete(t *testing.T) {
	t.Parallel()

	got, err := buildDelete("tblClientBilling", Filter{DateField: "date", Start: datePtr(2024, 1, 1)})
	if err != nil {
		t.Fatalf("buildDelete: %v", err)
	}
	want := "DELETE FROM [tblClientBilling] WHERE [date] >= #01/01/2024#"
	if got != want {
		t.Errorf("buildDelete = %q, want %q", got, want)
	}
}

func TestBracketEscapesClosingBracket(t *testing.T) {
	t.Parallel()

	if got := bracket("odd]name"); got != "[odd]]name]" {
		t.Errorf("bracket = %q", got)
	}
}

func TestSQLLiteral(t *testing.T) {
	t.Parallel()

	if got, err := sqlLiteral("O'Brien"); err != nil || got != "'O''Brien'" {
		t.Errorf("sqlLiteral string = %q, %v", got, err)
	}
	if got, err := sqlLiteral(int64(42)); err != nil || got != "42" {
		t.Errorf("sqlLiteral int = %q, %v", got, err)
	}
	if _, err := sqlLiteral(struct{}{}); err == nil {
		t.Error("sqlLiteral struct: expected error")
	}
}

/*
Reader/deleter tests against an in-memory SQLite database. SQLite accepts
bracketed identifiers, so the same generated SQL exercises the row plumbing.
*/

func newTestHandle(tb testing.TB) *Handle {
	tb.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		tb.Fatalf("open sqlite: %v", err)
	}
	tb.Cleanup(func() { _ = db.Close() })
	db.SetMaxOpenConns(1)
	return NewHandle(db)
}

func seedBilling(tb testing.TB, h *Handle) {
	tb.Helper()
	ctx := context.Background()
	stmts := []string{
		`CREATE TABLE tblClientBilling (billingid INTEGER, projectid INTEGER, hours REAL, note TEXT)`,
		`INSERT INTO tblClientBilling VALUES (1, 10, 7.5, 'site visit')`,
		`INSERT INTO tblClientBilling VALUES (2, 10, 2.0, NULL)`,
		`INSERT INTO tblClientBilling VALUES (3, 11, 8.0, 'review')`,
	}
	for _, s := range stmts {
		if _, err := h.db.ExecContext(ctx, s); err != nil {
			tb.Fatalf("seed: %v", err)
		}
	}
}

func TestReadTable_AllRows(t *testing.T) {
	t.Parallel()

	h := newTestHandle(t)
	seedBilling(t, h)

	tbl, err := h.ReadTable(context.Background(), "tblClientBilling", Filter{})
	if err != nil {
		t.Fatalf("ReadTable: %v", err)
	}
	wantCols := []string{"billingid", "projectid", "hours", "note"}
	if len(tbl.Columns) != len(wantCols) {
		t.Fatalf("columns = %v", tbl.Columns)
	}
	for i, c := range wantCols {
		if tbl.Columns[i] != c {
			t.Errorf("column[%d] = %q, want %q", i, tbl.Columns[i], c)
		}
	}
	if len(tbl.Rows) != 3 {
		t.Fatalf("rows = %d, want 3", len(tbl.Rows))
	}
	// NULL survives as nil, text as string.
	if tbl.Rows[1][3] != nil {
		t.Errorf("row[1].note = %v, want nil", tbl.Rows[1][3])
	}
	if s, ok := tbl.Rows[0][3].(string); !ok || s != "site visit" {
		t.Errorf("row[0].note = %v", tbl.Rows[0][3])
	}
}

func TestReadTable_KeyFilter(t *testing.T) {
	t.Parallel()

	h := newTestHandle(t)
	seedBilling(t, h)

	tbl, err := h.ReadTable(context.Background(), "tblClientBilling",
		Filter{KeyColumn: "projectid", KeyValues: []any{int64(10)}})
	if err != nil {
		t.Fatalf("ReadTable: %v", err)
	}
	if len(tbl.Rows) != 2 {
		t.Errorf("rows = %d, want 2", len(tbl.Rows))
	}
}

func TestReadTable_MissingTable(t *testing.T) {
	t.Parallel()

	h := newTestHandle(t)
	if _, err := h.ReadTable(context.Background(), "nope", Filter{}); err == nil {
		t.Fatal("expected error for missing table")
	}
}

func TestDistinctValues(t *testing.T) {
	t.Parallel()

	h := newTestHandle(t)
	seedBilling(t, h)
	tbl, err := h.ReadTable(context.Background(), "tblClientBilling", Filter{})
	if err != nil {
		t.Fatalf("ReadTable: %v", err)
	}

	ids := tbl.DistinctValues("projectid")
	if len(ids) != 2 {
		t.Fatalf("distinct projectids = %v", ids)
	}
	if tbl.DistinctValues("absent") != nil {
		t.Error("DistinctValues(absent) should be nil")
	}
}

func TestDeleteRows(t *testing.T) {
	t.Parallel()

	h := newTestHandle(t)
	seedBilling(t, h)

	n, err := h.DeleteRows(context.Background(), "tblClientBilling",
		Filter{KeyColumn: "projectid", KeyValues: []any{int64(10)}})
	if err != nil {
		t.Fatalf("DeleteRows: %v", err)
	}
	if n != 2 {
		t.Errorf("deleted = %d, want 2", n)
	}

	left, err := h.ReadTable(context.Background(), "tblClientBilling", Filter{})
	if err != nil {
		t.Fatalf("ReadTable: %v", err)
	}
	if len(left.Rows) != 1 {
		t.Errorf("remaining rows = %d, want 1", len(left.Rows))
	}
}
