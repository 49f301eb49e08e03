package csvutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"tkexport/internal/config"
)

func writeFile(tb testing.TB, name string, data []byte) string {
	tb.Helper()
	path := filepath.Join(tb.TempDir(), name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		tb.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestRead_BOMAndQuotes(t *testing.T) {
	t.Parallel()

	raw := append([]byte{0xEF, 0xBB, 0xBF}, []byte("id,note\n1,he said \"hi\"\n")...)
	f, err := Read(writeFile(t, "bom.csv", raw))
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if f.Header[0] != "id" {
		t.Errorf("header = %v, BOM not stripped", f.Header)
	}
	if len(f.Rows) != 1 {
		t.Fatalf("rows = %d", len(f.Rows))
	}
}

func TestRead_Windows1252(t *testing.T) {
	t.Parallel()

	// 0xE9 is é in Windows-1252 and invalid standalone UTF-8.
	raw := []byte("name\ncaf\xe9\n")
	f, err := Read(writeFile(t, "latin.csv", raw))
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if got := f.Rows[0][0]; got != "café" {
		t.Errorf("cell = %q, want café", got)
	}
}

func TestRead_Empty(t *testing.T) {
	t.Parallel()

	f, err := Read(writeFile(t, "empty.csv", nil))
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(f.Header) != 0 || len(f.Rows) != 0 {
		t.Errorf("expected empty file, got %+v", f)
	}
}

func TestColumnIndex(t *testing.T) {
	t.Parallel()

	header := []string{"ID", " Project ", "hours"}
	if got := ColumnIndex(header, "project"); got != 1 {
		t.Errorf("project index = %d", got)
	}
	if got := ColumnIndex(header, "missing"); got != -1 {
		t.Errorf("missing index = %d", got)
	}
}

func TestCombine_UnionHeaderAndDedup(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	a := filepath.Join(dir, "a.csv")
	b := filepath.Join(dir, "b.csv")
	if err := os.WriteFile(a, []byte("id,project\n1,Alpha\n2,Beta\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(b, []byte("id,hours\n2,4.0\n2,4.0\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	out := filepath.Join(dir, "combined.csv")
	stats, err := Combine([]string{a, b}, out, CombineOptions{Deduplicate: true})
	if err != nil {
		t.Fatalf("Combine: %v", err)
	}
	if stats.RowsIn != 4 || stats.RowsOut != 3 || stats.Duplicates != 1 {
		t.Errorf("stats = %+v", stats)
	}

	f, err := Read(out)
	if err != nil {
		t.Fatalf("read combined: %v", err)
	}
	wantHeader := []string{"id", "project", "hours"}
	for i, col := range wantHeader {
		if f.Header[i] != col {
			t.Fatalf("header = %v, want %v", f.Header, wantHeader)
		}
	}
	// Row from b has empty project, filled hours.
	if f.Rows[2][1] != "" || f.Rows[2][2] != "4.0" {
		t.Errorf("padded row = %v", f.Rows[2])
	}
}

func TestCombine_KeyedDedup(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	a := filepath.Join(dir, "a.csv")
	if err := os.WriteFile(a, []byte("id,note\n1,first\n1,second\n2,other\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	out := filepath.Join(dir, "out.csv")
	stats, err := Combine([]string{a}, out, CombineOptions{
		Deduplicate: true,
		KeyColumns:  []string{"id"},
	})
	if err != nil {
		t.Fatalf("Combine: %v", err)
	}
	if stats.RowsOut != 2 || stats.Duplicates != 1 {
		t.Errorf("stats = %+v", stats)
	}

	if _, err := Combine([]string{a}, out, CombineOptions{
		Deduplicate: true,
		KeyColumns:  []string{"nope"},
	}); err == nil {
		t.Error("expected error for unknown key column")
	}
}

func TestSplit(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	src := filepath.Join(dir, "results.csv")
	data := "id,client\n1,Acme Inc\n2,\n3,Acme Inc\n"
	if err := os.WriteFile(src, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	paths, err := Split(src, "client", dir)
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	if len(paths) != 2 {
		t.Fatalf("paths = %v", paths)
	}
	if filepath.Base(paths[0]) != "results_Acme_Inc.csv" {
		t.Errorf("first file = %s", paths[0])
	}
	if filepath.Base(paths[1]) != "results_blank.csv" {
		t.Errorf("second file = %s", paths[1])
	}

	acme, err := Read(paths[0])
	if err != nil {
		t.Fatal(err)
	}
	if len(acme.Rows) != 2 {
		t.Errorf("Acme rows = %d", len(acme.Rows))
	}

	if _, err := Split(src, "missing", dir); err == nil {
		t.Error("expected error for unknown column")
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	f := &File{
		Header: []string{"id", "hours", "date"},
		Rows: [][]string{
			{"1", "7.5", "01-15-2024"},
			{"", "abc", "not-a-date"},
		},
	}
	rules := []config.ValidationRule{
		{Column: "id", Rule: "required"},
		{Column: "hours", Rule: "numeric"},
		{Column: "date", Rule: "date"},
		{Column: "ghost", Rule: "required"},
	}
	got := Validate(f, rules)
	if len(got) != 4 {
		t.Fatalf("violations = %d: %+v", len(got), got)
	}
	if got[0].Row != 2 || got[0].Column != "id" {
		t.Errorf("first violation = %+v", got[0])
	}
	if got[3].Row != 0 || got[3].Column != "ghost" {
		t.Errorf("missing-column violation = %+v", got[3])
	}
}

func TestWriteReport(t *testing.T) {
	t.Parallel()

	var b strings.Builder
	err := WriteReport(&b, "results.csv", 2, []Violation{
		{Row: 2, Column: "hours", Rule: "numeric", Message: `"abc" is not numeric`},
	})
	if err != nil {
		t.Fatalf("WriteReport: %v", err)
	}
	out := b.String()
	for _, want := range []string{"results.csv", "violations: 1", "row 2, column hours"} {
		if !strings.Contains(out, want) {
			t.Errorf("report missing %q:\n%s", want, out)
		}
	}

	b.Reset()
	if err := WriteReport(&b, "clean.csv", 5, nil); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(b.String(), "no violations") {
		t.Errorf("clean report = %q", b.String())
	}
}

func TestFindLatest(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	for _, name := range []string{"results_20240101_000000.csv", "results_20240301_120000.csv", "other.csv"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("a\n"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	got, err := FindLatest(dir)
	if err != nil {
		t.Fatalf("FindLatest: %v", err)
	}
	if filepath.Base(got) != "results_20240301_120000.csv" {
		t.Errorf("latest = %s", got)
	}

	if _, err := FindLatest(t.TempDir()); err == nil {
		t.Error("expected error for empty dir")
	}
}
