package report

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"
)

func datePtr(t time.Time) *time.Time { return &t }

func TestResultsFileName(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 4, 25, 14, 30, 9, 0, time.UTC)
	if got := ResultsFileName(now); got != "results_20240425_143009.csv" {
		t.Errorf("ResultsFileName = %q", got)
	}
}

func TestExportFileName(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 4, 25, 14, 30, 9, 0, time.UTC)
	start := datePtr(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	end := datePtr(time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC))

	cases := []struct {
		start, end *time.Time
		want       string
	}{
		{nil, nil, "tblClientBilling_export_20240425_143009.xlsx"},
		{start, nil, "tblClientBilling_export_from_01-01-2024_20240425_143009.xlsx"},
		{nil, end, "tblClientBilling_export_to_12-31-2024_20240425_143009.xlsx"},
		{start, end, "tblClientBilling_export_from_01-01-2024_to_12-31-2024_20240425_143009.xlsx"},
	}
	for _, tc := range cases {
		if got := ExportFileName("tblClientBilling", tc.start, tc.end, now); got != tc.want {
			t.Errorf("ExportFileName = %q, want %q", got, tc.want)
		}
	}
}

func TestWriteCSV(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "out", "results.csv")
	columns := []string{"Project", "Hours", "When", "Note"}
	rows := [][]any{
		{"Alpha", 7.5, time.Date(2024, 4, 25, 8, 0, 0, 0, time.UTC), "site, visit"},
		{"Beta", int64(2), nil, nil},
	}

	if err := WriteCSV(path, columns, rows); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read back: %v", err)
	}

	if len(records) != 3 {
		t.Fatalf("records = %d, want header + 2 rows", len(records))
	}
	for i, c := range columns {
		if records[0][i] != c {
			t.Errorf("header[%d] = %q, want %q", i, records[0][i], c)
		}
	}
	if records[1][1] != "7.5" || records[1][2] != "2024-04-25 08:00:00" {
		t.Errorf("row 1 = %v", records[1])
	}
	if records[1][3] != "site, visit" {
		t.Errorf("quoted comma field = %q", records[1][3])
	}
	if records[2][2] != "" || records[2][3] != "" {
		t.Errorf("nil cells = %v", records[2])
	}
}

func TestWriteCSV_EmptyResult(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "results.csv")
	if err := WriteCSV(path, []string{"a", "b"}, nil); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if len(records) != 1 {
		t.Errorf("records = %d, want header only", len(records))
	}
}

func TestWriteExcel(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "tblClientBilling_export.xlsx")
	columns := []string{"billingid", "hours", "note"}
	rows := [][]any{
		{int64(1), 7.5, "site visit"},
		{int64(2), 2.0, nil},
	}

	if err := WriteExcel(path, "tblClientBilling", columns, rows); err != nil {
		t.Fatalf("WriteExcel: %v", err)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("open xlsx: %v", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) != 1 || sheets[0] != "tblClientBilling" {
		t.Fatalf("sheets = %v", sheets)
	}
	got, err := f.GetRows("tblClientBilling")
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("rows = %d, want 3", len(got))
	}
	if got[0][0] != "billingid" || got[0][2] != "note" {
		t.Errorf("header = %v", got[0])
	}
	if got[1][2] != "site visit" {
		t.Errorf("cell = %v", got[1])
	}
}

func TestWriteExcel_LongSheetNameTruncated(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "x.xlsx")
	long := "tblSomethingVeryLongIndeedBeyondTheLimit"
	if err := WriteExcel(path, long, []string{"a"}, nil); err != nil {
		t.Fatalf("WriteExcel: %v", err)
	}
	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("open xlsx: %v", err)
	}
	defer f.Close()
	if got := f.GetSheetList()[0]; got != long[:31] {
		t.Errorf("sheet = %q, want %q", got, long[:31])
	}
}
