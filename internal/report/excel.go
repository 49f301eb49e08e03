package report

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/xuri/excelize/v2"
)

// WriteExcel writes columns and rows to an .xlsx file at path. The sheet is
// named after the source table; cell types follow the value types (numbers
// stay numeric, timestamps become text in the standard form, NULL is empty).
func WriteExcel(path, sheet string, columns []string, rows [][]any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("report: create dir for %s: %w", path, err)
	}

	f := excelize.NewFile()
	defer f.Close()

	// Excel sheet names are capped at 31 chars and the default sheet is
	// renamed rather than added, so exactly one sheet comes out.
	if len(sheet) > 31 {
		sheet = sheet[:31]
	}
	if sheet == "" {
		sheet = "Sheet1"
	}
	if sheet != "Sheet1" {
		if err := f.SetSheetName("Sheet1", sheet); err != nil {
			return fmt.Errorf("report: name sheet %s: %w", sheet, err)
		}
	}

	for i, col := range columns {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return fmt.Errorf("report: header cell: %w", err)
		}
		if err := f.SetCellValue(sheet, cell, col); err != nil {
			return fmt.Errorf("report: write header: %w", err)
		}
	}

	for r, row := range rows {
		for c := range columns {
			var v any
			if c < len(row) {
				v = row[c]
			}
			if v == nil {
				continue
			}
			if t, ok := v.(time.Time); ok {
				v = t.Format("2006-01-02 15:04:05")
			}
			if b, ok := v.([]byte); ok {
				v = string(b)
			}
			cell, err := excelize.CoordinatesToCellName(c+1, r+2)
			if err != nil {
				return fmt.Errorf("report: cell: %w", err)
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return fmt.Errorf("report: write cell %s: %w", cell, err)
			}
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("report: save %s: %w", path, err)
	}
	return nil
}
