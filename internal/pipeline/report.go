package pipeline

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"time"

	"tkexport/internal/metrics"
	"tkexport/internal/query"
	"tkexport/internal/report"
)

// RunReport executes the report query file against db and writes the
// result set to a timestamped results CSV under outDir.
func RunReport(ctx context.Context, db *sql.DB, queryFile, outDir string, now time.Time) (string, int, error) {
	res, err := query.RunFile(ctx, db, queryFile)
	if err != nil {
		return "", 0, fmt.Errorf("pipeline: report query: %w", err)
	}
	path := filepath.Join(outDir, report.ResultsFileName(now))
	if err := report.WriteCSV(path, res.Columns, res.Rows); err != nil {
		return "", 0, err
	}
	metrics.RecordRows("results", "reported", int64(len(res.Rows)))
	return path, len(res.Rows), nil
}
