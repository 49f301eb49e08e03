package pipeline

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"tkexport/internal/dates"
	"tkexport/internal/query"
)

// RunTransformations executes the configured SQL scripts against db,
// writing an execution log next to the snapshot. Script failures do
// not stop the run; the failed count lets callers decide the exit
// status.
func RunTransformations(ctx context.Context, db *sql.DB, scripts []string, logDir string, now time.Time) (logPath string, failed int, err error) {
	if len(scripts) == 0 {
		return "", 0, nil
	}
	logPath = filepath.Join(logDir, fmt.Sprintf("transformation_log_%s.txt", dates.Timestamp(now)))
	f, err := os.Create(logPath)
	if err != nil {
		return "", 0, fmt.Errorf("pipeline: create transformation log: %w", err)
	}
	_, failed = query.RunScripts(ctx, db, scripts, f)
	if err := f.Close(); err != nil {
		return logPath, failed, fmt.Errorf("pipeline: close transformation log: %w", err)
	}
	return logPath, failed, nil
}
