// Package pipeline orchestrates the export workflow: preflight checks,
// staging Access tables into a SQLite snapshot, running transformation
// scripts, and producing the results report. Each binary composes the
// pieces it needs; this package owns the sequencing and step metrics.
package pipeline

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"tkexport/internal/config"
	"tkexport/internal/metrics"
)

// Step is one named unit of pipeline work.
type Step struct {
	Name string
	Run  func(ctx context.Context) error
}

// Run executes steps in order and stops at the first failure. Every
// step's duration and outcome is logged and recorded as a metric.
func Run(ctx context.Context, steps []Step) error {
	for _, step := range steps {
		start := time.Now()
		err := step.Run(ctx)
		elapsed := time.Since(start)
		metrics.RecordStep(step.Name, err, elapsed)
		if err != nil {
			log.Printf("step %s failed after %s: %v", step.Name, elapsed.Round(time.Millisecond), err)
			return fmt.Errorf("pipeline: step %s: %w", step.Name, err)
		}
		log.Printf("step %s completed in %s", step.Name, elapsed.Round(time.Millisecond))
	}
	return nil
}

// Preflight verifies the environment before any work starts: the
// Access database file must exist and the output root must be
// writable. Failing here is cheaper than failing mid-export.
func Preflight(cfg config.Config) error {
	info, err := os.Stat(cfg.AccessDB)
	if err != nil {
		return fmt.Errorf("pipeline: access database: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("pipeline: access database %s is a directory", cfg.AccessDB)
	}

	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		return fmt.Errorf("pipeline: output dir: %w", err)
	}
	probe := filepath.Join(cfg.OutputDir, ".write_check")
	if err := os.WriteFile(probe, nil, 0o644); err != nil {
		return fmt.Errorf("pipeline: output dir %s is not writable: %w", cfg.OutputDir, err)
	}
	if err := os.Remove(probe); err != nil {
		return fmt.Errorf("pipeline: clean up write check: %w", err)
	}
	return nil
}
