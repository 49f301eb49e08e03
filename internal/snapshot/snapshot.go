// Package snapshot stages Access table reads into point-in-time SQLite
// databases and locates existing snapshots.
//
// A snapshot is a directory output/export_YYYYMMDD_HHMMSS/ containing
// timekeeping_export.db. Once a run finishes writing it, the file is treated
// as immutable by every reader; superseded snapshots are left in place, and
// "the" snapshot is always the newest one by filesystem timestamp.
package snapshot

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"tkexport/internal/dates"
)

// DBFileName is the database file created inside every snapshot directory.
const DBFileName = "timekeeping_export.db"

// dirPrefix names snapshot directories under the output root.
const dirPrefix = "export_"

// ErrNoSnapshot is returned by Latest when the output root contains no
// snapshot database.
var ErrNoSnapshot = errors.New("snapshot: no snapshot found")

// Snapshot is an open, writable snapshot database plus its location.
type Snapshot struct {
	Dir    string
	DBPath string
	Repo   *Repository
}

// Close closes the underlying database.
func (s *Snapshot) Close() error { return s.Repo.Close() }

// Create makes a fresh timestamped snapshot directory under outputRoot and
// opens an empty database inside it.
func Create(outputRoot string, now time.Time) (*Snapshot, error) {
	dir := filepath.Join(outputRoot, dirPrefix+dates.Timestamp(now))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("snapshot: create %s: %w", dir, err)
	}
	return CreateAt(filepath.Join(dir, DBFileName), now)
}

// CreateAt opens a fresh snapshot database at an explicit path. If a file
// already exists there it is renamed to <name>_backup_YYYYMMDD_HHMMSS.db
// first; a written snapshot is never clobbered.
func CreateAt(dbPath string, now time.Time) (*Snapshot, error) {
	if _, err := os.Stat(dbPath); err == nil {
		ext := filepath.Ext(dbPath)
		backup := strings.TrimSuffix(dbPath, ext) + "_backup_" + dates.Timestamp(now) + ext
		if err := os.Rename(dbPath, backup); err != nil {
			return nil, fmt.Errorf("snapshot: back up existing %s: %w", dbPath, err)
		}
	}
	repo, err := Open(dbPath)
	if err != nil {
		return nil, err
	}
	return &Snapshot{Dir: filepath.Dir(dbPath), DBPath: dbPath, Repo: repo}, nil
}

// Latest returns the path of the newest snapshot database under outputRoot,
// judged by the containing directory's modification time. It returns
// ErrNoSnapshot when none exists.
func Latest(outputRoot string) (string, error) {
	entries, err := os.ReadDir(outputRoot)
	if err != nil {
		if os.IsNotExist(err) {
			return "", ErrNoSnapshot
		}
		return "", fmt.Errorf("snapshot: read %s: %w", outputRoot, err)
	}

	var (
		best      string
		bestMtime time.Time
	)
	for _, e := range entries {
		if !e.IsDir() || !strings.HasPrefix(e.Name(), dirPrefix) {
			continue
		}
		dbPath := filepath.Join(outputRoot, e.Name(), DBFileName)
		if _, err := os.Stat(dbPath); err != nil {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if best == "" || info.ModTime().After(bestMtime) {
			best = dbPath
			bestMtime = info.ModTime()
		}
	}
	if best == "" {
		return "", ErrNoSnapshot
	}
	return best, nil
}
