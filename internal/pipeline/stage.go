package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"tkexport/internal/access"
	"tkexport/internal/config"
	"tkexport/internal/metrics"
	"tkexport/internal/report"
	"tkexport/internal/snapshot"
)

// Foreign key columns used when --filter-project narrows the related
// tables down to rows the filtered billing table actually references.
const (
	projectKey = "projectid"
	clientKey  = "clientid"
	payItemKey = "payitemid"
)

// StageOptions controls how StageAll extracts and stages tables.
type StageOptions struct {
	// Filter is applied to the main table only.
	Filter access.Filter
	// FilterProject cascades the main table's project references into
	// the related tables: tblProject keeps only referenced projects,
	// tblClient only clients of those projects, tblPayItem only
	// referenced pay items. Other related tables stay unfiltered.
	FilterProject bool
	// WriteExcel also writes one .xlsx per staged table into the
	// snapshot directory.
	WriteExcel bool
	// Now stamps the Excel file names.
	Now time.Time
}

// TableResult describes one staged table.
type TableResult struct {
	Name      string
	Rows      int64
	ExcelPath string // empty unless WriteExcel was set
}

// StageResult collects per-table outcomes in staging order.
type StageResult struct {
	Tables []TableResult
}

// StageAll reads the main table plus every related table from the
// Access handle and stages them into the snapshot database. The main
// table is read first so its key values can drive the filter cascade.
func StageAll(ctx context.Context, h *access.Handle, cfg config.Config, snap *snapshot.Snapshot, opts StageOptions) (*StageResult, error) {
	res := &StageResult{}

	main, err := h.ReadTable(ctx, cfg.MainTable, opts.Filter)
	if err != nil {
		return nil, fmt.Errorf("pipeline: read %s: %w", cfg.MainTable, err)
	}
	tr, err := stageTable(ctx, snap, main, opts, opts.Filter.Start, opts.Filter.End)
	if err != nil {
		return nil, err
	}
	res.Tables = append(res.Tables, tr)

	// tblClient is filtered through tblProject, so the project table
	// may need to be read before its turn in the config order.
	var projects *access.Table
	readProjects := func(name string) (*access.Table, error) {
		if projects != nil {
			return projects, nil
		}
		f := access.Filter{KeyColumn: projectKey, KeyValues: main.DistinctValues(projectKey)}
		t, err := h.ReadTable(ctx, name, f)
		if err != nil {
			return nil, fmt.Errorf("pipeline: read %s: %w", name, err)
		}
		projects = t
		return projects, nil
	}
	projectTableName := findTable(cfg.RelatedTables, "tblProject")

	for _, name := range cfg.RelatedTables {
		var t *access.Table
		switch {
		case opts.FilterProject && strings.EqualFold(name, "tblProject"):
			t, err = readProjects(name)
		case opts.FilterProject && strings.EqualFold(name, "tblClient") && projectTableName != "":
			var p *access.Table
			p, err = readProjects(projectTableName)
			if err != nil {
				break
			}
			f := access.Filter{KeyColumn: clientKey, KeyValues: p.DistinctValues(clientKey)}
			t, err = h.ReadTable(ctx, name, f)
		case opts.FilterProject && strings.EqualFold(name, "tblPayItem"):
			f := access.Filter{KeyColumn: payItemKey, KeyValues: main.DistinctValues(payItemKey)}
			t, err = h.ReadTable(ctx, name, f)
		default:
			t, err = h.ReadTable(ctx, name, access.Filter{})
		}
		if err != nil {
			return nil, fmt.Errorf("pipeline: read %s: %w", name, err)
		}
		tr, err := stageTable(ctx, snap, t, opts, nil, nil)
		if err != nil {
			return nil, err
		}
		res.Tables = append(res.Tables, tr)
	}
	return res, nil
}

func stageTable(ctx context.Context, snap *snapshot.Snapshot, t *access.Table, opts StageOptions, start, end *time.Time) (TableResult, error) {
	cols := snapshot.InferColumns(t.Columns, t.Rows)
	if err := snap.Repo.CreateTable(ctx, t.Name, cols); err != nil {
		return TableResult{}, fmt.Errorf("pipeline: create %s: %w", t.Name, err)
	}
	n, err := snap.Repo.InsertRows(ctx, t.Name, t.Columns, t.Rows)
	if err != nil {
		return TableResult{}, fmt.Errorf("pipeline: stage %s: %w", t.Name, err)
	}
	metrics.RecordRows(t.Name, "staged", n)

	tr := TableResult{Name: t.Name, Rows: n}
	if opts.WriteExcel {
		path := filepath.Join(snap.Dir, report.ExportFileName(t.Name, start, end, opts.Now))
		if err := report.WriteExcel(path, t.Name, t.Columns, t.Rows); err != nil {
			return TableResult{}, err
		}
		tr.ExcelPath = path
	}
	return tr, nil
}

// findTable returns the configured spelling of want, matching
// case-insensitively, or "" when absent.
func findTable(tables []string, want string) string {
	for _, t := range tables {
		if strings.EqualFold(t, want) {
			return t
		}
	}
	return ""
}
