// Command archive exports one Access table to an Excel workbook and
// then, unless -no-delete is given, deletes the exported rows from the
// table after an interactive confirmation. It is the manual cleanup
// companion to the export pipeline: archive old billing rows out of
// the live database once they are safely on disk.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"tkexport/internal/access"
	"tkexport/internal/config"
	"tkexport/internal/dates"
	"tkexport/internal/pipeline"
	"tkexport/internal/report"
)

func main() {
	var (
		cfgPath   string
		accessDB  string
		table     string
		dateField string
		startDate string
		endDate   string
		outputDir string
		noDelete  bool
	)

	flag.StringVar(&cfgPath, "config", "configs/config.yaml", "config YAML path")
	flag.StringVar(&accessDB, "access-db", "", "Access database path (overrides config)")
	flag.StringVar(&table, "table", "", "table to export (defaults to the configured main table)")
	flag.StringVar(&dateField, "date-field", "", "date column used for range filtering (overrides config)")
	flag.StringVar(&startDate, "start-date", "", "start of the date range")
	flag.StringVar(&endDate, "end-date", "", "end of the date range")
	flag.StringVar(&outputDir, "output-dir", "", "directory for the Excel export (overrides config)")
	flag.BoolVar(&noDelete, "no-delete", false, "export only, keep the rows in Access")
	flag.Parse()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		fatalf("load config: %v", err)
	}
	if accessDB != "" {
		cfg.AccessDB = accessDB
	}
	if dateField != "" {
		cfg.DateField = dateField
	}
	if outputDir != "" {
		cfg.OutputDir = outputDir
	}
	if table == "" {
		table = cfg.MainTable
	}
	if table == "" {
		fatalf("no table: set -table or main_table in %s", cfgPath)
	}

	if err := pipeline.Preflight(cfg); err != nil {
		fatalf("%v", err)
	}

	start, err := dates.ParseOptional(startDate)
	if err != nil {
		fatalf("start date: %v", err)
	}
	end, err := dates.ParseOptional(endDate)
	if err != nil {
		fatalf("end date: %v", err)
	}
	filter := access.Filter{DateField: cfg.DateField, Start: start, End: end}

	ctx := context.Background()
	now := time.Now()

	h, err := access.Open(ctx, cfg.AccessDB)
	if err != nil {
		fatalf("open access database: %v", err)
	}

	t, err := h.ReadTable(ctx, table, filter)
	if err != nil {
		h.Close()
		fatalf("read %s: %v", table, err)
	}
	if err := h.Close(); err != nil {
		log.Printf("close access database: %v", err)
	}
	log.Printf("read %d rows from %s (%s)", len(t.Rows), table, filter.Describe())

	out := filepath.Join(cfg.OutputDir, report.ExportFileName(table, start, end, now))
	if err := report.WriteExcel(out, table, t.Columns, t.Rows); err != nil {
		fatalf("%v", err)
	}
	log.Printf("exported to %s", out)

	if noDelete {
		return
	}
	if len(t.Rows) == 0 {
		log.Printf("nothing to delete")
		return
	}

	prompt := fmt.Sprintf("Delete %d rows from %s (%s)?", len(t.Rows), table, filter.Describe())
	ok, err := pipeline.Confirm(os.Stdin, os.Stdout, prompt)
	if err != nil {
		fatalf("%v", err)
	}
	if !ok {
		log.Printf("delete declined, leaving %s untouched", table)
		return
	}

	// Exclusive mode guarantees no open editor holds the rows.
	ex, err := access.OpenExclusive(ctx, cfg.AccessDB)
	if err != nil {
		fatalf("open access database exclusively: %v", err)
	}
	defer ex.Close()

	n, err := ex.DeleteRows(ctx, table, filter)
	if err != nil {
		fatalf("delete rows: %v", err)
	}
	log.Printf("deleted %d rows from %s", n, table)
	if n != int64(len(t.Rows)) {
		log.Printf("warning: deleted %d rows but exported %d; the table changed between export and delete", n, len(t.Rows))
	}
}

func fatalf(format string, a ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", a...)
	os.Exit(1)
}
