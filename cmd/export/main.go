// Command export extracts the billing table and its related tables
// from the Access database into a fresh timestamped SQLite snapshot,
// with one Excel workbook per table alongside it. With -delete it
// removes the exported main-table rows from Access afterwards, behind
// an interactive confirmation.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"tkexport/internal/access"
	"tkexport/internal/config"
	"tkexport/internal/dates"
	"tkexport/internal/metrics"
	"tkexport/internal/metrics/prompush"
	"tkexport/internal/pipeline"
	"tkexport/internal/snapshot"
)

func main() {
	var (
		cfgPath           string
		accessDB          string
		startDate         string
		endDate           string
		dateField         string
		outputDir         string
		dbPath            string
		filterProject     bool
		deleteRows        bool
		dump              bool
		excel             bool
		metricsBackendFlg string
		pushGatewayURLFlg string
	)

	flag.StringVar(&cfgPath, "config", "configs/config.yaml", "config YAML path")
	flag.StringVar(&accessDB, "access-db", "", "Access database path (overrides config)")
	flag.StringVar(&startDate, "start-date", "", "start of the billing date range (overrides config)")
	flag.StringVar(&endDate, "end-date", "", "end of the billing date range (overrides config)")
	flag.StringVar(&dateField, "date-field", "", "date column of the main table (overrides config)")
	flag.StringVar(&outputDir, "output-dir", "", "snapshot output root (overrides config)")
	flag.StringVar(&dbPath, "db", "", "stage into this exact database path instead of a timestamped snapshot dir (an existing file is renamed to a backup)")
	flag.BoolVar(&filterProject, "filter-project", false, "restrict related tables to rows referenced by the filtered billing rows")
	flag.BoolVar(&deleteRows, "delete", false, "delete the exported billing rows from Access after export (asks for confirmation)")
	flag.BoolVar(&dump, "dump", false, "print a summary of the snapshot contents after export")
	flag.BoolVar(&excel, "excel", true, "also write one .xlsx per staged table")
	flag.StringVar(&metricsBackendFlg, "metrics-backend", "none", "metrics backend to use (pushgateway, none)")
	flag.StringVar(&pushGatewayURLFlg, "pushgateway-url", "", "Pushgateway base URL (overrides env PUSHGATEWAY_URL)")
	verbose := flag.Bool("v", false, "enable verbose logs")
	flag.Parse()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		fatalf("load config: %v", err)
	}
	if accessDB != "" {
		cfg.AccessDB = accessDB
	}
	if startDate != "" {
		cfg.StartDate = startDate
	}
	if endDate != "" {
		cfg.EndDate = endDate
	}
	if dateField != "" {
		cfg.DateField = dateField
	}
	if outputDir != "" {
		cfg.OutputDir = outputDir
	}

	issues := config.Validate(cfg)
	for _, iss := range issues {
		fmt.Fprintf(os.Stderr, "%s\n", iss.Error())
	}
	if config.HasErrors(issues) {
		fatalf("configuration is invalid: %s", cfgPath)
	}

	setupMetrics(metricsBackendFlg, pushGatewayURLFlg, *verbose)
	defer func() {
		if err := metrics.Flush(); err != nil {
			log.Printf("metrics: flush error: %v", err)
		}
	}()

	if err := pipeline.Preflight(cfg); err != nil {
		fatalf("%v", err)
	}

	start, err := dates.ParseOptional(cfg.StartDate)
	if err != nil {
		fatalf("start date: %v", err)
	}
	end, err := dates.ParseOptional(cfg.EndDate)
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

	var snap *snapshot.Snapshot
	if dbPath != "" {
		snap, err = snapshot.CreateAt(dbPath, now)
	} else {
		snap, err = snapshot.Create(cfg.OutputDir, now)
	}
	if err != nil {
		h.Close()
		fatalf("%v", err)
	}

	res, err := pipeline.StageAll(ctx, h, cfg, snap, pipeline.StageOptions{
		Filter:        filter,
		FilterProject: filterProject,
		WriteExcel:    excel,
		Now:           now,
	})
	if err != nil {
		h.Close()
		snap.Close()
		fatalf("%v", err)
	}
	for _, t := range res.Tables {
		log.Printf("staged %s: %d rows", t.Name, t.Rows)
	}
	log.Printf("snapshot written to %s", snap.DBPath)

	if dump {
		if err := snap.Repo.Dump(ctx, os.Stdout, 5); err != nil {
			log.Printf("dump: %v", err)
		}
	}
	if err := snap.Close(); err != nil {
		log.Printf("close snapshot: %v", err)
	}
	if err := h.Close(); err != nil {
		log.Printf("close access database: %v", err)
	}

	if deleteRows {
		exported := res.Tables[0].Rows
		prompt := fmt.Sprintf("Delete %d exported rows from %s (%s)?", exported, cfg.MainTable, filter.Describe())
		ok, err := pipeline.Confirm(os.Stdin, os.Stdout, prompt)
		if err != nil {
			fatalf("%v", err)
		}
		if !ok {
			log.Printf("delete declined, leaving %s untouched", cfg.MainTable)
			return
		}

		// Deletion takes an exclusive lock so nobody is mid-edit.
		ex, err := access.OpenExclusive(ctx, cfg.AccessDB)
		if err != nil {
			fatalf("open access database exclusively: %v", err)
		}
		defer ex.Close()

		n, err := ex.DeleteRows(ctx, cfg.MainTable, filter)
		if err != nil {
			fatalf("delete rows: %v", err)
		}
		metrics.RecordRows(cfg.MainTable, "deleted", n)
		log.Printf("deleted %d rows from %s", n, cfg.MainTable)
		if n != exported {
			log.Printf("warning: deleted %d rows but exported %d; the table changed between export and delete", n, exported)
		}
	}
}

func setupMetrics(backendName, gatewayURL string, verbose bool) {
	switch backendName {
	case "pushgateway":
		if gatewayURL == "" {
			gatewayURL = os.Getenv("PUSHGATEWAY_URL")
		}
		if gatewayURL == "" {
			gatewayURL = "http://localhost:9091"
		}
		b, err := prompush.NewBackend("tkexport", gatewayURL)
		if err != nil {
			log.Printf("metrics: failed to init pushgateway backend: %v; using nop", err)
			return
		}
		log.Printf("metrics: backend=pushgateway url=%s", gatewayURL)
		metrics.SetBackend(b)

	case "", "none":
		if verbose {
			log.Printf("metrics: disabled (backend=%q)", backendName)
		}

	default:
		log.Printf("metrics: unknown backend %q; metrics disabled", backendName)
	}
}

func fatalf(format string, a ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", a...)
	os.Exit(1)
}
