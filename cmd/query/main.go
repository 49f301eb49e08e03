// Command query runs a SQL file against a staged snapshot database and
// writes the result set to a timestamped results CSV. By default it
// targets the newest export_* snapshot under the configured output
// root.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"tkexport/internal/config"
	"tkexport/internal/query"
	"tkexport/internal/report"
	"tkexport/internal/snapshot"
)

func main() {
	var (
		cfgPath   string
		database  string
		queryFile string
		outPath   string
	)

	flag.StringVar(&cfgPath, "config", "configs/config.yaml", "config YAML path")
	flag.StringVar(&database, "database", "", "snapshot database path")
	flag.StringVar(&queryFile, "query", "", "SQL file to run (defaults to the configured report query)")
	flag.StringVar(&outPath, "out", "", "results CSV path (default: timestamped name in the output dir)")
	latest := flag.Bool("latest", true, "target the newest snapshot under the output dir when -database is not given")
	flag.Parse()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		fatalf("load config: %v", err)
	}
	if queryFile == "" {
		queryFile = cfg.ReportQuery
	}
	if queryFile == "" {
		fatalf("no query: set -query or report_query in %s", cfgPath)
	}

	if database == "" {
		if !*latest {
			fatalf("no database: pass -database or -latest")
		}
		database, err = snapshot.Latest(cfg.OutputDir)
		if err != nil {
			fatalf("%v", err)
		}
		log.Printf("using latest snapshot %s", database)
	}

	repo, err := snapshot.Open(database)
	if err != nil {
		fatalf("%v", err)
	}
	defer repo.Close()

	ctx := context.Background()
	res, err := query.RunFile(ctx, repo.DB(), queryFile)
	if err != nil {
		fatalf("%v", err)
	}

	if outPath == "" {
		outPath = filepath.Join(cfg.OutputDir, report.ResultsFileName(time.Now()))
	}
	if err := report.WriteCSV(outPath, res.Columns, res.Rows); err != nil {
		fatalf("%v", err)
	}
	log.Printf("wrote %d rows to %s", len(res.Rows), outPath)
}

func fatalf(format string, a ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", a...)
	os.Exit(1)
}
