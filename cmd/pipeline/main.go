// Command pipeline runs the full export workflow in one invocation:
// preflight, staging into a fresh snapshot, the transformation
// scripts, and the results report. It is what the nightly scheduled
// task invokes.
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
		startDate         string
		endDate           string
		filterProject     bool
		excel             bool
		metricsBackendFlg string
		pushGatewayURLFlg string
	)

	flag.StringVar(&cfgPath, "config", "configs/config.yaml", "config YAML path")
	flag.StringVar(&startDate, "start-date", "", "start of the billing date range (overrides config)")
	flag.StringVar(&endDate, "end-date", "", "end of the billing date range (overrides config)")
	flag.BoolVar(&filterProject, "filter-project", false, "restrict related tables to rows referenced by the filtered billing rows")
	flag.BoolVar(&excel, "excel", true, "also write one .xlsx per staged table")
	flag.StringVar(&metricsBackendFlg, "metrics-backend", "pushgateway", "metrics backend to use (pushgateway, none)")
	flag.StringVar(&pushGatewayURLFlg, "pushgateway-url", "", "Pushgateway base URL (overrides env PUSHGATEWAY_URL)")
	verbose := flag.Bool("v", false, "enable verbose logs")
	flag.Parse()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		fatalf("load config: %v", err)
	}
	if startDate != "" {
		cfg.StartDate = startDate
	}
	if endDate != "" {
		cfg.EndDate = endDate
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
	began := time.Now()

	var snap *snapshot.Snapshot
	steps := []pipeline.Step{
		{Name: "preflight", Run: func(ctx context.Context) error {
			return pipeline.Preflight(cfg)
		}},
		{Name: "stage", Run: func(ctx context.Context) error {
			h, err := access.Open(ctx, cfg.AccessDB)
			if err != nil {
				return err
			}
			defer h.Close()

			snap, err = snapshot.Create(cfg.OutputDir, now)
			if err != nil {
				return err
			}
			res, err := pipeline.StageAll(ctx, h, cfg, snap, pipeline.StageOptions{
				Filter:        filter,
				FilterProject: filterProject,
				WriteExcel:    excel,
				Now:           now,
			})
			if err != nil {
				return err
			}
			for _, t := range res.Tables {
				log.Printf("staged %s: %d rows", t.Name, t.Rows)
			}
			return nil
		}},
		{Name: "transform", Run: func(ctx context.Context) error {
			logPath, failed, err := pipeline.RunTransformations(ctx, snap.Repo.DB(),
				cfg.TransformationScripts, snap.Dir, now)
			if err != nil {
				return err
			}
			if logPath != "" {
				log.Printf("execution log: %s", logPath)
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d scripts failed", failed, len(cfg.TransformationScripts))
			}
			return nil
		}},
		{Name: "report", Run: func(ctx context.Context) error {
			if cfg.ReportQuery == "" {
				log.Printf("no report_query configured, skipping")
				return nil
			}
			path, rows, err := pipeline.RunReport(ctx, snap.Repo.DB(), cfg.ReportQuery, cfg.OutputDir, now)
			if err != nil {
				return err
			}
			log.Printf("wrote %d rows to %s", rows, path)
			return nil
		}},
	}

	err = pipeline.Run(ctx, steps)
	if snap != nil {
		if cerr := snap.Close(); cerr != nil {
			log.Printf("close snapshot: %v", cerr)
		}
	}
	if err != nil {
		fatalf("%v", err)
	}

	if *verbose {
		log.Printf("completed in %s", time.Since(began).Truncate(time.Millisecond))
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
