// Command validatecsv checks a results CSV against the validation
// rules in the config. With no -csv flag it validates the newest
// results file under the configured output dir. Any violation makes
// the command exit nonzero.
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"tkexport/internal/config"
	"tkexport/internal/csvutil"
)

func main() {
	var (
		cfgPath    string
		csvPath    string
		reportPath string
	)

	flag.StringVar(&cfgPath, "config", "configs/config.yaml", "config YAML path")
	flag.StringVar(&csvPath, "csv", "", "CSV file to validate (default: latest results CSV in the output dir)")
	flag.StringVar(&reportPath, "report", "", "write the validation report to this file instead of stdout")
	flag.Parse()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		fatalf("load config: %v", err)
	}
	if len(cfg.ValidationRules) == 0 {
		fatalf("no csv_validation_rules configured in %s", cfgPath)
	}

	if csvPath == "" {
		csvPath, err = csvutil.FindLatest(cfg.OutputDir)
		if err != nil {
			fatalf("%v", err)
		}
		log.Printf("validating %s", csvPath)
	}

	f, err := csvutil.Read(csvPath)
	if err != nil {
		fatalf("%v", err)
	}
	violations := csvutil.Validate(f, cfg.ValidationRules)

	var out io.Writer = os.Stdout
	if reportPath != "" {
		rf, err := os.Create(reportPath)
		if err != nil {
			fatalf("create report: %v", err)
		}
		defer rf.Close()
		out = rf
	}
	if err := csvutil.WriteReport(out, csvPath, len(f.Rows), violations); err != nil {
		fatalf("%v", err)
	}

	if len(violations) > 0 {
		os.Exit(1)
	}
}

func fatalf(format string, a ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", a...)
	os.Exit(1)
}
