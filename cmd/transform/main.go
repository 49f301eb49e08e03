// Command transform runs the configured SQL transformation scripts, in
// order, against a staged snapshot database. Script failures are
// logged and do not stop the run, but any failure makes the command
// exit nonzero. An execution log is written next to the snapshot.
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
	"tkexport/internal/pipeline"
	"tkexport/internal/snapshot"
)

func main() {
	var (
		cfgPath  string
		database string
	)

	flag.StringVar(&cfgPath, "config", "configs/config.yaml", "config YAML path")
	flag.StringVar(&database, "database", "", "snapshot database path")
	latest := flag.Bool("latest", true, "target the newest snapshot under the output dir when -database is not given")
	flag.Parse()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		fatalf("load config: %v", err)
	}
	if len(cfg.TransformationScripts) == 0 {
		fatalf("no transformation_scripts configured in %s", cfgPath)
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

	logPath, failed, err := pipeline.RunTransformations(context.Background(), repo.DB(),
		cfg.TransformationScripts, filepath.Dir(database), time.Now())
	if err != nil {
		fatalf("%v", err)
	}
	log.Printf("execution log: %s", logPath)
	if failed > 0 {
		fatalf("%d of %d scripts failed", failed, len(cfg.TransformationScripts))
	}
	log.Printf("all %d scripts completed", len(cfg.TransformationScripts))
}

func fatalf(format string, a ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", a...)
	os.Exit(1)
}
