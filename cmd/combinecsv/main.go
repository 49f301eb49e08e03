// Command combinecsv merges results CSV files into one. Arguments are
// CSV files or directories (a directory contributes every *.csv inside
// it). The output header is the union of the input headers;
// -deduplicate drops repeated rows, either whole-row or keyed on -key
// columns.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"tkexport/internal/csvutil"
)

func main() {
	var (
		outPath     string
		deduplicate bool
		keyCols     string
	)

	flag.StringVar(&outPath, "output", "combined.csv", "output CSV path")
	flag.BoolVar(&deduplicate, "deduplicate", false, "drop duplicate rows")
	flag.StringVar(&keyCols, "key", "", "comma-separated columns forming the dedup key (default: whole row)")
	flag.Parse()

	if flag.NArg() == 0 {
		fatalf("usage: combinecsv [flags] file-or-dir [file-or-dir ...]")
	}

	inputs, err := expandInputs(flag.Args())
	if err != nil {
		fatalf("%v", err)
	}
	if len(inputs) == 0 {
		fatalf("no CSV files found in the given arguments")
	}

	opts := csvutil.CombineOptions{Deduplicate: deduplicate}
	if keyCols != "" {
		for _, c := range strings.Split(keyCols, ",") {
			if c = strings.TrimSpace(c); c != "" {
				opts.KeyColumns = append(opts.KeyColumns, c)
			}
		}
	}

	stats, err := csvutil.Combine(inputs, outPath, opts)
	if err != nil {
		fatalf("%v", err)
	}
	log.Printf("combined %d files: %d rows in, %d rows out (%d duplicates) -> %s",
		stats.Files, stats.RowsIn, stats.RowsOut, stats.Duplicates, outPath)
}

// expandInputs resolves directory arguments to the *.csv files inside
// them, sorted so combination order is stable.
func expandInputs(args []string) ([]string, error) {
	var out []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			out = append(out, arg)
			continue
		}
		matches, err := filepath.Glob(filepath.Join(arg, "*.csv"))
		if err != nil {
			return nil, err
		}
		sort.Strings(matches)
		out = append(out, matches...)
	}
	return out, nil
}

func fatalf(format string, a ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", a...)
	os.Exit(1)
}
