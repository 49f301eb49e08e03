// Command splitcsv partitions a results CSV into one file per
// distinct value of a column, e.g. one file per client.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"tkexport/internal/csvutil"
)

func main() {
	var (
		column string
		outDir string
	)

	flag.StringVar(&column, "column", "", "column to split on (required)")
	flag.StringVar(&outDir, "output", ".", "directory for the split files")
	flag.Parse()

	if column == "" {
		fatalf("-column is required")
	}
	if flag.NArg() != 1 {
		fatalf("usage: splitcsv -column NAME [flags] file.csv")
	}

	paths, err := csvutil.Split(flag.Arg(0), column, outDir)
	if err != nil {
		fatalf("%v", err)
	}
	for _, p := range paths {
		log.Printf("wrote %s", p)
	}
	log.Printf("split into %d files by %s", len(paths), column)
}

func fatalf(format string, a ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", a...)
	os.Exit(1)
}
