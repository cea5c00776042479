// Command precompute walks a directory of GeoTIFF catchments and writes a
// hydrology bundle plus a companion index for each one.
package main

import (
	"fmt"
	"os"

	"hydroterrain/batch"
	"hydroterrain/config"
)

func main() {
	if len(os.Args) != 3 {
		fmt.Fprintln(os.Stderr, "usage: precompute <input_dir> <output_dir>")
		os.Exit(2)
	}
	inputDir, outputDir := os.Args[1], os.Args[2]

	cfg := config.DefaultConfig()
	runner := batch.New(cfg, 4)

	if err := runner.Run(inputDir, outputDir); err != nil {
		fmt.Fprintf(os.Stderr, "precompute: %v\n", err)
		os.Exit(1)
	}
}
