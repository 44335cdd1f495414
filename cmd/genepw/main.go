// Command genepw writes deterministic synthetic EPW files for fixtures and
// demos.
//
// Usage:
//
//	go run ./cmd/genepw -out testdata/weather -n 3
//	go run ./cmd/genepw -out testdata/weather -n 1 -leap -missing-every 500
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/couchcryptid/epw-merge/internal/testutil/epwgen"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	outDir := flag.String("out", ".", "directory to write files into")
	n := flag.Int("n", 1, "number of files")
	leap := flag.Bool("leap", false, "generate leap-year files (8784 records)")
	missingEvery := flag.Int("missing-every", 0, "mark every Nth dry-bulb value missing")
	wind := flag.Float64("wind", 0, "constant wind speed in m/s (0 keeps the varying profile)")
	flag.Parse()

	if *n < 1 {
		return fmt.Errorf("-n must be at least 1")
	}
	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		return err
	}

	for i := range *n {
		opts := epwgen.Options{
			City:                fmt.Sprintf("Station %d", i+1),
			Seed:                i,
			Leap:                *leap,
			MissingDryBulbEvery: *missingEvery,
			ConstantWind:        *wind > 0,
			WindSpeed:           *wind,
		}
		path := filepath.Join(*outDir, fmt.Sprintf("station_%02d.epw", i+1))
		if err := epwgen.WriteFile(path, opts); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		fmt.Printf("wrote %s (%d records)\n", path, epwgen.Records(opts))
	}
	return nil
}
