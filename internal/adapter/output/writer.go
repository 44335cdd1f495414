package output

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/couchcryptid/epw-merge/internal/adapter/parquet"
	"github.com/couchcryptid/epw-merge/internal/adapter/tabular"
	"github.com/couchcryptid/epw-merge/internal/dataset"
	"github.com/couchcryptid/epw-merge/internal/domain"
)

// Paths are the destinations of one run.
type Paths struct {
	Parquet string
	CSV     string
}

// DerivePaths picks the output paths. An explicit override is used as the
// Parquet path; otherwise the dataset goes to <dir>/merged/<dir name>.parquet
// where dir is the first input (or its parent when it is a file). The CSV copy
// shares the Parquet stem.
func DerivePaths(inputs []string, override string) (Paths, error) {
	pq := override
	if pq == "" {
		if len(inputs) == 0 {
			return Paths{}, errNoOutput
		}
		dir := inputs[0]
		info, err := os.Stat(dir)
		if err != nil {
			return Paths{}, &domain.IOError{Op: "stat", Path: dir, Err: err}
		}
		if !info.IsDir() {
			dir = filepath.Dir(dir)
		}
		abs, err := filepath.Abs(dir)
		if err != nil {
			return Paths{}, &domain.IOError{Op: "resolve", Path: dir, Err: err}
		}
		pq = filepath.Join(abs, "merged", filepath.Base(abs)+".parquet")
	}
	stem := strings.TrimSuffix(pq, filepath.Ext(pq))
	return Paths{Parquet: pq, CSV: stem + ".csv"}, nil
}

// Published describes a committed dataset.
type Published struct {
	Parquet string
	CSV     string
	Rows    int
	Sources int
}

// Writer validates and publishes merged datasets.
type Writer struct {
	logger *slog.Logger
}

// NewWriter creates a Writer.
func NewWriter(logger *slog.Logger) *Writer {
	return &Writer{logger: logger}
}

// Write publishes ds as Parquet, plus CSV when opts.EmitTabularCopy is set.
func (w *Writer) Write(ctx context.Context, ds *dataset.Dataset, paths Paths, opts domain.Options) (Published, error) {
	if err := ds.Validate(); err != nil {
		return Published{}, err
	}

	artifacts := []Artifact{{
		Path:   paths.Parquet,
		Encode: func(wr io.Writer) error { return parquet.Encode(wr, ds) },
	}}
	pub := Published{Parquet: paths.Parquet, Rows: ds.Rows(), Sources: len(ds.Sources)}
	if opts.EmitTabularCopy {
		artifacts = append(artifacts, Artifact{
			Path:   paths.CSV,
			Encode: func(wr io.Writer) error { return tabular.Encode(wr, ds) },
		})
		pub.CSV = paths.CSV
	}

	if err := Commit(ctx, artifacts); err != nil {
		return Published{}, err
	}

	w.logger.Info("dataset published",
		"path", pub.Parquet,
		"csv", pub.CSV,
		"rows", pub.Rows,
		"sources", pub.Sources,
	)
	return pub, nil
}
