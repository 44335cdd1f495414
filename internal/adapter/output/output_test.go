package output_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/epw-merge/internal/adapter/output"
	"github.com/couchcryptid/epw-merge/internal/dataset"
	"github.com/couchcryptid/epw-merge/internal/domain"
)

func smallDataset(t *testing.T) *dataset.Dataset {
	t.Helper()
	f := &domain.EPWFile{Source: domain.SourceFile{ID: "a.epw"}}
	for h := 1; h <= 3; h++ {
		rec := domain.HourlyRecord{Year: 2001, Month: 1, Day: 1, Hour: h, Minute: 60}
		rec.Readings[domain.DryBulbTemperature] = domain.Reading{Value: float64(h), Valid: true}
		f.Records = append(f.Records, rec)
	}
	ds, err := dataset.Merge([]dataset.FileResult{{File: f}}, nil, domain.Options{Strict: true})
	require.NoError(t, err)
	return ds
}

func listDir(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	require.NoError(t, err)
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Name()
	}
	return names
}

func TestDerivePaths(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "chicago")
	require.NoError(t, os.Mkdir(dir, 0o755))

	t.Run("from input directory", func(t *testing.T) {
		p, err := output.DerivePaths([]string{dir}, "")
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(dir, "merged", "chicago.parquet"), p.Parquet)
		assert.Equal(t, filepath.Join(dir, "merged", "chicago.csv"), p.CSV)
	})

	t.Run("from input file", func(t *testing.T) {
		file := filepath.Join(dir, "a.epw")
		require.NoError(t, os.WriteFile(file, nil, 0o644))

		p, err := output.DerivePaths([]string{file}, "")
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(dir, "merged", "chicago.parquet"), p.Parquet)
	})

	t.Run("override", func(t *testing.T) {
		p, err := output.DerivePaths([]string{dir}, "/out/all.parquet")
		require.NoError(t, err)
		assert.Equal(t, output.Paths{Parquet: "/out/all.parquet", CSV: "/out/all.csv"}, p)
	})

	t.Run("no inputs", func(t *testing.T) {
		_, err := output.DerivePaths(nil, "")
		assert.Error(t, err)
	})
}

func TestWriter_Write(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "merged")
	paths := output.Paths{Parquet: filepath.Join(dir, "x.parquet"), CSV: filepath.Join(dir, "x.csv")}
	w := output.NewWriter(slog.Default())

	t.Run("parquet only", func(t *testing.T) {
		pub, err := w.Write(context.Background(), smallDataset(t), paths, domain.Options{})
		require.NoError(t, err)

		assert.Equal(t, 3, pub.Rows)
		assert.Empty(t, pub.CSV)
		assert.Equal(t, []string{"x.parquet"}, listDir(t, dir))
	})

	t.Run("with tabular copy", func(t *testing.T) {
		pub, err := w.Write(context.Background(), smallDataset(t), paths, domain.Options{EmitTabularCopy: true})
		require.NoError(t, err)

		assert.Equal(t, paths.CSV, pub.CSV)
		assert.ElementsMatch(t, []string{"x.parquet", "x.csv"}, listDir(t, dir))
	})
}

func TestWriter_Write_Idempotent(t *testing.T) {
	dir := t.TempDir()
	paths := output.Paths{Parquet: filepath.Join(dir, "x.parquet"), CSV: filepath.Join(dir, "x.csv")}
	w := output.NewWriter(slog.Default())
	opts := domain.Options{EmitTabularCopy: true}

	_, err := w.Write(context.Background(), smallDataset(t), paths, opts)
	require.NoError(t, err)
	firstPQ, _ := os.ReadFile(paths.Parquet)
	firstCSV, _ := os.ReadFile(paths.CSV)

	_, err = w.Write(context.Background(), smallDataset(t), paths, opts)
	require.NoError(t, err)
	secondPQ, _ := os.ReadFile(paths.Parquet)
	secondCSV, _ := os.ReadFile(paths.CSV)

	assert.Equal(t, firstPQ, secondPQ)
	assert.Equal(t, firstCSV, secondCSV)
}

func TestWriter_Write_InvalidDataset(t *testing.T) {
	dir := t.TempDir()
	ds := smallDataset(t)
	ds.Sources[0].Rows = 99

	_, err := output.NewWriter(slog.Default()).Write(context.Background(), ds, output.Paths{Parquet: filepath.Join(dir, "x.parquet")}, domain.Options{})

	assert.ErrorIs(t, err, domain.ErrSchema)
	assert.Empty(t, listDir(t, dir))
}

func TestCommit_FailureLeavesNothing(t *testing.T) {
	dir := t.TempDir()
	boom := errors.New("disk full")

	err := output.Commit(context.Background(), []output.Artifact{
		{Path: filepath.Join(dir, "a.parquet"), Encode: func(w io.Writer) error {
			_, err := w.Write([]byte("ok"))
			return err
		}},
		{Path: filepath.Join(dir, "a.csv"), Encode: func(w io.Writer) error {
			_, _ = w.Write([]byte("partial"))
			return boom
		}},
	})

	assert.ErrorIs(t, err, boom)
	assert.ErrorIs(t, err, domain.ErrIO)
	assert.Empty(t, listDir(t, dir))
}

func TestCommit_RenameFailureRemovesPublished(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "b.csv")
	require.NoError(t, os.Mkdir(blocker, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(blocker, "keep"), nil, 0o644))

	write := func(w io.Writer) error { _, err := w.Write([]byte("x")); return err }
	err := output.Commit(context.Background(), []output.Artifact{
		{Path: filepath.Join(dir, "a.parquet"), Encode: write},
		{Path: blocker, Encode: write},
	})

	assert.ErrorIs(t, err, domain.ErrIO)
	assert.Equal(t, []string{"b.csv"}, listDir(t, dir))
}

func TestCommit_Canceled(t *testing.T) {
	dir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := output.Commit(ctx, []output.Artifact{{
		Path:   filepath.Join(dir, "a.parquet"),
		Encode: func(w io.Writer) error { return nil },
	}})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, listDir(t, dir))
}

func TestIsTemp(t *testing.T) {
	assert.True(t, output.IsTemp(".x.parquet.0b6e.tmp"))
	assert.False(t, output.IsTemp("x.parquet"))
}
