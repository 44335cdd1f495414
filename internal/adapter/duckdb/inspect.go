// Package duckdb inspects published datasets with an in-memory DuckDB.
package duckdb

import (
	"context"
	"database/sql"
	"fmt"
	"slices"
	"strings"

	_ "github.com/marcboeker/go-duckdb" // duckdb driver

	"github.com/couchcryptid/epw-merge/internal/dataset"
)

// SourceRows is the row count contributed by one source file.
type SourceRows struct {
	Source string
	Rows   int64
}

// ColumnStats summarizes one comfort column. Mean is invalid when every
// value is null.
type ColumnStats struct {
	Name  string
	Nulls int64
	Mean  sql.NullFloat64
}

// Inspection is the summary of one Parquet dataset.
type Inspection struct {
	Path    string
	Rows    int64
	Sources []SourceRows
	Comfort []ColumnStats
}

// Inspector runs summary queries over Parquet files.
type Inspector struct {
	db *sql.DB
}

// Open starts an in-memory DuckDB instance.
func Open(ctx context.Context) (*Inspector, error) {
	db, err := sql.Open("duckdb", "")
	if err != nil {
		return nil, fmt.Errorf("failed to open duckdb connection: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping duckdb: %w", err)
	}
	return &Inspector{db: db}, nil
}

func (i *Inspector) Close() error {
	return i.db.Close()
}

// Inspect reports per-source row counts and null counts and means of every
// comfort column in the dataset at path.
func (i *Inspector) Inspect(ctx context.Context, path string) (Inspection, error) {
	from := "read_parquet(" + quoteLiteral(path) + ")"
	out := Inspection{Path: path}

	rows, err := i.db.QueryContext(ctx,
		"SELECT "+quoteIdent(dataset.SourceColumn)+", count(*) FROM "+from+
			" GROUP BY 1 ORDER BY 1")
	if err != nil {
		return Inspection{}, fmt.Errorf("query sources of %s: %w", path, err)
	}
	defer func() { _ = rows.Close() }()
	for rows.Next() {
		var s SourceRows
		if err := rows.Scan(&s.Source, &s.Rows); err != nil {
			return Inspection{}, fmt.Errorf("scan source rows: %w", err)
		}
		out.Sources = append(out.Sources, s)
		out.Rows += s.Rows
	}
	if err := rows.Err(); err != nil {
		return Inspection{}, fmt.Errorf("iterate source rows: %w", err)
	}

	columns, err := i.comfortColumns(ctx, from)
	if err != nil {
		return Inspection{}, err
	}
	for _, name := range columns {
		c := ColumnStats{Name: name}
		q := fmt.Sprintf("SELECT count(*) - count(%[1]s), avg(%[1]s) FROM %[2]s", quoteIdent(name), from) //nolint:gosec // identifiers are quoted
		if err := i.db.QueryRowContext(ctx, q).Scan(&c.Nulls, &c.Mean); err != nil {
			return Inspection{}, fmt.Errorf("summarize column %s: %w", name, err)
		}
		out.Comfort = append(out.Comfort, c)
	}
	return out, nil
}

// comfortColumns lists the columns that follow the fixed EPW columns, in
// file order.
func (i *Inspector) comfortColumns(ctx context.Context, from string) ([]string, error) {
	base := dataset.NewSchema(nil).Names()

	rows, err := i.db.QueryContext(ctx, "SELECT column_name FROM (DESCRIBE SELECT * FROM "+from+")")
	if err != nil {
		return nil, fmt.Errorf("describe dataset: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan column name: %w", err)
		}
		if !slices.Contains(base, name) {
			names = append(names, name)
		}
	}
	return names, rows.Err()
}

func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

func quoteIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
