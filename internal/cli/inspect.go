package cli

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/couchcryptid/epw-merge/internal/adapter/duckdb"
)

func newInspectCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <file.parquet>",
		Short: "Summarize a merged dataset",
		Long: `Inspect queries a merged Parquet dataset with DuckDB and prints the rows
contributed by each source file, then the null count and mean of every
comfort column.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			in, err := duckdb.Open(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = in.Close() }()

			res, err := in.Inspect(ctx, args[0])
			if err != nil {
				return err
			}
			a.logger.Debug("dataset inspected", "path", res.Path, "rows", res.Rows)

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "%s: %d rows\n", res.Path, res.Rows)

			t := table.NewWriter()
			t.SetOutputMirror(w)
			t.SetStyle(table.StyleLight)
			t.AppendHeader(table.Row{"Source", "Rows"})
			for _, s := range res.Sources {
				t.AppendRow(table.Row{s.Source, s.Rows})
			}
			t.Render()

			if len(res.Comfort) == 0 {
				return nil
			}
			c := table.NewWriter()
			c.SetOutputMirror(w)
			c.SetStyle(table.StyleLight)
			c.AppendHeader(table.Row{"Column", "Nulls", "Mean"})
			for _, col := range res.Comfort {
				mean := "-"
				if col.Mean.Valid {
					mean = fmt.Sprintf("%.2f", col.Mean.Float64)
				}
				c.AppendRow(table.Row{col.Name, col.Nulls, mean})
			}
			c.Render()
			return nil
		},
	}
}
