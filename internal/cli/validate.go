package cli

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/couchcryptid/epw-merge/internal/adapter/epwfile"
	"github.com/couchcryptid/epw-merge/internal/domain"
)

func newValidateCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "validate [inputs...]",
		Short: "Check EPW files without writing a dataset",
		Long: `Validate parses every EPW file and reports its location, record count
against the declared data period, leap year flag, missing dry-bulb values and
readings dropped for falling outside their documented range.
It exits non-zero when any file is unreadable or incomplete.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			inputs, err := a.inputsOrConfig(args)
			if err != nil {
				return err
			}
			sources, err := epwfile.Discover(inputs)
			if err != nil {
				return err
			}

			t := table.NewWriter()
			t.SetOutputMirror(cmd.OutOrStdout())
			t.SetStyle(table.StyleLight)
			t.AppendHeader(table.Row{"File", "Location", "Records", "Expected", "Leap", "Missing dry-bulb", "Out of range", "Status"})

			invalid := 0
			for _, src := range sources {
				s, err := epwfile.Summarize(cmd.Context(), src)
				if err != nil {
					invalid++
					a.logger.Warn("invalid epw file", "file", src.ID, "error", err)
					t.AppendRow(table.Row{src.ID, "", "", "", "", "", "", "error: " + err.Error()})
					continue
				}
				status := "ok"
				if !s.Complete() {
					invalid++
					status = "incomplete"
				}
				t.AppendRow(table.Row{
					src.ID,
					location(s.Header.Location),
					s.Records,
					s.Expected,
					s.Header.LeapYearObserved,
					s.Missing[domain.DryBulbTemperature],
					s.Discarded(),
					status,
				})
			}
			t.Render()

			if invalid > 0 {
				return fmt.Errorf("%d of %d files invalid", invalid, len(sources))
			}
			return nil
		},
	}
}

func location(l domain.Location) string {
	if l.Country == "" {
		return l.City
	}
	return l.City + ", " + l.Country
}
