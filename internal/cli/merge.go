package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/couchcryptid/epw-merge/internal/adapter/epwfile"
	httpadapter "github.com/couchcryptid/epw-merge/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/epw-merge/internal/adapter/kafka"
	"github.com/couchcryptid/epw-merge/internal/adapter/output"
	"github.com/couchcryptid/epw-merge/internal/adapter/thermal"
	"github.com/couchcryptid/epw-merge/internal/observability"
	"github.com/couchcryptid/epw-merge/internal/pipeline"
)

func newMergeCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "merge [inputs...]",
		Short: "Merge EPW files into a Parquet dataset",
		Long: `Merge parses every EPW file found in the given files and directories and
writes one dataset ordered by source file name. Unless --strict is set, each
row also carries thermal comfort indices computed from its weather values.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runMerge(cmd, args)
		},
	}

	f := cmd.Flags()
	f.Bool("strict", false, "write only EPW columns, never load comfort models")
	f.Bool("limit-utci", false, "clamp UTCI wind speed input to the model's valid range")
	f.Bool("emit-tabular-copy", false, "also write a CSV copy next to the Parquet file")
	f.StringP("output", "o", "", "Parquet output path (default: <input dir>/merged/<dir name>.parquet)")
	f.Int("workers", 0, "parallel parse and compute workers (default: GOMAXPROCS)")
	f.String("on-file-error", "abort", "policy for unreadable files (abort|skip)")
	f.String("metrics-addr", "", "serve /metrics, /healthz, /readyz and /status on this address during the run")
	f.String("metrics-textfile", "", "write Prometheus metrics to this file after the run")
	f.String("kafka-brokers", "", "comma-separated brokers to announce the published dataset to")
	f.String("kafka-topic", "", "topic for dataset announcements")

	_ = cmd.RegisterFlagCompletionFunc("on-file-error", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"abort", "skip"}, cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

func (a *app) runMerge(cmd *cobra.Command, args []string) error {
	cfg, logger := a.cfg, a.logger

	inputs, err := a.inputsOrConfig(args)
	if err != nil {
		return err
	}
	sources, err := epwfile.Discover(inputs)
	if err != nil {
		return err
	}
	paths, err := output.DerivePaths(inputs, cfg.Output)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := observability.NewMetricsWith(reg)

	opts := []pipeline.Option{
		pipeline.WithWorkers(cfg.Workers),
		pipeline.WithSkipInvalid(cfg.SkipInvalidFiles()),
	}
	if brokers := cfg.Brokers(); len(brokers) > 0 {
		notifier := kafkaadapter.NewNotifier(brokers, cfg.KafkaTopic, logger)
		defer func() {
			if err := notifier.Close(); err != nil {
				logger.Error("kafka writer close error", "error", err)
			}
		}()
		opts = append(opts, pipeline.WithNotifier(notifier))
	}

	p := pipeline.New(epwfile.NewReader(logger), thermal.NewLoader(), output.NewWriter(logger), logger, metrics, opts...)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.MetricsAddr != "" {
		srv := httpadapter.NewServer(cfg.MetricsAddr, p, reg, logger)
		go func() {
			if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("http server error", "error", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Error("http server shutdown error", "error", err)
			}
		}()
	}

	report, runErr := p.Run(ctx, sources, paths, cfg.Options())

	if cfg.MetricsTextfile != "" {
		if err := observability.WriteTextfile(cfg.MetricsTextfile, reg); err != nil {
			logger.Error("metrics textfile write failed", "path", cfg.MetricsTextfile, "error", err)
		}
	}
	if runErr != nil {
		return runErr
	}

	renderReport(cmd.OutOrStdout(), report)
	return nil
}

func renderReport(w io.Writer, r pipeline.Report) {
	fmt.Fprintf(w, "Wrote %s (%d rows from %d files)\n", r.Published.Parquet, r.Published.Rows, len(r.Sources))
	if r.Published.CSV != "" {
		fmt.Fprintf(w, "Wrote %s\n", r.Published.CSV)
	}
	for _, id := range r.Skipped {
		fmt.Fprintf(w, "Skipped %s\n", id)
	}
	if len(r.ComfortColumns) == 0 {
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Model", "Computed", "Missing input", "Rejected", "Saturated"})
	for _, name := range r.ComfortColumns {
		s := r.Stats[name]
		t.AppendRow(table.Row{name, s.Computed, s.MissingInput, s.Rejected, s.Saturated})
	}
	t.Render()
}
