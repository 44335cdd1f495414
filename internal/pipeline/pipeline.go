package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/errgroup"

	"github.com/couchcryptid/epw-merge/internal/adapter/output"
	"github.com/couchcryptid/epw-merge/internal/dataset"
	"github.com/couchcryptid/epw-merge/internal/domain"
	"github.com/couchcryptid/epw-merge/internal/observability"
)

// ErrNothingParsed is returned when every input was skipped.
var ErrNothingParsed = errors.New("no EPW file could be parsed")

// Parser reads one EPW file completely.
type Parser interface {
	Parse(ctx context.Context, src domain.SourceFile) (*domain.EPWFile, error)
}

// ModelLoader acquires the comfort model library. It is only called when
// comfort columns are requested.
type ModelLoader func() ([]domain.ComfortModel, error)

// DatasetWriter publishes the merged dataset.
type DatasetWriter interface {
	Write(ctx context.Context, ds *dataset.Dataset, paths output.Paths, opts domain.Options) (output.Published, error)
}

// Notifier announces a published dataset. Failures are logged, never fatal.
type Notifier interface {
	NotifyPublished(ctx context.Context, event domain.DatasetPublished) error
}

// Report summarizes a successful run.
type Report struct {
	Published      output.Published
	Sources        []string
	Skipped        []string
	ComfortColumns []string
	Stats          domain.ComfortStats
	Duration       time.Duration
}

// Pipeline orchestrates parse, comfort enrichment, merge and publish.
type Pipeline struct {
	parser     Parser
	loadModels ModelLoader
	writer     DatasetWriter
	notifier   Notifier
	logger     *slog.Logger
	metrics    *observability.Metrics
	clock      clockwork.Clock

	readers     int
	computers   int
	skipInvalid bool

	ready    atomic.Bool
	lastErr  atomic.Pointer[string]
	phase    atomic.Pointer[string]
	total    atomic.Int64
	parsed   atomic.Int64
	skipped  atomic.Int64
	recordsN atomic.Int64
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithWorkers sets the number of reader and compute workers.
func WithWorkers(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.readers, p.computers = n, n
		}
	}
}

// WithSkipInvalid makes unreadable or malformed files a warning instead of a
// fatal error.
func WithSkipInvalid(skip bool) Option {
	return func(p *Pipeline) { p.skipInvalid = skip }
}

// WithNotifier announces every published dataset through n.
func WithNotifier(n Notifier) Option {
	return func(p *Pipeline) { p.notifier = n }
}

// WithClock replaces the time source used for durations and timestamps.
func WithClock(c clockwork.Clock) Option {
	return func(p *Pipeline) { p.clock = c }
}

// New creates a Pipeline with the given stages and observability.
func New(parser Parser, loadModels ModelLoader, writer DatasetWriter, logger *slog.Logger, metrics *observability.Metrics, opts ...Option) *Pipeline {
	p := &Pipeline{
		parser:     parser,
		loadModels: loadModels,
		writer:     writer,
		logger:     logger,
		metrics:    metrics,
		clock:      clockwork.NewRealClock(),
		readers:    runtime.GOMAXPROCS(0),
		computers:  runtime.GOMAXPROCS(0),
	}
	for _, o := range opts {
		o(p)
	}
	p.setPhase(domain.PhaseIdle)
	return p
}

// CheckReadiness returns nil while a run is in progress or after a successful
// run, or an error describing why the pipeline is not ready.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if msg := p.lastErr.Load(); msg != nil {
		return fmt.Errorf("last merge run failed: %s", *msg)
	}
	if !p.ready.Load() {
		return errors.New("no merge run has started")
	}
	return nil
}

// Progress returns a snapshot of the current or last run.
func (p *Pipeline) Progress() domain.Progress {
	return domain.Progress{
		Phase:         *p.phase.Load(),
		FilesTotal:    int(p.total.Load()),
		FilesParsed:   int(p.parsed.Load()),
		FilesSkipped:  int(p.skipped.Load()),
		RecordsParsed: int(p.recordsN.Load()),
	}
}

func (p *Pipeline) setPhase(s string) { p.phase.Store(&s) }

// Run merges sources into one dataset at paths. Output is all-or-nothing:
// on error nothing is published.
func (p *Pipeline) Run(ctx context.Context, sources []domain.SourceFile, paths output.Paths, opts domain.Options) (Report, error) {
	start := p.clock.Now()
	p.logger.Info("merge started",
		"files", len(sources),
		"strict", opts.Strict,
		"limit_utci", opts.LimitUTCI,
		"workers", p.readers,
	)
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	p.total.Store(int64(len(sources)))
	p.parsed.Store(0)
	p.skipped.Store(0)
	p.recordsN.Store(0)
	p.lastErr.Store(nil)
	p.ready.Store(true)

	report, err := p.run(ctx, sources, paths, opts)
	if err != nil {
		msg := err.Error()
		p.lastErr.Store(&msg)
		p.setPhase(domain.PhaseFailed)
		return Report{}, err
	}
	report.Duration = p.clock.Since(start)
	p.metrics.RunDuration.Observe(report.Duration.Seconds())
	p.setPhase(domain.PhaseDone)

	p.logger.Info("merge complete",
		"path", report.Published.Parquet,
		"rows", report.Published.Rows,
		"sources", len(report.Sources),
		"skipped", len(report.Skipped),
		"duration", report.Duration,
	)
	return report, nil
}

func (p *Pipeline) run(ctx context.Context, sources []domain.SourceFile, paths output.Paths, opts domain.Options) (Report, error) {
	var enricher *ComfortEnricher
	if opts.Strict {
		p.metrics.ComfortEnabled.Set(0)
	} else {
		p.setPhase(domain.PhaseLoading)
		models, err := p.loadModels()
		if err != nil {
			return Report{}, fmt.Errorf("load comfort models: %w", err)
		}
		enricher = NewComfortEnricher(models, p.logger)
		p.metrics.ComfortEnabled.Set(1)
	}

	p.setPhase(domain.PhaseParsing)
	results, stats, skipped, err := p.process(ctx, sources, enricher, opts)
	if err != nil {
		return Report{}, err
	}

	kept := make([]dataset.FileResult, 0, len(results))
	ids := make([]string, 0, len(results))
	for _, r := range results {
		if r != nil {
			kept = append(kept, *r)
			ids = append(ids, r.File.Source.ID)
		}
	}
	if len(kept) == 0 {
		return Report{}, ErrNothingParsed
	}

	var columns []string
	if enricher != nil {
		columns = enricher.Columns()
	}
	ds, err := dataset.Merge(kept, columns, opts)
	if err != nil {
		return Report{}, err
	}

	p.setPhase(domain.PhaseWriting)
	writeStart := p.clock.Now()
	pub, err := p.writer.Write(ctx, ds, paths, opts)
	if err != nil {
		return Report{}, err
	}
	p.metrics.WriteDuration.Observe(p.clock.Since(writeStart).Seconds())
	p.metrics.RowsWritten.Add(float64(pub.Rows))

	report := Report{
		Published:      pub,
		Sources:        ids,
		Skipped:        skipped,
		ComfortColumns: ds.Schema.ComfortColumns(),
		Stats:          stats,
	}
	p.notify(ctx, report, opts)
	return report, nil
}

type parsedFile struct {
	idx  int
	file *domain.EPWFile
}

// process parses and enriches every source with a bounded worker pool.
// Results are stored by source index so completion order never matters.
func (p *Pipeline) process(ctx context.Context, sources []domain.SourceFile, enricher *ComfortEnricher, opts domain.Options) ([]*dataset.FileResult, domain.ComfortStats, []string, error) {
	results := make([]*dataset.FileResult, len(sources))
	fileStats := make([]domain.ComfortStats, len(sources))
	skippedIdx := make([]bool, len(sources))

	g, gctx := errgroup.WithContext(ctx)
	jobs := make(chan int)
	parsed := make(chan parsedFile)

	g.Go(func() error {
		defer close(jobs)
		for i := range sources {
			select {
			case jobs <- i:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})

	var readers sync.WaitGroup
	readers.Add(p.readers)
	for range p.readers {
		g.Go(func() error {
			defer readers.Done()
			for i := range jobs {
				if err := gctx.Err(); err != nil {
					return err
				}
				f, err := p.parseOne(gctx, i, sources)
				if err != nil {
					if p.skippable(gctx, err) {
						p.logger.Warn("skipping unreadable epw file",
							"file", sources[i].ID,
							"path", sources[i].Path,
							"error", err,
						)
						p.metrics.FilesSkipped.Inc()
						p.skipped.Add(1)
						skippedIdx[i] = true
						continue
					}
					return err
				}
				select {
				case parsed <- parsedFile{idx: i, file: f}:
				case <-gctx.Done():
					return gctx.Err()
				}
			}
			return nil
		})
	}
	g.Go(func() error {
		readers.Wait()
		close(parsed)
		return nil
	})

	for range p.computers {
		g.Go(func() error {
			for pf := range parsed {
				if gctx.Err() != nil {
					continue
				}
				r := dataset.FileResult{File: pf.file}
				if enricher != nil {
					t := p.clock.Now()
					var st domain.ComfortStats
					r, st = enricher.Enrich(pf.file, opts)
					p.metrics.ComfortDuration.Observe(p.clock.Since(t).Seconds())
					p.metrics.ObserveComfort(st)
					fileStats[pf.idx] = st
				}
				results[pf.idx] = &r
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, nil, nil, err
	}

	total := domain.ComfortStats{}
	for _, st := range fileStats {
		for model, s := range st {
			agg := total[model]
			agg.Computed += s.Computed
			agg.MissingInput += s.MissingInput
			agg.Rejected += s.Rejected
			agg.Saturated += s.Saturated
			total[model] = agg
		}
	}
	var skipped []string
	for i, s := range skippedIdx {
		if s {
			skipped = append(skipped, sources[i].ID)
		}
	}
	return results, total, skipped, nil
}

func (p *Pipeline) parseOne(ctx context.Context, i int, sources []domain.SourceFile) (*domain.EPWFile, error) {
	src := sources[i]
	p.logger.Info("processing file",
		"file", src.ID,
		"index", i+1,
		"total", len(sources),
	)
	start := p.clock.Now()
	f, err := p.parser.Parse(ctx, src)
	if err != nil {
		return nil, err
	}
	p.metrics.ParseDuration.Observe(p.clock.Since(start).Seconds())
	p.metrics.FilesParsed.Inc()
	p.metrics.RecordsParsed.Add(float64(len(f.Records)))
	p.parsed.Add(1)
	p.recordsN.Add(int64(len(f.Records)))
	return f, nil
}

// skippable reports whether err is a per-file problem the skip policy covers.
func (p *Pipeline) skippable(ctx context.Context, err error) bool {
	if !p.skipInvalid || ctx.Err() != nil {
		return false
	}
	return errors.Is(err, domain.ErrIO) || errors.Is(err, domain.ErrFormat)
}

func (p *Pipeline) notify(ctx context.Context, r Report, opts domain.Options) {
	if p.notifier == nil {
		return
	}
	event := domain.DatasetPublished{
		Parquet:        r.Published.Parquet,
		CSV:            r.Published.CSV,
		Rows:           r.Published.Rows,
		Sources:        r.Sources,
		Skipped:        r.Skipped,
		ComfortColumns: r.ComfortColumns,
		Strict:         opts.Strict,
		LimitUTCI:      opts.LimitUTCI,
		PublishedAt:    p.clock.Now().UTC(),
	}
	if err := p.notifier.NotifyPublished(ctx, event); err != nil {
		p.logger.Warn("dataset notification failed",
			"path", r.Published.Parquet,
			"error", err,
		)
	}
}
