package pipeline

import (
	"log/slog"

	"github.com/couchcryptid/epw-merge/internal/dataset"
	"github.com/couchcryptid/epw-merge/internal/domain"
)

// ComfortEnricher adds derived comfort columns to parsed files using a fixed
// model set.
type ComfortEnricher struct {
	models  []domain.ComfortModel
	columns []string
	logger  *slog.Logger
}

// NewComfortEnricher creates an enricher over models, whose names become the
// comfort columns in the same order.
func NewComfortEnricher(models []domain.ComfortModel, logger *slog.Logger) *ComfortEnricher {
	return &ComfortEnricher{
		models:  models,
		columns: domain.ComfortColumns(models),
		logger:  logger,
	}
}

// Columns returns the comfort column names.
func (e *ComfortEnricher) Columns() []string { return e.columns }

// Enrich computes the comfort values of f.
func (e *ComfortEnricher) Enrich(f *domain.EPWFile, opts domain.Options) (dataset.FileResult, domain.ComfortStats) {
	comfort, stats := domain.ComputeComfortColumns(f.Records, e.models, opts, e.logger.With("file", f.Source.ID))
	if opts.Strict {
		return dataset.FileResult{File: f}, nil
	}
	return dataset.FileResult{File: f, Comfort: comfort, ComfortColumns: e.columns}, stats
}
