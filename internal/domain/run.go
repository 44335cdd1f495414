package domain

import "time"

// Run phases reported by Progress.
const (
	PhaseIdle    = "idle"
	PhaseLoading = "loading_models"
	PhaseParsing = "parsing"
	PhaseWriting = "writing"
	PhaseDone    = "done"
	PhaseFailed  = "failed"
)

// Progress is a point-in-time view of a merge run.
type Progress struct {
	Phase         string `json:"phase"`
	FilesTotal    int    `json:"files_total"`
	FilesParsed   int    `json:"files_parsed"`
	FilesSkipped  int    `json:"files_skipped"`
	RecordsParsed int    `json:"records_parsed"`
}

// DatasetPublished announces a committed merged dataset.
type DatasetPublished struct {
	ID             string    `json:"id"`
	Parquet        string    `json:"parquet_path"`
	CSV            string    `json:"csv_path,omitempty"`
	Rows           int       `json:"rows"`
	Sources        []string  `json:"sources"`
	Skipped        []string  `json:"skipped,omitempty"`
	ComfortColumns []string  `json:"comfort_columns"`
	Strict         bool      `json:"strict"`
	LimitUTCI      bool      `json:"limit_utci"`
	PublishedAt    time.Time `json:"published_at"`
}
