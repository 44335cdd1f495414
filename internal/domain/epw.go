package domain

import "time"

// Options is the immutable per-run configuration passed through every stage.
type Options struct {
	// Strict suppresses comfort-model loading and computation and removes the
	// comfort columns from the output schema.
	Strict bool
	// LimitUTCI clamps the wind-speed input of UTCI-family models to their
	// validity range instead of extrapolating.
	LimitUTCI bool
	// EmitTabularCopy also writes a CSV copy of the merged dataset.
	EmitTabularCopy bool
}

// Reading is one decoded numeric field. Valid is false for the missing marker.
type Reading struct {
	Value float64
	Valid bool
}

// HourlyRecord is one EPW data row.
type HourlyRecord struct {
	Year   int
	Month  int
	Day    int
	Hour   int // 1-24, hour ending
	Minute int

	Flags               string
	PresentWeatherCodes string

	Readings [NumFields]Reading

	// OutOfRange has bit f set when field f held a number outside its range
	// and was stored as missing.
	OutOfRange uint32
}

// Get returns the reading for f.
func (r *HourlyRecord) Get(f Field) Reading { return r.Readings[f] }

// Discarded reports whether field f was dropped for being out of range.
func (r *HourlyRecord) Discarded(f Field) bool { return r.OutOfRange&(1<<f) != 0 }

// Location is the decoded LOCATION header line.
type Location struct {
	City      string  `json:"city"`
	State     string  `json:"state,omitempty"`
	Country   string  `json:"country"`
	Source    string  `json:"source,omitempty"`
	WMO       string  `json:"wmo,omitempty"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	TimeZone  float64 `json:"time_zone"`
	Elevation float64 `json:"elevation"`
}

// DataPeriod is one period declared on the DATA PERIODS header line.
type DataPeriod struct {
	Name           string
	StartDayOfWeek string
	StartMonth     int
	StartDay       int
	EndMonth       int
	EndDay         int
}

// Days returns the number of calendar days the period covers.
func (p DataPeriod) Days(leap bool) int {
	year := 2001 // any non-leap year
	if leap {
		year = 2000
	}
	start := time.Date(year, time.Month(p.StartMonth), p.StartDay, 0, 0, 0, 0, time.UTC)
	end := time.Date(year, time.Month(p.EndMonth), p.EndDay, 0, 0, 0, 0, time.UTC)
	if end.Before(start) {
		end = end.AddDate(1, 0, 0)
	}
	return int(end.Sub(start).Hours()/24) + 1
}

// Header is the eight-line metadata block at the top of an EPW file.
type Header struct {
	Location              Location
	DesignConditions      []string
	TypicalExtremePeriods []string
	GroundTemperatures    []string
	LeapYearObserved      bool
	DaylightSavingStart   string
	DaylightSavingEnd     string
	Holidays              []string
	Comments1             string
	Comments2             string
	RecordsPerHour        int
	DataPeriods           []DataPeriod
}

// ExpectedRecords is the record count the DATA PERIODS line declares.
func (h Header) ExpectedRecords() int {
	n := 0
	for _, p := range h.DataPeriods {
		n += p.Days(h.LeapYearObserved) * 24 * h.RecordsPerHour
	}
	return n
}

// SourceFile is a discovered input. ID is the provenance value written to
// every row and the ordering key of the merged dataset.
type SourceFile struct {
	ID   string
	Path string
}

// EPWFile is a parsed EPW file. Records are in file order, which is
// chronological order.
type EPWFile struct {
	Source  SourceFile
	Header  Header
	Records []HourlyRecord
}
