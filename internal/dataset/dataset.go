package dataset

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/couchcryptid/epw-merge/internal/domain"
)

// Vector holds the values of one column. Exactly one of the value slices is
// used, chosen by the column Kind. Valid is nil for non-nullable columns.
type Vector struct {
	Int32s   []int32
	Float64s []float64
	Strings  []string
	Valid    []bool
}

// Len returns the number of values in v.
func (v *Vector) Len() int {
	switch {
	case v.Int32s != nil:
		return len(v.Int32s)
	case v.Float64s != nil:
		return len(v.Float64s)
	default:
		return len(v.Strings)
	}
}

// NullCount returns the number of invalid entries.
func (v *Vector) NullCount() int {
	n := 0
	for _, ok := range v.Valid {
		if !ok {
			n++
		}
	}
	return n
}

// SourceInfo is the file-level metadata carried alongside the rows.
type SourceInfo struct {
	ID       string          `json:"id"`
	Rows     int             `json:"rows"`
	LeapYear bool            `json:"leap_year"`
	Location domain.Location `json:"location"`
	Comments string          `json:"comments,omitempty"`
}

// Dataset is the merged table. Rows from one source are contiguous, in file
// order, and sources appear in identifier order.
type Dataset struct {
	Schema  Schema
	Columns []Vector
	Sources []SourceInfo
}

// Rows returns the row count.
func (d *Dataset) Rows() int {
	if len(d.Columns) == 0 {
		return 0
	}
	return d.Columns[0].Len()
}

// Column returns the named column, or nil.
func (d *Dataset) Column(name string) *Vector {
	i := d.Schema.Index(name)
	if i < 0 {
		return nil
	}
	return &d.Columns[i]
}

// Validate checks that every column matches the schema and has one value per
// row.
func (d *Dataset) Validate() error {
	if len(d.Columns) != len(d.Schema.Columns) {
		return &domain.SchemaError{Source: "dataset", Reason: fmt.Sprintf("%d columns for %d schema entries", len(d.Columns), len(d.Schema.Columns))}
	}
	rows := d.Rows()
	for i, col := range d.Schema.Columns {
		v := &d.Columns[i]
		var n int
		switch col.Kind {
		case Int32:
			n = len(v.Int32s)
		case Float64:
			n = len(v.Float64s)
		case String:
			n = len(v.Strings)
		}
		if n != rows {
			return &domain.SchemaError{Source: "dataset", Reason: fmt.Sprintf("column %s has %d values, want %d", col.Name, n, rows)}
		}
		if col.Nullable && len(v.Valid) != rows {
			return &domain.SchemaError{Source: "dataset", Reason: fmt.Sprintf("column %s has %d validity entries, want %d", col.Name, len(v.Valid), rows)}
		}
	}
	total := 0
	for _, s := range d.Sources {
		total += s.Rows
	}
	if total != rows {
		return &domain.SchemaError{Source: "dataset", Reason: fmt.Sprintf("sources account for %d rows, dataset has %d", total, rows)}
	}
	return nil
}

// FileResult is one parsed file plus its comfort values. Comfort is nil in
// strict mode and otherwise index-aligned with File.Records.
type FileResult struct {
	File           *domain.EPWFile
	Comfort        []domain.ComfortResult
	ComfortColumns []string
}

// Merge concatenates results into a dataset ordered by source identifier.
// Every result must carry the same comfort column set; a disagreement is a
// *domain.SchemaError.
func Merge(results []FileResult, comfortColumns []string, opts domain.Options) (*Dataset, error) {
	if opts.Strict {
		comfortColumns = nil
	}
	sorted := slices.Clone(results)
	slices.SortStableFunc(sorted, func(a, b FileResult) int {
		return cmp.Compare(a.File.Source.ID, b.File.Source.ID)
	})

	for _, r := range sorted {
		if err := checkBatch(r, comfortColumns, opts); err != nil {
			return nil, err
		}
	}

	schema := NewSchema(comfortColumns)
	rows := 0
	for _, r := range sorted {
		rows += len(r.File.Records)
	}
	ds := &Dataset{
		Schema:  schema,
		Columns: allocate(schema, rows),
		Sources: make([]SourceInfo, 0, len(sorted)),
	}

	nTime := len(timeColumns)
	nBase := nTime + len(BaseFields)
	src := schema.Index(SourceColumn)
	for _, r := range sorted {
		for i := range r.File.Records {
			rec := &r.File.Records[i]
			for c, v := range [...]int{rec.Year, rec.Month, rec.Day, rec.Hour, rec.Minute} {
				ds.Columns[c].Int32s = append(ds.Columns[c].Int32s, int32(v))
			}
			for j, f := range BaseFields {
				appendFloat(&ds.Columns[nTime+j], rec.Get(f))
			}
			for j, name := range comfortColumns {
				v, ok := r.Comfort[i][name]
				appendFloat(&ds.Columns[nBase+j], domain.Reading{Value: v, Valid: ok})
			}
			ds.Columns[src].Strings = append(ds.Columns[src].Strings, r.File.Source.ID)
		}
		ds.Sources = append(ds.Sources, SourceInfo{
			ID:       r.File.Source.ID,
			Rows:     len(r.File.Records),
			LeapYear: r.File.Header.LeapYearObserved,
			Location: r.File.Header.Location,
			Comments: r.File.Header.Comments1,
		})
	}
	return ds, nil
}

func checkBatch(r FileResult, comfortColumns []string, opts domain.Options) error {
	id := r.File.Source.ID
	if opts.Strict {
		if r.Comfort != nil || len(r.ComfortColumns) > 0 {
			return &domain.SchemaError{Source: id, Reason: "comfort values present in strict mode"}
		}
		return nil
	}
	if !slices.Equal(r.ComfortColumns, comfortColumns) {
		return &domain.SchemaError{Source: id, Want: comfortColumns, Got: r.ComfortColumns}
	}
	if len(r.Comfort) != len(r.File.Records) {
		return &domain.SchemaError{Source: id, Reason: fmt.Sprintf("%d comfort results for %d records", len(r.Comfort), len(r.File.Records))}
	}
	return nil
}

func allocate(s Schema, rows int) []Vector {
	cols := make([]Vector, len(s.Columns))
	for i, c := range s.Columns {
		switch c.Kind {
		case Int32:
			cols[i].Int32s = make([]int32, 0, rows)
		case Float64:
			cols[i].Float64s = make([]float64, 0, rows)
		case String:
			cols[i].Strings = make([]string, 0, rows)
		}
		if c.Nullable {
			cols[i].Valid = make([]bool, 0, rows)
		}
	}
	return cols
}

func appendFloat(v *Vector, r domain.Reading) {
	if !r.Valid {
		r.Value = 0
	}
	v.Float64s = append(v.Float64s, r.Value)
	v.Valid = append(v.Valid, r.Valid)
}
