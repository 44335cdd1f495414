// Package dataset assembles parsed EPW files into one columnar table.
package dataset

import (
	"slices"

	"github.com/couchcryptid/epw-merge/internal/domain"
)

// Kind is the physical type of a column.
type Kind int

const (
	Int32 Kind = iota
	Float64
	String
)

// Column describes one output column.
type Column struct {
	Name     string
	Kind     Kind
	Nullable bool
	Unit     string
}

// Schema is the ordered column list of a dataset.
type Schema struct {
	Columns []Column
}

// SourceColumn holds the provenance of each row.
const SourceColumn = "source_file"

// timeColumns are written for every record, in this order.
var timeColumns = []string{"year", "month", "day", "hour", "minute"}

// BaseFields are the weather fields kept in the merged dataset, in EPW order.
var BaseFields = []domain.Field{
	domain.DryBulbTemperature,
	domain.DewPointTemperature,
	domain.RelativeHumidity,
	domain.AtmosphericStationPressure,
	domain.GlobalHorizontalRadiation,
	domain.DirectNormalRadiation,
	domain.DiffuseHorizontalRadiation,
	domain.WindDirection,
	domain.WindSpeed,
	domain.TotalSkyCover,
	domain.OpaqueSkyCover,
	domain.SnowDepth,
	domain.LiquidPrecipitationDepth,
}

// NewSchema builds the schema for the given comfort columns. Pass nil in
// strict mode.
func NewSchema(comfortColumns []string) Schema {
	cols := make([]Column, 0, len(timeColumns)+len(BaseFields)+len(comfortColumns)+1)
	for _, name := range timeColumns {
		cols = append(cols, Column{Name: name, Kind: Int32})
	}
	for _, f := range BaseFields {
		spec := f.Spec()
		cols = append(cols, Column{Name: spec.Name, Kind: Float64, Nullable: true, Unit: spec.Unit})
	}
	for _, name := range comfortColumns {
		cols = append(cols, Column{Name: name, Kind: Float64, Nullable: true, Unit: "C"})
	}
	cols = append(cols, Column{Name: SourceColumn, Kind: String})
	return Schema{Columns: cols}
}

// Names returns the column names in order.
func (s Schema) Names() []string {
	names := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		names[i] = c.Name
	}
	return names
}

// Index returns the position of the named column, or -1.
func (s Schema) Index(name string) int {
	return slices.IndexFunc(s.Columns, func(c Column) bool { return c.Name == name })
}

// Equal reports whether both schemas have the same columns in the same order.
func (s Schema) Equal(o Schema) bool {
	return slices.Equal(s.Columns, o.Columns)
}

// ComfortColumns returns the derived comfort column names of s.
func (s Schema) ComfortColumns() []string {
	first := len(timeColumns) + len(BaseFields)
	last := len(s.Columns) - 1
	if last <= first {
		return nil
	}
	return s.Names()[first:last]
}
