// Package tabular writes the merged dataset as CSV.
package tabular

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/couchcryptid/epw-merge/internal/dataset"
)

// Encode writes a header row followed by one line per dataset row, in the
// dataset's column order. Null cells are empty.
func Encode(w io.Writer, ds *dataset.Dataset) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(ds.Schema.Names()); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	row := make([]string, len(ds.Schema.Columns))
	for r := range ds.Rows() {
		for c, col := range ds.Schema.Columns {
			row[c] = cell(col, &ds.Columns[c], r)
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row %d: %w", r, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func cell(col dataset.Column, v *dataset.Vector, r int) string {
	if v.Valid != nil && !v.Valid[r] {
		return ""
	}
	switch col.Kind {
	case dataset.Int32:
		return strconv.FormatInt(int64(v.Int32s[r]), 10)
	case dataset.Float64:
		return strconv.FormatFloat(v.Float64s[r], 'f', -1, 64)
	default:
		return v.Strings[r]
	}
}
