package tabular_test

import (
	"bytes"
	"encoding/csv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/epw-merge/internal/adapter/tabular"
	"github.com/couchcryptid/epw-merge/internal/dataset"
	"github.com/couchcryptid/epw-merge/internal/domain"
)

func TestEncode(t *testing.T) {
	f := &domain.EPWFile{Source: domain.SourceFile{ID: "a.epw"}}
	for i, ta := range []float64{-2.2, 99.9} {
		rec := domain.HourlyRecord{Year: 1999, Month: 1, Day: 1, Hour: i + 1, Minute: 60}
		rec.Readings[domain.DryBulbTemperature] = domain.Reading{Value: ta, Valid: ta < 99}
		f.Records = append(f.Records, rec)
	}
	comfort := []domain.ComfortResult{{"utci": 1.25}, {}}
	ds, err := dataset.Merge([]dataset.FileResult{{File: f, Comfort: comfort, ComfortColumns: []string{"utci"}}}, []string{"utci"}, domain.Options{})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, tabular.Encode(&buf, ds))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)

	header := rows[0]
	assert.Equal(t, ds.Schema.Names(), header)

	col := func(name string) int { return ds.Schema.Index(name) }
	assert.Equal(t, "1999", rows[1][col("year")])
	assert.Equal(t, "-2.2", rows[1][col("dry_bulb_temperature")])
	assert.Equal(t, "", rows[2][col("dry_bulb_temperature")])
	assert.Equal(t, "1.25", rows[1][col("utci")])
	assert.Equal(t, "", rows[2][col("utci")])
	assert.Equal(t, "", rows[1][col("wind_speed")])
	assert.Equal(t, "a.epw", rows[2][col("source_file")])
}
