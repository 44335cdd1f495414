// Package parquet encodes a merged dataset as a Parquet file.
package parquet

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/compress"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"

	"github.com/couchcryptid/epw-merge/internal/dataset"
)

// Footer metadata keys.
const (
	SourcesKey = "epwmerge.sources"
	CreatedBy  = "epwmerge"
)

// ArrowSchema converts a dataset schema, attaching the per-source metadata
// as JSON under SourcesKey.
func ArrowSchema(ds *dataset.Dataset) (*arrow.Schema, error) {
	fields := make([]arrow.Field, len(ds.Schema.Columns))
	for i, c := range ds.Schema.Columns {
		f := arrow.Field{Name: c.Name, Nullable: c.Nullable}
		switch c.Kind {
		case dataset.Int32:
			f.Type = arrow.PrimitiveTypes.Int32
		case dataset.Float64:
			f.Type = arrow.PrimitiveTypes.Float64
		case dataset.String:
			f.Type = arrow.BinaryTypes.String
		default:
			return nil, fmt.Errorf("column %s: unsupported kind %d", c.Name, c.Kind)
		}
		if c.Unit != "" {
			f.Metadata = arrow.NewMetadata([]string{"unit"}, []string{c.Unit})
		}
		fields[i] = f
	}

	sources, err := json.Marshal(ds.Sources)
	if err != nil {
		return nil, fmt.Errorf("encode source metadata: %w", err)
	}
	md := arrow.NewMetadata([]string{SourcesKey}, []string{string(sources)})
	return arrow.NewSchema(fields, &md), nil
}

// Encode writes ds to w as Snappy-compressed Parquet with one row group per
// source file.
func Encode(w io.Writer, ds *dataset.Dataset) error {
	schema, err := ArrowSchema(ds)
	if err != nil {
		return err
	}

	rec, err := buildRecord(schema, ds)
	if err != nil {
		return err
	}
	defer rec.Release()

	maxGroup := int64(8784)
	for _, s := range ds.Sources {
		maxGroup = max(maxGroup, int64(s.Rows))
	}
	props := parquet.NewWriterProperties(
		parquet.WithCompression(compress.Codecs.Snappy),
		parquet.WithCreatedBy(CreatedBy),
		parquet.WithMaxRowGroupLength(maxGroup),
	)

	// The Parquet writer closes sinks that implement io.Closer; the caller
	// owns w, so hand it a buffered wrapper instead.
	bw := bufio.NewWriter(w)
	fw, err := pqarrow.NewFileWriter(schema, bw, props, pqarrow.NewArrowWriterProperties(pqarrow.WithStoreSchema()))
	if err != nil {
		return fmt.Errorf("create parquet writer: %w", err)
	}

	var offset int64
	for _, s := range ds.Sources {
		if s.Rows == 0 {
			continue
		}
		group := rec.NewSlice(offset, offset+int64(s.Rows))
		err := fw.Write(group)
		group.Release()
		if err != nil {
			fw.Close()
			return fmt.Errorf("write row group %s: %w", s.ID, err)
		}
		offset += int64(s.Rows)
	}

	if err := fw.Close(); err != nil {
		return fmt.Errorf("close parquet writer: %w", err)
	}
	return bw.Flush()
}

func buildRecord(schema *arrow.Schema, ds *dataset.Dataset) (arrow.Record, error) {
	b := array.NewRecordBuilder(memory.DefaultAllocator, schema)
	defer b.Release()

	for i, c := range ds.Schema.Columns {
		v := &ds.Columns[i]
		switch fb := b.Field(i).(type) {
		case *array.Int32Builder:
			fb.AppendValues(v.Int32s, v.Valid)
		case *array.Float64Builder:
			fb.AppendValues(v.Float64s, v.Valid)
		case *array.StringBuilder:
			fb.AppendValues(v.Strings, v.Valid)
		default:
			return nil, fmt.Errorf("column %s: unexpected builder %T", c.Name, fb)
		}
	}
	return b.NewRecord(), nil
}
