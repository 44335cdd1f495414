// Package epwfile reads EPW weather files from disk.
package epwfile

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"os"
	"strings"

	"github.com/couchcryptid/epw-merge/internal/domain"
)

const maxLineBytes = 1 << 20

// File is an EPW file whose header has been decoded. Records are read from
// disk on demand.
type File struct {
	Source domain.SourceFile
	Header domain.Header
}

// Open decodes the header of src.
func Open(src domain.SourceFile) (*File, error) {
	fh, err := os.Open(src.Path)
	if err != nil {
		return nil, &domain.IOError{Op: "open", Path: src.Path, Err: err}
	}
	defer fh.Close()

	sc := newScanner(fh)
	lines := make([]string, 0, domain.HeaderLines)
	for len(lines) < domain.HeaderLines && sc.Scan() {
		line := sc.Text()
		if len(lines) == 0 {
			line = strings.TrimPrefix(line, "\ufeff")
		}
		lines = append(lines, line)
	}
	if err := sc.Err(); err != nil {
		return nil, &domain.IOError{Op: "read", Path: src.Path, Err: err}
	}

	h, err := domain.ParseHeader(lines)
	if err != nil {
		return nil, withPath(err, src.Path)
	}
	return &File{Source: src, Header: h}, nil
}

// Records yields the data rows in file order. Every iteration re-opens the
// file, so the sequence can be ranged over more than once. Rows must advance
// hour by hour; a duplicated or out-of-order timestamp is a FormatError.
// Iteration stops after the first error.
func (f *File) Records() iter.Seq2[domain.HourlyRecord, error] {
	return func(yield func(domain.HourlyRecord, error) bool) {
		fh, err := os.Open(f.Source.Path)
		if err != nil {
			yield(domain.HourlyRecord{}, &domain.IOError{Op: "open", Path: f.Source.Path, Err: err})
			return
		}
		defer fh.Close()

		sc := newScanner(fh)
		timeline := domain.NewTimeline(f.Header)
		lineNo := 0
		for sc.Scan() {
			lineNo++
			if lineNo <= domain.HeaderLines {
				continue
			}
			text := sc.Text()
			if strings.TrimSpace(text) == "" {
				continue
			}
			rec, err := domain.ParseRecord(text, lineNo)
			if err == nil {
				err = timeline.Next(rec, lineNo)
			}
			if err != nil {
				yield(domain.HourlyRecord{}, withPath(err, f.Source.Path))
				return
			}
			if !yield(rec, nil) {
				return
			}
		}
		if err := sc.Err(); err != nil {
			yield(domain.HourlyRecord{}, &domain.IOError{Op: "read", Path: f.Source.Path, Err: err})
		}
	}
}

// Reader parses whole EPW files.
type Reader struct {
	logger *slog.Logger
}

// NewReader creates a Reader.
func NewReader(logger *slog.Logger) *Reader {
	return &Reader{logger: logger}
}

// Parse reads src completely and checks the record count against the
// period the header declares.
func (r *Reader) Parse(ctx context.Context, src domain.SourceFile) (*domain.EPWFile, error) {
	f, err := Open(src)
	if err != nil {
		return nil, err
	}

	want := f.Header.ExpectedRecords()
	records := make([]domain.HourlyRecord, 0, want)
	for rec, err := range f.Records() {
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
		if len(records)%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
	}
	if len(records) != want {
		return nil, &domain.FormatError{
			Path:   src.Path,
			Reason: fmt.Sprintf("header declares %d records, file has %d", want, len(records)),
		}
	}

	if discarded := countDiscarded(records); len(discarded) > 0 {
		r.logger.Warn("out-of-range readings stored as missing",
			"file", src.ID,
			"fields", discarded,
		)
	}
	r.logger.Debug("parsed epw file",
		"file", src.ID,
		"rows", len(records),
		"city", f.Header.Location.City,
	)
	return &domain.EPWFile{Source: src, Header: f.Header, Records: records}, nil
}

// countDiscarded returns the number of out-of-range readings per column name.
func countDiscarded(records []domain.HourlyRecord) map[string]int {
	var counts map[string]int
	for i := range records {
		if records[i].OutOfRange == 0 {
			continue
		}
		for _, f := range domain.Fields() {
			if records[i].Discarded(f) {
				if counts == nil {
					counts = make(map[string]int)
				}
				counts[f.String()]++
			}
		}
	}
	return counts
}

func newScanner(r io.Reader) *bufio.Scanner {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	return sc
}

func withPath(err error, path string) error {
	var fe *domain.FormatError
	if errors.As(err, &fe) {
		fe.Path = path
	}
	return err
}
