package epwfile

import (
	"context"

	"github.com/couchcryptid/epw-merge/internal/domain"
)

// Summary describes one file for integrity reporting. Unlike Parse it does
// not treat a record count mismatch as an error.
type Summary struct {
	Source   domain.SourceFile
	Header   domain.Header
	Records  int
	Expected int
	Missing  [domain.NumFields]int

	// OutOfRange counts the Missing values that were numbers outside the
	// field's range rather than the missing marker.
	OutOfRange [domain.NumFields]int
}

// Discarded is the total of OutOfRange across fields.
func (s Summary) Discarded() int {
	n := 0
	for _, c := range s.OutOfRange {
		n += c
	}
	return n
}

// Complete reports whether the file holds exactly the declared records.
func (s Summary) Complete() bool { return s.Records == s.Expected }

// Summarize streams src once and counts records and missing values per field.
func Summarize(ctx context.Context, src domain.SourceFile) (Summary, error) {
	f, err := Open(src)
	if err != nil {
		return Summary{}, err
	}

	s := Summary{Source: src, Header: f.Header, Expected: f.Header.ExpectedRecords()}
	for rec, err := range f.Records() {
		if err != nil {
			return Summary{}, err
		}
		s.Records++
		for i, r := range rec.Readings {
			if !r.Valid {
				s.Missing[i]++
			}
			if rec.Discarded(domain.Field(i)) {
				s.OutOfRange[i]++
			}
		}
		if s.Records%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return Summary{}, err
			}
		}
	}
	return s, nil
}
