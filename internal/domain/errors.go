package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinels for errors.Is checks across the error taxonomy.
var (
	ErrIO               = errors.New("epw i/o error")
	ErrFormat           = errors.New("malformed epw data")
	ErrModelComputation = errors.New("comfort model rejected input")
	ErrSchema           = errors.New("merged dataset schema mismatch")
)

// IOError reports an unreadable input or unwritable output.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() []error { return []error{ErrIO, e.Err} }

// FormatError reports structurally invalid EPW content. Line is 1-based and
// zero when the problem is not tied to a single line (record count mismatch).
type FormatError struct {
	Path   string
	Line   int
	Field  string
	Reason string
}

func (e *FormatError) Error() string {
	var b strings.Builder
	b.WriteString("epw format")
	if e.Path != "" {
		b.WriteString(" ")
		b.WriteString(e.Path)
	}
	if e.Line > 0 {
		fmt.Fprintf(&b, " line %d", e.Line)
	}
	if e.Field != "" {
		fmt.Fprintf(&b, " field %s", e.Field)
	}
	b.WriteString(": ")
	b.WriteString(e.Reason)
	return b.String()
}

func (e *FormatError) Unwrap() error { return ErrFormat }

// ModelError is a per-record rejection from a comfort model. It never leaves
// the comfort adapter; the affected cell becomes null.
type ModelError struct {
	Model  string
	Reason string
}

func (e *ModelError) Error() string {
	return fmt.Sprintf("%s: %s", e.Model, e.Reason)
}

func (e *ModelError) Unwrap() error { return ErrModelComputation }

// SchemaError reports a batch whose column set disagrees with the dataset.
// It indicates a programming defect and is always fatal.
type SchemaError struct {
	Source string
	Want   []string
	Got    []string
	Reason string
}

func (e *SchemaError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("schema mismatch in %s: %s", e.Source, e.Reason)
	}
	return fmt.Sprintf("schema mismatch in %s: want columns %v, got %v", e.Source, e.Want, e.Got)
}

func (e *SchemaError) Unwrap() error { return ErrSchema }
