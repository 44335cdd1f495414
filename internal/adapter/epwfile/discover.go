package epwfile

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/couchcryptid/epw-merge/internal/domain"
)

// ErrNoInputs is returned when discovery finds nothing to merge.
var ErrNoInputs = errors.New("selected path contains no EPW files")

// Discover expands inputs into EPW sources. A directory contributes every
// regular file directly inside it whose name ends in .epw, compared
// case-insensitively; a file is taken as given. Sources are identified by base
// name and returned sorted by identifier.
func Discover(inputs []string) ([]domain.SourceFile, error) {
	seen := make(map[string]string)
	var sources []domain.SourceFile

	add := func(path string) error {
		id := filepath.Base(path)
		if prev, ok := seen[id]; ok {
			return fmt.Errorf("duplicate source %q: %s and %s", id, prev, path)
		}
		seen[id] = path
		sources = append(sources, domain.SourceFile{ID: id, Path: path})
		return nil
	}

	for _, in := range inputs {
		info, err := os.Stat(in)
		if err != nil {
			return nil, &domain.IOError{Op: "stat", Path: in, Err: err}
		}
		if !info.IsDir() {
			if err := add(filepath.Clean(in)); err != nil {
				return nil, err
			}
			continue
		}

		entries, err := os.ReadDir(in)
		if err != nil {
			return nil, &domain.IOError{Op: "list", Path: in, Err: err}
		}
		for _, e := range entries {
			if e.IsDir() || !IsEPW(e.Name()) {
				continue
			}
			if err := add(filepath.Join(in, e.Name())); err != nil {
				return nil, err
			}
		}
	}

	if len(sources) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoInputs, strings.Join(inputs, ", "))
	}
	sort.Slice(sources, func(i, j int) bool { return sources[i].ID < sources[j].ID })
	return sources, nil
}

// IsEPW reports whether name has the .epw extension in any letter case.
func IsEPW(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".epw")
}
