// Package output publishes the merged dataset to disk. All artifacts of a
// run become visible together or not at all.
package output

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/couchcryptid/epw-merge/internal/domain"
)

// Artifact is one file to publish. Encode writes the complete contents.
type Artifact struct {
	Path   string
	Encode func(io.Writer) error
}

type staged struct {
	tmp, final string
}

// Commit encodes every artifact into a hidden temp file next to its final
// path, syncs it, then renames all of them into place. On failure the temp
// files and any artifact already renamed by this call are removed.
func Commit(ctx context.Context, artifacts []Artifact) error {
	stagedFiles := make([]staged, 0, len(artifacts))
	cleanup := func() {
		for _, s := range stagedFiles {
			_ = os.Remove(s.tmp)
		}
	}

	for _, a := range artifacts {
		tmp, err := stage(a)
		if tmp != "" {
			stagedFiles = append(stagedFiles, staged{tmp: tmp, final: a.Path})
		}
		if err != nil {
			cleanup()
			return err
		}
	}

	if err := ctx.Err(); err != nil {
		cleanup()
		return err
	}

	for i, s := range stagedFiles {
		if err := os.Rename(s.tmp, s.final); err != nil {
			for _, done := range stagedFiles[:i] {
				_ = os.Remove(done.final)
			}
			for _, rest := range stagedFiles[i:] {
				_ = os.Remove(rest.tmp)
			}
			return &domain.IOError{Op: "rename", Path: s.final, Err: err}
		}
	}
	return nil
}

// stage writes a to a temp file and returns its path. The path is returned
// even on error so the caller can remove it.
func stage(a Artifact) (string, error) {
	dir := filepath.Dir(a.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", &domain.IOError{Op: "mkdir", Path: dir, Err: err}
	}

	tmp := filepath.Join(dir, fmt.Sprintf(".%s.%s.tmp", filepath.Base(a.Path), uuid.NewString()))
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return "", &domain.IOError{Op: "create", Path: tmp, Err: err}
	}

	if err := a.Encode(f); err != nil {
		f.Close()
		return tmp, &domain.IOError{Op: "encode", Path: a.Path, Err: err}
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return tmp, &domain.IOError{Op: "sync", Path: tmp, Err: err}
	}
	if err := f.Close(); err != nil {
		return tmp, &domain.IOError{Op: "close", Path: tmp, Err: err}
	}
	return tmp, nil
}

// IsTemp reports whether name is a staging file left by Commit.
func IsTemp(name string) bool {
	return len(name) > 1 && name[0] == '.' && filepath.Ext(name) == ".tmp"
}

var errNoOutput = errors.New("no output path")
