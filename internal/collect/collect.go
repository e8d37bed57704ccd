// Package collect gathers the static archives a build stage left behind
// into the install prefix's lib directory.
package collect

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"golang.org/x/sys/unix"
)

// archivePattern matches the static libraries a native build produces.
const archivePattern = "*.a"

// Collect moves every static archive from srcDir into destDir and returns
// the sorted archive file names. Zero matches is an error: a build that
// claimed success always leaves at least its primary archive behind, so an
// empty source directory means the build lied or the path is wrong.
func Collect(srcDir, destDir string) ([]string, error) {
	if err := unix.Access(destDir, unix.W_OK); err != nil {
		return nil, &CollectError{Src: srcDir, Dest: destDir, Err: fmt.Errorf("destination not writable: %w", err)}
	}

	matches, err := filepath.Glob(filepath.Join(srcDir, archivePattern))
	if err != nil {
		return nil, &CollectError{Src: srcDir, Dest: destDir, Err: err}
	}
	if len(matches) == 0 {
		return nil, &CollectError{Src: srcDir, Dest: destDir, Err: errors.New("no archives found")}
	}

	names := make([]string, 0, len(matches))
	for _, m := range matches {
		name := filepath.Base(m)
		if err := os.Rename(m, filepath.Join(destDir, name)); err != nil {
			return nil, &CollectError{Src: srcDir, Dest: destDir, Err: err}
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// CollectError reports archives that could not be moved into the install
// prefix.
type CollectError struct {
	Src  string
	Dest string
	Err  error
}

func (e *CollectError) Error() string {
	return fmt.Sprintf("collect archives from %s into %s: %v", e.Src, e.Dest, e.Err)
}

func (e *CollectError) Unwrap() error { return e.Err }
