// Package prefix resolves the shared install root every build stage writes
// into. The root follows the conventional autoconf layout: headers under
// include/, static archives under lib/.
package prefix

import (
	"fmt"
	"os"
	"path/filepath"
)

// Prefix is a resolved install root. Root is always absolute.
type Prefix struct {
	Root string
}

// IncludeDir returns the header directory under the root.
func (p Prefix) IncludeDir() string {
	return filepath.Join(p.Root, "include")
}

// LibDir returns the static archive directory under the root.
func (p Prefix) LibDir() string {
	return filepath.Join(p.Root, "lib")
}

// Resolve turns dir into an absolute install root, creating it when it does
// not exist yet. An existing root is reused as-is; resolution never deletes
// or recreates anything beneath it.
func Resolve(dir string) (Prefix, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return Prefix{}, &ResolveError{Dir: dir, Err: err}
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return Prefix{}, &ResolveError{Dir: dir, Err: err}
	}
	return Prefix{Root: abs}, nil
}

// ResolveError reports an install root that could not be prepared.
type ResolveError struct {
	Dir string
	Err error
}

func (e *ResolveError) Error() string {
	return fmt.Sprintf("resolve install prefix %s: %v", e.Dir, e.Err)
}

func (e *ResolveError) Unwrap() error { return e.Err }
