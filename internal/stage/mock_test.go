package stage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/tealdb/depforge/internal/prefix"
	"github.com/tealdb/depforge/internal/runner"
)

// scriptRunner records invocations and lets a test fail chosen calls or
// simulate their filesystem effects.
type scriptRunner struct {
	invs  []runner.Invocation
	onRun func(inv runner.Invocation) error
}

func (r *scriptRunner) Run(_ context.Context, inv runner.Invocation) error {
	r.invs = append(r.invs, inv)
	if r.onRun != nil {
		return r.onRun(inv)
	}
	return nil
}

// testPrefix returns an install prefix rooted in a fresh temp dir.
func testPrefix(t *testing.T) prefix.Prefix {
	t.Helper()
	p, err := prefix.Resolve(filepath.Join(t.TempDir(), "out"))
	if err != nil {
		t.Fatalf("resolve test prefix: %v", err)
	}
	return p
}

// writeFile creates path with parent directories and dummy content.
func writeFile(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
}

// installJemalloc simulates the effect of jemalloc's make install under
// the prefix: headers plus the static archive.
func installJemalloc(t *testing.T, pfx prefix.Prefix) {
	t.Helper()
	writeFile(t, filepath.Join(pfx.IncludeDir(), "jemalloc", "jemalloc.h"))
	writeFile(t, filepath.Join(pfx.LibDir(), "libjemalloc.a"))
}

// isMakeInstall reports whether inv is a bare make install.
func isMakeInstall(inv runner.Invocation) bool {
	return inv.Bin == "make" && len(inv.Args) > 0 && inv.Args[0] == "install"
}
