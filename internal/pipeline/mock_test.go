package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/tealdb/depforge/internal/buildcfg"
	"github.com/tealdb/depforge/internal/runner"
	"github.com/tealdb/depforge/internal/stage"
)

// fakeRunner records invocations and delegates behavior to onRun.
type fakeRunner struct {
	invs  []runner.Invocation
	onRun func(inv runner.Invocation) error
}

func (f *fakeRunner) Run(_ context.Context, inv runner.Invocation) error {
	f.invs = append(f.invs, inv)
	if f.onRun != nil {
		return f.onRun(inv)
	}
	return nil
}

// stageCount returns how many invocations carried the given stage label.
func (f *fakeRunner) stageCount(label string) int {
	n := 0
	for _, inv := range f.invs {
		if inv.Stage == label {
			n++
		}
	}
	return n
}

// testConfig returns a config whose source trees and install prefix live
// under a temp dir, with deterministic make parallelism.
func testConfig(t *testing.T) buildcfg.Config {
	t.Helper()
	base := t.TempDir()
	cfg := buildcfg.Default()
	cfg.OutputDir = filepath.Join(base, "out")
	cfg.AllocatorDir = filepath.Join(base, "jemalloc")
	cfg.EngineDir = filepath.Join(base, "rocksdb")
	cfg.Jobs = 2
	for _, dir := range []string{cfg.AllocatorDir, cfg.EngineDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatal(err)
		}
	}
	return cfg
}

// buildSim simulates the filesystem effects of the external build
// processes, so full pipeline runs complete without real compilers. root
// must equal the config's output dir.
type buildSim struct {
	t    *testing.T
	root string
}

func (s *buildSim) apply(inv runner.Invocation) error {
	switch inv.Stage {
	case stage.StageAllocator:
		if inv.Bin == "make" && slices.Contains(inv.Args, "install") {
			s.write(filepath.Join(s.root, "include", "jemalloc", "jemalloc.h"))
			s.write(filepath.Join(s.root, "lib", "libjemalloc.a"))
		}
	case stage.StageEngine:
		if slices.Contains(inv.Args, "static_lib") {
			s.write(filepath.Join(inv.Dir, "librocksdb.a"))
		}
	case stage.StageEngineAux:
		for _, name := range []string{"libz.a", "libbz2.a", "liblz4.a", "libsnappy.a"} {
			if slices.Contains(inv.Args, name) {
				s.write(filepath.Join(inv.Dir, name))
			}
		}
	}
	return nil
}

func (s *buildSim) write(path string) {
	s.t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		s.t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(filepath.Base(path)), 0o644); err != nil {
		s.t.Fatal(err)
	}
}

// simRunner wires a fakeRunner to a buildSim for cfg's layout.
func simRunner(t *testing.T, cfg buildcfg.Config) *fakeRunner {
	t.Helper()
	sim := &buildSim{t: t, root: cfg.OutputDir}
	return &fakeRunner{onRun: sim.apply}
}

// libNames lists the lib dir of the install root, sorted.
func libNames(t *testing.T, root string) []string {
	t.Helper()
	entries, err := os.ReadDir(filepath.Join(root, "lib"))
	if err != nil {
		t.Fatalf("read lib dir: %v", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	slices.Sort(names)
	return names
}

// allArchives is the expected final lib population.
var allArchives = []string{
	"libbz2.a", "libjemalloc.a", "liblz4.a", "librocksdb.a", "libsnappy.a", "libz.a",
}
