package stage

import (
	"context"
	"maps"
	"path/filepath"
	"slices"

	"github.com/tealdb/depforge/internal/prefix"
	"github.com/tealdb/depforge/internal/runner"
	"github.com/tealdb/depforge/pkgs/buildsys/gnumake"
)

// Engine builds the RocksDB storage engine's static library against the
// installed allocator, then the bundled compression codecs. RocksDB's
// Makefile takes its configuration from environment variables, so the
// step's Config map is exactly what each make sees.
type Engine struct {
	sourceDir string
	prefix    prefix.Prefix
	cfg       Config
	jobs      int
	mk        *gnumake.Make
	aux       *gnumake.Make
}

var _ Step = (*Engine)(nil)

// EngineOptions pins the engine build's toolchain knobs.
type EngineOptions struct {
	CC   string // C compiler, clang when empty
	CXX  string // C++ compiler, clang++ when empty
	Jobs int    // make parallelism, 0 lets make decide
}

// auxTargets are the compression codec archives RocksDB bundles. They are
// compiled in place and collected later, never installed.
var auxTargets = []string{"libz.a", "libbz2.a", "liblz4.a", "libsnappy.a"}

// NewEngine creates the step. The configuration map is assembled here,
// once, from the allocator's installed locations; alloc must come from a
// successful allocator step so the header and archive paths it names
// exist.
func NewEngine(r runner.Runner, sourceDir string, pfx prefix.Prefix, alloc ArtifactLocations, opts EngineOptions) *Engine {
	cc, cxx := opts.CC, opts.CXX
	if cc == "" {
		cc = "clang"
	}
	if cxx == "" {
		cxx = "clang++"
	}
	cfg := Config{
		"DEBUG_LEVEL":    "0",
		"EXTRA_CXXFLAGS": "-I" + alloc.IncludeDir,
		"EXTRA_LDFLAGS":  "-L" + alloc.LibDir,
		"USE_RTTI":       "1",
		"CC":             cc,
		"CXX":            cxx,
		"JEMALLOC":       "1",
		"PREFIX":         pfx.Root,
	}

	mk := gnumake.New(r, StageEngine, sourceDir)
	aux := gnumake.New(r, StageEngineAux, sourceDir)
	keys := make([]string, 0, len(cfg))
	for k := range cfg {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		mk.Var(k, cfg[k])
		aux.Var(k, cfg[k])
	}
	return &Engine{
		sourceDir: sourceDir,
		prefix:    pfx,
		cfg:       cfg,
		jobs:      opts.Jobs,
		mk:        mk,
		aux:       aux,
	}
}

func (s *Engine) Name() string { return "rocksdb" }

// Config returns a copy of the step's configuration map.
func (s *Engine) Config() Config {
	return maps.Clone(s.cfg)
}

// Execute drops stale build state, builds and installs the static library,
// then compiles the codec archives. The first failure aborts the sequence;
// a broken primary build must not be papered over by auxiliary products.
// The codec archives are left in the source tree for collection.
func (s *Engine) Execute(ctx context.Context) (ArtifactLocations, error) {
	if err := s.mk.Clean(ctx); err != nil {
		return ArtifactLocations{}, err
	}

	args := append([]string{"static_lib", "install"}, makeJobs(s.jobs)...)
	if err := s.mk.Build(ctx, args...); err != nil {
		return ArtifactLocations{}, err
	}

	args = make([]string, 0, len(auxTargets)+2)
	args = append(args, auxTargets...)
	args = append(args, makeJobs(s.jobs)...)
	if err := s.aux.Build(ctx, args...); err != nil {
		return ArtifactLocations{}, err
	}

	return ArtifactLocations{
		IncludeDir: s.prefix.IncludeDir(),
		LibDir:     s.sourceDir,
		Archive:    filepath.Join(s.sourceDir, "librocksdb.a"),
	}, nil
}

// Clean drops the engine's intermediate build state. The pipeline runs it
// after collection; gigabytes of object files have no place in the final
// layout.
func (s *Engine) Clean(ctx context.Context) error {
	return s.mk.Clean(ctx)
}
