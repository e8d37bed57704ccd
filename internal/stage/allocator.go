package stage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tealdb/depforge/internal/prefix"
	"github.com/tealdb/depforge/internal/runner"
	"github.com/tealdb/depforge/pkgs/buildsys/autotools"
)

// Allocator builds the jemalloc memory allocator into the shared install
// prefix. jemalloc ships as an autoconf project, so the sequence is
// autogen, configure, make, make install.
type Allocator struct {
	sourceDir string
	prefix    prefix.Prefix
	jobs      int
	tools     *autotools.AutoTools
}

var _ Step = (*Allocator)(nil)

// NewAllocator creates the step. sourceDir is the jemalloc source tree;
// the install prefix receives headers and the static archive.
func NewAllocator(r runner.Runner, sourceDir string, pfx prefix.Prefix, jobs int) *Allocator {
	return &Allocator{
		sourceDir: sourceDir,
		prefix:    pfx,
		jobs:      jobs,
		tools:     autotools.New(r, StageAllocator, sourceDir, pfx.Root),
	}
}

func (s *Allocator) Name() string { return "jemalloc" }

// Execute runs the autoconf sequence, aborting at the first failure. The
// configure flags pin the build shape: debug assertions off and an
// explicitly empty symbol prefix. An omitted --with-jemalloc-prefix is not
// the same thing; jemalloc would then pick a platform default and the
// engine's malloc references would miss it.
func (s *Allocator) Execute(ctx context.Context) (ArtifactLocations, error) {
	if err := s.tools.Autogen(ctx); err != nil {
		return ArtifactLocations{}, err
	}
	if err := s.tools.Configure(ctx, "--disable-debug", "--with-jemalloc-prefix="); err != nil {
		return ArtifactLocations{}, err
	}
	if err := s.tools.Build(ctx, makeJobs(s.jobs)...); err != nil {
		return ArtifactLocations{}, err
	}
	if err := s.tools.Install(ctx); err != nil {
		return ArtifactLocations{}, err
	}
	return s.verify()
}

// verify checks the install postcondition: the headers and archive the
// engine build will reference must exist under the prefix.
func (s *Allocator) verify() (ArtifactLocations, error) {
	loc := ArtifactLocations{
		IncludeDir: s.prefix.IncludeDir(),
		LibDir:     s.prefix.LibDir(),
		Archive:    filepath.Join(s.prefix.LibDir(), "libjemalloc.a"),
	}
	for _, path := range []string{filepath.Join(loc.IncludeDir, "jemalloc"), loc.Archive} {
		if _, err := os.Stat(path); err != nil {
			return ArtifactLocations{}, fmt.Errorf("jemalloc install incomplete: %w", err)
		}
	}
	return loc, nil
}
