// Package autotools drives the classic autogen / configure / make /
// make-install workflow. Builds run in-tree, the way allocator releases
// expect; all process execution goes through an injected runner so the
// sequence is observable in tests.
package autotools

import (
	"context"
	"maps"

	"github.com/tealdb/depforge/internal/runner"
	"github.com/tealdb/depforge/pkgs/buildsys"
)

// AutoTools wraps the autotools build steps of one source tree.
type AutoTools struct {
	stage      string
	sourceDir  string
	installDir string
	env        map[string]string
	runner     runner.Runner
}

var _ buildsys.BuildSystem = (*AutoTools)(nil)

// New creates a driver that builds sourceDir in-tree and installs under
// installDir. stage labels every invocation the driver issues.
func New(r runner.Runner, stage, sourceDir, installDir string) *AutoTools {
	return &AutoTools{
		stage:      stage,
		sourceDir:  sourceDir,
		installDir: installDir,
		env:        map[string]string{},
		runner:     r,
	}
}

// Source overrides the source directory.
func (a *AutoTools) Source(dir string) {
	a.sourceDir = dir
}

// Env sets key=value in the environment of every command spawned later.
func (a *AutoTools) Env(key, value string) {
	a.env[key] = value
}

// Autogen generates the configure script by running ./autogen.sh.
func (a *AutoTools) Autogen(ctx context.Context) error {
	return a.run(ctx, "./autogen.sh", nil)
}

// Configure runs ./configure. When an install dir is set, --prefix is
// always the first flag; extra flags follow it.
func (a *AutoTools) Configure(ctx context.Context, args ...string) error {
	flags := make([]string, 0, len(args)+1)
	if a.installDir != "" {
		flags = append(flags, "--prefix="+a.installDir)
	}
	flags = append(flags, args...)
	return a.run(ctx, "./configure", flags)
}

// Build runs make with the given extra arguments.
func (a *AutoTools) Build(ctx context.Context, args ...string) error {
	return a.run(ctx, "make", args)
}

// Install runs make install with the given extra arguments.
func (a *AutoTools) Install(ctx context.Context, args ...string) error {
	return a.run(ctx, "make", append([]string{"install"}, args...))
}

// OutputDir returns the install dir if set, otherwise the source dir.
func (a *AutoTools) OutputDir() string {
	if a.installDir != "" {
		return a.installDir
	}
	return a.sourceDir
}

func (a *AutoTools) run(ctx context.Context, bin string, args []string) error {
	return a.runner.Run(ctx, runner.Invocation{
		Stage: a.stage,
		Dir:   a.sourceDir,
		Bin:   bin,
		Args:  args,
		Env:   maps.Clone(a.env),
	})
}
