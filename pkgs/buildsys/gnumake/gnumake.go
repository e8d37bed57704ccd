// Package gnumake drives plain GNU make builds whose configuration travels
// as environment variables rather than configure flags. RocksDB-style
// Makefiles read knobs like DEBUG_LEVEL and PREFIX straight from the
// environment of the make process.
package gnumake

import (
	"context"
	"maps"

	"github.com/tealdb/depforge/internal/runner"
	"github.com/tealdb/depforge/pkgs/buildsys"
)

// Make wraps make invocations in one source tree.
type Make struct {
	stage  string
	dir    string
	env    map[string]string
	runner runner.Runner
}

var _ buildsys.BuildSystem = (*Make)(nil)

// New creates a driver running make in dir, labeling every invocation with
// stage.
func New(r runner.Runner, stage, dir string) *Make {
	return &Make{
		stage:  stage,
		dir:    dir,
		env:    map[string]string{},
		runner: r,
	}
}

// Var sets a make variable, passed through the environment of every make
// spawned later.
func (m *Make) Var(key, value string) {
	m.env[key] = value
}

// Env is Var under the name shared by all build drivers.
func (m *Make) Env(key, value string) {
	m.Var(key, value)
}

// Configure is a no-op: plain Makefiles have no configure step.
func (m *Make) Configure(ctx context.Context, args ...string) error {
	return nil
}

// Build runs make with the given targets and arguments.
func (m *Make) Build(ctx context.Context, args ...string) error {
	return m.run(ctx, args)
}

// Install runs make install with the given extra arguments.
func (m *Make) Install(ctx context.Context, args ...string) error {
	return m.run(ctx, append([]string{"install"}, args...))
}

// Clean runs make clean, dropping intermediate build state.
func (m *Make) Clean(ctx context.Context) error {
	return m.run(ctx, []string{"clean"})
}

// OutputDir returns the directory make leaves its products in.
func (m *Make) OutputDir() string {
	return m.dir
}

func (m *Make) run(ctx context.Context, args []string) error {
	return m.runner.Run(ctx, runner.Invocation{
		Stage: m.stage,
		Dir:   m.dir,
		Bin:   "make",
		Args:  args,
		Env:   maps.Clone(m.env),
	})
}
