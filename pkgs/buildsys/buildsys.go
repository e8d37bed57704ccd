package buildsys

import "context"

// BuildSystem captures shared capabilities of build drivers (Autotools, GNU
// make). It keeps the common lifecycle and env plumbing; drivers add their
// own extras, like Autogen on autotools or Clean on make.
type BuildSystem interface {
	// Env sets key=value in the environment of every command spawned later.
	// Nothing is exported to this process; the value travels only with the
	// driver's own invocations.
	Env(key, val string)

	// Lifecycle.
	Configure(ctx context.Context, args ...string) error
	Build(ctx context.Context, args ...string) error
	Install(ctx context.Context, args ...string) error

	// Where artifacts land.
	OutputDir() string
}
