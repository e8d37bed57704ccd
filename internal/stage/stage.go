// Package stage implements the build steps of the native dependency
// pipeline. Each step owns one library's fixed invocation sequence and the
// configuration that parameterizes it; steps never read configuration from
// ambient process state.
package stage

import (
	"context"
	"strconv"
)

// Stage labels attached to every process invocation a step issues. A
// failing process reports the label, so build logs and exit errors are
// attributable without parsing compiler output.
const (
	StageAllocator = "allocator"
	StageEngine    = "engine"
	StageEngineAux = "engine-aux"
)

// Config holds one step's build configuration as env-style key/value
// pairs. It is assembled once when the step is constructed and travels
// only with the step's own invocations.
type Config map[string]string

// ArtifactLocations records where a completed step left its outputs.
type ArtifactLocations struct {
	IncludeDir string // installed headers
	LibDir     string // directory currently holding the step's static archives
	Archive    string // the step's primary static archive
}

// Step is one native library's build procedure: a fixed sequence of
// external process invocations, aborted at the first failure.
type Step interface {
	// Name identifies the library the step builds.
	Name() string

	// Execute runs the step's invocation sequence and reports where the
	// products were left. Partial state from a failed Execute stays on
	// disk for inspection.
	Execute(ctx context.Context) (ArtifactLocations, error)
}

// makeJobs renders the make parallelism flag. Zero or less lets make
// decide for itself.
func makeJobs(n int) []string {
	if n <= 0 {
		return nil
	}
	return []string{"-j", strconv.Itoa(n)}
}
