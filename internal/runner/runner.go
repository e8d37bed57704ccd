// Copyright 2025 The depforge Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package runner executes the external build processes the stages depend
// on. Stages describe each call as an Invocation; the Runner decides how it
// actually runs, which keeps process execution injectable.
package runner

import (
	"context"
	"errors"
	"io"
	"maps"
	"os"
	"os/exec"
	"slices"
	"sort"
	"strings"
	"time"
)

// Invocation describes one external process call. Env holds explicit
// overrides layered on top of the parent environment; nothing else of the
// caller's process state leaks into the child.
type Invocation struct {
	Stage string            // build stage issuing the call
	Dir   string            // working directory
	Bin   string            // executable name or path
	Args  []string          // arguments, not including the binary
	Env   map[string]string // environment overrides
}

// Runner runs external processes on behalf of build stages.
type Runner interface {
	Run(ctx context.Context, inv Invocation) error
}

// ExecRunner runs invocations with os/exec, streaming their output to the
// configured writers as it is produced.
type ExecRunner struct {
	stdout  io.Writer
	stderr  io.Writer
	timeout time.Duration
}

// Option configures an ExecRunner.
type Option func(*ExecRunner)

// WithStdout redirects subprocess standard output.
func WithStdout(w io.Writer) Option {
	return func(r *ExecRunner) {
		r.stdout = w
	}
}

// WithStderr redirects subprocess standard error.
func WithStderr(w io.Writer) Option {
	return func(r *ExecRunner) {
		r.stderr = w
	}
}

// WithTimeout bounds each invocation. Zero, the default, leaves invocations
// unbounded; native builds legitimately run for a long time.
func WithTimeout(d time.Duration) Option {
	return func(r *ExecRunner) {
		r.timeout = d
	}
}

// NewExecRunner creates a runner writing subprocess output to this
// process's stdout and stderr unless redirected.
func NewExecRunner(opts ...Option) *ExecRunner {
	r := &ExecRunner{stdout: os.Stdout, stderr: os.Stderr}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes the invocation and waits for it. A process that cannot be
// started or exits non-zero is reported as a *ProcessError.
func (r *ExecRunner) Run(ctx context.Context, inv Invocation) error {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}
	cmd := exec.CommandContext(ctx, inv.Bin, inv.Args...)
	cmd.Dir = inv.Dir
	cmd.Stdout = r.stdout
	cmd.Stderr = r.stderr
	if len(inv.Env) > 0 {
		cmd.Env = mergeEnv(os.Environ(), inv.Env)
	}
	if err := cmd.Run(); err != nil {
		return &ProcessError{
			Stage:      inv.Stage,
			Bin:        inv.Bin,
			Args:       slices.Clone(inv.Args),
			ExitStatus: exitStatus(err),
			Err:        err,
		}
	}
	return nil
}

func exitStatus(err error) int {
	var exit *exec.ExitError
	if errors.As(err, &exit) {
		return exit.ExitCode()
	}
	return -1
}

func mergeEnv(base []string, override map[string]string) []string {
	envMap := make(map[string]string, len(base)+len(override))
	for _, kv := range base {
		if k, v, ok := strings.Cut(kv, "="); ok {
			envMap[k] = v
		}
	}
	maps.Copy(envMap, override)
	keys := make([]string, 0, len(envMap))
	for k := range envMap {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, k+"="+envMap[k])
	}
	return out
}
