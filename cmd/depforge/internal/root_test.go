package internal

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/tealdb/depforge/internal/buildcfg"
	"github.com/tealdb/depforge/internal/runner"
)

func TestExitStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{
			name: "process failure",
			err:  &runner.ProcessError{Stage: "engine", Bin: "make", ExitStatus: 5},
			want: 5,
		},
		{
			name: "wrapped process failure",
			err:  fmt.Errorf("build: %w", &runner.ProcessError{Stage: "allocator", Bin: "make", ExitStatus: 5}),
			want: 5,
		},
		{
			name: "plain error",
			err:  errors.New("no such directory"),
			want: 1,
		},
		{
			name: "process never ran",
			err:  &runner.ProcessError{Stage: "engine", Bin: "make", ExitStatus: -1},
			want: 1,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := exitStatus(tc.err); got != tc.want {
				t.Fatalf("exitStatus() = %d, want %d", got, tc.want)
			}
		})
	}
}

func TestOverlayFlags(t *testing.T) {
	cfg := buildcfg.Default()
	v := flagValues{
		output:  "custom_out",
		cc:      "gcc",
		cxx:     "g++",
		jobs:    4,
		timeout: 30 * time.Minute,
		verbose: true,
	}
	changed := map[string]bool{
		"output": true,
		"cc":     true,
		"jobs":   true,
	}

	got := overlayFlags(cfg, v, func(name string) bool { return changed[name] })

	if got.OutputDir != "custom_out" {
		t.Errorf("OutputDir = %q, want %q", got.OutputDir, "custom_out")
	}
	if got.CC != "gcc" {
		t.Errorf("CC = %q, want %q", got.CC, "gcc")
	}
	if got.Jobs != 4 {
		t.Errorf("Jobs = %d, want 4", got.Jobs)
	}
	// Flags not marked changed keep their config values.
	if got.CXX != cfg.CXX {
		t.Errorf("CXX = %q, want untouched %q", got.CXX, cfg.CXX)
	}
	if got.StageTimeout != cfg.StageTimeout {
		t.Errorf("StageTimeout = %v, want untouched %v", got.StageTimeout, cfg.StageTimeout)
	}
	if got.Verbose != cfg.Verbose {
		t.Errorf("Verbose = %v, want untouched %v", got.Verbose, cfg.Verbose)
	}
	if got.AllocatorDir != cfg.AllocatorDir || got.EngineDir != cfg.EngineDir {
		t.Errorf("source dirs changed: %q %q, want %q %q",
			got.AllocatorDir, got.EngineDir, cfg.AllocatorDir, cfg.EngineDir)
	}
}

func TestOverlayFlagsAllChanged(t *testing.T) {
	cfg := buildcfg.Default()
	v := flagValues{
		output:    "out",
		allocDir:  "src/alloc",
		engineDir: "src/engine",
		cc:        "cc",
		cxx:       "c++",
		jobs:      1,
		timeout:   time.Minute,
		verbose:   true,
	}

	got := overlayFlags(cfg, v, func(string) bool { return true })

	want := buildcfg.Config{
		OutputDir:        "out",
		AllocatorDir:     "src/alloc",
		EngineDir:        "src/engine",
		CC:               "cc",
		CXX:              "c++",
		Jobs:             1,
		StageTimeout:     buildcfg.Duration(time.Minute),
		Verbose:          true,
		AllocatorVersion: cfg.AllocatorVersion,
		EngineVersion:    cfg.EngineVersion,
	}
	if got != want {
		t.Fatalf("overlayFlags() = %+v, want %+v", got, want)
	}
}
