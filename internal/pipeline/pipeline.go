// Package pipeline sequences a native dependency build: resolve the
// install prefix, build the allocator, build the storage engine against
// it, collect the produced archives, clean up. Stages run strictly in
// order and the first failure stops the run.
package pipeline

import (
	"context"
	"time"

	"github.com/qiniu/x/log"

	"github.com/tealdb/depforge/internal/buildcfg"
	"github.com/tealdb/depforge/internal/collect"
	"github.com/tealdb/depforge/internal/prefix"
	"github.com/tealdb/depforge/internal/printer"
	"github.com/tealdb/depforge/internal/runner"
	"github.com/tealdb/depforge/internal/stage"
)

// State identifies the pipeline's position in its fixed stage sequence.
type State string

const (
	StateInit               State = "init"
	StatePathsResolved      State = "paths-resolved"
	StateAllocatorBuilt     State = "allocator-built"
	StateEngineBuilt        State = "engine-built"
	StateArtifactsCollected State = "artifacts-collected"
	StateDone               State = "done"
	StateFailed             State = "failed"
)

// Report stage names for the phases that are not process stages.
const (
	stageResolve = "resolve"
	stageCollect = "collect"
	stageCleanup = "cleanup"
)

// Pipeline drives one dependency build. It performs no cleanup of partial
// state on failure: whatever a failed stage left behind stays on disk for
// inspection.
type Pipeline struct {
	cfg    buildcfg.Config
	run    runner.Runner
	state  State
	stages []StageRecord
}

// Option adjusts a Pipeline.
type Option func(*Pipeline)

// WithRunner substitutes the process runner. Tests inject a scripted one.
func WithRunner(r runner.Runner) Option {
	return func(p *Pipeline) {
		p.run = r
	}
}

// New creates a pipeline for cfg. Without WithRunner it executes real
// processes, streaming their output through.
func New(cfg buildcfg.Config, opts ...Option) *Pipeline {
	p := &Pipeline{cfg: cfg, state: StateInit}
	for _, opt := range opts {
		opt(p)
	}
	if p.run == nil {
		p.run = runner.NewExecRunner(runner.WithTimeout(time.Duration(cfg.StageTimeout)))
	}
	return p
}

// State reports the pipeline's current position.
func (p *Pipeline) State() State {
	return p.state
}

// Result is what a completed run produced.
type Result struct {
	Prefix   prefix.Prefix
	Archives []string // archive names collected into the prefix's lib dir
	Report   Report
}

// Run executes the full stage sequence. Two pipelines must not share an
// install root concurrently; nothing here locks it.
func (p *Pipeline) Run(ctx context.Context) (Result, error) {
	started := time.Now()

	var pfx prefix.Prefix
	err := p.advance(stageResolve, StatePathsResolved, func() (err error) {
		pfx, err = prefix.Resolve(p.cfg.OutputDir)
		return
	})
	if err != nil {
		return Result{}, err
	}
	log.Debugf("install prefix resolved to %s", pfx.Root)

	alloc := stage.NewAllocator(p.run, p.cfg.AllocatorDir, pfx, p.cfg.Jobs)
	printer.Step("building %s (allocator)\n", alloc.Name())
	var allocLoc stage.ArtifactLocations
	err = p.advance(stage.StageAllocator, StateAllocatorBuilt, func() (err error) {
		allocLoc, err = alloc.Execute(ctx)
		return
	})
	if err != nil {
		return Result{}, err
	}

	eng := stage.NewEngine(p.run, p.cfg.EngineDir, pfx, allocLoc, stage.EngineOptions{
		CC:   p.cfg.CC,
		CXX:  p.cfg.CXX,
		Jobs: p.cfg.Jobs,
	})
	printer.Step("building %s (storage engine and codecs)\n", eng.Name())
	var engLoc stage.ArtifactLocations
	err = p.advance(stage.StageEngine, StateEngineBuilt, func() (err error) {
		engLoc, err = eng.Execute(ctx)
		return
	})
	if err != nil {
		return Result{}, err
	}

	printer.Step("collecting archives into %s\n", pfx.LibDir())
	var archives []string
	err = p.advance(stageCollect, StateArtifactsCollected, func() (err error) {
		archives, err = collect.Collect(engLoc.LibDir, pfx.LibDir())
		return
	})
	if err != nil {
		return Result{}, err
	}

	err = p.advance(stageCleanup, StateDone, func() error {
		return eng.Clean(ctx)
	})
	if err != nil {
		return Result{}, err
	}

	rep := p.buildReport(pfx, started, archives)
	writeReport(pfx, rep)
	return Result{Prefix: pfx, Archives: archives, Report: rep}, nil
}

// advance runs one stage, records its timing, and moves the state machine
// forward. On error the pipeline parks in StateFailed for good; re-running
// means a fresh Pipeline.
func (p *Pipeline) advance(name string, next State, fn func() error) error {
	begin := time.Now()
	err := fn()
	rec := StageRecord{
		Name:     name,
		Status:   statusOK,
		Duration: time.Since(begin).Round(time.Millisecond).String(),
	}
	if err != nil {
		rec.Status = statusFailed
		p.stages = append(p.stages, rec)
		p.state = StateFailed
		printer.Fail("%s failed: %v\n", name, err)
		return err
	}
	p.stages = append(p.stages, rec)
	p.state = next
	log.Debugf("stage %s done in %s", name, rec.Duration)
	return nil
}
