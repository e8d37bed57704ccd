package internal

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/qiniu/x/log"
	"github.com/spf13/cobra"

	"github.com/tealdb/depforge/internal/buildcfg"
	"github.com/tealdb/depforge/internal/pipeline"
	"github.com/tealdb/depforge/internal/printer"
	"github.com/tealdb/depforge/internal/runner"
)

var (
	forgeConfig    string
	forgeOutput    string
	forgeAllocDir  string
	forgeEngineDir string
	forgeCC        string
	forgeCXX       string
	forgeJobs      int
	forgeTimeout   time.Duration
	forgeVerbose   bool
)

var rootCmd = &cobra.Command{
	Use:   "depforge",
	Short: "depforge builds tealdb's native dependencies",
	Long: `depforge builds the memory allocator and the storage engine tealdb
links against, in dependency order, and gathers the produced static
archives under one install prefix (include/ + lib/).

Run without arguments it performs the full build with the conventional
source layout, reading depforge.yaml when present.`,
	Args:         cobra.NoArgs,
	RunE:         runForge,
	SilenceUsage: true,
}

func init() {
	flags := rootCmd.Flags()
	flags.StringVarP(&forgeConfig, "config", "c", "", "Config file (default depforge.yaml if present)")
	flags.StringVarP(&forgeOutput, "output", "o", "", "Install prefix directory")
	flags.StringVar(&forgeAllocDir, "allocator-src", "", "Allocator source directory")
	flags.StringVar(&forgeEngineDir, "engine-src", "", "Storage engine source directory")
	flags.StringVar(&forgeCC, "cc", "", "C compiler for the engine build")
	flags.StringVar(&forgeCXX, "cxx", "", "C++ compiler for the engine build")
	flags.IntVarP(&forgeJobs, "jobs", "j", 0, "Make parallelism (0 lets make decide)")
	flags.DurationVar(&forgeTimeout, "timeout", 0, "Per-invocation timeout (0 means none)")
	flags.BoolVarP(&forgeVerbose, "verbose", "v", false, "Enable debug logging")
}

// flagValues mirrors the flag variables so overlaying is testable without
// cobra state.
type flagValues struct {
	output    string
	allocDir  string
	engineDir string
	cc        string
	cxx       string
	jobs      int
	timeout   time.Duration
	verbose   bool
}

// overlayFlags layers explicitly-set command line values over a loaded
// config. changed reports whether the named flag was set on the command
// line; unset flags never clobber config or default values.
func overlayFlags(cfg buildcfg.Config, v flagValues, changed func(name string) bool) buildcfg.Config {
	if changed("output") {
		cfg.OutputDir = v.output
	}
	if changed("allocator-src") {
		cfg.AllocatorDir = v.allocDir
	}
	if changed("engine-src") {
		cfg.EngineDir = v.engineDir
	}
	if changed("cc") {
		cfg.CC = v.cc
	}
	if changed("cxx") {
		cfg.CXX = v.cxx
	}
	if changed("jobs") {
		cfg.Jobs = v.jobs
	}
	if changed("timeout") {
		cfg.StageTimeout = buildcfg.Duration(v.timeout)
	}
	if changed("verbose") {
		cfg.Verbose = v.verbose
	}
	return cfg
}

func resolveConfig(cmd *cobra.Command) (buildcfg.Config, error) {
	cfg, err := buildcfg.Load(forgeConfig)
	if err != nil {
		return buildcfg.Config{}, err
	}
	v := flagValues{
		output:    forgeOutput,
		allocDir:  forgeAllocDir,
		engineDir: forgeEngineDir,
		cc:        forgeCC,
		cxx:       forgeCXX,
		jobs:      forgeJobs,
		timeout:   forgeTimeout,
		verbose:   forgeVerbose,
	}
	return overlayFlags(cfg, v, cmd.Flags().Changed), nil
}

func runForge(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	if cfg.Verbose {
		log.SetOutputLevel(log.Ldebug)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	res, err := pipeline.New(cfg).Run(context.Background())
	if err != nil {
		return err
	}
	printer.Success("%d archives collected into %s\n", len(res.Archives), res.Prefix.LibDir())
	printer.Info("install prefix ready at %s\n", res.Prefix.Root)
	return nil
}

// Execute runs the root command. When an external build process failed,
// its exit status becomes ours, so scripts wrapping this tool see the
// underlying compiler or make status.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(exitStatus(err))
	}
}

// exitStatus maps an error to this process's exit code.
func exitStatus(err error) int {
	var perr *runner.ProcessError
	if errors.As(err, &perr) && perr.ExitStatus > 0 {
		return perr.ExitStatus
	}
	return 1
}
