// Package buildcfg carries the explicit configuration of a dependency
// build. Every knob a stage needs arrives through here; stages read no
// ambient process state.
package buildcfg

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"golang.org/x/mod/semver"
	"gopkg.in/yaml.v3"
)

// DefaultFile is the config file consulted when none is named.
const DefaultFile = "depforge.yaml"

// Duration is a time.Duration that unmarshals from YAML strings like
// "90m" or "2h".
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	dur, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("invalid duration %q (want a value like \"90m\"): %w", value.Value, err)
	}
	*d = Duration(dur)
	return nil
}

// Config describes one full dependency build.
type Config struct {
	// OutputDir is the install prefix receiving headers and archives.
	OutputDir string `yaml:"output_dir"`

	// Source trees of the two builds.
	AllocatorDir string `yaml:"allocator_dir"`
	EngineDir    string `yaml:"engine_dir"`

	// Toolchain pins for the engine build.
	CC  string `yaml:"cc"`
	CXX string `yaml:"cxx"`

	// Jobs is the make parallelism. Zero lets make decide.
	Jobs int `yaml:"jobs"`

	// StageTimeout bounds each external process invocation. Zero, the
	// default, leaves them unbounded.
	StageTimeout Duration `yaml:"stage_timeout"`

	// Verbose enables debug logging.
	Verbose bool `yaml:"verbose"`

	// Expected source versions, recorded in the build report. Empty pins
	// are fine; they just go unrecorded.
	AllocatorVersion string `yaml:"allocator_version"`
	EngineVersion    string `yaml:"engine_version"`
}

// Default returns the stock configuration: the conventional source layout
// next to the working directory, clang pinned, make parallelism matching
// the machine.
func Default() Config {
	return Config{
		OutputDir:    "deps_install",
		AllocatorDir: filepath.Join("deps", "jemalloc"),
		EngineDir:    filepath.Join("deps", "rocksdb"),
		CC:           "clang",
		CXX:          "clang++",
		Jobs:         runtime.NumCPU(),
	}
}

// Load reads a config file over the defaults. An empty path consults
// DefaultFile and quietly falls back to the defaults when it does not
// exist; a named file must exist.
func Load(path string) (Config, error) {
	cfg := Default()
	named := path != ""
	if !named {
		path = DefaultFile
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if !named && os.IsNotExist(err) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the configuration and canonicalizes the source
// directories. Stages hand those directories to subprocesses, and a
// relative path means something else once one is involved.
func (c *Config) Validate() error {
	if c.OutputDir == "" {
		return errors.New("output dir must not be empty")
	}
	if err := checkSourceDir("allocator", &c.AllocatorDir); err != nil {
		return err
	}
	if err := checkSourceDir("engine", &c.EngineDir); err != nil {
		return err
	}
	if err := checkVersionPin("allocator_version", c.AllocatorVersion); err != nil {
		return err
	}
	return checkVersionPin("engine_version", c.EngineVersion)
}

func checkSourceDir(name string, dir *string) error {
	if *dir == "" {
		return fmt.Errorf("%s source dir must not be empty", name)
	}
	abs, err := filepath.Abs(*dir)
	if err != nil {
		return fmt.Errorf("%s source dir: %w", name, err)
	}
	fi, err := os.Stat(abs)
	if err != nil {
		return fmt.Errorf("%s source dir: %w", name, err)
	}
	if !fi.IsDir() {
		return fmt.Errorf("%s source dir %s is not a directory", name, abs)
	}
	*dir = abs
	return nil
}

func checkVersionPin(name, pin string) error {
	if pin == "" {
		return nil
	}
	if !semver.IsValid("v" + strings.TrimPrefix(pin, "v")) {
		return fmt.Errorf("%s: %q is not a valid version", name, pin)
	}
	return nil
}
