package internal

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/tealdb/depforge/internal/buildcfg"
	"github.com/tealdb/depforge/internal/bundle"
	"github.com/tealdb/depforge/internal/printer"
)

var (
	bundleConfig string
	bundlePrefix string
)

var bundleCmd = &cobra.Command{
	Use:   "bundle <dest>",
	Short: "Package a built install prefix for distribution",
	Long: `Bundle packages the archives and headers of a completed build.
The destination's extension picks the format: .zip, .tar.xz, or a plain
directory copy for anything else.`,
	Args: cobra.ExactArgs(1),
	RunE: runBundle,
}

func init() {
	flags := bundleCmd.Flags()
	flags.StringVarP(&bundleConfig, "config", "c", "", "Config file (default depforge.yaml if present)")
	flags.StringVarP(&bundlePrefix, "output", "o", "", "Install prefix to bundle")
	rootCmd.AddCommand(bundleCmd)
}

func runBundle(cmd *cobra.Command, args []string) error {
	cfg, err := buildcfg.Load(bundleConfig)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("output") {
		cfg.OutputDir = bundlePrefix
	}
	dest, err := filepath.Abs(args[0])
	if err != nil {
		return err
	}
	if err := bundle.Bundle(cfg.OutputDir, dest); err != nil {
		return err
	}
	printer.Success("bundled %s into %s\n", cfg.OutputDir, dest)
	return nil
}
