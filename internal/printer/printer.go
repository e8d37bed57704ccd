// Package printer renders the user-facing progress lines of a build run.
package printer

import (
	"fmt"
	"os"

	"github.com/fatih/color"
)

func init() {
	// Builds usually run under CI or a script; keep color unless the user
	// opted out with NO_COLOR.
	if os.Getenv("NO_COLOR") == "" {
		color.NoColor = false
	}
}

var (
	cyan   = color.New(color.FgCyan)
	green  = color.New(color.FgGreen)
	yellow = color.New(color.FgYellow)
	red    = color.New(color.FgRed, color.Bold)
)

// Step announces the start of a build phase.
func Step(format string, a ...any) {
	cyan.Fprintf(color.Output, "→ "+format, a...)
}

// Success reports a completed phase.
func Success(format string, a ...any) {
	green.Fprintf(color.Output, "✓ "+format, a...)
}

// Warning reports a recoverable oddity.
func Warning(format string, a ...any) {
	yellow.Fprintf(color.Error, "⚠ "+format, a...)
}

// Fail reports a fatal failure.
func Fail(format string, a ...any) {
	red.Fprintf(color.Error, "✗ "+format, a...)
}

// Info prints an uncolored message.
func Info(format string, a ...any) {
	fmt.Fprintf(color.Output, format, a...)
}
