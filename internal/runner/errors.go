// Copyright 2025 The depforge Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package runner

import (
	"fmt"
	"strings"
)

// ProcessError reports an external process that did not complete
// successfully. Stage names the build stage that issued the call, so a
// failing make is attributable without parsing its output.
type ProcessError struct {
	Stage      string
	Bin        string
	Args       []string
	ExitStatus int // process exit status, -1 if the process never ran
	Err        error
}

func (e *ProcessError) Error() string {
	cmd := e.Bin
	if len(e.Args) > 0 {
		cmd += " " + strings.Join(e.Args, " ")
	}
	if e.ExitStatus >= 0 {
		return fmt.Sprintf("%s: %q exited with status %d", e.Stage, cmd, e.ExitStatus)
	}
	return fmt.Sprintf("%s: %q: %v", e.Stage, cmd, e.Err)
}

func (e *ProcessError) Unwrap() error { return e.Err }
