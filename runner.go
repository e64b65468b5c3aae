/*
Copyright © 2024 the FlameBench authors.
This file is part of FlameBench.

FlameBench is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

FlameBench is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with FlameBench.  If not, see <http://www.gnu.org/licenses/>.
*/

package flamebench

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// CaseRunner executes the external CFD solver on a prepared case
// directory. Implementations must normalize failures to a
// *ExternalRunError. Runs are not retried automatically: a crash on a
// generated case is deterministic, so the failure is recorded and the
// sweep moves on.
type CaseRunner interface {
	Run(ctx context.Context, caseDir string) error
}

// CaseRunnerFunc allows an ordinary function to be used as a
// CaseRunner.
type CaseRunnerFunc func(ctx context.Context, caseDir string) error

// Run implements CaseRunner.
func (f CaseRunnerFunc) Run(ctx context.Context, caseDir string) error {
	return f(ctx, caseDir)
}

// ExecCaseRunner runs the external CFD toolchain as subprocesses with
// the case directory as working directory: first the solver itself,
// then a reconstruction step that merges the decomposed output fields
// into per-time directories the collector can read.
type ExecCaseRunner struct {
	// Command is the solver executable (or a driver script such as
	// Allrun). Args are passed to it verbatim.
	Command string
	Args    []string

	// ReconstructCommand, if non-empty, is run after the solver to
	// merge decomposed fields. ReconstructFields lists the field names
	// passed to it; empty means reconstruct everything.
	ReconstructCommand string
	ReconstructFields  []string

	// Timeout bounds one complete run, both steps included.
	// Zero means no timeout.
	Timeout time.Duration
}

// Run implements CaseRunner.
func (r *ExecCaseRunner) Run(ctx context.Context, caseDir string) error {
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	if err := r.runStep(ctx, caseDir, r.Command, r.Args); err != nil {
		return err
	}

	if r.ReconstructCommand != "" {
		args := []string{}
		if len(r.ReconstructFields) > 0 {
			args = append(args, "-fields", "("+strings.Join(r.ReconstructFields, " ")+")")
		}
		if err := r.runStep(ctx, caseDir, r.ReconstructCommand, args); err != nil {
			return err
		}
	}
	return nil
}

// runStep runs one subprocess in caseDir, converting any failure to a
// *ExternalRunError with the exit code and a stderr excerpt.
func (r *ExecCaseRunner) runStep(ctx context.Context, caseDir, command string, args []string) error {
	cmd := exec.CommandContext(ctx, command, args...)
	cmd.Dir = caseDir
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		code := -1
		if ee, ok := err.(*exec.ExitError); ok {
			code = ee.ExitCode()
		}
		reason := err.Error()
		if ctx.Err() != nil {
			reason = fmt.Sprintf("%v (%v)", err, ctx.Err())
		}
		return &ExternalRunError{
			Dir:      caseDir,
			Command:  command,
			ExitCode: code,
			Stderr:   tail(stderr.String(), 2000),
			Err:      fmt.Errorf("flamebench: running %s in %s: %s", command, caseDir, reason),
		}
	}
	return nil
}

// tail returns at most n trailing bytes of s, trimmed of surrounding
// whitespace.
func tail(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) > n {
		s = s[len(s)-n:]
	}
	return s
}
