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
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func TestExecCaseRunner(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX shell")
	}
	dir := t.TempDir()

	// The runner must execute in the case directory.
	r := &ExecCaseRunner{Command: "sh", Args: []string{"-c", "pwd > where.txt"}}
	if err := r.Run(context.Background(), dir); err != nil {
		t.Fatal(err)
	}
	b, err := os.ReadFile(filepath.Join(dir, "where.txt"))
	if err != nil {
		t.Fatal(err)
	}
	got, err := filepath.EvalSymlinks(string(b[:len(b)-1]))
	if err != nil {
		t.Fatal(err)
	}
	want, err := filepath.EvalSymlinks(dir)
	if err != nil {
		t.Fatal(err)
	}
	if got != want {
		t.Errorf("working directory: got %s, want %s", got, want)
	}
}

func TestExecCaseRunnerFailure(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX shell")
	}
	dir := t.TempDir()
	r := &ExecCaseRunner{Command: "sh", Args: []string{"-c", "echo boom >&2; exit 3"}}
	err := r.Run(context.Background(), dir)
	var ere *ExternalRunError
	if !errors.As(err, &ere) {
		t.Fatalf("expected ExternalRunError, got %v", err)
	}
	if ere.ExitCode != 3 {
		t.Errorf("exit code: got %d, want 3", ere.ExitCode)
	}
	if ere.Stderr != "boom" {
		t.Errorf("stderr: got %q, want boom", ere.Stderr)
	}
	if ere.Dir != dir {
		t.Errorf("dir: got %s, want %s", ere.Dir, dir)
	}
}

func TestExecCaseRunnerReconstruct(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX shell")
	}
	dir := t.TempDir()

	// The reconstruction step runs after the solver, with the field
	// list rendered as a single parenthesized argument.
	script := filepath.Join(dir, "recon.sh")
	if err := os.WriteFile(script, []byte("#!/bin/sh\necho \"$2\" > fields.txt\n"), 0755); err != nil {
		t.Fatal(err)
	}
	r := &ExecCaseRunner{
		Command:            "true",
		ReconstructCommand: script,
		ReconstructFields:  []string{"T", "p", "H2"},
	}
	if err := r.Run(context.Background(), dir); err != nil {
		t.Fatal(err)
	}
	b, err := os.ReadFile(filepath.Join(dir, "fields.txt"))
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != "(T p H2)\n" {
		t.Errorf("fields argument: got %q", b)
	}
}

func TestExecCaseRunnerMissingCommand(t *testing.T) {
	r := &ExecCaseRunner{Command: "flamebench-does-not-exist"}
	err := r.Run(context.Background(), t.TempDir())
	var ere *ExternalRunError
	if !errors.As(err, &ere) {
		t.Fatalf("expected ExternalRunError, got %v", err)
	}
	if ere.ExitCode != -1 {
		t.Errorf("exit code for unstartable command: got %d, want -1", ere.ExitCode)
	}
}
