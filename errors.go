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

import "fmt"

// FlameSolveError is returned when the external kinetics engine fails to
// produce a physically valid steady flame solution for a gas state:
// non-convergence, a solver crash, or non-physical output (non-positive
// or non-finite flame speed or thickness). It carries the offending gas
// state so a sweep can skip and log the sample rather than abort.
type FlameSolveError struct {
	State  GasState
	Reason string
	Err    error
}

func (e *FlameSolveError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("flamebench: flame solve failed for %v: %s: %v", e.State, e.Reason, e.Err)
	}
	return fmt.Sprintf("flamebench: flame solve failed for %v: %s", e.State, e.Reason)
}

func (e *FlameSolveError) Unwrap() error { return e.Err }

// ParameterError is returned when a derived case parameter is non-finite,
// non-positive, or outside its configured bounds. It is a hard stop for
// the sample: a parameter set that violates stability bounds will not
// become valid on retry.
type ParameterError struct {
	State    GasState
	Quantity string
	Value    float64
	Reason   string
}

func (e *ParameterError) Error() string {
	return fmt.Sprintf("flamebench: invalid case parameter %s=%g for %v: %s",
		e.Quantity, e.Value, e.State, e.Reason)
}

// ArtifactError is returned when case artifact generation fails, either
// because the requested fields do not match the mechanism's species list
// or because of an I/O failure. Generation is all-or-nothing: when an
// ArtifactError is returned no partial case directory is left behind.
type ArtifactError struct {
	Dir    string
	Reason string
	Err    error
}

func (e *ArtifactError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("flamebench: generating case artifacts in %s: %s: %v", e.Dir, e.Reason, e.Err)
	}
	return fmt.Sprintf("flamebench: generating case artifacts in %s: %s", e.Dir, e.Reason)
}

func (e *ArtifactError) Unwrap() error { return e.Err }

// ExternalRunError is returned when the external CFD toolchain exits
// non-zero or is killed while integrating a case.
type ExternalRunError struct {
	Dir      string
	Command  string
	ExitCode int
	Stderr   string
	Err      error
}

func (e *ExternalRunError) Error() string {
	s := fmt.Sprintf("flamebench: external run %q in %s failed (exit %d)", e.Command, e.Dir, e.ExitCode)
	if e.Stderr != "" {
		s += ": " + e.Stderr
	}
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	return s
}

func (e *ExternalRunError) Unwrap() error { return e.Err }

// CollectionError is returned when expected solver output is missing or
// malformed after a run claimed to complete successfully.
type CollectionError struct {
	Dir    string
	Reason string
	Err    error
}

func (e *CollectionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("flamebench: collecting results from %s: %s: %v", e.Dir, e.Reason, e.Err)
	}
	return fmt.Sprintf("flamebench: collecting results from %s: %s", e.Dir, e.Reason)
}

func (e *CollectionError) Unwrap() error { return e.Err }
