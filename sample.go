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

// SampleStatus is the lifecycle state of one sample. Transitions are
// strictly monotonic: a sample only ever moves forward through the
// pipeline, and a failed or collected sample is terminal.
type SampleStatus int

const (
	// Pending: the sample has a gas state but no work has started.
	Pending SampleStatus = iota

	// Solved: flame properties exist and passed their validity checks.
	Solved

	// ArtifactWritten: case parameters were derived and the case
	// directory is fully populated.
	ArtifactWritten

	// RunSucceeded: the external CFD run completed with exit status 0.
	RunSucceeded

	// RunFailed: a pipeline stage failed; the record's Err and Stage
	// say which one. Terminal.
	RunFailed

	// Collected: result data was read and stored. Terminal.
	Collected
)

func (s SampleStatus) String() string {
	switch s {
	case Pending:
		return "pending"
	case Solved:
		return "solved"
	case ArtifactWritten:
		return "artifact_written"
	case RunSucceeded:
		return "run_succeeded"
	case RunFailed:
		return "run_failed"
	case Collected:
		return "collected"
	default:
		return fmt.Sprintf("SampleStatus(%d)", int(s))
	}
}

// terminal reports whether no further transition is allowed.
func (s SampleStatus) terminal() bool {
	return s == RunFailed || s == Collected
}

// A SampleRecord tracks one sweep point through the pipeline. Records
// are owned by exactly one worker goroutine while being processed;
// the orchestrator reads them only after the worker is done.
type SampleRecord struct {
	// Index is the sample's position in the sweep's gas-state list.
	Index int

	State      GasState
	Properties FlameProperties
	Parameters CaseParameters

	Status SampleStatus

	// Stage names the pipeline stage a failed sample died in
	// ("solve", "derive", "artifact", "run", "collect").
	Stage string

	// Dir is the sample's case directory; empty until artifacts are
	// written.
	Dir string

	// OutputPath is the dataset file holding the collected data; empty
	// unless Status is Collected.
	OutputPath string

	// Err is the failure diagnostic for a RunFailed sample.
	Err error

	// Canceled marks a sample whose in-flight processing was stopped
	// by sweep cancellation rather than by its own failure.
	Canceled bool
}

// advance moves the record to the next status, enforcing that the
// transition is a legal forward step. It panics on an illegal
// transition: that is always an orchestrator bug, never an input error.
func (r *SampleRecord) advance(next SampleStatus) {
	legal := false
	switch next {
	case Solved:
		legal = r.Status == Pending
	case ArtifactWritten:
		legal = r.Status == Solved
	case RunSucceeded:
		legal = r.Status == ArtifactWritten
	case Collected:
		legal = r.Status == RunSucceeded
	case RunFailed:
		legal = !r.Status.terminal()
	}
	if !legal {
		panic(fmt.Sprintf("flamebench: illegal sample transition %v → %v for sample %d",
			r.Status, next, r.Index))
	}
	r.Status = next
}

// fail marks the record as terminally failed in the named stage.
func (r *SampleRecord) fail(stage string, err error) {
	r.Stage = stage
	r.Err = err
	r.advance(RunFailed)
}
