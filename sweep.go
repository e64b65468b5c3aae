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
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/combustsim/flamebench/internal/hash"
)

// SweepConfig describes one parameter sweep: the mechanism, the swept
// gas-state grid, and where to put intermediate cases and collected
// datasets.
type SweepConfig struct {
	// MechanismPath is the chemical-kinetics mechanism file.
	MechanismPath string

	// Fuel and Oxidizer are mole-fraction composition strings shared
	// by every sweep point, e.g. "H2:1" and "O2:0.21,N2:0.79".
	Fuel     string
	Oxidizer string

	// EquivalenceRatios, Temperatures [K] and Pressures [Pa] span the
	// sweep grid; one sample is generated for each combination.
	EquivalenceRatios []float64
	Temperatures      []float64
	Pressures         []float64

	// States, if non-empty, is used directly instead of the grid.
	States []GasState

	// WorkDir holds the per-sample case directories.
	WorkDir string

	// OutputDir receives one dataset file per collected sample.
	OutputDir string

	// MaxConcurrent bounds the number of samples processed at once.
	// Zero or negative means runtime.GOMAXPROCS(0).
	MaxConcurrent int

	// KeepCases preserves case directories after successful
	// collection; by default they are deleted to bound disk use.
	KeepCases bool

	// CollectWait bounds how long collection waits for solver output
	// to appear on disk.
	CollectWait time.Duration

	// Derive holds the case-parameter derivation factors.
	Derive DeriveConfig
}

// GasStates expands the configuration into the list of sweep points.
// When States is set it wins; otherwise the cartesian product of
// temperatures, pressures and equivalence ratios is generated, varying
// equivalence ratio fastest.
func (c *SweepConfig) GasStates() []GasState {
	if len(c.States) > 0 {
		return append([]GasState{}, c.States...)
	}
	var states []GasState
	for _, t := range c.Temperatures {
		for _, p := range c.Pressures {
			for _, φ := range c.EquivalenceRatios {
				states = append(states, GasState{
					InitialTemperature:  t,
					InitialPressure:     p,
					FuelComposition:     c.Fuel,
					OxidizerComposition: c.Oxidizer,
					EquivalenceRatio:    φ,
				})
			}
		}
	}
	return states
}

// check validates the parts of the configuration the sweep itself
// depends on; the derivation factors are checked by Derive.
func (c *SweepConfig) check() error {
	if c.MechanismPath == "" {
		return fmt.Errorf("flamebench: sweep config: mechanism path is empty")
	}
	if c.WorkDir == "" {
		return fmt.Errorf("flamebench: sweep config: work directory is empty")
	}
	if c.OutputDir == "" {
		return fmt.Errorf("flamebench: sweep config: output directory is empty")
	}
	if len(c.GasStates()) == 0 {
		return fmt.Errorf("flamebench: sweep config: no gas states to sweep")
	}
	for i, s := range c.GasStates() {
		if err := s.Check(); err != nil {
			return fmt.Errorf("flamebench: sweep config: state %d: %v", i, err)
		}
	}
	return nil
}

// A SampleFailure summarizes one failed sample for reporting.
type SampleFailure struct {
	Index      int
	State      GasState
	Stage      string
	Diagnostic string
}

// A SweepSummary reports the outcome of one sweep run.
type SweepSummary struct {
	// Attempted is the number of samples whose processing started.
	Attempted int

	// Succeeded is the number of samples collected into datasets.
	Succeeded int

	// Failed is the number of samples that failed in some stage.
	Failed int

	// NotAttempted is the number of samples never started, typically
	// because the sweep was canceled first.
	NotAttempted int

	Failures []SampleFailure

	// Records holds the final record for every sample, in sweep order.
	Records []*SampleRecord
}

// A Sweep orchestrates processing a grid of gas states into collected
// flame datasets. The solver and runner are injected so the sweep logic
// is testable without external binaries.
type Sweep struct {
	Config SweepConfig

	Solver FlameSolver
	Runner CaseRunner

	Log *logrus.Logger

	mech *Mechanism
}

// NewSweep loads the configured mechanism and validates the
// configuration. A mechanism that fails to load is fatal: no sample
// could succeed without it.
func NewSweep(cfg SweepConfig, solver FlameSolver, runner CaseRunner, log *logrus.Logger) (*Sweep, error) {
	if err := cfg.check(); err != nil {
		return nil, err
	}
	if err := cfg.Derive.Check(); err != nil {
		return nil, err
	}
	if solver == nil {
		return nil, fmt.Errorf("flamebench: sweep requires a flame solver")
	}
	if runner == nil {
		return nil, fmt.Errorf("flamebench: sweep requires a case runner")
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	mech, err := LoadMechanism(cfg.MechanismPath)
	if err != nil {
		return nil, err
	}
	return &Sweep{Config: cfg, Solver: solver, Runner: runner, Log: log, mech: mech}, nil
}

// Mechanism returns the loaded mechanism.
func (s *Sweep) Mechanism() *Mechanism { return s.mech }

// Run processes every sweep point and returns a summary. Sample
// failures are isolated: a failed sample is recorded and the sweep
// continues. Canceling the context stops new samples from starting and
// interrupts in-flight external processes; samples never started are
// reported as not attempted.
func (s *Sweep) Run(ctx context.Context) (*SweepSummary, error) {
	states := s.Config.GasStates()
	records := make([]*SampleRecord, len(states))
	for i, st := range states {
		records[i] = &SampleRecord{Index: i, State: st}
	}

	if err := os.MkdirAll(s.Config.WorkDir, 0755); err != nil {
		return nil, fmt.Errorf("flamebench: creating work directory: %v", err)
	}
	if err := os.MkdirAll(s.Config.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("flamebench: creating output directory: %v", err)
	}

	nWorkers := s.Config.MaxConcurrent
	if nWorkers <= 0 {
		nWorkers = runtime.GOMAXPROCS(0)
	}
	if nWorkers > len(records) {
		nWorkers = len(records)
	}

	// The job channel is buffered to hold the whole sweep so dispatch
	// never blocks and cancellation cannot deadlock the dispatcher.
	jobChan := make(chan *SampleRecord, len(records))
	for _, rec := range records {
		jobChan <- rec
	}
	close(jobChan)

	var wg sync.WaitGroup
	for w := 0; w < nWorkers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for rec := range jobChan {
				if ctx.Err() != nil {
					rec.Canceled = true
					continue
				}
				s.processSample(ctx, rec)
			}
		}()
	}
	wg.Wait()

	summary := &SweepSummary{Records: records}
	for _, rec := range records {
		switch {
		case rec.Status == Pending:
			summary.NotAttempted++
		case rec.Status == Collected:
			summary.Attempted++
			summary.Succeeded++
		default:
			summary.Attempted++
			summary.Failed++
			diag := ""
			if rec.Err != nil {
				diag = rec.Err.Error()
			}
			summary.Failures = append(summary.Failures, SampleFailure{
				Index: rec.Index, State: rec.State, Stage: rec.Stage, Diagnostic: diag,
			})
		}
	}
	s.Log.WithFields(logrus.Fields{
		"attempted":     summary.Attempted,
		"succeeded":     summary.Succeeded,
		"failed":        summary.Failed,
		"not_attempted": summary.NotAttempted,
	}).Info("sweep finished")
	return summary, ctx.Err()
}

// processSample runs one sample through the full pipeline, recording
// the outcome in rec. All failures terminate in RunFailed with the
// stage and diagnostic filled in.
func (s *Sweep) processSample(ctx context.Context, rec *SampleRecord) {
	log := s.Log.WithFields(logrus.Fields{
		"sample": rec.Index,
		"state":  rec.State.String(),
	})
	log.Info("processing sample")

	markCanceled := func() bool {
		if ctx.Err() != nil {
			rec.Canceled = true
			return true
		}
		return false
	}

	props, err := s.Solver.Solve(ctx, s.mech, rec.State)
	if err != nil {
		rec.fail("solve", err)
		if !markCanceled() {
			log.WithError(err).Warn("flame solve failed")
		}
		return
	}
	rec.Properties = props
	rec.advance(Solved)

	params, err := Derive(props, rec.State, s.Config.MechanismPath, s.Config.Derive)
	if err != nil {
		rec.fail("derive", err)
		log.WithError(err).Warn("parameter derivation failed")
		return
	}
	rec.Parameters = params

	dir := filepath.Join(s.Config.WorkDir, "case_"+hash.Hash(rec.State))
	if _, err := GenerateCase(params, rec.State, s.mech, dir); err != nil {
		rec.fail("artifact", err)
		log.WithError(err).Warn("artifact generation failed")
		return
	}
	rec.Dir = dir
	rec.advance(ArtifactWritten)

	if err := s.Runner.Run(ctx, dir); err != nil {
		rec.fail("run", err)
		if !markCanceled() {
			log.WithError(err).Warn("external run failed")
		}
		return
	}
	if markCanceled() {
		// The run may have been killed mid-integration; do not report
		// a canceled run as a success.
		rec.fail("run", ctx.Err())
		return
	}
	rec.advance(RunSucceeded)

	collector := &Collector{
		Variables:   FieldVariables(s.mech),
		WaitTimeout: s.Config.CollectWait,
		Log:         s.Log,
	}
	data, err := collector.Collect(ctx, dir, params.CellCount)
	if err != nil {
		rec.fail("collect", err)
		if !markCanceled() {
			log.WithError(err).Warn("collection failed")
		}
		return
	}

	out := filepath.Join(s.Config.OutputDir, "sample_"+hash.Hash(rec.State)+".nc")
	if err := WriteSampleDataset(out, rec, data); err != nil {
		rec.fail("collect", err)
		log.WithError(err).Warn("writing dataset failed")
		return
	}
	rec.OutputPath = out
	rec.advance(Collected)

	if !s.Config.KeepCases {
		if err := os.RemoveAll(dir); err != nil {
			log.WithError(err).Warn("removing case directory")
		} else {
			rec.Dir = ""
		}
	}
	log.WithField("output", out).Info("sample collected")
}
