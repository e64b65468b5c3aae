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
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/ctessum/sparse"
	"github.com/sirupsen/logrus"

	"github.com/combustsim/flamebench/internal/hash"
)

// A BatchEngine integrates a zero-dimensional constant-pressure
// reactor: no transport, no mesh, just chemistry in a well-stirred
// batch. It is the cheap companion to the 1D flame pipeline for
// generating ignition-delay training data.
type BatchEngine interface {
	Simulate(ctx context.Context, mech *Mechanism, state GasState, duration float64) (*FlameData, error)
}

// BatchEngineFunc allows an ordinary function to be used as a
// BatchEngine.
type BatchEngineFunc func(ctx context.Context, mech *Mechanism, state GasState, duration float64) (*FlameData, error)

// Simulate implements BatchEngine.
func (f BatchEngineFunc) Simulate(ctx context.Context, mech *Mechanism, state GasState, duration float64) (*FlameData, error) {
	return f(ctx, mech, state, duration)
}

// ExecBatchEngine invokes an external kinetics engine as a subprocess
// to integrate a 0D reactor, reading a JSON time-series document from
// its standard output.
type ExecBatchEngine struct {
	Command   string
	ExtraArgs []string

	// Timeout bounds one simulation. Zero means no timeout.
	Timeout time.Duration
}

// batchSolution is the JSON document the engine emits: output times
// plus one equal-length series per reported variable.
type batchSolution struct {
	Times     []float64            `json:"times"`
	Variables map[string][]float64 `json:"variables"`
}

// Simulate implements BatchEngine. The result is a single-cell
// FlameData so 0D output shares the dataset format with 1D cases.
func (e *ExecBatchEngine) Simulate(ctx context.Context, mech *Mechanism, state GasState, duration float64) (*FlameData, error) {
	if err := state.Check(); err != nil {
		return nil, &FlameSolveError{State: state, Reason: "invalid gas state", Err: err}
	}
	if e.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.Timeout)
		defer cancel()
	}

	args := []string{
		"--mechanism", mech.Path,
		"--temperature", fmt.Sprintf("%g", state.InitialTemperature),
		"--pressure", fmt.Sprintf("%g", state.InitialPressure),
		"--fuel", state.FuelComposition,
		"--oxidizer", state.OxidizerComposition,
		"--phi", fmt.Sprintf("%g", state.EquivalenceRatio),
		"--duration", fmt.Sprintf("%g", duration),
		"--format", "json",
	}
	args = append(args, e.ExtraArgs...)

	cmd := exec.CommandContext(ctx, e.Command, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, &FlameSolveError{
			State:  state,
			Reason: fmt.Sprintf("batch engine failed: %s", lastLine(stderr.String())),
			Err:    err,
		}
	}

	var sol batchSolution
	if err := json.Unmarshal(stdout.Bytes(), &sol); err != nil {
		return nil, &FlameSolveError{State: state, Reason: "malformed engine output", Err: err}
	}
	if len(sol.Times) == 0 {
		return nil, &FlameSolveError{State: state, Reason: "engine reported no output times"}
	}
	return batchToFlameData(state, mech, &sol)
}

// batchToFlameData assembles the engine's series into a single-cell
// FlameData with the standard variable ordering.
func batchToFlameData(state GasState, mech *Mechanism, sol *batchSolution) (*FlameData, error) {
	d := &FlameData{
		Times:     sol.Times,
		Cells:     1,
		Variables: FieldVariables(mech),
	}
	d.Data = sparse.ZerosDense(len(d.Times), 1, len(d.Variables))
	for iv, v := range d.Variables {
		series, ok := sol.Variables[v]
		if !ok {
			return nil, &FlameSolveError{State: state,
				Reason: fmt.Sprintf("engine output missing variable %s", v)}
		}
		if len(series) != len(sol.Times) {
			return nil, &FlameSolveError{State: state,
				Reason: fmt.Sprintf("variable %s has %d values for %d times", v, len(series), len(sol.Times))}
		}
		for it, val := range series {
			d.Data.Set(val, it, 0, iv)
		}
	}
	return d, nil
}

// A ZeroDSampler sweeps gas states through 0D batch-reactor
// simulations. Simulations run sequentially: each one is short and the
// external engine is typically already multithreaded.
type ZeroDSampler struct {
	Config SweepConfig

	// Duration is the simulated reactor time per sample [s].
	Duration float64

	Engine BatchEngine

	Log *logrus.Logger

	mech *Mechanism
}

// NewZeroDSampler loads the configured mechanism and validates the
// configuration.
func NewZeroDSampler(cfg SweepConfig, duration float64, engine BatchEngine, log *logrus.Logger) (*ZeroDSampler, error) {
	if err := cfg.check(); err != nil {
		return nil, err
	}
	if !(duration > 0) {
		return nil, fmt.Errorf("flamebench: 0D duration must be positive, got %g", duration)
	}
	if engine == nil {
		return nil, fmt.Errorf("flamebench: 0D sampler requires a batch engine")
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	mech, err := LoadMechanism(cfg.MechanismPath)
	if err != nil {
		return nil, err
	}
	return &ZeroDSampler{Config: cfg, Duration: duration, Engine: engine, Log: log, mech: mech}, nil
}

// Run simulates every sweep point and writes one dataset file per
// sample. Failures are isolated and summarized the same way as a 1D
// sweep; the artifact and run stages do not apply.
func (z *ZeroDSampler) Run(ctx context.Context) (*SweepSummary, error) {
	if err := os.MkdirAll(z.Config.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("flamebench: creating output directory: %v", err)
	}

	states := z.Config.GasStates()
	summary := &SweepSummary{}
	for i, state := range states {
		rec := &SampleRecord{Index: i, State: state}
		summary.Records = append(summary.Records, rec)
		if ctx.Err() != nil {
			rec.Canceled = true
			summary.NotAttempted++
			continue
		}
		summary.Attempted++

		log := z.Log.WithFields(logrus.Fields{"sample": i, "state": state.String()})
		data, err := z.Engine.Simulate(ctx, z.mech, state, z.Duration)
		if err != nil {
			rec.fail("solve", err)
			summary.Failed++
			summary.Failures = append(summary.Failures, SampleFailure{
				Index: i, State: state, Stage: "solve", Diagnostic: err.Error(),
			})
			log.WithError(err).Warn("batch simulation failed")
			continue
		}
		rec.advance(Solved)
		rec.advance(ArtifactWritten)
		rec.advance(RunSucceeded)

		rec.Parameters.MechanismPath = z.Config.MechanismPath
		out := filepath.Join(z.Config.OutputDir, "batch_"+hash.Hash(state)+".nc")
		if err := WriteSampleDataset(out, rec, data); err != nil {
			rec.fail("collect", err)
			summary.Failed++
			summary.Failures = append(summary.Failures, SampleFailure{
				Index: i, State: state, Stage: "collect", Diagnostic: err.Error(),
			})
			log.WithError(err).Warn("writing dataset failed")
			continue
		}
		rec.OutputPath = out
		rec.advance(Collected)
		summary.Succeeded++
		log.WithField("output", out).Info("batch sample collected")
	}
	return summary, ctx.Err()
}
