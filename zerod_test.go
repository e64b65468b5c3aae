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
	"os"
	"testing"

	"github.com/ctessum/sparse"
)

// fakeBatchEngine produces a short synthetic ignition trace.
func fakeBatchEngine() BatchEngine {
	return BatchEngineFunc(func(ctx context.Context, mech *Mechanism, state GasState, duration float64) (*FlameData, error) {
		d := &FlameData{
			Times:     []float64{duration / 2, duration},
			Cells:     1,
			Variables: FieldVariables(mech),
		}
		d.Data = sparse.ZerosDense(2, 1, len(d.Variables))
		for it := range d.Times {
			d.Data.Set(state.InitialTemperature+float64(it)*500, it, 0, 0)
			d.Data.Set(state.InitialPressure, it, 0, 1)
		}
		return d, nil
	})
}

func TestZeroDSamplerRun(t *testing.T) {
	cfg := testSweepConfig(t)
	sampler, err := NewZeroDSampler(cfg, 1.e-3, fakeBatchEngine(), testLogger())
	if err != nil {
		t.Fatal(err)
	}
	summary, err := sampler.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if summary.Succeeded != 3 || summary.Failed != 0 {
		t.Fatalf("summary: %+v", summary)
	}
	for _, rec := range summary.Records {
		if rec.Status != Collected {
			t.Errorf("sample %d: status %v", rec.Index, rec.Status)
		}
		if _, err := os.Stat(rec.OutputPath); err != nil {
			t.Errorf("sample %d: dataset missing: %v", rec.Index, err)
		}
		data, meta, err := ReadSampleDataset(rec.OutputPath)
		if err != nil {
			t.Fatal(err)
		}
		if data.Cells != 1 {
			t.Errorf("sample %d: cells %d, want 1", rec.Index, data.Cells)
		}
		if meta.EquivalenceRatio != rec.State.EquivalenceRatio {
			t.Errorf("sample %d: provenance φ %g, want %g",
				rec.Index, meta.EquivalenceRatio, rec.State.EquivalenceRatio)
		}
	}
}

func TestZeroDSamplerFailureIsolation(t *testing.T) {
	cfg := testSweepConfig(t)
	engine := BatchEngineFunc(func(ctx context.Context, mech *Mechanism, state GasState, duration float64) (*FlameData, error) {
		if state.EquivalenceRatio > 1.1 {
			return nil, &FlameSolveError{State: state, Reason: "stiff integration failed"}
		}
		return fakeBatchEngine().Simulate(ctx, mech, state, duration)
	})
	sampler, err := NewZeroDSampler(cfg, 1.e-3, engine, testLogger())
	if err != nil {
		t.Fatal(err)
	}
	summary, err := sampler.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if summary.Succeeded != 2 || summary.Failed != 1 {
		t.Fatalf("summary: %+v", summary)
	}
	if summary.Failures[0].Stage != "solve" {
		t.Errorf("failure stage: got %s", summary.Failures[0].Stage)
	}
}

func TestZeroDSamplerCancellation(t *testing.T) {
	cfg := testSweepConfig(t)
	sampler, err := NewZeroDSampler(cfg, 1.e-3, fakeBatchEngine(), testLogger())
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	summary, err := sampler.Run(ctx)
	if err == nil {
		t.Error("expected a context error")
	}
	if summary.NotAttempted != 3 {
		t.Errorf("not attempted: got %d, want 3", summary.NotAttempted)
	}
}

func TestNewZeroDSamplerValidation(t *testing.T) {
	cfg := testSweepConfig(t)
	if _, err := NewZeroDSampler(cfg, 0, fakeBatchEngine(), testLogger()); err == nil {
		t.Error("expected error for zero duration")
	}
	if _, err := NewZeroDSampler(cfg, 1.e-3, nil, testLogger()); err == nil {
		t.Error("expected error for missing engine")
	}
}

func TestBatchToFlameDataValidation(t *testing.T) {
	m, err := LoadMechanism(testMechanism)
	if err != nil {
		t.Fatal(err)
	}
	sol := &batchSolution{
		Times:     []float64{1.e-4, 2.e-4},
		Variables: map[string][]float64{},
	}
	for _, v := range FieldVariables(m) {
		sol.Variables[v] = []float64{1, 2}
	}
	if _, err := batchToFlameData(testGasState(), m, sol); err != nil {
		t.Error(err)
	}

	// Missing variable.
	delete(sol.Variables, "OH")
	if _, err := batchToFlameData(testGasState(), m, sol); err == nil {
		t.Error("expected error for missing variable")
	}

	// Length mismatch.
	sol.Variables["OH"] = []float64{1}
	if _, err := batchToFlameData(testGasState(), m, sol); err == nil {
		t.Error("expected error for series length mismatch")
	}
}
