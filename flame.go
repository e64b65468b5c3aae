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
	"math"
	"os/exec"
	"strings"
	"time"

	"gonum.org/v1/gonum/floats"
)

// FlameProperties are the physical properties of a solved steady 1D
// laminar premixed flame. They are derived quantities: they exist only
// for the duration of one sample's processing and are never set
// independently.
type FlameProperties struct {
	FlameSpeed     float64 `desc:"Laminar flame speed" units:"m/s"`
	FlameThickness float64 `desc:"Flame thickness" units:"m"`

	UnburnedTemperature float64 `desc:"Unburned-side temperature" units:"K"`
	BurnedTemperature   float64 `desc:"Burned-side temperature" units:"K"`

	// SolverLog holds diagnostic output from the external solve.
	SolverLog string
}

// Check returns an error if the properties are not physically valid.
// Both flame speed and thickness must be finite and positive before any
// downstream stage may run.
func (p FlameProperties) Check() error {
	for _, v := range []struct {
		name string
		val  float64
	}{
		{"flame speed", p.FlameSpeed},
		{"flame thickness", p.FlameThickness},
	} {
		if math.IsNaN(v.val) || math.IsInf(v.val, 0) || v.val <= 0 {
			return fmt.Errorf("flamebench: %s must be finite and positive, got %g", v.name, v.val)
		}
	}
	return nil
}

// FlameSolver obtains laminar flame properties for a gas state by
// solving a steady 1D premixed flame. Implementations must normalize
// every failure mode (non-convergence, crash, non-physical output) to a
// *FlameSolveError. There are no retries at this layer: a chemistry and
// state combination that does not converge will not converge on retry.
type FlameSolver interface {
	Solve(ctx context.Context, mech *Mechanism, state GasState) (FlameProperties, error)
}

// FlameSolverFunc allows an ordinary function to be used as a
// FlameSolver.
type FlameSolverFunc func(ctx context.Context, mech *Mechanism, state GasState) (FlameProperties, error)

// Solve implements FlameSolver.
func (f FlameSolverFunc) Solve(ctx context.Context, mech *Mechanism, state GasState) (FlameProperties, error) {
	return f(ctx, mech, state)
}

// ThicknessDefinition selects how flame thickness is computed from a
// solved flame. The choice propagates into domain and timestep bounds,
// so it is configuration, not a hardcoded constant.
type ThicknessDefinition string

const (
	// ThermalThickness is δ = (T_burned − T_unburned) / max|dT/dx|,
	// computed from the solved temperature profile.
	ThermalThickness ThicknessDefinition = "thermal"

	// ReportedThickness uses the thickness value reported by the
	// external solver without recomputing it from the profile.
	ReportedThickness ThicknessDefinition = "reported"
)

// ExecFlameSolver invokes an external chemical-kinetics engine as a
// subprocess to solve a steady 1D premixed flame. The engine is expected
// to print a JSON solution document to standard output.
type ExecFlameSolver struct {
	// Command is the kinetics engine executable.
	Command string

	// ExtraArgs are appended to the generated argument list.
	ExtraArgs []string

	// Thickness selects the flame thickness definition.
	// The default is ThermalThickness.
	Thickness ThicknessDefinition

	// Timeout bounds one solve. Zero means no timeout.
	Timeout time.Duration
}

// flameSolution is the JSON document the kinetics engine emits.
type flameSolution struct {
	Converged      bool      `json:"converged"`
	Message        string    `json:"message"`
	FlameSpeed     float64   `json:"flame_speed"`
	FlameThickness float64   `json:"flame_thickness"`
	Grid           []float64 `json:"grid"`
	Temperature    []float64 `json:"temperature"`
}

// Solve implements FlameSolver. A non-zero engine exit status,
// a non-convergence report, or non-physical output all yield a
// *FlameSolveError carrying the offending gas state.
func (s *ExecFlameSolver) Solve(ctx context.Context, mech *Mechanism, state GasState) (FlameProperties, error) {
	if err := state.Check(); err != nil {
		return FlameProperties{}, &FlameSolveError{State: state, Reason: "invalid gas state", Err: err}
	}
	if s.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}

	args := []string{
		"--mechanism", mech.Path,
		"--temperature", fmt.Sprintf("%g", state.InitialTemperature),
		"--pressure", fmt.Sprintf("%g", state.InitialPressure),
		"--fuel", state.FuelComposition,
		"--oxidizer", state.OxidizerComposition,
		"--phi", fmt.Sprintf("%g", state.EquivalenceRatio),
		"--format", "json",
	}
	args = append(args, s.ExtraArgs...)

	cmd := exec.CommandContext(ctx, s.Command, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return FlameProperties{}, &FlameSolveError{
			State:  state,
			Reason: fmt.Sprintf("kinetics engine failed: %s", lastLine(stderr.String())),
			Err:    err,
		}
	}

	var sol flameSolution
	if err := json.Unmarshal(stdout.Bytes(), &sol); err != nil {
		return FlameProperties{}, &FlameSolveError{State: state, Reason: "malformed engine output", Err: err}
	}
	if !sol.Converged {
		return FlameProperties{}, &FlameSolveError{State: state, Reason: "solver did not converge: " + sol.Message}
	}

	props := FlameProperties{
		FlameSpeed: sol.FlameSpeed,
		SolverLog:  strings.TrimSpace(stderr.String()),
	}
	if len(sol.Temperature) > 0 {
		props.UnburnedTemperature = sol.Temperature[0]
		props.BurnedTemperature = sol.Temperature[len(sol.Temperature)-1]
	}

	switch s.Thickness {
	case ReportedThickness:
		props.FlameThickness = sol.FlameThickness
	case ThermalThickness, "":
		δ, err := thermalThickness(sol.Grid, sol.Temperature)
		if err != nil {
			return FlameProperties{}, &FlameSolveError{State: state, Reason: "computing flame thickness", Err: err}
		}
		props.FlameThickness = δ
	default:
		return FlameProperties{}, &FlameSolveError{State: state,
			Reason: fmt.Sprintf("unknown thickness definition %q", s.Thickness)}
	}

	if err := props.Check(); err != nil {
		return FlameProperties{}, &FlameSolveError{State: state, Reason: "non-physical solution", Err: err}
	}
	return props, nil
}

// thermalThickness computes the thermal-gradient flame thickness
// δ = (T_burned − T_unburned) / max|dT/dx| from a solved temperature
// profile on a (possibly nonuniform) grid.
func thermalThickness(x, T []float64) (float64, error) {
	if len(x) != len(T) {
		return 0, fmt.Errorf("grid and temperature lengths differ: %d != %d", len(x), len(T))
	}
	if len(x) < 3 {
		return 0, fmt.Errorf("profile too short to differentiate: %d points", len(x))
	}
	if floats.HasNaN(x) || floats.HasNaN(T) {
		return 0, fmt.Errorf("profile contains NaN values")
	}

	// Central differences in the interior, one-sided at the ends.
	grad := make([]float64, len(x))
	for i := range x {
		switch i {
		case 0:
			grad[i] = math.Abs((T[1] - T[0]) / (x[1] - x[0]))
		case len(x) - 1:
			grad[i] = math.Abs((T[i] - T[i-1]) / (x[i] - x[i-1]))
		default:
			grad[i] = math.Abs((T[i+1] - T[i-1]) / (x[i+1] - x[i-1]))
		}
	}
	maxGrad := floats.Max(grad)
	if maxGrad <= 0 || math.IsNaN(maxGrad) || math.IsInf(maxGrad, 0) {
		return 0, fmt.Errorf("temperature profile has no usable gradient")
	}
	ΔT := T[len(T)-1] - T[0]
	if ΔT <= 0 {
		return 0, fmt.Errorf("burned temperature %g not above unburned %g", T[len(T)-1], T[0])
	}
	return ΔT / maxGrad, nil
}

// lastLine returns the last non-empty line of s, for use in one-line
// diagnostics.
func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if l := strings.TrimSpace(lines[i]); l != "" {
			return l
		}
	}
	return ""
}
