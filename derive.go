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
	"fmt"
	"math"
)

// CaseParameters is the complete numerical specification of one CFD
// case. It is created once per sample by Derive and consumed read-only
// afterward.
type CaseParameters struct {
	DomainLength float64 `desc:"Length of the 1D domain" units:"m"`
	CellSpacing  float64 `desc:"Uniform cell spacing" units:"m"`
	CellCount    int     `desc:"Number of cells in the domain"`

	Timestep    float64 `desc:"Fixed integration timestep" units:"s"`
	RunDuration float64 `desc:"Total simulated time" units:"s"`

	// WriteInterval is the number of timesteps between field writes.
	WriteInterval int

	// FlamePosition is the location of the hot/cold interface used to
	// ignite the flame; the burned region spans [0, FlamePosition].
	FlamePosition float64 `desc:"Initial burned/unburned interface" units:"m"`

	// MechanismPath points the solver's run control at the mechanism.
	MechanismPath string
}

// DeriveConfig holds the fixed safety factors that convert flame
// properties into stable case parameters. The zero value is not usable;
// start from DefaultDeriveConfig.
type DeriveConfig struct {
	// DomainThicknessRatio (K) sets the domain length as a multiple of
	// the flame thickness, so the reaction and preheat zones sit well
	// away from the boundaries.
	DomainThicknessRatio float64

	// CellsPerThickness (M) sets the minimum number of cells resolving
	// one flame thickness.
	CellsPerThickness float64

	// CFLSafetyFactor scales the advective-diffusive stability bound
	// down to the timestep actually used. It must be in (0, 1].
	CFLSafetyFactor float64

	// TransitMultiplier sets the run duration as a multiple of the
	// domain transit time domain_length/flame_speed.
	TransitMultiplier float64

	// MinDomainLength is a floor on the domain length [m].
	// Zero disables the floor.
	MinDomainLength float64

	// MaxCellCount rejects cases whose mesh would be excessively
	// expensive to integrate.
	MaxCellCount int

	// WriteInterval is the number of timesteps between field writes.
	WriteInterval int
}

// DefaultDeriveConfig returns the derivation factors used when the
// configuration does not override them.
func DefaultDeriveConfig() DeriveConfig {
	return DeriveConfig{
		DomainThicknessRatio: 50,
		CellsPerThickness:    10,
		CFLSafetyFactor:      0.4,
		TransitMultiplier:    1.5,
		MaxCellCount:         200000,
		WriteInterval:        100,
	}
}

// Check returns an error if the configuration cannot produce stable
// parameters.
func (c DeriveConfig) Check() error {
	if !(c.DomainThicknessRatio >= 1) {
		return fmt.Errorf("flamebench: DomainThicknessRatio must be ≥ 1, got %g", c.DomainThicknessRatio)
	}
	if !(c.CellsPerThickness >= 1) {
		return fmt.Errorf("flamebench: CellsPerThickness must be ≥ 1, got %g", c.CellsPerThickness)
	}
	if !(c.CFLSafetyFactor > 0 && c.CFLSafetyFactor <= 1) {
		return fmt.Errorf("flamebench: CFLSafetyFactor must be in (0, 1], got %g", c.CFLSafetyFactor)
	}
	if !(c.TransitMultiplier >= 1) {
		return fmt.Errorf("flamebench: TransitMultiplier must be ≥ 1, got %g", c.TransitMultiplier)
	}
	if c.MinDomainLength < 0 {
		return fmt.Errorf("flamebench: MinDomainLength must be ≥ 0, got %g", c.MinDomainLength)
	}
	if c.MaxCellCount < 1 {
		return fmt.Errorf("flamebench: MaxCellCount must be ≥ 1, got %d", c.MaxCellCount)
	}
	if c.WriteInterval < 1 {
		return fmt.Errorf("flamebench: WriteInterval must be ≥ 1, got %d", c.WriteInterval)
	}
	return nil
}

// Derive converts solved flame properties into a complete case
// specification. It is a pure function of its inputs: identical inputs
// always produce bit-identical parameters, and it performs no I/O.
//
// The timestep is bounded by the Courant–Friedrichs–Lewy condition for
// advection and by Von Neumann stability for diffusion, whichever is
// smaller, using α ≈ S_L·δ as the diffusivity of the flame (the laminar
// flame scaling relation), then scaled by the configured safety factor.
func Derive(props FlameProperties, state GasState, mechPath string, cfg DeriveConfig) (CaseParameters, error) {
	if err := cfg.Check(); err != nil {
		return CaseParameters{}, err
	}
	if err := props.Check(); err != nil {
		return CaseParameters{}, &ParameterError{State: state, Quantity: "flame_properties",
			Reason: err.Error()}
	}
	sL := props.FlameSpeed
	δ := props.FlameThickness

	domainLength := math.Max(cfg.MinDomainLength, cfg.DomainThicknessRatio*δ)

	// Resolve the flame with at least CellsPerThickness cells, then
	// round the count up so the mesh divides the domain evenly.
	cellCount := int(math.Ceil(domainLength / (δ / cfg.CellsPerThickness)))
	if cellCount > cfg.MaxCellCount {
		return CaseParameters{}, &ParameterError{State: state, Quantity: "cell_count",
			Value:  float64(cellCount),
			Reason: fmt.Sprintf("exceeds configured ceiling %d", cfg.MaxCellCount)}
	}
	Δx := domainLength / float64(cellCount)

	α := sL * δ // diffusivity proxy [m²/s]
	dtDiffusive := Δx * Δx / (2 * α)
	dtAdvective := Δx / sL
	timestep := cfg.CFLSafetyFactor * math.Min(dtDiffusive, dtAdvective)

	runDuration := cfg.TransitMultiplier * domainLength / sL

	p := CaseParameters{
		DomainLength:  domainLength,
		CellSpacing:   Δx,
		CellCount:     cellCount,
		Timestep:      timestep,
		RunDuration:   runDuration,
		WriteInterval: cfg.WriteInterval,
		FlamePosition: domainLength / 2,
		MechanismPath: mechPath,
	}
	if err := p.check(state); err != nil {
		return CaseParameters{}, err
	}
	return p, nil
}

// check verifies every derived quantity is finite and positive and that
// the parameter set satisfies its own stability and resolution
// invariants.
func (p CaseParameters) check(state GasState) error {
	for _, v := range []struct {
		name string
		val  float64
	}{
		{"domain_length", p.DomainLength},
		{"cell_spacing", p.CellSpacing},
		{"cell_count", float64(p.CellCount)},
		{"timestep", p.Timestep},
		{"run_duration", p.RunDuration},
		{"flame_position", p.FlamePosition},
	} {
		if math.IsNaN(v.val) || math.IsInf(v.val, 0) || v.val <= 0 {
			return &ParameterError{State: state, Quantity: v.name, Value: v.val,
				Reason: "must be finite and positive"}
		}
	}
	if p.FlamePosition >= p.DomainLength {
		return &ParameterError{State: state, Quantity: "flame_position", Value: p.FlamePosition,
			Reason: fmt.Sprintf("not inside domain of length %g", p.DomainLength)}
	}
	return nil
}

// TransitTime returns the time for the flame to cross the domain at
// speed sL.
func (p CaseParameters) TransitTime(sL float64) float64 {
	return p.DomainLength / sL
}

// Steps returns the number of timesteps the run will integrate.
func (p CaseParameters) Steps() int {
	return int(math.Ceil(p.RunDuration / p.Timestep))
}
