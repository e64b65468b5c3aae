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
	"sort"
	"strconv"
	"strings"
)

// GasState is the thermochemical state of the unburned mixture for one
// sample. It is immutable: one instance is generated per sweep point and
// passed by value through the pipeline.
type GasState struct {
	InitialTemperature float64 `desc:"Unburned gas temperature" units:"K"`
	InitialPressure    float64 `desc:"Unburned gas pressure" units:"Pa"`

	// FuelComposition and OxidizerComposition are mole-fraction
	// composition strings, e.g. "H2:1" and "O2:0.21,N2:0.79".
	FuelComposition     string
	OxidizerComposition string

	// EquivalenceRatio is the fuel/oxidizer equivalence ratio φ.
	EquivalenceRatio float64
}

func (s GasState) String() string {
	return fmt.Sprintf("{φ=%g T=%gK P=%gPa fuel=%s oxidizer=%s}",
		s.EquivalenceRatio, s.InitialTemperature, s.InitialPressure,
		s.FuelComposition, s.OxidizerComposition)
}

// Check returns an error if the gas state is not physically meaningful.
func (s GasState) Check() error {
	if !(s.InitialTemperature > 0) || math.IsInf(s.InitialTemperature, 0) {
		return fmt.Errorf("flamebench: initial temperature must be positive, got %g", s.InitialTemperature)
	}
	if !(s.InitialPressure > 0) || math.IsInf(s.InitialPressure, 0) {
		return fmt.Errorf("flamebench: initial pressure must be positive, got %g", s.InitialPressure)
	}
	if !(s.EquivalenceRatio > 0) || math.IsInf(s.EquivalenceRatio, 0) {
		return fmt.Errorf("flamebench: equivalence ratio must be positive, got %g", s.EquivalenceRatio)
	}
	if _, err := ParseComposition(s.FuelComposition); err != nil {
		return fmt.Errorf("flamebench: fuel composition: %v", err)
	}
	if _, err := ParseComposition(s.OxidizerComposition); err != nil {
		return fmt.Errorf("flamebench: oxidizer composition: %v", err)
	}
	return nil
}

// Composition holds normalized mole or mass fractions keyed by species
// name.
type Composition map[string]float64

// Species returns the species names in the composition, sorted.
func (c Composition) Species() []string {
	o := make([]string, 0, len(c))
	for name := range c {
		o = append(o, name)
	}
	sort.Strings(o)
	return o
}

// ParseComposition parses a composition string of the form
// "O2:0.21,N2:0.79" into normalized mole fractions. Amounts are relative;
// they need not sum to one. Fractions must be non-negative and at least
// one must be positive.
func ParseComposition(s string) (Composition, error) {
	if strings.TrimSpace(s) == "" {
		return nil, fmt.Errorf("empty composition string")
	}
	c := make(Composition)
	var total float64
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		kv := strings.SplitN(part, ":", 2)
		name := strings.TrimSpace(kv[0])
		if name == "" {
			return nil, fmt.Errorf("missing species name in %q", part)
		}
		amount := 1.0
		if len(kv) == 2 {
			var err error
			amount, err = strconv.ParseFloat(strings.TrimSpace(kv[1]), 64)
			if err != nil {
				return nil, fmt.Errorf("invalid amount for species %s: %v", name, err)
			}
		}
		if amount < 0 || math.IsNaN(amount) || math.IsInf(amount, 0) {
			return nil, fmt.Errorf("species %s has invalid amount %g", name, amount)
		}
		c[name] += amount
		total += amount
	}
	if total <= 0 {
		return nil, fmt.Errorf("composition %q has no positive amounts", s)
	}
	for name := range c {
		c[name] /= total
	}
	return c, nil
}

// MixtureMoleFractions combines the fuel and oxidizer compositions of
// state at its equivalence ratio into normalized mole fractions of the
// unburned mixture. The stoichiometric oxygen requirement is computed
// from the elemental composition of the fuel species (C→CO2, H→H2O,
// S→SO2), so every fuel and oxidizer species must be declared by the
// mechanism.
func (m *Mechanism) MixtureMoleFractions(state GasState) (Composition, error) {
	if err := state.Check(); err != nil {
		return nil, err
	}
	fuel, err := ParseComposition(state.FuelComposition)
	if err != nil {
		return nil, fmt.Errorf("flamebench: fuel composition: %v", err)
	}
	oxidizer, err := ParseComposition(state.OxidizerComposition)
	if err != nil {
		return nil, fmt.Errorf("flamebench: oxidizer composition: %v", err)
	}
	for _, c := range []Composition{fuel, oxidizer} {
		for name := range c {
			if !m.HasSpecies(name) {
				return nil, fmt.Errorf("flamebench: mechanism %s does not declare species %q", m.Path, name)
			}
		}
	}

	// Moles of O2 needed to burn one mole of the fuel mixture.
	var o2Demand float64
	for name, x := range fuel {
		o2Demand += x * m.species[name].oxygenDemand()
	}
	if o2Demand <= 0 {
		return nil, fmt.Errorf("flamebench: fuel %q has no oxygen demand; cannot apply an equivalence ratio", state.FuelComposition)
	}
	xO2 := oxidizer["O2"]
	if xO2 <= 0 {
		return nil, fmt.Errorf("flamebench: oxidizer %q contains no O2", state.OxidizerComposition)
	}

	// φ scales the fuel-to-oxidizer ratio relative to stoichiometric:
	// for one mole of fuel mixture, supply o2Demand/φ moles of O2.
	oxidizerMoles := o2Demand / (state.EquivalenceRatio * xO2)

	mix := make(Composition)
	for name, x := range fuel {
		mix[name] += x
	}
	for name, x := range oxidizer {
		mix[name] += x * oxidizerMoles
	}
	var total float64
	for _, x := range mix {
		total += x
	}
	for name := range mix {
		mix[name] /= total
	}
	return mix, nil
}

// MixtureMassFractions returns the unburned-mixture composition of state
// as normalized mass fractions, using the mechanism's molecular weights.
func (m *Mechanism) MixtureMassFractions(state GasState) (Composition, error) {
	moles, err := m.MixtureMoleFractions(state)
	if err != nil {
		return nil, err
	}
	mass := make(Composition, len(moles))
	var total float64
	for name, x := range moles {
		mw, err := m.MolecularWeight(name)
		if err != nil {
			return nil, err
		}
		mass[name] = x * mw
		total += x * mw
	}
	for name := range mass {
		mass[name] /= total
	}
	return mass, nil
}
