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
	"os"
	"sort"

	yaml "gopkg.in/yaml.v3"
)

// Atomic masses [grams per mole]
var atomicWeights = map[string]float64{
	"H":  1.008,
	"C":  12.011,
	"N":  14.007,
	"O":  15.999,
	"Ar": 39.948,
	"He": 4.002602,
	"S":  32.06,
}

// Species is one chemical species declared by a mechanism: its name and
// its elemental composition (atoms per molecule).
type Species struct {
	Name        string
	Composition map[string]float64
}

// MolecularWeight returns the molecular weight of the species in g/mol,
// or an error if the species contains an element with no tabulated
// atomic weight.
func (s Species) MolecularWeight() (float64, error) {
	var mw float64
	for elem, n := range s.Composition {
		w, ok := atomicWeights[elem]
		if !ok {
			return 0, fmt.Errorf("flamebench: species %s: no atomic weight for element %q", s.Name, elem)
		}
		mw += n * w
	}
	if mw <= 0 {
		return 0, fmt.Errorf("flamebench: species %s has non-positive molecular weight", s.Name)
	}
	return mw, nil
}

// oxygenDemand returns the moles of O2 required to fully oxidize one
// mole of the species (C→CO2, H→H2O, S→SO2), accounting for oxygen
// already bound in the molecule. Nitrogen and noble gases are inert.
func (s Species) oxygenDemand() float64 {
	return s.Composition["C"] + s.Composition["S"] +
		s.Composition["H"]/4 - s.Composition["O"]/2
}

// Mechanism is an immutable reference to a chemical-kinetics definition.
// Downstream stages reference it by path; only the species declarations
// needed for stoichiometry and artifact generation are held in memory.
type Mechanism struct {
	// Path is the location of the mechanism file. It is passed through
	// to the external solvers unmodified.
	Path string

	// Phase is the name of the gas phase the mechanism declares.
	Phase string

	speciesNames []string
	species      map[string]Species
}

// mechanismFile matches the subset of the Cantera YAML mechanism format
// that FlameBench needs.
type mechanismFile struct {
	Phases []struct {
		Name    string   `yaml:"name"`
		Species []string `yaml:"species"`
	} `yaml:"phases"`
	Species []struct {
		Name        string             `yaml:"name"`
		Composition map[string]float64 `yaml:"composition"`
	} `yaml:"species"`
}

// LoadMechanism reads a Cantera-format YAML mechanism file and returns
// the mechanism reference used by all downstream stages. The species
// list keeps the declaration order of the file's first phase.
func LoadMechanism(path string) (*Mechanism, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("flamebench: reading mechanism file: %v", err)
	}
	var mf mechanismFile
	if err := yaml.Unmarshal(b, &mf); err != nil {
		return nil, fmt.Errorf("flamebench: parsing mechanism file %s: %v", path, err)
	}
	if len(mf.Phases) == 0 {
		return nil, fmt.Errorf("flamebench: mechanism file %s declares no phases", path)
	}
	phase := mf.Phases[0]
	if len(phase.Species) == 0 {
		return nil, fmt.Errorf("flamebench: mechanism file %s: phase %s declares no species", path, phase.Name)
	}

	declared := make(map[string]Species, len(mf.Species))
	for _, sp := range mf.Species {
		declared[sp.Name] = Species{Name: sp.Name, Composition: sp.Composition}
	}

	m := &Mechanism{
		Path:         path,
		Phase:        phase.Name,
		speciesNames: make([]string, 0, len(phase.Species)),
		species:      make(map[string]Species, len(phase.Species)),
	}
	for _, name := range phase.Species {
		sp, ok := declared[name]
		if !ok {
			return nil, fmt.Errorf("flamebench: mechanism file %s: phase species %q has no species entry", path, name)
		}
		if _, err := sp.MolecularWeight(); err != nil {
			return nil, err
		}
		m.speciesNames = append(m.speciesNames, name)
		m.species[name] = sp
	}
	return m, nil
}

// Species returns the names of the species in the mechanism, in
// declaration order. The returned slice is a copy.
func (m *Mechanism) Species() []string {
	o := make([]string, len(m.speciesNames))
	copy(o, m.speciesNames)
	return o
}

// Len returns the number of species in the mechanism.
func (m *Mechanism) Len() int { return len(m.speciesNames) }

// HasSpecies reports whether the mechanism declares the named species.
func (m *Mechanism) HasSpecies(name string) bool {
	_, ok := m.species[name]
	return ok
}

// MolecularWeight returns the molecular weight [g/mol] of the named
// species, or an error if the mechanism does not declare it.
func (m *Mechanism) MolecularWeight(name string) (float64, error) {
	sp, ok := m.species[name]
	if !ok {
		return 0, fmt.Errorf("flamebench: mechanism %s does not declare species %q", m.Path, name)
	}
	return sp.MolecularWeight()
}

// Elements returns the sorted list of elements appearing in the
// mechanism's species.
func (m *Mechanism) Elements() []string {
	set := make(map[string]struct{})
	for _, sp := range m.species {
		for elem := range sp.Composition {
			set[elem] = struct{}{}
		}
	}
	o := make([]string, 0, len(set))
	for elem := range set {
		o = append(o, elem)
	}
	sort.Strings(o)
	return o
}
