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
	"math"
	"os"
	"path/filepath"
	"testing"
)

const testMechanism = "testdata/burke_h2.yaml"

func TestLoadMechanism(t *testing.T) {
	m, err := LoadMechanism(testMechanism)
	if err != nil {
		t.Fatal(err)
	}
	if m.Phase != "gas" {
		t.Errorf("phase: got %q, want gas", m.Phase)
	}
	want := []string{"H2", "H", "O", "O2", "OH", "H2O", "HO2", "H2O2", "N2"}
	got := m.Species()
	if len(got) != len(want) {
		t.Fatalf("species count: got %d, want %d", len(got), len(want))
	}
	for i, name := range want {
		if got[i] != name {
			t.Errorf("species %d: got %s, want %s", i, got[i], name)
		}
	}
	if m.Len() != 9 {
		t.Errorf("Len: got %d, want 9", m.Len())
	}
	if !m.HasSpecies("OH") || m.HasSpecies("CH4") {
		t.Error("HasSpecies gives wrong answers")
	}
}

func TestMolecularWeight(t *testing.T) {
	const testTolerance = 1.e-3

	m, err := LoadMechanism(testMechanism)
	if err != nil {
		t.Fatal(err)
	}
	cases := []struct {
		species string
		want    float64
	}{
		{"H2", 2.016},
		{"O2", 31.998},
		{"H2O", 18.015},
		{"N2", 28.014},
	}
	for _, c := range cases {
		mw, err := m.MolecularWeight(c.species)
		if err != nil {
			t.Fatal(err)
		}
		if math.Abs(mw-c.want) > testTolerance {
			t.Errorf("%s: got %g, want %g", c.species, mw, c.want)
		}
	}
	if _, err := m.MolecularWeight("CH4"); err == nil {
		t.Error("expected error for undeclared species")
	}
}

func TestMechanismElements(t *testing.T) {
	m, err := LoadMechanism(testMechanism)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"H", "N", "O"}
	got := m.Elements()
	if len(got) != len(want) {
		t.Fatalf("elements: got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("element %d: got %s, want %s", i, got[i], want[i])
		}
	}
}

func TestLoadMechanismErrors(t *testing.T) {
	if _, err := LoadMechanism("testdata/nonexistent.yaml"); err == nil {
		t.Error("expected error for missing file")
	}

	dir := t.TempDir()
	cases := []struct {
		name, content string
	}{
		{"no_phases.yaml", "species:\n- name: H2\n  composition: {H: 2}\n"},
		{"no_species.yaml", "phases:\n- name: gas\n  species: []\n"},
		{"undeclared.yaml", "phases:\n- name: gas\n  species: [H2, XX]\nspecies:\n- name: H2\n  composition: {H: 2}\n"},
		{"unknown_element.yaml", "phases:\n- name: gas\n  species: [XQ2]\nspecies:\n- name: XQ2\n  composition: {Xq: 2}\n"},
	}
	for _, c := range cases {
		path := filepath.Join(dir, c.name)
		if err := os.WriteFile(path, []byte(c.content), 0644); err != nil {
			t.Fatal(err)
		}
		if _, err := LoadMechanism(path); err == nil {
			t.Errorf("%s: expected error", c.name)
		}
	}
}

func TestOxygenDemand(t *testing.T) {
	const testTolerance = 1.e-12

	cases := []struct {
		s    Species
		want float64
	}{
		{Species{Name: "H2", Composition: map[string]float64{"H": 2}}, 0.5},
		{Species{Name: "CH4", Composition: map[string]float64{"C": 1, "H": 4}}, 2},
		{Species{Name: "CH3OH", Composition: map[string]float64{"C": 1, "H": 4, "O": 1}}, 1.5},
		{Species{Name: "N2", Composition: map[string]float64{"N": 2}}, 0},
	}
	for _, c := range cases {
		if got := c.s.oxygenDemand(); math.Abs(got-c.want) > testTolerance {
			t.Errorf("%s: got %g, want %g", c.s.Name, got, c.want)
		}
	}
}
