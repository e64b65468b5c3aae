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

package flamebenchutil

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"

	"github.com/combustsim/flamebench"
)

func writeTestMechanism(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "mech.yaml")
	content := `phases:
- name: gas
  species: [H2, O2, N2]
species:
- name: H2
  composition: {H: 2}
- name: O2
  composition: {O: 2}
- name: N2
  composition: {N: 2}
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func testCfg(t *testing.T) *viper.Viper {
	t.Helper()
	cfg := viper.New()
	cfg.Set("MechanismFile", writeTestMechanism(t))
	cfg.Set("Fuel", "H2:1")
	cfg.Set("Oxidizer", "O2:0.21,N2:0.79")
	cfg.Set("EquivalenceRatios", []float64{0.8, 1.0})
	cfg.Set("Temperatures", []float64{300})
	cfg.Set("Pressures", []float64{101325})
	cfg.Set("WorkDir", "cases")
	cfg.Set("OutputDir", "output")
	cfg.Set("CollectWait", "30s")
	cfg.Set("Derive.DomainThicknessRatio", 50.0)
	cfg.Set("Derive.CellsPerThickness", 10.0)
	cfg.Set("Derive.CFLSafetyFactor", 0.4)
	cfg.Set("Derive.TransitMultiplier", 1.5)
	cfg.Set("Derive.MaxCellCount", 200000)
	cfg.Set("Derive.WriteInterval", 100)
	cfg.Set("ThicknessDefinition", "thermal")
	cfg.Set("SolverCommand", "flamesolve")
	cfg.Set("RunCommand", "./Allrun")
	return cfg
}

func TestSweepConfigFromCfg(t *testing.T) {
	cfg := testCfg(t)
	sc, err := SweepConfigFromCfg(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if len(sc.EquivalenceRatios) != 2 || sc.EquivalenceRatios[1] != 1.0 {
		t.Errorf("equivalence ratios: got %v", sc.EquivalenceRatios)
	}
	if sc.CollectWait.Seconds() != 30 {
		t.Errorf("collect wait: got %v", sc.CollectWait)
	}
	if sc.Derive.CFLSafetyFactor != 0.4 {
		t.Errorf("safety factor: got %g", sc.Derive.CFLSafetyFactor)
	}
	if err := sc.Derive.Check(); err != nil {
		t.Error(err)
	}
	if n := len(sc.GasStates()); n != 2 {
		t.Errorf("states: got %d, want 2", n)
	}
}

func TestSweepConfigFromCfgMissingMechanism(t *testing.T) {
	cfg := testCfg(t)
	cfg.Set("MechanismFile", "")
	if _, err := SweepConfigFromCfg(cfg); err == nil {
		t.Error("expected error for missing mechanism")
	}
	cfg.Set("MechanismFile", "/nonexistent/mech.yaml")
	if _, err := SweepConfigFromCfg(cfg); err == nil {
		t.Error("expected error for nonexistent mechanism")
	}
}

func TestFlameSolverFromCfg(t *testing.T) {
	cfg := testCfg(t)
	s, err := flameSolverFromCfg(cfg)
	if err != nil {
		t.Fatal(err)
	}
	es, ok := s.(*flamebench.ExecFlameSolver)
	if !ok {
		t.Fatalf("unexpected solver type %T", s)
	}
	if es.Command != "flamesolve" || es.Thickness != flamebench.ThermalThickness {
		t.Errorf("solver: %+v", es)
	}

	cfg.Set("ThicknessDefinition", "bogus")
	if _, err := flameSolverFromCfg(cfg); err == nil {
		t.Error("expected error for unknown thickness definition")
	}
}

func TestCheckFloats(t *testing.T) {
	const testTolerance = 1.e-12

	cases := []struct {
		in   interface{}
		want []float64
	}{
		{[]float64{0.8, 1.0}, []float64{0.8, 1.0}},
		{[]interface{}{0.8, "1.0"}, []float64{0.8, 1.0}},
		{[]string{"0.8", "1.0"}, []float64{0.8, 1.0}},
		{"[0.8,1.0]", []float64{0.8, 1.0}},
		{"0.8, 1.0", []float64{0.8, 1.0}},
		{1.2, []float64{1.2}},
	}
	for i, c := range cases {
		got, err := checkFloats(c.in, "test")
		if err != nil {
			t.Errorf("case %d: %v", i, err)
			continue
		}
		if len(got) != len(c.want) {
			t.Errorf("case %d: got %v, want %v", i, got, c.want)
			continue
		}
		for j := range c.want {
			if math.Abs(got[j]-c.want[j]) > testTolerance {
				t.Errorf("case %d[%d]: got %g, want %g", i, j, got[j], c.want[j])
			}
		}
	}

	if _, err := checkFloats([]string{"not-a-number"}, "test"); err == nil {
		t.Error("expected error for unparseable value")
	}
}
