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

	"github.com/ctessum/cdf"
	"github.com/ctessum/sparse"
)

// testFlameData builds a small synthetic result array.
func testFlameData() *FlameData {
	d := &FlameData{
		Times:     []float64{0.001, 0.002},
		Cells:     4,
		Variables: []string{"T", "p", "H2"},
	}
	d.Data = sparse.ZerosDense(2, 4, 3)
	for it := range d.Times {
		for ic := 0; ic < d.Cells; ic++ {
			for iv := range d.Variables {
				d.Data.Set(float64(100*it+10*ic+iv), it, ic, iv)
			}
		}
	}
	return d
}

func testSampleRecord() *SampleRecord {
	return &SampleRecord{
		State:      testGasState(),
		Properties: testFlameProps(),
		Parameters: CaseParameters{
			DomainLength:  0.02,
			Timestep:      1.e-6,
			MechanismPath: testMechanism,
		},
	}
}

func TestSampleDatasetRoundtrip(t *testing.T) {
	const testTolerance = 1.e-12

	path := filepath.Join(t.TempDir(), "sample.nc")
	want := testFlameData()
	if err := WriteSampleDataset(path, testSampleRecord(), want); err != nil {
		t.Fatal(err)
	}

	got, meta, err := ReadSampleDataset(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Times) != len(want.Times) || got.Cells != want.Cells {
		t.Fatalf("shape: got %d×%d, want %d×%d", len(got.Times), got.Cells, len(want.Times), want.Cells)
	}
	for i := range want.Times {
		if math.Abs(got.Times[i]-want.Times[i]) > testTolerance {
			t.Errorf("time %d: got %g, want %g", i, got.Times[i], want.Times[i])
		}
	}
	if len(got.Variables) != len(want.Variables) {
		t.Fatalf("variables: got %v, want %v", got.Variables, want.Variables)
	}
	for iv, v := range want.Variables {
		jv := -1
		for j, g := range got.Variables {
			if g == v {
				jv = j
				break
			}
		}
		if jv < 0 {
			t.Fatalf("variable %s missing from %v", v, got.Variables)
		}
		for it := range want.Times {
			for ic := 0; ic < want.Cells; ic++ {
				w := want.Data.Get(it, ic, iv)
				g := got.Data.Get(it, ic, jv)
				if math.Abs(g-w) > testTolerance {
					t.Errorf("%s[%d][%d]: got %g, want %g", v, it, ic, g, w)
				}
			}
		}
	}

	rec := testSampleRecord()
	if math.Abs(meta.Temperature-rec.State.InitialTemperature) > testTolerance {
		t.Errorf("meta temperature: got %g", meta.Temperature)
	}
	if math.Abs(meta.FlameSpeed-rec.Properties.FlameSpeed) > testTolerance {
		t.Errorf("meta flame speed: got %g", meta.FlameSpeed)
	}
	if meta.Fuel != rec.State.FuelComposition {
		t.Errorf("meta fuel: got %q", meta.Fuel)
	}
	if meta.Mechanism != testMechanism {
		t.Errorf("meta mechanism: got %q", meta.Mechanism)
	}
}

func TestMergeSampleDatasets(t *testing.T) {
	dir := t.TempDir()
	var paths []string
	for i := 0; i < 3; i++ {
		p := filepath.Join(dir, "sample"+string(rune('a'+i))+".nc")
		rec := testSampleRecord()
		rec.State.EquivalenceRatio = 0.8 + 0.2*float64(i)
		if err := WriteSampleDataset(p, rec, testFlameData()); err != nil {
			t.Fatal(err)
		}
		paths = append(paths, p)
	}

	out := filepath.Join(dir, "merged.nc")
	if err := MergeSampleDatasets(paths, out); err != nil {
		t.Fatal(err)
	}

	ff, err := os.Open(out)
	if err != nil {
		t.Fatal(err)
	}
	defer ff.Close()
	f, err := cdf.Open(ff)
	if err != nil {
		t.Fatal(err)
	}
	if l := f.Header.Lengths("T"); len(l) != 3 || l[0] != 3 || l[1] != 2 || l[2] != 4 {
		t.Errorf("merged T shape: got %v, want [3 2 4]", l)
	}

	phi := make([]float64, 3)
	if _, err := f.Reader("equivalence_ratio", nil, nil).Read(phi); err != nil {
		t.Fatal(err)
	}
	for i, want := range []float64{0.8, 1.0, 1.2} {
		if math.Abs(phi[i]-want) > 1.e-12 {
			t.Errorf("φ[%d]: got %g, want %g", i, phi[i], want)
		}
	}
}

func TestMergeSampleDatasetsShapeMismatch(t *testing.T) {
	dir := t.TempDir()

	a := filepath.Join(dir, "a.nc")
	if err := WriteSampleDataset(a, testSampleRecord(), testFlameData()); err != nil {
		t.Fatal(err)
	}

	small := testFlameData()
	small.Cells = 2
	small.Data = sparse.ZerosDense(2, 2, 3)
	b := filepath.Join(dir, "b.nc")
	if err := WriteSampleDataset(b, testSampleRecord(), small); err != nil {
		t.Fatal(err)
	}

	if err := MergeSampleDatasets([]string{a, b}, filepath.Join(dir, "out.nc")); err == nil {
		t.Error("expected error for mismatched shapes")
	}
	if err := MergeSampleDatasets(nil, filepath.Join(dir, "out.nc")); err == nil {
		t.Error("expected error for empty input list")
	}
}
