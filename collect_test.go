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
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// writeUniformField writes a field file with a spatially uniform value.
func writeUniformField(t *testing.T, dir, name string, value float64) {
	t.Helper()
	content := fmt.Sprintf("FoamFile\n{\n    object %s;\n}\n\ndimensions      [0 0 0 0 0 0 0];\n\ninternalField   uniform %g;\n", name, value)
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

// writeNonuniformField writes a field file listing one value per cell.
func writeNonuniformField(t *testing.T, dir, name string, values []float64) {
	t.Helper()
	var b strings.Builder
	fmt.Fprintf(&b, "FoamFile\n{\n    object %s;\n}\n\ninternalField   nonuniform List<scalar>\n%d\n(\n", name, len(values))
	for _, v := range values {
		fmt.Fprintf(&b, "%g\n", v)
	}
	b.WriteString(")\n;\n")
	if err := os.WriteFile(filepath.Join(dir, name), []byte(b.String()), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestCollect(t *testing.T) {
	const (
		cells         = 5
		testTolerance = 1.e-12
	)
	caseDir := t.TempDir()
	vars := []string{"T", "p", "H2"}

	// The initial condition must be skipped.
	if err := os.MkdirAll(filepath.Join(caseDir, "0"), 0755); err != nil {
		t.Fatal(err)
	}

	// First output time: everything still uniform.
	d1 := filepath.Join(caseDir, "0.001")
	if err := os.MkdirAll(d1, 0755); err != nil {
		t.Fatal(err)
	}
	writeUniformField(t, d1, "T", 300)
	writeUniformField(t, d1, "p", 101325)
	writeUniformField(t, d1, "H2", 0.028)

	// Second output time: temperature has evolved.
	d2 := filepath.Join(caseDir, "0.002")
	if err := os.MkdirAll(d2, 0755); err != nil {
		t.Fatal(err)
	}
	tVals := []float64{2100, 2100, 1200, 300, 300}
	writeNonuniformField(t, d2, "T", tVals)
	writeUniformField(t, d2, "p", 101325)
	writeNonuniformField(t, d2, "H2", []float64{0, 0, 0.014, 0.028, 0.028})

	c := &Collector{Variables: vars}
	data, err := c.Collect(context.Background(), caseDir, cells)
	if err != nil {
		t.Fatal(err)
	}

	if len(data.Times) != 2 || data.Times[0] != 0.001 || data.Times[1] != 0.002 {
		t.Errorf("times: got %v", data.Times)
	}
	if data.Cells != cells {
		t.Errorf("cells: got %d, want %d", data.Cells, cells)
	}
	if shape := data.Data.Shape; shape[0] != 2 || shape[1] != cells || shape[2] != len(vars) {
		t.Errorf("shape: got %v", shape)
	}

	// Uniform fields expand to the cell count.
	for ic := 0; ic < cells; ic++ {
		if math.Abs(data.Data.Get(0, ic, 0)-300) > testTolerance {
			t.Errorf("T[0][%d]: got %g, want 300", ic, data.Data.Get(0, ic, 0))
		}
	}
	// Nonuniform values land in the right cells.
	for ic, want := range tVals {
		if math.Abs(data.Data.Get(1, ic, 0)-want) > testTolerance {
			t.Errorf("T[1][%d]: got %g, want %g", ic, data.Data.Get(1, ic, 0), want)
		}
	}
}

func TestCollectErrors(t *testing.T) {
	ctx := context.Background()

	// No output times at all.
	empty := t.TempDir()
	c := &Collector{Variables: []string{"T"}}
	_, err := c.Collect(ctx, empty, 5)
	var ce *CollectionError
	if !errors.As(err, &ce) {
		t.Fatalf("expected CollectionError, got %v", err)
	}

	// Missing field file.
	caseDir := t.TempDir()
	d := filepath.Join(caseDir, "0.001")
	if err := os.MkdirAll(d, 0755); err != nil {
		t.Fatal(err)
	}
	writeUniformField(t, d, "T", 300)
	c = &Collector{Variables: []string{"T", "p"}}
	if _, err := c.Collect(ctx, caseDir, 5); !errors.As(err, &ce) {
		t.Errorf("expected CollectionError for missing field, got %v", err)
	}

	// Wrong value count in a nonuniform field.
	caseDir = t.TempDir()
	d = filepath.Join(caseDir, "0.001")
	if err := os.MkdirAll(d, 0755); err != nil {
		t.Fatal(err)
	}
	writeNonuniformField(t, d, "T", []float64{1, 2, 3})
	c = &Collector{Variables: []string{"T"}}
	if _, err := c.Collect(ctx, caseDir, 5); !errors.As(err, &ce) {
		t.Errorf("expected CollectionError for cell mismatch, got %v", err)
	}

	// No variables configured.
	c = &Collector{}
	if _, err := c.Collect(ctx, caseDir, 5); !errors.As(err, &ce) {
		t.Errorf("expected CollectionError for empty variables, got %v", err)
	}
}

func TestFieldVariables(t *testing.T) {
	m, err := LoadMechanism(testMechanism)
	if err != nil {
		t.Fatal(err)
	}
	vars := FieldVariables(m)
	if vars[0] != "T" || vars[1] != "p" {
		t.Errorf("leading variables: got %v", vars[:2])
	}
	if len(vars) != 2+m.Len() {
		t.Errorf("variable count: got %d, want %d", len(vars), 2+m.Len())
	}
	if vars[2] != "H2" || vars[len(vars)-1] != "N2" {
		t.Errorf("species order not preserved: %v", vars[2:])
	}
}
