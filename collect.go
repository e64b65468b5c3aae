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
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/ctessum/sparse"
	"github.com/sirupsen/logrus"
)

// FlameData holds the collected time-resolved field data for one case:
// a dense [time, cell, variable] array plus the axes describing it.
type FlameData struct {
	// Times are the output times, ascending, excluding the initial
	// condition at t=0.
	Times []float64

	// Cells is the number of mesh cells.
	Cells int

	// Variables names the collected fields, in storage order.
	Variables []string

	// Data has shape [len(Times), Cells, len(Variables)].
	Data *sparse.DenseArray
}

// A Collector reads the per-time field output the CFD toolchain leaves
// in a case directory and assembles it into a FlameData array.
type Collector struct {
	// Variables are the field names to collect from each time
	// directory. Every variable must be present at every output time.
	Variables []string

	// WaitTimeout bounds how long Collect waits for reconstructed
	// output to appear before giving up; file systems shared with the
	// solver host can surface output with a delay. Zero means no
	// waiting: output must already be present.
	WaitTimeout time.Duration

	Log *logrus.Logger
}

// FieldVariables returns the collector variable list for a mechanism:
// temperature, pressure, then the mechanism's species in declaration
// order. This matches the field names the artifact generator writes.
func FieldVariables(mech *Mechanism) []string {
	return append([]string{"T", "p"}, mech.Species()...)
}

// Collect reads the output of one completed case. cellCount is the
// expected mesh size from the case parameters; it sizes early output
// times where every field is still spatially uniform and is checked
// against every nonuniform field read. Missing or malformed output
// yields a *CollectionError.
func (c *Collector) Collect(ctx context.Context, caseDir string, cellCount int) (*FlameData, error) {
	if len(c.Variables) == 0 {
		return nil, &CollectionError{Dir: caseDir, Reason: "no variables configured"}
	}
	if cellCount < 1 {
		return nil, &CollectionError{Dir: caseDir, Reason: fmt.Sprintf("invalid cell count %d", cellCount)}
	}

	dirs, err := c.waitForOutput(ctx, caseDir)
	if err != nil {
		return nil, err
	}

	d := &FlameData{
		Cells:     cellCount,
		Variables: append([]string{}, c.Variables...),
	}
	d.Times = make([]float64, len(dirs))
	for i, td := range dirs {
		d.Times[i] = td.t
	}
	d.Data = sparse.ZerosDense(len(dirs), cellCount, len(c.Variables))

	for it, td := range dirs {
		dir := filepath.Join(caseDir, td.name)
		for iv, v := range c.Variables {
			vals, err := readFieldFile(filepath.Join(dir, v), cellCount)
			if err != nil {
				return nil, &CollectionError{Dir: caseDir,
					Reason: fmt.Sprintf("field %s at time %s", v, td.name), Err: err}
			}
			for ic, val := range vals {
				d.Data.Set(val, it, ic, iv)
			}
		}
	}
	return d, nil
}

// timeDir pairs a solver output directory name with its numeric time.
type timeDir struct {
	name string
	t    float64
}

// waitForOutput lists the numeric time directories under caseDir,
// retrying with exponential backoff until at least one output time
// beyond t=0 is present or WaitTimeout expires.
func (c *Collector) waitForOutput(ctx context.Context, caseDir string) ([]timeDir, error) {
	var dirs []timeDir
	op := func() error {
		if err := ctx.Err(); err != nil {
			return backoff.Permanent(err)
		}
		var err error
		dirs, err = listTimeDirs(caseDir)
		if err != nil {
			return backoff.Permanent(err)
		}
		if len(dirs) == 0 {
			return fmt.Errorf("no output times in %s", caseDir)
		}
		return nil
	}
	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = c.WaitTimeout
	if c.WaitTimeout == 0 {
		// Single attempt.
		if err := op(); err != nil {
			return nil, &CollectionError{Dir: caseDir, Reason: "no solver output", Err: err}
		}
		return dirs, nil
	}
	err := backoff.RetryNotify(op, b, func(err error, d time.Duration) {
		if c.Log != nil {
			c.Log.WithFields(logrus.Fields{
				"dir":   caseDir,
				"retry": d,
			}).Warn("waiting for solver output")
		}
	})
	if err != nil {
		return nil, &CollectionError{Dir: caseDir, Reason: "solver output never appeared", Err: err}
	}
	return dirs, nil
}

// listTimeDirs returns the numeric time directories under dir,
// ascending by time, excluding the initial condition "0".
func listTimeDirs(dir string) ([]timeDir, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var dirs []timeDir
	for _, e := range entries {
		if !e.IsDir() || e.Name() == "0" {
			continue
		}
		t, err := strconv.ParseFloat(e.Name(), 64)
		if err != nil || t <= 0 {
			continue
		}
		dirs = append(dirs, timeDir{name: e.Name(), t: t})
	}
	sort.Slice(dirs, func(i, j int) bool { return dirs[i].t < dirs[j].t })
	return dirs, nil
}

// readFieldFile parses one OpenFOAM-format volScalarField file and
// returns its internal field as a slice of length cellCount. A uniform
// field expands to cellCount copies of its value; a nonuniform field
// must list exactly cellCount values.
func readFieldFile(path string, cellCount int) ([]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "internalField") {
			continue
		}
		rest := strings.TrimSpace(strings.TrimPrefix(line, "internalField"))
		switch {
		case strings.HasPrefix(rest, "uniform"):
			s := strings.TrimSuffix(strings.TrimSpace(strings.TrimPrefix(rest, "uniform")), ";")
			v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
			if err != nil {
				return nil, fmt.Errorf("parsing uniform value in %s: %v", path, err)
			}
			vals := make([]float64, cellCount)
			for i := range vals {
				vals[i] = v
			}
			return vals, nil
		case strings.HasPrefix(rest, "nonuniform"):
			return readNonuniform(scanner, path, cellCount)
		default:
			return nil, fmt.Errorf("unrecognized internalField form %q in %s", rest, path)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %v", path, err)
	}
	return nil, fmt.Errorf("no internalField in %s", path)
}

// readNonuniform parses the body of a nonuniform scalar list: a count
// line, an opening parenthesis, one value per line, and a closing
// parenthesis.
func readNonuniform(scanner *bufio.Scanner, path string, cellCount int) ([]float64, error) {
	n := -1
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		v, err := strconv.Atoi(line)
		if err != nil {
			return nil, fmt.Errorf("expected list length in %s, got %q", path, line)
		}
		n = v
		break
	}
	if n < 0 {
		return nil, fmt.Errorf("truncated nonuniform field in %s", path)
	}
	if n != cellCount {
		return nil, fmt.Errorf("field in %s has %d values, expected %d cells", path, n, cellCount)
	}
	// Opening parenthesis.
	for scanner.Scan() {
		if strings.TrimSpace(scanner.Text()) == "(" {
			break
		}
	}
	vals := make([]float64, 0, n)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == ")" || strings.HasPrefix(line, ")") {
			break
		}
		if line == "" {
			continue
		}
		v, err := strconv.ParseFloat(line, 64)
		if err != nil {
			return nil, fmt.Errorf("parsing value %q in %s: %v", line, path, err)
		}
		vals = append(vals, v)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %v", path, err)
	}
	if len(vals) != n {
		return nil, fmt.Errorf("field in %s lists %d values, header said %d", path, len(vals), n)
	}
	return vals, nil
}
