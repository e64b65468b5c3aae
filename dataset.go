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

	"github.com/ctessum/cdf"
	"github.com/ctessum/sparse"
)

// SampleMeta is the provenance recorded with each collected sample:
// the input gas state plus the solved flame properties and key derived
// parameters, so a dataset is interpretable without the sweep that
// produced it.
type SampleMeta struct {
	Temperature      float64
	Pressure         float64
	EquivalenceRatio float64
	Fuel             string
	Oxidizer         string
	Mechanism        string

	FlameSpeed     float64
	FlameThickness float64
	DomainLength   float64
	Timestep       float64
}

// WriteSampleDataset writes one sample's collected field data to a
// NetCDF file at path, with provenance stored as global attributes.
func WriteSampleDataset(path string, rec *SampleRecord, data *FlameData) error {
	h := cdf.NewHeader([]string{"time", "cell"}, []int{len(data.Times), data.Cells})

	h.AddVariable("times", []string{"time"}, []float64{0.})
	h.AddAttribute("times", "description", "Solver output times")
	h.AddAttribute("times", "units", "s")
	for _, v := range data.Variables {
		h.AddVariable(v, []string{"time", "cell"}, []float64{0.})
		desc, units := fieldInfo(v)
		h.AddAttribute(v, "description", desc)
		h.AddAttribute(v, "units", units)
	}

	h.AddAttribute("", "temperature", []float64{rec.State.InitialTemperature})
	h.AddAttribute("", "pressure", []float64{rec.State.InitialPressure})
	h.AddAttribute("", "equivalence_ratio", []float64{rec.State.EquivalenceRatio})
	h.AddAttribute("", "fuel", rec.State.FuelComposition)
	h.AddAttribute("", "oxidizer", rec.State.OxidizerComposition)
	h.AddAttribute("", "mechanism", rec.Parameters.MechanismPath)
	h.AddAttribute("", "flame_speed", []float64{rec.Properties.FlameSpeed})
	h.AddAttribute("", "flame_thickness", []float64{rec.Properties.FlameThickness})
	h.AddAttribute("", "domain_length", []float64{rec.Parameters.DomainLength})
	h.AddAttribute("", "timestep", []float64{rec.Parameters.Timestep})

	h.Define()
	for _, err := range h.Check() {
		return fmt.Errorf("flamebench: building dataset header for %s: %v", path, err)
	}

	ff, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("flamebench: creating dataset file: %v", err)
	}
	defer ff.Close()
	f, err := cdf.Create(ff, h)
	if err != nil {
		return fmt.Errorf("flamebench: creating dataset %s: %v", path, err)
	}

	w := f.Writer("times", []int{0}, []int{len(data.Times)})
	if _, err := w.Write(data.Times); err != nil {
		return fmt.Errorf("flamebench: writing times to %s: %v", path, err)
	}
	for iv, v := range data.Variables {
		buf := make([]float64, len(data.Times)*data.Cells)
		i := 0
		for it := range data.Times {
			for ic := 0; ic < data.Cells; ic++ {
				buf[i] = data.Data.Get(it, ic, iv)
				i++
			}
		}
		w := f.Writer(v, []int{0, 0}, []int{len(data.Times), data.Cells})
		if _, err := w.Write(buf); err != nil {
			return fmt.Errorf("flamebench: writing %s to %s: %v", v, path, err)
		}
	}
	return nil
}

// ReadSampleDataset reads a dataset file written by WriteSampleDataset.
func ReadSampleDataset(path string) (*FlameData, *SampleMeta, error) {
	ff, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("flamebench: opening dataset: %v", err)
	}
	defer ff.Close()
	f, err := cdf.Open(ff)
	if err != nil {
		return nil, nil, fmt.Errorf("flamebench: reading dataset %s: %v", path, err)
	}

	lengths := f.Header.Lengths("times")
	if len(lengths) != 1 {
		return nil, nil, fmt.Errorf("flamebench: dataset %s has malformed times variable", path)
	}
	nt := lengths[0]

	d := &FlameData{Times: make([]float64, nt)}
	if _, err := f.Reader("times", nil, nil).Read(d.Times); err != nil {
		return nil, nil, fmt.Errorf("flamebench: reading times from %s: %v", path, err)
	}

	for _, v := range f.Header.Variables() {
		if v == "times" {
			continue
		}
		d.Variables = append(d.Variables, v)
		if d.Cells == 0 {
			l := f.Header.Lengths(v)
			if len(l) != 2 || l[0] != nt {
				return nil, nil, fmt.Errorf("flamebench: dataset %s: variable %s has unexpected shape %v", path, v, l)
			}
			d.Cells = l[1]
		}
	}
	if len(d.Variables) == 0 {
		return nil, nil, fmt.Errorf("flamebench: dataset %s contains no field variables", path)
	}

	d.Data = sparse.ZerosDense(nt, d.Cells, len(d.Variables))
	for iv, v := range d.Variables {
		buf := make([]float64, nt*d.Cells)
		if _, err := f.Reader(v, nil, nil).Read(buf); err != nil {
			return nil, nil, fmt.Errorf("flamebench: reading %s from %s: %v", v, path, err)
		}
		i := 0
		for it := 0; it < nt; it++ {
			for ic := 0; ic < d.Cells; ic++ {
				d.Data.Set(buf[i], it, ic, iv)
				i++
			}
		}
	}

	meta := &SampleMeta{
		Temperature:      globalFloat(f, "temperature"),
		Pressure:         globalFloat(f, "pressure"),
		EquivalenceRatio: globalFloat(f, "equivalence_ratio"),
		Fuel:             globalString(f, "fuel"),
		Oxidizer:         globalString(f, "oxidizer"),
		Mechanism:        globalString(f, "mechanism"),
		FlameSpeed:       globalFloat(f, "flame_speed"),
		FlameThickness:   globalFloat(f, "flame_thickness"),
		DomainLength:     globalFloat(f, "domain_length"),
		Timestep:         globalFloat(f, "timestep"),
	}
	return d, meta, nil
}

// MergeSampleDatasets combines per-sample dataset files into a single
// file with a leading sample dimension, for training pipelines that
// want one input. Every input must share the same variables, time count
// and cell count.
func MergeSampleDatasets(paths []string, outPath string) error {
	if len(paths) == 0 {
		return fmt.Errorf("flamebench: no datasets to merge")
	}

	var all []*FlameData
	var metas []*SampleMeta
	for _, p := range paths {
		d, m, err := ReadSampleDataset(p)
		if err != nil {
			return err
		}
		all = append(all, d)
		metas = append(metas, m)
	}
	first := all[0]
	for i, d := range all[1:] {
		if len(d.Times) != len(first.Times) || d.Cells != first.Cells ||
			len(d.Variables) != len(first.Variables) {
			return fmt.Errorf("flamebench: dataset %s has shape [%d %d %d], expected [%d %d %d]",
				paths[i+1], len(d.Times), d.Cells, len(d.Variables),
				len(first.Times), first.Cells, len(first.Variables))
		}
		for j, v := range d.Variables {
			if v != first.Variables[j] {
				return fmt.Errorf("flamebench: dataset %s has variable %s where %s was expected",
					paths[i+1], v, first.Variables[j])
			}
		}
	}

	ns, nt, nc := len(all), len(first.Times), first.Cells
	h := cdf.NewHeader([]string{"sample", "time", "cell"}, []int{ns, nt, nc})

	h.AddVariable("times", []string{"sample", "time"}, []float64{0.})
	h.AddAttribute("times", "units", "s")
	for _, v := range first.Variables {
		h.AddVariable(v, []string{"sample", "time", "cell"}, []float64{0.})
		desc, units := fieldInfo(v)
		h.AddAttribute(v, "description", desc)
		h.AddAttribute(v, "units", units)
	}
	// Per-sample provenance travels as variables over the sample
	// dimension so individual samples remain identifiable.
	for _, v := range []string{"temperature", "pressure", "equivalence_ratio",
		"flame_speed", "flame_thickness", "domain_length", "timestep"} {
		h.AddVariable(v, []string{"sample"}, []float64{0.})
	}
	h.AddAttribute("", "fuel", metas[0].Fuel)
	h.AddAttribute("", "oxidizer", metas[0].Oxidizer)
	h.AddAttribute("", "mechanism", metas[0].Mechanism)

	h.Define()
	for _, err := range h.Check() {
		return fmt.Errorf("flamebench: building merged header for %s: %v", outPath, err)
	}

	ff, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("flamebench: creating merged dataset: %v", err)
	}
	defer ff.Close()
	f, err := cdf.Create(ff, h)
	if err != nil {
		return fmt.Errorf("flamebench: creating merged dataset %s: %v", outPath, err)
	}

	times := make([]float64, ns*nt)
	for is, d := range all {
		copy(times[is*nt:], d.Times)
	}
	if _, err := f.Writer("times", []int{0, 0}, []int{ns, nt}).Write(times); err != nil {
		return fmt.Errorf("flamebench: writing merged times: %v", err)
	}

	for iv, v := range first.Variables {
		buf := make([]float64, ns*nt*nc)
		i := 0
		for _, d := range all {
			for it := 0; it < nt; it++ {
				for ic := 0; ic < nc; ic++ {
					buf[i] = d.Data.Get(it, ic, iv)
					i++
				}
			}
		}
		if _, err := f.Writer(v, []int{0, 0, 0}, []int{ns, nt, nc}).Write(buf); err != nil {
			return fmt.Errorf("flamebench: writing merged %s: %v", v, err)
		}
	}

	prov := map[string]func(*SampleMeta) float64{
		"temperature":       func(m *SampleMeta) float64 { return m.Temperature },
		"pressure":          func(m *SampleMeta) float64 { return m.Pressure },
		"equivalence_ratio": func(m *SampleMeta) float64 { return m.EquivalenceRatio },
		"flame_speed":       func(m *SampleMeta) float64 { return m.FlameSpeed },
		"flame_thickness":   func(m *SampleMeta) float64 { return m.FlameThickness },
		"domain_length":     func(m *SampleMeta) float64 { return m.DomainLength },
		"timestep":          func(m *SampleMeta) float64 { return m.Timestep },
	}
	for _, v := range []string{"temperature", "pressure", "equivalence_ratio",
		"flame_speed", "flame_thickness", "domain_length", "timestep"} {
		vals := make([]float64, ns)
		for is, m := range metas {
			vals[is] = prov[v](m)
		}
		if _, err := f.Writer(v, []int{0}, []int{ns}).Write(vals); err != nil {
			return fmt.Errorf("flamebench: writing merged %s: %v", v, err)
		}
	}
	return nil
}

// fieldInfo returns a description and units for a field variable name.
func fieldInfo(v string) (desc, units string) {
	switch v {
	case "T":
		return "Temperature", "K"
	case "p":
		return "Pressure", "Pa"
	default:
		return fmt.Sprintf("%s mass fraction", v), "kg kg-1"
	}
}

func globalFloat(f *cdf.File, attr string) float64 {
	if v, ok := f.Header.GetAttribute("", attr).([]float64); ok && len(v) > 0 {
		return v[0]
	}
	return 0
}

func globalString(f *cdf.File, attr string) string {
	if v, ok := f.Header.GetAttribute("", attr).(string); ok {
		return v
	}
	return ""
}
