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
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cast"
	"github.com/spf13/viper"

	"github.com/combustsim/flamebench"
)

// SweepConfigFromCfg assembles a sweep configuration from the viper
// configuration, expanding environment variables in paths and
// validating what can be validated without running anything.
func SweepConfigFromCfg(cfg *viper.Viper) (flamebench.SweepConfig, error) {
	mech, err := checkMechanismFile(cfg.GetString("MechanismFile"))
	if err != nil {
		return flamebench.SweepConfig{}, err
	}
	ratios, err := checkFloats(cfg.Get("EquivalenceRatios"), "EquivalenceRatios")
	if err != nil {
		return flamebench.SweepConfig{}, err
	}
	temps, err := checkFloats(cfg.Get("Temperatures"), "Temperatures")
	if err != nil {
		return flamebench.SweepConfig{}, err
	}
	pressures, err := checkFloats(cfg.Get("Pressures"), "Pressures")
	if err != nil {
		return flamebench.SweepConfig{}, err
	}

	return flamebench.SweepConfig{
		MechanismPath:     mech,
		Fuel:              cfg.GetString("Fuel"),
		Oxidizer:          cfg.GetString("Oxidizer"),
		EquivalenceRatios: ratios,
		Temperatures:      temps,
		Pressures:         pressures,
		WorkDir:           os.ExpandEnv(cfg.GetString("WorkDir")),
		OutputDir:         os.ExpandEnv(cfg.GetString("OutputDir")),
		MaxConcurrent:     cfg.GetInt("MaxConcurrent"),
		KeepCases:         cfg.GetBool("KeepCases"),
		CollectWait:       cfg.GetDuration("CollectWait"),
		Derive: flamebench.DeriveConfig{
			DomainThicknessRatio: cfg.GetFloat64("Derive.DomainThicknessRatio"),
			CellsPerThickness:    cfg.GetFloat64("Derive.CellsPerThickness"),
			CFLSafetyFactor:      cfg.GetFloat64("Derive.CFLSafetyFactor"),
			TransitMultiplier:    cfg.GetFloat64("Derive.TransitMultiplier"),
			MinDomainLength:      cfg.GetFloat64("Derive.MinDomainLength"),
			MaxCellCount:         cfg.GetInt("Derive.MaxCellCount"),
			WriteInterval:        cfg.GetInt("Derive.WriteInterval"),
		},
	}, nil
}

// flameSolverFromCfg builds the external flame solver from the
// configuration.
func flameSolverFromCfg(cfg *viper.Viper) (flamebench.FlameSolver, error) {
	thickness := flamebench.ThicknessDefinition(cfg.GetString("ThicknessDefinition"))
	switch thickness {
	case flamebench.ThermalThickness, flamebench.ReportedThickness:
	default:
		return nil, fmt.Errorf("flamebench: ThicknessDefinition must be %q or %q, got %q",
			flamebench.ThermalThickness, flamebench.ReportedThickness, thickness)
	}
	return &flamebench.ExecFlameSolver{
		Command:   os.ExpandEnv(cfg.GetString("SolverCommand")),
		ExtraArgs: expandStringSlice(cfg.GetStringSlice("SolverArgs")),
		Thickness: thickness,
	}, nil
}

// caseRunnerFromCfg builds the external CFD runner from the
// configuration. The reconstruction field list covers temperature,
// pressure and any species fields written by the solver.
func caseRunnerFromCfg(cfg *viper.Viper) flamebench.CaseRunner {
	return &flamebench.ExecCaseRunner{
		Command:            os.ExpandEnv(cfg.GetString("RunCommand")),
		Args:               expandStringSlice(cfg.GetStringSlice("RunArgs")),
		ReconstructCommand: os.ExpandEnv(cfg.GetString("ReconstructCommand")),
	}
}

// checkMechanismFile expands environment variables in the mechanism
// path and verifies the file exists.
func checkMechanismFile(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("flamebench: you need to specify a MechanismFile configuration variable")
	}
	path = os.ExpandEnv(path)
	if _, err := os.Stat(path); err != nil {
		return path, fmt.Errorf("flamebench: the MechanismFile doesn't exist: %v", err)
	}
	return path, nil
}

// checkOutputFile makes sure that the output file's directory exists
// and expands any environment variables.
func checkOutputFile(f string) (string, error) {
	if f == "" {
		return "", fmt.Errorf(`flamebench: you need to specify an OutputFile configuration variable (for example: OutputFile="dataset.nc")`)
	}
	f = os.ExpandEnv(f)
	outdir := filepath.Dir(f)
	if _, err := os.Stat(outdir); err != nil {
		return f, fmt.Errorf("flamebench: the OutputFile directory doesn't exist: %v", err)
	}
	return f, nil
}

// checkFloats converts a configuration value to a float slice,
// accepting both native float slices and string representations.
func checkFloats(i interface{}, name string) ([]float64, error) {
	switch v := i.(type) {
	case []float64:
		return append([]float64{}, v...), nil
	case []interface{}:
		o := make([]float64, len(v))
		for j, r := range v {
			f, err := cast.ToFloat64E(r)
			if err != nil {
				return nil, fmt.Errorf("flamebench: %s[%d]: %v", name, j, err)
			}
			o[j] = f
		}
		return o, nil
	case []string:
		o := make([]float64, len(v))
		for j, r := range v {
			f, err := cast.ToFloat64E(r)
			if err != nil {
				return nil, fmt.Errorf("flamebench: %s[%d]: %v", name, j, err)
			}
			o[j] = f
		}
		return o, nil
	case string:
		// Flag values arrive as "[0.6,0.8,1.0]" or "0.6,0.8,1.0".
		s := strings.Trim(v, "[]")
		var o []float64
		for j, part := range strings.Split(s, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			f, err := cast.ToFloat64E(part)
			if err != nil {
				return nil, fmt.Errorf("flamebench: %s[%d]: %v", name, j, err)
			}
			o = append(o, f)
		}
		return o, nil
	default:
		// A single scalar is allowed.
		f, err := cast.ToFloat64E(i)
		if err != nil {
			return nil, fmt.Errorf("flamebench: %s must be a list of numbers: %v", name, err)
		}
		return []float64{f}, nil
	}
}

// expandStringSlice expands the environment variables in a slice of strings.
func expandStringSlice(s []string) []string {
	for i := 0; i < len(s); i++ {
		s[i] = os.ExpandEnv(s[i])
	}
	return s
}
