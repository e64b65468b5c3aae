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

// Package flamebenchutil holds the configuration and command glue for
// the flamebench command-line tool.
package flamebenchutil

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/combustsim/flamebench"
)

// Cfg holds configuration information.
var Cfg *viper.Viper

var options []struct {
	name, usage, shorthand string
	defaultVal             interface{}
	flagsets               []*pflag.FlagSet
}

func init() {
	// Options are the configuration options available to FlameBench.
	options = []struct {
		name, usage, shorthand string
		defaultVal             interface{}
		flagsets               []*pflag.FlagSet
	}{
		{
			name: "config",
			usage: `
              config specifies the configuration file location.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "LogLevel",
			usage: `
              LogLevel sets the logging verbosity: debug, info, warn or error.`,
			defaultVal: "info",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "MechanismFile",
			usage: `
              MechanismFile is the path to the chemical-kinetics mechanism
              (Cantera YAML format) shared by every sample.`,
			shorthand:  "m",
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{sweepCmd.Flags(), zerodCmd.Flags()},
		},
		{
			name: "Fuel",
			usage: `
              Fuel is the mole-fraction composition of the fuel stream,
              for example "H2:1" or "CH4:0.9,H2:0.1".`,
			defaultVal: "H2:1",
			flagsets:   []*pflag.FlagSet{sweepCmd.Flags(), zerodCmd.Flags()},
		},
		{
			name: "Oxidizer",
			usage: `
              Oxidizer is the mole-fraction composition of the oxidizer
              stream.`,
			defaultVal: "O2:0.21,N2:0.79",
			flagsets:   []*pflag.FlagSet{sweepCmd.Flags(), zerodCmd.Flags()},
		},
		{
			name: "EquivalenceRatios",
			usage: `
              EquivalenceRatios lists the equivalence ratios to sweep.`,
			defaultVal: []float64{1.0},
			flagsets:   []*pflag.FlagSet{sweepCmd.Flags(), zerodCmd.Flags()},
		},
		{
			name: "Temperatures",
			usage: `
              Temperatures lists the unburned gas temperatures to sweep [K].`,
			defaultVal: []float64{300},
			flagsets:   []*pflag.FlagSet{sweepCmd.Flags(), zerodCmd.Flags()},
		},
		{
			name: "Pressures",
			usage: `
              Pressures lists the unburned gas pressures to sweep [Pa].`,
			defaultVal: []float64{101325},
			flagsets:   []*pflag.FlagSet{sweepCmd.Flags(), zerodCmd.Flags()},
		},
		{
			name: "WorkDir",
			usage: `
              WorkDir is the directory holding per-sample case directories.`,
			defaultVal: "cases",
			flagsets:   []*pflag.FlagSet{sweepCmd.Flags()},
		},
		{
			name: "OutputDir",
			usage: `
              OutputDir receives one dataset file per collected sample.`,
			shorthand:  "o",
			defaultVal: "output",
			flagsets:   []*pflag.FlagSet{sweepCmd.Flags(), zerodCmd.Flags()},
		},
		{
			name: "MaxConcurrent",
			usage: `
              MaxConcurrent bounds the number of samples processed
              simultaneously. Zero means the number of CPUs.`,
			defaultVal: 0,
			flagsets:   []*pflag.FlagSet{sweepCmd.Flags()},
		},
		{
			name: "KeepCases",
			usage: `
              KeepCases preserves case directories after successful
              collection instead of deleting them.`,
			defaultVal: false,
			flagsets:   []*pflag.FlagSet{sweepCmd.Flags()},
		},
		{
			name: "CollectWait",
			usage: `
              CollectWait bounds how long collection waits for solver output
              to appear on disk, for example "30s". Zero disables waiting.`,
			defaultVal: "0s",
			flagsets:   []*pflag.FlagSet{sweepCmd.Flags()},
		},
		{
			name: "SolverCommand",
			usage: `
              SolverCommand is the external 1D flame solver executable.`,
			defaultVal: "flamesolve",
			flagsets:   []*pflag.FlagSet{sweepCmd.Flags()},
		},
		{
			name: "SolverArgs",
			usage: `
              SolverArgs are extra arguments appended to the flame solver
              command line.`,
			defaultVal: []string{},
			flagsets:   []*pflag.FlagSet{sweepCmd.Flags()},
		},
		{
			name: "ThicknessDefinition",
			usage: `
              ThicknessDefinition selects how flame thickness is computed:
              "thermal" recomputes it from the temperature profile,
              "reported" uses the solver's own value.`,
			defaultVal: "thermal",
			flagsets:   []*pflag.FlagSet{sweepCmd.Flags()},
		},
		{
			name: "RunCommand",
			usage: `
              RunCommand is the external CFD solver executable or driver
              script, run with the case directory as working directory.`,
			defaultVal: "./Allrun",
			flagsets:   []*pflag.FlagSet{sweepCmd.Flags()},
		},
		{
			name: "RunArgs",
			usage: `
              RunArgs are arguments passed to RunCommand.`,
			defaultVal: []string{},
			flagsets:   []*pflag.FlagSet{sweepCmd.Flags()},
		},
		{
			name: "ReconstructCommand",
			usage: `
              ReconstructCommand merges decomposed solver output into
              per-time directories after the run. Empty skips the step.`,
			defaultVal: "reconstructPar",
			flagsets:   []*pflag.FlagSet{sweepCmd.Flags()},
		},
		{
			name: "Derive.DomainThicknessRatio",
			usage: `
              Derive.DomainThicknessRatio sets the domain length as a
              multiple of the flame thickness.`,
			defaultVal: 50.0,
			flagsets:   []*pflag.FlagSet{sweepCmd.Flags()},
		},
		{
			name: "Derive.CellsPerThickness",
			usage: `
              Derive.CellsPerThickness sets the minimum number of mesh cells
              resolving one flame thickness.`,
			defaultVal: 10.0,
			flagsets:   []*pflag.FlagSet{sweepCmd.Flags()},
		},
		{
			name: "Derive.CFLSafetyFactor",
			usage: `
              Derive.CFLSafetyFactor scales the stability-bounded timestep
              down to the timestep actually used. Must be in (0, 1].`,
			defaultVal: 0.4,
			flagsets:   []*pflag.FlagSet{sweepCmd.Flags()},
		},
		{
			name: "Derive.TransitMultiplier",
			usage: `
              Derive.TransitMultiplier sets the run duration as a multiple
              of the flame's domain transit time.`,
			defaultVal: 1.5,
			flagsets:   []*pflag.FlagSet{sweepCmd.Flags()},
		},
		{
			name: "Derive.MinDomainLength",
			usage: `
              Derive.MinDomainLength is a floor on the domain length [m].`,
			defaultVal: 0.0,
			flagsets:   []*pflag.FlagSet{sweepCmd.Flags()},
		},
		{
			name: "Derive.MaxCellCount",
			usage: `
              Derive.MaxCellCount rejects cases whose mesh would be
              excessively expensive to integrate.`,
			defaultVal: 200000,
			flagsets:   []*pflag.FlagSet{sweepCmd.Flags()},
		},
		{
			name: "Derive.WriteInterval",
			usage: `
              Derive.WriteInterval is the number of timesteps between field
              writes.`,
			defaultVal: 100,
			flagsets:   []*pflag.FlagSet{sweepCmd.Flags()},
		},
		{
			name: "BatchCommand",
			usage: `
              BatchCommand is the external 0D batch-reactor engine
              executable.`,
			defaultVal: "batchsolve",
			flagsets:   []*pflag.FlagSet{zerodCmd.Flags()},
		},
		{
			name: "BatchDuration",
			usage: `
              BatchDuration is the simulated reactor time per sample [s].`,
			defaultVal: 1.0e-3,
			flagsets:   []*pflag.FlagSet{zerodCmd.Flags()},
		},
		{
			name: "OutputFile",
			usage: `
              OutputFile is the merged dataset file to create.`,
			shorthand:  "o",
			defaultVal: "dataset.nc",
			flagsets:   []*pflag.FlagSet{mergeCmd.Flags()},
		},
	}

	Cfg = viper.New()

	// Set the prefix for configuration environment variables.
	Cfg.SetEnvPrefix("FLAMEBENCH")

	for _, option := range options {
		for i, set := range option.flagsets {
			if i != 0 { // We don't want to create the same flag twice.
				set.AddFlag(option.flagsets[0].Lookup(option.name))
				continue
			}
			switch option.defaultVal.(type) {
			case string:
				if option.shorthand == "" {
					set.String(option.name, option.defaultVal.(string), option.usage)
				} else {
					set.StringP(option.name, option.shorthand, option.defaultVal.(string), option.usage)
				}
			case []string:
				if option.shorthand == "" {
					set.StringSlice(option.name, option.defaultVal.([]string), option.usage)
				} else {
					set.StringSliceP(option.name, option.shorthand, option.defaultVal.([]string), option.usage)
				}
			case bool:
				if option.shorthand == "" {
					set.Bool(option.name, option.defaultVal.(bool), option.usage)
				} else {
					set.BoolP(option.name, option.shorthand, option.defaultVal.(bool), option.usage)
				}
			case int:
				if option.shorthand == "" {
					set.Int(option.name, option.defaultVal.(int), option.usage)
				} else {
					set.IntP(option.name, option.shorthand, option.defaultVal.(int), option.usage)
				}
			case float64:
				if option.shorthand == "" {
					set.Float64(option.name, option.defaultVal.(float64), option.usage)
				} else {
					set.Float64P(option.name, option.shorthand, option.defaultVal.(float64), option.usage)
				}
			case []float64:
				if option.shorthand == "" {
					set.Float64Slice(option.name, option.defaultVal.([]float64), option.usage)
				} else {
					set.Float64SliceP(option.name, option.shorthand, option.defaultVal.([]float64), option.usage)
				}
			default:
				panic("invalid argument type")
			}
			Cfg.BindPFlag(option.name, set.Lookup(option.name))
		}
	}
}

func init() {
	// Link the commands together.
	Root.AddCommand(versionCmd)
	Root.AddCommand(sweepCmd)
	Root.AddCommand(zerodCmd)
	Root.AddCommand(mergeCmd)
}

// Log is the logger used by the commands.
var Log = logrus.New()

// setConfig finds and reads in the configuration file, if there is one,
// and applies the configured log level.
func setConfig() error {
	if cfgpath := Cfg.GetString("config"); cfgpath != "" {
		Cfg.SetConfigFile(cfgpath)
		if err := Cfg.ReadInConfig(); err != nil {
			return fmt.Errorf("flamebench: problem reading configuration file: %v", err)
		}
	}
	level, err := logrus.ParseLevel(Cfg.GetString("LogLevel"))
	if err != nil {
		return fmt.Errorf("flamebench: %v", err)
	}
	Log.SetLevel(level)
	return nil
}

// Root is the main command.
var Root = &cobra.Command{
	Use:   "flamebench",
	Short: "A combustion training-data generator.",
	Long: `FlameBench sweeps gas-state parameter grids through an external
chemical-kinetics engine and CFD solver to generate labeled training
data for combustion machine-learning models.

Configuration can be changed by using a configuration file (and providing the
path to the file using the --config flag), by using command-line arguments,
or by setting environment variables in the format 'FLAMEBENCH_var' where 'var'
is the name of the variable to be set.
Refer to https://github.com/spf13/viper for additional configuration information.`,
	DisableAutoGenTag: true,
	PersistentPreRunE: func(*cobra.Command, []string) error { return setConfig() },
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Long:  "version prints the version number of this version of FlameBench.",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Printf("FlameBench v%s\n", flamebench.Version)
	},
	DisableAutoGenTag: true,
}

// sweepCmd runs a 1D flame parameter sweep.
var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Run a 1D flame parameter sweep.",
	Long: `sweep solves a steady 1D flame for every point of the configured
gas-state grid, derives and generates a CFD case for each, runs the
external solver, and collects the results into dataset files.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := SweepConfigFromCfg(Cfg)
		if err != nil {
			return err
		}
		solver, err := flameSolverFromCfg(Cfg)
		if err != nil {
			return err
		}
		runner := caseRunnerFromCfg(Cfg)

		sweep, err := flamebench.NewSweep(cfg, solver, runner, Log)
		if err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()
		summary, err := sweep.Run(ctx)
		if summary != nil {
			printSummary(cmd, summary)
		}
		return err
	},
	DisableAutoGenTag: true,
}

// zerodCmd runs a 0D batch-reactor parameter sweep.
var zerodCmd = &cobra.Command{
	Use:   "zerod",
	Short: "Run a 0D batch-reactor parameter sweep.",
	Long: `zerod integrates a zero-dimensional constant-pressure reactor for
every point of the configured gas-state grid and writes one dataset
file per sample. It is the cheap companion to 'sweep' for generating
ignition-delay training data.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := SweepConfigFromCfg(Cfg)
		if err != nil {
			return err
		}
		engine := &flamebench.ExecBatchEngine{Command: os.ExpandEnv(Cfg.GetString("BatchCommand"))}
		sampler, err := flamebench.NewZeroDSampler(cfg, Cfg.GetFloat64("BatchDuration"), engine, Log)
		if err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()
		summary, err := sampler.Run(ctx)
		if summary != nil {
			printSummary(cmd, summary)
		}
		return err
	},
	DisableAutoGenTag: true,
}

// mergeCmd merges per-sample dataset files.
var mergeCmd = &cobra.Command{
	Use:   "merge [datasets...]",
	Short: "Merge per-sample dataset files into one.",
	Long: `merge combines per-sample dataset files into a single file with a
leading sample dimension. Every input must share the same variables,
time count and cell count.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out, err := checkOutputFile(Cfg.GetString("OutputFile"))
		if err != nil {
			return err
		}
		if err := flamebench.MergeSampleDatasets(args, out); err != nil {
			return err
		}
		cmd.Printf("merged %d datasets into %s\n", len(args), out)
		return nil
	},
	DisableAutoGenTag: true,
}

// printSummary reports the sweep outcome on the command's output.
func printSummary(cmd *cobra.Command, s *flamebench.SweepSummary) {
	cmd.Printf("attempted %d, succeeded %d, failed %d, not attempted %d\n",
		s.Attempted, s.Succeeded, s.Failed, s.NotAttempted)
	for _, f := range s.Failures {
		cmd.Printf("  sample %d %v failed in %s: %s\n", f.Index, f.State, f.Stage, f.Diagnostic)
	}
}
