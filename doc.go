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

// Package flamebench generates labeled training data for combustion
// machine-learning models. It sweeps a grid of thermochemical states,
// derives numerically stable case parameters from 1D laminar flame
// properties, renders complete CFD case directories, drives an external
// flame solver over them, and collects the solved fields into a
// standardized dataset format.
//
// The numerical solvers themselves are external: a chemical-kinetics
// engine provides steady flame solutions (FlameSolver) and a CFD
// toolchain integrates the transient case (CaseRunner). FlameBench is
// responsible for everything around them: parameter derivation, artifact
// generation, orchestration, and collection.
package flamebench

// Version gives the version number of this version of FlameBench.
const Version = "0.3.1"
