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
	"path/filepath"
)

// ArtifactRole identifies the logical role of one generated case file.
type ArtifactRole string

const (
	ArtifactSpeciesField     ArtifactRole = "species-field"
	ArtifactTemperatureField ArtifactRole = "temperature-field"
	ArtifactPressureField    ArtifactRole = "pressure-field"
	ArtifactMesh             ArtifactRole = "mesh"
	ArtifactFieldInit        ArtifactRole = "field-init"
	ArtifactMechanismRef     ArtifactRole = "mechanism-ref"
	ArtifactRunControl       ArtifactRole = "run-control"
)

// caseApplication is the external solver application named in the run
// control file.
const caseApplication = "chemFoam"

// caseCrossSection is the dummy cross-section extent [m] of the
// pseudo-1D mesh; the lateral faces are empty patches.
const caseCrossSection = 0.1

// caseMaxTimestep caps the solver's own timestep adjustment.
const caseMaxTimestep = 1e-4

// An Artifact is one generated case file: its role, its path relative
// to the case directory, and its full contents.
type Artifact struct {
	Role    ArtifactRole
	Name    string
	Content []byte
}

// A CaseArtifactSet is the ordered, internally consistent set of files
// the external CFD toolchain consumes for one case. It is owned
// exclusively by one sample's working directory and regenerated
// wholesale, never patched incrementally.
type CaseArtifactSet struct {
	// Dir is the case directory the artifacts were written to; empty
	// until WriteCase has run.
	Dir string

	Artifacts []Artifact
}

// Paths returns the relative paths of the artifacts, in order.
func (s *CaseArtifactSet) Paths() []string {
	o := make([]string, len(s.Artifacts))
	for i, a := range s.Artifacts {
		o[i] = a.Name
	}
	return o
}

// ByRole returns the artifacts with the given role, in order.
func (s *CaseArtifactSet) ByRole(role ArtifactRole) []Artifact {
	var o []Artifact
	for _, a := range s.Artifacts {
		if a.Role == role {
			o = append(o, a)
		}
	}
	return o
}

// BuildCaseArtifacts constructs the complete artifact set for one case
// in memory, without touching the filesystem. Construction is pure:
// identical inputs yield byte-identical contents.
//
// Exactly one species field is produced per mechanism species, in
// declaration order; the initial value of each is the species' mass
// fraction in the unburned mixture (zero for species not present).
func BuildCaseArtifacts(params CaseParameters, state GasState, mech *Mechanism) (*CaseArtifactSet, error) {
	massFractions, err := mech.MixtureMassFractions(state)
	if err != nil {
		return nil, &ArtifactError{Reason: "computing mixture composition", Err: err}
	}
	// Every mixture species must belong to the mechanism's species
	// list; a mismatch would let the external solver silently default
	// unlisted species.
	for name := range massFractions {
		if !mech.HasSpecies(name) {
			return nil, &ArtifactError{
				Reason: fmt.Sprintf("mixture species %q is not declared by mechanism %s", name, mech.Path)}
		}
	}

	set := &CaseArtifactSet{}
	add := func(role ArtifactRole, name string, t interface{}) error {
		var content []byte
		var err error
		switch data := t.(type) {
		case scalarFieldData:
			content, err = renderTemplate(scalarFieldTemplate, data)
		case controlDictData:
			content, err = renderTemplate(controlDictTemplate, data)
		case blockMeshData:
			content, err = renderTemplate(blockMeshTemplate, data)
		case setFieldsData:
			content, err = renderTemplate(setFieldsTemplate, data)
		case mechanismRefData:
			content, err = renderTemplate(mechanismRefTemplate, data)
		default:
			err = fmt.Errorf("unhandled template data type %T", t)
		}
		if err != nil {
			return &ArtifactError{Reason: "rendering " + name, Err: err}
		}
		set.Artifacts = append(set.Artifacts, Artifact{Role: role, Name: name, Content: content})
		return nil
	}

	// Initial temperature and pressure fields.
	if err := add(ArtifactTemperatureField, filepath.Join("0", "T"), scalarFieldData{
		Class: "volScalarField", Location: "0", Object: "T",
		Dimensions: "[0 0 0 1 0 0 0]", Value: state.InitialTemperature,
	}); err != nil {
		return nil, err
	}
	if err := add(ArtifactPressureField, filepath.Join("0", "p"), scalarFieldData{
		Class: "volScalarField", Location: "0", Object: "p",
		Dimensions: "[1 -1 -2 0 0 0 0]", Value: state.InitialPressure,
	}); err != nil {
		return nil, err
	}

	// One field per mechanism species, in declaration order.
	var species []speciesValue
	for _, name := range mech.Species() {
		y := massFractions[name]
		species = append(species, speciesValue{Name: name, MassFraction: y})
		if err := add(ArtifactSpeciesField, filepath.Join("0", name), scalarFieldData{
			Class: "volScalarField", Location: "0", Object: name,
			Dimensions: "[0 0 0 0 0 0 0]", Value: y,
		}); err != nil {
			return nil, err
		}
	}

	if err := add(ArtifactMesh, filepath.Join("system", "blockMeshDict"), blockMeshData{
		Class: "dictionary", Location: "system", Object: "blockMeshDict",
		DomainLength: params.DomainLength,
		CrossSection: caseCrossSection,
		CellCount:    params.CellCount,
	}); err != nil {
		return nil, err
	}

	if err := add(ArtifactFieldInit, filepath.Join("system", "setFieldsDict"), setFieldsData{
		Class: "dictionary", Location: "system", Object: "setFieldsDict",
		UnburnedTemperature: state.InitialTemperature,
		BurnedTemperature:   state.InitialTemperature + ignitionTemperatureRise,
		Pressure:            state.InitialPressure,
		FlamePosition:       params.FlamePosition,
		DomainLength:        params.DomainLength,
		CrossSection:        caseCrossSection,
		Species:             species,
	}); err != nil {
		return nil, err
	}

	if err := add(ArtifactMechanismRef, filepath.Join("constant", "CanteraMechanismFile"), mechanismRefData{
		Class: "dictionary", Location: "constant", Object: "CanteraMechanismFile",
		MechanismPath: params.MechanismPath,
	}); err != nil {
		return nil, err
	}

	if err := add(ArtifactRunControl, filepath.Join("system", "controlDict"), controlDictData{
		Class: "dictionary", Location: "system", Object: "controlDict",
		Application:   caseApplication,
		RunDuration:   params.RunDuration,
		Timestep:      params.Timestep,
		MaxTimestep:   caseMaxTimestep,
		WriteInterval: params.WriteInterval,
	}); err != nil {
		return nil, err
	}

	return set, nil
}

// ignitionTemperatureRise is the temperature increase applied to the
// burned-side region to ignite the flame.
const ignitionTemperatureRise = 1000.

// WriteCase writes the artifact set into dir, fully replacing any prior
// contents. The write is all-or-nothing: artifacts are staged in a
// sibling directory and swapped into place only once every file has
// been written, so a failure can never leave a half-populated case
// directory behind.
func (s *CaseArtifactSet) WriteCase(dir string) error {
	staging := dir + ".staging"
	if err := os.RemoveAll(staging); err != nil {
		return &ArtifactError{Dir: dir, Reason: "clearing staging directory", Err: err}
	}
	for _, a := range s.Artifacts {
		path := filepath.Join(staging, a.Name)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			os.RemoveAll(staging)
			return &ArtifactError{Dir: dir, Reason: "creating " + filepath.Dir(a.Name), Err: err}
		}
		if err := os.WriteFile(path, a.Content, 0644); err != nil {
			os.RemoveAll(staging)
			return &ArtifactError{Dir: dir, Reason: "writing " + a.Name, Err: err}
		}
	}
	if err := os.RemoveAll(dir); err != nil {
		os.RemoveAll(staging)
		return &ArtifactError{Dir: dir, Reason: "removing stale case directory", Err: err}
	}
	if err := os.Rename(staging, dir); err != nil {
		os.RemoveAll(staging)
		return &ArtifactError{Dir: dir, Reason: "installing case directory", Err: err}
	}
	s.Dir = dir
	return nil
}

// GenerateCase builds the artifact set for one case and writes it to
// dir, replacing any prior contents. Regenerating into the same
// directory with the same inputs yields byte-identical files.
func GenerateCase(params CaseParameters, state GasState, mech *Mechanism, dir string) (*CaseArtifactSet, error) {
	set, err := BuildCaseArtifacts(params, state, mech)
	if err != nil {
		if ae, ok := err.(*ArtifactError); ok && ae.Dir == "" {
			ae.Dir = dir
		}
		return nil, err
	}
	if err := set.WriteCase(dir); err != nil {
		return nil, err
	}
	return set, nil
}
