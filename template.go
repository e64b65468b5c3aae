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
	"bytes"
	"fmt"
	"text/template"
)

// Templates for the OpenFOAM-format case files the external CFD
// toolchain consumes. All numeric substitutions use fixed formats so
// that regeneration from identical inputs is byte-identical.

var templateFuncs = template.FuncMap{
	"sci": func(v float64) string { return fmt.Sprintf("%.6e", v) },
	"g":   func(v float64) string { return fmt.Sprintf("%g", v) },
}

const foamHeader = `/*--------------------------------*- C++ -*----------------------------------*\
| =========                 |                                                 |
| \\      /  F ield         | OpenFOAM: The Open Source CFD Toolbox           |
|  \\    /   O peration     | Version:  v2012                                 |
|   \\  /    A nd           | Website:  www.openfoam.com                      |
|    \\/     M anipulation  |                                                 |
\*---------------------------------------------------------------------------*/
FoamFile
{
    version     2.0;
    format      ascii;
    class       {{.Class}};
    location    "{{.Location}}";
    object      {{.Object}};
}
// * * * * * * * * * * * * * * * * * * * * * * * * * * * * * * * * * * * * * //

`

const foamFooter = `
// ************************************************************************* //
`

// scalarFieldTemplate renders one uniform initial volScalarField.
var scalarFieldTemplate = template.Must(template.New("field").Funcs(templateFuncs).Parse(
	foamHeader + `dimensions      {{.Dimensions}};

internalField   uniform {{sci .Value}};

boundaryField
{
    inlet
    {
        type            fixedValue;
        value           uniform {{sci .Value}};
    }

    outlet
    {
        type            zeroGradient;
    }

    walls
    {
        type            zeroGradient;
    }
}
` + foamFooter))

type scalarFieldData struct {
	Class, Location, Object string
	Dimensions              string
	Value                   float64
}

// controlDictTemplate renders the run-control overrides: timestep, run
// duration and write schedule derived from the case parameters.
var controlDictTemplate = template.Must(template.New("controlDict").Funcs(templateFuncs).Parse(
	foamHeader + `application     {{.Application}};

startFrom       startTime;

startTime       0;

stopAt          endTime;

endTime         {{sci .RunDuration}};

deltaT          {{sci .Timestep}};

writeControl    timeStep;

writeInterval   {{.WriteInterval}};

purgeWrite      0;

writeFormat     ascii;

writePrecision  6;

writeCompression off;

timeFormat      general;

timePrecision   6;

runTimeModifiable true;

adjustTimeStep  no;

maxCo           1;

maxDeltaT       {{sci .MaxTimestep}};

functions
{
};
` + foamFooter))

type controlDictData struct {
	Class, Location, Object string
	Application             string
	RunDuration             float64
	Timestep                float64
	MaxTimestep             float64
	WriteInterval           int
}

// blockMeshTemplate renders the 1D mesh: a single hex block CellCount
// cells long with unit cross-section patches.
var blockMeshTemplate = template.Must(template.New("blockMeshDict").Funcs(templateFuncs).Parse(
	foamHeader + `convertToMeters 1;

vertices
(
    (0 0 0)
    ({{sci .DomainLength}} 0 0)
    ({{sci .DomainLength}} {{sci .CrossSection}} 0)
    (0 {{sci .CrossSection}} 0)
    (0 0 {{sci .CrossSection}})
    ({{sci .DomainLength}} 0 {{sci .CrossSection}})
    ({{sci .DomainLength}} {{sci .CrossSection}} {{sci .CrossSection}})
    (0 {{sci .CrossSection}} {{sci .CrossSection}})
);

blocks
(
    hex (0 1 2 3 4 5 6 7) ({{.CellCount}} 1 1) simpleGrading (1 1 1)
);

edges
(
);

boundary
(
    inlet
    {
        type patch;
        faces
        (
            (0 4 7 3)
        );
    }
    outlet
    {
        type patch;
        faces
        (
            (1 2 6 5)
        );
    }
    walls
    {
        type empty;
        faces
        (
            (0 1 5 4)
            (3 7 6 2)
            (0 3 2 1)
            (4 5 6 7)
        );
    }
);
` + foamFooter))

type blockMeshData struct {
	Class, Location, Object string
	DomainLength            float64
	CrossSection            float64
	CellCount               int
}

// setFieldsTemplate renders the field-initialization directive: uniform
// unburned defaults plus a hot region on the burned side of the flame
// position to ignite the flame.
var setFieldsTemplate = template.Must(template.New("setFieldsDict").Funcs(templateFuncs).Parse(
	foamHeader + `// Set values on a selected portion of the domain
defaultFieldValues
(
    volScalarFieldValue T {{g .UnburnedTemperature}}
    volScalarFieldValue p {{g .Pressure}}
{{- range .Species}}
    volScalarFieldValue {{.Name}} {{sci .MassFraction}}
{{- end}}
);

regions
(
    boxToCell
    {
        box (0 0 0) ({{sci .FlamePosition}} {{sci .CrossSection}} {{sci .CrossSection}});
        fieldValues
        (
            volScalarFieldValue T {{g .BurnedTemperature}}
        );
    }

    boxToCell
    {
        box ({{sci .FlamePosition}} 0 0) ({{sci .DomainLength}} {{sci .CrossSection}} {{sci .CrossSection}});
        fieldValues
        (
            volScalarFieldValue T {{g .UnburnedTemperature}}
        );
    }
);
` + foamFooter))

type setFieldsData struct {
	Class, Location, Object string
	UnburnedTemperature     float64
	BurnedTemperature       float64
	Pressure                float64
	FlamePosition           float64
	DomainLength            float64
	CrossSection            float64
	Species                 []speciesValue
}

type speciesValue struct {
	Name         string
	MassFraction float64
}

// mechanismRefTemplate points the solver's run control at the mechanism
// artifact path.
var mechanismRefTemplate = template.Must(template.New("mechanismRef").Funcs(templateFuncs).Parse(
	foamHeader + `// Path to the chemical-kinetics mechanism file
mechanismFile    "{{.MechanismPath}}";
` + foamFooter))

type mechanismRefData struct {
	Class, Location, Object string
	MechanismPath           string
}

func renderTemplate(t *template.Template, data interface{}) ([]byte, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
