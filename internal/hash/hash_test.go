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

package hash

import (
	"math"
	"testing"
)

type state struct {
	Temperature float64
	Pressure    float64
	Phi         float64
}

func TestHashStable(t *testing.T) {
	s := state{300, 101325, 1}
	if Hash(s) != Hash(s) {
		t.Error("identical values hash differently")
	}
}

func TestHashDistinguishes(t *testing.T) {
	a := state{300, 101325, 1}
	b := state{300, 101325, 1.2}
	if Hash(a) == Hash(b) {
		t.Error("different values hash identically")
	}
}

func TestHashNaNFallback(t *testing.T) {
	// Values gob refuses to encode fall back to spew; either path
	// must produce a stable key.
	s := state{math.NaN(), 101325, 1}
	if Hash(s) == "" || Hash(s) != Hash(s) {
		t.Error("NaN values do not hash stably")
	}
}
