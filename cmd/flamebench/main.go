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

// Command flamebench is a command-line interface for generating
// combustion machine-learning training data.
package main

import (
	"fmt"
	"os"

	"github.com/combustsim/flamebench/flamebenchutil"
)

func main() {
	if err := flamebenchutil.Root.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(-1)
	}
}
