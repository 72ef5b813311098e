// Copyright 2016 Michael Stapelberg and contributors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package composite assembles the final channel stack of a spot artifact.
package composite

import (
	"github.com/stapelberg/spotgen/internal/plane"
)

// Names is the channel order of a spot artifact.
var Names = []string{
	plane.Cyan,
	plane.Magenta,
	plane.Yellow,
	plane.Black,
	plane.Alpha,
	plane.Spot,
}

// Invert returns 255-mask as a new plane. The internal mask uses 255 for
// full coverage while the emitted spot channel uses 0 for full ink.
func Invert(mask *plane.Plane) *plane.Plane {
	out := plane.New(mask.Width, mask.Height)
	for i, v := range mask.Pix {
		out.Pix[i] = 255 - v
	}
	return out
}

// Assemble stacks the planes in output order. spot must already be inverted.
func Assemble(c, m, y, k, alpha, spot *plane.Plane) (*plane.Stack, error) {
	return plane.NewStack(Names, []*plane.Plane{c, m, y, k, alpha, spot})
}
