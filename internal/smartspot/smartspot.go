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

// Package smartspot implements the optional corrective passes which run over
// a refined spot mask.
package smartspot

import (
	"github.com/stapelberg/spotgen"
	"github.com/stapelberg/spotgen/internal/morph"
	"github.com/stapelberg/spotgen/internal/plane"
)

// Fix applies the enabled passes of opts to mask, in place: CopyWhite first,
// then FillGaps. c, m, y, k and alpha are the original planes and are only
// read.
func Fix(mask, c, m, y, k, alpha *plane.Plane, marginPixels int, opts spotgen.SmartSpot) error {
	if err := plane.CheckSize(mask, c, m, y, k, alpha); err != nil {
		return err
	}
	if opts.CopyWhite {
		CopyWhite(mask, c, m, y, k, alpha)
	}
	if opts.FillGaps {
		FillGaps(mask, marginPixels)
	}
	return nil
}

// CopyWhite sets mask to the original alpha wherever the artwork is pure
// white (no ink at all) but not transparent. Erosion tends to remove thin
// white highlights from the mask, which would leave them without spot ink.
// Pixels already at 255 are left alone.
func CopyWhite(mask, c, m, y, k, alpha *plane.Plane) {
	for i, a := range alpha.Pix {
		if a == 0 || mask.Pix[i] == 255 {
			continue
		}
		if c.Pix[i]|m.Pix[i]|y.Pix[i]|k.Pix[i] != 0 {
			continue
		}
		mask.Pix[i] = a
	}
}

// WindowSide returns the side length of the square used by FillGaps:
// 2*floor(marginPixels/2)+1.
func WindowSide(marginPixels int) int {
	return 2*(marginPixels/2) + 1
}

// FillGaps closes holes in mask which are smaller than the FillGaps window,
// using a morphological closing. Holes wider than the window stay open.
func FillGaps(mask *plane.Plane, marginPixels int) {
	r := WindowSide(marginPixels) / 2
	if r == 0 {
		return
	}
	closed := morph.Close(mask, r)
	copy(mask.Pix, closed.Pix)
}
