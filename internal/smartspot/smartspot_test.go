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

package smartspot

import (
	"errors"
	"testing"

	"github.com/stapelberg/spotgen"
	"github.com/stapelberg/spotgen/internal/plane"
)

const size = 30

type fixture struct {
	mask, c, m, y, k, alpha *plane.Plane
}

// newFixture returns ink planes with full black everywhere except for a
// 10×10 white (zero ink) patch at (10, 10) with alpha 200, and an all-zero
// mask.
func newFixture() fixture {
	f := fixture{
		mask:  plane.New(size, size),
		c:     plane.New(size, size),
		m:     plane.New(size, size),
		y:     plane.New(size, size),
		k:     plane.Filled(size, size, 255),
		alpha: plane.Filled(size, size, 255),
	}
	for y := 10; y < 20; y++ {
		for x := 10; x < 20; x++ {
			f.k.Set(x, y, 0)
			f.alpha.Set(x, y, 200)
		}
	}
	return f
}

func inPatch(x, y int) bool {
	return x >= 10 && x < 20 && y >= 10 && y < 20
}

func TestCopyWhite(t *testing.T) {
	f := newFixture()
	if err := Fix(f.mask, f.c, f.m, f.y, f.k, f.alpha, 2, spotgen.SmartSpot{CopyWhite: true}); err != nil {
		t.Fatal(err)
	}
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			want := uint8(0)
			if inPatch(x, y) {
				want = 200
			}
			if got := f.mask.At(x, y); got != want {
				t.Fatalf("mask(%d, %d) = %d, want %d", x, y, got, want)
			}
		}
	}
}

func TestCopyWhiteRespectsFullMaskAndTransparency(t *testing.T) {
	f := newFixture()
	f.mask.Set(12, 12, 255)
	f.alpha.Set(13, 13, 0)
	CopyWhite(f.mask, f.c, f.m, f.y, f.k, f.alpha)
	if got := f.mask.At(12, 12); got != 255 {
		t.Errorf("mask at full coverage = %d, want 255", got)
	}
	if got := f.mask.At(13, 13); got != 0 {
		t.Errorf("mask at transparent white = %d, want 0", got)
	}
}

func TestWindowSide(t *testing.T) {
	for margin, want := range []int{1, 1, 3, 3, 5, 5, 7} {
		if got := WindowSide(margin); got != want {
			t.Errorf("WindowSide(%d) = %d, want %d", margin, got, want)
		}
	}
}

func TestFillGaps(t *testing.T) {
	mask := plane.New(size, size)
	for y := 5; y < 25; y++ {
		for x := 5; x < 25; x++ {
			mask.Set(x, y, 255)
		}
	}
	// single-pixel hole
	mask.Set(9, 9, 0)
	// 5×5 hole, wider than the 3×3 window used for margin 2
	for y := 15; y < 20; y++ {
		for x := 15; x < 20; x++ {
			mask.Set(x, y, 0)
		}
	}

	FillGaps(mask, 2)

	if got := mask.At(9, 9); got != 255 {
		t.Errorf("single-pixel hole = %d, want closed (255)", got)
	}
	if got := mask.At(17, 17); got != 0 {
		t.Errorf("5×5 hole center = %d, want open (0)", got)
	}
	if got := mask.At(2, 2); got != 0 {
		t.Errorf("outside = %d, want 0 (no net growth)", got)
	}
	if got := mask.At(4, 10); got != 0 {
		t.Errorf("left of the mask edge = %d, want 0 (no net growth)", got)
	}
}

func TestNoPassesIsIdentity(t *testing.T) {
	f := newFixture()
	f.mask.Set(3, 3, 77)
	before := f.mask.Clone()
	if err := Fix(f.mask, f.c, f.m, f.y, f.k, f.alpha, 4, spotgen.SmartSpot{}); err != nil {
		t.Fatal(err)
	}
	if !f.mask.Equal(before) {
		t.Fatalf("Fix without passes changed the mask")
	}
}

func TestDimensionMismatch(t *testing.T) {
	f := newFixture()
	err := Fix(plane.New(3, 3), f.c, f.m, f.y, f.k, f.alpha, 1, spotgen.SmartSpot{CopyWhite: true})
	if !errors.Is(err, spotgen.ErrDimensionMismatch) {
		t.Fatalf("Fix(mismatched) = %v, want ErrDimensionMismatch", err)
	}
}
