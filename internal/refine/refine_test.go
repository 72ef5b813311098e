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

package refine

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stapelberg/spotgen"
	"github.com/stapelberg/spotgen/internal/plane"
)

var modes = []spotgen.MarginMode{
	spotgen.ErodeBilateral,
	spotgen.DistanceBlur,
	spotgen.DistanceNoBlur,
}

// square returns a size×size plane with a centered block of value v which
// leaves a border of the given width.
func square(size, border int, v uint8) *plane.Plane {
	p := plane.New(size, size)
	for y := border; y < size-border; y++ {
		for x := border; x < size-border; x++ {
			p.Set(x, y, v)
		}
	}
	return p
}

func TestZeroAlphaStaysZero(t *testing.T) {
	alpha := plane.New(16, 9)
	for _, mode := range modes {
		for margin := 0; margin <= 5; margin++ {
			t.Run(fmt.Sprintf("%v/%d", mode, margin), func(t *testing.T) {
				got, err := Refine(alpha, margin, mode)
				if err != nil {
					t.Fatal(err)
				}
				if !got.IsZero() {
					t.Fatalf("Refine(zero alpha) = %v, want all zero", got.Pix)
				}
				if !got.SameSize(alpha) {
					t.Fatalf("Refine changed size: got %v, want %v", got, alpha)
				}
			})
		}
	}
}

func TestErodeBilateralZeroMarginIsIdentity(t *testing.T) {
	alpha := square(12, 3, 255)
	alpha.Set(5, 5, 17)
	alpha.Set(6, 6, 130)
	got, err := Refine(alpha, 0, spotgen.ErodeBilateral)
	if err != nil {
		t.Fatal(err)
	}
	if !got.Equal(alpha) {
		t.Fatalf("Refine(margin=0) = %v, want %v", got.Pix, alpha.Pix)
	}
	got.Set(0, 0, 99)
	if alpha.At(0, 0) != 0 {
		t.Fatalf("Refine(margin=0) returned a plane aliasing its input")
	}
}

func TestMarginShrinksMask(t *testing.T) {
	const margin = 2
	alpha := square(20, 5, 255)
	orig := alpha.Clone()
	for _, mode := range modes {
		t.Run(mode.String(), func(t *testing.T) {
			got, err := Refine(alpha, margin, mode)
			if err != nil {
				t.Fatal(err)
			}
			if !alpha.Equal(orig) {
				t.Fatalf("Refine modified its input")
			}
			if v := got.At(10, 10); v != 255 {
				t.Errorf("center = %d, want 255", v)
			}
			// (5, 10) is on the mask edge, (6, 10) one pixel inside.
			for _, x := range []int{5, 6} {
				if v := got.At(x, 10); v >= 128 {
					t.Errorf("(%d, 10) = %d, want < 128 inside the margin", x, v)
				}
			}
			if v := got.At(0, 0); v != 0 {
				t.Errorf("outside = %d, want 0", v)
			}
		})
	}
}

func TestDistanceNoBlurKeepsValues(t *testing.T) {
	alpha := square(20, 4, 180)
	// near-zero noise is not part of the mask
	alpha.Set(1, 1, 2)
	got, err := Refine(alpha, 1, spotgen.DistanceNoBlur)
	if err != nil {
		t.Fatal(err)
	}
	for _, test := range []struct {
		x, y int
		want uint8
	}{
		{1, 1, 0},
		{4, 4, 0},   // edge, distance 1
		{5, 5, 180}, // distance 2
		{10, 10, 180},
	} {
		if v := got.At(test.x, test.y); v != test.want {
			t.Errorf("(%d, %d) = %d, want %d", test.x, test.y, v, test.want)
		}
	}
}

func TestInvalidArguments(t *testing.T) {
	alpha := plane.New(2, 2)
	if _, err := Refine(alpha, -1, spotgen.DistanceBlur); !errors.Is(err, spotgen.ErrInvalidConfig) {
		t.Errorf("Refine(margin=-1) = %v, want ErrInvalidConfig", err)
	}
	if _, err := Refine(alpha, 1, spotgen.MarginMode(9)); !errors.Is(err, spotgen.ErrInvalidConfig) {
		t.Errorf("Refine(mode=9) = %v, want ErrInvalidConfig", err)
	}
}
