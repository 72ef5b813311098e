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

// Package plane implements 8-bit channel planes and ordered stacks of them,
// the unit of data passed between the spot generation stages.
package plane

import (
	"fmt"

	"github.com/stapelberg/spotgen"
)

// Plane is a Width×Height grid of 8-bit samples. The sample at (x, y) is
// Pix[y*Width+x].
type Plane struct {
	Width  int
	Height int
	Pix    []uint8
}

// New returns a zero-filled plane.
func New(width, height int) *Plane {
	return &Plane{
		Width:  width,
		Height: height,
		Pix:    make([]uint8, width*height),
	}
}

// Filled returns a plane with every sample set to v.
func Filled(width, height int, v uint8) *Plane {
	p := New(width, height)
	if v != 0 {
		for i := range p.Pix {
			p.Pix[i] = v
		}
	}
	return p
}

// At returns the sample at (x, y).
func (p *Plane) At(x, y int) uint8 {
	return p.Pix[y*p.Width+x]
}

// Set sets the sample at (x, y).
func (p *Plane) Set(x, y int, v uint8) {
	p.Pix[y*p.Width+x] = v
}

// Clone returns a deep copy of p.
func (p *Plane) Clone() *Plane {
	c := &Plane{
		Width:  p.Width,
		Height: p.Height,
		Pix:    make([]uint8, len(p.Pix)),
	}
	copy(c.Pix, p.Pix)
	return c
}

// SameSize reports whether p and o have identical dimensions.
func (p *Plane) SameSize(o *Plane) bool {
	return p.Width == o.Width && p.Height == o.Height
}

// Equal reports whether p and o have identical dimensions and samples.
func (p *Plane) Equal(o *Plane) bool {
	if !p.SameSize(o) {
		return false
	}
	for i, v := range p.Pix {
		if o.Pix[i] != v {
			return false
		}
	}
	return true
}

// IsZero reports whether all samples of p are 0.
func (p *Plane) IsZero() bool {
	for _, v := range p.Pix {
		if v != 0 {
			return false
		}
	}
	return true
}

func (p *Plane) String() string {
	return fmt.Sprintf("%dx%d", p.Width, p.Height)
}

// CheckSize returns an ErrDimensionMismatch error unless all planes share the
// dimensions of the first one. Nil planes are reported as mismatches, too.
func CheckSize(planes ...*Plane) error {
	if len(planes) == 0 {
		return nil
	}
	first := planes[0]
	for idx, p := range planes {
		if p == nil {
			return fmt.Errorf("%w: plane %d is missing", spotgen.ErrDimensionMismatch, idx)
		}
		if p.Width*p.Height != len(p.Pix) {
			return fmt.Errorf("%w: plane %d is %v but holds %d samples",
				spotgen.ErrDimensionMismatch, idx, p, len(p.Pix))
		}
		if !p.SameSize(first) {
			return fmt.Errorf("%w: plane %d is %v, plane 0 is %v",
				spotgen.ErrDimensionMismatch, idx, p, first)
		}
	}
	return nil
}
