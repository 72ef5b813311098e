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

package plane

import (
	"fmt"
)

// Channel names as emitted in the output container.
const (
	Cyan    = "C"
	Magenta = "M"
	Yellow  = "Y"
	Black   = "K"
	Alpha   = "Alpha"
	Spot    = "Spot_1"
)

// Stack is an ordered collection of named planes of identical size. The
// order is significant: it is the sample order of the output container.
type Stack struct {
	names  []string
	planes []*Plane
}

// NewStack returns a stack of the given planes. names and planes must have
// the same length and all planes must share one size.
func NewStack(names []string, planes []*Plane) (*Stack, error) {
	if len(names) != len(planes) {
		return nil, fmt.Errorf("plane: %d names for %d planes", len(names), len(planes))
	}
	if err := CheckSize(planes...); err != nil {
		return nil, err
	}
	return &Stack{
		names:  append([]string(nil), names...),
		planes: append([]*Plane(nil), planes...),
	}, nil
}

// Len returns the number of planes.
func (s *Stack) Len() int { return len(s.planes) }

// Names returns the channel names in order.
func (s *Stack) Names() []string { return append([]string(nil), s.names...) }

// Plane returns the i-th plane.
func (s *Stack) Plane(i int) *Plane { return s.planes[i] }

// Lookup returns the plane named name, or nil.
func (s *Stack) Lookup(name string) *Plane {
	for idx, n := range s.names {
		if n == name {
			return s.planes[idx]
		}
	}
	return nil
}

// Bounds returns the width and height shared by all planes.
func (s *Stack) Bounds() (width, height int) {
	if len(s.planes) == 0 {
		return 0, 0
	}
	return s.planes[0].Width, s.planes[0].Height
}

// Interleave returns the samples of all planes interleaved per pixel
// (contiguous planar configuration): for every pixel, one sample per plane
// in stack order.
func (s *Stack) Interleave() []byte {
	w, h := s.Bounds()
	n := len(s.planes)
	out := make([]byte, w*h*n)
	s.InterleaveRows(out, 0, h)
	return out
}

// InterleaveRows writes the interleaved samples of rows [y0, y1) into dst,
// which must hold (y1-y0)*width*Len() bytes.
func (s *Stack) InterleaveRows(dst []byte, y0, y1 int) {
	w, _ := s.Bounds()
	n := len(s.planes)
	for c, p := range s.planes {
		src := p.Pix[y0*w : y1*w]
		for i, v := range src {
			dst[i*n+c] = v
		}
	}
}
