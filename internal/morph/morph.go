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

// Package morph implements the whole-plane filters used to shape spot masks:
// grey-scale morphology with square structuring elements, a Euclidean
// distance transform, a small Gaussian blur and a bilateral filter.
//
// All functions return new planes and leave their input untouched.
package morph

import (
	"github.com/stapelberg/spotgen/internal/plane"
)

// extreme1D writes the minimum (or maximum) of src over the window
// [i-r, i+r] ∩ [0, len(src)) to dst[i], using a monotonic deque so that the
// cost does not depend on r.
func extreme1D(dst, src []uint8, r int, max bool, dq []int) {
	n := len(src)
	worse := func(a, b uint8) bool {
		if max {
			return a <= b
		}
		return a >= b
	}
	head, tail := 0, 0
	for i := 0; i < n+r; i++ {
		if i < n {
			for tail > head && worse(src[dq[tail-1]], src[i]) {
				tail--
			}
			dq[tail] = i
			tail++
		}
		x := i - r
		if x < 0 {
			continue
		}
		for dq[head] < x-r {
			head++
		}
		dst[x] = src[dq[head]]
	}
}

// rankFilter applies extreme1D along rows, then along columns. Neighbours
// outside the plane are ignored.
func rankFilter(p *plane.Plane, r int, max bool) *plane.Plane {
	out := p.Clone()
	if r <= 0 || len(p.Pix) == 0 {
		return out
	}
	w, h := p.Width, p.Height
	size := w
	if h > size {
		size = h
	}
	dq := make([]int, size)
	line := make([]uint8, size)
	res := make([]uint8, size)

	for y := 0; y < h; y++ {
		row := out.Pix[y*w : (y+1)*w]
		copy(line, row)
		extreme1D(row, line[:w], r, max, dq)
	}
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			line[y] = out.Pix[y*w+x]
		}
		extreme1D(res[:h], line[:h], r, max, dq)
		for y := 0; y < h; y++ {
			out.Pix[y*w+x] = res[y]
		}
	}
	return out
}

// Erode returns the grey-scale erosion of p with a (2r+1)×(2r+1) square.
// This equals r iterations of an erosion with a 3×3 square.
func Erode(p *plane.Plane, r int) *plane.Plane {
	return rankFilter(p, r, false)
}

// Dilate returns the grey-scale dilation of p with a (2r+1)×(2r+1) square.
func Dilate(p *plane.Plane, r int) *plane.Plane {
	return rankFilter(p, r, true)
}

// Close returns the morphological closing (dilation followed by erosion) of
// p with a (2r+1)×(2r+1) square.
func Close(p *plane.Plane, r int) *plane.Plane {
	return Erode(Dilate(p, r), r)
}

// Threshold returns a binary plane which is 255 wherever p is at least min
// and 0 elsewhere.
func Threshold(p *plane.Plane, min uint8) *plane.Plane {
	out := plane.New(p.Width, p.Height)
	for i, v := range p.Pix {
		if v >= min {
			out.Pix[i] = 255
		}
	}
	return out
}
