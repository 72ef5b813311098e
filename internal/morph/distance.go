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

package morph

import (
	"math"

	"github.com/stapelberg/spotgen/internal/plane"
)

// far stands in for an infinite squared distance. It must survive
// subtraction of small squares without overflowing.
const far = 1e20

// DistanceTransform returns, for every pixel of p, the Euclidean distance to
// the nearest pixel which is 0 in p, in row-major order. Pixels which are 0
// have distance 0. The area outside the plane does not count as background,
// so a plane without any 0 pixel yields huge distances everywhere.
//
// It implements the exact linear-time algorithm from Felzenszwalb and
// Huttenlocher, “Distance Transforms of Sampled Functions” (2012).
func DistanceTransform(p *plane.Plane) []float64 {
	w, h := p.Width, p.Height
	dist := make([]float64, w*h)
	for i, v := range p.Pix {
		if v != 0 {
			dist[i] = far
		}
	}

	size := w
	if h > size {
		size = h
	}
	f := make([]float64, size)
	d := make([]float64, size)
	v := make([]int, size)
	z := make([]float64, size+1)

	// columns
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			f[y] = dist[y*w+x]
		}
		edt1D(f[:h], d[:h], v, z)
		for y := 0; y < h; y++ {
			dist[y*w+x] = d[y]
		}
	}
	// rows
	for y := 0; y < h; y++ {
		row := dist[y*w : (y+1)*w]
		copy(f, row)
		edt1D(f[:w], d[:w], v, z)
		copy(row, d[:w])
	}

	for i, sq := range dist {
		dist[i] = math.Sqrt(sq)
	}
	return dist
}

// edt1D computes the squared distance transform of the sampled function f
// into d, i.e. d[q] = min over p of (q-p)² + f[p]. It computes the lower
// envelope of the parabolas rooted at (p, f[p]).
func edt1D(f, d []float64, v []int, z []float64) {
	n := len(f)
	if n == 0 {
		return
	}
	k := 0
	v[0] = 0
	z[0] = math.Inf(-1)
	z[1] = math.Inf(1)
	for q := 1; q < n; q++ {
		fq := f[q] + float64(q*q)
		s := (fq - (f[v[k]] + float64(v[k]*v[k]))) / float64(2*q-2*v[k])
		for s <= z[k] {
			k--
			s = (fq - (f[v[k]] + float64(v[k]*v[k]))) / float64(2*q-2*v[k])
		}
		k++
		v[k] = q
		z[k] = s
		z[k+1] = math.Inf(1)
	}
	k = 0
	for q := 0; q < n; q++ {
		for z[k+1] < float64(q) {
			k++
		}
		dq := float64(q - v[k])
		d[q] = dq*dq + f[v[k]]
	}
}
