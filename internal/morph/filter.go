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

func clamp8(v float64) uint8 {
	v = math.Round(v)
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}

// gauss3 is the normalized 3-tap Gaussian kernel for σ = 1.
var gauss3 = func() [3]float64 {
	side := math.Exp(-0.5)
	sum := 1 + 2*side
	return [3]float64{side / sum, 1 / sum, side / sum}
}()

// GaussianBlur3 blurs p with a separable 3×3 Gaussian kernel (σ = 1).
// Samples outside the plane replicate the nearest edge sample.
func GaussianBlur3(p *plane.Plane) *plane.Plane {
	w, h := p.Width, p.Height
	out := plane.New(w, h)
	if len(p.Pix) == 0 {
		return out
	}
	tmp := make([]float64, w*h)
	for y := 0; y < h; y++ {
		row := p.Pix[y*w : (y+1)*w]
		for x := 0; x < w; x++ {
			l, r := x-1, x+1
			if l < 0 {
				l = 0
			}
			if r >= w {
				r = w - 1
			}
			tmp[y*w+x] = gauss3[0]*float64(row[l]) +
				gauss3[1]*float64(row[x]) +
				gauss3[2]*float64(row[r])
		}
	}
	for y := 0; y < h; y++ {
		u, d := y-1, y+1
		if u < 0 {
			u = 0
		}
		if d >= h {
			d = h - 1
		}
		for x := 0; x < w; x++ {
			out.Pix[y*w+x] = clamp8(gauss3[0]*tmp[u*w+x] +
				gauss3[1]*tmp[y*w+x] +
				gauss3[2]*tmp[d*w+x])
		}
	}
	return out
}

// Bilateral applies an edge-preserving bilateral filter with a square window
// of the given radius. Neighbours are weighted by their spatial distance
// (sigmaSpace) and by their difference in value (sigmaColor), so flat areas
// and hard 0/255 edges come out unchanged while soft ramps are smoothed.
// Neighbours outside the plane are ignored.
func Bilateral(p *plane.Plane, radius int, sigmaColor, sigmaSpace float64) *plane.Plane {
	if radius <= 0 {
		return p.Clone()
	}
	w, h := p.Width, p.Height
	out := plane.New(w, h)

	var colorWeight [256]float64
	for d := range colorWeight {
		colorWeight[d] = math.Exp(-float64(d*d) / (2 * sigmaColor * sigmaColor))
	}
	side := 2*radius + 1
	spaceWeight := make([]float64, side*side)
	for dy := -radius; dy <= radius; dy++ {
		for dx := -radius; dx <= radius; dx++ {
			spaceWeight[(dy+radius)*side+dx+radius] =
				math.Exp(-float64(dx*dx+dy*dy) / (2 * sigmaSpace * sigmaSpace))
		}
	}

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			center := int(p.Pix[y*w+x])
			var sum, norm float64
			for dy := -radius; dy <= radius; dy++ {
				ny := y + dy
				if ny < 0 || ny >= h {
					continue
				}
				for dx := -radius; dx <= radius; dx++ {
					nx := x + dx
					if nx < 0 || nx >= w {
						continue
					}
					v := int(p.Pix[ny*w+nx])
					diff := v - center
					if diff < 0 {
						diff = -diff
					}
					wt := spaceWeight[(dy+radius)*side+dx+radius] * colorWeight[diff]
					sum += wt * float64(v)
					norm += wt
				}
			}
			out.Pix[y*w+x] = clamp8(sum / norm)
		}
	}
	return out
}
