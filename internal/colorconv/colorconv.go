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

// Package colorconv converts between RGB and naive (profile-less) CMYK
// channel planes.
//
// The conversion uses the textbook formulas with maximum black generation:
//
//	K = min(1-R, 1-G, 1-B)
//	C = (1-R-K) / (1-K)  (0 if K == 1)
//
// and, in the other direction,
//
//	R = 1 - min(1, C*(1-K) + K)
//
// Samples are rounded to the nearest 8-bit value, so a round trip is off by
// at most one per channel.
package colorconv

import (
	"math"

	"github.com/stapelberg/spotgen/internal/plane"
)

func to8(v float64) uint8 {
	v = math.Round(v * 255)
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}

// RGBPixelToCMYK converts one RGB pixel.
func RGBPixelToCMYK(r, g, b uint8) (c, m, y, k uint8) {
	cc := 1 - float64(r)/255
	mm := 1 - float64(g)/255
	yy := 1 - float64(b)/255
	kk := math.Min(cc, math.Min(mm, yy))
	if kk >= 1 {
		return 0, 0, 0, 255
	}
	return to8((cc - kk) / (1 - kk)),
		to8((mm - kk) / (1 - kk)),
		to8((yy - kk) / (1 - kk)),
		to8(kk)
}

// CMYKPixelToRGB converts one CMYK pixel.
func CMYKPixelToRGB(c, m, y, k uint8) (r, g, b uint8) {
	kk := float64(k) / 255
	channel := func(ink uint8) uint8 {
		return to8(1 - math.Min(1, float64(ink)/255*(1-kk)+kk))
	}
	return channel(c), channel(m), channel(y)
}

// RGBToCMYK converts three RGB planes into four CMYK planes.
func RGBToCMYK(r, g, b *plane.Plane) (c, m, y, k *plane.Plane, _ error) {
	if err := plane.CheckSize(r, g, b); err != nil {
		return nil, nil, nil, nil, err
	}
	c = plane.New(r.Width, r.Height)
	m = plane.New(r.Width, r.Height)
	y = plane.New(r.Width, r.Height)
	k = plane.New(r.Width, r.Height)
	for i := range r.Pix {
		c.Pix[i], m.Pix[i], y.Pix[i], k.Pix[i] = RGBPixelToCMYK(r.Pix[i], g.Pix[i], b.Pix[i])
	}
	return c, m, y, k, nil
}

// CMYKToRGB converts four CMYK planes into three RGB planes.
func CMYKToRGB(c, m, y, k *plane.Plane) (r, g, b *plane.Plane, _ error) {
	if err := plane.CheckSize(c, m, y, k); err != nil {
		return nil, nil, nil, err
	}
	r = plane.New(c.Width, c.Height)
	g = plane.New(c.Width, c.Height)
	b = plane.New(c.Width, c.Height)
	for i := range c.Pix {
		r.Pix[i], g.Pix[i], b.Pix[i] = CMYKPixelToRGB(c.Pix[i], m.Pix[i], y.Pix[i], k.Pix[i])
	}
	return r, g, b, nil
}
