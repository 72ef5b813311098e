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

// Package refine turns an alpha mask into a candidate spot mask which is
// pulled inward from the mask edge by a margin, so that the spot ink does not
// peek out from under the CMYK artwork.
package refine

import (
	"fmt"

	"github.com/stapelberg/spotgen"
	"github.com/stapelberg/spotgen/internal/morph"
	"github.com/stapelberg/spotgen/internal/plane"
)

const (
	bilateralRadius     = 1
	bilateralSigmaColor = 25
	bilateralSigmaSpace = 25

	// distanceBlurThreshold binarizes the mask for DistanceBlur.
	distanceBlurThreshold = 128

	// noiseThreshold is the smallest sample (≈ 0.01 of full scale) which
	// DistanceNoBlur treats as part of the mask.
	noiseThreshold = 3
)

// Refine returns the candidate spot mask for alpha. alpha is not modified.
func Refine(alpha *plane.Plane, marginPixels int, mode spotgen.MarginMode) (*plane.Plane, error) {
	if marginPixels < 0 {
		return nil, fmt.Errorf("%w: margin must be >= 0, got %d", spotgen.ErrInvalidConfig, marginPixels)
	}
	switch mode {
	case spotgen.ErodeBilateral:
		return erodeBilateral(alpha, marginPixels), nil
	case spotgen.DistanceBlur:
		return distanceBlur(alpha, marginPixels), nil
	case spotgen.DistanceNoBlur:
		return distanceNoBlur(alpha, marginPixels), nil
	default:
		return nil, fmt.Errorf("%w: invalid margin mode %v", spotgen.ErrInvalidConfig, mode)
	}
}

// erodeBilateral erodes with a 3×3 square marginPixels times, then softens
// the erosion boundary with a small bilateral filter.
func erodeBilateral(alpha *plane.Plane, marginPixels int) *plane.Plane {
	if marginPixels == 0 {
		return alpha.Clone()
	}
	eroded := morph.Erode(alpha, marginPixels)
	return morph.Bilateral(eroded, bilateralRadius, bilateralSigmaColor, bilateralSigmaSpace)
}

// distanceBlur cuts a marginPixels wide band along the inside of the
// binarized mask edge, with a light blur before and after the cut.
func distanceBlur(alpha *plane.Plane, marginPixels int) *plane.Plane {
	binary := morph.Threshold(alpha, distanceBlurThreshold)
	soft := morph.GaussianBlur3(binary)
	dist := morph.DistanceTransform(binary)
	for i, d := range dist {
		if d <= float64(marginPixels) {
			soft.Pix[i] = 0
		}
	}
	return morph.GaussianBlur3(soft)
}

// distanceNoBlur keeps the original mask values, but only farther than
// marginPixels away from the (noise-suppressed) mask edge.
func distanceNoBlur(alpha *plane.Plane, marginPixels int) *plane.Plane {
	binary := morph.Threshold(alpha, noiseThreshold)
	dist := morph.DistanceTransform(binary)
	out := plane.New(alpha.Width, alpha.Height)
	for i, d := range dist {
		if d > float64(marginPixels) {
			out.Pix[i] = alpha.Pix[i]
		}
	}
	return out
}
