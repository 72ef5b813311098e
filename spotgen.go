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

// Package spotgen contains domain types for spotgen, like the spot generation
// config and the error kinds reported by a generation run.
package spotgen

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"

	"golang.org/x/image/colornames"
)

// MarginMode selects the algorithm which turns the alpha mask into the spot
// mask. The numeric values are the codes used in settings files and on the
// command line.
type MarginMode int

const (
	ErodeBilateral MarginMode = iota + 1
	DistanceBlur
	DistanceNoBlur
)

func (m MarginMode) String() string {
	switch m {
	case ErodeBilateral:
		return "ErodeBilateral"
	case DistanceBlur:
		return "DistanceBlur"
	case DistanceNoBlur:
		return "DistanceNoBlur"
	default:
		return fmt.Sprintf("MarginMode(%d)", int(m))
	}
}

// Valid reports whether m is one of the defined modes.
func (m MarginMode) Valid() bool {
	return m >= ErodeBilateral && m <= DistanceNoBlur
}

// ParseMarginMode accepts either the numeric code (1, 2, 3) or the mode name
// (case-insensitive).
func ParseMarginMode(s string) (MarginMode, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		m := MarginMode(n)
		if !m.Valid() {
			return 0, fmt.Errorf("%w: margin mode %d out of range 1..3", ErrInvalidConfig, n)
		}
		return m, nil
	}
	for m := ErodeBilateral; m <= DistanceNoBlur; m++ {
		if strings.EqualFold(s, m.String()) {
			return m, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown margin mode %q", ErrInvalidConfig, s)
}

// SmartSpot holds the independently toggled corrective passes which run over
// the refined mask. CopyWhite always runs before FillGaps.
type SmartSpot struct {
	// CopyWhite restores spot coverage on pure white, non-transparent pixels.
	CopyWhite bool

	// FillGaps closes small interior holes in the mask.
	FillGaps bool
}

// PreviewColor is the highlight used by the preview for pixels which carry no
// spot ink.
type PreviewColor int

const (
	Cyan PreviewColor = iota
	Pink
	Yellow
	Black
	Green
	Red
	Blue
)

var previewColorNames = [...]string{
	Cyan:   "Cyan",
	Pink:   "Pink",
	Yellow: "Yellow",
	Black:  "Black",
	Green:  "Green",
	Red:    "Red",
	Blue:   "Blue",
}

// PreviewColors lists all preview colors in declaration order.
func PreviewColors() []PreviewColor {
	return []PreviewColor{Cyan, Pink, Yellow, Black, Green, Red, Blue}
}

func (p PreviewColor) String() string {
	if p < 0 || int(p) >= len(previewColorNames) {
		return fmt.Sprintf("PreviewColor(%d)", int(p))
	}
	return previewColorNames[p]
}

// Valid reports whether p is one of the named preview colors.
func (p PreviewColor) Valid() bool {
	return p >= 0 && int(p) < len(previewColorNames)
}

// RGBA returns the opaque color for p, as defined by the SVG 1.1 named colors.
func (p PreviewColor) RGBA() color.RGBA {
	if !p.Valid() {
		return colornames.Black
	}
	return colornames.Map[strings.ToLower(previewColorNames[p])]
}

// ParsePreviewColor parses a preview color name (case-insensitive).
func ParsePreviewColor(s string) (PreviewColor, error) {
	for _, p := range PreviewColors() {
		if strings.EqualFold(strings.TrimSpace(s), p.String()) {
			return p, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown preview color %q", ErrInvalidConfig, s)
}

// Config is the resolved configuration of one spot generation run.
type Config struct {
	// MarginPixels is how far (in pixels) the spot mask is pulled inward
	// from the alpha mask edge.
	MarginPixels int
	MarginMode   MarginMode
	SmartSpot    SmartSpot
	PreviewColor PreviewColor
}

// Validate returns an ErrInvalidConfig error describing the first problem
// found in c.
func (c Config) Validate() error {
	if c.MarginPixels < 0 {
		return fmt.Errorf("%w: margin must be >= 0, got %d", ErrInvalidConfig, c.MarginPixels)
	}
	if !c.MarginMode.Valid() {
		return fmt.Errorf("%w: invalid margin mode %v", ErrInvalidConfig, c.MarginMode)
	}
	if !c.PreviewColor.Valid() {
		return fmt.Errorf("%w: invalid preview color %v", ErrInvalidConfig, c.PreviewColor)
	}
	return nil
}

// ColorModel is the color model of an input image.
type ColorModel int

const (
	UnknownModel ColorModel = iota
	RGB
	CMYK
)

func (c ColorModel) String() string {
	switch c {
	case RGB:
		return "RGB"
	case CMYK:
		return "CMYK"
	default:
		return "Unknown"
	}
}

// ContainerKind is the file format of an input image.
type ContainerKind int

const (
	UnknownContainer ContainerKind = iota
	TIFF
	PNG
)

func (k ContainerKind) String() string {
	switch k {
	case TIFF:
		return "tiff"
	case PNG:
		return "png"
	default:
		return "unknown"
	}
}
