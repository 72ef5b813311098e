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

// Package preview renders an RGBA image which shows where a spot artifact
// will not receive spot ink.
package preview

import (
	"fmt"
	"image"
	"image/png"

	"github.com/google/renameio"
	"github.com/stapelberg/spotgen"
	"github.com/stapelberg/spotgen/internal/colorconv"
	"github.com/stapelberg/spotgen/internal/plane"
)

// DefaultPath is the shared location of the most recent preview.
const DefaultPath = "data/preview.png"

// Render converts the CMYK planes back to RGB and paints every pixel without
// spot coverage (mask value 0, before inversion) in the highlight color. The
// alpha channel is taken from alpha.
func Render(c, m, y, k, alpha, mask *plane.Plane, highlight spotgen.PreviewColor) (*image.NRGBA, error) {
	if !highlight.Valid() {
		return nil, fmt.Errorf("%w: invalid preview color %v", spotgen.ErrInvalidConfig, highlight)
	}
	if err := plane.CheckSize(c, m, y, k, alpha, mask); err != nil {
		return nil, err
	}
	r, g, b, err := colorconv.CMYKToRGB(c, m, y, k)
	if err != nil {
		return nil, err
	}
	hl := highlight.RGBA()
	img := image.NewNRGBA(image.Rect(0, 0, c.Width, c.Height))
	for i := range mask.Pix {
		px := img.Pix[4*i : 4*i+4]
		if mask.Pix[i] == 0 {
			px[0], px[1], px[2] = hl.R, hl.G, hl.B
		} else {
			px[0], px[1], px[2] = r.Pix[i], g.Pix[i], b.Pix[i]
		}
		px[3] = alpha.Pix[i]
	}
	return img, nil
}

// Write encodes img as PNG and atomically replaces the file at path.
func Write(path string, img image.Image) error {
	s, err := Stage(path, img)
	if err != nil {
		return err
	}
	defer s.Discard()
	return s.Commit()
}

// Staged is an encoded preview which has not yet replaced its destination.
type Staged struct {
	o *renameio.PendingFile
}

// Stage encodes img as PNG into a temporary file next to path. The file at
// path is untouched until Commit.
func Stage(path string, img image.Image) (*Staged, error) {
	o, err := renameio.TempFile("", path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", spotgen.ErrIOFailure, err)
	}
	if err := o.Chmod(0644); err != nil {
		o.Cleanup()
		return nil, fmt.Errorf("%w: %w", spotgen.ErrIOFailure, err)
	}
	if err := png.Encode(o, img); err != nil {
		o.Cleanup()
		return nil, fmt.Errorf("%w: encoding preview: %w", spotgen.ErrIOFailure, err)
	}
	return &Staged{o: o}, nil
}

// Commit atomically replaces the destination with the staged preview.
func (s *Staged) Commit() error {
	if err := s.o.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("%w: %w", spotgen.ErrIOFailure, err)
	}
	return nil
}

// Discard removes the temporary file unless Commit succeeded.
func (s *Staged) Discard() {
	s.o.Cleanup()
}
