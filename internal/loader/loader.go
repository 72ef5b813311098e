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

// Package loader reads source artwork (RGBA PNG, RGB(A) TIFF or CMYK(A) TIFF)
// into CMYK and alpha planes.
package loader

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/stapelberg/spotgen"
	"github.com/stapelberg/spotgen/internal/colorconv"
	"github.com/stapelberg/spotgen/internal/plane"
	"github.com/stapelberg/spotgen/internal/tiff"
	xtiff "golang.org/x/image/tiff"
)

// Extensions are the accepted file name extensions, lower case.
var Extensions = []string{".tif", ".tiff", ".png"}

const (
	// pngColorTypeOffset is the offset of the IHDR color type byte: the
	// signature (8), chunk length and type (8), width and height (8) and
	// bit depth (1) precede it.
	pngColorTypeOffset = 25
	pngTruecolorAlpha  = 6
)

// containerKind maps the file name extension of path to a container kind.
func containerKind(path string) spotgen.ContainerKind {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".tif", ".tiff":
		return spotgen.TIFF
	case ".png":
		return spotgen.PNG
	}
	return spotgen.UnknownContainer
}

// Supported reports whether path has one of the accepted extensions.
func Supported(path string) bool {
	return containerKind(path) != spotgen.UnknownContainer
}

// Classify determines the color model and container kind of the image at
// path without decoding its pixels.
func Classify(path string) (spotgen.ColorModel, spotgen.ContainerKind, error) {
	kind := containerKind(path)
	if kind == spotgen.UnknownContainer {
		return spotgen.UnknownModel, kind, fmt.Errorf("%w: %s: unknown file extension", spotgen.ErrUnsupportedFormat, path)
	}
	f, err := os.Open(path)
	if err != nil {
		return spotgen.UnknownModel, kind, fmt.Errorf("%w: %w", spotgen.ErrIOFailure, err)
	}
	defer f.Close()

	switch kind {
	case spotgen.TIFF:
		ifd, err := readIFD(f)
		if err != nil {
			return spotgen.UnknownModel, kind, err
		}
		model, err := tiffModel(path, ifd)
		return model, kind, err

	default: // spotgen.PNG
		if _, err := png.DecodeConfig(f); err != nil {
			return spotgen.UnknownModel, kind, fmt.Errorf("%w: %s: %w", spotgen.ErrUnsupportedFormat, path, err)
		}
		// Only truecolor with alpha is accepted. PNG cannot carry CMYK.
		// png.DecodeConfig reports gray with alpha as NRGBA as well, so the
		// color type is taken from the IHDR chunk.
		var hdr [pngColorTypeOffset + 1]byte
		if _, err := f.ReadAt(hdr[:], 0); err != nil {
			return spotgen.UnknownModel, kind, fmt.Errorf("%w: %w", spotgen.ErrIOFailure, err)
		}
		if ct := hdr[pngColorTypeOffset]; ct != pngTruecolorAlpha {
			return spotgen.UnknownModel, kind, fmt.Errorf("%w: %s: PNG color type %d is not truecolor with alpha", spotgen.ErrUnsupportedFormat, path, ct)
		}
		return spotgen.RGB, kind, nil
	}
}

func readIFD(f *os.File) (*tiff.IFD, error) {
	st, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", spotgen.ErrIOFailure, err)
	}
	ifd, err := tiff.ReadIFD(f, st.Size())
	if err != nil {
		return nil, tiffError(f.Name(), err)
	}
	return ifd, nil
}

func tiffError(path string, err error) error {
	if errors.Is(err, tiff.ErrFormat) || errors.Is(err, tiff.ErrUnsupported) {
		return fmt.Errorf("%w: %s: %w", spotgen.ErrUnsupportedFormat, path, err)
	}
	return fmt.Errorf("%w: %s: %w", spotgen.ErrIOFailure, path, err)
}

func tiffModel(path string, ifd *tiff.IFD) (spotgen.ColorModel, error) {
	photometric, err := ifd.Photometric()
	if err != nil {
		return spotgen.UnknownModel, tiffError(path, err)
	}
	switch photometric {
	case tiff.PhotometricRGB:
		return spotgen.RGB, nil
	case tiff.PhotometricSeparated:
		return spotgen.CMYK, nil
	}
	return spotgen.UnknownModel, fmt.Errorf("%w: %s: photometric interpretation %d", spotgen.ErrUnsupportedFormat, path, photometric)
}

// Load decodes the image at path into a stack of the planes C, M, Y, K and
// Alpha. RGB sources are converted to CMYK. Sources without an alpha channel
// get an opaque alpha plane.
func Load(path string) (*plane.Stack, spotgen.ColorModel, error) {
	model, kind, err := Classify(path)
	if err != nil {
		return nil, model, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, model, fmt.Errorf("%w: %w", spotgen.ErrIOFailure, err)
	}
	defer f.Close()

	switch {
	case kind == spotgen.PNG:
		img, err := png.Decode(f)
		if err != nil {
			return nil, model, fmt.Errorf("%w: decoding %s: %w", spotgen.ErrIOFailure, path, err)
		}
		stack, err := fromRGBA(img)
		return stack, model, err

	case model == spotgen.RGB:
		img, err := xtiff.Decode(f)
		if err != nil {
			var unsupported xtiff.UnsupportedError
			if errors.As(err, &unsupported) {
				return nil, model, fmt.Errorf("%w: %s: %w", spotgen.ErrUnsupportedFormat, path, err)
			}
			return nil, model, fmt.Errorf("%w: decoding %s: %w", spotgen.ErrIOFailure, path, err)
		}
		stack, err := fromRGBA(img)
		return stack, model, err

	default: // CMYK TIFF
		ifd, err := readIFD(f)
		if err != nil {
			return nil, model, err
		}
		st, err := f.Stat()
		if err != nil {
			return nil, model, fmt.Errorf("%w: %w", spotgen.ErrIOFailure, err)
		}
		rs, err := ifd.Pixels(f, st.Size())
		if err != nil {
			return nil, model, tiffError(path, err)
		}
		stack, err := fromCMYK(path, rs)
		return stack, model, err
	}
}

var names = []string{plane.Cyan, plane.Magenta, plane.Yellow, plane.Black, plane.Alpha}

// fromRGBA splits img into RGB and alpha and converts RGB to CMYK. Samples
// are taken as stored (non-premultiplied) where the image type allows.
func fromRGBA(img image.Image) (*plane.Stack, error) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	r, g, bl, a := plane.New(w, h), plane.New(w, h), plane.New(w, h), plane.New(w, h)
	switch img := img.(type) {
	case *image.NRGBA:
		split8(img.Pix, img.Stride, img.PixOffset(b.Min.X, b.Min.Y), w, h, r, g, bl, a)
	case *image.RGBA:
		// Opaque RGB and associated alpha TIFFs end up here. The stored
		// samples are used as they are.
		split8(img.Pix, img.Stride, img.PixOffset(b.Min.X, b.Min.Y), w, h, r, g, bl, a)
	case *image.NRGBA64:
		for y := 0; y < h; y++ {
			row := img.Pix[img.PixOffset(b.Min.X, b.Min.Y+y):]
			for x := 0; x < w; x++ {
				i, px := y*w+x, row[8*x:]
				r.Pix[i], g.Pix[i], bl.Pix[i], a.Pix[i] = px[0], px[2], px[4], px[6]
			}
		}
	default:
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				i := y*w + x
				c := color.NRGBAModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.NRGBA)
				r.Pix[i], g.Pix[i], bl.Pix[i], a.Pix[i] = c.R, c.G, c.B, c.A
			}
		}
	}
	c, m, y, k, err := colorconv.RGBToCMYK(r, g, bl)
	if err != nil {
		return nil, err
	}
	return plane.NewStack(names, []*plane.Plane{c, m, y, k, a})
}

// split8 copies the four 8-bit samples per pixel of a w×h region starting
// at pix[off] into the planes r, g, b and a.
func split8(pix []uint8, stride, off, w, h int, r, g, b, a *plane.Plane) {
	for y := 0; y < h; y++ {
		row := pix[off+y*stride:]
		for x := 0; x < w; x++ {
			i, px := y*w+x, row[4*x:]
			r.Pix[i], g.Pix[i], b.Pix[i], a.Pix[i] = px[0], px[1], px[2], px[3]
		}
	}
}

// fromCMYK splits the interleaved samples of a separated TIFF. The fifth
// sample, if any, is the alpha channel; further extra samples are ignored.
func fromCMYK(path string, rs *tiff.Raster) (*plane.Stack, error) {
	spp := rs.SamplesPerPixel
	if spp < 4 {
		return nil, fmt.Errorf("%w: %s: CMYK image with %d samples per pixel", spotgen.ErrUnsupportedFormat, path, spp)
	}
	planes := make([]*plane.Plane, len(names))
	for i := range planes {
		planes[i] = plane.New(rs.Width, rs.Height)
	}
	for i := 0; i < rs.Width*rs.Height; i++ {
		px := rs.Pix[i*spp : (i+1)*spp]
		for c := 0; c < 4; c++ {
			planes[c].Pix[i] = px[c]
		}
		if spp > 4 {
			planes[4].Pix[i] = px[4]
		} else {
			planes[4].Pix[i] = 255
		}
	}
	return plane.NewStack(names, planes)
}
