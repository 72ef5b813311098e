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

package container

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/renameio"
	"github.com/stapelberg/spotgen"
	"github.com/stapelberg/spotgen/internal/plane"
	"github.com/stapelberg/spotgen/internal/psd"
	"github.com/stapelberg/spotgen/internal/tiff"
)

// Suffix is appended to the base name of the input file.
const Suffix = "_spot.tif"

// OutputPath returns the artifact path for input: the input path with its
// last extension replaced by Suffix.
func OutputPath(input string) string {
	return strings.TrimSuffix(input, filepath.Ext(input)) + Suffix
}

// Write encodes stack with the entries of b and atomically creates or
// replaces the file at path. On error, path is left untouched.
func Write(path string, stack *plane.Stack, b *Builder) error {
	entries, err := b.Entries(stack.Names())
	if err != nil {
		return err
	}
	width, height := stack.Bounds()

	o, err := renameio.TempFile("", path)
	if err != nil {
		return fmt.Errorf("%w: %w", spotgen.ErrIOFailure, err)
	}
	defer o.Cleanup()
	if err := o.Chmod(0644); err != nil {
		return fmt.Errorf("%w: %w", spotgen.ErrIOFailure, err)
	}
	img := tiff.Image{
		Width:           width,
		Height:          height,
		SamplesPerPixel: stack.Len(),
		Rows:            stack,
	}
	if err := tiff.Encode(o, img, entries, b.encodeOptions()); err != nil {
		return fmt.Errorf("%w: writing %s: %w", spotgen.ErrIOFailure, path, err)
	}
	if err := o.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("%w: %w", spotgen.ErrIOFailure, err)
	}
	return nil
}

// Info is the tag-level description of a TIFF file, as returned by
// ReadTags.
type Info struct {
	Size            int64
	IFD             *tiff.IFD
	Width, Height   int
	SamplesPerPixel int
	Photometric     uint32
	ExtraSamples    []uint32

	// Channels are the names from the ImageDescription document, if any.
	Channels []string

	// PhotoshopChannels are the extra channel labels from the Photoshop
	// image resources, if any.
	PhotoshopChannels []string

	ICCProfile []byte
	XMP        []byte
}

// ReadTags reads the first IFD of the TIFF file at path.
func ReadTags(path string) (*Info, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", spotgen.ErrIOFailure, err)
	}
	defer f.Close()
	st, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", spotgen.ErrIOFailure, err)
	}
	ifd, err := tiff.ReadIFD(f, st.Size())
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", spotgen.ErrUnsupportedFormat, path, err)
	}
	info := &Info{
		Size:       st.Size(),
		IFD:        ifd,
		ICCProfile: ifd.Bytes(tiff.TagICCProfile),
		XMP:        ifd.Bytes(tiff.TagXMP),
	}
	for _, field := range []struct {
		tag uint16
		dst *int
		def uint32
	}{
		{tiff.TagImageWidth, &info.Width, 0},
		{tiff.TagImageLength, &info.Height, 0},
		{tiff.TagSamplesPerPixel, &info.SamplesPerPixel, 1},
	} {
		v, err := ifd.Uint(field.tag, field.def)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", spotgen.ErrUnsupportedFormat, path, err)
		}
		*field.dst = int(v)
	}
	if info.Photometric, err = ifd.Photometric(); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", spotgen.ErrUnsupportedFormat, path, err)
	}
	if info.ExtraSamples, err = ifd.Uints(tiff.TagExtraSamples); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", spotgen.ErrUnsupportedFormat, path, err)
	}
	if desc := ifd.ASCII(tiff.TagImageDescription); desc != "" {
		// Descriptions written by other software are free text.
		info.Channels, _ = ParseDescription(desc)
	}
	if res := ifd.Bytes(tiff.TagPhotoshop); res != nil {
		if info.PhotoshopChannels, err = psd.ChannelNames(res); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", spotgen.ErrUnsupportedFormat, path, err)
		}
	}
	return info, nil
}
