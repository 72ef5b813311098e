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

// Package container writes spot artifacts: separated (CMYK) TIFF files with
// an alpha channel and a spot channel, annotated so that Photoshop and RIP
// software recognize the extra channels.
package container

import (
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/stapelberg/spotgen/internal/psd"
	"github.com/stapelberg/spotgen/internal/tiff"
)

// Defaults for Builder fields left at their zero value.
const (
	DefaultDPI         = 300
	DefaultCreatorTool = "Speedy Spot Tool"
	DefaultRating      = 5
	Software           = "spotgen"
)

// documentName is the Name element of the ImageDescription document.
const documentName = "CMYK Spot"

const (
	inkSetCMYK           = 1
	extraUnassocAlpha    = 2
	extraUnspecified     = 0
	planarContig         = 1
	resolutionUnitInch   = 2
	sampleFormatUnsigned = 1
)

// processChannels is the number of leading channels which are process
// colors. Every following channel is an extra sample.
const processChannels = 4

// Builder constructs the TIFF entries describing a spot artifact.
type Builder struct {
	// DPI is stored as X and Y resolution. Zero means DefaultDPI.
	DPI int

	// ICCProfile is embedded verbatim. nil omits the ICC profile tag.
	ICCProfile []byte

	// CreatorTool and Rating are declared in the XMP packet. The zero
	// values mean DefaultCreatorTool and DefaultRating.
	CreatorTool string
	Rating      int

	// Compress stores the strips deflated, with horizontal differencing.
	Compress bool
}

// Entries returns the IFD entries for an image with the given channel names,
// in sample order. The encoder adds the strip geometry.
func (b *Builder) Entries(names []string) ([]tiff.Entry, error) {
	n := len(names)
	if n <= processChannels {
		return nil, fmt.Errorf("container: %d channels, want at least %d", n, processChannels+1)
	}
	dpi := b.DPI
	if dpi == 0 {
		dpi = DefaultDPI
	}
	if dpi < 0 {
		return nil, fmt.Errorf("container: invalid DPI %d", dpi)
	}

	bitsPerSample := make([]uint16, n)
	sampleFormat := make([]uint16, n)
	for i := range bitsPerSample {
		bitsPerSample[i] = 8
		sampleFormat[i] = sampleFormatUnsigned
	}
	// The first extra channel is the transparency, all further ones are
	// spot channels without predefined meaning.
	extra := make([]uint16, n-processChannels)
	extra[0] = extraUnassocAlpha
	for i := 1; i < len(extra); i++ {
		extra[i] = extraUnspecified
	}

	desc, err := Description(names)
	if err != nil {
		return nil, err
	}
	xmpPacket, err := XMPPacket(b.creatorTool(), b.rating())
	if err != nil {
		return nil, err
	}

	entries := []tiff.Entry{
		tiff.LongEntry(tiff.TagNewSubfileType, 0),
		tiff.ShortEntry(tiff.TagBitsPerSample, bitsPerSample...),
		tiff.ShortEntry(tiff.TagPhotometricInterpretation, tiff.PhotometricSeparated),
		tiff.ASCIIEntry(tiff.TagImageDescription, desc),
		tiff.ShortEntry(tiff.TagSamplesPerPixel, uint16(n)),
		tiff.RationalEntry(tiff.TagXResolution, uint32(dpi), 1),
		tiff.RationalEntry(tiff.TagYResolution, uint32(dpi), 1),
		tiff.ShortEntry(tiff.TagPlanarConfiguration, planarContig),
		tiff.ShortEntry(tiff.TagResolutionUnit, resolutionUnitInch),
		tiff.ASCIIEntry(tiff.TagSoftware, Software),
		tiff.ShortEntry(tiff.TagInkSet, inkSetCMYK),
		tiff.ShortEntry(tiff.TagExtraSamples, extra...),
		tiff.ShortEntry(tiff.TagSampleFormat, sampleFormat...),
		tiff.ByteEntry(tiff.TagXMP, xmpPacket),
		tiff.ByteEntry(tiff.TagPhotoshop, psd.Encode(psd.AlphaNames(photoshopNames(names[processChannels:])...))),
	}
	if b.ICCProfile != nil {
		entries = append(entries, tiff.ByteEntry(tiff.TagICCProfile, b.ICCProfile))
	}
	return entries, nil
}

// encodeOptions returns the strip encoding selected by b.
func (b *Builder) encodeOptions() *tiff.Options {
	if !b.Compress {
		return nil
	}
	return &tiff.Options{Deflate: true, Predictor: true}
}

func (b *Builder) creatorTool() string {
	if b.CreatorTool == "" {
		return DefaultCreatorTool
	}
	return b.CreatorTool
}

func (b *Builder) rating() int {
	if b.Rating == 0 {
		return DefaultRating
	}
	return b.Rating
}

// photoshopNames returns the channel labels shown in the Photoshop channels
// palette. Photoshop labels its n-th spot channel “Spot _n”.
func photoshopNames(extra []string) []string {
	labels := make([]string, len(extra))
	for i, name := range extra {
		if rest, ok := strings.CutPrefix(name, "Spot_"); ok {
			name = "Spot _" + rest
		}
		labels[i] = name
	}
	return labels
}

type metadata struct {
	XMLName  xml.Name `xml:"Metadata"`
	Name     string   `xml:"Name"`
	Channels []string `xml:"Channels>Channel"`
}

// Description returns the ImageDescription document listing the channel
// names in order.
func Description(names []string) (string, error) {
	b, err := xml.MarshalIndent(metadata{
		Name:     documentName,
		Channels: names,
	}, "", "  ")
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// ParseDescription returns the channel names listed in an ImageDescription
// document produced by Description.
func ParseDescription(desc string) ([]string, error) {
	var md metadata
	if err := xml.Unmarshal([]byte(desc), &md); err != nil {
		return nil, err
	}
	return md.Channels, nil
}
