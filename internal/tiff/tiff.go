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

// Package tiff implements a minimal baseline TIFF writer and first-IFD reader,
// just functional enough to store and load separated (CMYK) images with extra
// channels and arbitrary private tags.
//
// It follows the “TIFF Revision 6.0” specification:
// https://www.itu.int/itudoc/itu-t/com16/tiff-fx/docs/tiff6.pdf
package tiff

import (
	"encoding/binary"
	"fmt"
)

// Tag ids used by this package and its callers.
const (
	TagNewSubfileType            = 254
	TagImageWidth                = 256
	TagImageLength               = 257
	TagBitsPerSample             = 258
	TagCompression               = 259
	TagPhotometricInterpretation = 262
	TagImageDescription          = 270
	TagStripOffsets              = 273
	TagSamplesPerPixel           = 277
	TagRowsPerStrip              = 278
	TagStripByteCounts           = 279
	TagXResolution               = 282
	TagYResolution               = 283
	TagPlanarConfiguration       = 284
	TagResolutionUnit            = 296
	TagSoftware                  = 305
	TagPredictor                 = 317
	TagInkSet                    = 332
	TagExtraSamples              = 338
	TagSampleFormat              = 339
	TagXMP                       = 700
	TagPhotoshop                 = 34377
	TagICCProfile                = 34675
)

// Photometric interpretations.
const (
	PhotometricRGB       = 2
	PhotometricSeparated = 5
)

// Compression schemes understood by the reader.
const (
	CompressionNone       = 1
	CompressionLZW        = 5
	CompressionDeflate    = 8
	CompressionDeflateOld = 32946
)

// PredictorHorizontal is horizontal differencing.
const PredictorHorizontal = 2

// DataType is the type of an IFD entry's values.
type DataType uint16

// Data types (TIFF 6.0, section 2).
const (
	Byte      DataType = 1
	ASCII     DataType = 2
	Short     DataType = 3
	Long      DataType = 4
	Rational  DataType = 5
	SByte     DataType = 6
	Undefined DataType = 7
	SShort    DataType = 8
	SLong     DataType = 9
	SRational DataType = 10
	Float     DataType = 11
	Double    DataType = 12
)

// Size returns the size of one value of type t in bytes, or 0 for unknown
// types.
func (t DataType) Size() int {
	switch t {
	case Byte, ASCII, SByte, Undefined:
		return 1
	case Short, SShort:
		return 2
	case Long, SLong, Float:
		return 4
	case Rational, SRational, Double:
		return 8
	}
	return 0
}

// String implements fmt.Stringer.
func (t DataType) String() string {
	switch t {
	case Byte:
		return "BYTE"
	case ASCII:
		return "ASCII"
	case Short:
		return "SHORT"
	case Long:
		return "LONG"
	case Rational:
		return "RATIONAL"
	case SByte:
		return "SBYTE"
	case Undefined:
		return "UNDEFINED"
	case SShort:
		return "SSHORT"
	case SLong:
		return "SLONG"
	case SRational:
		return "SRATIONAL"
	case Float:
		return "FLOAT"
	case Double:
		return "DOUBLE"
	}
	return fmt.Sprintf("DataType(%d)", uint16(t))
}

// TagName returns a human-readable name for the tags this package knows.
func TagName(tag uint16) string {
	if name, ok := tagNames[tag]; ok {
		return name
	}
	return fmt.Sprintf("Tag%d", tag)
}

var tagNames = map[uint16]string{
	TagNewSubfileType:            "NewSubfileType",
	TagImageWidth:                "ImageWidth",
	TagImageLength:               "ImageLength",
	TagBitsPerSample:             "BitsPerSample",
	TagCompression:               "Compression",
	TagPhotometricInterpretation: "PhotometricInterpretation",
	TagImageDescription:          "ImageDescription",
	TagStripOffsets:              "StripOffsets",
	TagSamplesPerPixel:           "SamplesPerPixel",
	TagRowsPerStrip:              "RowsPerStrip",
	TagStripByteCounts:           "StripByteCounts",
	TagXResolution:               "XResolution",
	TagYResolution:               "YResolution",
	TagPlanarConfiguration:       "PlanarConfiguration",
	TagResolutionUnit:            "ResolutionUnit",
	TagSoftware:                  "Software",
	TagPredictor:                 "Predictor",
	TagInkSet:                    "InkSet",
	TagExtraSamples:              "ExtraSamples",
	TagSampleFormat:              "SampleFormat",
	TagXMP:                       "XMP",
	TagPhotoshop:                 "Photoshop",
	TagICCProfile:                "ICCProfile",
}

// Entry is one IFD entry. Data holds the values in the file's byte order.
type Entry struct {
	Tag   uint16
	Type  DataType
	Count uint32
	Data  []byte
}

var le = binary.LittleEndian

// ShortEntry returns a SHORT entry.
func ShortEntry(tag uint16, vals ...uint16) Entry {
	b := make([]byte, 2*len(vals))
	for i, v := range vals {
		le.PutUint16(b[2*i:], v)
	}
	return Entry{Tag: tag, Type: Short, Count: uint32(len(vals)), Data: b}
}

// LongEntry returns a LONG entry.
func LongEntry(tag uint16, vals ...uint32) Entry {
	b := make([]byte, 4*len(vals))
	for i, v := range vals {
		le.PutUint32(b[4*i:], v)
	}
	return Entry{Tag: tag, Type: Long, Count: uint32(len(vals)), Data: b}
}

// RationalEntry returns a RATIONAL entry with a single value num/den.
func RationalEntry(tag uint16, num, den uint32) Entry {
	b := make([]byte, 8)
	le.PutUint32(b, num)
	le.PutUint32(b[4:], den)
	return Entry{Tag: tag, Type: Rational, Count: 1, Data: b}
}

// ASCIIEntry returns a NUL-terminated ASCII entry.
func ASCIIEntry(tag uint16, s string) Entry {
	b := append([]byte(s), 0)
	return Entry{Tag: tag, Type: ASCII, Count: uint32(len(b)), Data: b}
}

// ByteEntry returns a BYTE entry holding b verbatim.
func ByteEntry(tag uint16, b []byte) Entry {
	return Entry{Tag: tag, Type: Byte, Count: uint32(len(b)), Data: append([]byte(nil), b...)}
}
