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

package tiff

import (
	"bufio"
	"bytes"
	"compress/zlib"
	"errors"
	"fmt"
	"io"
	"math"
	"sort"
)

// ErrTooLarge is returned when an image does not fit into a classic TIFF
// file, whose offsets are 32 bits wide.
var ErrTooLarge = errors.New("tiff: file would exceed 4 GiB")

// stripSize is the approximate uncompressed size of one strip.
const stripSize = 64 << 10

const leHeader = "II\x2A\x00"

// RowSource provides pixel rows with all samples of a pixel interleaved.
// *plane.Stack implements RowSource.
type RowSource interface {
	// InterleaveRows writes rows [y0, y1) into dst.
	InterleaveRows(dst []byte, y0, y1 int)
}

// Image describes the 8-bit pixel data of an image to encode.
type Image struct {
	Width, Height   int
	SamplesPerPixel int
	Rows            RowSource
}

// Options are the encoding parameters.
type Options struct {
	// Deflate compresses each strip with zlib.
	Deflate bool

	// Predictor enables horizontal differencing. It is only used with
	// Deflate.
	Predictor bool
}

// geometryTags are owned by the encoder and replaced if present in the
// caller's entries.
var geometryTags = map[uint16]bool{
	TagImageWidth:      true,
	TagImageLength:     true,
	TagCompression:     true,
	TagStripOffsets:    true,
	TagRowsPerStrip:    true,
	TagStripByteCounts: true,
	TagPredictor:       true,
}

// Encode writes img as a single-IFD little-endian TIFF file to w, with the
// given entries plus the geometry entries computed here.
//
// The file is laid out as:
//
//  1. Header (8 bytes).
//  2. Pixel strips.
//  3. Values of entries which do not fit into the 4 byte IFD value field,
//     each starting on a word boundary.
//  4. The IFD, with entries sorted by tag.
func Encode(w io.Writer, img Image, entries []Entry, opt *Options) error {
	if img.Width <= 0 || img.Height <= 0 || img.SamplesPerPixel <= 0 {
		return fmt.Errorf("tiff: invalid image geometry %dx%dx%d", img.Width, img.Height, img.SamplesPerPixel)
	}
	if opt == nil {
		opt = &Options{}
	}
	rowBytes := img.Width * img.SamplesPerPixel
	rowsPerStrip := min(max(1, stripSize/rowBytes), img.Height)
	numStrips := (img.Height + rowsPerStrip - 1) / rowsPerStrip

	var compressed [][]byte
	counts := make([]uint64, numStrips)
	if opt.Deflate {
		var err error
		compressed, err = deflateStrips(img, rowsPerStrip, opt.Predictor)
		if err != nil {
			return err
		}
		for i, s := range compressed {
			counts[i] = uint64(len(s))
		}
	} else {
		for i := range counts {
			rows := min(rowsPerStrip, img.Height-i*rowsPerStrip)
			counts[i] = uint64(rows * rowBytes)
		}
	}

	off := uint64(len(leHeader) + 4)
	offsets := make([]uint32, numStrips)
	byteCounts := make([]uint32, numStrips)
	for i, n := range counts {
		if off+n > math.MaxUint32 {
			return ErrTooLarge
		}
		offsets[i] = uint32(off)
		byteCounts[i] = uint32(n)
		off += n
	}

	compression := uint16(CompressionNone)
	if opt.Deflate {
		compression = CompressionDeflate
	}
	ifd := []Entry{
		LongEntry(TagImageWidth, uint32(img.Width)),
		LongEntry(TagImageLength, uint32(img.Height)),
		ShortEntry(TagCompression, compression),
		LongEntry(TagStripOffsets, offsets...),
		LongEntry(TagRowsPerStrip, uint32(rowsPerStrip)),
		LongEntry(TagStripByteCounts, byteCounts...),
	}
	if opt.Deflate && opt.Predictor {
		ifd = append(ifd, ShortEntry(TagPredictor, PredictorHorizontal))
	}
	seen := make(map[uint16]bool)
	for _, e := range entries {
		if geometryTags[e.Tag] {
			continue
		}
		if seen[e.Tag] {
			return fmt.Errorf("tiff: duplicate tag %d", e.Tag)
		}
		seen[e.Tag] = true
		ifd = append(ifd, e)
	}
	sort.Slice(ifd, func(i, j int) bool { return ifd[i].Tag < ifd[j].Tag })

	pixelEnd := off
	off += off % 2
	valueOffsets := make([]uint32, len(ifd))
	for i, e := range ifd {
		if len(e.Data) <= 4 {
			continue
		}
		valueOffsets[i] = uint32(off)
		off += uint64(len(e.Data))
		off += off % 2
		if off > math.MaxUint32 {
			return ErrTooLarge
		}
	}
	ifdOffset := off
	if ifdOffset+2+12*uint64(len(ifd))+4 > math.MaxUint32 {
		return ErrTooLarge
	}

	bw := bufio.NewWriter(w)
	bw.WriteString(leHeader)
	writeUint32(bw, uint32(ifdOffset))

	if compressed != nil {
		for _, s := range compressed {
			bw.Write(s)
		}
	} else {
		buf := make([]byte, rowsPerStrip*rowBytes)
		for y0 := 0; y0 < img.Height; y0 += rowsPerStrip {
			y1 := min(y0+rowsPerStrip, img.Height)
			strip := buf[:(y1-y0)*rowBytes]
			img.Rows.InterleaveRows(strip, y0, y1)
			if _, err := bw.Write(strip); err != nil {
				return err
			}
		}
	}
	if pixelEnd%2 == 1 {
		bw.WriteByte(0)
	}

	for _, e := range ifd {
		if len(e.Data) <= 4 {
			continue
		}
		bw.Write(e.Data)
		if len(e.Data)%2 == 1 {
			bw.WriteByte(0)
		}
	}

	writeUint16(bw, uint16(len(ifd)))
	for i, e := range ifd {
		writeUint16(bw, e.Tag)
		writeUint16(bw, uint16(e.Type))
		writeUint32(bw, e.Count)
		if len(e.Data) > 4 {
			writeUint32(bw, valueOffsets[i])
			continue
		}
		var field [4]byte
		copy(field[:], e.Data)
		bw.Write(field[:])
	}
	writeUint32(bw, 0) // no next IFD
	return bw.Flush()
}

func deflateStrips(img Image, rowsPerStrip int, predictor bool) ([][]byte, error) {
	rowBytes := img.Width * img.SamplesPerPixel
	raw := make([]byte, rowsPerStrip*rowBytes)
	var strips [][]byte
	for y0 := 0; y0 < img.Height; y0 += rowsPerStrip {
		y1 := min(y0+rowsPerStrip, img.Height)
		strip := raw[:(y1-y0)*rowBytes]
		img.Rows.InterleaveRows(strip, y0, y1)
		if predictor {
			for row := 0; row < len(strip); row += rowBytes {
				differentiate(strip[row:row+rowBytes], img.SamplesPerPixel)
			}
		}
		var b bytes.Buffer
		zw := zlib.NewWriter(&b)
		if _, err := zw.Write(strip); err != nil {
			return nil, err
		}
		if err := zw.Close(); err != nil {
			return nil, err
		}
		strips = append(strips, b.Bytes())
	}
	return strips, nil
}

// differentiate replaces each sample of row with the difference to the same
// sample of the preceding pixel.
func differentiate(row []byte, spp int) {
	for i := len(row) - 1; i >= spp; i-- {
		row[i] -= row[i-spp]
	}
}

func writeUint16(w *bufio.Writer, v uint16) {
	var b [2]byte
	le.PutUint16(b[:], v)
	w.Write(b[:])
}

func writeUint32(w *bufio.Writer, v uint32) {
	var b [4]byte
	le.PutUint32(b[:], v)
	w.Write(b[:])
}
