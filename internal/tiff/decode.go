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
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"golang.org/x/image/tiff/lzw"
)

var (
	// ErrFormat is returned for files which are not TIFF files.
	ErrFormat = errors.New("tiff: invalid format")

	// ErrUnsupported is returned for valid TIFF files using features which
	// this package does not implement.
	ErrUnsupported = errors.New("tiff: unsupported feature")
)

// maxRaster bounds the size of a decoded raster.
const maxRaster = 1 << 32

// maxExpansion bounds how many raster bytes one byte of compressed strip
// data can decode to. Deflate peaks at about 1032 and LZW at about 1400.
const maxExpansion = 2048

// IFD is the first image file directory of a TIFF file.
type IFD struct {
	ByteOrder binary.ByteOrder
	Entries   []Entry
}

// ReadIFD reads the header and the first IFD of the TIFF file in r, which is
// size bytes long.
func ReadIFD(r io.ReaderAt, size int64) (*IFD, error) {
	var hdr [8]byte
	if _, err := r.ReadAt(hdr[:], 0); err != nil {
		if err == io.EOF {
			return nil, fmt.Errorf("%w: short header", ErrFormat)
		}
		return nil, err
	}
	var order binary.ByteOrder
	switch string(hdr[:2]) {
	case "II":
		order = binary.LittleEndian
	case "MM":
		order = binary.BigEndian
	default:
		return nil, fmt.Errorf("%w: byte order %q", ErrFormat, hdr[:2])
	}
	if magic := order.Uint16(hdr[2:]); magic != 42 {
		if magic == 43 {
			return nil, fmt.Errorf("%w: BigTIFF", ErrUnsupported)
		}
		return nil, fmt.Errorf("%w: magic %d", ErrFormat, magic)
	}
	ifdOffset := int64(order.Uint32(hdr[4:]))

	readAt := func(off int64, n int64) ([]byte, error) {
		if off < 0 || n < 0 || off+n > size {
			return nil, fmt.Errorf("%w: %d bytes at offset %d beyond end of file (%d bytes)", ErrFormat, n, off, size)
		}
		b := make([]byte, n)
		if _, err := r.ReadAt(b, off); err != nil {
			return nil, err
		}
		return b, nil
	}

	cnt, err := readAt(ifdOffset, 2)
	if err != nil {
		return nil, err
	}
	n := int64(order.Uint16(cnt))
	raw, err := readAt(ifdOffset+2, 12*n)
	if err != nil {
		return nil, err
	}
	ifd := &IFD{ByteOrder: order}
	for i := int64(0); i < n; i++ {
		p := raw[12*i : 12*(i+1)]
		e := Entry{
			Tag:   order.Uint16(p[0:]),
			Type:  DataType(order.Uint16(p[2:])),
			Count: order.Uint32(p[4:]),
		}
		sz := e.Type.Size()
		if sz == 0 {
			continue // TIFF 6.0 readers must skip unknown types
		}
		dataLen := int64(sz) * int64(e.Count)
		if dataLen <= 4 {
			e.Data = append([]byte(nil), p[8:8+dataLen]...)
		} else {
			if e.Data, err = readAt(int64(order.Uint32(p[8:])), dataLen); err != nil {
				return nil, fmt.Errorf("tag %d: %w", e.Tag, err)
			}
		}
		ifd.Entries = append(ifd.Entries, e)
	}
	return ifd, nil
}

// Lookup returns the entry for tag.
func (d *IFD) Lookup(tag uint16) (Entry, bool) {
	for _, e := range d.Entries {
		if e.Tag == tag {
			return e, true
		}
	}
	return Entry{}, false
}

// Uints returns the values of an integer entry, or nil if tag is absent.
func (d *IFD) Uints(tag uint16) ([]uint32, error) {
	e, ok := d.Lookup(tag)
	if !ok {
		return nil, nil
	}
	vals := make([]uint32, e.Count)
	for i := range vals {
		switch e.Type {
		case Byte, Undefined:
			vals[i] = uint32(e.Data[i])
		case Short:
			vals[i] = uint32(d.ByteOrder.Uint16(e.Data[2*i:]))
		case Long:
			vals[i] = d.ByteOrder.Uint32(e.Data[4*i:])
		default:
			return nil, fmt.Errorf("%w: tag %d has non-integer type %v", ErrFormat, tag, e.Type)
		}
	}
	return vals, nil
}

// Uint returns the first value of an integer entry, or def if tag is absent.
func (d *IFD) Uint(tag uint16, def uint32) (uint32, error) {
	vals, err := d.Uints(tag)
	if err != nil {
		return 0, err
	}
	if len(vals) == 0 {
		return def, nil
	}
	return vals[0], nil
}

// Rational returns the first value of a RATIONAL entry.
func (d *IFD) Rational(tag uint16) (num, den uint32, ok bool) {
	e, ok := d.Lookup(tag)
	if !ok || e.Type != Rational || e.Count < 1 {
		return 0, 0, false
	}
	return d.ByteOrder.Uint32(e.Data), d.ByteOrder.Uint32(e.Data[4:]), true
}

// ASCII returns the value of an ASCII entry, without the trailing NUL.
func (d *IFD) ASCII(tag uint16) string {
	e, ok := d.Lookup(tag)
	if !ok {
		return ""
	}
	return string(bytes.TrimRight(e.Data, "\x00"))
}

// Bytes returns the raw value bytes of tag, or nil.
func (d *IFD) Bytes(tag uint16) []byte {
	e, ok := d.Lookup(tag)
	if !ok {
		return nil
	}
	return e.Data
}

// Photometric returns the PhotometricInterpretation of the image.
func (d *IFD) Photometric() (uint32, error) {
	vals, err := d.Uints(TagPhotometricInterpretation)
	if err != nil {
		return 0, err
	}
	if len(vals) == 0 {
		return 0, fmt.Errorf("%w: missing PhotometricInterpretation", ErrFormat)
	}
	return vals[0], nil
}

// Raster is decoded pixel data with the samples of a pixel interleaved.
type Raster struct {
	Width, Height   int
	SamplesPerPixel int
	Pix             []byte
}

// Pixels decodes the strips of an 8 bits per sample, contiguous image.
func (d *IFD) Pixels(r io.ReaderAt, size int64) (*Raster, error) {
	width, err := d.Uint(TagImageWidth, 0)
	if err != nil {
		return nil, err
	}
	height, err := d.Uint(TagImageLength, 0)
	if err != nil {
		return nil, err
	}
	if width == 0 || height == 0 {
		return nil, fmt.Errorf("%w: image is %dx%d", ErrFormat, width, height)
	}
	spp, err := d.Uint(TagSamplesPerPixel, 1)
	if err != nil {
		return nil, err
	}
	if spp == 0 {
		return nil, fmt.Errorf("%w: SamplesPerPixel 0", ErrFormat)
	}
	bps, err := d.Uints(TagBitsPerSample)
	if err != nil {
		return nil, err
	}
	if len(bps) == 0 {
		bps = []uint32{1}
	}
	for _, b := range bps {
		if b != 8 {
			return nil, fmt.Errorf("%w: %d bits per sample", ErrUnsupported, b)
		}
	}
	for _, check := range []struct {
		tag  uint16
		def  uint32
		want []uint32
		what string
	}{
		{TagPlanarConfiguration, 1, []uint32{1}, "planar configuration"},
		{TagSampleFormat, 1, []uint32{1}, "sample format"},
		{TagCompression, CompressionNone, []uint32{CompressionNone, CompressionLZW, CompressionDeflate, CompressionDeflateOld}, "compression"},
		{TagPredictor, 1, []uint32{1, PredictorHorizontal}, "predictor"},
	} {
		v, err := d.Uint(check.tag, check.def)
		if err != nil {
			return nil, err
		}
		ok := false
		for _, w := range check.want {
			ok = ok || v == w
		}
		if !ok {
			return nil, fmt.Errorf("%w: %s %d", ErrUnsupported, check.what, v)
		}
	}
	compression, _ := d.Uint(TagCompression, CompressionNone)
	predictor, _ := d.Uint(TagPredictor, 1)

	rowBytes := uint64(width) * uint64(spp)
	if rowBytes*uint64(height) > maxRaster {
		return nil, fmt.Errorf("%w: %dx%dx%d raster too large", ErrUnsupported, width, height, spp)
	}
	offsets, err := d.Uints(TagStripOffsets)
	if err != nil {
		return nil, err
	}
	if offsets == nil {
		return nil, fmt.Errorf("%w: no strips (tiled image?)", ErrUnsupported)
	}
	counts, err := d.Uints(TagStripByteCounts)
	if err != nil {
		return nil, err
	}
	rowsPerStrip, err := d.Uint(TagRowsPerStrip, math.MaxUint32)
	if err != nil {
		return nil, err
	}
	rowsPerStrip = min(max(rowsPerStrip, 1), height)
	numStrips := int((height + rowsPerStrip - 1) / rowsPerStrip)
	if len(offsets) < numStrips || len(counts) < numStrips {
		return nil, fmt.Errorf("%w: %d strip offsets, %d byte counts, want %d", ErrFormat, len(offsets), len(counts), numStrips)
	}

	// The strips must be able to hold the raster before it is allocated.
	rasterBytes := rowBytes * uint64(height)
	var stripBytes uint64
	for i := 0; i < numStrips; i++ {
		if uint64(offsets[i])+uint64(counts[i]) > uint64(size) {
			return nil, fmt.Errorf("%w: strip %d beyond end of file", ErrFormat, i)
		}
		stripBytes += uint64(counts[i])
	}
	if compression == CompressionNone {
		if stripBytes < rasterBytes || uint64(size) < rasterBytes {
			return nil, fmt.Errorf("%w: %d bytes of strips for a %d byte raster", ErrFormat, stripBytes, rasterBytes)
		}
	} else if rasterBytes > min(stripBytes, uint64(size))*maxExpansion {
		return nil, fmt.Errorf("%w: %d compressed bytes cannot hold a %d byte raster", ErrFormat, stripBytes, rasterBytes)
	}

	rs := &Raster{
		Width:           int(width),
		Height:          int(height),
		SamplesPerPixel: int(spp),
		Pix:             make([]byte, rasterBytes),
	}
	for i := 0; i < numStrips; i++ {
		off, n := int64(offsets[i]), int64(counts[i])
		y0 := i * int(rowsPerStrip)
		y1 := min(y0+int(rowsPerStrip), int(height))
		dst := rs.Pix[uint64(y0)*rowBytes : uint64(y1)*rowBytes]

		if err := readStrip(io.NewSectionReader(r, off, n), compression, dst); err != nil {
			return nil, fmt.Errorf("%w: strip %d: %v", ErrFormat, i, err)
		}
		if predictor == PredictorHorizontal {
			for row := uint64(0); row < uint64(len(dst)); row += rowBytes {
				integrate(dst[row:row+rowBytes], int(spp))
			}
		}
	}
	return rs, nil
}

func readStrip(src io.Reader, compression uint32, dst []byte) error {
	switch compression {
	case CompressionLZW:
		rc := lzw.NewReader(src, lzw.MSB, 8)
		defer rc.Close()
		src = rc
	case CompressionDeflate, CompressionDeflateOld:
		zr, err := zlib.NewReader(src)
		if err != nil {
			return err
		}
		defer zr.Close()
		src = zr
	}
	_, err := io.ReadFull(src, dst)
	return err
}

// integrate undoes differentiate.
func integrate(row []byte, spp int) {
	for i := spp; i < len(row); i++ {
		row[i] += row[i-spp]
	}
}
