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

// Package psd encodes and decodes Photoshop image resource blocks, as stored
// in TIFF tag 34377.
//
// It follows the “Adobe Photoshop File Formats Specification”, section
// “Image Resource Blocks”:
// https://www.adobe.com/devnet-apps/photoshop/fileformatashtml/
package psd

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// Signature starts every image resource block.
const Signature = "8BIM"

// AlphaNamesID is the resource id for the Pascal-string names of the alpha
// (extra) channels.
const AlphaNamesID = 1006

// Resource is one image resource block.
type Resource struct {
	ID   uint16
	Name string
	Data []byte
}

func pascal(s string) []byte {
	if len(s) > 255 {
		s = s[:255]
	}
	return append([]byte{byte(len(s))}, s...)
}

// AlphaNames returns the resource which names the extra channels of an
// image, in channel order.
func AlphaNames(names ...string) Resource {
	var data []byte
	for _, n := range names {
		data = append(data, pascal(n)...)
	}
	return Resource{ID: AlphaNamesID, Data: data}
}

// Encode returns the resource blocks, concatenated. All numbers are
// big-endian; the name and the data are each padded to an even length.
func Encode(resources ...Resource) []byte {
	var b bytes.Buffer
	for _, r := range resources {
		b.WriteString(Signature)
		binary.Write(&b, binary.BigEndian, r.ID)
		name := pascal(r.Name)
		if len(name)%2 == 1 {
			name = append(name, 0)
		}
		b.Write(name)
		binary.Write(&b, binary.BigEndian, uint32(len(r.Data)))
		b.Write(r.Data)
		if len(r.Data)%2 == 1 {
			b.WriteByte(0)
		}
	}
	return b.Bytes()
}

// Decode parses a sequence of resource blocks.
func Decode(b []byte) ([]Resource, error) {
	var resources []Resource
	for off := 0; off < len(b); {
		if len(b)-off < 4+2+2 {
			return nil, fmt.Errorf("psd: truncated resource at offset %d", off)
		}
		if sig := string(b[off : off+4]); sig != Signature {
			return nil, fmt.Errorf("psd: unexpected signature %q at offset %d", sig, off)
		}
		off += 4
		id := binary.BigEndian.Uint16(b[off:])
		off += 2
		nameLen := int(b[off])
		padded := nameLen + 1
		if padded%2 == 1 {
			padded++
		}
		if off+padded+4 > len(b) {
			return nil, fmt.Errorf("psd: truncated name of resource %d", id)
		}
		name := string(b[off+1 : off+1+nameLen])
		off += padded
		size := int(binary.BigEndian.Uint32(b[off:]))
		off += 4
		if size < 0 || off+size > len(b) {
			return nil, fmt.Errorf("psd: resource %d: size %d exceeds block", id, size)
		}
		resources = append(resources, Resource{
			ID:   id,
			Name: name,
			Data: append([]byte(nil), b[off:off+size]...),
		})
		off += size
		if size%2 == 1 && off < len(b) {
			off++
		}
	}
	return resources, nil
}

// PascalStrings splits data into consecutive length-prefixed strings, as
// found in the AlphaNamesID resource.
func PascalStrings(data []byte) ([]string, error) {
	var strs []string
	for off := 0; off < len(data); {
		n := int(data[off])
		off++
		if off+n > len(data) {
			return nil, fmt.Errorf("psd: truncated Pascal string at offset %d", off-1)
		}
		strs = append(strs, string(data[off:off+n]))
		off += n
	}
	return strs, nil
}

// ChannelNames returns the extra channel names stored in the resource block
// b, or nil if b contains no AlphaNamesID resource.
func ChannelNames(b []byte) ([]string, error) {
	resources, err := Decode(b)
	if err != nil {
		return nil, err
	}
	for _, r := range resources {
		if r.ID == AlphaNamesID {
			return PascalStrings(r.Data)
		}
	}
	return nil, nil
}
