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
	"bytes"

	"seehuhn.de/go/xmp"
)

// XMPPacket returns a UTF-8 XMP packet declaring the creator tool and the
// rating in the XMP basic schema.
func XMPPacket(creatorTool string, rating int) ([]byte, error) {
	p := xmp.NewPacket()
	if err := p.Set(&xmp.Basic{
		CreatorTool: xmp.NewAgentName(creatorTool),
		Rating:      xmp.Real{V: float64(rating)},
	}); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := p.Write(&buf, nil); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ReadXMP parses packet and returns its XMP basic properties.
func ReadXMP(packet []byte) (*xmp.Basic, error) {
	p, err := xmp.Read(bytes.NewReader(packet))
	if err != nil {
		return nil, err
	}
	basic := &xmp.Basic{}
	p.Get(basic)
	return basic, nil
}
