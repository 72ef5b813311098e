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
	"errors"
	"fmt"
	"os"

	"github.com/stapelberg/spotgen"
	"seehuhn.de/go/icc"
)

// DefaultICCPath is where the output ICC profile is looked up, relative to
// the working directory.
const DefaultICCPath = "data/CoatedFOGRA39.icc"

// ReadICC returns the contents of the ICC profile at path. A missing file
// results in an error wrapping spotgen.ErrMissingOptionalAsset, which callers
// treat as a warning and continue without a profile.
func ReadICC(path string) ([]byte, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: ICC profile %s: %w", spotgen.ErrMissingOptionalAsset, path, err)
		}
		return nil, fmt.Errorf("%w: %w", spotgen.ErrIOFailure, err)
	}
	return b, nil
}

// DescribeICC returns a one-line summary of the ICC profile b. It returns an
// error if b cannot be decoded or is not an output profile for CMYK, in which
// case the summary is empty.
func DescribeICC(b []byte) (string, error) {
	// icc.Decode clears the profile ID fields of its input.
	p, err := icc.Decode(bytes.Clone(b))
	if err != nil {
		return "", err
	}
	n := p.ColorSpace.NumComponents()
	if p.ColorSpace != icc.CMYKSpace {
		return "", fmt.Errorf("ICC profile color space is %v (%d components), want CMYK", p.ColorSpace, n)
	}
	return fmt.Sprintf("%v, %d components, %d bytes", p.ColorSpace, n, len(b)), nil
}
