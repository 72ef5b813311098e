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

package spotgen

import "errors"

// Error kinds of a generation run. Errors returned by spotgen packages wrap
// exactly one of these and can be checked with errors.Is.
var (
	// ErrUnsupportedFormat is returned for unrecognized file extensions and
	// for images whose color model cannot be detected.
	ErrUnsupportedFormat = errors.New("unsupported format")

	// ErrDimensionMismatch is returned when planes of one run differ in size.
	ErrDimensionMismatch = errors.New("dimension mismatch")

	// ErrIOFailure is returned for read and write errors on the source or
	// destination files.
	ErrIOFailure = errors.New("I/O failure")

	// ErrMissingOptionalAsset marks an optional input (the ICC profile)
	// which was not found. It is never fatal.
	ErrMissingOptionalAsset = errors.New("missing optional asset")

	// ErrInvalidConfig is returned when a Config or settings value is out of
	// range.
	ErrInvalidConfig = errors.New("invalid configuration")
)

// Kind returns the name of the error kind wrapped by err, e.g.
// "UnsupportedFormat", or "Unknown" if err wraps none of the kinds.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrUnsupportedFormat):
		return "UnsupportedFormat"
	case errors.Is(err, ErrDimensionMismatch):
		return "DimensionMismatch"
	case errors.Is(err, ErrIOFailure):
		return "IOFailure"
	case errors.Is(err, ErrMissingOptionalAsset):
		return "MissingOptionalAsset"
	case errors.Is(err, ErrInvalidConfig):
		return "InvalidConfig"
	default:
		return "Unknown"
	}
}
