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

package psd

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestOddLengthsArePadded(t *testing.T) {
	b := Encode(
		Resource{ID: 1000, Name: "ab", Data: []byte{1, 2, 3}},
		Resource{ID: 1001, Data: []byte{4}},
	)
	if len(b)%2 != 0 {
		t.Fatalf("len(Encode()) = %d, want even", len(b))
	}
	got, err := Decode(b)
	if err != nil {
		t.Fatal(err)
	}
	want := []Resource{
		{ID: 1000, Name: "ab", Data: []byte{1, 2, 3}},
		{ID: 1001, Name: "", Data: []byte{4}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("Decode: diff (-want +got):\n%s", diff)
	}
}

func TestDecodeErrors(t *testing.T) {
	for _, test := range []struct {
		desc string
		in   []byte
	}{
		{"short", []byte("8BIM")},
		{"signature", []byte("8BIX\x03\xee\x00\x00\x00\x00\x00\x00")},
		{"size", []byte("8BIM\x03\xee\x00\x00\x00\x00\x00\x10ab")},
	} {
		t.Run(test.desc, func(t *testing.T) {
			if _, err := Decode(test.in); err == nil {
				t.Fatalf("Decode(%q) succeeded unexpectedly", test.in)
			}
		})
	}
}

func TestPascalStringsTruncated(t *testing.T) {
	if _, err := PascalStrings([]byte{5, 'A', 'l'}); err == nil {
		t.Fatal("PascalStrings(truncated) succeeded unexpectedly")
	}
}
