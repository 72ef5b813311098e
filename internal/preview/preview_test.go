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

package preview_test

import (
	"errors"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stapelberg/spotgen"
	"github.com/stapelberg/spotgen/internal/plane"
	"github.com/stapelberg/spotgen/internal/preview"
)

func TestRender(t *testing.T) {
	const w, h = 4, 3
	c, m, y := plane.New(w, h), plane.New(w, h), plane.New(w, h)
	k := plane.Filled(w, h, 255) // black artwork
	alpha := plane.Filled(w, h, 255)
	alpha.Set(3, 2, 17)
	mask := plane.Filled(w, h, 255)
	mask.Set(0, 0, 0)
	mask.Set(3, 2, 0)
	mask.Set(1, 1, 128)

	img, err := preview.Render(c, m, y, k, alpha, mask, spotgen.Yellow)
	if err != nil {
		t.Fatal(err)
	}
	yellow := spotgen.Yellow.RGBA()
	for _, test := range []struct {
		x, y int
		want color.NRGBA
	}{
		{0, 0, color.NRGBA{yellow.R, yellow.G, yellow.B, 255}},
		{3, 2, color.NRGBA{yellow.R, yellow.G, yellow.B, 17}},
		{1, 1, color.NRGBA{0, 0, 0, 255}}, // partial coverage is not highlighted
		{2, 0, color.NRGBA{0, 0, 0, 255}},
	} {
		if got := img.NRGBAAt(test.x, test.y); got != test.want {
			t.Errorf("pixel (%d, %d) = %v, want %v", test.x, test.y, got, test.want)
		}
	}
}

func TestRenderErrors(t *testing.T) {
	p := plane.New(2, 2)
	if _, err := preview.Render(p, p, p, p, p, plane.New(3, 3), spotgen.Pink); !errors.Is(err, spotgen.ErrDimensionMismatch) {
		t.Errorf("Render(mismatched) = %v, want ErrDimensionMismatch", err)
	}
	if _, err := preview.Render(p, p, p, p, p, p, spotgen.PreviewColor(42)); !errors.Is(err, spotgen.ErrInvalidConfig) {
		t.Errorf("Render(invalid color) = %v, want ErrInvalidConfig", err)
	}
}

func TestWriteOverwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "preview.png")
	for _, col := range []spotgen.PreviewColor{spotgen.Pink, spotgen.Cyan} {
		p := plane.New(2, 2)
		img, err := preview.Render(p, p, p, p, plane.Filled(2, 2, 255), p, col)
		if err != nil {
			t.Fatal(err)
		}
		if err := preview.Write(path, img); err != nil {
			t.Fatal(err)
		}
		f, err := os.Open(path)
		if err != nil {
			t.Fatal(err)
		}
		decoded, err := png.Decode(f)
		f.Close()
		if err != nil {
			t.Fatal(err)
		}
		want := col.RGBA()
		if got := color.NRGBAModel.Convert(decoded.At(1, 1)).(color.NRGBA); got != (color.NRGBA{want.R, want.G, want.B, 255}) {
			t.Errorf("preview pixel = %v, want %v", got, want)
		}
	}
}

func TestStageDiscard(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "preview.png")
	p := plane.New(2, 2)
	img, err := preview.Render(p, p, p, p, p, p, spotgen.Pink)
	if err != nil {
		t.Fatal(err)
	}
	s, err := preview.Stage(path, img)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("Stat(%s) = %v before Commit, want not exist", path, err)
	}
	s.Discard()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("directory contains %d entries after Discard, want 0", len(entries))
	}
}
