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

package pipeline_test

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stapelberg/spotgen"
	"github.com/stapelberg/spotgen/internal/container"
	"github.com/stapelberg/spotgen/internal/pipeline"
	"github.com/stapelberg/spotgen/internal/tiff"
	"seehuhn.de/go/icc"
)

const size = 30

// writeArtwork writes a transparent PNG with an opaque dark red 20×20 square
// at (5, 5).
func writeArtwork(t *testing.T, dir string) string {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, size, size))
	for y := 5; y < 25; y++ {
		for x := 5; x < 25; x++ {
			img.SetNRGBA(x, y, color.NRGBA{150, 20, 20, 255})
		}
	}
	path := filepath.Join(dir, "shirt.png")
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

// spotSample returns the spot channel sample at (x, y) of the artifact.
func spotSample(t *testing.T, path string, x, y int) uint8 {
	t.Helper()
	info, err := container.ReadTags(path)
	if err != nil {
		t.Fatal(err)
	}
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	rs, err := info.IFD.Pixels(f, info.Size)
	if err != nil {
		t.Fatal(err)
	}
	return rs.Pix[(y*rs.Width+x)*rs.SamplesPerPixel+5]
}

var defaultConfig = spotgen.Config{
	MarginPixels: 2,
	MarginMode:   spotgen.DistanceBlur,
	SmartSpot:    spotgen.SmartSpot{CopyWhite: true},
	PreviewColor: spotgen.Pink,
}

func TestGenerate(t *testing.T) {
	for _, mode := range []spotgen.MarginMode{spotgen.ErodeBilateral, spotgen.DistanceBlur, spotgen.DistanceNoBlur} {
		t.Run(mode.String(), func(t *testing.T) {
			dir := t.TempDir()
			input := writeArtwork(t, dir)
			cfg := defaultConfig
			cfg.MarginMode = mode
			opts := pipeline.Options{
				ICCPath:     filepath.Join(dir, "absent.icc"),
				PreviewPath: filepath.Join(dir, "data", "preview.png"),
			}
			res, err := pipeline.Generate(input, cfg, opts)
			if err != nil {
				t.Fatal(err)
			}
			if want := filepath.Join(dir, "shirt_spot.tif"); res.OutputPath != want {
				t.Errorf("OutputPath = %q, want %q", res.OutputPath, want)
			}
			if len(res.Warnings) != 1 || !errors.Is(res.Warnings[0], spotgen.ErrMissingOptionalAsset) {
				t.Errorf("Warnings = %v, want one ErrMissingOptionalAsset", res.Warnings)
			}

			info, err := container.ReadTags(res.OutputPath)
			if err != nil {
				t.Fatal(err)
			}
			if info.SamplesPerPixel != 6 || info.Photometric != tiff.PhotometricSeparated {
				t.Errorf("artifact has %d samples, photometric %d; want 6, %d", info.SamplesPerPixel, info.Photometric, tiff.PhotometricSeparated)
			}
			if _, ok := info.IFD.Lookup(tiff.TagICCProfile); ok {
				t.Errorf("artifact has an ICC profile tag, want none")
			}

			// Spot polarity: 0 is full ink.
			for _, test := range []struct {
				x, y int
				want uint8
			}{
				{15, 15, 0},
				{0, 0, 255},
				{5, 15, 255}, // within the margin
			} {
				if got := spotSample(t, res.OutputPath, test.x, test.y); got != test.want {
					t.Errorf("spot(%d, %d) = %d, want %d", test.x, test.y, got, test.want)
				}
			}

			if _, err := os.Stat(res.PreviewPath); err != nil {
				t.Errorf("preview not written: %v", err)
			}
			pink := spotgen.Pink.RGBA()
			// Inside the margin, the artwork gets no spot ink.
			if got := res.Preview.NRGBAAt(5, 15); got != (color.NRGBA{pink.R, pink.G, pink.B, 255}) {
				t.Errorf("preview(5, 15) = %v, want opaque pink", got)
			}
			if got := res.Preview.NRGBAAt(0, 0); got.A != 0 {
				t.Errorf("preview(0, 0) = %v, want transparent", got)
			}
		})
	}
}

// iccProfile returns an encoded v4 profile of the given class and color space.
func iccProfile(class icc.ProfileClass, space, pcs icc.ColorSpace) []byte {
	p := &icc.Profile{
		Class:        class,
		ColorSpace:   space,
		PCS:          pcs,
		CreationDate: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	return p.Encode()
}

func TestGenerateEmbedsICC(t *testing.T) {
	for _, test := range []struct {
		desc     string
		profile  []byte
		warnings int
	}{
		{"CMYK", iccProfile(icc.OutputDeviceProfile, icc.CMYKSpace, icc.PCSLabSpace), 0},
		// Not a CMYK output profile: embedded, with a warning.
		{"RGB", iccProfile(icc.DisplayDeviceProfile, icc.RGBSpace, icc.PCSXYZSpace), 1},
	} {
		t.Run(test.desc, func(t *testing.T) {
			dir := t.TempDir()
			input := writeArtwork(t, dir)
			iccPath := filepath.Join(dir, "profile.icc")
			if err := os.WriteFile(iccPath, test.profile, 0644); err != nil {
				t.Fatal(err)
			}
			res, err := pipeline.Generate(input, defaultConfig, pipeline.Options{
				ICCPath:     iccPath,
				PreviewPath: filepath.Join(dir, "preview.png"),
			})
			if err != nil {
				t.Fatal(err)
			}
			if len(res.Warnings) != test.warnings {
				t.Errorf("Warnings = %v, want %d", res.Warnings, test.warnings)
			}
			info, err := container.ReadTags(res.OutputPath)
			if err != nil {
				t.Fatal(err)
			}
			if !bytes.Equal(info.ICCProfile, test.profile) {
				t.Errorf("embedded ICC profile differs from %s", iccPath)
			}
		})
	}
}

func TestGenerateFailures(t *testing.T) {
	dir := t.TempDir()
	input := writeArtwork(t, dir)
	jpg := filepath.Join(dir, "shirt.jpg")
	if err := os.WriteFile(jpg, []byte("not really"), 0644); err != nil {
		t.Fatal(err)
	}
	iccDir := filepath.Join(dir, "icc-is-a-dir")
	if err := os.Mkdir(iccDir, 0755); err != nil {
		t.Fatal(err)
	}
	for _, test := range []struct {
		input string
		cfg   spotgen.Config
		icc   string
		want  error
	}{
		{jpg, defaultConfig, "", spotgen.ErrUnsupportedFormat},
		{filepath.Join(dir, "absent.png"), defaultConfig, "", spotgen.ErrIOFailure},
		{input, spotgen.Config{MarginPixels: -1, MarginMode: spotgen.DistanceBlur}, "", spotgen.ErrInvalidConfig},
		{input, spotgen.Config{MarginPixels: 1}, "", spotgen.ErrInvalidConfig},
		{input, defaultConfig, iccDir, spotgen.ErrIOFailure},
	} {
		t.Run(fmt.Sprintf("%s/%v", filepath.Base(test.input), test.want), func(t *testing.T) {
			icc := test.icc
			if icc == "" {
				icc = filepath.Join(dir, "absent.icc")
			}
			_, err := pipeline.Generate(test.input, test.cfg, pipeline.Options{
				ICCPath:     icc,
				PreviewPath: filepath.Join(dir, "preview.png"),
			})
			if !errors.Is(err, test.want) {
				t.Fatalf("Generate() = %v, want %v", err, test.want)
			}
			if _, err := os.Stat(container.OutputPath(test.input)); !os.IsNotExist(err) {
				t.Fatalf("artifact exists after failed run (Stat: %v)", err)
			}
		})
	}
}

func TestGenerateCompressed(t *testing.T) {
	dir := t.TempDir()
	input := writeArtwork(t, dir)
	res, err := pipeline.Generate(input, defaultConfig, pipeline.Options{
		ICCPath:     filepath.Join(dir, "absent.icc"),
		PreviewPath: filepath.Join(dir, "preview.png"),
		Compress:    true,
	})
	if err != nil {
		t.Fatal(err)
	}
	info, err := container.ReadTags(res.OutputPath)
	if err != nil {
		t.Fatal(err)
	}
	if got, _ := info.IFD.Uint(tiff.TagCompression, 0); got != tiff.CompressionDeflate {
		t.Errorf("Compression = %d, want %d", got, tiff.CompressionDeflate)
	}
	if got, _ := info.IFD.Uint(tiff.TagPredictor, 1); got != tiff.PredictorHorizontal {
		t.Errorf("Predictor = %d, want %d", got, tiff.PredictorHorizontal)
	}
	if got := spotSample(t, res.OutputPath, 15, 15); got != 0 {
		t.Errorf("spot(15, 15) = %d, want 0", got)
	}
	if got := spotSample(t, res.OutputPath, 0, 0); got != 255 {
		t.Errorf("spot(0, 0) = %d, want 255", got)
	}
}

func TestGenerateKeepsPreviewOnFailure(t *testing.T) {
	dir := t.TempDir()
	input := writeArtwork(t, dir)
	// A non-empty directory in place of the artifact makes the final
	// rename fail.
	blocker := filepath.Join(container.OutputPath(input), "keep")
	if err := os.MkdirAll(blocker, 0755); err != nil {
		t.Fatal(err)
	}
	previewDir := filepath.Join(dir, "data")
	if err := os.Mkdir(previewDir, 0755); err != nil {
		t.Fatal(err)
	}
	previewPath := filepath.Join(previewDir, "preview.png")
	if err := os.WriteFile(previewPath, []byte("previous"), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := pipeline.Generate(input, defaultConfig, pipeline.Options{
		ICCPath:     filepath.Join(dir, "absent.icc"),
		PreviewPath: previewPath,
	})
	if !errors.Is(err, spotgen.ErrIOFailure) {
		t.Fatalf("Generate() = %v, want ErrIOFailure", err)
	}
	b, err := os.ReadFile(previewPath)
	if err != nil {
		t.Fatal(err)
	}
	if got := string(b); got != "previous" {
		t.Errorf("preview was replaced by a failed run")
	}
	entries, err := os.ReadDir(previewDir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("preview directory contains %d entries, want only the previous preview", len(entries))
	}
}
