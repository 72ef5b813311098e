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

// Package pipeline runs one spot generation: it loads the source artwork,
// derives the spot mask and writes the spot artifact and the preview.
package pipeline

import (
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/stapelberg/spotgen"
	"github.com/stapelberg/spotgen/internal/composite"
	"github.com/stapelberg/spotgen/internal/container"
	"github.com/stapelberg/spotgen/internal/loader"
	"github.com/stapelberg/spotgen/internal/plane"
	"github.com/stapelberg/spotgen/internal/preview"
	"github.com/stapelberg/spotgen/internal/refine"
	"github.com/stapelberg/spotgen/internal/smartspot"
)

// Options are the parameters of a run which are not part of the spot
// generation config.
type Options struct {
	// DPI is the resolution stored in the artifact. Zero means 300.
	DPI int

	// ICCPath is the output ICC profile to embed. Empty means
	// container.DefaultICCPath.
	ICCPath string

	// PreviewPath is where the preview PNG is written. Empty means
	// preview.DefaultPath.
	PreviewPath string

	// CreatorTool and Rating end up in the XMP packet. Zero values select
	// the container defaults.
	CreatorTool string
	Rating      int

	// Compress deflates the artifact strips.
	Compress bool

	// Logger receives progress and warnings. nil disables logging.
	Logger *zerolog.Logger
}

// Result describes the files produced by a successful run.
type Result struct {
	OutputPath  string
	PreviewPath string

	// Preview is the rendered preview, as written to PreviewPath.
	Preview *image.NRGBA

	// Warnings are the non-fatal problems of the run, e.g. an error
	// wrapping spotgen.ErrMissingOptionalAsset.
	Warnings []error
}

func (o *Options) logger() *zerolog.Logger {
	if o.Logger == nil {
		nop := zerolog.Nop()
		return &nop
	}
	return o.Logger
}

// Generate creates the spot artifact for the image at inputPath next to it
// (see container.OutputPath) and overwrites the preview.
//
// A failed run leaves no artifact behind. Errors wrap one of the spotgen
// error kinds.
func Generate(inputPath string, cfg spotgen.Config, opts Options) (*Result, error) {
	log := opts.logger().With().Str("input", inputPath).Logger()
	start := time.Now()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	iccPath := opts.ICCPath
	if iccPath == "" {
		iccPath = container.DefaultICCPath
	}
	previewPath := opts.PreviewPath
	if previewPath == "" {
		previewPath = preview.DefaultPath
	}
	res := &Result{
		OutputPath:  container.OutputPath(inputPath),
		PreviewPath: previewPath,
	}

	src, model, err := loader.Load(inputPath)
	if err != nil {
		return nil, err
	}
	width, height := src.Bounds()
	log.Debug().
		Stringer("model", model).
		Int("width", width).
		Int("height", height).
		Msg("source loaded")

	c := src.Lookup(plane.Cyan)
	m := src.Lookup(plane.Magenta)
	y := src.Lookup(plane.Yellow)
	k := src.Lookup(plane.Black)
	alpha := src.Lookup(plane.Alpha)

	mask, err := refine.Refine(alpha, cfg.MarginPixels, cfg.MarginMode)
	if err != nil {
		return nil, err
	}
	if err := smartspot.Fix(mask, c, m, y, k, alpha, cfg.MarginPixels, cfg.SmartSpot); err != nil {
		return nil, err
	}
	log.Debug().
		Int("margin", cfg.MarginPixels).
		Stringer("mode", cfg.MarginMode).
		Bool("copy_white", cfg.SmartSpot.CopyWhite).
		Bool("fill_gaps", cfg.SmartSpot.FillGaps).
		Msg("spot mask computed")

	res.Preview, err = preview.Render(c, m, y, k, alpha, mask, cfg.PreviewColor)
	if err != nil {
		return nil, err
	}
	stack, err := composite.Assemble(c, m, y, k, alpha, composite.Invert(mask))
	if err != nil {
		return nil, err
	}

	profile, err := container.ReadICC(iccPath)
	if err != nil {
		if !errors.Is(err, spotgen.ErrMissingOptionalAsset) {
			return nil, err
		}
		log.Warn().Err(err).Msg("writing artifact without ICC profile")
		res.Warnings = append(res.Warnings, err)
	} else if summary, err := container.DescribeICC(profile); err != nil {
		log.Warn().Err(err).Str("icc", iccPath).Msg("embedding ICC profile anyway")
		res.Warnings = append(res.Warnings, fmt.Errorf("%s: %w", iccPath, err))
	} else {
		log.Debug().Str("icc", iccPath).Str("profile", summary).Msg("embedding ICC profile")
	}

	// The preview is staged first and only replaces the previous one once
	// the artifact exists.
	if dir := filepath.Dir(previewPath); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("%w: %w", spotgen.ErrIOFailure, err)
		}
	}
	staged, err := preview.Stage(previewPath, res.Preview)
	if err != nil {
		return nil, err
	}
	defer staged.Discard()

	b := &container.Builder{
		DPI:         opts.DPI,
		ICCProfile:  profile,
		CreatorTool: opts.CreatorTool,
		Rating:      opts.Rating,
		Compress:    opts.Compress,
	}
	if err := container.Write(res.OutputPath, stack, b); err != nil {
		return nil, err
	}
	if err := staged.Commit(); err != nil {
		return nil, err
	}

	log.Info().
		Str("output", res.OutputPath).
		Str("preview", res.PreviewPath).
		Dur("took", time.Since(start)).
		Msg("spot artifact written")
	return res, nil
}
