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

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/gofrs/flock"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stapelberg/spotgen"
	"github.com/stapelberg/spotgen/internal/container"
	"github.com/stapelberg/spotgen/internal/pipeline"
	"github.com/stapelberg/spotgen/internal/preview"
	"github.com/stapelberg/spotgen/internal/settings"
)

// configFlags override the settings file for one invocation.
type configFlags struct {
	margin       int
	mode         string
	copyWhite    bool
	fillGaps     bool
	previewColor string
}

func (c *configFlags) register(fs *pflag.FlagSet) {
	def := settings.Default()
	fs.IntVar(&c.margin, "margin", def.Margin, "Margin in pixels between the artwork edge and the spot channel")
	fs.StringVar(&c.mode, "mode", spotgen.MarginMode(def.MarginMode).String(), "Margin mode: 1 (ErodeBilateral), 2 (DistanceBlur) or 3 (DistanceNoBlur)")
	fs.BoolVar(&c.copyWhite, "copy-white", def.CopyWhite, "Restore spot coverage on pure white artwork")
	fs.BoolVar(&c.fillGaps, "fill-gaps", def.FillGaps, "Close small holes in the spot channel")
	fs.StringVar(&c.previewColor, "preview-color", def.PreviewColor, "Preview highlight for areas without spot ink")
}

// apply overrides the fields of s whose flags were set on the command line.
func (c *configFlags) apply(fs *pflag.FlagSet, s settings.Settings) (settings.Settings, error) {
	if fs.Changed("margin") {
		s.Margin = c.margin
	}
	if fs.Changed("mode") {
		m, err := spotgen.ParseMarginMode(c.mode)
		if err != nil {
			return settings.Settings{}, err
		}
		s.MarginMode = int(m)
	}
	if fs.Changed("copy-white") {
		s.CopyWhite = c.copyWhite
	}
	if fs.Changed("fill-gaps") {
		s.FillGaps = c.fillGaps
	}
	if fs.Changed("preview-color") {
		s.PreviewColor = c.previewColor
	}
	return s, nil
}

// runFlags are the pipeline options shared by generate and watch.
type runFlags struct {
	dpi         int
	iccPath     string
	previewPath string
	compress    bool
}

func (r *runFlags) register(fs *pflag.FlagSet) {
	fs.IntVar(&r.dpi, "dpi", container.DefaultDPI, "Resolution stored in the spot TIFF")
	fs.StringVar(&r.iccPath, "icc", container.DefaultICCPath, "CMYK output ICC profile to embed, skipped if missing")
	fs.StringVar(&r.previewPath, "preview", preview.DefaultPath, "Where to write the preview PNG")
	fs.BoolVar(&r.compress, "compress", false, "Deflate-compress the spot TIFF strips")
}

func (r *runFlags) options(g *globals) pipeline.Options {
	log := g.logger()
	return pipeline.Options{
		DPI:         r.dpi,
		ICCPath:     r.iccPath,
		PreviewPath: r.previewPath,
		Compress:    r.compress,
		Logger:      &log,
	}
}

// previewLock returns the lock which serializes spotgen processes writing
// the preview at path.
func previewLock(path string) (*flock.Flock, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("%w: %w", spotgen.ErrIOFailure, err)
	}
	return flock.New(path + ".lock"), nil
}

// resolveConfig loads the settings file and applies the command line
// overrides. With save, the result is written back to the settings file.
func resolveConfig(g *globals, fs *pflag.FlagSet, cf *configFlags, save bool) (spotgen.Config, error) {
	s, err := settings.Load(g.settingsPath)
	if err != nil {
		return spotgen.Config{}, err
	}
	if s, err = cf.apply(fs, s); err != nil {
		return spotgen.Config{}, err
	}
	cfg, err := s.Config()
	if err != nil {
		return spotgen.Config{}, err
	}
	if save {
		// Store the canonical spelling, e.g. "Pink" for --preview-color=pink.
		if err := settings.Save(g.settingsPath, settings.FromConfig(cfg)); err != nil {
			return spotgen.Config{}, err
		}
	}
	return cfg, nil
}

func newGenerateCommand(g *globals) *cobra.Command {
	var (
		cf   configFlags
		rf   runFlags
		save bool
	)
	cmd := &cobra.Command{
		Use:   "generate [flags] FILE...",
		Short: "Write <name>_spot.tif for each artwork file",
		Long: `Generate derives the spot channel from the alpha mask of each FILE
(RGB or CMYK TIFF, RGBA PNG) and writes <name>_spot.tif next to it, plus a
preview PNG highlighting the areas which get no spot ink.

Flags which are not given fall back to the settings file.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(g, cmd.Flags(), &cf, save)
			if err != nil {
				return err
			}
			opts := rf.options(g)
			lock, err := previewLock(rf.previewPath)
			if err != nil {
				return err
			}
			if err := lock.Lock(); err != nil {
				return fmt.Errorf("locking preview: %w", err)
			}
			defer lock.Unlock()

			out := cmd.OutOrStdout()
			for _, path := range args {
				res, err := pipeline.Generate(path, cfg, opts)
				if err != nil {
					return err
				}
				size := "?"
				if fi, err := os.Stat(res.OutputPath); err == nil {
					size = humanize.Bytes(uint64(fi.Size()))
				}
				fmt.Fprintf(out, "%s (%s)\n", res.OutputPath, size)
				for _, w := range res.Warnings {
					fmt.Fprintf(out, "  warning: %s: %v\n", spotgen.Kind(w), w)
				}
			}
			fmt.Fprintf(out, "preview: %s\n", rf.previewPath)
			return nil
		},
	}
	cf.register(cmd.Flags())
	rf.register(cmd.Flags())
	cmd.Flags().BoolVar(&save, "save", false, "Persist the resolved settings to the settings file")
	return cmd
}
