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

// Package settings persists the spot generation config between runs.
package settings

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/renameio"
	"github.com/stapelberg/spotgen"
)

// DefaultPath is the settings file location, relative to the working
// directory.
const DefaultPath = "data/settings.json"

// Settings is the on-disk representation of a spotgen.Config.
type Settings struct {
	Margin       int    `json:"margin"`
	MarginMode   int    `json:"marginMode"`
	CopyWhite    bool   `json:"copyWhite"`
	FillGaps     bool   `json:"fillGaps"`
	PreviewColor string `json:"previewColor"`
}

// Default returns the settings used when no settings file exists.
func Default() Settings {
	return Settings{
		Margin:       2,
		MarginMode:   int(spotgen.DistanceBlur),
		CopyWhite:    true,
		FillGaps:     false,
		PreviewColor: spotgen.Pink.String(),
	}
}

// legacy holds keys of older settings files.
type legacy struct {
	// SmartSpot was the single smart spot toggle, which is CopyWhite today.
	SmartSpot *bool `json:"smartSpot"`
	CopyWhite *bool `json:"copyWhite"`
}

// Parse decodes a settings file. Keys missing from b keep their default.
func Parse(b []byte) (Settings, error) {
	s := Default()
	if err := json.Unmarshal(b, &s); err != nil {
		return Settings{}, fmt.Errorf("%w: %w", spotgen.ErrInvalidConfig, err)
	}
	var l legacy
	if err := json.Unmarshal(b, &l); err != nil {
		return Settings{}, fmt.Errorf("%w: %w", spotgen.ErrInvalidConfig, err)
	}
	if l.CopyWhite == nil && l.SmartSpot != nil {
		s.CopyWhite = *l.SmartSpot
	}
	return s, nil
}

// Load reads the settings file at path. If the file does not exist, it is
// created with the default settings, which are returned.
func Load(path string) (Settings, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return Settings{}, fmt.Errorf("%w: %w", spotgen.ErrIOFailure, err)
		}
		s := Default()
		if err := Save(path, s); err != nil {
			return Settings{}, err
		}
		return s, nil
	}
	s, err := Parse(b)
	if err != nil {
		return Settings{}, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// Save atomically replaces the settings file at path, creating its directory
// if needed.
func Save(path string, s Settings) error {
	b, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	b = append(b, '\n')
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("%w: %w", spotgen.ErrIOFailure, err)
	}
	if err := renameio.WriteFile(path, b, 0644); err != nil {
		return fmt.Errorf("%w: %w", spotgen.ErrIOFailure, err)
	}
	return nil
}

// Config validates s and converts it into a spotgen.Config.
func (s Settings) Config() (spotgen.Config, error) {
	color, err := spotgen.ParsePreviewColor(s.PreviewColor)
	if err != nil {
		return spotgen.Config{}, err
	}
	cfg := spotgen.Config{
		MarginPixels: s.Margin,
		MarginMode:   spotgen.MarginMode(s.MarginMode),
		SmartSpot: spotgen.SmartSpot{
			CopyWhite: s.CopyWhite,
			FillGaps:  s.FillGaps,
		},
		PreviewColor: color,
	}
	if err := cfg.Validate(); err != nil {
		return spotgen.Config{}, err
	}
	return cfg, nil
}

// FromConfig returns the settings which represent cfg.
func FromConfig(cfg spotgen.Config) Settings {
	return Settings{
		Margin:       cfg.MarginPixels,
		MarginMode:   int(cfg.MarginMode),
		CopyWhite:    cfg.SmartSpot.CopyWhite,
		FillGaps:     cfg.SmartSpot.FillGaps,
		PreviewColor: cfg.PreviewColor.String(),
	}
}
