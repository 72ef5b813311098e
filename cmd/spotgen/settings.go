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
	"strconv"

	"github.com/spf13/cobra"
	"github.com/stapelberg/spotgen/internal/settings"
)

func newSettingsCommand(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "settings",
		Short: "Print the settings used when no flags are given",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := settings.Load(g.settingsPath)
			if err != nil {
				return err
			}
			cfg, err := s.Config()
			if err != nil {
				return err
			}
			rows := [][]string{
				{"margin", strconv.Itoa(cfg.MarginPixels)},
				{"marginMode", fmt.Sprintf("%d (%v)", int(cfg.MarginMode), cfg.MarginMode)},
				{"copyWhite", strconv.FormatBool(cfg.SmartSpot.CopyWhite)},
				{"fillGaps", strconv.FormatBool(cfg.SmartSpot.FillGaps)},
				{"previewColor", cfg.PreviewColor.String()},
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\n%s\n", g.settingsPath, renderTable([]string{"Key", "Value"}, rows))
			return nil
		},
	}
}
