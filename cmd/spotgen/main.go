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

// Program spotgen derives a white underbase spot channel from the alpha mask
// of RGB or CMYK artwork and writes a CMYK+Alpha+Spot TIFF for print.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/stapelberg/spotgen"
	"github.com/stapelberg/spotgen/internal/logging"
	"github.com/stapelberg/spotgen/internal/settings"
)

// globals are the flags shared by all subcommands.
type globals struct {
	settingsPath string
	verbose      bool
	stderr       io.Writer
}

func (g *globals) logger() zerolog.Logger {
	return logging.New(g.stderr, g.verbose)
}

func newRootCommand(stdout, stderr io.Writer) *cobra.Command {
	g := &globals{stderr: stderr}
	root := &cobra.Command{
		Use:           "spotgen",
		Short:         "Generate spot channel TIFFs for white underbase printing",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.PersistentFlags().StringVar(&g.settingsPath, "settings", settings.DefaultPath, "Path to the settings file, created with defaults if missing")
	root.PersistentFlags().BoolVarP(&g.verbose, "verbose", "v", false, "Log debug messages")

	root.AddCommand(newGenerateCommand(g))
	root.AddCommand(newWatchCommand(g))
	root.AddCommand(newInspectCommand(g))
	root.AddCommand(newSettingsCommand(g))
	return root
}

// errorMessage formats err for the user, naming its kind if it has one.
func errorMessage(err error) string {
	if kind := spotgen.Kind(err); kind != "Unknown" {
		return fmt.Sprintf("spotgen: %s: %v", kind, err)
	}
	return fmt.Sprintf("spotgen: %v", err)
}

func main() {
	if err := newRootCommand(os.Stdout, os.Stderr).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, errorMessage(err))
		os.Exit(1)
	}
}
