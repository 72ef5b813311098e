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
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/stapelberg/spotgen/internal/container"
	"github.com/stapelberg/spotgen/internal/hotfolder"
	"github.com/stapelberg/spotgen/internal/jobqueue"
	"github.com/stapelberg/spotgen/internal/loader"
)

func newWatchCommand(g *globals) *cobra.Command {
	var (
		cf       configFlags
		rf       runFlags
		debounce time.Duration
	)
	cmd := &cobra.Command{
		Use:   "watch [flags] DIR",
		Short: "Generate spot TIFFs for artwork dropped into DIR",
		Long: `Watch turns DIR into a hot folder: every ` + strings.Join(loader.Extensions, ", ") + ` file
which is created or rewritten in DIR gets a *` + container.Suffix + ` next to it, one file at a
time. Processed files are recorded in DIR/` + jobqueue.DirName + `, so a restarted watcher
skips files which did not change.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(g, cmd.Flags(), &cf, false)
			if err != nil {
				return err
			}
			lock, err := previewLock(rf.previewPath)
			if err != nil {
				return err
			}
			folder, err := hotfolder.New(hotfolder.Config{
				Dir:         args[0],
				Config:      cfg,
				Options:     rf.options(g),
				Debounce:    debounce,
				PreviewLock: lock,
			})
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return folder.Run(ctx)
		},
	}
	cf.register(cmd.Flags())
	rf.register(cmd.Flags())
	cmd.Flags().DurationVar(&debounce, "debounce", hotfolder.DefaultDebounce, "How long a file must stay unmodified before it is processed")
	return cmd
}
