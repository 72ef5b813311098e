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

// Package hotfolder watches a directory and generates the spot artifact for
// every artwork file which appears in it.
package hotfolder

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/gofrs/flock"
	"github.com/rs/zerolog"
	"github.com/stapelberg/spotgen"
	"github.com/stapelberg/spotgen/internal/container"
	"github.com/stapelberg/spotgen/internal/jobqueue"
	"github.com/stapelberg/spotgen/internal/loader"
	"github.com/stapelberg/spotgen/internal/pipeline"
	"golang.org/x/sync/errgroup"
)

// DefaultDebounce is how long a file must stay unmodified before it is
// processed.
const DefaultDebounce = 500 * time.Millisecond

type Config struct {
	// Dir is the watched directory. Jobs are recorded in
	// Dir/.spotgen.
	Dir string

	Config  spotgen.Config
	Options pipeline.Options

	// Debounce defaults to DefaultDebounce.
	Debounce time.Duration

	// PreviewLock is held around every run, as other spotgen processes
	// write the same preview. nil disables locking.
	PreviewLock *flock.Flock
}

type Folder struct {
	cfg   Config
	queue *jobqueue.Queue
	log   zerolog.Logger

	// previewPath is excluded from processing, as every run rewrites it.
	previewPath string

	mu     sync.Mutex
	timers map[string]*time.Timer
}

func New(cfg Config) (*Folder, error) {
	dir, err := filepath.Abs(cfg.Dir)
	if err != nil {
		return nil, err
	}
	cfg.Dir = dir
	if cfg.Debounce == 0 {
		cfg.Debounce = DefaultDebounce
	}
	if err := cfg.Config.Validate(); err != nil {
		return nil, err
	}
	log := zerolog.Nop()
	if cfg.Options.Logger != nil {
		log = *cfg.Options.Logger
	}
	f := &Folder{
		cfg:    cfg,
		queue:  &jobqueue.Queue{Dir: filepath.Join(dir, jobqueue.DirName)},
		log:    log.With().Str("dir", dir).Logger(),
		timers: make(map[string]*time.Timer),
	}
	if cfg.Options.PreviewPath != "" {
		if f.previewPath, err = filepath.Abs(cfg.Options.PreviewPath); err != nil {
			return nil, err
		}
	}
	return f, nil
}

// Queue returns the job queue of the folder.
func (f *Folder) Queue() *jobqueue.Queue { return f.queue }

// Eligible reports whether path is an artwork file which should get a spot
// artifact: a supported image which is neither hidden nor an artifact or
// the preview itself.
func (f *Folder) Eligible(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") {
		return false
	}
	if strings.HasSuffix(strings.ToLower(base), container.Suffix) {
		return false
	}
	if f.previewPath != "" {
		if abs, err := filepath.Abs(path); err == nil && abs == f.previewPath {
			return false
		}
	}
	return loader.Supported(path)
}

// Process generates the spot artifact for path, unless the current version
// of the file was processed before, in which case it returns a nil Job.
// Generation failures are recorded in the returned Job, the error is
// reserved for problems with the job queue itself.
func (f *Folder) Process(path string) (*jobqueue.Job, error) {
	fi, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil // removed before it settled
		}
		return nil, err
	}
	if !fi.Mode().IsRegular() {
		return nil, nil
	}
	input := jobqueue.InputOf(path, fi)
	processed, err := f.queue.Processed(input)
	if err != nil {
		return nil, err
	}
	if processed {
		f.log.Debug().Str("input", path).Msg("already processed, skipping")
		return nil, nil
	}
	if l := f.cfg.PreviewLock; l != nil {
		if err := l.Lock(); err != nil {
			return nil, err
		}
		defer l.Unlock()
	}
	job, err := f.queue.AddJob(input)
	if err != nil {
		return nil, err
	}
	log := f.log.With().Str("job", job.Id()).Logger()
	opts := f.cfg.Options
	opts.Logger = &log
	res, err := pipeline.Generate(path, f.cfg.Config, opts)
	if err != nil {
		log.Error().Err(err).Str("input", path).Str("kind", spotgen.Kind(err)).Msg("generation failed")
		if err := job.MarkFailed(err); err != nil {
			return nil, err
		}
		return job, nil
	}
	if err := job.MarkDone(res.OutputPath); err != nil {
		return nil, err
	}
	return job, nil
}

// Run processes the eligible files already in the directory and then every
// file created or modified in it, one at a time, until ctx is canceled.
func (f *Folder) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()
	if err := watcher.Add(f.cfg.Dir); err != nil {
		return fmt.Errorf("watching %s: %w", f.cfg.Dir, err)
	}
	defer f.stopTimers()

	eg, ctx := errgroup.WithContext(ctx)
	work := make(chan string)
	eg.Go(func() error {
		for {
			select {
			case <-ctx.Done():
				return nil
			case path := <-work:
				if _, err := f.Process(path); err != nil {
					return err
				}
			}
		}
	})
	eg.Go(func() error {
		entries, err := os.ReadDir(f.cfg.Dir)
		if err != nil {
			return err
		}
		for _, entry := range entries {
			path := filepath.Join(f.cfg.Dir, entry.Name())
			if entry.IsDir() || !f.Eligible(path) {
				continue
			}
			select {
			case <-ctx.Done():
				return nil
			case work <- path:
			}
		}
		f.log.Info().Msg("watching for artwork")

		for {
			select {
			case <-ctx.Done():
				return nil

			case event, ok := <-watcher.Events:
				if !ok {
					return nil
				}
				if !f.Eligible(event.Name) {
					continue
				}
				switch {
				case event.Op&(fsnotify.Create|fsnotify.Write) != 0:
					f.debounce(ctx, event.Name, work)
				case event.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
					f.cancel(event.Name)
				}

			case err, ok := <-watcher.Errors:
				if !ok {
					return nil
				}
				f.log.Warn().Err(err).Msg("watcher error")
			}
		}
	})
	return eg.Wait()
}

// debounce queues path once it was not modified for the debounce period.
func (f *Folder) debounce(ctx context.Context, path string, work chan<- string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if t, ok := f.timers[path]; ok {
		t.Stop()
	}
	var t *time.Timer
	t = time.AfterFunc(f.cfg.Debounce, func() {
		if !f.fired(path, t) {
			return
		}
		select {
		case <-ctx.Done():
		case work <- path:
		}
	})
	f.timers[path] = t
}

// fired removes t from the pending timers and reports whether it was still
// the timer for path. A timer whose callback already started when a later
// event replaced it must not queue path a second time.
func (f *Folder) fired(path string, t *time.Timer) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.timers[path] != t {
		return false
	}
	delete(f.timers, path)
	return true
}

func (f *Folder) cancel(path string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if t, ok := f.timers[path]; ok {
		t.Stop()
		delete(f.timers, path)
	}
}

func (f *Folder) stopTimers() {
	f.mu.Lock()
	defer f.mu.Unlock()
	for path, t := range f.timers {
		t.Stop()
		delete(f.timers, path)
	}
}
