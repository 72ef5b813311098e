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

package hotfolder_test

import (
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gofrs/flock"
	"github.com/stapelberg/spotgen"
	"github.com/stapelberg/spotgen/internal/hotfolder"
	"github.com/stapelberg/spotgen/internal/jobqueue"
	"github.com/stapelberg/spotgen/internal/pipeline"
)

var defaultConfig = spotgen.Config{
	MarginPixels: 1,
	MarginMode:   spotgen.DistanceBlur,
	SmartSpot:    spotgen.SmartSpot{CopyWhite: true},
	PreviewColor: spotgen.Pink,
}

// writeArtwork atomically places a small transparent PNG with an opaque
// square at path.
func writeArtwork(t *testing.T, path string) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 12, 12))
	for y := 3; y < 9; y++ {
		for x := 3; x < 9; x++ {
			img.SetNRGBA(x, y, color.NRGBA{10, 120, 200, 255})
		}
	}
	tmp := filepath.Join(filepath.Dir(path), "."+filepath.Base(path)+".tmp")
	f, err := os.Create(tmp)
	if err != nil {
		t.Fatal(err)
	}
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}
	if err := os.Rename(tmp, path); err != nil {
		t.Fatal(err)
	}
}

func newFolder(t *testing.T, dir string) *hotfolder.Folder {
	t.Helper()
	f, err := hotfolder.New(hotfolder.Config{
		Dir:    dir,
		Config: defaultConfig,
		Options: pipeline.Options{
			ICCPath:     filepath.Join(dir, "absent.icc"),
			PreviewPath: filepath.Join(dir, "preview.png"),
		},
		Debounce:    50 * time.Millisecond,
		PreviewLock: flock.New(filepath.Join(dir, ".preview.lock")),
	})
	if err != nil {
		t.Fatal(err)
	}
	return f
}

func TestEligible(t *testing.T) {
	dir := t.TempDir()
	f := newFolder(t, dir)
	for _, test := range []struct {
		name string
		want bool
	}{
		{"shirt.png", true},
		{"shirt.TIF", true},
		{"shirt.tiff", true},
		{"shirt_spot.tif", false},
		{"shirt_SPOT.TIF", false},
		{"shirt.jpg", false},
		{".shirt.png", false},
		{"preview.png", false},
	} {
		if got := f.Eligible(filepath.Join(dir, test.name)); got != test.want {
			t.Errorf("Eligible(%q) = %v, want %v", test.name, got, test.want)
		}
	}
}

func TestProcess(t *testing.T) {
	dir := t.TempDir()
	f := newFolder(t, dir)
	input := filepath.Join(dir, "shirt.png")
	writeArtwork(t, input)

	job, err := f.Process(input)
	if err != nil {
		t.Fatal(err)
	}
	if job == nil {
		t.Fatalf("Process() skipped a new file")
	}
	if got, want := job.State(), jobqueue.Done; got != want {
		t.Fatalf("job state = %v, want %v", got, want)
	}
	if want := filepath.Join(dir, "shirt_spot.tif"); job.OutputPath != want {
		t.Errorf("job output = %q, want %q", job.OutputPath, want)
	}

	// The same version of the file is not processed twice, not even by a
	// restarted watcher.
	if job, err := newFolder(t, dir).Process(input); err != nil || job != nil {
		t.Fatalf("second Process() = %v, %v, want nil, nil", job, err)
	}

	// Modifying the file makes it eligible again.
	later := time.Now().Add(time.Minute)
	if err := os.Chtimes(input, later, later); err != nil {
		t.Fatal(err)
	}
	if job, err := f.Process(input); err != nil || job == nil {
		t.Fatalf("Process(modified) = %v, %v, want a job", job, err)
	}
}

func TestProcessRecordsFailure(t *testing.T) {
	dir := t.TempDir()
	f := newFolder(t, dir)
	input := filepath.Join(dir, "broken.tif")
	if err := os.WriteFile(input, []byte("not a tiff"), 0644); err != nil {
		t.Fatal(err)
	}
	job, err := f.Process(input)
	if err != nil {
		t.Fatal(err)
	}
	if got, want := job.State(), jobqueue.Failed; got != want {
		t.Fatalf("job state = %v, want %v", got, want)
	}
	if !strings.Contains(job.Error, spotgen.ErrUnsupportedFormat.Error()) {
		t.Errorf("job error = %q, want it to mention %q", job.Error, spotgen.ErrUnsupportedFormat)
	}
	if _, err := os.Stat(filepath.Join(dir, "broken_spot.tif")); !os.IsNotExist(err) {
		t.Errorf("artifact exists after failed job (Stat: %v)", err)
	}
}

func TestRun(t *testing.T) {
	dir := t.TempDir()
	existing := filepath.Join(dir, "existing.png")
	writeArtwork(t, existing)

	f := newFolder(t, dir)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	errc := make(chan error, 1)
	go func() { errc <- f.Run(ctx) }()

	waitFor := func(path string) {
		t.Helper()
		deadline := time.Now().Add(10 * time.Second)
		for time.Now().Before(deadline) {
			if _, err := os.Stat(path); err == nil {
				return
			}
			time.Sleep(20 * time.Millisecond)
		}
		t.Fatalf("%s was not created", path)
	}
	waitFor(filepath.Join(dir, "existing_spot.tif"))

	writeArtwork(t, filepath.Join(dir, "dropped.png"))
	waitFor(filepath.Join(dir, "dropped_spot.tif"))

	cancel()
	if err := <-errc; err != nil {
		t.Fatalf("Run() = %v", err)
	}

	jobs, err := f.Queue().Jobs()
	if err != nil {
		t.Fatal(err)
	}
	done := 0
	for _, job := range jobs {
		if job.State() == jobqueue.Done {
			done++
		}
	}
	if done != 2 {
		t.Errorf("%d jobs done, want 2 (jobs: %v)", done, jobs)
	}
}
