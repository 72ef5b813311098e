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

// Package jobqueue implements a reliable job queue that is persisted to the
// file system. Every generation job of a hot folder gets its own directory,
// so that a restarted watcher knows which inputs it already processed.
package jobqueue

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/renameio"
	"github.com/google/uuid"
)

// DirName is the name of the queue directory inside a hot folder.
const DirName = ".spotgen"

type Queue struct {
	Dir string
}

type State int

func (s State) String() string {
	switch s {
	case Canceled:
		return "Canceled"
	case InProgress:
		return "InProgress"
	case Done:
		return "Done"
	case Failed:
		return "Failed"
	default:
		return "<unknown>"
	}
}

const (
	Canceled State = iota
	InProgress
	Done
	Failed
)

const (
	jobFile      = "job.json"
	doneMarker   = "COMPLETE.generate"
	failedMarker = "FAILED"
)

// Input identifies one version of an input file.
type Input struct {
	Path    string    `json:"path"`
	Size    int64     `json:"size"`
	ModTime time.Time `json:"mod_time"`
}

// InputOf returns the Input for the file described by fi at path.
func InputOf(path string, fi os.FileInfo) Input {
	return Input{
		Path:    path,
		Size:    fi.Size(),
		ModTime: fi.ModTime().UTC(),
	}
}

// Same reports whether i and o describe the same version of a file.
func (i Input) Same(o Input) bool {
	return i.Path == o.Path && i.Size == o.Size && i.ModTime.Equal(o.ModTime)
}

type Job struct {
	id      string
	dir     string
	state   State
	Input   Input     `json:"input"`
	Created time.Time `json:"created"`

	// OutputPath is set once the job is Done.
	OutputPath string `json:"-"`

	// Error is set once the job Failed.
	Error string `json:"-"`
}

// AddJob persists a new InProgress job for input.
func (q *Queue) AddJob(input Input) (*Job, error) {
	id := uuid.New().String()
	dir := filepath.Join(q.Dir, id)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	job := &Job{
		id:      id,
		dir:     dir,
		Input:   input,
		Created: time.Now().UTC(),
	}
	if err := job.commit(); err != nil {
		return nil, err
	}
	return job, nil
}

// Jobs returns all jobs of the queue, oldest first. A missing queue
// directory is an empty queue.
func (q *Queue) Jobs() ([]*Job, error) {
	entries, err := os.ReadDir(q.Dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	var jobs []*Job
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		job, err := q.JobById(entry.Name())
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	sort.Slice(jobs, func(i, j int) bool { return jobs[i].Created.Before(jobs[j].Created) })
	return jobs, nil
}

func (q *Queue) JobById(id string) (*Job, error) {
	dir := filepath.Join(q.Dir, id)
	job := &Job{
		id:  id,
		dir: dir,
	}
	if err := job.readStateFromDir(); err != nil {
		return nil, err
	}
	return job, nil
}

// Processed reports whether a job for this version of the input has
// finished, successfully or not. Jobs which were interrupted while in
// progress do not count, so their input is picked up again.
func (q *Queue) Processed(input Input) (bool, error) {
	jobs, err := q.Jobs()
	if err != nil {
		return false, err
	}
	for _, job := range jobs {
		if job.state != Done && job.state != Failed {
			continue
		}
		if job.Input.Same(input) {
			return true, nil
		}
	}
	return false, nil
}

func (j *Job) readStateFromDir() error {
	entries, err := os.ReadDir(j.dir)
	if err != nil {
		return err
	}
	j.state = Canceled // zero value
	for _, entry := range entries {
		switch entry.Name() {
		case jobFile:
			b, err := os.ReadFile(filepath.Join(j.dir, jobFile))
			if err != nil {
				return err
			}
			if err := json.Unmarshal(b, j); err != nil {
				return fmt.Errorf("job %s: %v", j.id, err)
			}
			if j.state == Canceled {
				j.state = InProgress
			}
		case doneMarker:
			content, err := os.ReadFile(filepath.Join(j.dir, doneMarker))
			if err != nil {
				return err
			}
			j.OutputPath = string(content)
			j.state = Done
		case failedMarker:
			content, err := os.ReadFile(filepath.Join(j.dir, failedMarker))
			if err != nil {
				return err
			}
			j.Error = string(content)
			j.state = Failed
		}
	}
	return nil
}

func (j *Job) Id() string {
	return j.id
}

func (j *Job) State() State {
	return j.state
}

// MarkDone records that the job wrote outputPath.
func (j *Job) MarkDone(outputPath string) error {
	if err := os.WriteFile(filepath.Join(j.dir, doneMarker), []byte(outputPath), 0600); err != nil {
		return err
	}
	return j.readStateFromDir()
}

// MarkFailed records that the job failed with err.
func (j *Job) MarkFailed(err error) error {
	if err := os.WriteFile(filepath.Join(j.dir, failedMarker), []byte(err.Error()), 0600); err != nil {
		return err
	}
	return j.readStateFromDir()
}

func (j *Job) commit() error {
	b, err := json.MarshalIndent(j, "", "  ")
	if err != nil {
		return err
	}
	if err := renameio.WriteFile(filepath.Join(j.dir, jobFile), b, 0600); err != nil {
		return err
	}
	j.state = InProgress
	return nil
}
