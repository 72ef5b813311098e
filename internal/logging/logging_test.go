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

package logging_test

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stapelberg/spotgen/internal/logging"
)

func TestNew(t *testing.T) {
	for _, test := range []struct {
		verbose   bool
		wantLines int
	}{
		{verbose: false, wantLines: 1},
		{verbose: true, wantLines: 2},
	} {
		var buf bytes.Buffer
		log := logging.New(&buf, test.verbose)
		log.Debug().Msg("mask computed")
		log.Info().Str("output", "shirt_spot.tif").Msg("written")

		lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
		if got := len(lines); got != test.wantLines {
			t.Fatalf("verbose=%v: got %d lines, want %d:\n%s", test.verbose, got, test.wantLines, buf.String())
		}
		var entry struct {
			Level   string `json:"level"`
			Output  string `json:"output"`
			Message string `json:"message"`
			Time    string `json:"time"`
		}
		if err := json.Unmarshal([]byte(lines[len(lines)-1]), &entry); err != nil {
			t.Fatalf("non-terminal output is not JSON: %v", err)
		}
		if entry.Level != "info" || entry.Output != "shirt_spot.tif" || entry.Message != "written" || entry.Time == "" {
			t.Errorf("unexpected entry: %+v", entry)
		}
	}
}

func TestIsTerminal(t *testing.T) {
	if logging.IsTerminal(&bytes.Buffer{}) {
		t.Errorf("IsTerminal(bytes.Buffer) = true, want false")
	}
}
