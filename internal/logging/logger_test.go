/*
 * Copyright (c) 2026 Firefly Software Solutions Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"strings"
	"testing"

	"github.com/google/uuid"
)

func captureOutput(t *testing.T, jsonMode bool, level Level) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	SetGlobalOutput(&buf)
	SetJSONMode(jsonMode)
	SetGlobalLevel(level)
	t.Cleanup(func() {
		SetGlobalOutput(os.Stdout)
		SetJSONMode(false)
		SetGlobalLevel(INFO)
	})
	return &buf
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
	}{
		{"debug", DEBUG},
		{"INFO", INFO},
		{"warning", WARN},
		{" Error ", ERROR},
		{"verbose", INFO},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := ParseLevel(tt.in); got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
	if ValidLevel("verbose") {
		t.Error("verbose should not be a valid level")
	}
}

func TestTextOutputSortedFields(t *testing.T) {
	buf := captureOutput(t, false, DEBUG)

	NewLogger("storage").Info("Table saved", "table", "marks", "database", "school")

	line := buf.String()
	if !strings.Contains(line, "[INFO ] [storage] Table saved database=school table=marks") {
		t.Errorf("unexpected line: %q", line)
	}
	if strings.Contains(line, "\033[") {
		t.Error("colour codes written to a non-terminal")
	}
}

func TestLevelFiltering(t *testing.T) {
	buf := captureOutput(t, false, WARN)

	log := NewLogger("test")
	log.Debug("hidden")
	log.Info("hidden")
	log.Warn("shown")

	if got := strings.Count(buf.String(), "\n"); got != 1 {
		t.Fatalf("expected 1 line, got %d: %q", got, buf.String())
	}
}

func TestJSONOutput(t *testing.T) {
	buf := captureOutput(t, true, INFO)

	NewLogger("server").With("client", "127.0.0.1:5000").Error("Write failed", "error", os.ErrClosed)

	var entry Entry
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("invalid JSON %q: %v", buf.String(), err)
	}
	if entry.Component != "server" || entry.Level != "ERROR" {
		t.Errorf("unexpected entry: %+v", entry)
	}
	if entry.Fields["client"] != "127.0.0.1:5000" {
		t.Errorf("context field missing: %+v", entry.Fields)
	}
	if entry.Fields["error"] != os.ErrClosed.Error() {
		t.Errorf("error field not rendered as text: %+v", entry.Fields)
	}
}

func TestRequestContext(t *testing.T) {
	buf := captureOutput(t, false, DEBUG)

	rc := NewRequestContext("10.0.0.1:1234", "SELECT")
	if _, err := uuid.Parse(rc.ID); err != nil {
		t.Fatalf("request id %q is not a UUID: %v", rc.ID, err)
	}

	log := NewLogger("server")
	rc.LogComplete(log)
	rc.LogError(log, "Database not specified.")

	out := buf.String()
	if !strings.Contains(out, "request_id="+rc.ID) {
		t.Errorf("request id not logged: %q", out)
	}
	if !strings.Contains(out, "status=error") || !strings.Contains(out, "status=ok") {
		t.Errorf("statuses not logged: %q", out)
	}
}
