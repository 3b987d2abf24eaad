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

package health

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestRunChecksAggregatesStatus(t *testing.T) {
	tests := []struct {
		name     string
		checks   map[string]Check
		expected Status
	}{
		{"no checks", nil, StatusHealthy},
		{"all healthy", map[string]Check{
			"a": StorageCheck(func() error { return nil }),
		}, StatusHealthy},
		{"degraded", map[string]Check{
			"a": StorageCheck(func() error { return nil }),
			"b": BackupCheck(func() error { return errors.New("disk full") }),
		}, StatusDegraded},
		{"unhealthy wins", map[string]Check{
			"a": StorageCheck(func() error { return errors.New("gone") }),
			"b": BackupCheck(func() error { return errors.New("disk full") }),
		}, StatusUnhealthy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewChecker("test")
			for name, check := range tt.checks {
				c.RegisterCheck(name, check)
			}
			resp := c.RunChecks()
			if resp.Status != tt.expected {
				t.Errorf("Expected %s, got %s", tt.expected, resp.Status)
			}
			if len(resp.Checks) != len(tt.checks) {
				t.Errorf("Expected %d results, got %d", len(tt.checks), len(resp.Checks))
			}
		})
	}
}

func TestRunChecksOrder(t *testing.T) {
	c := NewChecker("test")
	c.RegisterCheck("zeta", StorageCheck(func() error { return nil }))
	c.RegisterCheck("alpha", StorageCheck(func() error { return nil }))
	resp := c.RunChecks()
	if resp.Checks[0].Name != "alpha" || resp.Checks[1].Name != "zeta" {
		t.Errorf("checks should be sorted by name: %+v", resp.Checks)
	}
}

func TestDataDirCheck(t *testing.T) {
	dir := t.TempDir()
	if r := DataDirCheck(dir)(); r.Status != StatusHealthy {
		t.Errorf("writable dir reported %s: %s", r.Status, r.Message)
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Errorf("probe file left behind: %v", entries)
	}

	if r := DataDirCheck(filepath.Join(dir, "missing"))(); r.Status != StatusUnhealthy {
		t.Errorf("missing dir reported %s", r.Status)
	}

	file := filepath.Join(dir, "file")
	if err := os.WriteFile(file, nil, 0644); err != nil {
		t.Fatal(err)
	}
	if r := DataDirCheck(file)(); r.Status != StatusUnhealthy {
		t.Errorf("regular file reported %s", r.Status)
	}
}

func TestLiveness(t *testing.T) {
	c := NewChecker("1.2.3")
	c.RegisterCheck("broken", StorageCheck(func() error { return errors.New("x") }))
	resp := c.Liveness()
	if resp.Status != StatusHealthy || resp.Version != "1.2.3" || len(resp.Checks) != 0 {
		t.Errorf("unexpected liveness %+v", resp)
	}
	if c.IsHealthy() {
		t.Error("IsHealthy should run checks")
	}
}
