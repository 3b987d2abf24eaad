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

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"toyquery/internal/errors"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Port != 8888 {
		t.Errorf("Expected default port 8888, got %d", cfg.Port)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("Expected default log_level 'info', got '%s'", cfg.LogLevel)
	}
	if cfg.LockTimeoutDuration() != 10*time.Second {
		t.Errorf("Expected default lock timeout 10s, got %s", cfg.LockTimeoutDuration())
	}
	if cfg.Storage.Encoding != "utf8" || cfg.Storage.Collation != "binary" {
		t.Errorf("unexpected storage defaults %+v", cfg.Storage)
	}
	if cfg.AuthEnabled() {
		t.Error("auth must be disabled by default")
	}
	if cfg.Backup.Schedule != "0 0 * * * *" || cfg.Backup.Keep != 5 {
		t.Errorf("unexpected backup defaults %+v", cfg.Backup)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should be valid: %v", err)
	}
}

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"port zero", func(c *Config) { c.Port = 0 }, "invalid port: 0"},
		{"port too high", func(c *Config) { c.Port = 70000 }, "invalid port: 70000"},
		{"empty data dir", func(c *Config) { c.DataDir = "" }, "data_dir cannot be empty"},
		{"log level", func(c *Config) { c.LogLevel = "loud" }, "invalid log_level: loud"},
		{"lock timeout", func(c *Config) { c.LockTimeout = "soon" }, "invalid lock_timeout"},
		{"negative lock timeout", func(c *Config) { c.LockTimeout = "-1s" }, "invalid lock_timeout"},
		{"encoding", func(c *Config) { c.Storage.Encoding = "ebcdic" }, "invalid storage.encoding"},
		{"collation", func(c *Config) { c.Storage.Collation = "random" }, "invalid storage.collation"},
		{"unicode collation", func(c *Config) { c.Storage.Collation = "unicode"; c.Storage.Locale = "de" }, ""},
		{"http without addr", func(c *Config) { c.HTTP.Enabled = true; c.HTTP.Addr = "" }, "http.addr"},
		{"backup schedule", func(c *Config) { c.Backup.Enabled = true; c.Backup.Schedule = "every hour" }, "invalid backup.schedule"},
		{"backup descriptor", func(c *Config) { c.Backup.Enabled = true; c.Backup.Schedule = "@daily" }, ""},
		{"backup keep", func(c *Config) { c.Backup.Enabled = true; c.Backup.Keep = 0 }, "invalid backup.keep"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.DataDir = t.TempDir()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error containing %q, got %v", tt.wantErr, err)
			}
			if errors.CodeOf(err) != errors.ErrCodeConfig {
				t.Errorf("expected a config error code, got %v", errors.CodeOf(err))
			}
		})
	}
}

func TestValidationCollectsEveryProblem(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Port = 0
	cfg.LogLevel = "loud"
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected an error")
	}
	if !strings.Contains(err.Error(), "invalid port") || !strings.Contains(err.Error(), "invalid log_level") {
		t.Errorf("both problems should be reported: %v", err)
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "toyquery.yaml")
	content := `
port: 9000
data_dir: /srv/toyquery
log_level: debug
lock_timeout: 2s
storage:
  collation: nocase
http:
  enabled: true
  cors_origins:
    - https://a.example
    - https://b.example
backup:
  enabled: true
  keep: 3
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	m := NewManager()
	if err := m.LoadFromFile(path); err != nil {
		t.Fatalf("LoadFromFile failed: %v", err)
	}
	cfg := m.Get()

	if cfg.Port != 9000 {
		t.Errorf("Expected port 9000, got %d", cfg.Port)
	}
	if cfg.DataDir != "/srv/toyquery" {
		t.Errorf("Expected data dir /srv/toyquery, got %s", cfg.DataDir)
	}
	if cfg.LockTimeoutDuration() != 2*time.Second {
		t.Errorf("Expected 2s, got %s", cfg.LockTimeoutDuration())
	}
	if cfg.Storage.Collation != "nocase" || cfg.Storage.Encoding != "utf8" {
		t.Errorf("unset keys must keep their defaults: %+v", cfg.Storage)
	}
	if len(cfg.HTTP.CORSOrigins) != 2 || cfg.HTTP.Addr != ":8080" {
		t.Errorf("unexpected http config %+v", cfg.HTTP)
	}
	if !cfg.Backup.Enabled || cfg.Backup.Keep != 3 || cfg.Backup.Schedule != "0 0 * * * *" {
		t.Errorf("unexpected backup config %+v", cfg.Backup)
	}
	if cfg.ConfigFile != path {
		t.Errorf("Expected config file %s, got %s", path, cfg.ConfigFile)
	}
}

func TestLoadFromFileRejectsUnknownKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "toyquery.yaml")
	if err := os.WriteFile(path, []byte("prot: 9000\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := NewManager().LoadFromFile(path); err == nil {
		t.Error("expected an error for an unknown key")
	}
}

func TestParseEmptyDocument(t *testing.T) {
	cfg, err := Parse(nil)
	if err != nil {
		t.Fatalf("empty document should parse: %v", err)
	}
	if cfg.Port != 8888 {
		t.Errorf("expected defaults, got port %d", cfg.Port)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv(EnvPort, "7777")
	t.Setenv(EnvLogJSON, "true")
	t.Setenv(EnvCollation, "unicode")
	t.Setenv(EnvLocale, "sv")
	t.Setenv(EnvHTTPEnabled, "1")
	t.Setenv(EnvBackupDir, "/tmp/snapshots")
	t.Setenv(EnvPasswordHash, "$2a$10$abc")

	m := NewManager()
	m.LoadFromEnv()
	cfg := m.Get()

	if cfg.Port != 7777 {
		t.Errorf("Expected port 7777, got %d", cfg.Port)
	}
	if !cfg.LogJSON || !cfg.HTTP.Enabled {
		t.Errorf("boolean env vars not applied: %+v", cfg)
	}
	if cfg.Storage.Collation != "unicode" || cfg.Storage.Locale != "sv" {
		t.Errorf("unexpected storage %+v", cfg.Storage)
	}
	if cfg.BackupDir() != "/tmp/snapshots" {
		t.Errorf("Expected backup dir /tmp/snapshots, got %s", cfg.BackupDir())
	}
	if !cfg.AuthEnabled() {
		t.Error("password hash from env should enable auth")
	}
}

func TestConfigPrecedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "toyquery.yaml")
	if err := os.WriteFile(path, []byte("port: 9000\nlog_level: warn\n"), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv(EnvConfigFile, path)
	t.Setenv(EnvPort, "9100")

	m := NewManager()
	if err := m.Load(); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	cfg := m.Get()
	if cfg.Port != 9100 {
		t.Errorf("env should override file, got port %d", cfg.Port)
	}
	if cfg.LogLevel != "warn" {
		t.Errorf("file should override defaults, got %s", cfg.LogLevel)
	}
}

func TestSaveToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "toyquery.yaml")

	cfg := DefaultConfig()
	cfg.Port = 9999
	cfg.HTTP.CORSOrigins = []string{"https://x.example"}
	if err := cfg.SaveToFile(path); err != nil {
		t.Fatalf("SaveToFile failed: %v", err)
	}

	m := NewManager()
	if err := m.LoadFromFile(path); err != nil {
		t.Fatalf("LoadFromFile failed: %v", err)
	}
	loaded := m.Get()
	if loaded.Port != 9999 || loaded.HTTP.CORSOrigins[0] != "https://x.example" {
		t.Errorf("saved config not restored: %+v", loaded)
	}
}

func TestReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "toyquery.yaml")
	if err := os.WriteFile(path, []byte("port: 9000\n"), 0644); err != nil {
		t.Fatal(err)
	}

	m := NewManager()
	if err := m.LoadFromFile(path); err != nil {
		t.Fatal(err)
	}

	var reloaded *Config
	m.OnReload(func(cfg *Config) { reloaded = cfg })

	if err := os.WriteFile(path, []byte("port: 9001\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := m.Reload(); err != nil {
		t.Fatalf("Reload failed: %v", err)
	}
	if reloaded == nil || reloaded.Port != 9001 {
		t.Errorf("reload callback did not see the new port: %+v", reloaded)
	}
}

func TestGetReturnsCopy(t *testing.T) {
	m := NewManager()
	cfg := m.Get()
	cfg.Port = 1
	cfg.HTTP.CORSOrigins[0] = "mutated"

	again := m.Get()
	if again.Port == 1 || again.HTTP.CORSOrigins[0] == "mutated" {
		t.Error("Get must return an independent copy")
	}
}

func TestBackupDirDefault(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DataDir = "/var/lib/toyquery"
	if got := cfg.BackupDir(); got != "/var/lib/toyquery-backups" {
		t.Errorf("Expected /var/lib/toyquery-backups, got %s", got)
	}
}

func TestConfigString(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Auth.PasswordHash = "$2a$10$secret"
	s := cfg.String()
	if !strings.Contains(s, "Port:         8888") {
		t.Errorf("missing port in %q", s)
	}
	if strings.Contains(s, "secret") {
		t.Error("String must not print the password hash")
	}
}
