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

/*
Package config provides configuration management for ToyQuery.

The configuration system supports multiple sources with clear precedence:
 1. Command-line flags (highest priority)
 2. Environment variables
 3. Configuration file
 4. Default values (lowest priority)

Configuration File Format:
The configuration file is YAML.

Example configuration file:

	port: 8888
	data_dir: /var/lib/toyquery
	log_level: info
	log_json: false
	lock_timeout: 10s
	storage:
	  encoding: utf8
	  collation: unicode
	  locale: de
	auth:
	  password_hash: "$2a$10$..."
	http:
	  enabled: true
	  addr: ":8080"
	  cors_origins: ["https://admin.example.com"]
	discovery:
	  enabled: true
	backup:
	  enabled: true
	  schedule: "0 0 * * * *"
	  keep: 5

Environment Variables:
  - TOYQUERY_PORT: Server port for the line protocol
  - TOYQUERY_DATA_DIR: Root directory holding one directory per database
  - TOYQUERY_LOG_LEVEL: Log level (debug, info, warn, error)
  - TOYQUERY_LOG_JSON: Enable JSON logging (true/false)
  - TOYQUERY_LOCK_TIMEOUT: Maximum wait for a database lock (e.g. 10s)
  - TOYQUERY_ENCODING: Table file encoding (utf8, latin1, ascii)
  - TOYQUERY_COLLATION: String comparison (binary, nocase, unicode)
  - TOYQUERY_LOCALE: Locale of the unicode collation
  - TOYQUERY_PASSWORD_HASH: bcrypt hash of the server password
  - TOYQUERY_HTTP_ENABLED, TOYQUERY_HTTP_ADDR: HTTP gateway
  - TOYQUERY_DISCOVERY: Advertise the server over mDNS
  - TOYQUERY_BACKUP_ENABLED, TOYQUERY_BACKUP_SCHEDULE, TOYQUERY_BACKUP_DIR: Snapshots
  - TOYQUERY_CONFIG: Path to configuration file
*/
package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"toyquery/internal/errors"
	"toyquery/internal/logging"
	"toyquery/internal/storage"
)

// Environment variable names for configuration.
const (
	EnvPort           = "TOYQUERY_PORT"
	EnvDataDir        = "TOYQUERY_DATA_DIR"
	EnvLogLevel       = "TOYQUERY_LOG_LEVEL"
	EnvLogJSON        = "TOYQUERY_LOG_JSON"
	EnvLockTimeout    = "TOYQUERY_LOCK_TIMEOUT"
	EnvEncoding       = "TOYQUERY_ENCODING"
	EnvCollation      = "TOYQUERY_COLLATION"
	EnvLocale         = "TOYQUERY_LOCALE"
	EnvPasswordHash   = "TOYQUERY_PASSWORD_HASH"
	EnvHTTPEnabled    = "TOYQUERY_HTTP_ENABLED"
	EnvHTTPAddr       = "TOYQUERY_HTTP_ADDR"
	EnvDiscovery      = "TOYQUERY_DISCOVERY"
	EnvBackupEnabled  = "TOYQUERY_BACKUP_ENABLED"
	EnvBackupSchedule = "TOYQUERY_BACKUP_SCHEDULE"
	EnvBackupDir      = "TOYQUERY_BACKUP_DIR"
	EnvConfigFile     = "TOYQUERY_CONFIG"
)

// GetDefaultDataDir returns the default directory for database storage.
// For root users, it uses /var/lib/toyquery (Filesystem Hierarchy Standard).
// For non-root users, it uses ~/.local/share/toyquery (XDG Base Directory).
func GetDefaultDataDir() string {
	if os.Getuid() == 0 {
		return "/var/lib/toyquery"
	}
	if xdgData := os.Getenv("XDG_DATA_HOME"); xdgData != "" {
		return filepath.Join(xdgData, "toyquery")
	}
	if home := os.Getenv("HOME"); home != "" {
		return filepath.Join(home, ".local", "share", "toyquery")
	}
	return "./data"
}

// Default configuration file paths (searched in order).
var DefaultConfigPaths = []string{
	"/etc/toyquery/toyquery.yaml",
	"$HOME/.config/toyquery/toyquery.yaml",
	"./toyquery.yaml",
}

// StorageConfig selects how table files are encoded and how strings compare.
type StorageConfig struct {
	Encoding  string `yaml:"encoding" json:"encoding"`
	Collation string `yaml:"collation" json:"collation"`
	Locale    string `yaml:"locale" json:"locale"`
}

// AuthConfig holds the optional server password. An empty hash disables
// authentication.
type AuthConfig struct {
	PasswordHash string `yaml:"password_hash" json:"-"`
}

// HTTPConfig configures the JSON gateway.
type HTTPConfig struct {
	Enabled     bool     `yaml:"enabled" json:"enabled"`
	Addr        string   `yaml:"addr" json:"addr"`
	CORSOrigins []string `yaml:"cors_origins" json:"cors_origins"`
}

// DiscoveryConfig configures mDNS advertisement.
type DiscoveryConfig struct {
	Enabled  bool   `yaml:"enabled" json:"enabled"`
	Instance string `yaml:"instance" json:"instance"`
}

// BackupConfig configures scheduled snapshots of the data directory.
type BackupConfig struct {
	Enabled  bool   `yaml:"enabled" json:"enabled"`
	Schedule string `yaml:"schedule" json:"schedule"`
	Dir      string `yaml:"dir" json:"dir"`
	Keep     int    `yaml:"keep" json:"keep"`
}

// Config holds all configuration values for ToyQuery.
type Config struct {
	Port        int    `yaml:"port" json:"port"`
	DataDir     string `yaml:"data_dir" json:"data_dir"`
	LogLevel    string `yaml:"log_level" json:"log_level"`
	LogJSON     bool   `yaml:"log_json" json:"log_json"`
	LockTimeout string `yaml:"lock_timeout" json:"lock_timeout"`

	Storage   StorageConfig   `yaml:"storage" json:"storage"`
	Auth      AuthConfig      `yaml:"auth" json:"-"`
	HTTP      HTTPConfig      `yaml:"http" json:"http"`
	Discovery DiscoveryConfig `yaml:"discovery" json:"discovery"`
	Backup    BackupConfig    `yaml:"backup" json:"backup"`

	// Path to the loaded config file.
	ConfigFile string `yaml:"-" json:"-"`
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Port:        8888,
		DataDir:     GetDefaultDataDir(),
		LogLevel:    "info",
		LogJSON:     false,
		LockTimeout: "10s",
		Storage: StorageConfig{
			Encoding:  "utf8",
			Collation: "binary",
			Locale:    "en",
		},
		HTTP: HTTPConfig{
			Addr:        ":8080",
			CORSOrigins: []string{"*"},
		},
		Backup: BackupConfig{
			Schedule: "0 0 * * * *",
			Keep:     5,
		},
	}
}

// clone returns a deep copy of c.
func (c *Config) clone() *Config {
	cfg := *c
	cfg.HTTP.CORSOrigins = append([]string(nil), c.HTTP.CORSOrigins...)
	return &cfg
}

// LockTimeoutDuration returns lock_timeout parsed, or zero if it is invalid.
func (c *Config) LockTimeoutDuration() time.Duration {
	d, err := time.ParseDuration(c.LockTimeout)
	if err != nil {
		return 0
	}
	return d
}

// BackupDir returns backup.dir, defaulting to a sibling of the data directory.
func (c *Config) BackupDir() string {
	if c.Backup.Dir != "" {
		return c.Backup.Dir
	}
	return filepath.Join(filepath.Dir(filepath.Clean(c.DataDir)), "toyquery-backups")
}

// DiscoveryInstance returns discovery.instance, defaulting to the hostname.
func (c *Config) DiscoveryInstance() string {
	if c.Discovery.Instance != "" {
		return c.Discovery.Instance
	}
	host, err := os.Hostname()
	if err != nil {
		return "toyquery"
	}
	return host
}

// AuthEnabled reports whether a password hash is configured.
func (c *Config) AuthEnabled() bool {
	return c.Auth.PasswordHash != ""
}

// Manager handles configuration loading, validation, and access.
type Manager struct {
	config *Config
	mu     sync.RWMutex

	// Callbacks for configuration changes (for hot-reload support)
	onReload []func(*Config)
}

// NewManager creates a new configuration manager with default values.
func NewManager() *Manager {
	return &Manager{
		config:   DefaultConfig(),
		onReload: make([]func(*Config), 0),
	}
}

// Global manager instance for convenience.
var globalManager = NewManager()

// Global returns the global configuration manager.
func Global() *Manager {
	return globalManager
}

// Get returns a copy of the current configuration.
func (m *Manager) Get() *Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.config.clone()
}

// Set updates the configuration.
func (m *Manager) Set(cfg *Config) {
	m.mu.Lock()
	m.config = cfg
	m.mu.Unlock()
}

// OnReload registers a callback to be called when configuration is reloaded.
func (m *Manager) OnReload(fn func(*Config)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onReload = append(m.onReload, fn)
}

func (m *Manager) notifyReload() {
	m.mu.RLock()
	callbacks := make([]func(*Config), len(m.onReload))
	copy(callbacks, m.onReload)
	cfg := m.config.clone()
	m.mu.RUnlock()

	for _, fn := range callbacks {
		fn(cfg)
	}
}

// Validate checks the configuration and reports every problem at once.
func (c *Config) Validate() error {
	var errs []string

	if c.Port < 1 || c.Port > 65535 {
		errs = append(errs, fmt.Sprintf("invalid port: %d (must be 1-65535)", c.Port))
	}
	if c.DataDir == "" {
		errs = append(errs, "data_dir cannot be empty")
	}
	if !logging.ValidLevel(c.LogLevel) {
		errs = append(errs, fmt.Sprintf("invalid log_level: %s (must be debug, info, warn, or error)", c.LogLevel))
	}
	if d, err := time.ParseDuration(c.LockTimeout); err != nil || d <= 0 {
		errs = append(errs, fmt.Sprintf("invalid lock_timeout: %q (must be a positive duration such as 10s)", c.LockTimeout))
	}
	if _, err := storage.ParseEncoding(c.Storage.Encoding); err != nil {
		errs = append(errs, fmt.Sprintf("invalid storage.encoding: %s (must be utf8, latin1, or ascii)", c.Storage.Encoding))
	}
	if _, err := storage.ParseCollation(c.Storage.Collation, c.Storage.Locale); err != nil {
		errs = append(errs, fmt.Sprintf("invalid storage.collation: %s", err))
	}
	if c.HTTP.Enabled {
		if c.HTTP.Addr == "" {
			errs = append(errs, "http.addr cannot be empty when http is enabled")
		}
		if len(c.HTTP.CORSOrigins) == 0 {
			errs = append(errs, "http.cors_origins needs at least one origin")
		}
	}
	if c.Backup.Enabled {
		parser := cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
		if _, err := parser.Parse(c.Backup.Schedule); err != nil {
			errs = append(errs, fmt.Sprintf("invalid backup.schedule: %q (%v)", c.Backup.Schedule, err))
		}
		if c.Backup.Keep < 1 {
			errs = append(errs, fmt.Sprintf("invalid backup.keep: %d (must be at least 1)", c.Backup.Keep))
		}
	}

	if len(errs) > 0 {
		return errors.InvalidConfig("configuration validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// LoadFromFile loads configuration from a YAML file on top of the defaults.
func (m *Manager) LoadFromFile(path string) error {
	path = os.ExpandEnv(path)

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	cfg.ConfigFile = path
	m.Set(cfg)
	return nil
}

// Parse decodes YAML configuration over the defaults. Unknown keys are
// rejected so typos do not pass silently.
func Parse(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	dec := yaml.NewDecoder(strings.NewReader(string(data)))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && err != io.EOF {
		return nil, err
	}
	return cfg, nil
}

func envBool(v string) bool {
	v = strings.ToLower(v)
	return v == "true" || v == "1" || v == "yes"
}

// LoadFromEnv loads configuration from environment variables.
// This merges with existing configuration (env vars override file values).
func (m *Manager) LoadFromEnv() {
	cfg := m.Get()

	if v := os.Getenv(EnvPort); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Port = port
		}
	}
	if v := os.Getenv(EnvDataDir); v != "" {
		cfg.DataDir = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv(EnvLogJSON); v != "" {
		cfg.LogJSON = envBool(v)
	}
	if v := os.Getenv(EnvLockTimeout); v != "" {
		cfg.LockTimeout = v
	}
	if v := os.Getenv(EnvEncoding); v != "" {
		cfg.Storage.Encoding = v
	}
	if v := os.Getenv(EnvCollation); v != "" {
		cfg.Storage.Collation = v
	}
	if v := os.Getenv(EnvLocale); v != "" {
		cfg.Storage.Locale = v
	}
	if v := os.Getenv(EnvPasswordHash); v != "" {
		cfg.Auth.PasswordHash = v
	}
	if v := os.Getenv(EnvHTTPEnabled); v != "" {
		cfg.HTTP.Enabled = envBool(v)
	}
	if v := os.Getenv(EnvHTTPAddr); v != "" {
		cfg.HTTP.Addr = v
	}
	if v := os.Getenv(EnvDiscovery); v != "" {
		cfg.Discovery.Enabled = envBool(v)
	}
	if v := os.Getenv(EnvBackupEnabled); v != "" {
		cfg.Backup.Enabled = envBool(v)
	}
	if v := os.Getenv(EnvBackupSchedule); v != "" {
		cfg.Backup.Schedule = v
	}
	if v := os.Getenv(EnvBackupDir); v != "" {
		cfg.Backup.Dir = v
	}

	m.Set(cfg)
}

// FindConfigFile searches for a configuration file in default locations.
// Returns the path to the first file found, or empty string if none found.
func FindConfigFile() string {
	if envPath := os.Getenv(EnvConfigFile); envPath != "" {
		if _, err := os.Stat(os.ExpandEnv(envPath)); err == nil {
			return os.ExpandEnv(envPath)
		}
	}
	for _, path := range DefaultConfigPaths {
		expandedPath := os.ExpandEnv(path)
		if _, err := os.Stat(expandedPath); err == nil {
			return expandedPath
		}
	}
	return ""
}

// Load loads configuration from all sources with proper precedence.
// Order: defaults -> config file -> environment variables
// Command-line flags should be applied after calling this function.
func (m *Manager) Load() error {
	if configPath := FindConfigFile(); configPath != "" {
		if err := m.LoadFromFile(configPath); err != nil {
			return err
		}
	}
	m.LoadFromEnv()
	return nil
}

// Reload reloads configuration from file and environment.
func (m *Manager) Reload() error {
	configPath := m.Get().ConfigFile
	if configPath == "" {
		configPath = FindConfigFile()
	}

	m.Set(DefaultConfig())
	if configPath != "" {
		if err := m.LoadFromFile(configPath); err != nil {
			return err
		}
	}
	m.LoadFromEnv()
	m.notifyReload()
	return nil
}

// String returns a string representation of the configuration.
func (c *Config) String() string {
	var sb strings.Builder
	sb.WriteString("ToyQuery Configuration:\n")
	sb.WriteString(fmt.Sprintf("  Port:         %d\n", c.Port))
	sb.WriteString(fmt.Sprintf("  Data Dir:     %s\n", c.DataDir))
	sb.WriteString(fmt.Sprintf("  Lock Timeout: %s\n", c.LockTimeout))
	sb.WriteString(fmt.Sprintf("  Encoding:     %s\n", c.Storage.Encoding))
	sb.WriteString(fmt.Sprintf("  Collation:    %s\n", c.Storage.Collation))
	sb.WriteString(fmt.Sprintf("  Auth:         %v\n", c.AuthEnabled()))
	if c.HTTP.Enabled {
		sb.WriteString(fmt.Sprintf("  HTTP:         %s\n", c.HTTP.Addr))
	}
	if c.Backup.Enabled {
		sb.WriteString(fmt.Sprintf("  Backups:      %s -> %s (keep %d)\n", c.Backup.Schedule, c.BackupDir(), c.Backup.Keep))
	}
	sb.WriteString(fmt.Sprintf("  Log Level:    %s\n", c.LogLevel))
	sb.WriteString(fmt.Sprintf("  Log JSON:     %v\n", c.LogJSON))
	if c.ConfigFile != "" {
		sb.WriteString(fmt.Sprintf("  Config File:  %s\n", c.ConfigFile))
	}
	return sb.String()
}

// ToYAML returns the configuration as YAML.
func (c *Config) ToYAML() (string, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return "", err
	}
	return "# ToyQuery configuration\n" + string(data), nil
}

// SaveToFile saves the configuration to a file.
func (c *Config) SaveToFile(path string) error {
	path = os.ExpandEnv(path)

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	text, err := c.ToYAML()
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := os.WriteFile(path, []byte(text), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// SaveToFile writes the current configuration to path.
func (m *Manager) SaveToFile(path string) error {
	return m.Get().SaveToFile(path)
}
