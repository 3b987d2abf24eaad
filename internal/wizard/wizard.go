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
Package wizard implements the interactive setup run by "toyquery -init".

The wizard walks through the settings of a new server, starting from the
configuration already loaded (defaults, file, environment), and writes the
answers as a YAML configuration file. Pressing Enter keeps the value shown
in brackets.

Steps:

 1. Server: port, data directory, log level
 2. Storage: file encoding, collation (and locale for unicode)
 3. Security: optional password, stored as a bcrypt hash
 4. Features: HTTP gateway, mDNS discovery, scheduled backups
 5. Save: target file
*/
package wizard

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"toyquery/internal/auth"
	"toyquery/internal/banner"
	"toyquery/internal/config"
	"toyquery/internal/logging"
	"toyquery/internal/storage"
)

// DefaultPath is where the wizard offers to save the configuration.
const DefaultPath = "./toyquery.yaml"

// Wizard prompts on out and reads answers from in.
type Wizard struct {
	in  *bufio.Reader
	out io.Writer

	// GeneratedPassword is set when the user asked for a random password.
	GeneratedPassword string
}

// New creates a wizard reading from in and writing to out.
func New(in io.Reader, out io.Writer) *Wizard {
	return &Wizard{in: bufio.NewReader(in), out: out}
}

// Run collects a configuration starting from base and returns it with the
// path it should be saved to. base is not modified.
func (w *Wizard) Run(base *config.Config) (*config.Config, string, error) {
	cfg := config.DefaultConfig()
	if base != nil {
		*cfg = *base
		cfg.HTTP.CORSOrigins = append([]string(nil), base.HTTP.CORSOrigins...)
	}

	fmt.Fprintln(w.out)
	fmt.Fprintf(w.out, "  ToyQuery Setup (v%s)\n", banner.Version)
	fmt.Fprintln(w.out, "  Press Enter to keep the value in brackets.")

	w.step(1, "Server")
	cfg.Port = w.promptPort("  Port", cfg.Port)
	cfg.DataDir = w.promptPath("  Data directory", cfg.DataDir)
	cfg.LogLevel = w.promptValid("  Log level (debug/info/warn/error)", cfg.LogLevel, logging.ValidLevel)

	w.step(2, "Storage")
	cfg.Storage.Encoding = w.promptValid("  File encoding (utf8/latin1/ascii)", cfg.Storage.Encoding, func(s string) bool {
		_, err := storage.ParseEncoding(s)
		return err == nil
	})
	cfg.Storage.Collation = w.promptValid("  Collation (binary/nocase/unicode)", cfg.Storage.Collation, func(s string) bool {
		_, err := storage.ParseCollation(s, cfg.Storage.Locale)
		return err == nil
	})
	if cfg.Storage.Collation == "unicode" {
		cfg.Storage.Locale = w.promptValid("  Locale (BCP 47, e.g. en, de, sv)", cfg.Storage.Locale, func(s string) bool {
			_, err := storage.ParseCollation("unicode", s)
			return err == nil
		})
	}

	w.step(3, "Security")
	current := "off"
	if cfg.AuthEnabled() {
		current = "keep"
	}
	switch strings.ToLower(w.prompt("  Password (off/keep/generate/set)", current)) {
	case "off":
		cfg.Auth.PasswordHash = ""
	case "generate":
		password, err := auth.GenerateSecurePassword(0)
		if err != nil {
			return nil, "", err
		}
		if cfg.Auth.PasswordHash, err = auth.HashPassword(password); err != nil {
			return nil, "", err
		}
		w.GeneratedPassword = password
		fmt.Fprintf(w.out, "  Generated password: %s\n  Save it now; only its hash is stored.\n", password)
	case "set":
		for {
			password := w.prompt("  New password", "")
			hash, err := auth.HashPassword(password)
			if err == nil {
				cfg.Auth.PasswordHash = hash
				break
			}
			fmt.Fprintf(w.out, "  %v\n", err)
			if !w.more() {
				return nil, "", fmt.Errorf("no password given")
			}
		}
	}

	w.step(4, "Features")
	cfg.HTTP.Enabled = w.promptBool("  Enable HTTP gateway", cfg.HTTP.Enabled)
	if cfg.HTTP.Enabled {
		cfg.HTTP.Addr = w.prompt("  HTTP address", cfg.HTTP.Addr)
	}
	cfg.Discovery.Enabled = w.promptBool("  Advertise over mDNS", cfg.Discovery.Enabled)
	cfg.Backup.Enabled = w.promptBool("  Enable scheduled backups", cfg.Backup.Enabled)
	if cfg.Backup.Enabled {
		cfg.Backup.Schedule = w.prompt("  Schedule (cron with seconds)", cfg.Backup.Schedule)
		cfg.Backup.Dir = w.promptPath("  Backup directory", cfg.BackupDir())
		cfg.Backup.Keep = w.promptInt("  Snapshots to keep", cfg.Backup.Keep)
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", err
	}

	w.step(5, "Save")
	path := cfg.ConfigFile
	if path == "" {
		path = DefaultPath
	}
	path = w.promptPath("  Configuration file", path)
	cfg.ConfigFile = path
	return cfg, path, nil
}

// RunAndSave runs the wizard and writes the result.
func (w *Wizard) RunAndSave(base *config.Config) (*config.Config, error) {
	cfg, path, err := w.Run(base)
	if err != nil {
		return nil, err
	}
	if err := cfg.SaveToFile(path); err != nil {
		return nil, err
	}
	fmt.Fprintf(w.out, "\n  Configuration saved to %s\n  Start the server with: toyquery -config %s\n\n", path, path)
	return cfg, nil
}

func (w *Wizard) step(n int, title string) {
	fmt.Fprintln(w.out)
	fmt.Fprintf(w.out, "  Step %d: %s\n", n, title)
	fmt.Fprintln(w.out, "  "+strings.Repeat("-", 56))
}

// prompt returns the trimmed answer, or defaultVal for an empty answer or
// at end of input.
func (w *Wizard) prompt(label, defaultVal string) string {
	fmt.Fprintf(w.out, "%s [%s]: ", label, defaultVal)
	input, _ := w.in.ReadString('\n')
	if input = strings.TrimSpace(input); input == "" {
		return defaultVal
	}
	return input
}

func (w *Wizard) promptValid(label, defaultVal string, valid func(string) bool) string {
	for {
		value := w.prompt(label, defaultVal)
		if valid(value) {
			return value
		}
		fmt.Fprintf(w.out, "  Invalid value %q.\n", value)
		if !w.more() {
			return defaultVal
		}
	}
}

func (w *Wizard) promptPort(label string, defaultVal int) int {
	v := w.promptValid(label, strconv.Itoa(defaultVal), ValidatePort)
	port, _ := strconv.Atoi(v)
	return port
}

func (w *Wizard) promptInt(label string, defaultVal int) int {
	v := w.promptValid(label, strconv.Itoa(defaultVal), func(s string) bool {
		n, err := strconv.Atoi(s)
		return err == nil && n > 0
	})
	n, _ := strconv.Atoi(v)
	return n
}

func (w *Wizard) promptBool(label string, defaultVal bool) bool {
	def := "n"
	if defaultVal {
		def = "y"
	}
	v := w.promptValid(label+" (y/n)", def, func(s string) bool {
		switch strings.ToLower(s) {
		case "y", "yes", "n", "no":
			return true
		}
		return false
	})
	return strings.HasPrefix(strings.ToLower(v), "y")
}

// promptPath expands a leading "~/" to the home directory.
func (w *Wizard) promptPath(label, defaultVal string) string {
	path := w.prompt(label, defaultVal)
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, path[2:])
		}
	}
	return path
}

// more reports whether unread input remains, so a bad answer at the end of
// piped input does not loop forever.
func (w *Wizard) more() bool {
	_, err := w.in.Peek(1)
	return err == nil
}

// ValidatePort reports whether port is a number between 1 and 65535.
func ValidatePort(port string) bool {
	p, err := strconv.Atoi(port)
	return err == nil && p >= 1 && p <= 65535
}
