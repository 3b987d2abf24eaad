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
Package banner prints the startup banner of the ToyQuery binaries.

The ASCII art is embedded from banner.txt at compile time. Colours are ANSI
escape sequences and are only emitted when Color is true.

Usage:

	banner.PrintServerWithConfig(cfg)  // toyquery
	banner.Print()                     // shell and tools
*/
package banner

import (
	_ "embed"
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"

	"golang.org/x/term"

	"toyquery/internal/config"
)

//go:embed banner.txt
var banner string

// ANSI escape codes for terminal text formatting.
const (
	AnsiRed    = "\033[31m"
	AnsiGreen  = "\033[32m"
	AnsiYellow = "\033[33m"
	AnsiCyan   = "\033[36m"
	AnsiReset  = "\033[0m"
	AnsiBold   = "\033[1m"
	AnsiDim    = "\033[2m"
)

// Version information for ToyQuery.
const (
	Version   = "01.26.14"
	Copyright = "(c)2026 Firefly Software Solutions Inc"
	License   = "Licensed under Apache 2.0"
)

// Color controls whether ANSI codes are written. It defaults to true when
// stdout is a terminal.
var Color = term.IsTerminal(int(os.Stdout.Fd()))

func paint(codes, s string) string {
	if !Color {
		return s
	}
	return codes + s + AnsiReset
}

// Print displays the short banner used by the shell and tools.
func Print() {
	PrintTo(os.Stdout, "ToyQuery")
}

// PrintTo writes the short banner titled title to w.
func PrintTo(w io.Writer, title string) {
	fmt.Fprintln(w, paint(AnsiCyan, banner))
	fmt.Fprintln(w, paint(AnsiCyan+AnsiBold, fmt.Sprintf(":: %s ::%*s(v%s)", title, 30-len(title), "", Version)))
	fmt.Fprintln(w, paint(AnsiGreen+AnsiBold, Copyright))
	fmt.Fprintln(w, paint(AnsiGreen+AnsiBold, License))
	fmt.Fprintln(w)
}

// PrintServerWithConfig prints the server banner followed by a summary of
// the effective configuration.
func PrintServerWithConfig(cfg *config.Config) {
	PrintServerWithConfigTo(os.Stdout, cfg)
}

// PrintServerWithConfigTo writes the server banner to w.
func PrintServerWithConfigTo(w io.Writer, cfg *config.Config) {
	fmt.Fprintln(w)
	PrintTo(w, "ToyQuery Server")

	fmt.Fprint(w, "  "+paint(AnsiDim, "Config: "))
	if cfg.ConfigFile != "" {
		fmt.Fprintln(w, paint(AnsiYellow, cfg.ConfigFile))
	} else {
		fmt.Fprintln(w, paint(AnsiDim, "defaults + environment"))
	}
	fmt.Fprintln(w)

	const lineWidth = 78

	printSectionHeader(w, "Server", lineWidth)
	printRow3(w,
		fmtKV("Port", paint(AnsiGreen, fmt.Sprintf(":%d", cfg.Port))),
		fmtKV("Log", cfg.LogLevel),
		fmtKV("Lock timeout", cfg.LockTimeout))
	printRow2(w, fmtKV("Data", cfg.DataDir), "")
	fmt.Fprintln(w)

	printSectionHeader(w, "Storage", lineWidth)
	collation := cfg.Storage.Collation
	if collation == "unicode" {
		collation += " (" + cfg.Storage.Locale + ")"
	}
	printRow2(w, fmtKV("Encoding", cfg.Storage.Encoding), fmtKV("Collation", collation))
	fmt.Fprintln(w)

	printSectionHeader(w, "Security", lineWidth)
	if cfg.AuthEnabled() {
		printRow2(w, fmtKV("Auth", paint(AnsiGreen, "password (bcrypt)")), "")
	} else {
		printRow2(w, fmtKV("Auth", paint(AnsiYellow, "off")), "")
	}
	fmt.Fprintln(w)

	printSectionHeader(w, "Features", lineWidth)
	printFeatures(w, cfg)
	printRow2(w,
		fmtKV("CPUs", fmt.Sprintf("%d", runtime.NumCPU())),
		fmtKV("GOMAXPROCS", fmt.Sprintf("%d", runtime.GOMAXPROCS(0))))
	fmt.Fprintln(w)

	fmt.Fprintln(w, "  "+paint(AnsiDim, Copyright))
	fmt.Fprintln(w)
	printLogSeparator(w)
}

func printFeatures(w io.Writer, cfg *config.Config) {
	var enabled, disabled []string

	if cfg.HTTP.Enabled {
		enabled = append(enabled, "HTTP("+cfg.HTTP.Addr+")")
	} else {
		disabled = append(disabled, "HTTP")
	}
	if cfg.Discovery.Enabled {
		enabled = append(enabled, "mDNS Discovery")
	} else {
		disabled = append(disabled, "mDNS Discovery")
	}
	if cfg.Backup.Enabled {
		enabled = append(enabled, fmt.Sprintf("Backup(%s, keep %d)", cfg.Backup.Schedule, cfg.Backup.Keep))
	} else {
		disabled = append(disabled, "Backup")
	}

	if len(enabled) > 0 {
		fmt.Fprintf(w, "  %s  %s\n", paint(AnsiDim, "Enabled:"), paint(AnsiGreen, strings.Join(enabled, ", ")))
	}
	if len(disabled) > 0 {
		fmt.Fprintf(w, "  %s %s\n", paint(AnsiDim, "Disabled:"), paint(AnsiDim, strings.Join(disabled, ", ")))
	}
}

// PrintLogSeparator prints a visual separator before logs start.
func PrintLogSeparator() {
	printLogSeparator(os.Stdout)
}

func printLogSeparator(w io.Writer) {
	const lineWidth = 78
	text := " LOGS START HERE "
	padding := (lineWidth - len(text) - 4) / 2
	if padding < 0 {
		padding = 0
	}
	line := strings.Repeat("-", padding)
	fmt.Fprintf(w, "  %s%s%s\n\n",
		paint(AnsiYellow, "vv"+line),
		paint(AnsiBold, text),
		paint(AnsiYellow, line+"vv"))
}

func printSectionHeader(w io.Writer, title string, width int) {
	rightPad := width - 2 - len(title) - 4
	if rightPad < 0 {
		rightPad = 0
	}
	fmt.Fprintf(w, "  %s[ %s ]%s\n",
		paint(AnsiDim, "--"),
		paint(AnsiCyan+AnsiBold, title),
		paint(AnsiDim, strings.Repeat("-", rightPad)))
}

func fmtKV(key, value string) string {
	return paint(AnsiDim, key+":") + " " + value
}

func printRow3(w io.Writer, col1, col2, col3 string) {
	fmt.Fprintf(w, "  %-32s %-26s %s\n", col1, col2, col3)
}

func printRow2(w io.Writer, col1, col2 string) {
	fmt.Fprintf(w, "  %-40s %s\n", col1, col2)
}
