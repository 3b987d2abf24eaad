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

package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/chzyer/readline"

	"toyquery/internal/protocol"
)

// keywords feeds tab completion.
var keywords = []string{
	"USE", "CREATE TABLE", "CREATE DATABASE", "DROP TABLE", "DROP DATABASE",
	"ALTER TABLE", "INSERT INTO", "SELECT", "UPDATE", "DELETE FROM", "JOIN",
	"FROM", "WHERE", "VALUES", "SET", "ADD", "DROP", "AND", "OR", "ON", "LIKE",
	"TRUE", "FALSE", "NULL", "PING", "AUTH", "QUIT",
	`\q`, `\h`, `\ping`,
}

// sender is the part of client.Conn the shell needs.
type sender interface {
	Send(line string) (string, error)
	Ping() error
}

type shell struct {
	conn     sender
	out      io.Writer
	buf      statementBuffer
	database string
	failed   int
	quit     bool
}

func newShell(conn sender, out io.Writer) *shell {
	return &shell{conn: conn, out: out}
}

func historyFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".toyquery_history")
}

func (s *shell) prompt() string {
	if s.buf.Pending() {
		return "        -> "
	}
	if s.database == "" {
		return "toyquery> "
	}
	return "toyquery:" + s.database + "> "
}

// runReadline runs the interactive loop with line editing and history.
func (s *shell) runReadline() error {
	items := make([]readline.PrefixCompleterInterface, 0, len(keywords))
	for _, k := range keywords {
		items = append(items, readline.PcItem(k))
	}
	rl, err := readline.NewEx(&readline.Config{
		Prompt:            s.prompt(),
		HistoryFile:       historyFile(),
		AutoComplete:      readline.NewPrefixCompleter(items...),
		InterruptPrompt:   "^C",
		EOFPrompt:         `\q`,
		HistorySearchFold: true,
	})
	if err != nil {
		return err
	}
	defer rl.Close()

	for !s.quit {
		rl.SetPrompt(s.prompt())
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			if s.buf.Pending() {
				s.buf.Reset()
			} else {
				fmt.Fprintln(s.out, `(Use \q to quit)`)
			}
			continue
		}
		if err != nil {
			break
		}
		s.feed(line)
	}
	return nil
}

// runScanner reads commands from r without line editing.
func (s *shell) runScanner(r io.Reader) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), protocol.MaxLineSize)
	for !s.quit && scanner.Scan() {
		s.feed(scanner.Text())
	}
	if s.buf.Pending() {
		fmt.Fprintln(s.out, `[ERROR] Token ";" is missing.`)
		s.failed++
	}
}

// feed handles one input line: local commands run at once, everything else
// is buffered until a complete command is available.
func (s *shell) feed(line string) {
	trimmed := strings.TrimSpace(line)
	if !s.buf.Pending() && strings.HasPrefix(trimmed, `\`) {
		s.local(trimmed)
		return
	}
	if stmt, ok := s.buf.Add(line); ok {
		s.execute(stmt)
	}
}

func (s *shell) local(cmd string) {
	switch strings.Fields(cmd)[0] {
	case `\q`:
		s.quit = true
	case `\h`:
		printHelp(s.out)
	case `\ping`:
		start := time.Now()
		if err := s.conn.Ping(); err != nil {
			fmt.Fprintf(s.out, "[ERROR] %v\n", err)
			s.failed++
			return
		}
		fmt.Fprintf(s.out, "PONG (%s)\n", time.Since(start).Round(time.Microsecond))
	default:
		fmt.Fprintf(s.out, "Unknown command %s. Type \\h for help.\n", cmd)
	}
}

// execute sends one command and prints the response. It reports whether
// the command succeeded.
func (s *shell) execute(stmt string) bool {
	response, err := s.conn.Send(stmt)
	if err != nil {
		fmt.Fprintf(s.out, "[ERROR] %v\n", err)
		s.failed++
		s.quit = true
		return false
	}
	fmt.Fprintln(s.out, response)

	word, rest := protocol.SplitControl(stmt)
	switch {
	case word == protocol.CmdQuit:
		s.quit = true
	case strings.HasPrefix(response, "[ERROR]"):
		s.failed++
		return false
	case word == "USE":
		s.database = strings.TrimSuffix(strings.TrimSpace(rest), ";")
		s.database = strings.TrimSpace(s.database)
	case word == "DROP":
		fields := strings.Fields(strings.TrimSuffix(strings.TrimSpace(rest), ";"))
		if len(fields) == 2 && strings.EqualFold(fields[0], "DATABASE") && fields[1] == s.database {
			s.database = ""
		}
	}
	return true
}

// statementBuffer collects lines until a command is complete. A command is
// complete when it ends with ";", or at once for PING, AUTH and QUIT.
type statementBuffer struct {
	lines []string
}

// Add appends line and returns the complete command, if any.
func (b *statementBuffer) Add(line string) (string, bool) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" && len(b.lines) == 0 {
		return "", false
	}
	if len(b.lines) == 0 {
		switch word, _ := protocol.SplitControl(trimmed); word {
		case protocol.CmdPing, protocol.CmdAuth, protocol.CmdQuit:
			return trimmed, true
		}
	}
	if trimmed != "" {
		b.lines = append(b.lines, trimmed)
	}
	if !strings.HasSuffix(trimmed, ";") {
		return "", false
	}
	stmt := strings.Join(b.lines, " ")
	b.Reset()
	return stmt, true
}

// Pending reports whether an incomplete command is buffered.
func (b *statementBuffer) Pending() bool {
	return len(b.lines) > 0
}

// Reset drops the buffered lines.
func (b *statementBuffer) Reset() {
	b.lines = nil
}

func printHelp(w io.Writer) {
	fmt.Fprint(w, `Commands (end with ";"):
  USE db;                                   CREATE DATABASE db;
  CREATE TABLE t (a, b);                    DROP TABLE t;  DROP DATABASE db;
  ALTER TABLE t ADD a;                      ALTER TABLE t DROP a;
  INSERT INTO t VALUES ('x', 1);            DELETE FROM t WHERE a == 1;
  SELECT * FROM t WHERE (a > 1) AND (b LIKE 'x');
  UPDATE t SET a = 2, b = 'y' WHERE id == 1;
  JOIN t1 AND t2 ON a AND b;

Server commands:
  PING    AUTH <password>    QUIT

Local commands:
  \q      quit
  \h      this help
  \ping   measure the round trip
`)
}
