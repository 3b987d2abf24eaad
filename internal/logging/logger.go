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
Package logging provides structured, component-scoped logging for ToyQuery.

Every package that logs owns a component logger:

	var log = logging.NewLogger("server")
	log.Info("Listening", "addr", ln.Addr().String())
	log.Warn("Lock wait timed out", "database", db, "error", err)

Arguments after the message are key/value pairs. Output is either a single
text line per entry (coloured when the output is a terminal) or one JSON
object per line. Level, output and format are process-wide settings changed
through SetGlobalLevel, SetGlobalOutput and SetJSONMode.

Commands flowing through the server are tracked with a RequestContext, which
stamps each command with a UUID and reports its outcome and latency.
*/
package logging

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/term"
)

// Level represents the severity of a log message.
type Level int

const (
	DEBUG Level = iota
	INFO
	WARN
	ERROR
)

// String returns the upper-case name of the level.
func (l Level) String() string {
	switch l {
	case DEBUG:
		return "DEBUG"
	case INFO:
		return "INFO"
	case WARN:
		return "WARN"
	case ERROR:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// color returns the ANSI colour used for the level in text mode.
func (l Level) color() string {
	switch l {
	case DEBUG:
		return "\033[36m"
	case INFO:
		return "\033[32m"
	case WARN:
		return "\033[33m"
	case ERROR:
		return "\033[31m"
	default:
		return "\033[0m"
	}
}

// ParseLevel parses a level name. Unknown names map to INFO.
func ParseLevel(s string) Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return DEBUG
	case "WARN", "WARNING":
		return WARN
	case "ERROR":
		return ERROR
	default:
		return INFO
	}
}

// ValidLevel reports whether s names a known level.
func ValidLevel(s string) bool {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG", "INFO", "WARN", "WARNING", "ERROR":
		return true
	}
	return false
}

// Entry is a single log record as emitted in JSON mode.
type Entry struct {
	Timestamp time.Time              `json:"timestamp"`
	Level     string                 `json:"level"`
	Component string                 `json:"component"`
	Message   string                 `json:"message"`
	Fields    map[string]interface{} `json:"fields,omitempty"`
}

type settings struct {
	level    Level
	output   io.Writer
	jsonMode bool
	color    bool
}

var (
	globalMu sync.RWMutex
	global   = settings{level: INFO, output: os.Stdout, color: isTerminal(os.Stdout)}

	// writeMu serialises writes so concurrent entries never interleave.
	writeMu sync.Mutex
)

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// SetGlobalLevel sets the minimum level written by every logger.
func SetGlobalLevel(level Level) {
	globalMu.Lock()
	defer globalMu.Unlock()
	global.level = level
}

// GlobalLevel returns the current minimum level.
func GlobalLevel() Level {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return global.level
}

// SetGlobalOutput redirects every logger to w.
func SetGlobalOutput(w io.Writer) {
	globalMu.Lock()
	defer globalMu.Unlock()
	global.output = w
	global.color = isTerminal(w)
}

// SetJSONMode switches between text and JSON output.
func SetJSONMode(enabled bool) {
	globalMu.Lock()
	defer globalMu.Unlock()
	global.jsonMode = enabled
}

// Logger writes entries tagged with a component name.
type Logger struct {
	component string
}

// NewLogger creates a logger for the named component.
func NewLogger(component string) *Logger {
	return &Logger{component: component}
}

// Component returns the component name.
func (l *Logger) Component() string {
	return l.component
}

func (l *Logger) log(level Level, msg string, args ...interface{}) {
	globalMu.RLock()
	s := global
	globalMu.RUnlock()

	if level < s.level {
		return
	}

	entry := Entry{
		Timestamp: time.Now().UTC(),
		Level:     level.String(),
		Component: l.component,
		Message:   msg,
		Fields:    fieldsOf(args),
	}

	writeMu.Lock()
	defer writeMu.Unlock()
	if s.jsonMode {
		writeJSON(s.output, entry)
		return
	}
	writeText(s.output, level, entry, s.color)
}

// fieldsOf turns alternating key/value arguments into a map. A trailing
// value without a key is stored under "extra".
func fieldsOf(args []interface{}) map[string]interface{} {
	if len(args) == 0 {
		return nil
	}
	fields := make(map[string]interface{}, len(args)/2+1)
	for i := 0; i+1 < len(args); i += 2 {
		key, ok := args[i].(string)
		if !ok {
			key = fmt.Sprintf("arg%d", i)
		}
		fields[key] = args[i+1]
	}
	if len(args)%2 != 0 {
		fields["extra"] = args[len(args)-1]
	}
	return fields
}

func writeJSON(w io.Writer, entry Entry) {
	for k, v := range entry.Fields {
		if err, ok := v.(error); ok {
			entry.Fields[k] = err.Error()
		}
	}
	data, err := json.Marshal(entry)
	if err != nil {
		fmt.Fprintf(w, "ERROR: failed to marshal log entry: %v\n", err)
		return
	}
	fmt.Fprintln(w, string(data))
}

// writeText renders: 2006-01-02T15:04:05.000Z [LEVEL] [component] message k=v ...
// Fields are sorted by key so lines are stable.
func writeText(w io.Writer, level Level, entry Entry, color bool) {
	var b strings.Builder
	b.WriteString(entry.Timestamp.Format("2006-01-02T15:04:05.000Z"))
	b.WriteByte(' ')
	if color {
		fmt.Fprintf(&b, "%s[%-5s]\033[0m", level.color(), entry.Level)
	} else {
		fmt.Fprintf(&b, "[%-5s]", entry.Level)
	}
	fmt.Fprintf(&b, " [%s] %s", entry.Component, entry.Message)

	keys := make([]string, 0, len(entry.Fields))
	for k := range entry.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%v", k, entry.Fields[k])
	}
	fmt.Fprintln(w, b.String())
}

// Debug logs at DEBUG level.
func (l *Logger) Debug(msg string, args ...interface{}) {
	l.log(DEBUG, msg, args...)
}

// Info logs at INFO level.
func (l *Logger) Info(msg string, args ...interface{}) {
	l.log(INFO, msg, args...)
}

// Warn logs at WARN level.
func (l *Logger) Warn(msg string, args ...interface{}) {
	l.log(WARN, msg, args...)
}

// Error logs at ERROR level.
func (l *Logger) Error(msg string, args ...interface{}) {
	l.log(ERROR, msg, args...)
}

// With returns a logger that prepends args to every entry.
func (l *Logger) With(args ...interface{}) *ContextLogger {
	return &ContextLogger{logger: l, args: append([]interface{}(nil), args...)}
}

// ContextLogger is a Logger with preset fields, typically one per connection.
type ContextLogger struct {
	logger *Logger
	args   []interface{}
}

func (c *ContextLogger) merge(args []interface{}) []interface{} {
	out := make([]interface{}, 0, len(c.args)+len(args))
	out = append(out, c.args...)
	return append(out, args...)
}

// Debug logs at DEBUG level.
func (c *ContextLogger) Debug(msg string, args ...interface{}) {
	c.logger.log(DEBUG, msg, c.merge(args)...)
}

// Info logs at INFO level.
func (c *ContextLogger) Info(msg string, args ...interface{}) {
	c.logger.log(INFO, msg, c.merge(args)...)
}

// Warn logs at WARN level.
func (c *ContextLogger) Warn(msg string, args ...interface{}) {
	c.logger.log(WARN, msg, c.merge(args)...)
}

// Error logs at ERROR level.
func (c *ContextLogger) Error(msg string, args ...interface{}) {
	c.logger.log(ERROR, msg, c.merge(args)...)
}

// ============================================================================
// Request Tracking
// ============================================================================

// RequestContext follows one command from arrival to response.
type RequestContext struct {
	ID         string
	StartTime  time.Time
	ClientAddr string
	Command    string
}

// NewRequestContext stamps a command with a fresh UUID.
func NewRequestContext(clientAddr, command string) *RequestContext {
	return &RequestContext{
		ID:         uuid.NewString(),
		StartTime:  time.Now(),
		ClientAddr: clientAddr,
		Command:    command,
	}
}

// Duration returns the time elapsed since the command arrived.
func (r *RequestContext) Duration() time.Duration {
	return time.Since(r.StartTime)
}

func (r *RequestContext) baseArgs(status string) []interface{} {
	return []interface{}{
		"request_id", r.ID,
		"client", r.ClientAddr,
		"command", r.Command,
		"status", status,
		"duration_ms", fmt.Sprintf("%.2f", float64(r.Duration().Microseconds())/1000.0),
	}
}

// LogComplete logs a command that produced an [OK] response.
func (r *RequestContext) LogComplete(logger *Logger, args ...interface{}) {
	logger.Debug("Command completed", append(r.baseArgs("ok"), args...)...)
}

// LogError logs a command that produced an [ERROR] response.
func (r *RequestContext) LogError(logger *Logger, errMsg string, args ...interface{}) {
	all := append(r.baseArgs("error"), "error", errMsg)
	logger.Info("Command failed", append(all, args...)...)
}
