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
Package metrics provides Prometheus-compatible metrics for ToyQuery.

METRIC CATEGORIES:
==================
- Commands: executed (total, by keyword), failed
- Command Latency: average execution time
- Connections: active, total
- Databases: count
- Backups: completed, failed
- Auth: failed attempts

PROMETHEUS ENDPOINT:
====================
Metrics are exposed at /metrics of the HTTP gateway in Prometheus text
format.

EXAMPLE METRICS:
================

	toyquery_commands_total 12345
	toyquery_commands_by_keyword_total{keyword="SELECT"} 1234
	toyquery_command_latency_avg_microseconds 85.20
	toyquery_connections_active 3
*/
package metrics

import (
	"fmt"
	"io"
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// Metrics holds all ToyQuery metrics.
type Metrics struct {
	// Command metrics
	CommandsTotal  atomic.Uint64
	CommandsFailed atomic.Uint64

	// Command latency (in microseconds)
	LatencySum   atomic.Uint64
	LatencyCount atomic.Uint64

	// Connection metrics
	ActiveConnections atomic.Int64
	TotalConnections  atomic.Uint64

	// Database metrics
	DatabaseCount atomic.Int64

	// Backup metrics
	BackupsCompleted atomic.Uint64
	BackupsFailed    atomic.Uint64

	// Auth metrics
	AuthFailures atomic.Uint64

	byKeyword sync.Map // keyword -> *atomic.Uint64
}

var globalMetrics = &Metrics{}

// Get returns the global metrics instance.
func Get() *Metrics {
	return globalMetrics
}

// New returns an independent metrics instance.
func New() *Metrics {
	return &Metrics{}
}

func (m *Metrics) keywordCounter(keyword string) *atomic.Uint64 {
	if c, ok := m.byKeyword.Load(keyword); ok {
		return c.(*atomic.Uint64)
	}
	actual, _ := m.byKeyword.LoadOrStore(keyword, new(atomic.Uint64))
	return actual.(*atomic.Uint64)
}

// RecordCommand records one executed command. An empty keyword means the
// line did not parse.
func (m *Metrics) RecordCommand(keyword string, latency time.Duration) {
	m.CommandsTotal.Add(1)
	m.LatencySum.Add(uint64(latency.Microseconds()))
	m.LatencyCount.Add(1)
	if keyword != "" {
		m.keywordCounter(keyword).Add(1)
	}
}

// RecordFailure records a command answered with [ERROR].
func (m *Metrics) RecordFailure() {
	m.CommandsFailed.Add(1)
}

// CommandCount returns how many commands with keyword were executed.
func (m *Metrics) CommandCount(keyword string) uint64 {
	if c, ok := m.byKeyword.Load(keyword); ok {
		return c.(*atomic.Uint64).Load()
	}
	return 0
}

// ConnectionOpened records a new connection.
func (m *Metrics) ConnectionOpened() {
	m.ActiveConnections.Add(1)
	m.TotalConnections.Add(1)
}

// ConnectionClosed records a closed connection.
func (m *Metrics) ConnectionClosed() {
	m.ActiveConnections.Add(-1)
}

// AverageLatency returns the average command latency in microseconds.
func (m *Metrics) AverageLatency() float64 {
	count := m.LatencyCount.Load()
	if count == 0 {
		return 0
	}
	return float64(m.LatencySum.Load()) / float64(count)
}

// WritePrometheus writes every metric in Prometheus text format.
func (m *Metrics) WritePrometheus(w io.Writer) {
	counter := func(name, help string, v uint64) {
		fmt.Fprintf(w, "# HELP %s %s\n", name, help)
		fmt.Fprintf(w, "# TYPE %s counter\n", name)
		fmt.Fprintf(w, "%s %d\n", name, v)
	}
	gauge := func(name, help string, v int64) {
		fmt.Fprintf(w, "# HELP %s %s\n", name, help)
		fmt.Fprintf(w, "# TYPE %s gauge\n", name)
		fmt.Fprintf(w, "%s %d\n", name, v)
	}

	counter("toyquery_commands_total", "Total commands executed", m.CommandsTotal.Load())

	fmt.Fprintf(w, "# HELP toyquery_commands_by_keyword_total Commands by keyword\n")
	fmt.Fprintf(w, "# TYPE toyquery_commands_by_keyword_total counter\n")
	var keywords []string
	m.byKeyword.Range(func(k, _ any) bool {
		keywords = append(keywords, k.(string))
		return true
	})
	sort.Strings(keywords)
	for _, k := range keywords {
		fmt.Fprintf(w, "toyquery_commands_by_keyword_total{keyword=%q} %d\n", k, m.CommandCount(k))
	}

	counter("toyquery_commands_failed_total", "Commands answered with an error", m.CommandsFailed.Load())

	fmt.Fprintf(w, "# HELP toyquery_command_latency_avg_microseconds Average command latency\n")
	fmt.Fprintf(w, "# TYPE toyquery_command_latency_avg_microseconds gauge\n")
	fmt.Fprintf(w, "toyquery_command_latency_avg_microseconds %.2f\n", m.AverageLatency())

	gauge("toyquery_connections_active", "Current active connections", m.ActiveConnections.Load())
	counter("toyquery_connections_total", "Total connections", m.TotalConnections.Load())
	gauge("toyquery_databases_count", "Number of databases", m.DatabaseCount.Load())
	counter("toyquery_backups_completed_total", "Completed backup snapshots", m.BackupsCompleted.Load())
	counter("toyquery_backups_failed_total", "Failed backup snapshots", m.BackupsFailed.Load())
	counter("toyquery_auth_failures_total", "Failed authentication attempts", m.AuthFailures.Load())
}
