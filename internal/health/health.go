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
Package health provides health checks for ToyQuery.

ENDPOINTS:
==========
The HTTP gateway serves the checker at:

	GET /health       - Overall health check
	GET /health/live  - Liveness check (is the process running?)
	GET /health/ready - Readiness check (is the service ready for traffic?)

STATUS VALUES:
==============
  - healthy: All checks pass
  - degraded: Some non-critical checks fail
  - unhealthy: Critical checks fail
*/
package health

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"toyquery/internal/logging"
)

// Status represents the health status.
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusUnhealthy Status = "unhealthy"
	StatusDegraded  Status = "degraded"
)

// CheckResult represents the result of a health check.
type CheckResult struct {
	Name    string `json:"name"`
	Status  Status `json:"status"`
	Message string `json:"message,omitempty"`
	Latency int64  `json:"latency_ms"`
}

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status    Status        `json:"status"`
	Timestamp string        `json:"timestamp"`
	Version   string        `json:"version,omitempty"`
	Checks    []CheckResult `json:"checks,omitempty"`
}

// Check is a function that performs a health check.
type Check func() CheckResult

// Checker manages health checks.
type Checker struct {
	mu      sync.RWMutex
	checks  map[string]Check
	version string
	logger  *logging.Logger
}

// NewChecker creates a new health checker.
func NewChecker(version string) *Checker {
	return &Checker{
		checks:  make(map[string]Check),
		version: version,
		logger:  logging.NewLogger("health"),
	}
}

// RegisterCheck registers a health check.
func (c *Checker) RegisterCheck(name string, check Check) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.checks[name] = check
}

// RunChecks runs all registered health checks in name order.
func (c *Checker) RunChecks() HealthResponse {
	c.mu.RLock()
	defer c.mu.RUnlock()

	response := HealthResponse{
		Status:    StatusHealthy,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Version:   c.version,
		Checks:    make([]CheckResult, 0, len(c.checks)),
	}

	names := make([]string, 0, len(c.checks))
	for name := range c.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		start := time.Now()
		result := c.checks[name]()
		result.Name = name
		result.Latency = time.Since(start).Milliseconds()
		response.Checks = append(response.Checks, result)

		if result.Status == StatusUnhealthy {
			c.logger.Warn("Health check failed", "check", name, "message", result.Message)
			response.Status = StatusUnhealthy
		} else if result.Status == StatusDegraded && response.Status == StatusHealthy {
			response.Status = StatusDegraded
		}
	}

	return response
}

// Liveness reports that the process is running without running any check.
func (c *Checker) Liveness() HealthResponse {
	return HealthResponse{
		Status:    StatusHealthy,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Version:   c.version,
	}
}

// IsHealthy returns true if all checks pass.
func (c *Checker) IsHealthy() bool {
	return c.RunChecks().Status == StatusHealthy
}

// Common health checks

// StorageCheck creates a storage health check.
func StorageCheck(checkFn func() error) Check {
	return func() CheckResult {
		if err := checkFn(); err != nil {
			return CheckResult{
				Status:  StatusUnhealthy,
				Message: err.Error(),
			}
		}
		return CheckResult{
			Status: StatusHealthy,
		}
	}
}

// DataDirCheck verifies that dir is a directory the server can write to.
func DataDirCheck(dir string) Check {
	return StorageCheck(func() error {
		info, err := os.Stat(dir)
		if err != nil {
			return err
		}
		if !info.IsDir() {
			return fmt.Errorf("%s is not a directory", dir)
		}
		probe, err := os.CreateTemp(dir, ".health-*")
		if err != nil {
			return fmt.Errorf("data directory is not writable: %w", err)
		}
		name := probe.Name()
		probe.Close()
		return os.Remove(filepath.Clean(name))
	})
}

// BackupCheck reports degraded when the most recent backup failed.
func BackupCheck(lastErr func() error) Check {
	return func() CheckResult {
		if err := lastErr(); err != nil {
			return CheckResult{
				Status:  StatusDegraded,
				Message: "last backup failed: " + err.Error(),
			}
		}
		return CheckResult{Status: StatusHealthy}
	}
}
