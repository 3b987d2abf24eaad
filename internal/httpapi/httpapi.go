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
Package httpapi implements the ToyQuery HTTP gateway.

ENDPOINTS:
==========

	POST /api/query      - Run one command
	GET  /api/databases  - List databases and their tables
	GET  /health         - All health checks
	GET  /health/live    - Liveness
	GET  /health/ready   - Readiness
	GET  /metrics        - Prometheus text format

QUERY REQUEST:
==============

	POST /api/query
	{"database": "school", "command": "SELECT * FROM student;"}

	200 OK
	{"ok": true, "result": "[OK] 4 record(s) found.\n...", "database": "school"}

Every request runs in a fresh session preset to "database", so a USE in
one request does not carry over to the next. Command errors are answered
with 200 and "ok": false; the result holds the "[ERROR] ..." text.

When a password hash is configured, /api routes require
"Authorization: Bearer <password>". Health and metrics stay open.
*/
package httpapi

import (
	"context"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"toyquery/internal/auth"
	"toyquery/internal/errors"
	"toyquery/internal/health"
	"toyquery/internal/logging"
	"toyquery/internal/metrics"
	"toyquery/internal/sql"
)

var log = logging.NewLogger("http")

// QueryRequest is the body of POST /api/query.
type QueryRequest struct {
	Database string `json:"database"`
	Command  string `json:"command" binding:"required"`
}

// QueryResponse is the answer of POST /api/query.
type QueryResponse struct {
	OK       bool   `json:"ok"`
	Result   string `json:"result"`
	Database string `json:"database,omitempty"`
}

// DatabaseInfo describes one database in GET /api/databases.
type DatabaseInfo struct {
	Name   string   `json:"name"`
	Tables []string `json:"tables"`
}

// ErrorResponse is returned for requests that never reach the executor.
type ErrorResponse struct {
	Error string `json:"error"`
}

// Options configure a Gateway.
type Options struct {
	// Auth protects /api routes. Nil disables authentication.
	Auth *auth.Authenticator

	// Health backs the /health routes. Nil means a checker without checks.
	Health *health.Checker

	// Metrics is exposed at /metrics. Defaults to metrics.Get().
	Metrics *metrics.Metrics

	// CORSOrigins lists allowed origins; "*" allows all.
	CORSOrigins []string
}

// Gateway serves the HTTP API.
type Gateway struct {
	executor *sql.Executor
	opts     Options
	engine   *gin.Engine

	mu     sync.Mutex
	server *http.Server
	closed bool
}

// New creates a gateway over executor.
func New(executor *sql.Executor, opts Options) *Gateway {
	if opts.Metrics == nil {
		opts.Metrics = metrics.Get()
	}
	if opts.Health == nil {
		opts.Health = health.NewChecker("")
	}
	if len(opts.CORSOrigins) == 0 {
		opts.CORSOrigins = []string{"*"}
	}
	g := &Gateway{executor: executor, opts: opts}
	g.engine = g.routes()
	return g
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.DefaultConfig()
	for _, o := range origins {
		if o == "*" {
			cfg.AllowAllOrigins = true
		}
	}
	if !cfg.AllowAllOrigins {
		cfg.AllowOrigins = origins
	}
	cfg.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	cfg.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization"}
	cfg.MaxAge = 12 * time.Hour
	return cfg
}

func (g *Gateway) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestLogger())
	r.Use(cors.New(corsConfig(g.opts.CORSOrigins)))

	api := r.Group("/api")
	api.Use(g.requireAuth())
	{
		api.POST("/query", g.handleQuery)
		api.GET("/databases", g.handleDatabases)
	}

	r.GET("/health", g.handleHealth)
	r.GET("/health/live", g.handleLiveness)
	r.GET("/health/ready", g.handleReadiness)
	r.GET("/metrics", g.handleMetrics)
	return r
}

// Handler returns the gateway as an http.Handler.
func (g *Gateway) Handler() http.Handler {
	return g.engine
}

// Serve serves on ln until Shutdown is called.
func (g *Gateway) Serve(ln net.Listener) error {
	srv := &http.Server{
		Handler:           g.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		ln.Close()
		return nil
	}
	g.server = srv
	g.mu.Unlock()

	log.Info("HTTP gateway listening", "address", ln.Addr().String())
	if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
		log.Error("HTTP gateway error", "error", err)
		return err
	}
	return nil
}

// ListenAndServe listens on addr and serves until Shutdown is called.
func (g *Gateway) ListenAndServe(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return g.Serve(ln)
}

// Shutdown stops the gateway, waiting for requests in flight.
func (g *Gateway) Shutdown(ctx context.Context) error {
	g.mu.Lock()
	g.closed = true
	srv := g.server
	g.mu.Unlock()
	if srv == nil {
		return nil
	}
	log.Info("Stopping HTTP gateway")
	return srv.Shutdown(ctx)
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Debug("HTTP request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"client", c.ClientIP(),
			"duration", time.Since(start))
	}
}

func (g *Gateway) requireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !g.opts.Auth.Enabled() {
			c.Next()
			return
		}
		header := c.GetHeader("Authorization")
		password, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || !g.opts.Auth.Verify(password) {
			msg := errors.AuthenticationRequired().Error()
			if ok {
				msg = errors.AuthenticationFailed().Error()
			}
			log.Warn("Rejected HTTP request", "client", c.ClientIP(), "path", c.Request.URL.Path)
			c.Header("WWW-Authenticate", `Bearer realm="toyquery"`)
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: msg})
			return
		}
		c.Next()
	}
}

func (g *Gateway) handleQuery(c *gin.Context) {
	var req QueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body: " + err.Error()})
		return
	}

	sess := sql.NewSessionFor(req.Database)
	result := g.executor.Run(c.Request.Context(), sess, req.Command)
	c.JSON(http.StatusOK, QueryResponse{
		OK:       !strings.HasPrefix(result, "[ERROR]"),
		Result:   result,
		Database: sess.Database(),
	})
}

func (g *Gateway) handleDatabases(c *gin.Context) {
	store := g.executor.Store()
	names, err := store.ListDatabases()
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}
	out := make([]DatabaseInfo, 0, len(names))
	for _, name := range names {
		tables, err := store.ListTables(name)
		if err != nil {
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
			return
		}
		if tables == nil {
			tables = []string{}
		}
		out = append(out, DatabaseInfo{Name: name, Tables: tables})
	}
	c.JSON(http.StatusOK, out)
}

func (g *Gateway) handleHealth(c *gin.Context) {
	resp := g.opts.Health.RunChecks()
	status := http.StatusOK
	if resp.Status != health.StatusHealthy {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, resp)
}

func (g *Gateway) handleLiveness(c *gin.Context) {
	c.JSON(http.StatusOK, g.opts.Health.Liveness())
}

func (g *Gateway) handleReadiness(c *gin.Context) {
	resp := g.opts.Health.RunChecks()
	status := http.StatusOK
	if resp.Status == health.StatusUnhealthy {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, resp)
}

func (g *Gateway) handleMetrics(c *gin.Context) {
	c.Header("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
	c.Status(http.StatusOK)
	g.opts.Metrics.WritePrometheus(c.Writer)
}
