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
Package server implements the ToyQuery TCP server.

Server Architecture Overview:
=============================

The server accepts TCP connections and handles each one in its own
goroutine. Every connection owns one sql.Session, so USE on one
connection never affects another. The executor is shared; it serialises
work per database with the store's lock manager.

Connection Lifecycle:
=====================

  1. Client connects via TCP
  2. Server spawns a goroutine and creates a session
  3. Client sends newline-terminated lines (see package protocol)
  4. Server answers each line with an EOT-framed response
  5. Connection closes on QUIT, client disconnect, or Stop

Authentication:
===============

When a password hash is configured, every line other than PING, AUTH and
QUIT is answered with "[ERROR] Authentication required." until the
connection sends a correct AUTH.
*/
package server

import (
	"bufio"
	"context"
	"net"
	"strings"
	"sync"
	"time"

	"toyquery/internal/auth"
	"toyquery/internal/errors"
	"toyquery/internal/logging"
	"toyquery/internal/metrics"
	"toyquery/internal/protocol"
	"toyquery/internal/sql"
)

// Package-level logger for the server component.
var log = logging.NewLogger("server")

// Server is the ToyQuery line-protocol server.
type Server struct {
	addr     string
	executor *sql.Executor
	auth     *auth.Authenticator
	metrics  *metrics.Metrics

	mu       sync.Mutex
	listener net.Listener
	conns    map[net.Conn]struct{}
	stopCh   chan struct{}
	stopped  bool
	ready    chan struct{}
	wg       sync.WaitGroup
}

// Options configure optional parts of a Server.
type Options struct {
	// Auth checks AUTH passwords. Nil disables authentication.
	Auth *auth.Authenticator

	// Metrics counts connections. Defaults to metrics.Get().
	Metrics *metrics.Metrics
}

// New creates a server that will listen on addr and run commands with
// executor.
func New(addr string, executor *sql.Executor, opts Options) *Server {
	if opts.Metrics == nil {
		opts.Metrics = metrics.Get()
	}
	return &Server{
		addr:     addr,
		executor: executor,
		auth:     opts.Auth,
		metrics:  opts.Metrics,
		conns:    make(map[net.Conn]struct{}),
		stopCh:   make(chan struct{}),
		ready:    make(chan struct{}),
	}
}

// Start listens on the configured address and runs the accept loop. It
// blocks until Stop is called and returns nil in that case.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		log.Error("Failed to start listener", "address", s.addr, "error", err)
		return err
	}
	return s.Serve(ln)
}

// Serve runs the accept loop on ln.
func (s *Server) Serve(ln net.Listener) error {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		ln.Close()
		return nil
	}
	s.listener = ln
	close(s.ready)
	s.mu.Unlock()

	log.Info("Line protocol listening", "address", ln.Addr().String())

	for {
		conn, err := ln.Accept()
		if err != nil {
			select {
			case <-s.stopCh:
				log.Info("Server stopped, exiting accept loop")
				return nil
			default:
			}
			log.Warn("Accept error", "error", err)
			time.Sleep(10 * time.Millisecond)
			continue
		}

		if !s.track(conn) {
			conn.Close()
			return nil
		}
		log.Debug("New connection accepted", "remote_addr", conn.RemoteAddr().String())
		s.wg.Add(1)
		go s.handleConnection(conn)
	}
}

// Addr returns the listening address once the server is ready, or nil.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Ready is closed once the listener is open.
func (s *Server) Ready() <-chan struct{} {
	return s.ready
}

// Stop closes the listener and every open connection, then waits for the
// connection goroutines to finish.
func (s *Server) Stop() error {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return nil
	}
	s.stopped = true
	close(s.stopCh)

	var err error
	if s.listener != nil {
		err = s.listener.Close()
	}
	for conn := range s.conns {
		conn.Close()
	}
	s.mu.Unlock()

	s.wg.Wait()
	log.Info("Server stopped")
	return err
}

func (s *Server) track(conn net.Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return false
	}
	s.conns[conn] = struct{}{}
	return true
}

func (s *Server) untrack(conn net.Conn) {
	s.mu.Lock()
	delete(s.conns, conn)
	s.mu.Unlock()
}

// handleConnection serves one client until it disconnects or sends QUIT.
func (s *Server) handleConnection(conn net.Conn) {
	remoteAddr := conn.RemoteAddr().String()
	connLog := log.With("remote_addr", remoteAddr)
	connStart := time.Now()
	sess := sql.NewSession()
	authenticated := !s.auth.Enabled()
	commands := 0

	s.metrics.ConnectionOpened()
	connLog.Info("Client connection established")

	defer func() {
		s.metrics.ConnectionClosed()
		s.untrack(conn)
		conn.Close()
		connLog.Info("Client connection terminated",
			"duration", time.Since(connStart),
			"commands", commands,
			"database", sess.Database())
		s.wg.Done()
	}()

	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 0, 4096), protocol.MaxLineSize)
	writer := bufio.NewWriter(conn)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		commands++

		word, rest := protocol.SplitControl(line)
		reqCtx := logging.NewRequestContext(remoteAddr, word)

		var response string
		quit := false
		switch word {
		case protocol.CmdPing:
			response = protocol.ReplyPong
		case protocol.CmdQuit:
			response = protocol.ReplyBye
			quit = true
		case protocol.CmdAuth:
			if s.auth.Verify(rest) {
				authenticated = true
				response = protocol.ReplyAuthOK
				connLog.Info("Client authenticated")
			} else {
				response = errors.Render(errors.AuthenticationFailed())
				connLog.Warn("Authentication failed")
			}
		default:
			if !authenticated {
				response = errors.Render(errors.AuthenticationRequired())
			} else {
				response = s.executor.Run(context.Background(), sess, line)
			}
		}

		if strings.HasPrefix(response, "[ERROR]") {
			reqCtx.LogError(log, response, "database", sess.Database())
		} else {
			reqCtx.LogComplete(log, "database", sess.Database())
		}

		if err := protocol.WriteResponse(writer, response); err != nil {
			connLog.Debug("Write failed", "error", err)
			return
		}
		if err := writer.Flush(); err != nil {
			connLog.Debug("Flush failed", "error", err)
			return
		}
		if quit {
			return
		}
	}

	if err := scanner.Err(); err != nil {
		connLog.Debug("Connection read error", "error", err)
	}
}
