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

// Package client is a small client for the ToyQuery line protocol.
package client

import (
	"bufio"
	"fmt"
	"net"
	"strings"
	"sync"
	"time"

	"toyquery/internal/protocol"
)

// DefaultTimeout bounds a request when the caller has no better value. It
// exceeds the server's default lock timeout so a busy database is reported
// by the server rather than by a client timeout.
const DefaultTimeout = 30 * time.Second

// Conn is one connection to a ToyQuery server. It is safe for concurrent
// use; requests are sent one at a time.
type Conn struct {
	mu      sync.Mutex
	conn    net.Conn
	reader  *bufio.Reader
	timeout time.Duration
}

// Dial connects to addr. timeout bounds the dial and every later request;
// zero means no timeout.
func Dial(addr string, timeout time.Duration) (*Conn, error) {
	conn, err := net.DialTimeout("tcp", addr, timeout)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", addr, err)
	}
	return &Conn{
		conn:    conn,
		reader:  bufio.NewReader(conn),
		timeout: timeout,
	}, nil
}

// Send sends one line and returns the server's response.
func (c *Conn) Send(line string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.timeout > 0 {
		c.conn.SetDeadline(time.Now().Add(c.timeout))
		defer c.conn.SetDeadline(time.Time{})
	}
	if err := protocol.WriteRequest(c.conn, line); err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	response, err := protocol.ReadResponse(c.reader)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}
	return response, nil
}

// Ping checks that the server answers.
func (c *Conn) Ping() error {
	response, err := c.Send(protocol.CmdPing)
	if err != nil {
		return err
	}
	if response != protocol.ReplyPong {
		return fmt.Errorf("unexpected PING response: %q", response)
	}
	return nil
}

// Auth sends the password. It returns an error carrying the server's
// message when authentication fails.
func (c *Conn) Auth(password string) error {
	response, err := c.Send(protocol.CmdAuth + " " + password)
	if err != nil {
		return err
	}
	if response != protocol.ReplyAuthOK {
		return fmt.Errorf("%s", strings.TrimPrefix(response, "[ERROR] "))
	}
	return nil
}

// Close sends QUIT and closes the connection.
func (c *Conn) Close() error {
	c.Send(protocol.CmdQuit)
	return c.conn.Close()
}

// RemoteAddr returns the server address.
func (c *Conn) RemoteAddr() net.Addr {
	return c.conn.RemoteAddr()
}
