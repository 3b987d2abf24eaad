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

package server

import (
	"bufio"
	"fmt"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"toyquery/internal/auth"
	"toyquery/internal/client"
	"toyquery/internal/metrics"
	"toyquery/internal/protocol"
	"toyquery/internal/sql"
	"toyquery/internal/storage"
)

const testPassword = "s3cret"

func setupTestServer(t *testing.T, withAuth bool) (*Server, string, *metrics.Metrics) {
	t.Helper()
	store, err := storage.NewStore(t.TempDir(), nil)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	m := metrics.New()
	exec := sql.NewExecutor(store, sql.Options{Metrics: m})

	opts := Options{Metrics: m}
	if withAuth {
		hash, err := auth.HashPassword(testPassword)
		if err != nil {
			t.Fatal(err)
		}
		opts.Auth = auth.NewAuthenticator(hash, m)
	}

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Failed to listen: %v", err)
	}
	srv := New(ln.Addr().String(), exec, opts)
	go srv.Serve(ln)
	<-srv.Ready()
	t.Cleanup(func() { srv.Stop() })

	return srv, ln.Addr().String(), m
}

func dial(t *testing.T, addr string) *client.Conn {
	t.Helper()
	conn, err := client.Dial(addr, 5*time.Second)
	if err != nil {
		t.Fatalf("Failed to connect: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func send(t *testing.T, conn *client.Conn, line string) string {
	t.Helper()
	response, err := conn.Send(line)
	if err != nil {
		t.Fatalf("Send(%q) failed: %v", line, err)
	}
	return response
}

func TestServerPing(t *testing.T) {
	_, addr, _ := setupTestServer(t, false)
	conn := dial(t, addr)
	if err := conn.Ping(); err != nil {
		t.Errorf("Ping failed: %v", err)
	}
	if got := send(t, conn, "ping"); got != "PONG" {
		t.Errorf("Expected PONG, got %q", got)
	}
}

func TestServerCommands(t *testing.T) {
	_, addr, _ := setupTestServer(t, false)
	conn := dial(t, addr)

	steps := []struct {
		line     string
		expected string
	}{
		{"CREATE DATABASE d;", "[OK]"},
		{"USE d;", "[OK]"},
		{"CREATE TABLE t(a,b);", "[OK]"},
		{"INSERT INTO t VALUES('x',1);", "[OK]"},
		{"SELECT * FROM t;", "[OK] 1 record(s) found.\nid\ta\tb\n1\tx\t1\n"},
		{"SELECT * FROM t WHERE a=1;", `[ERROR] Token "=" should be <Operator>.`},
		{"nonsense", `[ERROR] Token ";" is missing.`},
	}
	for _, step := range steps {
		if got := send(t, conn, step.line); got != step.expected {
			t.Errorf("%s\nexpected: %q\n     got: %q", step.line, step.expected, got)
		}
	}
}

func TestSessionsArePerConnection(t *testing.T) {
	_, addr, _ := setupTestServer(t, false)
	first := dial(t, addr)
	second := dial(t, addr)

	send(t, first, "CREATE DATABASE d;")
	send(t, first, "USE d;")
	send(t, first, "CREATE TABLE t;")

	if got := send(t, second, "SELECT * FROM t;"); got != "[ERROR] Database not specified." {
		t.Errorf("second connection should have no database, got %q", got)
	}
	if got := send(t, first, "SELECT * FROM t;"); !strings.HasPrefix(got, "[OK]") {
		t.Errorf("first connection lost its database: %q", got)
	}
}

func TestServerAuth(t *testing.T) {
	_, addr, m := setupTestServer(t, true)
	conn := dial(t, addr)

	if err := conn.Ping(); err != nil {
		t.Errorf("PING must work before AUTH: %v", err)
	}
	if got := send(t, conn, "CREATE DATABASE d;"); got != "[ERROR] Authentication required." {
		t.Errorf("Expected authentication required, got %q", got)
	}
	if err := conn.Auth("wrong"); err == nil || err.Error() != "Authentication failed." {
		t.Errorf("Expected authentication failure, got %v", err)
	}
	if err := conn.Auth(testPassword); err != nil {
		t.Fatalf("Auth failed: %v", err)
	}
	if got := send(t, conn, "CREATE DATABASE d;"); got != "[OK]" {
		t.Errorf("Expected [OK] after AUTH, got %q", got)
	}
	if got := m.AuthFailures.Load(); got != 1 {
		t.Errorf("Expected 1 auth failure, got %d", got)
	}
}

func TestServerQuit(t *testing.T) {
	_, addr, _ := setupTestServer(t, false)

	raw, err := net.Dial("tcp", addr)
	if err != nil {
		t.Fatal(err)
	}
	defer raw.Close()
	raw.SetDeadline(time.Now().Add(5 * time.Second))

	fmt.Fprint(raw, "QUIT\n")
	reader := bufio.NewReader(raw)
	got, err := protocol.ReadResponse(reader)
	if err != nil || got != "BYE" {
		t.Fatalf("Expected BYE, got %q (%v)", got, err)
	}
	if _, err := reader.ReadByte(); err == nil {
		t.Error("server should close the connection after QUIT")
	}
}

func TestConnectionMetrics(t *testing.T) {
	_, addr, m := setupTestServer(t, false)
	conn := dial(t, addr)
	if err := conn.Ping(); err != nil {
		t.Fatal(err)
	}
	if got := m.ActiveConnections.Load(); got != 1 {
		t.Errorf("Expected 1 active connection, got %d", got)
	}
	conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for m.ActiveConnections.Load() != 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if got := m.ActiveConnections.Load(); got != 0 {
		t.Errorf("Expected 0 active connections, got %d", got)
	}
	if got := m.TotalConnections.Load(); got != 1 {
		t.Errorf("Expected 1 total connection, got %d", got)
	}
}

func TestConcurrentWriters(t *testing.T) {
	_, addr, _ := setupTestServer(t, false)
	setup := dial(t, addr)
	send(t, setup, "CREATE DATABASE d;")
	send(t, setup, "USE d;")
	send(t, setup, "CREATE TABLE t(n);")

	const clients, inserts = 4, 10
	var wg sync.WaitGroup
	for c := 0; c < clients; c++ {
		wg.Add(1)
		go func(c int) {
			defer wg.Done()
			conn, err := client.Dial(addr, 5*time.Second)
			if err != nil {
				t.Error(err)
				return
			}
			defer conn.Close()
			conn.Send("USE d;")
			for i := 0; i < inserts; i++ {
				if got, err := conn.Send(fmt.Sprintf("INSERT INTO t VALUES(%d);", c*100+i)); err != nil || got != "[OK]" {
					t.Errorf("insert failed: %q %v", got, err)
				}
			}
		}(c)
	}
	wg.Wait()

	got := send(t, setup, "SELECT n FROM t;")
	if !strings.HasPrefix(got, fmt.Sprintf("[OK] %d record(s) found.", clients*inserts)) {
		t.Errorf("lost updates: %q", strings.SplitN(got, "\n", 2)[0])
	}
}

func TestStopClosesConnections(t *testing.T) {
	srv, addr, _ := setupTestServer(t, false)
	conn := dial(t, addr)
	if err := conn.Ping(); err != nil {
		t.Fatal(err)
	}
	if err := srv.Stop(); err != nil {
		t.Errorf("Stop failed: %v", err)
	}
	if _, err := conn.Send("PING"); err == nil {
		t.Error("connection should be closed after Stop")
	}
	if _, err := net.DialTimeout("tcp", addr, time.Second); err == nil {
		t.Error("listener should be closed after Stop")
	}
}
