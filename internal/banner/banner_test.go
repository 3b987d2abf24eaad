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

package banner

import (
	"bytes"
	"strings"
	"testing"

	"toyquery/internal/config"
)

func TestPrintServerWithConfig(t *testing.T) {
	Color = false
	cfg := config.DefaultConfig()
	cfg.DataDir = "/srv/toyquery"
	cfg.HTTP.Enabled = true

	var buf bytes.Buffer
	PrintServerWithConfigTo(&buf, cfg)
	out := buf.String()

	for _, want := range []string{
		"ToyQuery Server",
		"Port: :8888",
		"Data: /srv/toyquery",
		"Encoding: utf8",
		"Auth: off",
		"HTTP(:8080)",
		"LOGS START HERE",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("banner missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "\033[") {
		t.Error("colour codes written with Color disabled")
	}
}

func TestPrintServerWithAuth(t *testing.T) {
	Color = false
	cfg := config.DefaultConfig()
	cfg.Auth.PasswordHash = "$2a$10$abc"

	var buf bytes.Buffer
	PrintServerWithConfigTo(&buf, cfg)
	if !strings.Contains(buf.String(), "Auth: password (bcrypt)") {
		t.Errorf("auth state missing:\n%s", buf.String())
	}
	if strings.Contains(buf.String(), "$2a$10$abc") {
		t.Error("banner must not print the password hash")
	}
}
