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

package auth

import (
	"strings"
	"testing"

	"toyquery/internal/metrics"
)

func TestDisabledAuthenticatorAcceptsEverything(t *testing.T) {
	a := NewAuthenticator("", metrics.New())
	if a.Enabled() {
		t.Error("empty hash must disable authentication")
	}
	if !a.Verify("") || !a.Verify("anything") {
		t.Error("disabled authenticator should accept any password")
	}
}

func TestVerify(t *testing.T) {
	hash, err := HashPassword("secret123")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	m := metrics.New()
	a := NewAuthenticator(hash, m)

	if !a.Enabled() {
		t.Fatal("authenticator should be enabled")
	}
	if !a.Verify("secret123") {
		t.Error("correct password rejected")
	}
	if a.Verify("wrong") {
		t.Error("wrong password accepted")
	}
	if a.Verify("") {
		t.Error("empty password accepted")
	}
	if got := m.AuthFailures.Load(); got != 2 {
		t.Errorf("expected 2 auth failures, got %d", got)
	}
}

func TestPasswordIsHashed(t *testing.T) {
	hash, err := HashPassword("secret123")
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(hash, "secret123") {
		t.Error("hash contains the plain password")
	}
	if !strings.HasPrefix(hash, "$2a$") {
		t.Errorf("expected a bcrypt hash, got %q", hash)
	}
	if _, err := HashPassword(""); err == nil {
		t.Error("empty password should not be hashed")
	}
}

func TestMalformedHashRejectsEverything(t *testing.T) {
	a := NewAuthenticator("not-a-hash", metrics.New())
	if a.Verify("not-a-hash") || a.Verify("") {
		t.Error("malformed hash must reject every password")
	}
}

func TestGenerateSecurePassword(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 10; i++ {
		p, err := GenerateSecurePassword(0)
		if err != nil {
			t.Fatal(err)
		}
		if len(p) != PasswordLength {
			t.Errorf("expected length %d, got %d", PasswordLength, len(p))
		}
		if strings.ContainsAny(p, "0OlI1") {
			t.Errorf("password %q contains ambiguous characters", p)
		}
		seen[p] = true
	}
	if len(seen) < 10 {
		t.Error("generated passwords repeat")
	}
}
