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
Package auth provides the optional password check of ToyQuery.

Authentication Overview:
========================

ToyQuery has no users. A server either runs open or is protected by a
single shared password whose bcrypt hash is configured as
auth.password_hash (or TOYQUERY_PASSWORD_HASH):

  - Line protocol: clients send "AUTH <password>" before any command.
  - HTTP gateway: requests carry "Authorization: Bearer <password>".

Security Considerations:
========================

  - Only the bcrypt hash is ever stored; toyquery -hash-password prints one.
  - bcrypt's comparison is constant-time.
  - A dummy comparison runs for malformed hashes so a failed check costs
    the same either way.
*/
package auth

import (
	"crypto/rand"
	"fmt"
	"math/big"

	"golang.org/x/crypto/bcrypt"

	"toyquery/internal/logging"
	"toyquery/internal/metrics"
)

// PasswordLength is the default length for generated passwords.
const PasswordLength = 16

// passwordCharset contains characters used for password generation.
// Excludes ambiguous characters (0, O, l, 1, I) for readability.
const passwordCharset = "abcdefghjkmnpqrstuvwxyzABCDEFGHJKMNPQRSTUVWXYZ23456789!@#$%^&*"

// DefaultBcryptCost is the default cost factor for bcrypt hashing.
const DefaultBcryptCost = 10

// dummyHash is compared against when the configured hash is unusable.
var dummyHash = []byte("$2a$10$7EqJtq98hPqEX7fNZaFWoOhi5BWX4Z3ZJ6Ky4hK0jI0v0dJmXm8e6")

var log = logging.NewLogger("auth")

// GenerateSecurePassword generates a cryptographically secure random password.
func GenerateSecurePassword(length int) (string, error) {
	if length <= 0 {
		length = PasswordLength
	}

	password := make([]byte, length)
	charsetLen := big.NewInt(int64(len(passwordCharset)))
	for i := 0; i < length; i++ {
		idx, err := rand.Int(rand.Reader, charsetLen)
		if err != nil {
			return "", fmt.Errorf("failed to generate secure random number: %w", err)
		}
		password[i] = passwordCharset[idx.Int64()]
	}
	return string(password), nil
}

// HashPassword returns the bcrypt hash of password for auth.password_hash.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", fmt.Errorf("password cannot be empty")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), DefaultBcryptCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// Authenticator checks passwords against the configured hash.
type Authenticator struct {
	hash    []byte
	metrics *metrics.Metrics
}

// NewAuthenticator creates an Authenticator. An empty hash disables
// authentication. m may be nil, in which case failures are counted in the
// global metrics.
func NewAuthenticator(passwordHash string, m *metrics.Metrics) *Authenticator {
	if m == nil {
		m = metrics.Get()
	}
	a := &Authenticator{metrics: m}
	if passwordHash != "" {
		a.hash = []byte(passwordHash)
		if _, err := bcrypt.Cost(a.hash); err != nil {
			log.Warn("Configured password hash is not a bcrypt hash; every login will fail", "error", err)
		}
	}
	return a
}

// Enabled reports whether a password is required.
func (a *Authenticator) Enabled() bool {
	return a != nil && len(a.hash) > 0
}

// Verify reports whether password matches. It always succeeds when
// authentication is disabled.
func (a *Authenticator) Verify(password string) bool {
	if !a.Enabled() {
		return true
	}
	err := bcrypt.CompareHashAndPassword(a.hash, []byte(password))
	if err == bcrypt.ErrHashTooShort {
		bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
	}
	if err != nil {
		a.metrics.AuthFailures.Add(1)
		return false
	}
	return true
}
