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

package sql

import "toyquery/internal/errors"

// Session is the state carried across the commands of one connection: the
// selected database. A Session belongs to a single connection and is not
// safe for concurrent use.
type Session struct {
	database string
}

// NewSession returns a session with no database selected.
func NewSession() *Session {
	return &Session{}
}

// NewSessionFor returns a session with database preselected.
func NewSessionFor(database string) *Session {
	return &Session{database: database}
}

// Database returns the selected database, or "" if none.
func (s *Session) Database() string {
	return s.database
}

// Use selects a database. The name is not checked.
func (s *Session) Use(database string) {
	s.database = database
}

// Clear deselects the database.
func (s *Session) Clear() {
	s.database = ""
}

// require returns the selected database or NoDatabaseSelected.
func (s *Session) require() (string, error) {
	if s.database == "" {
		return "", errors.NoDatabaseSelected()
	}
	return s.database, nil
}
