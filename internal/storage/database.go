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
Package storage holds ToyQuery's tables and the files they live in.

Layout on disk:
===============

	<data_dir>/
	├── school/              one directory per database
	│   ├── marks.tab        one tab-separated file per table
	│   └── coursework.tab
	└── shop/
	    └── orders.tab

A .tab file is the String form of a Table: a header line "id<TAB>attr..."
followed by one "id<TAB>cell..." line per row. Files are written through the
configured Encoder (UTF-8 by default).

Tables are not cached. Every command loads what it needs, works on an
in-memory copy and saves the whole table back only after it has fully
succeeded. The LockManager makes that cycle safe across connections.

Usage:
======

	store, err := storage.NewStore("/var/lib/toyquery", storage.UTF8Encoder{})
	if err != nil {
	    log.Fatal(err)
	}

	err = store.CreateDatabase("school")
	err = store.CreateTable("school", "marks", storage.NewTable())
	table, err := store.LoadTable("school", "marks")
*/
package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"toyquery/internal/errors"
	"toyquery/internal/logging"
)

// TableFileSuffix is the extension of table files.
const TableFileSuffix = ".tab"

var log = logging.NewLogger("storage")

var validName = regexp.MustCompile(`^[0-9a-zA-Z]+$`)

// ValidateName checks that a database or table name is plain alphanumeric
// text and therefore safe to use as a path element.
func ValidateName(name string) error {
	if !validName.MatchString(name) {
		return errors.InvalidName(name)
	}
	return nil
}

// Store maps databases to directories and tables to .tab files.
type Store struct {
	dataDir string
	encoder Encoder
	locks   *LockManager
}

// NewStore opens a data directory, creating it if needed. A nil encoder
// means UTF-8.
func NewStore(dataDir string, encoder Encoder) (*Store, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory '%s': %w", dataDir, err)
	}
	if encoder == nil {
		encoder = UTF8Encoder{}
	}
	return &Store{
		dataDir: dataDir,
		encoder: encoder,
		locks:   NewLockManager(),
	}, nil
}

// DataDir returns the root directory.
func (s *Store) DataDir() string { return s.dataDir }

// Encoder returns the file encoder.
func (s *Store) Encoder() Encoder { return s.encoder }

// Locks returns the per-database lock manager.
func (s *Store) Locks() *LockManager { return s.locks }

// DatabasePath returns the directory of a database.
func (s *Store) DatabasePath(database string) string {
	return filepath.Join(s.dataDir, database)
}

// TablePath returns the file of a table.
func (s *Store) TablePath(database, table string) string {
	return filepath.Join(s.dataDir, database, table+TableFileSuffix)
}

// DatabaseExists reports whether the database directory exists.
func (s *Store) DatabaseExists(database string) bool {
	if ValidateName(database) != nil {
		return false
	}
	info, err := os.Stat(s.DatabasePath(database))
	return err == nil && info.IsDir()
}

// CreateDatabase creates an empty database directory.
func (s *Store) CreateDatabase(database string) error {
	if err := ValidateName(database); err != nil {
		return err
	}
	if s.DatabaseExists(database) {
		return errors.DatabaseExists(database)
	}
	if err := os.Mkdir(s.DatabasePath(database), 0755); err != nil {
		return errors.IOError("create database", database, err)
	}
	log.Info("Database created", "database", database)
	return nil
}

// DropDatabase deletes every file of a database, then its directory.
func (s *Store) DropDatabase(database string) error {
	if !s.DatabaseExists(database) {
		return errors.DatabaseNotFound(database)
	}
	dir := s.DatabasePath(database)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return errors.IOError("delete database", database, err)
	}
	for _, e := range entries {
		if err := os.Remove(filepath.Join(dir, e.Name())); err != nil {
			return errors.IOError("delete database", database, err)
		}
	}
	if err := os.Remove(dir); err != nil {
		return errors.IOError("delete database", database, err)
	}
	log.Info("Database dropped", "database", database, "files", len(entries))
	return nil
}

// ListDatabases returns database names in lexical order.
func (s *Store) ListDatabases() ([]string, error) {
	entries, err := os.ReadDir(s.dataDir)
	if err != nil {
		return nil, errors.IOError("read", s.dataDir, err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() && ValidateName(e.Name()) == nil {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// TableExists reports whether a table file exists.
func (s *Store) TableExists(database, table string) bool {
	if ValidateName(database) != nil || ValidateName(table) != nil {
		return false
	}
	info, err := os.Stat(s.TablePath(database, table))
	return err == nil && !info.IsDir()
}

// ListTables returns the tables of a database in lexical order.
func (s *Store) ListTables(database string) ([]string, error) {
	if !s.DatabaseExists(database) {
		return nil, errors.DatabaseNotFound(database)
	}
	entries, err := os.ReadDir(s.DatabasePath(database))
	if err != nil {
		return nil, errors.IOError("read database", database, err)
	}
	var names []string
	for _, e := range entries {
		name := e.Name()
		if !e.IsDir() && strings.HasSuffix(name, TableFileSuffix) {
			names = append(names, strings.TrimSuffix(name, TableFileSuffix))
		}
	}
	sort.Strings(names)
	return names, nil
}

func (s *Store) checkTable(database, table string) error {
	if err := ValidateName(table); err != nil {
		return err
	}
	if !s.DatabaseExists(database) {
		return errors.DatabaseNotFound(database)
	}
	return nil
}

// CreateTable writes a new table file. It fails if the table exists.
func (s *Store) CreateTable(database, table string, t *Table) error {
	if err := s.checkTable(database, table); err != nil {
		return err
	}
	if s.TableExists(database, table) {
		return errors.TableExists(table)
	}
	return s.SaveTable(database, table, t)
}

// LoadTable reads and parses a table file.
func (s *Store) LoadTable(database, table string) (*Table, error) {
	if err := s.checkTable(database, table); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.TablePath(database, table))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.TableNotFound(table)
		}
		return nil, errors.IOError("read table", table, err)
	}
	text, err := s.encoder.Decode(data)
	if err != nil {
		return nil, errors.IOError("decode table", table, err)
	}
	return ParseTable(text)
}

// SaveTable replaces a table file. The new content is written to a
// temporary file first and renamed over the old one.
func (s *Store) SaveTable(database, table string, t *Table) error {
	if err := s.checkTable(database, table); err != nil {
		return err
	}
	data, err := s.encoder.Encode(t.String())
	if err != nil {
		return errors.IOError("encode table", table, err)
	}

	path := s.TablePath(database, table)
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+table+"-*.tmp")
	if err != nil {
		return errors.IOError("write table", table, err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return errors.IOError("write table", table, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return errors.IOError("write table", table, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return errors.IOError("write table", table, err)
	}
	log.Debug("Table saved", "database", database, "table", table, "rows", t.Len(), "bytes", len(data))
	return nil
}

// DropTable deletes a table file.
func (s *Store) DropTable(database, table string) error {
	if err := s.checkTable(database, table); err != nil {
		return err
	}
	if !s.TableExists(database, table) {
		return errors.TableNotFound(table)
	}
	if err := os.Remove(s.TablePath(database, table)); err != nil {
		return errors.IOError("delete table", table, err)
	}
	log.Info("Table dropped", "database", database, "table", table)
	return nil
}
