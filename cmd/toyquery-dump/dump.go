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

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"toyquery/internal/errors"
	"toyquery/internal/storage"
)

// Output formats.
const (
	FormatTab    = "tab"
	FormatJSON   = "json"
	FormatScript = "script"
)

// TableDump is the JSON form of one table. Each row starts with its id.
type TableDump struct {
	Attributes []string   `json:"attributes"`
	Rows       [][]string `json:"rows"`
}

// Dump writes database in format to w. An empty tables slice dumps every
// table of the database.
func Dump(w io.Writer, store *storage.Store, database string, tables []string, format string) error {
	switch format {
	case FormatTab, FormatJSON, FormatScript:
	default:
		return fmt.Errorf("unknown format %q (use tab, json or script)", format)
	}
	if !store.DatabaseExists(database) {
		return errors.DatabaseNotFound(database)
	}
	if len(tables) == 0 {
		var err error
		if tables, err = store.ListTables(database); err != nil {
			return err
		}
	}

	loaded := make([]*storage.Table, len(tables))
	for i, name := range tables {
		t, err := store.LoadTable(database, name)
		if err != nil {
			return err
		}
		loaded[i] = t
	}

	switch format {
	case FormatTab:
		return writeTab(w, tables, loaded)
	case FormatJSON:
		return writeJSON(w, tables, loaded)
	default:
		return writeScript(w, database, tables, loaded)
	}
}

func writeTab(w io.Writer, names []string, tables []*storage.Table) error {
	for i, t := range tables {
		if _, err := fmt.Fprintf(w, "== %s%s ==\n%s", names[i], storage.TableFileSuffix, t.String()); err != nil {
			return err
		}
	}
	return nil
}

func writeJSON(w io.Writer, names []string, tables []*storage.Table) error {
	out := make(map[string]TableDump, len(tables))
	for i, t := range tables {
		td := TableDump{Attributes: t.Attributes(), Rows: [][]string{}}
		for _, id := range t.IDs() {
			values, err := t.Values(id)
			if err != nil {
				return err
			}
			td.Rows = append(td.Rows, append([]string{strconv.Itoa(id)}, values...))
		}
		out[names[i]] = td
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

// writeScript writes commands that rebuild the database. Cells are stored
// as value literals, so they are replayed verbatim; ids are re-assigned.
func writeScript(w io.Writer, database string, names []string, tables []*storage.Table) error {
	var b strings.Builder
	fmt.Fprintf(&b, "CREATE DATABASE %s;\n", database)
	fmt.Fprintf(&b, "USE %s;\n", database)
	for i, t := range tables {
		b.WriteString("\n")
		if cols := t.Columns(); len(cols) > 0 {
			fmt.Fprintf(&b, "CREATE TABLE %s (%s);\n", names[i], strings.Join(cols, ", "))
		} else {
			fmt.Fprintf(&b, "CREATE TABLE %s;\n", names[i])
		}
		for _, id := range t.IDs() {
			values, err := t.Values(id)
			if err != nil {
				return err
			}
			fmt.Fprintf(&b, "INSERT INTO %s VALUES (%s);\n", names[i], strings.Join(values, ", "))
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}
