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

package storage

import (
	"sort"
	"strconv"
	"strings"

	"toyquery/internal/errors"
)

// IDAttribute is the implicit primary key column. It is never stored in the
// attribute list but is always rendered first.
const IDAttribute = "id"

// NullCell is the cell written when an attribute is added to existing rows.
const NullCell = "NULL"

const (
	fieldSeparator  = "\t"
	recordSeparator = "\n"
)

// Table is an in-memory schema-less table. Every cell is text; typing
// happens when a cell is compared.
//
// Invariant: len(records[id]) == len(attributes) for every row.
type Table struct {
	attributes []string
	index      map[string]int
	records    map[int][]string
	lastID     int
}

// NewTable returns an empty table with no attributes.
func NewTable() *Table {
	return &Table{
		index:   make(map[string]int),
		records: make(map[int][]string),
	}
}

// Attributes returns every attribute in schema order, id first.
func (t *Table) Attributes() []string {
	out := make([]string, 0, len(t.attributes)+1)
	out = append(out, IDAttribute)
	return append(out, t.attributes...)
}

// Columns returns the stored attributes in schema order, without id.
func (t *Table) Columns() []string {
	return append([]string(nil), t.attributes...)
}

// HasAttribute reports whether name is id or a stored attribute.
func (t *Table) HasAttribute(name string) bool {
	if name == IDAttribute {
		return true
	}
	_, ok := t.index[name]
	return ok
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.records)
}

// LastID returns the highest id ever assigned.
func (t *Table) LastID() int {
	return t.lastID
}

func (t *Table) column(name string) (int, error) {
	i, ok := t.index[name]
	if !ok {
		return 0, errors.AttributeMissing(name)
	}
	return i, nil
}

// AddAttribute appends a column and fills it with NULL in every row.
func (t *Table) AddAttribute(name string) error {
	if t.HasAttribute(name) {
		return errors.AttributeDuplicated(name)
	}
	t.index[name] = len(t.attributes)
	t.attributes = append(t.attributes, name)
	for id, row := range t.records {
		t.records[id] = append(row, NullCell)
	}
	return nil
}

// DropAttribute removes a column from the schema and from every row.
func (t *Table) DropAttribute(name string) error {
	if name == IDAttribute {
		return errors.InvalidOperation("Cannot drop primary key.")
	}
	col, err := t.column(name)
	if err != nil {
		return err
	}

	rows := make(map[int][]string, len(t.records))
	for id, row := range t.records {
		next := make([]string, 0, len(row)-1)
		next = append(next, row[:col]...)
		rows[id] = append(next, row[col+1:]...)
	}

	t.attributes = append(t.attributes[:col:col], t.attributes[col+1:]...)
	t.index = make(map[string]int, len(t.attributes))
	for i, a := range t.attributes {
		t.index[a] = i
	}
	t.records = rows
	return nil
}

// InsertRecord adds a row under the next id and returns that id. Within a
// loaded table ids are never reused, even after deletes.
func (t *Table) InsertRecord(values []string) (int, error) {
	id := t.lastID + 1
	if err := t.InsertRecordWithID(values, id); err != nil {
		return 0, err
	}
	return id, nil
}

// InsertRecordWithID adds a row under an explicit id and raises the id
// counter to at least id.
func (t *Table) InsertRecordWithID(values []string, id int) error {
	if _, ok := t.records[id]; ok {
		return errors.InvalidOperation("Duplicate primary key.")
	}
	if len(values) != len(t.attributes) {
		return errors.ArityMismatch(len(t.attributes), len(values))
	}
	for _, v := range values {
		if err := checkCell(v); err != nil {
			return err
		}
	}
	t.records[id] = append([]string(nil), values...)
	if id > t.lastID {
		t.lastID = id
	}
	return nil
}

// DeleteRecord removes a row.
func (t *Table) DeleteRecord(id int) error {
	if _, ok := t.records[id]; !ok {
		return errors.InvalidOperation("Id not exist.")
	}
	delete(t.records, id)
	return nil
}

// SetValue overwrites one cell. The id column is immutable.
func (t *Table) SetValue(attribute, value string, id int) error {
	if attribute == IDAttribute {
		return errors.InvalidOperation("Cannot update primary key.")
	}
	row, ok := t.records[id]
	if !ok {
		return errors.IDNotFound(id)
	}
	col, err := t.column(attribute)
	if err != nil {
		return err
	}
	if err := checkCell(value); err != nil {
		return err
	}
	row[col] = value
	return nil
}

// checkCell rejects text the .tab format cannot hold inside one field.
func checkCell(value string) error {
	if strings.ContainsAny(value, "\t\r\n") {
		return errors.InvalidOperation("Values cannot contain tabs or line breaks.")
	}
	return nil
}

// Value returns one cell. For id it returns the row id as text.
func (t *Table) Value(attribute string, id int) (string, error) {
	row, ok := t.records[id]
	if !ok {
		return "", errors.IDNotFound(id)
	}
	if attribute == IDAttribute {
		return strconv.Itoa(id), nil
	}
	col, err := t.column(attribute)
	if err != nil {
		return "", err
	}
	return row[col], nil
}

// Values returns a copy of a row's cells, without the id.
func (t *Table) Values(id int) ([]string, error) {
	row, ok := t.records[id]
	if !ok {
		return nil, errors.IDNotFound(id)
	}
	return append([]string(nil), row...), nil
}

// IDs returns every row id in ascending order.
func (t *Table) IDs() []int {
	ids := make([]int, 0, len(t.records))
	for id := range t.records {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// Match returns, in ascending order, the ids of rows whose cell for
// attribute satisfies pred. The id attribute is matched against the row id
// rendered as text.
func (t *Table) Match(attribute string, pred func(cell string) bool) ([]int, error) {
	col := -1
	if attribute != IDAttribute {
		var err error
		if col, err = t.column(attribute); err != nil {
			return nil, err
		}
	}

	var ids []int
	for _, id := range t.IDs() {
		cell := strconv.Itoa(id)
		if col >= 0 {
			cell = t.records[id][col]
		}
		if pred(cell) {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// String serializes the table: a header line "id<TAB>attr..." followed by
// one "id<TAB>cell..." line per row in ascending id order.
func (t *Table) String() string {
	var b strings.Builder
	b.WriteString(strings.Join(t.Attributes(), fieldSeparator))
	b.WriteString(recordSeparator)
	for _, id := range t.IDs() {
		b.WriteString(strconv.Itoa(id))
		for _, cell := range t.records[id] {
			b.WriteString(fieldSeparator)
			b.WriteString(cell)
		}
		b.WriteString(recordSeparator)
	}
	return b.String()
}

// StringWithoutID renders the table like String but without the id column.
func (t *Table) StringWithoutID() string {
	var b strings.Builder
	b.WriteString(strings.Join(t.attributes, fieldSeparator))
	b.WriteString(recordSeparator)
	for _, id := range t.IDs() {
		b.WriteString(strings.Join(t.records[id], fieldSeparator))
		b.WriteString(recordSeparator)
	}
	return b.String()
}

// ParseTable rebuilds a table from its String form. Surrounding blank lines
// and spaces are ignored; tabs are kept so empty trailing cells survive.
func ParseTable(blob string) (*Table, error) {
	t := NewTable()
	blob = strings.Trim(blob, " \r\n")
	if blob == "" {
		return t, nil
	}

	lines := strings.Split(blob, recordSeparator)
	header := strings.Split(strings.TrimSuffix(lines[0], "\r"), fieldSeparator)
	if header[0] != IDAttribute {
		return nil, errors.ImportFormat("Missing primary key.")
	}
	for _, name := range header[1:] {
		if err := t.AddAttribute(name); err != nil {
			return nil, err
		}
	}

	for _, line := range lines[1:] {
		line = strings.TrimSuffix(line, "\r")
		if line == "" {
			continue
		}
		fields := strings.Split(line, fieldSeparator)
		id, err := strconv.Atoi(fields[0])
		if err != nil {
			return nil, errors.ImportFormat("Invalid key: \"" + fields[0] + "\".")
		}
		if _, dup := t.records[id]; dup {
			return nil, errors.ImportFormat("Duplicated key: " + strconv.Itoa(id) + ".")
		}
		if err := t.InsertRecordWithID(fields[1:], id); err != nil {
			return nil, err
		}
	}
	return t, nil
}
