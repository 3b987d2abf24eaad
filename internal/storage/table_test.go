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
	"reflect"
	"strconv"
	"testing"

	"toyquery/internal/errors"
)

const peopleTable = "id\tName\tAge\tEmail\n" +
	"1\tBob\t21\tbob@bob.net\n" +
	"2\tHarry\t32\tharry@harry.com\n" +
	"3\tChris\t42\tchris@chris.ac.uk\n"

func mustParse(t *testing.T, blob string) *Table {
	t.Helper()
	table, err := ParseTable(blob)
	if err != nil {
		t.Fatalf("ParseTable failed: %v", err)
	}
	return table
}

func checkArity(t *testing.T, table *Table) {
	t.Helper()
	n := len(table.Columns())
	for _, id := range table.IDs() {
		row, _ := table.Values(id)
		if len(row) != n {
			t.Fatalf("row %d has %d cells, schema has %d attributes", id, len(row), n)
		}
	}
}

func TestAddDropAttribute(t *testing.T) {
	table := NewTable()
	if err := table.AddAttribute("name"); err != nil {
		t.Fatal(err)
	}
	if err := table.AddAttribute("number"); err != nil {
		t.Fatal(err)
	}
	if got := table.Attributes(); !reflect.DeepEqual(got, []string{"id", "name", "number"}) {
		t.Errorf("unexpected attributes: %v", got)
	}

	if err := table.DropAttribute("name"); err != nil {
		t.Fatal(err)
	}
	if got := table.Attributes(); !reflect.DeepEqual(got, []string{"id", "number"}) {
		t.Errorf("unexpected attributes after drop: %v", got)
	}

	if err := table.DropAttribute("phone"); errors.CodeOf(err) != errors.ErrCodeAttributeMissing {
		t.Errorf("expected AttributeMissing, got %v", err)
	}
	if err := table.AddAttribute("number"); errors.CodeOf(err) != errors.ErrCodeAttributeDuplicated {
		t.Errorf("expected AttributeDuplicated, got %v", err)
	}
	if err := table.AddAttribute("id"); errors.CodeOf(err) != errors.ErrCodeAttributeDuplicated {
		t.Errorf("expected AttributeDuplicated for id, got %v", err)
	}
	if err := table.DropAttribute("id"); err == nil || err.Error() != "Invalid operation: Cannot drop primary key." {
		t.Errorf("expected primary key error, got %v", err)
	}
}

func TestAddAttributeBackfillsNull(t *testing.T) {
	table := mustParse(t, peopleTable)
	if err := table.AddAttribute("Phone"); err != nil {
		t.Fatal(err)
	}
	checkArity(t, table)
	for _, id := range table.IDs() {
		v, _ := table.Value("Phone", id)
		if v != NullCell {
			t.Errorf("row %d: expected NULL, got %q", id, v)
		}
	}
}

func TestDropAttributeKeepsOrder(t *testing.T) {
	table := mustParse(t, peopleTable)
	if err := table.DropAttribute("Age"); err != nil {
		t.Fatal(err)
	}
	checkArity(t, table)
	expected := "id\tName\tEmail\n1\tBob\tbob@bob.net\n2\tHarry\tharry@harry.com\n3\tChris\tchris@chris.ac.uk\n"
	if table.String() != expected {
		t.Errorf("expected %q, got %q", expected, table.String())
	}
	// The remaining columns are still addressable by name.
	if v, _ := table.Value("Email", 2); v != "harry@harry.com" {
		t.Errorf("expected harry@harry.com, got %q", v)
	}
}

func TestInsertDeleteRecords(t *testing.T) {
	table := NewTable()
	table.AddAttribute("name")
	table.AddAttribute("number")

	if id, err := table.InsertRecord([]string{"tony", "123"}); err != nil || id != 1 {
		t.Fatalf("expected id 1, got %d (%v)", id, err)
	}
	if id, _ := table.InsertRecord([]string{"jack", "456"}); id != 2 {
		t.Fatalf("expected id 2, got %d", id)
	}
	if err := table.InsertRecordWithID([]string{"tom", "456"}, 4); err != nil {
		t.Fatal(err)
	}
	if err := table.InsertRecordWithID([]string{"tom", "456"}, 4); err == nil || err.Error() != "Invalid operation: Duplicate primary key." {
		t.Errorf("expected duplicate key error, got %v", err)
	}
	if err := table.DeleteRecord(4); err != nil {
		t.Fatal(err)
	}
	if err := table.DeleteRecord(20); err == nil || err.Error() != "Invalid operation: Id not exist." {
		t.Errorf("expected id not exist error, got %v", err)
	}

	// Ids are never reused after a delete.
	if id, _ := table.InsertRecord([]string{"amy", "789"}); id != 5 {
		t.Errorf("expected id 5, got %d", id)
	}
}

func TestInsertArityMismatch(t *testing.T) {
	table := NewTable()
	table.AddAttribute("a")
	table.AddAttribute("b")

	_, err := table.InsertRecord([]string{"x"})
	if err == nil || err.Error() != "Invalid operation: 2 value(s) expected but 1 value(s) inserted." {
		t.Errorf("unexpected error: %v", err)
	}
	if table.Len() != 0 || table.LastID() != 0 {
		t.Error("failed insert must not change the table")
	}
}

func TestExplicitIDRaisesCounter(t *testing.T) {
	table := NewTable()
	table.AddAttribute("a")
	table.InsertRecord([]string{"x"})
	table.InsertRecordWithID([]string{"y"}, 10)

	id, _ := table.InsertRecord([]string{"z"})
	if id <= 10 {
		t.Errorf("auto id %d must exceed explicit id 10", id)
	}
}

func TestSetValue(t *testing.T) {
	table := mustParse(t, peopleTable)

	if err := table.SetValue("Age", "33", 2); err != nil {
		t.Fatal(err)
	}
	if v, _ := table.Value("Age", 2); v != "33" {
		t.Errorf("expected 33, got %q", v)
	}

	tests := []struct {
		name      string
		attribute string
		id        int
		expected  string
	}{
		{"primary key", "id", 1, "Invalid operation: Cannot update primary key."},
		{"unknown id", "Age", 9, "Id not found: 9."},
		{"unknown attribute", "Phone", 1, `Attribute "Phone" is missing.`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := table.SetValue(tt.attribute, "x", tt.id)
			if err == nil || err.Error() != tt.expected {
				t.Errorf("expected %q, got %v", tt.expected, err)
			}
		})
	}
}

func TestValueOfID(t *testing.T) {
	table := mustParse(t, peopleTable)
	if v, err := table.Value("id", 3); err != nil || v != "3" {
		t.Errorf("expected \"3\", got %q (%v)", v, err)
	}
}

func TestRoundTrip(t *testing.T) {
	table := mustParse(t, peopleTable)
	if table.String() != peopleTable {
		t.Errorf("round trip mismatch:\n%q\n%q", peopleTable, table.String())
	}
	again := mustParse(t, table.String())
	if !reflect.DeepEqual(again, table) {
		t.Error("parse(serialize(t)) differs from t")
	}
}

func TestParseTableTrimsAndKeepsEmptyCells(t *testing.T) {
	table := mustParse(t, "\n\n  id\ta\tb\n1\tx\t\n\n")
	if v, _ := table.Value("b", 1); v != "" {
		t.Errorf("expected empty trailing cell, got %q", v)
	}
	checkArity(t, table)
}

func TestParseTableErrors(t *testing.T) {
	tests := []struct {
		name     string
		blob     string
		expected string
	}{
		{"missing primary key", "name\tage\n1\tbob\n", "Missing primary key."},
		{"duplicated key", "id\tname\n1\tbob\n1\tamy\n", "Duplicated key: 1."},
		{"invalid key", "id\tname\nx\tbob\n", `Invalid key: "x".`},
		{"arity", "id\tname\n1\tbob\textra\n", "Invalid operation: 1 value(s) expected but 2 value(s) inserted."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseTable(tt.blob)
			if err == nil || err.Error() != tt.expected {
				t.Errorf("expected %q, got %v", tt.expected, err)
			}
		})
	}
}

func TestParseEmptyTable(t *testing.T) {
	table := mustParse(t, "   \n")
	if table.Len() != 0 || len(table.Columns()) != 0 {
		t.Error("expected an empty table")
	}
	if table.String() != "id\n" {
		t.Errorf("unexpected rendering %q", table.String())
	}
}

func TestStringWithoutID(t *testing.T) {
	table := mustParse(t, peopleTable)
	table.DropAttribute("Email")
	expected := "Name\tAge\nBob\t21\nHarry\t32\nChris\t42\n"
	if got := table.StringWithoutID(); got != expected {
		t.Errorf("expected %q, got %q", expected, got)
	}
}

func TestMatch(t *testing.T) {
	table := mustParse(t, "id\tname\tage\n"+
		"1\tdesmond\t22\n"+
		"2\tpeter\t35\n"+
		"3\tparker\t5\n"+
		"4\ttony\t50\n"+
		"5\tpeaky\t66\n"+
		"6\tblinder\tnull\n")

	ids, err := table.Match("age", func(cell string) bool {
		n, err := strconv.Atoi(cell)
		return err == nil && n >= 25
	})
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(ids, []int{2, 4, 5}) {
		t.Errorf("expected [2 4 5], got %v", ids)
	}

	ids, _ = table.Match("id", func(cell string) bool { return cell == "6" })
	if !reflect.DeepEqual(ids, []int{6}) {
		t.Errorf("expected [6], got %v", ids)
	}

	if _, err := table.Match("height", func(string) bool { return true }); err == nil {
		t.Error("expected AttributeMissing")
	}
}

func TestCellsRejectSeparators(t *testing.T) {
	for _, cell := range []string{"'p\tq'", "'p\nq'", "'p\rq'"} {
		table := mustParse(t, peopleTable)
		if _, err := table.InsertRecord([]string{cell, "1", "x"}); err == nil {
			t.Errorf("insert of %q should fail", cell)
		}
		if err := table.SetValue("Name", cell, 1); err == nil {
			t.Errorf("update to %q should fail", cell)
		}
		if table.String() != peopleTable {
			t.Errorf("rejected %q changed the table: %q", cell, table.String())
		}
	}
}

func TestParseTableRebuildsLastIDFromRows(t *testing.T) {
	table := mustParse(t, peopleTable)
	if err := table.DeleteRecord(3); err != nil {
		t.Fatal(err)
	}
	if id, _ := table.InsertRecord([]string{"Dana", "30", "x"}); id != 4 {
		t.Errorf("expected id 4 within one table, got %d", id)
	}

	// The file holds no counter, so a reload starts after the highest id left.
	table.DeleteRecord(4)
	reloaded := mustParse(t, table.String())
	if reloaded.LastID() != 2 {
		t.Errorf("expected last id 2 after reload, got %d", reloaded.LastID())
	}
}
