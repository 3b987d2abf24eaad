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

package errors

import (
	stderrors "errors"
	"fmt"
	"os"
	"testing"
)

func TestMessages(t *testing.T) {
	tests := []struct {
		name     string
		err      *QueryError
		expected string
		category Category
	}{
		{"missing token", MissingToken(`";"`), `Token ";" is missing.`, CategorySyntax},
		{"unexpected token", UnexpectedToken("x", `"FROM"`), `Token "x" should be "FROM".`, CategorySyntax},
		{"remaining tokens", RemainingTokens("extra"), `Redundant token(s) start from "extra".`, CategorySyntax},
		{"invalid keyword", InvalidKeyword("SHOW"), `Token "SHOW" is invalid.`, CategorySyntax},
		{"unmatched quote", UnmatchedQuote("'abc"), `Unmatched quote in "'abc".`, CategoryLex},
		{"no database", NoDatabaseSelected(), "Database not specified.", CategorySession},
		{"duplicated", AttributeDuplicated("id"), `Attribute "id" is duplicated.`, CategorySchema},
		{"missing attribute", AttributeMissing("age"), `Attribute "age" is missing.`, CategorySchema},
		{"arity", ArityMismatch(2, 3), "Invalid operation: 2 value(s) expected but 3 value(s) inserted.", CategorySchema},
		{"id not found", IDNotFound(7), "Id not found: 7.", CategorySchema},
		{"invalid operation", InvalidOperation("Cannot drop primary key."), "Invalid operation: Cannot drop primary key.", CategorySchema},
		{"import", ImportFormat("Missing primary key."), "Missing primary key.", CategorySchema},
		{"operator mismatch", OperatorTypeMismatch("abc"), "Failed to process conditions. Operator for value abc is not valid.", CategoryCondition},
		{"literal", UnrecognizedLiteral("abc"), `"abc" is not a <Value>.`, CategoryValue},
		{"database missing", DatabaseNotFound("school"), "Database school not exist.", CategoryStorage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Error() != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, tt.err.Error())
			}
			if tt.err.Category != tt.category {
				t.Errorf("expected category %s, got %s", tt.category, tt.err.Category)
			}
		})
	}
}

func TestRender(t *testing.T) {
	if got := Render(NoDatabaseSelected()); got != "[ERROR] Database not specified." {
		t.Errorf("unexpected render: %q", got)
	}
	if got := Render(nil); got != "" {
		t.Errorf("nil should render empty, got %q", got)
	}
}

func TestWrappingAndPredicates(t *testing.T) {
	err := IOError("write", "marks.tab", os.ErrPermission)
	wrapped := fmt.Errorf("save: %w", err)

	if !stderrors.Is(wrapped, os.ErrPermission) {
		t.Error("cause should be reachable through Unwrap")
	}
	if CodeOf(wrapped) != ErrCodeIOError {
		t.Errorf("expected code %d, got %d", ErrCodeIOError, CodeOf(wrapped))
	}
	if !IsStorageError(wrapped) {
		t.Error("expected storage error")
	}
	if IsSyntaxError(wrapped) || IsSchemaError(wrapped) {
		t.Error("storage error misclassified")
	}
	if !IsSyntaxError(UnmatchedQuote("'")) {
		t.Error("lex errors count as syntax errors")
	}
	if CodeOf(stderrors.New("plain")) != 0 {
		t.Error("foreign errors have no code")
	}
}

func TestUserMessage(t *testing.T) {
	msg := NoDatabaseSelected().WithDetail("session empty").UserMessage()
	expected := "Database not specified. (session empty)\nHINT: Select a database with USE <name>;"
	if msg != expected {
		t.Errorf("expected %q, got %q", expected, msg)
	}
}
