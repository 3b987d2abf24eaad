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
Package errors provides the structured error type used across ToyQuery.

Every failure raised while tokenizing, parsing or executing a command is a
*QueryError carrying a numeric code and a category. None of them is fatal:
the executor catches each one once and renders it to the client as

	[ERROR] <message>

Error Categories:
  - LEX:       unmatched quoting in the raw command line
  - SYNTAX:    missing, unexpected or redundant tokens, unknown keywords
  - SESSION:   commands that need a database before USE
  - SCHEMA:    table level violations (attributes, ids, arity, file format)
  - CONDITION: invalid comparison operators or operator/value mismatches
  - VALUE:     literals that are not a valid <Value>
  - STORAGE:   missing or existing databases and tables, I/O failures
  - AUTH:      password checks on the wire protocol and the HTTP gateway
  - CONFIG:    invalid configuration

The message texts are part of the command protocol and must not change.
*/
package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode identifies a specific failure.
type ErrorCode int

const (
	// Lex errors (1000-1099)
	ErrCodeLex            ErrorCode = 1000
	ErrCodeUnmatchedQuote ErrorCode = 1001

	// Syntax errors (1100-1999)
	ErrCodeSyntax          ErrorCode = 1100
	ErrCodeMissingToken    ErrorCode = 1101
	ErrCodeUnexpectedToken ErrorCode = 1102
	ErrCodeRemainingTokens ErrorCode = 1103
	ErrCodeInvalidKeyword  ErrorCode = 1104

	// Session errors (2000-2999)
	ErrCodeSession            ErrorCode = 2000
	ErrCodeNoDatabaseSelected ErrorCode = 2001

	// Schema errors (3000-3999)
	ErrCodeSchema              ErrorCode = 3000
	ErrCodeAttributeDuplicated ErrorCode = 3001
	ErrCodeAttributeMissing    ErrorCode = 3002
	ErrCodeArityMismatch       ErrorCode = 3003
	ErrCodeIDNotFound          ErrorCode = 3004
	ErrCodeInvalidOperation    ErrorCode = 3005
	ErrCodeImportFormat        ErrorCode = 3006

	// Condition errors (4000-4999)
	ErrCodeCondition            ErrorCode = 4000
	ErrCodeInvalidOperator      ErrorCode = 4001
	ErrCodeOperatorTypeMismatch ErrorCode = 4002

	// Value errors (5000-5999)
	ErrCodeValue               ErrorCode = 5000
	ErrCodeUnrecognizedLiteral ErrorCode = 5001

	// Storage errors (6000-6999)
	ErrCodeStorage          ErrorCode = 6000
	ErrCodeDatabaseNotFound ErrorCode = 6001
	ErrCodeDatabaseExists   ErrorCode = 6002
	ErrCodeTableNotFound    ErrorCode = 6003
	ErrCodeTableExists      ErrorCode = 6004
	ErrCodeIOError          ErrorCode = 6005
	ErrCodeBusy             ErrorCode = 6006
	ErrCodeInvalidName      ErrorCode = 6007

	// Auth errors (7000-7999)
	ErrCodeAuth         ErrorCode = 7000
	ErrCodeAuthFailed   ErrorCode = 7001
	ErrCodeAuthRequired ErrorCode = 7002

	// Config errors (8000-8999)
	ErrCodeConfig ErrorCode = 8000
)

// Category groups error codes.
type Category string

const (
	CategoryLex       Category = "LEX"
	CategorySyntax    Category = "SYNTAX"
	CategorySession   Category = "SESSION"
	CategorySchema    Category = "SCHEMA"
	CategoryCondition Category = "CONDITION"
	CategoryValue     Category = "VALUE"
	CategoryStorage   Category = "STORAGE"
	CategoryAuth      Category = "AUTH"
	CategoryConfig    Category = "CONFIG"
)

// QueryError is a structured ToyQuery error.
type QueryError struct {
	Code     ErrorCode
	Category Category
	Message  string
	Detail   string
	Hint     string
	Cause    error
}

// Error returns the protocol message. Detail and hint are for logs and the
// HTTP gateway, they never appear on the wire.
func (e *QueryError) Error() string {
	return e.Message
}

// Unwrap returns the underlying cause.
func (e *QueryError) Unwrap() error {
	return e.Cause
}

// UserMessage returns the message with its detail and hint appended.
func (e *QueryError) UserMessage() string {
	msg := e.Message
	if e.Detail != "" {
		msg += fmt.Sprintf(" (%s)", e.Detail)
	}
	if e.Hint != "" {
		msg += fmt.Sprintf("\nHINT: %s", e.Hint)
	}
	return msg
}

// WithDetail adds detail to the error.
func (e *QueryError) WithDetail(detail string) *QueryError {
	e.Detail = detail
	return e
}

// WithHint adds a hint to the error.
func (e *QueryError) WithHint(hint string) *QueryError {
	e.Hint = hint
	return e
}

// WithCause records the underlying error.
func (e *QueryError) WithCause(cause error) *QueryError {
	e.Cause = cause
	return e
}

func newError(code ErrorCode, category Category, format string, args ...interface{}) *QueryError {
	return &QueryError{
		Code:     code,
		Category: category,
		Message:  fmt.Sprintf(format, args...),
	}
}

// ============================================================================
// Lex and Syntax
// ============================================================================

// UnmatchedQuote reports a single quote that does not close a literal.
func UnmatchedQuote(token string) *QueryError {
	return newError(ErrCodeUnmatchedQuote, CategoryLex, "Unmatched quote in \"%s\".", token)
}

// MissingToken reports input that ended where expected was required.
// expected is written verbatim like in UnexpectedToken.
func MissingToken(expected string) *QueryError {
	return newError(ErrCodeMissingToken, CategorySyntax, "Token %s is missing.", expected)
}

// UnexpectedToken reports a token that does not fit its position.
// expected is written verbatim, e.g. `"TABLE" or "DATABASE"` or `<Value>`.
func UnexpectedToken(actual, expected string) *QueryError {
	return newError(ErrCodeUnexpectedToken, CategorySyntax, "Token \"%s\" should be %s.", actual, expected)
}

// RemainingTokens reports tokens left after a complete statement.
func RemainingTokens(first string) *QueryError {
	return newError(ErrCodeRemainingTokens, CategorySyntax, "Redundant token(s) start from \"%s\".", first)
}

// InvalidKeyword reports an unknown command keyword.
func InvalidKeyword(keyword string) *QueryError {
	return newError(ErrCodeInvalidKeyword, CategorySyntax, "Token \"%s\" is invalid.", keyword).
		WithHint("Commands are USE, CREATE, DROP, ALTER, INSERT, SELECT, UPDATE, DELETE and JOIN")
}

// ============================================================================
// Session
// ============================================================================

// NoDatabaseSelected is returned by commands that run before USE.
func NoDatabaseSelected() *QueryError {
	return newError(ErrCodeNoDatabaseSelected, CategorySession, "Database not specified.").
		WithHint("Select a database with USE <name>;")
}

// ============================================================================
// Schema
// ============================================================================

// AttributeDuplicated reports an attribute that already exists or is "id".
func AttributeDuplicated(name string) *QueryError {
	return newError(ErrCodeAttributeDuplicated, CategorySchema, "Attribute \"%s\" is duplicated.", name)
}

// AttributeMissing reports an unknown attribute.
func AttributeMissing(name string) *QueryError {
	return newError(ErrCodeAttributeMissing, CategorySchema, "Attribute \"%s\" is missing.", name)
}

// ArityMismatch reports a row whose value count differs from the schema.
func ArityMismatch(expected, got int) *QueryError {
	return newError(ErrCodeArityMismatch, CategorySchema,
		"Invalid operation: %d value(s) expected but %d value(s) inserted.", expected, got)
}

// IDNotFound reports an unknown row id.
func IDNotFound(id int) *QueryError {
	return newError(ErrCodeIDNotFound, CategorySchema, "Id not found: %d.", id)
}

// InvalidOperation reports a table operation that is never allowed.
func InvalidOperation(reason string) *QueryError {
	return newError(ErrCodeInvalidOperation, CategorySchema, "Invalid operation: %s", reason)
}

// ImportFormat reports a malformed serialized table.
func ImportFormat(reason string) *QueryError {
	return newError(ErrCodeImportFormat, CategorySchema, "%s", reason)
}

// ============================================================================
// Condition and Value
// ============================================================================

// InvalidOperator reports an unknown comparison operator.
func InvalidOperator(op string) *QueryError {
	return newError(ErrCodeInvalidOperator, CategoryCondition,
		"Failed to process conditions. Invalid comparing operator \"%s\".", op)
}

// OperatorTypeMismatch reports an operator that cannot apply to the kind of
// its reference value.
func OperatorTypeMismatch(value string) *QueryError {
	return newError(ErrCodeOperatorTypeMismatch, CategoryCondition,
		"Failed to process conditions. Operator for value %s is not valid.", value)
}

// UnrecognizedLiteral reports text that is not a <Value>.
func UnrecognizedLiteral(literal string) *QueryError {
	return newError(ErrCodeUnrecognizedLiteral, CategoryValue, "\"%s\" is not a <Value>.", literal)
}

// ============================================================================
// Storage
// ============================================================================

// DatabaseNotFound reports a missing database directory.
func DatabaseNotFound(name string) *QueryError {
	return newError(ErrCodeDatabaseNotFound, CategoryStorage, "Database %s not exist.", name)
}

// DatabaseExists reports a database that is already present.
func DatabaseExists(name string) *QueryError {
	return newError(ErrCodeDatabaseExists, CategoryStorage, "Database %s already exists.", name)
}

// TableNotFound reports a missing table file.
func TableNotFound(name string) *QueryError {
	return newError(ErrCodeTableNotFound, CategoryStorage, "Table %s not exist.", name)
}

// TableExists reports a table that is already present.
func TableExists(name string) *QueryError {
	return newError(ErrCodeTableExists, CategoryStorage, "Table %s already exists.", name)
}

// IOError wraps a filesystem failure.
func IOError(action, target string, cause error) *QueryError {
	return newError(ErrCodeIOError, CategoryStorage, "Failed to %s %s.", action, target).
		WithCause(cause).
		WithDetail(cause.Error())
}

// InvalidName reports a database or table name that is not plain
// alphanumeric text.
func InvalidName(name string) *QueryError {
	return newError(ErrCodeInvalidName, CategoryStorage, "Name \"%s\" is invalid.", name).
		WithHint("Names may contain only letters and digits")
}

// Busy reports a database lock that could not be acquired in time.
func Busy(database string, cause error) *QueryError {
	return newError(ErrCodeBusy, CategoryStorage, "Database %s is busy.", database).WithCause(cause)
}

// ============================================================================
// Auth and Config
// ============================================================================

// AuthenticationFailed reports a wrong password.
func AuthenticationFailed() *QueryError {
	return newError(ErrCodeAuthFailed, CategoryAuth, "Authentication failed.")
}

// AuthenticationRequired reports a command sent before AUTH.
func AuthenticationRequired() *QueryError {
	return newError(ErrCodeAuthRequired, CategoryAuth, "Authentication required.").
		WithHint("Send AUTH <password> first")
}

// InvalidConfig reports a configuration problem.
func InvalidConfig(format string, args ...interface{}) *QueryError {
	return newError(ErrCodeConfig, CategoryConfig, format, args...)
}

// ============================================================================
// Helpers
// ============================================================================

// As returns err as a *QueryError if it is one or wraps one.
func As(err error) (*QueryError, bool) {
	var qe *QueryError
	if stderrors.As(err, &qe) {
		return qe, true
	}
	return nil, false
}

// CodeOf returns the code of err, or 0 for foreign errors.
func CodeOf(err error) ErrorCode {
	if qe, ok := As(err); ok {
		return qe.Code
	}
	return 0
}

// CategoryOf returns the category of err, or "" for foreign errors.
func CategoryOf(err error) Category {
	if qe, ok := As(err); ok {
		return qe.Category
	}
	return ""
}

// IsSyntaxError reports whether err was raised by the tokenizer or parser.
func IsSyntaxError(err error) bool {
	c := CategoryOf(err)
	return c == CategorySyntax || c == CategoryLex
}

// IsSchemaError reports whether err was raised by a table operation.
func IsSchemaError(err error) bool {
	return CategoryOf(err) == CategorySchema
}

// IsStorageError reports whether err was raised by the store.
func IsStorageError(err error) bool {
	return CategoryOf(err) == CategoryStorage
}

// Render formats err for the wire: "[ERROR] <message>".
func Render(err error) string {
	if err == nil {
		return ""
	}
	return "[ERROR] " + err.Error()
}
