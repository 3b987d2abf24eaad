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

import (
	"regexp"
	"strconv"
	"strings"

	"toyquery/internal/errors"
	"toyquery/internal/storage"
)

// Kind is the type of a Value, inferred from a literal's surface syntax.
type Kind int

const (
	KindInt Kind = iota
	KindFloat
	KindString
	KindBool
	KindNull
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindInt:
		return "INT"
	case KindFloat:
		return "FLOAT"
	case KindString:
		return "STRING"
	case KindBool:
		return "BOOL"
	case KindNull:
		return "NULL"
	default:
		return "UNKNOWN"
	}
}

var (
	stringLiteral = regexp.MustCompile(`^'.*'$`)
	floatLiteral  = regexp.MustCompile(`^[+-]?[0-9]+\.[0-9]+$`)
	intLiteral    = regexp.MustCompile(`^[+-]?[0-9]+$`)
)

// Classify infers the kind of a literal token. String literals are
// recognised with their quotes.
func Classify(literal string) (Kind, error) {
	switch strings.ToUpper(literal) {
	case "TRUE", "FALSE":
		return KindBool, nil
	case "NULL":
		return KindNull, nil
	}
	switch {
	case stringLiteral.MatchString(literal):
		return KindString, nil
	case floatLiteral.MatchString(literal):
		return KindFloat, nil
	case intLiteral.MatchString(literal):
		return KindInt, nil
	}
	return 0, errors.UnrecognizedLiteral(literal)
}

// Value is a typed scalar. The text of a string value has no quotes.
type Value struct {
	kind Kind
	text string
}

// NewLiteral classifies a literal token and strips string quotes.
func NewLiteral(token string) (Value, error) {
	kind, err := Classify(token)
	if err != nil {
		return Value{}, err
	}
	if kind == KindString {
		token = token[1 : len(token)-1]
	}
	return Value{kind: kind, text: token}, nil
}

// Wrap gives a stored cell the kind of the value it is compared with.
func Wrap(text string, kind Kind) Value {
	return Value{kind: kind, text: text}
}

// Kind returns the value's kind.
func (v Value) Kind() Kind { return v.kind }

// Text returns the value's text.
func (v Value) Text() string { return v.text }

// IsNullText reports whether the text reads NULL in any case.
func (v Value) IsNullText() bool {
	return strings.EqualFold(v.text, "NULL")
}

// Stored returns the form written into a table cell: strings without quotes,
// booleans and NULL upper-cased, numbers verbatim.
func (v Value) Stored() string {
	switch v.kind {
	case KindBool, KindNull:
		return strings.ToUpper(v.text)
	default:
		return v.text
	}
}

// Compare compares v with ref using byte-wise string ordering.
func (v Value) Compare(ref Value) int {
	return v.CompareWith(ref, storage.BinaryCollator{})
}

// CompareWith compares v with ref by the rule of ref's kind and returns -1,
// 0 or 1:
//
//   - INT, FLOAT: numeric. Text that is not a number yields -1.
//   - STRING: ordered by coll.
//   - BOOL, NULL: 0 when the texts are equal ignoring case, otherwise -1.
//     This is an equality test, not an ordering.
func (v Value) CompareWith(ref Value, coll storage.Collator) int {
	switch ref.kind {
	case KindInt:
		a, errA := strconv.ParseInt(v.text, 10, 64)
		b, errB := strconv.ParseInt(ref.text, 10, 64)
		if errA == nil && errB == nil {
			return compareOrdered(a, b)
		}
		return compareFloats(v.text, ref.text)
	case KindFloat:
		return compareFloats(v.text, ref.text)
	case KindString:
		return sign(coll.Compare(v.text, ref.text))
	default:
		if strings.EqualFold(v.text, ref.text) {
			return 0
		}
		return -1
	}
}

func compareFloats(a, b string) int {
	x, errA := strconv.ParseFloat(a, 64)
	y, errB := strconv.ParseFloat(b, 64)
	if errA != nil || errB != nil {
		return -1
	}
	return compareOrdered(x, y)
}

func compareOrdered[T int64 | float64](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func sign(n int) int {
	switch {
	case n < 0:
		return -1
	case n > 0:
		return 1
	default:
		return 0
	}
}
