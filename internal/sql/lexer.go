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
	"strings"

	"toyquery/internal/errors"
)

// literalPlaceholder stands in for a quoted literal while the rest of the
// line is split. NUL cannot come from a client line, so it never collides.
const literalPlaceholder = "\x00"

var (
	quotedLiteral = regexp.MustCompile(`'[^'"]*'`)
	operators     = regexp.MustCompile(`(==|!=|>=|<=|>|<)`)
	punctuation   = regexp.MustCompile(`[(),;*]`)
)

// Tokenize splits a command line into tokens. Quoted literals are kept
// whole, quotes included, whatever they contain. Operators, brackets,
// commas, semicolons, stars and bare "=" become tokens of their own even
// when written without surrounding spaces:
//
//	SELECT * FROM t WHERE (name=='a b')AND(age>=3);
//	=> SELECT * FROM t WHERE ( name == 'a b' ) AND ( age >= 3 ) ;
func Tokenize(line string) ([]string, error) {
	line = strings.ReplaceAll(line, literalPlaceholder, "")

	literals := quotedLiteral.FindAllString(line, -1)
	line = quotedLiteral.ReplaceAllLiteralString(line, " "+literalPlaceholder+" ")

	line = operators.ReplaceAllString(line, " $1 ")
	line = punctuation.ReplaceAllString(line, " $0 ")
	line = padAssignments(line)

	tokens := strings.Fields(line)
	next := 0
	for i, tok := range tokens {
		if tok == literalPlaceholder {
			tokens[i] = literals[next]
			next++
			continue
		}
		if strings.ContainsRune(tok, '\'') {
			return nil, errors.UnmatchedQuote(tok)
		}
	}
	return tokens, nil
}

// padAssignments surrounds every "=" that is not part of ==, !=, <= or >=
// with spaces. The operators have already been padded, so an "=" belongs to
// one of them exactly when a neighbouring byte is one of "=<>!".
func padAssignments(line string) string {
	var b strings.Builder
	b.Grow(len(line) + 8)
	for i := 0; i < len(line); i++ {
		c := line[i]
		if c != '=' {
			b.WriteByte(c)
			continue
		}
		prevOp := i > 0 && strings.IndexByte("=<>!", line[i-1]) >= 0
		nextEq := i+1 < len(line) && line[i+1] == '='
		if prevOp || nextEq {
			b.WriteByte(c)
			continue
		}
		b.WriteString(" = ")
	}
	return b.String()
}
