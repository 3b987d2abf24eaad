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
	"sort"
	"strings"

	"toyquery/internal/errors"
	"toyquery/internal/storage"
)

// Operator is a comparison operator in a condition.
type Operator int

const (
	OpEqual Operator = iota
	OpNotEqual
	OpGreater
	OpGreaterOrEqual
	OpLess
	OpLessOrEqual
	OpLike
)

// ParseOperator maps an operator token to an Operator. LIKE is matched
// ignoring case.
func ParseOperator(token string) (Operator, error) {
	switch strings.ToUpper(token) {
	case "==":
		return OpEqual, nil
	case "!=":
		return OpNotEqual, nil
	case ">":
		return OpGreater, nil
	case ">=":
		return OpGreaterOrEqual, nil
	case "<":
		return OpLess, nil
	case "<=":
		return OpLessOrEqual, nil
	case "LIKE":
		return OpLike, nil
	}
	return 0, errors.InvalidOperator(token)
}

func (op Operator) magnitude() bool {
	return op >= OpGreater && op <= OpLessOrEqual
}

// Condition is one "attribute operator value" comparison.
type Condition struct {
	Attribute string
	Op        Operator
	Reference Value
}

// NewCondition builds a condition from its three tokens and checks that the
// operator applies to the reference value's kind: magnitude operators need a
// number and LIKE needs a string.
func NewCondition(attribute, op, literal string) (*Condition, error) {
	operator, err := ParseOperator(op)
	if err != nil {
		return nil, err
	}
	ref, err := NewLiteral(literal)
	if err != nil {
		return nil, err
	}
	valid := true
	switch {
	case operator.magnitude():
		valid = ref.Kind() == KindInt || ref.Kind() == KindFloat
	case operator == OpLike:
		valid = ref.Kind() == KindString
	}
	if !valid {
		return nil, errors.OperatorTypeMismatch(ref.Text())
	}
	return &Condition{Attribute: attribute, Op: operator, Reference: ref}, nil
}

// Test reports whether a stored cell satisfies the condition. The cell is
// read with the reference value's kind. A NULL cell never satisfies a
// magnitude operator.
func (c *Condition) Test(cell string, coll storage.Collator) bool {
	v := Wrap(cell, c.Reference.Kind())
	if c.Op.magnitude() && v.IsNullText() {
		return false
	}
	switch c.Op {
	case OpEqual:
		return v.CompareWith(c.Reference, coll) == 0
	case OpNotEqual:
		return v.CompareWith(c.Reference, coll) != 0
	case OpGreater:
		return v.CompareWith(c.Reference, coll) > 0
	case OpGreaterOrEqual:
		return v.CompareWith(c.Reference, coll) >= 0
	case OpLess:
		return v.CompareWith(c.Reference, coll) < 0
	case OpLessOrEqual:
		return v.CompareWith(c.Reference, coll) <= 0
	case OpLike:
		return strings.Contains(v.Text(), c.Reference.Text())
	}
	return false
}

// IDSet is a set of record ids.
type IDSet map[int]struct{}

// NewIDSet builds a set from ids.
func NewIDSet(ids ...int) IDSet {
	s := make(IDSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

// Intersect keeps only ids present in other.
func (s IDSet) Intersect(other IDSet) IDSet {
	for id := range s {
		if _, ok := other[id]; !ok {
			delete(s, id)
		}
	}
	return s
}

// Union adds every id of other.
func (s IDSet) Union(other IDSet) IDSet {
	for id := range other {
		s[id] = struct{}{}
	}
	return s
}

// Sorted returns the ids in ascending order.
func (s IDSet) Sorted() []int {
	ids := make([]int, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// Solver evaluates a condition token span, already validated by the
// parser, against one table.
type Solver struct {
	table    *storage.Table
	tokens   []string
	pos      int
	collator storage.Collator
}

// NewSolver returns a solver for tokens over table. A nil collator compares
// strings byte-wise.
func NewSolver(table *storage.Table, tokens []string, coll storage.Collator) *Solver {
	if coll == nil {
		coll = storage.BinaryCollator{}
	}
	return &Solver{table: table, tokens: tokens, collator: coll}
}

// Solve returns the ids of the records that satisfy the condition. Both
// sides of AND and OR are always evaluated.
func (s *Solver) Solve() (IDSet, error) {
	s.pos = 0
	return s.solve()
}

func (s *Solver) solve() (IDSet, error) {
	if s.pos+2 >= len(s.tokens) {
		return nil, errors.MissingToken(expectValue)
	}
	if s.tokens[s.pos] != "(" {
		cond, err := NewCondition(s.tokens[s.pos], s.tokens[s.pos+1], s.tokens[s.pos+2])
		if err != nil {
			return nil, err
		}
		s.pos += 3
		ids, err := s.table.Match(cond.Attribute, func(cell string) bool {
			return cond.Test(cell, s.collator)
		})
		if err != nil {
			return nil, err
		}
		return NewIDSet(ids...), nil
	}

	s.pos++ // (
	left, err := s.solve()
	if err != nil {
		return nil, err
	}
	s.pos++ // )
	and := s.pos < len(s.tokens) && strings.EqualFold(s.tokens[s.pos], "AND")
	s.pos += 2 // AND|OR (
	right, err := s.solve()
	if err != nil {
		return nil, err
	}
	s.pos++ // )

	if and {
		return left.Intersect(right), nil
	}
	return left.Union(right), nil
}
