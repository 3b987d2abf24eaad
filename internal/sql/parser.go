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
Package sql contains the Parser component for command syntax analysis.

Parser Overview:
================

The Parser is the second stage of the pipeline. It takes the token slice
produced by Tokenize and builds one Statement. It is a recursive descent
parser: each production is a method that consumes tokens in a fixed order.

Keywords match case-insensitively. Names must be plain alphanumeric text.
Values are classified by the value model (string, integer, decimal,
TRUE/FALSE, NULL).

Grammar:
========

	command    := statement ";"
	statement  := use | create | drop | alter | insert
	            | select | update | delete | join

	use        := USE name
	create     := CREATE TABLE name [ "(" attr_list ")" ]
	            | CREATE DATABASE name
	drop       := DROP (TABLE | DATABASE) name
	alter      := ALTER TABLE name (ADD | DROP) name
	insert     := INSERT INTO name VALUES "(" value_list ")"
	select     := SELECT ("*" | attr_list) FROM name [ WHERE condition ]
	update     := UPDATE name SET name "=" value { "," name "=" value } WHERE condition
	delete     := DELETE FROM name WHERE condition
	join       := JOIN name AND name ON name AND name

	condition  := "(" condition ")" (AND | OR) "(" condition ")"
	            | name operator value
	operator   := "==" | "!=" | ">=" | "<=" | ">" | "<" | LIKE

Error Handling:
===============

Every failure is a syntax error naming the offending token:

	Token ";" is missing.                 input ended early
	Token "x" should be <Value>.          token does not fit its position
	Redundant token(s) start from "x".    tokens left after the statement
	Token "X" is invalid.                 unknown command keyword

Usage Example:
==============

	stmt, err := sql.Parse("SELECT name FROM people WHERE age >= 18;")
	if err != nil {
	    return errors.Render(err)
	}
	// stmt is a *SelectStmt
*/
package sql

import (
	"regexp"
	"strings"

	"toyquery/internal/errors"
)

var (
	plainText       = regexp.MustCompile(`^[0-9a-zA-Z]+$`)
	objectKind      = regexp.MustCompile(`(?i)^(table|database)$`)
	alterationType  = regexp.MustCompile(`(?i)^(add|drop)$`)
	listSeparator   = regexp.MustCompile(`^[,)]$`)
	logicOperator   = regexp.MustCompile(`(?i)^(and|or)$`)
	compareOperator = regexp.MustCompile(`(?i)^(==|!=|>=|<=|>|<|LIKE)$`)
)

const (
	expectName      = "<Name>"
	expectTable     = "<TableName>"
	expectDatabase  = "<DatabaseName>"
	expectAttribute = "<AttributeName>"
	expectValue     = "<Value>"
	expectOperator  = "<Operator>"
	expectKind      = `"TABLE" or "DATABASE"`
	expectAlter     = `"ADD" or "DROP"`
	expectLogic     = `"AND" or "OR"`
)

// Parser walks a token slice that has had its trailing ";" removed.
type Parser struct {
	tokens []string
	pos    int
}

// Parse tokenizes and parses one command line.
func Parse(line string) (Statement, error) {
	tokens, err := Tokenize(line)
	if err != nil {
		return nil, err
	}
	return ParseTokens(tokens)
}

// ParseTokens parses a token slice produced by Tokenize. The last token
// must be ";".
func ParseTokens(tokens []string) (Statement, error) {
	if len(tokens) == 0 || tokens[len(tokens)-1] != ";" {
		return nil, errors.MissingToken(`";"`)
	}
	p := &Parser{tokens: tokens[:len(tokens)-1]}
	return p.Parse()
}

// Parse dispatches on the command keyword.
func (p *Parser) Parse() (Statement, error) {
	first, err := p.next("<Command>")
	if err != nil {
		return nil, err
	}
	switch keyword := strings.ToUpper(first); keyword {
	case "USE":
		return p.parseUse()
	case "CREATE":
		return p.parseCreate()
	case "DROP":
		return p.parseDrop()
	case "ALTER":
		return p.parseAlter()
	case "INSERT":
		return p.parseInsert()
	case "SELECT":
		return p.parseSelect()
	case "UPDATE":
		return p.parseUpdate()
	case "DELETE":
		return p.parseDelete()
	case "JOIN":
		return p.parseJoin()
	default:
		return nil, errors.InvalidKeyword(keyword)
	}
}

func (p *Parser) parseUse() (Statement, error) {
	name, err := p.name(expectDatabase)
	if err != nil {
		return nil, err
	}
	if err := p.end(); err != nil {
		return nil, err
	}
	return &UseStmt{Database: name}, nil
}

func (p *Parser) parseCreate() (Statement, error) {
	kind, err := p.objectKind()
	if err != nil {
		return nil, err
	}
	name, err := p.name(expectName)
	if err != nil {
		return nil, err
	}
	stmt := &CreateStmt{Kind: kind, Name: name}
	if !p.atEnd() && kind == ObjectTable {
		if err := p.keyword("("); err != nil {
			return nil, err
		}
		if stmt.Attributes, err = p.attributeList(")"); err != nil {
			return nil, err
		}
	}
	if err := p.end(); err != nil {
		return nil, err
	}
	return stmt, nil
}

func (p *Parser) parseDrop() (Statement, error) {
	kind, err := p.objectKind()
	if err != nil {
		return nil, err
	}
	name, err := p.name(expectName)
	if err != nil {
		return nil, err
	}
	if err := p.end(); err != nil {
		return nil, err
	}
	return &DropStmt{Kind: kind, Name: name}, nil
}

func (p *Parser) parseAlter() (Statement, error) {
	if err := p.keyword("TABLE"); err != nil {
		return nil, err
	}
	table, err := p.name(expectTable)
	if err != nil {
		return nil, err
	}
	opToken, err := p.match(alterationType, expectAlter)
	if err != nil {
		return nil, err
	}
	attr, err := p.name(expectAttribute)
	if err != nil {
		return nil, err
	}
	if err := p.end(); err != nil {
		return nil, err
	}
	op := AlterAdd
	if strings.EqualFold(opToken, "DROP") {
		op = AlterDrop
	}
	return &AlterStmt{Table: table, Op: op, Attribute: attr}, nil
}

func (p *Parser) parseInsert() (Statement, error) {
	if err := p.keyword("INTO"); err != nil {
		return nil, err
	}
	table, err := p.name(expectTable)
	if err != nil {
		return nil, err
	}
	if err := p.keyword("VALUES"); err != nil {
		return nil, err
	}
	if err := p.keyword("("); err != nil {
		return nil, err
	}
	values, err := p.valueList()
	if err != nil {
		return nil, err
	}
	if err := p.end(); err != nil {
		return nil, err
	}
	return &InsertStmt{Table: table, Values: values}, nil
}

func (p *Parser) parseSelect() (Statement, error) {
	if err := p.require(`"*" or ` + expectAttribute); err != nil {
		return nil, err
	}
	stmt := &SelectStmt{Attributes: []string{}}
	if p.peek() == "*" {
		p.pos++
		if err := p.keyword("FROM"); err != nil {
			return nil, err
		}
	} else {
		attrs, err := p.attributeList("FROM")
		if err != nil {
			return nil, err
		}
		stmt.Attributes = attrs
	}
	table, err := p.name(expectTable)
	if err != nil {
		return nil, err
	}
	stmt.Table = table
	if !p.atEnd() {
		if err := p.keyword("WHERE"); err != nil {
			return nil, err
		}
		if stmt.Condition, err = p.conditionSpan(); err != nil {
			return nil, err
		}
	}
	return stmt, nil
}

func (p *Parser) parseUpdate() (Statement, error) {
	table, err := p.name(expectTable)
	if err != nil {
		return nil, err
	}
	if err := p.keyword("SET"); err != nil {
		return nil, err
	}
	stmt := &UpdateStmt{Table: table}
	if err := p.assignmentList(stmt); err != nil {
		return nil, err
	}
	if stmt.Condition, err = p.conditionSpan(); err != nil {
		return nil, err
	}
	return stmt, nil
}

func (p *Parser) parseDelete() (Statement, error) {
	if err := p.keyword("FROM"); err != nil {
		return nil, err
	}
	table, err := p.name(expectTable)
	if err != nil {
		return nil, err
	}
	if err := p.keyword("WHERE"); err != nil {
		return nil, err
	}
	cond, err := p.conditionSpan()
	if err != nil {
		return nil, err
	}
	return &DeleteStmt{Table: table, Condition: cond}, nil
}

func (p *Parser) parseJoin() (Statement, error) {
	stmt := &JoinStmt{}
	var err error
	if stmt.Left, err = p.name(expectTable); err != nil {
		return nil, err
	}
	if err = p.keyword("AND"); err != nil {
		return nil, err
	}
	if stmt.Right, err = p.name(expectTable); err != nil {
		return nil, err
	}
	if err = p.keyword("ON"); err != nil {
		return nil, err
	}
	if stmt.LeftAttr, err = p.name(expectAttribute); err != nil {
		return nil, err
	}
	if err = p.keyword("AND"); err != nil {
		return nil, err
	}
	if stmt.RightAttr, err = p.name(expectAttribute); err != nil {
		return nil, err
	}
	if err = p.end(); err != nil {
		return nil, err
	}
	return stmt, nil
}

// attributeList reads "name {, name} terminator". The terminator is
// consumed and matched case-insensitively.
func (p *Parser) attributeList(terminator string) ([]string, error) {
	separator := `"," or "` + terminator + `"`
	var attrs []string
	for {
		attr, err := p.name(expectAttribute)
		if err != nil {
			return nil, err
		}
		attrs = append(attrs, attr)

		tok, err := p.next(separator)
		if err != nil {
			return nil, err
		}
		if strings.EqualFold(tok, terminator) {
			return attrs, nil
		}
		if tok != "," {
			return nil, errors.UnexpectedToken(tok, separator)
		}
	}
}

// valueList reads "value {, value} )" and returns the stored forms.
func (p *Parser) valueList() ([]string, error) {
	const separator = `"," or ")"`
	var values []string
	for {
		v, err := p.value()
		if err != nil {
			return nil, err
		}
		values = append(values, v.Stored())

		tok, err := p.match(listSeparator, separator)
		if err != nil {
			return nil, err
		}
		if tok == ")" {
			return values, nil
		}
	}
}

// assignmentList reads "name = value {, name = value} WHERE".
func (p *Parser) assignmentList(stmt *UpdateStmt) error {
	const separator = `"," or "WHERE"`
	for {
		attr, err := p.name(expectAttribute)
		if err != nil {
			return err
		}
		if err := p.keyword("="); err != nil {
			return err
		}
		v, err := p.value()
		if err != nil {
			return err
		}
		stmt.Attributes = append(stmt.Attributes, attr)
		stmt.Values = append(stmt.Values, v.Stored())

		tok, err := p.next(separator)
		if err != nil {
			return err
		}
		if strings.EqualFold(tok, "WHERE") {
			return nil
		}
		if tok != "," {
			return errors.UnexpectedToken(tok, separator)
		}
	}
}

// conditionSpan validates a condition running to the end of the statement
// and returns a copy of its tokens.
func (p *Parser) conditionSpan() ([]string, error) {
	start := p.pos
	if err := p.condition(); err != nil {
		return nil, err
	}
	if err := p.end(); err != nil {
		return nil, err
	}
	span := make([]string, len(p.tokens)-start)
	copy(span, p.tokens[start:])
	return span, nil
}

func (p *Parser) condition() error {
	if err := p.require(`"(" or ` + expectAttribute); err != nil {
		return err
	}
	if p.peek() != "(" {
		if _, err := p.name(expectAttribute); err != nil {
			return err
		}
		if _, err := p.match(compareOperator, expectOperator); err != nil {
			return err
		}
		_, err := p.value()
		return err
	}

	if err := p.nested(); err != nil {
		return err
	}
	if _, err := p.match(logicOperator, expectLogic); err != nil {
		return err
	}
	return p.nested()
}

// nested reads "( condition )".
func (p *Parser) nested() error {
	if err := p.keyword("("); err != nil {
		return err
	}
	if err := p.condition(); err != nil {
		return err
	}
	return p.keyword(")")
}

func (p *Parser) objectKind() (ObjectKind, error) {
	tok, err := p.match(objectKind, expectKind)
	if err != nil {
		return 0, err
	}
	if strings.EqualFold(tok, "DATABASE") {
		return ObjectDatabase, nil
	}
	return ObjectTable, nil
}

// ----------------------------------------------------------------------------
// Token helpers
// ----------------------------------------------------------------------------

func (p *Parser) atEnd() bool {
	return p.pos >= len(p.tokens)
}

func (p *Parser) peek() string {
	if p.atEnd() {
		return ""
	}
	return p.tokens[p.pos]
}

// require fails with MissingToken when the input is exhausted.
func (p *Parser) require(expected string) error {
	if p.atEnd() {
		return errors.MissingToken(expected)
	}
	return nil
}

// next consumes one token.
func (p *Parser) next(expected string) (string, error) {
	if err := p.require(expected); err != nil {
		return "", err
	}
	tok := p.tokens[p.pos]
	p.pos++
	return tok, nil
}

// match consumes one token that must match re.
func (p *Parser) match(re *regexp.Regexp, expected string) (string, error) {
	tok, err := p.next(expected)
	if err != nil {
		return "", err
	}
	if !re.MatchString(tok) {
		return "", errors.UnexpectedToken(tok, expected)
	}
	return tok, nil
}

func (p *Parser) name(expected string) (string, error) {
	return p.match(plainText, expected)
}

// keyword consumes one token equal to kw ignoring case.
func (p *Parser) keyword(kw string) error {
	expected := `"` + kw + `"`
	tok, err := p.next(expected)
	if err != nil {
		return err
	}
	if !strings.EqualFold(tok, kw) {
		return errors.UnexpectedToken(tok, expected)
	}
	return nil
}

func (p *Parser) value() (Value, error) {
	tok, err := p.next(expectValue)
	if err != nil {
		return Value{}, err
	}
	return NewLiteral(tok)
}

// end fails with RemainingTokens if anything is left.
func (p *Parser) end() error {
	if !p.atEnd() {
		return errors.RemainingTokens(p.tokens[p.pos])
	}
	return nil
}
