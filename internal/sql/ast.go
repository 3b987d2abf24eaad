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
Package sql provides the command processing pipeline for ToyQuery.

Statement Overview:
===================

A command line goes through three stages:

 1. Tokenize splits the line into tokens, keeping quoted literals whole
 2. Parse validates the grammar and builds one Statement
 3. The Executor runs the Statement against the store and renders a result

Statements are a closed set. Each concrete type carries only the arguments
its command needs, and the Executor handles them with one exhaustive type
switch.

Statement Hierarchy:
====================

	Statement (interface)
	├── UseStmt
	├── CreateStmt     (TABLE or DATABASE)
	├── DropStmt       (TABLE or DATABASE)
	├── AlterStmt      (ADD or DROP)
	├── InsertStmt
	├── SelectStmt
	├── UpdateStmt
	├── DeleteStmt
	└── JoinStmt

Conditions are not materialised as a tree. The parser validates the token
span after WHERE and stores it unevaluated; the Solver walks the same span
again against a loaded table.

Example:
========

For the command: SELECT name FROM people WHERE age >= 18;

	&SelectStmt{
	    Table:      "people",
	    Attributes: []string{"name"},
	    Condition:  []string{"age", ">=", "18"},
	}
*/
package sql

// Statement is one parsed command.
type Statement interface {
	statementNode()

	// Keyword returns the upper-case command keyword, used for metrics
	// and logging.
	Keyword() string
}

// ObjectKind distinguishes the TABLE and DATABASE forms of CREATE and DROP.
type ObjectKind int

const (
	ObjectTable ObjectKind = iota
	ObjectDatabase
)

// String returns the keyword for the kind.
func (k ObjectKind) String() string {
	if k == ObjectDatabase {
		return "DATABASE"
	}
	return "TABLE"
}

// AlterOp is the alteration performed by ALTER TABLE.
type AlterOp int

const (
	AlterAdd AlterOp = iota
	AlterDrop
)

// String returns the keyword for the operation.
func (op AlterOp) String() string {
	if op == AlterDrop {
		return "DROP"
	}
	return "ADD"
}

// UseStmt selects the database for the session.
//
//	USE <database>;
type UseStmt struct {
	Database string
}

// CreateStmt creates a table or a database. Attributes is nil when no
// attribute list was given and is never empty otherwise.
//
//	CREATE TABLE <table> [ ( <attr>, ... ) ];
//	CREATE DATABASE <database>;
type CreateStmt struct {
	Kind       ObjectKind
	Name       string
	Attributes []string
}

// DropStmt removes a table or a database.
//
//	DROP TABLE|DATABASE <name>;
type DropStmt struct {
	Kind ObjectKind
	Name string
}

// AlterStmt adds or drops one attribute.
//
//	ALTER TABLE <table> ADD|DROP <attr>;
type AlterStmt struct {
	Table     string
	Op        AlterOp
	Attribute string
}

// InsertStmt appends one record. Values are already in their stored form.
//
//	INSERT INTO <table> VALUES ( <value>, ... );
type InsertStmt struct {
	Table  string
	Values []string
}

// SelectStmt queries a table. An empty Attributes list means "*". A nil
// Condition selects every record.
//
//	SELECT *|<attr>, ... FROM <table> [ WHERE <condition> ];
type SelectStmt struct {
	Table      string
	Attributes []string
	Condition  []string
}

// UpdateStmt assigns Values[i] to Attributes[i] in every matching record.
//
//	UPDATE <table> SET <attr>=<value>, ... WHERE <condition>;
type UpdateStmt struct {
	Table      string
	Attributes []string
	Values     []string
	Condition  []string
}

// DeleteStmt removes every matching record.
//
//	DELETE FROM <table> WHERE <condition>;
type DeleteStmt struct {
	Table     string
	Condition []string
}

// JoinStmt joins two tables on the equality of one attribute from each.
//
//	JOIN <left> AND <right> ON <leftAttr> AND <rightAttr>;
type JoinStmt struct {
	Left      string
	Right     string
	LeftAttr  string
	RightAttr string
}

func (*UseStmt) statementNode()    {}
func (*CreateStmt) statementNode() {}
func (*DropStmt) statementNode()   {}
func (*AlterStmt) statementNode()  {}
func (*InsertStmt) statementNode() {}
func (*SelectStmt) statementNode() {}
func (*UpdateStmt) statementNode() {}
func (*DeleteStmt) statementNode() {}
func (*JoinStmt) statementNode()   {}

func (*UseStmt) Keyword() string    { return "USE" }
func (*CreateStmt) Keyword() string { return "CREATE" }
func (*DropStmt) Keyword() string   { return "DROP" }
func (*AlterStmt) Keyword() string  { return "ALTER" }
func (*InsertStmt) Keyword() string { return "INSERT" }
func (*SelectStmt) Keyword() string { return "SELECT" }
func (*UpdateStmt) Keyword() string { return "UPDATE" }
func (*DeleteStmt) Keyword() string { return "DELETE" }
func (*JoinStmt) Keyword() string   { return "JOIN" }

// Keywords lists every command keyword in grammar order.
var Keywords = []string{"USE", "CREATE", "DROP", "ALTER", "INSERT", "SELECT", "UPDATE", "DELETE", "JOIN"}
