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
Package sql contains the Executor component for command execution.

Executor Overview:
==================

The Executor is the final stage of the pipeline. It takes a Statement from
the Parser and runs it against the Store.

Execution Model:
================

Tables are never cached. A command:

 1. Locks the selected database (shared for SELECT and JOIN, exclusive
    for everything that writes)
 2. Loads the tables it needs from their .tab files
 3. Works on the in-memory copy
 4. Saves the table back only when every step has succeeded

A failing INSERT, UPDATE, DELETE or ALTER therefore leaves the file exactly
as it was.

Result Format:
==============

Every command answers with one string:

	[OK]
	[OK] 2 record(s) found.\nid\tname\n1\tBob\n2\tAmy\n
	[ERROR] Attribute "age" is missing.
*/
package sql

import (
	"context"
	"time"

	"toyquery/internal/errors"
	"toyquery/internal/logging"
	"toyquery/internal/metrics"
	"toyquery/internal/storage"
)

// ResultOK is the answer of a command that succeeded without output.
const ResultOK = "[OK]"

// DefaultLockTimeout bounds how long a command waits for a database lock.
const DefaultLockTimeout = 10 * time.Second

// Options configure an Executor.
type Options struct {
	// Collator orders string values in conditions. Defaults to binary.
	Collator storage.Collator

	// LockTimeout bounds lock acquisition. Zero means DefaultLockTimeout.
	LockTimeout time.Duration

	// Metrics receives command counters. Defaults to metrics.Get().
	Metrics *metrics.Metrics
}

// Executor runs statements against a Store. It is safe for concurrent use;
// per-connection state lives in Session.
type Executor struct {
	store       *storage.Store
	collator    storage.Collator
	lockTimeout time.Duration
	metrics     *metrics.Metrics
	logger      *logging.Logger
}

// NewExecutor creates an Executor over store.
func NewExecutor(store *storage.Store, opts Options) *Executor {
	if opts.Collator == nil {
		opts.Collator = storage.BinaryCollator{}
	}
	if opts.LockTimeout <= 0 {
		opts.LockTimeout = DefaultLockTimeout
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.Get()
	}
	e := &Executor{
		store:       store,
		collator:    opts.Collator,
		lockTimeout: opts.LockTimeout,
		metrics:     opts.Metrics,
		logger:      logging.NewLogger("executor"),
	}
	e.refreshDatabaseCount()
	return e
}

// Store returns the underlying store.
func (e *Executor) Store() *storage.Store {
	return e.store
}

// Run parses and executes one command line and renders the result. Errors
// are rendered as "[ERROR] <message>"; Run itself never fails.
func (e *Executor) Run(ctx context.Context, sess *Session, line string) string {
	start := time.Now()
	keyword := ""

	result, err := func() (string, error) {
		stmt, err := Parse(line)
		if err != nil {
			return "", err
		}
		keyword = stmt.Keyword()
		return e.Execute(ctx, sess, stmt)
	}()

	e.metrics.RecordCommand(keyword, time.Since(start))
	if err != nil {
		e.metrics.RecordFailure()
		e.logger.Debug("Command rejected",
			"keyword", keyword,
			"database", sess.Database(),
			"code", int(errors.CodeOf(err)),
			"error", err.Error())
		return errors.Render(err)
	}
	return result
}

// Execute runs one parsed statement.
func (e *Executor) Execute(ctx context.Context, sess *Session, stmt Statement) (string, error) {
	switch s := stmt.(type) {
	case *UseStmt:
		return e.executeUse(sess, s)
	case *CreateStmt:
		if s.Kind == ObjectDatabase {
			return e.executeCreateDatabase(ctx, s)
		}
		return e.executeCreateTable(ctx, sess, s)
	case *DropStmt:
		if s.Kind == ObjectDatabase {
			return e.executeDropDatabase(ctx, sess, s)
		}
		return e.executeDropTable(ctx, sess, s)
	case *AlterStmt:
		return e.executeAlter(ctx, sess, s)
	case *InsertStmt:
		return e.executeInsert(ctx, sess, s)
	case *SelectStmt:
		return e.executeSelect(ctx, sess, s)
	case *UpdateStmt:
		return e.executeUpdate(ctx, sess, s)
	case *DeleteStmt:
		return e.executeDelete(ctx, sess, s)
	case *JoinStmt:
		return e.executeJoin(ctx, sess, s)
	default:
		return "", errors.InvalidOperation("unsupported statement.")
	}
}

// lock acquires the lock of database, exclusive when write is set, waiting
// at most lockTimeout.
func (e *Executor) lock(ctx context.Context, database string, write bool) (func(), error) {
	ctx, cancel := context.WithTimeout(ctx, e.lockTimeout)
	defer cancel()

	locks := e.store.Locks()
	var release func()
	var err error
	if write {
		release, err = locks.Lock(ctx, database)
	} else {
		release, err = locks.RLock(ctx, database)
	}
	if err != nil {
		e.logger.Warn("Lock acquisition failed", "database", database, "write", write, "error", err)
		return nil, errors.Busy(database, err)
	}
	return release, nil
}

// mutate runs the load/modify/save cycle on one table under the exclusive
// lock of the session's database. The table is saved only if fn succeeds.
func (e *Executor) mutate(ctx context.Context, sess *Session, table string, fn func(t *storage.Table) (string, error)) (string, error) {
	db, err := sess.require()
	if err != nil {
		return "", err
	}
	release, err := e.lock(ctx, db, true)
	if err != nil {
		return "", err
	}
	defer release()

	t, err := e.store.LoadTable(db, table)
	if err != nil {
		return "", err
	}
	result, err := fn(t)
	if err != nil {
		return "", err
	}
	if err := e.store.SaveTable(db, table, t); err != nil {
		return "", err
	}
	return result, nil
}

// matching returns the ids of the records of t that satisfy cond in
// ascending order. A nil cond matches every record.
func (e *Executor) matching(t *storage.Table, cond []string) ([]int, error) {
	if cond == nil {
		return t.IDs(), nil
	}
	ids, err := NewSolver(t, cond, e.collator).Solve()
	if err != nil {
		return nil, err
	}
	return ids.Sorted(), nil
}

func (e *Executor) refreshDatabaseCount() {
	names, err := e.store.ListDatabases()
	if err != nil {
		return
	}
	e.metrics.DatabaseCount.Store(int64(len(names)))
}
