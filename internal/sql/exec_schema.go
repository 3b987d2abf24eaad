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
	"context"

	"toyquery/internal/errors"
	"toyquery/internal/storage"
)

// executeUse selects the database even when it does not exist; the error
// is still reported. Clients rely on this to USE a database and create it
// afterwards.
func (e *Executor) executeUse(sess *Session, s *UseStmt) (string, error) {
	sess.Use(s.Database)
	if !e.store.DatabaseExists(s.Database) {
		return "", errors.DatabaseNotFound(s.Database)
	}
	return ResultOK, nil
}

func (e *Executor) executeCreateDatabase(ctx context.Context, s *CreateStmt) (string, error) {
	release, err := e.lock(ctx, s.Name, true)
	if err != nil {
		return "", err
	}
	defer release()

	if err := e.store.CreateDatabase(s.Name); err != nil {
		return "", err
	}
	e.refreshDatabaseCount()
	return ResultOK, nil
}

func (e *Executor) executeCreateTable(ctx context.Context, sess *Session, s *CreateStmt) (string, error) {
	db, err := sess.require()
	if err != nil {
		return "", err
	}
	release, err := e.lock(ctx, db, true)
	if err != nil {
		return "", err
	}
	defer release()

	if e.store.TableExists(db, s.Name) {
		return "", errors.TableExists(s.Name)
	}
	t := storage.NewTable()
	for _, attr := range s.Attributes {
		if err := t.AddAttribute(attr); err != nil {
			return "", err
		}
	}
	if err := e.store.CreateTable(db, s.Name, t); err != nil {
		return "", err
	}
	return ResultOK, nil
}

// executeDropDatabase deselects the dropped database if it is the session's.
func (e *Executor) executeDropDatabase(ctx context.Context, sess *Session, s *DropStmt) (string, error) {
	release, err := e.lock(ctx, s.Name, true)
	if err != nil {
		return "", err
	}
	defer release()

	err = e.store.DropDatabase(s.Name)
	if sess.Database() == s.Name {
		sess.Clear()
	}
	if err != nil {
		return "", err
	}
	e.refreshDatabaseCount()
	return ResultOK, nil
}

func (e *Executor) executeDropTable(ctx context.Context, sess *Session, s *DropStmt) (string, error) {
	db, err := sess.require()
	if err != nil {
		return "", err
	}
	release, err := e.lock(ctx, db, true)
	if err != nil {
		return "", err
	}
	defer release()

	if err := e.store.DropTable(db, s.Name); err != nil {
		return "", err
	}
	return ResultOK, nil
}

func (e *Executor) executeAlter(ctx context.Context, sess *Session, s *AlterStmt) (string, error) {
	return e.mutate(ctx, sess, s.Table, func(t *storage.Table) (string, error) {
		var err error
		if s.Op == AlterDrop {
			err = t.DropAttribute(s.Attribute)
		} else {
			err = t.AddAttribute(s.Attribute)
		}
		if err != nil {
			return "", err
		}
		return ResultOK, nil
	})
}
