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
	"fmt"

	"toyquery/internal/errors"
	"toyquery/internal/storage"
)

func (e *Executor) executeInsert(ctx context.Context, sess *Session, s *InsertStmt) (string, error) {
	return e.mutate(ctx, sess, s.Table, func(t *storage.Table) (string, error) {
		if _, err := t.InsertRecord(s.Values); err != nil {
			return "", err
		}
		return ResultOK, nil
	})
}

// executeSelect renders the selected attributes of every matching record.
// The id column is shown only for "*" or when id is named explicitly.
func (e *Executor) executeSelect(ctx context.Context, sess *Session, s *SelectStmt) (string, error) {
	db, err := sess.require()
	if err != nil {
		return "", err
	}
	release, err := e.lock(ctx, db, false)
	if err != nil {
		return "", err
	}
	defer release()

	t, err := e.store.LoadTable(db, s.Table)
	if err != nil {
		return "", err
	}

	attrs := append([]string(nil), s.Attributes...)
	if len(attrs) == 0 {
		attrs = t.Attributes()
	}
	withID := false
	for i, attr := range attrs {
		if attr == storage.IDAttribute {
			withID = true
			attrs = append(attrs[:i], attrs[i+1:]...)
			break
		}
	}
	for _, attr := range attrs {
		if !t.HasAttribute(attr) {
			return "", errors.AttributeMissing(attr)
		}
	}

	ids, err := e.matching(t, s.Condition)
	if err != nil {
		return "", err
	}

	result := storage.NewTable()
	for _, attr := range attrs {
		if err := result.AddAttribute(attr); err != nil {
			return "", err
		}
	}
	for _, id := range ids {
		row := make([]string, len(attrs))
		for i, attr := range attrs {
			if row[i], err = t.Value(attr, id); err != nil {
				return "", err
			}
		}
		if err := result.InsertRecordWithID(row, id); err != nil {
			return "", err
		}
	}

	body := result.StringWithoutID()
	if withID {
		body = result.String()
	}
	return fmt.Sprintf("[OK] %d record(s) found.\n%s", len(ids), body), nil
}

func (e *Executor) executeUpdate(ctx context.Context, sess *Session, s *UpdateStmt) (string, error) {
	return e.mutate(ctx, sess, s.Table, func(t *storage.Table) (string, error) {
		seen := make(map[string]bool, len(s.Attributes))
		for _, attr := range s.Attributes {
			if seen[attr] {
				return "", errors.AttributeDuplicated(attr)
			}
			seen[attr] = true
		}

		ids, err := e.matching(t, s.Condition)
		if err != nil {
			return "", err
		}
		for _, id := range ids {
			for i, attr := range s.Attributes {
				if err := t.SetValue(attr, s.Values[i], id); err != nil {
					return "", err
				}
			}
		}
		return fmt.Sprintf("[OK] Attributes of %d record(s) have been updated.", len(ids)), nil
	})
}

func (e *Executor) executeDelete(ctx context.Context, sess *Session, s *DeleteStmt) (string, error) {
	return e.mutate(ctx, sess, s.Table, func(t *storage.Table) (string, error) {
		ids, err := e.matching(t, s.Condition)
		if err != nil {
			return "", err
		}
		for _, id := range ids {
			if err := t.DeleteRecord(id); err != nil {
				return "", err
			}
		}
		return fmt.Sprintf("[OK] %d record(s) deleted.", len(ids)), nil
	})
}

// executeJoin is a nested-loop equi-join. Result rows get fresh ids, and
// the join attributes are dropped from the result unless they are id.
func (e *Executor) executeJoin(ctx context.Context, sess *Session, s *JoinStmt) (string, error) {
	db, err := sess.require()
	if err != nil {
		return "", err
	}
	release, err := e.lock(ctx, db, false)
	if err != nil {
		return "", err
	}
	defer release()

	left, err := e.store.LoadTable(db, s.Left)
	if err != nil {
		return "", err
	}
	right, err := e.store.LoadTable(db, s.Right)
	if err != nil {
		return "", err
	}
	if !left.HasAttribute(s.LeftAttr) {
		return "", errors.AttributeMissing(s.LeftAttr)
	}
	if !right.HasAttribute(s.RightAttr) {
		return "", errors.AttributeMissing(s.RightAttr)
	}

	result, err := joinTables(left, right, s.LeftAttr, s.RightAttr)
	if err != nil {
		return "", err
	}
	return ResultOK + "\n" + result.String(), nil
}

func joinTables(left, right *storage.Table, leftAttr, rightAttr string) (*storage.Table, error) {
	result := storage.NewTable()
	for _, attr := range append(left.Columns(), right.Columns()...) {
		if err := result.AddAttribute(attr); err != nil {
			return nil, err
		}
	}

	rightIDs := right.IDs()
	rightKeys := make([]string, len(rightIDs))
	for i, id := range rightIDs {
		key, err := right.Value(rightAttr, id)
		if err != nil {
			return nil, err
		}
		rightKeys[i] = key
	}

	for _, leftID := range left.IDs() {
		key, err := left.Value(leftAttr, leftID)
		if err != nil {
			return nil, err
		}
		for i, rightID := range rightIDs {
			if rightKeys[i] != key {
				continue
			}
			lv, err := left.Values(leftID)
			if err != nil {
				return nil, err
			}
			rv, err := right.Values(rightID)
			if err != nil {
				return nil, err
			}
			row := make([]string, 0, len(lv)+len(rv))
			row = append(append(row, lv...), rv...)
			if _, err := result.InsertRecord(row); err != nil {
				return nil, err
			}
		}
	}

	if leftAttr != storage.IDAttribute {
		if err := result.DropAttribute(leftAttr); err != nil {
			return nil, err
		}
	}
	if rightAttr != storage.IDAttribute {
		if err := result.DropAttribute(rightAttr); err != nil {
			return nil, err
		}
	}
	return result, nil
}
