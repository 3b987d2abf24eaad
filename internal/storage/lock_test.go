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

package storage

import (
	"context"
	"testing"
	"time"
)

func TestReadersShareLock(t *testing.T) {
	m := NewLockManager()
	ctx := context.Background()

	r1, err := m.RLock(ctx, "db")
	if err != nil {
		t.Fatal(err)
	}
	defer r1()

	ctx2, cancel := context.WithTimeout(ctx, 100*time.Millisecond)
	defer cancel()
	r2, err := m.RLock(ctx2, "db")
	if err != nil {
		t.Fatalf("second reader blocked: %v", err)
	}
	r2()
}

func TestWriterExcludesReaders(t *testing.T) {
	m := NewLockManager()
	ctx := context.Background()

	unlock, err := m.Lock(ctx, "db")
	if err != nil {
		t.Fatal(err)
	}

	short, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
	defer cancel()
	if _, err := m.RLock(short, "db"); err == nil {
		t.Fatal("reader acquired lock held by writer")
	}

	// Other databases are independent.
	other, err := m.Lock(ctx, "other")
	if err != nil {
		t.Fatalf("lock on another database blocked: %v", err)
	}
	other()

	unlock()
	unlock() // releasing twice is a no-op

	r, err := m.RLock(ctx, "db")
	if err != nil {
		t.Fatalf("reader blocked after writer released: %v", err)
	}
	r()
}

func TestWriterWaitsForReaders(t *testing.T) {
	m := NewLockManager()
	ctx := context.Background()

	release, _ := m.RLock(ctx, "db")
	acquired := make(chan struct{})
	go func() {
		unlock, err := m.Lock(ctx, "db")
		if err == nil {
			close(acquired)
			unlock()
		}
	}()

	select {
	case <-acquired:
		t.Fatal("writer acquired lock while a reader held it")
	case <-time.After(50 * time.Millisecond):
	}

	release()
	select {
	case <-acquired:
	case <-time.After(2 * time.Second):
		t.Fatal("writer never acquired the lock")
	}
}
