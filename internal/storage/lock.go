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
	"sync"

	"golang.org/x/sync/semaphore"
)

// maxReaders bounds concurrent readers of one database. A writer acquires
// the full weight, so it waits for readers to drain and blocks new ones.
const maxReaders = 64

// LockManager serialises the load/mutate/store cycle of commands per
// database. Semaphores are FIFO, so a waiting writer is not starved by a
// stream of readers.
type LockManager struct {
	mu    sync.Mutex
	locks map[string]*semaphore.Weighted
}

// NewLockManager creates an empty lock manager.
func NewLockManager() *LockManager {
	return &LockManager{locks: make(map[string]*semaphore.Weighted)}
}

func (m *LockManager) sem(database string) *semaphore.Weighted {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.locks[database]
	if !ok {
		s = semaphore.NewWeighted(maxReaders)
		m.locks[database] = s
	}
	return s
}

// RLock acquires a shared lock on database. The returned function releases it.
func (m *LockManager) RLock(ctx context.Context, database string) (func(), error) {
	return m.acquire(ctx, database, 1)
}

// Lock acquires an exclusive lock on database. The returned function
// releases it.
func (m *LockManager) Lock(ctx context.Context, database string) (func(), error) {
	return m.acquire(ctx, database, maxReaders)
}

func (m *LockManager) acquire(ctx context.Context, database string, weight int64) (func(), error) {
	s := m.sem(database)
	if err := s.Acquire(ctx, weight); err != nil {
		return nil, err
	}
	var once sync.Once
	return func() { once.Do(func() { s.Release(weight) }) }, nil
}
