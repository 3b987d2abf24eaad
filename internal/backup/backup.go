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
Package backup takes scheduled snapshots of the ToyQuery data directory.

SNAPSHOT LAYOUT:
================

Each snapshot is a directory named after its UTC start time and a random id:

	<backup dir>/20260118T130000Z-<uuid>/<database>/<table>.tab

The table files are copied byte for byte, so a snapshot directory can be used
as a data directory as it is.

CONSISTENCY:
============

Databases are copied one at a time while holding that database's writer
lock. Each database is internally consistent; two databases may reflect
different moments.

RETENTION:
==========

After every successful snapshot only the newest Keep snapshots are kept.
*/
package backup

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"toyquery/internal/logging"
	"toyquery/internal/metrics"
	"toyquery/internal/storage"
)

// timestampFormat sorts lexically in time order.
const timestampFormat = "20060102T150405Z"

var snapshotName = regexp.MustCompile(`^\d{8}T\d{6}Z-[0-9a-f-]{36}$`)

// Options configures a Scheduler.
type Options struct {
	Dir         string
	Schedule    string
	Keep        int
	LockTimeout time.Duration
	Metrics     *metrics.Metrics
}

// Scheduler runs snapshots on a cron schedule.
type Scheduler struct {
	store  *storage.Store
	opts   Options
	cron   *cron.Cron
	logger *logging.Logger

	mu      sync.Mutex
	lastErr error
	last    string
}

// NewScheduler creates a scheduler for store. The schedule uses the
// six-field cron syntax with a leading seconds field, or a descriptor such
// as "@daily".
func NewScheduler(store *storage.Store, opts Options) (*Scheduler, error) {
	if opts.Dir == "" {
		return nil, fmt.Errorf("backup directory cannot be empty")
	}
	if opts.Keep < 1 {
		opts.Keep = 1
	}
	if opts.LockTimeout <= 0 {
		opts.LockTimeout = 10 * time.Second
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.Get()
	}

	s := &Scheduler{
		store:  store,
		opts:   opts,
		cron:   cron.New(cron.WithLocation(time.UTC), cron.WithSeconds()),
		logger: logging.NewLogger("backup"),
	}
	if opts.Schedule != "" {
		if _, err := s.cron.AddFunc(opts.Schedule, s.run); err != nil {
			return nil, fmt.Errorf("invalid backup schedule %q: %w", opts.Schedule, err)
		}
	}
	return s, nil
}

// Start begins running scheduled snapshots.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("Backup scheduler started",
		"schedule", s.opts.Schedule,
		"dir", s.opts.Dir,
		"keep", s.opts.Keep)
}

// Stop stops the schedule and waits for a running snapshot to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info("Backup scheduler stopped")
}

// LastError returns the error of the most recent snapshot, or nil.
func (s *Scheduler) LastError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// LastSnapshot returns the path of the most recent successful snapshot.
func (s *Scheduler) LastSnapshot() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

func (s *Scheduler) run() {
	if _, err := s.Snapshot(context.Background()); err != nil {
		s.logger.Error("Backup failed", "error", err)
	}
}

// Snapshot copies every database into a new snapshot directory, prunes old
// snapshots and returns the new directory.
func (s *Scheduler) Snapshot(ctx context.Context) (string, error) {
	start := time.Now().UTC()
	dir, err := s.snapshot(ctx, start)

	s.mu.Lock()
	s.lastErr = err
	if err == nil {
		s.last = dir
	}
	s.mu.Unlock()

	if err != nil {
		s.opts.Metrics.BackupsFailed.Add(1)
		if dir != "" {
			os.RemoveAll(dir)
		}
		return "", err
	}
	s.opts.Metrics.BackupsCompleted.Add(1)
	s.logger.Info("Backup completed", "dir", dir, "duration", time.Since(start))

	if err := s.prune(); err != nil {
		s.logger.Warn("Failed to prune old backups", "error", err)
	}
	return dir, nil
}

func (s *Scheduler) snapshot(ctx context.Context, start time.Time) (string, error) {
	databases, err := s.store.ListDatabases()
	if err != nil {
		return "", err
	}

	dir := filepath.Join(s.opts.Dir, start.Format(timestampFormat)+"-"+uuid.New().String())
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create snapshot directory: %w", err)
	}

	for _, database := range databases {
		if err := s.copyDatabase(ctx, database, filepath.Join(dir, database)); err != nil {
			return dir, fmt.Errorf("database %s: %w", database, err)
		}
	}
	return dir, nil
}

func (s *Scheduler) copyDatabase(ctx context.Context, database, target string) error {
	lockCtx, cancel := context.WithTimeout(ctx, s.opts.LockTimeout)
	defer cancel()
	release, err := s.store.Locks().Lock(lockCtx, database)
	if err != nil {
		return err
	}
	defer release()

	if err := os.MkdirAll(target, 0755); err != nil {
		return err
	}
	tables, err := s.store.ListTables(database)
	if err != nil {
		return err
	}
	for _, table := range tables {
		dst := filepath.Join(target, table+storage.TableFileSuffix)
		if err := copyFile(s.store.TablePath(database, table), dst); err != nil {
			return err
		}
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// Snapshots returns the snapshot directories under the backup directory,
// oldest first.
func (s *Scheduler) Snapshots() ([]string, error) {
	entries, err := os.ReadDir(s.opts.Dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() && snapshotName.MatchString(e.Name()) {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

func (s *Scheduler) prune() error {
	names, err := s.Snapshots()
	if err != nil {
		return err
	}
	for len(names) > s.opts.Keep {
		if err := os.RemoveAll(filepath.Join(s.opts.Dir, names[0])); err != nil {
			return err
		}
		s.logger.Debug("Pruned backup", "snapshot", names[0])
		names = names[1:]
	}
	return nil
}
