// Package runlock serializes import runs with an exclusive pid file.
package runlock

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"time"
)

// ErrLockHeld means another run currently owns the lock.
var ErrLockHeld = errors.New("another import run holds the lock")

// FileLock is an O_EXCL-based lock file. A lock older than the TTL is
// treated as left behind by a crashed run and reclaimed.
type FileLock struct {
	path string
	ttl  time.Duration
}

func New(path string, ttl time.Duration) *FileLock {
	return &FileLock{path: path, ttl: ttl}
}

// TryLock acquires the lock or returns ErrLockHeld without blocking.
func (l *FileLock) TryLock() error {
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return fmt.Errorf("failed to create lock directory: %w", err)
	}

	if fi, err := os.Stat(l.path); err == nil && l.ttl > 0 {
		if age := time.Since(fi.ModTime()); age > l.ttl {
			log.Printf("runlock: reclaiming stale lock %s (age %s)", l.path, age.Round(time.Second))
			if err := os.Remove(l.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
				return fmt.Errorf("failed to reclaim stale lock: %w", err)
			}
		}
	}

	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return ErrLockHeld
		}
		return fmt.Errorf("failed to create lock file: %w", err)
	}
	fmt.Fprintf(f, "%d\n", os.Getpid())
	return f.Close()
}

// Unlock releases the lock. Releasing an already-released lock is a
// no-op.
func (l *FileLock) Unlock() {
	if err := os.Remove(l.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Printf("runlock: failed to remove lock file %s: %v", l.path, err)
	}
}

// IsLocked reports whether the lock file currently exists. Used for
// cooperative cancellation between batches.
func (l *FileLock) IsLocked() bool {
	_, err := os.Stat(l.path)
	return err == nil
}
