package lock

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// pollInterval is how often Acquire retries a contended lock.
var pollInterval = 100 * time.Millisecond

// Lock is a held cache lock.
type Lock struct {
	f    *os.File
	path string
	mode Mode
}

// BusyError is returned when the lock could not be acquired before the
// context ended. Holder is nil when the lock is held shared.
type BusyError struct {
	Path   string
	Holder *Holder
	Err    error
}

func (e *BusyError) Error() string {
	if e.Holder != nil {
		return fmt.Sprintf("cache is locked by pid %d (%s) since %s: %v", e.Holder.PID, e.Holder.Command, e.Holder.AcquiredAt, e.Err)
	}
	return fmt.Sprintf("cache lock %s is busy: %v", e.Path, e.Err)
}

func (e *BusyError) Unwrap() error { return e.Err }

// Acquire locks dir in the given mode, polling until the lock is free or ctx
// is done. command is recorded in the lock file for exclusive locks.
func Acquire(ctx context.Context, dir string, mode Mode, command string) (*Lock, error) {
	path := filepath.Join(dir, FileName)
	f, err := openLockFile(path)
	if err != nil {
		return nil, err
	}

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for {
		ok, err := tryLock(f, mode)
		if err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("locking %s: %w", path, err)
		}
		if ok {
			break
		}
		select {
		case <-ctx.Done():
			_ = f.Close()
			holder, _ := Load(path)
			return nil, &BusyError{Path: path, Holder: holder, Err: ctx.Err()}
		case <-ticker.C:
		}
	}

	l := &Lock{f: f, path: path, mode: mode}
	if mode == Exclusive {
		host, _ := os.Hostname()
		h := &Holder{
			PID:        os.Getpid(),
			Host:       host,
			Command:    command,
			AcquiredAt: time.Now().Format(time.RFC3339),
		}
		// Fails on a read-only descriptor.
		_ = write(f, h)
	}
	return l, nil
}

// Release clears the holder record and unlocks. The lock file stays in place.
func (l *Lock) Release() error {
	if l == nil || l.f == nil {
		return nil
	}
	if l.mode == Exclusive {
		_ = l.f.Truncate(0)
	}
	err := unlock(l.f)
	if cerr := l.f.Close(); err == nil {
		err = cerr
	}
	l.f = nil
	if err != nil {
		return fmt.Errorf("releasing %s: %w", l.path, err)
	}
	return nil
}

// Path returns the lock file path.
func (l *Lock) Path() string { return l.path }

// openLockFile opens the lock file read-write, creating it group-writable.
// Without write permission it falls back to read-only, which is enough for flock.
func openLockFile(path string) (*os.File, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o664) //nolint:gosec // lock file is shared with the cache's group
	if err == nil {
		return f, nil
	}
	if errors.Is(err, fs.ErrPermission) {
		if rf, rerr := os.Open(path); rerr == nil { //nolint:gosec // path is the cache lock file
			return rf, nil
		}
	}
	return nil, fmt.Errorf("opening lock file: %w", err)
}
