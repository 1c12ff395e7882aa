//go:build windows

package engine

import (
	"errors"
	"fmt"
	"os"

	gitxerrors "gitx.dev/gitx/internal/errors"
)

// FileLock is an exclusive lock file holding the owner's pid. On Windows the
// file's existence is the lock; a file left by a dead process is taken over.
type FileLock struct {
	path string
	file *os.File
}

// NewFileLock creates a lock on path. Nothing is acquired until TryLock.
func NewFileLock(path string) *FileLock {
	return &FileLock{path: path}
}

// TryLock creates the lock file exclusively, returning ErrBusy while its
// owner is still running.
func (fl *FileLock) TryLock() error {
	err := fl.create()
	if !errors.Is(err, os.ErrExist) {
		return err
	}

	pid, ownerErr := lockOwner(fl.path)
	if ownerErr == nil && processAlive(pid) {
		return fmt.Errorf("%w (pid %d holds %s)", gitxerrors.ErrBusy, pid, fl.path)
	}
	if ownerErr != nil {
		// a writer that has not recorded its pid yet, or a damaged file
		return fmt.Errorf("%w (remove %s if no gitx command is running)", gitxerrors.ErrBusy, fl.path)
	}
	if err := os.Remove(fl.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove stale lock file: %w", err)
	}
	err = fl.create()
	if errors.Is(err, os.ErrExist) {
		return gitxerrors.ErrBusy
	}
	return err
}

func (fl *FileLock) create() error {
	f, err := os.OpenFile(fl.path, os.O_CREATE|os.O_EXCL|os.O_RDWR, 0644)
	if errors.Is(err, os.ErrExist) {
		return err
	}
	if err != nil {
		return fmt.Errorf("open lock file: %w", err)
	}
	if err := writeLockOwner(f); err != nil {
		_ = f.Close()
		_ = os.Remove(fl.path)
		return fmt.Errorf("write lock file: %w", err)
	}
	fl.file = f
	return nil
}

// processAlive reports whether pid names a running process. FindProcess
// opens a handle on Windows and fails for unknown pids.
func processAlive(pid int) bool {
	p, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	_ = p.Release()
	return true
}

// Unlock releases the lock. It is safe to call more than once.
func (fl *FileLock) Unlock() error {
	if fl.file == nil {
		return nil
	}
	_ = fl.file.Close()
	fl.file = nil
	return os.Remove(fl.path)
}
