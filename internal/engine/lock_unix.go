//go:build !windows

package engine

import (
	"errors"
	"fmt"
	"os"
	"syscall"

	gitxerrors "gitx.dev/gitx/internal/errors"
)

// FileLock is a cross-process advisory lock held with flock(2)
type FileLock struct {
	path string
	file *os.File
}

// NewFileLock creates a lock on path. Nothing is acquired until TryLock.
func NewFileLock(path string) *FileLock {
	return &FileLock{path: path}
}

// TryLock acquires the lock without blocking, returning ErrBusy when
// another process holds it.
func (fl *FileLock) TryLock() error {
	f, err := os.OpenFile(fl.path, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return fmt.Errorf("open lock file: %w", err)
	}

	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX|syscall.LOCK_NB); err != nil {
		_ = f.Close()
		if errors.Is(err, syscall.EWOULDBLOCK) {
			return gitxerrors.ErrBusy
		}
		return fmt.Errorf("flock: %w", err)
	}
	if err := writeLockOwner(f); err != nil {
		_ = syscall.Flock(int(f.Fd()), syscall.LOCK_UN)
		_ = f.Close()
		return fmt.Errorf("write lock file: %w", err)
	}
	fl.file = f
	return nil
}

// Unlock releases the lock. It is safe to call more than once.
func (fl *FileLock) Unlock() error {
	if fl.file == nil {
		return nil
	}
	f := fl.file
	fl.file = nil
	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_UN); err != nil {
		_ = f.Close()
		return fmt.Errorf("unlock: %w", err)
	}
	return f.Close()
}
