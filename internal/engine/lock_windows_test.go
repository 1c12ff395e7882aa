//go:build windows

package engine

import (
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"

	gitxerrors "gitx.dev/gitx/internal/errors"
)

func TestFileLockStaleOwner(t *testing.T) {
	path := filepath.Join(t.TempDir(), "main.lock")

	t.Run("a dead owner's lock is taken over", func(t *testing.T) {
		cmd := exec.Command("cmd", "/c", "exit")
		require.NoError(t, cmd.Run())
		require.NoError(t, os.WriteFile(path, []byte(strconv.Itoa(cmd.Process.Pid)), 0644))

		lock := NewFileLock(path)
		require.NoError(t, lock.TryLock())
		pid, err := lockOwner(path)
		require.NoError(t, err)
		require.Equal(t, os.Getpid(), pid)
		require.NoError(t, lock.Unlock())
	})

	t.Run("a live owner keeps the lock", func(t *testing.T) {
		held := NewFileLock(path)
		require.NoError(t, held.TryLock())
		defer func() { _ = held.Unlock() }()

		err := NewFileLock(path).TryLock()
		require.ErrorIs(t, err, gitxerrors.ErrBusy)
		require.Contains(t, err.Error(), strconv.Itoa(os.Getpid()))
	})

	t.Run("an unreadable lock names the file to remove", func(t *testing.T) {
		require.NoError(t, os.WriteFile(path, nil, 0644))
		defer func() { _ = os.Remove(path) }()

		err := NewFileLock(path).TryLock()
		require.ErrorIs(t, err, gitxerrors.ErrBusy)
		require.Contains(t, err.Error(), path)
	})
}
