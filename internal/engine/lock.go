package engine

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// writeLockOwner records the current process id in an acquired lock file
func writeLockOwner(f *os.File) error {
	if err := f.Truncate(0); err != nil {
		return err
	}
	_, err := f.WriteAt([]byte(strconv.Itoa(os.Getpid())+"\n"), 0)
	return err
}

// lockOwner returns the process id recorded in the lock file at path
func lockOwner(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return 0, fmt.Errorf("lock file %s has no owner", path)
	}
	return pid, nil
}
