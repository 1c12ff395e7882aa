package testhelpers

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"testing"
)

var (
	sharedBinaryPath string
	binaryOnce       sync.Once
	binaryErr        error
)

// GetSharedBinaryPath returns the path of the gitx binary, building it on
// first use.
func GetSharedBinaryPath() (string, error) {
	binaryOnce.Do(func() {
		sharedBinaryPath, binaryErr = buildBinary()
	})
	return sharedBinaryPath, binaryErr
}

// buildBinary builds the gitx binary into a temporary directory
func buildBinary() (string, error) {
	wd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get working directory: %w", err)
	}

	moduleRoot := findModuleRoot(wd)
	if moduleRoot == "" {
		return "", fmt.Errorf("could not find module root (go.mod) starting from %s", wd)
	}

	tmpDir, err := os.MkdirTemp("", "gitx-test-binary-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp directory: %w", err)
	}

	binaryPath := filepath.Join(tmpDir, "gitx")
	cmd := exec.Command("go", "build", "-o", binaryPath, "./cmd/gitx")
	cmd.Dir = moduleRoot
	output, err := cmd.CombinedOutput()
	if err != nil {
		_ = os.RemoveAll(tmpDir)
		return "", fmt.Errorf("failed to build: %s: %w", string(output), err)
	}
	return binaryPath, nil
}

// findModuleRoot walks up the directory tree from startDir to find the
// directory containing go.mod
func findModuleRoot(startDir string) string {
	dir := startDir
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// CommandResult is the outcome of one gitx invocation
type CommandResult struct {
	Output   string
	ExitCode int
}

// RunGitx runs the gitx binary in the scene's repository with GitHub and
// color disabled.
func (s *Scene) RunGitx(t *testing.T, args ...string) CommandResult {
	t.Helper()
	binaryPath, err := GetSharedBinaryPath()
	if err != nil {
		t.Fatalf("failed to build gitx binary: %v", err)
	}

	var out bytes.Buffer
	cmd := exec.Command(binaryPath, args...)
	cmd.Dir = s.Dir
	cmd.Env = append(os.Environ(), "GIT_CONFIG_GLOBAL=/dev/null", "NO_COLOR=1", "GITX_NO_GITHUB=true", "GITHUB_TOKEN=")
	cmd.Stdout = &out
	cmd.Stderr = &out

	result := CommandResult{}
	err = cmd.Run()
	var exitErr *exec.ExitError
	switch {
	case errors.As(err, &exitErr):
		result.ExitCode = exitErr.ExitCode()
	case err != nil:
		t.Fatalf("failed to run gitx: %v", err)
	}
	result.Output = out.String()
	return result
}
