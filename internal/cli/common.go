package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"gitx.dev/gitx/internal/actions"
	gitxerrors "gitx.dev/gitx/internal/errors"
	"gitx.dev/gitx/internal/runtime"
)

// ExitError carries the process exit code of a failed command. A nil Err
// means the failure was already reported.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("exit status %d", e.Code)
	}
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// ExitCode maps an error returned by a command to the process exit code
func ExitCode(err error) int {
	if err == nil {
		return actions.ExitOK
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	if gitxerrors.IsFatal(err) {
		return actions.ExitFatal
	}
	return actions.ExitNodeFailure
}

// run is a helper that provides a runtime context to a command's execution function
func run(cmd *cobra.Command, opts *runtime.Options, fn func(rt *runtime.Context) error) error {
	rt, err := runtime.GetContext(cmd.Context(), *opts)
	if err != nil {
		return err
	}
	defer func() { _ = rt.Close() }()
	return fn(rt)
}

// finish prints the run report and turns failed branches into an exit code
func finish(rt *runtime.Context, report *actions.Report, err error) error {
	if report != nil {
		report.Print(rt.Splog)
	}
	if err != nil {
		return err
	}
	if report != nil && report.Failed() {
		return &ExitError{Code: report.ExitCode()}
	}
	return nil
}

// branchArg returns the optional branch argument
func branchArg(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return ""
}
