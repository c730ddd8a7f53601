package executor

import (
	"errors"
	"fmt"
)

// Sentinel errors for invocation execution. These enable reliable error
// checking with errors.Is()
var (
	// ErrCommandNotFound indicates the command could not be located or
	// its working directory does not exist. The invocation never ran.
	ErrCommandNotFound = errors.New("command not found")
)

// ExitError indicates the command ran and returned a nonzero exit code.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("command exited with code %d", e.Code)
}

// ExitCode extracts the process exit code from an execution error. Errors
// that carry no code (the command never ran) map to a generic failure code.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}

	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}

	return 1
}
