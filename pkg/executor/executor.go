// Package executor runs single plan invocations against the host toolchain
package executor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"

	"github.com/crucible-build/crucible/pkg/logger"
	"github.com/crucible-build/crucible/pkg/types"
)

// Executor runs one invocation to completion and reports its outcome.
type Executor interface {
	Execute(ctx context.Context, inv types.Invocation) error
}

// CommandExecutor executes invocations as child processes. The working
// directory is scoped to the child via exec.Cmd.Dir, never by changing the
// orchestrator's own directory, so no invocation's context leaks into the
// next. Output streams pass through unbuffered.
type CommandExecutor struct {
	logger logger.Logger

	stdout io.Writer
	stderr io.Writer
}

// New creates an executor wired to the process's own output streams.
func New(log logger.Logger) *CommandExecutor {
	return &CommandExecutor{
		logger: log,
		stdout: os.Stdout,
		stderr: os.Stderr,
	}
}

// NewWithOutput creates an executor with custom output streams (for testing).
func NewWithOutput(log logger.Logger, stdout, stderr io.Writer) *CommandExecutor {
	return &CommandExecutor{
		logger: log,
		stdout: stdout,
		stderr: stderr,
	}
}

// Execute runs the invocation and blocks until its process exits. The
// command line is echoed before execution. Returns ErrCommandNotFound when
// the command or its working directory cannot be resolved, and an ExitError
// carrying the exit code when the process returns nonzero.
func (e *CommandExecutor) Execute(ctx context.Context, inv types.Invocation) error {
	if info, err := os.Stat(inv.Dir); err != nil || !info.IsDir() {
		return fmt.Errorf("%w: working directory %s", ErrCommandNotFound, inv.Dir)
	}

	if _, err := exec.LookPath(inv.Command); err != nil {
		return fmt.Errorf("%w: %s", ErrCommandNotFound, inv.Command)
	}

	// Trace echo, in execution order, ahead of the child's own output.
	fmt.Fprintf(e.stdout, "+ %s\n", inv.CommandLine())

	cmd := exec.CommandContext(ctx, inv.Command, inv.FullArgs()...)
	cmd.Dir = inv.Dir
	cmd.Stdout = e.stdout
	cmd.Stderr = e.stderr
	cmd.Stdin = os.Stdin

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			if e.logger != nil {
				e.logger.Error("Command failed",
					logger.WithField("command", inv.CommandLine()),
					logger.WithField("exit_code", exitErr.ExitCode()))
			}
			return &ExitError{Code: exitErr.ExitCode()}
		}

		// Run can still fail on resolution despite the LookPath check,
		// e.g. the binary disappeared in between.
		return fmt.Errorf("%w: %s: %v", ErrCommandNotFound, inv.Command, err)
	}

	return nil
}
