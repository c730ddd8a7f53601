package executor_test

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/crucible-build/crucible/pkg/executor"
	"github.com/crucible-build/crucible/pkg/types"
)

func newTestExecutor(stdout, stderr *bytes.Buffer) *executor.CommandExecutor {
	return executor.NewWithOutput(nil, stdout, stderr)
}

func TestExecute_Success(t *testing.T) {
	tmpDir := t.TempDir()
	var stdout, stderr bytes.Buffer
	exec := newTestExecutor(&stdout, &stderr)

	inv := types.Invocation{
		Dir:     tmpDir,
		Command: "sh",
		Args:    []string{"-c", "echo hello"},
	}

	if err := exec.Execute(context.Background(), inv); err != nil {
		t.Fatalf("Execute() error: %v", err)
	}

	if !strings.Contains(stdout.String(), "hello") {
		t.Errorf("child stdout not passed through: %q", stdout.String())
	}
}

func TestExecute_TraceEchoPrecedesOutput(t *testing.T) {
	tmpDir := t.TempDir()
	var stdout, stderr bytes.Buffer
	exec := newTestExecutor(&stdout, &stderr)

	inv := types.Invocation{
		Dir:     tmpDir,
		Command: "sh",
		Args:    []string{"-c", "echo out"},
	}

	if err := exec.Execute(context.Background(), inv); err != nil {
		t.Fatalf("Execute() error: %v", err)
	}

	out := stdout.String()
	trace := strings.Index(out, "+ cd ")
	child := strings.Index(out, "out\n")

	if trace < 0 {
		t.Fatalf("missing trace echo in output: %q", out)
	}
	if child >= 0 && child < trace {
		t.Errorf("trace echo should precede child output: %q", out)
	}
	if !strings.Contains(out, inv.CommandLine()) {
		t.Errorf("trace echo should contain the full command line: %q", out)
	}
}

func TestExecute_NonzeroExit(t *testing.T) {
	tmpDir := t.TempDir()
	var stdout, stderr bytes.Buffer
	exec := newTestExecutor(&stdout, &stderr)

	inv := types.Invocation{
		Dir:     tmpDir,
		Command: "sh",
		Args:    []string{"-c", "exit 101"},
	}

	err := exec.Execute(context.Background(), inv)
	if err == nil {
		t.Fatal("expected error for nonzero exit")
	}

	var exitErr *executor.ExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("expected ExitError, got %T: %v", err, err)
	}
	if exitErr.Code != 101 {
		t.Errorf("exit code = %d, want 101", exitErr.Code)
	}
	if got := executor.ExitCode(err); got != 101 {
		t.Errorf("ExitCode() = %d, want 101", got)
	}
}

func TestExecute_CommandNotFound(t *testing.T) {
	tmpDir := t.TempDir()
	var stdout, stderr bytes.Buffer
	exec := newTestExecutor(&stdout, &stderr)

	inv := types.Invocation{
		Dir:     tmpDir,
		Command: "definitely-not-a-real-command-anywhere",
	}

	err := exec.Execute(context.Background(), inv)
	if !errors.Is(err, executor.ErrCommandNotFound) {
		t.Fatalf("expected ErrCommandNotFound, got %v", err)
	}

	// Nothing ran, so the generic failure code applies.
	if got := executor.ExitCode(err); got != 1 {
		t.Errorf("ExitCode() = %d, want 1", got)
	}
}

func TestExecute_MissingWorkingDirectory(t *testing.T) {
	var stdout, stderr bytes.Buffer
	exec := newTestExecutor(&stdout, &stderr)

	inv := types.Invocation{
		Dir:     "/nonexistent/example/project",
		Command: "sh",
		Args:    []string{"-c", "true"},
	}

	err := exec.Execute(context.Background(), inv)
	if !errors.Is(err, executor.ErrCommandNotFound) {
		t.Fatalf("expected ErrCommandNotFound for missing directory, got %v", err)
	}

	if strings.Contains(stdout.String(), "+ cd ") {
		t.Error("no trace echo should be emitted when the invocation never runs")
	}
}

func TestExitCode_Nil(t *testing.T) {
	if got := executor.ExitCode(nil); got != 0 {
		t.Errorf("ExitCode(nil) = %d, want 0", got)
	}
}
