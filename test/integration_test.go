//go:build integration

package integration_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/crucible-build/crucible/pkg/executor"
	"github.com/crucible-build/crucible/pkg/logger"
	"github.com/crucible-build/crucible/pkg/orchestrator"
	"github.com/crucible-build/crucible/pkg/types"
)

// newRun wires a real executor with captured output to a fresh orchestrator.
func newRun(t *testing.T) (*orchestrator.Orchestrator, *bytes.Buffer) {
	t.Helper()

	var stdout, stderr, logs bytes.Buffer
	log := logger.CreateLoggerWithOutput("error", &logs)
	exec := executor.NewWithOutput(log, &stdout, &stderr)

	return orchestrator.New(exec, log), &stdout
}

// TestEndToEndRun drives a full plan through real child processes.
func TestEndToEndRun(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	tmpDir := t.TempDir()
	for _, crate := range []string{"pkg-a", "pkg-b", "example-x"} {
		if err := os.Mkdir(filepath.Join(tmpDir, crate), 0o755); err != nil {
			t.Fatalf("failed to create %s: %v", crate, err)
		}
	}

	plan := types.Plan{
		Phases: []types.Phase{
			{
				Name: "default",
				Invocations: []types.Invocation{
					{Dir: filepath.Join(tmpDir, "pkg-a"), Command: "sh", Args: []string{"-c", "touch ran-a"}},
					{Dir: filepath.Join(tmpDir, "pkg-b"), Command: "sh", Args: []string{"-c", "touch ran-b"}},
				},
			},
			{
				Name: "examples",
				Invocations: []types.Invocation{
					{Dir: filepath.Join(tmpDir, "example-x"), Command: "sh", Args: []string{"-c", "touch ran-x"}},
				},
			},
		},
	}

	orch, _ := newRun(t)
	result, err := orch.Run(context.Background(), plan)
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	if result.Status != types.RunStatusCompleted {
		t.Fatalf("status = %s, want completed", result.Status)
	}
	if result.Executed != 3 {
		t.Errorf("executed = %d, want 3", result.Executed)
	}

	// Every invocation ran in its own working directory.
	for _, marker := range []string{"pkg-a/ran-a", "pkg-b/ran-b", "example-x/ran-x"} {
		if _, err := os.Stat(filepath.Join(tmpDir, marker)); err != nil {
			t.Errorf("missing marker %s: %v", marker, err)
		}
	}
}

// TestEndToEndFailFast verifies a real nonzero exit stops the run cold.
func TestEndToEndFailFast(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	tmpDir := t.TempDir()
	for _, crate := range []string{"pkg-a", "pkg-b"} {
		if err := os.Mkdir(filepath.Join(tmpDir, crate), 0o755); err != nil {
			t.Fatalf("failed to create %s: %v", crate, err)
		}
	}

	plan := types.Plan{
		Phases: []types.Phase{
			{
				Name: "default",
				Invocations: []types.Invocation{
					{Dir: filepath.Join(tmpDir, "pkg-a"), Command: "sh", Args: []string{"-c", "exit 101"}},
					{Dir: filepath.Join(tmpDir, "pkg-b"), Command: "sh", Args: []string{"-c", "touch never"}},
				},
			},
		},
	}

	orch, _ := newRun(t)
	result, err := orch.Run(context.Background(), plan)
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	if result.Status != types.RunStatusAborted {
		t.Fatalf("status = %s, want aborted", result.Status)
	}
	if result.ExitCode != 101 {
		t.Errorf("exit code = %d, want 101", result.ExitCode)
	}
	if _, err := os.Stat(filepath.Join(tmpDir, "pkg-b", "never")); !os.IsNotExist(err) {
		t.Error("invocation after the failure must never run")
	}
}

// TestEndToEndMissingExampleDir mirrors a missing example project.
func TestEndToEndMissingExampleDir(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	plan := types.Plan{
		Phases: []types.Phase{
			{
				Name: "examples",
				Invocations: []types.Invocation{
					{Dir: filepath.Join(t.TempDir(), "does-not-exist"), Command: "sh", Args: []string{"-c", "true"}},
				},
			},
		},
	}

	orch, stdout := newRun(t)
	result, err := orch.Run(context.Background(), plan)
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	if result.Status != types.RunStatusAborted {
		t.Fatalf("status = %s, want aborted", result.Status)
	}
	if result.ExitCode == 0 {
		t.Error("exit code must be nonzero when the directory is missing")
	}
	if bytes.Contains(stdout.Bytes(), []byte("+ cd ")) {
		t.Error("nothing should have been traced or executed")
	}
}
