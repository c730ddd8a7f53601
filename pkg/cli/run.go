package cli

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/crucible-build/crucible/pkg/executor"
	"github.com/crucible-build/crucible/pkg/logger"
	"github.com/crucible-build/crucible/pkg/notifier"
	"github.com/crucible-build/crucible/pkg/orchestrator"
	"github.com/crucible-build/crucible/pkg/plan"
	"github.com/crucible-build/crucible/pkg/types"
)

const resultRounding = 10 * time.Millisecond

// resolveRoot determines the workspace root: the --root override when given,
// otherwise the directory containing the crucible binary itself.
func resolveRoot() (string, error) {
	if workspaceRoot != "" {
		return workspaceRoot, nil
	}
	return plan.DefaultRoot()
}

// runPlan executes the full plan once. A run aborted by a failing command
// returns an ExitCodeError carrying that command's exit code.
func runPlan(ctx context.Context) error {
	root, err := resolveRoot()
	if err != nil {
		return err
	}

	// A termination signal cancels the run context; the in-flight child is
	// killed through it and the run reports aborted.
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log := logger.CreateLogger(verbosity)
	p := plan.NewBuilder(root).Build()

	printInfo(fmt.Sprintf("Starting Crucible v%s", version))
	printInfo(fmt.Sprintf("Workspace: %s (%d invocations across %d phases)", root, p.Len(), len(p.Phases)))

	result, err := runOnce(ctx, p, log)
	if err != nil {
		return err
	}

	if !result.Succeeded() {
		return &ExitCodeError{Code: result.ExitCode}
	}
	return nil
}

// runOnce drives a single orchestrator run and reports the outcome. Shared
// by the one-shot root command and watch mode.
func runOnce(ctx context.Context, p types.Plan, log logger.Logger) (types.RunResult, error) {
	exec := executor.New(log)
	orch := orchestrator.New(exec, log)
	notify := notifier.New(!noNotify, log)

	result, err := orch.Run(ctx, p)
	if err != nil {
		return types.RunResult{}, err
	}

	notify.NotifyRunFinished(result)

	if result.Succeeded() {
		printSuccess(fmt.Sprintf("All %d invocations passed in %s", result.Executed, result.Duration.Round(resultRounding)))
	} else {
		msg := fmt.Sprintf("Run aborted after %d of %d invocations (exit code %d)", result.Executed, p.Len(), result.ExitCode)
		if result.Failed != nil {
			msg = fmt.Sprintf("%s: %s", msg, result.Failed.CommandLine())
		}
		printError(msg)
	}

	return result, nil
}
