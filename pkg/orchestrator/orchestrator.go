// Package orchestrator drives the plan through the executor, fail-fast
package orchestrator

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/crucible-build/crucible/pkg/executor"
	"github.com/crucible-build/crucible/pkg/logger"
	"github.com/crucible-build/crucible/pkg/types"
)

// ErrAlreadyStarted indicates Run was called on an orchestrator that has
// already left the pending state. Terminal states never resume.
var ErrAlreadyStarted = errors.New("orchestrator has already started")

// Orchestrator executes a plan phase by phase, invocation by invocation.
// Exactly one invocation is in flight at any time; the first failure aborts
// the entire run and nothing after it executes. An orchestrator drives at
// most one run.
type Orchestrator struct {
	executor executor.Executor
	logger   logger.Logger

	mu     sync.Mutex
	status types.RunStatus
}

// New creates an orchestrator in the pending state.
func New(exec executor.Executor, log logger.Logger) *Orchestrator {
	return &Orchestrator{
		executor: exec,
		logger:   log,
		status:   types.RunStatusPending,
	}
}

// Status returns the orchestrator's current lifecycle state.
func (o *Orchestrator) Status() types.RunStatus {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.status
}

func (o *Orchestrator) setStatus(s types.RunStatus) {
	o.mu.Lock()
	o.status = s
	o.mu.Unlock()
}

// Run executes every invocation of every phase, in declared order, blocking
// on each until its process exits. It returns a completed result when all
// invocations succeed, or an aborted result identifying the first failing
// invocation and its exit code. An empty plan completes trivially.
func (o *Orchestrator) Run(ctx context.Context, plan types.Plan) (types.RunResult, error) {
	o.mu.Lock()
	if o.status != types.RunStatusPending {
		o.mu.Unlock()
		return types.RunResult{}, ErrAlreadyStarted
	}
	o.status = types.RunStatusRunning
	o.mu.Unlock()

	result := types.RunResult{
		ID:        uuid.New().String(),
		Status:    types.RunStatusRunning,
		StartedAt: time.Now(),
	}

	o.logger.Info("Run started",
		logger.WithField("run_id", result.ID),
		logger.WithField("phases", len(plan.Phases)),
		logger.WithField("invocations", plan.Len()))

	for _, phase := range plan.Phases {
		phaseLog := o.logger.WithPhase(phase.Name)
		phaseLog.Info("Phase started",
			logger.WithField("invocations", len(phase.Invocations)))

		for _, inv := range phase.Invocations {
			result.Executed++

			if err := o.executor.Execute(ctx, inv); err != nil {
				failed := inv
				result.Status = types.RunStatusAborted
				result.Failed = &failed
				result.ExitCode = executor.ExitCode(err)
				result.Duration = time.Since(result.StartedAt)
				o.setStatus(types.RunStatusAborted)

				phaseLog.Error("Run aborted",
					logger.WithField("command", failed.CommandLine()),
					logger.WithField("exit_code", result.ExitCode),
					logger.WithField("executed", result.Executed))

				return result, nil
			}
		}

		phaseLog.Success("Phase completed")
	}

	result.Status = types.RunStatusCompleted
	result.Duration = time.Since(result.StartedAt)
	o.setStatus(types.RunStatusCompleted)

	o.logger.Success("Run completed",
		logger.WithField("invocations", result.Executed),
		logger.WithField("duration", result.Duration.Round(time.Millisecond)))

	return result, nil
}
