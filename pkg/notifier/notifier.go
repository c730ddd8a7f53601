// Package notifier provides run completion notifications
package notifier

import (
	"fmt"
	"time"

	"github.com/gen2brain/beeep"

	"github.com/crucible-build/crucible/pkg/logger"
	"github.com/crucible-build/crucible/pkg/types"
)

// RunNotifier sends a desktop notification when a run finishes. Notification
// failures are logged and never affect the run outcome.
type RunNotifier struct {
	enabled bool
	logger  logger.Logger
}

// New creates a new run notifier
func New(enabled bool, log logger.Logger) *RunNotifier {
	return &RunNotifier{
		enabled: enabled,
		logger:  log,
	}
}

// NotifyRunFinished reports the run's terminal state.
func (n *RunNotifier) NotifyRunFinished(result types.RunResult) {
	if !n.enabled {
		return
	}

	if result.Succeeded() {
		title := "✅ Crucible Run Completed"
		message := fmt.Sprintf("%d invocations in %s", result.Executed, formatDuration(result.Duration))
		n.send(title, message, false)
		return
	}

	title := "❌ Crucible Run Aborted"
	message := fmt.Sprintf("exit code %d", result.ExitCode)
	if result.Failed != nil {
		message = fmt.Sprintf("%s (exit code %d)", result.Failed.CommandLine(), result.ExitCode)
	}
	n.send(title, message, true)
}

func (n *RunNotifier) send(title, message string, alert bool) {
	var err error
	if alert {
		err = beeep.Alert(title, message, "")
	} else {
		err = beeep.Notify(title, message, "")
	}

	if err != nil && n.logger != nil {
		n.logger.Debug("Failed to send notification", logger.WithField("error", err))
	}
}

func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
}
