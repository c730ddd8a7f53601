package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/crucible-build/crucible/internal/run"
	"github.com/crucible-build/crucible/pkg/logger"
	"github.com/crucible-build/crucible/pkg/plan"
	"github.com/crucible-build/crucible/pkg/watcher"
)

func newWatchCmd() *cobra.Command {
	var settling time.Duration

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Rerun the full plan when source files change",
		Long: `Run the plan once, then watch the workspace and rerun the entire plan
whenever changes settle. Runs never overlap: a change arriving mid-run queues
exactly one rerun. Each rerun is strictly sequential and fail-fast, the same
as a one-shot run.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd.Context(), settling)
		},
	}

	cmd.Flags().DurationVar(&settling, "settling", 500*time.Millisecond, "delay before a change batch triggers a rerun")

	return cmd
}

func runWatch(ctx context.Context, settling time.Duration) error {
	root, err := resolveRoot()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	log := logger.CreateLogger(verbosity)
	p := plan.NewBuilder(root).Build()

	w, err := watcher.New(log)
	if err != nil {
		return err
	}
	defer w.Close()
	w.SetSettlingDelay(settling)

	printInfo(fmt.Sprintf("Starting Crucible v%s in watch mode", version))
	printInfo(fmt.Sprintf("Workspace: %s", root))

	// Capacity one: a change arriving mid-run queues exactly one rerun.
	trigger := make(chan struct{}, 1)

	sg, ctx := run.NewSafeGroup(ctx, log)

	sg.Go(func() error {
		err := w.Watch(ctx, root, func() {
			select {
			case trigger <- struct{}{}:
			default:
			}
		})
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})

	sg.Go(func() error {
		// First run happens immediately; later runs wait for changes.
		for {
			result, err := runOnce(ctx, p, log)
			if err != nil {
				return err
			}
			if ctx.Err() != nil {
				return nil
			}
			if !result.Succeeded() {
				printInfo("Waiting for changes before rerunning...")
			}

			select {
			case <-ctx.Done():
				return nil
			case <-trigger:
				printInfo("Changes settled, rerunning plan")
			}
		}
	})

	// Handle shutdown signals with proper context cancellation
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT)

	done := make(chan error, 1)
	go func() { done <- sg.Wait() }()

	select {
	case sig := <-sigChan:
		printInfo(fmt.Sprintf("Received signal: %s", sig))
		cancel()
		<-done
		printSuccess("Crucible stopped gracefully")
		return nil
	case err := <-done:
		return err
	}
}
