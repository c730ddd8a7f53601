package run

import (
	"context"
	"fmt"
	"runtime/debug"

	"golang.org/x/sync/errgroup"

	"github.com/crucible-build/crucible/pkg/logger"
)

// SafeGroup wraps errgroup.Group with panic recovery so a panicking
// goroutine in watch mode surfaces as an error instead of crashing the
// process mid-run.
type SafeGroup struct {
	group  *errgroup.Group
	logger logger.Logger
}

// NewSafeGroup creates a new SafeGroup with panic recovery
func NewSafeGroup(ctx context.Context, log logger.Logger) (*SafeGroup, context.Context) {
	g, ctx := errgroup.WithContext(ctx)
	return &SafeGroup{
		group:  g,
		logger: log,
	}, ctx
}

// Go runs the given function in a new goroutine with panic recovery.
// Any panic is converted to an error and logged with stack trace.
func (sg *SafeGroup) Go(fn func() error) {
	sg.group.Go(func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				stack := debug.Stack()

				panicErr := fmt.Errorf("goroutine panic: %v", r)

				sg.logger.Error("Goroutine panic recovered",
					logger.WithField("panic", r),
					logger.WithField("stack_trace", string(stack)))

				err = panicErr
			}
		}()

		return fn()
	})
}

// Wait blocks until all goroutines have completed or any returns an error.
// Returns the first error encountered.
func (sg *SafeGroup) Wait() error {
	return sg.group.Wait()
}
