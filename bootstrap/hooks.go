package bootstrap

import (
	"context"
	"fmt"
)

// Hook is a lifecycle callback. Commands register hooks to bring up and tear
// down what they need without bootstrap knowing about it.
type Hook func(ctx context.Context) error

// OnStart registers hooks that run once telemetry is installed.
func (a *App) OnStart(hooks ...Hook) {
	a.onStart = append(a.onStart, hooks...)
}

// OnReady registers hooks that run after every OnStart hook succeeded.
func (a *App) OnReady(hooks ...Hook) {
	a.onReady = append(a.onReady, hooks...)
}

// OnStop registers hooks for graceful shutdown. They run in reverse
// registration order, before telemetry is flushed.
func (a *App) OnStop(hooks ...Hook) {
	a.onStop = append(a.onStop, hooks...)
}

// runHooks executes hooks in order, returning the first error.
func runHooks(ctx context.Context, hooks []Hook) error {
	for i, h := range hooks {
		if err := h(ctx); err != nil {
			return fmt.Errorf("hook %d failed: %w", i, err)
		}
	}
	return nil
}

// runHooksReverse executes every hook, last first, and returns the first
// error seen.
func runHooksReverse(ctx context.Context, hooks []Hook) error {
	var first error
	for i := len(hooks) - 1; i >= 0; i-- {
		if err := hooks[i](ctx); err != nil && first == nil {
			first = fmt.Errorf("hook %d failed: %w", i, err)
		}
	}
	return first
}
