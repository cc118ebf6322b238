package testutil

import (
	"context"

	"github.com/kbukum/httputils/component"
)

// TestComponent extends component.Component with state control for tests.
type TestComponent interface {
	component.Component

	// Reset restores the component to its initial state.
	Reset(ctx context.Context) error

	// Snapshot captures the current state for a later Restore.
	Snapshot(ctx context.Context) (any, error)

	// Restore returns the component to a state taken by Snapshot.
	Restore(ctx context.Context, snapshot any) error
}
