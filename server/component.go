package server

import (
	"context"
	"fmt"

	"github.com/kbukum/httputils/component"
)

const componentName = "http-server"

var (
	_ component.Component   = (*Component)(nil)
	_ component.Describable = (*Component)(nil)
)

// Component wraps Server to implement component.Component.
type Component struct {
	server *Server
}

// NewComponent returns a component backed by s.
func NewComponent(s *Server) *Component {
	return &Component{server: s}
}

// Name returns the component name used for registration.
func (sc *Component) Name() string { return componentName }

// Start starts the underlying server.
func (sc *Component) Start(ctx context.Context) error {
	return sc.server.Start(ctx)
}

// Stop gracefully shuts down the underlying server.
func (sc *Component) Stop(ctx context.Context) error {
	return sc.server.Stop(ctx)
}

// Health reports whether the server is listening.
func (sc *Component) Health(context.Context) component.Health {
	sc.server.mu.Lock()
	defer sc.server.mu.Unlock()
	switch {
	case sc.server.listener == nil:
		return component.Health{Name: componentName, Status: component.StatusUnhealthy, Message: "not started"}
	case sc.server.stopped:
		return component.Health{Name: componentName, Status: component.StatusUnhealthy, Message: "stopped"}
	}
	return component.Health{Name: componentName, Status: component.StatusHealthy}
}

// Describe returns summary info for startup logging.
func (sc *Component) Describe() component.Description {
	return component.Description{
		Name:    "HTTP Server",
		Type:    "server",
		Details: sc.server.Addr(),
	}
}

// Reset forgets every /flaky counter so keys fail again from the start.
func (sc *Component) Reset(context.Context) error {
	sc.server.flaky.set(nil)
	return nil
}

// Snapshot captures the /flaky counters.
func (sc *Component) Snapshot(context.Context) (any, error) {
	return sc.server.flaky.counts(), nil
}

// Restore puts back counters taken by Snapshot.
func (sc *Component) Restore(_ context.Context, snapshot any) error {
	seen, ok := snapshot.(map[string]int)
	if !ok {
		return fmt.Errorf("server: unexpected snapshot type %T", snapshot)
	}
	sc.server.flaky.set(seen)
	return nil
}

// Server returns the wrapped server.
func (sc *Component) Server() *Server {
	return sc.server
}
