package httpclient

import (
	"context"
	"errors"
	"fmt"

	"github.com/kbukum/httputils/component"
)

var (
	_ component.Component   = (*Component)(nil)
	_ component.Describable = (*Component)(nil)
)

// Component wraps a Client with lifecycle management. The client is
// created in Start and closed in Stop.
type Component struct {
	client *Client
	config Config
	opts   []Option
}

// NewComponent creates a new HTTP client component.
func NewComponent(cfg Config, opts ...Option) *Component {
	cfg.ApplyDefaults()
	return &Component{config: cfg, opts: opts}
}

// Name returns the component name.
func (c *Component) Name() string {
	return c.config.Name
}

// Start creates the client.
func (c *Component) Start(_ context.Context) error {
	if c.client != nil {
		return errors.New("httpclient: component already started")
	}
	client, err := New(c.config, c.opts...)
	if err != nil {
		return err
	}
	c.client = client
	return nil
}

// Stop closes the client, waiting for queued async callbacks until ctx is done.
func (c *Component) Stop(ctx context.Context) error {
	if c.client == nil {
		return nil
	}
	return c.client.Close(ctx)
}

// Health reports unhealthy before Start and after Stop.
func (c *Component) Health(_ context.Context) component.Health {
	h := component.Health{Name: c.Name(), Status: component.StatusHealthy}
	switch {
	case c.client == nil:
		h.Status = component.StatusUnhealthy
		h.Message = "not started"
	case c.client.Closed():
		h.Status = component.StatusUnhealthy
		h.Message = "closed"
	}
	return h
}

// Describe returns the component description for startup logging.
func (c *Component) Describe() component.Description {
	return component.Description{
		Name:    c.Name(),
		Type:    "http-client",
		Details: fmt.Sprintf("timeout=%s workers=%d", c.config.Timeout, c.config.Workers),
	}
}

// Client returns the underlying client. It is nil before Start.
func (c *Component) Client() *Client {
	return c.client
}
