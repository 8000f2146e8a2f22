package treewire

import (
	"context"
	"io"
	"log/slog"

	"github.com/c360/treewire/action"
	"github.com/c360/treewire/config"
	"github.com/c360/treewire/conn"
	"github.com/c360/treewire/dispatch"
	"github.com/c360/treewire/metric"
	"github.com/c360/treewire/pkg/security"
	"github.com/c360/treewire/tree"
)

// Client wires the connection manager, dispatcher, action registry, and
// payload guard over a caller-supplied target tree. It is the package's
// front door; the subpackages remain usable directly.
type Client struct {
	registry   *action.Registry
	dispatcher *dispatch.Dispatcher
	manager    *conn.Manager
}

// Option customizes client construction.
type Option func(*options)

type options struct {
	logger    *slog.Logger
	metrics   *metric.MetricsRegistry
	callbacks conn.Callbacks
	events    action.EventSink
}

// WithLogger sets the structured logger. Without it, and whenever the
// config's logging toggle is off, output is discarded.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithMetrics registers connection and dispatch metrics on the registry.
func WithMetrics(registry *metric.MetricsRegistry) Option {
	return func(o *options) { o.metrics = registry }
}

// WithCallbacks installs the lifecycle callback surface.
func WithCallbacks(callbacks conn.Callbacks) Option {
	return func(o *options) { o.callbacks = callbacks }
}

// WithEventSink installs the receiver for trigger events.
func WithEventSink(sink action.EventSink) Option {
	return func(o *options) { o.events = sink }
}

// New builds a client over the given target tree.
func New(cfg config.Config, tr tree.Tree, opts ...Option) (*Client, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	logger := o.logger
	if logger == nil || !cfg.Logging {
		logger = slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.Level(127)}))
	}

	registry := action.NewRegistry(logger)
	if o.events != nil {
		registry.SetEventSink(o.events)
	}

	guard := security.NewPayloadGuard(cfg.Payload.MaxSize, cfg.Payload.Validate)
	dispatcher := dispatch.New(registry, tr, guard, logger, o.metrics)

	manager, err := conn.NewManager(cfg, dispatcher, o.metrics, logger, o.callbacks)
	if err != nil {
		return nil, err
	}

	return &Client{
		registry:   registry,
		dispatcher: dispatcher,
		manager:    manager,
	}, nil
}

// Connect starts the connection loop. See conn.Manager.Connect.
func (c *Client) Connect(ctx context.Context) error {
	return c.manager.Connect(ctx)
}

// Disconnect closes the connection without scheduling a retry. The client
// is terminal afterwards.
func (c *Client) Disconnect() {
	c.manager.Disconnect()
}

// Send writes an outbound frame, escaping the payload.
func (c *Client) Send(verb, target, payload string, extras ...string) error {
	return c.manager.Send(verb, target, payload, extras...)
}

// State returns the connection lifecycle state.
func (c *Client) State() conn.State {
	return c.manager.State()
}

// SetHandler installs a custom verb handler; it takes precedence over the
// built-in catalogue.
func (c *Client) SetHandler(verb string, h dispatch.Handler) {
	c.dispatcher.SetHandler(verb, h)
}

// RemoveHandler uninstalls a custom verb handler.
func (c *Client) RemoveHandler(verb string) {
	c.dispatcher.RemoveHandler(verb)
}

// Registry exposes the built-in verb catalogue and effect handles.
func (c *Client) Registry() *action.Registry {
	return c.registry
}
