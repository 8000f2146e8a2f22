// Package dispatch routes decoded frames to effects. The dispatcher
// validates the target identifier, resolves the verb through the custom
// handler map and then the built-in registry, and isolates every frame so a
// bad one cannot take down the connection or the frames behind it.
package dispatch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/c360/treewire/action"
	"github.com/c360/treewire/errors"
	"github.com/c360/treewire/frame"
	"github.com/c360/treewire/metric"
	"github.com/c360/treewire/pkg/security"
	"github.com/c360/treewire/tree"
)

// Handler is a caller-supplied verb handler. It takes precedence over the
// built-in registry for its verb. The dispatcher waits on the returned error
// for completion accounting; a handler doing its own asynchronous work must
// settle before returning if it wants ordering relative to later frames.
type Handler func(ctx context.Context, fr frame.Frame) error

// Dispatcher consumes parser output and invokes effects.
type Dispatcher struct {
	registry *action.Registry
	tree     tree.Tree
	guard    *security.PayloadGuard
	logger   *slog.Logger
	secLog   *slog.Logger
	metrics  *Metrics

	customMu sync.RWMutex
	custom   map[string]Handler
}

// New creates a dispatcher over the given registry and target tree. A nil
// guard disables payload validation; a nil logger discards.
func New(registry *action.Registry, tr tree.Tree, guard *security.PayloadGuard,
	logger *slog.Logger, metricsRegistry *metric.MetricsRegistry) *Dispatcher {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.Level(127)}))
	}
	return &Dispatcher{
		registry: registry,
		tree:     tr,
		guard:    guard,
		logger:   logger,
		secLog:   logger.WithGroup("security"),
		metrics:  newMetrics(metricsRegistry, "dispatch"),
		custom:   make(map[string]Handler),
	}
}

// SetHandler installs a custom handler for a verb, replacing any previous
// one. Handlers may be installed and removed at any time; a handler sees
// only frames arriving after installation.
func (d *Dispatcher) SetHandler(verb string, h Handler) {
	d.customMu.Lock()
	defer d.customMu.Unlock()
	if h == nil {
		delete(d.custom, verb)
		return
	}
	d.custom[verb] = h
}

// RemoveHandler uninstalls a custom handler.
func (d *Dispatcher) RemoveHandler(verb string) {
	d.customMu.Lock()
	defer d.customMu.Unlock()
	delete(d.custom, verb)
}

// Process routes one frame. Every failure is recovered here: the returned
// error is for the caller's accounting only and is never fatal to the
// connection.
func (d *Dispatcher) Process(ctx context.Context, fr frame.Frame) error {
	if !security.ValidIdentifier(fr.Target) {
		d.secLog.Warn("invalid target identifier rejected",
			"verb", fr.Verb, "target", truncate(fr.Target, 32))
		d.metrics.violation("invalid_target")
		return errors.WrapInvalid(errors.ErrInvalidTarget, "dispatch", "Process", "validate target")
	}

	node, ok := d.tree.Lookup(fr.Target)
	if !ok {
		d.logger.Warn("target not found", "verb", fr.Verb, "target", fr.Target)
		d.metrics.dropped("target_not_found")
		return errors.WrapInvalid(errors.ErrTargetNotFound, "dispatch", "Process", "resolve target")
	}

	// Custom handlers take precedence over the built-in catalogue.
	d.customMu.RLock()
	handler := d.custom[fr.Verb]
	d.customMu.RUnlock()
	if handler != nil {
		err := d.invokeCustom(ctx, handler, fr)
		if err != nil {
			d.logger.Warn("custom handler failed", "verb", fr.Verb, "target", fr.Target, "error", err)
			d.metrics.processed(fr.Verb, "handler_error")
			return err
		}
		d.metrics.processed(fr.Verb, "ok")
		return nil
	}

	verb, ok := d.registry.Lookup(fr.Verb)
	if !ok {
		// Forward extensibility: a sender may introduce verbs this receiver
		// does not know. Skip, never fail.
		d.logger.Debug("unknown verb skipped", "verb", fr.Verb, "target", fr.Target)
		d.metrics.dropped("unknown_verb")
		return nil
	}

	inv := action.Invocation{
		Target:       fr.Target,
		Payload:      fr.Payload,
		Extras:       fr.Extras,
		Node:         node,
		StructuredOK: true,
	}

	if verb.Kind.Structured() {
		if err := d.guard.Check(fr.Payload); err != nil {
			// Non-fatal security event: the effect degrades to its
			// raw-string path rather than aborting the dispatch.
			d.secLog.Warn("structured payload rejected",
				"verb", fr.Verb, "target", fr.Target, "error", err)
			d.metrics.violation("payload_rejected")
			inv.StructuredOK = false
		}
	}

	if err := d.invokeBuiltin(verb, inv); err != nil {
		d.logger.Warn("verb effect failed", "verb", fr.Verb, "target", fr.Target, "error", err)
		d.metrics.processed(fr.Verb, "effect_error")
		return err
	}
	d.metrics.processed(fr.Verb, "ok")
	return nil
}

// invokeCustom runs a custom handler with panic isolation.
func (d *Dispatcher) invokeCustom(ctx context.Context, handler Handler, fr frame.Frame) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = errors.WrapInvalid(
				fmt.Errorf("%w: %v", errors.ErrHandlerPanic, rec),
				"dispatch", "invokeCustom", "run custom handler",
			)
		}
	}()
	return handler(ctx, fr)
}

// invokeBuiltin runs a built-in effect with panic isolation.
func (d *Dispatcher) invokeBuiltin(verb action.Verb, inv action.Invocation) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = errors.WrapInvalid(
				fmt.Errorf("%w: %v", errors.ErrHandlerPanic, rec),
				"dispatch", "invokeBuiltin", "run builtin effect",
			)
		}
	}()
	verb.Run(d.registry, inv)
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
