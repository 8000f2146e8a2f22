// Package relay mirrors inbound raw frames to a NATS subject so other
// processes can observe or fan out the wire traffic. The relay is strictly
// best-effort: publish failures are counted and logged, never surfaced to
// the dispatch path.
package relay

import (
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/c360/treewire/errors"
)

// Config holds relay settings
type Config struct {
	// URL is the NATS server address, e.g. nats://localhost:4222.
	URL string `json:"url"`
	// Subject receives one message per inbound frame, raw wire bytes.
	Subject string `json:"subject"`
	// Name identifies the relay's NATS connection.
	Name string `json:"name"`
}

// Relay publishes inbound frames to NATS.
type Relay struct {
	nc      *nats.Conn
	subject string
	logger  *slog.Logger

	published atomic.Int64
	failed    atomic.Int64
}

// New connects to NATS and returns a relay. A nil logger discards.
func New(cfg Config, logger *slog.Logger) (*Relay, error) {
	if cfg.URL == "" || cfg.Subject == "" {
		return nil, errors.WrapFatal(
			fmt.Errorf("%w: relay url and subject are required", errors.ErrInvalidConfig),
			"relay", "New", "validate config",
		)
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.Level(127)}))
	}
	name := cfg.Name
	if name == "" {
		name = "treewire-relay"
	}

	nc, err := nats.Connect(cfg.URL,
		nats.Name(name),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, errors.WrapTransient(err, "relay", "New", "connect to NATS")
	}

	return &Relay{nc: nc, subject: cfg.Subject, logger: logger}, nil
}

// Mirror publishes one raw inbound frame. Safe to install directly as the
// connection manager's OnMessage callback.
func (r *Relay) Mirror(raw string) {
	if err := r.nc.Publish(r.subject, []byte(raw)); err != nil {
		r.failed.Add(1)
		r.logger.Warn("relay publish failed", "subject", r.subject, "error", err)
		return
	}
	r.published.Add(1)
}

// Stats returns published and failed message counts.
func (r *Relay) Stats() (published, failed int64) {
	return r.published.Load(), r.failed.Load()
}

// Close flushes and closes the NATS connection.
func (r *Relay) Close() {
	if err := r.nc.Flush(); err != nil {
		r.logger.Warn("relay flush failed", "error", err)
	}
	r.nc.Close()
}
