package conn

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/c360/treewire/config"
	"github.com/c360/treewire/dispatch"
	"github.com/c360/treewire/errors"
	"github.com/c360/treewire/frame"
	"github.com/c360/treewire/metric"
	"github.com/c360/treewire/pkg/retry"
)

// versionVerb marks the protocol-version control frame a server may send as
// its first message: version|treewire|<semver>.
const versionVerb = "version"

// Manager owns the persistent WebSocket connection and drives the reconnect
// state machine. Inbound messages are parsed and dispatched inline on the
// read loop, one at a time, in arrival order; the manager never reorders,
// buffers, or deduplicates frames.
type Manager struct {
	cfg        config.Config
	dispatcher *dispatch.Dispatcher
	callbacks  Callbacks
	logger     *slog.Logger
	metrics    *Metrics
	backoff    retry.Config
	parseOpts  frame.Options
	dialer     *websocket.Dialer

	connMu sync.Mutex
	wsConn *websocket.Conn

	state      atomic.Int32
	reconnects atomic.Int32
	inFlight   atomic.Bool

	shutdown     chan struct{}
	shutdownOnce sync.Once
	wg           sync.WaitGroup
}

// NewManager validates the configuration and builds a manager. The
// dispatcher is required; registry, logger, and callbacks are optional.
func NewManager(cfg config.Config, dispatcher *dispatch.Dispatcher,
	metricsRegistry *metric.MetricsRegistry, logger *slog.Logger, callbacks Callbacks) (*Manager, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if dispatcher == nil {
		return nil, errors.WrapFatal(
			fmt.Errorf("%w: dispatcher is required", errors.ErrInvalidConfig),
			"conn", "NewManager", "check dispatcher",
		)
	}
	if logger == nil || !cfg.Logging {
		logger = slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.Level(127)}))
	}

	tlsConf, err := cfg.TLS.Load()
	if err != nil {
		return nil, errors.WrapFatal(err, "conn", "NewManager", "load TLS settings")
	}

	multiplier := cfg.Reconnect.Multiplier
	if multiplier == 0 {
		multiplier = 2.0
	}

	return &Manager{
		cfg:        cfg,
		dispatcher: dispatcher,
		callbacks:  callbacks,
		logger:     logger,
		metrics:    newMetrics(metricsRegistry, "conn"),
		backoff: retry.Config{
			MaxAttempts:  cfg.Reconnect.MaxAttempts,
			InitialDelay: cfg.Reconnect.BaseDelay,
			MaxDelay:     cfg.Reconnect.MaxDelay,
			Multiplier:   multiplier,
		},
		parseOpts: cfg.ParseOptions(),
		dialer: &websocket.Dialer{
			HandshakeTimeout: 45 * time.Second,
			TLSClientConfig:  tlsConf,
		},
		shutdown: make(chan struct{}),
	}, nil
}

// State returns the current lifecycle state.
func (m *Manager) State() State {
	return State(m.state.Load())
}

// ReconnectAttempts returns the current value of the reconnect counter.
func (m *Manager) ReconnectAttempts() int {
	return int(m.reconnects.Load())
}

// Connect starts the connection loop. A second call while an attempt is in
// flight, or after the manager reached its terminal state, is a no-op.
// The address was validated at construction; it is re-checked here so a
// manager built with a stale config still fails fast instead of dialing.
func (m *Manager) Connect(ctx context.Context) error {
	if err := config.ValidateAddress(m.cfg.Address); err != nil {
		return err
	}
	if !m.inFlight.CompareAndSwap(false, true) {
		m.logger.Debug("connect ignored, attempt already in flight")
		return nil
	}

	m.wg.Add(1)
	go m.run(ctx)
	return nil
}

// Disconnect forces Closing then Closed from any non-terminal state and
// never schedules a retry. It does not cancel handlers already invoked.
// Must not be called from a lifecycle callback.
func (m *Manager) Disconnect() {
	m.setState(StateClosing)
	m.shutdownOnce.Do(func() { close(m.shutdown) })
	m.closeConn()
	m.wg.Wait()
	m.setState(StateClosed)
}

// Send builds an outbound frame, escaping the payload, and writes it to the
// wire. It fails when the connection is not open.
func (m *Manager) Send(verb, target, payload string, extras ...string) error {
	raw := frame.BuildEscaped(m.cfg.Escape(), verb, target, payload, extras...)
	return m.SendRaw(raw)
}

// SendRaw writes an already-built message. Writes are serialized; gorilla
// connections allow only one concurrent writer.
func (m *Manager) SendRaw(raw string) error {
	m.connMu.Lock()
	defer m.connMu.Unlock()
	if m.wsConn == nil || m.State() != StateOpen {
		return errors.WrapTransient(errors.ErrNotConnected, "conn", "SendRaw", "check connection")
	}
	if err := m.wsConn.WriteMessage(websocket.TextMessage, []byte(raw)); err != nil {
		return errors.WrapTransient(err, "conn", "SendRaw", "write message")
	}
	m.metrics.sent()
	return nil
}

// run is the connection loop: dial, read until drop, back off, redial. It
// exits on manual disconnect, context cancellation, fatal protocol errors,
// or when reconnect attempts are exhausted.
func (m *Manager) run(ctx context.Context) {
	defer m.wg.Done()

	for {
		select {
		case <-m.shutdown:
			m.setState(StateClosed)
			return
		case <-ctx.Done():
			m.setState(StateClosed)
			return
		default:
		}

		m.setState(StateConnecting)
		wsConn, _, err := m.dialer.DialContext(ctx, m.cfg.Address, nil)
		if err != nil {
			m.setState(StateClosed)
			m.emitError(errors.WrapTransient(
				fmt.Errorf("%w: %v", errors.ErrConnectFailed, err),
				"conn", "run", "dial",
			))
			if !m.waitReconnect(ctx) {
				return
			}
			continue
		}

		// Successful open resets the reconnect counter.
		m.reconnects.Store(0)
		m.setConn(wsConn)
		m.setState(StateOpen)
		m.metrics.opened()
		m.logger.Info("connection open", "address", m.cfg.Address)
		if m.callbacks.OnConnect != nil {
			m.callbacks.OnConnect()
		}

		readErr := m.readLoop(ctx, wsConn)

		m.setConn(nil)
		_ = wsConn.Close()
		m.setState(StateClosed)
		if m.callbacks.OnDisconnect != nil {
			m.callbacks.OnDisconnect(readErr)
		}

		if readErr != nil && errors.IsFatal(readErr) {
			m.emitError(readErr)
			return
		}
		if !m.waitReconnect(ctx) {
			return
		}
	}
}

// readLoop reads messages until the connection drops. A nil return means a
// caller-initiated close; frame errors never end the loop.
func (m *Manager) readLoop(ctx context.Context, wsConn *websocket.Conn) error {
	for {
		_, data, err := wsConn.ReadMessage()
		if err != nil {
			select {
			case <-m.shutdown:
				return nil
			case <-ctx.Done():
				return nil
			default:
				return errors.WrapTransient(
					fmt.Errorf("%w: %v", errors.ErrConnectionClosed, err),
					"conn", "readLoop", "read message",
				)
			}
		}

		raw := string(data)
		m.metrics.received()
		if m.callbacks.OnMessage != nil {
			m.callbacks.OnMessage(raw)
		}

		fields, err := frame.Parse(raw, m.parseOpts)
		if err != nil {
			// FrameError: log, drop the frame, keep the connection open.
			m.logger.Warn("frame dropped", "error", err, "size", len(raw))
			m.metrics.droppedFrame("parse_error")
			continue
		}
		fr, err := frame.FromFields(fields)
		if err != nil {
			m.logger.Warn("frame dropped", "error", err, "fields", len(fields))
			m.metrics.droppedFrame("short_frame")
			continue
		}

		if fr.Verb == versionVerb {
			if err := m.gateVersion(fr); err != nil {
				return err
			}
			continue
		}

		// Dispatch errors are recovered inside Process; the returned error
		// is accounting only.
		_ = m.dispatcher.Process(ctx, fr)
	}
}

// waitReconnect sleeps out the backoff delay before the next attempt.
// It returns false when no retry should happen: reconnect disabled, attempts
// exhausted, shutdown, or the connection no longer closed when the delay
// expires.
func (m *Manager) waitReconnect(ctx context.Context) bool {
	if !m.cfg.Reconnect.Enabled {
		m.logger.Info("reconnect disabled, giving up")
		return false
	}

	attempt := int(m.reconnects.Add(1))
	if m.cfg.Reconnect.MaxAttempts > 0 && attempt > m.cfg.Reconnect.MaxAttempts {
		m.logger.Warn("reconnect attempts exhausted", "attempts", m.cfg.Reconnect.MaxAttempts)
		m.emitError(errors.WrapFatal(errors.ErrMaxReconnects, "conn", "waitReconnect", "schedule retry"))
		return false
	}

	delay := m.backoff.DelayFor(attempt)
	m.metrics.reconnectScheduled()
	m.logger.Info("reconnect scheduled", "attempt", attempt, "delay", delay)

	timer := time.NewTimer(delay)
	select {
	case <-m.shutdown:
		timer.Stop()
		return false
	case <-ctx.Done():
		timer.Stop()
		return false
	case <-timer.C:
	}

	// Superseded while we slept: if the connection is no longer closed the
	// scheduled retry is abandoned.
	return m.State() == StateClosed
}

// gateVersion handles the protocol-version control frame. With enforcement
// on, a major-version mismatch is fatal and closes the connection; otherwise
// it is logged and ignored.
func (m *Manager) gateVersion(fr frame.Frame) error {
	server := fr.Payload
	if major(server) == major(m.cfg.Protocol.Version) {
		m.logger.Debug("protocol version accepted", "server", server)
		return nil
	}
	if !m.cfg.Protocol.Enforce {
		m.logger.Warn("protocol version mismatch",
			"server", server, "client", m.cfg.Protocol.Version)
		return nil
	}
	return errors.WrapFatal(
		fmt.Errorf("%w: server %q, client %q", errors.ErrVersionMismatch, server, m.cfg.Protocol.Version),
		"conn", "gateVersion", "check protocol version",
	)
}

func major(version string) string {
	if i := strings.IndexByte(version, '.'); i >= 0 {
		return version[:i]
	}
	return version
}

func (m *Manager) setState(s State) {
	m.state.Store(int32(s))
	m.metrics.state(s)
}

func (m *Manager) setConn(wsConn *websocket.Conn) {
	m.connMu.Lock()
	m.wsConn = wsConn
	m.connMu.Unlock()
}

func (m *Manager) closeConn() {
	m.connMu.Lock()
	if m.wsConn != nil {
		_ = m.wsConn.Close()
	}
	m.connMu.Unlock()
}

func (m *Manager) emitError(err error) {
	m.logger.Error("connection error", "error", err)
	if m.callbacks.OnError != nil {
		m.callbacks.OnError(err)
	}
}
