// Package treewire is a client endpoint for a pipe-delimited, escape-aware
// text protocol carried over a persistent WebSocket connection.
//
// # Architecture
//
// Inbound data flows through four stages:
//
//	┌─────────────────────────────────────┐
//	│        Connection Manager           │  Dial, read loop,
//	│  (connect, backoff, reconnect)      │  lifecycle callbacks
//	└─────────────────────────────────────┘
//	           ↓ raw message
//	┌─────────────────────────────────────┐
//	│          Frame Parser               │  Escape-aware split into
//	│   (escape toggle, size limits)      │  [verb, target, payload, ...]
//	└─────────────────────────────────────┘
//	           ↓ decoded frame
//	┌─────────────────────────────────────┐
//	│          Dispatcher                 │  Target validation, custom
//	│  (custom handlers, payload guard)   │  handler precedence
//	└─────────────────────────────────────┘
//	           ↓ resolved verb
//	┌─────────────────────────────────────┐
//	│        Action Registry              │  Built-in verb catalogue,
//	│   (verb kinds, effect handles)      │  effects on the target tree
//	└─────────────────────────────────────┘
//
// Outbound messages are built by the frame package's escaping helpers and
// written through the Connection Manager.
//
// # Packages
//
//   - conn: connection lifecycle state machine and reconnect policy
//   - frame: wire format parsing and construction
//   - dispatch: frame routing with custom handler support
//   - action: built-in verb catalogue and timed-effect handles
//   - tree: addressed target tree interface plus an in-memory implementation
//   - config: immutable client configuration
//   - metric: Prometheus metrics registry
//   - relay: optional NATS mirror of inbound frames
//
// Error handling follows the errors package conventions: parsing and dispatch
// failures are recovered locally and logged; only connection-establishment
// failures reach the caller's error callback.
package treewire
