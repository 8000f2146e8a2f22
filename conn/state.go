// Package conn owns the persistent connection: the lifecycle state machine,
// the exponential-backoff reconnect policy, and the read loop that hands
// inbound messages to the dispatcher in arrival order.
package conn

// State is the connection lifecycle state. It is owned exclusively by the
// Manager; no other component mutates it.
type State int32

const (
	// StateIdle is the state before the first Connect call.
	StateIdle State = iota
	// StateConnecting means a dial is in progress.
	StateConnecting
	// StateOpen means the connection is established and the read loop runs.
	StateOpen
	// StateClosing means a caller-initiated disconnect is in progress.
	StateClosing
	// StateClosed means the connection is down. Terminal once reconnect
	// attempts are exhausted or the caller disconnected.
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateClosing:
		return "closing"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Callbacks is the outward event surface. All callbacks run synchronously on
// the manager's goroutine; they must not call Disconnect.
type Callbacks struct {
	// OnConnect fires each time the connection opens, including reopens.
	OnConnect func()
	// OnDisconnect fires when an open connection drops. err is nil for a
	// caller-initiated disconnect.
	OnDisconnect func(err error)
	// OnError receives connection-establishment failures. Parse and dispatch
	// errors never reach it.
	OnError func(err error)
	// OnMessage receives every raw inbound message before parsing.
	OnMessage func(raw string)
}
