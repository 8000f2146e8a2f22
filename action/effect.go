package action

import (
	"strconv"
	"sync"

	"github.com/google/uuid"
)

// EffectState is the lifecycle of a started timed effect.
type EffectState int

const (
	// EffectRunning is the state immediately after start.
	EffectRunning EffectState = iota
	// EffectPaused means the effect is suspended and may resume.
	EffectPaused
	// EffectCancelled is terminal.
	EffectCancelled
)

func (s EffectState) String() string {
	switch s {
	case EffectRunning:
		return "running"
	case EffectPaused:
		return "paused"
	case EffectCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// EffectParams are the decoded positional extras of an effect-start verb.
// Absent or empty extras take the stated defaults; unparseable numerics also
// fall back to the default rather than failing the frame.
type EffectParams struct {
	Keyframes  string // payload: keyframe definition or named preset
	DurationMS int    // extra 0, default 1000
	Easing     string // extra 1, default "linear"
	DelayMS    int    // extra 2, default 0
	Iterations int    // extra 3, default 1; "infinite" decodes to -1
	Direction  string // extra 4, default "normal"
	Fill       string // extra 5, default "none"
}

func decodeEffectParams(inv Invocation) EffectParams {
	return EffectParams{
		Keyframes:  inv.Payload,
		DurationMS: intExtra(inv, 0, 1000),
		Easing:     inv.extra(1, "linear"),
		DelayMS:    intExtra(inv, 2, 0),
		Iterations: iterationsExtra(inv, 3, 1),
		Direction:  inv.extra(4, "normal"),
		Fill:       inv.extra(5, "none"),
	}
}

func intExtra(inv Invocation, i, def int) int {
	raw := inv.extra(i, "")
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return def
	}
	return n
}

func iterationsExtra(inv Invocation, i, def int) int {
	raw := inv.extra(i, "")
	if raw == "" {
		return def
	}
	if raw == "infinite" {
		return -1
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return def
	}
	return n
}

// EffectHandle correlates an effect-start verb with later control verbs on
// the same target. Handles live in the registry's side table, keyed by
// target identifier, never on the node itself.
type EffectHandle struct {
	ID     string
	Target string
	Params EffectParams

	mu    sync.Mutex
	state EffectState
}

func newEffectHandle(target string, params EffectParams) *EffectHandle {
	return &EffectHandle{
		ID:     uuid.NewString(),
		Target: target,
		Params: params,
		state:  EffectRunning,
	}
}

// State returns the handle's current lifecycle state.
func (h *EffectHandle) State() EffectState {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

// Pause suspends a running effect. Any other state is left unchanged.
func (h *EffectHandle) Pause() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.state == EffectRunning {
		h.state = EffectPaused
	}
}

// Resume restarts a paused effect. Any other state is left unchanged.
func (h *EffectHandle) Resume() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.state == EffectPaused {
		h.state = EffectRunning
	}
}

// Cancel terminates the effect.
func (h *EffectHandle) Cancel() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.state = EffectCancelled
}
