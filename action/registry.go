package action

import (
	"io"
	"log/slog"
	"sync"

	"github.com/tidwall/gjson"

	"github.com/c360/treewire/tree"
)

// Event is emitted by the trigger verb. Detail is the raw detail document
// when Structured is true, otherwise empty.
type Event struct {
	Target     string
	Name       string
	Detail     string
	Structured bool
}

// EventSink receives events emitted by the trigger verb. The sink runs on
// the dispatch path; it must not block.
type EventSink func(Event)

// Registry is the built-in verb catalogue plus the effect-handle side table.
// The catalogue is immutable after construction; the handle table mutates as
// effect verbs run. One registry is scoped to one connection manager.
type Registry struct {
	logger *slog.Logger
	verbs  map[string]Verb

	mu      sync.Mutex
	effects map[string]*EffectHandle
	events  EventSink
}

// NewRegistry builds the catalogue. A nil logger discards.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.Level(127)}))
	}
	r := &Registry{
		logger:  logger,
		verbs:   make(map[string]Verb),
		effects: make(map[string]*EffectHandle),
	}
	r.install()
	return r
}

// Lookup resolves a wire verb name. Unknown verbs return ok=false; the
// dispatcher skips them so new senders don't break older receivers.
func (r *Registry) Lookup(name string) (Verb, bool) {
	v, ok := r.verbs[name]
	return v, ok
}

// Names returns the catalogue's verb names, for diagnostics.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.verbs))
	for name := range r.verbs {
		names = append(names, name)
	}
	return names
}

// SetEventSink installs the receiver for trigger events.
func (r *Registry) SetEventSink(sink EventSink) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = sink
}

// Effect returns the in-flight effect handle for a target, if any.
func (r *Registry) Effect(target string) (*EffectHandle, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	h, ok := r.effects[target]
	return h, ok
}

func (r *Registry) install() {
	add := func(name string, kind Kind, run func(*Registry, Invocation)) {
		r.verbs[name] = Verb{Name: name, Kind: kind, run: run}
	}

	// Content replacement. In a real document tree "replace" swaps the node
	// itself while "update" swaps its inner content; both collapse to a
	// content replacement on the capability interface.
	add("update", KindContent, func(_ *Registry, inv Invocation) {
		inv.Node.SetContent(inv.Payload)
	})
	add("replace", KindContent, func(_ *Registry, inv Invocation) {
		inv.Node.SetContent(inv.Payload)
	})

	// Relative insertion at the four positions.
	insert := func(pos tree.Position) func(*Registry, Invocation) {
		return func(_ *Registry, inv Invocation) {
			inv.Node.Insert(pos, inv.Payload)
		}
	}
	add("before", KindInsert, insert(tree.BeforeBegin))
	add("after", KindInsert, insert(tree.AfterEnd))
	add("prepend", KindInsert, insert(tree.AfterBegin))
	add("append", KindInsert, insert(tree.BeforeEnd))

	add("remove", KindRemove, func(_ *Registry, inv Invocation) {
		inv.Node.Remove()
	})

	// Attribute and style mutation: name from payload, value from the first
	// extra, defaulting to the empty string.
	add("attr", KindAttr, func(_ *Registry, inv Invocation) {
		inv.Node.SetAttr(inv.Payload, inv.extra(0, ""))
	})
	add("removeAttr", KindAttr, func(_ *Registry, inv Invocation) {
		inv.Node.RemoveAttr(inv.Payload)
	})
	add("style", KindStyle, func(_ *Registry, inv Invocation) {
		inv.Node.SetStyle(inv.Payload, inv.extra(0, ""))
	})

	// Class mutation: class name from payload.
	add("addClass", KindClass, func(_ *Registry, inv Invocation) {
		inv.Node.AddClass(inv.Payload)
	})
	add("removeClass", KindClass, func(_ *Registry, inv Invocation) {
		inv.Node.RemoveClass(inv.Payload)
	})
	add("toggleClass", KindClass, func(_ *Registry, inv Invocation) {
		inv.Node.ToggleClass(inv.Payload)
	})

	// Visibility state, no arguments beyond the target.
	add("show", KindState, func(_ *Registry, inv Invocation) {
		inv.Node.SetVisible(true)
	})
	add("hide", KindState, func(_ *Registry, inv Invocation) {
		inv.Node.SetVisible(false)
	})
	add("toggle", KindState, func(_ *Registry, inv Invocation) {
		inv.Node.SetVisible(!inv.Node.Visible())
	})

	add("trigger", KindEvent, (*Registry).trigger)

	// Timed effects: start retains a handle; control verbs on a target with
	// no handle are no-ops, not errors.
	add("animate", KindEffectStart, (*Registry).startEffect)
	add("pause", KindEffectControl, func(reg *Registry, inv Invocation) {
		reg.controlEffect(inv.Target, (*EffectHandle).Pause)
	})
	add("resume", KindEffectControl, func(reg *Registry, inv Invocation) {
		reg.controlEffect(inv.Target, (*EffectHandle).Resume)
	})
	add("cancel", KindEffectControl, func(reg *Registry, inv Invocation) {
		reg.cancelEffect(inv.Target)
	})
}

// trigger emits an event. A structured payload of the form
// {"name": ..., "detail": ...} is unpacked; anything else, including a
// payload the guard rejected, falls back to the raw string as the event
// name.
func (r *Registry) trigger(inv Invocation) {
	ev := Event{Target: inv.Target, Name: inv.Payload}
	if inv.StructuredOK && gjson.Valid(inv.Payload) {
		doc := gjson.Parse(inv.Payload)
		if name := doc.Get("name"); name.Exists() {
			ev.Name = name.String()
			ev.Detail = doc.Get("detail").Raw
			ev.Structured = true
		}
	}

	r.mu.Lock()
	sink := r.events
	r.mu.Unlock()
	if sink != nil {
		sink(ev)
	} else {
		r.logger.Debug("event dropped, no sink installed",
			"target", ev.Target, "event", ev.Name)
	}
}

func (r *Registry) startEffect(inv Invocation) {
	params := decodeEffectParams(inv)
	if !inv.StructuredOK {
		// Guard rejected the keyframe document; keep the effect but treat
		// the payload as an opaque preset name.
		params.Keyframes = inv.Payload
	}
	handle := newEffectHandle(inv.Target, params)

	r.mu.Lock()
	prev := r.effects[inv.Target]
	r.effects[inv.Target] = handle
	r.mu.Unlock()

	if prev != nil {
		prev.Cancel()
	}
	r.logger.Debug("effect started",
		"target", inv.Target, "effect_id", handle.ID, "duration_ms", params.DurationMS)
}

func (r *Registry) controlEffect(target string, op func(*EffectHandle)) {
	r.mu.Lock()
	handle := r.effects[target]
	r.mu.Unlock()
	if handle == nil {
		r.logger.Debug("effect control ignored, no handle", "target", target)
		return
	}
	op(handle)
}

func (r *Registry) cancelEffect(target string) {
	r.mu.Lock()
	handle := r.effects[target]
	delete(r.effects, target)
	r.mu.Unlock()
	if handle == nil {
		r.logger.Debug("effect control ignored, no handle", "target", target)
		return
	}
	handle.Cancel()
}
