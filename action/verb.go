// Package action holds the built-in verb catalogue and the timed-effect
// handle table. Each verb is a tagged variant carrying its own decode of the
// frame's extras, so the dispatcher never branches on verb names.
package action

import "github.com/c360/treewire/tree"

// Kind tags a verb with its argument shape.
type Kind int

const (
	// KindContent verbs replace the target's content with the payload.
	KindContent Kind = iota
	// KindInsert verbs insert the payload at a relative position.
	KindInsert
	// KindRemove verbs take no arguments beyond the target.
	KindRemove
	// KindAttr verbs read the attribute name from the payload and the value
	// from the first extra.
	KindAttr
	// KindStyle verbs read the property from the payload and the value from
	// the first extra.
	KindStyle
	// KindClass verbs read the class name from the payload.
	KindClass
	// KindState verbs mutate target state with no arguments at all.
	KindState
	// KindEvent verbs emit an event whose payload may carry structured data.
	KindEvent
	// KindEffectStart verbs begin a timed effect, decoding extras into
	// effect parameters.
	KindEffectStart
	// KindEffectControl verbs act on a previously started effect's handle.
	KindEffectControl
)

// Structured reports whether the kind's payload may carry structured data
// and must pass the payload guard before decode.
func (k Kind) Structured() bool {
	return k == KindEvent || k == KindEffectStart
}

// Invocation carries one resolved frame into a verb's effect.
type Invocation struct {
	Target  string
	Payload string
	Extras  []string
	Node    tree.Node
	// StructuredOK is false when the payload guard rejected the payload;
	// structured verbs then degrade to their raw-string path.
	StructuredOK bool
}

// extra returns the positional extra or def when absent or empty.
func (inv Invocation) extra(i int, def string) string {
	if i < 0 || i >= len(inv.Extras) || inv.Extras[i] == "" {
		return def
	}
	return inv.Extras[i]
}

// Verb pairs a wire name with its effect. Entries are immutable after
// registry construction.
type Verb struct {
	Name string
	Kind Kind
	run  func(r *Registry, inv Invocation)
}

// Run executes the verb's effect against the registry's state and the
// invocation's node.
func (v Verb) Run(r *Registry, inv Invocation) {
	if v.run != nil {
		v.run(r, inv)
	}
}
