package action

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/treewire/tree"
)

func invoke(t *testing.T, r *Registry, tr *tree.MemoryTree, verb, target, payload string, extras ...string) {
	t.Helper()
	v, ok := r.Lookup(verb)
	require.True(t, ok, "verb %q not in catalogue", verb)
	node, ok := tr.Lookup(target)
	require.True(t, ok, "target %q not in tree", target)
	v.Run(r, Invocation{
		Target:       target,
		Payload:      payload,
		Extras:       extras,
		Node:         node,
		StructuredOK: true,
	})
}

func TestRegistry_ContentVerbs(t *testing.T) {
	r := NewRegistry(nil)
	tr := tree.NewMemoryTree()
	tr.Put("content", "old")

	invoke(t, r, tr, "update", "content", "<p>Hi</p>")
	n, _ := tr.Lookup("content")
	assert.Equal(t, "<p>Hi</p>", n.Content())

	invoke(t, r, tr, "replace", "content", "new")
	assert.Equal(t, "new", n.Content())
}

func TestRegistry_InsertVerbs(t *testing.T) {
	r := NewRegistry(nil)
	tr := tree.NewMemoryTree()
	tr.Put("box", "M")

	invoke(t, r, tr, "prepend", "box", "p")
	invoke(t, r, tr, "append", "box", "a")
	invoke(t, r, tr, "before", "box", "<")
	invoke(t, r, tr, "after", "box", ">")
	assert.Equal(t, "<Mpa>", tr.Text())
}

func TestRegistry_Remove(t *testing.T) {
	r := NewRegistry(nil)
	tr := tree.NewMemoryTree()
	tr.Put("box", "gone")

	invoke(t, r, tr, "remove", "box", "")
	_, ok := tr.Lookup("box")
	assert.False(t, ok)
}

func TestRegistry_AttrVerbs(t *testing.T) {
	r := NewRegistry(nil)
	tr := tree.NewMemoryTree()
	tr.Put("box", "")
	n, _ := tr.Lookup("box")

	invoke(t, r, tr, "attr", "box", "data-x", "42")
	v, ok := n.Attr("data-x")
	require.True(t, ok)
	assert.Equal(t, "42", v)

	// Value defaults to empty string when the extra is absent.
	invoke(t, r, tr, "attr", "box", "data-y")
	v, ok = n.Attr("data-y")
	require.True(t, ok)
	assert.Equal(t, "", v)

	invoke(t, r, tr, "removeAttr", "box", "data-x")
	_, ok = n.Attr("data-x")
	assert.False(t, ok)
}

func TestRegistry_StyleAndClassVerbs(t *testing.T) {
	r := NewRegistry(nil)
	tr := tree.NewMemoryTree()
	tr.Put("box", "")
	n, _ := tr.Lookup("box")

	invoke(t, r, tr, "style", "box", "color", "red")
	v, ok := n.Style("color")
	require.True(t, ok)
	assert.Equal(t, "red", v)

	invoke(t, r, tr, "addClass", "box", "active")
	assert.True(t, n.HasClass("active"))
	invoke(t, r, tr, "toggleClass", "box", "active")
	assert.False(t, n.HasClass("active"))
	invoke(t, r, tr, "toggleClass", "box", "active")
	invoke(t, r, tr, "removeClass", "box", "active")
	assert.False(t, n.HasClass("active"))
}

func TestRegistry_StateVerbs(t *testing.T) {
	r := NewRegistry(nil)
	tr := tree.NewMemoryTree()
	tr.Put("box", "")
	n, _ := tr.Lookup("box")

	invoke(t, r, tr, "hide", "box", "")
	assert.False(t, n.Visible())
	invoke(t, r, tr, "show", "box", "")
	assert.True(t, n.Visible())
	invoke(t, r, tr, "toggle", "box", "")
	assert.False(t, n.Visible())
}

func TestRegistry_Trigger(t *testing.T) {
	r := NewRegistry(nil)
	tr := tree.NewMemoryTree()
	tr.Put("box", "")

	var got []Event
	r.SetEventSink(func(ev Event) { got = append(got, ev) })

	t.Run("bare event name", func(t *testing.T) {
		invoke(t, r, tr, "trigger", "box", "click")
		require.Len(t, got, 1)
		assert.Equal(t, "click", got[0].Name)
		assert.False(t, got[0].Structured)
	})

	t.Run("structured payload", func(t *testing.T) {
		invoke(t, r, tr, "trigger", "box", `{"name": "refresh", "detail": {"id": 7}}`)
		require.Len(t, got, 2)
		assert.Equal(t, "refresh", got[1].Name)
		assert.True(t, got[1].Structured)
		assert.JSONEq(t, `{"id": 7}`, got[1].Detail)
	})

	t.Run("guard-rejected payload degrades to raw name", func(t *testing.T) {
		v, _ := r.Lookup("trigger")
		node, _ := tr.Lookup("box")
		v.Run(r, Invocation{
			Target:       "box",
			Payload:      `{"name": "evil"}`,
			Node:         node,
			StructuredOK: false,
		})
		require.Len(t, got, 3)
		assert.Equal(t, `{"name": "evil"}`, got[2].Name)
		assert.False(t, got[2].Structured)
	})
}

func TestRegistry_EffectLifecycle(t *testing.T) {
	r := NewRegistry(nil)
	tr := tree.NewMemoryTree()
	tr.Put("box", "")

	// Control verbs with no handle present are no-ops, not errors.
	invoke(t, r, tr, "pause", "box", "")
	invoke(t, r, tr, "resume", "box", "")
	invoke(t, r, tr, "cancel", "box", "")
	_, ok := r.Effect("box")
	assert.False(t, ok)

	invoke(t, r, tr, "animate", "box", "fade", "2000", "ease-in", "100", "3", "reverse", "both")
	h, ok := r.Effect("box")
	require.True(t, ok)
	assert.NotEmpty(t, h.ID)
	assert.Equal(t, EffectRunning, h.State())
	assert.Equal(t, 2000, h.Params.DurationMS)
	assert.Equal(t, "ease-in", h.Params.Easing)
	assert.Equal(t, 100, h.Params.DelayMS)
	assert.Equal(t, 3, h.Params.Iterations)
	assert.Equal(t, "reverse", h.Params.Direction)
	assert.Equal(t, "both", h.Params.Fill)

	invoke(t, r, tr, "pause", "box", "")
	assert.Equal(t, EffectPaused, h.State())
	invoke(t, r, tr, "resume", "box", "")
	assert.Equal(t, EffectRunning, h.State())

	invoke(t, r, tr, "cancel", "box", "")
	assert.Equal(t, EffectCancelled, h.State())
	_, ok = r.Effect("box")
	assert.False(t, ok)
}

func TestRegistry_EffectRestartCancelsPrevious(t *testing.T) {
	r := NewRegistry(nil)
	tr := tree.NewMemoryTree()
	tr.Put("box", "")

	invoke(t, r, tr, "animate", "box", "fade")
	first, _ := r.Effect("box")
	invoke(t, r, tr, "animate", "box", "slide")
	second, _ := r.Effect("box")

	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, EffectCancelled, first.State())
	assert.Equal(t, EffectRunning, second.State())
}

func TestDecodeEffectParams_Defaults(t *testing.T) {
	tests := []struct {
		name   string
		extras []string
		want   EffectParams
	}{
		{
			name:   "all defaults",
			extras: nil,
			want: EffectParams{
				Keyframes: "fade", DurationMS: 1000, Easing: "linear",
				DelayMS: 0, Iterations: 1, Direction: "normal", Fill: "none",
			},
		},
		{
			name:   "empty extras take defaults",
			extras: []string{"", "", "", "", "", ""},
			want: EffectParams{
				Keyframes: "fade", DurationMS: 1000, Easing: "linear",
				DelayMS: 0, Iterations: 1, Direction: "normal", Fill: "none",
			},
		},
		{
			name:   "garbage numerics fall back",
			extras: []string{"soon", "ease", "-5", "zero"},
			want: EffectParams{
				Keyframes: "fade", DurationMS: 1000, Easing: "ease",
				DelayMS: 0, Iterations: 1, Direction: "normal", Fill: "none",
			},
		},
		{
			name:   "infinite iterations",
			extras: []string{"500", "", "", "infinite"},
			want: EffectParams{
				Keyframes: "fade", DurationMS: 500, Easing: "linear",
				DelayMS: 0, Iterations: -1, Direction: "normal", Fill: "none",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := decodeEffectParams(Invocation{Payload: "fade", Extras: tt.extras})
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRegistry_LookupUnknown(t *testing.T) {
	r := NewRegistry(nil)
	_, ok := r.Lookup("teleport")
	assert.False(t, ok)
	assert.NotEmpty(t, r.Names())
}
