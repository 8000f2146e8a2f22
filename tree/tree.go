// Package tree defines the addressed target tree the protocol mutates: a
// lookup-by-identifier service plus the mutation capability set built-in
// verbs operate on. A concrete in-memory implementation is provided for
// embedding and for tests; hosts with a real document tree implement the
// interfaces themselves.
package tree

// Position names the four relative insertion points.
type Position string

const (
	// BeforeBegin inserts immediately before the target itself.
	BeforeBegin Position = "beforebegin"
	// AfterBegin inserts before the target's first child.
	AfterBegin Position = "afterbegin"
	// BeforeEnd inserts after the target's last child.
	BeforeEnd Position = "beforeend"
	// AfterEnd inserts immediately after the target itself.
	AfterEnd Position = "afterend"
)

// Tree resolves a target identifier to the addressed node. Missing targets
// return ok=false; the dispatcher logs and drops the frame without closing
// the connection.
type Tree interface {
	Lookup(id string) (Node, bool)
}

// Node is the mutation capability set offered to verb effects. Content is
// opaque text; the client performs no HTML interpretation or sanitization.
type Node interface {
	ID() string

	// Content operations
	Content() string
	SetContent(content string)
	Insert(pos Position, content string)
	Remove()

	// Attribute operations
	Attr(name string) (string, bool)
	SetAttr(name, value string)
	RemoveAttr(name string)

	// Style operations
	Style(prop string) (string, bool)
	SetStyle(prop, value string)

	// Class operations
	AddClass(name string)
	RemoveClass(name string)
	ToggleClass(name string)
	HasClass(name string) bool

	// Visibility state
	Visible() bool
	SetVisible(visible bool)
}
