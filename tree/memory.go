package tree

import (
	"strings"
	"sync"
)

// MemoryTree is a flat-rooted in-memory Tree. Identified nodes are added with
// Put; relative insertions create anonymous nodes that are reachable through
// Text but not through Lookup.
//
// Built-in effects mutate the tree synchronously from the dispatch path; the
// internal lock exists so tests and callbacks on other goroutines can inspect
// the tree safely, not to support concurrent mutation.
type MemoryTree struct {
	mu   sync.RWMutex
	root *memNode
	byID map[string]*memNode
}

// NewMemoryTree returns an empty tree.
func NewMemoryTree() *MemoryTree {
	t := &MemoryTree{byID: make(map[string]*memNode)}
	t.root = &memNode{tree: t}
	return t
}

// Lookup implements Tree.
func (t *MemoryTree) Lookup(id string) (Node, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	n, ok := t.byID[id]
	return n, ok
}

// Put registers an identified node as a child of the root and returns it.
// An existing node with the same identifier is replaced in the lookup table
// but left in place in the tree.
func (t *MemoryTree) Put(id, content string) Node {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := &memNode{
		tree:    t,
		id:      id,
		content: content,
		parent:  t.root,
		visible: true,
	}
	t.root.children = append(t.root.children, n)
	t.byID[id] = n
	return n
}

// Text returns the flattened content of the whole tree in document order.
func (t *MemoryTree) Text() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	var b strings.Builder
	t.root.writeText(&b)
	return b.String()
}

// Len reports the number of identified nodes currently addressable.
func (t *MemoryTree) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.byID)
}

type memNode struct {
	tree     *MemoryTree
	id       string
	content  string
	parent   *memNode
	children []*memNode
	attrs    map[string]string
	styles   map[string]string
	classes  []string
	visible  bool
}

func (n *memNode) ID() string { return n.id }

func (n *memNode) Content() string {
	n.tree.mu.RLock()
	defer n.tree.mu.RUnlock()
	return n.content
}

// SetContent replaces the node's content and drops any previously inserted
// children, matching inner-content replacement semantics.
func (n *memNode) SetContent(content string) {
	n.tree.mu.Lock()
	defer n.tree.mu.Unlock()
	n.content = content
	n.children = nil
}

func (n *memNode) Insert(pos Position, content string) {
	n.tree.mu.Lock()
	defer n.tree.mu.Unlock()

	inserted := &memNode{tree: n.tree, content: content, visible: true}
	switch pos {
	case AfterBegin:
		inserted.parent = n
		n.children = append([]*memNode{inserted}, n.children...)
	case BeforeEnd:
		inserted.parent = n
		n.children = append(n.children, inserted)
	case BeforeBegin:
		n.insertSibling(inserted, 0)
	case AfterEnd:
		n.insertSibling(inserted, 1)
	}
}

// insertSibling places inserted at the node's position plus offset in the
// parent's child list. Caller holds the tree lock.
func (n *memNode) insertSibling(inserted *memNode, offset int) {
	if n.parent == nil {
		return
	}
	inserted.parent = n.parent
	siblings := n.parent.children
	for i, sib := range siblings {
		if sib == n {
			at := i + offset
			siblings = append(siblings[:at], append([]*memNode{inserted}, siblings[at:]...)...)
			n.parent.children = siblings
			return
		}
	}
}

func (n *memNode) Remove() {
	n.tree.mu.Lock()
	defer n.tree.mu.Unlock()
	if n.parent != nil {
		siblings := n.parent.children
		for i, sib := range siblings {
			if sib == n {
				n.parent.children = append(siblings[:i], siblings[i+1:]...)
				break
			}
		}
	}
	if n.id != "" {
		delete(n.tree.byID, n.id)
	}
}

func (n *memNode) Attr(name string) (string, bool) {
	n.tree.mu.RLock()
	defer n.tree.mu.RUnlock()
	v, ok := n.attrs[name]
	return v, ok
}

func (n *memNode) SetAttr(name, value string) {
	n.tree.mu.Lock()
	defer n.tree.mu.Unlock()
	if n.attrs == nil {
		n.attrs = make(map[string]string)
	}
	n.attrs[name] = value
}

func (n *memNode) RemoveAttr(name string) {
	n.tree.mu.Lock()
	defer n.tree.mu.Unlock()
	delete(n.attrs, name)
}

func (n *memNode) Style(prop string) (string, bool) {
	n.tree.mu.RLock()
	defer n.tree.mu.RUnlock()
	v, ok := n.styles[prop]
	return v, ok
}

func (n *memNode) SetStyle(prop, value string) {
	n.tree.mu.Lock()
	defer n.tree.mu.Unlock()
	if n.styles == nil {
		n.styles = make(map[string]string)
	}
	n.styles[prop] = value
}

func (n *memNode) AddClass(name string) {
	n.tree.mu.Lock()
	defer n.tree.mu.Unlock()
	if !n.hasClass(name) {
		n.classes = append(n.classes, name)
	}
}

func (n *memNode) RemoveClass(name string) {
	n.tree.mu.Lock()
	defer n.tree.mu.Unlock()
	for i, c := range n.classes {
		if c == name {
			n.classes = append(n.classes[:i], n.classes[i+1:]...)
			return
		}
	}
}

func (n *memNode) ToggleClass(name string) {
	n.tree.mu.Lock()
	defer n.tree.mu.Unlock()
	for i, c := range n.classes {
		if c == name {
			n.classes = append(n.classes[:i], n.classes[i+1:]...)
			return
		}
	}
	n.classes = append(n.classes, name)
}

func (n *memNode) HasClass(name string) bool {
	n.tree.mu.RLock()
	defer n.tree.mu.RUnlock()
	return n.hasClass(name)
}

// hasClass requires the tree lock.
func (n *memNode) hasClass(name string) bool {
	for _, c := range n.classes {
		if c == name {
			return true
		}
	}
	return false
}

func (n *memNode) Visible() bool {
	n.tree.mu.RLock()
	defer n.tree.mu.RUnlock()
	return n.visible
}

func (n *memNode) SetVisible(visible bool) {
	n.tree.mu.Lock()
	defer n.tree.mu.Unlock()
	n.visible = visible
}

// writeText requires the tree lock.
func (n *memNode) writeText(b *strings.Builder) {
	b.WriteString(n.content)
	for _, c := range n.children {
		c.writeText(b)
	}
}
