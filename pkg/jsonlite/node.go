// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package jsonlite

// Child is one (label, value) slot of a level
type Child struct {
	label []byte
	value []byte
}

// Label returns the raw label text, quotes included
func (c *Child) Label() string {
	return string(c.label)
}

// Value returns the raw value text, quotes included
func (c *Child) Value() string {
	return string(c.value)
}

// Node is one nesting level of a parse
type Node struct {
	children []Child // fixed capacity, backed by the parser arena
	count    int
	opened   bool
	closed   bool
}

// Children returns the children written at this level, in order of appearance
func (n *Node) Children() []Child {
	return n.children[:n.count]
}

// Len returns the number of children at this level
func (n *Node) Len() int {
	return n.count
}

// Child returns the child at index i
func (n *Node) Child(i int) *Child {
	if i < 0 || i >= n.count {
		return nil
	}
	return &n.children[i]
}

// Closed reports whether the level's closing brace was consumed
func (n *Node) Closed() bool {
	return n.closed
}

func (n *Node) reset() {
	for i := range n.children {
		n.children[i].label = n.children[i].label[:0]
		n.children[i].value = n.children[i].value[:0]
	}
	n.count = 0
	n.opened = false
	n.closed = false
}

// Result is a completed parse. It views the parser's arena and is only
// valid until the parser's next Parse call.
type Result struct {
	Depth  int // deepest level reached, 0 for a flat object
	levels []Node
}

// Level returns the node at depth i, or nil past the deepest level
func (r *Result) Level(i int) *Node {
	if i < 0 || i > r.Depth {
		return nil
	}
	return &r.levels[i]
}

// Deepest returns the node at the deepest level reached
func (r *Result) Deepest() *Node {
	return &r.levels[r.Depth]
}

// Pair is a detached copy of a child
type Pair struct {
	Label string
	Value string
}

// Snapshot copies the tree out of the arena, one slice of pairs per level
func (r *Result) Snapshot() [][]Pair {
	out := make([][]Pair, r.Depth+1)
	for i := 0; i <= r.Depth; i++ {
		children := r.levels[i].Children()
		pairs := make([]Pair, len(children))
		for j := range children {
			pairs[j] = Pair{Label: children[j].Label(), Value: children[j].Value()}
		}
		out[i] = pairs
	}
	return out
}
