// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package jsonlite

// Parser implements the level/child tree builder state machine.
// A Parser owns one arena sized at construction and reuses it for every
// payload; it is not safe for concurrent use.
type Parser struct {
	limits Limits
	arena  []byte
	nodes  []Node
	result Result

	state    scanState
	cursor   field
	depth    int
	maxDepth int
	started  bool
	done     bool
}

// NewParser creates a parser with its arena preallocated for limits.
// Zero fields in limits take their default values.
func NewParser(limits Limits) *Parser {
	limits = limits.normalize()
	p := &Parser{
		limits: limits,
		arena:  make([]byte, limits.MaxDepth*limits.MaxChildren*2*limits.MaxTextLen),
		nodes:  make([]Node, limits.MaxDepth),
	}

	off := 0
	slot := func() []byte {
		s := p.arena[off : off : off+limits.MaxTextLen]
		off += limits.MaxTextLen
		return s
	}
	for i := range p.nodes {
		p.nodes[i].children = make([]Child, limits.MaxChildren)
		for j := range p.nodes[i].children {
			p.nodes[i].children[j].label = slot()
			p.nodes[i].children[j].value = slot()
		}
	}
	p.Reset()
	return p
}

// Limits returns the capacities the parser was built with
func (p *Parser) Limits() Limits {
	return p.limits
}

// Reset clears all levels and scanner state without reallocating
func (p *Parser) Reset() {
	for i := range p.nodes {
		p.nodes[i].reset()
	}
	p.state = stateNormal
	p.cursor = fieldLabel
	p.depth = -1
	p.maxDepth = -1
	p.started = false
	p.done = false
}

// Parse decodes one payload. A NUL byte ends the payload early.
// The returned Result shares the parser's arena.
func (p *Parser) Parse(payload []byte) (*Result, error) {
	p.Reset()

	if len(payload) > p.limits.MaxPayload {
		return nil, newParseError(ErrCapacity, p.limits.MaxPayload,
			"payload is %d bytes (max %d)", len(payload), p.limits.MaxPayload)
	}

	for i, b := range payload {
		if b == NulByte {
			break
		}
		if err := p.step(i, b); err != nil {
			return nil, err
		}
	}

	return p.finish(len(payload))
}

// step processes a single byte through the state machine
func (p *Parser) step(offset int, b byte) error {
	if p.state == statePendingEscape {
		p.state = stateNormal
		return p.write(offset, b)
	}

	// Top-level object already closed
	if p.done {
		switch b {
		case SpaceByte:
			return nil
		case CloseByte:
			return newParseError(ErrUnbalanced, offset, "excess closing brace")
		default:
			return newParseError(ErrMalformed, offset, "content after top-level object")
		}
	}

	switch b {
	case SpaceByte:
		return nil

	case EscByte:
		if p.depth < 0 {
			return newParseError(ErrMalformed, offset, "escape outside object")
		}
		p.state = statePendingEscape
		return nil

	case OpenByte:
		return p.open(offset)

	case CloseByte:
		if p.depth < 0 {
			return newParseError(ErrUnbalanced, offset, "closing brace before any object")
		}
		p.nodes[p.depth].closed = true
		p.depth--
		if p.depth < 0 {
			p.done = true
			return nil
		}
		// Back to the value of the child that held the nested object
		p.cursor = fieldValue
		return nil

	case SepByte:
		if p.depth < 0 {
			return newParseError(ErrMalformed, offset, "separator outside object")
		}
		return p.nextChild(offset, &p.nodes[p.depth])

	case AssignByte:
		if p.depth < 0 {
			return newParseError(ErrMalformed, offset, "colon outside object")
		}
		// Only the first colon of a child ends its label
		if p.cursor == fieldValue {
			return p.write(offset, b)
		}
		p.cursor = fieldValue
		return nil

	default:
		if p.depth < 0 {
			return newParseError(ErrMalformed, offset, "literal 0x%02X outside object", b)
		}
		return p.write(offset, b)
	}
}

// open enters the next nesting level
func (p *Parser) open(offset int) error {
	if p.depth+1 >= p.limits.MaxDepth {
		return newParseError(ErrCapacity, offset, "nesting deeper than %d levels", p.limits.MaxDepth)
	}
	p.depth++
	p.started = true
	if p.depth > p.maxDepth {
		p.maxDepth = p.depth
	}

	node := &p.nodes[p.depth]
	if !node.opened {
		node.opened = true
		node.count = 1
		node.closed = false
		p.cursor = fieldLabel
		return nil
	}

	// Level re-entered from a later sibling: keep appending children
	node.closed = false
	return p.nextChild(offset, node)
}

// nextChild moves the cursor to a fresh child slot at the node's level
func (p *Parser) nextChild(offset int, node *Node) error {
	if node.count >= p.limits.MaxChildren {
		return newParseError(ErrCapacity, offset, "more than %d children at depth %d",
			p.limits.MaxChildren, p.depth)
	}
	node.count++
	p.cursor = fieldLabel
	return nil
}

// write appends b to the current label or value
func (p *Parser) write(offset int, b byte) error {
	node := &p.nodes[p.depth]
	child := &node.children[node.count-1]

	buf := &child.label
	if p.cursor == fieldValue {
		buf = &child.value
	}
	if len(*buf) >= p.limits.MaxTextLen {
		return newParseError(ErrCapacity, offset, "text longer than %d bytes at depth %d",
			p.limits.MaxTextLen, p.depth)
	}
	*buf = append(*buf, b)
	return nil
}

// finish validates end-of-input state and publishes the result
func (p *Parser) finish(end int) (*Result, error) {
	if p.state == statePendingEscape {
		return nil, newParseError(ErrMalformed, end, "dangling escape")
	}
	if !p.started {
		return nil, newParseError(ErrMalformed, end, "no object")
	}
	if p.depth >= 0 {
		return nil, newParseError(ErrUnbalanced, end, "%d level(s) left open", p.depth+1)
	}
	for i := 0; i <= p.maxDepth; i++ {
		if !p.nodes[i].closed {
			return nil, newParseError(ErrUnbalanced, end, "level %d left open", i)
		}
	}

	p.result = Result{Depth: p.maxDepth, levels: p.nodes}
	return &p.result, nil
}
