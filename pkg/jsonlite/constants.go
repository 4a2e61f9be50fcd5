// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package jsonlite decodes the small JSON readings published to the sensor
// node's MQTT topics.
//
// The decoder is a single left-to-right pass over a bounded payload with no
// lookahead and no backtracking. It builds a fixed-capacity tree of levels,
// one per nesting depth, each holding an ordered list of (label, value)
// children. Labels and values are kept as raw text: quotes are part of the
// text and numbers are not converted. Only spaces are dropped.
//
// Arrays, exponents and unicode escapes are not supported.
package jsonlite

// Structural characters
const (
	OpenByte   = '{'
	CloseByte  = '}'
	SepByte    = ','
	AssignByte = ':'
	EscByte    = '\\'
	SpaceByte  = ' '
	NulByte    = 0x00
)

// Default capacities
const (
	DefaultMaxDepth    = 5
	DefaultMaxChildren = 5
	DefaultMaxTextLen  = 63 // 64 byte slot minus terminator
	DefaultMaxPayload  = 256
)

// Field labels used by the node's readings
const (
	ValueLabel     = `"value"`
	LocationLabel  = `"location"`
	TimestampLabel = `"tstamp"`
)

// Limits bounds every buffer the parser owns
type Limits struct {
	MaxDepth    int // nesting levels
	MaxChildren int // children per level
	MaxTextLen  int // bytes per label or value
	MaxPayload  int // bytes per payload
}

// DefaultLimits returns the capacities the node firmware was built with
func DefaultLimits() Limits {
	return Limits{
		MaxDepth:    DefaultMaxDepth,
		MaxChildren: DefaultMaxChildren,
		MaxTextLen:  DefaultMaxTextLen,
		MaxPayload:  DefaultMaxPayload,
	}
}

// normalize replaces unset capacities with defaults
func (l Limits) normalize() Limits {
	d := DefaultLimits()
	if l.MaxDepth <= 0 {
		l.MaxDepth = d.MaxDepth
	}
	if l.MaxChildren <= 0 {
		l.MaxChildren = d.MaxChildren
	}
	if l.MaxTextLen <= 0 {
		l.MaxTextLen = d.MaxTextLen
	}
	if l.MaxPayload <= 0 {
		l.MaxPayload = d.MaxPayload
	}
	return l
}

// scanState is the parser's escape state
type scanState int

const (
	stateNormal scanState = iota
	statePendingEscape
)

// field selects which half of a child the cursor writes to
type field int

const (
	fieldLabel field = iota
	fieldValue
)
