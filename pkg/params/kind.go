// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package params holds the node's parameter table: the ordered list of MQTT
// topics the node follows, each with a declared value kind, the last raw
// text received for it and whether any message has set it yet.
package params

import (
	"fmt"
	"strings"
)

// Kind is the declared type of a parameter's value
type Kind int

const (
	KindInt Kind = iota
	KindFloat
	KindBool
	KindString
)

// String returns the lower-case kind name
func (k Kind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	case KindString:
		return "string"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// ParseKind parses a kind name as printed by Kind.String
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "int", "integer":
		return KindInt, nil
	case "float":
		return KindFloat, nil
	case "bool", "boolean":
		return KindBool, nil
	case "string", "str":
		return KindString, nil
	}
	return 0, fmt.Errorf("unknown parameter kind %q", s)
}
