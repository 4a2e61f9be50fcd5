// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package jsonlite

import "fmt"

// Find returns the index of the first child of n labeled label.
// Labels compare as raw text, so quoted labels must be passed quoted.
func Find(n *Node, label string) (int, error) {
	if n == nil {
		return -1, fmt.Errorf("%w: %s (no level)", ErrFieldNotFound, label)
	}
	for i := range n.Children() {
		if string(n.children[i].label) == label {
			return i, nil
		}
	}
	return -1, fmt.Errorf("%w: %s", ErrFieldNotFound, label)
}

// FindValue returns the index of the first "value" child of n
func FindValue(n *Node) (int, error) {
	return Find(n, ValueLabel)
}

// Lookup returns the raw value of the first child labeled label at the
// deepest level of r
func (r *Result) Lookup(label string) (string, error) {
	n := r.Deepest()
	i, err := Find(n, label)
	if err != nil {
		return "", err
	}
	return n.children[i].Value(), nil
}

// Value returns the raw scalar carried by the reading
func (r *Result) Value() (string, error) {
	return r.Lookup(ValueLabel)
}

// Unquote strips one pair of surrounding double quotes, if present
func Unquote(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1]
	}
	return s
}
