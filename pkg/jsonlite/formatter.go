// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package jsonlite

import (
	"errors"
	"fmt"
	"strings"
)

// FormatResult formats a parse tree into a human-readable string,
// one line per child, indented by depth
func FormatResult(r *Result) string {
	var b strings.Builder
	fmt.Fprintf(&b, "depth=%d\n", r.Depth)
	for i := 0; i <= r.Depth; i++ {
		n := r.Level(i)
		for j, c := range n.Children() {
			fmt.Fprintf(&b, "%s[%d.%d] %s = %s\n",
				strings.Repeat("  ", i), i, j, formatText(c.Label()), formatText(c.Value()))
		}
	}
	return b.String()
}

// FormatError formats a parse error the way the decoder reports it
func FormatError(err error) string {
	var pe *ParseError
	if !errors.As(err, &pe) {
		return err.Error()
	}
	return fmt.Sprintf("%s (offset %d): %s", pe.Kind, pe.Offset, pe.Msg)
}

func formatText(s string) string {
	if s == "" {
		return "<empty>"
	}
	return s
}
