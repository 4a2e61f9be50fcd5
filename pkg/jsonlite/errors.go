// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package jsonlite

import (
	"errors"
	"fmt"
)

// Error classes reported by Parse and the locator
var (
	ErrUnbalanced    = errors.New("unbalanced braces")
	ErrCapacity      = errors.New("capacity exceeded")
	ErrMalformed     = errors.New("malformed payload")
	ErrFieldNotFound = errors.New("field not found")
)

// ParseError carries the error class and the payload offset it was raised at
type ParseError struct {
	Kind   error // one of ErrUnbalanced, ErrCapacity, ErrMalformed
	Offset int
	Msg    string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%v at offset %d: %s", e.Kind, e.Offset, e.Msg)
}

func (e *ParseError) Unwrap() error {
	return e.Kind
}

func newParseError(kind error, offset int, format string, args ...any) *ParseError {
	return &ParseError{Kind: kind, Offset: offset, Msg: fmt.Sprintf(format, args...)}
}
