// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package params

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound   = errors.New("topic not registered")
	ErrTooLong    = errors.New("text exceeds slot capacity")
	ErrWrongType  = errors.New("value does not match declared kind")
	ErrDuplicate  = errors.New("topic already registered")
	ErrTableFull  = errors.New("parameter table full")
	ErrEmptyTopic = errors.New("empty topic")
)

// ConversionError reports raw text that could not be read as the requested kind
type ConversionError struct {
	Topic string
	Kind  Kind
	As    string // narrower target than Kind, such as uint8
	Text  string
	Err   error // underlying strconv error, if any
}

func (e *ConversionError) target() string {
	if e.As != "" {
		return e.As
	}
	return e.Kind.String()
}

func (e *ConversionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %q as %s: %v", e.Topic, e.Text, e.target(), e.Err)
	}
	return fmt.Sprintf("%s: %q is not a valid %s", e.Topic, e.Text, e.target())
}

func (e *ConversionError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrWrongType, e.Err}
	}
	return []error{ErrWrongType}
}
