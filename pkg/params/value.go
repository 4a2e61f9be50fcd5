// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package params

import (
	"math"
	"strconv"
	"strings"
)

// Value is a parameter read as its declared kind. Only the field matching
// Kind is set.
type Value struct {
	Kind  Kind
	Int   int64
	Float float64
	Bool  bool
	Str   string
}

// String formats the value the way the display shows it
func (v Value) String() string {
	switch v.Kind {
	case KindInt:
		return strconv.FormatInt(v.Int, 10)
	case KindFloat:
		return strconv.FormatFloat(v.Float, 'f', 2, 64)
	case KindBool:
		return strconv.FormatBool(v.Bool)
	default:
		return v.Str
	}
}

// unquote strips one pair of surrounding double quotes
func unquote(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1]
	}
	return s
}

// Value reads topic as its declared kind
func (r *Registry) Value(topic string) (Value, error) {
	d, err := r.lookup(topic)
	if err != nil {
		return Value{}, err
	}
	return d.Value()
}

// Value converts the descriptor's raw text to its declared kind
func (d *Descriptor) Value() (Value, error) {
	v := Value{Kind: d.Kind}
	var err error
	switch d.Kind {
	case KindInt:
		v.Int, err = parseInt(d.Topic, d.Raw)
	case KindFloat:
		v.Float, err = parseFloat(d.Topic, d.Raw)
	case KindBool:
		v.Bool, err = parseBool(d.Topic, d.Raw)
	default:
		v.Str = unquote(d.Raw)
	}
	if err != nil {
		return Value{}, err
	}
	return v, nil
}

// Typed accessors read the raw text as the requested kind regardless of
// the declared one.

// Int reads topic as a decimal integer
func (r *Registry) Int(topic string) (int64, error) {
	d, err := r.lookup(topic)
	if err != nil {
		return 0, err
	}
	return parseInt(topic, d.Raw)
}

// Uint8 reads topic as a decimal integer in 0..255
func (r *Registry) Uint8(topic string) (uint8, error) {
	d, err := r.lookup(topic)
	if err != nil {
		return 0, err
	}
	text := unquote(d.Raw)
	n, err := strconv.ParseUint(text, 10, 8)
	if err != nil {
		return 0, &ConversionError{Topic: topic, Kind: KindInt, As: "uint8", Text: text, Err: err}
	}
	return uint8(n), nil
}

// Float reads topic as a decimal float
func (r *Registry) Float(topic string) (float64, error) {
	d, err := r.lookup(topic)
	if err != nil {
		return 0, err
	}
	return parseFloat(topic, d.Raw)
}

// Bool reads topic as exactly "true" or "false"
func (r *Registry) Bool(topic string) (bool, error) {
	d, err := r.lookup(topic)
	if err != nil {
		return false, err
	}
	return parseBool(topic, d.Raw)
}

// String reads topic as text with surrounding quotes removed
func (r *Registry) String(topic string) (string, error) {
	d, err := r.lookup(topic)
	if err != nil {
		return "", err
	}
	return unquote(d.Raw), nil
}

func parseInt(topic, raw string) (int64, error) {
	text := unquote(raw)
	n, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return 0, &ConversionError{Topic: topic, Kind: KindInt, Text: text, Err: err}
	}
	return n, nil
}

// parseFloat accepts finite decimal text only. Hex floats, NaN and Inf
// are rejected.
func parseFloat(topic, raw string) (float64, error) {
	text := unquote(raw)
	if strings.ContainsAny(text, "xXpP") {
		return 0, &ConversionError{Topic: topic, Kind: KindFloat, Text: text}
	}
	f, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return 0, &ConversionError{Topic: topic, Kind: KindFloat, Text: text, Err: err}
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, &ConversionError{Topic: topic, Kind: KindFloat, Text: text}
	}
	return f, nil
}

// parseBool accepts only the literals true and false
func parseBool(topic, raw string) (bool, error) {
	text := unquote(raw)
	switch text {
	case "true":
		return true, nil
	case "false":
		return false, nil
	}
	return false, &ConversionError{Topic: topic, Kind: KindBool, Text: text}
}
