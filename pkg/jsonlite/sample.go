// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package jsonlite

import (
	"strconv"
	"strings"
)

// Escape backslash-escapes every byte the parser would otherwise treat as
// structure or drop, so Parse returns s unchanged
func Escape(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case OpenByte, CloseByte, SepByte, AssignByte, EscByte, SpaceByte:
			b.WriteByte(EscByte)
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

// quote wraps escaped text in double quotes
func quote(s string) string {
	return `"` + Escape(s) + `"`
}

// sample assembles {"param":{"value":V,"location":"L","tstamp":"T"}}
// with value already rendered
func sample(param, value, location, tstamp string) []byte {
	var b strings.Builder
	b.WriteByte(OpenByte)
	b.WriteString(quote(param))
	b.WriteByte(AssignByte)
	b.WriteByte(OpenByte)
	b.WriteString(ValueLabel)
	b.WriteByte(AssignByte)
	b.WriteString(value)
	b.WriteByte(SepByte)
	b.WriteString(LocationLabel)
	b.WriteByte(AssignByte)
	b.WriteString(quote(location))
	b.WriteByte(SepByte)
	b.WriteString(TimestampLabel)
	b.WriteByte(AssignByte)
	b.WriteString(quote(tstamp))
	b.WriteByte(CloseByte)
	b.WriteByte(CloseByte)
	return []byte(b.String())
}

// FormatFloat renders a float reading with two decimals
func FormatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// SampleFloat builds a reading with an unquoted two-decimal value
func SampleFloat(param string, v float64, location, tstamp string) []byte {
	return sample(param, FormatFloat(v), location, tstamp)
}

// SampleInt builds a reading with an unquoted integer value
func SampleInt(param string, v int64, location, tstamp string) []byte {
	return sample(param, strconv.FormatInt(v, 10), location, tstamp)
}

// SampleQuotedInt builds a reading with the integer value quoted
func SampleQuotedInt(param string, v int64, location, tstamp string) []byte {
	return sample(param, quote(strconv.FormatInt(v, 10)), location, tstamp)
}

// SampleBool builds a reading with an unquoted true/false value
func SampleBool(param string, v bool, location, tstamp string) []byte {
	return sample(param, strconv.FormatBool(v), location, tstamp)
}

// SampleString builds a reading with a quoted string value
func SampleString(param, v, location, tstamp string) []byte {
	return sample(param, quote(v), location, tstamp)
}
