// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package dispatch

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/Thermoquad/envnode/pkg/jsonlite"
	"github.com/Thermoquad/envnode/pkg/params"
)

// ============================================================
// Statistics Tests
// ============================================================

func TestStatistics_Update_Classification(t *testing.T) {
	tests := []struct {
		err     error
		counter func(*Statistics) uint64
	}{
		{nil, func(s *Statistics) uint64 { return s.Accepted }},
		{&jsonlite.ParseError{Kind: jsonlite.ErrUnbalanced}, func(s *Statistics) uint64 { return s.Unbalanced }},
		{&jsonlite.ParseError{Kind: jsonlite.ErrCapacity}, func(s *Statistics) uint64 { return s.CapacityErrors }},
		{&jsonlite.ParseError{Kind: jsonlite.ErrMalformed}, func(s *Statistics) uint64 { return s.Malformed }},
		{fmt.Errorf("wrapped: %w", jsonlite.ErrFieldNotFound), func(s *Statistics) uint64 { return s.MissingField }},
		{params.ErrNotFound, func(s *Statistics) uint64 { return s.UnknownTopic }},
		{params.ErrTooLong, func(s *Statistics) uint64 { return s.Rejected }},
		{&params.ConversionError{Topic: "t", Kind: params.KindBool, Text: "1"}, func(s *Statistics) uint64 { return s.Rejected }},
		{errors.New("anything else"), func(s *Statistics) uint64 { return s.Malformed }},
	}

	for _, tt := range tests {
		s := NewStatistics()
		s.Update(tt.err)
		if s.TotalMessages != 1 {
			t.Errorf("%v: expected 1 message, got %d", tt.err, s.TotalMessages)
		}
		if got := tt.counter(s); got != 1 {
			t.Errorf("%v: expected counter 1, got %d", tt.err, got)
		}
	}
}

func TestStatistics_Errors(t *testing.T) {
	s := NewStatistics()
	s.Update(nil)
	s.Update(params.ErrNotFound)
	s.Update(jsonlite.ErrFieldNotFound)

	if s.Errors() != 2 {
		t.Errorf("Expected 2 errors, got %d", s.Errors())
	}
}

func TestStatistics_String(t *testing.T) {
	s := NewStatistics()
	s.Update(nil)
	s.Update(nil)
	s.Update(params.ErrNotFound)

	out := s.String()
	for _, want := range []string{"Total Messages:         3", "Accepted:               2", "Unknown Topic:          1"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected %q in:\n%s", want, out)
		}
	}
	if strings.Contains(out, "Unbalanced") {
		t.Error("Expected zero counters to be omitted")
	}
}

func TestStatistics_Reset(t *testing.T) {
	s := NewStatistics()
	s.Update(nil)
	s.Update(jsonlite.ErrMalformed)
	s.Reset()

	if s.TotalMessages != 0 || s.Accepted != 0 || s.Malformed != 0 {
		t.Errorf("Expected counters cleared, got %+v", s)
	}
	if s.StartTime.IsZero() {
		t.Error("Expected start time to be set")
	}
}
