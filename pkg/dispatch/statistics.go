// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package dispatch

import (
	"errors"
	"fmt"
	"time"

	"github.com/Thermoquad/envnode/pkg/jsonlite"
	"github.com/Thermoquad/envnode/pkg/params"
)

// Statistics tracks message counts and error rates
type Statistics struct {
	StartTime      time.Time
	LastUpdateTime time.Time

	// Counters
	TotalMessages  uint64
	Accepted       uint64
	Unbalanced     uint64
	CapacityErrors uint64
	Malformed      uint64
	MissingField   uint64
	UnknownTopic   uint64
	Rejected       uint64 // value too long or wrong kind

	// Rates (calculated)
	MessageRate float64 // messages/sec
	ErrorRate   float64 // errors/sec
}

// NewStatistics creates a new statistics tracker
func NewStatistics() *Statistics {
	now := time.Now()
	return &Statistics{
		StartTime:      now,
		LastUpdateTime: now,
	}
}

// Update counts one message and classifies its error, if any
func (s *Statistics) Update(err error) {
	s.TotalMessages++
	s.LastUpdateTime = time.Now()

	switch {
	case err == nil:
		s.Accepted++
	case errors.Is(err, jsonlite.ErrUnbalanced):
		s.Unbalanced++
	case errors.Is(err, jsonlite.ErrCapacity):
		s.CapacityErrors++
	case errors.Is(err, jsonlite.ErrFieldNotFound):
		s.MissingField++
	case errors.Is(err, params.ErrNotFound):
		s.UnknownTopic++
	case errors.Is(err, params.ErrTooLong), errors.Is(err, params.ErrWrongType):
		s.Rejected++
	default:
		s.Malformed++
	}
}

// Errors returns the number of dropped messages
func (s *Statistics) Errors() uint64 {
	return s.Unbalanced + s.CapacityErrors + s.Malformed + s.MissingField + s.UnknownTopic + s.Rejected
}

// CalculateRates calculates message and error rates
func (s *Statistics) CalculateRates() {
	elapsed := time.Since(s.StartTime).Seconds()
	if elapsed > 0 {
		s.MessageRate = float64(s.TotalMessages) / elapsed
		s.ErrorRate = float64(s.Errors()) / elapsed
	}
}

// String returns a formatted statistics summary
func (s *Statistics) String() string {
	s.CalculateRates()

	percent := func(n uint64) float64 {
		if s.TotalMessages == 0 {
			return 0
		}
		return float64(n) * 100.0 / float64(s.TotalMessages)
	}

	elapsed := time.Since(s.StartTime)

	result := fmt.Sprintf("=== Statistics (%.0f seconds) ===\n", elapsed.Seconds())
	result += fmt.Sprintf("Total Messages:  %8d\n", s.TotalMessages)
	result += fmt.Sprintf("Accepted:        %8d (%.1f%%)\n", s.Accepted, percent(s.Accepted))

	if s.Unbalanced > 0 {
		result += fmt.Sprintf("Unbalanced:      %8d (%.1f%%)\n", s.Unbalanced, percent(s.Unbalanced))
	}
	if s.CapacityErrors > 0 {
		result += fmt.Sprintf("Over Capacity:   %8d (%.1f%%)\n", s.CapacityErrors, percent(s.CapacityErrors))
	}
	if s.Malformed > 0 {
		result += fmt.Sprintf("Malformed:       %8d (%.1f%%)\n", s.Malformed, percent(s.Malformed))
	}
	if s.MissingField > 0 {
		result += fmt.Sprintf("Missing Value:   %8d (%.1f%%)\n", s.MissingField, percent(s.MissingField))
	}
	if s.UnknownTopic > 0 {
		result += fmt.Sprintf("Unknown Topic:   %8d (%.1f%%)\n", s.UnknownTopic, percent(s.UnknownTopic))
	}
	if s.Rejected > 0 {
		result += fmt.Sprintf("Rejected Value:  %8d (%.1f%%)\n", s.Rejected, percent(s.Rejected))
	}

	result += fmt.Sprintf("Message Rate:    %8.1f msgs/sec\n", s.MessageRate)
	result += fmt.Sprintf("Error Rate:      %8.1f errors/sec\n", s.ErrorRate)
	result += "================================\n"

	return result
}

// Reset resets all statistics counters
func (s *Statistics) Reset() {
	*s = *NewStatistics()
}
