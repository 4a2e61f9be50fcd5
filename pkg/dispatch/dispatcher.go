// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package dispatch is the message-received entry point: it decodes a
// payload delivered on a topic and stores the reading in the parameter
// table.
package dispatch

import (
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/Thermoquad/envnode/pkg/jsonlite"
	"github.com/Thermoquad/envnode/pkg/params"
)

// Update describes one accepted reading
type Update struct {
	Topic    string
	Label    string
	Raw      string
	Location string
	Stamp    string
	Depth    int
}

// Option configures a Dispatcher
type Option func(*Dispatcher)

// WithLogger sets the logger failures and updates are reported to
func WithLogger(log logrus.FieldLogger) Option {
	return func(d *Dispatcher) { d.log = log }
}

// WithLimits sets the parser capacities
func WithLimits(limits jsonlite.Limits) Option {
	return func(d *Dispatcher) { d.limits = limits }
}

// WithStrictKinds rejects readings whose text does not convert to the
// topic's declared kind
func WithStrictKinds(strict bool) Option {
	return func(d *Dispatcher) { d.strict = strict }
}

// WithUpdateHook registers fn to be called after every accepted reading.
// fn runs on the delivering goroutine, outside the dispatcher lock.
func WithUpdateHook(fn func(Update)) Option {
	return func(d *Dispatcher) { d.onUpdate = fn }
}

// Dispatcher owns the parameter table and the parser scratch space.
// All access to the table goes through it.
type Dispatcher struct {
	mu       sync.Mutex
	registry *params.Registry
	parser   *jsonlite.Parser
	limits   jsonlite.Limits
	buf      []byte
	stats    *Statistics
	strict   bool
	log      logrus.FieldLogger
	onUpdate func(Update)
}

// New creates a dispatcher that takes ownership of registry
func New(registry *params.Registry, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		registry: registry,
		limits:   jsonlite.DefaultLimits(),
		stats:    NewStatistics(),
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.log == nil {
		quiet := logrus.New()
		quiet.SetOutput(io.Discard)
		d.log = quiet
	}
	d.parser = jsonlite.NewParser(d.limits)
	d.limits = d.parser.Limits()
	d.buf = make([]byte, d.limits.MaxPayload)
	return d
}

// HandleMessage decodes payload and stores its value under topic.
// On any error the table is left as it was and the error is returned.
func (d *Dispatcher) HandleMessage(topic string, payload []byte) error {
	d.mu.Lock()
	update, err := d.handle(topic, payload)
	d.stats.Update(err)
	hook := d.onUpdate
	d.mu.Unlock()

	entry := d.log.WithField("topic", topic)
	if err != nil {
		entry.WithError(err).Warn("Dropped message")
		// Table errors already name the topic
		if IsDecodeError(err) {
			return fmt.Errorf("%s: %w", topic, err)
		}
		return err
	}

	entry.WithFields(logrus.Fields{
		"value": update.Raw,
		"depth": update.Depth,
	}).Debug("Parameter updated")
	if hook != nil {
		hook(update)
	}
	return nil
}

// handle runs with d.mu held
func (d *Dispatcher) handle(topic string, payload []byte) (Update, error) {
	if len(payload) > len(d.buf) {
		return Update{}, &jsonlite.ParseError{
			Kind:   jsonlite.ErrCapacity,
			Offset: len(d.buf),
			Msg:    fmt.Sprintf("payload is %d bytes (max %d)", len(payload), len(d.buf)),
		}
	}
	n := copy(d.buf, payload)

	result, err := d.parser.Parse(d.buf[:n])
	if err != nil {
		return Update{}, err
	}
	raw, err := result.Value()
	if err != nil {
		return Update{}, fmt.Errorf("depth %d: %w", result.Depth, err)
	}
	location, _ := result.Lookup(jsonlite.LocationLabel)
	stamp, _ := result.Lookup(jsonlite.TimestampLabel)

	desc, err := d.registry.Get(topic)
	if err != nil {
		return Update{}, err
	}
	if d.strict {
		candidate := desc
		candidate.Raw = raw
		if _, err := candidate.Value(); err != nil {
			return Update{}, err
		}
	}

	if err := d.registry.SetRaw(topic, raw); err != nil {
		return Update{}, err
	}
	if err := d.registry.SetValid(topic, true); err != nil {
		return Update{}, err
	}
	if err := d.registry.SetMeta(topic, jsonlite.Unquote(location), jsonlite.Unquote(stamp)); err != nil {
		return Update{}, err
	}

	return Update{
		Topic:    topic,
		Label:    desc.Label,
		Raw:      raw,
		Location: jsonlite.Unquote(location),
		Stamp:    jsonlite.Unquote(stamp),
		Depth:    result.Depth,
	}, nil
}

// Topics returns the registered topics in table order
func (d *Dispatcher) Topics() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.registry.Topics()
}

// Snapshot returns a copy of the parameter table
func (d *Dispatcher) Snapshot() []params.Descriptor {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.registry.Snapshot()
}

// Value reads topic as its declared kind
func (d *Dispatcher) Value(topic string) (params.Value, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.registry.Value(topic)
}

// Valid reports whether topic has received a reading
func (d *Dispatcher) Valid(topic string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.registry.Valid(topic)
}

// Stats returns a copy of the current statistics
func (d *Dispatcher) Stats() Statistics {
	d.mu.Lock()
	defer d.mu.Unlock()
	s := *d.stats
	s.CalculateRates()
	return s
}

// ResetStats clears the statistics counters
func (d *Dispatcher) ResetStats() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stats.Reset()
}

// IsDecodeError reports whether err came from the payload itself rather
// than the table
func IsDecodeError(err error) bool {
	var pe *jsonlite.ParseError
	return errors.As(err, &pe) || errors.Is(err, jsonlite.ErrFieldNotFound)
}
