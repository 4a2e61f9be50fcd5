// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package params

import (
	"fmt"
	"time"
)

// Slot capacities, matching the node's fixed-size table
const (
	DefaultMaxEntries  = 16
	DefaultMaxTopicLen = 63
	DefaultMaxLabelLen = 31
	DefaultMaxValueLen = 63
)

// Limits bounds the table and every text slot in it
type Limits struct {
	MaxEntries  int
	MaxTopicLen int
	MaxLabelLen int
	MaxValueLen int
}

// DefaultLimits returns the firmware's table capacities
func DefaultLimits() Limits {
	return Limits{
		MaxEntries:  DefaultMaxEntries,
		MaxTopicLen: DefaultMaxTopicLen,
		MaxLabelLen: DefaultMaxLabelLen,
		MaxValueLen: DefaultMaxValueLen,
	}
}

// Descriptor is one parameter table entry
type Descriptor struct {
	Topic   string
	Label   string // shown on the current conditions screen
	Kind    Kind
	Display bool

	Raw   string // last accepted text, quotes included
	Valid bool   // set once any message has been accepted

	// Reading metadata, filled when the payload carries it
	Location string
	Stamp    string
	Previous string
	Updated  time.Time
}

// Registry is the ordered parameter table. It is owned by a single task
// and does no locking of its own.
type Registry struct {
	limits  Limits
	entries []Descriptor
}

// NewRegistry creates an empty table. Zero fields in limits take defaults.
func NewRegistry(limits Limits) *Registry {
	d := DefaultLimits()
	if limits.MaxEntries <= 0 {
		limits.MaxEntries = d.MaxEntries
	}
	if limits.MaxTopicLen <= 0 {
		limits.MaxTopicLen = d.MaxTopicLen
	}
	if limits.MaxLabelLen <= 0 {
		limits.MaxLabelLen = d.MaxLabelLen
	}
	if limits.MaxValueLen <= 0 {
		limits.MaxValueLen = d.MaxValueLen
	}
	return &Registry{
		limits:  limits,
		entries: make([]Descriptor, 0, limits.MaxEntries),
	}
}

// Limits returns the table capacities
func (r *Registry) Limits() Limits {
	return r.limits
}

// Add appends a topic with an empty value and valid=false
func (r *Registry) Add(topic, label string, kind Kind, display bool) error {
	switch {
	case topic == "":
		return ErrEmptyTopic
	case len(topic) > r.limits.MaxTopicLen:
		return fmt.Errorf("%w: topic %q is %d bytes (max %d)", ErrTooLong, topic, len(topic), r.limits.MaxTopicLen)
	case len(label) > r.limits.MaxLabelLen:
		return fmt.Errorf("%w: label %q is %d bytes (max %d)", ErrTooLong, label, len(label), r.limits.MaxLabelLen)
	case kind < KindInt || kind > KindString:
		return fmt.Errorf("topic %q: invalid kind %d", topic, int(kind))
	}
	if r.index(topic) >= 0 {
		return fmt.Errorf("%w: %s", ErrDuplicate, topic)
	}
	if len(r.entries) >= r.limits.MaxEntries {
		return fmt.Errorf("%w: %d entries", ErrTableFull, r.limits.MaxEntries)
	}

	r.entries = append(r.entries, Descriptor{
		Topic:   topic,
		Label:   label,
		Kind:    kind,
		Display: display,
	})
	return nil
}

// index returns the position of topic, or -1
func (r *Registry) index(topic string) int {
	for i := range r.entries {
		if r.entries[i].Topic == topic {
			return i
		}
	}
	return -1
}

func (r *Registry) lookup(topic string) (*Descriptor, error) {
	i := r.index(topic)
	if i < 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, topic)
	}
	return &r.entries[i], nil
}

// Get returns a copy of the descriptor for topic
func (r *Registry) Get(topic string) (Descriptor, error) {
	d, err := r.lookup(topic)
	if err != nil {
		return Descriptor{}, err
	}
	return *d, nil
}

// Has reports whether topic is registered
func (r *Registry) Has(topic string) bool {
	return r.index(topic) >= 0
}

// SetRaw stores text as the topic's value. The valid flag is not touched.
func (r *Registry) SetRaw(topic, text string) error {
	d, err := r.lookup(topic)
	if err != nil {
		return err
	}
	if len(text) > r.limits.MaxValueLen {
		return fmt.Errorf("%w: %s value is %d bytes (max %d)", ErrTooLong, topic, len(text), r.limits.MaxValueLen)
	}
	d.Previous = d.Raw
	d.Raw = text
	d.Updated = time.Now()
	return nil
}

// SetMeta records the location and source timestamp of the last reading
func (r *Registry) SetMeta(topic, location, stamp string) error {
	d, err := r.lookup(topic)
	if err != nil {
		return err
	}
	d.Location = location
	d.Stamp = stamp
	return nil
}

// SetValid sets the topic's valid flag
func (r *Registry) SetValid(topic string, valid bool) error {
	d, err := r.lookup(topic)
	if err != nil {
		return err
	}
	d.Valid = valid
	return nil
}

// Valid reports whether the topic has been set. Unknown topics are never valid.
func (r *Registry) Valid(topic string) bool {
	d, err := r.lookup(topic)
	if err != nil {
		return false
	}
	return d.Valid
}

// Len returns the number of entries
func (r *Registry) Len() int {
	return len(r.entries)
}

// Topics returns every topic in table order
func (r *Registry) Topics() []string {
	out := make([]string, len(r.entries))
	for i := range r.entries {
		out[i] = r.entries[i].Topic
	}
	return out
}

// Each calls fn for every entry in table order until fn returns false
func (r *Registry) Each(fn func(d Descriptor) bool) {
	for i := range r.entries {
		if !fn(r.entries[i]) {
			return
		}
	}
}

// Snapshot returns a copy of the whole table
func (r *Registry) Snapshot() []Descriptor {
	out := make([]Descriptor, len(r.entries))
	copy(out, r.entries)
	return out
}
