// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package params

import (
	"fmt"
	"strings"
)

// Entry is a static table row used to populate a Registry
type Entry struct {
	Topic   string
	Label   string
	Kind    Kind
	Display bool
}

// DefaultTable lists the topics the node follows out of the box
func DefaultTable() []Entry {
	return []Entry{
		{Topic: "zk-env/temp", Label: "Temperature", Kind: KindFloat, Display: true},
		{Topic: "zk-env/humidity", Label: "Humidity", Kind: KindFloat, Display: true},
		{Topic: "zk-env/gas", Label: "Gas", Kind: KindFloat, Display: true},
		{Topic: "zk-env/o_light", Label: "Outside light", Kind: KindBool, Display: true},
		{Topic: "zk-env/o_auto", Label: "Light auto", Kind: KindBool, Display: false},
	}
}

// Load creates a registry holding entries in order
func Load(limits Limits, entries []Entry) (*Registry, error) {
	r := NewRegistry(limits)
	for _, e := range entries {
		if err := r.Add(e.Topic, e.Label, e.Kind, e.Display); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// ParseEntry parses a "topic:kind[:label]" flag value. The label defaults
// to the last topic segment.
func ParseEntry(s string) (Entry, error) {
	parts := strings.SplitN(s, ":", 3)
	if len(parts) < 2 || parts[0] == "" {
		return Entry{}, fmt.Errorf("invalid parameter %q (expected topic:kind[:label])", s)
	}
	kind, err := ParseKind(parts[1])
	if err != nil {
		return Entry{}, err
	}

	e := Entry{Topic: parts[0], Kind: kind, Display: true}
	if len(parts) == 3 && parts[2] != "" {
		e.Label = parts[2]
	} else {
		e.Label = parts[0][strings.LastIndex(parts[0], "/")+1:]
	}
	return e, nil
}
