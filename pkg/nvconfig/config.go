// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package nvconfig holds the node's persistent settings: Wi-Fi and broker
// credentials, the sensor location and calibration offsets. Every field is
// text with a fixed capacity, and the stored image carries a validation
// string so an image written by another revision is not trusted.
package nvconfig

import (
	"fmt"
	"net"
	"strconv"
	"time"
)

// ValidationString marks an image written by this revision
const ValidationString = "envnode-nvconfig-v1"

// Field capacities in bytes, terminator included
const (
	ValidCap     = 32
	SSIDCap      = 64
	PassCap      = 64
	ServerCap    = 64
	PortCap      = 16
	LocationCap  = 64
	OffsetCap    = 8
	DebugCap     = 2
	DefaultPort  = "1883"
	DefaultDebug = "0"
)

// Config is the persistent settings image
type Config struct {
	Valid        string `cbor:"1,keyasint"`
	WLANSSID     string `cbor:"2,keyasint"`
	WLANPass     string `cbor:"3,keyasint"`
	MQTTServer   string `cbor:"4,keyasint"`
	MQTTPort     string `cbor:"5,keyasint"`
	Location     string `cbor:"6,keyasint"`
	GMTOffset    string `cbor:"7,keyasint"`  // seconds, +/-
	TempOffset   string `cbor:"8,keyasint"`  // degC added to temperature
	HumOffset    string `cbor:"9,keyasint"`  // % added to humidity
	ACS758Offset string `cbor:"10,keyasint"` // mV at 0A
	DebugLevel   string `cbor:"11,keyasint"` // 0-9
}

// Default returns a fresh, validated image with stock values
func Default() *Config {
	return &Config{
		Valid:      ValidationString,
		MQTTPort:   DefaultPort,
		DebugLevel: DefaultDebug,
	}
}

// Field describes one editable setting
type Field struct {
	Prompt string // empty for fields that are never prompted
	Label  string
	Cap    int // bytes including terminator
	Secret bool
	value  func(c *Config) *string
}

// Max returns the longest text the field accepts
func (f Field) Max() int {
	return f.Cap - 1
}

// Get returns the field's current value in c
func (f Field) Get(c *Config) string {
	return *f.value(c)
}

// Set stores text in c, rejecting text that does not fit
func (f Field) Set(c *Config, text string) error {
	if len(text) > f.Max() {
		return fmt.Errorf("%w: %s is %d characters (max %d)", ErrTooLong, f.Label, len(text), f.Max())
	}
	*f.value(c) = text
	return nil
}

var fields = []Field{
	{"", "Validation", ValidCap, false, func(c *Config) *string { return &c.Valid }},
	{"Enter WIFI SSID", "WIFI SSID", SSIDCap, false, func(c *Config) *string { return &c.WLANSSID }},
	{"Enter WIFI Password", "WIFI Password", PassCap, true, func(c *Config) *string { return &c.WLANPass }},
	{"Enter mqtt server IP address (x.x.x.x)", "mqtt server", ServerCap, false, func(c *Config) *string { return &c.MQTTServer }},
	{"Enter mqtt server port", "mqtt port", PortCap, false, func(c *Config) *string { return &c.MQTTPort }},
	{"Enter location", "location", LocationCap, false, func(c *Config) *string { return &c.Location }},
	{"Enter GMT offset (+/- secs)", "GMT offset", OffsetCap, false, func(c *Config) *string { return &c.GMTOffset }},
	{"Enter cal data: Temp Offset (+/- degC)", "Temp Offset", OffsetCap, false, func(c *Config) *string { return &c.TempOffset }},
	{"Enter cal data: Humidity Offset (+/-%)", "Hum Offset", OffsetCap, false, func(c *Config) *string { return &c.HumOffset }},
	{"Enter cal data: ACS758 Offset (mV@0A)", "ACS758 Offset", OffsetCap, false, func(c *Config) *string { return &c.ACS758Offset }},
	{"Enter debug level (0 -> 9)", "debug level", DebugCap, false, func(c *Config) *string { return &c.DebugLevel }},
}

// Fields returns the settings in prompt order
func Fields() []Field {
	out := make([]Field, len(fields))
	copy(out, fields)
	return out
}

// Validate checks every field against its capacity
func (c *Config) Validate() error {
	for _, f := range fields {
		if len(f.Get(c)) > f.Max() {
			return fmt.Errorf("%w: %s is %d characters (max %d)", ErrTooLong, f.Label, len(f.Get(c)), f.Max())
		}
	}
	return nil
}

// Port returns the broker port
func (c *Config) Port() (int, error) {
	port, err := strconv.Atoi(c.MQTTPort)
	if err != nil || port < 1 || port > 65535 {
		return 0, fmt.Errorf("invalid mqtt port %q", c.MQTTPort)
	}
	return port, nil
}

// BrokerURL returns the broker address in the form paho expects
func (c *Config) BrokerURL() (string, error) {
	if c.MQTTServer == "" {
		return "", fmt.Errorf("mqtt server not configured")
	}
	port, err := c.Port()
	if err != nil {
		return "", err
	}
	return "tcp://" + net.JoinHostPort(c.MQTTServer, strconv.Itoa(port)), nil
}

// GMTOffsetDuration returns the configured offset from GMT, zero when unset
func (c *Config) GMTOffsetDuration() (time.Duration, error) {
	if c.GMTOffset == "" {
		return 0, nil
	}
	secs, err := strconv.Atoi(c.GMTOffset)
	if err != nil {
		return 0, fmt.Errorf("invalid GMT offset %q", c.GMTOffset)
	}
	return time.Duration(secs) * time.Second, nil
}

// Zone returns a fixed time zone for the GMT offset
func (c *Config) Zone() (*time.Location, error) {
	off, err := c.GMTOffsetDuration()
	if err != nil {
		return nil, err
	}
	if off == 0 {
		return time.UTC, nil
	}
	return time.FixedZone(fmt.Sprintf("GMT%+d", int(off.Hours())), int(off.Seconds())), nil
}

// TempOffsetValue returns the temperature calibration offset in degC
func (c *Config) TempOffsetValue() (float64, error) {
	return parseOffset("temp offset", c.TempOffset)
}

// HumOffsetValue returns the humidity calibration offset in %
func (c *Config) HumOffsetValue() (float64, error) {
	return parseOffset("humidity offset", c.HumOffset)
}

// ACS758OffsetValue returns the current sensor zero point in mV
func (c *Config) ACS758OffsetValue() (int, error) {
	if c.ACS758Offset == "" {
		return 0, nil
	}
	mv, err := strconv.Atoi(c.ACS758Offset)
	if err != nil {
		return 0, fmt.Errorf("invalid ACS758 offset %q", c.ACS758Offset)
	}
	return mv, nil
}

// Debug returns the debug level, 0 when unset
func (c *Config) Debug() (int, error) {
	if c.DebugLevel == "" {
		return 0, nil
	}
	level, err := strconv.Atoi(c.DebugLevel)
	if err != nil || level < 0 || level > 9 {
		return 0, fmt.Errorf("invalid debug level %q", c.DebugLevel)
	}
	return level, nil
}

func parseOffset(name, text string) (float64, error) {
	if text == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q", name, text)
	}
	return v, nil
}
