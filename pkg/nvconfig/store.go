// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package nvconfig

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fxamacker/cbor/v2"
)

var (
	ErrNoImage    = errors.New("no stored configuration")
	ErrStaleImage = errors.New("stored configuration failed validation")
	ErrTooLong    = errors.New("value exceeds field capacity")
)

// MaxImageSize bounds the stored image, like the EEPROM segment did
const MaxImageSize = 1024

// Store persists a Config as a CBOR image in a file
type Store struct {
	Path string
}

// DefaultPath returns the per-user image location
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "envnode.cbor"
	}
	return filepath.Join(dir, "envnode", "config.cbor")
}

// Load reads and validates the stored image
func (s *Store) Load() (*Config, error) {
	data, err := os.ReadFile(s.Path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNoImage, s.Path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", s.Path, err)
	}
	if len(data) > MaxImageSize {
		return nil, fmt.Errorf("%w: image is %d bytes (max %d)", ErrStaleImage, len(data), MaxImageSize)
	}

	var c Config
	if err := cbor.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("%w: failed to decode CBOR: %v", ErrStaleImage, err)
	}
	if c.Valid != ValidationString {
		return nil, fmt.Errorf("%w: found %q, expected %q", ErrStaleImage, c.Valid, ValidationString)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStaleImage, err)
	}
	return &c, nil
}

// LoadOrDefault returns the stored image, or the defaults when there is
// none or it failed validation. The error is set in the second case.
func (s *Store) LoadOrDefault() (*Config, error) {
	c, err := s.Load()
	switch {
	case err == nil:
		return c, nil
	case errors.Is(err, ErrNoImage):
		return Default(), nil
	case errors.Is(err, ErrStaleImage):
		return Default(), err
	default:
		return nil, err
	}
}

// Save stamps c with the validation string and writes it
func (s *Store) Save(c *Config) error {
	c.Valid = ValidationString
	if err := c.Validate(); err != nil {
		return err
	}

	data, err := cbor.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to encode CBOR: %w", err)
	}
	if len(data) > MaxImageSize {
		return fmt.Errorf("image is %d bytes (max %d)", len(data), MaxImageSize)
	}

	if err := os.MkdirAll(filepath.Dir(s.Path), 0o700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	tmp := s.Path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("failed to write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, s.Path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", s.Path, err)
	}
	return nil
}
