// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package nvconfig

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Line editor control bytes
const (
	keyEsc       = 0x1B
	keyBackspace = 0x08
	keyDelete    = 0x7F
)

var (
	// ErrSkip means Esc was pressed as the first key
	ErrSkip = errors.New("skip remaining fields")
	// ErrOverflow means the line was longer than allowed
	ErrOverflow = errors.New("too many characters")
)

// Prompter edits a Config interactively, one field per line
type Prompter struct {
	in  *bufio.Reader
	out io.Writer

	// ReadSecret, if set, reads secret fields without echo
	ReadSecret func() (string, error)
}

// NewPrompter creates a prompter reading keys from in and writing to out
func NewPrompter(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{in: bufio.NewReader(in), out: out}
}

// ReadLine reads one line of at most limit characters. Enter (CR or LF)
// ends the line, Esc as the first key returns ErrSkip and backspace
// erases the previous character. A longer line is consumed to its end
// and ErrOverflow is returned.
func (p *Prompter) ReadLine(limit int) (string, error) {
	var buf []byte
	overflow := false

loop:
	for {
		b, err := p.in.ReadByte()
		if err != nil {
			if errors.Is(err, io.EOF) && (len(buf) > 0 || overflow) {
				break loop
			}
			return "", err
		}

		switch b {
		case '\n':
			break loop
		case '\r':
			// Swallow the LF of a CRLF pair
			if next, err := p.in.Peek(1); err == nil && next[0] == '\n' {
				_, _ = p.in.ReadByte()
			}
			break loop
		case keyEsc:
			if len(buf) == 0 && !overflow {
				p.drainLine()
				return "", ErrSkip
			}
		case keyBackspace, keyDelete:
			if len(buf) > 0 {
				buf = buf[:len(buf)-1]
			}
		default:
			if len(buf) >= limit {
				overflow = true
				continue
			}
			buf = append(buf, b)
		}
	}

	if overflow {
		return "", ErrOverflow
	}
	return string(buf), nil
}

// drainLine discards input up to the end of the current line
func (p *Prompter) drainLine() {
	for {
		b, err := p.in.ReadByte()
		if err != nil || b == '\n' {
			return
		}
		if b == '\r' {
			if next, err := p.in.Peek(1); err == nil && next[0] == '\n' {
				_, _ = p.in.ReadByte()
			}
			return
		}
	}
}

// EditField prompts for one field. An empty line keeps the current value.
func (p *Prompter) EditField(c *Config, f Field) error {
	if f.Prompt == "" {
		return nil
	}

	current := f.Get(c)
	if f.Secret {
		current = Mask(current)
	}
	fmt.Fprintf(p.out, "%s[%s](max %d chars):", f.Prompt, current, f.Max())

	var text string
	var err error
	if f.Secret && p.ReadSecret != nil {
		text, err = p.ReadSecret()
		if err == nil && len(text) > f.Max() {
			err = ErrOverflow
		}
	} else {
		text, err = p.ReadLine(f.Max())
	}
	fmt.Fprintln(p.out)

	switch {
	case errors.Is(err, ErrOverflow):
		fmt.Fprintln(p.out, "Error: too many characters; value will be unchanged")
		return nil
	case err != nil:
		return err
	case text == "":
		return nil
	}
	return f.Set(c, text)
}

// Edit prompts for every field in order until Esc is pressed
func (p *Prompter) Edit(c *Config) error {
	fmt.Fprintln(p.out)
	fmt.Fprintln(p.out, "Press <enter> alone to accept previous value shown")
	fmt.Fprintln(p.out, "Press <esc> as the first character to skip to the end")
	fmt.Fprintln(p.out)

	for _, f := range fields {
		err := p.EditField(c, f)
		if errors.Is(err, ErrSkip) || errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// Mask hides all but the length of a secret
func Mask(s string) string {
	return strings.Repeat("*", len(s))
}

// Rows returns label/value pairs for display, secrets masked
func Rows(c *Config) [][2]string {
	rows := make([][2]string, 0, len(fields))
	for _, f := range fields {
		v := f.Get(c)
		if f.Secret {
			v = Mask(v)
		}
		rows = append(rows, [2]string{f.Label, v})
	}
	return rows
}
