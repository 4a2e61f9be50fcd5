// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"bufio"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"go.bug.st/serial"
	"golang.org/x/term"
)

// maxFrameLen bounds one "topic payload" line
const maxFrameLen = 4096

// Feed yields "topic payload" lines from a serial port or WebSocket
type Feed interface {
	// NextLine blocks until a full line arrives. io.EOF marks a clean end.
	NextLine() (string, error)
	io.Closer
	fmt.Stringer
}

// lineFeed splits a byte stream on newlines
type lineFeed struct {
	rc      io.ReadCloser
	scanner *bufio.Scanner
	desc    string
}

func newLineFeed(rc io.ReadCloser, desc string) *lineFeed {
	scanner := bufio.NewScanner(rc)
	scanner.Buffer(make([]byte, 0, 512), maxFrameLen)
	return &lineFeed{rc: rc, scanner: scanner, desc: desc}
}

func (f *lineFeed) NextLine() (string, error) {
	if f.scanner.Scan() {
		return strings.TrimRight(f.scanner.Text(), "\r"), nil
	}
	if err := f.scanner.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}

func (f *lineFeed) Close() error {
	return f.rc.Close()
}

func (f *lineFeed) String() string {
	return f.desc
}

// OpenSerialFeed opens a serial port and drops input buffered before the open
func OpenSerialFeed(portName string, baudRate int) (Feed, error) {
	mode := &serial.Mode{
		BaudRate: baudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}

	port, err := serial.Open(portName, mode)
	if err != nil {
		var pe *serial.PortError
		if errors.As(err, &pe) && pe.Code() == serial.PortBusy {
			return nil, fmt.Errorf("serial port %s is in use by another program", portName)
		}
		// Name the ports that do exist
		if ports, lerr := serial.GetPortsList(); lerr == nil && len(ports) > 0 {
			return nil, fmt.Errorf("failed to open serial port %s: %w (available: %s)",
				portName, err, strings.Join(ports, ", "))
		}
		return nil, fmt.Errorf("failed to open serial port %s: %w", portName, err)
	}

	if err := port.ResetInputBuffer(); err != nil {
		port.Close()
		return nil, fmt.Errorf("failed to reset serial port %s: %w", portName, err)
	}

	return newLineFeed(port, fmt.Sprintf("Serial: %s @ %d baud", portName, baudRate)), nil
}

// wsFeed reads WebSocket messages, each holding one or more lines
type wsFeed struct {
	conn    *websocket.Conn
	desc    string
	pending []string
}

func (f *wsFeed) NextLine() (string, error) {
	for len(f.pending) == 0 {
		_, data, err := f.conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return "", io.EOF
			}
			return "", err
		}
		for _, line := range strings.Split(string(data), "\n") {
			if line = strings.TrimRight(line, "\r"); line != "" {
				f.pending = append(f.pending, line)
			}
		}
	}

	line := f.pending[0]
	f.pending = f.pending[1:]
	return line, nil
}

// Close sends a close frame before dropping the connection
func (f *wsFeed) Close() error {
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	_ = f.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
	return f.conn.Close()
}

func (f *wsFeed) String() string {
	return f.desc
}

// parseFeedURL validates a ws:// or wss:// URL. Credentials embedded in the
// URL are returned separately and stripped from it.
func parseFeedURL(raw string) (*url.URL, string, string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, "", "", fmt.Errorf("invalid URL: %v", err)
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return nil, "", "", fmt.Errorf("unsupported URL scheme: %q (use ws:// or wss://)", u.Scheme)
	}
	if u.Host == "" {
		return nil, "", "", fmt.Errorf("invalid URL %q: missing host", raw)
	}

	var username, password string
	if u.User != nil {
		username = u.User.Username()
		password, _ = u.User.Password()
		u.User = nil
	}
	return u, username, password, nil
}

// OpenWebSocketFeed dials a WebSocket feed, with HTTP Basic auth when a
// username is given
func OpenWebSocketFeed(ctx context.Context, u *url.URL, username, password string, skipSSLVerify bool) (Feed, error) {
	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}
	if u.Scheme == "wss" {
		dialer.TLSClientConfig = &tls.Config{
			InsecureSkipVerify: skipSSLVerify,
		}
	}

	req := &http.Request{Header: http.Header{}}
	if username != "" {
		req.SetBasicAuth(username, password)
	}

	conn, resp, err := dialer.DialContext(ctx, u.String(), req.Header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("WebSocket connection failed (HTTP %d): %v", resp.StatusCode, err)
		}
		return nil, fmt.Errorf("WebSocket connection failed: %v", err)
	}
	conn.SetReadLimit(maxFrameLen)

	return &wsFeed{conn: conn, desc: "WebSocket: " + u.Redacted()}, nil
}

// GetPassword retrieves a password from envVar or prompts the user
func GetPassword(envVar, prompt string) (string, error) {
	if pw := os.Getenv(envVar); pw != "" {
		return pw, nil
	}

	fmt.Fprintf(os.Stderr, "%s: ", prompt)

	passwordBytes, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		// Fallback to regular input if terminal functions fail
		reader := bufio.NewReader(os.Stdin)
		password, err := reader.ReadString('\n')
		if err != nil {
			return "", fmt.Errorf("failed to read password: %v", err)
		}
		fmt.Fprintln(os.Stderr)
		return strings.TrimSpace(password), nil
	}

	fmt.Fprintln(os.Stderr)
	return string(passwordBytes), nil
}

// OpenFeed opens the WebSocket or serial feed named by the flags
func OpenFeed(ctx context.Context) (Feed, error) {
	if wsURL != "" {
		u, username, password, err := parseFeedURL(wsURL)
		if err != nil {
			return nil, err
		}
		if wsUsername != "" {
			username = wsUsername
		}
		if username != "" && password == "" {
			password, err = GetPassword(wsPasswordEnv, "WebSocket password")
			if err != nil {
				return nil, err
			}
		}

		dialCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
		defer cancel()
		return OpenWebSocketFeed(dialCtx, u, username, password, wsNoSSLVerify)
	}

	if portName != "" {
		return OpenSerialFeed(portName, baudRate)
	}

	return nil, fmt.Errorf("either --port or --url must be specified")
}

// mqttPassword returns the broker password when a username is set
func mqttPassword() (string, error) {
	if mqttUsername == "" {
		return "", nil
	}
	return GetPassword(mqttPasswordEnv, "MQTT password")
}

// parseFrame splits a "topic payload" feed line
func parseFrame(line string) (string, []byte, error) {
	line = strings.TrimRight(line, "\r\n")
	topic, payload, ok := strings.Cut(strings.TrimLeft(line, " "), " ")
	if !ok || topic == "" {
		return "", nil, fmt.Errorf("invalid frame %q (expected \"topic payload\")", line)
	}
	return topic, []byte(payload), nil
}
