// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Thermoquad/envnode/pkg/dispatch"
)

var (
	probeTimeout int
)

var probeCmd = &cobra.Command{
	Use:   "probe",
	Short: "Test the broker by waiting for a valid reading",
	Long: `Wait for a reading that decodes and lands in the parameter table.

This command connects to the MQTT broker, subscribes to every parameter
topic and waits for a message that is accepted. Messages that fail to
decode or arrive on an unknown topic are ignored.

Exit codes:
  0 - Reading accepted before timeout
  1 - Timeout reached without an accepted reading
  2 - Connection error

Useful for checking that the sensors are publishing and the broker is
reachable.`,
	RunE: runProbe,
}

func init() {
	rootCmd.AddCommand(probeCmd)
	probeCmd.Flags().IntVar(&probeTimeout, "timeout", 10, "Timeout in seconds to wait for a reading")
}

func runProbe(cmd *cobra.Command, args []string) error {
	updates := make(chan dispatch.Update, 1)

	s, err := openSession(func(s *session, topic string, payload []byte) {
		_ = s.dispatcher.HandleMessage(topic, payload)
	}, dispatch.WithUpdateHook(func(u dispatch.Update) {
		select {
		case updates <- u:
		default:
		}
	}))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Connection error: %v\n", err)
		os.Exit(2)
	}

	fmt.Printf("Envnode - Probe\n")
	fmt.Printf("Broker: %s\n", s.broker)
	fmt.Printf("Timeout: %d seconds\n", probeTimeout)
	fmt.Printf("Waiting for a valid reading...\n\n")

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(probeTimeout)*time.Second)
	defer cancel()

	if err := s.link.Connect(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Connection error: %v\n", err)
		os.Exit(2)
	}

	select {
	case u := <-updates:
		s.link.Close()
		stats := s.dispatcher.Stats()
		if stats.Errors() > 0 {
			fmt.Printf("(ignored %d messages before the first reading)\n", stats.Errors())
		}
		fmt.Printf("SUCCESS: Received valid reading\n")
		fmt.Printf("  Topic: %s\n", u.Topic)
		fmt.Printf("  Label: %s\n", u.Label)
		fmt.Printf("  Value: %s\n", u.Raw)
		if u.Location != "" {
			fmt.Printf("  Location: %s\n", u.Location)
		}
		if u.Stamp != "" {
			fmt.Printf("  Timestamp: %s\n", u.Stamp)
		}
		fmt.Printf("  Depth: %d\n", u.Depth)
		os.Exit(0)

	case <-ctx.Done():
		s.link.Close()
		fmt.Fprintf(os.Stderr, "TIMEOUT: No valid reading received within %d seconds\n", probeTimeout)
		os.Exit(1)
	}

	return nil
}
