// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/Thermoquad/envnode/pkg/dispatch"
	"github.com/Thermoquad/envnode/pkg/jsonlite"
	"github.com/Thermoquad/envnode/pkg/mqttlink"
	"github.com/Thermoquad/envnode/pkg/nvconfig"
)

var (
	showAll       bool
	statsInterval int
	useTUI        bool
	testTopic     string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Follow parameter topics on the MQTT broker",
	Long: `Connect to the MQTT broker, subscribe to every parameter topic and keep
the parameter table current.

Each message is decoded and its "value" stored under the topic it arrived
on. Messages that fail to decode, arrive on an unknown topic or carry an
unusable value are dropped and counted:
  - Unbalanced braces
  - Over capacity (too deep, too many fields, text too long)
  - Malformed text
  - Missing "value" field
  - Unknown topic
  - Rejected value (too long, or wrong kind with --strict)

By default, only dropped messages are displayed in text mode. Use --show-all
to display accepted readings too. Use --tui for the current conditions
display.`,
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().BoolVar(&showAll, "show-all", false, "Show accepted readings (not just errors)")
	runCmd.Flags().IntVar(&statsInterval, "stats-interval", 10, "Statistics update interval (seconds)")
	runCmd.Flags().BoolVar(&useTUI, "tui", false, "Use terminal UI")
	runCmd.Flags().StringVar(&testTopic, "test-topic", mqttlink.DefaultTestTopic, "Topic the hello message is published on (empty to disable)")
}

// session is a broker link feeding a dispatcher
type session struct {
	cfg        *nvconfig.Config
	broker     string
	dispatcher *dispatch.Dispatcher
	link       *mqttlink.Link
}

// openSession builds the dispatcher and broker link from flags and the
// node config. handler receives every message; it must call
// dispatcher.HandleMessage.
func openSession(handler func(s *session, topic string, payload []byte), opts ...dispatch.Option) (*session, error) {
	cfg, err := loadNodeConfig()
	if err != nil {
		return nil, err
	}
	broker, err := resolveBroker(cfg)
	if err != nil {
		return nil, err
	}
	password, err := mqttPassword()
	if err != nil {
		return nil, err
	}

	d, err := newDispatcher(opts...)
	if err != nil {
		return nil, err
	}

	s := &session{cfg: cfg, broker: broker, dispatcher: d}
	s.link = mqttlink.New(mqttlink.Config{
		Broker:    broker,
		Username:  mqttUsername,
		Password:  password,
		NodeID:    resolveNodeID(cfg),
		Topics:    d.Topics(),
		TestTopic: testTopic,
		Log:       log.StandardLogger(),
	}, func(topic string, payload []byte) {
		handler(s, topic, payload)
	})
	return s, nil
}

func runRun(cmd *cobra.Command, args []string) error {
	if statsInterval <= 0 {
		return fmt.Errorf("--stats-interval must be at least 1 second, got %d", statsInterval)
	}
	if useTUI {
		return runTUIMode()
	}
	return runTextMode()
}

// runTextMode prints dropped messages (and accepted ones with --show-all)
// with periodic statistics
func runTextMode() error {
	type frame struct {
		topic   string
		payload []byte
	}
	inbox := make(chan frame, 64)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s, err := openSession(func(_ *session, topic string, payload []byte) {
		select {
		case inbox <- frame{topic: topic, payload: payload}:
		case <-ctx.Done():
		}
	})
	if err != nil {
		return err
	}

	fmt.Printf("Envnode - Parameter Monitor\n")
	fmt.Printf("Broker: %s\n", s.broker)
	fmt.Printf("Topics: %d\n", len(s.dispatcher.Topics()))
	fmt.Printf("Statistics interval: %d seconds\n", statsInterval)
	if showAll {
		fmt.Printf("Mode: All messages\n")
	} else {
		fmt.Printf("Mode: Errors only\n")
	}
	fmt.Printf("Press Ctrl+C to exit\n\n")

	if err := s.link.Connect(ctx); err != nil {
		return err
	}
	defer s.link.Close()

	statsTicker := time.NewTicker(time.Duration(statsInterval) * time.Second)
	defer statsTicker.Stop()

	for {
		select {
		case f := <-inbox:
			err := s.dispatcher.HandleMessage(f.topic, f.payload)
			if err != nil {
				printDropped(f.topic, err)
			} else if showAll {
				printAccepted(s.dispatcher, f.topic)
			}

		case <-statsTicker.C:
			stats := s.dispatcher.Stats()
			fmt.Println()
			fmt.Print(stats.String())
			fmt.Println()

		case <-ctx.Done():
			stats := s.dispatcher.Stats()
			fmt.Println()
			fmt.Print(stats.String())
			return nil
		}
	}
}

// printDropped prints a dropped message in highlighted format
func printDropped(topic string, err error) {
	timestamp := time.Now().Format("15:04:05.000")
	kind := "REJECTED"
	if dispatch.IsDecodeError(err) {
		kind = "DECODE ERROR"
	}
	fmt.Printf("[%s] \033[1;31m%s:\033[0m %s\n", timestamp, kind, topic)
	fmt.Printf("  %s\n", describeDrop(topic, err))
	fmt.Printf("  >>> MESSAGE DROPPED <<<\n\n")
}

// describeDrop formats a HandleMessage error, which already names the topic
// unless it came from the parser
func describeDrop(topic string, err error) string {
	var pe *jsonlite.ParseError
	if errors.As(err, &pe) {
		return topic + ": " + jsonlite.FormatError(err)
	}
	return err.Error()
}

// printAccepted prints the stored reading for topic
func printAccepted(d *dispatch.Dispatcher, topic string) {
	timestamp := time.Now().Format("15:04:05.000")
	for _, desc := range d.Snapshot() {
		if desc.Topic != topic {
			continue
		}
		value := desc.Raw
		if v, err := desc.Value(); err == nil {
			value = v.String()
		}
		fmt.Printf("[%s] \033[1;32m%s:\033[0m %s", timestamp, desc.Label, value)
		if desc.Location != "" {
			fmt.Printf(" (%s)", desc.Location)
		}
		fmt.Println()
		return
	}
}

// runTUIMode runs the current conditions display
func runTUIMode() error {
	var p *tea.Program

	s, err := openSession(func(s *session, topic string, payload []byte) {
		if err := s.dispatcher.HandleMessage(topic, payload); err != nil {
			p.Send(droppedMsg{topic: topic, err: err})
		}
	}, dispatch.WithUpdateHook(func(u dispatch.Update) {
		p.Send(updateMsg(u))
	}))
	if err != nil {
		return err
	}

	zone, err := s.cfg.Zone()
	if err != nil {
		log.WithError(err).Warn("Using UTC")
		zone = time.UTC
	}

	// Keep log output off the alternate screen
	log.SetOutput(io.Discard)

	m := initialModel(s.broker, resolveNodeID(s.cfg), s.dispatcher, zone)
	m.connected = s.link.Connected
	p = tea.NewProgram(m)

	go func() {
		if err := s.link.Connect(context.Background()); err != nil {
			p.Send(statusMsg{message: err.Error(), isError: true})
		}
	}()
	defer s.link.Close()

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %v", err)
	}

	return nil
}
