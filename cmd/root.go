// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/Thermoquad/envnode/pkg/dispatch"
	"github.com/Thermoquad/envnode/pkg/nvconfig"
	"github.com/Thermoquad/envnode/pkg/params"
)

var (
	// Broker flags
	brokerURL    string
	mqttUsername string
	nodeID       string

	// Node flags
	configPath  string
	logLevel    string
	paramFlags  []string
	strictKinds bool

	// Serial connection flags
	portName string
	baudRate int

	// WebSocket connection flags
	wsURL         string
	wsUsername    string
	wsNoSSLVerify bool
)

// Password environment variables
const (
	mqttPasswordEnv = "ENVNODE_MQTT_PASSWORD"
	wsPasswordEnv   = "ENVNODE_WS_PASSWORD"
)

var rootCmd = &cobra.Command{
	Use:   "envnode",
	Short: "Environment Display Node",
	Long: `Envnode - follows environment readings published over MQTT.

Each parameter topic carries a small JSON reading such as
  {"temp":{"value":21.50,"location":"garage","tstamp":"20251019T101500"}}
which is decoded by a bounded single-pass decoder and stored in the
parameter table shown on the current conditions screen.

Broker:
  --broker tcp://host:1883, or the server and port from the node config
  (see "envnode config").

Bench feed (no broker):
  Serial:    --port /dev/ttyUSB0 [--baud 115200]
  WebSocket: --url ws://host/path [--username user]

Passwords are read from ENVNODE_MQTT_PASSWORD and ENVNODE_WS_PASSWORD, or
prompted interactively if not set. Password flags are intentionally not
provided to avoid leaking credentials in shell history.`,
	Version:           "1.0.0",
	SilenceUsage:      true,
	PersistentPreRunE: setupLogging,
}

func init() {
	// Broker flags
	rootCmd.PersistentFlags().StringVar(&brokerURL, "broker", "", "MQTT broker URL (overrides the node config)")
	rootCmd.PersistentFlags().StringVar(&mqttUsername, "mqtt-username", "", "MQTT username")
	rootCmd.PersistentFlags().StringVar(&nodeID, "node-id", "", "Node id used in the MQTT client name (default: config location)")

	// Node flags
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Node config file (default: user config dir)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (trace, debug, info, warn, error)")
	rootCmd.PersistentFlags().StringArrayVar(&paramFlags, "param", nil, "Extra parameter topic:kind[:label] (repeatable)")
	rootCmd.PersistentFlags().BoolVar(&strictKinds, "strict", false, "Reject readings that do not match the parameter kind")

	// Serial connection flags
	rootCmd.PersistentFlags().StringVarP(&portName, "port", "p", "", "Serial port device")
	rootCmd.PersistentFlags().IntVarP(&baudRate, "baud", "b", 115200, "Baud rate (serial only)")

	// WebSocket connection flags
	rootCmd.PersistentFlags().StringVarP(&wsURL, "url", "u", "", "WebSocket URL (ws:// or wss://)")
	rootCmd.PersistentFlags().StringVar(&wsUsername, "username", "", "Username for HTTP Basic auth")
	rootCmd.PersistentFlags().BoolVar(&wsNoSSLVerify, "no-ssl-verify", false, "Skip TLS certificate verification (wss:// only)")
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// configStore returns the node config store for --config
func configStore() *nvconfig.Store {
	if configPath != "" {
		return &nvconfig.Store{Path: configPath}
	}
	return &nvconfig.Store{Path: nvconfig.DefaultPath()}
}

// loadNodeConfig reads the node config, falling back to defaults when no
// usable image exists
func loadNodeConfig() (*nvconfig.Config, error) {
	cfg, err := configStore().LoadOrDefault()
	if errors.Is(err, nvconfig.ErrStaleImage) {
		log.WithError(err).Warn("Ignoring stored node config")
		return cfg, nil
	}
	return cfg, err
}

// buildRegistry loads the stock parameter table plus any --param entries
func buildRegistry(extra []string) (*params.Registry, error) {
	entries := params.DefaultTable()
	for _, s := range extra {
		e, err := params.ParseEntry(s)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	registry, err := params.Load(params.DefaultLimits(), entries)
	if err != nil {
		return nil, fmt.Errorf("failed to build parameter table: %w", err)
	}
	return registry, nil
}

// newDispatcher builds the parameter table and its dispatcher from flags
func newDispatcher(opts ...dispatch.Option) (*dispatch.Dispatcher, error) {
	registry, err := buildRegistry(paramFlags)
	if err != nil {
		return nil, err
	}
	opts = append([]dispatch.Option{
		dispatch.WithLogger(log.StandardLogger()),
		dispatch.WithStrictKinds(strictKinds),
	}, opts...)
	return dispatch.New(registry, opts...), nil
}

// resolveBroker picks --broker over the address in the node config
func resolveBroker(cfg *nvconfig.Config) (string, error) {
	if brokerURL != "" {
		return brokerURL, nil
	}
	url, err := cfg.BrokerURL()
	if err != nil {
		return "", fmt.Errorf("no broker: use --broker or set one with \"envnode config\" (%v)", err)
	}
	return url, nil
}

// resolveNodeID picks --node-id over the configured location
func resolveNodeID(cfg *nvconfig.Config) string {
	if nodeID != "" {
		return nodeID
	}
	return cfg.Location
}
