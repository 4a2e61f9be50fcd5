// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/Thermoquad/envnode/pkg/jsonlite"
	"github.com/Thermoquad/envnode/pkg/mqttlink"
)

// Sample timestamp layout; spaces are not representable in a payload
const stampLayout = "20060102T150405"

var (
	publishTopic    string
	publishKind     string
	publishLocation string
	publishRetain   bool
	publishDryRun   bool
)

var publishCmd = &cobra.Command{
	Use:   "publish <param> <value>",
	Short: "Build a reading and publish it",
	Long: `Build a reading in the format the node decodes and publish it:
  {"<param>":{"value":<value>,"location":"<location>","tstamp":"<time>"}}

Kinds:
  float   two decimals, unquoted (default)
  int     unquoted integer
  qint    quoted integer
  bool    true or false
  string  quoted text

The topic defaults to zk-env/<param> and the location to the one in the
node config. Use --dry-run to print the payload without connecting.`,
	Args: cobra.ExactArgs(2),
	RunE: runPublish,
}

func init() {
	rootCmd.AddCommand(publishCmd)
	publishCmd.Flags().StringVarP(&publishTopic, "to", "t", "", "Topic to publish on (default zk-env/<param>)")
	publishCmd.Flags().StringVarP(&publishKind, "kind", "k", "float", "Value kind: float, int, qint, bool, string")
	publishCmd.Flags().StringVarP(&publishLocation, "location", "l", "", "Reading location (default: config location)")
	publishCmd.Flags().BoolVar(&publishRetain, "retain", false, "Ask the broker to retain the reading")
	publishCmd.Flags().BoolVar(&publishDryRun, "dry-run", false, "Print the payload without publishing")
}

// buildSample renders value as kind into a reading payload
func buildSample(param, kind, value, location, stamp string) ([]byte, error) {
	switch kind {
	case "float":
		v, err := strconv.ParseFloat(value, 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("invalid float %q", value)
		}
		return jsonlite.SampleFloat(param, v, location, stamp), nil
	case "int", "qint":
		v, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid integer %q", value)
		}
		if kind == "qint" {
			return jsonlite.SampleQuotedInt(param, v, location, stamp), nil
		}
		return jsonlite.SampleInt(param, v, location, stamp), nil
	case "bool":
		v, err := strconv.ParseBool(value)
		if err != nil {
			return nil, fmt.Errorf("invalid bool %q", value)
		}
		return jsonlite.SampleBool(param, v, location, stamp), nil
	case "string":
		return jsonlite.SampleString(param, value, location, stamp), nil
	default:
		return nil, fmt.Errorf("unknown kind %q (use float, int, qint, bool or string)", kind)
	}
}

func runPublish(cmd *cobra.Command, args []string) error {
	param, value := args[0], args[1]

	cfg, err := loadNodeConfig()
	if err != nil {
		return err
	}
	zone, err := cfg.Zone()
	if err != nil {
		return err
	}

	location := publishLocation
	if location == "" {
		location = cfg.Location
	}
	topic := publishTopic
	if topic == "" {
		topic = "zk-env/" + param
	}

	payload, err := buildSample(param, publishKind, value, location, time.Now().In(zone).Format(stampLayout))
	if err != nil {
		return err
	}
	if len(payload) > jsonlite.DefaultMaxPayload {
		return fmt.Errorf("payload is %d bytes (max %d)", len(payload), jsonlite.DefaultMaxPayload)
	}

	if publishDryRun {
		fmt.Printf("%s %s\n", topic, payload)
		return nil
	}

	broker, err := resolveBroker(cfg)
	if err != nil {
		return err
	}
	password, err := mqttPassword()
	if err != nil {
		return err
	}

	link := mqttlink.New(mqttlink.Config{
		Broker:   broker,
		Username: mqttUsername,
		Password: password,
		NodeID:   resolveNodeID(cfg),
		Log:      log.StandardLogger(),
	}, nil)

	ctx, cancel := context.WithTimeout(context.Background(), mqttlink.DefaultConnectTimeout)
	defer cancel()

	if err := link.Connect(ctx); err != nil {
		return err
	}
	defer link.Close()

	if err := link.Publish(ctx, topic, payload, publishRetain); err != nil {
		return err
	}
	fmt.Printf("Published %d bytes to %s\n", len(payload), topic)
	return nil
}
