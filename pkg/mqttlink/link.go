// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package mqttlink connects the node to its MQTT broker: it subscribes to
// every parameter topic on each (re)connect, hands received payloads to a
// handler and publishes readings.
package mqttlink

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Defaults
const (
	DefaultTestTopic      = "envnode-test"
	DefaultHello          = "hello from envnode"
	DefaultConnectTimeout = 10 * time.Second
	DefaultQoS            = 0
	disconnectQuiesce     = 250 // ms
)

// Handler receives every message delivered on a subscribed topic
type Handler func(topic string, payload []byte)

// Config describes the broker session
type Config struct {
	Broker   string // tcp://host:port
	Username string
	Password string
	NodeID   string
	Topics   []string
	QoS      byte

	TestTopic string // hello is published here on connect; empty disables it
	Hello     string

	ConnectTimeout time.Duration
	Log            logrus.FieldLogger
}

// Link is a broker session
type Link struct {
	cfg     Config
	client  mqtt.Client
	handler Handler
	log     logrus.FieldLogger
}

// ClientName returns a client id unique to this process
func ClientName(nodeID string) string {
	if nodeID == "" {
		nodeID = "node"
	}
	return fmt.Sprintf("envnode-%s-%s", nodeID, strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}

// New creates a link over a paho client built from cfg
func New(cfg Config, handler Handler) *Link {
	l := newLink(cfg, handler)
	l.client = mqtt.NewClient(l.clientOptions())
	return l
}

// NewWithClient creates a link over an existing client. The client's
// connect handler should call l.OnConnect.
func NewWithClient(client mqtt.Client, cfg Config, handler Handler) *Link {
	l := newLink(cfg, handler)
	l.client = client
	return l
}

func newLink(cfg Config, handler Handler) *Link {
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = DefaultConnectTimeout
	}
	if cfg.Hello == "" {
		cfg.Hello = DefaultHello
	}
	log := cfg.Log
	if log == nil {
		quiet := logrus.New()
		quiet.SetOutput(io.Discard)
		log = quiet
	}
	return &Link{
		cfg:     cfg,
		handler: handler,
		log:     log.WithField("broker", cfg.Broker),
	}
}

// clientOptions builds the paho options for cfg
func (l *Link) clientOptions() *mqtt.ClientOptions {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(l.cfg.Broker)
	if l.cfg.Username != "" {
		opts.SetUsername(l.cfg.Username)
		opts.SetPassword(l.cfg.Password)
	}
	opts.SetClientID(ClientName(l.cfg.NodeID))
	opts.SetAutoReconnect(true)
	opts.SetConnectTimeout(l.cfg.ConnectTimeout)
	opts.SetOnConnectHandler(l.OnConnect)
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		l.log.WithError(err).Warn("Lost connection to MQTT broker")
	})
	return opts
}

// OnConnect resubscribes every topic and publishes the hello message.
// It runs on each successful (re)connect.
func (l *Link) OnConnect(_ mqtt.Client) {
	l.log.Info("Connected to MQTT broker")

	ctx, cancel := context.WithTimeout(context.Background(), l.cfg.ConnectTimeout)
	defer cancel()

	if err := l.SubscribeAll(ctx); err != nil {
		l.log.WithError(err).Error("Subscription failed")
	}
	if err := l.Hello(ctx); err != nil {
		l.log.WithError(err).Warn("Failed to publish hello")
	}
}

// Connect opens the session. Subscriptions follow from OnConnect.
func (l *Link) Connect(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, l.cfg.ConnectTimeout)
	defer cancel()

	if err := wait(ctx, l.client.Connect()); err != nil {
		return fmt.Errorf("failed to connect to %s: %w", l.cfg.Broker, err)
	}
	return nil
}

// SubscribeAll subscribes every configured topic, trying them all and
// reporting every failure
func (l *Link) SubscribeAll(ctx context.Context) error {
	var errs []error
	for _, topic := range l.cfg.Topics {
		if err := wait(ctx, l.client.Subscribe(topic, l.cfg.QoS, l.onMessage)); err != nil {
			errs = append(errs, fmt.Errorf("subscribe %s: %w", topic, err))
			continue
		}
		l.log.WithField("topic", topic).Debug("Subscribed")
	}
	return errors.Join(errs...)
}

// onMessage adapts paho's callback to Handler
func (l *Link) onMessage(_ mqtt.Client, msg mqtt.Message) {
	if l.handler == nil {
		return
	}
	l.handler(msg.Topic(), msg.Payload())
}

// Publish sends payload on topic
func (l *Link) Publish(ctx context.Context, topic string, payload []byte, retained bool) error {
	if err := wait(ctx, l.client.Publish(topic, l.cfg.QoS, retained, payload)); err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}
	l.log.WithFields(logrus.Fields{"topic": topic, "bytes": len(payload)}).Debug("Published")
	return nil
}

// Hello publishes the greeting on the test topic
func (l *Link) Hello(ctx context.Context) error {
	if l.cfg.TestTopic == "" {
		return nil
	}
	return l.Publish(ctx, l.cfg.TestTopic, []byte(l.cfg.Hello), false)
}

// Connected reports whether the client currently has a connection
func (l *Link) Connected() bool {
	return l.client.IsConnected()
}

// Close disconnects from the broker
func (l *Link) Close() {
	l.client.Disconnect(disconnectQuiesce)
	l.log.Info("Disconnected from MQTT broker")
}

// wait blocks until token completes or ctx ends
func wait(ctx context.Context, token mqtt.Token) error {
	select {
	case <-token.Done():
		return token.Error()
	case <-ctx.Done():
		return ctx.Err()
	}
}
