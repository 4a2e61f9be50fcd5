// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package mqttlink

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// ============================================================
// Fakes
// ============================================================

// doneToken is an already-completed token
type doneToken struct {
	err error
}

func (t *doneToken) Wait() bool                     { return true }
func (t *doneToken) WaitTimeout(time.Duration) bool { return true }
func (t *doneToken) Error() error                   { return t.err }
func (t *doneToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}

// stuckToken never completes
type stuckToken struct{}

func (stuckToken) Wait() bool                     { select {} }
func (stuckToken) WaitTimeout(time.Duration) bool { return false }
func (stuckToken) Error() error                   { return nil }
func (stuckToken) Done() <-chan struct{}          { return make(chan struct{}) }

type published struct {
	topic    string
	payload  string
	retained bool
}

// fakeClient records calls; methods not overridden panic via the nil interface
type fakeClient struct {
	mqtt.Client

	mu         sync.Mutex
	subscribed map[string]mqtt.MessageHandler
	published  []published
	failTopics map[string]bool
	connectErr error
	stuck      bool
	onConnect  func(mqtt.Client)
	connected  bool
}

func newFakeClient() *fakeClient {
	return &fakeClient{subscribed: map[string]mqtt.MessageHandler{}, failTopics: map[string]bool{}}
}

func (c *fakeClient) Connect() mqtt.Token {
	if c.stuck {
		return stuckToken{}
	}
	if c.connectErr != nil {
		return &doneToken{err: c.connectErr}
	}
	c.connected = true
	if c.onConnect != nil {
		c.onConnect(c)
	}
	return &doneToken{}
}

func (c *fakeClient) Subscribe(topic string, _ byte, cb mqtt.MessageHandler) mqtt.Token {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failTopics[topic] {
		return &doneToken{err: errors.New("not authorized")}
	}
	c.subscribed[topic] = cb
	return &doneToken{}
}

func (c *fakeClient) Publish(topic string, _ byte, retained bool, payload interface{}) mqtt.Token {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.published = append(c.published, published{topic: topic, payload: string(payload.([]byte)), retained: retained})
	return &doneToken{}
}

func (c *fakeClient) IsConnected() bool { return c.connected }

func (c *fakeClient) Disconnect(uint) { c.connected = false }

// deliver simulates the broker delivering a message on topic
func (c *fakeClient) deliver(topic, payload string) {
	c.mu.Lock()
	cb := c.subscribed[topic]
	c.mu.Unlock()
	if cb != nil {
		cb(c, &fakeMessage{topic: topic, payload: []byte(payload)})
	}
}

type fakeMessage struct {
	topic   string
	payload []byte
}

func (m *fakeMessage) Duplicate() bool   { return false }
func (m *fakeMessage) Qos() byte         { return 0 }
func (m *fakeMessage) Retained() bool    { return false }
func (m *fakeMessage) Topic() string     { return m.topic }
func (m *fakeMessage) MessageID() uint16 { return 0 }
func (m *fakeMessage) Payload() []byte   { return m.payload }
func (m *fakeMessage) Ack()              {}

// ============================================================
// Client Name Tests
// ============================================================

func TestClientName(t *testing.T) {
	pattern := regexp.MustCompile(`^envnode-garage-[0-9a-f]{8}$`)

	a := ClientName("garage")
	b := ClientName("garage")
	if !pattern.MatchString(a) {
		t.Errorf("Unexpected client name %q", a)
	}
	if a == b {
		t.Errorf("Expected distinct names, got %q twice", a)
	}
	if !strings.HasPrefix(ClientName(""), "envnode-node-") {
		t.Errorf("Expected default node id, got %q", ClientName(""))
	}
}

// ============================================================
// Link Tests
// ============================================================

func TestLink_ConnectSubscribesAndGreets(t *testing.T) {
	client := newFakeClient()
	var got []string
	l := NewWithClient(client, Config{
		Broker:    "tcp://broker:1883",
		Topics:    []string{"zk-env/temp", "zk-env/humidity"},
		TestTopic: DefaultTestTopic,
	}, func(topic string, payload []byte) {
		got = append(got, topic+" "+string(payload))
	})
	client.onConnect = l.OnConnect

	if err := l.Connect(context.Background()); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	if !l.Connected() {
		t.Error("Expected link connected")
	}

	if len(client.subscribed) != 2 {
		t.Errorf("Expected 2 subscriptions, got %d", len(client.subscribed))
	}
	if len(client.published) != 1 || client.published[0].topic != DefaultTestTopic || client.published[0].payload != DefaultHello {
		t.Errorf("Expected hello on %s, got %+v", DefaultTestTopic, client.published)
	}

	client.deliver("zk-env/temp", `{"value":1}`)
	if len(got) != 1 || got[0] != `zk-env/temp {"value":1}` {
		t.Errorf("Expected message handed to handler, got %v", got)
	}

	l.Close()
	if l.Connected() {
		t.Error("Expected link disconnected")
	}
}

func TestLink_ReconnectResubscribes(t *testing.T) {
	client := newFakeClient()
	l := NewWithClient(client, Config{Topics: []string{"a"}}, nil)

	l.OnConnect(client)
	delete(client.subscribed, "a")
	l.OnConnect(client)

	if _, ok := client.subscribed["a"]; !ok {
		t.Error("Expected topic resubscribed on reconnect")
	}
	if len(client.published) != 0 {
		t.Errorf("Expected no hello without a test topic, got %+v", client.published)
	}
	client.deliver("a", "ignored with nil handler")
}

func TestLink_SubscribeAllReportsEveryFailure(t *testing.T) {
	client := newFakeClient()
	client.failTopics["b"] = true
	client.failTopics["d"] = true
	l := NewWithClient(client, Config{Topics: []string{"a", "b", "c", "d"}}, nil)

	err := l.SubscribeAll(context.Background())
	if err == nil {
		t.Fatal("Expected error")
	}
	for _, topic := range []string{"subscribe b", "subscribe d"} {
		if !strings.Contains(err.Error(), topic) {
			t.Errorf("Expected %q in %v", topic, err)
		}
	}
	if _, ok := client.subscribed["c"]; !ok {
		t.Error("Expected later topics to still be subscribed")
	}
}

func TestLink_ConnectErrors(t *testing.T) {
	client := newFakeClient()
	client.connectErr = errors.New("refused")
	l := NewWithClient(client, Config{Broker: "tcp://x:1"}, nil)

	if err := l.Connect(context.Background()); err == nil || !strings.Contains(err.Error(), "refused") {
		t.Errorf("Expected refused, got %v", err)
	}

	stuck := newFakeClient()
	stuck.stuck = true
	l = NewWithClient(stuck, Config{ConnectTimeout: 20 * time.Millisecond}, nil)
	if err := l.Connect(context.Background()); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Expected deadline exceeded, got %v", err)
	}
}

func TestLink_Publish(t *testing.T) {
	client := newFakeClient()
	l := NewWithClient(client, Config{}, nil)

	if err := l.Publish(context.Background(), "zk-env/temp", []byte(`{"value":1}`), true); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}
	want := published{topic: "zk-env/temp", payload: `{"value":1}`, retained: true}
	if len(client.published) != 1 || client.published[0] != want {
		t.Errorf("Expected %+v, got %+v", want, client.published)
	}
}

func TestNew_BuildsPahoClient(t *testing.T) {
	l := New(Config{Broker: "tcp://127.0.0.1:1", NodeID: "t"}, nil)
	if l.client == nil {
		t.Fatal("Expected client")
	}
	if l.Connected() {
		t.Error("Expected new client to be disconnected")
	}

	opts := l.clientOptions()
	if len(opts.Servers) != 1 || opts.Servers[0].Host != "127.0.0.1:1" {
		t.Errorf("Unexpected servers %v", opts.Servers)
	}
	if !opts.AutoReconnect {
		t.Error("Expected auto reconnect")
	}
}
