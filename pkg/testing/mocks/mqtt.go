// Zaparoo Projector
// Copyright (c) 2026 The Zaparoo Project Contributors.
// SPDX-License-Identifier: GPL-3.0-or-later
//
// This file is part of Zaparoo Projector.
//
// Zaparoo Projector is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Zaparoo Projector is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with Zaparoo Projector.  If not, see <http://www.gnu.org/licenses/>.

package mocks

import (
	"time"

	"github.com/ZaparooProject/zaparoo-projector/pkg/helpers/syncutil"
	mqtt "github.com/eclipse/paho.mqtt.golang"
)

type PublishedMessage struct {
	Topic    string
	Payload  string
	QoS      byte
	Retained bool
}

// MockMQTTClient records publishes and subscriptions. When Options is set,
// Connect runs its OnConnect handler like paho does.
type MockMQTTClient struct {
	ConnectError   error
	PublishError   error
	SubscribeError error
	Options        *mqtt.ClientOptions
	handlers       map[string]mqtt.MessageHandler
	published      []PublishedMessage
	disconnects    int
	mu             syncutil.Mutex
	connected      bool
}

func NewMockMQTTClient() *MockMQTTClient {
	return &MockMQTTClient{handlers: make(map[string]mqtt.MessageHandler)}
}

// Factory returns a client factory that hands out m and keeps the options
// it was built with.
func (m *MockMQTTClient) Factory() func(*mqtt.ClientOptions) mqtt.Client {
	return func(opts *mqtt.ClientOptions) mqtt.Client {
		m.mu.Lock()
		m.Options = opts
		m.mu.Unlock()
		return m
	}
}

func (m *MockMQTTClient) Published() []PublishedMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]PublishedMessage, len(m.published))
	copy(out, m.published)
	return out
}

// Topics lists published topics in order.
func (m *MockMQTTClient) Topics() []string {
	msgs := m.Published()
	out := make([]string, 0, len(msgs))
	for _, msg := range msgs {
		out = append(out, msg.Topic)
	}
	return out
}

func (m *MockMQTTClient) Handler(filter string) mqtt.MessageHandler {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.handlers[filter]
}

func (m *MockMQTTClient) Disconnects() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.disconnects
}

func (m *MockMQTTClient) IsConnected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connected
}

func (m *MockMQTTClient) IsConnectionOpen() bool {
	return m.IsConnected()
}

func (m *MockMQTTClient) Connect() mqtt.Token {
	m.mu.Lock()
	if m.ConnectError != nil {
		m.mu.Unlock()
		return &MockToken{Err: m.ConnectError}
	}
	m.connected = true
	opts := m.Options
	m.mu.Unlock()

	if opts != nil && opts.OnConnect != nil {
		opts.OnConnect(m)
	}
	return &MockToken{}
}

func (m *MockMQTTClient) Disconnect(_ uint) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.connected = false
	m.disconnects++
}

func (m *MockMQTTClient) Publish(topic string, qos byte, retained bool, payload any) mqtt.Token {
	if m.PublishError != nil {
		return &MockToken{Err: m.PublishError}
	}
	var body string
	switch p := payload.(type) {
	case []byte:
		body = string(p)
	case string:
		body = p
	}
	m.mu.Lock()
	m.published = append(m.published, PublishedMessage{
		Topic:    topic,
		Payload:  body,
		QoS:      qos,
		Retained: retained,
	})
	m.mu.Unlock()
	return &MockToken{}
}

func (m *MockMQTTClient) Subscribe(topic string, _ byte, callback mqtt.MessageHandler) mqtt.Token {
	if m.SubscribeError != nil {
		return &MockToken{Err: m.SubscribeError}
	}
	m.mu.Lock()
	m.handlers[topic] = callback
	m.mu.Unlock()
	return &MockToken{}
}

func (*MockMQTTClient) SubscribeMultiple(_ map[string]byte, _ mqtt.MessageHandler) mqtt.Token {
	return &MockToken{}
}

func (*MockMQTTClient) Unsubscribe(_ ...string) mqtt.Token {
	return &MockToken{}
}

func (*MockMQTTClient) AddRoute(_ string, _ mqtt.MessageHandler) {}

func (*MockMQTTClient) OptionsReader() mqtt.ClientOptionsReader {
	return mqtt.ClientOptionsReader{}
}

// MockToken is an already completed token.
type MockToken struct {
	Err error
}

func (*MockToken) Wait() bool {
	return true
}

func (*MockToken) WaitTimeout(_ time.Duration) bool {
	return true
}

func (*MockToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}

func (t *MockToken) Error() error {
	return t.Err
}

type MockMessage struct {
	TopicName string
	Body      []byte
}

func (*MockMessage) Duplicate() bool { return false }
func (*MockMessage) Qos() byte { return 1 }
func (*MockMessage) Retained() bool { return false }
func (m *MockMessage) Topic() string { return m.TopicName }
func (*MockMessage) MessageID() uint16 { return 1 }
func (m *MockMessage) Payload() []byte { return m.Body }
func (*MockMessage) Ack() {}
