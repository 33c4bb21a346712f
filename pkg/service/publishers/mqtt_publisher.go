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

package publishers

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/ZaparooProject/zaparoo-projector/pkg/api/models"
	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const (
	connectTimeout    = 10 * time.Second
	publishTimeout    = 5 * time.Second
	disconnectQuiesce = 250
)

// ClientFactory builds the MQTT client. Tests replace it with a mock.
type ClientFactory func(opts *mqtt.ClientOptions) mqtt.Client

type MQTTOptions struct {
	NewClient ClientFactory
	// OnConnect runs after every successful (re)connect, e.g. to restore
	// subscriptions and republish retained state.
	OnConnect func(client mqtt.Client)
	Broker    string
	Topic     string
	ClientID  string
	Username  string
	Password  string
	Filter    []string
}

// MQTTPublisher mirrors device notifications onto retained MQTT topics,
// one per method: <topic>/<method>.
type MQTTPublisher struct {
	client mqtt.Client
	stopCh chan struct{}
	opts   MQTTOptions
	wg     sync.WaitGroup
	once   sync.Once
}

func NewMQTTPublisher(opts MQTTOptions) *MQTTPublisher {
	if opts.NewClient == nil {
		opts.NewClient = mqtt.NewClient
	}
	if opts.ClientID == "" {
		opts.ClientID = "zaparoo-projector-" + uuid.New().String()[:8]
	}
	opts.Topic = strings.TrimSuffix(opts.Topic, "/")
	return &MQTTPublisher{
		opts:   opts,
		stopCh: make(chan struct{}),
	}
}

func (p *MQTTPublisher) clientOptions() *mqtt.ClientOptions {
	opts := mqtt.NewClientOptions()
	broker := p.opts.Broker
	if !strings.Contains(broker, "://") {
		broker = "tcp://" + broker
	}
	opts.AddBroker(broker)
	opts.SetClientID(p.opts.ClientID)
	opts.SetUsername(p.opts.Username)
	opts.SetPassword(p.opts.Password)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectTimeout(connectTimeout)
	opts.SetWill(p.opts.Topic+"/"+models.NotificationDeviceOnline, `{"status":"unknown","online":false}`, 1, true)

	opts.SetOnConnectHandler(func(c mqtt.Client) {
		log.Info().Str("broker", p.opts.Broker).Msg("mqtt: connected")
		if p.opts.OnConnect != nil {
			p.opts.OnConnect(c)
		}
	})
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		log.Warn().Err(err).Msg("mqtt: connection lost")
	})
	return opts
}

// Start connects and forwards notifications until Stop or the channel
// closes.
func (p *MQTTPublisher) Start(notifications <-chan models.Notification) error {
	p.client = p.opts.NewClient(p.clientOptions())

	token := p.client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		log.Warn().Str("broker", p.opts.Broker).Msg("mqtt: still connecting, retrying in background")
	} else if err := token.Error(); err != nil {
		return fmt.Errorf("failed to connect to MQTT broker: %w", err)
	}

	p.wg.Add(1)
	go p.publishNotifications(notifications)
	return nil
}

func (p *MQTTPublisher) Client() mqtt.Client {
	return p.client
}

// Stop is safe to call more than once.
func (p *MQTTPublisher) Stop() {
	p.once.Do(func() {
		close(p.stopCh)
		p.wg.Wait()
		if p.client != nil && p.client.IsConnected() {
			log.Debug().Msg("mqtt: disconnecting")
			p.client.Disconnect(disconnectQuiesce)
		}
	})
}

func (p *MQTTPublisher) publishNotifications(notifications <-chan models.Notification) {
	defer p.wg.Done()

	for {
		select {
		case <-p.stopCh:
			return
		case n, ok := <-notifications:
			if !ok {
				log.Debug().Msg("mqtt: notification channel closed")
				return
			}
			if !p.matchesFilter(n.Method) {
				continue
			}
			p.publish(n)
		}
	}
}

func (p *MQTTPublisher) publish(n models.Notification) {
	payload, err := json.Marshal(n.Params)
	if err != nil {
		log.Error().Err(err).Str("method", n.Method).Msg("mqtt: failed to marshal notification")
		return
	}

	topic := p.opts.Topic + "/" + n.Method
	token := p.client.Publish(topic, 1, true, payload)
	if !token.WaitTimeout(publishTimeout) {
		log.Warn().Str("topic", topic).Msg("mqtt: publish timed out")
		return
	}
	if err := token.Error(); err != nil {
		log.Error().Err(err).Str("topic", topic).Msg("mqtt: failed to publish")
		return
	}
	log.Trace().Str("topic", topic).RawJSON("payload", payload).Msg("mqtt: published")
}

func (p *MQTTPublisher) matchesFilter(method string) bool {
	return len(p.opts.Filter) == 0 || slices.Contains(p.opts.Filter, method)
}
