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
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/ZaparooProject/zaparoo-projector/pkg/device"
	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog/log"
)

var (
	ErrUnknownCommand = errors.New("unknown command")
	ErrInvalidPayload = errors.New("invalid command payload")
)

// Commander is the part of the device controller reachable over MQTT.
type Commander interface {
	PowerOn() error
	PowerOff() error
	PowerToggle() error
	SetInput(n int) error
	Poll(ctx context.Context)
}

var _ Commander = (*device.Controller)(nil)

// MQTTCommands turns messages on <topic>/set/<command> into controller
// calls:
//
//	<topic>/set/power  on | off | toggle
//	<topic>/set/input  1..N
//	<topic>/set/poll   (any payload)
type MQTTCommands struct {
	ctx    context.Context
	device Commander
	topic  string
}

func NewMQTTCommands(ctx context.Context, topic string, d Commander) *MQTTCommands {
	return &MQTTCommands{
		ctx:    ctx,
		device: d,
		topic:  strings.TrimSuffix(topic, "/"),
	}
}

func (c *MQTTCommands) Filter() string {
	return c.topic + "/set/#"
}

// Subscribe registers the command handler. Call it from the publisher's
// OnConnect hook so it survives reconnects.
func (c *MQTTCommands) Subscribe(client mqtt.Client) error {
	token := client.Subscribe(c.Filter(), 1, c.handleMessage)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("subscribe to %s: timed out", c.Filter())
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("subscribe to %s: %w", c.Filter(), err)
	}
	log.Info().Str("topic", c.Filter()).Msg("mqtt: listening for commands")
	return nil
}

func (c *MQTTCommands) handleMessage(_ mqtt.Client, msg mqtt.Message) {
	command := strings.TrimPrefix(msg.Topic(), c.topic+"/set/")
	payload := string(msg.Payload())
	if err := c.Dispatch(command, payload); err != nil {
		log.Warn().Err(err).Str("topic", msg.Topic()).Str("payload", payload).Msg("mqtt: command rejected")
	}
}

// Dispatch runs one command.
func (c *MQTTCommands) Dispatch(command, payload string) error {
	payload = strings.ToLower(strings.TrimSpace(payload))

	switch command {
	case "power":
		switch payload {
		case "on", "1", "true":
			return c.device.PowerOn()
		case "off", "0", "false":
			return c.device.PowerOff()
		case "toggle":
			return c.device.PowerToggle()
		default:
			return fmt.Errorf("%w: power %q", ErrInvalidPayload, payload)
		}
	case "input":
		n, err := strconv.Atoi(payload)
		if err != nil {
			return fmt.Errorf("%w: input %q", ErrInvalidPayload, payload)
		}
		return c.device.SetInput(n)
	case "poll":
		go c.device.Poll(c.ctx)
		return nil
	default:
		return fmt.Errorf("%w: %s", ErrUnknownCommand, command)
	}
}
