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

package config

import (
	"time"

	"github.com/ZaparooProject/zaparoo-projector/pkg/transport"
)

const (
	ConnectionSerial = "serial"
	ConnectionTCP    = "tcp"
)

type Connection struct {
	Type              string `toml:"type" validate:"omitempty,oneof=serial tcp"`
	Path              string `toml:"path,omitempty"`
	Address           string `toml:"address,omitempty" validate:"omitempty,hostname_port"`
	ReconnectInterval string `toml:"reconnect_interval,omitempty" validate:"duration"`
	BaudRate          int    `toml:"baud_rate,omitempty" validate:"omitempty,min=1200,max=115200"`
}

func (c *Instance) ConnectionType() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.vals.Connection.Type == "" {
		return ConnectionSerial
	}
	return c.vals.Connection.Type
}

func (c *Instance) SerialPath() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.Connection.Path
}

func (c *Instance) SetSerialPath(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vals.Connection.Type = ConnectionSerial
	c.vals.Connection.Path = path
}

func (c *Instance) BaudRate() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.vals.Connection.BaudRate == 0 {
		return transport.DefaultBaudRate
	}
	return c.vals.Connection.BaudRate
}

func (c *Instance) NetworkAddress() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.Connection.Address
}

func (c *Instance) ReconnectInterval() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return parseDuration(c.vals.Connection.ReconnectInterval, transport.DefaultReconnectInterval, time.Second)
}

// Dialer builds the transport dialer for the configured connection.
func (c *Instance) Dialer() transport.DialFunc {
	if c.ConnectionType() == ConnectionTCP {
		d := transport.TCPDialer{Address: c.NetworkAddress()}
		return d.Dial
	}
	d := transport.SerialDialer{
		Path:     c.SerialPath(),
		BaudRate: c.BaudRate(),
	}
	return d.Dial
}

// Endpoint describes the connection for logs.
func (c *Instance) Endpoint() string {
	if c.ConnectionType() == ConnectionTCP {
		return "tcp://" + c.NetworkAddress()
	}
	return "serial://" + c.SerialPath()
}
