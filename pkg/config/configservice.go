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
	"github.com/ZaparooProject/zaparoo-projector/pkg/api"
	"github.com/ZaparooProject/zaparoo-projector/pkg/api/middleware"
)

type Service struct {
	APIPort           *int       `toml:"api_port,omitempty" validate:"omitempty,min=1,max=65535"`
	DeviceID          string     `toml:"device_id"`
	ErrorReportingDSN string     `toml:"error_reporting_dsn,omitempty" validate:"omitempty,url"`
	AllowedIPs        []string   `toml:"allowed_ips,omitempty"`
	RateLimit         RateLimit  `toml:"rate_limit,omitempty"`
	Discovery         Discovery  `toml:"discovery,omitempty"`
	Publishers        Publishers `toml:"publishers,omitempty"`
}

type Discovery struct {
	Enabled      *bool  `toml:"enabled,omitempty"`
	InstanceName string `toml:"instance_name,omitempty"`
}

type RateLimit struct {
	RequestsPerMinute int `toml:"requests_per_minute,omitempty" validate:"min=0"`
	Burst             int `toml:"burst,omitempty" validate:"min=0"`
}

type Publishers struct {
	MQTT []MQTTPublisher `toml:"mqtt,omitempty" validate:"dive"`
}

type MQTTPublisher struct {
	Enabled  *bool    `toml:"enabled,omitempty"`
	Commands *bool    `toml:"commands,omitempty"`
	Broker   string   `toml:"broker" validate:"required"`
	Topic    string   `toml:"topic" validate:"required"`
	Username string   `toml:"username,omitempty"`
	Password string   `toml:"password,omitempty"`
	Filter   []string `toml:"filter,omitempty,multiline"`
}

// IsEnabled defaults to true when unset.
func (p MQTTPublisher) IsEnabled() bool {
	return p.Enabled == nil || *p.Enabled
}

// AcceptsCommands reports whether the set topics are subscribed. Defaults
// to true when unset.
func (p MQTTPublisher) AcceptsCommands() bool {
	return p.Commands == nil || *p.Commands
}

func (c *Instance) APIPort() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.vals.Service.APIPort == nil {
		return api.DefaultPort
	}
	return *c.vals.Service.APIPort
}

func (c *Instance) SetAPIPort(port int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vals.Service.APIPort = &port
}

func (c *Instance) AllowedIPs() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]string(nil), c.vals.Service.AllowedIPs...)
}

func (c *Instance) DeviceID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.Service.DeviceID
}

func (c *Instance) RateLimit() (perMinute, burst int) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	perMinute = c.vals.Service.RateLimit.RequestsPerMinute
	if perMinute == 0 {
		perMinute = middleware.DefaultRequestsPerMinute
	}
	burst = c.vals.Service.RateLimit.Burst
	if burst == 0 {
		burst = middleware.DefaultBurstSize
	}
	return perMinute, burst
}

// MQTTPublishers returns the enabled publishers.
func (c *Instance) MQTTPublishers() []MQTTPublisher {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]MQTTPublisher, 0, len(c.vals.Service.Publishers.MQTT))
	for _, p := range c.vals.Service.Publishers.MQTT {
		if p.IsEnabled() {
			out = append(out, p)
		}
	}
	return out
}

func (c *Instance) SetMQTTPublishers(pubs []MQTTPublisher) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vals.Service.Publishers.MQTT = pubs
}

// DiscoveryEnabled defaults to true when unset.
func (c *Instance) DiscoveryEnabled() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.Service.Discovery.Enabled == nil || *c.vals.Service.Discovery.Enabled
}

func (c *Instance) SetDiscoveryEnabled(enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vals.Service.Discovery.Enabled = &enabled
}

func (c *Instance) DiscoveryInstanceName() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.Service.Discovery.InstanceName
}

// ErrorReportingDSN is empty unless the user opted in.
func (c *Instance) ErrorReportingDSN() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.Service.ErrorReportingDSN
}
