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
	"fmt"
	"strings"

	"github.com/ZaparooProject/zaparoo-projector/pkg/device"
	"github.com/ZaparooProject/zaparoo-projector/pkg/protocol"
)

// G60QueryMarker is what G60 firmware expects after a query token.
const G60QueryMarker = "?"

type Device struct {
	QueryMarker    *string      `toml:"query_marker,omitempty"`
	Name           string       `toml:"name,omitempty"`
	PowerToken     string       `toml:"power_token,omitempty" validate:"powertoken"`
	FeedbackPolicy string       `toml:"power_feedback_policy,omitempty" validate:"omitempty,oneof=independent reconcile"`
	Delimiter      string       `toml:"delimiter,omitempty" validate:"delimiter"`
	Capabilities   Capabilities `toml:"capabilities,omitempty"`
}

type Capabilities struct {
	HasLamps  *bool `toml:"has_lamps,omitempty"`
	HasScreen bool  `toml:"has_screen"`
	HasLift   bool  `toml:"has_lift"`
}

type Input struct {
	Key      string `toml:"key" validate:"required"`
	Kind     string `toml:"kind" validate:"required"`
	Feedback string `toml:"feedback,omitempty"`
	Value    int    `toml:"value" validate:"min=0"`
}

func (c *Instance) DeviceName() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.vals.Device.Name == "" {
		return "projector"
	}
	return c.vals.Device.Name
}

func (c *Instance) PowerToken() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.vals.Device.PowerToken == "" {
		return protocol.TokenPower
	}
	return c.vals.Device.PowerToken
}

func (c *Instance) FeedbackPolicy() device.FeedbackPolicy {
	c.mu.RLock()
	defer c.mu.RUnlock()
	policy, err := device.ParseFeedbackPolicy(c.vals.Device.FeedbackPolicy)
	if err != nil {
		return device.PolicyIndependent
	}
	return policy
}

func (c *Instance) SetFeedbackPolicy(policy device.FeedbackPolicy) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vals.Device.FeedbackPolicy = string(policy)
}

// QueryMarker is appended to query tokens. Unset means the G60 default.
func (c *Instance) QueryMarker() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.vals.Device.QueryMarker == nil {
		return G60QueryMarker
	}
	return *c.vals.Device.QueryMarker
}

// Delimiter returns the literal frame delimiter. The config accepts the
// names bracket, crlf, cr and lf as well as a literal string.
func (c *Instance) Delimiter() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return resolveDelimiter(c.vals.Device.Delimiter)
}

func resolveDelimiter(name string) string {
	switch strings.ToLower(name) {
	case "", "bracket":
		return protocol.DelimiterBracket
	case "crlf":
		return protocol.DelimiterCRLF
	case "cr":
		return "\r"
	case "lf":
		return "\n"
	default:
		return name
	}
}

// Capabilities defaults to a lamp projector with no screen or lift.
func (c *Instance) Capabilities() device.Capabilities {
	c.mu.RLock()
	defer c.mu.RUnlock()
	caps := c.vals.Device.Capabilities
	hasLamps := caps.HasLamps == nil || *caps.HasLamps
	return device.Capabilities{
		HasLamps:  hasLamps,
		HasScreen: caps.HasScreen,
		HasLift:   caps.HasLift,
	}
}

// Inputs returns the configured input table, or the built-in G60 table when
// none is configured.
func (c *Instance) Inputs() []device.InputPort {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ports, err := buildInputs(c.vals.Inputs)
	if err != nil {
		// rejected on load
		return device.DefaultInputs()
	}
	return ports
}

func buildInputs(inputs []Input) ([]device.InputPort, error) {
	if len(inputs) == 0 {
		return device.DefaultInputs(), nil
	}
	ports := make([]device.InputPort, 0, len(inputs))
	for _, in := range inputs {
		feedback := in.Feedback
		if feedback == "" {
			// G60 reports the selected source as its two digit number
			feedback = fmt.Sprintf("%02d", in.Value)
		}
		ports = append(ports, device.InputPort{
			Key:      in.Key,
			Kind:     device.ConnectionKind(strings.ToLower(in.Kind)),
			Feedback: feedback,
			Value:    in.Value,
		})
	}
	if _, err := device.NewInputRegistry(ports); err != nil {
		return nil, err //nolint:wrapcheck // caller wraps
	}
	return ports, nil
}
