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

	"github.com/ZaparooProject/zaparoo-projector/pkg/device"
	"github.com/ZaparooProject/zaparoo-projector/pkg/monitor"
	"github.com/ZaparooProject/zaparoo-projector/pkg/protocol"
	"github.com/rs/zerolog/log"
)

// Timing holds Go duration strings such as "30s" or "2m".
type Timing struct {
	Warmup       string `toml:"warmup,omitempty" validate:"duration"`
	Cooldown     string `toml:"cooldown,omitempty" validate:"duration"`
	Settle       string `toml:"settle,omitempty" validate:"duration"`
	PollInterval string `toml:"poll_interval,omitempty" validate:"duration"`
	WarningAfter string `toml:"warning_after,omitempty" validate:"duration"`
	OfflineAfter string `toml:"offline_after,omitempty" validate:"duration"`
}

// parseDuration returns def for an empty or unparsable value and floor for
// anything shorter than floor.
func parseDuration(s string, def, floor time.Duration) time.Duration {
	if s == "" {
		return def
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		log.Warn().Str("value", s).Msg("invalid duration in config, using default")
		return def
	}
	if d < floor {
		return floor
	}
	return d
}

func (c *Instance) WarmupTime() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return parseDuration(c.vals.Timing.Warmup, device.DefaultTransitionTime, device.MinTransitionTime)
}

func (c *Instance) CooldownTime() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return parseDuration(c.vals.Timing.Cooldown, device.DefaultTransitionTime, device.MinTransitionTime)
}

func (c *Instance) SettleDelay() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return parseDuration(c.vals.Timing.Settle, device.DefaultSettleDelay, 100*time.Millisecond)
}

// LivenessTimings returns the poll interval and the warning and offline
// thresholds, normalised so they always fire in that order.
func (c *Instance) LivenessTimings() (interval, warning, offline time.Duration) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return monitor.Normalize(
		parseDuration(c.vals.Timing.PollInterval, monitor.MinPollInterval, monitor.MinPollInterval),
		parseDuration(c.vals.Timing.WarningAfter, monitor.DefaultWarningTimeout, 0),
		parseDuration(c.vals.Timing.OfflineAfter, monitor.DefaultErrorTimeout, 0),
	)
}

func (c *Instance) SetTiming(t Timing) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vals.Timing = t
}

// DeviceOptions collects everything the controller needs from the config.
func (c *Instance) DeviceOptions() device.Options {
	interval, warning, offline := c.LivenessTimings()
	return device.Options{
		Name:         c.DeviceName(),
		PowerToken:   c.PowerToken(),
		Delimiter:    c.Delimiter(),
		Policy:       c.FeedbackPolicy(),
		Encoder:      protocol.Encoder{QueryMarker: c.QueryMarker()},
		Capabilities: c.Capabilities(),
		WarmupTime:   c.WarmupTime(),
		CooldownTime: c.CooldownTime(),
		SettleDelay:  c.SettleDelay(),
		PollInterval: interval,
		WarningAfter: warning,
		OfflineAfter: offline,
	}
}
