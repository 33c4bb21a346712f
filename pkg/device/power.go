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

package device

import (
	"errors"
	"fmt"
)

type PowerState int

const (
	PowerOff PowerState = iota
	PowerWarmingUp
	PowerOn
	PowerCoolingDown
)

func (s PowerState) String() string {
	switch s {
	case PowerOff:
		return "off"
	case PowerWarmingUp:
		return "warmingUp"
	case PowerOn:
		return "on"
	case PowerCoolingDown:
		return "coolingDown"
	default:
		return fmt.Sprintf("PowerState(%d)", int(s))
	}
}

func (s PowerState) Transitioning() bool {
	return s == PowerWarmingUp || s == PowerCoolingDown
}

// FeedbackPolicy decides how confirmed power feedback interacts with the
// power state.
type FeedbackPolicy string

const (
	// PolicyIndependent only updates the confirmed on/off flag.
	PolicyIndependent FeedbackPolicy = "independent"
	// PolicyReconcile also moves Off/On to match the device when no
	// warm-up or cool-down is running, e.g. after an IR remote press.
	PolicyReconcile FeedbackPolicy = "reconcile"
)

var ErrUnknownPolicy = errors.New("unknown power feedback policy")

func ParseFeedbackPolicy(s string) (FeedbackPolicy, error) {
	switch FeedbackPolicy(s) {
	case "", PolicyIndependent:
		return PolicyIndependent, nil
	case PolicyReconcile:
		return PolicyReconcile, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownPolicy, s)
	}
}

// powerMachine holds the power state and the confirmed on/off projection.
// It is only touched from the dispatch queue.
type powerMachine struct {
	policy FeedbackPolicy
	state  PowerState
	isOn   bool
}

type powerRequest struct {
	from PowerState
	to   PowerState
	// send is false when the request is swallowed by a running transition.
	send bool
}

func (r powerRequest) changed() bool {
	return r.from != r.to
}

// request applies an issued power command. A command while warming or
// cooling is ignored entirely; a command matching the settled state is
// sent without a transition.
func (m *powerMachine) request(on bool) powerRequest {
	r := powerRequest{from: m.state, to: m.state}
	switch m.state {
	case PowerWarmingUp, PowerCoolingDown:
		return r
	case PowerOff:
		if on {
			m.state = PowerWarmingUp
		}
	case PowerOn:
		if !on {
			m.state = PowerCoolingDown
		}
	}
	r.to = m.state
	r.send = true
	return r
}

// expire completes a warm-up or cool-down. It reports the prior state and
// whether anything changed.
func (m *powerMachine) expire() (PowerState, bool) {
	from := m.state
	switch m.state {
	case PowerWarmingUp:
		m.state = PowerOn
	case PowerCoolingDown:
		m.state = PowerOff
	default:
		return from, false
	}
	return from, true
}

// feedback records a confirmed power response. It never interrupts a
// running transition.
func (m *powerMachine) feedback(on bool) (onChanged, stateChanged bool) {
	onChanged = m.isOn != on
	m.isOn = on

	if m.policy != PolicyReconcile {
		return onChanged, false
	}
	switch {
	case on && m.state == PowerOff:
		m.state = PowerOn
		return onChanged, true
	case !on && m.state == PowerOn:
		m.state = PowerOff
		return onChanged, true
	default:
		return onChanged, false
	}
}

// ready reports whether an input switch can go out right away. Only the
// power state counts; the confirmed flag outlives a cool-down.
func (m *powerMachine) ready() bool {
	return m.state == PowerOn
}

// wantsOff decides the direction of a toggle.
func (m *powerMachine) wantsOff() bool {
	return m.state == PowerOn
}
