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
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPowerState_String(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "off", PowerOff.String())
	assert.Equal(t, "warmingUp", PowerWarmingUp.String())
	assert.Equal(t, "on", PowerOn.String())
	assert.Equal(t, "coolingDown", PowerCoolingDown.String())
	assert.Equal(t, "PowerState(9)", PowerState(9).String())
}

func TestParseFeedbackPolicy(t *testing.T) {
	t.Parallel()

	p, err := ParseFeedbackPolicy("")
	require.NoError(t, err)
	assert.Equal(t, PolicyIndependent, p)

	p, err = ParseFeedbackPolicy("reconcile")
	require.NoError(t, err)
	assert.Equal(t, PolicyReconcile, p)

	_, err = ParseFeedbackPolicy("optimistic")
	require.ErrorIs(t, err, ErrUnknownPolicy)
}

func TestPowerMachine_Request(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		from     PowerState
		want     PowerState
		on       bool
		wantSend bool
	}{
		{name: "on from off", from: PowerOff, on: true, want: PowerWarmingUp, wantSend: true},
		{name: "off from off", from: PowerOff, on: false, want: PowerOff, wantSend: true},
		{name: "off from on", from: PowerOn, on: false, want: PowerCoolingDown, wantSend: true},
		{name: "on from on", from: PowerOn, on: true, want: PowerOn, wantSend: true},
		{name: "on while warming", from: PowerWarmingUp, on: true, want: PowerWarmingUp},
		{name: "off while warming", from: PowerWarmingUp, on: false, want: PowerWarmingUp},
		{name: "on while cooling", from: PowerCoolingDown, on: true, want: PowerCoolingDown},
		{name: "off while cooling", from: PowerCoolingDown, on: false, want: PowerCoolingDown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			m := powerMachine{state: tt.from}
			r := m.request(tt.on)
			assert.Equal(t, tt.wantSend, r.send)
			assert.Equal(t, tt.from, r.from)
			assert.Equal(t, tt.want, r.to)
			assert.Equal(t, tt.want, m.state)
		})
	}
}

func TestPowerMachine_Expire(t *testing.T) {
	t.Parallel()

	m := powerMachine{state: PowerWarmingUp}
	from, changed := m.expire()
	assert.True(t, changed)
	assert.Equal(t, PowerWarmingUp, from)
	assert.Equal(t, PowerOn, m.state)

	_, changed = m.expire()
	assert.False(t, changed)
	assert.Equal(t, PowerOn, m.state)

	m.state = PowerCoolingDown
	_, changed = m.expire()
	assert.True(t, changed)
	assert.Equal(t, PowerOff, m.state)
}

func TestPowerMachine_Feedback(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		policy      FeedbackPolicy
		from        PowerState
		want        PowerState
		isOn        bool
		on          bool
		wantChanged bool
		wantState   bool
	}{
		{
			name: "independent on while off", policy: PolicyIndependent,
			from: PowerOff, on: true, want: PowerOff, wantChanged: true,
		},
		{
			name: "independent off while warming", policy: PolicyIndependent,
			from: PowerWarmingUp, on: false, isOn: true, want: PowerWarmingUp, wantChanged: true,
		},
		{
			name: "repeated feedback", policy: PolicyIndependent,
			from: PowerOn, on: true, isOn: true, want: PowerOn,
		},
		{
			name: "reconcile on while off", policy: PolicyReconcile,
			from: PowerOff, on: true, want: PowerOn, wantChanged: true, wantState: true,
		},
		{
			name: "reconcile off while on", policy: PolicyReconcile,
			from: PowerOn, on: false, isOn: true, want: PowerOff, wantChanged: true, wantState: true,
		},
		{
			name: "reconcile never interrupts warm-up", policy: PolicyReconcile,
			from: PowerWarmingUp, on: false, want: PowerWarmingUp,
		},
		{
			name: "reconcile never interrupts cool-down", policy: PolicyReconcile,
			from: PowerCoolingDown, on: true, isOn: true, want: PowerCoolingDown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			m := powerMachine{policy: tt.policy, state: tt.from, isOn: tt.isOn}
			changed, stateChanged := m.feedback(tt.on)
			assert.Equal(t, tt.wantChanged, changed)
			assert.Equal(t, tt.wantState, stateChanged)
			assert.Equal(t, tt.want, m.state)
			assert.Equal(t, tt.on, m.isOn)
		})
	}
}

func TestPowerMachine_Ready(t *testing.T) {
	t.Parallel()

	assert.False(t, (&powerMachine{state: PowerOff}).ready())
	assert.False(t, (&powerMachine{state: PowerOff, isOn: true}).ready())
	assert.False(t, (&powerMachine{state: PowerWarmingUp, isOn: true}).ready())
	assert.True(t, (&powerMachine{state: PowerOn}).ready())
	assert.False(t, (&powerMachine{state: PowerCoolingDown}).ready())
}

func TestPowerMachine_WantsOff(t *testing.T) {
	t.Parallel()

	assert.True(t, (&powerMachine{state: PowerOn}).wantsOff())
	assert.False(t, (&powerMachine{state: PowerOff}).wantsOff())
	assert.False(t, (&powerMachine{state: PowerOff, isOn: true}).wantsOff())
}

func TestPendingSwitch(t *testing.T) {
	t.Parallel()

	var p pendingSwitch
	assert.False(t, p.live())
	_, _, ok := p.take()
	assert.False(t, ok)

	var ran []string
	first := func(context.Context) { ran = append(ran, "first") }
	second := func(context.Context) { ran = append(ran, "second") }

	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	assert.False(t, p.set(first, at))
	assert.True(t, p.set(second, at.Add(time.Second)))
	assert.True(t, p.live())

	action, registered, ok := p.take()
	require.True(t, ok)
	assert.Equal(t, at.Add(time.Second), registered)
	action(context.Background())
	assert.Equal(t, []string{"second"}, ran)

	_, _, ok = p.take()
	assert.False(t, ok, "pending action must run at most once")
}
