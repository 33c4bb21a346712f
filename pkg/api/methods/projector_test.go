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

package methods

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/ZaparooProject/zaparoo-projector/pkg/api/models"
	"github.com/ZaparooProject/zaparoo-projector/pkg/device"
	"github.com/ZaparooProject/zaparoo-projector/pkg/monitor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockDevice struct {
	mock.Mock
	polled chan struct{}
}

func newMockDevice() *mockDevice {
	return &mockDevice{polled: make(chan struct{}, 1)}
}

func (m *mockDevice) PowerOn() error {
	return m.Called().Error(0)
}

func (m *mockDevice) PowerOff() error {
	return m.Called().Error(0)
}

func (m *mockDevice) PowerToggle() error {
	return m.Called().Error(0)
}

func (m *mockDevice) SetInput(n int) error {
	return m.Called(n).Error(0)
}

func (m *mockDevice) Poll(context.Context) {
	m.polled <- struct{}{}
}

func (m *mockDevice) Snapshot() device.Snapshot {
	args := m.Called()
	snap, _ := args.Get(0).(device.Snapshot)
	return snap
}

func (m *mockDevice) ListInputs() []device.InputPort {
	args := m.Called()
	ports, _ := args.Get(0).([]device.InputPort)
	return ports
}

func env(d Device, params string) RequestEnv {
	return RequestEnv{
		Context: context.Background(),
		Device:  d,
		Params:  json.RawMessage(params),
	}
}

func TestHandleStatus(t *testing.T) {
	t.Parallel()

	port := device.InputPort{Key: "HDMI", Kind: device.KindHDMI, Feedback: "HDMI", Value: 5}
	d := newMockDevice()
	d.On("Snapshot").Return(device.Snapshot{
		Input:        &port,
		Liveness:     monitor.StatusWarning,
		Capabilities: device.Capabilities{HasLamps: true},
		PowerState:   device.PowerOn,
		InputNumber:  2,
		LampHours:    1200,
		HasLampHours: true,
		PowerIsOn:    true,
		Connected:    true,
	})

	result, err := HandleStatus(env(d, ""))
	require.NoError(t, err)

	resp, ok := result.(models.StatusResponse)
	require.True(t, ok)
	assert.Equal(t, "on", resp.PowerState)
	assert.True(t, resp.PowerOn)
	assert.False(t, resp.Warming)
	assert.False(t, resp.Cooling)
	assert.Equal(t, "warning", resp.Link)
	assert.True(t, resp.Online)
	assert.True(t, resp.Connected)
	assert.True(t, resp.Capabilities.HasLamps)
	require.NotNil(t, resp.Input)
	assert.Equal(t, "HDMI", resp.Input.Key)
	assert.Equal(t, 2, resp.Input.Number)
	assert.True(t, resp.Input.Selected)
	require.NotNil(t, resp.LampHours)
	assert.Equal(t, 1200, *resp.LampHours)
}

func TestHandleStatus_Unknowns(t *testing.T) {
	t.Parallel()

	d := newMockDevice()
	d.On("Snapshot").Return(device.Snapshot{
		Liveness:   monitor.StatusOffline,
		PowerState: device.PowerWarmingUp,
	})

	result, err := HandleStatus(env(d, ""))
	require.NoError(t, err)

	resp, ok := result.(models.StatusResponse)
	require.True(t, ok)
	assert.Equal(t, "warmingUp", resp.PowerState)
	assert.True(t, resp.Warming)
	assert.False(t, resp.Online)
	assert.Nil(t, resp.Input)
	assert.Nil(t, resp.LampHours)
}

func TestHandleInputs(t *testing.T) {
	t.Parallel()

	d := newMockDevice()
	d.On("Snapshot").Return(device.Snapshot{InputNumber: 2})
	d.On("ListInputs").Return([]device.InputPort{
		{Key: "DVI", Kind: device.KindDVI, Feedback: "DVI", Value: 1},
		{Key: "HDMI", Kind: device.KindHDMI, Feedback: "HDMI", Value: 5},
	})

	result, err := HandleInputs(env(d, ""))
	require.NoError(t, err)

	resp, ok := result.(models.InputsResponse)
	require.True(t, ok)
	require.Len(t, resp.Inputs, 2)
	assert.Equal(t, "DVI", resp.Inputs[0].Key)
	assert.Equal(t, 1, resp.Inputs[0].Number)
	assert.False(t, resp.Inputs[0].Selected)
	assert.Equal(t, "hdmi", resp.Inputs[1].Kind)
	assert.True(t, resp.Inputs[1].Selected)
}

func TestHandlePower(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		params string
		method string
	}{
		{name: "on", params: `{"state":"on"}`, method: "PowerOn"},
		{name: "off", params: `{"state":"off"}`, method: "PowerOff"},
		{name: "toggle", params: `{"state":"toggle"}`, method: "PowerToggle"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			d := newMockDevice()
			d.On(tt.method).Return(nil).Once()

			result, err := HandlePower(env(d, tt.params))
			require.NoError(t, err)
			assert.Equal(t, models.ActionResponse{Status: "accepted"}, result)
			d.AssertExpectations(t)
		})
	}
}

func TestHandlePower_InvalidParams(t *testing.T) {
	t.Parallel()

	for _, params := range []string{"", `{}`, `{"state":"standby"}`, `not json`} {
		d := newMockDevice()
		_, err := HandlePower(env(d, params))
		require.Error(t, err, params)
		d.AssertNotCalled(t, "PowerOn")
		d.AssertNotCalled(t, "PowerOff")
	}
}

func TestHandlePower_DeviceError(t *testing.T) {
	t.Parallel()

	d := newMockDevice()
	d.On("PowerOn").Return(device.ErrStopped)

	_, err := HandlePower(env(d, `{"state":"on"}`))
	require.ErrorIs(t, err, device.ErrStopped)
}

func TestHandleInput(t *testing.T) {
	t.Parallel()

	d := newMockDevice()
	d.On("SetInput", 3).Return(nil).Once()

	result, err := HandleInput(env(d, `{"input":3}`))
	require.NoError(t, err)
	assert.Equal(t, models.ActionResponse{Status: "accepted"}, result)
	d.AssertExpectations(t)
}

func TestHandleInput_Errors(t *testing.T) {
	t.Parallel()

	d := newMockDevice()
	_, err := HandleInput(env(d, `{"input":0}`))
	require.Error(t, err)
	d.AssertNotCalled(t, "SetInput", mock.Anything)

	d.On("SetInput", 9).Return(device.ErrInputOutOfRange)
	_, err = HandleInput(env(d, `{"input":9}`))
	require.ErrorIs(t, err, device.ErrInputOutOfRange)
}

func TestHandlePoll(t *testing.T) {
	t.Parallel()

	d := newMockDevice()
	ctx, cancel := context.WithCancel(context.Background())
	e := env(d, "")
	e.Context = ctx
	cancel()

	result, err := HandlePoll(e)
	require.NoError(t, err)
	assert.Equal(t, models.ActionResponse{Status: "accepted"}, result)

	<-d.polled
}
