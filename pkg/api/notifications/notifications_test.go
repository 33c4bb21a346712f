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

package notifications

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/ZaparooProject/zaparoo-projector/pkg/api/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestSendNotification_NonBlocking verifies senders never block on a full
// channel, which would freeze the dispatch queue.
func TestSendNotification_NonBlocking(t *testing.T) {
	t.Parallel()

	ns := make(chan models.Notification)

	done := make(chan struct{})
	go func() {
		PowerOn(ns, true)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(100 * time.Millisecond):
		t.Fatal("sendNotification blocked on full channel")
	}
}

func TestSendNotification_Payloads(t *testing.T) {
	t.Parallel()

	tests := []struct {
		send   func(chan<- models.Notification)
		name   string
		method string
		params string
	}{
		{
			name:   "online",
			send:   func(ns chan<- models.Notification) { DeviceOnline(ns, true, "ok") },
			method: models.NotificationDeviceOnline,
			params: `{"status":"ok","online":true}`,
		},
		{
			name: "capabilities",
			send: func(ns chan<- models.Notification) {
				DeviceCapabilities(ns, models.CapabilitiesParams{HasLamps: true})
			},
			method: models.NotificationDeviceCapabilities,
			params: `{"hasLamps":true,"hasScreen":false,"hasLift":false}`,
		},
		{
			name:   "warming",
			send:   func(ns chan<- models.Notification) { PowerWarming(ns, true) },
			method: models.NotificationPowerWarming,
			params: `{"value":true}`,
		},
		{
			name:   "cooling",
			send:   func(ns chan<- models.Notification) { PowerCooling(ns, false) },
			method: models.NotificationPowerCooling,
			params: `{"value":false}`,
		},
		{
			name:   "power state",
			send:   func(ns chan<- models.Notification) { PowerState(ns, "warmingUp") },
			method: models.NotificationPowerState,
			params: `{"state":"warmingUp"}`,
		},
		{
			name: "input changed",
			send: func(ns chan<- models.Notification) {
				InputChanged(ns, models.InputChangedParams{Key: "hdmiIn2", Kind: "hdmi", Number: 2})
			},
			method: models.NotificationInputChanged,
			params: `{"key":"hdmiIn2","kind":"hdmi","number":2}`,
		},
		{
			name:   "input selected",
			send:   func(ns chan<- models.Notification) { InputSelected(ns, 3, true) },
			method: models.NotificationInputSelected,
			params: `{"input":3,"selected":true}`,
		},
		{
			name:   "input number",
			send:   func(ns chan<- models.Notification) { InputNumber(ns, 4) },
			method: models.NotificationInputNumber,
			params: `{"input":4}`,
		},
		{
			name:   "lamp hours",
			send:   func(ns chan<- models.Notification) { LampHours(ns, 1520) },
			method: models.NotificationLampHours,
			params: `{"hours":1520}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ns := make(chan models.Notification, 1)
			tt.send(ns)

			require.Len(t, ns, 1)
			n := <-ns
			assert.Equal(t, tt.method, n.Method)
			assert.JSONEq(t, tt.params, string(n.Params))
			assert.True(t, json.Valid(n.Params))
		})
	}
}
