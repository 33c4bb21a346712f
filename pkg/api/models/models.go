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

package models

import (
	"encoding/json"

	"github.com/google/uuid"
)

const (
	NotificationDeviceOnline       = "device.online"
	NotificationDeviceCapabilities = "device.capabilities"
	NotificationPowerOn            = "power.on"
	NotificationPowerWarming       = "power.warming"
	NotificationPowerCooling       = "power.cooling"
	NotificationPowerState         = "power.state"
	NotificationInputChanged       = "input.changed"
	NotificationInputSelected      = "input.selected"
	NotificationInputNumber        = "input.number"
	NotificationLampHours          = "lamp.hours"
)

// AllNotifications lists every method the driver publishes, in the order
// a full state refresh sends them.
var AllNotifications = []string{
	NotificationDeviceOnline,
	NotificationDeviceCapabilities,
	NotificationPowerOn,
	NotificationPowerWarming,
	NotificationPowerCooling,
	NotificationPowerState,
	NotificationInputChanged,
	NotificationInputSelected,
	NotificationInputNumber,
	NotificationLampHours,
}

const (
	MethodStatus = "status"
	MethodInputs = "inputs"
	MethodPower  = "power"
	MethodInput  = "input"
	MethodPoll   = "poll"
)

type Notification struct {
	Method string
	Params json.RawMessage
}

// RequestObject is the JSON-RPC 2.0 envelope used to push notifications to
// WebSocket clients.
type RequestObject struct {
	ID      *uuid.UUID      `json:"id,omitempty"`
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

type ResponseObject struct {
	Result  any          `json:"result"`
	Error   *ErrorObject `json:"error,omitempty"`
	JSONRPC string       `json:"jsonrpc"`
	ID      uuid.UUID    `json:"id"`
}

type ErrorObject struct {
	Message string `json:"message"`
	Code    int    `json:"code"`
}
