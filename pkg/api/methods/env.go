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

	"github.com/ZaparooProject/zaparoo-projector/pkg/device"
)

// Device is the controller surface the API drives.
type Device interface {
	PowerOn() error
	PowerOff() error
	PowerToggle() error
	SetInput(n int) error
	Poll(ctx context.Context)
	Snapshot() device.Snapshot
	ListInputs() []device.InputPort
}

var _ Device = (*device.Controller)(nil)

// RequestEnv carries everything a method handler needs, whichever
// transport the request arrived on.
type RequestEnv struct {
	Context context.Context
	Device  Device
	Params  json.RawMessage
}

type NoContent struct{}
