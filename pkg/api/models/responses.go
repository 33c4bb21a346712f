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

type InputResponse struct {
	Key      string `json:"key"`
	Kind     string `json:"kind"`
	Feedback string `json:"feedback"`
	Number   int    `json:"number"`
	Selected bool   `json:"selected"`
}

type StatusResponse struct {
	LampHours    *int               `json:"lampHours"`
	Input        *InputResponse     `json:"input"`
	PowerState   string             `json:"powerState"`
	Link         string             `json:"link"`
	Capabilities CapabilitiesParams `json:"capabilities"`
	InputNumber  int                `json:"inputNumber"`
	PowerOn      bool               `json:"powerOn"`
	Warming      bool               `json:"warming"`
	Cooling      bool               `json:"cooling"`
	Online       bool               `json:"online"`
	Connected    bool               `json:"connected"`
	Pending      bool               `json:"pending"`
}

type InputsResponse struct {
	Inputs []InputResponse `json:"inputs"`
}

type ActionResponse struct {
	Status string `json:"status"`
}
