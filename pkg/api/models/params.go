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

type OnlineParams struct {
	Status string `json:"status"`
	Online bool   `json:"online"`
}

type CapabilitiesParams struct {
	HasLamps  bool `json:"hasLamps"`
	HasScreen bool `json:"hasScreen"`
	HasLift   bool `json:"hasLift"`
}

type BoolParams struct {
	Value bool `json:"value"`
}

type PowerStateParams struct {
	State string `json:"state"`
}

type InputChangedParams struct {
	Key    string `json:"key"`
	Kind   string `json:"kind"`
	Number int    `json:"number"`
}

type InputSelectedParams struct {
	Input    int  `json:"input"`
	Selected bool `json:"selected"`
}

type InputNumberParams struct {
	Input int `json:"input"`
}

type LampHoursParams struct {
	Hours int `json:"hours"`
}

type PowerParams struct {
	State string `json:"state" validate:"required,oneof=on off toggle"`
}

type InputParams struct {
	Input int `json:"input" validate:"required,min=1"`
}
