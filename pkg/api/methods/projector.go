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
	"fmt"

	"github.com/ZaparooProject/zaparoo-projector/pkg/api/models"
	"github.com/ZaparooProject/zaparoo-projector/pkg/api/validation"
	"github.com/ZaparooProject/zaparoo-projector/pkg/device"
	"github.com/rs/zerolog/log"
)

func inputResponse(port device.InputPort, number, current int) models.InputResponse {
	return models.InputResponse{
		Key:      port.Key,
		Kind:     string(port.Kind),
		Feedback: port.Feedback,
		Number:   number,
		Selected: number == current,
	}
}

func HandleStatus(env RequestEnv) (any, error) { //nolint:gocritic // single-use parameter in API handler
	snap := env.Device.Snapshot()

	resp := models.StatusResponse{
		PowerState: snap.PowerState.String(),
		PowerOn:    snap.PowerIsOn,
		Warming:    snap.PowerState == device.PowerWarmingUp,
		Cooling:    snap.PowerState == device.PowerCoolingDown,
		Link:       string(snap.Liveness),
		Online:     snap.Liveness.Online(),
		Connected:  snap.Connected,
		Pending:    snap.Pending,
		Capabilities: models.CapabilitiesParams{
			HasLamps:  snap.Capabilities.HasLamps,
			HasScreen: snap.Capabilities.HasScreen,
			HasLift:   snap.Capabilities.HasLift,
		},
		InputNumber: snap.InputNumber,
	}
	if snap.Input != nil {
		in := inputResponse(*snap.Input, snap.InputNumber, snap.InputNumber)
		resp.Input = &in
	}
	if snap.HasLampHours {
		hours := snap.LampHours
		resp.LampHours = &hours
	}
	return resp, nil
}

func HandleInputs(env RequestEnv) (any, error) { //nolint:gocritic // single-use parameter in API handler
	current := env.Device.Snapshot().InputNumber
	ports := env.Device.ListInputs()

	resp := models.InputsResponse{Inputs: make([]models.InputResponse, 0, len(ports))}
	for i, p := range ports {
		resp.Inputs = append(resp.Inputs, inputResponse(p, i+1, current))
	}
	return resp, nil
}

func HandlePower(env RequestEnv) (any, error) { //nolint:gocritic // single-use parameter in API handler
	var p models.PowerParams
	if err := validation.ValidateAndUnmarshal(env.Params, &p); err != nil {
		return nil, fmt.Errorf("invalid params: %w", err)
	}

	log.Info().Str("state", p.State).Msg("received power request")

	var err error
	switch p.State {
	case "on":
		err = env.Device.PowerOn()
	case "off":
		err = env.Device.PowerOff()
	case "toggle":
		err = env.Device.PowerToggle()
	}
	if err != nil {
		return nil, fmt.Errorf("power %s: %w", p.State, err)
	}
	return models.ActionResponse{Status: "accepted"}, nil
}

func HandleInput(env RequestEnv) (any, error) { //nolint:gocritic // single-use parameter in API handler
	var p models.InputParams
	if err := validation.ValidateAndUnmarshal(env.Params, &p); err != nil {
		return nil, fmt.Errorf("invalid params: %w", err)
	}

	log.Info().Int("input", p.Input).Msg("received input request")

	if err := env.Device.SetInput(p.Input); err != nil {
		return nil, fmt.Errorf("select input %d: %w", p.Input, err)
	}
	return models.ActionResponse{Status: "accepted"}, nil
}

// HandlePoll starts a status poll and returns without waiting for it.
func HandlePoll(env RequestEnv) (any, error) { //nolint:gocritic // single-use parameter in API handler
	log.Info().Msg("received poll request")
	go env.Device.Poll(context.WithoutCancel(env.Context))
	return models.ActionResponse{Status: "accepted"}, nil
}
