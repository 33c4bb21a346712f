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

// Package cli holds the flag handling shared by the projector binaries:
// one-shot commands against a running service and the service setup.
package cli

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/ZaparooProject/zaparoo-projector/pkg/api/client"
	"github.com/ZaparooProject/zaparoo-projector/pkg/api/models"
	"github.com/ZaparooProject/zaparoo-projector/pkg/config"
	"github.com/ZaparooProject/zaparoo-projector/pkg/helpers"
	"github.com/rs/zerolog/log"
)

var ErrFlagValue = errors.New("invalid flag value")

type Flags struct {
	API       *string
	Power     *string
	Input     *int
	Simulate  *string
	Status    *bool
	Inputs    *bool
	Poll      *bool
	ListPorts *bool
	Version   *bool
	Daemon    *bool
	Debug     *bool
	set       *flag.FlagSet
}

// SetupFlags defines the common flags on the default flag set.
func SetupFlags() *Flags {
	return NewFlags(flag.CommandLine)
}

func NewFlags(fs *flag.FlagSet) *Flags {
	return &Flags{
		set: fs,
		API: fs.String(
			"api",
			"",
			"send method and params to API and print response",
		),
		Power: fs.String(
			"power",
			"",
			"switch projector power: on, off or toggle",
		),
		Input: fs.Int(
			"input",
			0,
			"select input by number (see -list-inputs)",
		),
		Simulate: fs.String(
			"simulate",
			"",
			"run a simulated projector on this address and connect to it",
		),
		Status: fs.Bool(
			"status",
			false,
			"print projector status",
		),
		Inputs: fs.Bool(
			"list-inputs",
			false,
			"list configured inputs",
		),
		Poll: fs.Bool(
			"poll",
			false,
			"ask the service to query the projector now",
		),
		ListPorts: fs.Bool(
			"list-ports",
			false,
			"list serial ports and exit",
		),
		Version: fs.Bool(
			"version",
			false,
			"print version and exit",
		),
		Daemon: fs.Bool(
			"daemon",
			false,
			"log to stderr as well as the log file",
		),
		Debug: fs.Bool(
			"debug",
			false,
			"enable debug logging",
		),
	}
}

func (f *Flags) isFlagPassed(name string) bool {
	found := false
	f.set.Visit(func(fl *flag.Flag) {
		if fl.Name == name {
			found = true
		}
	})
	return found
}

// Pre actions the flags that need neither config nor logging. It returns
// true when the process should exit.
func (f *Flags) Pre(out io.Writer) (bool, error) {
	switch {
	case *f.Version:
		_, _ = fmt.Fprintf(out, "Zaparoo Projector v%s\n", config.AppVersion)
		return true, nil
	case *f.ListPorts:
		ports, err := helpers.GetSerialDeviceList()
		if err != nil {
			return true, fmt.Errorf("listing serial ports: %w", err)
		}
		if len(ports) == 0 {
			_, _ = fmt.Fprintln(out, "No serial ports found")
		}
		for _, p := range ports {
			_, _ = fmt.Fprintln(out, p)
		}
		return true, nil
	}
	return false, nil
}

// Post actions the flags that talk to a running service. It returns true
// when one was handled and the process should exit.
func (f *Flags) Post(ctx context.Context, c client.APIClient, out io.Writer) (bool, error) {
	switch {
	case f.isFlagPassed("api"):
		if *f.API == "" {
			return true, fmt.Errorf("%w: api flag requires a value", ErrFlagValue)
		}
		method, params, _ := strings.Cut(*f.API, ":")
		resp, err := c.Call(ctx, method, params)
		if err != nil {
			return true, fmt.Errorf("calling API: %w", err)
		}
		_, _ = fmt.Fprintln(out, resp)
		return true, nil
	case f.isFlagPassed("power"):
		return true, power(ctx, c, *f.Power)
	case f.isFlagPassed("input"):
		return true, selectInput(ctx, c, *f.Input)
	case *f.Status:
		return true, printStatus(ctx, c, out)
	case *f.Inputs:
		return true, printInputs(ctx, c, out)
	case *f.Poll:
		if _, err := c.Call(ctx, models.MethodPoll, ""); err != nil {
			return true, fmt.Errorf("requesting poll: %w", err)
		}
		return true, nil
	}
	return false, nil
}

func power(ctx context.Context, c client.APIClient, state string) error {
	switch state {
	case "on", "off", "toggle":
	default:
		return fmt.Errorf("%w: power must be on, off or toggle, got %q", ErrFlagValue, state)
	}
	params, err := json.Marshal(models.PowerParams{State: state})
	if err != nil {
		return fmt.Errorf("encoding params: %w", err)
	}
	if _, err := c.Call(ctx, models.MethodPower, string(params)); err != nil {
		log.Error().Err(err).Msg("error sending power command")
		return fmt.Errorf("sending power command: %w", err)
	}
	return nil
}

func selectInput(ctx context.Context, c client.APIClient, n int) error {
	if n < 1 {
		return fmt.Errorf("%w: input numbers start at 1", ErrFlagValue)
	}
	params, err := json.Marshal(models.InputParams{Input: n})
	if err != nil {
		return fmt.Errorf("encoding params: %w", err)
	}
	if _, err := c.Call(ctx, models.MethodInput, string(params)); err != nil {
		log.Error().Err(err).Msg("error selecting input")
		return fmt.Errorf("selecting input: %w", err)
	}
	return nil
}

func printStatus(ctx context.Context, c client.APIClient, out io.Writer) error {
	resp, err := c.Call(ctx, models.MethodStatus, "")
	if err != nil {
		return fmt.Errorf("reading status: %w", err)
	}
	var status models.StatusResponse
	if err := json.Unmarshal([]byte(resp), &status); err != nil {
		return fmt.Errorf("decoding status: %w", err)
	}
	_, _ = io.WriteString(out, FormatStatus(&status))
	return nil
}

func printInputs(ctx context.Context, c client.APIClient, out io.Writer) error {
	resp, err := c.Call(ctx, models.MethodInputs, "")
	if err != nil {
		return fmt.Errorf("reading inputs: %w", err)
	}
	var inputs models.InputsResponse
	if err := json.Unmarshal([]byte(resp), &inputs); err != nil {
		return fmt.Errorf("decoding inputs: %w", err)
	}
	_, _ = io.WriteString(out, FormatInputs(&inputs))
	return nil
}

// FormatStatus renders a status response for a terminal.
func FormatStatus(s *models.StatusResponse) string {
	var b strings.Builder

	power := s.PowerState
	if s.PowerOn {
		power += " (device reports on)"
	}
	if s.Pending {
		power += ", input switch pending"
	}
	fmt.Fprintf(&b, "Power:  %s\n", power)

	if s.Input != nil {
		fmt.Fprintf(&b, "Input:  %d %s (%s)\n", s.Input.Number, s.Input.Key, s.Input.Kind)
	} else {
		b.WriteString("Input:  unknown\n")
	}

	fmt.Fprintf(&b, "Link:   %s, liveness %s\n", connectedText(s.Connected), s.Link)

	if s.LampHours != nil {
		fmt.Fprintf(&b, "Lamp:   %d hours\n", *s.LampHours)
	}
	return b.String()
}

func connectedText(connected bool) string {
	if connected {
		return "connected"
	}
	return "disconnected"
}

// FormatInputs renders the input table, marking the selected port.
func FormatInputs(r *models.InputsResponse) string {
	var b strings.Builder
	for _, in := range r.Inputs {
		mark := " "
		if in.Selected {
			mark = "*"
		}
		fmt.Fprintf(&b, "%s %d  %-12s %-12s %s\n", mark, in.Number, in.Key, in.Kind, in.Feedback)
	}
	return b.String()
}
