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

package cli

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"io"
	"testing"

	"github.com/ZaparooProject/zaparoo-projector/pkg/api/models"
	"github.com/ZaparooProject/zaparoo-projector/pkg/config"
	"github.com/ZaparooProject/zaparoo-projector/pkg/testing/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func parseFlags(t *testing.T, args ...string) *Flags {
	t.Helper()
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	f := NewFlags(fs)
	require.NoError(t, fs.Parse(args))
	return f
}

func TestPreVersion(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	handled, err := parseFlags(t, "-version").Pre(&out)
	require.NoError(t, err)
	assert.True(t, handled)
	assert.Contains(t, out.String(), config.AppVersion)
}

func TestPreNothing(t *testing.T) {
	t.Parallel()

	handled, err := parseFlags(t, "-debug").Pre(io.Discard)
	require.NoError(t, err)
	assert.False(t, handled)
}

func TestPostNothing(t *testing.T) {
	t.Parallel()

	c := mocks.NewMockAPIClient()
	handled, err := parseFlags(t).Post(context.Background(), c, io.Discard)
	require.NoError(t, err)
	assert.False(t, handled)
	c.AssertNotCalled(t, "Call", mock.Anything, mock.Anything, mock.Anything)
}

func TestPostPower(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		state   string
		wantErr bool
	}{
		{name: "on", state: "on"},
		{name: "off", state: "off"},
		{name: "toggle", state: "toggle"},
		{name: "invalid", state: "standby", wantErr: true},
		{name: "empty", state: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			c := mocks.NewMockAPIClient()
			if !tt.wantErr {
				c.SetupPowerAccepted(`{"state":"` + tt.state + `"}`)
			}

			handled, err := parseFlags(t, "-power", tt.state).Post(context.Background(), c, io.Discard)
			assert.True(t, handled)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrFlagValue)
				c.AssertNotCalled(t, "Call", mock.Anything, mock.Anything, mock.Anything)
				return
			}
			require.NoError(t, err)
			c.AssertExpectations(t)
		})
	}
}

func TestPostInput(t *testing.T) {
	t.Parallel()

	c := mocks.NewMockAPIClient()
	c.On("Call", mock.Anything, models.MethodInput, `{"input":3}`).Return("{}", nil)

	handled, err := parseFlags(t, "-input", "3").Post(context.Background(), c, io.Discard)
	require.NoError(t, err)
	assert.True(t, handled)
	c.AssertExpectations(t)
}

func TestPostInputZero(t *testing.T) {
	t.Parallel()

	c := mocks.NewMockAPIClient()
	handled, err := parseFlags(t, "-input", "0").Post(context.Background(), c, io.Discard)
	assert.True(t, handled)
	require.ErrorIs(t, err, ErrFlagValue)
}

func TestPostAPI(t *testing.T) {
	t.Parallel()

	c := mocks.NewMockAPIClient()
	c.On("Call", mock.Anything, "power", `{"state":"on"}`).Return(`{"status":"accepted"}`, nil)

	var out bytes.Buffer
	handled, err := parseFlags(t, "-api", `power:{"state":"on"}`).Post(context.Background(), c, &out)
	require.NoError(t, err)
	assert.True(t, handled)
	assert.Equal(t, "{\"status\":\"accepted\"}\n", out.String())
}

func TestPostAPIEmpty(t *testing.T) {
	t.Parallel()

	handled, err := parseFlags(t, "-api", "").Post(context.Background(), mocks.NewMockAPIClient(), io.Discard)
	assert.True(t, handled)
	require.ErrorIs(t, err, ErrFlagValue)
}

func TestPostStatus(t *testing.T) {
	t.Parallel()

	hours := 1200
	c := mocks.NewMockAPIClient()
	c.SetupStatusResponse(&models.StatusResponse{
		PowerState: "on",
		PowerOn:    true,
		Connected:  true,
		Link:       "online",
		LampHours:  &hours,
		Input:      &models.InputResponse{Key: "hdmiIn2", Kind: "hdmi", Number: 2},
	})

	var out bytes.Buffer
	handled, err := parseFlags(t, "-status").Post(context.Background(), c, &out)
	require.NoError(t, err)
	assert.True(t, handled)
	assert.Contains(t, out.String(), "Power:  on (device reports on)")
	assert.Contains(t, out.String(), "Input:  2 hdmiIn2 (hdmi)")
	assert.Contains(t, out.String(), "Link:   connected, liveness online")
	assert.Contains(t, out.String(), "Lamp:   1200 hours")
}

func TestPostStatusError(t *testing.T) {
	t.Parallel()

	boom := errors.New("connection refused")
	c := mocks.NewMockAPIClient()
	c.SetupCallError(models.MethodStatus, boom)

	_, err := parseFlags(t, "-status").Post(context.Background(), c, io.Discard)
	require.ErrorIs(t, err, boom)
}

func TestPostInputs(t *testing.T) {
	t.Parallel()

	c := mocks.NewMockAPIClient()
	c.SetupInputsResponse(&models.InputsResponse{Inputs: []models.InputResponse{
		{Key: "hdmiIn1", Kind: "hdmi", Feedback: "01", Number: 1},
		{Key: "sdiIn1", Kind: "sdi", Feedback: "05", Number: 2, Selected: true},
	}})

	var out bytes.Buffer
	_, err := parseFlags(t, "-list-inputs").Post(context.Background(), c, &out)
	require.NoError(t, err)

	lines := bytes.Split(bytes.TrimRight(out.Bytes(), "\n"), []byte("\n"))
	require.Len(t, lines, 2)
	assert.True(t, bytes.HasPrefix(lines[0], []byte("  1  hdmiIn1")))
	assert.True(t, bytes.HasPrefix(lines[1], []byte("* 2  sdiIn1")))
}

func TestPostPoll(t *testing.T) {
	t.Parallel()

	c := mocks.NewMockAPIClient()
	c.On("Call", mock.Anything, models.MethodPoll, "").Return("{}", nil)

	handled, err := parseFlags(t, "-poll").Post(context.Background(), c, io.Discard)
	require.NoError(t, err)
	assert.True(t, handled)
	c.AssertExpectations(t)
}

func TestFormatStatusUnknowns(t *testing.T) {
	t.Parallel()

	got := FormatStatus(&models.StatusResponse{PowerState: "off", Link: "unknown", Pending: true})
	assert.Equal(t,
		"Power:  off, input switch pending\nInput:  unknown\nLink:   disconnected, liveness unknown\n",
		got)
}
