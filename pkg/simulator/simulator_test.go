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

package simulator

import (
	"bufio"
	"context"
	"net"
	"testing"

	"github.com/ZaparooProject/zaparoo-projector/pkg/device"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestHandle(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		frame string
		want  string
	}{
		{name: "power query", frame: "[POWR?", want: "[POWR!0]"},
		{name: "bare power query", frame: "[POWR", want: "[POWR!0]"},
		{name: "display power query", frame: "[DPON?", want: "[DPON!0]"},
		{name: "power on", frame: "[POWR1", want: "[POWR!1]"},
		{name: "bad power value", frame: "[POWR7", want: "[POWR!ERR]"},
		{name: "source query", frame: "[MSRC?", want: "[MSRC!01]"},
		{name: "source set", frame: "[MSRC5", want: "[MSRC!05]"},
		{name: "unknown source", frame: "[MSRC9", want: "[MSRC!ERR]"},
		{name: "lamp hours", frame: "[LSHS?", want: "[LSHS!1234]"},
		{name: "aspect ratio", frame: "[ASPR?", want: "[ASPR!0]"},
		{name: "unknown token", frame: "[ABCD?", want: "[ABCD!ERR]"},
		{name: "short frame", frame: "[AB", want: "[AB!ERR]"},
		{name: "leading whitespace", frame: "\r\n[POWR?", want: "[POWR!0]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			p := New(nil, 1234)
			assert.Equal(t, tt.want, p.Handle(tt.frame))
		})
	}
}

func TestHandleTracksState(t *testing.T) {
	t.Parallel()

	p := New(nil, 0)
	assert.False(t, p.On())
	assert.Equal(t, "hdmiIn1", p.Input().Key)

	p.Handle("[POWR1")
	p.Handle("[MSRC3")
	assert.True(t, p.On())
	assert.Equal(t, "dviIn1", p.Input().Key)

	p.SetOn(false)
	assert.Equal(t, "[POWR!0]", p.Handle("[POWR?"))
	assert.Equal(t, []string{"[POWR1]", "[MSRC3]", "[POWR?]"}, p.Received())
}

func TestSilent(t *testing.T) {
	t.Parallel()

	p := New(nil, 0)
	p.SetSilent(true)
	assert.Empty(t, p.Handle("[POWR?"))
	assert.Len(t, p.Received(), 1)

	p.SetSilent(false)
	assert.Equal(t, "[POWR!0]", p.Handle("[POWR?"))
}

func TestCustomInputs(t *testing.T) {
	t.Parallel()

	p := New([]device.InputPort{
		{Key: "a", Kind: device.KindHDMI, Feedback: "10", Value: 10},
		{Key: "b", Kind: device.KindSDI, Feedback: "20", Value: 20},
	}, 0)
	assert.Equal(t, "[MSRC!20]", p.Handle("[MSRC20"))
	assert.Equal(t, "b", p.Input().Key)
}

func TestServe(t *testing.T) {
	t.Parallel()

	client, server := net.Pipe()
	p := New(nil, 42)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Serve(ctx, server) }()

	r := bufio.NewReader(client)
	_, err := client.Write([]byte("[POWR1]"))
	require.NoError(t, err)
	got, err := r.ReadString(']')
	require.NoError(t, err)
	assert.Equal(t, "[POWR!1]", got)

	_, err = client.Write([]byte("[LSHS?][MSRC2]"))
	require.NoError(t, err)
	got, err = r.ReadString(']')
	require.NoError(t, err)
	assert.Equal(t, "[LSHS!42]", got)
	got, err = r.ReadString(']')
	require.NoError(t, err)
	assert.Equal(t, "[MSRC!02]", got)

	cancel()
	require.NoError(t, <-done)
	_ = client.Close()
	assert.True(t, p.On())
}

func TestServeEndsOnEOF(t *testing.T) {
	t.Parallel()

	client, server := net.Pipe()
	p := New(nil, 0)

	done := make(chan error, 1)
	go func() { done <- p.Serve(context.Background(), server) }()

	require.NoError(t, client.Close())
	require.NoError(t, <-done)
}

func TestListenAndServe(t *testing.T) {
	t.Parallel()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	p := New(nil, 0)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.ListenAndServe(ctx, ln) }()

	conn, err := net.Dial("tcp", ln.Addr().String())
	require.NoError(t, err)

	_, err = conn.Write([]byte("[MSRC?]"))
	require.NoError(t, err)
	got, err := bufio.NewReader(conn).ReadString(']')
	require.NoError(t, err)
	assert.Equal(t, "[MSRC!01]", got)

	require.NoError(t, conn.Close())
	cancel()
	require.NoError(t, <-done)
}
