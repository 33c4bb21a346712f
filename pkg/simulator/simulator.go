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

// Package simulator is a software stand-in for a G60 projector. It answers
// the same bracketed commands on any byte stream, which makes it usable
// behind a TCP listener for bench testing and behind a pipe in tests.
package simulator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"

	"github.com/ZaparooProject/zaparoo-projector/pkg/device"
	"github.com/ZaparooProject/zaparoo-projector/pkg/helpers/syncutil"
	"github.com/ZaparooProject/zaparoo-projector/pkg/protocol"
	"github.com/rs/zerolog/log"
)

const tokenLen = 4

type Projector struct {
	inputs    []device.InputPort
	frames    []string
	input     int
	lampHours int
	mu        syncutil.Mutex
	on        bool
	silent    bool
}

// New returns a powered-off projector on its first input.
func New(inputs []device.InputPort, lampHours int) *Projector {
	if len(inputs) == 0 {
		inputs = device.DefaultInputs()
	}
	return &Projector{
		inputs:    append([]device.InputPort(nil), inputs...),
		lampHours: lampHours,
	}
}

func (p *Projector) On() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.on
}

// SetOn changes power as if from the front panel.
func (p *Projector) SetOn(on bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.on = on
}

// Input returns the selected port.
func (p *Projector) Input() device.InputPort {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.inputs[p.input]
}

// SetSilent stops the projector answering, like a pulled cable on the far
// side of a serial server.
func (p *Projector) SetSilent(silent bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.silent = silent
}

// Received lists every command frame seen so far, including the brackets.
func (p *Projector) Received() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.frames...)
}

// Handle processes one command frame and returns the reply, or "" when the
// projector stays quiet.
func (p *Projector) Handle(frame string) string {
	text := strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(frame), "["))

	p.mu.Lock()
	defer p.mu.Unlock()

	p.frames = append(p.frames, "["+text+"]")
	if p.silent {
		return ""
	}
	if len(text) < tokenLen {
		return protocol.FormatResponse(protocol.Response{Token: text, Value: protocol.ErrorMarker})
	}

	token, arg := text[:tokenLen], strings.TrimSuffix(text[tokenLen:], "?")
	reply := func(value string) string {
		return protocol.FormatResponse(protocol.Response{Token: token, Value: value})
	}

	switch {
	case protocol.IsPowerToken(token):
		switch arg {
		case "":
		case "1":
			p.on = true
		case "0":
			p.on = false
		default:
			return reply(protocol.ErrorMarker)
		}
		return reply(boolValue(p.on))
	case token == protocol.TokenSource:
		if arg != "" {
			if !p.selectValue(arg) {
				return reply(protocol.ErrorMarker)
			}
		}
		return reply(p.inputs[p.input].Feedback)
	case token == protocol.TokenLampHours:
		return reply(strconv.Itoa(p.lampHours))
	case token == protocol.TokenAspectRatio:
		return reply("0")
	default:
		return reply(protocol.ErrorMarker)
	}
}

func (p *Projector) selectValue(arg string) bool {
	value, err := strconv.Atoi(arg)
	if err != nil {
		return false
	}
	for i, in := range p.inputs {
		if in.Value == value {
			p.input = i
			return true
		}
	}
	return false
}

func boolValue(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

// Serve answers commands read from rw until ctx is done or the stream
// ends.
func (p *Projector) Serve(ctx context.Context, rw io.ReadWriter) error {
	var writeErr error
	g := protocol.NewGatherer(protocol.DelimiterBracket, func(frame string) {
		reply := p.Handle(frame)
		if reply == "" || writeErr != nil {
			return
		}
		log.Trace().Str("frame", frame).Str("reply", reply).Msg("simulator: reply")
		_, writeErr = io.WriteString(rw, reply)
	})

	if c, ok := rw.(io.Closer); ok {
		stop := context.AfterFunc(ctx, func() { _ = c.Close() })
		defer stop()
	}

	buf := make([]byte, 256)
	for {
		n, err := rw.Read(buf)
		if n > 0 {
			_, _ = g.Write(buf[:n])
			if writeErr != nil {
				return fmt.Errorf("writing reply: %w", writeErr)
			}
		}
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) {
				return nil
			}
			return fmt.Errorf("reading command: %w", err)
		}
	}
}

// ListenAndServe accepts TCP clients on ln, one at a time per connection,
// until ctx is done.
func (p *Projector) ListenAndServe(ctx context.Context, ln net.Listener) error {
	stop := context.AfterFunc(ctx, func() { _ = ln.Close() })
	defer stop()

	log.Info().Str("addr", ln.Addr().String()).Msg("simulator listening")
	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("accepting: %w", err)
		}
		go func() {
			defer func() { _ = conn.Close() }()
			if err := p.Serve(ctx, conn); err != nil {
				log.Warn().Err(err).Msg("simulator: connection ended")
			}
		}()
	}
}
