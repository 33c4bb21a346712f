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

package transport

import (
	"context"
	"fmt"
	"io"
	"time"

	"go.bug.st/serial"
)

const (
	DefaultBaudRate        = 9600
	DefaultSerialReadDelay = 100 * time.Millisecond
)

// SerialPort is the subset of serial.Port the link needs.
type SerialPort interface {
	io.ReadWriteCloser
	SetReadTimeout(t time.Duration) error
}

// PortFactory opens a serial port. Tests swap it for a mock.
type PortFactory func(path string, mode *serial.Mode) (SerialPort, error)

func DefaultPortFactory(path string, mode *serial.Mode) (SerialPort, error) {
	port, err := serial.Open(path, mode)
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port: %w", err)
	}
	return port, nil
}

// SerialDialer connects to the projector's RS-232 port, 8N1.
type SerialDialer struct {
	Factory     PortFactory
	Path        string
	BaudRate    int
	ReadTimeout time.Duration
}

func (d SerialDialer) Mode() *serial.Mode {
	baud := d.BaudRate
	if baud <= 0 {
		baud = DefaultBaudRate
	}
	return &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
}

func (d SerialDialer) Dial(ctx context.Context) (io.ReadWriteCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("dial cancelled: %w", err)
	}

	factory := d.Factory
	if factory == nil {
		factory = DefaultPortFactory
	}
	port, err := factory(d.Path, d.Mode())
	if err != nil {
		return nil, err
	}

	timeout := d.ReadTimeout
	if timeout <= 0 {
		timeout = DefaultSerialReadDelay
	}
	if err := port.SetReadTimeout(timeout); err != nil {
		_ = port.Close()
		return nil, fmt.Errorf("failed to set read timeout: %w", err)
	}
	return port, nil
}
