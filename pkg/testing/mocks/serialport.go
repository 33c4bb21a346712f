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

package mocks

import (
	"bytes"
	"errors"
	"time"

	"github.com/ZaparooProject/zaparoo-projector/pkg/helpers/syncutil"
)

// MockSerialPort stands in for a serial port. Reads are served from
// ReadData and then idle like a port with a read timeout; writes are
// recorded.
type MockSerialPort struct {
	ReadError   error
	CloseError  error
	TimeoutErr  error
	ReadFunc    func(p []byte) (n int, err error)
	ReadData    []byte
	written     bytes.Buffer
	ReadIndex   int
	ReadTimeout time.Duration
	mu          syncutil.RWMutex // protects closed, written, ReadTimeout
	closed      bool
}

func NewMockSerialPort() *MockSerialPort {
	return &MockSerialPort{}
}

func (m *MockSerialPort) Read(p []byte) (n int, err error) {
	if m.IsClosed() {
		return 0, errors.New("port closed")
	}

	if m.ReadFunc != nil {
		return m.ReadFunc(p)
	}
	if m.ReadError != nil {
		return 0, m.ReadError
	}

	if m.ReadIndex >= len(m.ReadData) {
		time.Sleep(10 * time.Millisecond)
		return 0, nil
	}

	n = copy(p, m.ReadData[m.ReadIndex:])
	m.ReadIndex += n
	return n, nil
}

func (m *MockSerialPort) Write(p []byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return 0, errors.New("port closed")
	}
	n, err := m.written.Write(p)
	if err != nil {
		return n, errors.New("buffer write failed")
	}
	return n, nil
}

func (m *MockSerialPort) Close() error {
	m.mu.Lock()
	m.closed = true
	closeError := m.CloseError
	m.mu.Unlock()
	return closeError
}

func (m *MockSerialPort) SetReadTimeout(t time.Duration) error {
	m.mu.Lock()
	m.ReadTimeout = t
	m.mu.Unlock()
	return m.TimeoutErr
}

func (m *MockSerialPort) IsClosed() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.closed
}

// Written returns everything written to the port so far.
func (m *MockSerialPort) Written() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.written.String()
}
