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
	"errors"

	"github.com/ZaparooProject/zaparoo-projector/pkg/helpers/syncutil"
)

var errTransportDown = errors.New("mock transport not connected")

// MockTransport records every frame sent to it. It starts connected.
type MockTransport struct {
	SendError error
	frames    []string
	mu        syncutil.RWMutex
	down      bool
}

func NewMockTransport() *MockTransport {
	return &MockTransport{}
}

func (m *MockTransport) Send(frame string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.down {
		return errTransportDown
	}
	if m.SendError != nil {
		return m.SendError
	}
	m.frames = append(m.frames, frame)
	return nil
}

func (m *MockTransport) Connected() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return !m.down
}

func (m *MockTransport) SetConnected(connected bool) {
	m.mu.Lock()
	m.down = !connected
	m.mu.Unlock()
}

// Frames returns a copy of the frames sent so far.
func (m *MockTransport) Frames() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, len(m.frames))
	copy(out, m.frames)
	return out
}

// Count returns how many times frame was sent.
func (m *MockTransport) Count(frame string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, f := range m.frames {
		if f == frame {
			n++
		}
	}
	return n
}

func (m *MockTransport) Reset() {
	m.mu.Lock()
	m.frames = nil
	m.mu.Unlock()
}
