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

package api

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ZaparooProject/zaparoo-projector/pkg/api/methods"
	"github.com/ZaparooProject/zaparoo-projector/pkg/api/models"
	"github.com/ZaparooProject/zaparoo-projector/pkg/helpers/syncutil"
)

var (
	ErrUnknownMethod = errors.New("unknown method")
	ErrMethodExists  = errors.New("method already registered")
)

type MethodFunc func(methods.RequestEnv) (any, error)

// MethodMap is the registry of JSON-RPC methods. Names are case
// insensitive.
type MethodMap struct {
	methods map[string]MethodFunc
	mu      syncutil.RWMutex
}

// NewMethodMap returns a map with every built-in method registered.
func NewMethodMap() *MethodMap {
	m := &MethodMap{methods: make(map[string]MethodFunc)}
	defaults := map[string]MethodFunc{
		models.MethodStatus: methods.HandleStatus,
		models.MethodInputs: methods.HandleInputs,
		models.MethodPower:  methods.HandlePower,
		models.MethodInput:  methods.HandleInput,
		models.MethodPoll:   methods.HandlePoll,
	}
	for name, fn := range defaults {
		m.methods[name] = fn
	}
	return m
}

func (m *MethodMap) AddMethod(name string, fn MethodFunc) error {
	name = strings.ToLower(name)

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.methods[name]; ok {
		return fmt.Errorf("%w: %s", ErrMethodExists, name)
	}
	m.methods[name] = fn
	return nil
}

func (m *MethodMap) Get(name string) (MethodFunc, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	fn, ok := m.methods[strings.ToLower(name)]
	return fn, ok
}

// Names lists the registered methods in no particular order.
func (m *MethodMap) Names() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.methods))
	for name := range m.methods {
		names = append(names, name)
	}
	return names
}
