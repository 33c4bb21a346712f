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

// Package helpers has shared test setup for packages that need a loaded
// config or a scratch filesystem.
package helpers

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/ZaparooProject/zaparoo-projector/pkg/config"
	toml "github.com/pelletier/go-toml/v2"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

const TestConfigDir = "/etc/projector"

// FSHelper provides utilities for filesystem mocking in tests
type FSHelper struct {
	Fs afero.Fs
}

// NewMemoryFS creates a new in-memory filesystem for testing
func NewMemoryFS() *FSHelper {
	return &FSHelper{
		Fs: afero.NewMemMapFs(),
	}
}

// CreateConfigFile writes vals as TOML to path.
//
//nolint:gocritic // config struct copied for immutability
func (h *FSHelper) CreateConfigFile(path string, vals config.Values) error {
	data, err := toml.Marshal(&vals)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := h.Fs.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("failed to create directory for config file: %w", err)
	}

	if err := afero.WriteFile(h.Fs, path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// NewTestConfig loads a config from an in-memory filesystem. A nil vals
// starts from the base defaults.
func NewTestConfig(t *testing.T, vals *config.Values) *config.Instance {
	t.Helper()

	h := NewMemoryFS()
	if vals != nil {
		require.NoError(t, h.CreateConfigFile(filepath.Join(TestConfigDir, config.CfgFile), *vals))
	}

	cfg, err := config.NewConfig(h.Fs, TestConfigDir, config.BaseDefaults)
	require.NoError(t, err)
	return cfg
}
