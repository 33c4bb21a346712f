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
	"context"
	"fmt"
	"io"
	"net"
	"path/filepath"

	"github.com/ZaparooProject/zaparoo-projector/internal/telemetry"
	"github.com/ZaparooProject/zaparoo-projector/pkg/config"
	"github.com/ZaparooProject/zaparoo-projector/pkg/helpers"
	"github.com/ZaparooProject/zaparoo-projector/pkg/service"
	"github.com/ZaparooProject/zaparoo-projector/pkg/simulator"
	"github.com/ZaparooProject/zaparoo-projector/pkg/transport"
	"github.com/adrg/xdg"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

const appDir = "zaparoo-projector"

// DefaultConfigDir is the per-user XDG config directory.
func DefaultConfigDir() string {
	return filepath.Join(xdg.ConfigHome, appDir)
}

func DefaultLogDir() string {
	return filepath.Join(xdg.DataHome, appDir, "logs")
}

// Setup loads the config and starts logging. Debug logging is on when
// either the flag or the config asks for it.
//
//nolint:gocritic // config struct copied for immutability
func Setup(
	fs afero.Fs,
	configDir, logDir string,
	defaults config.Values,
	debug bool,
	writers []io.Writer,
) (*config.Instance, error) {
	if err := helpers.InitLogging(logDir, debug, writers); err != nil {
		return nil, fmt.Errorf("initializing logging: %w", err)
	}

	cfg, err := config.NewConfig(fs, configDir, defaults)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	helpers.SetDebugLogging(debug || cfg.DebugLogging())
	log.Info().
		Str("version", config.AppVersion).
		Str("config", cfg.Path()).
		Msg("zaparoo projector starting")

	if err := telemetry.Init(
		cfg.ErrorReportingDSN(),
		cfg.DeviceID(),
		config.AppVersion,
		cfg.DeviceName(),
	); err != nil {
		log.Warn().Err(err).Msg("failed to initialize error reporting")
	}

	return cfg, nil
}

// StartSimulator serves a simulated projector on addr until ctx ends and
// returns a dialer connected to it.
func StartSimulator(ctx context.Context, cfg *config.Instance, addr string) (transport.DialFunc, error) {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("simulator listen on %s: %w", addr, err)
	}

	sim := simulator.New(cfg.Inputs(), 0)
	go func() {
		if err := sim.ListenAndServe(ctx, ln); err != nil {
			log.Error().Err(err).Msg("simulator stopped")
		}
	}()

	return transport.TCPDialer{Address: ln.Addr().String()}.Dial, nil
}

// RunService runs the service in the foreground until ctx is cancelled.
// A non-empty simulateAddr swaps the configured connection for a local
// simulated projector.
func RunService(ctx context.Context, cfg *config.Instance, simulateAddr string) error {
	var opts service.Options
	if simulateAddr != "" {
		dial, err := StartSimulator(ctx, cfg, simulateAddr)
		if err != nil {
			return err
		}
		opts.Dial = dial
	}

	if err := cfg.Watch(ctx, func() {
		helpers.SetDebugLogging(cfg.DebugLogging())
	}); err != nil {
		log.Warn().Err(err).Msg("config changes will need a restart")
	}

	svc, err := service.New(cfg, opts)
	if err != nil {
		return fmt.Errorf("building service: %w", err)
	}
	if err := svc.Run(ctx); err != nil {
		return fmt.Errorf("running service: %w", err)
	}
	return nil
}
