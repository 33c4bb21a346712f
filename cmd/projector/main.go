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

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/ZaparooProject/zaparoo-projector/internal/telemetry"
	"github.com/ZaparooProject/zaparoo-projector/pkg/api/client"
	"github.com/ZaparooProject/zaparoo-projector/pkg/cli"
	"github.com/ZaparooProject/zaparoo-projector/pkg/config"
	"github.com/ZaparooProject/zaparoo-projector/pkg/helpers"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

var errServiceRunning = errors.New("a projector service is already running")

func main() {
	if err := run(); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

func run() error {
	flags := cli.SetupFlags()

	configDir := flag.String(
		"config-dir",
		cli.DefaultConfigDir(),
		"directory holding "+config.CfgFile,
	)
	logDir := flag.String(
		"log-dir",
		cli.DefaultLogDir(),
		"directory for the rotating log file",
	)

	flag.Parse()

	if handled, err := flags.Pre(os.Stdout); handled {
		return err
	}

	var logWriters []io.Writer
	if *flags.Daemon {
		logWriters = []io.Writer{os.Stderr}
	}

	cfg, err := cli.Setup(
		afero.NewOsFs(),
		*configDir,
		*logDir,
		config.BaseDefaults,
		*flags.Debug,
		logWriters,
	)
	if err != nil {
		return err //nolint:wrapcheck // already describes the failing step
	}

	defer telemetry.Close()

	defer func() {
		if err := recover(); err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "Panic: %s\n", err)
			telemetry.Flush()
			log.Fatal().Msgf("panic: %v", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	c := client.NewLocalClient(cfg.APIPort())
	if handled, err := flags.Post(ctx, c, os.Stdout); handled {
		if err != nil {
			log.Error().Err(err).Msg("command failed")
		}
		return err
	}

	if helpers.IsServiceRunning(ctx, c) {
		return fmt.Errorf("%w on port %d", errServiceRunning, cfg.APIPort())
	}

	if err := cli.RunService(ctx, cfg, *flags.Simulate); err != nil {
		log.Error().Err(err).Msg("service failed")
		return err //nolint:wrapcheck // already wrapped
	}
	return nil
}
