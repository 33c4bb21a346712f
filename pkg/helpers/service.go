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

package helpers

import (
	"context"
	"time"

	"github.com/ZaparooProject/zaparoo-projector/pkg/api/client"
	"github.com/ZaparooProject/zaparoo-projector/pkg/api/models"
	"github.com/rs/zerolog/log"
)

const serviceProbeTimeout = 2 * time.Second

// IsServiceRunning reports whether a projector service answers on the
// other end of c.
func IsServiceRunning(ctx context.Context, c client.APIClient) bool {
	ctx, cancel := context.WithTimeout(ctx, serviceProbeTimeout)
	defer cancel()

	_, err := c.Call(ctx, models.MethodStatus, "")
	if err != nil {
		log.Debug().Err(err).Msg("error checking if service running")
		return false
	}
	return true
}
