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

package device

import (
	"context"
	"time"
)

// Action is work gated on the projector being powered. The context is
// cancelled when the controller stops.
type Action func(ctx context.Context)

// pendingSwitch is the single slot holding the action waiting for warm-up.
// Registering replaces whatever was there. Only the dispatch queue uses it.
type pendingSwitch struct {
	registeredAt time.Time
	action       Action
}

// set stores action and reports whether a previous one was discarded.
func (p *pendingSwitch) set(action Action, at time.Time) bool {
	replaced := p.action != nil
	p.action = action
	p.registeredAt = at
	return replaced
}

// take removes and returns the pending action, if any.
func (p *pendingSwitch) take() (Action, time.Time, bool) {
	if p.action == nil {
		return nil, time.Time{}, false
	}
	action, at := p.action, p.registeredAt
	p.action = nil
	p.registeredAt = time.Time{}
	return action, at, true
}

func (p *pendingSwitch) live() bool {
	return p.action != nil
}
