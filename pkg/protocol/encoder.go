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

package protocol

import "strconv"

// Command is an outbound request. A command without a value is a query.
type Command struct {
	Token    string
	Value    string
	HasValue bool
}

// Query returns a status request for token.
func Query(token string) Command {
	return Command{Token: token}
}

// Set returns a command carrying a literal value.
func Set(token, value string) Command {
	return Command{Token: token, Value: value, HasValue: true}
}

// SetInt returns a command carrying a decimal integer value. Formatting is
// locale independent: no grouping, no padding.
func SetInt(token string, value int) Command {
	return Set(token, strconv.Itoa(value))
}

func (c Command) String() string {
	if !c.HasValue {
		return c.Token + "?"
	}
	return c.Token + "=" + c.Value
}

// Encoder turns commands into wire frames. It does no I/O.
type Encoder struct {
	// QueryMarker is appended to the token of value-less commands. Empty
	// gives the bare [TOKEN] query form; some firmware wants "?".
	QueryMarker string
}

// Encode returns the frame for c: "[TOKEN]" (plus the query marker) for a
// query, "[TOKEN<value>]" otherwise.
func (e Encoder) Encode(c Command) string {
	if !c.HasValue {
		return frameOpen + c.Token + e.QueryMarker + frameClose
	}
	return frameOpen + c.Token + c.Value + frameClose
}
