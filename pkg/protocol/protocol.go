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

// Package protocol implements the bracketed text protocol spoken by Barco
// G60 class projectors: splitting a byte stream into frames, parsing
// TOKEN!value responses and encoding [TOKEN<value>] commands.
package protocol

// Command and response tokens.
const (
	TokenPower        = "POWR"
	TokenDisplayPower = "DPON"
	TokenStandbyPower = "SBPM"
	TokenSource       = "MSRC"
	TokenLampHours    = "LSHS"
	TokenAspectRatio  = "ASPR"
)

const (
	// ValueSeparator splits the token from the value in a response.
	ValueSeparator = "!"
	// ErrorMarker appears in responses the projector could not execute.
	ErrorMarker = "ERR"

	frameOpen  = "["
	frameClose = "]"
)

// Frame delimiters understood by the gatherer. DelimiterBracket is what
// the G60 terminates every response with.
const (
	DelimiterBracket = "]"
	DelimiterCRLF    = "\r\n"
)

// IsPowerToken reports whether token is one of the power status variants.
func IsPowerToken(token string) bool {
	switch token {
	case TokenPower, TokenDisplayPower, TokenStandbyPower:
		return true
	default:
		return false
	}
}
