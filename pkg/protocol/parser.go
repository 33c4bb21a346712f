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

import (
	"errors"
	"strings"
)

var (
	ErrEmptyFrame  = errors.New("empty frame")
	ErrNoSeparator = errors.New("no value separator in frame")
	ErrDeviceError = errors.New("device returned an error")
)

// Response is one decoded TOKEN!value frame. Either field may be empty.
type Response struct {
	Token string
	Value string
}

func (r Response) String() string {
	return r.Token + ValueSeparator + r.Value
}

// ParseResponse decodes a gathered frame. Bracket and line-ending leftovers
// from the gatherer are stripped before the frame is split on the first
// value separator; everything after it is the value.
func ParseResponse(frame string) (Response, error) {
	text := strings.TrimSpace(frame)
	text = strings.TrimLeft(text, frameOpen)
	text = strings.TrimRight(text, frameClose)
	text = strings.TrimSpace(text)

	if text == "" {
		return Response{}, ErrEmptyFrame
	}

	if strings.Contains(text, ErrorMarker) {
		return Response{}, ErrDeviceError
	}

	token, value, found := strings.Cut(text, ValueSeparator)
	if !found {
		return Response{}, ErrNoSeparator
	}

	return Response{
		Token: strings.TrimSpace(token),
		Value: strings.TrimSpace(value),
	}, nil
}

// FormatResponse builds the frame a projector sends for r, including the
// closing bracket. Used by the simulator and tests.
func FormatResponse(r Response) string {
	return frameOpen + r.Token + ValueSeparator + r.Value + frameClose
}
