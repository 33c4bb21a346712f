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
	"bytes"

	"github.com/ZaparooProject/zaparoo-projector/pkg/helpers/syncutil"
	"github.com/rs/zerolog/log"
)

// MaxFrameSize bounds the accumulation buffer. G60 responses are a dozen
// bytes; anything this long is line noise or a wrong baud rate.
const MaxFrameSize = 8192

// Gatherer splits a character stream into frames on a delimiter. Frames
// are passed to the callback without the delimiter. It implements
// io.Writer so a transport can copy straight into it.
type Gatherer struct {
	onFrame    func(string)
	delimiter  []byte
	buf        []byte
	mu         syncutil.Mutex
	overflowed bool
}

// NewGatherer returns a gatherer emitting frames to onFrame. An empty
// delimiter falls back to DelimiterBracket.
func NewGatherer(delimiter string, onFrame func(string)) *Gatherer {
	if delimiter == "" {
		delimiter = DelimiterBracket
	}
	return &Gatherer{
		delimiter: []byte(delimiter),
		onFrame:   onFrame,
	}
}

// Delimiter returns the configured frame delimiter.
func (g *Gatherer) Delimiter() string {
	return string(g.delimiter)
}

// Write appends a chunk and emits every frame it completes. It never
// blocks and never fails.
func (g *Gatherer) Write(p []byte) (int, error) {
	g.mu.Lock()
	g.buf = append(g.buf, p...)

	var frames []string
	for {
		idx := bytes.Index(g.buf, g.delimiter)
		if idx < 0 {
			break
		}

		frame := g.buf[:idx]
		g.buf = g.buf[idx+len(g.delimiter):]

		if g.overflowed {
			g.overflowed = false
			continue
		}
		if len(frame) > 0 {
			frames = append(frames, string(frame))
		}
	}
	g.buf = append(g.buf[:0:0], g.buf...)

	if len(g.buf) > MaxFrameSize {
		log.Warn().Int("size", len(g.buf)).Msg("gatherer: buffer overflow, discarding until next delimiter")
		// keep a possible partial delimiter
		keep := len(g.delimiter) - 1
		g.buf = append(g.buf[:0:0], g.buf[len(g.buf)-keep:]...)
		g.overflowed = true
	}
	g.mu.Unlock()

	for _, f := range frames {
		g.onFrame(f)
	}

	return len(p), nil
}

// Reset drops any partial frame, used when the link reconnects.
func (g *Gatherer) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.buf = nil
	g.overflowed = false
}

// Buffered returns the number of bytes waiting for a delimiter.
func (g *Gatherer) Buffered() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.buf)
}
