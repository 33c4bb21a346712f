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
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

type frameRecorder struct {
	frames []string
}

func (r *frameRecorder) add(f string) {
	r.frames = append(r.frames, f)
}

func TestGathererSplitsFrames(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		delimiter string
		chunks    []string
		want      []string
		buffered  int
	}{
		{
			name:      "single frame",
			delimiter: DelimiterBracket,
			chunks:    []string{"[POWR!1]"},
			want:      []string{"[POWR!1"},
		},
		{
			name:      "several frames in one chunk",
			delimiter: DelimiterBracket,
			chunks:    []string{"[POWR!1][MSRC!02][LSHS!100]"},
			want:      []string{"[POWR!1", "[MSRC!02", "[LSHS!100"},
		},
		{
			name:      "frame split across chunks",
			delimiter: DelimiterBracket,
			chunks:    []string{"[MS", "RC!0", "2]"},
			want:      []string{"[MSRC!02"},
		},
		{
			name:      "crlf delimiter split across chunks",
			delimiter: DelimiterCRLF,
			chunks:    []string{"[POWR!0]\r", "\n[MSRC!01]\r\n"},
			want:      []string{"[POWR!0]", "[MSRC!01]"},
		},
		{
			name:      "empty accumulations are skipped",
			delimiter: DelimiterBracket,
			chunks:    []string{"]]", "[POWR!1]]"},
			want:      []string{"[POWR!1"},
		},
		{
			name:      "trailing partial frame stays buffered",
			delimiter: DelimiterBracket,
			chunks:    []string{"[POWR!1][MSRC"},
			want:      []string{"[POWR!1"},
			buffered:  5,
		},
		{
			name:      "default delimiter",
			delimiter: "",
			chunks:    []string{"[LSHS!9]"},
			want:      []string{"[LSHS!9"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rec := &frameRecorder{}
			g := NewGatherer(tt.delimiter, rec.add)
			for _, c := range tt.chunks {
				n, err := g.Write([]byte(c))
				assert.NoError(t, err)
				assert.Equal(t, len(c), n)
			}

			assert.Equal(t, tt.want, rec.frames)
			assert.Equal(t, tt.buffered, g.Buffered())
		})
	}
}

func TestGathererReset(t *testing.T) {
	t.Parallel()

	rec := &frameRecorder{}
	g := NewGatherer(DelimiterBracket, rec.add)

	_, _ = g.Write([]byte("[POW"))
	g.Reset()
	_, _ = g.Write([]byte("[MSRC!03]"))

	assert.Equal(t, []string{"[MSRC!03"}, rec.frames)
	assert.Equal(t, "]", g.Delimiter())
}

func TestGathererOverflowDiscardsUntilDelimiter(t *testing.T) {
	t.Parallel()

	rec := &frameRecorder{}
	g := NewGatherer(DelimiterCRLF, rec.add)

	_, _ = g.Write([]byte(strings.Repeat("x", MaxFrameSize+10) + "\r"))
	assert.LessOrEqual(t, g.Buffered(), 1)

	// the remainder of the oversized frame is dropped, the next one survives
	_, _ = g.Write([]byte("\n[POWR!1]\r\n"))

	assert.Equal(t, []string{"[POWR!1]"}, rec.frames)
}
