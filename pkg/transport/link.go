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

// Package transport maintains the character link to the projector. A Link
// supervises one connection at a time, delivering raw read chunks to a
// callback and redialling after failures.
package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/ZaparooProject/zaparoo-projector/pkg/helpers/syncutil"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

const DefaultReconnectInterval = 5 * time.Second

const readBufferSize = 256

var (
	ErrNotConnected = errors.New("link not connected")
	ErrAlreadyOpen  = errors.New("link already open")
	ErrClosed       = errors.New("link closed")
)

// DialFunc opens a new connection to the device.
type DialFunc func(ctx context.Context) (io.ReadWriteCloser, error)

type LinkOptions struct {
	Clock clockwork.Clock
	// OnStateChange is called from the link goroutine whenever the
	// connection comes up or goes down.
	OnStateChange     func(connected bool)
	ReconnectInterval time.Duration
}

type Link struct {
	clock     clockwork.Clock
	conn      io.ReadWriteCloser
	dial      DialFunc
	onState   func(bool)
	cancel    context.CancelFunc
	done      chan struct{}
	name      string
	reconnect time.Duration
	mu        syncutil.RWMutex // protects conn, cancel, done, closed
	writeMu   syncutil.Mutex
	closed    bool
}

func NewLink(name string, dial DialFunc, opts LinkOptions) *Link {
	clock := opts.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	reconnect := opts.ReconnectInterval
	if reconnect <= 0 {
		reconnect = DefaultReconnectInterval
	}
	return &Link{
		name:      name,
		dial:      dial,
		clock:     clock,
		reconnect: reconnect,
		onState:   opts.OnStateChange,
	}
}

// Open starts the connection goroutine. onData receives every chunk read
// from the device and must not retain the slice after returning.
func (l *Link) Open(ctx context.Context, onData func([]byte)) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return ErrClosed
	}
	if l.done != nil {
		return ErrAlreadyOpen
	}

	ctx, cancel := context.WithCancel(ctx)
	l.cancel = cancel
	l.done = make(chan struct{})
	go l.run(ctx, onData)
	return nil
}

func (l *Link) run(ctx context.Context, onData func([]byte)) {
	defer close(l.done)
	for {
		conn, err := l.dial(ctx)
		switch {
		case err != nil:
			if ctx.Err() != nil {
				return
			}
			log.Warn().Err(err).Str("link", l.name).Msg("failed to connect")
		default:
			log.Info().Str("link", l.name).Msg("connected")
			l.setConn(conn)
			err = l.readLoop(ctx, conn, onData)
			l.setConn(nil)
			if closeErr := conn.Close(); closeErr != nil {
				log.Debug().Err(closeErr).Str("link", l.name).Msg("error closing connection")
			}
			if ctx.Err() != nil {
				return
			}
			log.Warn().Err(err).Str("link", l.name).Msg("connection lost")
		}

		select {
		case <-ctx.Done():
			return
		case <-l.clock.After(l.reconnect):
		}
	}
}

func (l *Link) readLoop(ctx context.Context, conn io.ReadWriteCloser, onData func([]byte)) error {
	// A blocked read only returns once the connection is closed.
	stop := context.AfterFunc(ctx, func() {
		_ = conn.Close()
	})
	defer stop()

	buf := make([]byte, readBufferSize)
	for {
		n, err := conn.Read(buf)
		if n > 0 {
			onData(buf[:n])
		}
		if err != nil {
			return fmt.Errorf("read: %w", err)
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

func (l *Link) setConn(conn io.ReadWriteCloser) {
	l.mu.Lock()
	l.conn = conn
	l.mu.Unlock()
	if l.onState != nil {
		l.onState(conn != nil)
	}
}

// Connected reports whether a connection is currently established.
func (l *Link) Connected() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.conn != nil
}

// Send writes one encoded frame. Writes are serialised; a frame is never
// interleaved with another.
func (l *Link) Send(frame string) error {
	l.mu.RLock()
	conn := l.conn
	l.mu.RUnlock()
	if conn == nil {
		return ErrNotConnected
	}

	l.writeMu.Lock()
	defer l.writeMu.Unlock()
	if _, err := io.WriteString(conn, frame); err != nil {
		return fmt.Errorf("failed to write frame: %w", err)
	}
	log.Trace().Str("link", l.name).Str("frame", frame).Msg("sent frame")
	return nil
}

// Close stops the connection goroutine and waits for it to exit. Safe to
// call more than once.
func (l *Link) Close() error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return nil
	}
	l.closed = true
	cancel := l.cancel
	done := l.done
	l.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
	return nil
}
