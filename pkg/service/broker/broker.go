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

// Package broker fans device notifications out to the bridges (MQTT,
// WebSocket) without letting a slow consumer hold up the device.
package broker

import (
	"context"
	"sync/atomic"

	"github.com/ZaparooProject/zaparoo-projector/pkg/api/models"
	"github.com/ZaparooProject/zaparoo-projector/pkg/helpers/syncutil"
	"github.com/rs/zerolog/log"
)

type subscriber struct {
	ch      chan models.Notification
	name    string
	dropped atomic.Uint64
}

type Broker struct {
	source      <-chan models.Notification
	subscribers map[int]*subscriber
	done        chan struct{}
	nextID      int
	mu          syncutil.RWMutex
	closed      bool
}

func NewBroker(source <-chan models.Notification) *Broker {
	return &Broker{
		source:      source,
		subscribers: make(map[int]*subscriber),
		done:        make(chan struct{}),
	}
}

// Run broadcasts until ctx is cancelled or the source closes, then closes
// every subscriber channel.
func (b *Broker) Run(ctx context.Context) {
	defer close(b.done)
	defer b.closeAll()

	for {
		select {
		case <-ctx.Done():
			log.Debug().Msg("broker: context cancelled")
			return
		case n, ok := <-b.source:
			if !ok {
				log.Debug().Msg("broker: source closed")
				return
			}
			b.broadcast(n)
		}
	}
}

// Done is closed once Run has returned.
func (b *Broker) Done() <-chan struct{} {
	return b.done
}

func (b *Broker) broadcast(n models.Notification) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for id, sub := range b.subscribers {
		select {
		case sub.ch <- n:
		default:
			dropped := sub.dropped.Add(1)
			log.Warn().
				Int("subscriber_id", id).
				Str("subscriber", sub.name).
				Str("method", n.Method).
				Uint64("dropped", dropped).
				Msg("subscriber channel full, dropping notification")
		}
	}
}

// Subscribe registers a named consumer. The channel is closed on
// Unsubscribe or when the broker stops; subscribing after that returns a
// closed channel.
func (b *Broker) Subscribe(name string, bufferSize int) (<-chan models.Notification, int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan models.Notification, bufferSize)
	if b.closed {
		close(ch)
		return ch, -1
	}

	id := b.nextID
	b.nextID++
	b.subscribers[id] = &subscriber{name: name, ch: ch}

	log.Debug().Int("subscriber_id", id).Str("subscriber", name).Msg("subscriber registered")
	return ch, id
}

// Unsubscribe is safe to call more than once.
func (b *Broker) Unsubscribe(id int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if sub, ok := b.subscribers[id]; ok {
		delete(b.subscribers, id)
		close(sub.ch)
		log.Debug().Int("subscriber_id", id).Str("subscriber", sub.name).Msg("subscriber removed")
	}
}

// Dropped returns how many notifications subscriber id has missed.
func (b *Broker) Dropped(id int) uint64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if sub, ok := b.subscribers[id]; ok {
		return sub.dropped.Load()
	}
	return 0
}

func (b *Broker) closeAll() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.closed = true
	for id, sub := range b.subscribers {
		close(sub.ch)
		delete(b.subscribers, id)
	}
}
