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

// Package queue provides the single-consumer FIFO that serialises all
// device state mutation. Frames from the transport, timer expiries and
// issued commands all run here, one at a time, in arrival order.
package queue

import (
	"context"
	"errors"
	"fmt"

	"github.com/ZaparooProject/zaparoo-projector/pkg/helpers/syncutil"
	pkgerrors "github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// ErrStopped is returned for work submitted after Stop.
var ErrStopped = errors.New("queue stopped")

// FrameHandler processes one inbound frame.
type FrameHandler func(frame string) error

type job struct {
	run  func() error
	name string
}

// Queue is an unbounded FIFO drained by one goroutine. Enqueueing never
// blocks, so the transport read loop can't be stalled by slow handlers.
type Queue struct {
	wake    chan struct{}
	stopCh  chan struct{}
	doneCh  chan struct{}
	name    string
	items   []job
	mu      syncutil.Mutex
	stopped bool
}

// New creates a queue and starts its worker. Call Stop to release it.
func New(name string) *Queue {
	q := &Queue{
		name:   name,
		wake:   make(chan struct{}, 1),
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}
	go q.worker()
	return q
}

// Enqueue schedules handler(frame) and returns immediately.
func (q *Queue) Enqueue(frame string, handler FrameHandler) error {
	return q.push(job{
		name: "frame",
		run:  func() error { return handler(frame) },
	})
}

// Submit schedules fn on the same ordered path as frames.
func (q *Queue) Submit(name string, fn func()) error {
	return q.push(job{
		name: name,
		run: func() error {
			fn()
			return nil
		},
	})
}

// Flush blocks until every job queued before the call has run.
func (q *Queue) Flush(ctx context.Context) error {
	done := make(chan struct{})
	err := q.push(job{
		name: "flush",
		run: func() error {
			close(done)
			return nil
		},
	})
	if err != nil {
		return err
	}

	select {
	case <-done:
		return nil
	case <-q.doneCh:
		return ErrStopped
	case <-ctx.Done():
		return fmt.Errorf("flush %s queue: %w", q.name, ctx.Err())
	}
}

// Len returns the number of jobs waiting to run.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Stop rejects further work, drops anything still waiting and waits for
// the running job to finish. Safe to call more than once. Must not be
// called from inside a job.
func (q *Queue) Stop() {
	q.mu.Lock()
	if q.stopped {
		q.mu.Unlock()
		<-q.doneCh
		return
	}
	q.stopped = true
	dropped := len(q.items)
	q.items = nil
	q.mu.Unlock()

	close(q.stopCh)
	<-q.doneCh

	log.Debug().Str("queue", q.name).Int("dropped", dropped).Msg("queue stopped")
}

func (q *Queue) push(j job) error {
	q.mu.Lock()
	if q.stopped {
		q.mu.Unlock()
		return ErrStopped
	}
	q.items = append(q.items, j)
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}
	return nil
}

func (q *Queue) next() (job, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.stopped || len(q.items) == 0 {
		return job{}, false
	}
	j := q.items[0]
	q.items[0] = job{}
	q.items = q.items[1:]
	return j, true
}

func (q *Queue) worker() {
	defer close(q.doneCh)
	for {
		select {
		case <-q.stopCh:
			return
		case <-q.wake:
		}

		for {
			j, ok := q.next()
			if !ok {
				break
			}
			q.run(j)
		}
	}
}

func (q *Queue) run(j job) {
	defer func() {
		if r := recover(); r != nil {
			err := pkgerrors.WithStack(fmt.Errorf("panic: %v", r))
			log.Error().Stack().Err(err).
				Str("queue", q.name).
				Str("job", j.name).
				Msg("queue job panicked, continuing")
		}
	}()

	if err := j.run(); err != nil {
		log.Warn().Err(err).
			Str("queue", q.name).
			Str("job", j.name).
			Msg("queue job failed, continuing")
	}
}
