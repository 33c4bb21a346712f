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

// Package monitor tracks whether the projector is reachable. It runs a
// status poll on a fixed cadence and derives liveness from how long ago
// the last inbound frame arrived.
package monitor

import (
	"context"
	"sync"
	"time"

	"github.com/ZaparooProject/zaparoo-projector/pkg/helpers/syncutil"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

const (
	MinPollInterval       = 45 * time.Second
	DefaultWarningTimeout = 180 * time.Second
	DefaultErrorTimeout   = 300 * time.Second
)

type Status string

const (
	StatusUnknown Status = "unknown"
	StatusOK      Status = "ok"
	StatusWarning Status = "warning"
	StatusOffline Status = "offline"
)

// Online reports whether the status counts as reachable. A warning is
// still online; only the error timeout takes the device offline.
func (s Status) Online() bool {
	return s == StatusOK || s == StatusWarning
}

type Options struct {
	Clock clockwork.Clock
	// Poll runs once on Start and then every PollInterval. The context is
	// cancelled by Stop so settle delays inside it end early.
	Poll func(ctx context.Context)
	// OnStatusChange is called in order for every status change. It must
	// not call back into the monitor.
	OnStatusChange func(Status)
	PollInterval   time.Duration
	WarningTimeout time.Duration
	ErrorTimeout   time.Duration
}

type Monitor struct {
	clock        clockwork.Clock
	warnTimer    clockwork.Timer
	errTimer     clockwork.Timer
	poll         func(ctx context.Context)
	onChange     func(Status)
	cancel       context.CancelFunc
	status       Status
	wg           sync.WaitGroup
	interval     time.Duration
	warning      time.Duration
	errorTimeout time.Duration
	generation   uint64
	mu           syncutil.Mutex // protects status, timers, generation, running
	notifyMu     syncutil.Mutex // orders OnStatusChange calls
	running      bool
}

// New returns a stopped monitor. The poll interval is raised to
// MinPollInterval; both timeouts are pushed past the interval.
func New(opts Options) *Monitor {
	clock := opts.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	interval, warning, errTimeout := Normalize(opts.PollInterval, opts.WarningTimeout, opts.ErrorTimeout)

	return &Monitor{
		clock:        clock,
		poll:         opts.Poll,
		onChange:     opts.OnStatusChange,
		interval:     interval,
		warning:      warning,
		errorTimeout: errTimeout,
		status:       StatusUnknown,
	}
}

// Normalize applies the interval floor and keeps
// interval < warning < error.
func Normalize(interval, warning, errTimeout time.Duration) (time.Duration, time.Duration, time.Duration) {
	if interval < MinPollInterval {
		interval = MinPollInterval
	}
	if warning <= 0 {
		warning = DefaultWarningTimeout
	}
	if warning <= interval {
		warning = 2 * interval
	}
	if errTimeout <= 0 {
		errTimeout = DefaultErrorTimeout
	}
	if errTimeout <= warning {
		errTimeout = warning + interval
	}
	return interval, warning, errTimeout
}

func (m *Monitor) Interval() time.Duration { return m.interval }
func (m *Monitor) WarningTimeout() time.Duration { return m.warning }
func (m *Monitor) ErrorTimeout() time.Duration { return m.errorTimeout }

// Start begins polling and arms the liveness timers. Calling it while
// running does nothing.
func (m *Monitor) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.running {
		return
	}
	m.running = true

	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	m.armLocked()

	ticker := m.clock.NewTicker(m.interval)
	m.wg.Add(1)
	go m.loop(ctx, ticker)

	log.Info().
		Dur("interval", m.interval).
		Dur("warning", m.warning).
		Dur("error", m.errorTimeout).
		Msg("liveness monitor started")
}

func (m *Monitor) loop(ctx context.Context, ticker clockwork.Ticker) {
	defer m.wg.Done()
	defer ticker.Stop()

	m.runPoll(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			m.runPoll(ctx)
		}
	}
}

func (m *Monitor) runPoll(ctx context.Context) {
	if m.poll == nil || ctx.Err() != nil {
		return
	}
	m.poll(ctx)
}

// Stop cancels polling and the liveness timers and waits for an in-flight
// poll to return. The last status is kept.
func (m *Monitor) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	m.running = false
	m.generation++
	m.stopTimersLocked()
	cancel := m.cancel
	m.mu.Unlock()

	cancel()
	m.wg.Wait()
	log.Info().Msg("liveness monitor stopped")
}

// Touch records inbound traffic: the status returns to ok and both
// timeouts restart from now.
func (m *Monitor) Touch() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	m.armLocked()
	m.mu.Unlock()

	m.setStatus(StatusOK, 0, false)
}

func (m *Monitor) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

func (m *Monitor) Online() bool {
	return m.Status().Online()
}

func (m *Monitor) Running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

func (m *Monitor) armLocked() {
	m.stopTimersLocked()
	m.generation++
	gen := m.generation
	m.warnTimer = m.clock.AfterFunc(m.warning, func() {
		m.setStatus(StatusWarning, gen, true)
	})
	m.errTimer = m.clock.AfterFunc(m.errorTimeout, func() {
		m.setStatus(StatusOffline, gen, true)
	})
}

func (m *Monitor) stopTimersLocked() {
	if m.warnTimer != nil {
		m.warnTimer.Stop()
		m.warnTimer = nil
	}
	if m.errTimer != nil {
		m.errTimer.Stop()
		m.errTimer = nil
	}
}

// setStatus changes the status and notifies. Timer callbacks pass their
// generation so an expiry racing a Touch is discarded.
func (m *Monitor) setStatus(s Status, gen uint64, fromTimer bool) {
	m.notifyMu.Lock()
	defer m.notifyMu.Unlock()

	m.mu.Lock()
	if fromTimer && (gen != m.generation || !m.running) {
		m.mu.Unlock()
		return
	}
	// the warning timer can run after the error timer; offline wins
	if m.status == s || (fromTimer && s == StatusWarning && m.status == StatusOffline) {
		m.mu.Unlock()
		return
	}
	prev := m.status
	m.status = s
	m.mu.Unlock()

	switch s {
	case StatusOffline:
		log.Warn().Str("previous", string(prev)).Msg("device offline: no response within error timeout")
	case StatusWarning:
		log.Warn().Str("previous", string(prev)).Msg("device not responding")
	default:
		log.Info().Str("previous", string(prev)).Str("status", string(s)).Msg("device liveness changed")
	}

	if m.onChange != nil {
		m.onChange(s)
	}
}
