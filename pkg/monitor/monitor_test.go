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

package monitor

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type statusLog struct {
	statuses []Status
	mu       sync.Mutex
}

func (l *statusLog) record(s Status) {
	l.mu.Lock()
	l.statuses = append(l.statuses, s)
	l.mu.Unlock()
}

func (l *statusLog) all() []Status {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Status, len(l.statuses))
	copy(out, l.statuses)
	return out
}

func waitForTimers(t *testing.T, clock *clockwork.FakeClock, n int) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, clock.BlockUntilContext(ctx, n))
}

func TestNormalize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name                string
		interval, warn, err time.Duration
		wantInterval        time.Duration
		wantWarn, wantErr   time.Duration
	}{
		{
			name:         "defaults",
			wantInterval: MinPollInterval,
			wantWarn:     DefaultWarningTimeout,
			wantErr:      DefaultErrorTimeout,
		},
		{
			name:         "interval below floor",
			interval:     10 * time.Second,
			wantInterval: 45 * time.Second,
			wantWarn:     DefaultWarningTimeout,
			wantErr:      DefaultErrorTimeout,
		},
		{
			name:         "warning not above interval",
			interval:     200 * time.Second,
			wantInterval: 200 * time.Second,
			wantWarn:     400 * time.Second,
			wantErr:      600 * time.Second,
		},
		{
			name:         "error not above warning",
			interval:     60 * time.Second,
			warn:         120 * time.Second,
			err:          90 * time.Second,
			wantInterval: 60 * time.Second,
			wantWarn:     120 * time.Second,
			wantErr:      180 * time.Second,
		},
		{
			name:         "custom values kept",
			interval:     50 * time.Second,
			warn:         100 * time.Second,
			err:          500 * time.Second,
			wantInterval: 50 * time.Second,
			wantWarn:     100 * time.Second,
			wantErr:      500 * time.Second,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			interval, warn, errTimeout := Normalize(tt.interval, tt.warn, tt.err)
			assert.Equal(t, tt.wantInterval, interval)
			assert.Equal(t, tt.wantWarn, warn)
			assert.Equal(t, tt.wantErr, errTimeout)
			assert.Greater(t, warn, interval)
			assert.Greater(t, errTimeout, warn)
		})
	}
}

func TestMonitor_PollsOnStartAndEveryInterval(t *testing.T) {
	t.Parallel()

	clock := clockwork.NewFakeClock()
	var polls atomic.Int32
	m := New(Options{
		Clock: clock,
		Poll:  func(context.Context) { polls.Add(1) },
	})
	m.Start()
	defer m.Stop()

	require.Eventually(t, func() bool { return polls.Load() == 1 }, time.Second, 5*time.Millisecond)

	// ticker plus the two liveness timers
	waitForTimers(t, clock, 3)
	clock.Advance(MinPollInterval)
	assert.Eventually(t, func() bool { return polls.Load() == 2 }, time.Second, 5*time.Millisecond)
}

func TestMonitor_GoesOfflineWithoutTraffic(t *testing.T) {
	t.Parallel()

	clock := clockwork.NewFakeClock()
	log := &statusLog{}
	m := New(Options{Clock: clock, OnStatusChange: log.record})
	m.Start()
	defer m.Stop()

	assert.Equal(t, StatusUnknown, m.Status())
	waitForTimers(t, clock, 3)

	clock.Advance(DefaultWarningTimeout + time.Second)
	require.Eventually(t, func() bool { return m.Status() == StatusWarning }, time.Second, 5*time.Millisecond)
	assert.True(t, m.Online())

	clock.Advance(DefaultErrorTimeout - DefaultWarningTimeout)
	require.Eventually(t, func() bool { return m.Status() == StatusOffline }, time.Second, 5*time.Millisecond)
	assert.False(t, m.Online())

	assert.Equal(t, []Status{StatusWarning, StatusOffline}, log.all())
}

func TestMonitor_TouchRestoresOnline(t *testing.T) {
	t.Parallel()

	clock := clockwork.NewFakeClock()
	log := &statusLog{}
	m := New(Options{Clock: clock, OnStatusChange: log.record})
	m.Start()
	defer m.Stop()

	waitForTimers(t, clock, 3)
	clock.Advance(DefaultWarningTimeout + time.Second)
	require.Eventually(t, func() bool { return m.Status() == StatusWarning }, time.Second, 5*time.Millisecond)
	clock.Advance(DefaultErrorTimeout - DefaultWarningTimeout)
	require.Eventually(t, func() bool { return m.Status() == StatusOffline }, time.Second, 5*time.Millisecond)

	m.Touch()
	assert.Equal(t, StatusOK, m.Status())
	assert.True(t, m.Online())

	// timers restarted from the touch, not from start
	clock.Advance(DefaultWarningTimeout - time.Second)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, StatusOK, m.Status())

	assert.Equal(t, []Status{StatusWarning, StatusOffline, StatusOK}, log.all())
}

func TestMonitor_TouchKeepsOnline(t *testing.T) {
	t.Parallel()

	clock := clockwork.NewFakeClock()
	m := New(Options{Clock: clock})
	m.Start()
	defer m.Stop()

	for range 5 {
		m.Touch()
		clock.Advance(DefaultWarningTimeout - time.Second)
	}
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, StatusOK, m.Status())
}

func TestMonitor_TouchWhileStoppedIgnored(t *testing.T) {
	t.Parallel()

	m := New(Options{Clock: clockwork.NewFakeClock()})
	m.Touch()
	assert.Equal(t, StatusUnknown, m.Status())
}

func TestMonitor_StartStopIdempotent(t *testing.T) {
	t.Parallel()

	clock := clockwork.NewFakeClock()
	var polls atomic.Int32
	m := New(Options{
		Clock: clock,
		Poll:  func(context.Context) { polls.Add(1) },
	})

	m.Start()
	m.Start()
	require.Eventually(t, func() bool { return polls.Load() == 1 }, time.Second, 5*time.Millisecond)
	assert.True(t, m.Running())

	m.Stop()
	m.Stop()
	assert.False(t, m.Running())

	clock.Advance(DefaultErrorTimeout * 2)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, StatusUnknown, m.Status(), "stopped monitor must not change status")
	assert.Equal(t, int32(1), polls.Load())
}

func TestMonitor_StopCancelsPoll(t *testing.T) {
	t.Parallel()

	started := make(chan struct{})
	cancelled := make(chan struct{})
	m := New(Options{
		Clock: clockwork.NewFakeClock(),
		Poll: func(ctx context.Context) {
			close(started)
			<-ctx.Done()
			close(cancelled)
		},
	})
	m.Start()
	<-started
	m.Stop()

	select {
	case <-cancelled:
	default:
		t.Fatal("poll context not cancelled by Stop")
	}
}
