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

package broker

import (
	"context"
	"testing"
	"time"

	"github.com/ZaparooProject/zaparoo-projector/pkg/api/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func receive(t *testing.T, ch <-chan models.Notification) models.Notification {
	t.Helper()
	select {
	case n, ok := <-ch:
		require.True(t, ok, "channel closed")
		return n
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for notification")
		return models.Notification{}
	}
}

func TestBroker_FansOut(t *testing.T) {
	t.Parallel()

	source := make(chan models.Notification)
	b := NewBroker(source)
	mqtt, _ := b.Subscribe("mqtt", 4)
	ws, _ := b.Subscribe("ws", 4)

	ctx, cancel := context.WithCancel(context.Background())
	go b.Run(ctx)
	defer func() {
		cancel()
		<-b.Done()
	}()

	source <- models.Notification{Method: models.NotificationPowerOn}

	assert.Equal(t, models.NotificationPowerOn, receive(t, mqtt).Method)
	assert.Equal(t, models.NotificationPowerOn, receive(t, ws).Method)
}

func TestBroker_SlowSubscriberDoesNotBlock(t *testing.T) {
	t.Parallel()

	source := make(chan models.Notification)
	b := NewBroker(source)
	slow, slowID := b.Subscribe("slow", 1)
	fast, _ := b.Subscribe("fast", 8)

	ctx, cancel := context.WithCancel(context.Background())
	go b.Run(ctx)
	defer func() {
		cancel()
		<-b.Done()
	}()

	for range 3 {
		source <- models.Notification{Method: models.NotificationLampHours}
	}
	for range 3 {
		receive(t, fast)
	}

	assert.Equal(t, uint64(2), b.Dropped(slowID))
	receive(t, slow)
}

func TestBroker_Unsubscribe(t *testing.T) {
	t.Parallel()

	b := NewBroker(make(chan models.Notification))
	ch, id := b.Subscribe("ws", 1)

	b.Unsubscribe(id)
	b.Unsubscribe(id)

	_, ok := <-ch
	assert.False(t, ok)
	assert.Equal(t, uint64(0), b.Dropped(id))
}

func TestBroker_SourceCloseClosesSubscribers(t *testing.T) {
	t.Parallel()

	source := make(chan models.Notification)
	b := NewBroker(source)
	ch, _ := b.Subscribe("mqtt", 1)

	go b.Run(context.Background())
	close(source)
	<-b.Done()

	_, ok := <-ch
	assert.False(t, ok)

	late, id := b.Subscribe("late", 1)
	assert.Equal(t, -1, id)
	_, ok = <-late
	assert.False(t, ok)
}

func TestBroker_ContextCancel(t *testing.T) {
	t.Parallel()

	b := NewBroker(make(chan models.Notification))
	ch, _ := b.Subscribe("ws", 1)

	ctx, cancel := context.WithCancel(context.Background())
	go b.Run(ctx)
	cancel()

	select {
	case <-b.Done():
	case <-time.After(time.Second):
		t.Fatal("broker did not stop")
	}
	_, ok := <-ch
	assert.False(t, ok)
}
