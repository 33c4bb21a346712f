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

package service

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/ZaparooProject/zaparoo-projector/pkg/api/models"
	"github.com/ZaparooProject/zaparoo-projector/pkg/config"
	"github.com/ZaparooProject/zaparoo-projector/pkg/simulator"
	testhelpers "github.com/ZaparooProject/zaparoo-projector/pkg/testing/helpers"
	"github.com/ZaparooProject/zaparoo-projector/pkg/testing/mocks"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testTopic = "zaparoo/projector"

type harness struct {
	sim     *simulator.Projector
	mqtt    *mocks.MockMQTTClient
	svc     *Service
	baseURL string
	cancel  context.CancelFunc
	done    chan error
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	cfg := testhelpers.NewTestConfig(t, nil)
	cfg.SetDiscoveryEnabled(false)
	cfg.SetMQTTPublishers([]config.MQTTPublisher{{
		Broker: "tcp://broker:1883",
		Topic:  testTopic,
	}})

	sim := simulator.New(nil, 321)
	mqttClient := mocks.NewMockMQTTClient()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	svc, err := New(cfg, Options{
		Clock: clockwork.NewFakeClock(),
		Dial: func(context.Context) (io.ReadWriteCloser, error) {
			client, server := net.Pipe()
			go func() { _ = sim.Serve(ctx, server) }()
			return client, nil
		},
		NewMQTTClient: mqttClient.Factory(),
		Listener:      ln,
	})
	require.NoError(t, err)

	h := &harness{
		sim:     sim,
		mqtt:    mqttClient,
		svc:     svc,
		baseURL: "http://" + ln.Addr().String(),
		cancel:  cancel,
		done:    make(chan error, 1),
	}
	go func() { h.done <- svc.Run(ctx) }()

	t.Cleanup(func() {
		cancel()
		select {
		case <-h.done:
		case <-time.After(5 * time.Second):
			t.Error("service did not stop")
		}
	})

	require.Eventually(t, func() bool {
		return svc.Controller().Snapshot().Connected
	}, 2*time.Second, 10*time.Millisecond)

	return h
}

func TestServiceStatus(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	var status models.StatusResponse
	require.Eventually(t, func() bool {
		resp, err := http.Get(h.baseURL + "/api/status")
		if err != nil {
			return false
		}
		defer func() { _ = resp.Body.Close() }()
		if resp.StatusCode != http.StatusOK {
			return false
		}
		return json.NewDecoder(resp.Body).Decode(&status) == nil
	}, 2*time.Second, 20*time.Millisecond)

	assert.True(t, status.Connected)
	assert.Equal(t, "off", status.PowerState)
}

func TestServicePowerOn(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	resp, err := http.Post(h.baseURL+"/api/power", "application/json", strings.NewReader(`{"state":"on"}`))
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)

	assert.Eventually(t, func() bool {
		for _, f := range h.sim.Received() {
			if f == "[POWR1]" {
				return true
			}
		}
		return false
	}, 2*time.Second, 10*time.Millisecond)
	assert.Eventually(t, h.sim.On, 2*time.Second, 10*time.Millisecond)
}

func TestServicePublishesToMQTT(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	assert.Eventually(t, func() bool {
		for _, topic := range h.mqtt.Topics() {
			if topic == testTopic+"/"+models.NotificationPowerState {
				return true
			}
		}
		return false
	}, 2*time.Second, 10*time.Millisecond)
}

func TestServiceStopsOnCancel(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	h.cancel()
	select {
	case err := <-h.done:
		require.NoError(t, err)
		h.done <- err
	case <-time.After(5 * time.Second):
		t.Fatal("service did not stop")
	}
	assert.Positive(t, h.mqtt.Disconnects())
}

func TestStart(t *testing.T) {
	t.Parallel()

	cfg := testhelpers.NewTestConfig(t, nil)
	cfg.SetDiscoveryEnabled(false)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	sim := simulator.New(nil, 0)
	stop, done, err := Start(cfg, Options{
		Clock: clockwork.NewFakeClock(),
		Dial: func(context.Context) (io.ReadWriteCloser, error) {
			client, server := net.Pipe()
			go func() { _ = sim.Serve(context.Background(), server) }()
			return client, nil
		},
		Listener: ln,
	})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + ln.Addr().String() + "/api/inputs")
		if err != nil {
			return false
		}
		_ = resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)

	require.NoError(t, stop())
	select {
	case <-done:
	default:
		t.Fatal("done not closed after stop")
	}
}

func TestNewUsesDefaultInputs(t *testing.T) {
	t.Parallel()

	cfg := testhelpers.NewTestConfig(t, nil)
	cfg.SetDiscoveryEnabled(false)

	svc, err := New(cfg, Options{})
	require.NoError(t, err)
	t.Cleanup(svc.Controller().Stop)
	assert.Len(t, svc.Controller().ListInputs(), 6)
	assert.NotNil(t, svc.Server())
}
