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

// Package service wires the projector controller to its transport and to
// the outside world: the notification broker, MQTT bridges and the API.
package service

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/ZaparooProject/zaparoo-projector/pkg/api"
	"github.com/ZaparooProject/zaparoo-projector/pkg/api/models"
	"github.com/ZaparooProject/zaparoo-projector/pkg/config"
	"github.com/ZaparooProject/zaparoo-projector/pkg/device"
	"github.com/ZaparooProject/zaparoo-projector/pkg/service/broker"
	"github.com/ZaparooProject/zaparoo-projector/pkg/service/discovery"
	"github.com/ZaparooProject/zaparoo-projector/pkg/service/publishers"
	"github.com/ZaparooProject/zaparoo-projector/pkg/transport"
	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

const (
	notificationBuffer = 100
	subscriberBuffer   = 100
)

// Options overrides the outside edges of the service. Zero values use the
// real clock, the configured connection and port, and real MQTT clients.
type Options struct {
	Clock         clockwork.Clock
	Dial          transport.DialFunc
	NewMQTTClient publishers.ClientFactory
	Listener      net.Listener
}

type Service struct {
	cfg        *config.Instance
	opts       Options
	ns         chan models.Notification
	link       *transport.Link
	controller *device.Controller
	broker     *broker.Broker
	server     *api.Server
	discovery  *discovery.Service
	publishers []*publishers.MQTTPublisher
}

// New builds the service without starting anything.
func New(cfg *config.Instance, opts Options) (*Service, error) {
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.Dial == nil {
		opts.Dial = cfg.Dialer()
	}

	registry, err := device.NewInputRegistry(cfg.Inputs())
	if err != nil {
		return nil, fmt.Errorf("input table: %w", err)
	}

	s := &Service{
		cfg:  cfg,
		opts: opts,
		ns:   make(chan models.Notification, notificationBuffer),
	}

	s.link = transport.NewLink(cfg.DeviceName(), opts.Dial, transport.LinkOptions{
		Clock:             opts.Clock,
		ReconnectInterval: cfg.ReconnectInterval(),
		OnStateChange: func(connected bool) {
			s.controller.LinkStateChanged(connected)
		},
	})

	devOpts := cfg.DeviceOptions()
	devOpts.Clock = opts.Clock
	s.controller = device.NewController(s.link, registry, s.ns, devOpts)

	s.broker = broker.NewBroker(s.ns)

	perMinute, burst := cfg.RateLimit()
	s.server = api.NewServer(s.controller, api.Options{
		Clock:             opts.Clock,
		Port:              cfg.APIPort(),
		AllowedIPs:        cfg.AllowedIPs(),
		RequestsPerMinute: perMinute,
		Burst:             burst,
	})

	s.discovery = discovery.New(cfg, opts.Clock)

	return s, nil
}

func (s *Service) Controller() *device.Controller {
	return s.controller
}

func (s *Service) Server() *api.Server {
	return s.server
}

// Run starts every component and blocks until ctx is cancelled or a
// component fails. Everything is stopped before it returns.
func (s *Service) Run(ctx context.Context) error {
	log.Info().
		Str("device", s.cfg.DeviceName()).
		Str("endpoint", s.cfg.Endpoint()).
		Msg("starting projector service")

	g, gctx := errgroup.WithContext(ctx)

	if err := s.link.Open(gctx, s.controller.HandleData); err != nil {
		s.controller.Stop()
		return fmt.Errorf("opening link: %w", err)
	}

	// subscribers must exist before the broker starts forwarding
	apiNotifications, _ := s.broker.Subscribe("api", subscriberBuffer)
	s.startPublishers(gctx)

	g.Go(func() error {
		s.broker.Run(gctx)
		return nil
	})

	s.controller.Start()
	if err := s.controller.PublishAll(); err != nil {
		log.Warn().Err(err).Msg("failed to publish initial state")
	}

	g.Go(func() error {
		var err error
		if s.opts.Listener != nil {
			err = s.server.Serve(gctx, s.opts.Listener, apiNotifications)
		} else {
			err = s.server.ListenAndServe(gctx, apiNotifications)
		}
		if err != nil {
			return fmt.Errorf("api: %w", err)
		}
		return nil
	})

	if err := s.discovery.Start(); err != nil {
		log.Warn().Err(err).Msg("mDNS discovery not started")
	}

	g.Go(func() error {
		<-gctx.Done()
		s.shutdown()
		return nil
	})

	err := g.Wait()
	log.Info().Msg("projector service stopped")
	if err != nil && !errors.Is(err, context.Canceled) {
		return err //nolint:wrapcheck // already wrapped by the component
	}
	return nil
}

func (s *Service) shutdown() {
	log.Info().Msg("service context cancelled, running cleanup")
	s.discovery.Stop()
	for _, p := range s.publishers {
		p.Stop()
	}
	s.controller.Stop()
	if err := s.link.Close(); err != nil {
		log.Warn().Err(err).Msg("error closing link")
	}
}

// startPublishers starts one MQTT bridge per enabled config entry. A bridge
// that fails to connect is logged and skipped.
func (s *Service) startPublishers(ctx context.Context) {
	clientPrefix := "zaparoo-projector-"
	if id := s.cfg.DeviceID(); len(id) >= 8 {
		clientPrefix += id[:8] + "-"
	}

	for i, pubCfg := range s.cfg.MQTTPublishers() {
		log.Info().Msgf("starting MQTT publisher: %s (topic: %s)", pubCfg.Broker, pubCfg.Topic)

		commands := publishers.NewMQTTCommands(ctx, pubCfg.Topic, s.controller)
		acceptCommands := pubCfg.AcceptsCommands()

		pub := publishers.NewMQTTPublisher(publishers.MQTTOptions{
			NewClient: s.opts.NewMQTTClient,
			Broker:    pubCfg.Broker,
			Topic:     pubCfg.Topic,
			ClientID:  fmt.Sprintf("%s%d", clientPrefix, i),
			Username:  pubCfg.Username,
			Password:  pubCfg.Password,
			Filter:    pubCfg.Filter,
			OnConnect: func(client mqtt.Client) {
				if acceptCommands {
					if err := commands.Subscribe(client); err != nil {
						log.Error().Err(err).Str("broker", pubCfg.Broker).Msg("mqtt: failed to subscribe to commands")
					}
				}
				// retained topics may have been cleared while disconnected
				if err := s.controller.PublishAll(); err != nil {
					log.Warn().Err(err).Msg("mqtt: failed to republish state")
				}
			},
		})

		sub, id := s.broker.Subscribe("mqtt:"+pubCfg.Broker, subscriberBuffer)
		if err := pub.Start(sub); err != nil {
			log.Error().Err(err).Msgf("failed to start MQTT publisher for %s", pubCfg.Broker)
			s.broker.Unsubscribe(id)
			continue
		}
		s.publishers = append(s.publishers, pub)
	}

	if len(s.publishers) > 0 {
		log.Info().Msgf("started %d MQTT publisher(s)", len(s.publishers))
	}
}

// Start runs the service in the background. stop cancels it and waits for
// cleanup; done is closed once it has fully stopped.
func Start(cfg *config.Instance, opts Options) (stop func() error, done <-chan struct{}, err error) {
	svc, err := New(cfg, opts)
	if err != nil {
		return nil, nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	doneCh := make(chan struct{})
	var runErr error
	go func() {
		defer close(doneCh)
		runErr = svc.Run(ctx)
		if runErr != nil {
			log.Error().Err(runErr).Msg("service stopped with error")
		}
	}()

	stop = func() error {
		cancel()
		<-doneCh
		return runErr
	}
	return stop, doneCh, nil
}
