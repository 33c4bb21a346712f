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

// Package device drives a single Barco G60 class projector. The Controller
// owns the power and input state; every mutation runs on one dispatch
// queue so inbound frames, timer expiries and issued commands are applied
// in a single linear order.
package device

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ZaparooProject/zaparoo-projector/pkg/api/models"
	"github.com/ZaparooProject/zaparoo-projector/pkg/api/notifications"
	"github.com/ZaparooProject/zaparoo-projector/pkg/helpers/syncutil"
	"github.com/ZaparooProject/zaparoo-projector/pkg/monitor"
	"github.com/ZaparooProject/zaparoo-projector/pkg/protocol"
	"github.com/ZaparooProject/zaparoo-projector/pkg/queue"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
)

const (
	MinTransitionTime     = 15 * time.Second
	DefaultTransitionTime = 30 * time.Second
	DefaultSettleDelay    = 2 * time.Second
	stopFlushTimeout      = 2 * time.Second
)

var ErrStopped = errors.New("controller stopped")

// Transport sends encoded frames to the projector.
type Transport interface {
	Send(frame string) error
	Connected() bool
}

type Capabilities struct {
	HasLamps  bool
	HasScreen bool
	HasLift   bool
}

type Options struct {
	Clock        clockwork.Clock
	Name         string
	PowerToken   string
	Delimiter    string
	Policy       FeedbackPolicy
	Encoder      protocol.Encoder
	Capabilities Capabilities
	WarmupTime   time.Duration
	CooldownTime time.Duration
	SettleDelay  time.Duration
	PollInterval time.Duration
	WarningAfter time.Duration
	OfflineAfter time.Duration
}

// Snapshot is a consistent copy of the device state for readers outside
// the dispatch queue.
type Snapshot struct {
	Input        *InputPort
	Liveness     monitor.Status
	Capabilities Capabilities
	PowerState   PowerState
	InputNumber  int
	LampHours    int
	HasLampHours bool
	PowerIsOn    bool
	Connected    bool
	Pending      bool
}

type Controller struct {
	clock     clockwork.Clock
	transport Transport
	inputs    *InputRegistry
	ns        chan<- models.Notification
	queue     *queue.Queue
	gatherer  *protocol.Gatherer
	monitor   *monitor.Monitor
	timer     clockwork.Timer
	ctx       context.Context
	cancel    context.CancelFunc
	pending   pendingSwitch
	opts      Options
	snapshot  Snapshot
	power     powerMachine
	actions   sync.WaitGroup
	polls     singleflight.Group
	timerGen  uint64
	current   int
	lampHours int
	hasLamp   bool
	snapMu    syncutil.RWMutex
	stopped   atomic.Bool
}

func normalizeOptions(opts Options) Options {
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.Name == "" {
		opts.Name = "projector"
	}
	if opts.PowerToken == "" {
		opts.PowerToken = protocol.TokenPower
	}
	if opts.Delimiter == "" {
		opts.Delimiter = protocol.DelimiterBracket
	}
	if opts.Policy == "" {
		opts.Policy = PolicyIndependent
	}
	opts.WarmupTime = clampTransition(opts.WarmupTime)
	opts.CooldownTime = clampTransition(opts.CooldownTime)
	if opts.SettleDelay <= 0 {
		opts.SettleDelay = DefaultSettleDelay
	}
	return opts
}

func clampTransition(d time.Duration) time.Duration {
	if d <= 0 {
		return DefaultTransitionTime
	}
	if d < MinTransitionTime {
		return MinTransitionTime
	}
	return d
}

// NewController wires the frame pipeline and liveness monitor around t.
// Feed inbound bytes to HandleData. Notifications are sent without
// blocking; a full channel drops them.
func NewController(
	t Transport,
	inputs *InputRegistry,
	ns chan<- models.Notification,
	opts Options,
) *Controller {
	opts = normalizeOptions(opts)
	ctx, cancel := context.WithCancel(context.Background())

	c := &Controller{
		clock:     opts.Clock,
		transport: t,
		inputs:    inputs,
		ns:        ns,
		opts:      opts,
		ctx:       ctx,
		cancel:    cancel,
		queue:     queue.New(opts.Name),
		power:     powerMachine{policy: opts.Policy},
	}
	c.gatherer = protocol.NewGatherer(opts.Delimiter, c.onFrame)
	c.monitor = monitor.New(monitor.Options{
		Clock:          opts.Clock,
		Poll:           c.Poll,
		OnStatusChange: c.onLiveness,
		PollInterval:   opts.PollInterval,
		WarningTimeout: opts.WarningAfter,
		ErrorTimeout:   opts.OfflineAfter,
	})
	c.snapshot = Snapshot{
		PowerState:   PowerOff,
		Liveness:     monitor.StatusUnknown,
		Capabilities: opts.Capabilities,
		Connected:    t.Connected(),
	}
	return c
}

// HandleData accepts a raw chunk from the transport. It never blocks on
// frame processing.
func (c *Controller) HandleData(p []byte) {
	if _, err := c.gatherer.Write(p); err != nil {
		log.Warn().Err(err).Msg("error gathering inbound data")
	}
}

func (c *Controller) onFrame(frame string) {
	log.Trace().Str("frame", frame).Msg("received frame")
	c.monitor.Touch()
	if err := c.queue.Enqueue(frame, c.handleFrame); err != nil {
		log.Debug().Err(err).Str("frame", frame).Msg("dropping frame")
	}
}

// LinkStateChanged is called by the transport when the connection goes up
// or down. Half-received frames from a previous connection are discarded.
// Once polling has started, every (re)connect triggers an immediate poll
// rather than waiting for the next tick.
func (c *Controller) LinkStateChanged(connected bool) {
	if connected {
		c.gatherer.Reset()
	}
	c.snapMu.Lock()
	c.snapshot.Connected = connected
	c.snapMu.Unlock()
	log.Info().Bool("connected", connected).Str("device", c.opts.Name).Msg("link state changed")

	if connected && c.monitor.Running() && !c.stopped.Load() {
		c.actions.Add(1)
		go func() {
			defer c.actions.Done()
			c.Poll(c.ctx)
		}()
	}
}

// Start begins liveness polling.
func (c *Controller) Start() {
	c.monitor.Start()
}

// Stop halts polling, cancels timers, drops any pending switch and shuts
// the dispatch queue down. Work already running is allowed to finish.
// Safe to call more than once; must not be called from a queued job.
func (c *Controller) Stop() {
	if c.stopped.Swap(true) {
		return
	}

	c.monitor.Stop()
	c.cancel()

	if err := c.queue.Submit("stop", c.shutdown); err == nil {
		ctx, cancel := context.WithTimeout(context.Background(), stopFlushTimeout)
		if err := c.queue.Flush(ctx); err != nil {
			log.Warn().Err(err).Msg("timed out waiting for dispatch queue")
		}
		cancel()
	}
	c.queue.Stop()
	c.actions.Wait()
	log.Info().Str("device", c.opts.Name).Msg("controller stopped")
}

func (c *Controller) shutdown() {
	c.stopTimer()
	if _, _, ok := c.pending.take(); ok {
		log.Debug().Msg("discarding pending switch on stop")
	}
	c.updateSnapshot()
}

// Flush waits until all work queued before the call has been applied.
func (c *Controller) Flush(ctx context.Context) error {
	if err := c.queue.Flush(ctx); err != nil {
		return fmt.Errorf("flush dispatch queue: %w", err)
	}
	return nil
}

func (c *Controller) submit(name string, fn func()) error {
	if c.stopped.Load() {
		return ErrStopped
	}
	if err := c.queue.Submit(name, fn); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

func (c *Controller) send(cmd protocol.Command) {
	if !c.transport.Connected() {
		log.Info().Str("command", cmd.String()).Msg("not connected, command not sent")
		return
	}
	frame := c.opts.Encoder.Encode(cmd)
	if err := c.transport.Send(frame); err != nil {
		log.Warn().Err(err).Str("command", cmd.String()).Msg("failed to send command")
		return
	}
	log.Debug().Str("frame", frame).Msg("sent command")
}

// handleFrame parses one frame and routes it by token. Runs on the queue.
func (c *Controller) handleFrame(frame string) error {
	resp, err := protocol.ParseResponse(frame)
	if err != nil {
		return fmt.Errorf("frame %q: %w", frame, err)
	}

	switch {
	case protocol.IsPowerToken(resp.Token):
		c.applyPowerFeedback(strings.Contains(resp.Value, "1"))
	case resp.Token == protocol.TokenSource:
		c.applySourceFeedback(resp.Value)
	case resp.Token == protocol.TokenLampHours:
		return c.applyLampHours(resp.Value)
	case resp.Token == protocol.TokenAspectRatio:
		log.Debug().Str("value", resp.Value).Msg("aspect ratio reported")
	default:
		log.Trace().Str("token", resp.Token).Str("value", resp.Value).Msg("unknown token")
	}
	return nil
}

func (c *Controller) applyPowerFeedback(on bool) {
	from := c.power.state
	onChanged, stateChanged := c.power.feedback(on)
	if onChanged {
		log.Debug().Bool("on", on).Msg("power feedback changed")
		notifications.PowerOn(c.ns, on)
	}
	if stateChanged {
		log.Info().
			Str("from", from.String()).
			Str("to", c.power.state.String()).
			Msg("power state reconciled with device")
		c.publishPowerState(from)
	}
	if onChanged || stateChanged {
		c.updateSnapshot()
	}
}

func (c *Controller) applySourceFeedback(value string) {
	port, n, ok := c.inputs.Resolve(value)
	if !ok {
		log.Debug().Str("value", value).Msg("source feedback matches no input")
		return
	}
	if n == c.current {
		return
	}
	c.current = n
	log.Info().Str("input", port.Key).Int("number", n).Msg("input changed")
	c.publishInput()
	c.updateSnapshot()
}

func (c *Controller) applyLampHours(value string) error {
	hours, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fmt.Errorf("invalid lamp hours %q: %w", value, err)
	}
	if c.hasLamp && hours == c.lampHours {
		return nil
	}
	c.lampHours = hours
	c.hasLamp = true
	notifications.LampHours(c.ns, hours)
	c.updateSnapshot()
	return nil
}

// PowerOn asks the projector to power up. It is ignored while a warm-up
// or cool-down is running.
func (c *Controller) PowerOn() error {
	return c.submit("powerOn", func() { c.requestPower(true) })
}

func (c *Controller) PowerOff() error {
	return c.submit("powerOff", func() { c.requestPower(false) })
}

func (c *Controller) PowerToggle() error {
	return c.submit("powerToggle", func() {
		c.requestPower(!c.power.wantsOff())
	})
}

func (c *Controller) requestPower(on bool) {
	r := c.power.request(on)
	if !r.send {
		log.Info().
			Bool("on", on).
			Str("state", r.from.String()).
			Msg("power command ignored during transition")
		return
	}

	value := 0
	if on {
		value = 1
	}
	c.send(protocol.SetInt(c.opts.PowerToken, value))

	if !r.changed() {
		return
	}
	log.Info().Str("from", r.from.String()).Str("to", r.to.String()).Msg("power transition started")
	if r.to == PowerWarmingUp {
		c.startTimer(c.opts.WarmupTime)
	} else {
		c.startTimer(c.opts.CooldownTime)
	}
	c.publishPowerState(r.from)
	c.updateSnapshot()
}

func (c *Controller) startTimer(d time.Duration) {
	c.stopTimer()
	c.timerGen++
	gen := c.timerGen
	c.timer = c.clock.AfterFunc(d, func() {
		err := c.queue.Submit("transitionExpired", func() { c.expire(gen) })
		if err != nil {
			log.Debug().Err(err).Msg("transition timer fired after stop")
		}
	})
}

func (c *Controller) stopTimer() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.timerGen++
}

func (c *Controller) expire(gen uint64) {
	if gen != c.timerGen {
		return
	}
	c.timer = nil

	from, changed := c.power.expire()
	if !changed {
		return
	}
	log.Info().Str("from", from.String()).Str("to", c.power.state.String()).Msg("power transition complete")
	c.publishPowerState(from)

	switch {
	case from == PowerWarmingUp:
		if action, at, ok := c.pending.take(); ok {
			log.Debug().Dur("waited", c.clock.Since(at)).Msg("running pending switch")
			c.runAction(action)
		}
	case from == PowerCoolingDown && c.pending.live():
		// a switch requested during cool-down powers back up once it ends
		c.requestPower(true)
	}
	c.updateSnapshot()
}

// ExecuteWhenReady runs action as soon as the projector is powered. If it
// is not, action replaces any pending one and a power-on is issued; it
// runs exactly once when warm-up completes.
func (c *Controller) ExecuteWhenReady(action Action) error {
	return c.submit("executeWhenReady", func() {
		if c.power.ready() {
			c.runAction(action)
			return
		}
		if c.pending.set(action, c.clock.Now()) {
			log.Info().Msg("pending switch superseded")
		}
		c.updateSnapshot()
		c.requestPower(true)
	})
}

func (c *Controller) runAction(action Action) {
	c.actions.Add(1)
	go func() {
		defer c.actions.Done()
		action(c.ctx)
	}()
}

// SetInput selects the 1-based input n, powering the projector up first
// if needed.
func (c *Controller) SetInput(n int) error {
	port, err := c.inputs.Port(n)
	if err != nil {
		log.Warn().Err(err).Msg("input selection rejected")
		return err
	}
	return c.ExecuteWhenReady(func(ctx context.Context) {
		c.selectPort(ctx, port)
	})
}

// selectPort sends the source command and confirms it with a query once
// the projector has had time to switch.
func (c *Controller) selectPort(ctx context.Context, port InputPort) {
	log.Info().Str("input", port.Key).Msg("selecting input")
	c.send(protocol.SetInt(protocol.TokenSource, port.Value))
	if !c.settle(ctx) {
		return
	}
	c.InputGet()
}

func (c *Controller) settle(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return false
	case <-c.ctx.Done():
		return false
	case <-c.clock.After(c.opts.SettleDelay):
		return true
	}
}

func (c *Controller) PowerGet() {
	c.send(protocol.Query(c.opts.PowerToken))
}

func (c *Controller) InputGet() {
	c.send(protocol.Query(protocol.TokenSource))
}

func (c *Controller) LampGet() {
	c.send(protocol.Query(protocol.TokenLampHours))
}

// Poll queries power and, while the projector reports on, the input and
// lamp hours. Queries are spaced by the settle delay since the link is
// half duplex. Only one poll runs at a time; a caller arriving during a
// poll waits for that one instead of starting another.
func (c *Controller) Poll(ctx context.Context) {
	_, _, shared := c.polls.Do("poll", func() (any, error) {
		c.poll(ctx)
		return nil, nil
	})
	if shared {
		log.Trace().Msg("joined running poll")
	}
}

func (c *Controller) poll(ctx context.Context) {
	c.PowerGet()

	if !c.Snapshot().PowerIsOn {
		return
	}
	if !c.settle(ctx) {
		return
	}
	c.InputGet()

	if !c.opts.Capabilities.HasLamps {
		return
	}
	if !c.settle(ctx) {
		return
	}
	c.LampGet()
}

func (c *Controller) onLiveness(s monitor.Status) {
	c.snapMu.Lock()
	prev := c.snapshot.Liveness
	c.snapshot.Liveness = s
	c.snapMu.Unlock()

	if prev.Online() != s.Online() || prev == monitor.StatusUnknown {
		notifications.DeviceOnline(c.ns, s.Online(), string(s))
	}
}

func (c *Controller) publishPowerState(from PowerState) {
	to := c.power.state
	notifications.PowerState(c.ns, to.String())
	if (from == PowerWarmingUp) != (to == PowerWarmingUp) {
		notifications.PowerWarming(c.ns, to == PowerWarmingUp)
	}
	if (from == PowerCoolingDown) != (to == PowerCoolingDown) {
		notifications.PowerCooling(c.ns, to == PowerCoolingDown)
	}
}

func (c *Controller) publishInput() {
	if c.current > 0 {
		port, err := c.inputs.Port(c.current)
		if err == nil {
			notifications.InputChanged(c.ns, models.InputChangedParams{
				Key:    port.Key,
				Kind:   string(port.Kind),
				Number: c.current,
			})
		}
	}
	for i := 1; i <= c.inputs.Len(); i++ {
		notifications.InputSelected(c.ns, i, i == c.current)
	}
	notifications.InputNumber(c.ns, c.current)
}

// PublishAll re-sends the complete state, e.g. after a bridge reconnects.
func (c *Controller) PublishAll() error {
	return c.submit("publishAll", func() {
		snap := c.Snapshot()
		notifications.DeviceOnline(c.ns, snap.Liveness.Online(), string(snap.Liveness))
		notifications.DeviceCapabilities(c.ns, models.CapabilitiesParams{
			HasLamps:  c.opts.Capabilities.HasLamps,
			HasScreen: c.opts.Capabilities.HasScreen,
			HasLift:   c.opts.Capabilities.HasLift,
		})
		notifications.PowerOn(c.ns, c.power.isOn)
		notifications.PowerWarming(c.ns, c.power.state == PowerWarmingUp)
		notifications.PowerCooling(c.ns, c.power.state == PowerCoolingDown)
		notifications.PowerState(c.ns, c.power.state.String())
		c.publishInput()
		if c.hasLamp {
			notifications.LampHours(c.ns, c.lampHours)
		}
	})
}

// updateSnapshot copies queue-owned state for outside readers.
func (c *Controller) updateSnapshot() {
	c.snapMu.Lock()
	defer c.snapMu.Unlock()
	c.snapshot.PowerState = c.power.state
	c.snapshot.PowerIsOn = c.power.isOn
	c.snapshot.InputNumber = c.current
	c.snapshot.Input = nil
	if c.current > 0 {
		if port, err := c.inputs.Port(c.current); err == nil {
			c.snapshot.Input = &port
		}
	}
	c.snapshot.LampHours = c.lampHours
	c.snapshot.HasLampHours = c.hasLamp
	c.snapshot.Pending = c.pending.live()
}

func (c *Controller) Snapshot() Snapshot {
	c.snapMu.RLock()
	defer c.snapMu.RUnlock()
	snap := c.snapshot
	if snap.Input != nil {
		port := *snap.Input
		snap.Input = &port
	}
	return snap
}

func (c *Controller) PowerState() PowerState {
	return c.Snapshot().PowerState
}

// CurrentInput returns the selected port and its number, if known.
func (c *Controller) CurrentInput() (InputPort, int, bool) {
	snap := c.Snapshot()
	if snap.Input == nil {
		return InputPort{}, 0, false
	}
	return *snap.Input, snap.InputNumber, true
}

func (c *Controller) ListInputs() []InputPort {
	return c.inputs.Ports()
}

func (c *Controller) Capabilities() Capabilities {
	return c.opts.Capabilities
}

func (c *Controller) Liveness() monitor.Status {
	return c.monitor.Status()
}

func (c *Controller) Online() bool {
	return c.monitor.Online()
}
