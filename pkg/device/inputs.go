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

package device

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNoInputs          = errors.New("input registry is empty")
	ErrEmptyInputKey     = errors.New("input key is empty")
	ErrDuplicateInputKey = errors.New("duplicate input key")
	ErrDuplicateFeedback = errors.New("duplicate input feedback token")
	ErrUnknownKind       = errors.New("unknown connection kind")
	ErrInputOutOfRange   = errors.New("input number out of range")
)

type ConnectionKind string

const (
	KindHDMI        ConnectionKind = "hdmi"
	KindDVI         ConnectionKind = "dvi"
	KindVGA         ConnectionKind = "vga"
	KindSDI         ConnectionKind = "sdi"
	KindHDBaseT     ConnectionKind = "hdbaset"
	KindDisplayPort ConnectionKind = "displayport"
	KindComposite   ConnectionKind = "composite"
)

func (k ConnectionKind) Valid() bool {
	switch k {
	case KindHDMI, KindDVI, KindVGA, KindSDI, KindHDBaseT, KindDisplayPort, KindComposite:
		return true
	default:
		return false
	}
}

// InputPort is one routable source on the projector. Feedback is the value
// the device reports in MSRC responses while the port is selected; Value is
// what gets sent to select it.
type InputPort struct {
	Key      string
	Kind     ConnectionKind
	Feedback string
	Value    int
}

// DefaultInputs is the G60 source table in front-panel order.
func DefaultInputs() []InputPort {
	return []InputPort{
		{Key: "hdmiIn1", Kind: KindHDMI, Feedback: "01", Value: 1},
		{Key: "hdmiIn2", Kind: KindHDMI, Feedback: "02", Value: 2},
		{Key: "dviIn1", Kind: KindDVI, Feedback: "03", Value: 3},
		{Key: "vgaIn1", Kind: KindVGA, Feedback: "00", Value: 0},
		{Key: "sdiIn1", Kind: KindSDI, Feedback: "05", Value: 5},
		{Key: "hdBaseTIn1", Kind: KindHDBaseT, Feedback: "04", Value: 4},
	}
}

// InputRegistry is the ordered, immutable set of ports for one device.
// Position in the list is the 1-based input number callers use.
type InputRegistry struct {
	ports []InputPort
}

func NewInputRegistry(ports []InputPort) (*InputRegistry, error) {
	if len(ports) == 0 {
		return nil, ErrNoInputs
	}

	keys := make(map[string]struct{}, len(ports))
	feedback := make(map[string]string, len(ports))
	for i, p := range ports {
		if p.Key == "" {
			return nil, fmt.Errorf("input %d: %w", i+1, ErrEmptyInputKey)
		}
		if !p.Kind.Valid() {
			return nil, fmt.Errorf("input %s: %w: %q", p.Key, ErrUnknownKind, p.Kind)
		}
		if _, ok := keys[p.Key]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateInputKey, p.Key)
		}
		keys[p.Key] = struct{}{}

		fb := strings.ToLower(p.Feedback)
		if other, ok := feedback[fb]; ok {
			return nil, fmt.Errorf("%w: %q used by %s and %s", ErrDuplicateFeedback, p.Feedback, other, p.Key)
		}
		feedback[fb] = p.Key
	}

	r := &InputRegistry{ports: make([]InputPort, len(ports))}
	copy(r.ports, ports)
	return r, nil
}

func (r *InputRegistry) Len() int {
	return len(r.ports)
}

// Port returns the port at 1-based position n.
func (r *InputRegistry) Port(n int) (InputPort, error) {
	if n <= 0 || n > len(r.ports) {
		return InputPort{}, fmt.Errorf("%w: %d not in 1..%d", ErrInputOutOfRange, n, len(r.ports))
	}
	return r.ports[n-1], nil
}

// Resolve finds the port whose feedback token equals value, ignoring case.
// The first match in configured order wins. It returns the 1-based number.
func (r *InputRegistry) Resolve(value string) (InputPort, int, bool) {
	for i, p := range r.ports {
		if strings.EqualFold(p.Feedback, value) {
			return p, i + 1, true
		}
	}
	return InputPort{}, 0, false
}

func (r *InputRegistry) Ports() []InputPort {
	out := make([]InputPort, len(r.ports))
	copy(out, r.ports)
	return out
}
