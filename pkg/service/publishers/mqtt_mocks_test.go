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

package publishers

import (
	"context"

	"github.com/stretchr/testify/mock"
)

type mockCommander struct {
	mock.Mock
}

func (m *mockCommander) PowerOn() error {
	return m.Called().Error(0)
}

func (m *mockCommander) PowerOff() error {
	return m.Called().Error(0)
}

func (m *mockCommander) PowerToggle() error {
	return m.Called().Error(0)
}

func (m *mockCommander) SetInput(n int) error {
	return m.Called(n).Error(0)
}

func (m *mockCommander) Poll(ctx context.Context) {
	m.Called(ctx)
}
