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

package mocks

import (
	"context"
	"encoding/json"
	"time"

	"github.com/ZaparooProject/zaparoo-projector/pkg/api/client"
	"github.com/ZaparooProject/zaparoo-projector/pkg/api/models"
	"github.com/stretchr/testify/mock"
)

var _ client.APIClient = (*MockAPIClient)(nil)

// MockAPIClient is a mock implementation of client.APIClient for testing.
type MockAPIClient struct {
	mock.Mock
}

func NewMockAPIClient() *MockAPIClient {
	return &MockAPIClient{}
}

func (m *MockAPIClient) Call(ctx context.Context, method, params string) (string, error) {
	args := m.Called(ctx, method, params)
	return args.String(0), args.Error(1)
}

func (m *MockAPIClient) WaitNotification(
	ctx context.Context,
	timeout time.Duration,
	notificationType string,
) (string, error) {
	args := m.Called(ctx, timeout, notificationType)
	return args.String(0), args.Error(1)
}

// SetupStatusResponse configures the mock to return a status response.
func (m *MockAPIClient) SetupStatusResponse(status *models.StatusResponse) {
	data, _ := json.Marshal(status)
	m.On("Call", mock.Anything, models.MethodStatus, "").Return(string(data), nil)
}

// SetupInputsResponse configures the mock to return an input list.
func (m *MockAPIClient) SetupInputsResponse(inputs *models.InputsResponse) {
	data, _ := json.Marshal(inputs)
	m.On("Call", mock.Anything, models.MethodInputs, "").Return(string(data), nil)
}

// SetupPowerAccepted expects a power call with exactly params.
func (m *MockAPIClient) SetupPowerAccepted(params string) {
	m.On("Call", mock.Anything, models.MethodPower, params).Return(`{"status":"accepted"}`, nil)
}

// SetupCallError makes every call to method fail.
func (m *MockAPIClient) SetupCallError(method string, err error) {
	m.On("Call", mock.Anything, method, mock.Anything).Return("", err)
}
