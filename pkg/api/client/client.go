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

package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"time"

	"github.com/ZaparooProject/zaparoo-projector/pkg/api/models"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

var (
	ErrRequestTimeout   = errors.New("request timed out")
	ErrInvalidParams    = errors.New("invalid params")
	ErrRequestCancelled = errors.New("request cancelled")
)

const (
	WSPath                = "/api/ws"
	DefaultRequestTimeout = 30 * time.Second
)

// RemoteError is a JSON-RPC error returned by the server.
type RemoteError struct {
	Message string
	Code    int
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("%s (code %d)", e.Message, e.Code)
}

// WSClient talks JSON-RPC to a running service over its WebSocket.
type WSClient struct {
	host    string
	timeout time.Duration
}

// NewLocalClient returns a client for the service on this machine.
func NewLocalClient(port int) *WSClient {
	return NewClient(net.JoinHostPort("localhost", strconv.Itoa(port)))
}

func NewClient(host string) *WSClient {
	return &WSClient{host: host, timeout: DefaultRequestTimeout}
}

// WithTimeout returns a copy of c using timeout for each call.
func (c *WSClient) WithTimeout(timeout time.Duration) *WSClient {
	cp := *c
	cp.timeout = timeout
	return &cp
}

func (c *WSClient) dial(ctx context.Context) (*websocket.Conn, error) {
	u := url.URL{Scheme: "ws", Host: c.host, Path: WSPath}
	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		return nil, fmt.Errorf("connecting to %s: %w", u.String(), err)
	}
	return conn, nil
}

func closeConn(conn *websocket.Conn) {
	if err := conn.Close(); err != nil {
		log.Debug().Err(err).Msg("error closing websocket")
	}
}

// wait reads messages until match accepts one, the timeout passes or ctx
// is done.
func (c *WSClient) wait(
	ctx context.Context,
	conn *websocket.Conn,
	timeout time.Duration,
	match func([]byte) bool,
) error {
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				log.Debug().Err(err).Msg("websocket read ended")
				return
			}
			if match(msg) {
				return
			}
		}
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-done:
		return nil
	case <-timer.C:
		closeConn(conn)
		<-done
		return ErrRequestTimeout
	case <-ctx.Done():
		closeConn(conn)
		<-done
		return ErrRequestCancelled
	}
}

// Call sends one method with JSON params and returns the JSON encoded
// result.
func (c *WSClient) Call(ctx context.Context, method, params string) (string, error) {
	id := uuid.New()
	req := models.RequestObject{
		JSONRPC: "2.0",
		ID:      &id,
		Method:  method,
	}
	if params != "" {
		if !json.Valid([]byte(params)) {
			return "", ErrInvalidParams
		}
		req.Params = json.RawMessage(params)
	}

	conn, err := c.dial(ctx)
	if err != nil {
		return "", err
	}
	defer closeConn(conn)

	if err := conn.WriteJSON(req); err != nil {
		return "", fmt.Errorf("sending request: %w", err)
	}

	var resp *models.ResponseObject
	err = c.wait(ctx, conn, c.timeout, func(msg []byte) bool {
		var m models.ResponseObject
		if json.Unmarshal(msg, &m) != nil || m.JSONRPC != "2.0" || m.ID != id {
			return false
		}
		resp = &m
		return true
	})
	if err != nil {
		return "", err
	}
	if resp == nil {
		return "", ErrRequestTimeout
	}
	if resp.Error != nil {
		return "", &RemoteError{Message: resp.Error.Message, Code: resp.Error.Code}
	}

	b, err := json.Marshal(resp.Result)
	if err != nil {
		return "", fmt.Errorf("encoding result: %w", err)
	}
	return string(b), nil
}

// WaitNotification blocks until a notification with the given method
// arrives and returns its params.
func (c *WSClient) WaitNotification(ctx context.Context, timeout time.Duration, method string) (string, error) {
	conn, err := c.dial(ctx)
	if err != nil {
		return "", err
	}
	defer closeConn(conn)

	var params string
	found := false
	err = c.wait(ctx, conn, timeout, func(msg []byte) bool {
		var m models.RequestObject
		if json.Unmarshal(msg, &m) != nil || m.ID != nil || m.Method != method {
			return false
		}
		params = string(m.Params)
		found = true
		return true
	})
	if err != nil {
		return "", err
	}
	if !found {
		return "", ErrRequestTimeout
	}
	return params, nil
}
