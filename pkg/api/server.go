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

package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/ZaparooProject/zaparoo-projector/pkg/api/methods"
	"github.com/ZaparooProject/zaparoo-projector/pkg/api/middleware"
	"github.com/ZaparooProject/zaparoo-projector/pkg/api/models"
	"github.com/ZaparooProject/zaparoo-projector/pkg/api/validation"
	"github.com/ZaparooProject/zaparoo-projector/pkg/device"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jonboulle/clockwork"
	"github.com/olahol/melody"
	"github.com/rs/zerolog/log"
)

const (
	DefaultPort           = 7498
	DefaultRequestTimeout = 30 * time.Second
	readHeaderTimeout     = 10 * time.Second
	shutdownTimeout       = 5 * time.Second
	maxRequestBody        = 64 * 1024
)

var (
	JSONRPCErrorParseError = models.ErrorObject{
		Code:    -32700,
		Message: "Parse error",
	}
	JSONRPCErrorInvalidRequest = models.ErrorObject{
		Code:    -32600,
		Message: "Invalid Request",
	}
	JSONRPCErrorMethodNotFound = models.ErrorObject{
		Code:    -32601,
		Message: "Method not found",
	}
	JSONRPCErrorInvalidParams = models.ErrorObject{
		Code:    -32602,
		Message: "Invalid params",
	}
	JSONRPCErrorServerError = models.ErrorObject{
		Code:    -32000,
		Message: "Server error",
	}
)

type Options struct {
	Clock             clockwork.Clock
	AllowedIPs        []string
	Port              int
	RequestsPerMinute int
	Burst             int
}

// Server exposes a device over REST, JSON-RPC over HTTP and a JSON-RPC
// WebSocket that also streams every notification.
type Server struct {
	device  methods.Device
	methods *MethodMap
	limiter *middleware.IPRateLimiter
	filter  *middleware.IPFilter
	ws      *melody.Melody
	router  chi.Router
	port    int
}

func NewServer(d methods.Device, opts Options) *Server {
	if opts.Port <= 0 {
		opts.Port = DefaultPort
	}

	s := &Server{
		device:  d,
		methods: NewMethodMap(),
		limiter: middleware.NewIPRateLimiter(opts.Clock, opts.RequestsPerMinute, opts.Burst),
		filter:  middleware.NewIPFilter(opts.AllowedIPs),
		ws:      melody.New(),
		port:    opts.Port,
	}
	s.ws.Upgrader.CheckOrigin = func(*http.Request) bool { return true }
	s.ws.HandleMessage(middleware.WebSocketRateLimitHandler(s.limiter, s.handleWSMessage))
	s.ws.HandleConnect(func(session *melody.Session) {
		log.Debug().Str("addr", session.Request.RemoteAddr).Msg("websocket client connected")
	})
	s.router = s.newRouter()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Methods() *MethodMap {
	return s.methods
}

func (s *Server) newRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.HTTPIPFilterMiddleware(s.filter))
	r.Use(chimiddleware.NoCache)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"https://*", "http://*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Get("/api/ws", func(w http.ResponseWriter, r *http.Request) {
		if err := s.ws.HandleRequest(w, r); err != nil {
			log.Error().Err(err).Msg("handling websocket request")
		}
	})

	r.Group(func(r chi.Router) {
		r.Use(chimiddleware.Timeout(DefaultRequestTimeout))
		r.Use(middleware.HTTPRateLimitMiddleware(s.limiter))

		r.Post("/api", s.handlePostRequest)
		r.Get("/api/status", s.restHandler(models.MethodStatus))
		r.Get("/api/inputs", s.restHandler(models.MethodInputs))
		r.Post("/api/power", s.restHandler(models.MethodPower))
		r.Post("/api/input", s.restHandler(models.MethodInput))
		r.Post("/api/poll", s.restHandler(models.MethodPoll))
	})

	return r
}

func (s *Server) env(ctx context.Context, params json.RawMessage) methods.RequestEnv {
	return methods.RequestEnv{
		Context: ctx,
		Device:  s.device,
		Params:  params,
	}
}

func (s *Server) call(env methods.RequestEnv, method string) (any, error) {
	fn, ok := s.methods.Get(method)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownMethod, method)
	}
	return fn(env)
}

// errorObject maps a handler error onto the JSON-RPC error it is reported as.
func errorObject(err error) models.ErrorObject {
	var verr *validation.Error
	switch {
	case errors.Is(err, ErrUnknownMethod):
		return JSONRPCErrorMethodNotFound
	case errors.As(err, &verr),
		errors.Is(err, validation.ErrMissingParams),
		errors.Is(err, validation.ErrInvalidParams),
		errors.Is(err, device.ErrInputOutOfRange):
		return models.ErrorObject{Code: JSONRPCErrorInvalidParams.Code, Message: err.Error()}
	default:
		return models.ErrorObject{Code: JSONRPCErrorServerError.Code, Message: err.Error()}
	}
}

func httpStatus(obj models.ErrorObject) int {
	switch obj.Code {
	case JSONRPCErrorMethodNotFound.Code:
		return http.StatusNotFound
	case JSONRPCErrorInvalidParams.Code:
		return http.StatusBadRequest
	default:
		return http.StatusServiceUnavailable
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("marshalling response")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		log.Debug().Err(err).Msg("writing response")
	}
}

// readBody decodes a single JSON value from the request. An empty body
// yields nil params.
func readBody(w http.ResponseWriter, r *http.Request) (json.RawMessage, error) {
	var body json.RawMessage
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody))
	if err := dec.Decode(&body); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("decoding body: %w", err)
	}
	return body, nil
}

func jsonContentType(r *http.Request) bool {
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mt == "application/json"
}

// restHandler adapts a method to a plain REST route. POST bodies are the
// method params.
func (s *Server) restHandler(method string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var params json.RawMessage
		if r.Method == http.MethodPost {
			body, err := readBody(w, r)
			if err != nil {
				writeJSON(w, http.StatusBadRequest, JSONRPCErrorParseError)
				return
			}
			params = body
		}

		result, err := s.call(s.env(r.Context(), params), method)
		if err != nil {
			obj := errorObject(err)
			log.Warn().Err(err).Str("method", method).Msg("rest request failed")
			writeJSON(w, httpStatus(obj), obj)
			return
		}

		status := http.StatusOK
		if r.Method == http.MethodPost {
			status = http.StatusAccepted
		}
		writeJSON(w, status, result)
	}
}

// handlePostRequest serves a single JSON-RPC request over HTTP. JSON-RPC
// errors are reported in the body with status 200.
func (s *Server) handlePostRequest(w http.ResponseWriter, r *http.Request) {
	if !jsonContentType(r) {
		http.Error(w, "Unsupported Media Type", http.StatusUnsupportedMediaType)
		return
	}

	body, err := readBody(w, r)
	if err != nil || body == nil {
		writeJSON(w, http.StatusOK, models.ResponseObject{JSONRPC: "2.0", Error: &JSONRPCErrorParseError})
		return
	}

	resp, reply := s.processRequest(r.Context(), body)
	if !reply {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// processRequest runs one JSON-RPC message. reply is false for
// notifications, which never get a response.
func (s *Server) processRequest(ctx context.Context, msg []byte) (resp models.ResponseObject, reply bool) {
	resp.JSONRPC = "2.0"

	if !json.Valid(msg) {
		log.Error().Msg("data not valid json")
		resp.Error = &JSONRPCErrorParseError
		return resp, true
	}

	var req models.RequestObject
	if err := json.Unmarshal(msg, &req); err != nil || req.JSONRPC != "2.0" || req.Method == "" {
		resp.Error = &JSONRPCErrorInvalidRequest
		if req.ID != nil {
			resp.ID = *req.ID
		}
		return resp, true
	}

	if req.ID == nil {
		log.Info().Str("method", req.Method).Msg("received notification, ignoring")
		return resp, false
	}
	resp.ID = *req.ID

	log.Debug().Str("method", req.Method).Str("id", req.ID.String()).Msg("received request")

	result, err := s.call(s.env(ctx, req.Params), req.Method)
	if err != nil {
		log.Warn().Err(err).Str("method", req.Method).Msg("request failed")
		obj := errorObject(err)
		resp.Error = &obj
		return resp, true
	}
	resp.Result = result
	return resp, true
}

func (s *Server) handleWSMessage(session *melody.Session, msg []byte) {
	// heartbeat
	if string(msg) == "ping" {
		if err := session.Write([]byte("pong")); err != nil {
			log.Error().Err(err).Msg("sending pong")
		}
		return
	}

	resp, reply := s.processRequest(session.Request.Context(), msg)
	if !reply {
		return
	}

	data, err := json.Marshal(resp)
	if err != nil {
		log.Error().Err(err).Msg("marshalling response")
		return
	}
	if err := session.Write(data); err != nil {
		log.Error().Err(err).Msg("sending response")
	}
}

// Broadcast sends a notification to every connected WebSocket client as a
// JSON-RPC notification object.
func (s *Server) Broadcast(notif models.Notification) error {
	data, err := json.Marshal(models.RequestObject{
		JSONRPC: "2.0",
		Method:  notif.Method,
		Params:  notif.Params,
	})
	if err != nil {
		return fmt.Errorf("marshalling notification: %w", err)
	}
	if err := s.ws.Broadcast(data); err != nil {
		return fmt.Errorf("broadcasting notification: %w", err)
	}
	return nil
}

// BroadcastNotifications forwards ns to WebSocket clients until ctx is done
// or ns is closed.
func (s *Server) BroadcastNotifications(ctx context.Context, ns <-chan models.Notification) {
	for {
		select {
		case <-ctx.Done():
			return
		case notif, ok := <-ns:
			if !ok {
				return
			}
			if err := s.Broadcast(notif); err != nil {
				log.Error().Err(err).Str("method", notif.Method).Msg("broadcasting notification")
			}
		}
	}
}

// ListenAndServe listens on the configured port and serves until ctx is
// done. Notifications from ns are streamed to WebSocket clients.
func (s *Server) ListenAndServe(ctx context.Context, ns <-chan models.Notification) error {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", ":"+strconv.Itoa(s.port))
	if err != nil {
		return fmt.Errorf("listening on port %d: %w", s.port, err)
	}
	return s.Serve(ctx, ln, ns)
}

// Serve accepts connections on ln until ctx is done, then shuts the server
// down and closes all WebSocket sessions.
func (s *Server) Serve(ctx context.Context, ln net.Listener, ns <-chan models.Notification) error {
	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: readHeaderTimeout,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	s.limiter.StartCleanup(ctx)
	go s.BroadcastNotifications(ctx, ns)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	log.Info().Str("addr", ln.Addr().String()).Msg("api server listening")

	select {
	case err := <-errCh:
		_ = s.ws.Close()
		return fmt.Errorf("api server: %w", err)
	case <-ctx.Done():
	}

	if err := s.ws.Close(); err != nil && !errors.Is(err, melody.ErrClosed) {
		log.Warn().Err(err).Msg("closing websocket sessions")
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down api server: %w", err)
	}
	<-errCh
	log.Info().Msg("api server stopped")
	return nil
}
