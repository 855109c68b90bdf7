// Package server is a JSON-RPC 2.0 node server used for development and tests.
// Receivers are registered under a namespace and their exported methods become
// remote methods named {namespace}_{method}.
//
// Request processing pipeline:
//
//	Accept conn → ServeConn (single goroutine reads messages)
//	  → for each message: go Handle (parallel processing)
//	    → decode request → callback (reflect.Call) → encode response → write under conn lock
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"
	"web3-rpc/message"
	"web3-rpc/protocol"
	"web3-rpc/registry"
	"web3-rpc/transport"

	"go.uber.org/zap"
)

// Server dispatches JSON-RPC requests to registered receivers.
type Server struct {
	logger *zap.Logger

	mu        sync.RWMutex
	services  map[string]*service // "txpool" → *service
	listeners map[net.Listener]struct{}
	conns     map[transport.MessageConn]struct{}

	wg       sync.WaitGroup // Tracks in-flight requests for graceful shutdown
	shutdown atomic.Bool    // Set during shutdown to suppress Accept errors

	registry registry.Registry // Nil unless Advertise was called
	service  string
	endpoint registry.Endpoint
}

func NewServer(logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		logger:    logger,
		services:  make(map[string]*service),
		listeners: make(map[net.Listener]struct{}),
		conns:     make(map[transport.MessageConn]struct{}),
	}
}

// RegisterName exposes the methods of rcvr under namespace. Registering the same
// namespace twice merges the method sets.
func (s *Server) RegisterName(namespace string, rcvr any) error {
	if namespace == "" || strings.Contains(namespace, "_") {
		return fmt.Errorf("rpc: invalid namespace %q", namespace)
	}
	svc, err := newService(namespace, rcvr)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.services[namespace]; ok {
		for name, cb := range svc.callbacks {
			existing.callbacks[name] = cb
		}
		return nil
	}
	s.services[namespace] = svc
	return nil
}

// Methods lists every registered remote method name, sorted.
func (s *Server) Methods() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var names []string
	for namespace, svc := range s.services {
		for name := range svc.callbacks {
			names = append(names, namespace+"_"+name)
		}
	}
	slices.Sort(names)
	return names
}

// Handle processes one request body, single or batch, and returns the encoded
// response. It returns nil when every request was a notification.
func (s *Server) Handle(ctx context.Context, body []byte) []byte {
	if !s.enter() {
		return s.encode(message.NewErrorResponse(nil, message.NewError(message.CodeServerError, "server is shutting down")))
	}
	defer s.wg.Done()

	body = bytes.TrimSpace(body)
	if len(body) > 0 && body[0] == '[' {
		var batch []json.RawMessage
		if err := json.Unmarshal(body, &batch); err != nil {
			return s.encode(message.NewErrorResponse(nil, message.ErrParse(err.Error())))
		}
		if len(batch) == 0 {
			return s.encode(message.NewErrorResponse(nil, message.ErrInvalidRequest("empty batch")))
		}
		responses := make([]*message.Response, 0, len(batch))
		for _, raw := range batch {
			if resp := s.handleMessage(ctx, raw); resp != nil {
				responses = append(responses, resp)
			}
		}
		if len(responses) == 0 {
			return nil
		}
		return s.encode(responses)
	}

	resp := s.handleMessage(ctx, body)
	if resp == nil {
		return nil
	}
	return s.encode(resp)
}

// enter counts a request as in flight unless shutdown has begun. Shutdown sets the flag
// under s.mu before it waits, so no Add can follow the Wait.
func (s *Server) enter() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.shutdown.Load() {
		return false
	}
	s.wg.Add(1)
	return true
}

func (s *Server) handleMessage(ctx context.Context, raw json.RawMessage) *message.Response {
	var req message.Request
	if err := json.Unmarshal(raw, &req); err != nil {
		var syntaxErr *json.SyntaxError
		if errors.As(err, &syntaxErr) || len(raw) == 0 {
			return message.NewErrorResponse(nil, message.ErrParse(err.Error()))
		}
		return message.NewErrorResponse(nil, message.ErrInvalidRequest(err.Error()))
	}
	if req.JSONRPC != message.Version || req.Method == "" {
		return message.NewErrorResponse(req.ID, message.ErrInvalidRequest("not a JSON-RPC 2.0 call"))
	}

	start := time.Now()
	result, err := s.call(ctx, req.Method, req.Params)
	s.logger.Debug("served call",
		zap.String("method", req.Method),
		zap.ByteString("id", req.ID),
		zap.Duration("duration", time.Since(start)),
		zap.Error(err),
	)
	if req.IsNotification() {
		return nil
	}
	if err != nil {
		return message.NewErrorResponse(req.ID, toError(err))
	}

	data, err := json.Marshal(result)
	if err != nil {
		return message.NewErrorResponse(req.ID, message.ErrInternal(err.Error()))
	}
	return message.NewResult(req.ID, data)
}

func (s *Server) call(ctx context.Context, method string, params []json.RawMessage) (result any, err error) {
	namespace, name, ok := strings.Cut(method, "_")
	if !ok {
		return nil, message.ErrMethodNotFound(method)
	}
	s.mu.RLock()
	svc := s.services[namespace]
	s.mu.RUnlock()
	if svc == nil || svc.callbacks[name] == nil {
		return nil, message.ErrMethodNotFound(method)
	}

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("method handler panicked", zap.String("method", method), zap.Any("panic", r), zap.Stack("stack"))
			result, err = nil, message.ErrInternal("method handler crashed")
		}
	}()
	return svc.callbacks[name].call(ctx, params)
}

// toError converts a handler error into a JSON-RPC error object. Errors carrying
// their own code (ErrorCode() int) and data (ErrorData() any) keep them; every other
// error is reported as a generic server error.
func toError(err error) *message.Error {
	var rpcErr *message.Error
	if errors.As(err, &rpcErr) {
		return rpcErr
	}

	out := &message.Error{Code: message.CodeServerError, Message: err.Error()}
	var coded interface{ ErrorCode() int }
	if errors.As(err, &coded) {
		out.Code = coded.ErrorCode()
	}
	var withData interface{ ErrorData() any }
	if errors.As(err, &withData) {
		if data, err := json.Marshal(withData.ErrorData()); err == nil {
			out.Data = data
		}
	}
	return out
}

func (s *Server) encode(v any) []byte {
	data, err := json.Marshal(v)
	if err != nil {
		s.logger.Error("failed to encode response", zap.Error(err))
		data, _ = json.Marshal(message.NewErrorResponse(nil, message.ErrInternal("response encoding failed")))
	}
	return data
}

// Serve listens on address and serves stream connections until Shutdown.
func (s *Server) Serve(network, address string, framing protocol.Framing) error {
	ln, err := net.Listen(network, address)
	if err != nil {
		return err
	}
	return s.ServeListener(ln, framing)
}

// ServeListener accepts connections on ln, one goroutine per connection.
func (s *Server) ServeListener(ln net.Listener, framing protocol.Framing) error {
	s.mu.Lock()
	if s.shutdown.Load() {
		s.mu.Unlock()
		return ln.Close()
	}
	s.listeners[ln] = struct{}{}
	s.mu.Unlock()

	s.logger.Info("serving",
		zap.String("network", ln.Addr().Network()),
		zap.String("addr", ln.Addr().String()),
		zap.String("framing", string(framing)),
	)
	for {
		conn, err := ln.Accept()
		if err != nil {
			// Closing the listener during shutdown makes Accept fail
			if s.shutdown.Load() {
				return nil
			}
			return err
		}
		go s.ServeConn(protocol.NewConn(conn, framing))
	}
}

// ServeConn reads requests from conn until it fails or the server shuts down.
// Reads are sequential, but each request is handled on its own goroutine so a slow
// method never holds up the ones behind it. Responses share a per-connection write
// lock so that frames never interleave.
func (s *Server) ServeConn(conn transport.MessageConn) {
	if !s.trackConn(conn) {
		conn.Close()
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer func() {
		cancel()
		s.untrackConn(conn)
		conn.Close()
	}()

	writeMu := &sync.Mutex{}
	for {
		msg, err := conn.ReadMessage()
		if err != nil {
			if !s.shutdown.Load() && !errors.Is(err, io.EOF) {
				s.logger.Debug("connection closed", zap.Error(err))
			}
			return
		}
		go func() {
			resp := s.Handle(ctx, msg)
			if resp == nil {
				return
			}
			writeMu.Lock()
			defer writeMu.Unlock()
			if err := conn.WriteMessage(resp); err != nil {
				s.logger.Debug("failed to write response", zap.Error(err))
			}
		}()
	}
}

func (s *Server) trackConn(conn transport.MessageConn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.shutdown.Load() {
		return false
	}
	s.conns[conn] = struct{}{}
	return true
}

func (s *Server) untrackConn(conn transport.MessageConn) {
	s.mu.Lock()
	delete(s.conns, conn)
	s.mu.Unlock()
}

// Advertise registers endpoint under service in reg. Shutdown deregisters it.
func (s *Server) Advertise(ctx context.Context, reg registry.Registry, service string, endpoint registry.Endpoint, ttl int64) error {
	if err := reg.Register(ctx, service, endpoint, ttl); err != nil {
		return fmt.Errorf("advertise %s: %w", endpoint.Addr, err)
	}
	s.mu.Lock()
	s.registry, s.service, s.endpoint = reg, service, endpoint
	s.mu.Unlock()
	return nil
}

// Shutdown performs graceful shutdown:
//  1. Deregister from the registry so clients stop routing here
//  2. Close every listener
//  3. Wait for in-flight requests to finish (with timeout)
//  4. Close the remaining connections
func (s *Server) Shutdown(timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	s.mu.RLock()
	reg, service, endpoint := s.registry, s.service, s.endpoint
	s.mu.RUnlock()
	if reg != nil {
		if err := reg.Deregister(ctx, service, endpoint.Addr); err != nil {
			s.logger.Warn("failed to deregister", zap.String("service", service), zap.Error(err))
		}
	}

	s.mu.Lock()
	s.shutdown.Store(true)
	for ln := range s.listeners {
		ln.Close()
	}
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	var err error
	select {
	case <-done:
	case <-ctx.Done():
		err = fmt.Errorf("timeout waiting for ongoing requests to finish")
	}

	s.mu.Lock()
	for conn := range s.conns {
		conn.Close()
	}
	s.mu.Unlock()
	return err
}
