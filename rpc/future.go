// Package rpc turns raw JSON-RPC calls into typed results.
//
// A namespace method submits one call on the shared transport and wraps the returned
// handle in a CallFuture[T]. The future decodes the payload into T the first time
// it is observed and keeps that outcome:
//
//	Txpool.Status(ctx) ──Send──→ transport ──→ *transport.Pending
//	                                                │
//	CallFuture[TxpoolStatus].Await(ctx) ◄───────────┘ decode once, cache (value | error)
package rpc

import (
	"context"
	"encoding/json"
	"sync"
	"web3-rpc/codec"
	"web3-rpc/transport"
)

// State is where a future stands.
type State int

const (
	StatePending State = iota
	StateSucceeded
	StateTransportFailed
	StateDecodeFailed
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateSucceeded:
		return "succeeded"
	case StateTransportFailed:
		return "transport failed"
	case StateDecodeFailed:
		return "decode failed"
	}
	return "unknown"
}

// CallFuture is the typed result of one call. It resolves exactly once: every
// observation after the first returns the same value or the same error, without
// touching the transport or decoding again.
//
// A future holds no goroutine of its own; the transport drives the call.
type CallFuture[T any] struct {
	method  string
	pending *transport.Pending

	once  sync.Once
	value T
	err   error
	state State
}

// NewCallFuture wraps a pending call whose result decodes into T.
func NewCallFuture[T any](method string, pending *transport.Pending) *CallFuture[T] {
	return &CallFuture[T]{method: method, pending: pending}
}

// Method returns the remote method name of the call.
func (f *CallFuture[T]) Method() string {
	return f.method
}

// Done is closed once the transport has an outcome.
func (f *CallFuture[T]) Done() <-chan struct{} {
	return f.pending.Done()
}

// Await blocks until the call resolves or ctx is done.
//
// If ctx ends first, Await returns a *TransportError wrapping the context error, but
// the future itself stays unresolved: a later Await can still observe the outcome.
func (f *CallFuture[T]) Await(ctx context.Context) (T, error) {
	select {
	case <-f.pending.Done():
	default:
		select {
		case <-f.pending.Done():
		case <-ctx.Done():
			var zero T
			return zero, &TransportError{Method: f.method, Err: context.Cause(ctx)}
		}
	}
	f.once.Do(f.resolve)
	return f.value, f.err
}

// Poll returns the outcome if the call has resolved, without blocking.
func (f *CallFuture[T]) Poll() (value T, done bool, err error) {
	select {
	case <-f.pending.Done():
	default:
		return value, false, nil
	}
	f.once.Do(f.resolve)
	return f.value, true, f.err
}

// State reports the current state without blocking.
func (f *CallFuture[T]) State() State {
	if _, done, _ := f.Poll(); !done {
		return StatePending
	}
	return f.state
}

func (f *CallFuture[T]) resolve() {
	raw, err := f.pending.Result()
	if err != nil {
		// no payload, nothing to decode
		f.err = &TransportError{Method: f.method, Err: err}
		f.state = StateTransportFailed
		return
	}
	value, err := codec.Decode[T](raw)
	if err != nil {
		f.err = newDecodeError(f.method, err)
		f.state = StateDecodeFailed
		return
	}
	f.value = value
	f.state = StateSucceeded
}

// Call submits method on t and returns the future of its result.
func Call[T any](ctx context.Context, t transport.Transport, method string, params ...json.RawMessage) *CallFuture[T] {
	return NewCallFuture[T](method, t.Send(ctx, method, codec.Params(params...)))
}
