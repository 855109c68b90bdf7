// Package transport moves JSON-RPC calls between the client and a node.
//
// A Transport accepts a method name and positional parameters and immediately hands
// back a *Pending, the handle through which the raw result (or the failure) arrives
// later. Every implementation must be safe for concurrent use: one transport is shared
// by all namespaces of a client.
//
//	namespace A ──Send──┐
//	namespace B ──Send──┼──→ Transport ──→ node
//	namespace C ──Send──┘        │
//	                             └── resolves each *Pending exactly once
package transport

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync"
)

// ErrClosed is reported for calls submitted to, or in flight on, a closed transport.
var ErrClosed = errors.New("transport closed")

// Transport submits calls. Send never waits for the result; it may fail fast by
// returning an already resolved handle. Cancelling ctx abandons the call and resolves
// the handle with the context error if no outcome arrived yet.
type Transport interface {
	Send(ctx context.Context, method string, params []json.RawMessage) *Pending
}

// SendFunc adapts an ordinary function to the Transport interface.
type SendFunc func(ctx context.Context, method string, params []json.RawMessage) *Pending

func (f SendFunc) Send(ctx context.Context, method string, params []json.RawMessage) *Pending {
	return f(ctx, method, params)
}

// Close releases t if it holds resources.
func Close(t Transport) error {
	if c, ok := t.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// Pending is the handle of one submitted call. It resolves exactly once, either to the
// raw result payload or to an error; later resolutions are ignored.
type Pending struct {
	done      chan struct{}
	once      sync.Once
	mu        sync.Mutex
	resolved  bool
	result    json.RawMessage
	err       error
	observers []func(json.RawMessage, error)
}

func NewPending() *Pending {
	return &Pending{done: make(chan struct{})}
}

// Resolved returns a handle that already carries result.
func Resolved(result json.RawMessage) *Pending {
	p := NewPending()
	p.Resolve(result, nil)
	return p
}

// Failed returns a handle that already carries err.
func Failed(err error) *Pending {
	p := NewPending()
	p.Resolve(nil, err)
	return p
}

// Resolve settles the call and reports whether this was the first resolution.
// A non-nil err wins over result. Observers run before Done is closed.
func (p *Pending) Resolve(result json.RawMessage, err error) bool {
	first := false
	p.once.Do(func() {
		first = true
		if err != nil {
			result = nil
		}

		p.mu.Lock()
		p.result, p.err = result, err
		p.resolved = true
		observers := p.observers
		p.observers = nil
		p.mu.Unlock()

		for _, fn := range observers {
			fn(result, err)
		}
		close(p.done)
	})
	return first
}

// Done is closed once the call is resolved.
func (p *Pending) Done() <-chan struct{} {
	return p.done
}

// Result blocks until the call is resolved and returns its outcome.
func (p *Pending) Result() (json.RawMessage, error) {
	<-p.done
	return p.result, p.err
}

// Observe runs fn with the outcome once the call is resolved, immediately if it
// already is. fn runs on the resolving goroutine and must not block or wait on p.
func (p *Pending) Observe(fn func(result json.RawMessage, err error)) {
	p.mu.Lock()
	if p.resolved {
		p.mu.Unlock()
		fn(p.result, p.err)
		return
	}
	p.observers = append(p.observers, fn)
	p.mu.Unlock()
}

// Forward resolves to with the outcome of p.
func (p *Pending) Forward(to *Pending) {
	p.Observe(func(result json.RawMessage, err error) {
		to.Resolve(result, err)
	})
}
