package transport

import (
	"context"
	"encoding/json"
	"slices"
	"sync"
	"web3-rpc/message"
)

// Call is one submission recorded by Mock.
type Call struct {
	Method string
	Params []json.RawMessage
}

// MockHandler produces the outcome of one call.
type MockHandler func(ctx context.Context, params []json.RawMessage) (json.RawMessage, error)

// Mock is an in-process transport with scripted replies. Every submission is recorded
// before Send returns; handlers run on their own goroutine like a real round trip.
type Mock struct {
	mu       sync.Mutex
	handlers map[string]MockHandler
	failAll  error
	calls    []Call
}

func NewMock() *Mock {
	return &Mock{handlers: make(map[string]MockHandler)}
}

// Handle installs h for method.
func (m *Mock) Handle(method string, h MockHandler) *Mock {
	m.mu.Lock()
	m.handlers[method] = h
	m.mu.Unlock()
	return m
}

// Reply answers method with a fixed raw JSON result.
func (m *Mock) Reply(method string, result string) *Mock {
	raw := json.RawMessage(result)
	return m.Handle(method, func(context.Context, []json.RawMessage) (json.RawMessage, error) {
		return raw, nil
	})
}

// Fail answers method with err.
func (m *Mock) Fail(method string, err error) *Mock {
	return m.Handle(method, func(context.Context, []json.RawMessage) (json.RawMessage, error) {
		return nil, err
	})
}

// FailAll makes every call fail with err, as an unreachable node would.
func (m *Mock) FailAll(err error) *Mock {
	m.mu.Lock()
	m.failAll = err
	m.mu.Unlock()
	return m
}

func (m *Mock) Send(ctx context.Context, method string, params []json.RawMessage) *Pending {
	m.mu.Lock()
	m.calls = append(m.calls, Call{Method: method, Params: slices.Clone(params)})
	h, ok := m.handlers[method]
	failAll := m.failAll
	m.mu.Unlock()

	if failAll != nil {
		return Failed(failAll)
	}
	if !ok {
		return Failed(message.ErrMethodNotFound(method))
	}

	p := NewPending()
	go func() {
		p.Resolve(h(ctx, params))
	}()
	if ctx.Done() != nil {
		stop := context.AfterFunc(ctx, func() {
			p.Resolve(nil, context.Cause(ctx))
		})
		p.Observe(func(json.RawMessage, error) { stop() })
	}
	return p
}

// Calls returns every submission so far, in order.
func (m *Mock) Calls() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.calls)
}

// Reset forgets recorded calls.
func (m *Mock) Reset() {
	m.mu.Lock()
	m.calls = nil
	m.mu.Unlock()
}
