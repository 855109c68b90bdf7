package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
)

// MuxDialer opens one multiplexed connection.
type MuxDialer func(ctx context.Context) (*Mux, error)

// Pool spreads calls over a fixed number of multiplexed connections to one node.
//
// One Mux already carries any number of concurrent calls, but a single socket also
// means a single reader goroutine and head-of-line blocking behind large replies such
// as txpool_content. A few connections in parallel avoid that. Connections that
// break are replaced on the next call that lands on their slot.
type Pool struct {
	dial     MuxDialer
	next     atomic.Uint64
	redialMu sync.Mutex // Serializes redials so a dead slot is replaced only once

	mu     sync.Mutex
	conns  []*Mux
	closed bool
}

// NewPool dials size connections up front.
func NewPool(ctx context.Context, size int, dial MuxDialer) (*Pool, error) {
	if size < 1 {
		return nil, fmt.Errorf("pool size must be positive, got %d", size)
	}
	p := &Pool{dial: dial, conns: make([]*Mux, 0, size)}
	for i := 0; i < size; i++ {
		m, err := dial(ctx)
		if err != nil {
			p.Close()
			return nil, err
		}
		p.conns = append(p.conns, m)
	}
	return p, nil
}

func (p *Pool) Send(ctx context.Context, method string, params []json.RawMessage) *Pending {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return Failed(ErrClosed)
	}
	slot := int(p.next.Add(1) % uint64(len(p.conns)))
	m := p.conns[slot]
	p.mu.Unlock()

	if !m.Closed() {
		return m.Send(ctx, method, params)
	}

	pending := NewPending()
	go func() {
		fresh, err := p.redial(ctx, slot, m)
		if err != nil {
			pending.Resolve(nil, err)
			return
		}
		fresh.Send(ctx, method, params).Forward(pending)
	}()
	return pending
}

// redial replaces the connection in slot unless another call already did.
func (p *Pool) redial(ctx context.Context, slot int, dead *Mux) (*Mux, error) {
	p.redialMu.Lock()
	defer p.redialMu.Unlock()

	p.mu.Lock()
	current, closed := p.conns[slot], p.closed
	p.mu.Unlock()
	if closed {
		return nil, ErrClosed
	}
	if current != dead && !current.Closed() {
		return current, nil
	}

	m, err := p.dial(ctx)
	if err != nil {
		return nil, fmt.Errorf("redial: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		m.Close()
		return nil, ErrClosed
	}
	p.conns[slot] = m
	return m, nil
}

// Size returns the number of connection slots.
func (p *Pool) Size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.conns)
}

// Close shuts every connection down.
func (p *Pool) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	conns := p.conns
	p.mu.Unlock()

	var errs []error
	for _, m := range conns {
		if err := m.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
