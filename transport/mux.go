package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"web3-rpc/message"

	"go.uber.org/zap"
)

// MessageConn is a connection that carries whole JSON-RPC messages.
// protocol.Conn (TCP, Unix sockets) and the WebSocket adapter implement it.
type MessageConn interface {
	ReadMessage() ([]byte, error)
	WriteMessage(msg []byte) error
	Close() error
}

// Mux multiplexes concurrent calls over a single connection.
// Each request gets a unique id, and a background goroutine (recvLoop) continuously
// reads responses and routes them to the matching *Pending.
//
//	goroutine-1 ──Send(id=1)──┐
//	goroutine-2 ──Send(id=2)──┼──→ single conn ──→ node
//	goroutine-3 ──Send(id=3)──┘
//
//	recvLoop:  ←── response(id=2) → pending[2].Resolve → goroutine-2's future wakes up
type Mux struct {
	conn    MessageConn
	logger  *zap.Logger
	seq     uint64     // Last issued request id (protected by sending mutex)
	pending sync.Map   // map[uint64]*Pending
	sending sync.Mutex // Writes are serialized so two messages never interleave on the wire
	closing atomic.Bool
	done    chan struct{} // Closed when the receive loop stops
	err     error         // Why the receive loop stopped, set before done is closed
}

// NewMux takes ownership of conn and starts the receive loop.
func NewMux(conn MessageConn, logger *zap.Logger) *Mux {
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &Mux{
		conn:   conn,
		logger: logger,
		done:   make(chan struct{}),
	}
	go m.recvLoop()
	return m
}

// Send writes the request and returns its handle.
//
// The handle is registered BEFORE the write so that a fast response can never race
// past an unregistered id.
func (m *Mux) Send(ctx context.Context, method string, params []json.RawMessage) *Pending {
	select {
	case <-m.done:
		return Failed(m.err)
	default:
	}

	p := NewPending()

	m.sending.Lock()
	m.seq++
	id := m.seq
	body, err := json.Marshal(message.NewRequest(id, method, params))
	if err != nil {
		m.sending.Unlock()
		p.Resolve(nil, fmt.Errorf("marshal request: %w", err))
		return p
	}
	m.pending.Store(id, p)
	err = m.conn.WriteMessage(body)
	m.sending.Unlock()

	if err != nil {
		m.pending.Delete(id)
		p.Resolve(nil, fmt.Errorf("write request: %w", err))
		return p
	}

	// The receive loop may have stopped between the check above and the store; its
	// sweep might have missed this id.
	select {
	case <-m.done:
		m.fail(id, m.err)
		return p
	default:
	}

	if ctx.Done() != nil {
		stop := context.AfterFunc(ctx, func() {
			m.fail(id, context.Cause(ctx))
		})
		p.Observe(func(json.RawMessage, error) { stop() })
	}
	return p
}

// fail resolves one pending call unless a response already claimed it.
func (m *Mux) fail(id uint64, err error) {
	if v, ok := m.pending.LoadAndDelete(id); ok {
		v.(*Pending).Resolve(nil, err)
	}
}

// recvLoop runs in a dedicated goroutine, reading one message after another.
// Responses can arrive in any order; each one is routed by id. Reads must be
// sequential because the stream can only be parsed by a single reader.
func (m *Mux) recvLoop() {
	for {
		body, err := m.conn.ReadMessage()
		if err != nil {
			if m.closing.Load() {
				err = ErrClosed
			} else {
				m.logger.Warn("connection lost", zap.Error(err))
				err = fmt.Errorf("connection lost: %w", err)
			}
			m.closeAllPending(err)
			return
		}

		var resp message.Response
		if err := json.Unmarshal(body, &resp); err != nil {
			m.logger.Debug("dropping malformed message", zap.Error(err))
			continue
		}
		id, ok := message.DecodeID(resp.ID)
		if !ok {
			// notifications and replies to foreign ids are not ours to route
			m.logger.Debug("dropping message without call id", zap.ByteString("id", resp.ID))
			continue
		}
		if v, ok := m.pending.LoadAndDelete(id); ok {
			v.(*Pending).Resolve(resp.Outcome())
		}
	}
}

// closeAllPending is called when the connection breaks. Every in-flight call fails
// with err so no future waits forever.
func (m *Mux) closeAllPending(err error) {
	m.err = err
	close(m.done)
	m.pending.Range(func(key, value any) bool {
		m.fail(key.(uint64), err)
		return true
	})
}

// Done is closed once the connection is gone.
func (m *Mux) Done() <-chan struct{} {
	return m.done
}

// Closed reports whether the connection is gone.
func (m *Mux) Closed() bool {
	select {
	case <-m.done:
		return true
	default:
		return false
	}
}

// Err returns why the connection is gone, nil while it is alive.
func (m *Mux) Err() error {
	select {
	case <-m.done:
		return m.err
	default:
		return nil
	}
}

// Close shuts the connection down; in-flight calls fail with ErrClosed.
func (m *Mux) Close() error {
	if !m.closing.CompareAndSwap(false, true) {
		return nil
	}
	err := m.conn.Close()
	<-m.done
	return err
}
