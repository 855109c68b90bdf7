package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"web3-rpc/loadbalance"
	"web3-rpc/registry"

	"go.uber.org/zap"
)

// EndpointDialer opens a transport to one discovered endpoint.
type EndpointDialer func(ctx context.Context, endpoint registry.Endpoint) (Transport, error)

// Balanced routes every call to one of the nodes registered for a service.
//
// Per call: registry.Discover → balancer pick → cached (or freshly dialed) transport
// for that endpoint → Send. Discovery and dialing happen off the caller's goroutine,
// so Send still returns immediately.
//
// With a loadbalance.KeyedBalancer, the first parameter of a call is the routing key;
// txpool_contentFrom for one account then always reaches the same node.
type Balanced struct {
	service  string
	registry registry.Registry
	balancer loadbalance.Balancer
	dial     EndpointDialer
	logger   *zap.Logger

	mu         sync.Mutex
	transports map[string]Transport // Endpoint address → transport
	closed     bool
}

func NewBalanced(service string, reg registry.Registry, bal loadbalance.Balancer, dial EndpointDialer, logger *zap.Logger) *Balanced {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Balanced{
		service:    service,
		registry:   reg,
		balancer:   bal,
		dial:       dial,
		logger:     logger,
		transports: make(map[string]Transport),
	}
}

func (b *Balanced) Send(ctx context.Context, method string, params []json.RawMessage) *Pending {
	p := NewPending()
	go func() {
		t, err := b.pick(ctx, params)
		if err != nil {
			p.Resolve(nil, err)
			return
		}
		t.Send(ctx, method, params).Forward(p)
	}()
	return p
}

func (b *Balanced) pick(ctx context.Context, params []json.RawMessage) (Transport, error) {
	endpoints, err := b.registry.Discover(ctx, b.service)
	if err != nil {
		return nil, fmt.Errorf("discover %s: %w", b.service, err)
	}

	var endpoint *registry.Endpoint
	if keyed, ok := b.balancer.(loadbalance.KeyedBalancer); ok && len(params) > 0 {
		endpoint, err = keyed.PickKey(string(params[0]), endpoints)
	} else {
		endpoint, err = b.balancer.Pick(endpoints)
	}
	if err != nil {
		return nil, fmt.Errorf("pick %s endpoint: %w", b.service, err)
	}
	return b.transport(ctx, *endpoint)
}

// transport returns the cached transport for endpoint, dialing it on first use.
// The lock is held while dialing so that concurrent first calls share one dial.
func (b *Balanced) transport(ctx context.Context, endpoint registry.Endpoint) (Transport, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, ErrClosed
	}

	if t, ok := b.transports[endpoint.Addr]; ok {
		if m, isMux := t.(*Mux); !isMux || !m.Closed() {
			return t, nil
		}
		delete(b.transports, endpoint.Addr)
	}

	t, err := b.dial(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", endpoint.Addr, err)
	}
	b.logger.Info("connected to endpoint",
		zap.String("service", b.service),
		zap.String("addr", endpoint.Addr),
		zap.String("balancer", b.balancer.Name()))
	b.transports[endpoint.Addr] = t
	return t, nil
}

// Close releases every dialed transport.
func (b *Balanced) Close() error {
	b.mu.Lock()
	b.closed = true
	transports := b.transports
	b.transports = make(map[string]Transport)
	b.mu.Unlock()

	var errs []error
	for _, t := range transports {
		if err := Close(t); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
