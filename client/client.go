// Package client is the entry point of the library. A Client owns one transport and
// hands out namespaces that share it:
//
//	c, err := client.Dial(ctx, cfg)
//	status, err := c.Txpool().Status(ctx).Await(ctx)
package client

import (
	"context"
	"encoding/json"
	"web3-rpc/api"
	"web3-rpc/middleware"
	"web3-rpc/rpc"
	"web3-rpc/transport"
)

type Client struct {
	base      transport.Transport // Owns connections, released by Close
	transport transport.Transport // base behind the middleware chain

	txpool api.Txpool
	net    api.Net
	web3   api.Web3
}

// New wraps t in middlewares, the first one outermost. The client takes ownership of
// t and closes it in Close.
func New(t transport.Transport, middlewares ...middleware.Middleware) *Client {
	wrapped := middleware.Chain(middlewares...)(t)
	return &Client{
		base:      t,
		transport: wrapped,
		txpool:    api.NewTxpool(wrapped),
		net:       api.NewNet(wrapped),
		web3:      api.NewWeb3(wrapped),
	}
}

func (c *Client) Txpool() api.Txpool {
	return c.txpool
}

func (c *Client) Net() api.Net {
	return c.net
}

func (c *Client) Web3() api.Web3 {
	return c.web3
}

// Transport returns the transport every namespace submits through, middleware
// included.
func (c *Client) Transport() transport.Transport {
	return c.transport
}

// Call submits any method and leaves the result undecoded.
func (c *Client) Call(ctx context.Context, method string, params ...json.RawMessage) *rpc.CallFuture[json.RawMessage] {
	return rpc.Call[json.RawMessage](ctx, c.transport, method, params...)
}

// Close releases the underlying transport. Calls in flight fail.
func (c *Client) Close() error {
	return transport.Close(c.base)
}

// Attach binds a namespace defined outside this module to the client's transport:
//
//	type Eth struct{ rpc.Namespace }
//	eth := client.Attach(c, func(t transport.Transport) Eth { return Eth{rpc.NewNamespace(t)} })
func Attach[N any](c *Client, newNamespace func(transport.Transport) N) N {
	return newNamespace(c.transport)
}
