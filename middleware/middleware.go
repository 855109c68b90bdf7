// Package middleware decorates a transport.Transport with cross-cutting behaviour.
// Decorators never look inside results; they only observe or reshape the pending
// handle of each call.
package middleware

import "web3-rpc/transport"

type Middleware func(next transport.Transport) transport.Transport

// Chain composes middlewares so that the first one listed is the outermost.
func Chain(middlewares ...Middleware) Middleware {
	return func(next transport.Transport) transport.Transport {
		for i := len(middlewares) - 1; i >= 0; i-- {
			next = middlewares[i](next)
		}
		return next
	}
}
