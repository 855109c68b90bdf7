package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"time"
	"web3-rpc/transport"
)

var ErrTimeout = errors.New("request timed out")

// Timeout fails calls that produce no outcome within d with ErrTimeout. The inner
// call's context is cancelled so the transport can drop its bookkeeping.
func Timeout(d time.Duration) Middleware {
	return func(next transport.Transport) transport.Transport {
		return transport.SendFunc(func(ctx context.Context, method string, params []json.RawMessage) *transport.Pending {
			ctx, cancel := context.WithTimeoutCause(ctx, d, ErrTimeout)

			out := transport.NewPending()
			stop := context.AfterFunc(ctx, func() {
				out.Resolve(nil, context.Cause(ctx))
			})
			out.Observe(func(json.RawMessage, error) {
				stop()
				cancel()
			})

			next.Send(ctx, method, params).Forward(out)
			return out
		})
	}
}
