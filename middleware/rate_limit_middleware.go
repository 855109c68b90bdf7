package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"web3-rpc/transport"

	"golang.org/x/time/rate"
)

var ErrRateLimited = errors.New("rate limit exceeded")

// RateLimit admits r calls per second with bursts of up to burst calls, using a
// token bucket. Calls over the limit fail at once with ErrRateLimited and never reach
// the node.
func RateLimit(r float64, burst int) Middleware {
	limiter := rate.NewLimiter(rate.Limit(r), burst)
	return func(next transport.Transport) transport.Transport {
		return transport.SendFunc(func(ctx context.Context, method string, params []json.RawMessage) *transport.Pending {
			if !limiter.Allow() {
				return transport.Failed(ErrRateLimited)
			}
			return next.Send(ctx, method, params)
		})
	}
}
