package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"syscall"
	"time"
	"web3-rpc/message"
	"web3-rpc/transport"
)

// MaxBackoff caps the wait between two attempts.
const MaxBackoff = time.Minute

// Retry resends a call up to maxRetries times when it fails at the connection level,
// waiting baseDelay, 2*baseDelay, 4*baseDelay... in between, at most MaxBackoff. Calls
// the node rejected are never resent. Waiting happens on timers, so Send still returns
// immediately. Cancelling ctx resolves the call at once, even during a backoff.
func Retry(maxRetries int, baseDelay time.Duration) Middleware {
	return func(next transport.Transport) transport.Transport {
		return transport.SendFunc(func(ctx context.Context, method string, params []json.RawMessage) *transport.Pending {
			out := transport.NewPending()
			stop := context.AfterFunc(ctx, func() {
				out.Resolve(nil, context.Cause(ctx))
			})
			out.Observe(func(json.RawMessage, error) { stop() })

			var attempt func(n int)
			attempt = func(n int) {
				if ctx.Err() != nil {
					return
				}
				next.Send(ctx, method, params).Observe(func(result json.RawMessage, err error) {
					if err == nil || n >= maxRetries || !Retryable(err) {
						out.Resolve(result, err)
						return
					}
					if ctx.Err() != nil {
						out.Resolve(nil, context.Cause(ctx))
						return
					}
					time.AfterFunc(Backoff(baseDelay, n), func() { attempt(n + 1) })
				})
			}
			attempt(0)
			return out
		})
	}
}

// Backoff is the wait before retry n+1: base doubled n times, capped at MaxBackoff.
func Backoff(base time.Duration, n int) time.Duration {
	if base <= 0 {
		return 0
	}
	if base >= MaxBackoff || n >= 63 || base > MaxBackoff>>n {
		return MaxBackoff
	}
	return base << n
}

// Retryable reports whether err is a connection-level failure worth resending.
func Retryable(err error) bool {
	var rpcErr *message.Error
	if errors.As(err, &rpcErr) {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.EPIPE) || errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
