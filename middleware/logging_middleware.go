package middleware

import (
	"context"
	"encoding/json"
	"time"
	"web3-rpc/transport"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Logging writes one entry per resolved call. Failures are logged at warn level,
// successes at debug.
func Logging(logger *zap.Logger) Middleware {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(next transport.Transport) transport.Transport {
		return transport.SendFunc(func(ctx context.Context, method string, params []json.RawMessage) *transport.Pending {
			callID := uuid.NewString()
			start := time.Now()

			p := next.Send(ctx, method, params)
			p.Observe(func(result json.RawMessage, err error) {
				fields := []zap.Field{
					zap.String("call_id", callID),
					zap.String("method", method),
					zap.Duration("duration", time.Since(start)),
				}
				if err != nil {
					logger.Warn("call failed", append(fields, zap.Error(err))...)
					return
				}
				logger.Debug("call completed", append(fields, zap.Int("bytes", len(result)))...)
			})
			return p
		})
	}
}
