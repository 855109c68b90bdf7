package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"time"
	"web3-rpc/message"
	"web3-rpc/transport"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Call outcomes as seen by the transport.
const (
	OutcomeOK          = "ok"
	OutcomeRemoteError = "remote_error"
	OutcomeError       = "error"
)

// Metrics counts calls per method and outcome and records their latency. The
// collectors are registered with reg; a nil reg leaves them unregistered.
func Metrics(reg prometheus.Registerer) Middleware {
	factory := promauto.With(reg)
	calls := factory.NewCounterVec(prometheus.CounterOpts{
		Name: "web3rpc_calls_total",
		Help: "JSON-RPC calls by method and outcome.",
	}, []string{"method", "outcome"})
	duration := factory.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "web3rpc_call_duration_seconds",
		Help:    "Time from submission to resolution of a JSON-RPC call.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method"})

	return func(next transport.Transport) transport.Transport {
		return transport.SendFunc(func(ctx context.Context, method string, params []json.RawMessage) *transport.Pending {
			start := time.Now()
			p := next.Send(ctx, method, params)
			p.Observe(func(_ json.RawMessage, err error) {
				duration.WithLabelValues(method).Observe(time.Since(start).Seconds())
				calls.WithLabelValues(method, outcome(err)).Inc()
			})
			return p
		})
	}
}

func outcome(err error) string {
	var rpcErr *message.Error
	switch {
	case err == nil:
		return OutcomeOK
	case errors.As(err, &rpcErr):
		return OutcomeRemoteError
	default:
		return OutcomeError
	}
}
