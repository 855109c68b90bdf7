package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
	"web3-rpc/config"
	"web3-rpc/loadbalance"
	"web3-rpc/middleware"
	"web3-rpc/protocol"
	"web3-rpc/registry"
	"web3-rpc/transport"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

const etcdDialTimeout = 5 * time.Second

type options struct {
	logger      *zap.Logger
	metrics     prometheus.Registerer
	httpClient  *http.Client
	middlewares []middleware.Middleware
}

type Option func(*options)

// WithLogger logs every call and connection event to logger.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithMetrics registers call metrics with reg.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(o *options) { o.metrics = reg }
}

// WithHTTPClient replaces http.DefaultClient for HTTP endpoints.
func WithHTTPClient(client *http.Client) Option {
	return func(o *options) { o.httpClient = client }
}

// WithMiddleware adds middlewares inside the ones built from the configuration.
func WithMiddleware(middlewares ...middleware.Middleware) Option {
	return func(o *options) { o.middlewares = append(o.middlewares, middlewares...) }
}

// Dial connects as cfg describes and wraps the transport in the configured
// middleware: logging, metrics, timeout, rate limit and retry, outermost first.
func Dial(ctx context.Context, cfg *config.Config, opts ...Option) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	o := &options{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(o)
	}

	t, err := dialTransport(ctx, cfg, o)
	if err != nil {
		return nil, err
	}

	var chain []middleware.Middleware
	chain = append(chain, middleware.Logging(o.logger))
	if o.metrics != nil {
		chain = append(chain, middleware.Metrics(o.metrics))
	}
	if cfg.Timeout > 0 {
		chain = append(chain, middleware.Timeout(cfg.Timeout))
	}
	if cfg.RateLimit > 0 {
		chain = append(chain, middleware.RateLimit(cfg.RateLimit, cfg.RateBurst))
	}
	if cfg.Retries > 0 {
		chain = append(chain, middleware.Retry(cfg.Retries, cfg.RetryDelay))
	}
	chain = append(chain, o.middlewares...)
	return New(t, chain...), nil
}

func dialTransport(ctx context.Context, cfg *config.Config, o *options) (transport.Transport, error) {
	if len(cfg.EtcdEndpoints) == 0 {
		return dialURL(ctx, cfg.URL, cfg, o)
	}

	reg, err := registry.NewEtcdRegistry(cfg.EtcdEndpoints, etcdDialTimeout, o.logger)
	if err != nil {
		return nil, fmt.Errorf("connect etcd: %w", err)
	}
	bal, err := loadbalance.New(cfg.Balancer)
	if err != nil {
		reg.Close()
		return nil, err
	}
	dial := func(ctx context.Context, endpoint registry.Endpoint) (transport.Transport, error) {
		return dialURL(ctx, endpoint.Addr, cfg, o)
	}
	return &discovery{
		Balanced: transport.NewBalanced(cfg.Service, reg, bal, dial, o.logger),
		registry: reg,
	}, nil
}

// discovery is a Balanced transport that also owns its registry connection.
type discovery struct {
	*transport.Balanced
	registry *registry.EtcdRegistry
}

func (d *discovery) Close() error {
	return errors.Join(d.Balanced.Close(), d.registry.Close())
}

// Kind returns the transport kind for rawurl: http(s), ws(s), tcp, ipc or unix
// schemes, and plain file paths for IPC.
func Kind(rawurl string) (string, error) {
	if !strings.Contains(rawurl, "://") {
		if rawurl == "" {
			return "", errors.New("empty endpoint")
		}
		return config.TransportIPC, nil
	}
	u, err := url.Parse(rawurl)
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "http", "https":
		return config.TransportHTTP, nil
	case "ws", "wss":
		return config.TransportWS, nil
	case "tcp":
		return config.TransportTCP, nil
	case "ipc", "unix":
		return config.TransportIPC, nil
	}
	return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
}

func dialURL(ctx context.Context, rawurl string, cfg *config.Config, o *options) (transport.Transport, error) {
	kind := cfg.Transport
	if kind == config.TransportAuto {
		var err error
		if kind, err = Kind(rawurl); err != nil {
			return nil, err
		}
	}

	var dial transport.MuxDialer
	switch kind {
	case config.TransportHTTP:
		return transport.NewHTTP(rawurl, o.httpClient), nil
	case config.TransportGeth:
		return transport.DialGeth(ctx, rawurl)
	case config.TransportWS:
		dial = func(ctx context.Context) (*transport.Mux, error) {
			return transport.DialWebSocket(ctx, rawurl, nil, o.logger)
		}
	case config.TransportTCP:
		framing, err := protocol.ParseFraming(cfg.Framing)
		if err != nil {
			return nil, err
		}
		addr := strings.TrimPrefix(rawurl, "tcp://")
		dial = func(ctx context.Context) (*transport.Mux, error) {
			return transport.DialTCP(ctx, addr, framing, o.logger)
		}
	case config.TransportIPC:
		path := strings.TrimPrefix(strings.TrimPrefix(rawurl, "ipc://"), "unix://")
		dial = func(ctx context.Context) (*transport.Mux, error) {
			return transport.DialIPC(ctx, path, o.logger)
		}
	default:
		return nil, fmt.Errorf("unknown transport %q", kind)
	}

	if cfg.PoolSize > 1 {
		return transport.NewPool(ctx, cfg.PoolSize, dial)
	}
	return dial(ctx)
}
