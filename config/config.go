// Package config loads client and node settings from the environment.
package config

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
	"web3-rpc/loadbalance"
	"web3-rpc/protocol"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
	"go.uber.org/zap/zapcore"
)

// Transport kinds. TransportAuto picks one from the URL scheme.
const (
	TransportAuto = "auto"
	TransportHTTP = "http"
	TransportWS   = "ws"
	TransportTCP  = "tcp"
	TransportIPC  = "ipc"
	TransportGeth = "geth"
)

type Config struct {
	URL        string        `env:"RPC_URL,default=http://localhost:8545"`
	Transport  string        `env:"RPC_TRANSPORT,default=auto"`
	Framing    string        `env:"RPC_FRAMING,default=stream"`
	PoolSize   int           `env:"RPC_POOL_SIZE,default=1"`
	Timeout    time.Duration `env:"RPC_TIMEOUT,default=30s"`
	RateLimit  float64       `env:"RPC_RATE_LIMIT,default=0"` // Calls per second, 0 disables
	RateBurst  int           `env:"RPC_RATE_BURST,default=1"`
	Retries    int           `env:"RPC_RETRIES,default=0"`
	RetryDelay time.Duration `env:"RPC_RETRY_DELAY,default=100ms"`

	// Discovery: when EtcdEndpoints is set, calls go to the nodes registered under
	// Service instead of URL.
	EtcdEndpoints []string `env:"ETCD_ENDPOINTS"`
	Service       string   `env:"RPC_SERVICE,default=mainnet"`
	Balancer      string   `env:"RPC_BALANCER,default=round_robin"`

	LogLevel  string `env:"LOG_LEVEL,default=info"`
	LogFile   string `env:"LOG_FILE"`
	SentryDSN string `env:"SENTRY_DSN"`
}

// New loads envpath when given, then reads the environment.
func New(ctx context.Context, envpath string) (*Config, error) {
	if envpath != "" {
		if err := godotenv.Load(envpath); err != nil {
			return nil, fmt.Errorf("load %s: %w", envpath, err)
		}
	}

	cfg := &Config{}
	if err := envconfig.Process(ctx, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns the configuration an empty environment produces.
func Default() *Config {
	cfg := &Config{}
	// Only struct tag defaults apply, which always parse.
	_ = envconfig.ProcessWith(context.Background(), cfg, envconfig.MapLookuper(nil))
	return cfg
}

// Validate checks enumerations and ranges.
func (c *Config) Validate() error {
	var errs []error

	switch c.Transport {
	case TransportAuto, TransportHTTP, TransportWS, TransportTCP, TransportIPC, TransportGeth:
	default:
		errs = append(errs, fmt.Errorf("unknown transport %q", c.Transport))
	}
	if _, err := protocol.ParseFraming(c.Framing); err != nil {
		errs = append(errs, err)
	}
	if _, err := loadbalance.New(c.Balancer); err != nil {
		errs = append(errs, err)
	}
	if _, err := zapcore.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("log level: %w", err))
	}

	if c.PoolSize < 1 {
		errs = append(errs, fmt.Errorf("pool size must be at least 1, got %d", c.PoolSize))
	}
	if c.Timeout < 0 {
		errs = append(errs, fmt.Errorf("timeout must not be negative, got %s", c.Timeout))
	}
	if c.RateLimit < 0 {
		errs = append(errs, fmt.Errorf("rate limit must not be negative, got %v", c.RateLimit))
	}
	if c.RateLimit > 0 && c.RateBurst < 1 {
		errs = append(errs, fmt.Errorf("rate burst must be at least 1, got %d", c.RateBurst))
	}
	if c.Retries < 0 {
		errs = append(errs, fmt.Errorf("retries must not be negative, got %d", c.Retries))
	}

	if len(c.EtcdEndpoints) == 0 {
		if c.URL == "" {
			errs = append(errs, errors.New("RPC_URL is required without ETCD_ENDPOINTS"))
		} else if strings.Contains(c.URL, "://") {
			if _, err := url.Parse(c.URL); err != nil {
				errs = append(errs, fmt.Errorf("rpc url: %w", err))
			}
		}
	} else if c.Service == "" {
		errs = append(errs, errors.New("RPC_SERVICE is required with ETCD_ENDPOINTS"))
	}
	return errors.Join(errs...)
}
