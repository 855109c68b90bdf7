package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"
	"web3-rpc/config"
	"web3-rpc/logging"
	"web3-rpc/node"
	"web3-rpc/protocol"
	"web3-rpc/registry"
	"web3-rpc/server"

	"github.com/getsentry/sentry-go"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type options struct {
	env       string
	httpAddr  string
	tcpAddr   string
	ipcPath   string
	framing   string
	networkID uint64
	peers     uint
	seed      int
	advertise string
	ttl       int64
	shutdown  time.Duration
	logLevel  string
	service   string
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:          "devnode",
		Short:        "Serve a development transaction pool over JSON-RPC",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.env, "env", "", "path to .env file")
	f.StringVar(&opts.httpAddr, "http", "127.0.0.1:8545", "HTTP and WebSocket listen address, empty disables")
	f.StringVar(&opts.tcpAddr, "tcp", "127.0.0.1:8547", "raw socket listen address, empty disables")
	f.StringVar(&opts.ipcPath, "ipc", "", "unix socket path, empty disables")
	f.StringVar(&opts.framing, "framing", string(protocol.FramingStream), "raw socket framing: stream|length")
	f.Uint64Var(&opts.networkID, "network-id", 1337, "network id reported by net_version")
	f.UintVar(&opts.peers, "peers", 0, "peer count reported by net_peerCount")
	f.IntVar(&opts.seed, "seed", 0, "number of sample senders to fill the pool with")
	f.StringVar(&opts.advertise, "advertise", "", "URL registered in etcd (default http://<http address>)")
	f.Int64Var(&opts.ttl, "ttl", 10, "etcd lease TTL in seconds")
	f.DurationVar(&opts.shutdown, "shutdown-timeout", 5*time.Second, "grace period for in-flight calls")
	f.StringVar(&opts.logLevel, "log-level", "", "debug|info|warn|error, overrides LOG_LEVEL")
	f.StringVar(&opts.service, "service", "", "service name registered in etcd, overrides RPC_SERVICE")
	return cmd
}

func run(cmd *cobra.Command, opts *options) error {
	ctx := cmd.Context()
	cfg, err := config.New(ctx, opts.env)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("log-level") {
		cfg.LogLevel = opts.logLevel
	}
	if cmd.Flags().Changed("service") {
		cfg.Service = opts.service
	}
	logger, err := logging.New(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{Dsn: cfg.SentryDSN}); err != nil {
			return fmt.Errorf("sentry.Init: %w", err)
		}
		defer sentry.Flush(2 * time.Second)
	}

	framing, err := protocol.ParseFraming(opts.framing)
	if err != nil {
		return err
	}

	pool := node.NewPool()
	if err := node.Seed(pool, opts.networkID, opts.seed); err != nil {
		return fmt.Errorf("seed pool: %w", err)
	}
	srv := server.NewServer(logger)
	if err := node.Register(srv, pool, node.Config{NetworkID: opts.networkID, PeerCount: opts.peers}); err != nil {
		return err
	}
	logger.Info("txpool ready", zap.Uint("pending", uint(pool.Status().Pending)), zap.Uint("queued", uint(pool.Status().Queued)), zap.Strings("methods", srv.Methods()))

	errc := make(chan error, 3)
	if opts.tcpAddr != "" {
		ln, err := net.Listen("tcp", opts.tcpAddr)
		if err != nil {
			return err
		}
		logger.Info("serving raw socket", zap.String("addr", ln.Addr().String()), zap.String("framing", string(framing)))
		go func() { errc <- srv.ServeListener(ln, framing) }()
	}
	if opts.ipcPath != "" {
		os.Remove(opts.ipcPath)
		ln, err := net.Listen("unix", opts.ipcPath)
		if err != nil {
			return err
		}
		defer os.Remove(opts.ipcPath)
		logger.Info("serving ipc", zap.String("path", opts.ipcPath))
		go func() { errc <- srv.ServeListener(ln, protocol.FramingStream) }()
	}

	var httpServer *http.Server
	if opts.httpAddr != "" {
		r := chi.NewRouter()
		r.Handle("/metrics", promhttp.Handler())
		r.Mount("/", srv.HTTPHandler())
		ln, err := net.Listen("tcp", opts.httpAddr)
		if err != nil {
			return err
		}
		httpServer = &http.Server{Handler: r, ReadHeaderTimeout: 10 * time.Second}
		logger.Info("serving http", zap.String("addr", ln.Addr().String()))
		go func() {
			if err := httpServer.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
				errc <- err
			}
		}()
	}

	if len(cfg.EtcdEndpoints) > 0 {
		reg, err := registry.NewEtcdRegistry(cfg.EtcdEndpoints, 5*time.Second, logger)
		if err != nil {
			return fmt.Errorf("connect etcd: %w", err)
		}
		defer reg.Close()

		addr := opts.advertise
		if addr == "" {
			if opts.httpAddr == "" {
				return errors.New("--advertise is required without --http")
			}
			addr = "http://" + opts.httpAddr
		}
		endpoint := registry.Endpoint{Addr: addr, Weight: 1, Version: node.DefaultClientVersion}
		if err := srv.Advertise(ctx, reg, cfg.Service, endpoint, opts.ttl); err != nil {
			return err
		}
		logger.Info("advertised in etcd", zap.String("service", cfg.Service), zap.String("addr", addr))
	}

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err := <-errc:
		logger.Error("listener failed", zap.Error(err))
	}

	shutdownErr := srv.Shutdown(opts.shutdown)
	if httpServer != nil {
		sctx, cancel := context.WithTimeout(context.Background(), opts.shutdown)
		defer cancel()
		shutdownErr = errors.Join(shutdownErr, httpServer.Shutdown(sctx))
	}
	return shutdownErr
}
