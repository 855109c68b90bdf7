package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"web3-rpc/client"
	"web3-rpc/config"
	"web3-rpc/logging"

	"github.com/getsentry/sentry-go"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const (
	outputTable = "table"
	outputJSON  = "json"
)

// app is the state shared by every command of one invocation.
type app struct {
	envFile string
	output  string
	flags   *config.Config // Flag values, applied only where set

	cfg    *config.Config
	logger *zap.Logger
	sentry bool
}

func newRootCmd(a *app) *cobra.Command {
	a.flags = config.Default()
	a.logger = zap.NewNop()

	root := &cobra.Command{
		Use:           "web3rpc",
		Short:         "Query an Ethereum node over JSON-RPC",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			a.logger.Sync()
		},
	}

	f := root.PersistentFlags()
	f.StringVar(&a.envFile, "env", "", "path to .env file")
	f.StringVarP(&a.output, "output", "o", outputTable, "output format: table|json")
	f.StringVar(&a.flags.URL, "url", a.flags.URL, "node endpoint (http, ws, tcp, ipc or a socket path)")
	f.StringVar(&a.flags.Transport, "transport", a.flags.Transport, "auto|http|ws|tcp|ipc|geth")
	f.StringVar(&a.flags.Framing, "framing", a.flags.Framing, "tcp framing: stream|length")
	f.IntVar(&a.flags.PoolSize, "pool", a.flags.PoolSize, "connections per node for ws and tcp")
	f.DurationVar(&a.flags.Timeout, "timeout", a.flags.Timeout, "per call timeout, 0 disables")
	f.IntVar(&a.flags.Retries, "retries", a.flags.Retries, "retries on connection errors")
	f.StringSliceVar(&a.flags.EtcdEndpoints, "etcd", nil, "discover nodes in etcd instead of --url")
	f.StringVar(&a.flags.Service, "service", a.flags.Service, "service name nodes register under")
	f.StringVar(&a.flags.Balancer, "balancer", a.flags.Balancer, "round_robin|weighted_random|consistent_hash")
	f.StringVar(&a.flags.LogLevel, "log-level", a.flags.LogLevel, "debug|info|warn|error")

	root.AddCommand(newTxpoolCmd(a), newNetCmd(a), newWeb3Cmd(a), newCallCmd(a))
	return root
}

func (a *app) setup(cmd *cobra.Command) error {
	if a.output != outputTable && a.output != outputJSON {
		return fmt.Errorf("unknown output format %q", a.output)
	}

	cfg, err := config.New(cmd.Context(), a.envFile)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.applyFlags(cmd)
	if err := a.cfg.Validate(); err != nil {
		return err
	}

	if a.cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{Dsn: a.cfg.SentryDSN}); err != nil {
			return fmt.Errorf("sentry.Init: %w", err)
		}
		a.sentry = true
	}

	a.logger, err = logging.New(a.cfg.LogLevel, a.cfg.LogFile)
	return err
}

// applyFlags lets flags set on the command line win over the environment.
func (a *app) applyFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	if f.Changed("url") {
		a.cfg.URL = a.flags.URL
	}
	if f.Changed("transport") {
		a.cfg.Transport = a.flags.Transport
	}
	if f.Changed("framing") {
		a.cfg.Framing = a.flags.Framing
	}
	if f.Changed("pool") {
		a.cfg.PoolSize = a.flags.PoolSize
	}
	if f.Changed("timeout") {
		a.cfg.Timeout = a.flags.Timeout
	}
	if f.Changed("retries") {
		a.cfg.Retries = a.flags.Retries
	}
	if f.Changed("etcd") {
		a.cfg.EtcdEndpoints = a.flags.EtcdEndpoints
	}
	if f.Changed("service") {
		a.cfg.Service = a.flags.Service
	}
	if f.Changed("balancer") {
		a.cfg.Balancer = a.flags.Balancer
	}
	if f.Changed("log-level") {
		a.cfg.LogLevel = a.flags.LogLevel
	}
}

// withClient dials the configured node, runs fn and closes the client.
func (a *app) withClient(ctx context.Context, fn func(c *client.Client) error) error {
	c, err := client.Dial(ctx, a.cfg, client.WithLogger(a.logger))
	if err != nil {
		return err
	}
	defer func() {
		if err := c.Close(); err != nil {
			a.logger.Warn("failed to close client", zap.Error(err))
		}
	}()
	return fn(c)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printValue prints a scalar result, as JSON with -o json.
func (a *app) printValue(w io.Writer, v any) error {
	if a.output == outputJSON {
		return printJSON(w, v)
	}
	_, err := fmt.Fprintln(w, v)
	return err
}
