package main

import (
	"web3-rpc/client"

	"github.com/spf13/cobra"
)

func newNetCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "net",
		Short: "Network identity and peers",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "version",
			Short: "Network id",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				ctx := cmd.Context()
				return a.withClient(ctx, func(c *client.Client) error {
					version, err := c.Net().Version(ctx).Await(ctx)
					if err != nil {
						return err
					}
					return a.printValue(cmd.OutOrStdout(), version)
				})
			},
		},
		&cobra.Command{
			Use:   "peer-count",
			Short: "Number of connected peers",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				ctx := cmd.Context()
				return a.withClient(ctx, func(c *client.Client) error {
					peers, err := c.Net().PeerCount(ctx).Await(ctx)
					if err != nil {
						return err
					}
					if a.output == outputJSON {
						return printJSON(cmd.OutOrStdout(), peers)
					}
					return a.printValue(cmd.OutOrStdout(), uint(peers))
				})
			},
		},
		&cobra.Command{
			Use:   "listening",
			Short: "Whether the node accepts peer connections",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				ctx := cmd.Context()
				return a.withClient(ctx, func(c *client.Client) error {
					listening, err := c.Net().Listening(ctx).Await(ctx)
					if err != nil {
						return err
					}
					return a.printValue(cmd.OutOrStdout(), listening)
				})
			},
		},
	)
	return cmd
}
