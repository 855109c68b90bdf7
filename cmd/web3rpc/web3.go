package main

import (
	"fmt"
	"web3-rpc/client"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/spf13/cobra"
)

func newWeb3Cmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "web3",
		Short: "Client identity and hashing",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "client-version",
			Short: "Node software version",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				ctx := cmd.Context()
				return a.withClient(ctx, func(c *client.Client) error {
					version, err := c.Web3().ClientVersion(ctx).Await(ctx)
					if err != nil {
						return err
					}
					return a.printValue(cmd.OutOrStdout(), version)
				})
			},
		},
		&cobra.Command{
			Use:   "sha3 <0x-data>",
			Short: "Keccak-256 of hex data, computed by the node",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				data, err := hexutil.Decode(args[0])
				if err != nil {
					return fmt.Errorf("data: %w", err)
				}
				ctx := cmd.Context()
				return a.withClient(ctx, func(c *client.Client) error {
					hash, err := c.Web3().Sha3(ctx, data).Await(ctx)
					if err != nil {
						return err
					}
					return a.printValue(cmd.OutOrStdout(), hash.String())
				})
			},
		},
	)
	return cmd
}
