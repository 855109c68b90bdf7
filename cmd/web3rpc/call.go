package main

import (
	"encoding/json"
	"fmt"
	"web3-rpc/client"

	"github.com/spf13/cobra"
)

func newCallCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "call <method> [param...]",
		Short: "Call any method; each param is one JSON value",
		Example: `  web3rpc call eth_blockNumber
  web3rpc call txpool_contentFrom '"0x0216d5032f356960cd3749c31ab34eeff21b3395"'`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			params := make([]json.RawMessage, 0, len(args)-1)
			for i, arg := range args[1:] {
				if !json.Valid([]byte(arg)) {
					return fmt.Errorf("param %d is not valid JSON: %s", i+1, arg)
				}
				params = append(params, json.RawMessage(arg))
			}

			ctx, w := cmd.Context(), cmd.OutOrStdout()
			return a.withClient(ctx, func(c *client.Client) error {
				result, err := c.Call(ctx, args[0], params...).Await(ctx)
				if err != nil {
					return err
				}
				var out any
				if err := json.Unmarshal(result, &out); err != nil {
					_, err = w.Write(append(result, '\n'))
					return err
				}
				return printJSON(w, out)
			})
		},
	}
}
