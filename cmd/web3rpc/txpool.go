package main

import (
	"cmp"
	"fmt"
	"io"
	"slices"
	"strconv"
	"web3-rpc/client"
	"web3-rpc/types"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

func newTxpoolCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "txpool",
		Short: "Inspect the transaction pool",
	}
	cmd.AddCommand(
		newTxpoolStatusCmd(a),
		newTxpoolContentCmd(a),
		newTxpoolContentFromCmd(a),
		newTxpoolInspectCmd(a),
	)
	return cmd
}

func newTxpoolStatusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Number of pending and queued transactions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, w := cmd.Context(), cmd.OutOrStdout()
			return a.withClient(ctx, func(c *client.Client) error {
				status, err := c.Txpool().Status(ctx).Await(ctx)
				if err != nil {
					return err
				}
				if a.output == outputJSON {
					return printJSON(w, status)
				}
				return renderTable(w, pterm.TableData{
					{"Pending", "Queued", "Total"},
					{fmt.Sprint(uint64(status.Pending)), fmt.Sprint(uint64(status.Queued)), fmt.Sprint(status.Total())},
				})
			})
		},
	}
}

func newTxpoolContentCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "content",
		Short: "Every pooled transaction",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, w := cmd.Context(), cmd.OutOrStdout()
			return a.withClient(ctx, func(c *client.Client) error {
				content, err := c.Txpool().Content(ctx).Await(ctx)
				if err != nil {
					return err
				}
				if a.output == outputJSON {
					return printJSON(w, content)
				}
				pending, queued := content.Count()
				pterm.Info.WithWriter(w).Printfln("%d pending transactions from %d senders, %d queued from %d senders",
					pending, len(content.Pending), queued, len(content.Queued))
				rows := pterm.TableData{txHeader}
				rows = appendTxRows(rows, "pending", content.Pending)
				rows = appendTxRows(rows, "queued", content.Queued)
				return renderTable(w, rows)
			})
		},
	}
}

func newTxpoolContentFromCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "content-from <address>",
		Short: "Pooled transactions of one sender",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, w := cmd.Context(), cmd.OutOrStdout()
			return a.withClient(ctx, func(c *client.Client) error {
				content, err := c.Txpool().ContentFrom(ctx, args[0]).Await(ctx)
				if err != nil {
					return err
				}
				if a.output == outputJSON {
					return printJSON(w, content)
				}
				sender := common.HexToAddress(args[0])
				rows := pterm.TableData{txHeader}
				rows = appendTxRows(rows, "pending", map[common.Address]map[string]types.Transaction{sender: content.Pending})
				rows = appendTxRows(rows, "queued", map[common.Address]map[string]types.Transaction{sender: content.Queued})
				return renderTable(w, rows)
			})
		},
	}
}

func newTxpoolInspectCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect",
		Short: "One line summary of every pooled transaction",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, w := cmd.Context(), cmd.OutOrStdout()
			return a.withClient(ctx, func(c *client.Client) error {
				inspect, err := c.Txpool().Inspect(ctx).Await(ctx)
				if err != nil {
					return err
				}
				if a.output == outputJSON {
					return printJSON(w, inspect)
				}
				rows := pterm.TableData{{"Pool", "Sender", "Nonce", "Summary"}}
				for _, pool := range []struct {
					name string
					txs  map[common.Address]map[string]types.InspectSummary
				}{{"pending", inspect.Pending}, {"queued", inspect.Queued}} {
					for _, sender := range sortedSenders(pool.txs) {
						for _, nonce := range sortedNonces(pool.txs[sender]) {
							rows = append(rows, []string{pool.name, sender.Hex(), nonce, string(pool.txs[sender][nonce])})
						}
					}
				}
				return renderTable(w, rows)
			})
		},
	}
}

var txHeader = []string{"Pool", "Sender", "Nonce", "Hash", "To", "Value", "Gas"}

func renderTable(w io.Writer, rows pterm.TableData) error {
	return pterm.DefaultTable.WithHasHeader().WithWriter(w).WithData(rows).Render()
}

func appendTxRows(rows pterm.TableData, pool string, txs map[common.Address]map[string]types.Transaction) pterm.TableData {
	for _, sender := range sortedSenders(txs) {
		for _, nonce := range sortedNonces(txs[sender]) {
			tx := txs[sender][nonce]
			to := "contract creation"
			if !tx.IsContractCreation() {
				to = tx.To.Hex()
			}
			value := "0"
			if tx.Value != nil {
				value = tx.Value.ToInt().String()
			}
			rows = append(rows, []string{pool, sender.Hex(), nonce, tx.Hash.Hex(), to, value, fmt.Sprint(uint64(tx.Gas))})
		}
	}
	return rows
}

func sortedSenders[V any](m map[common.Address]V) []common.Address {
	keys := make([]common.Address, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, func(a, b common.Address) int { return a.Cmp(b) })
	return keys
}

// sortedNonces orders decimal nonce keys numerically.
func sortedNonces[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, func(a, b string) int {
		x, errA := strconv.ParseUint(a, 10, 64)
		y, errB := strconv.ParseUint(b, 10, 64)
		if errA != nil || errB != nil {
			return cmp.Compare(a, b)
		}
		return cmp.Compare(x, y)
	})
	return keys
}
