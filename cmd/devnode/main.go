// Command devnode serves an in-memory transaction pool over the txpool, net and web3
// namespaces, for exercising clients without a real Ethereum node.
//
//	devnode --seed 3 --http 127.0.0.1:8545 --tcp 127.0.0.1:8547 --ipc /tmp/devnode.ipc
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
