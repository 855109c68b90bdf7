// Package api groups remote methods into namespaces. Every namespace embeds
// rpc.Namespace and shares its client's transport; methods submit exactly one call
// and return its typed future.
package api

import (
	"context"
	"web3-rpc/codec"
	"web3-rpc/rpc"
	"web3-rpc/transport"
	"web3-rpc/types"
)

// Remote methods of the txpool namespace.
const (
	MethodTxpoolContent     = "txpool_content"
	MethodTxpoolContentFrom = "txpool_contentFrom"
	MethodTxpoolInspect     = "txpool_inspect"
	MethodTxpoolStatus      = "txpool_status"
)

// Txpool inspects the node's pool of pending and queued transactions.
type Txpool struct {
	rpc.Namespace
}

func NewTxpool(t transport.Transport) Txpool {
	return Txpool{rpc.NewNamespace(t)}
}

// Content lists every pooled transaction.
func (t Txpool) Content(ctx context.Context) *rpc.CallFuture[types.TxpoolContentInfo] {
	return rpc.Call[types.TxpoolContentInfo](ctx, t.Transport(), MethodTxpoolContent)
}

// ContentFrom lists the pooled transactions sent by address. The address is passed
// through as given; the node validates it.
func (t Txpool) ContentFrom(ctx context.Context, address string) *rpc.CallFuture[types.TxpoolContentFromInfo] {
	return rpc.Call[types.TxpoolContentFromInfo](ctx, t.Transport(), MethodTxpoolContentFrom, codec.String(address))
}

// Inspect summarizes every pooled transaction in one line of text.
func (t Txpool) Inspect(ctx context.Context) *rpc.CallFuture[types.TxpoolInspectInfo] {
	return rpc.Call[types.TxpoolInspectInfo](ctx, t.Transport(), MethodTxpoolInspect)
}

// Status counts pending and queued transactions.
func (t Txpool) Status(ctx context.Context) *rpc.CallFuture[types.TxpoolStatus] {
	return rpc.Call[types.TxpoolStatus](ctx, t.Transport(), MethodTxpoolStatus)
}
