package rpc

import "web3-rpc/transport"

// Namespace is embedded by every group of related remote methods. It only holds the
// transport, which is shared by reference with every other namespace of a client and
// must therefore be safe for concurrent use. A namespace keeps no per-call state.
//
//	type Txpool struct{ rpc.Namespace }
//
//	func (t Txpool) Status(ctx context.Context) *rpc.CallFuture[types.TxpoolStatus] {
//		return rpc.Call[types.TxpoolStatus](ctx, t.Transport(), "txpool_status")
//	}
type Namespace struct {
	transport transport.Transport
}

func NewNamespace(t transport.Transport) Namespace {
	return Namespace{transport: t}
}

// Transport returns the shared transport.
func (n Namespace) Transport() transport.Transport {
	return n.transport
}
