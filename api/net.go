package api

import (
	"context"
	"web3-rpc/rpc"
	"web3-rpc/transport"

	"github.com/ethereum/go-ethereum/common/hexutil"
)

const (
	MethodNetVersion   = "net_version"
	MethodNetPeerCount = "net_peerCount"
	MethodNetListening = "net_listening"
)

// Net reports the node's network identity and connectivity.
type Net struct {
	rpc.Namespace
}

func NewNet(t transport.Transport) Net {
	return Net{rpc.NewNamespace(t)}
}

// Version returns the network id as a decimal string, e.g. "1" for mainnet.
func (n Net) Version(ctx context.Context) *rpc.CallFuture[string] {
	return rpc.Call[string](ctx, n.Transport(), MethodNetVersion)
}

func (n Net) PeerCount(ctx context.Context) *rpc.CallFuture[hexutil.Uint] {
	return rpc.Call[hexutil.Uint](ctx, n.Transport(), MethodNetPeerCount)
}

func (n Net) Listening(ctx context.Context) *rpc.CallFuture[bool] {
	return rpc.Call[bool](ctx, n.Transport(), MethodNetListening)
}
