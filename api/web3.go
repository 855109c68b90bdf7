package api

import (
	"context"
	"web3-rpc/codec"
	"web3-rpc/rpc"
	"web3-rpc/transport"

	"github.com/ethereum/go-ethereum/common/hexutil"
)

const (
	MethodWeb3ClientVersion = "web3_clientVersion"
	MethodWeb3Sha3          = "web3_sha3"
)

type Web3 struct {
	rpc.Namespace
}

func NewWeb3(t transport.Transport) Web3 {
	return Web3{rpc.NewNamespace(t)}
}

// ClientVersion returns the node software version, e.g. "Geth/v1.15.11-stable/linux-amd64/go1.24.5".
func (w Web3) ClientVersion(ctx context.Context) *rpc.CallFuture[string] {
	return rpc.Call[string](ctx, w.Transport(), MethodWeb3ClientVersion)
}

// Sha3 asks the node for the Keccak-256 hash of data.
func (w Web3) Sha3(ctx context.Context, data []byte) *rpc.CallFuture[hexutil.Bytes] {
	return rpc.Call[hexutil.Bytes](ctx, w.Transport(), MethodWeb3Sha3, codec.Bytes(data))
}
