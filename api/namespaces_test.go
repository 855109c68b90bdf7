package api

import (
	"context"
	"encoding/json"
	"testing"
	"web3-rpc/transport"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNet(t *testing.T) {
	mock := transport.NewMock().
		Reply(MethodNetVersion, `"1"`).
		Reply(MethodNetPeerCount, `"0x19"`).
		Reply(MethodNetListening, `true`)
	net := NewNet(mock)
	ctx := context.Background()

	version, err := net.Version(ctx).Await(ctx)
	require.NoError(t, err)
	assert.Equal(t, "1", version)

	peers, err := net.PeerCount(ctx).Await(ctx)
	require.NoError(t, err)
	assert.Equal(t, hexutil.Uint(25), peers)

	listening, err := net.Listening(ctx).Await(ctx)
	require.NoError(t, err)
	assert.True(t, listening)
}

func TestWeb3(t *testing.T) {
	mock := transport.NewMock().
		Reply(MethodWeb3ClientVersion, `"Geth/v1.15.11-stable"`).
		Reply(MethodWeb3Sha3, `"0x47173285a8d7341e5e972fc677286384f802f8ef42a5ec5f03bbfa254cb01fad"`)
	web3 := NewWeb3(mock)
	ctx := context.Background()

	version, err := web3.ClientVersion(ctx).Await(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Geth/v1.15.11-stable", version)

	hash, err := web3.Sha3(ctx, []byte("hello world")).Await(ctx)
	require.NoError(t, err)
	assert.Equal(t, "0x47173285a8d7341e5e972fc677286384f802f8ef42a5ec5f03bbfa254cb01fad", hash.String())

	calls := mock.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, []json.RawMessage{json.RawMessage(`"0x68656c6c6f20776f726c64"`)}, calls[1].Params)
}

func TestNamespacesShareTransport(t *testing.T) {
	mock := transport.NewMock()
	assert.Same(t, NewTxpool(mock).Transport(), NewNet(mock).Transport())
	assert.Same(t, NewNet(mock).Transport(), NewWeb3(mock).Transport())
}
