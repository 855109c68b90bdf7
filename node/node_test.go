package node

import (
	"context"
	"math/big"
	"net"
	"strings"
	"testing"
	"web3-rpc/api"
	"web3-rpc/message"
	"web3-rpc/protocol"
	"web3-rpc/rpc"
	"web3-rpc/server"
	"web3-rpc/transport"
	"web3-rpc/types"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	gethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	gethrpc "github.com/ethereum/go-ethereum/rpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const chainID = 1337

func seeded(t *testing.T, senders int) *Pool {
	t.Helper()
	pool := NewPool()
	require.NoError(t, Seed(pool, chainID, senders))
	return pool
}

func TestSeed(t *testing.T) {
	pool := seeded(t, 3)

	status := pool.Status()
	assert.Equal(t, hexutil.Uint(9), status.Pending)
	assert.Equal(t, hexutil.Uint(3), status.Queued)

	sender := SeedAddress(0)
	from := pool.ContentFrom(sender)
	require.Len(t, from.Pending, 3)
	require.Len(t, from.Queued, 1)

	legacy := from.Pending["0"]
	assert.Equal(t, sender, legacy.From)
	assert.Equal(t, hexutil.Uint64(21000), legacy.Gas)
	assert.Equal(t, big.NewInt(1e18), legacy.Value.ToInt())
	assert.Equal(t, hexutil.Uint64(gethtypes.LegacyTxType), *legacy.Type)

	dynamic := from.Pending["1"]
	assert.Equal(t, hexutil.Uint64(gethtypes.DynamicFeeTxType), *dynamic.Type)
	assert.Equal(t, big.NewInt(chainID), dynamic.ChainID.ToInt())
	assert.NotNil(t, dynamic.GasTipCap)

	assert.True(t, from.Pending["2"].IsContractCreation())
	assert.Contains(t, from.Queued, "5")
}

func TestPoolAddReplacesAndRemove(t *testing.T) {
	pool := seeded(t, 1)
	sender := SeedAddress(0)

	// nonce 5 becomes executable
	tx := pool.ContentFrom(sender).Queued["5"]
	pool.Add(tx, false)
	assert.Equal(t, types.TxpoolStatus{Pending: 4, Queued: 0}, pool.Status())

	assert.True(t, pool.Remove(sender, 5))
	assert.False(t, pool.Remove(sender, 5))
	assert.Equal(t, types.TxpoolStatus{Pending: 3, Queued: 0}, pool.Status())
}

func TestInspect(t *testing.T) {
	pool := seeded(t, 1)
	sender := SeedAddress(0)
	inspect := pool.Inspect()

	entry, err := inspect.Pending[sender]["0"].Parse()
	require.NoError(t, err)
	assert.Equal(t, common.HexToAddress("0x3375ee30428b2a71c428afa5e89e427905f95f7e"), *entry.To)
	assert.Equal(t, uint64(21000), entry.Gas)
	assert.Equal(t, big.NewInt(20_000_000_000), entry.GasPrice)

	creation, err := inspect.Pending[sender]["2"].Parse()
	require.NoError(t, err)
	assert.Nil(t, creation.To)
	assert.True(t, strings.HasPrefix(string(inspect.Pending[sender]["2"]), "contract creation: "))
}

func TestWeb3Sha3(t *testing.T) {
	got := NewWeb3API("test").Sha3([]byte("hello world"))
	assert.Equal(t, "0x47173285a8d7341e5e972fc677286384f802f8ef42a5ec5f03bbfa254cb01fad", got.String())
}

// checkNamespaces runs the client namespaces against a node reachable through tr.
func checkNamespaces(t *testing.T, tr transport.Transport, pool *Pool) {
	t.Helper()
	ctx := context.Background()
	txpool, network, web3 := api.NewTxpool(tr), api.NewNet(tr), api.NewWeb3(tr)

	status, err := txpool.Status(ctx).Await(ctx)
	require.NoError(t, err)
	assert.Equal(t, pool.Status(), status)

	content, err := txpool.Content(ctx).Await(ctx)
	require.NoError(t, err)
	pending, queued := content.Count()
	assert.Equal(t, 6, pending)
	assert.Equal(t, 2, queued)

	sender := SeedAddress(1)
	_, err = txpool.ContentFrom(ctx, "0x1234").Await(ctx)
	var transportErr *rpc.TransportError
	require.ErrorAs(t, err, &transportErr)
	code, _ := transportErr.Code()
	assert.Equal(t, message.CodeInvalidParams, code)

	from, err := txpool.ContentFrom(ctx, sender.Hex()).Await(ctx)
	require.NoError(t, err)
	assert.Equal(t, pool.ContentFrom(sender).Pending["1"].Hash, from.Pending["1"].Hash)

	inspect, err := txpool.Inspect(ctx).Await(ctx)
	require.NoError(t, err)
	assert.Equal(t, pool.Inspect(), inspect)

	version, err := network.Version(ctx).Await(ctx)
	require.NoError(t, err)
	assert.Equal(t, "1337", version)

	client, err := web3.ClientVersion(ctx).Await(ctx)
	require.NoError(t, err)
	assert.Equal(t, DefaultClientVersion, client)

	hash, err := web3.Sha3(ctx, []byte("hello world")).Await(ctx)
	require.NoError(t, err)
	assert.Equal(t, crypto.Keccak256([]byte("hello world")), []byte(hash))
}

func TestRegisterWithServer(t *testing.T) {
	pool := seeded(t, 2)
	srv := server.NewServer(nil)
	require.NoError(t, Register(srv, pool, Config{NetworkID: chainID}))

	clientSide, serverSide := net.Pipe()
	go srv.ServeConn(protocol.NewConn(serverSide, protocol.FramingStream))
	tr := transport.NewMux(protocol.NewConn(clientSide, protocol.FramingStream), nil)
	defer tr.Close()
	checkNamespaces(t, tr, pool)
}

func TestRegisterWithGethServer(t *testing.T) {
	pool := seeded(t, 2)
	srv := gethrpc.NewServer()
	defer srv.Stop()
	require.NoError(t, Register(srv, pool, Config{NetworkID: chainID}))

	tr := transport.NewGeth(gethrpc.DialInProc(srv))
	defer tr.Close()
	checkNamespaces(t, tr, pool)
}
