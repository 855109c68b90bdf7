package node

import (
	"fmt"
	"runtime"
	"strconv"
	"web3-rpc/types"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

// DefaultClientVersion identifies the development node in web3_clientVersion.
var DefaultClientVersion = fmt.Sprintf("web3-rpc-devnode/v0.1.0/%s-%s/%s", runtime.GOOS, runtime.GOARCH, runtime.Version())

// TxpoolAPI serves the txpool namespace.
type TxpoolAPI struct {
	pool *Pool
}

func NewTxpoolAPI(pool *Pool) *TxpoolAPI {
	return &TxpoolAPI{pool: pool}
}

func (api *TxpoolAPI) Content() types.TxpoolContentInfo {
	return api.pool.Content()
}

func (api *TxpoolAPI) ContentFrom(addr common.Address) types.TxpoolContentFromInfo {
	return api.pool.ContentFrom(addr)
}

func (api *TxpoolAPI) Inspect() types.TxpoolInspectInfo {
	return api.pool.Inspect()
}

func (api *TxpoolAPI) Status() types.TxpoolStatus {
	return api.pool.Status()
}

// NetAPI serves the net namespace with fixed answers.
type NetAPI struct {
	networkID uint64
	peers     uint
}

func NewNetAPI(networkID uint64, peers uint) *NetAPI {
	return &NetAPI{networkID: networkID, peers: peers}
}

// Version is the network id in decimal.
func (api *NetAPI) Version() string {
	return strconv.FormatUint(api.networkID, 10)
}

func (api *NetAPI) PeerCount() hexutil.Uint {
	return hexutil.Uint(api.peers)
}

func (api *NetAPI) Listening() bool {
	return true
}

type Web3API struct {
	clientVersion string
}

func NewWeb3API(clientVersion string) *Web3API {
	return &Web3API{clientVersion: clientVersion}
}

func (api *Web3API) ClientVersion() string {
	return api.clientVersion
}

// Sha3 returns the Keccak-256 hash of input.
func (api *Web3API) Sha3(input hexutil.Bytes) hexutil.Bytes {
	return crypto.Keccak256(input)
}

// Config describes the identity the node reports.
type Config struct {
	NetworkID     uint64
	PeerCount     uint
	ClientVersion string
}

// Registrar is satisfied by server.Server and by go-ethereum's rpc.Server.
type Registrar interface {
	RegisterName(namespace string, receiver any) error
}

// Register exposes the txpool, net and web3 namespaces over pool on r.
func Register(r Registrar, pool *Pool, cfg Config) error {
	if cfg.ClientVersion == "" {
		cfg.ClientVersion = DefaultClientVersion
	}
	apis := []struct {
		namespace string
		receiver  any
	}{
		{"txpool", NewTxpoolAPI(pool)},
		{"net", NewNetAPI(cfg.NetworkID, cfg.PeerCount)},
		{"web3", NewWeb3API(cfg.ClientVersion)},
	}
	for _, api := range apis {
		if err := r.RegisterName(api.namespace, api.receiver); err != nil {
			return fmt.Errorf("register %s: %w", api.namespace, err)
		}
	}
	return nil
}
