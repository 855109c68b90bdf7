package node

import (
	"crypto/ecdsa"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	gethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
)

// SeedKey derives the deterministic private key of sample sender i.
func SeedKey(i int) *ecdsa.PrivateKey {
	key, err := crypto.ToECDSA(crypto.Keccak256([]byte(fmt.Sprintf("web3-rpc devnode sender %d", i))))
	if err != nil {
		// keccak output is a valid scalar with overwhelming probability
		panic(err)
	}
	return key
}

// SeedAddress is the account of sample sender i.
func SeedAddress(i int) common.Address {
	return crypto.PubkeyToAddress(SeedKey(i).PublicKey)
}

// Seed fills pool with signed sample transactions: for each of senders accounts,
// pending legacy and dynamic fee transfers with nonces 0 and 1, a pending contract
// creation with nonce 2, and a queued transfer with nonce 5 behind a gap.
func Seed(pool *Pool, chainID uint64, senders int) error {
	signer := gethtypes.LatestSignerForChainID(new(big.Int).SetUint64(chainID))
	gwei := big.NewInt(1_000_000_000)
	to := common.HexToAddress("0x3375ee30428b2a71c428afa5e89e427905f95f7e")

	for i := 0; i < senders; i++ {
		key := SeedKey(i)
		samples := []struct {
			tx     gethtypes.TxData
			queued bool
		}{
			{&gethtypes.LegacyTx{Nonce: 0, GasPrice: new(big.Int).Mul(gwei, big.NewInt(20)), Gas: 21000, To: &to, Value: big.NewInt(1e18)}, false},
			{&gethtypes.DynamicFeeTx{ChainID: signer.ChainID(), Nonce: 1, GasTipCap: gwei, GasFeeCap: new(big.Int).Mul(gwei, big.NewInt(30)), Gas: 50000, To: &to, Value: big.NewInt(0), Data: []byte{0xa9, 0x05, 0x9c, 0xbb}}, false},
			{&gethtypes.LegacyTx{Nonce: 2, GasPrice: new(big.Int).Mul(gwei, big.NewInt(20)), Gas: 500000, Value: big.NewInt(0), Data: []byte{0x60, 0x80, 0x60, 0x40, 0x52}}, false},
			{&gethtypes.LegacyTx{Nonce: 5, GasPrice: new(big.Int).Mul(gwei, big.NewInt(20)), Gas: 21000, To: &to, Value: big.NewInt(1)}, true},
		}
		for _, sample := range samples {
			tx, err := gethtypes.SignNewTx(key, signer, sample.tx)
			if err != nil {
				return fmt.Errorf("sign sample transaction: %w", err)
			}
			if err := pool.AddSigned(tx, sample.queued); err != nil {
				return err
			}
		}
	}
	return nil
}
