package types

import (
	"bytes"
	"encoding/json"
	"web3-rpc/codec"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// Transaction is a transaction as reported by the node's RPC API. Pooled transactions
// are not mined yet, so BlockHash, BlockNumber and TransactionIndex are null or zero.
type Transaction struct {
	BlockHash        *common.Hash    `json:"blockHash"`
	BlockNumber      *hexutil.Big    `json:"blockNumber"`
	From             common.Address  `json:"from"`
	Gas              hexutil.Uint64  `json:"gas"`
	GasPrice         *hexutil.Big    `json:"gasPrice,omitempty"`
	GasFeeCap        *hexutil.Big    `json:"maxFeePerGas,omitempty"`
	GasTipCap        *hexutil.Big    `json:"maxPriorityFeePerGas,omitempty"`
	Hash             common.Hash     `json:"hash"`
	Input            hexutil.Bytes   `json:"input"`
	Nonce            hexutil.Uint64  `json:"nonce"`
	To               *common.Address `json:"to"` // nil for contract creation
	TransactionIndex *hexutil.Uint64 `json:"transactionIndex"`
	Value            *hexutil.Big    `json:"value"`
	Type             *hexutil.Uint64 `json:"type,omitempty"`
	ChainID          *hexutil.Big    `json:"chainId,omitempty"`
	V                *hexutil.Big    `json:"v,omitempty"`
	R                *hexutil.Big    `json:"r,omitempty"`
	S                *hexutil.Big    `json:"s,omitempty"`
}

// requiredTxFields must be present and non-null in every transaction object.
var requiredTxFields = []string{"from", "gas", "hash", "input", "nonce", "value"}

func (tx *Transaction) UnmarshalJSON(data []byte) error {
	type transaction Transaction
	var dec transaction
	if err := json.Unmarshal(data, &dec); err != nil {
		return err
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	for _, name := range requiredTxFields {
		raw, ok := fields[name]
		if !ok {
			return codec.Missing(name)
		}
		if bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
			return &codec.PathError{Path: name, Err: codec.ErrNull}
		}
	}

	*tx = Transaction(dec)
	return nil
}

// IsContractCreation reports whether the transaction deploys a contract.
func (tx Transaction) IsContractCreation() bool {
	return tx.To == nil
}
