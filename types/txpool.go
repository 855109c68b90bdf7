// Package types holds the results of the txpool namespace, shaped the way Ethereum
// nodes return them. Quantities are hex strings on the wire and are decoded with
// go-ethereum's hexutil types.
package types

import (
	"encoding/json"
	"web3-rpc/codec"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// TxpoolStatus is the result of txpool_status: the number of transactions waiting in
// each pool.
type TxpoolStatus struct {
	Pending hexutil.Uint `json:"pending"`
	Queued  hexutil.Uint `json:"queued"`
}

// UnmarshalJSON rejects objects missing either counter rather than reporting zero.
func (s *TxpoolStatus) UnmarshalJSON(data []byte) error {
	pending, queued, err := decodePools[hexutil.Uint](data)
	if err != nil {
		return err
	}
	s.Pending, s.Queued = pending, queued
	return nil
}

// pools is the shape shared by every txpool result. A nil member was absent or null.
type pools[V any] struct {
	Pending *V `json:"pending"`
	Queued  *V `json:"queued"`
}

// decodePools requires both members; an empty pool is {} on the wire, never null.
func decodePools[V any](data []byte) (pending, queued V, err error) {
	var dec pools[V]
	if err := json.Unmarshal(data, &dec); err != nil {
		return pending, queued, err
	}
	if dec.Pending == nil {
		return pending, queued, codec.Missing("pending")
	}
	if dec.Queued == nil {
		return pending, queued, codec.Missing("queued")
	}
	return *dec.Pending, *dec.Queued, nil
}

// Total is the number of transactions in both pools.
func (s TxpoolStatus) Total() uint64 {
	return uint64(s.Pending) + uint64(s.Queued)
}

// TxpoolContentInfo is the result of txpool_content: every pooled transaction, keyed
// by sender and then by nonce (a decimal string).
type TxpoolContentInfo struct {
	Pending map[common.Address]map[string]Transaction `json:"pending"`
	Queued  map[common.Address]map[string]Transaction `json:"queued"`
}

func (c *TxpoolContentInfo) UnmarshalJSON(data []byte) error {
	pending, queued, err := decodePools[map[common.Address]map[string]Transaction](data)
	if err != nil {
		return err
	}
	c.Pending, c.Queued = pending, queued
	return nil
}

// Count returns the number of pending and queued transactions.
func (c TxpoolContentInfo) Count() (pending, queued int) {
	for _, txs := range c.Pending {
		pending += len(txs)
	}
	for _, txs := range c.Queued {
		queued += len(txs)
	}
	return pending, queued
}

// TxpoolContentFromInfo is the result of txpool_contentFrom: the pooled transactions
// of one sender, keyed by nonce.
type TxpoolContentFromInfo struct {
	Pending map[string]Transaction `json:"pending"`
	Queued  map[string]Transaction `json:"queued"`
}

func (c *TxpoolContentFromInfo) UnmarshalJSON(data []byte) error {
	pending, queued, err := decodePools[map[string]Transaction](data)
	if err != nil {
		return err
	}
	c.Pending, c.Queued = pending, queued
	return nil
}

// TxpoolInspectInfo is the result of txpool_inspect: a one-line textual summary of
// every pooled transaction, keyed by sender and nonce.
type TxpoolInspectInfo struct {
	Pending map[common.Address]map[string]InspectSummary `json:"pending"`
	Queued  map[common.Address]map[string]InspectSummary `json:"queued"`
}

func (i *TxpoolInspectInfo) UnmarshalJSON(data []byte) error {
	pending, queued, err := decodePools[map[common.Address]map[string]InspectSummary](data)
	if err != nil {
		return err
	}
	i.Pending, i.Queued = pending, queued
	return nil
}
