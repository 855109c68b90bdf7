// Package node implements the txpool, net and web3 namespaces of a development node
// on top of an in-memory transaction pool.
package node

import (
	"fmt"
	"math/big"
	"strconv"
	"sync"
	"web3-rpc/types"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	gethtypes "github.com/ethereum/go-ethereum/core/types"
)

// Pool holds pending (executable) and queued (nonce-gapped) transactions by sender
// and nonce.
type Pool struct {
	mu      sync.RWMutex
	pending map[common.Address]map[uint64]types.Transaction
	queued  map[common.Address]map[uint64]types.Transaction
}

func NewPool() *Pool {
	return &Pool{
		pending: make(map[common.Address]map[uint64]types.Transaction),
		queued:  make(map[common.Address]map[uint64]types.Transaction),
	}
}

// Add inserts tx, replacing any transaction with the same sender and nonce.
func (p *Pool) Add(tx types.Transaction, queued bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	nonce := uint64(tx.Nonce)
	delete(p.pending[tx.From], nonce)
	delete(p.queued[tx.From], nonce)

	target := p.pending
	if queued {
		target = p.queued
	}
	if target[tx.From] == nil {
		target[tx.From] = make(map[uint64]types.Transaction)
	}
	target[tx.From][nonce] = tx
}

// AddSigned inserts a signed go-ethereum transaction, recovering its sender.
func (p *Pool) AddSigned(tx *gethtypes.Transaction, queued bool) error {
	converted, err := NewTransaction(tx)
	if err != nil {
		return err
	}
	p.Add(converted, queued)
	return nil
}

// Remove drops the transaction of from with nonce and reports whether it existed.
func (p *Pool) Remove(from common.Address, nonce uint64) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, pool := range []map[common.Address]map[uint64]types.Transaction{p.pending, p.queued} {
		if _, ok := pool[from][nonce]; ok {
			delete(pool[from], nonce)
			if len(pool[from]) == 0 {
				delete(pool, from)
			}
			return true
		}
	}
	return false
}

func (p *Pool) Status() types.TxpoolStatus {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return types.TxpoolStatus{
		Pending: hexutil.Uint(count(p.pending)),
		Queued:  hexutil.Uint(count(p.queued)),
	}
}

func (p *Pool) Content() types.TxpoolContentInfo {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return types.TxpoolContentInfo{
		Pending: bySender(p.pending, func(tx types.Transaction) types.Transaction { return tx }),
		Queued:  bySender(p.queued, func(tx types.Transaction) types.Transaction { return tx }),
	}
}

func (p *Pool) ContentFrom(addr common.Address) types.TxpoolContentFromInfo {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return types.TxpoolContentFromInfo{
		Pending: byNonce(p.pending[addr], func(tx types.Transaction) types.Transaction { return tx }),
		Queued:  byNonce(p.queued[addr], func(tx types.Transaction) types.Transaction { return tx }),
	}
}

func (p *Pool) Inspect() types.TxpoolInspectInfo {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return types.TxpoolInspectInfo{
		Pending: bySender(p.pending, summarize),
		Queued:  bySender(p.queued, summarize),
	}
}

func count(pool map[common.Address]map[uint64]types.Transaction) int {
	n := 0
	for _, txs := range pool {
		n += len(txs)
	}
	return n
}

// bySender renders a pool with decimal nonce keys, the layout nodes report.
func bySender[V any](pool map[common.Address]map[uint64]types.Transaction, render func(types.Transaction) V) map[common.Address]map[string]V {
	out := make(map[common.Address]map[string]V, len(pool))
	for addr, txs := range pool {
		if len(txs) > 0 {
			out[addr] = byNonce(txs, render)
		}
	}
	return out
}

func byNonce[V any](txs map[uint64]types.Transaction, render func(types.Transaction) V) map[string]V {
	out := make(map[string]V, len(txs))
	for nonce, tx := range txs {
		out[strconv.FormatUint(nonce, 10)] = render(tx)
	}
	return out
}

func summarize(tx types.Transaction) types.InspectSummary {
	value, price := new(big.Int), new(big.Int)
	if tx.Value != nil {
		value = tx.Value.ToInt()
	}
	if tx.GasPrice != nil {
		price = tx.GasPrice.ToInt()
	}
	return types.FormatInspectSummary(tx.To, value, uint64(tx.Gas), price)
}

// NewTransaction converts a signed go-ethereum transaction to its RPC form.
func NewTransaction(tx *gethtypes.Transaction) (types.Transaction, error) {
	signer := gethtypes.LatestSignerForChainID(tx.ChainId())
	from, err := gethtypes.Sender(signer, tx)
	if err != nil {
		return types.Transaction{}, fmt.Errorf("recover sender of %s: %w", tx.Hash(), err)
	}

	v, r, s := tx.RawSignatureValues()
	txType := hexutil.Uint64(tx.Type())
	out := types.Transaction{
		From:     from,
		Gas:      hexutil.Uint64(tx.Gas()),
		GasPrice: (*hexutil.Big)(tx.GasPrice()),
		Hash:     tx.Hash(),
		Input:    hexutil.Bytes(tx.Data()),
		Nonce:    hexutil.Uint64(tx.Nonce()),
		To:       tx.To(),
		Value:    (*hexutil.Big)(tx.Value()),
		Type:     &txType,
		V:        (*hexutil.Big)(v),
		R:        (*hexutil.Big)(r),
		S:        (*hexutil.Big)(s),
	}
	if tx.Type() != gethtypes.LegacyTxType {
		out.ChainID = (*hexutil.Big)(tx.ChainId())
		out.GasFeeCap = (*hexutil.Big)(tx.GasFeeCap())
		out.GasTipCap = (*hexutil.Big)(tx.GasTipCap())
	}
	return out, nil
}
