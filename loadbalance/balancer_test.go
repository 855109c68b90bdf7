package loadbalance

import (
	"fmt"
	"testing"
	"web3-rpc/registry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testEndpoints = []registry.Endpoint{
	{Addr: "http://node-1:8545", Weight: 10},
	{Addr: "http://node-2:8545", Weight: 5},
	{Addr: "http://node-3:8545", Weight: 10},
}

func TestRoundRobin(t *testing.T) {
	b := &RoundRobinBalancer{}

	results := make([]string, 3)
	for i := range results {
		e, err := b.Pick(testEndpoints)
		require.NoError(t, err)
		results[i] = e.Addr
	}
	assert.Equal(t, []string{"http://node-1:8545", "http://node-2:8545", "http://node-3:8545"}, results)

	// wraps around to the first endpoint
	e, _ := b.Pick(testEndpoints)
	assert.Equal(t, results[0], e.Addr)
}

func TestRoundRobinEmpty(t *testing.T) {
	b := &RoundRobinBalancer{}
	_, err := b.Pick(nil)
	assert.ErrorIs(t, err, ErrNoEndpoints)
}

func TestWeightedRandom(t *testing.T) {
	b := &WeightedRandomBalancer{}

	counts := map[string]int{}
	n := 10000
	for i := 0; i < n; i++ {
		e, err := b.Pick(testEndpoints)
		require.NoError(t, err)
		counts[e.Addr]++
	}

	// Weight ratio is 10:5:10, so node-1 should see about twice the calls of node-2
	ratio := float64(counts["http://node-1:8545"]) / float64(counts["http://node-2:8545"])
	assert.InDelta(t, 2.0, ratio, 0.5)
}

func TestWeightedRandomZeroWeights(t *testing.T) {
	b := &WeightedRandomBalancer{}
	e, err := b.Pick([]registry.Endpoint{{Addr: "a"}, {Addr: "b"}})
	require.NoError(t, err)
	assert.Contains(t, []string{"a", "b"}, e.Addr)
}

func TestConsistentHash(t *testing.T) {
	b := NewConsistentHashBalancer()
	for i := range testEndpoints {
		b.Add(&testEndpoints[i])
	}

	// Same key always maps to the same endpoint
	e1, _ := b.Get("0x52bc44d5378309ee2abf1539bf71de1b7d7be3b5")
	e2, _ := b.Get("0x52bc44d5378309ee2abf1539bf71de1b7d7be3b5")
	assert.Equal(t, e1.Addr, e2.Addr)

	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		e, _ := b.Get(fmt.Sprintf("key-%d", i))
		seen[e.Addr] = true
	}
	// With 100 different keys and 3 nodes, we should hit at least 2
	assert.GreaterOrEqual(t, len(seen), 2)
}

func TestConsistentHashPickKeyFollowsMembership(t *testing.T) {
	b := NewConsistentHashBalancer()

	first, err := b.PickKey("0xabc", testEndpoints)
	require.NoError(t, err)
	again, err := b.PickKey("0xabc", testEndpoints)
	require.NoError(t, err)
	assert.Equal(t, first.Addr, again.Addr)

	// once the chosen node leaves, the key moves to one of the survivors
	var remaining []registry.Endpoint
	for _, e := range testEndpoints {
		if e.Addr != first.Addr {
			remaining = append(remaining, e)
		}
	}
	moved, err := b.PickKey("0xabc", remaining)
	require.NoError(t, err)
	assert.NotEqual(t, first.Addr, moved.Addr)

	_, err = b.PickKey("0xabc", nil)
	assert.ErrorIs(t, err, ErrNoEndpoints)
}

func TestNew(t *testing.T) {
	for _, name := range []string{"", "round_robin", "weighted_random", "consistent_hash"} {
		_, err := New(name)
		assert.NoError(t, err, name)
	}
	_, err := New("random")
	assert.Error(t, err)
}
