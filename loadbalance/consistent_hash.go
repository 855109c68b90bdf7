package loadbalance

import (
	"fmt"
	"hash/crc32"
	"slices"
	"strings"
	"sync"
	"web3-rpc/registry"
)

// ConsistentHashBalancer maps keys to endpoints using a hash ring.
// The same key always maps to the same endpoint (until the ring changes). Keyed by
// account address, this gives a client a stable view of one node's transaction pool.
//
// Virtual nodes: each real endpoint is mapped to N virtual nodes on the ring.
// Without virtual nodes, 3 endpoints might cluster together on the ring, causing
// uneven load distribution.
//
//	Hash Ring:
//	                  0
//	                ╱   ╲
//	              ╱       ╲
//	         B ●               ● A
//	           │    key ◆──►   │   (clockwise to nearest node → A)
//	         C ●               ● A' (virtual node of A)
//	              ╲       ╱
//	                ╲   ╱
type ConsistentHashBalancer struct {
	mu       sync.RWMutex
	replicas int                           // Virtual nodes per real endpoint
	ring     []uint32                      // Sorted hash values on the ring
	nodes    map[uint32]*registry.Endpoint // Hash value → endpoint
	members  string                        // Addresses the ring was built from, for change detection
}

// NewConsistentHashBalancer creates a hash ring with 100 virtual nodes per endpoint.
func NewConsistentHashBalancer() *ConsistentHashBalancer {
	return &ConsistentHashBalancer{
		replicas: 100,
		nodes:    make(map[uint32]*registry.Endpoint),
	}
}

// Add places an endpoint onto the hash ring with N virtual nodes.
// Each virtual node is hashed from "{addr}#{i}" to spread evenly across the ring.
func (b *ConsistentHashBalancer) Add(endpoint *registry.Endpoint) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.add(endpoint)
}

func (b *ConsistentHashBalancer) add(endpoint *registry.Endpoint) {
	for i := 0; i < b.replicas; i++ {
		hash := crc32.ChecksumIEEE([]byte(fmt.Sprintf("%s#%d", endpoint.Addr, i)))
		b.ring = append(b.ring, hash)
		b.nodes[hash] = endpoint
	}
	slices.Sort(b.ring)
}

// Get finds the endpoint responsible for key: the first virtual node at or after
// the key's hash, wrapping around to the start of the ring.
func (b *ConsistentHashBalancer) Get(key string) (*registry.Endpoint, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.get(key)
}

func (b *ConsistentHashBalancer) get(key string) (*registry.Endpoint, error) {
	if len(b.ring) == 0 {
		return nil, ErrNoEndpoints
	}
	hash := crc32.ChecksumIEEE([]byte(key))
	idx, _ := slices.BinarySearch(b.ring, hash)
	if idx == len(b.ring) {
		idx = 0
	}
	return b.nodes[b.ring[idx]], nil
}

// PickKey rebuilds the ring when the endpoint set changed, then looks key up.
func (b *ConsistentHashBalancer) PickKey(key string, endpoints []registry.Endpoint) (*registry.Endpoint, error) {
	if len(endpoints) == 0 {
		return nil, ErrNoEndpoints
	}
	members := memberKey(endpoints)

	b.mu.RLock()
	if b.members == members {
		defer b.mu.RUnlock()
		return b.get(key)
	}
	b.mu.RUnlock()

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.members != members {
		b.ring = b.ring[:0]
		clear(b.nodes)
		for i := range endpoints {
			endpoint := endpoints[i]
			b.add(&endpoint)
		}
		b.members = members
	}
	return b.get(key)
}

// Pick without a key always lands on the same endpoint.
func (b *ConsistentHashBalancer) Pick(endpoints []registry.Endpoint) (*registry.Endpoint, error) {
	return b.PickKey("", endpoints)
}

func (b *ConsistentHashBalancer) Name() string {
	return "ConsistentHash"
}

func memberKey(endpoints []registry.Endpoint) string {
	addrs := make([]string, len(endpoints))
	for i, e := range endpoints {
		addrs[i] = e.Addr
	}
	slices.Sort(addrs)
	return strings.Join(addrs, ",")
}
