// Package loadbalance chooses which node serves a call when several endpoints are
// registered for a network.
//
// Three strategies are implemented:
//   - RoundRobin:      Equal nodes behind one network name
//   - WeightedRandom:  Nodes of different capacity (archive node vs. light provider)
//   - ConsistentHash:  Account affinity, so calls about one address hit one node and
//     see one consistent view of its transaction pool
package loadbalance

import (
	"errors"
	"fmt"
	"web3-rpc/registry"
)

// ErrNoEndpoints is returned when there is nothing to pick from.
var ErrNoEndpoints = errors.New("no endpoints available")

// Balancer is the interface for load balancing strategies.
// The transport calls Pick() before each call to select a target endpoint.
type Balancer interface {
	// Pick selects one endpoint from the available list.
	// Called on every call, so it must be goroutine-safe.
	Pick(endpoints []registry.Endpoint) (*registry.Endpoint, error)

	// Name returns the strategy name (for logging/debugging).
	Name() string
}

// KeyedBalancer picks by a routing key, such as the first call parameter.
type KeyedBalancer interface {
	Balancer
	PickKey(key string, endpoints []registry.Endpoint) (*registry.Endpoint, error)
}

// New returns the balancer registered under name.
func New(name string) (Balancer, error) {
	switch name {
	case "", "round_robin":
		return &RoundRobinBalancer{}, nil
	case "weighted_random":
		return &WeightedRandomBalancer{}, nil
	case "consistent_hash":
		return NewConsistentHashBalancer(), nil
	}
	return nil, fmt.Errorf("unknown balancer %q", name)
}
