package loadbalance

import (
	"math/rand"
	"web3-rpc/registry"
)

// WeightedRandomBalancer picks endpoints with probability proportional to Weight.
// Endpoints with a zero or negative weight count as weight 1, so a registration that
// forgot to set one still receives traffic.
type WeightedRandomBalancer struct{}

func (b *WeightedRandomBalancer) Pick(endpoints []registry.Endpoint) (*registry.Endpoint, error) {
	if len(endpoints) == 0 {
		return nil, ErrNoEndpoints
	}

	totalWeight := 0
	for _, e := range endpoints {
		totalWeight += weight(e)
	}

	r := rand.Intn(totalWeight)
	for i := range endpoints {
		r -= weight(endpoints[i])
		if r < 0 {
			return &endpoints[i], nil
		}
	}
	return &endpoints[len(endpoints)-1], nil
}

func (b *WeightedRandomBalancer) Name() string {
	return "WeightedRandom"
}

func weight(e registry.Endpoint) int {
	if e.Weight <= 0 {
		return 1
	}
	return e.Weight
}
