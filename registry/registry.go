// Package registry tracks which nodes serve a network, so that clients can spread
// calls over several endpoints and follow nodes as they come and go.
package registry

import "context"

// Endpoint is one node a client can dial.
type Endpoint struct {
	Addr    string `json:"addr"`    // URL or socket address, e.g. "http://10.0.0.5:8545"
	Weight  int    `json:"weight"`  // Relative share for weighted balancing
	Version string `json:"version"` // Node client version, informational
}

// Registry is implemented by EtcdRegistry and Static.
type Registry interface {
	Register(ctx context.Context, service string, endpoint Endpoint, ttl int64) error
	Deregister(ctx context.Context, service string, addr string) error
	Discover(ctx context.Context, service string) ([]Endpoint, error)
	// Watch emits the full endpoint list after every change until ctx is done.
	Watch(ctx context.Context, service string) <-chan []Endpoint
}
