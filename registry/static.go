package registry

import (
	"context"
	"slices"
	"sync"
)

// Static is an in-memory Registry for fixed endpoint lists. TTLs are ignored.
type Static struct {
	mu       sync.Mutex
	services map[string][]Endpoint
	watchers map[string][]chan []Endpoint
}

// NewStatic seeds service with endpoints.
func NewStatic(service string, endpoints ...Endpoint) *Static {
	s := &Static{
		services: make(map[string][]Endpoint),
		watchers: make(map[string][]chan []Endpoint),
	}
	if service != "" {
		s.services[service] = slices.Clone(endpoints)
	}
	return s
}

func (s *Static) Register(_ context.Context, service string, endpoint Endpoint, _ int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := slices.DeleteFunc(s.services[service], func(e Endpoint) bool { return e.Addr == endpoint.Addr })
	s.services[service] = append(list, endpoint)
	s.notify(service)
	return nil
}

func (s *Static) Deregister(_ context.Context, service string, addr string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.services[service] = slices.DeleteFunc(s.services[service], func(e Endpoint) bool { return e.Addr == addr })
	s.notify(service)
	return nil
}

func (s *Static) Discover(_ context.Context, service string) ([]Endpoint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.services[service]), nil
}

func (s *Static) Watch(ctx context.Context, service string) <-chan []Endpoint {
	ch := make(chan []Endpoint, 1)
	s.mu.Lock()
	s.watchers[service] = append(s.watchers[service], ch)
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		s.mu.Lock()
		s.watchers[service] = slices.DeleteFunc(s.watchers[service], func(c chan []Endpoint) bool { return c == ch })
		close(ch)
		s.mu.Unlock()
	}()
	return ch
}

// notify hands the newest list to every watcher, replacing an unread older one.
// Callers hold s.mu.
func (s *Static) notify(service string) {
	for _, ch := range s.watchers[service] {
		select {
		case <-ch:
		default:
		}
		ch <- slices.Clone(s.services[service])
	}
}
