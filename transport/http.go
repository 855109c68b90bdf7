package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"sync/atomic"
	"web3-rpc/message"
)

// maxResponseSize bounds the body read for one HTTP reply.
const maxResponseSize = 128 << 20

// HTTPError is returned when the node answers with a non-2xx status.
type HTTPError struct {
	StatusCode int
	Status     string
	Body       []byte
}

func (e *HTTPError) Error() string {
	if len(e.Body) == 0 {
		return e.Status
	}
	return fmt.Sprintf("%s: %s", e.Status, e.Body)
}

// HTTP posts every call as its own request. Calls are independent, so there is no
// connection state beyond what http.Client keeps.
type HTTP struct {
	url    string
	client *http.Client
	nextID atomic.Uint64

	mu     sync.RWMutex
	header http.Header
}

// NewHTTP returns a transport for url. A nil client means http.DefaultClient.
func NewHTTP(url string, client *http.Client) *HTTP {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTP{
		url:    url,
		client: client,
		header: make(http.Header),
	}
}

// SetHeader adds a header sent with every request, e.g. an API key.
func (t *HTTP) SetHeader(key, value string) {
	t.mu.Lock()
	t.header.Set(key, value)
	t.mu.Unlock()
}

func (t *HTTP) Send(ctx context.Context, method string, params []json.RawMessage) *Pending {
	p := NewPending()
	id := t.nextID.Add(1)
	go func() {
		p.Resolve(t.roundTrip(ctx, id, method, params))
	}()
	return p
}

func (t *HTTP) roundTrip(ctx context.Context, id uint64, method string, params []json.RawMessage) (json.RawMessage, error) {
	body, err := json.Marshal(message.NewRequest(id, method, params))
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	t.mu.RLock()
	for k, v := range t.header {
		req.Header[k] = v
	}
	t.mu.RUnlock()

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &HTTPError{StatusCode: resp.StatusCode, Status: resp.Status, Body: data}
	}

	var rpcResp message.Response
	if err := json.Unmarshal(data, &rpcResp); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}
	return rpcResp.Outcome()
}
