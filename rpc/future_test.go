package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"syscall"
	"testing"
	"time"
	"web3-rpc/codec"
	"web3-rpc/message"
	"web3-rpc/transport"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type status struct {
	Pending hexutil.Uint `json:"pending"`
	Queued  hexutil.Uint `json:"queued"`
}

func TestAwaitDecodesResult(t *testing.T) {
	f := NewCallFuture[status]("txpool_status", transport.Resolved(json.RawMessage(`{"pending":"0xa","queued":"0x7"}`)))

	got, err := f.Await(context.Background())
	require.NoError(t, err)
	assert.Equal(t, status{Pending: 10, Queued: 7}, got)
	assert.Equal(t, StateSucceeded, f.State())
	assert.Equal(t, "txpool_status", f.Method())
}

func TestTransportFailureSkipsDecode(t *testing.T) {
	refused := syscall.ECONNREFUSED
	f := NewCallFuture[status]("txpool_status", transport.Failed(refused))

	got, err := f.Await(context.Background())
	assert.Equal(t, status{}, got)
	assert.True(t, IsTransportError(err))
	assert.False(t, IsDecodeError(err))
	assert.ErrorIs(t, err, syscall.ECONNREFUSED)
	assert.Contains(t, err.Error(), "connection refused")
	assert.Equal(t, StateTransportFailed, f.State())
}

func TestRemoteErrorIsTransportError(t *testing.T) {
	f := NewCallFuture[status]("txpool_status", transport.Failed(message.ErrMethodNotFound("txpool_status")))

	_, err := f.Await(context.Background())
	var transportErr *TransportError
	require.True(t, errors.As(err, &transportErr))
	code, ok := transportErr.Code()
	assert.True(t, ok)
	assert.Equal(t, message.CodeMethodNotFound, code)
}

func TestMismatchedPayloadIsDecodeError(t *testing.T) {
	cases := map[string]string{
		"wrong type":      `{"pending":10,"queued":"0x7"}`,
		"not object":      `"0xa"`,
		"unexpected null": `null`,
		"malformed":       `{"pending":`,
	}
	for name, payload := range cases {
		payload := payload
		t.Run(name, func(t *testing.T) {
			f := NewCallFuture[status]("txpool_status", transport.Resolved(json.RawMessage(payload)))

			got, err := f.Await(context.Background())
			assert.Equal(t, status{}, got)
			assert.True(t, IsDecodeError(err))
			assert.False(t, IsTransportError(err))
			assert.Equal(t, StateDecodeFailed, f.State())
		})
	}
}

func TestDecodeErrorCarriesPath(t *testing.T) {
	f := NewCallFuture[status]("txpool_status", transport.Resolved(json.RawMessage(`{"pending":"0xa","queued":true}`)))

	_, err := f.Await(context.Background())
	var decodeErr *DecodeError
	require.True(t, errors.As(err, &decodeErr))
	assert.Equal(t, "queued", decodeErr.Path)
	assert.Equal(t, "txpool_status", decodeErr.Method)
}

var decodes atomic.Int32

// counted records every decode attempt.
type counted struct{}

func (c *counted) UnmarshalJSON([]byte) error {
	decodes.Add(1)
	return nil
}

func TestRepeatedAwaitIsIdempotent(t *testing.T) {
	p := transport.NewPending()
	f := NewCallFuture[json.RawMessage]("web3_clientVersion", p)
	p.Resolve(json.RawMessage(`"Geth/v1.15.11"`), nil)

	first, err1 := f.Await(context.Background())
	second, err2 := f.Await(context.Background())
	assert.Equal(t, first, second)
	assert.NoError(t, err1)
	assert.NoError(t, err2)

	// a late second resolution of the handle is ignored
	p.Resolve(json.RawMessage(`"other"`), nil)
	third, _ := f.Await(context.Background())
	assert.Equal(t, first, third)
}

func TestResolvedFutureDecodesOnce(t *testing.T) {
	decodes.Store(0)
	f := NewCallFuture[counted]("x", transport.Resolved(json.RawMessage(`{}`)))

	_, _ = f.Await(context.Background())
	_, _ = f.Await(context.Background())
	_, _, _ = f.Poll()
	_ = f.State()
	assert.Equal(t, int32(1), decodes.Load())
}

func TestRepeatedAwaitKeepsError(t *testing.T) {
	f := NewCallFuture[status]("txpool_status", transport.Failed(errors.New("boom")))

	_, err1 := f.Await(context.Background())
	_, err2 := f.Await(context.Background())
	assert.Same(t, err1, err2)
}

func TestPollAndState(t *testing.T) {
	p := transport.NewPending()
	f := NewCallFuture[status]("txpool_status", p)

	_, done, err := f.Poll()
	assert.False(t, done)
	assert.NoError(t, err)
	assert.Equal(t, StatePending, f.State())

	p.Resolve(json.RawMessage(`{"pending":"0x1","queued":"0x0"}`), nil)
	<-f.Done()

	v, done, err := f.Poll()
	assert.True(t, done)
	assert.NoError(t, err)
	assert.Equal(t, hexutil.Uint(1), v.Pending)
	assert.Equal(t, StateSucceeded, f.State())
}

func TestAwaitContextDoesNotResolve(t *testing.T) {
	p := transport.NewPending()
	f := NewCallFuture[status]("txpool_status", p)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := f.Await(ctx)
	assert.True(t, IsTransportError(err))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, StatePending, f.State())

	// the real outcome is still observable afterwards
	p.Resolve(json.RawMessage(`{"pending":"0x2","queued":"0x3"}`), nil)
	got, err := f.Await(context.Background())
	require.NoError(t, err)
	assert.Equal(t, status{Pending: 2, Queued: 3}, got)
}

func TestCallSubmitsOnce(t *testing.T) {
	mock := transport.NewMock().Reply("web3_sha3", `"0x47173285a8d7341e5e972fc677286384f802f8ef42a5ec5f03bbfa254cb01fad"`)

	f := Call[hexutil.Bytes](context.Background(), mock, "web3_sha3", codec.Bytes([]byte("hello world")))
	_, err := f.Await(context.Background())
	require.NoError(t, err)

	calls := mock.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "web3_sha3", calls[0].Method)
	assert.Equal(t, []json.RawMessage{json.RawMessage(`"0x68656c6c6f20776f726c64"`)}, calls[0].Params)
}

func TestCallWithoutParamsSendsEmptyList(t *testing.T) {
	mock := transport.NewMock().Reply("net_listening", `true`)

	listening, err := Call[bool](context.Background(), mock, "net_listening").Await(context.Background())
	require.NoError(t, err)
	assert.True(t, listening)

	calls := mock.Calls()
	require.Len(t, calls, 1)
	assert.NotNil(t, calls[0].Params)
	assert.Empty(t, calls[0].Params)
}

func TestNamespaceSharesTransport(t *testing.T) {
	mock := transport.NewMock()
	a, b := NewNamespace(mock), NewNamespace(mock)
	assert.Same(t, a.Transport(), b.Transport())
}
