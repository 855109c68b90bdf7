package transport_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"web3-rpc/protocol"
	"web3-rpc/transport"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// dialer records every connection it opens.
type dialer struct {
	addr string
	mu   sync.Mutex
	muxs []*transport.Mux
}

func (d *dialer) dial(ctx context.Context) (*transport.Mux, error) {
	m, err := transport.DialTCP(ctx, d.addr, protocol.FramingStream, nil)
	if err != nil {
		return nil, err
	}
	d.mu.Lock()
	d.muxs = append(d.muxs, m)
	d.mu.Unlock()
	return m, nil
}

func (d *dialer) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.muxs)
}

func TestPool(t *testing.T) {
	d := &dialer{addr: serveTCP(t, newArithServer(t), protocol.FramingStream)}
	pool, err := transport.NewPool(context.Background(), 3, d.dial)
	require.NoError(t, err)
	defer pool.Close()
	assert.Equal(t, 3, pool.Size())
	assert.Equal(t, 3, d.count())

	for i := uint64(0); i < 9; i++ {
		assert.Equal(t, int(i+1), add(t, pool, i, 1))
	}
	assert.Equal(t, 3, d.count())
}

func TestPoolRedialsBrokenConnection(t *testing.T) {
	d := &dialer{addr: serveTCP(t, newArithServer(t), protocol.FramingStream)}
	pool, err := transport.NewPool(context.Background(), 2, d.dial)
	require.NoError(t, err)
	defer pool.Close()

	d.muxs[0].Close()
	for i := uint64(0); i < 4; i++ {
		assert.Equal(t, int(i*2), add(t, pool, i, i))
	}
	assert.Equal(t, 3, d.count())
}

func TestPoolDialFailure(t *testing.T) {
	boom := errors.New("boom")
	_, err := transport.NewPool(context.Background(), 2, func(context.Context) (*transport.Mux, error) {
		return nil, boom
	})
	assert.ErrorIs(t, err, boom)

	_, err = transport.NewPool(context.Background(), 0, nil)
	assert.Error(t, err)
}

func TestPoolClosed(t *testing.T) {
	d := &dialer{addr: serveTCP(t, newArithServer(t), protocol.FramingStream)}
	pool, err := transport.NewPool(context.Background(), 2, d.dial)
	require.NoError(t, err)
	require.NoError(t, pool.Close())

	_, err = pool.Send(context.Background(), "arith_add", nil).Result()
	assert.ErrorIs(t, err, transport.ErrClosed)
	for _, m := range d.muxs {
		assert.True(t, m.Closed())
	}
}
