package transport_test

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"
	"web3-rpc/message"
	"web3-rpc/protocol"
	"web3-rpc/server"

	"github.com/stretchr/testify/require"
)

type Arith struct{}

func (Arith) Add(a, b int) int {
	return a + b
}

func (Arith) Div(a, b int) (int, error) {
	if b == 0 {
		return 0, &message.Error{Code: 3, Message: "division by zero"}
	}
	return a / b, nil
}

// Sleep answers after d milliseconds unless the connection goes away.
func (Arith) Sleep(ctx context.Context, d int) (bool, error) {
	select {
	case <-time.After(time.Duration(d) * time.Millisecond):
		return true, nil
	case <-ctx.Done():
		return false, errors.New("interrupted")
	}
}

func newArithServer(t *testing.T) *server.Server {
	t.Helper()
	s := server.NewServer(nil)
	require.NoError(t, s.RegisterName("arith", Arith{}))
	return s
}

// serveTCP starts s on a loopback port and returns its address.
func serveTCP(t *testing.T, s *server.Server, framing protocol.Framing) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go s.ServeListener(ln, framing)
	t.Cleanup(func() { s.Shutdown(time.Second) })
	return ln.Addr().String()
}
