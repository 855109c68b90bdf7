package server

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
	"web3-rpc/message"
	"web3-rpc/protocol"
	"web3-rpc/registry"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type Arith struct{}

func (Arith) Add(a, b int) int {
	return a + b
}

func (Arith) Div(a, b int) (int, error) {
	if b == 0 {
		return 0, errors.New("division by zero")
	}
	return a / b, nil
}

// Scale multiplies by factor, 2 when omitted.
func (Arith) Scale(v int, factor *int) int {
	if factor == nil {
		return v * 2
	}
	return v * *factor
}

func (Arith) Deadline(ctx context.Context) bool {
	_, ok := ctx.Deadline()
	return ok
}

func (Arith) Reject() error {
	return &message.Error{Code: 3, Message: "execution reverted", Data: json.RawMessage(`"0x08c379a0"`)}
}

func (Arith) Crash() int {
	panic("boom")
}

func newServer(t *testing.T) *Server {
	t.Helper()
	s := NewServer(nil)
	require.NoError(t, s.RegisterName("arith", Arith{}))
	return s
}

func handle(t *testing.T, s *Server, body string) *message.Response {
	t.Helper()
	var resp message.Response
	require.NoError(t, json.Unmarshal(s.Handle(context.Background(), []byte(body)), &resp))
	assert.Equal(t, message.Version, resp.JSONRPC)
	return &resp
}

func TestRegisterName(t *testing.T) {
	s := newServer(t)
	assert.Equal(t, []string{"arith_add", "arith_crash", "arith_deadline", "arith_div", "arith_reject", "arith_scale"}, s.Methods())

	assert.Error(t, s.RegisterName("", Arith{}))
	assert.Error(t, s.RegisterName("bad_name", Arith{}))
	assert.Error(t, s.RegisterName("empty", struct{}{}))
	assert.Error(t, s.RegisterName("nil", nil))
}

func TestHandle(t *testing.T) {
	s := newServer(t)

	resp := handle(t, s, `{"jsonrpc":"2.0","id":7,"method":"arith_add","params":[1,2]}`)
	assert.JSONEq(t, `7`, string(resp.ID))
	assert.JSONEq(t, `3`, string(resp.Result))
	assert.Nil(t, resp.Error)

	resp = handle(t, s, `{"jsonrpc":"2.0","id":8,"method":"arith_scale","params":[5]}`)
	assert.JSONEq(t, `10`, string(resp.Result))
	resp = handle(t, s, `{"jsonrpc":"2.0","id":9,"method":"arith_scale","params":[5,3]}`)
	assert.JSONEq(t, `15`, string(resp.Result))
}

func TestHandleErrors(t *testing.T) {
	s := newServer(t)

	cases := map[string]struct {
		body string
		code int
	}{
		"parse error":       {`{"jsonrpc":`, message.CodeParseError},
		"not 2.0":           {`{"jsonrpc":"1.0","id":1,"method":"arith_add","params":[1,2]}`, message.CodeInvalidRequest},
		"unknown method":    {`{"jsonrpc":"2.0","id":1,"method":"arith_pow","params":[]}`, message.CodeMethodNotFound},
		"unknown namespace": {`{"jsonrpc":"2.0","id":1,"method":"eth_call","params":[]}`, message.CodeMethodNotFound},
		"no namespace":      {`{"jsonrpc":"2.0","id":1,"method":"add","params":[]}`, message.CodeMethodNotFound},
		"missing argument":  {`{"jsonrpc":"2.0","id":1,"method":"arith_add","params":[1]}`, message.CodeInvalidParams},
		"too many":          {`{"jsonrpc":"2.0","id":1,"method":"arith_add","params":[1,2,3]}`, message.CodeInvalidParams},
		"wrong type":        {`{"jsonrpc":"2.0","id":1,"method":"arith_add","params":["1",2]}`, message.CodeInvalidParams},
		"handler error":     {`{"jsonrpc":"2.0","id":1,"method":"arith_div","params":[1,0]}`, message.CodeServerError},
		"handler panic":     {`{"jsonrpc":"2.0","id":1,"method":"arith_crash","params":[]}`, message.CodeInternalError},
	}
	for name, tc := range cases {
		tc := tc
		t.Run(name, func(t *testing.T) {
			resp := handle(t, s, tc.body)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tc.code, resp.Error.Code)
			assert.Empty(t, resp.Result)
		})
	}
}

func TestHandleKeepsErrorCodeAndData(t *testing.T) {
	resp := handle(t, newServer(t), `{"jsonrpc":"2.0","id":1,"method":"arith_reject","params":[]}`)
	require.NotNil(t, resp.Error)
	assert.Equal(t, 3, resp.Error.Code)
	assert.Equal(t, "execution reverted", resp.Error.Message)
	assert.JSONEq(t, `"0x08c379a0"`, string(resp.Error.Data))
}

func TestHandlePassesContext(t *testing.T) {
	s := newServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	out := s.Handle(ctx, []byte(`{"jsonrpc":"2.0","id":1,"method":"arith_deadline","params":[]}`))
	assert.JSONEq(t, `{"jsonrpc":"2.0","id":1,"result":true}`, string(out))
}

func TestHandleBatchAndNotifications(t *testing.T) {
	s := newServer(t)

	assert.Nil(t, s.Handle(context.Background(), []byte(`{"jsonrpc":"2.0","method":"arith_add","params":[1,2]}`)))

	out := s.Handle(context.Background(), []byte(`[
		{"jsonrpc":"2.0","id":1,"method":"arith_add","params":[1,2]},
		{"jsonrpc":"2.0","method":"arith_add","params":[1,2]},
		{"jsonrpc":"2.0","id":2,"method":"arith_add","params":[3,4]}
	]`))
	var batch []message.Response
	require.NoError(t, json.Unmarshal(out, &batch))
	require.Len(t, batch, 2)
	assert.JSONEq(t, `3`, string(batch[0].Result))
	assert.JSONEq(t, `7`, string(batch[1].Result))

	resp := handle(t, s, `[]`)
	assert.Equal(t, message.CodeInvalidRequest, resp.Error.Code)
}

func TestServeStream(t *testing.T) {
	for _, framing := range []protocol.Framing{protocol.FramingStream, protocol.FramingLength} {
		framing := framing
		t.Run(string(framing), func(t *testing.T) {
			s := newServer(t)
			ln, err := net.Listen("tcp", "127.0.0.1:0")
			require.NoError(t, err)
			served := make(chan error, 1)
			go func() { served <- s.ServeListener(ln, framing) }()

			raw, err := net.Dial("tcp", ln.Addr().String())
			require.NoError(t, err)
			conn := protocol.NewConn(raw, framing)
			defer conn.Close()

			// both requests are written before either response is read
			require.NoError(t, conn.WriteMessage([]byte(`{"jsonrpc":"2.0","id":1,"method":"arith_add","params":[1,2]}`)))
			require.NoError(t, conn.WriteMessage([]byte(`{"jsonrpc":"2.0","id":2,"method":"arith_add","params":[20,22]}`)))

			results := map[string]string{}
			for i := 0; i < 2; i++ {
				msg, err := conn.ReadMessage()
				require.NoError(t, err)
				var resp message.Response
				require.NoError(t, json.Unmarshal(msg, &resp))
				results[string(resp.ID)] = string(resp.Result)
			}
			assert.Equal(t, map[string]string{"1": "3", "2": "42"}, results)

			require.NoError(t, s.Shutdown(time.Second))
			assert.NoError(t, <-served)
		})
	}
}

func TestHTTPHandler(t *testing.T) {
	s := newServer(t)
	srv := httptest.NewServer(s.HTTPHandler())
	defer srv.Close()

	resp, err := http.Post(srv.URL, "application/json", strings.NewReader(`{"jsonrpc":"2.0","id":1,"method":"arith_add","params":[1,2]}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var out message.Response
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.JSONEq(t, `3`, string(out.Result))

	health, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	health.Body.Close()
	assert.Equal(t, http.StatusOK, health.StatusCode)

	tooLarge, err := http.Post(srv.URL, "application/json", strings.NewReader(strings.Repeat(" ", MaxRequestSize+1)))
	require.NoError(t, err)
	tooLarge.Body.Close()
	assert.Equal(t, http.StatusRequestEntityTooLarge, tooLarge.StatusCode)

	require.NoError(t, s.Shutdown(time.Second))
	health, err = http.Get(srv.URL + "/health")
	require.NoError(t, err)
	health.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, health.StatusCode)
}

func TestWebSocket(t *testing.T) {
	s := newServer(t)
	srv := httptest.NewServer(s.HTTPHandler())
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"jsonrpc":"2.0","id":5,"method":"arith_div","params":[9,3]}`)))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.JSONEq(t, `{"jsonrpc":"2.0","id":5,"result":3}`, string(msg))
}

func TestShutdownDeregisters(t *testing.T) {
	s := newServer(t)
	reg := registry.NewStatic("devnet")
	endpoint := registry.Endpoint{Addr: "http://127.0.0.1:8545", Weight: 1}
	require.NoError(t, s.Advertise(context.Background(), reg, "devnet", endpoint, 10))

	found, err := reg.Discover(context.Background(), "devnet")
	require.NoError(t, err)
	assert.Len(t, found, 1)

	require.NoError(t, s.Shutdown(time.Second))
	found, err = reg.Discover(context.Background(), "devnet")
	require.NoError(t, err)
	assert.Empty(t, found)
}

func TestHandleAfterShutdown(t *testing.T) {
	s := newServer(t)
	require.NoError(t, s.Shutdown(time.Second))

	resp := handle(t, s, `{"jsonrpc":"2.0","id":1,"method":"arith_add","params":[1,2]}`)
	require.NotNil(t, resp.Error)
	assert.Equal(t, message.CodeServerError, resp.Error.Code)
	assert.Contains(t, resp.Error.Message, "shutting down")
}

// A connection left open during Shutdown keeps getting answers, never a late wg.Add.
func TestShutdownWithOpenConnection(t *testing.T) {
	s := newServer(t)
	client, server := net.Pipe()
	go s.ServeConn(protocol.NewConn(server, protocol.FramingStream))
	conn := protocol.NewConn(client, protocol.FramingStream)
	defer conn.Close()

	require.NoError(t, conn.WriteMessage([]byte(`{"jsonrpc":"2.0","id":1,"method":"arith_add","params":[1,2]}`)))
	msg, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.JSONEq(t, `{"jsonrpc":"2.0","id":1,"result":3}`, string(msg))

	require.NoError(t, s.Shutdown(time.Second))
	_, err = conn.ReadMessage()
	assert.Error(t, err)
}
