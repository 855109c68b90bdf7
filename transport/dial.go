package transport

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"web3-rpc/protocol"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// DialTCP connects to a node's raw socket endpoint.
func DialTCP(ctx context.Context, addr string, framing protocol.Framing, logger *zap.Logger) (*Mux, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, err
	}
	return NewMux(protocol.NewConn(conn, framing), logger), nil
}

// DialIPC connects to a node's Unix domain socket (geth.ipc). IPC endpoints always
// use stream framing.
func DialIPC(ctx context.Context, path string, logger *zap.Logger) (*Mux, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "unix", path)
	if err != nil {
		return nil, err
	}
	return NewMux(protocol.NewConn(conn, protocol.FramingStream), logger), nil
}

// DialWebSocket connects to a ws:// or wss:// endpoint.
func DialWebSocket(ctx context.Context, url string, header http.Header, logger *zap.Logger) (*Mux, error) {
	dialer := websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: websocket.DefaultDialer.HandshakeTimeout,
	}
	conn, resp, err := dialer.DialContext(ctx, url, header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("websocket handshake: %s: %w", resp.Status, err)
		}
		return nil, err
	}
	return NewMux(NewWebSocketConn(conn), logger), nil
}

// wsConn carries one JSON-RPC message per WebSocket text frame.
type wsConn struct {
	conn *websocket.Conn
}

// NewWebSocketConn adapts an established WebSocket, dialed or upgraded, to MessageConn.
func NewWebSocketConn(conn *websocket.Conn) MessageConn {
	return &wsConn{conn: conn}
}

func (c *wsConn) ReadMessage() ([]byte, error) {
	_, data, err := c.conn.ReadMessage()
	return data, err
}

func (c *wsConn) WriteMessage(msg []byte) error {
	return c.conn.WriteMessage(websocket.TextMessage, msg)
}

func (c *wsConn) Close() error {
	return c.conn.Close()
}
