package protocol

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
)

// Framing selects how messages are delimited on a stream.
type Framing string

const (
	FramingStream Framing = "stream"
	FramingLength Framing = "length"
)

// ParseFraming validates a framing name coming from configuration or flags.
func ParseFraming(s string) (Framing, error) {
	switch Framing(s) {
	case FramingStream, FramingLength:
		return Framing(s), nil
	case "":
		return FramingStream, nil
	}
	return "", fmt.Errorf("unknown framing %q", s)
}

// Conn reads and writes whole JSON-RPC messages on a stream.
//
// ReadMessage must be called from a single goroutine, and WriteMessage calls must be
// serialized by the caller. Both the client multiplexer and the node server hold a
// write mutex for that.
type Conn struct {
	rwc     io.ReadWriteCloser
	framing Framing
	reader  *bufio.Reader
	dec     *json.Decoder
}

func NewConn(rwc io.ReadWriteCloser, framing Framing) *Conn {
	c := &Conn{
		rwc:     rwc,
		framing: framing,
		reader:  bufio.NewReader(rwc),
	}
	if framing != FramingLength {
		c.framing = FramingStream
		c.dec = json.NewDecoder(c.reader)
	}
	return c
}

func (c *Conn) Framing() Framing {
	return c.framing
}

// ReadMessage blocks until one complete message has arrived.
func (c *Conn) ReadMessage() ([]byte, error) {
	if c.framing == FramingLength {
		return Decode(c.reader)
	}
	var raw json.RawMessage
	if err := c.dec.Decode(&raw); err != nil {
		return nil, err
	}
	return raw, nil
}

// WriteMessage sends one message. In stream framing a newline follows every message
// so that the socket stays readable with tools like socat.
func (c *Conn) WriteMessage(msg []byte) error {
	if c.framing == FramingLength {
		return Encode(c.rwc, msg)
	}
	buf := make([]byte, 0, len(msg)+1)
	buf = append(buf, msg...)
	buf = append(buf, '\n')
	_, err := c.rwc.Write(buf)
	return err
}

func (c *Conn) Close() error {
	return c.rwc.Close()
}
