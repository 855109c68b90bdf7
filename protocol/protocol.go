// Package protocol frames JSON-RPC messages on byte streams (TCP and Unix sockets).
//
// Two framings are supported:
//
//   - FramingStream: messages are written back to back as JSON values, the way
//     Ethereum nodes speak on their IPC socket. JSON values are self-delimiting, so
//     the reader simply decodes one value after another.
//   - FramingLength: every message is prefixed with a fixed 8-byte header carrying a
//     magic number, a version and the body length. The receiver reads the header
//     first, then exactly that many bytes.
//
// Length frame format:
//
//	0      3  4         8
//	┌──────┬──┬─────────┬───────────────┐
//	│magic │v │ bodyLen │    body ...    │
//	│ jrp  │01│ uint32  │ bodyLen bytes  │
//	└──────┴──┴─────────┴───────────────┘
package protocol

import (
	"encoding/binary"
	"fmt"
	"io"
)

// Magic number bytes: "jrp" (JSON-RPC protocol).
// Used to reject peers that are not speaking the length framing, e.g. an HTTP
// client hitting the wrong port.
const (
	MagicNumber byte = 0x6a // 'j'
	MagicByte2  byte = 0x72 // 'r'
	MagicByte3  byte = 0x70 // 'p'
	Version     byte = 0x01
	HeaderSize  int  = 8 // 3 (magic) + 1 (version) + 4 (bodyLen)

	// MaxBodyLen bounds a single frame. A txpool_content reply of a busy node is a few
	// megabytes; anything above this is a corrupt or hostile stream.
	MaxBodyLen uint32 = 128 << 20
)

// Encode writes one length-prefixed frame to w.
// The caller must hold a write lock if multiple goroutines share the same writer,
// otherwise frames from different calls interleave and corrupt the stream.
func Encode(w io.Writer, body []byte) error {
	if uint64(len(body)) > uint64(MaxBodyLen) {
		return fmt.Errorf("frame too large: %d bytes", len(body))
	}
	buf := make([]byte, HeaderSize+len(body))
	copy(buf[0:3], []byte{MagicNumber, MagicByte2, MagicByte3})
	buf[3] = Version
	binary.BigEndian.PutUint32(buf[4:8], uint32(len(body)))
	copy(buf[HeaderSize:], body)

	// header and body go out in one write so a concurrent reader on the peer never
	// sees half a frame because of a split segment
	_, err := w.Write(buf)
	return err
}

// Decode reads one length-prefixed frame from r and returns its body.
// io.ReadFull guarantees exactly N bytes are read, so partial reads never leak out.
func Decode(r io.Reader) ([]byte, error) {
	header := make([]byte, HeaderSize)
	if _, err := io.ReadFull(r, header); err != nil {
		return nil, err
	}

	if header[0] != MagicNumber || header[1] != MagicByte2 || header[2] != MagicByte3 {
		return nil, fmt.Errorf("invalid magic number: %x", header[0:3])
	}
	if header[3] != Version {
		return nil, fmt.Errorf("unsupported version: %d", header[3])
	}

	bodyLen := binary.BigEndian.Uint32(header[4:8])
	if bodyLen > MaxBodyLen {
		return nil, fmt.Errorf("frame too large: %d bytes", bodyLen)
	}

	body := make([]byte, bodyLen)
	if _, err := io.ReadFull(r, body); err != nil {
		return nil, err
	}
	return body, nil
}
