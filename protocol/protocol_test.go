package protocol

import (
	"bytes"
	"io"
	"net"
	"strings"
	"testing"
)

func TestEncodeDecode(t *testing.T) {
	body := []byte(`{"jsonrpc":"2.0","id":1,"method":"txpool_status","params":[]}`)

	var buf bytes.Buffer
	if err := Encode(&buf, body); err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if buf.Len() != HeaderSize+len(body) {
		t.Fatalf("frame length: got %d, want %d", buf.Len(), HeaderSize+len(body))
	}

	decoded, err := Decode(&buf)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if !bytes.Equal(decoded, body) {
		t.Errorf("Body mismatch: got %s, want %s", decoded, body)
	}
}

func TestDecodeInvalidMagic(t *testing.T) {
	var buf bytes.Buffer
	buf.Write([]byte{0x00, 0x00, 0x00, Version, 0x00, 0x00, 0x00, 0x0B})
	buf.WriteString("hello world")

	_, err := Decode(&buf)
	if err == nil {
		t.Fatal("expected error for invalid magic number")
	}
	if !strings.Contains(err.Error(), "invalid magic number") {
		t.Errorf("error should mention the magic number, got: %v", err)
	}
}

func TestDecodeInvalidVersion(t *testing.T) {
	var buf bytes.Buffer
	buf.Write([]byte{MagicNumber, MagicByte2, MagicByte3, 0xFF, 0, 0, 0, 0})

	_, err := Decode(&buf)
	if err == nil {
		t.Fatal("expected error for unknown version")
	}
	if !strings.Contains(err.Error(), "unsupported version") {
		t.Errorf("error should mention the version, got: %v", err)
	}
}

func TestDecodeOversizedFrame(t *testing.T) {
	var buf bytes.Buffer
	buf.Write([]byte{MagicNumber, MagicByte2, MagicByte3, Version, 0xFF, 0xFF, 0xFF, 0xFF})

	if _, err := Decode(&buf); err == nil || !strings.Contains(err.Error(), "frame too large") {
		t.Fatalf("expected frame too large, got %v", err)
	}
}

func TestDecodeTruncatedBody(t *testing.T) {
	var buf bytes.Buffer
	if err := Encode(&buf, []byte("0123456789")); err != nil {
		t.Fatal(err)
	}
	truncated := bytes.NewReader(buf.Bytes()[:buf.Len()-3])

	if _, err := Decode(truncated); err != io.ErrUnexpectedEOF {
		t.Fatalf("expected io.ErrUnexpectedEOF, got %v", err)
	}
}

func TestDecodeLargeBody(t *testing.T) {
	var buf bytes.Buffer

	largeBody := make([]byte, 1024*1024)
	for i := range largeBody {
		largeBody[i] = byte(i % 256)
	}

	if err := Encode(&buf, largeBody); err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	decoded, err := Decode(&buf)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if !bytes.Equal(decoded, largeBody) {
		t.Errorf("large body mismatch")
	}
}

func TestConnFramings(t *testing.T) {
	for _, framing := range []Framing{FramingStream, FramingLength} {
		framing := framing
		t.Run(string(framing), func(t *testing.T) {
			a, b := net.Pipe()
			client, server := NewConn(a, framing), NewConn(b, framing)
			defer client.Close()
			defer server.Close()

			msgs := []string{
				`{"jsonrpc":"2.0","id":1,"method":"txpool_status","params":[]}`,
				`{"jsonrpc":"2.0","id":2,"method":"txpool_contentFrom","params":["0xAbC"]}`,
			}
			go func() {
				for _, m := range msgs {
					if err := client.WriteMessage([]byte(m)); err != nil {
						return
					}
				}
			}()

			for _, want := range msgs {
				got, err := server.ReadMessage()
				if err != nil {
					t.Fatalf("ReadMessage failed: %v", err)
				}
				if string(got) != want {
					t.Fatalf("got %s, want %s", got, want)
				}
			}
		})
	}
}

func TestParseFraming(t *testing.T) {
	if f, err := ParseFraming(""); err != nil || f != FramingStream {
		t.Fatalf("empty framing should default to stream, got %q, %v", f, err)
	}
	if f, err := ParseFraming("length"); err != nil || f != FramingLength {
		t.Fatalf("got %q, %v", f, err)
	}
	if _, err := ParseFraming("xml"); err == nil {
		t.Fatal("expected error for unknown framing")
	}
}
